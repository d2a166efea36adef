// Package metrics exposes the engine's prometheus collectors.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "draw_games"

// Metrics groups the collectors. A nil *Metrics records nothing.
type Metrics struct {
	registry *prometheus.Registry

	BetsAccepted        *prometheus.CounterVec
	BetsRejected        *prometheus.CounterVec
	RoundsSettled       *prometheus.CounterVec
	RoundsDiscarded     *prometheus.CounterVec
	PersistenceFailures *prometheus.CounterVec
	RandomSourceErrors  *prometheus.CounterVec
	SettlementSeconds   *prometheus.HistogramVec
	Connections         prometheus.Gauge
}

// New creates the collectors and registers them on registry
func New(registry *prometheus.Registry) *Metrics {
	m := &Metrics{
		registry: registry,
		BetsAccepted: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "bets_accepted_total",
			Help:      "Bets admitted into a round.",
		}, []string{"game", "mode"}),
		BetsRejected: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "bets_rejected_total",
			Help:      "Bets refused at intake, by reason.",
		}, []string{"game", "reason"}),
		RoundsSettled: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "rounds_settled_total",
			Help:      "Rounds closed with at least one bet.",
		}, []string{"game", "mode"}),
		RoundsDiscarded: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "rounds_discarded_total",
			Help:      "Rounds closed without bets.",
		}, []string{"game", "mode"}),
		PersistenceFailures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "persistence_failures_total",
			Help:      "Round store writes that failed.",
		}, []string{"game"}),
		RandomSourceErrors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "random_source_errors_total",
			Help:      "Outcome draws that failed and were retried on the next tick.",
		}, []string{"game"}),
		SettlementSeconds: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "settlement_duration_seconds",
			Help:      "Time spent in close-and-settle.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"game"}),
		Connections: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "ws_connections",
			Help:      "Open websocket connections.",
		}),
	}
	registry.MustRegister(
		m.BetsAccepted,
		m.BetsRejected,
		m.RoundsSettled,
		m.RoundsDiscarded,
		m.PersistenceFailures,
		m.RandomSourceErrors,
		m.SettlementSeconds,
		m.Connections,
	)
	return m
}

// NewDefault creates a fresh registry with process and go collectors
func NewDefault() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	return New(reg)
}

// Handler serves the registry in the prometheus text format
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

func (m *Metrics) BetAccepted(game, mode string) {
	if m == nil {
		return
	}
	m.BetsAccepted.WithLabelValues(game, mode).Inc()
}

func (m *Metrics) BetRejected(game, reason string) {
	if m == nil {
		return
	}
	m.BetsRejected.WithLabelValues(game, reason).Inc()
}

func (m *Metrics) RoundSettled(game, mode string, took time.Duration) {
	if m == nil {
		return
	}
	m.RoundsSettled.WithLabelValues(game, mode).Inc()
	m.SettlementSeconds.WithLabelValues(game).Observe(took.Seconds())
}

func (m *Metrics) RoundDiscarded(game, mode string) {
	if m == nil {
		return
	}
	m.RoundsDiscarded.WithLabelValues(game, mode).Inc()
}

func (m *Metrics) PersistenceFailed(game string) {
	if m == nil {
		return
	}
	m.PersistenceFailures.WithLabelValues(game).Inc()
}

func (m *Metrics) RandomSourceFailed(game string) {
	if m == nil {
		return
	}
	m.RandomSourceErrors.WithLabelValues(game).Inc()
}

func (m *Metrics) ConnectionOpened() {
	if m == nil {
		return
	}
	m.Connections.Inc()
}

func (m *Metrics) ConnectionClosed() {
	if m == nil {
		return
	}
	m.Connections.Dec()
}
