// Package machine drives every mode through its round lifecycle.
package machine

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"github.com/frankieli/draw_games/internal/modules/draw_game/domain"
	"github.com/frankieli/draw_games/internal/modules/draw_game/payout"
	"github.com/frankieli/draw_games/internal/modules/draw_game/registry"
	"github.com/frankieli/draw_games/internal/modules/draw_game/result"
	"github.com/frankieli/draw_games/pkg/logger"
	"github.com/frankieli/draw_games/pkg/metrics"
)

// IDAllocator hands out round ids
type IDAllocator interface {
	Next(ctx context.Context, game domain.GameType) (string, error)
}

// Deps are the collaborators of the scheduler
type Deps struct {
	Registry  *registry.Registry
	IDs       IDAllocator
	Generator result.Generator
	Evaluator payout.Evaluator
	Store     domain.RoundStore
	Ledger    domain.Ledger
	Notifier  domain.Notifier
	Metrics   *metrics.Metrics
}

// Scheduler runs one loop per mode. Loops share no state besides the collaborators.
type Scheduler struct {
	deps Deps

	TickInterval time.Duration
	DrainTimeout time.Duration
	now          func() time.Time

	mu    sync.Mutex
	loops map[domain.ModeKey]*modeLoop
	wg    sync.WaitGroup
}

// modeLoop is the state of one mode; mu serialises its ticks
type modeLoop struct {
	mu      sync.Mutex
	key     domain.ModeKey
	mode    domain.Mode
	spec    domain.GameSpec
	running bool

	round     *domain.Round // open round, also installed in the registry
	countdown time.Duration
	pending   *domain.Round // sealed round whose draw failed
	outbox    []delivery    // personal results, sent once mu is released
}

// delivery is one personal result waiting for its connection
type delivery struct {
	connRef string
	event   domain.Event
}

// takeOutbox empties the outbox; the caller holds mu
func (l *modeLoop) takeOutbox() []delivery {
	out := l.outbox
	l.outbox = nil
	return out
}

// NewScheduler creates a scheduler with a 1s heartbeat
func NewScheduler(deps Deps) *Scheduler {
	return &Scheduler{
		deps:         deps,
		TickInterval: time.Second,
		DrainTimeout: 10 * time.Second,
		now:          time.Now,
		loops:        make(map[domain.ModeKey]*modeLoop),
	}
}

// WithClock replaces the clock, for tests
func (s *Scheduler) WithClock(now func() time.Time) *Scheduler {
	s.now = now
	return s
}

func (s *Scheduler) loop(key domain.ModeKey) (*modeLoop, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if l, ok := s.loops[key]; ok {
		return l, nil
	}
	m, spec, err := s.deps.Registry.Mode(key)
	if err != nil {
		return nil, err
	}
	l := &modeLoop{key: key, mode: m, spec: spec}
	s.loops[key] = l
	return l, nil
}

// Start begins the perpetual loop of one mode. A second call for the same mode is a no-op.
func (s *Scheduler) Start(ctx context.Context, key domain.ModeKey) error {
	l, err := s.loop(key)
	if err != nil {
		return err
	}
	s.mu.Lock()
	if l.running {
		s.mu.Unlock()
		logger.Debug(ctx).Str("mode", key.String()).Msg("[Scheduler] loop already running")
		return nil
	}
	l.running = true
	s.mu.Unlock()

	s.wg.Add(1)
	go s.run(ctx, l)
	return nil
}

// StartAll starts every mode known to the registry
func (s *Scheduler) StartAll(ctx context.Context) error {
	for _, key := range s.deps.Registry.Keys() {
		if err := s.Start(ctx, key); err != nil {
			return err
		}
	}
	return nil
}

// Wait blocks until every loop has drained after its context was cancelled
func (s *Scheduler) Wait() {
	s.wg.Wait()
}

func (s *Scheduler) run(ctx context.Context, l *modeLoop) {
	defer s.wg.Done()
	ctx = logger.WithFields(ctx, map[string]interface{}{"game": string(l.key.Game), "mode": l.key.Label})
	logger.Info(ctx).Dur("duration", l.mode.Duration).Str("settlement", l.spec.Settlement.String()).Msg("🚀 [Scheduler] mode loop started")

	s.tick(ctx, l)
	ticker := time.NewTicker(s.TickInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			s.drain(l)
			logger.InfoGlobal().Str("mode", l.key.String()).Msg("🛑 [Scheduler] mode loop stopped")
			return
		case <-ticker.C:
			s.tick(ctx, l)
		}
	}
}

// Tick runs one heartbeat of a mode
func (s *Scheduler) Tick(ctx context.Context, key domain.ModeKey) error {
	l, err := s.loop(key)
	if err != nil {
		return err
	}
	s.tick(ctx, l)
	return nil
}

func (s *Scheduler) tick(ctx context.Context, l *modeLoop) {
	l.mu.Lock()
	s.step(ctx, l)
	out := l.takeOutbox()
	l.mu.Unlock()

	s.deliver(ctx, out)
}

// deliver sends personal results; a slow connection never holds the mode lock
func (s *Scheduler) deliver(ctx context.Context, out []delivery) {
	for _, d := range out {
		s.deps.Notifier.SendTo(ctx, d.connRef, d.event)
	}
}

// step advances the mode by one heartbeat; the caller holds l.mu
func (s *Scheduler) step(ctx context.Context, l *modeLoop) {
	if l.pending != nil {
		if !s.settle(ctx, l, l.pending) {
			return
		}
		l.pending = nil
	}
	if l.round == nil {
		s.open(ctx, l)
		return
	}

	left := s.timeLeft(l)
	s.deps.Notifier.Broadcast(ctx, l.key, domain.Event{
		Game:    l.key.Game,
		Command: domain.EventTimerUpdate,
		Data: domain.TimerUpdateData{
			RoundID:  l.round.RoundID,
			Mode:     l.key.Label,
			TimeLeft: int64(left.Round(time.Second) / time.Second),
		},
	})
	if left > 0 {
		return
	}
	if s.closeAndSettle(ctx, l) {
		s.open(ctx, l)
	}
}

// timeLeft steps the countdown; minute-aligned modes read the wall clock instead
func (s *Scheduler) timeLeft(l *modeLoop) time.Duration {
	if l.mode.AlignToMinute {
		left := l.round.ClosesAt.Sub(s.now())
		if left < 0 {
			return 0
		}
		return left
	}
	l.countdown -= s.TickInterval
	if l.countdown < 0 {
		l.countdown = 0
	}
	return l.countdown
}

func (s *Scheduler) closesAt(l *modeLoop, now time.Time) time.Time {
	if l.mode.AlignToMinute {
		return now.Truncate(time.Minute).Add(time.Minute)
	}
	return now.Add(l.mode.Duration)
}

// open allocates an id and installs a new round. Failures leave the mode idle until the next tick.
func (s *Scheduler) open(ctx context.Context, l *modeLoop) {
	now := s.now()
	roundID, err := s.deps.IDs.Next(ctx, l.key.Game)
	if err != nil {
		logger.Error(ctx).Err(err).Msg("[Scheduler] round id allocation failed, retrying next tick")
		return
	}

	round := domain.NewRound(roundID, l.mode, now, s.closesAt(l, now), l.spec.CutoffMargin)
	if l.spec.Settlement == domain.SettleAtIntake {
		outcome, err := s.deps.Generator.Generate(ctx, l.key.Game, result.Params{Mode: l.mode, RoundID: roundID})
		if err != nil {
			s.deps.Metrics.RandomSourceFailed(string(l.key.Game))
			logger.Warn(ctx).Err(err).Str("round_id", roundID).Msg("[Scheduler] pre-roll failed, skipping this tick")
			return
		}
		if err := round.SetOutcome(outcome); err != nil {
			logger.Error(ctx).Err(err).Msg("[Scheduler] set pre-rolled outcome")
			return
		}
	}
	if err := s.deps.Registry.OpenNewRound(l.key, round); err != nil {
		logger.Error(ctx).Err(err).Str("round_id", roundID).Msg("[Scheduler] open round")
		return
	}
	l.round = round
	l.countdown = round.ClosesAt.Sub(now)

	logger.Info(ctx).
		Str("round_id", roundID).
		Time("closes_at", round.ClosesAt).
		Msg("🔄 [Scheduler] round opened")

	s.deps.Notifier.Broadcast(ctx, l.key, domain.Event{
		Game:    l.key.Game,
		Command: domain.EventRoundStart,
		Data: domain.RoundStartData{
			RoundID: roundID,
			Mode:    l.key.Label,
			Timer:   int64(round.Remaining(now).Round(time.Second) / time.Second),
		},
	})
}

// closeAndSettle seals the open round and settles it. It returns false when the
// draw failed and the sealed round waits for the next tick.
func (s *Scheduler) closeAndSettle(ctx context.Context, l *modeLoop) bool {
	sealed, err := s.deps.Registry.SealAndDrain(l.key)
	l.round = nil
	if err != nil {
		logger.Error(ctx).Err(err).Msg("[Scheduler] seal round")
		return true
	}
	if sealed == nil {
		return true
	}
	if len(sealed.Bets) == 0 {
		s.deps.Metrics.RoundDiscarded(string(l.key.Game), l.key.Label)
		logger.Debug(ctx).Str("round_id", sealed.RoundID).Msg("[Scheduler] round closed without bets, discarded")
		return true
	}
	if !s.settle(ctx, l, sealed) {
		l.pending = sealed
		return false
	}
	return true
}

// settle draws (unless pre-rolled), evaluates, persists, credits and notifies
func (s *Scheduler) settle(ctx context.Context, l *modeLoop, round *domain.Round) bool {
	started := time.Now()
	ctx = logger.WithFields(ctx, map[string]interface{}{"round_id": round.RoundID})

	if round.Outcome == nil {
		outcome, err := s.deps.Generator.Generate(ctx, l.key.Game, result.Params{Mode: l.mode, RoundID: round.RoundID})
		if err != nil {
			s.deps.Metrics.RandomSourceFailed(string(l.key.Game))
			logger.Warn(ctx).Err(err).Int("bets", len(round.Bets)).Msg("[Scheduler] draw failed, retrying next tick")
			return false
		}
		if err := round.SetOutcome(outcome); err != nil {
			logger.Error(ctx).Err(err).Msg("[Scheduler] set outcome")
			return false
		}
	}

	for _, bet := range round.Bets {
		if bet.Result != nil {
			continue
		}
		ev, err := s.deps.Evaluator.Evaluate(bet, round.Outcome)
		if err != nil {
			logger.Error(ctx).Err(err).Str("bet_id", bet.BetID).Msg("[Scheduler] evaluate bet, settling as a loss")
			ev = domain.Evaluation{Multiplier: decimal.Zero, Payout: decimal.Zero}
		}
		bet.Result = &ev
	}

	if err := round.Settle(); err != nil {
		logger.Error(ctx).Err(err).Msg("[Scheduler] settle round")
	}

	if err := s.deps.Store.InsertRound(ctx, round); err != nil {
		s.deps.Metrics.PersistenceFailed(string(l.key.Game))
		logger.Error(ctx).Err(fmt.Errorf("%w: %v", domain.ErrPersistence, err)).Msg("[Scheduler] persist round failed, continuing")
	}

	for _, bet := range round.Bets {
		if !bet.ClaimSettlement() {
			continue
		}
		reason := fmt.Sprintf("payout:%s:%s:%s", bet.Game, round.RoundID, bet.BetID)
		if err := s.deps.Ledger.Credit(ctx, bet.UserID, bet.Result.Payout, reason); err != nil {
			bet.ReleaseSettlement()
			logger.Error(ctx).Err(err).Str("bet_id", bet.BetID).Int64("user_id", bet.UserID).Msg("[Scheduler] ledger credit failed")
		}
	}

	s.notifyResults(ctx, l, round)

	s.deps.Metrics.RoundSettled(string(l.key.Game), l.key.Label, time.Since(started))
	logger.Info(ctx).
		Int("bets", len(round.Bets)).
		Int("players", round.Players()).
		Dur("took", time.Since(started)).
		Msg("📊 [Scheduler] round settled")
	return true
}

// notifyResults queues one personalized result for every connection that bet in the round
func (s *Scheduler) notifyResults(ctx context.Context, l *modeLoop, round *domain.Round) {
	var order []string
	byConn := make(map[string]*domain.BetResultData)

	for _, bet := range round.Bets {
		if bet.ConnectionRef == "" {
			continue
		}
		data, ok := byConn[bet.ConnectionRef]
		if !ok {
			data = &domain.BetResultData{
				RoundID:     round.RoundID,
				Mode:        l.key.Label,
				Outcome:     round.Outcome,
				GameResult:  "lose",
				TotalPayout: decimal.Zero,
			}
			byConn[bet.ConnectionRef] = data
			order = append(order, bet.ConnectionRef)
		}
		data.Bets = append(data.Bets, domain.BetResultItem{
			BetID:     bet.BetID,
			Selection: bet.Selection,
			Amount:    bet.Amount,
			Won:       bet.Result.Won,
			Payout:    bet.Result.Payout,
		})
		if bet.Result.Won {
			data.GameResult = "win"
			data.TotalPayout = data.TotalPayout.Add(bet.Result.Payout)
		}
	}

	for _, conn := range order {
		l.outbox = append(l.outbox, delivery{connRef: conn, event: domain.Event{
			Game:    l.key.Game,
			Command: domain.EventBetResult,
			Data:    *byConn[conn],
		}})
	}
}

// drain settles what the mode still holds; it never opens a new round
func (s *Scheduler) drain(l *modeLoop) {
	ctx, cancel := context.WithTimeout(context.Background(), s.DrainTimeout)
	defer cancel()
	ctx = logger.WithFields(ctx, map[string]interface{}{"game": string(l.key.Game), "mode": l.key.Label})

	l.mu.Lock()
	s.drainLocked(ctx, l)
	out := l.takeOutbox()
	l.mu.Unlock()

	s.deliver(ctx, out)
}

func (s *Scheduler) drainLocked(ctx context.Context, l *modeLoop) {
	if l.pending != nil {
		if s.settle(ctx, l, l.pending) {
			l.pending = nil
		} else {
			logger.Error(ctx).Str("round_id", l.pending.RoundID).Int("bets", len(l.pending.Bets)).Msg("[Scheduler] pending round lost on shutdown")
		}
	}
	if l.round != nil {
		if !s.closeAndSettle(ctx, l) {
			logger.Error(ctx).Str("round_id", l.pending.RoundID).Int("bets", len(l.pending.Bets)).Msg("[Scheduler] round lost on shutdown")
		}
	}
}
