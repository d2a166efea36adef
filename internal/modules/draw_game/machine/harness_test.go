package machine_test

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/frankieli/draw_games/internal/modules/draw_game/domain"
	"github.com/frankieli/draw_games/internal/modules/draw_game/machine"
	"github.com/frankieli/draw_games/internal/modules/draw_game/payout"
	"github.com/frankieli/draw_games/internal/modules/draw_game/registry"
	"github.com/frankieli/draw_games/internal/modules/draw_game/repository/memory"
	"github.com/frankieli/draw_games/internal/modules/draw_game/result"
	"github.com/frankieli/draw_games/internal/modules/draw_game/roundid"
	"github.com/frankieli/draw_games/internal/modules/draw_game/usecase"
	"github.com/frankieli/draw_games/internal/modules/wallet"
	"github.com/frankieli/draw_games/pkg/logger"
)

func init() {
	logger.Init(logger.Config{Level: "debug", Format: "console"})
}

type clock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *clock) Set(t time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = t
}

func (c *clock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

type sent struct {
	key   domain.ModeKey
	event domain.Event
}

// recorder is a Notifier that keeps everything
type recorder struct {
	mu         sync.Mutex
	broadcasts []sent
	direct     map[string][]domain.Event

	// gate, when set, stalls SendTo until closed; waiting is signalled on entry
	gate    chan struct{}
	waiting chan struct{}
}

func (r *recorder) stallSends() (release func()) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.gate = make(chan struct{})
	r.waiting = make(chan struct{}, 1)
	return func() { close(r.gate) }
}

func newRecorder() *recorder {
	return &recorder{direct: make(map[string][]domain.Event)}
}

func (r *recorder) Broadcast(ctx context.Context, key domain.ModeKey, event domain.Event) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.broadcasts = append(r.broadcasts, sent{key: key, event: event})
}

func (r *recorder) SendTo(ctx context.Context, connRef string, event domain.Event) {
	r.mu.Lock()
	gate, waiting := r.gate, r.waiting
	r.mu.Unlock()
	if gate != nil {
		select {
		case waiting <- struct{}{}:
		default:
		}
		<-gate
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	r.direct[connRef] = append(r.direct[connRef], event)
}

func (r *recorder) count(key domain.ModeKey, command string) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for _, b := range r.broadcasts {
		if b.key == key && b.event.Command == command {
			n++
		}
	}
	return n
}

func (r *recorder) sentTo(conn string) []domain.Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]domain.Event(nil), r.direct[conn]...)
}

// fixedGenerator returns a fixed outcome per game and can be told to fail
type fixedGenerator struct {
	mu       sync.Mutex
	calls    map[domain.GameType]int
	failNext int
	outcomes map[domain.GameType]domain.Outcome
}

func newFixedGenerator() *fixedGenerator {
	return &fixedGenerator{
		calls: make(map[domain.GameType]int),
		outcomes: map[domain.GameType]domain.Outcome{
			domain.GameWingo:  domain.NewDigitOutcome(domain.GameWingo, 3),
			domain.GameTRX:    domain.NewDigitOutcome(domain.GameTRX, 8),
			domain.GameK3:     domain.NewDiceOutcome(3, 3, 4),
			domain.Game5D:     domain.NewFiveDOutcome([5]int{1, 2, 3, 4, 5}),
			domain.GameRacing: domain.NewRaceOutcome([]int{7, 1, 2, 3, 4, 5, 6, 8, 9, 10}),
		},
	}
}

func (g *fixedGenerator) Generate(ctx context.Context, game domain.GameType, params result.Params) (domain.Outcome, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.calls[game]++
	if g.failNext > 0 {
		g.failNext--
		return nil, fmt.Errorf("%w: oracle down", domain.ErrRandomSource)
	}
	return g.outcomes[game], nil
}

func (g *fixedGenerator) callCount(game domain.GameType) int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.calls[game]
}

func (g *fixedGenerator) fail(n int) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.failNext = n
}

type failingStore struct {
	*memory.RoundRepository
}

func (failingStore) InsertRound(ctx context.Context, round *domain.Round) error {
	return errors.New("disk full")
}

type harness struct {
	t      *testing.T
	clock  *clock
	reg    *registry.Registry
	store  *memory.RoundRepository
	ledger *wallet.MemoryLedger
	notes  *recorder
	gen    *fixedGenerator
	sched  *machine.Scheduler
	intake *usecase.IntakeUseCase
}

func newHarness(t *testing.T, store domain.RoundStore) *harness {
	t.Helper()
	h := &harness{
		t:      t,
		clock:  &clock{now: time.Date(2025, 5, 11, 12, 0, 0, 0, time.Local)},
		reg:    registry.New(domain.Catalogue()),
		store:  memory.NewRoundRepository(),
		ledger: wallet.NewMemoryLedger(decimal.NewFromInt(1000)),
		notes:  newRecorder(),
		gen:    newFixedGenerator(),
	}
	if store == nil {
		store = h.store
	}
	eval := payout.NewEvaluator()
	ids := roundid.NewAllocator(roundid.NewMemorySequence(), store).WithClock(h.clock.Now)
	h.sched = machine.NewScheduler(machine.Deps{
		Registry:  h.reg,
		IDs:       ids,
		Generator: h.gen,
		Evaluator: eval,
		Store:     store,
		Ledger:    h.ledger,
		Notifier:  h.notes,
	}).WithClock(h.clock.Now)
	h.intake = usecase.NewIntakeUseCase(h.reg, eval, h.ledger, nil).WithClock(h.clock.Now)
	return h
}

// tick runs n heartbeats of key, advancing the clock one second before each
func (h *harness) tick(key domain.ModeKey, n int) {
	h.t.Helper()
	for i := 0; i < n; i++ {
		h.clock.Advance(time.Second)
		require.NoError(h.t, h.sched.Tick(context.Background(), key))
	}
}

func (h *harness) open(key domain.ModeKey) string {
	h.t.Helper()
	require.NoError(h.t, h.sched.Tick(context.Background(), key))
	view, ok := h.reg.Current(key, h.clock.Now())
	require.True(h.t, ok)
	return view.RoundID
}

func (h *harness) bet(key domain.ModeKey, user int64, conn string, sel domain.Selection) *usecase.BetReceipt {
	h.t.Helper()
	receipt, err := h.intake.PlaceBet(context.Background(), usecase.BetRequest{
		Game:      key.Game,
		Mode:      key.Label,
		UserID:    user,
		Amount:    decimal.NewFromInt(100),
		Selection: sel,
		ConnRef:   conn,
	})
	require.NoError(h.t, err)
	return receipt
}

func (h *harness) payoutCredits() []wallet.Entry {
	var out []wallet.Entry
	for _, e := range h.ledger.Entries() {
		if e.Kind == wallet.EntryCredit && strings.HasPrefix(e.Reason, "payout:") {
			out = append(out, e)
		}
	}
	return out
}
