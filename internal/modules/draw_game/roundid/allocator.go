// Package roundid allocates date-prefixed round ids (YYMMDD + 4-digit daily sequence).
package roundid

import (
	"context"
	"fmt"
	"strconv"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/frankieli/draw_games/internal/modules/draw_game/domain"
	"github.com/frankieli/draw_games/pkg/logger"
)

// DayLayout is the date prefix of every round id
const DayLayout = "060102"

// Sequence is an atomic per (game, day) counter
type Sequence interface {
	// Next increments and returns the counter. floor is the highest sequence already
	// persisted for the day; a counter created by this call starts above it.
	Next(ctx context.Context, game domain.GameType, day string, floor int64) (int64, error)
}

// Allocator hands out round ids. Safe for concurrent use across modes.
type Allocator struct {
	seq   Sequence
	store domain.RoundStore
	now   func() time.Time

	mu     sync.Mutex
	floors map[string]int64 // game:day -> last persisted sequence
	group  singleflight.Group
}

// NewAllocator creates an allocator; store may be nil
func NewAllocator(seq Sequence, store domain.RoundStore) *Allocator {
	return &Allocator{
		seq:    seq,
		store:  store,
		now:    time.Now,
		floors: make(map[string]int64),
	}
}

// WithClock replaces the clock, for tests
func (a *Allocator) WithClock(now func() time.Time) *Allocator {
	a.now = now
	return a
}

// Next allocates the next round id of the game for today
func (a *Allocator) Next(ctx context.Context, game domain.GameType) (string, error) {
	day := a.now().Format(DayLayout)
	floor, err := a.floor(ctx, game, day)
	if err != nil {
		return "", err
	}
	n, err := a.seq.Next(ctx, game, day, floor)
	if err != nil {
		return "", fmt.Errorf("allocate round id %s/%s: %w", game, day, err)
	}
	return Format(day, n), nil
}

// floor reads the last persisted id once per (game, day). Concurrent modes of
// one game share a single store query.
func (a *Allocator) floor(ctx context.Context, game domain.GameType, day string) (int64, error) {
	key := string(game) + ":" + day

	a.mu.Lock()
	f, ok := a.floors[key]
	a.mu.Unlock()
	if ok {
		return f, nil
	}

	v, err, _ := a.group.Do(key, func() (interface{}, error) {
		return a.loadFloor(ctx, game, day)
	})
	if err != nil {
		return 0, err
	}
	f = v.(int64)

	a.mu.Lock()
	a.floors[key] = f
	a.mu.Unlock()
	return f, nil
}

func (a *Allocator) loadFloor(ctx context.Context, game domain.GameType, day string) (int64, error) {
	if a.store == nil {
		return 0, nil
	}
	last, err := a.store.LastRoundIDForToday(ctx, game, day)
	if err != nil {
		return 0, fmt.Errorf("last round id %s/%s: %w", game, day, err)
	}
	if last == "" {
		return 0, nil
	}
	f, err := ParseSequence(last, day)
	if err != nil {
		logger.Warn(ctx).Err(err).Str("game", string(game)).Str("last_round_id", last).Msg("ignoring unparsable round id")
		return 0, nil
	}
	return f, nil
}

// Format builds a round id
func Format(day string, seq int64) string {
	return fmt.Sprintf("%s%04d", day, seq)
}

// ParseSequence extracts the daily sequence from a round id of the given day
func ParseSequence(roundID, day string) (int64, error) {
	if len(roundID) <= len(day) || roundID[:len(day)] != day {
		return 0, fmt.Errorf("round id %q not of day %s", roundID, day)
	}
	return strconv.ParseInt(roundID[len(day):], 10, 64)
}

// MemorySequence keeps counters in process memory
type MemorySequence struct {
	mu       sync.Mutex
	counters map[string]int64
}

// NewMemorySequence creates an in-process sequence
func NewMemorySequence() *MemorySequence {
	return &MemorySequence{counters: make(map[string]int64)}
}

// Next implements Sequence
func (s *MemorySequence) Next(ctx context.Context, game domain.GameType, day string, floor int64) (int64, error) {
	key := string(game) + ":" + day

	s.mu.Lock()
	defer s.mu.Unlock()

	cur, ok := s.counters[key]
	if !ok || cur < floor {
		cur = floor
	}
	cur++
	s.counters[key] = cur
	return cur, nil
}
