package memory

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/frankieli/draw_games/internal/modules/draw_game/domain"
)

// RoundRepository keeps settled rounds in memory
type RoundRepository struct {
	mu     sync.RWMutex
	rounds map[string]*domain.Round // game:roundID -> round
	order  []string
}

// NewRoundRepository creates a new in-memory round repository
func NewRoundRepository() *RoundRepository {
	return &RoundRepository{
		rounds: make(map[string]*domain.Round),
	}
}

func roundKey(game domain.GameType, roundID string) string {
	return string(game) + ":" + roundID
}

// InsertRound implements domain.RoundStore
func (r *RoundRepository) InsertRound(ctx context.Context, round *domain.Round) error {
	for _, b := range round.Bets {
		if b.Result == nil {
			return fmt.Errorf("bet %s in round %s not evaluated", b.BetID, round.RoundID)
		}
	}
	key := roundKey(round.Mode.Game, round.RoundID)

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.rounds[key]; ok {
		return fmt.Errorf("round %s already stored", key)
	}
	r.rounds[key] = round
	r.order = append(r.order, key)
	return nil
}

// LastRoundIDForToday implements domain.RoundStore
func (r *RoundRepository) LastRoundIDForToday(ctx context.Context, game domain.GameType, day string) (string, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	last := ""
	for _, round := range r.rounds {
		if round.Mode.Game == game && strings.HasPrefix(round.RoundID, day) && round.RoundID > last {
			last = round.RoundID
		}
	}
	return last, nil
}

// Get returns a stored round
func (r *RoundRepository) Get(game domain.GameType, roundID string) (*domain.Round, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	round, ok := r.rounds[roundKey(game, roundID)]
	return round, ok
}

// Count returns the number of stored rounds
func (r *RoundRepository) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.order)
}
