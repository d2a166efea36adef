// Package registry holds the current round of every mode.
//
// Each mode has its own slot and its own lock; appending a bet and sealing a
// round take the same lock, so no bet can land in a round after sealing starts.
package registry

import (
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/frankieli/draw_games/internal/modules/draw_game/domain"
)

type slot struct {
	mu      sync.Mutex
	mode    domain.Mode
	spec    domain.GameSpec
	current *domain.Round
}

// AdmitFunc runs under the mode lock right after a bet was appended
type AdmitFunc func(round *domain.Round, bet *domain.Bet) error

// Registry maps each mode to its current round. The set of modes is fixed at construction.
type Registry struct {
	slots map[domain.ModeKey]*slot
	keys  []domain.ModeKey
}

// New builds a registry for every mode of the given games
func New(specs []domain.GameSpec) *Registry {
	r := &Registry{slots: make(map[domain.ModeKey]*slot)}
	for _, spec := range specs {
		for _, m := range spec.Modes {
			key := m.Key()
			r.slots[key] = &slot{mode: m, spec: spec}
			r.keys = append(r.keys, key)
		}
	}
	sort.Slice(r.keys, func(i, j int) bool { return r.keys[i].String() < r.keys[j].String() })
	return r
}

// Keys lists all registered modes in a stable order
func (r *Registry) Keys() []domain.ModeKey {
	out := make([]domain.ModeKey, len(r.keys))
	copy(out, r.keys)
	return out
}

// Mode returns the configuration of a mode
func (r *Registry) Mode(key domain.ModeKey) (domain.Mode, domain.GameSpec, error) {
	s, err := r.slot(key)
	if err != nil {
		return domain.Mode{}, domain.GameSpec{}, err
	}
	return s.mode, s.spec, nil
}

func (r *Registry) slot(key domain.ModeKey) (*slot, error) {
	s, ok := r.slots[key]
	if !ok {
		return nil, fmt.Errorf("%w: %s", domain.ErrUnknownMode, key)
	}
	return s, nil
}

// OpenNewRound installs round as the current round of its mode.
// It fails while a previous round is still installed.
func (r *Registry) OpenNewRound(key domain.ModeKey, round *domain.Round) error {
	s, err := r.slot(key)
	if err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.current != nil {
		return fmt.Errorf("%w: %s still holds round %s (%s)", domain.ErrRoundNotSettled, key, s.current.RoundID, s.current.Status)
	}
	if round.Status != domain.RoundOpen {
		return fmt.Errorf("round %s is %s, not open", round.RoundID, round.Status)
	}
	s.current = round
	return nil
}

// TryAppendBet appends bet to the open round of the mode.
// admit, when not nil, runs under the same lock; if it fails the bet is still in the round.
func (r *Registry) TryAppendBet(key domain.ModeKey, bet *domain.Bet, now time.Time, admit AdmitFunc) (string, error) {
	s, err := r.slot(key)
	if err != nil {
		return "", err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.current == nil {
		return "", fmt.Errorf("%w: %s", domain.ErrNoActiveRound, key)
	}
	if err := s.current.Append(bet, now); err != nil {
		return "", err
	}
	if admit != nil {
		if err := admit(s.current, bet); err != nil {
			return s.current.RoundID, err
		}
	}
	return s.current.RoundID, nil
}

// Precheck reports whether a bet could be admitted now and returns a prior bet
// with the same request id if there is one. It does not reserve anything.
func (r *Registry) Precheck(key domain.ModeKey, userID int64, requestID string, now time.Time) (*domain.Bet, error) {
	s, err := r.slot(key)
	if err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.current == nil {
		return nil, fmt.Errorf("%w: %s", domain.ErrNoActiveRound, key)
	}
	if prior := s.current.FindRequest(userID, requestID); prior != nil {
		return prior, nil
	}
	if !s.current.CanAcceptBet(now) {
		return nil, fmt.Errorf("%w: round %s", domain.ErrBettingClosed, s.current.RoundID)
	}
	return nil, nil
}

// SealAndDrain closes the current round and removes it from the registry.
// The returned round holds a stable snapshot of its bets; nil means no round was installed.
func (r *Registry) SealAndDrain(key domain.ModeKey) (*domain.Round, error) {
	s, err := r.slot(key)
	if err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	round := s.current
	if round == nil {
		return nil, nil
	}
	if err := round.Close(); err != nil {
		return nil, err
	}
	s.current = nil
	return round, nil
}

// Current returns a snapshot of the mode's current round
func (r *Registry) Current(key domain.ModeKey, now time.Time) (domain.RoundView, bool) {
	s, err := r.slot(key)
	if err != nil {
		return domain.RoundView{}, false
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.current == nil {
		return domain.RoundView{}, false
	}
	return s.current.View(now), true
}
