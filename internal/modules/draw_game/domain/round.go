package domain

import (
	"fmt"
	"time"
)

// RoundStatus is the lifecycle state of a round
type RoundStatus int

const (
	RoundOpen    RoundStatus = iota // 接受下注
	RoundClosed                     // 停止下注，開獎中
	RoundSettled                    // 已結算
)

func (s RoundStatus) String() string {
	switch s {
	case RoundOpen:
		return "open"
	case RoundClosed:
		return "closed"
	case RoundSettled:
		return "settled"
	default:
		return fmt.Sprintf("status(%d)", int(s))
	}
}

// Round is one betting-and-draw cycle of a mode
type Round struct {
	RoundID      string
	Mode         Mode
	Status       RoundStatus
	Outcome      Outcome
	Bets         []*Bet
	OpenedAt     time.Time
	ClosesAt     time.Time
	CutoffMargin time.Duration

	requests map[string]*Bet
}

// NewRound creates an open round
func NewRound(roundID string, mode Mode, openedAt, closesAt time.Time, margin time.Duration) *Round {
	return &Round{
		RoundID:      roundID,
		Mode:         mode,
		Status:       RoundOpen,
		OpenedAt:     openedAt,
		ClosesAt:     closesAt,
		CutoffMargin: margin,
		requests:     make(map[string]*Bet),
	}
}

// CutoffAt is the instant after which no bet is admitted
func (r *Round) CutoffAt() time.Time {
	return r.ClosesAt.Add(-r.CutoffMargin)
}

// CanAcceptBet checks status and the cutoff
func (r *Round) CanAcceptBet(now time.Time) bool {
	return r.Status == RoundOpen && now.Before(r.CutoffAt())
}

// Remaining returns the time left until close, floored at zero
func (r *Round) Remaining(now time.Time) time.Duration {
	left := r.ClosesAt.Sub(now)
	if left < 0 {
		return 0
	}
	return left
}

func requestKey(userID int64, requestID string) string {
	return fmt.Sprintf("%d:%s", userID, requestID)
}

// FindRequest returns the bet previously admitted for the same request id
func (r *Round) FindRequest(userID int64, requestID string) *Bet {
	if requestID == "" {
		return nil
	}
	return r.requests[requestKey(userID, requestID)]
}

// Append admits a bet
func (r *Round) Append(bet *Bet, now time.Time) error {
	if !r.CanAcceptBet(now) {
		return fmt.Errorf("%w: round %s cutoff %s", ErrBettingClosed, r.RoundID, r.CutoffAt().Format(time.RFC3339))
	}
	if r.FindRequest(bet.UserID, bet.RequestID) != nil {
		return fmt.Errorf("%w: request %s", ErrDuplicateBet, bet.RequestID)
	}
	bet.RoundID = r.RoundID
	bet.PlacedAt = now
	r.Bets = append(r.Bets, bet)
	if bet.RequestID != "" {
		r.requests[requestKey(bet.UserID, bet.RequestID)] = bet
	}
	return nil
}

// Close stops betting
func (r *Round) Close() error {
	if r.Status != RoundOpen {
		return fmt.Errorf("round %s: cannot close from %s", r.RoundID, r.Status)
	}
	r.Status = RoundClosed
	return nil
}

// SetOutcome records the drawn result; it can only be set once
func (r *Round) SetOutcome(o Outcome) error {
	if r.Outcome != nil {
		return fmt.Errorf("round %s: outcome already drawn", r.RoundID)
	}
	if r.Status == RoundSettled {
		return fmt.Errorf("round %s: already settled", r.RoundID)
	}
	r.Outcome = o
	return nil
}

// Settle finishes the round
func (r *Round) Settle() error {
	if r.Status != RoundClosed {
		return fmt.Errorf("round %s: cannot settle from %s", r.RoundID, r.Status)
	}
	if r.Outcome == nil {
		return fmt.Errorf("round %s: no outcome", r.RoundID)
	}
	r.Status = RoundSettled
	return nil
}

// Players counts distinct users with a bet in the round
func (r *Round) Players() int {
	seen := make(map[int64]struct{}, len(r.Bets))
	for _, b := range r.Bets {
		seen[b.UserID] = struct{}{}
	}
	return len(seen)
}

// RoundView is a read-only snapshot of a round
type RoundView struct {
	RoundID   string        `json:"round_id"`
	Game      GameType      `json:"game_type"`
	Mode      string        `json:"mode"`
	Status    string        `json:"status"`
	OpenedAt  time.Time     `json:"opened_at"`
	ClosesAt  time.Time     `json:"closes_at"`
	TimeLeft  time.Duration `json:"-"`
	TotalBets int           `json:"total_bets"`
}

// View snapshots the round at now
func (r *Round) View(now time.Time) RoundView {
	return RoundView{
		RoundID:   r.RoundID,
		Game:      r.Mode.Game,
		Mode:      r.Mode.Label,
		Status:    r.Status.String(),
		OpenedAt:  r.OpenedAt,
		ClosesAt:  r.ClosesAt,
		TimeLeft:  r.Remaining(now),
		TotalBets: len(r.Bets),
	}
}
