package domain

import (
	"context"

	"github.com/shopspring/decimal"
)

// RoundStore persists finished rounds with their settled bets
type RoundStore interface {
	// InsertRound writes the round and all its evaluated bets; unique on (game, round id)
	InsertRound(ctx context.Context, round *Round) error
	// LastRoundIDForToday returns the highest round id of the day (YYMMDD prefix) or ""
	LastRoundIDForToday(ctx context.Context, game GameType, day string) (string, error)
}

// Ledger applies balance mutations for bets
type Ledger interface {
	Debit(ctx context.Context, userID int64, amount decimal.Decimal, reason string) error
	Credit(ctx context.Context, userID int64, amount decimal.Decimal, reason string) error
	RecordFee(ctx context.Context, game GameType, userID int64, stake, fee decimal.Decimal) error
}

// Outbound event commands
const (
	EventRoundStart   = "round_start"
	EventTimerUpdate  = "timer_update"
	EventBetResult    = "bet_result"
	EventRoundState   = "round_state"
	EventBetConfirmed = "bet_confirmed"
	EventBetRejected  = "bet_rejected"
)

// Event is one outbound message
type Event struct {
	Game    GameType    `json:"game"`
	Command string      `json:"command"`
	Data    interface{} `json:"data"`
}

// Notifier delivers events to connected clients
type Notifier interface {
	// Broadcast sends to every subscriber of the mode
	Broadcast(ctx context.Context, key ModeKey, event Event)
	// SendTo sends to one connection only
	SendTo(ctx context.Context, connRef string, event Event)
}

// RoundStartData is broadcast when a round opens
type RoundStartData struct {
	RoundID string `json:"round_id"`
	Mode    string `json:"mode"`
	Timer   int64  `json:"timer"`
}

// TimerUpdateData is broadcast every heartbeat
type TimerUpdateData struct {
	RoundID  string `json:"round_id"`
	Mode     string `json:"mode"`
	TimeLeft int64  `json:"time_left"`
}

// BetResultItem is one settled bet inside a personalized result
type BetResultItem struct {
	BetID     string          `json:"bet_id"`
	Selection Selection       `json:"selection"`
	Amount    decimal.Decimal `json:"stake_amount"`
	Won       bool            `json:"won"`
	Payout    decimal.Decimal `json:"payout"`
}

// BetResultData is pushed to the connection that placed the bets
type BetResultData struct {
	RoundID     string          `json:"round_id"`
	Mode        string          `json:"mode"`
	Outcome     Outcome         `json:"outcome"`
	Bets        []BetResultItem `json:"bets"`
	GameResult  string          `json:"game_result"`
	TotalPayout decimal.Decimal `json:"total_payout"`
}

// BetConfirmedData acknowledges an admitted bet
type BetConfirmedData struct {
	RoundID string `json:"round_id"`
	BetID   string `json:"bet_id"`
	Mode    string `json:"mode"`
}

// BetRejectedData reports a refused bet
type BetRejectedData struct {
	Mode   string `json:"mode"`
	Reason string `json:"reason"`
	Error  string `json:"error,omitempty"`
}

// RoundStateData answers a join
type RoundStateData struct {
	Mode     string `json:"mode"`
	RoundID  string `json:"round_id,omitempty"`
	TimeLeft int64  `json:"time_left"`
	Open     bool   `json:"open"`
}
