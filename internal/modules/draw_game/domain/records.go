package domain

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// RoundRecord is the persisted history row of a settled round
type RoundRecord struct {
	ID           uint64          `gorm:"primaryKey;autoIncrement" json:"-"`
	GameType     string          `gorm:"type:varchar(16);not null;uniqueIndex:idx_draw_rounds_game_round" json:"game_type"`
	RoundID      string          `gorm:"type:varchar(32);not null;uniqueIndex:idx_draw_rounds_game_round" json:"round_id"`
	Mode         string          `gorm:"type:varchar(16);not null;index" json:"mode"`
	Status       int             `gorm:"type:int;not null;default:0" json:"status"`
	Outcome      string          `gorm:"type:text" json:"outcome"` // JSON payload of the game outcome
	OpenedAt     time.Time       `gorm:"not null" json:"opened_at"`
	ClosedAt     time.Time       `gorm:"not null" json:"closed_at"`
	TotalBets    int             `gorm:"default:0" json:"total_bets"`
	TotalPlayers int             `gorm:"default:0" json:"total_players"`
	TotalStake   decimal.Decimal `gorm:"type:decimal(18,2);default:0" json:"total_stake"`
	TotalPayout  decimal.Decimal `gorm:"type:decimal(18,2);default:0" json:"total_payout"`
	CreatedAt    time.Time       `json:"created_at"`
}

// TableName overrides the table name
func (RoundRecord) TableName() string {
	return "draw_rounds"
}

// BetOrderRecord is the persisted row of one evaluated bet
type BetOrderRecord struct {
	OrderID   string          `gorm:"primaryKey;type:varchar(64)" json:"order_id"`
	GameType  string          `gorm:"type:varchar(16);not null;index:idx_draw_bet_orders_round" json:"game_type"`
	RoundID   string          `gorm:"type:varchar(32);not null;index:idx_draw_bet_orders_round" json:"round_id"`
	Mode      string          `gorm:"type:varchar(16);not null" json:"mode"`
	UserID    int64           `gorm:"not null;index:idx_draw_bet_orders_user_id" json:"user_id"`
	Selection string          `gorm:"type:varchar(256);not null" json:"selection"`
	Amount    decimal.Decimal `gorm:"type:decimal(18,2);not null" json:"amount"`
	Fee       decimal.Decimal `gorm:"type:decimal(18,2);not null" json:"fee"`
	NetStake  decimal.Decimal `gorm:"type:decimal(18,2);not null" json:"net_stake"`
	Won       bool            `gorm:"not null;default:false" json:"won"`
	Payout    decimal.Decimal `gorm:"type:decimal(18,2);not null;default:0" json:"payout"`
	CreatedAt time.Time       `gorm:"not null;index:idx_draw_bet_orders_created_at" json:"created_at"`
	SettledAt time.Time       `json:"settled_at"`
}

// TableName overrides the table name
func (BetOrderRecord) TableName() string {
	return "draw_bet_orders"
}

// RoundSequence is the per-day round counter of a game
type RoundSequence struct {
	GameType string `gorm:"primaryKey;type:varchar(16)"`
	Day      string `gorm:"primaryKey;type:varchar(8)"`
	Seq      int64  `gorm:"not null"`
}

// TableName overrides the table name
func (RoundSequence) TableName() string {
	return "round_sequences"
}

// ToRecords flattens a settled round into its persistence rows
func ToRecords(r *Round, settledAt time.Time) (*RoundRecord, []*BetOrderRecord, error) {
	payload, err := json.Marshal(r.Outcome)
	if err != nil {
		return nil, nil, fmt.Errorf("marshal outcome: %w", err)
	}

	rec := &RoundRecord{
		GameType:     string(r.Mode.Game),
		RoundID:      r.RoundID,
		Mode:         r.Mode.Label,
		Status:       int(r.Status),
		Outcome:      string(payload),
		OpenedAt:     r.OpenedAt,
		ClosedAt:     r.ClosesAt,
		TotalBets:    len(r.Bets),
		TotalPlayers: r.Players(),
		TotalStake:   decimal.Zero,
		TotalPayout:  decimal.Zero,
		CreatedAt:    settledAt,
	}

	orders := make([]*BetOrderRecord, 0, len(r.Bets))
	for _, b := range r.Bets {
		if b.Result == nil {
			return nil, nil, fmt.Errorf("bet %s in round %s not evaluated", b.BetID, r.RoundID)
		}
		rec.TotalStake = rec.TotalStake.Add(b.Amount)
		rec.TotalPayout = rec.TotalPayout.Add(b.Result.Payout)
		orders = append(orders, &BetOrderRecord{
			OrderID:   b.BetID,
			GameType:  string(b.Game),
			RoundID:   r.RoundID,
			Mode:      b.Mode,
			UserID:    b.UserID,
			Selection: b.Selection.String(),
			Amount:    b.Amount,
			Fee:       b.Fee,
			NetStake:  b.NetStake,
			Won:       b.Result.Won,
			Payout:    b.Result.Payout,
			CreatedAt: b.PlacedAt,
			SettledAt: settledAt,
		})
	}
	return rec, orders, nil
}
