package domain

import (
	"fmt"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/shopspring/decimal"
)

// FeeRate is the platform fee taken from every stake (2%)
var FeeRate = decimal.New(2, -2)

// SelectionKind is the kind of wager placed
type SelectionKind string

const (
	KindNumber SelectionKind = "number"
	KindColor  SelectionKind = "color"
	KindSize   SelectionKind = "size"
	KindParity SelectionKind = "parity"
	KindSum    SelectionKind = "sum"
	KindSingle SelectionKind = "single"
	KindPair   SelectionKind = "pair"
	KindTriple SelectionKind = "triple"
	KindCombo  SelectionKind = "combo"
)

// Selection is the game-specific pick of a bet
type Selection struct {
	Kind     SelectionKind `json:"kind"`
	Value    string        `json:"value"`
	Position string        `json:"position,omitempty"`
	// Size and Parity are side-bets riding on a dice sum
	Size   string `json:"size,omitempty"`
	Parity string `json:"parity,omitempty"`
}

// Normalize lower-cases values and upper-cases the position
func (s Selection) Normalize() Selection {
	s.Kind = SelectionKind(strings.ToLower(strings.TrimSpace(string(s.Kind))))
	s.Value = strings.ToLower(strings.TrimSpace(s.Value))
	s.Position = strings.ToUpper(strings.TrimSpace(s.Position))
	s.Size = strings.ToLower(strings.TrimSpace(s.Size))
	s.Parity = strings.ToLower(strings.TrimSpace(s.Parity))
	return s
}

func (s Selection) String() string {
	b := strings.Builder{}
	b.WriteString(string(s.Kind))
	b.WriteString(":")
	if s.Position != "" {
		b.WriteString(s.Position)
		b.WriteString("=")
	}
	b.WriteString(s.Value)
	if s.Size != "" {
		b.WriteString("+" + s.Size)
	}
	if s.Parity != "" {
		b.WriteString("+" + s.Parity)
	}
	return b.String()
}

// Evaluation is the outcome of one bet against one round result
type Evaluation struct {
	Won        bool            `json:"won"`
	Multiplier decimal.Decimal `json:"multiplier"`
	Payout     decimal.Decimal `json:"payout"`
}

// Bet is one admitted wager
type Bet struct {
	BetID     string          `json:"bet_id"`
	RequestID string          `json:"request_id,omitempty"`
	RoundID   string          `json:"round_id"`
	Game      GameType        `json:"game_type"`
	Mode      string          `json:"mode"`
	UserID    int64           `json:"user_id"`
	Amount    decimal.Decimal `json:"stake_amount"`
	Fee       decimal.Decimal `json:"fee"`
	NetStake  decimal.Decimal `json:"net_stake"`
	Selection Selection       `json:"selection"`
	PlacedAt  time.Time       `json:"placed_at"`

	// ConnectionRef routes the personalized result back; it is never persisted
	ConnectionRef string `json:"-"`

	// Result is set exactly once, at intake or at close
	Result *Evaluation `json:"result,omitempty"`

	settled atomic.Bool
}

// ClaimSettlement reserves the ledger credit of the bet; only the first caller gets true
func (b *Bet) ClaimSettlement() bool {
	return b.settled.CompareAndSwap(false, true)
}

// ReleaseSettlement gives the claim back after a failed credit
func (b *Bet) ReleaseSettlement() {
	b.settled.Store(false)
}

// Settled reports whether the ledger credit has been claimed
func (b *Bet) Settled() bool {
	return b.settled.Load()
}

var (
	node *snowflake.Node
	once sync.Once
)

func initSnowflake() {
	var err error
	node, err = snowflake.NewNode(1)
	if err != nil {
		panic(err)
	}
}

// InitBetIDs sets the snowflake node of this process. Engines sharing a
// round store need distinct node ids. Call before the first bet is created.
func InitBetIDs(nodeID int64) error {
	n, err := snowflake.NewNode(nodeID)
	if err != nil {
		return fmt.Errorf("snowflake node %d: %w", nodeID, err)
	}
	once.Do(func() {})
	node = n
	return nil
}

// NewBet creates a bet with its fee split out of the stake
func NewBet(key ModeKey, userID int64, amount decimal.Decimal, sel Selection, connRef string) (*Bet, error) {
	if userID <= 0 {
		return nil, fmt.Errorf("%w: user id %d", ErrInvalidBetData, userID)
	}
	if !amount.IsPositive() {
		return nil, fmt.Errorf("%w: stake %s must be positive", ErrInvalidBetData, amount)
	}
	fee := amount.Mul(FeeRate)
	return &Bet{
		BetID:         generateBetID(),
		Game:          key.Game,
		Mode:          key.Label,
		UserID:        userID,
		Amount:        amount,
		Fee:           fee,
		NetStake:      amount.Sub(fee),
		Selection:     sel.Normalize(),
		ConnectionRef: connRef,
	}, nil
}

func generateBetID() string {
	once.Do(initSnowflake)
	return node.Generate().String()
}
