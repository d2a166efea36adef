// Package wallet provides the in-process ledger used by the draw game engine.
package wallet

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"github.com/frankieli/draw_games/internal/modules/draw_game/domain"
	"github.com/frankieli/draw_games/pkg/logger"
)

// EntryKind tells a debit from a credit
type EntryKind string

const (
	EntryDebit  EntryKind = "debit"
	EntryCredit EntryKind = "credit"
)

// Entry is one balance mutation
type Entry struct {
	UserID  int64
	Kind    EntryKind
	Amount  decimal.Decimal
	Balance decimal.Decimal
	Reason  string
	At      time.Time
}

// FeeEntry is one platform fee taken at intake
type FeeEntry struct {
	Game   domain.GameType
	UserID int64
	Stake  decimal.Decimal
	Fee    decimal.Decimal
	At     time.Time
}

// MemoryLedger implements domain.Ledger on in-memory balances
type MemoryLedger struct {
	mu             sync.RWMutex
	balances       map[int64]decimal.Decimal
	defaultBalance decimal.Decimal
	entries        []Entry
	fees           []FeeEntry
}

// NewMemoryLedger creates a ledger; unknown users start with defaultBalance
func NewMemoryLedger(defaultBalance decimal.Decimal) *MemoryLedger {
	return &MemoryLedger{
		balances:       make(map[int64]decimal.Decimal),
		defaultBalance: defaultBalance,
	}
}

// SetBalance sets the balance for a user
func (l *MemoryLedger) SetBalance(userID int64, balance decimal.Decimal) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.balances[userID] = balance
}

// Balance returns the user's balance
func (l *MemoryLedger) Balance(userID int64) decimal.Decimal {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.balanceLocked(userID)
}

func (l *MemoryLedger) balanceLocked(userID int64) decimal.Decimal {
	if b, ok := l.balances[userID]; ok {
		return b
	}
	return l.defaultBalance
}

// Debit takes amount from the user or fails with domain.ErrInsufficientBalance
func (l *MemoryLedger) Debit(ctx context.Context, userID int64, amount decimal.Decimal, reason string) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	balance := l.balanceLocked(userID)
	if balance.LessThan(amount) {
		return fmt.Errorf("%w: user %d has %s, needs %s", domain.ErrInsufficientBalance, userID, balance, amount)
	}
	balance = balance.Sub(amount)
	l.balances[userID] = balance
	l.entries = append(l.entries, Entry{UserID: userID, Kind: EntryDebit, Amount: amount, Balance: balance, Reason: reason, At: time.Now()})

	logger.Debug(ctx).
		Int64("user_id", userID).
		Str("amount", amount.String()).
		Str("balance", balance.String()).
		Str("reason", reason).
		Msg("ledger debit")
	return nil
}

// Credit adds amount to the user; a zero credit is journaled as a settled loss
func (l *MemoryLedger) Credit(ctx context.Context, userID int64, amount decimal.Decimal, reason string) error {
	if amount.IsNegative() {
		return fmt.Errorf("credit %s to user %d: negative amount", amount, userID)
	}
	l.mu.Lock()
	defer l.mu.Unlock()

	balance := l.balanceLocked(userID).Add(amount)
	l.balances[userID] = balance
	l.entries = append(l.entries, Entry{UserID: userID, Kind: EntryCredit, Amount: amount, Balance: balance, Reason: reason, At: time.Now()})

	logger.Debug(ctx).
		Int64("user_id", userID).
		Str("amount", amount.String()).
		Str("balance", balance.String()).
		Str("reason", reason).
		Msg("ledger credit")
	return nil
}

// RecordFee journals the platform fee of one stake
func (l *MemoryLedger) RecordFee(ctx context.Context, game domain.GameType, userID int64, stake, fee decimal.Decimal) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.fees = append(l.fees, FeeEntry{Game: game, UserID: userID, Stake: stake, Fee: fee, At: time.Now()})
	return nil
}

// Entries returns a copy of the balance journal
func (l *MemoryLedger) Entries() []Entry {
	l.mu.RLock()
	defer l.mu.RUnlock()
	out := make([]Entry, len(l.entries))
	copy(out, l.entries)
	return out
}

// Fees returns a copy of the fee journal
func (l *MemoryLedger) Fees() []FeeEntry {
	l.mu.RLock()
	defer l.mu.RUnlock()
	out := make([]FeeEntry, len(l.fees))
	copy(out, l.fees)
	return out
}

// Revenue sums the recorded fees
func (l *MemoryLedger) Revenue() decimal.Decimal {
	l.mu.RLock()
	defer l.mu.RUnlock()
	total := decimal.Zero
	for _, f := range l.fees {
		total = total.Add(f.Fee)
	}
	return total
}
