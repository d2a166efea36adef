package wallet_test

import (
	"context"
	"errors"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/frankieli/draw_games/internal/modules/draw_game/domain"
	"github.com/frankieli/draw_games/internal/modules/wallet"
	"github.com/frankieli/draw_games/pkg/logger"
)

func init() {
	logger.Init(logger.Config{Level: "debug", Format: "console"})
}

func TestDebitAndCredit(t *testing.T) {
	l := wallet.NewMemoryLedger(decimal.NewFromInt(1000))
	ctx := context.Background()

	require.NoError(t, l.Debit(ctx, 1, decimal.NewFromInt(100), "bet"))
	assert.True(t, l.Balance(1).Equal(decimal.NewFromInt(900)))

	require.NoError(t, l.Credit(ctx, 1, decimal.NewFromInt(882), "payout"))
	assert.True(t, l.Balance(1).Equal(decimal.NewFromInt(1782)))

	require.NoError(t, l.Credit(ctx, 1, decimal.Zero, "loss"))
	assert.Len(t, l.Entries(), 3)
}

func TestDebitInsufficientBalance(t *testing.T) {
	l := wallet.NewMemoryLedger(decimal.Zero)
	l.SetBalance(7, decimal.NewFromInt(50))

	err := l.Debit(context.Background(), 7, decimal.NewFromInt(51), "bet")
	assert.True(t, errors.Is(err, domain.ErrInsufficientBalance))
	assert.True(t, l.Balance(7).Equal(decimal.NewFromInt(50)))
	assert.Empty(t, l.Entries())
}

func TestCreditRejectsNegative(t *testing.T) {
	l := wallet.NewMemoryLedger(decimal.Zero)
	assert.Error(t, l.Credit(context.Background(), 1, decimal.NewFromInt(-1), "bad"))
}

func TestRecordFee(t *testing.T) {
	l := wallet.NewMemoryLedger(decimal.Zero)
	ctx := context.Background()
	require.NoError(t, l.RecordFee(ctx, domain.GameK3, 1, decimal.NewFromInt(100), decimal.NewFromInt(2)))
	require.NoError(t, l.RecordFee(ctx, domain.GameWingo, 2, decimal.NewFromInt(50), decimal.NewFromInt(1)))

	assert.Len(t, l.Fees(), 2)
	assert.True(t, l.Revenue().Equal(decimal.NewFromInt(3)))
}
