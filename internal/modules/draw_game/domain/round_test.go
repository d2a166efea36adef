package domain_test

import (
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/frankieli/draw_games/internal/modules/draw_game/domain"
)

var (
	opened  = time.Date(2025, 5, 11, 12, 0, 0, 0, time.UTC)
	k3Mode  = domain.Mode{Game: domain.GameK3, Label: "1min", Duration: time.Minute}
	k3Key   = k3Mode.Key()
	oddPick = domain.Selection{Kind: domain.KindParity, Value: "odd"}
)

func newRound(t *testing.T) *domain.Round {
	t.Helper()
	return domain.NewRound("2505110001", k3Mode, opened, opened.Add(time.Minute), 3*time.Second)
}

func newBet(t *testing.T, user int64, stake int64) *domain.Bet {
	t.Helper()
	b, err := domain.NewBet(k3Key, user, decimal.NewFromInt(stake), oddPick, "conn")
	require.NoError(t, err)
	return b
}

func TestRoundLifecycle(t *testing.T) {
	r := newRound(t)
	assert.Equal(t, domain.RoundOpen, r.Status)
	assert.Equal(t, opened.Add(57*time.Second), r.CutoffAt())

	assert.Error(t, r.Settle(), "cannot settle an open round")
	require.NoError(t, r.Close())
	assert.Error(t, r.Close(), "close is one-way")
	assert.Error(t, r.Settle(), "no outcome yet")

	require.NoError(t, r.SetOutcome(domain.NewDiceOutcome(1, 2, 4)))
	assert.Error(t, r.SetOutcome(domain.NewDiceOutcome(6, 6, 6)), "outcome is drawn once")
	require.NoError(t, r.Settle())
	assert.Equal(t, "settled", r.Status.String())
}

func TestAppendRespectsCutoff(t *testing.T) {
	r := newRound(t)
	require.NoError(t, r.Append(newBet(t, 1, 10), opened.Add(57*time.Second-time.Millisecond)))

	err := r.Append(newBet(t, 1, 10), opened.Add(57*time.Second))
	assert.True(t, errors.Is(err, domain.ErrBettingClosed))

	require.NoError(t, r.Close())
	err = r.Append(newBet(t, 1, 10), opened)
	assert.True(t, errors.Is(err, domain.ErrBettingClosed), "closed round refuses even before cutoff")
	assert.Len(t, r.Bets, 1)
}

func TestAppendStampsRoundAndDetectsDuplicates(t *testing.T) {
	r := newRound(t)
	b := newBet(t, 1, 10)
	b.RequestID = "req-1"
	require.NoError(t, r.Append(b, opened))
	assert.Equal(t, "2505110001", b.RoundID)
	assert.Equal(t, opened, b.PlacedAt)
	assert.Same(t, b, r.FindRequest(1, "req-1"))
	assert.Nil(t, r.FindRequest(2, "req-1"), "request ids are scoped per user")

	dup := newBet(t, 1, 10)
	dup.RequestID = "req-1"
	assert.True(t, errors.Is(r.Append(dup, opened), domain.ErrDuplicateBet))

	other := newBet(t, 2, 10)
	other.RequestID = "req-1"
	require.NoError(t, r.Append(other, opened))
	assert.Equal(t, 2, r.Players())
}

func TestViewAndRemaining(t *testing.T) {
	r := newRound(t)
	require.NoError(t, r.Append(newBet(t, 1, 10), opened))
	v := r.View(opened.Add(20 * time.Second))
	assert.Equal(t, 40*time.Second, v.TimeLeft)
	assert.Equal(t, 1, v.TotalBets)
	assert.Equal(t, "open", v.Status)
	assert.Equal(t, time.Duration(0), r.Remaining(opened.Add(2*time.Minute)))
}

func TestNewBetSplitsFee(t *testing.T) {
	b := newBet(t, 1, 100)
	assert.True(t, b.Fee.Equal(decimal.NewFromInt(2)))
	assert.True(t, b.NetStake.Equal(decimal.NewFromInt(98)))
	assert.NotEmpty(t, b.BetID)
	assert.NotEqual(t, b.BetID, newBet(t, 1, 100).BetID)

	odd, err := domain.NewBet(k3Key, 1, decimal.RequireFromString("0.5"), oddPick, "")
	require.NoError(t, err)
	assert.Equal(t, "0.01", odd.Fee.String())
	assert.Equal(t, "0.49", odd.NetStake.String())

	for _, stake := range []int64{0, -5} {
		_, err := domain.NewBet(k3Key, 1, decimal.NewFromInt(stake), oddPick, "")
		assert.True(t, errors.Is(err, domain.ErrInvalidBetData), "stake %d", stake)
	}
	_, err = domain.NewBet(k3Key, 0, decimal.NewFromInt(5), oddPick, "")
	assert.True(t, errors.Is(err, domain.ErrInvalidBetData))
}

func TestSettlementClaimIsExclusive(t *testing.T) {
	b := newBet(t, 1, 100)
	assert.True(t, b.ClaimSettlement())
	assert.False(t, b.ClaimSettlement())
	assert.True(t, b.Settled())
	b.ReleaseSettlement()
	assert.False(t, b.Settled())
	assert.True(t, b.ClaimSettlement())
}

func TestSelectionNormalize(t *testing.T) {
	s := domain.Selection{Kind: " Number ", Value: "7 ", Position: "b", Size: "BIG"}.Normalize()
	assert.Equal(t, domain.KindNumber, s.Kind)
	assert.Equal(t, "7", s.Value)
	assert.Equal(t, "B", s.Position)
	assert.Equal(t, "number:B=7+big", s.String())
}

func TestRejectReason(t *testing.T) {
	cases := map[error]string{
		domain.ErrBettingClosed:       domain.ReasonBettingClosed,
		domain.ErrNoActiveRound:       domain.ReasonBettingClosed,
		domain.ErrInvalidSelection:    domain.ReasonInvalidSelection,
		domain.ErrInvalidBetData:      domain.ReasonInvalidBetData,
		domain.ErrInsufficientBalance: domain.ReasonInsufficientBalance,
		domain.ErrUnknownMode:         domain.ReasonUnknownMode,
		errors.New("boom"):            domain.ReasonInternal,
	}
	for err, want := range cases {
		wrapped := fmt.Errorf("place bet: %w", err)
		assert.Equal(t, want, domain.RejectReason(wrapped), err.Error())
	}
}

func TestToRecords(t *testing.T) {
	r := newRound(t)
	win := newBet(t, 1, 100)
	lose := newBet(t, 2, 50)
	require.NoError(t, r.Append(win, opened))
	require.NoError(t, r.Append(lose, opened))
	require.NoError(t, r.Close())
	require.NoError(t, r.SetOutcome(domain.NewDiceOutcome(1, 2, 4)))

	_, _, err := domain.ToRecords(r, opened.Add(time.Minute))
	assert.Error(t, err, "bets must be evaluated first")

	win.Result = &domain.Evaluation{Won: true, Multiplier: decimal.NewFromInt(2), Payout: decimal.NewFromInt(196)}
	lose.Result = &domain.Evaluation{Payout: decimal.Zero}
	require.NoError(t, r.Settle())

	rec, orders, err := domain.ToRecords(r, opened.Add(time.Minute))
	require.NoError(t, err)
	assert.Equal(t, "k3", rec.GameType)
	assert.Equal(t, "2505110001", rec.RoundID)
	assert.Equal(t, 2, rec.TotalPlayers)
	assert.True(t, rec.TotalStake.Equal(decimal.NewFromInt(150)))
	assert.True(t, rec.TotalPayout.Equal(decimal.NewFromInt(196)))
	assert.Contains(t, rec.Outcome, `"sum":7`)
	require.Len(t, orders, 2)
	assert.Equal(t, win.BetID, orders[0].OrderID)
	assert.True(t, orders[0].Won)
	assert.Equal(t, "parity:odd", orders[1].Selection)
}

func TestInitBetIDs(t *testing.T) {
	assert.Error(t, domain.InitBetIDs(5000), "snowflake nodes are 10 bits")
	require.NoError(t, domain.InitBetIDs(3))
	assert.NotEmpty(t, newBet(t, 1, 10).BetID)
}
