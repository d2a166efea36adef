package payout_test

import (
	"errors"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/frankieli/draw_games/internal/modules/draw_game/domain"
	"github.com/frankieli/draw_games/internal/modules/draw_game/payout"
)

func newBet(t *testing.T, game domain.GameType, stake int64, sel domain.Selection) *domain.Bet {
	t.Helper()
	ev := payout.NewEvaluator()
	sel, err := ev.Validate(game, sel)
	require.NoError(t, err)
	bet, err := domain.NewBet(domain.ModeKey{Game: game, Label: "1min"}, 1001, decimal.NewFromInt(stake), sel, "conn-1")
	require.NoError(t, err)
	return bet
}

func evaluate(t *testing.T, bet *domain.Bet, o domain.Outcome) domain.Evaluation {
	t.Helper()
	ev, err := payout.NewEvaluator().Evaluate(bet, o)
	require.NoError(t, err)
	return ev
}

func TestDigitExactNumber(t *testing.T) {
	bet := newBet(t, domain.GameWingo, 100, domain.Selection{Kind: domain.KindNumber, Value: "3"})
	got := evaluate(t, bet, domain.NewDigitOutcome(domain.GameWingo, 3))

	assert.True(t, got.Won)
	assert.True(t, got.Payout.Equal(decimal.NewFromInt(882)), "payout %s", got.Payout)
}

func TestDigitColorOnPurpleDigitLoses(t *testing.T) {
	bet := newBet(t, domain.GameWingo, 100, domain.Selection{Kind: domain.KindColor, Value: "Red"})
	got := evaluate(t, bet, domain.NewDigitOutcome(domain.GameWingo, 0))

	assert.False(t, got.Won)
	assert.True(t, got.Payout.IsZero())
}

func TestDigitColorAndSize(t *testing.T) {
	cases := []struct {
		name   string
		sel    domain.Selection
		digit  int
		won    bool
		payout string
	}{
		{"red on 4", domain.Selection{Kind: domain.KindColor, Value: "red"}, 4, true, "196"},
		{"green on 7", domain.Selection{Kind: domain.KindColor, Value: "green"}, 7, true, "196"},
		{"green on 8", domain.Selection{Kind: domain.KindColor, Value: "green"}, 8, false, "0"},
		{"purple on 5", domain.Selection{Kind: domain.KindColor, Value: "purple"}, 5, true, "147"},
		{"violet alias on 0", domain.Selection{Kind: domain.KindColor, Value: "violet"}, 0, true, "147"},
		{"big on 5", domain.Selection{Kind: domain.KindSize, Value: "big"}, 5, true, "196"},
		{"small on 5", domain.Selection{Kind: domain.KindSize, Value: "small"}, 5, false, "0"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			bet := newBet(t, domain.GameWingo, 100, tc.sel)
			got := evaluate(t, bet, domain.NewDigitOutcome(domain.GameWingo, tc.digit))
			assert.Equal(t, tc.won, got.Won)
			assert.True(t, got.Payout.Equal(decimal.RequireFromString(tc.payout)), "payout %s", got.Payout)
		})
	}
}

func TestBlockHashGameUsesDigitRules(t *testing.T) {
	bet := newBet(t, domain.GameTRX, 50, domain.Selection{Kind: domain.KindNumber, Value: "9"})
	got := evaluate(t, bet, domain.NewDigitOutcome(domain.GameTRX, 9))
	assert.True(t, got.Payout.Equal(decimal.RequireFromString("441")))
}

func TestDiceSumWithStackingBonus(t *testing.T) {
	outcome := domain.NewDiceOutcome(6, 5, 1) // sum 12, big, even

	plain := newBet(t, domain.GameK3, 100, domain.Selection{Kind: domain.KindSum, Value: "12"})
	got := evaluate(t, plain, outcome)
	assert.True(t, got.Multiplier.Equal(decimal.NewFromInt(2)))
	assert.True(t, got.Payout.Equal(decimal.NewFromInt(196)))

	both := newBet(t, domain.GameK3, 100, domain.Selection{Kind: domain.KindSum, Value: "12", Size: "big", Parity: "even"})
	got = evaluate(t, both, outcome)
	assert.True(t, got.Multiplier.Equal(decimal.NewFromInt(3)))
	assert.True(t, got.Payout.Equal(decimal.NewFromInt(294)))

	oneMiss := newBet(t, domain.GameK3, 100, domain.Selection{Kind: domain.KindSum, Value: "12", Size: "small", Parity: "even"})
	got = evaluate(t, oneMiss, outcome)
	assert.True(t, got.Multiplier.Equal(decimal.RequireFromString("2.5")))

	wrongSum := newBet(t, domain.GameK3, 100, domain.Selection{Kind: domain.KindSum, Value: "11", Size: "big"})
	got = evaluate(t, wrongSum, outcome)
	assert.False(t, got.Won)
}

func TestDiceMatches(t *testing.T) {
	outcome := domain.NewDiceOutcome(2, 2, 5)
	cases := []struct {
		sel domain.Selection
		won bool
	}{
		{domain.Selection{Kind: domain.KindSingle, Value: "5"}, true},
		{domain.Selection{Kind: domain.KindSingle, Value: "3"}, false},
		{domain.Selection{Kind: domain.KindPair, Value: "2"}, true},
		{domain.Selection{Kind: domain.KindPair, Value: "5"}, false},
		{domain.Selection{Kind: domain.KindTriple, Value: "2"}, false},
		{domain.Selection{Kind: domain.KindCombo, Value: "2,5"}, true},
		{domain.Selection{Kind: domain.KindCombo, Value: "1,5"}, false},
		{domain.Selection{Kind: domain.KindParity, Value: "odd"}, true},
		{domain.Selection{Kind: domain.KindSize, Value: "small"}, true},
	}
	for _, tc := range cases {
		bet := newBet(t, domain.GameK3, 10, tc.sel)
		got := evaluate(t, bet, outcome)
		assert.Equal(t, tc.won, got.Won, "%s", tc.sel)
	}
}

func TestDiceTripleHasNoSize(t *testing.T) {
	outcome := domain.NewDiceOutcome(6, 6, 6)
	for _, v := range []string{"big", "small"} {
		bet := newBet(t, domain.GameK3, 10, domain.Selection{Kind: domain.KindSize, Value: v})
		assert.False(t, evaluate(t, bet, outcome).Won, v)
	}
	triple := newBet(t, domain.GameK3, 10, domain.Selection{Kind: domain.KindTriple, Value: "6"})
	assert.True(t, evaluate(t, triple, outcome).Won)
}

func TestFiveD(t *testing.T) {
	outcome := domain.NewFiveDOutcome([5]int{1, 7, 3, 9, 4}) // sum 24

	exact := newBet(t, domain.Game5D, 100, domain.Selection{Kind: domain.KindNumber, Position: "b", Value: "7"})
	got := evaluate(t, exact, outcome)
	assert.True(t, got.Payout.Equal(decimal.NewFromInt(980)))

	high := newBet(t, domain.Game5D, 100, domain.Selection{Kind: domain.KindSize, Position: "sum", Value: "high"})
	assert.True(t, evaluate(t, high, outcome).Won)

	even := newBet(t, domain.Game5D, 100, domain.Selection{Kind: domain.KindParity, Position: "SUM", Value: "even"})
	assert.True(t, evaluate(t, even, outcome).Won)

	digitSmall := newBet(t, domain.Game5D, 100, domain.Selection{Kind: domain.KindSize, Position: "A", Value: "small"})
	assert.True(t, evaluate(t, digitSmall, outcome).Won)

	digitOdd := newBet(t, domain.Game5D, 100, domain.Selection{Kind: domain.KindParity, Position: "E", Value: "odd"})
	assert.False(t, evaluate(t, digitOdd, outcome).Won)
}

func TestRace(t *testing.T) {
	outcome := domain.NewRaceOutcome([]int{7, 1, 2, 3, 4, 5, 6, 8, 9, 10})

	first := newBet(t, domain.GameRacing, 100, domain.Selection{Kind: domain.KindNumber, Value: "7"})
	got := evaluate(t, first, outcome)
	assert.True(t, got.Won)
	assert.True(t, got.Payout.Equal(first.NetStake.Mul(decimal.NewFromInt(9))))

	big := newBet(t, domain.GameRacing, 100, domain.Selection{Kind: domain.KindSize, Value: "big"})
	assert.True(t, evaluate(t, big, outcome).Won)

	even := newBet(t, domain.GameRacing, 100, domain.Selection{Kind: domain.KindParity, Value: "even"})
	assert.False(t, evaluate(t, even, outcome).Won)
}

func TestValidateRejectsIllegalSelections(t *testing.T) {
	ev := payout.NewEvaluator()
	cases := []struct {
		game domain.GameType
		sel  domain.Selection
	}{
		{domain.GameWingo, domain.Selection{Kind: domain.KindNumber, Value: "10"}},
		{domain.GameWingo, domain.Selection{Kind: domain.KindColor, Value: "blue"}},
		{domain.GameWingo, domain.Selection{Kind: domain.KindSum, Value: "3"}},
		{domain.GameK3, domain.Selection{Kind: domain.KindSum, Value: "2"}},
		{domain.GameK3, domain.Selection{Kind: domain.KindCombo, Value: "3,3"}},
		{domain.GameK3, domain.Selection{Kind: domain.KindSize, Value: "big", Parity: "odd"}},
		{domain.Game5D, domain.Selection{Kind: domain.KindNumber, Value: "3"}},
		{domain.Game5D, domain.Selection{Kind: domain.KindNumber, Position: "SUM", Value: "3"}},
		{domain.GameRacing, domain.Selection{Kind: domain.KindNumber, Value: "0"}},
	}
	for _, tc := range cases {
		_, err := ev.Validate(tc.game, tc.sel)
		assert.True(t, errors.Is(err, domain.ErrInvalidSelection), "%s %s: %v", tc.game, tc.sel, err)
	}
}

func TestEvaluateRejectsMismatchedOutcome(t *testing.T) {
	bet := newBet(t, domain.GameK3, 10, domain.Selection{Kind: domain.KindParity, Value: "odd"})
	_, err := payout.NewEvaluator().Evaluate(bet, domain.NewDigitOutcome(domain.GameWingo, 1))
	assert.Error(t, err)
}
