// Package payout evaluates bets against round outcomes.
package payout

import (
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/frankieli/draw_games/internal/modules/draw_game/domain"
)

// Multipliers applied to the net stake of a winning bet
var (
	MultDigitNumber = decimal.NewFromInt(9)
	MultColor       = decimal.NewFromInt(2)
	MultPurple      = decimal.RequireFromString("1.5")
	MultEvenMoney   = decimal.NewFromInt(2)
	MultDiceSum     = decimal.NewFromInt(2)
	MultDiceBonus   = decimal.RequireFromString("0.5")
	MultDiceMatch   = decimal.NewFromInt(2)
	MultFiveDNumber = decimal.NewFromInt(10)
	MultRaceFirst   = decimal.NewFromInt(9)
)

// Evaluator validates selections and scores bets
type Evaluator interface {
	// Validate checks a selection is legal for the game and returns its canonical form
	Validate(game domain.GameType, sel domain.Selection) (domain.Selection, error)
	// Evaluate scores one bet against the outcome of its round
	Evaluate(bet *domain.Bet, outcome domain.Outcome) (domain.Evaluation, error)
}

// RuleEvaluator implements Evaluator with the built-in rule tables
type RuleEvaluator struct{}

// NewEvaluator creates the rule evaluator
func NewEvaluator() *RuleEvaluator {
	return &RuleEvaluator{}
}

// Validate implements Evaluator
func (e *RuleEvaluator) Validate(game domain.GameType, sel domain.Selection) (domain.Selection, error) {
	sel = canonical(sel.Normalize())
	var err error
	switch game {
	case domain.GameWingo, domain.GameTRX:
		err = validateDigit(sel)
	case domain.GameK3:
		err = validateDice(sel)
	case domain.Game5D:
		err = validateFiveD(sel)
	case domain.GameRacing:
		err = validateRace(sel)
	default:
		return sel, fmt.Errorf("%w: game %q", domain.ErrUnknownMode, game)
	}
	if err != nil {
		return sel, fmt.Errorf("%w: %s %s: %v", domain.ErrInvalidSelection, game, sel, err)
	}
	return sel, nil
}

// Evaluate implements Evaluator
func (e *RuleEvaluator) Evaluate(bet *domain.Bet, outcome domain.Outcome) (domain.Evaluation, error) {
	if outcome == nil {
		return domain.Evaluation{}, fmt.Errorf("bet %s: no outcome", bet.BetID)
	}
	if outcome.Game() != bet.Game {
		return domain.Evaluation{}, fmt.Errorf("bet %s: outcome of %s for %s bet", bet.BetID, outcome.Game(), bet.Game)
	}
	var (
		won  bool
		mult decimal.Decimal
		err  error
	)
	switch o := outcome.(type) {
	case *domain.DigitOutcome:
		won, mult, err = evaluateDigit(bet.Selection, o)
	case *domain.DiceOutcome:
		won, mult, err = evaluateDice(bet.Selection, o)
	case *domain.FiveDOutcome:
		won, mult, err = evaluateFiveD(bet.Selection, o)
	case *domain.RaceOutcome:
		won, mult, err = evaluateRace(bet.Selection, o)
	default:
		err = fmt.Errorf("unsupported outcome %T", outcome)
	}
	if err != nil {
		return domain.Evaluation{}, fmt.Errorf("evaluate bet %s: %w", bet.BetID, err)
	}
	if !won {
		return domain.Evaluation{Won: false, Multiplier: decimal.Zero, Payout: decimal.Zero}, nil
	}
	return domain.Evaluation{Won: true, Multiplier: mult, Payout: bet.NetStake.Mul(mult)}, nil
}

func canonical(sel domain.Selection) domain.Selection {
	alias := func(v string) string {
		switch v {
		case "high":
			return string(domain.SizeBig)
		case "low":
			return string(domain.SizeSmall)
		case "violet":
			return string(domain.ColorPurple)
		}
		return v
	}
	sel.Value = alias(sel.Value)
	sel.Size = alias(sel.Size)
	return sel
}
