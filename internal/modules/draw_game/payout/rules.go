package payout

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/frankieli/draw_games/internal/modules/draw_game/domain"
)

var errUnknownKind = errors.New("unknown bet kind")

func intIn(v string, lo, hi int) (int, error) {
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("value %q is not a number", v)
	}
	if n < lo || n > hi {
		return 0, fmt.Errorf("value %d outside %d-%d", n, lo, hi)
	}
	return n, nil
}

func isSize(v string) bool   { return v == string(domain.SizeBig) || v == string(domain.SizeSmall) }
func isParity(v string) bool { return v == string(domain.ParityOdd) || v == string(domain.ParityEven) }

func checkSize(v string) error {
	if !isSize(v) {
		return fmt.Errorf("size %q", v)
	}
	return nil
}

func checkParity(v string) error {
	if !isParity(v) {
		return fmt.Errorf("parity %q", v)
	}
	return nil
}

// --- wingo / trx ---

func validateDigit(sel domain.Selection) error {
	switch sel.Kind {
	case domain.KindNumber:
		_, err := intIn(sel.Value, 0, 9)
		return err
	case domain.KindColor:
		switch domain.Color(sel.Value) {
		case domain.ColorRed, domain.ColorGreen, domain.ColorPurple:
			return nil
		}
		return fmt.Errorf("color %q", sel.Value)
	case domain.KindSize:
		return checkSize(sel.Value)
	}
	return errUnknownKind
}

func evaluateDigit(sel domain.Selection, o *domain.DigitOutcome) (bool, decimal.Decimal, error) {
	switch sel.Kind {
	case domain.KindNumber:
		n, err := intIn(sel.Value, 0, 9)
		if err != nil {
			return false, decimal.Zero, err
		}
		return n == o.Number, MultDigitNumber, nil
	case domain.KindColor:
		// 0 and 5 only ever classify as purple, so a red or green pick never matches them
		c := domain.Color(sel.Value)
		if c != o.Color {
			return false, decimal.Zero, nil
		}
		if c == domain.ColorPurple {
			return true, MultPurple, nil
		}
		return true, MultColor, nil
	case domain.KindSize:
		return domain.Size(sel.Value) == o.Size, MultEvenMoney, nil
	}
	return false, decimal.Zero, errUnknownKind
}

// --- k3 ---

func parseCombo(v string) (int, int, error) {
	parts := strings.Split(v, ",")
	if len(parts) != 2 {
		return 0, 0, fmt.Errorf("combo %q needs two values", v)
	}
	a, err := intIn(strings.TrimSpace(parts[0]), 1, 6)
	if err != nil {
		return 0, 0, err
	}
	b, err := intIn(strings.TrimSpace(parts[1]), 1, 6)
	if err != nil {
		return 0, 0, err
	}
	if a == b {
		return 0, 0, fmt.Errorf("combo %q needs distinct values", v)
	}
	return a, b, nil
}

func validateDice(sel domain.Selection) error {
	if sel.Kind != domain.KindSum && (sel.Size != "" || sel.Parity != "") {
		return errors.New("side-bets ride only on a sum")
	}
	switch sel.Kind {
	case domain.KindSum:
		if _, err := intIn(sel.Value, 3, 18); err != nil {
			return err
		}
		if sel.Size != "" {
			if err := checkSize(sel.Size); err != nil {
				return err
			}
		}
		if sel.Parity != "" {
			return checkParity(sel.Parity)
		}
		return nil
	case domain.KindSize:
		return checkSize(sel.Value)
	case domain.KindParity:
		return checkParity(sel.Value)
	case domain.KindSingle, domain.KindPair, domain.KindTriple:
		_, err := intIn(sel.Value, 1, 6)
		return err
	case domain.KindCombo:
		_, _, err := parseCombo(sel.Value)
		return err
	}
	return errUnknownKind
}

func evaluateDice(sel domain.Selection, o *domain.DiceOutcome) (bool, decimal.Decimal, error) {
	switch sel.Kind {
	case domain.KindSum:
		n, err := intIn(sel.Value, 3, 18)
		if err != nil {
			return false, decimal.Zero, err
		}
		if n != o.Sum {
			return false, decimal.Zero, nil
		}
		// side-bets stack on top of the sum multiplier
		mult := MultDiceSum
		if sel.Size != "" && o.Size != "" && domain.Size(sel.Size) == o.Size {
			mult = mult.Add(MultDiceBonus)
		}
		if sel.Parity != "" && domain.Parity(sel.Parity) == o.Parity {
			mult = mult.Add(MultDiceBonus)
		}
		return true, mult, nil
	case domain.KindSize:
		// a triple has no size, every size bet loses
		return o.Size != "" && domain.Size(sel.Value) == o.Size, MultEvenMoney, nil
	case domain.KindParity:
		return domain.Parity(sel.Value) == o.Parity, MultEvenMoney, nil
	case domain.KindSingle, domain.KindPair, domain.KindTriple:
		v, err := intIn(sel.Value, 1, 6)
		if err != nil {
			return false, decimal.Zero, err
		}
		need := map[domain.SelectionKind]int{domain.KindSingle: 1, domain.KindPair: 2, domain.KindTriple: 3}[sel.Kind]
		return o.Count(v) >= need, MultDiceMatch, nil
	case domain.KindCombo:
		a, b, err := parseCombo(sel.Value)
		if err != nil {
			return false, decimal.Zero, err
		}
		return o.Count(a) > 0 && o.Count(b) > 0, MultDiceMatch, nil
	}
	return false, decimal.Zero, errUnknownKind
}

// --- 5d ---

func validateFiveD(sel domain.Selection) error {
	if sel.Position == "" {
		return errors.New("position required")
	}
	probe := domain.NewFiveDOutcome([5]int{})
	if _, ok := probe.ValueAt(sel.Position); !ok {
		return fmt.Errorf("position %q", sel.Position)
	}
	switch sel.Kind {
	case domain.KindNumber:
		if sel.Position == domain.PositionSum {
			return errors.New("exact number is not offered on the sum")
		}
		_, err := intIn(sel.Value, 0, 9)
		return err
	case domain.KindSize:
		return checkSize(sel.Value)
	case domain.KindParity:
		return checkParity(sel.Value)
	}
	return errUnknownKind
}

func evaluateFiveD(sel domain.Selection, o *domain.FiveDOutcome) (bool, decimal.Decimal, error) {
	v, ok := o.ValueAt(sel.Position)
	if !ok {
		return false, decimal.Zero, fmt.Errorf("position %q", sel.Position)
	}
	switch sel.Kind {
	case domain.KindNumber:
		n, err := intIn(sel.Value, 0, 9)
		if err != nil {
			return false, decimal.Zero, err
		}
		return n == v, MultFiveDNumber, nil
	case domain.KindSize:
		size, _ := o.SizeAt(sel.Position)
		return domain.Size(sel.Value) == size, MultEvenMoney, nil
	case domain.KindParity:
		return domain.Parity(sel.Value) == domain.ParityOf(v), MultEvenMoney, nil
	}
	return false, decimal.Zero, errUnknownKind
}

// --- racing ---

func validateRace(sel domain.Selection) error {
	switch sel.Kind {
	case domain.KindNumber:
		_, err := intIn(sel.Value, 1, domain.RaceCars)
		return err
	case domain.KindSize:
		return checkSize(sel.Value)
	case domain.KindParity:
		return checkParity(sel.Value)
	}
	return errUnknownKind
}

func evaluateRace(sel domain.Selection, o *domain.RaceOutcome) (bool, decimal.Decimal, error) {
	switch sel.Kind {
	case domain.KindNumber:
		n, err := intIn(sel.Value, 1, domain.RaceCars)
		if err != nil {
			return false, decimal.Zero, err
		}
		return n == o.FirstPlace, MultRaceFirst, nil
	case domain.KindSize:
		return domain.Size(sel.Value) == o.Size, MultEvenMoney, nil
	case domain.KindParity:
		return domain.Parity(sel.Value) == o.Parity, MultEvenMoney, nil
	}
	return false, decimal.Zero, errUnknownKind
}
