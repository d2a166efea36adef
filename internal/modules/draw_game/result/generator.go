package result

import (
	"context"
	"fmt"

	"github.com/frankieli/draw_games/internal/modules/draw_game/domain"
)

// Params carries the round being drawn
type Params struct {
	Mode    domain.Mode
	RoundID string
}

// Generator draws an outcome for a game type
type Generator interface {
	Generate(ctx context.Context, game domain.GameType, params Params) (domain.Outcome, error)
}

// DrawGenerator draws all five games from one entropy source and one block source
type DrawGenerator struct {
	src    Source
	blocks BlockSource
}

// NewGenerator creates a DrawGenerator
func NewGenerator(src Source, blocks BlockSource) *DrawGenerator {
	return &DrawGenerator{src: src, blocks: blocks}
}

// Generate implements Generator
func (g *DrawGenerator) Generate(ctx context.Context, game domain.GameType, params Params) (domain.Outcome, error) {
	switch game {
	case domain.GameWingo:
		return DrawDigit(g.src), nil
	case domain.GameTRX:
		if g.blocks == nil {
			return nil, fmt.Errorf("%w: no block source", domain.ErrRandomSource)
		}
		block, err := g.blocks.LatestBlock(ctx)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", domain.ErrRandomSource, err)
		}
		return DrawBlockDigit(block, g.src), nil
	case domain.GameK3:
		return DrawDice(g.src), nil
	case domain.Game5D:
		return DrawFiveD(g.src), nil
	case domain.GameRacing:
		return DrawRace(g.src), nil
	default:
		return nil, fmt.Errorf("%w: game %q", domain.ErrUnknownMode, game)
	}
}

// DrawDigit draws one digit 0-9
func DrawDigit(src Source) *domain.DigitOutcome {
	return domain.NewDigitOutcome(domain.GameWingo, src.Intn(10))
}

// DrawBlockDigit takes the last numeric character of the block hash as the digit
func DrawBlockDigit(block Block, fallback Source) *domain.DigitOutcome {
	n, ok := LastHashDigit(block.Hash)
	if !ok {
		n = fallback.Intn(10)
	}
	o := domain.NewDigitOutcome(domain.GameTRX, n)
	o.BlockHash = block.Hash
	o.BlockNumber = block.Number
	return o
}

// LastHashDigit scans the hash from the end for a character in 0-9
func LastHashDigit(hash string) (int, bool) {
	for i := len(hash) - 1; i >= 0; i-- {
		if c := hash[i]; c >= '0' && c <= '9' {
			return int(c - '0'), true
		}
	}
	return 0, false
}

// DrawDice rolls three dice
func DrawDice(src Source) *domain.DiceOutcome {
	return domain.NewDiceOutcome(src.Intn(6)+1, src.Intn(6)+1, src.Intn(6)+1)
}

// DrawFiveD draws five independent digits
func DrawFiveD(src Source) *domain.FiveDOutcome {
	var digits [5]int
	for i := range digits {
		digits[i] = src.Intn(10)
	}
	return domain.NewFiveDOutcome(digits)
}

// DrawRace shuffles the cars with Fisher-Yates
func DrawRace(src Source) *domain.RaceOutcome {
	ranking := make([]int, domain.RaceCars)
	for i := range ranking {
		ranking[i] = i + 1
	}
	for i := len(ranking) - 1; i > 0; i-- {
		j := src.Intn(i + 1)
		ranking[i], ranking[j] = ranking[j], ranking[i]
	}
	return domain.NewRaceOutcome(ranking)
}
