// Package domain holds the round, bet and outcome types shared by the draw game engine.
package domain

import (
	"fmt"
	"time"
)

// GameType identifies one draw game
type GameType string

const (
	GameWingo  GameType = "wingo"  // 數字彩 (digit lottery)
	GameTRX    GameType = "trx"    // 區塊哈希彩 (block-hash digit lottery)
	GameK3     GameType = "k3"     // 快三 (dice triple)
	Game5D     GameType = "5d"     // 五位數彩
	GameRacing GameType = "racing" // 賽車
)

// SettlementTiming decides when bets are evaluated against the outcome
type SettlementTiming int

const (
	// SettleAtClose evaluates every bet when the round closes
	SettleAtClose SettlementTiming = iota
	// SettleAtIntake pre-rolls the outcome at open and settles each bet as it is admitted
	SettleAtIntake
)

func (t SettlementTiming) String() string {
	if t == SettleAtIntake {
		return "intake"
	}
	return "close"
}

// Mode is a fixed timing configuration under which rounds of one game type run
type Mode struct {
	Game     GameType
	Label    string
	Duration time.Duration
	// AlignToMinute makes rounds close at the next wall-clock minute boundary
	AlignToMinute bool
}

// Key returns the registry key of the mode
func (m Mode) Key() ModeKey {
	return ModeKey{Game: m.Game, Label: m.Label}
}

// ModeKey addresses one (gameType, mode) pair
type ModeKey struct {
	Game  GameType
	Label string
}

func (k ModeKey) String() string {
	return fmt.Sprintf("%s:%s", k.Game, k.Label)
}

// GameSpec is the static description of a game type
type GameSpec struct {
	Game         GameType
	Modes        []Mode
	CutoffMargin time.Duration
	Settlement   SettlementTiming
}

func mode(game GameType, label string, seconds int) Mode {
	return Mode{Game: game, Label: label, Duration: time.Duration(seconds) * time.Second}
}

// Catalogue returns the built-in game definitions
func Catalogue() []GameSpec {
	return []GameSpec{
		{
			Game: GameWingo,
			Modes: []Mode{
				mode(GameWingo, "30s", 30),
				mode(GameWingo, "1min", 60),
				mode(GameWingo, "3min", 180),
				mode(GameWingo, "5min", 300),
			},
			CutoffMargin: 3 * time.Second,
			Settlement:   SettleAtIntake,
		},
		{
			Game: GameTRX,
			Modes: []Mode{
				{Game: GameTRX, Label: "1min", Duration: time.Minute, AlignToMinute: true},
			},
			CutoffMargin: 1 * time.Second,
			Settlement:   SettleAtIntake,
		},
		{
			Game: GameK3,
			Modes: []Mode{
				mode(GameK3, "1min", 60),
				mode(GameK3, "3min", 180),
				mode(GameK3, "5min", 300),
				mode(GameK3, "10min", 600),
			},
			CutoffMargin: 3 * time.Second,
			Settlement:   SettleAtClose,
		},
		{
			Game: Game5D,
			Modes: []Mode{
				mode(Game5D, "1min", 60),
				mode(Game5D, "3min", 180),
				mode(Game5D, "5min", 300),
				mode(Game5D, "10min", 600),
			},
			CutoffMargin: 3 * time.Second,
			Settlement:   SettleAtClose,
		},
		{
			Game: GameRacing,
			Modes: []Mode{
				mode(GameRacing, "30s", 30),
				mode(GameRacing, "1min", 60),
				mode(GameRacing, "3min", 180),
			},
			CutoffMargin: 3 * time.Second,
			Settlement:   SettleAtClose,
		},
	}
}

// ParseGameType validates a game code
func ParseGameType(code string) (GameType, error) {
	switch g := GameType(code); g {
	case GameWingo, GameTRX, GameK3, Game5D, GameRacing:
		return g, nil
	}
	return "", fmt.Errorf("%w: game %q", ErrUnknownMode, code)
}

// SelectGames keeps the specs whose game code is listed. An empty list keeps all.
func SelectGames(specs []GameSpec, codes []string) ([]GameSpec, error) {
	if len(codes) == 0 {
		return specs, nil
	}
	want := make(map[GameType]bool, len(codes))
	for _, code := range codes {
		g, err := ParseGameType(code)
		if err != nil {
			return nil, err
		}
		want[g] = true
	}
	out := make([]GameSpec, 0, len(want))
	for _, spec := range specs {
		if want[spec.Game] {
			out = append(out, spec)
		}
	}
	return out, nil
}

// OverrideSettlement makes exactly the listed games settle at intake; all others settle at close
func OverrideSettlement(specs []GameSpec, intakeCodes []string) ([]GameSpec, error) {
	intake := make(map[GameType]bool, len(intakeCodes))
	for _, code := range intakeCodes {
		g, err := ParseGameType(code)
		if err != nil {
			return nil, err
		}
		intake[g] = true
	}
	out := make([]GameSpec, len(specs))
	for i, spec := range specs {
		spec.Settlement = SettleAtClose
		if intake[spec.Game] {
			spec.Settlement = SettleAtIntake
		}
		out[i] = spec
	}
	return out, nil
}
