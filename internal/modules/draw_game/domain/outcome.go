package domain

// Color is the color class of a drawn digit
type Color string

const (
	ColorRed    Color = "red"
	ColorGreen  Color = "green"
	ColorPurple Color = "purple"
)

// Size is the big/small class of a drawn value
type Size string

const (
	SizeBig   Size = "big"
	SizeSmall Size = "small"
)

// Parity is the odd/even class of a drawn value
type Parity string

const (
	ParityOdd  Parity = "odd"
	ParityEven Parity = "even"
)

// ParityOf classifies n
func ParityOf(n int) Parity {
	if n%2 == 0 {
		return ParityEven
	}
	return ParityOdd
}

// Outcome is the drawn result of one round
type Outcome interface {
	Game() GameType
}

// DigitOutcome is the result of the digit lotteries (wingo, trx)
type DigitOutcome struct {
	GameType    GameType `json:"game_type"`
	Number      int      `json:"drawn_number"`
	Color       Color    `json:"color"`
	Size        Size     `json:"category"`
	BlockHash   string   `json:"block_hash,omitempty"`
	BlockNumber int64    `json:"block_number,omitempty"`
}

func (o *DigitOutcome) Game() GameType { return o.GameType }

// NewDigitOutcome derives color and size for a drawn digit
func NewDigitOutcome(game GameType, number int) *DigitOutcome {
	return &DigitOutcome{
		GameType: game,
		Number:   number,
		Color:    DigitColor(number),
		Size:     DigitSize(number),
	}
}

// DigitColor maps even digits to red and odd digits to green; 0 and 5 are purple
func DigitColor(n int) Color {
	switch {
	case n == 0 || n == 5:
		return ColorPurple
	case n%2 == 0:
		return ColorRed
	default:
		return ColorGreen
	}
}

// DigitSize splits digits at 5
func DigitSize(n int) Size {
	if n >= 5 {
		return SizeBig
	}
	return SizeSmall
}

// DiceOutcome is the result of the dice triple game
type DiceOutcome struct {
	Dice     [3]int `json:"dice"`
	Sum      int    `json:"sum"`
	IsTriple bool   `json:"is_triple"`
	// Size is empty on a triple
	Size   Size   `json:"big_small,omitempty"`
	Parity Parity `json:"odd_even"`
}

func (o *DiceOutcome) Game() GameType { return GameK3 }

// NewDiceOutcome derives the sum classes for three dice
func NewDiceOutcome(a, b, c int) *DiceOutcome {
	o := &DiceOutcome{Dice: [3]int{a, b, c}, Sum: a + b + c}
	o.IsTriple = a == b && b == c
	if !o.IsTriple {
		o.Size = SizeSmall
		if o.Sum >= 11 {
			o.Size = SizeBig
		}
	}
	o.Parity = ParityOf(o.Sum)
	return o
}

// Count returns how many dice show v
func (o *DiceOutcome) Count(v int) int {
	n := 0
	for _, d := range o.Dice {
		if d == v {
			n++
		}
	}
	return n
}

// FiveDPositions lists the single-digit positions of the 5-digit lottery
var FiveDPositions = []string{"A", "B", "C", "D", "E"}

// PositionSum addresses the whole-sum position
const PositionSum = "SUM"

// FiveDOutcome is the result of the 5-digit lottery
type FiveDOutcome struct {
	Digits [5]int `json:"digits"`
	Sum    int    `json:"sum"`
}

func (o *FiveDOutcome) Game() GameType { return Game5D }

// NewFiveDOutcome builds the outcome for five digits
func NewFiveDOutcome(digits [5]int) *FiveDOutcome {
	o := &FiveDOutcome{Digits: digits}
	for _, d := range digits {
		o.Sum += d
	}
	return o
}

// ValueAt returns the digit at position A-E or the sum for SUM
func (o *FiveDOutcome) ValueAt(position string) (int, bool) {
	if position == PositionSum {
		return o.Sum, true
	}
	for i, p := range FiveDPositions {
		if p == position {
			return o.Digits[i], true
		}
	}
	return 0, false
}

// SizeAt applies the sum threshold (>=23) or the digit threshold (>=5)
func (o *FiveDOutcome) SizeAt(position string) (Size, bool) {
	v, ok := o.ValueAt(position)
	if !ok {
		return "", false
	}
	threshold := 5
	if position == PositionSum {
		threshold = 23
	}
	if v >= threshold {
		return SizeBig, true
	}
	return SizeSmall, true
}

// RaceOutcome is the result of the car race
type RaceOutcome struct {
	Ranking    []int  `json:"ranking"`
	Podium     [3]int `json:"podium"`
	FirstPlace int    `json:"first_place"`
	Size       Size   `json:"big_small"`
	Parity     Parity `json:"odd_even"`
}

func (o *RaceOutcome) Game() GameType { return GameRacing }

// RaceCars is the number of cars in a race
const RaceCars = 10

// NewRaceOutcome builds the outcome from a full finishing order
func NewRaceOutcome(ranking []int) *RaceOutcome {
	o := &RaceOutcome{Ranking: ranking}
	copy(o.Podium[:], ranking)
	o.FirstPlace = o.Podium[0]
	o.Size = SizeBig
	if o.FirstPlace <= 5 {
		o.Size = SizeSmall
	}
	o.Parity = ParityOf(o.FirstPlace)
	return o
}
