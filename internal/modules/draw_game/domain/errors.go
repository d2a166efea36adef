package domain

import "errors"

var (
	ErrBettingClosed       = errors.New("betting closed")
	ErrInvalidSelection    = errors.New("invalid selection")
	ErrInvalidBetData      = errors.New("invalid bet data")
	ErrInsufficientBalance = errors.New("insufficient balance")
	ErrDuplicateBet        = errors.New("duplicate bet")
	ErrNoActiveRound       = errors.New("no active round")
	ErrUnknownMode         = errors.New("unknown game mode")
	ErrRoundNotSettled     = errors.New("previous round not settled")
	ErrPersistence         = errors.New("persistence failure")
	ErrRandomSource        = errors.New("random source unavailable")
)

// Reason codes reported back to the bettor
const (
	ReasonBettingClosed       = "BettingClosed"
	ReasonInvalidSelection    = "InvalidSelection"
	ReasonInvalidBetData      = "InvalidBetData"
	ReasonInsufficientBalance = "InsufficientBalance"
	ReasonUnknownMode         = "UnknownMode"
	ReasonInternal            = "InternalError"
)

// RejectReason maps an intake error onto its wire reason code
func RejectReason(err error) string {
	switch {
	case errors.Is(err, ErrBettingClosed), errors.Is(err, ErrNoActiveRound):
		return ReasonBettingClosed
	case errors.Is(err, ErrInvalidSelection):
		return ReasonInvalidSelection
	case errors.Is(err, ErrInvalidBetData):
		return ReasonInvalidBetData
	case errors.Is(err, ErrInsufficientBalance):
		return ReasonInsufficientBalance
	case errors.Is(err, ErrUnknownMode):
		return ReasonUnknownMode
	default:
		return ReasonInternal
	}
}
