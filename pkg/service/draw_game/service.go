package draw_game

import (
	"context"

	"github.com/shopspring/decimal"

	"github.com/frankieli/draw_games/internal/modules/draw_game/domain"
)

// PlaceBetReq is a bet submitted through a transport
type PlaceBetReq struct {
	Game      string
	Mode      string
	UserID    int64
	RequestID string
	Amount    decimal.Decimal
	Selection domain.Selection
	// ConnRef routes the personalized result back to the submitting connection
	ConnRef string
}

// PlaceBetRsp carries either a confirmation or a reject reason
type PlaceBetRsp struct {
	// Reason is empty on success, otherwise one of the domain.Reason* codes
	Reason    string
	Error     string
	RoundID   string
	BetID     string
	Mode      string
	Duplicate bool
}

// GetStateReq asks for the current round of a mode
type GetStateReq struct {
	Game string
	Mode string
}

// DrawGameService defines the draw game operations exposed to transports
type DrawGameService interface {
	// PlaceBet admits a bet into the current round of a mode
	PlaceBet(ctx context.Context, req *PlaceBetReq) (*PlaceBetRsp, error)

	// GetState returns the current round of a mode
	GetState(ctx context.Context, req *GetStateReq) (*domain.RoundStateData, error)
}
