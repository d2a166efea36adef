package domain

import (
	"context"

	drawdomain "github.com/frankieli/draw_games/internal/modules/draw_game/domain"
)

// GatewayUseCase defines the interface for gateway business logic
type GatewayUseCase interface {
	// HandleMessage handles a message received on one connection
	HandleMessage(ctx context.Context, connID string, userID int64, message []byte) ([]byte, error)
}

// Subscriptions tracks which connections follow which mode
type Subscriptions interface {
	Subscribe(connID string, key drawdomain.ModeKey) error
	Unsubscribe(connID string, key drawdomain.ModeKey)
}
