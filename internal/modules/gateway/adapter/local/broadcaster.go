// Package local provides local adapters for the gateway module.
package local

import (
	"context"
	"encoding/json"

	"github.com/frankieli/draw_games/internal/modules/draw_game/domain"
	"github.com/frankieli/draw_games/internal/modules/gateway/ws"
	"github.com/frankieli/draw_games/pkg/logger"
)

// Broadcaster receives draw game events and pushes them to WebSocket clients.
// It implements domain.Notifier.
type Broadcaster struct {
	wsManager *ws.Manager
}

func NewBroadcaster(wsManager *ws.Manager) *Broadcaster {
	return &Broadcaster{
		wsManager: wsManager,
	}
}

func (b *Broadcaster) convertEvent(ctx context.Context, event domain.Event) []byte {
	msg, err := json.Marshal(event)
	if err != nil {
		logger.Error(ctx).
			Err(err).
			Str("game", string(event.Game)).
			Str("command", event.Command).
			Msg("事件序列化失败")
		return nil
	}
	return msg
}

// Broadcast sends to every connection subscribed to the mode
func (b *Broadcaster) Broadcast(ctx context.Context, key domain.ModeKey, event domain.Event) {
	if msg := b.convertEvent(ctx, event); msg != nil {
		b.wsManager.BroadcastTo(key, msg)
	}
}

// SendTo sends to the one connection that placed the bets
func (b *Broadcaster) SendTo(ctx context.Context, connRef string, event domain.Event) {
	if msg := b.convertEvent(ctx, event); msg != nil {
		b.wsManager.SendTo(connRef, msg)
	}
}
