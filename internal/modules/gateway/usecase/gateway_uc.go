// Package usecase implements the business logic for the gateway module.
package usecase

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/shopspring/decimal"

	drawdomain "github.com/frankieli/draw_games/internal/modules/draw_game/domain"
	"github.com/frankieli/draw_games/internal/modules/gateway/domain"
	"github.com/frankieli/draw_games/pkg/logger"
	drawgame "github.com/frankieli/draw_games/pkg/service/draw_game"
)

// Inbound commands
const (
	CommandJoinMode  = "join_mode"
	CommandPlaceBet  = "place_bet"
	CommandLeaveMode = "leave_mode"
)

// GatewayUseCase routes client envelopes to the draw games
type GatewayUseCase struct {
	drawGameSvc drawgame.DrawGameService
	subs        domain.Subscriptions
}

// NewGatewayUseCase creates a new gateway use case
func NewGatewayUseCase(drawGameSvc drawgame.DrawGameService, subs domain.Subscriptions) *GatewayUseCase {
	return &GatewayUseCase{
		drawGameSvc: drawGameSvc,
		subs:        subs,
	}
}

// RequestEnvelope defines the standard request structure
type RequestEnvelope struct {
	Game    string          `json:"game"`
	Command string          `json:"command"`
	Data    json.RawMessage `json:"data"`
}

type modePayload struct {
	Mode string `json:"mode"`
}

type placeBetPayload struct {
	Mode      string               `json:"mode"`
	RequestID string               `json:"request_id"`
	Amount    decimal.Decimal      `json:"amount"`
	Selection drawdomain.Selection `json:"selection"`
}

// HandleMessage dispatches one envelope received on connID. A nil reply means nothing is sent back.
func (uc *GatewayUseCase) HandleMessage(ctx context.Context, connID string, userID int64, message []byte) ([]byte, error) {
	var req RequestEnvelope
	if err := json.Unmarshal(message, &req); err != nil {
		return nil, fmt.Errorf("invalid message format: %w", err)
	}

	if req.Game == "" || req.Command == "" {
		return nil, fmt.Errorf("missing game or command")
	}

	game, err := drawdomain.ParseGameType(req.Game)
	if err != nil {
		return nil, fmt.Errorf("unknown game: %s", req.Game)
	}

	switch req.Command {
	case CommandJoinMode:
		return uc.joinMode(ctx, connID, game, req.Data)
	case CommandLeaveMode:
		return uc.leaveMode(ctx, connID, game, req.Data)
	case CommandPlaceBet:
		return uc.placeBet(ctx, connID, userID, game, req.Data)
	default:
		logger.Error(ctx).
			Int64("user_id", userID).
			Str("command", req.Command).
			Msg("Unknown command")
		return nil, fmt.Errorf("unknown command for %s: %s", req.Game, req.Command)
	}
}

func (uc *GatewayUseCase) joinMode(ctx context.Context, connID string, game drawdomain.GameType, data []byte) ([]byte, error) {
	var payload modePayload
	if err := json.Unmarshal(data, &payload); err != nil {
		return nil, fmt.Errorf("invalid join_mode payload: %w", err)
	}

	state, err := uc.drawGameSvc.GetState(ctx, &drawgame.GetStateReq{Game: string(game), Mode: payload.Mode})
	if err != nil {
		return nil, err
	}

	key := drawdomain.ModeKey{Game: game, Label: payload.Mode}
	if err := uc.subs.Subscribe(connID, key); err != nil {
		return nil, err
	}

	logger.Debug(ctx).
		Str("conn_id", connID).
		Str("mode", key.String()).
		Msg("加入模式")

	return json.Marshal(drawdomain.Event{Game: game, Command: drawdomain.EventRoundState, Data: state})
}

func (uc *GatewayUseCase) leaveMode(ctx context.Context, connID string, game drawdomain.GameType, data []byte) ([]byte, error) {
	var payload modePayload
	if err := json.Unmarshal(data, &payload); err != nil {
		return nil, fmt.Errorf("invalid leave_mode payload: %w", err)
	}

	key := drawdomain.ModeKey{Game: game, Label: payload.Mode}
	uc.subs.Unsubscribe(connID, key)

	logger.Debug(ctx).
		Str("conn_id", connID).
		Str("mode", key.String()).
		Msg("离开模式")
	return nil, nil
}

func (uc *GatewayUseCase) placeBet(ctx context.Context, connID string, userID int64, game drawdomain.GameType, data []byte) ([]byte, error) {
	var payload placeBetPayload
	if err := json.Unmarshal(data, &payload); err != nil {
		logger.Warn(ctx).
			Err(err).
			Int64("user_id", userID).
			Msg("Failed to unmarshal PlaceBet payload")
		return rejectedReply(game, drawgame.PlaceBetRsp{
			Mode:   payload.Mode,
			Reason: drawdomain.ReasonInvalidBetData,
			Error:  err.Error(),
		})
	}

	rsp, err := uc.drawGameSvc.PlaceBet(ctx, &drawgame.PlaceBetReq{
		Game:      string(game),
		Mode:      payload.Mode,
		UserID:    userID,
		RequestID: payload.RequestID,
		Amount:    payload.Amount,
		Selection: payload.Selection,
		ConnRef:   connID,
	})
	if err != nil {
		return rejectedReply(game, drawgame.PlaceBetRsp{
			Mode:   payload.Mode,
			Reason: drawdomain.ReasonInternal,
			Error:  err.Error(),
		})
	}
	if rsp.Reason != "" {
		logger.Info(ctx).
			Int64("user_id", userID).
			Str("mode", payload.Mode).
			Str("reason", rsp.Reason).
			Str("error", rsp.Error).
			Msg("PlaceBet rejected")
		return rejectedReply(game, *rsp)
	}

	return json.Marshal(drawdomain.Event{
		Game:    game,
		Command: drawdomain.EventBetConfirmed,
		Data: drawdomain.BetConfirmedData{
			RoundID: rsp.RoundID,
			BetID:   rsp.BetID,
			Mode:    rsp.Mode,
		},
	})
}

func rejectedReply(game drawdomain.GameType, rsp drawgame.PlaceBetRsp) ([]byte, error) {
	return json.Marshal(drawdomain.Event{
		Game:    game,
		Command: drawdomain.EventBetRejected,
		Data: drawdomain.BetRejectedData{
			Mode:   rsp.Mode,
			Reason: rsp.Reason,
			Error:  rsp.Error,
		},
	})
}
