// Package local provides local adapters for the draw game module.
package local

import (
	"context"

	"github.com/frankieli/draw_games/internal/modules/draw_game/domain"
	"github.com/frankieli/draw_games/internal/modules/draw_game/usecase"
	"github.com/frankieli/draw_games/pkg/logger"
	svc "github.com/frankieli/draw_games/pkg/service/draw_game"
)

// Handler is the in-process adapter for the draw games.
// It implements draw_game.DrawGameService directly.
type Handler struct {
	intakeUC *usecase.IntakeUseCase
}

// NewHandler creates a new local handler
func NewHandler(intakeUC *usecase.IntakeUseCase) *Handler {
	return &Handler{
		intakeUC: intakeUC,
	}
}

// PlaceBet handles placing a bet. Refusals are reported in the response, not as errors.
func (h *Handler) PlaceBet(ctx context.Context, req *svc.PlaceBetReq) (*svc.PlaceBetRsp, error) {
	game, err := domain.ParseGameType(req.Game)
	if err != nil {
		return rejected(req.Mode, err), nil
	}

	receipt, err := h.intakeUC.PlaceBet(ctx, usecase.BetRequest{
		Game:      game,
		Mode:      req.Mode,
		UserID:    req.UserID,
		RequestID: req.RequestID,
		Amount:    req.Amount,
		Selection: req.Selection,
		ConnRef:   req.ConnRef,
	})
	if err != nil {
		rsp := rejected(req.Mode, err)
		if rsp.Reason == domain.ReasonInternal {
			logger.Error(ctx).Err(err).Str("game", req.Game).Str("mode", req.Mode).Msg("PlaceBet failed")
		}
		return rsp, nil
	}

	return &svc.PlaceBetRsp{
		RoundID:   receipt.RoundID,
		BetID:     receipt.BetID,
		Mode:      receipt.Mode,
		Duplicate: receipt.Duplicate,
	}, nil
}

// GetState returns the current round of a mode
func (h *Handler) GetState(ctx context.Context, req *svc.GetStateReq) (*domain.RoundStateData, error) {
	game, err := domain.ParseGameType(req.Game)
	if err != nil {
		return nil, err
	}
	state, err := h.intakeUC.CurrentRound(domain.ModeKey{Game: game, Label: req.Mode})
	if err != nil {
		return nil, err
	}
	return &state, nil
}

func rejected(mode string, err error) *svc.PlaceBetRsp {
	return &svc.PlaceBetRsp{
		Reason: domain.RejectReason(err),
		Error:  err.Error(),
		Mode:   mode,
	}
}
