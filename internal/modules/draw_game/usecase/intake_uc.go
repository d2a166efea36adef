// Package usecase implements bet intake for the draw games.
package usecase

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/frankieli/draw_games/internal/modules/draw_game/domain"
	"github.com/frankieli/draw_games/internal/modules/draw_game/payout"
	"github.com/frankieli/draw_games/internal/modules/draw_game/registry"
	"github.com/frankieli/draw_games/pkg/logger"
	"github.com/frankieli/draw_games/pkg/metrics"
)

// BetRequest is one inbound bet submission
type BetRequest struct {
	Game      domain.GameType
	Mode      string
	UserID    int64
	RequestID string
	Amount    decimal.Decimal
	Selection domain.Selection
	ConnRef   string
}

// BetReceipt confirms an admitted bet
type BetReceipt struct {
	RoundID string
	BetID   string
	Mode    string
	// Duplicate is true when the request id had already been admitted
	Duplicate bool
}

// IntakeUseCase admits bets into the current round of a mode
type IntakeUseCase struct {
	registry  *registry.Registry
	evaluator payout.Evaluator
	ledger    domain.Ledger
	metrics   *metrics.Metrics
	now       func() time.Time
}

// NewIntakeUseCase creates the bet intake gate
func NewIntakeUseCase(reg *registry.Registry, evaluator payout.Evaluator, ledger domain.Ledger, m *metrics.Metrics) *IntakeUseCase {
	return &IntakeUseCase{
		registry:  reg,
		evaluator: evaluator,
		ledger:    ledger,
		metrics:   m,
		now:       time.Now,
	}
}

// WithClock replaces the clock, for tests
func (uc *IntakeUseCase) WithClock(now func() time.Time) *IntakeUseCase {
	uc.now = now
	return uc
}

// PlaceBet validates, debits and appends a bet. Every refusal wraps a domain sentinel
// error; domain.RejectReason turns it into the wire reason.
func (uc *IntakeUseCase) PlaceBet(ctx context.Context, req BetRequest) (*BetReceipt, error) {
	receipt, err := uc.placeBet(ctx, req)
	if err != nil {
		uc.metrics.BetRejected(string(req.Game), domain.RejectReason(err))
		return nil, err
	}
	if !receipt.Duplicate {
		uc.metrics.BetAccepted(string(req.Game), req.Mode)
	}
	return receipt, nil
}

func (uc *IntakeUseCase) placeBet(ctx context.Context, req BetRequest) (*BetReceipt, error) {
	key := domain.ModeKey{Game: req.Game, Label: req.Mode}
	ctx = logger.WithFields(ctx, map[string]interface{}{
		"user_id": req.UserID,
		"mode":    key.String(),
	})

	logger.Debug(ctx).
		Str("selection", req.Selection.String()).
		Str("amount", req.Amount.String()).
		Str("request_id", req.RequestID).
		Msg("下注请求开始")

	// 1. Mode and selection
	_, spec, err := uc.registry.Mode(key)
	if err != nil {
		return nil, err
	}
	sel, err := uc.evaluator.Validate(req.Game, req.Selection)
	if err != nil {
		logger.Warn(ctx).Err(err).Msg("无效的下注内容")
		return nil, err
	}
	bet, err := domain.NewBet(key, req.UserID, req.Amount, sel, req.ConnRef)
	if err != nil {
		logger.Warn(ctx).Err(err).Msg("无效的下注数据")
		return nil, err
	}
	bet.RequestID = req.RequestID

	// 2. Window and idempotency, before any money moves
	prior, err := uc.registry.Precheck(key, req.UserID, req.RequestID, uc.now())
	if err != nil {
		logger.Debug(ctx).Err(err).Msg("当前不接受下注")
		return nil, err
	}
	if prior != nil {
		return &BetReceipt{RoundID: prior.RoundID, BetID: prior.BetID, Mode: req.Mode, Duplicate: true}, nil
	}

	// 3. Debit the full stake
	if err := uc.ledger.Debit(ctx, req.UserID, bet.Amount, fmt.Sprintf("bet:%s:%s", key, bet.BetID)); err != nil {
		logger.Warn(ctx).Err(err).Str("amount", bet.Amount.String()).Msg("钱包扣款失败")
		if errors.Is(err, domain.ErrInsufficientBalance) {
			return nil, err
		}
		return nil, fmt.Errorf("debit stake: %w", err)
	}

	// 4. Append under the mode lock; instant games are evaluated inside it
	// instant is written under the mode lock; the bet itself belongs to the scheduler once unlocked
	var admit registry.AdmitFunc
	var instant *domain.Evaluation
	if spec.Settlement == domain.SettleAtIntake {
		admit = func(round *domain.Round, b *domain.Bet) error {
			ev, err := uc.evaluateAtIntake(round, b)
			if err != nil {
				return err
			}
			instant = &ev
			return nil
		}
	}
	roundID, err := uc.registry.TryAppendBet(key, bet, uc.now(), admit)
	if err != nil && roundID == "" {
		uc.refund(ctx, bet)
		if errors.Is(err, domain.ErrDuplicateBet) {
			if prior, perr := uc.registry.Precheck(key, req.UserID, req.RequestID, uc.now()); perr == nil && prior != nil {
				return &BetReceipt{RoundID: prior.RoundID, BetID: prior.BetID, Mode: req.Mode, Duplicate: true}, nil
			}
		}
		logger.Info(ctx).Err(err).Str("bet_id", bet.BetID).Msg("下注追加失败，已退款")
		return nil, err
	}
	if err != nil {
		// the bet is in the round and will be evaluated at close
		logger.Error(ctx).Err(err).Str("bet_id", bet.BetID).Msg("intake evaluation failed")
	}

	ctx = logger.WithFields(ctx, map[string]interface{}{"round_id": roundID})

	// 5. Fee is revenue from the moment the bet is admitted
	if err := uc.ledger.RecordFee(ctx, req.Game, req.UserID, bet.Amount, bet.Fee); err != nil {
		logger.Error(ctx).Err(err).Str("bet_id", bet.BetID).Str("fee", bet.Fee.String()).Msg("手续费记录失败")
	}

	// 6. Instant settlement of a pre-rolled round
	if instant != nil && bet.ClaimSettlement() {
		reason := fmt.Sprintf("payout:%s:%s:%s", req.Game, roundID, bet.BetID)
		if err := uc.ledger.Credit(ctx, req.UserID, instant.Payout, reason); err != nil {
			bet.ReleaseSettlement()
			logger.Error(ctx).Err(err).Str("bet_id", bet.BetID).Msg("即时派彩失败，待回合结算")
		}
	}

	logger.Info(ctx).
		Str("bet_id", bet.BetID).
		Str("selection", bet.Selection.String()).
		Str("amount", bet.Amount.String()).
		Msg("下注成功")

	return &BetReceipt{RoundID: roundID, BetID: bet.BetID, Mode: req.Mode}, nil
}

// evaluateAtIntake runs under the mode lock and records the result on the bet
func (uc *IntakeUseCase) evaluateAtIntake(round *domain.Round, bet *domain.Bet) (domain.Evaluation, error) {
	if round.Outcome == nil {
		return domain.Evaluation{}, fmt.Errorf("round %s has no pre-rolled outcome", round.RoundID)
	}
	ev, err := uc.evaluator.Evaluate(bet, round.Outcome)
	if err != nil {
		return domain.Evaluation{}, err
	}
	bet.Result = &ev
	return ev, nil
}

func (uc *IntakeUseCase) refund(ctx context.Context, bet *domain.Bet) {
	if err := uc.ledger.Credit(ctx, bet.UserID, bet.Amount, fmt.Sprintf("refund:%s", bet.BetID)); err != nil {
		logger.Error(ctx).Err(err).Str("bet_id", bet.BetID).Str("amount", bet.Amount.String()).Msg("退款失败")
	}
}

// CurrentRound reports the state of a mode for a joining client
func (uc *IntakeUseCase) CurrentRound(key domain.ModeKey) (domain.RoundStateData, error) {
	if _, _, err := uc.registry.Mode(key); err != nil {
		return domain.RoundStateData{}, err
	}
	now := uc.now()
	view, ok := uc.registry.Current(key, now)
	if !ok {
		return domain.RoundStateData{Mode: key.Label}, nil
	}
	return domain.RoundStateData{
		Mode:     key.Label,
		RoundID:  view.RoundID,
		TimeLeft: int64(view.TimeLeft.Round(time.Second) / time.Second),
		Open:     view.Status == domain.RoundOpen.String() && now.Before(view.ClosesAt),
	}, nil
}
