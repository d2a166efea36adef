package db

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/frankieli/draw_games/internal/modules/draw_game/domain"
)

const betInsertBatch = 500

// RoundRepository persists settled rounds with gorm
type RoundRepository struct {
	db *gorm.DB
}

func NewRoundRepository(db *gorm.DB) *RoundRepository {
	return &RoundRepository{db: db}
}

// AutoMigrate creates the draw game tables
func AutoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(&domain.RoundRecord{}, &domain.BetOrderRecord{}, &domain.RoundSequence{})
}

// InsertRound writes the round row and its bet orders in one transaction
func (r *RoundRepository) InsertRound(ctx context.Context, round *domain.Round) error {
	rec, orders, err := domain.ToRecords(round, time.Now())
	if err != nil {
		return err
	}
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(rec).Error; err != nil {
			return fmt.Errorf("insert round %s/%s: %w", rec.GameType, rec.RoundID, err)
		}
		if len(orders) == 0 {
			return nil
		}
		if err := tx.CreateInBatches(orders, betInsertBatch).Error; err != nil {
			return fmt.Errorf("insert %d bet orders of round %s: %w", len(orders), rec.RoundID, err)
		}
		return nil
	})
}

// LastRoundIDForToday implements domain.RoundStore
func (r *RoundRepository) LastRoundIDForToday(ctx context.Context, game domain.GameType, day string) (string, error) {
	var rec domain.RoundRecord
	err := r.db.WithContext(ctx).
		Select("round_id").
		Where("game_type = ? AND round_id LIKE ?", string(game), day+"%").
		Order("round_id DESC").
		Take(&rec).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return "", nil
	}
	if err != nil {
		return "", err
	}
	return rec.RoundID, nil
}

// GetRound loads one persisted round with its bet orders
func (r *RoundRepository) GetRound(ctx context.Context, game domain.GameType, roundID string) (*domain.RoundRecord, []*domain.BetOrderRecord, error) {
	var rec domain.RoundRecord
	if err := r.db.WithContext(ctx).
		Where("game_type = ? AND round_id = ?", string(game), roundID).
		Take(&rec).Error; err != nil {
		return nil, nil, err
	}
	var orders []*domain.BetOrderRecord
	if err := r.db.WithContext(ctx).
		Where("game_type = ? AND round_id = ?", string(game), roundID).
		Order("created_at ASC").
		Find(&orders).Error; err != nil {
		return nil, nil, err
	}
	return &rec, orders, nil
}
