package db

import (
	"context"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/frankieli/draw_games/internal/modules/draw_game/domain"
)

// Sequence is a round id counter kept in the round_sequences table
type Sequence struct {
	db *gorm.DB
}

func NewSequence(db *gorm.DB) *Sequence {
	return &Sequence{db: db}
}

// Next upserts the (game, day) row and reads the incremented value back in one transaction
func (s *Sequence) Next(ctx context.Context, game domain.GameType, day string, floor int64) (int64, error) {
	var seq int64
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		row := domain.RoundSequence{GameType: string(game), Day: day, Seq: floor + 1}
		if err := tx.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "game_type"}, {Name: "day"}},
			DoUpdates: clause.Assignments(map[string]interface{}{"seq": gorm.Expr("round_sequences.seq + 1")}),
		}).Create(&row).Error; err != nil {
			return err
		}
		var cur domain.RoundSequence
		if err := tx.Where("game_type = ? AND day = ?", string(game), day).Take(&cur).Error; err != nil {
			return err
		}
		seq = cur.Seq
		return nil
	})
	return seq, err
}
