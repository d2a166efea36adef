package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/frankieli/draw_games/internal/modules/draw_game/domain"
)

// Sequence keeps round id counters in redis so several engine processes can share them
type Sequence struct {
	rdb *redis.Client
	ttl time.Duration
}

// NewSequence creates a redis backed sequence
func NewSequence(rdb *redis.Client) *Sequence {
	return &Sequence{
		rdb: rdb,
		ttl: 48 * time.Hour, // a day's counter outlives the day
	}
}

func sequenceKey(game domain.GameType, day string) string {
	return fmt.Sprintf("round_seq:%s:%s", game, day)
}

// Next seeds the counter with floor if it does not exist and increments it
func (s *Sequence) Next(ctx context.Context, game domain.GameType, day string, floor int64) (int64, error) {
	key := sequenceKey(game, day)

	pipe := s.rdb.TxPipeline()
	pipe.SetNX(ctx, key, floor, s.ttl)
	incr := pipe.Incr(ctx, key)
	if _, err := pipe.Exec(ctx); err != nil {
		return 0, err
	}
	return incr.Val(), nil
}
