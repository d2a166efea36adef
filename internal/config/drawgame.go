package config

import (
	"fmt"
	"time"
)

// Store and sequence backends
const (
	StoreMemory   = "memory"
	StorePostgres = "postgres"
	StoreSQLite   = "sqlite"

	SequenceMemory = "memory"
	SequenceRedis  = "redis"
	SequenceDB     = "db"
)

type DrawGameConfig struct {
	StoreType    string // memory, postgres, sqlite
	SequenceType string // memory, redis, db
	// Games limits which game types run; empty runs the whole catalogue
	Games []string
	// SettleAtIntake, when set, replaces the default list of games that
	// settle each bet at intake against a pre-rolled outcome
	SettleAtIntake     []string
	OverrideSettlement bool
	TickInterval       time.Duration
	DrainTimeout       time.Duration
	// RandomSeed > 0 makes draws reproducible; 0 uses crypto/rand
	RandomSeed int64
	// BlockSecret keys the pseudo block hashes; empty draws a random key per process
	BlockSecret string
	// DefaultBalance seeds every wallet in the in-memory ledger
	DefaultBalance int64
	// NodeID is the snowflake node used for bet ids
	NodeID int64
}

// LoadDrawGameConfig loads configuration for the draw game engine
func LoadDrawGameConfig() *DrawGameConfig {
	games, _ := getEnvList("DRAW_GAMES")
	intake, override := getEnvList("DRAW_SETTLE_AT_INTAKE")

	return &DrawGameConfig{
		StoreType:          getEnv("DRAW_STORE_TYPE", StoreMemory),
		SequenceType:       getEnv("DRAW_SEQUENCE_TYPE", SequenceMemory),
		Games:              games,
		SettleAtIntake:     intake,
		OverrideSettlement: override,
		TickInterval:       getEnvDuration("DRAW_TICK_INTERVAL", time.Second),
		DrainTimeout:       getEnvDuration("DRAW_DRAIN_TIMEOUT", 10*time.Second),
		RandomSeed:         getEnvInt64("DRAW_RANDOM_SEED", 0),
		BlockSecret:        getEnv("TRX_BLOCK_SECRET", ""),
		DefaultBalance:     getEnvInt64("WALLET_DEFAULT_BALANCE", 10000),
		NodeID:             getEnvInt64("DRAW_NODE_ID", 1),
	}
}

// Validate rejects backend combinations that could hand out a round id twice.
// A durable store only remembers rounds that had bets, so its sequence must survive restarts too.
func (c *DrawGameConfig) Validate() error {
	switch c.StoreType {
	case StoreMemory, StorePostgres, StoreSQLite:
	default:
		return fmt.Errorf("unknown DRAW_STORE_TYPE %q", c.StoreType)
	}
	switch c.SequenceType {
	case SequenceMemory, SequenceRedis, SequenceDB:
	default:
		return fmt.Errorf("unknown DRAW_SEQUENCE_TYPE %q", c.SequenceType)
	}
	if c.StoreType != StoreMemory && c.SequenceType == SequenceMemory {
		return fmt.Errorf("DRAW_STORE_TYPE=%s needs DRAW_SEQUENCE_TYPE=%s or %s: an in-memory sequence reissues ids of discarded rounds after a restart",
			c.StoreType, SequenceRedis, SequenceDB)
	}
	return nil
}
