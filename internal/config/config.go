package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// AppConfig holds all configuration for the draw games server
type AppConfig struct {
	Server   ServerConfig
	Log      LogConfig
	Database DatabaseConfig
	Redis    RedisConfig
	Gateway  GatewayConfig
	DrawGame DrawGameConfig
}

// Load loads every section from the environment
func Load() *AppConfig {
	return &AppConfig{
		Server: ServerConfig{
			HTTPPort: getEnv("SERVER_HTTP_PORT", "8080"),
			Name:     getEnv("SERVER_NAME", "draw-games"),
		},
		Log:      LoadLogConfig(),
		Database: LoadDatabaseConfig(),
		Redis:    LoadRedisConfig(),
		Gateway:  *LoadGatewayConfig(),
		DrawGame: *LoadDrawGameConfig(),
	}
}

func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok {
		return value
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if value, ok := os.LookupEnv(key); ok {
		if i, err := strconv.Atoi(value); err == nil {
			return i
		}
	}
	return fallback
}

func getEnvInt64(key string, fallback int64) int64 {
	if value, ok := os.LookupEnv(key); ok {
		if i, err := strconv.ParseInt(value, 10, 64); err == nil {
			return i
		}
	}
	return fallback
}

func getEnvBool(key string, fallback bool) bool {
	if value, ok := os.LookupEnv(key); ok {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
	}
	return fallback
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	if value, ok := os.LookupEnv(key); ok {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return fallback
}

// getEnvList splits a comma separated variable; ok is false when it is unset
func getEnvList(key string) (list []string, ok bool) {
	value, ok := os.LookupEnv(key)
	if !ok {
		return nil, false
	}
	for _, part := range strings.Split(value, ",") {
		if part = strings.TrimSpace(part); part != "" {
			list = append(list, part)
		}
	}
	return list, true
}
