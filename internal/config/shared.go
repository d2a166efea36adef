package config

import "fmt"

// --- Shared Configs ---

type ServerConfig struct {
	HTTPPort string // HTTP port serving /ws, /healthz and /metrics
	Name     string
}

type LogConfig struct {
	Level  string // debug, info, warn, error
	Format string // json, console
	File   string // empty logs to stdout only
	Async  bool
}

type DatabaseConfig struct {
	Host     string
	Port     string
	User     string
	Password string
	Name     string
	SSLMode  string
	// SQLitePath is used by the sqlite store type
	SQLitePath string
}

// PostgresDSN builds the DSN for gorm's postgres driver
func (c DatabaseConfig) PostgresDSN() string {
	return fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.Name, c.SSLMode)
}

type RedisConfig struct {
	Host     string
	Port     string
	Password string
	DB       int
}

// Addr returns host:port
func (c RedisConfig) Addr() string {
	return c.Host + ":" + c.Port
}

// LoadLogConfig loads logging settings
func LoadLogConfig() LogConfig {
	return LogConfig{
		Level:  getEnv("LOG_LEVEL", "info"),
		Format: getEnv("LOG_FORMAT", "json"),
		File:   getEnv("LOG_FILE", ""),
		Async:  getEnvBool("LOG_ASYNC", false),
	}
}

// LoadDatabaseConfig loads database settings
func LoadDatabaseConfig() DatabaseConfig {
	return DatabaseConfig{
		Host:       getEnv("DB_HOST", "localhost"),
		Port:       getEnv("DB_PORT", "5432"),
		User:       getEnv("DB_USER", "casino_user"),
		Password:   getEnv("DB_PASSWORD", "casino_pass"),
		Name:       getEnv("DB_NAME", "casino_db"),
		SSLMode:    getEnv("DB_SSLMODE", "disable"),
		SQLitePath: getEnv("DB_SQLITE_PATH", "draw_games.db"),
	}
}

// LoadRedisConfig loads redis settings
func LoadRedisConfig() RedisConfig {
	return RedisConfig{
		Host:     getEnv("REDIS_HOST", "localhost"),
		Port:     getEnv("REDIS_PORT", "6379"),
		Password: getEnv("REDIS_PASSWORD", ""),
		DB:       getEnvInt("REDIS_DB", 0),
	}
}
