package config

import "time"

type GatewayConfig struct {
	WebSocket WebSocketConfig
}

type WebSocketConfig struct {
	PingInterval   time.Duration
	WriteWait      time.Duration
	PongWait       time.Duration
	MaxMessageSize int64
}

// LoadGatewayConfig loads configuration for the websocket gateway
func LoadGatewayConfig() *GatewayConfig {
	return &GatewayConfig{
		WebSocket: WebSocketConfig{
			PingInterval:   getEnvDuration("WS_PING_INTERVAL", 54*time.Second),
			WriteWait:      getEnvDuration("WS_WRITE_WAIT", 10*time.Second),
			PongWait:       getEnvDuration("WS_PONG_WAIT", 60*time.Second),
			MaxMessageSize: getEnvInt64("WS_MAX_MESSAGE_SIZE", 4096),
		},
	}
}
