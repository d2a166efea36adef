package http

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/gorilla/websocket"

	"github.com/frankieli/draw_games/internal/modules/gateway/domain"
	"github.com/frankieli/draw_games/internal/modules/gateway/ws"
	"github.com/frankieli/draw_games/pkg/logger"
)

// Handler handles HTTP/WebSocket requests
type Handler struct {
	useCase domain.GatewayUseCase
	manager *ws.Manager
}

// NewHandler creates a new HTTP handler
func NewHandler(useCase domain.GatewayUseCase, manager *ws.Manager) *Handler {
	return &Handler{
		useCase: useCase,
		manager: manager,
	}
}

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true // Allow all origins for now
	},
}

// HandleWebSocket handles websocket requests
func (h *Handler) HandleWebSocket(w http.ResponseWriter, r *http.Request) {
	// Create context with Request ID for WebSocket
	ctx := logger.WebSocketContext(r)
	requestID := logger.GetRequestID(ctx)

	logger.Info(ctx).
		Str("remote_addr", r.RemoteAddr).
		Msg("WebSocket 连接请求")

	// 1. Identify the player; authentication lives in front of this service
	userID, err := strconv.ParseInt(r.URL.Query().Get("user_id"), 10, 64)
	if err != nil || userID <= 0 {
		logger.Warn(ctx).Str("user_id", r.URL.Query().Get("user_id")).Msg("缺少或无效的 user_id")
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	// 2. Upgrade connection
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		logger.Error(ctx).Err(err).Msg("WebSocket 升级失败")
		return
	}

	// 3. Register client
	client := h.manager.Register(conn, userID)

	logger.Info(ctx).
		Int64("user_id", userID).
		Str("conn_id", client.ID).
		Msg("WebSocket 连接建立成功")

	// Start pumps
	go client.WritePump()
	go client.ReadPump(func(c *ws.Connection, message []byte) {
		// Create new context with Request ID for each message
		msgCtx := logger.WithRequestID(context.Background(), logger.GenerateRequestID())
		msgCtx = logger.WithFields(msgCtx, map[string]interface{}{
			"user_id":       c.UserID,
			"conn_id":       c.ID,
			"ws_request_id": requestID, // Original WS connection ID
		})

		logger.Debug(msgCtx).
			Int("message_size", len(message)).
			Msg("收到 WebSocket 消息")

		response, err := h.useCase.HandleMessage(msgCtx, c.ID, c.UserID, message)
		if err != nil {
			logger.Warn(msgCtx).
				Err(err).
				Msg("处理消息失败")

			// Send error response to client
			errorResp := map[string]interface{}{
				"command": "error",
				"error":   err.Error(),
			}
			if jsonResp, err := json.Marshal(errorResp); err == nil {
				h.manager.SendTo(c.ID, jsonResp)
			}
		} else if response != nil {
			h.manager.SendTo(c.ID, response)
			logger.Debug(msgCtx).
				Int("response_size", len(response)).
				Msg("发送响应成功")
		}
	})
}
