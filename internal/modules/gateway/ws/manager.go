package ws

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/frankieli/draw_games/internal/modules/draw_game/domain"
	"github.com/frankieli/draw_games/pkg/logger"
	"github.com/frankieli/draw_games/pkg/metrics"
)

type CloseReason string

const (
	ReasonWriteError CloseReason = "write_error"
	ReasonPingError  CloseReason = "ping_error"
	ReasonReadError  CloseReason = "read_error"
	ReasonShutdown   CloseReason = "server_shutdown"
	ReasonBufferFull CloseReason = "buffer_full"
	ReasonTimeout    CloseReason = "timeout"
)

// Connection represents a WebSocket connection
type Connection struct {
	ID        string
	UserID    int64
	Conn      *websocket.Conn
	Send      chan []byte
	manager   *Manager
	closeOnce sync.Once
	done      chan struct{}
}

// Manager tracks connections and their mode subscriptions.
// A user may hold several connections; results are routed per connection.
type Manager struct {
	PingInterval   time.Duration
	WriteWait      time.Duration
	PongWait       time.Duration
	MaxMessageSize int64

	clients    map[string]*Connection
	subs       map[domain.ModeKey]map[string]*Connection
	unregister chan *Connection
	stopped    chan struct{}
	mu         sync.RWMutex
	metrics    *metrics.Metrics
}

// NewManager creates a new connection manager
func NewManager(m *metrics.Metrics) *Manager {
	return &Manager{
		PingInterval:   54 * time.Second,
		WriteWait:      10 * time.Second,
		PongWait:       60 * time.Second,
		MaxMessageSize: 4096,

		clients:    make(map[string]*Connection),
		subs:       make(map[domain.ModeKey]map[string]*Connection),
		unregister: make(chan *Connection),
		stopped:    make(chan struct{}),
		metrics:    m,
	}
}

// Register registers a new connection under a fresh connection id.
// The connection is subscribable as soon as Register returns.
func (m *Manager) Register(conn *websocket.Conn, userID int64) *Connection {
	c := &Connection{
		ID:      uuid.NewString(),
		UserID:  userID,
		Conn:    conn,
		Send:    make(chan []byte, 1024),
		manager: m,
		done:    make(chan struct{}),
	}
	m.mu.Lock()
	select {
	case <-m.stopped:
		m.mu.Unlock()
		c.CloseWithReason(ReasonShutdown, nil)
		return c
	default:
	}
	m.clients[c.ID] = c
	m.mu.Unlock()
	m.metrics.ConnectionOpened()
	return c
}

// Run starts the manager loop
func (m *Manager) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			m.mu.Lock()
			close(m.stopped)
			m.mu.Unlock()
			m.Shutdown()
			return nil

		case client := <-m.unregister:
			m.mu.Lock()
			if _, ok := m.clients[client.ID]; ok {
				delete(m.clients, client.ID)
				for key, conns := range m.subs {
					delete(conns, client.ID)
					if len(conns) == 0 {
						delete(m.subs, key)
					}
				}
				m.metrics.ConnectionClosed()
			}
			m.mu.Unlock()
			client.CloseWithReason(ReasonShutdown, nil)
		}
	}
}

// Subscribe adds the connection to the broadcast set of a mode
func (m *Manager) Subscribe(connID string, key domain.ModeKey) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	client, ok := m.clients[connID]
	if !ok {
		return fmt.Errorf("connection %s not registered", connID)
	}
	conns, ok := m.subs[key]
	if !ok {
		conns = make(map[string]*Connection)
		m.subs[key] = conns
	}
	conns[connID] = client
	return nil
}

// Unsubscribe removes the connection from the broadcast set of a mode
func (m *Manager) Unsubscribe(connID string, key domain.ModeKey) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if conns, ok := m.subs[key]; ok {
		delete(conns, connID)
		if len(conns) == 0 {
			delete(m.subs, key)
		}
	}
}

// Subscribers counts the connections subscribed to a mode
func (m *Manager) Subscribers(key domain.ModeKey) int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.subs[key])
}

// BroadcastTo sends a message to every subscriber of a mode
func (m *Manager) BroadcastTo(key domain.ModeKey, message []byte) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	for _, client := range m.subs[key] {
		select {
		case client.Send <- message:
		default:
			// Buffer full, drop client; ReadPump unregisters it
			client.CloseWithReason(ReasonBufferFull, nil)
		}
	}
}

// SendTo sends a message to one connection
func (m *Manager) SendTo(connID string, message []byte) {
	m.mu.RLock()
	client, ok := m.clients[connID]
	m.mu.RUnlock()

	if !ok {
		return
	}
	select {
	case client.Send <- message:
		return
	default:
		// Buffer full, try to wait a bit
	}

	select {
	case client.Send <- message:
	case <-client.done:
	case <-time.After(time.Second * 5):
		// Timeout, client is too slow. Close connection to avoid blocking server.
		client.CloseWithReason(ReasonTimeout, nil)
	}
}

// Shutdown closes all connections
func (m *Manager) Shutdown() {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, client := range m.clients {
		client.CloseWithReason(ReasonShutdown, nil)
	}
}

// CloseWithReason closes the connection with a reason
func (c *Connection) CloseWithReason(r CloseReason, err error) {
	c.closeOnce.Do(func() {
		ev := logger.Info(context.Background())
		if err != nil {
			ev = logger.Warn(context.Background()).Err(err)
		}
		ev.Str("conn_id", c.ID).
			Int64("user_id", c.UserID).
			Str("reason", string(r)).
			Msg("ws connection closed")
		close(c.done)
		c.Conn.Close()
	})
}

// WritePump pumps messages from the hub to the websocket connection
func (c *Connection) WritePump() {
	ticker := time.NewTicker(c.manager.PingInterval)
	defer ticker.Stop()

	for {
		select {
		case <-c.done:
			return

		case message := <-c.Send:
			// 必須設定 deadline，防止客戶端故意不讀
			c.Conn.SetWriteDeadline(time.Now().Add(c.manager.WriteWait))

			w, err := c.Conn.NextWriter(websocket.TextMessage)
			if err != nil {
				c.CloseWithReason(ReasonWriteError, err)
				return
			}
			w.Write(message)

			if err := w.Close(); err != nil {
				c.CloseWithReason(ReasonWriteError, err)
				return
			}

		case <-ticker.C:
			c.Conn.SetWriteDeadline(time.Now().Add(c.manager.WriteWait))
			if err := c.Conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				c.CloseWithReason(ReasonPingError, err)
				return
			}
		}
	}
}

// ReadPump pumps messages from the websocket connection to the handler
func (c *Connection) ReadPump(handleMessage func(*Connection, []byte)) {
	var readErr error
	defer func() {
		select {
		case c.manager.unregister <- c:
		case <-c.manager.stopped:
		}
		c.CloseWithReason(ReasonReadError, readErr)
	}()

	c.Conn.SetReadLimit(c.manager.MaxMessageSize)
	c.Conn.SetReadDeadline(time.Now().Add(c.manager.PongWait))
	c.Conn.SetPongHandler(func(string) error {
		c.Conn.SetReadDeadline(time.Now().Add(c.manager.PongWait))
		return nil
	})

	for {
		_, message, err := c.Conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				readErr = err
			}
			break
		}

		handleMessage(c, message)
	}
}
