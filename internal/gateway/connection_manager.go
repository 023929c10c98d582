package gateway

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"
)

// ConnectionManager manages WebSocket connections for arena clients and fans
// topic payloads out to all of them. Per topic only the latest payload is
// kept: a backlog never queues, a slow consumer simply sees the newest
// snapshot on its next delivery.
type ConnectionManager struct {
	connections map[*Connection]bool
	// owners maps a userID to the connection that currently owns its session.
	// A reconnect replaces the owner; the superseded socket is torn down
	// without firing the disconnect hook.
	owners map[string]*Connection
	mu     sync.RWMutex

	// Upgrader for WebSocket connections
	upgrader websocket.Upgrader

	// Connection configuration
	config ConnectionConfig

	// Latest pending payload per topic, flushed by Start.
	pendingMu sync.Mutex
	pending   map[string][]byte
	dirtyCh   chan struct{}

	// onDisconnect is invoked once per connection after it unregisters.
	onDisconnect func(userID string)
}

// Connection represents a WebSocket connection to a client
type Connection struct {
	ID      string
	UserID  string
	Conn    *websocket.Conn
	Send    chan []byte
	Manager *ConnectionManager

	// Connection metadata
	ConnectedAt time.Time
	LastPing    time.Time

	// onMessage handles frames read from the client.
	onMessage func(*Connection, []byte)

	closeOnce sync.Once

	// sendMu guards Send against a queue racing the close in unregister.
	sendMu     sync.Mutex
	sendClosed bool
}

// ConnectionConfig holds configuration for WebSocket connections
type ConnectionConfig struct {
	WriteTimeout    time.Duration
	ReadTimeout     time.Duration
	PingInterval    time.Duration
	MaxMessageSize  int64
	ReadBufferSize  int
	WriteBufferSize int
	CheckOrigin     func(r *http.Request) bool
}

// DefaultConnectionConfig returns default WebSocket configuration
func DefaultConnectionConfig() ConnectionConfig {
	return ConnectionConfig{
		WriteTimeout:    10 * time.Second,
		ReadTimeout:     60 * time.Second,
		PingInterval:    30 * time.Second,
		MaxMessageSize:  1024,
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin: func(r *http.Request) bool {
			// Allow all origins in development - restrict in production
			return true
		},
	}
}

// NewConnectionManager creates a new WebSocket connection manager
func NewConnectionManager(config ConnectionConfig) *ConnectionManager {
	return &ConnectionManager{
		connections: make(map[*Connection]bool),
		owners:      make(map[string]*Connection),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  config.ReadBufferSize,
			WriteBufferSize: config.WriteBufferSize,
			CheckOrigin:     config.CheckOrigin,
		},
		config:  config,
		pending: make(map[string][]byte),
		dirtyCh: make(chan struct{}, 1),
	}
}

// SetDisconnectHandler installs the server-side disconnect hook. It fires
// when a session-owning connection tears down, graceful or not, and is the
// primary session cleanup path. A socket superseded by a reconnect never
// fires it.
func (cm *ConnectionManager) SetDisconnectHandler(fn func(userID string)) {
	cm.onDisconnect = fn
}

// Start flushes pending topic payloads to all connections until the context
// is cancelled.
func (cm *ConnectionManager) Start(ctx context.Context) {
	log.Info().Msg("connection manager started")

	for {
		select {
		case <-ctx.Done():
			log.Info().Msg("connection manager shutting down")
			cm.closeAll()
			return
		case <-cm.dirtyCh:
			cm.flushPending()
		}
	}
}

// Broadcast stores the latest payload for a topic and wakes the flush loop.
// An unflushed older payload for the same topic is overwritten.
func (cm *ConnectionManager) Broadcast(topic string, payload any) {
	data, err := json.Marshal(payload)
	if err != nil {
		log.Error().Err(err).Str("topic", topic).Msg("failed to marshal broadcast payload")
		return
	}
	cm.BroadcastWire(WireMessage{Topic: topic, Type: "Snapshot", Data: data})
}

// BroadcastWire stores a fully formed wire message for its topic.
func (cm *ConnectionManager) BroadcastWire(msg WireMessage) {
	frame, err := json.Marshal(msg)
	if err != nil {
		log.Error().Err(err).Str("topic", msg.Topic).Msg("failed to marshal wire message")
		return
	}

	cm.pendingMu.Lock()
	cm.pending[msg.Topic] = frame
	cm.pendingMu.Unlock()

	select {
	case cm.dirtyCh <- struct{}{}:
	default:
	}
}

// flushPending sends the newest payload of every dirty topic to every
// connection.
func (cm *ConnectionManager) flushPending() {
	cm.pendingMu.Lock()
	if len(cm.pending) == 0 {
		cm.pendingMu.Unlock()
		return
	}
	batch := cm.pending
	cm.pending = make(map[string][]byte)
	cm.pendingMu.Unlock()

	cm.mu.RLock()
	targets := make([]*Connection, 0, len(cm.connections))
	for conn := range cm.connections {
		targets = append(targets, conn)
	}
	cm.mu.RUnlock()

	for _, frame := range batch {
		for _, conn := range targets {
			if conn.trySend(frame) {
				continue
			}
			// Connection is slow/dead, close it
			log.Warn().
				Str("connection_id", conn.ID).
				Str("user_id", conn.UserID).
				Msg("connection send buffer full, closing connection")
			cm.unregisterConnection(conn)
			conn.Conn.Close()
		}
	}
}

// trySend queues a frame unless the connection is already closed or its
// buffer is full.
func (c *Connection) trySend(frame []byte) bool {
	c.sendMu.Lock()
	defer c.sendMu.Unlock()

	if c.sendClosed {
		return false
	}
	select {
	case c.Send <- frame:
		return true
	default:
		return false
	}
}

// UpgradeConnection upgrades an HTTP connection to WebSocket and starts its
// pumps. onMessage receives every frame the client sends.
func (cm *ConnectionManager) UpgradeConnection(w http.ResponseWriter, r *http.Request, userID string, onMessage func(*Connection, []byte)) (*Connection, error) {
	conn, err := cm.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Error().Err(err).Msg("failed to upgrade WebSocket connection")
		return nil, fmt.Errorf("failed to upgrade connection: %w", err)
	}

	connection := &Connection{
		ID:          uuid.New().String(),
		UserID:      userID,
		Conn:        conn,
		Send:        make(chan []byte, 256),
		Manager:     cm,
		ConnectedAt: time.Now(),
		LastPing:    time.Now(),
		onMessage:   onMessage,
	}

	cm.registerConnection(connection)

	go connection.writePump()
	go connection.readPump()

	log.Info().
		Str("connection_id", connection.ID).
		Str("user_id", userID).
		Msg("WebSocket connection established")

	return connection, nil
}

// registerConnection adds a connection and makes it the owner of its user's
// session. A previous connection for the same user is superseded and torn
// down without firing the disconnect hook, so a reconnect never removes the
// session it just replaced.
func (cm *ConnectionManager) registerConnection(conn *Connection) {
	cm.mu.Lock()
	cm.connections[conn] = true
	prev := cm.owners[conn.UserID]
	cm.owners[conn.UserID] = conn
	total := len(cm.connections)
	cm.mu.Unlock()

	if prev != nil && prev != conn {
		log.Info().
			Str("connection_id", prev.ID).
			Str("user_id", conn.UserID).
			Msg("closing superseded connection after reconnect")
		cm.unregisterConnection(prev)
	}

	log.Debug().
		Str("connection_id", conn.ID).
		Int("total_connections", total).
		Msg("connection registered")
}

// unregisterConnection removes a connection from the manager. The disconnect
// hook fires exactly once and only while the connection still owns its user's
// session; a stale socket closing after a reconnect goes away silently.
func (cm *ConnectionManager) unregisterConnection(conn *Connection) {
	cm.mu.Lock()
	_, exists := cm.connections[conn]
	if exists {
		delete(cm.connections, conn)
	}
	owns := cm.owners[conn.UserID] == conn
	if owns {
		delete(cm.owners, conn.UserID)
	}
	cm.mu.Unlock()

	if !exists {
		return
	}

	conn.closeOnce.Do(func() {
		conn.sendMu.Lock()
		conn.sendClosed = true
		close(conn.Send)
		conn.sendMu.Unlock()

		if owns && cm.onDisconnect != nil {
			cm.onDisconnect(conn.UserID)
		}
	})

	log.Info().
		Str("connection_id", conn.ID).
		Str("user_id", conn.UserID).
		Msg("connection unregistered")
}

// closeAll tears down every connection on shutdown.
func (cm *ConnectionManager) closeAll() {
	cm.mu.Lock()
	conns := make([]*Connection, 0, len(cm.connections))
	for conn := range cm.connections {
		conns = append(conns, conn)
	}
	cm.mu.Unlock()

	for _, conn := range conns {
		cm.unregisterConnection(conn)
		conn.Conn.Close()
	}
}

// SendDirect queues a frame for one connection only, used for the join ack.
func (cm *ConnectionManager) SendDirect(conn *Connection, msg WireMessage) {
	frame, err := json.Marshal(msg)
	if err != nil {
		log.Error().Err(err).Str("topic", msg.Topic).Msg("failed to marshal direct message")
		return
	}
	if !conn.trySend(frame) {
		log.Warn().
			Str("connection_id", conn.ID).
			Msg("direct send dropped, connection closed or buffer full")
	}
}

// GetConnectionStats returns statistics about active connections
func (cm *ConnectionManager) GetConnectionStats() map[string]interface{} {
	cm.mu.RLock()
	defer cm.mu.RUnlock()

	return map[string]interface{}{
		"total_connections": len(cm.connections),
	}
}

// writePump handles sending messages to the WebSocket connection
func (c *Connection) writePump() {
	ticker := time.NewTicker(c.Manager.config.PingInterval)
	defer func() {
		ticker.Stop()
		c.Conn.Close()
		c.Manager.unregisterConnection(c)
	}()

	for {
		select {
		case message, ok := <-c.Send:
			c.Conn.SetWriteDeadline(time.Now().Add(c.Manager.config.WriteTimeout))
			if !ok {
				// Channel was closed
				c.Conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}

			if err := c.Conn.WriteMessage(websocket.TextMessage, message); err != nil {
				log.Error().
					Err(err).
					Str("connection_id", c.ID).
					Msg("failed to write message to WebSocket")
				return
			}

		case <-ticker.C:
			c.Conn.SetWriteDeadline(time.Now().Add(c.Manager.config.WriteTimeout))
			if err := c.Conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				log.Error().
					Err(err).
					Str("connection_id", c.ID).
					Msg("failed to send ping")
				return
			}
			c.LastPing = time.Now()
		}
	}
}

// readPump handles reading messages from the WebSocket connection
func (c *Connection) readPump() {
	defer func() {
		c.Manager.unregisterConnection(c)
		c.Conn.Close()
	}()

	c.Conn.SetReadLimit(c.Manager.config.MaxMessageSize)
	c.Conn.SetReadDeadline(time.Now().Add(c.Manager.config.ReadTimeout))
	c.Conn.SetPongHandler(func(string) error {
		c.Conn.SetReadDeadline(time.Now().Add(c.Manager.config.ReadTimeout))
		c.LastPing = time.Now()
		return nil
	})

	for {
		_, message, err := c.Conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				log.Error().
					Err(err).
					Str("connection_id", c.ID).
					Msg("unexpected WebSocket close error")
			}
			break
		}

		if c.onMessage != nil {
			c.onMessage(c, message)
		}
		c.Conn.SetReadDeadline(time.Now().Add(c.Manager.config.ReadTimeout))
	}
}
