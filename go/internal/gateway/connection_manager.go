package gateway

import (
	"context"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/jonboulle/clockwork"
	"github.com/mcdev12/seatcheck/go/internal/models"
	"github.com/rs/zerolog/log"
)

// ConnectionKind is the transport a viewer session uses
type ConnectionKind string

const (
	KindWebSocket ConnectionKind = "websocket"
	KindSSE       ConnectionKind = "sse"
)

// ConnectionManager tracks connected viewer sessions and pushes roster snapshots to them
type ConnectionManager struct {
	connections map[*Connection]bool
	mu          sync.RWMutex

	// Upgrader for WebSocket connections
	upgrader websocket.Upgrader

	config ConnectionConfig
	clock  clockwork.Clock
}

// Connection is one viewer session. A session only ever moves from connected to disconnected.
type Connection struct {
	ID         string
	Kind       ConnectionKind
	RemoteAddr string
	Conn       *websocket.Conn // nil for SSE sessions
	Send       chan outbound
	Manager    *ConnectionManager

	ConnectedAt time.Time
}

// ConnectionConfig holds configuration for viewer sessions
type ConnectionConfig struct {
	WriteTimeout    time.Duration
	ReadTimeout     time.Duration
	PingInterval    time.Duration
	MaxMessageSize  int64
	ReadBufferSize  int
	WriteBufferSize int
	SendBufferSize  int
	CheckOrigin     func(r *http.Request) bool
}

// DefaultConnectionConfig returns default session configuration
func DefaultConnectionConfig() ConnectionConfig {
	return ConnectionConfig{
		WriteTimeout:    10 * time.Second,
		ReadTimeout:     60 * time.Second,
		PingInterval:    30 * time.Second,
		MaxMessageSize:  1024, // viewers have nothing to say
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		SendBufferSize:  64,
		CheckOrigin: func(r *http.Request) bool {
			return true
		},
	}
}

// NewConnectionManager creates a new session manager
func NewConnectionManager(config ConnectionConfig, clock clockwork.Clock) *ConnectionManager {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	if config.SendBufferSize <= 0 {
		config.SendBufferSize = 1
	}
	if config.PingInterval <= 0 {
		config.PingInterval = DefaultConnectionConfig().PingInterval
	}
	return &ConnectionManager{
		connections: make(map[*Connection]bool),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  config.ReadBufferSize,
			WriteBufferSize: config.WriteBufferSize,
			CheckOrigin:     config.CheckOrigin,
		},
		config: config,
		clock:  clock,
	}
}

func (cm *ConnectionManager) newConnection(kind ConnectionKind, r *http.Request) *Connection {
	return &Connection{
		ID:          uuid.New().String(),
		Kind:        kind,
		RemoteAddr:  r.RemoteAddr,
		Send:        make(chan outbound, cm.config.SendBufferSize),
		Manager:     cm,
		ConnectedAt: cm.clock.Now(),
	}
}

// UpgradeConnection upgrades an HTTP connection to WebSocket and registers the session.
// No backlog is replayed; viewers fetch the current roster separately.
func (cm *ConnectionManager) UpgradeConnection(w http.ResponseWriter, r *http.Request) error {
	conn, err := cm.upgrader.Upgrade(w, r, nil)
	if err != nil {
		return fmt.Errorf("failed to upgrade connection: %w", err)
	}

	connection := cm.newConnection(KindWebSocket, r)
	connection.Conn = conn

	cm.registerConnection(connection)

	go connection.writePump()
	go connection.readPump()

	log.Info().
		Str("connection_id", connection.ID).
		Str("remote_addr", connection.RemoteAddr).
		Msg("WebSocket connection established")

	return nil
}

// ServeSSE streams roster snapshots as server-sent events until the client goes away
func (cm *ConnectionManager) ServeSSE(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "streaming unsupported", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)
	flusher.Flush()

	connection := cm.newConnection(KindSSE, r)
	cm.registerConnection(connection)
	defer cm.unregisterConnection(connection)

	log.Info().
		Str("connection_id", connection.ID).
		Str("remote_addr", connection.RemoteAddr).
		Msg("SSE connection established")

	ticker := cm.clock.NewTicker(cm.config.PingInterval)
	defer ticker.Stop()

	for {
		select {
		case <-r.Context().Done():
			return
		case message, ok := <-connection.Send:
			if !ok {
				return
			}
			if _, err := fmt.Fprintf(w, "event: %s\ndata: %s\n\n", message.event, message.data); err != nil {
				log.Warn().Err(err).Str("connection_id", connection.ID).Msg("failed to write SSE event")
				return
			}
			flusher.Flush()
		case <-ticker.Chan():
			if _, err := fmt.Fprint(w, ": ping\n\n"); err != nil {
				return
			}
			flusher.Flush()
		}
	}
}

// registerConnection adds a connection to the manager
func (cm *ConnectionManager) registerConnection(conn *Connection) {
	cm.mu.Lock()
	defer cm.mu.Unlock()

	cm.connections[conn] = true

	log.Debug().
		Str("connection_id", conn.ID).
		Str("kind", string(conn.Kind)).
		Int("sessions", len(cm.connections)).
		Msg("connection registered")
}

// unregisterConnection removes a connection from the manager. Safe to call more than once.
func (cm *ConnectionManager) unregisterConnection(conn *Connection) {
	cm.mu.Lock()
	defer cm.mu.Unlock()

	if _, exists := cm.connections[conn]; !exists {
		return
	}
	delete(cm.connections, conn)
	close(conn.Send)

	log.Info().
		Str("connection_id", conn.ID).
		Str("kind", string(conn.Kind)).
		Int("sessions", len(cm.connections)).
		Msg("connection unregistered")
}

// dropConnection disconnects a session that cannot keep up
func (cm *ConnectionManager) dropConnection(conn *Connection) {
	cm.unregisterConnection(conn)
	if conn.Conn != nil {
		conn.Conn.Close()
	}
}

// PublishSeats sends a seatsUpdated event to every connected session.
// Sends never block: a session whose buffer is full is disconnected instead.
func (cm *ConnectionManager) PublishSeats(ctx context.Context, roster models.Roster) {
	message, err := encodeEvent(NewSeatsUpdatedEvent(roster, cm.clock.Now()))
	if err != nil {
		log.Error().Err(err).Msg("failed to encode seats event for broadcast")
		return
	}

	// Sends happen under the read lock so no channel can be closed mid-send
	var slow []*Connection
	cm.mu.RLock()
	sessions := len(cm.connections)
	for conn := range cm.connections {
		select {
		case conn.Send <- message:
		default:
			slow = append(slow, conn)
		}
	}
	cm.mu.RUnlock()

	for _, conn := range slow {
		log.Warn().
			Str("connection_id", conn.ID).
			Str("kind", string(conn.Kind)).
			Msg("connection send buffer full, closing connection")
		cm.dropConnection(conn)
	}

	log.Debug().
		Str("event_type", string(message.event)).
		Int("sessions", sessions).
		Int("dropped", len(slow)).
		Msg("event broadcasted")
}

// ConnectionCount returns the number of connected sessions
func (cm *ConnectionManager) ConnectionCount() int {
	cm.mu.RLock()
	defer cm.mu.RUnlock()
	return len(cm.connections)
}

// CloseAll disconnects every session
func (cm *ConnectionManager) CloseAll() {
	cm.mu.RLock()
	conns := make([]*Connection, 0, len(cm.connections))
	for conn := range cm.connections {
		conns = append(conns, conn)
	}
	cm.mu.RUnlock()

	for _, conn := range conns {
		cm.dropConnection(conn)
	}
}

// writePump handles sending messages to the WebSocket connection
func (c *Connection) writePump() {
	ticker := c.Manager.clock.NewTicker(c.Manager.config.PingInterval)
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

			if err := c.Conn.WriteMessage(websocket.TextMessage, message.message); err != nil {
				log.Warn().
					Err(err).
					Str("connection_id", c.ID).
					Msg("failed to write message to WebSocket")
				return
			}

		case <-ticker.Chan():
			c.Conn.SetWriteDeadline(time.Now().Add(c.Manager.config.WriteTimeout))
			if err := c.Conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				log.Debug().
					Err(err).
					Str("connection_id", c.ID).
					Msg("failed to send ping")
				return
			}
		}
	}
}

// readPump watches the WebSocket for disconnects; viewers have no commands to send
func (c *Connection) readPump() {
	defer func() {
		c.Manager.unregisterConnection(c)
		c.Conn.Close()
	}()

	c.Conn.SetReadLimit(c.Manager.config.MaxMessageSize)
	c.Conn.SetReadDeadline(time.Now().Add(c.Manager.config.ReadTimeout))
	c.Conn.SetPongHandler(func(string) error {
		c.Conn.SetReadDeadline(time.Now().Add(c.Manager.config.ReadTimeout))
		return nil
	})

	for {
		_, message, err := c.Conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure, websocket.CloseNormalClosure) {
				log.Warn().
					Err(err).
					Str("connection_id", c.ID).
					Msg("unexpected WebSocket close error")
			}
			break
		}

		log.Debug().
			Str("connection_id", c.ID).
			Int("size", len(message)).
			Msg("ignoring client message")
		c.Conn.SetReadDeadline(time.Now().Add(c.Manager.config.ReadTimeout))
	}
}
