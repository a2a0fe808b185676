// Package ws pushes session events to connected browsers over websockets
package ws

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/alchemorsel/fusionchef/internal/domain/shared"
	"github.com/alchemorsel/fusionchef/internal/ports/outbound"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = (pongWait * 9) / 10
	sendBuffer = 32
)

// Message is sent once right after a client connects
type Message struct {
	Command   string `json:"command"`
	SessionID string `json:"session_id"`
	Timestamp int64  `json:"timestamp"`
}

type client struct {
	conn      *websocket.Conn
	sessionID string
	send      chan []byte

	mu     sync.Mutex
	closed bool
}

// trySend queues a message without blocking. False means the client is gone or
// too slow to keep up.
func (c *client) trySend(msg []byte) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return false
	}
	select {
	case c.send <- msg:
		return true
	default:
		return false
	}
}

func (c *client) close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return
	}
	c.closed = true
	close(c.send)
	_ = c.conn.Close()
}

// Hub tracks the connections of every session and fans events out to them
type Hub struct {
	upgrader websocket.Upgrader
	logger   *zap.Logger

	mutex    sync.RWMutex
	sessions map[string]map[*client]struct{}
	closed   bool
}

var _ outbound.EventPublisher = (*Hub)(nil)

// NewHub creates a hub. An empty origin list accepts any origin.
func NewHub(allowedOrigins []string, logger *zap.Logger) *Hub {
	allowed := make(map[string]struct{}, len(allowedOrigins))
	allowAll := len(allowedOrigins) == 0
	for _, o := range allowedOrigins {
		if o == "*" {
			allowAll = true
		}
		allowed[o] = struct{}{}
	}

	return &Hub{
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool {
				origin := r.Header.Get("Origin")
				if allowAll || origin == "" {
					return true
				}
				_, ok := allowed[origin]
				return ok
			},
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
		},
		logger:   logger.Named("ws"),
		sessions: make(map[string]map[*client]struct{}),
	}
}

// Publish sends the event to every connection of the session. Sessions without
// listeners are skipped silently.
func (h *Hub) Publish(ctx context.Context, sessionID string, event shared.DomainEvent) error {
	payload, err := json.Marshal(shared.Wrap(sessionID, event))
	if err != nil {
		return err
	}

	h.mutex.RLock()
	targets := make([]*client, 0, len(h.sessions[sessionID]))
	for c := range h.sessions[sessionID] {
		targets = append(targets, c)
	}
	h.mutex.RUnlock()

	for _, c := range targets {
		if !c.trySend(payload) {
			h.logger.Warn("Dropping slow websocket client", zap.String("session_id", sessionID))
			h.unregister(c)
		}
	}
	return nil
}

// ServeSession upgrades the request and streams the session's events until the
// client goes away. The caller has already checked that the session exists.
func (h *Hub) ServeSession(w http.ResponseWriter, r *http.Request, sessionID string) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Warn("WebSocket upgrade failed", zap.Error(err))
		return
	}

	c := &client{conn: conn, sessionID: sessionID, send: make(chan []byte, sendBuffer)}
	if !h.register(c) {
		_ = conn.WriteMessage(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseGoingAway, "shutting down"))
		_ = conn.Close()
		return
	}

	hello, _ := json.Marshal(Message{Command: "hello", SessionID: sessionID, Timestamp: time.Now().Unix()})
	c.trySend(hello)

	go h.writePump(c)
	h.readPump(c)
}

// Clients returns the number of connections of a session
func (h *Hub) Clients(sessionID string) int {
	h.mutex.RLock()
	defer h.mutex.RUnlock()
	return len(h.sessions[sessionID])
}

// Disconnect closes every connection of a session
func (h *Hub) Disconnect(sessionID string) {
	h.mutex.RLock()
	targets := make([]*client, 0, len(h.sessions[sessionID]))
	for c := range h.sessions[sessionID] {
		targets = append(targets, c)
	}
	h.mutex.RUnlock()

	for _, c := range targets {
		h.unregister(c)
	}
}

// Close disconnects everyone and refuses new connections
func (h *Hub) Close() error {
	h.mutex.Lock()
	h.closed = true
	var all []*client
	for _, set := range h.sessions {
		for c := range set {
			all = append(all, c)
		}
	}
	h.mutex.Unlock()

	for _, c := range all {
		h.unregister(c)
	}
	return nil
}

func (h *Hub) register(c *client) bool {
	h.mutex.Lock()
	defer h.mutex.Unlock()
	if h.closed {
		return false
	}
	set, ok := h.sessions[c.sessionID]
	if !ok {
		set = make(map[*client]struct{})
		h.sessions[c.sessionID] = set
	}
	set[c] = struct{}{}
	h.logger.Debug("WebSocket client connected",
		zap.String("session_id", c.sessionID), zap.Int("total", len(set)))
	return true
}

func (h *Hub) unregister(c *client) {
	h.mutex.Lock()
	if set, ok := h.sessions[c.sessionID]; ok {
		delete(set, c)
		if len(set) == 0 {
			delete(h.sessions, c.sessionID)
		}
	}
	h.mutex.Unlock()

	c.close()
}

// readPump only watches for disconnects; clients never send commands here
func (h *Hub) readPump(c *client) {
	defer h.unregister(c)

	c.conn.SetReadLimit(512)
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				h.logger.Debug("WebSocket read error", zap.Error(err))
			}
			return
		}
	}
}

func (h *Hub) writePump(c *client) {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		h.unregister(c)
	}()

	for {
		select {
		case msg, ok := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
				return
			}
		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
