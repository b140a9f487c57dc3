// Package ws streams lifecycle events to connected passengers and drivers.
package ws

import (
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 512
	sendBuffer     = 64
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

// Hub tracks websocket clients by subscriber ID (a passenger or driver ID).
type Hub struct {
	logger *zap.Logger

	mu      sync.RWMutex
	clients map[string]map[*client]struct{}
}

// NewHub creates an empty hub.
func NewHub(logger *zap.Logger) *Hub {
	return &Hub{
		logger:  logger,
		clients: make(map[string]map[*client]struct{}),
	}
}

type client struct {
	conn *websocket.Conn
	send chan []byte
	once sync.Once
}

func (c *client) close() {
	c.once.Do(func() { close(c.send) })
}

// Serve upgrades the request and streams events for subscriberID until the client disconnects.
func (h *Hub) Serve(w http.ResponseWriter, r *http.Request, subscriberID string) error {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		return err
	}

	c := &client{conn: conn, send: make(chan []byte, sendBuffer)}
	h.register(subscriberID, c)
	h.logger.Debug("websocket client connected", zap.String("subscriber_id", subscriberID))

	go h.writePump(c)
	h.readPump(subscriberID, c)
	return nil
}

// Send delivers v to every connection of subscriberID. Slow clients drop messages.
func (h *Hub) Send(subscriberID string, v any) int {
	if subscriberID == "" {
		return 0
	}
	data, err := json.Marshal(v)
	if err != nil {
		h.logger.Error("failed to encode websocket message", zap.Error(err))
		return 0
	}

	h.mu.RLock()
	defer h.mu.RUnlock()

	delivered := 0
	for c := range h.clients[subscriberID] {
		select {
		case c.send <- data:
			delivered++
		default:
			h.logger.Warn("websocket send buffer full, dropping message", zap.String("subscriber_id", subscriberID))
		}
	}
	return delivered
}

// Connections returns how many connections subscriberID has open.
func (h *Hub) Connections(subscriberID string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients[subscriberID])
}

func (h *Hub) register(subscriberID string, c *client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	set, ok := h.clients[subscriberID]
	if !ok {
		set = make(map[*client]struct{})
		h.clients[subscriberID] = set
	}
	set[c] = struct{}{}
}

func (h *Hub) unregister(subscriberID string, c *client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if set, ok := h.clients[subscriberID]; ok {
		delete(set, c)
		if len(set) == 0 {
			delete(h.clients, subscriberID)
		}
	}
	c.close()
}

// readPump discards inbound messages; it exists to process control frames and detect disconnects.
func (h *Hub) readPump(subscriberID string, c *client) {
	defer func() {
		h.unregister(subscriberID, c)
		c.conn.Close()
	}()

	c.conn.SetReadLimit(maxMessageSize)
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				h.logger.Warn("websocket read error", zap.String("subscriber_id", subscriberID), zap.Error(err))
			}
			return
		}
	}
}

func (h *Hub) writePump(c *client) {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
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
