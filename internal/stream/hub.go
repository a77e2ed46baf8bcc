// Package stream pushes live quote updates to browser websocket clients.
package stream

import (
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/johan/sads-console/internal/quotes"
)

// MessageTypeQuote is the type of a quote update frame.
const MessageTypeQuote = "quote"

// Message is one server-to-client frame.
type Message struct {
	Type      string      `json:"type"`
	Payload   interface{} `json:"payload"`
	Timestamp time.Time   `json:"timestamp"`
}

// Hub tracks connected clients and fans quotes out to them. Clients whose
// send buffer is full are disconnected rather than waited on.
type Hub struct {
	mu      sync.RWMutex
	clients map[*Client]struct{}
	closed  bool

	now    func() time.Time
	logger *logrus.Entry
}

// NewHub creates an empty hub.
func NewHub() *Hub {
	return &Hub{
		clients: make(map[*Client]struct{}),
		now:     time.Now,
		logger:  logrus.WithField("component", "stream"),
	}
}

// Register adds a client. It returns false once the hub is closed.
func (h *Hub) Register(c *Client) bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return false
	}
	h.clients[c] = struct{}{}
	h.logger.WithFields(logrus.Fields{"client": c.ID, "total": len(h.clients)}).Debug("Client connected")
	return true
}

// Unregister removes a client and closes its send queue. Safe to call twice.
func (h *Hub) Unregister(c *Client) {
	h.mu.Lock()
	_, ok := h.clients[c]
	delete(h.clients, c)
	total := len(h.clients)
	h.mu.Unlock()

	c.close()
	if ok {
		h.logger.WithFields(logrus.Fields{"client": c.ID, "total": total}).Debug("Client disconnected")
	}
}

// Publish sends q to every client subscribed to its market.
func (h *Hub) Publish(q quotes.Quote) {
	msg := Message{Type: MessageTypeQuote, Payload: q, Timestamp: h.now().UTC()}

	h.mu.RLock()
	var slow []*Client
	for c := range h.clients {
		if !c.Wants(q.MarketID) {
			continue
		}
		if !c.TrySend(msg) {
			slow = append(slow, c)
		}
	}
	h.mu.RUnlock()

	for _, c := range slow {
		h.logger.WithField("client", c.ID).Warn("Client buffer full, disconnecting")
		h.Unregister(c)
	}
}

// Len returns the number of connected clients.
func (h *Hub) Len() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// Close disconnects every client and rejects new ones.
func (h *Hub) Close() {
	h.mu.Lock()
	h.closed = true
	clients := h.clients
	h.clients = make(map[*Client]struct{})
	h.mu.Unlock()

	for c := range clients {
		c.close()
	}
}
