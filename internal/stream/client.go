package stream

import (
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

const (
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 512
)

// Client is one connected browser. Its send queue is closed exactly once, by
// the hub.
type Client struct {
	ID      string
	markets map[string]struct{}

	send      chan Message
	closeOnce sync.Once
}

// NewClient creates a client subscribed to markets; no markets means all.
func NewClient(markets []string, buffer int) *Client {
	if buffer <= 0 {
		buffer = 1
	}
	c := &Client{
		ID:      uuid.NewString(),
		markets: make(map[string]struct{}, len(markets)),
		send:    make(chan Message, buffer),
	}
	for _, m := range markets {
		if m = strings.TrimSpace(m); m != "" {
			c.markets[m] = struct{}{}
		}
	}
	return c
}

// ParseMarkets splits a comma-separated markets query value.
func ParseMarkets(s string) []string {
	var out []string
	for _, m := range strings.Split(s, ",") {
		if m = strings.TrimSpace(m); m != "" {
			out = append(out, m)
		}
	}
	return out
}

// Wants reports whether the client subscribed to marketID.
func (c *Client) Wants(marketID string) bool {
	if len(c.markets) == 0 {
		return true
	}
	_, ok := c.markets[marketID]
	return ok
}

// TrySend queues msg without blocking and reports whether it fit. Callers
// must not race it with close; the hub only sends to registered clients.
func (c *Client) TrySend(msg Message) bool {
	select {
	case c.send <- msg:
		return true
	default:
		return false
	}
}

func (c *Client) close() {
	c.closeOnce.Do(func() { close(c.send) })
}

// writePump drains the send queue to conn and pings on an interval. It
// returns when the queue is closed or a write fails.
func (c *Client) writePump(conn *websocket.Conn, writeTimeout time.Duration) {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		_ = conn.Close()
	}()

	for {
		select {
		case msg, ok := <-c.send:
			_ = conn.SetWriteDeadline(time.Now().Add(writeTimeout))
			if !ok {
				_ = conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
				return
			}
			if err := conn.WriteJSON(msg); err != nil {
				return
			}
		case <-ticker.C:
			_ = conn.SetWriteDeadline(time.Now().Add(writeTimeout))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// readPump discards inbound frames and returns when the peer goes away.
func (c *Client) readPump(conn *websocket.Conn) {
	conn.SetReadLimit(maxMessageSize)
	_ = conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(pongWait))
	})
	for {
		if _, _, err := conn.NextReader(); err != nil {
			return
		}
	}
}
