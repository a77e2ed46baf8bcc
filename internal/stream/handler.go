package stream

import (
	"net/http"
	"sort"
	"time"

	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"

	"github.com/johan/sads-console/internal/quotes"
)

// Handler upgrades GET /api/stream?markets=a,b and attaches the connection to
// the hub. The current quote of each subscribed market is sent first.
type Handler struct {
	hub          *Hub
	store        *quotes.Store
	upgrader     websocket.Upgrader
	sendBuffer   int
	writeTimeout time.Duration
	logger       *logrus.Entry
}

// NewHandler creates the upgrade handler. checkOrigin may be nil to accept
// any origin.
func NewHandler(hub *Hub, store *quotes.Store, sendBuffer int, writeTimeout time.Duration, checkOrigin func(*http.Request) bool) *Handler {
	if checkOrigin == nil {
		checkOrigin = func(*http.Request) bool { return true }
	}
	if writeTimeout <= 0 {
		writeTimeout = 5 * time.Second
	}
	return &Handler{
		hub:   hub,
		store: store,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     checkOrigin,
		},
		sendBuffer:   sendBuffer,
		writeTimeout: writeTimeout,
		logger:       logrus.WithField("component", "stream"),
	}
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.WithError(err).Debug("Upgrade failed")
		return
	}

	buffer := h.sendBuffer
	if h.store != nil {
		buffer += h.store.Len()
	}
	c := NewClient(ParseMarkets(r.URL.Query().Get("markets")), buffer)
	h.sendSnapshot(c)

	if !h.hub.Register(c) {
		_ = conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseGoingAway, "shutting down"))
		_ = conn.Close()
		return
	}

	done := make(chan struct{})
	go func() {
		defer close(done)
		c.writePump(conn, h.writeTimeout)
	}()

	c.readPump(conn)
	h.hub.Unregister(c)
	<-done
}

func (h *Handler) sendSnapshot(c *Client) {
	if h.store == nil {
		return
	}
	snap := h.store.Snapshot()
	ids := make([]string, 0, len(snap))
	for id := range snap {
		if c.Wants(id) {
			ids = append(ids, id)
		}
	}
	sort.Strings(ids)

	now := time.Now().UTC()
	for _, id := range ids {
		if !c.TrySend(Message{Type: MessageTypeQuote, Payload: snap[id], Timestamp: now}) {
			return
		}
	}
}
