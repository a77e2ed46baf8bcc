package ws

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

const (
	// DefaultWSURL is the default WebSocket URL for the CLOB market feed.
	DefaultWSURL = "wss://ws-subscriptions-clob.polymarket.com/ws/market"

	// Default reconnection parameters
	defaultInitialBackoff = 1 * time.Second
	defaultMaxBackoff     = 30 * time.Second
	defaultBackoffFactor  = 2.0

	// The feed drops idle connections; a text PING keeps them open.
	pingInterval = 10 * time.Second
	writeTimeout = 5 * time.Second
)

var errClosed = errors.New("client closed")

// MessageHandler is a callback function for handling parsed WebSocket messages.
type MessageHandler func(messages []Message)

// ReconnectConfig configures the reconnection behavior.
type ReconnectConfig struct {
	InitialBackoff time.Duration
	MaxBackoff     time.Duration
	BackoffFactor  float64
	MaxRetries     int // 0 = infinite
}

// DefaultReconnectConfig returns the default reconnection configuration.
func DefaultReconnectConfig() ReconnectConfig {
	return ReconnectConfig{
		InitialBackoff: defaultInitialBackoff,
		MaxBackoff:     defaultMaxBackoff,
		BackoffFactor:  defaultBackoffFactor,
		MaxRetries:     0,
	}
}

// Client is a WebSocket client for the Polymarket CLOB market feed.
type Client struct {
	url             string
	handler         MessageHandler
	reconnectConfig ReconnectConfig
	log             *logrus.Entry

	mu          sync.Mutex
	writeMu     sync.Mutex
	conn        *websocket.Conn
	tokenIDs    []string
	isConnected bool
	closed      bool
	closeCh     chan struct{}
	closeOnce   sync.Once
	wg          sync.WaitGroup
}

// NewClient creates a new WebSocket client.
func NewClient(handler MessageHandler) *Client {
	return &Client{
		url:             DefaultWSURL,
		handler:         handler,
		reconnectConfig: DefaultReconnectConfig(),
		log:             logrus.WithField("component", "ws"),
		closeCh:         make(chan struct{}),
	}
}

// WithURL sets a custom WebSocket URL.
func (c *Client) WithURL(url string) *Client {
	c.url = url
	return c
}

// WithReconnectConfig sets the reconnection configuration.
func (c *Client) WithReconnectConfig(config ReconnectConfig) *Client {
	c.reconnectConfig = config
	return c
}

// WithLogger sets the logger used for connection events.
func (c *Client) WithLogger(log *logrus.Entry) *Client {
	c.log = log
	return c
}

// Connect establishes the WebSocket connection and starts the read loop.
// The loop and its reconnects stop when ctx is cancelled or Close is called.
// A closed client cannot be reconnected.
func (c *Client) Connect(ctx context.Context) error {
	c.mu.Lock()
	if c.isConnected {
		c.mu.Unlock()
		return nil
	}
	c.mu.Unlock()

	return c.connectWithBackoff(ctx)
}

func (c *Client) connectWithBackoff(ctx context.Context) error {
	backoff := c.reconnectConfig.InitialBackoff
	retries := 0

	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		select {
		case <-c.closeCh:
			return errClosed
		default:
		}

		conn, _, err := websocket.DefaultDialer.DialContext(ctx, c.url, nil)
		if err == nil {
			c.mu.Lock()
			if c.closed {
				c.mu.Unlock()
				_ = conn.Close()
				return errClosed
			}
			c.conn = conn
			c.isConnected = true
			tokenIDs := c.tokenIDs
			c.mu.Unlock()

			if len(tokenIDs) > 0 {
				if err := c.sendSubscribe(tokenIDs); err != nil {
					c.log.WithError(err).Warn("failed to resubscribe")
				}
			}

			done := make(chan struct{})
			c.wg.Add(2)
			go c.readLoop(ctx, conn, done)
			go c.pingLoop(ctx, conn, done)
			return nil
		}

		retries++
		if c.reconnectConfig.MaxRetries > 0 && retries >= c.reconnectConfig.MaxRetries {
			return errors.Wrapf(err, "max retries (%d) exceeded", c.reconnectConfig.MaxRetries)
		}

		c.log.WithError(err).WithFields(logrus.Fields{
			"attempt": retries,
			"backoff": backoff,
		}).Warn("websocket connection failed, retrying")

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-c.closeCh:
			return errClosed
		case <-time.After(backoff):
		}

		backoff = time.Duration(float64(backoff) * c.reconnectConfig.BackoffFactor)
		if backoff > c.reconnectConfig.MaxBackoff {
			backoff = c.reconnectConfig.MaxBackoff
		}
	}
}

// Subscribe subscribes to updates for the given token IDs.
func (c *Client) Subscribe(tokenIDs []string) error {
	c.mu.Lock()
	c.tokenIDs = append([]string(nil), tokenIDs...)
	c.mu.Unlock()

	return c.sendSubscribe(tokenIDs)
}

func (c *Client) sendSubscribe(tokenIDs []string) error {
	data, err := json.Marshal(SubscribeMessage{AssetsIDs: tokenIDs, Type: "market"})
	if err != nil {
		return errors.Wrap(err, "marshaling subscribe message")
	}
	return errors.Wrap(c.write(websocket.TextMessage, data), "writing subscribe message")
}

func (c *Client) write(messageType int, data []byte) error {
	c.mu.Lock()
	conn := c.conn
	c.mu.Unlock()

	if conn == nil {
		return errors.New("not connected")
	}

	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	_ = conn.SetWriteDeadline(time.Now().Add(writeTimeout))
	return conn.WriteMessage(messageType, data)
}

func (c *Client) pingLoop(ctx context.Context, conn *websocket.Conn, done <-chan struct{}) {
	defer c.wg.Done()

	ticker := time.NewTicker(pingInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-done:
			return
		case <-ticker.C:
			if err := c.write(websocket.TextMessage, []byte("PING")); err != nil {
				c.log.WithError(err).Debug("ping failed")
				return
			}
		}
	}
}

func (c *Client) readLoop(ctx context.Context, conn *websocket.Conn, done chan<- struct{}) {
	defer c.wg.Done()
	defer close(done)

	stop := context.AfterFunc(ctx, func() { _ = conn.Close() })
	defer stop()

	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			c.mu.Lock()
			c.isConnected = false
			closed := c.closed
			if c.conn == conn {
				c.conn = nil
			}
			c.mu.Unlock()

			if closed || ctx.Err() != nil {
				return
			}
			if websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				c.log.Info("websocket closed normally")
				return
			}

			c.log.WithError(err).Warn("websocket read error, reconnecting")

			c.wg.Add(1)
			go func() {
				defer c.wg.Done()
				if reconnErr := c.connectWithBackoff(ctx); reconnErr != nil && ctx.Err() == nil && !errors.Is(reconnErr, errClosed) {
					c.log.WithError(reconnErr).Error("reconnection failed")
				}
			}()
			return
		}

		messages, err := Parse(data)
		if err != nil {
			c.log.WithError(err).Warn("error parsing websocket message")
			continue
		}

		if c.handler != nil && len(messages) > 0 {
			c.handler(messages)
		}
	}
}

// Close closes the WebSocket connection and waits for the background
// goroutines to exit.
func (c *Client) Close() error {
	c.closeOnce.Do(func() { close(c.closeCh) })

	c.mu.Lock()
	c.closed = true
	c.isConnected = false
	conn := c.conn
	c.conn = nil
	c.mu.Unlock()

	var err error
	if conn != nil {
		err = conn.Close()
	}
	c.wg.Wait()
	return err
}

// IsConnected returns whether the client is currently connected.
func (c *Client) IsConnected() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.isConnected
}
