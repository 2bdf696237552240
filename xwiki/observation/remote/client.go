package remote

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

// ErrClientClosed is returned when sending through a closed client.
var ErrClientClosed = errors.New("remote client closed")

// Adapter moves envelopes between nodes.
type Adapter interface {
	Send(ctx context.Context, ed EventData) error
	// Receive returns the envelopes sent by other nodes. The channel is
	// closed when the adapter stops.
	Receive() <-chan EventData
	Close() error
}

// ClientOption configures a Client.
type ClientOption func(*Client)

// WithClientLogger sets the client logger.
func WithClientLogger(logger *slog.Logger) ClientOption {
	return func(c *Client) {
		c.logger = logger
	}
}

// WithDialer replaces websocket.DefaultDialer.
func WithDialer(d *websocket.Dialer) ClientOption {
	return func(c *Client) {
		c.dialer = d
	}
}

// Client is the websocket Adapter connecting a node to a Hub.
type Client struct {
	dialer *websocket.Dialer
	logger *slog.Logger
	conn   *websocket.Conn

	send chan []byte
	recv chan EventData
	done chan struct{}

	closeOnce sync.Once
	writer    sync.WaitGroup
}

// Dial connects to the hub at url, e.g. "ws://localhost:8090/events".
func Dial(ctx context.Context, url string, opts ...ClientOption) (*Client, error) {
	c := &Client{
		dialer: websocket.DefaultDialer,
		send:   make(chan []byte, sendBuffer),
		recv:   make(chan EventData, sendBuffer),
		done:   make(chan struct{}),
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.logger == nil {
		c.logger = slog.Default()
	}
	c.logger = c.logger.With("logger", "remote.client", "hub", url)

	conn, res, err := c.dialer.DialContext(ctx, url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to %s: %w", url, err)
	}
	if res != nil && res.Body != nil {
		_ = res.Body.Close()
	}
	c.conn = conn
	c.logger.Info("connected to hub")

	c.writer.Add(1)
	go c.writePump()
	go c.readPump()
	return c, nil
}

func (c *Client) Send(ctx context.Context, ed EventData) error {
	msg, err := json.Marshal(ed)
	if err != nil {
		return fmt.Errorf("failed to encode event %s: %w", ed.ID, err)
	}
	select {
	case <-c.done:
		return ErrClientClosed
	default:
	}
	select {
	case c.send <- msg:
		return nil
	case <-c.done:
		return ErrClientClosed
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (c *Client) Receive() <-chan EventData {
	return c.recv
}

// Close sends a close frame and releases the connection.
func (c *Client) Close() error {
	c.closeOnce.Do(func() { close(c.done) })
	c.writer.Wait()
	return nil
}

func (c *Client) readPump() {
	defer close(c.recv)
	c.conn.SetReadLimit(maxMessageSize)
	for {
		_, msg, err := c.conn.ReadMessage()
		if err != nil {
			select {
			case <-c.done:
			default:
				c.logger.Warn("connection to hub lost", "error", err)
				c.closeOnce.Do(func() { close(c.done) })
			}
			return
		}
		var ed EventData
		if err := json.Unmarshal(msg, &ed); err != nil {
			c.logger.Warn("dropping undecodable message", "error", err)
			continue
		}
		select {
		case c.recv <- ed:
		case <-c.done:
			return
		}
	}
}

func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		_ = c.conn.Close()
		c.writer.Done()
	}()

	for {
		select {
		case msg := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
				c.logger.Warn("failed to write to hub", "error", err)
				c.closeOnce.Do(func() { close(c.done) })
				return
			}
		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				c.closeOnce.Do(func() { close(c.done) })
				return
			}
		case <-c.done:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			_ = c.conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
			return
		}
	}
}
