package ws

import (
	"log/slog"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

const (
	// Time allowed to write a message to the peer.
	writeWait = 10 * time.Second

	// Time allowed to read the next pong message from the peer.
	pongWait = 60 * time.Second

	// Send pings to peer with this period. Must be less than pongWait.
	pingPeriod = (pongWait * 9) / 10

	// Maximum message size allowed from peer. Update frames carry game
	// state, not media, so 64 KB is generous.
	maxMessageSize = 64 * 1024

	// Outbound buffer depth per connection. A client that cannot drain
	// this many frames starts losing them.
	sendBuffer = 256
)

// Client wraps a single websocket connection. All writes go through the
// send channel and WritePump so that only one goroutine ever writes to
// the underlying connection.
type Client struct {
	conn      *websocket.Conn
	logger    *slog.Logger
	send      chan []byte
	closeOnce sync.Once
	closed    chan struct{}
}

func NewClient(conn *websocket.Conn, logger *slog.Logger) *Client {
	return &Client{
		conn:   conn,
		logger: logger,
		send:   make(chan []byte, sendBuffer),
		closed: make(chan struct{}),
	}
}

// Send queues a frame for delivery. It never blocks: when the client's
// buffer is full or the connection is closing the frame is dropped and
// Send reports false.
func (c *Client) Send(frame []byte) bool {
	select {
	case <-c.closed:
		return false
	default:
	}
	select {
	case c.send <- frame:
		return true
	default:
		return false
	}
}

// Close tears down the connection. A non-empty reason is sent to the
// client in the close frame. Safe to call multiple times and from any
// goroutine.
func (c *Client) Close(reason string) {
	c.closeOnce.Do(func() {
		close(c.closed)
		code := websocket.CloseNormalClosure
		if reason != "" {
			code = websocket.ClosePolicyViolation
		}
		deadline := time.Now().Add(writeWait)
		_ = c.conn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(code, reason), deadline)
		_ = c.conn.Close()
	})
}

// Reject writes a final frame directly and closes the connection. Only
// valid before WritePump has started, for turning away a connection whose
// join was refused.
func (c *Client) Reject(frame []byte, reason string) {
	_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
	if err := c.conn.WriteMessage(websocket.TextMessage, frame); err != nil {
		c.logger.Debug("failed to write rejection frame", slog.Any("error", err))
	}
	c.Close(reason)
}

// ReadPump reads frames from the connection and hands each one to handle.
// It returns when the connection drops or the read deadline lapses. The
// caller runs this in the connection's goroutine; there is at most one
// reader per connection.
func (c *Client) ReadPump(handle func(frame []byte)) {
	defer c.Close("")

	c.conn.SetReadLimit(maxMessageSize)
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, frame, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err,
				websocket.CloseGoingAway, websocket.CloseNormalClosure, websocket.CloseAbnormalClosure) {
				c.logger.Debug("websocket read failed", slog.Any("error", err))
			}
			return
		}
		handle(frame)
	}
}

// WritePump drains the send channel onto the connection and keeps the
// connection alive with pings. A goroutine running WritePump is started
// for each connection; it is the connection's only writer.
func (c *Client) WritePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.Close("")
	}()

	for {
		select {
		case frame := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.TextMessage, frame); err != nil {
				return
			}
		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		case <-c.closed:
			return
		}
	}
}
