package ws

import (
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

const (
	writeTimeout = 10 * time.Second
	pingInterval = 54 * time.Second
	readTimeout  = 60 * time.Second
	sendBuffer   = 256
)

var errSendBufferFull = errors.New("send buffer full")

// client wraps one websocket connection behind the chat.Conn contract.
// Frames are JSON-encoded and queued on a buffered channel drained by a
// single write pump, so Send never blocks the event path: a full buffer is
// a delivery failure the relay is allowed to ignore.
type client struct {
	conn     *websocket.Conn
	peerAddr string
	sendCh   chan []byte

	mu          sync.Mutex
	closed      bool
	closeCode   int
	closeReason string
}

func newClient(conn *websocket.Conn, peerAddr string) *client {
	c := &client{
		conn:     conn,
		peerAddr: peerAddr,
		sendCh:   make(chan []byte, sendBuffer),
	}

	go c.writePump()
	return c
}

// Send queues one frame for delivery. Best effort: a closed connection or
// a full buffer yields an error and the frame is gone.
func (c *client) Send(frame any) error {
	data, err := json.Marshal(frame)
	if err != nil {
		return fmt.Errorf("failed to encode frame: %w", err)
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return errors.New("connection is closed")
	}

	select {
	case c.sendCh <- data:
		return nil
	default:
		return errSendBufferFull
	}
}

// Close shuts the connection down. Frames already queued are still
// flushed by the write pump before the close handshake. Safe to call more
// than once.
func (c *client) Close() error {
	return c.closeWithCode(websocket.CloseNormalClosure, "")
}

func (c *client) closeWithCode(code int, reason string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return nil
	}
	c.closed = true
	c.closeCode = code
	c.closeReason = reason

	// The write pump drains what is left, sends the close frame and
	// closes the underlying connection.
	close(c.sendCh)
	return nil
}

// PeerAddr returns the remote address used for rate limiting and bans.
func (c *client) PeerAddr() string {
	return c.peerAddr
}

// writePump owns all writes to the underlying connection, including the
// keepalive pings and the final close handshake.
func (c *client) writePump() {
	ticker := time.NewTicker(pingInterval)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.sendCh:
			c.conn.SetWriteDeadline(time.Now().Add(writeTimeout))
			if !ok {
				c.mu.Lock()
				code, reason := c.closeCode, c.closeReason
				c.mu.Unlock()
				c.conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(code, reason))
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
				return
			}

		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeTimeout))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
