package ws

import (
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

var (
	// ErrClosed is returned by Send once the connection is closing.
	ErrClosed = errors.New("ws: connection closed")

	// ErrSendBufferFull is returned by Send when the outgoing queue is full.
	ErrSendBufferFull = errors.New("ws: send buffer full")
)

// Conn is one live relay socket.
type Conn struct {
	id           string
	ws           *websocket.Conn
	send         chan []byte
	done         chan struct{}
	closeOnce    sync.Once
	writeTimeout time.Duration
}

func newConn(id string, ws *websocket.Conn, sendBuf int, writeTimeout time.Duration) *Conn {
	return &Conn{
		id:           id,
		ws:           ws,
		send:         make(chan []byte, sendBuf),
		done:         make(chan struct{}),
		writeTimeout: writeTimeout,
	}
}

// ID returns the connection's opaque identifier.
func (c *Conn) ID() string { return c.id }

// RemoteAddr returns the peer address.
func (c *Conn) RemoteAddr() string { return c.ws.RemoteAddr().String() }

// Send queues data for delivery without blocking.
func (c *Conn) Send(data []byte) error {
	select {
	case <-c.done:
		return ErrClosed
	default:
	}
	select {
	case c.send <- data:
		return nil
	default:
		return ErrSendBufferFull
	}
}

// Ping writes one ping control frame. It is safe to call concurrently with
// the write pump.
func (c *Conn) Ping() error {
	return c.ws.WriteControl(websocket.PingMessage, nil, time.Now().Add(c.writeTimeout))
}

// Close sends a best-effort close frame and closes the socket. Only the
// first call has any effect.
func (c *Conn) Close() error {
	var err error
	c.closeOnce.Do(func() {
		close(c.done)
		msg := websocket.FormatCloseMessage(websocket.CloseNormalClosure, "")
		c.ws.WriteControl(websocket.CloseMessage, msg, time.Now().Add(c.writeTimeout)) //nolint:errcheck
		err = c.ws.Close()
	})
	return err
}

// writePump drains the send queue onto the socket until the connection
// closes. A write error closes the connection.
func (c *Conn) writePump() {
	for {
		select {
		case <-c.done:
			return
		case msg := <-c.send:
			c.ws.SetWriteDeadline(time.Now().Add(c.writeTimeout)) //nolint:errcheck
			if err := c.ws.WriteMessage(websocket.TextMessage, msg); err != nil {
				slog.Debug("ws: write failed, closing", "conn", c.id, "err", err)
				c.Close() //nolint:errcheck
				return
			}
		}
	}
}
