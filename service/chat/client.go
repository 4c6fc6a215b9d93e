package chat

import (
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

// Client represents one live connection on this gateway instance.
// UserID stays empty until auth succeeds; the connection is owned by the
// gateway that accepted it and dies with the transport.
type Client struct {
	ConnID string
	UserID string          // set by the auth handler, before registry insert
	WS     *websocket.Conn // underlying transport
	Send   chan []byte     // outbound queue, drained by a single writer goroutine

	closeOnce sync.Once
}

func NewClient(connID string, ws *websocket.Conn, sendQueueSize int) *Client {
	return &Client{
		ConnID: connID,
		WS:     ws,
		Send:   make(chan []byte, sendQueueSize),
	}
}

// WritePump is the single writer for this connection. It exits when Send is
// closed or a write fails, and closes the transport either way so the read
// loop unblocks.
func (c *Client) WritePump() {
	defer func() { _ = c.WS.Close() }()
	for data := range c.Send {
		if err := c.WS.SetWriteDeadline(time.Now().Add(5 * time.Second)); err != nil {
			return
		}
		if err := c.WS.WriteMessage(websocket.TextMessage, data); err != nil {
			return
		}
	}
}

// Push enqueues a frame without blocking. A slow client whose queue is full
// just misses the frame; a concurrently-closed client is reported as not ok.
func (c *Client) Push(data []byte) (ok bool) {
	defer func() {
		if r := recover(); r != nil {
			ok = false
		}
	}()
	select {
	case c.Send <- data:
		return true
	default:
		return false
	}
}

// Close shuts the send queue exactly once; WritePump then drains what is
// left and closes the websocket.
func (c *Client) Close() {
	c.closeOnce.Do(func() { close(c.Send) })
}
