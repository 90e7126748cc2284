package ws

import (
	"sync"
	"sync/atomic"
	"time"

	"github.com/goccy/go-json"
	"github.com/gorilla/websocket"
)

const (
	writeWait      = 10 * time.Second
	sendBufferSize = 64
)

// clientIDCounter hands out unique ids for connected clients.
var clientIDCounter atomic.Uint64

// Client wraps one WebSocket connection. All writes go through the send
// channel so the write pump is the only goroutine touching the socket's
// write side.
type Client struct {
	id        uint64
	conn      *websocket.Conn
	send      chan Event
	closeOnce sync.Once
}

func NewClient(conn *websocket.Conn) *Client {
	return &Client{
		id:   clientIDCounter.Add(1),
		conn: conn,
		send: make(chan Event, sendBufferSize),
	}
}

func (c *Client) ID() uint64 {
	return c.id
}

// Send queues an event, dropping it when the buffer is full or the client
// is already closed.
func (c *Client) Send(event Event) {
	defer func() {
		// Send on a closed channel loses a race with Remove; the drop is
		// consistent with best-effort delivery.
		recover()
	}()
	select {
	case c.send <- event:
	default:
	}
}

func (c *Client) close() {
	c.closeOnce.Do(func() {
		close(c.send)
	})
}

// WritePump drains the send channel onto the socket until the channel
// closes or a write fails.
func (c *Client) WritePump() {
	defer c.conn.Close()
	for event := range c.send {
		payload, err := json.Marshal(event)
		if err != nil {
			continue
		}
		c.conn.SetWriteDeadline(time.Now().Add(writeWait))
		if err := c.conn.WriteMessage(websocket.TextMessage, payload); err != nil {
			return
		}
	}
	c.conn.WriteMessage(websocket.CloseMessage, []byte{})
}
