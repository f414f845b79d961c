package ws

import (
	"encoding/json"
	"errors"
	"sync"

	"github.com/gorilla/websocket"
)

var errClientGone = errors.New("client send queue closed or full")

// client wraps one socket with a buffered outbound queue, so senders
// (request handlers, the broadcast bridge) never block on a slow peer.
type client struct {
	conn     *websocket.Conn
	send     chan []byte
	done     chan struct{}
	stopOnce sync.Once
}

func newClient(conn *websocket.Conn) *client {
	return &client{
		conn: conn,
		send: make(chan []byte, 32),
		done: make(chan struct{}),
	}
}

// Send enqueues a raw frame. It fails instead of blocking when the client
// is gone or its queue is full; callers treat that as a dead socket.
func (c *client) Send(msg []byte) error {
	select {
	case <-c.done:
		return errClientGone
	default:
	}
	select {
	case c.send <- msg:
		return nil
	default:
		return errClientGone
	}
}

func (c *client) sendJSON(v any) error {
	msg, err := json.Marshal(v)
	if err != nil {
		return err
	}
	return c.Send(msg)
}

// writeLoop drains the send queue onto the wire. It exits when close is
// called, taking the socket down with it.
func (c *client) writeLoop() {
	for {
		select {
		case <-c.done:
			_ = c.conn.Close()
			return
		case msg := <-c.send:
			if err := c.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
				return
			}
		}
	}
}

func (c *client) close() {
	c.stopOnce.Do(func() { close(c.done) })
}
