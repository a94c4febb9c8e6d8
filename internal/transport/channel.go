// Package transport provides the persistent WebSocket channel carrying
// id-tagged JSON messages between a client and its signaling server.
package transport

import (
	"context"
	"fmt"
	"sync"

	"github.com/gorilla/websocket"

	"github.com/upf-gti/admire-sub000/internal/protocol"
	"github.com/upf-gti/admire-sub000/internal/util"
)

// Channel wraps a single WebSocket connection. Messages are delivered to the
// OnMessage callback strictly in arrival order from one reader goroutine;
// writes are serialized by a mutex. A Channel is single-use: once closed it
// cannot be reopened, reconnecting requires a fresh Dial.
type Channel struct {
	conn *websocket.Conn

	mu   sync.Mutex // guards writes and the open flag
	open bool

	onMessage func(*protocol.Message)
	onClose   func(error)
	closeOnce sync.Once
}

// Dial connects to the given WebSocket URL. The returned Channel does not
// read until Listen is called, so callbacks can be registered first.
func Dial(ctx context.Context, url string) (*Channel, error) {
	conn, _, err := websocket.DefaultDialer.DialContext(ctx, url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to %s: %w", url, err)
	}
	return &Channel{conn: conn, open: true}, nil
}

// OnMessage registers the callback invoked for every decoded inbound message.
// Must be set before Listen.
func (c *Channel) OnMessage(fn func(*protocol.Message)) {
	c.onMessage = fn
}

// OnClose registers the callback invoked exactly once when the channel closes,
// with the read error that ended the loop (nil on local Close).
func (c *Channel) OnClose(fn func(error)) {
	c.onClose = fn
}

// Listen starts the reader goroutine. Undecodable frames are logged and
// skipped; a read error terminates the loop and fires OnClose.
func (c *Channel) Listen() {
	go func() {
		for {
			_, data, err := c.conn.ReadMessage()
			if err != nil {
				c.shutdown(err)
				return
			}
			msg, err := protocol.Decode(data)
			if err != nil {
				util.LogWarning("failed to decode message: %v", err)
				continue
			}
			util.Stats.AddRecv()
			if c.onMessage != nil {
				c.onMessage(msg)
			}
		}
	}()
}

// Send writes one message to the channel. When the channel is not open the
// message is dropped with a log line — callers never see an error for racing
// against a close.
func (c *Channel) Send(m *protocol.Message) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.open {
		util.LogDebug("channel closed, dropping %q", m.ID)
		return
	}
	data, err := protocol.Encode(m)
	if err != nil {
		util.LogError("failed to encode %q: %v", m.ID, err)
		return
	}
	if err := c.conn.WriteMessage(websocket.TextMessage, data); err != nil {
		util.LogWarning("failed to send %q: %v", m.ID, err)
		return
	}
	util.Stats.AddSent()
}

// Open reports whether the channel is still usable for sending.
func (c *Channel) Open() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.open
}

// Close tears the connection down and fires OnClose.
func (c *Channel) Close() error {
	c.shutdown(nil)
	return nil
}

func (c *Channel) shutdown(err error) {
	c.closeOnce.Do(func() {
		c.mu.Lock()
		c.open = false
		c.mu.Unlock()
		_ = c.conn.Close()
		if c.onClose != nil {
			c.onClose(err)
		}
	})
}
