package rtc

import (
	"time"

	"github.com/upf-gti/admire-sub000/internal/protocol"
)

const defaultHeartbeat = 20 * time.Second

// startHeartbeat launches the keep-alive loop. Pings are skipped while the
// channel is not open; the loop self-terminates when the client disconnects
// (handleClose closes hbStop). Starting twice is a no-op.
func (c *Client) startHeartbeat() {
	c.mu.Lock()
	if c.hbStop != nil {
		c.mu.Unlock()
		return
	}
	stop := make(chan struct{})
	c.hbStop = stop
	interval := c.heartbeat
	c.mu.Unlock()

	if interval <= 0 {
		interval = defaultHeartbeat
	}

	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				c.mu.Lock()
				ch := c.ch
				c.mu.Unlock()
				if ch == nil {
					return
				}
				if !ch.Open() {
					continue
				}
				ch.Send(&protocol.Message{ID: protocol.MsgPing})
			case <-stop:
				return
			}
		}
	}()
}
