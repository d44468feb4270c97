package connection

import (
	"context"
	"time"

	"github.com/relayd/relayd/internal/wire"
)

// keepalive implements §4.4's PING/PONG timeout policy: every tick, if
// the previous PING has not been answered, the connection is closed with
// "Ping timeout"; otherwise a fresh token is sent.
func (c *Conn) keepalive(ctx context.Context) {
	ticker := time.NewTicker(keepaliveInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			c.mu.Lock()
			outstanding := c.pingOutstanding
			c.mu.Unlock()

			if outstanding {
				c.Close("Ping timeout")
				return
			}

			token := newPingToken()
			c.mu.Lock()
			c.pingToken = token
			c.pingOutstanding = true
			c.mu.Unlock()

			c.sendRaw(wire.Message{Command: "PING", Params: []string{token}})
		case <-c.closing:
			return
		case <-ctx.Done():
			return
		}
	}
}
