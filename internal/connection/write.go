package connection

import (
	"context"

	"github.com/relayd/relayd/internal/capability"
)

// writePump is the sole writer of c.netConn. It renders each queued
// Envelope against this connection's own enabled capability set at the
// last moment before encoding (§9 "Capability gating at emit time"),
// keeping every other component — channel coordinators, the dispatcher —
// capability-oblivious.
func (c *Conn) writePump(ctx context.Context) {
	for {
		select {
		case env, ok := <-c.outbound:
			if !ok {
				return
			}
			wantTime := c.caps.Has(capability.ServerTime)
			wantTags := c.caps.Has(capability.MessageTags)
			msg := env.Render(wantTime, wantTags)

			if _, err := c.netConn.Write([]byte(msg.Format())); err != nil {
				c.log.WithError(err).Debug("write error")
				c.Close("Write error")
				return
			}
		case <-c.closing:
			c.drainOutbound()
			return
		case <-ctx.Done():
			return
		}
	}
}

// drainOutbound performs a best-effort final flush of whatever is still
// queued once the connection is closing, per §4.4's "outbound queue is
// drained best-effort".
func (c *Conn) drainOutbound() {
	for {
		select {
		case env, ok := <-c.outbound:
			if !ok {
				return
			}
			wantTime := c.caps.Has(capability.ServerTime)
			wantTags := c.caps.Has(capability.MessageTags)
			msg := env.Render(wantTime, wantTags)
			_, _ = c.netConn.Write([]byte(msg.Format()))
		default:
			return
		}
	}
}
