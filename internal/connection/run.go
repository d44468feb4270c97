package connection

import (
	"context"
	"errors"
	"io"
	"sync"

	"github.com/google/uuid"

	"github.com/relayd/relayd/internal/chanop"
	"github.com/relayd/relayd/internal/wire"
)

// Run drives the connection's entire lifecycle: it starts the write pump
// and keepalive ticker, then blocks in the read loop until the stream
// errors, the rate limiter trips, or Close is called from elsewhere
// (e.g. the keepalive ticker on a ping timeout, or a channel coordinator
// disconnecting a backpressured member). It must be called exactly once,
// from its own goroutine, normally via internal/supervise.
func (c *Conn) Run(ctx context.Context) {
	c.st.AddConnection(c)

	var wg sync.WaitGroup
	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	wg.Add(2)
	go func() { defer wg.Done(); c.writePump(runCtx) }()
	go func() { defer wg.Done(); c.keepalive(runCtx) }()

	c.readLoop(runCtx)

	cancel()
	c.teardown()
	wg.Wait()
}

func (c *Conn) readLoop(ctx context.Context) {
	for {
		select {
		case <-c.closing:
			return
		case <-ctx.Done():
			return
		default:
		}

		msg, err := c.reader.ReadMessage()
		if err != nil {
			if !errors.Is(err, io.EOF) {
				c.log.WithError(err).Debug("read error")
				c.sendRaw(wire.Message{Command: "ERROR", Params: []string{"Invalid message"}})
			}
			c.Close("Read error")
			return
		}

		c.touch()

		if !c.limiter.Allow() {
			c.sendRaw(wire.Message{Command: "ERROR", Params: []string{"Flood protection"}})
			c.log.Info("flood-killed")
			if c.metrics != nil {
				c.metrics.FloodKill()
			}
			c.Close("Flood protection")
			return
		}

		c.handleMessage(msg)

		select {
		case <-c.closing:
			return
		default:
		}
	}
}

// teardown runs once the read loop exits: it removes the connection from
// every channel it belongs to and from the global registry (§4.4
// "Termination").
func (c *Conn) teardown() {
	reason := c.quitReasonOrDefault()
	mask := c.Mask()

	for _, ch := range c.st.AllChannels() {
		ch.Post(chanop.Op{Kind: chanop.Quit, Conn: c.id, ConnNick: c.Nick(), ConnMask: mask, Reason: reason})
	}
	c.st.RemoveConnection(c.id)
	c.netConn.Close()
	c.log.WithField("reason", reason).Info("connection closed")
}

func (c *Conn) quitReasonOrDefault() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.quitReason == "" {
		return "Connection closed"
	}
	return c.quitReason
}

// newPingToken mints a fresh keepalive token using the same uuid library
// the rest of the ambient stack relies on for opaque identifiers.
func newPingToken() string {
	return uuid.NewString()
}
