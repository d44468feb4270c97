package connection

import (
	"time"

	"github.com/relayd/relayd/internal/numeric"
	"github.com/relayd/relayd/internal/wire"
)

// sendNumeric enqueues a numeric reply addressed to this connection's
// current (or placeholder) nickname.
func (c *Conn) sendNumeric(code numeric.Code, params ...string) {
	c.sendRaw(numeric.Reply(c.serverName, c.displayNick(), code, params...))
}

// sendStandardReply enqueues a FAIL/WARN/NOTE line (§4.11).
func (c *Conn) sendStandardReply(kind numeric.StandardReplyKind, cmd, code string, context []string, human string) {
	c.sendRaw(numeric.StandardReply(kind, cmd, code, context, human))
}

// sendRaw enqueues msg for delivery to this connection without going
// through the shared broadcast/skip-counting path (used for direct
// replies the connection sends to itself).
func (c *Conn) sendRaw(msg wire.Message) {
	c.EnqueueOutbound(wire.Envelope{Msg: msg, Time: time.Now()})
}
