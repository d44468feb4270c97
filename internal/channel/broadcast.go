package channel

import (
	"time"

	"github.com/relayd/relayd/internal/connid"
	"github.com/relayd/relayd/internal/store"
	"github.com/relayd/relayd/internal/wire"
)

// broadcast delivers msg to every current member except those listed in
// exclude. The Envelope carries the canonical message plus server-time/
// msgid/client-tag metadata; each recipient's own connection actor
// rewrites tags for its enabled capability set at encode time (§9
// "Capability gating at emit time"), so the coordinator itself stays
// capability-oblivious. It tracks consecutive outbound skips per §5's
// backpressure policy, disconnecting a member after two in a row.
func (c *Coordinator) broadcast(msg wire.Message, msgID string, clientTags wire.Tags, exclude ...connid.ID) {
	excl := make(map[connid.ID]struct{}, len(exclude))
	for _, id := range exclude {
		excl[id] = struct{}{}
	}

	env := wire.Envelope{Msg: msg, Time: time.Now(), MsgID: msgID, ClientTags: clientTags}

	for id, mem := range c.members {
		if _, skip := excl[id]; skip {
			continue
		}
		conn, ok := c.conn(id)
		if !ok {
			continue
		}
		c.send(mem, conn, env)
	}
}

// sendTo delivers env to a single connection id, regardless of
// membership (used for direct replies to the acting connection such as
// RPL_TOPIC on join).
func (c *Coordinator) sendTo(id connid.ID, env wire.Envelope) {
	conn, ok := c.conn(id)
	if !ok {
		return
	}
	c.send(c.members[id], conn, env) // nil member is fine
}

func (c *Coordinator) send(mem *member, conn store.Connection, env wire.Envelope) {
	ok := conn.EnqueueOutbound(env)
	if mem == nil {
		return
	}
	if ok {
		mem.skips = 0
		return
	}
	mem.skips++
	if mem.skips >= outboundFailThreshold {
		conn.Close("outbound queue overflow")
	}
}
