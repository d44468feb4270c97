package channel

import (
	"github.com/relayd/relayd/internal/chanop"
	"github.com/relayd/relayd/internal/numeric"
	"github.com/relayd/relayd/internal/wire"
)

// handlePart removes op.Conn from the channel, broadcasting PART to every
// member including the parter (the broadcast precedes removal), and tears
// the channel down once it is empty (§4.5 "Part").
func (c *Coordinator) handlePart(op chanop.Op) {
	if !c.isMember(op.Conn) {
		c.sendNumeric(op.Conn, numeric.ERR_NOTONCHANNEL, c.name, "You're not on that channel")
		return
	}

	params := []string{c.name}
	if op.Reason != "" {
		params = append(params, op.Reason)
	}
	msg := wire.Message{Prefix: op.ConnMask, Command: "PART", Params: params}
	c.broadcast(msg, "", nil)

	delete(c.members, op.Conn)
	c.log.WithField("nick", op.ConnNick).Info("member parted")

	if len(c.members) == 0 && c.onEmpty != nil {
		c.onEmpty(c)
	}
}

// handleQuit removes op.Conn from the channel, if present, broadcasting
// QUIT (rather than PART) to the remaining membership (§4.4
// "Termination": "removed from every channel (each triggers a broadcast
// QUIT :<reason> to the union of co-members)").
func (c *Coordinator) handleQuit(op chanop.Op) {
	if !c.isMember(op.Conn) {
		return
	}

	msg := wire.Message{Prefix: op.ConnMask, Command: "QUIT", Params: []string{op.Reason}}
	c.broadcast(msg, "", nil, op.Conn)

	delete(c.members, op.Conn)

	if len(c.members) == 0 && c.onEmpty != nil {
		c.onEmpty(c)
	}
}
