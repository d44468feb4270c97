package channel

import (
	"github.com/relayd/relayd/internal/chanop"
	"github.com/relayd/relayd/internal/numeric"
	"github.com/relayd/relayd/internal/wire"
)

// handleKick removes op.TargetConn from the channel on behalf of an
// operator, broadcasting KICK to the (pre-removal) membership (§4.5
// "Kick").
func (c *Coordinator) handleKick(op chanop.Op) {
	if !c.isMember(op.Conn) {
		c.sendNumeric(op.Conn, numeric.ERR_NOTONCHANNEL, c.name, "You're not on that channel")
		return
	}
	if !c.members[op.Conn].operator {
		c.sendNumeric(op.Conn, numeric.ERR_CHANOPRIVSNEEDED, c.name, "You're not channel operator")
		return
	}
	if op.TargetConn == 0 || !c.isMember(op.TargetConn) {
		c.sendNumeric(op.Conn, numeric.ERR_USERNOTINCHANNEL, op.TargetNick, c.name, "They aren't on that channel")
		return
	}

	reason := op.Reason
	if reason == "" {
		reason = op.ConnNick
	}
	msg := wire.Message{
		Prefix:  op.ConnMask,
		Command: "KICK",
		Params:  []string{c.name, op.TargetNick, reason},
	}
	c.broadcast(msg, "", nil)

	delete(c.members, op.TargetConn)
	c.log.WithField("nick", op.ConnNick).WithField("target", op.TargetNick).Info("member kicked")

	if len(c.members) == 0 && c.onEmpty != nil {
		c.onEmpty(c)
	}
}
