package channel

import (
	"time"

	"github.com/relayd/relayd/internal/capability"
	"github.com/relayd/relayd/internal/chanop"
	"github.com/relayd/relayd/internal/numeric"
	"github.com/relayd/relayd/internal/validate"
	"github.com/relayd/relayd/internal/wire"
)

// handleInvite records an invite exemption for op.TargetConn and delivers
// the INVITE message, confirming to the inviter with RPL_INVITING (§4.5
// "Invite"). Only channel operators may invite once +i is set.
func (c *Coordinator) handleInvite(op chanop.Op) {
	if !c.isMember(op.Conn) {
		c.sendNumeric(op.Conn, numeric.ERR_NOTONCHANNEL, c.name, "You're not on that channel")
		return
	}
	if c.invite && !c.members[op.Conn].operator {
		c.sendNumeric(op.Conn, numeric.ERR_CHANOPRIVSNEEDED, c.name, "You're not channel operator")
		return
	}
	if op.TargetConn != 0 && c.isMember(op.TargetConn) {
		c.sendNumeric(op.Conn, numeric.ERR_USERONCHANNEL, op.TargetNick, c.name, "is already on channel")
		return
	}

	c.invited[validate.FoldNick(op.TargetNick)] = struct{}{}

	if op.TargetConn != 0 {
		target, ok := c.conn(op.TargetConn)
		if ok {
			msg := wire.Message{Prefix: op.ConnMask, Command: "INVITE", Params: []string{op.TargetNick, c.name}}
			c.sendTo(op.TargetConn, wire.Envelope{Msg: msg, Time: time.Now()})

			for id, mem := range c.members {
				if id == op.Conn {
					continue
				}
				notifyConn, ok := c.conn(id)
				if !ok || !notifyConn.Caps().Has(capability.InviteNotify) {
					continue
				}
				notifyMsg := wire.Message{
					Prefix:  op.ConnMask,
					Command: "INVITE",
					Params:  []string{op.TargetNick, c.name},
				}
				c.send(mem, notifyConn, wire.Envelope{Msg: notifyMsg, Time: time.Now()})
			}
		}
	}

	c.sendNumeric(op.Conn, numeric.RPL_INVITING, op.TargetNick, c.name)
	c.log.WithField("nick", op.ConnNick).WithField("target", op.TargetNick).Info("invite sent")
}
