package channel

import (
	"time"

	"github.com/relayd/relayd/internal/capability"
	"github.com/relayd/relayd/internal/chanop"
	"github.com/relayd/relayd/internal/numeric"
	"github.com/relayd/relayd/internal/validate"
	"github.com/relayd/relayd/internal/wire"
)

func (c *Coordinator) handleJoin(op chanop.Op) {
	conn, ok := c.conn(op.Conn)
	if !ok {
		return
	}

	if c.isMember(op.Conn) {
		return // idempotent: already joined
	}

	if c.hasKey && op.Key != c.key {
		c.sendNumeric(op.Conn, numeric.ERR_BADCHANNELKEY, c.name, "Cannot join channel (+k)")
		return
	}
	if c.hasLimit && len(c.members) >= c.limit {
		c.sendNumeric(op.Conn, numeric.ERR_CHANNELISFULL, c.name, "Cannot join channel (+l)")
		return
	}
	if c.invite {
		_, invited := c.invited[validate.FoldNick(conn.Nick())]
		if !invited && !c.inviteExemptMatches(conn.Mask()) {
			c.sendNumeric(op.Conn, numeric.ERR_INVITEONLYCHAN, c.name, "Cannot join channel (+i)")
			return
		}
	}
	if c.banMatches(conn) {
		c.sendNumeric(op.Conn, numeric.ERR_BANNEDFROMCHAN, c.name, "Cannot join channel (+b)")
		return
	}

	wasEmpty := len(c.members) == 0
	c.members[op.Conn] = &member{joined: time.Now(), operator: wasEmpty}
	delete(c.invited, validate.FoldNick(conn.Nick()))

	joinMsg := wire.Message{Prefix: conn.Mask(), Command: "JOIN", Params: []string{c.name}}
	extendedJoinMsg := wire.Message{
		Prefix:  conn.Mask(),
		Command: "JOIN",
		Params:  []string{c.name, orStar(conn.Account()), conn.RealName()},
	}

	for id, mem := range c.members {
		target, ok := c.conn(id)
		if !ok {
			continue
		}
		if target.Caps().Has(capability.ExtendedJoin) {
			c.send(mem, target, wire.Envelope{Msg: extendedJoinMsg, Time: time.Now()})
		} else {
			c.send(mem, target, wire.Envelope{Msg: joinMsg, Time: time.Now()})
		}
	}

	c.sendTopicTo(op.Conn)
	c.sendNamesTo(op.Conn)

	c.log.WithField("nick", conn.Nick()).Info("member joined")
}

func orStar(s string) string {
	if s == "" {
		return "*"
	}
	return s
}
