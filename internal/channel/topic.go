package channel

import (
	"time"

	"github.com/relayd/relayd/internal/chanop"
	"github.com/relayd/relayd/internal/numeric"
	"github.com/relayd/relayd/internal/wire"
)

// handleSetTopic updates the channel topic and broadcasts TOPIC to the
// membership (§4.5 "SetTopic"), subject to the +t (operator-only topic)
// restriction.
func (c *Coordinator) handleSetTopic(op chanop.Op) {
	if !c.isMember(op.Conn) {
		c.sendNumeric(op.Conn, numeric.ERR_NOTONCHANNEL, c.name, "You're not on that channel")
		return
	}
	if c.opTopic && !c.members[op.Conn].operator {
		c.sendNumeric(op.Conn, numeric.ERR_CHANOPRIVSNEEDED, c.name, "You're not channel operator")
		return
	}

	c.topic = op.Topic
	c.topicSetter = op.ConnMask
	c.topicTime = time.Now()

	msg := wire.Message{Prefix: op.ConnMask, Command: "TOPIC", Params: []string{c.name, op.Topic}}
	c.broadcast(msg, "", nil)

	c.log.WithField("nick", op.ConnNick).Info("topic changed")
}
