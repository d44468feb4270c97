package channel

import (
	"time"

	"github.com/relayd/relayd/internal/capability"
	"github.com/relayd/relayd/internal/chanop"
	"github.com/relayd/relayd/internal/history"
	"github.com/relayd/relayd/internal/ircid"
	"github.com/relayd/relayd/internal/numeric"
	"github.com/relayd/relayd/internal/wire"
)

var messageCommand = map[chanop.MessageKind]string{
	chanop.PrivMsg: "PRIVMSG",
	chanop.Notice:  "NOTICE",
	chanop.TagMsg:  "TAGMSG",
}

var historyKind = map[chanop.MessageKind]history.Kind{
	chanop.PrivMsg: history.KindMessage,
	chanop.Notice:  history.KindNotice,
}

// handleMessage delivers a PRIVMSG/NOTICE/TAGMSG to the channel's
// membership, enforcing the no-external-messages, moderated, and ban
// checks before fanning out, and records PRIVMSG/NOTICE in history
// (§4.5 "Message"). TAGMSG carries no text and is never recorded.
func (c *Coordinator) handleMessage(op chanop.Op) {
	sender, ok := c.conn(op.Conn)
	if !ok {
		return
	}

	member, isMember := c.members[op.Conn]

	if c.noExternal && !isMember {
		if op.MsgKind != chanop.TagMsg {
			c.sendNumeric(op.Conn, numeric.ERR_CANNOTSENDTOCHAN, c.name, "Cannot send to channel (+n)")
		}
		return
	}
	if c.moderated && (!isMember || (!member.operator && !member.voice)) {
		if op.MsgKind != chanop.TagMsg {
			c.sendNumeric(op.Conn, numeric.ERR_CANNOTSENDTOCHAN, c.name, "Cannot send to channel (+m)")
		}
		return
	}
	if c.banMatches(sender) && (!isMember || (!member.operator && !member.voice)) {
		if op.MsgKind != chanop.TagMsg {
			c.sendNumeric(op.Conn, numeric.ERR_CANNOTSENDTOCHAN, c.name, "Cannot send to channel (+b)")
		}
		return
	}

	now := time.Now()
	id := ircid.New(now)

	cmd := messageCommand[op.MsgKind]
	var params []string
	if op.MsgKind == chanop.TagMsg {
		params = []string{c.name}
	} else {
		params = []string{c.name, op.Text}
	}
	msg := wire.Message{Prefix: op.ConnMask, Command: cmd, Params: params}

	echo := sender.Caps().Has(capability.EchoMessage)

	for id2, mem := range c.members {
		if id2 == op.Conn && !echo {
			continue
		}
		if op.MsgKind == chanop.TagMsg {
			target, ok := c.conn(id2)
			if !ok || !target.Caps().Has(capability.MessageTags) {
				continue
			}
		}
		target, ok := c.conn(id2)
		if !ok {
			continue
		}
		c.send(mem, target, wire.Envelope{Msg: msg, Time: now, MsgID: id, ClientTags: op.Tags})
	}

	// A non-member sender (only possible when the channel allows external
	// messages) has no membership entry to range over above for its own
	// echo; handle it explicitly.
	if !isMember && echo {
		c.sendTo(op.Conn, wire.Envelope{Msg: msg, Time: now, MsgID: id, ClientTags: op.Tags})
	}

	if kind, ok := historyKind[op.MsgKind]; ok {
		c.history.Insert(c.name, history.Item{
			ID:      id,
			Time:    now,
			Kind:    kind,
			Author:  op.ConnNick,
			Account: orStar(sender.Account()),
			Target:  c.name,
			Text:    op.Text,
			Tags:    op.Tags,
		})
	}
}
