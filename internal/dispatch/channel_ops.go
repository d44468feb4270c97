package dispatch

import (
	"strconv"
	"strings"

	"github.com/relayd/relayd/internal/chanop"
	"github.com/relayd/relayd/internal/channel"
	"github.com/relayd/relayd/internal/connid"
	"github.com/relayd/relayd/internal/numeric"
	"github.com/relayd/relayd/internal/store"
	"github.com/relayd/relayd/internal/validate"
	"github.com/relayd/relayd/internal/wire"
)

func (d *Dispatcher) routeJoin(conn store.Connection, msg wire.Message) {
	if msg.Param(0) == "" {
		d.reply(conn, numeric.ERR_NEEDMOREPARAMS, "JOIN", "Not enough parameters")
		return
	}
	names := strings.Split(msg.Param(0), ",")
	keys := strings.Split(msg.Param(1), ",")
	for i, name := range names {
		if !validate.ChannelName(name) {
			d.reply(conn, numeric.ERR_NOSUCHCHANNEL, name, "No such channel")
			continue
		}
		key := ""
		if i < len(keys) {
			key = keys[i]
		}
		ch := d.getOrCreateChannel(name)
		ch.Post(chanop.Op{Kind: chanop.Join, Conn: conn.ID(), ConnNick: conn.Nick(), ConnMask: conn.Mask(), Key: key})
	}
}

func (d *Dispatcher) routePart(conn store.Connection, msg wire.Message) {
	if msg.Param(0) == "" {
		d.reply(conn, numeric.ERR_NEEDMOREPARAMS, "PART", "Not enough parameters")
		return
	}
	reason := msg.Trailing()
	for _, name := range strings.Split(msg.Param(0), ",") {
		ch, ok := d.channelOrNil(name)
		if !ok {
			d.reply(conn, numeric.ERR_NOSUCHCHANNEL, name, "No such channel")
			continue
		}
		ch.Post(chanop.Op{Kind: chanop.Part, Conn: conn.ID(), ConnNick: conn.Nick(), ConnMask: conn.Mask(), Reason: reason})
	}
}

func (d *Dispatcher) routeTopic(conn store.Connection, msg wire.Message) {
	name := msg.Param(0)
	if name == "" {
		d.reply(conn, numeric.ERR_NEEDMOREPARAMS, "TOPIC", "Not enough parameters")
		return
	}
	ch, ok := d.channelOrNil(name)
	if !ok {
		d.reply(conn, numeric.ERR_NOSUCHCHANNEL, name, "No such channel")
		return
	}

	if len(msg.Params) < 2 {
		snap := d.querySnapshot(ch, conn.ID())
		if snap.Topic == "" {
			d.reply(conn, numeric.RPL_NOTOPIC, name, "No topic is set")
			return
		}
		d.reply(conn, numeric.RPL_TOPIC, name, snap.Topic)
		d.reply(conn, numeric.RPL_TOPICWHOTIME, name, snap.TopicSetter, strconv.FormatInt(snap.TopicTime.Unix(), 10))
		return
	}

	ch.Post(chanop.Op{Kind: chanop.SetTopic, Conn: conn.ID(), ConnNick: conn.Nick(), ConnMask: conn.Mask(), Topic: msg.Trailing()})
}

func (d *Dispatcher) routeKick(conn store.Connection, msg wire.Message) {
	name, targetNick := msg.Param(0), msg.Param(1)
	if name == "" || targetNick == "" {
		d.reply(conn, numeric.ERR_NEEDMOREPARAMS, "KICK", "Not enough parameters")
		return
	}
	ch, ok := d.channelOrNil(name)
	if !ok {
		d.reply(conn, numeric.ERR_NOSUCHCHANNEL, name, "No such channel")
		return
	}
	var targetID connid.ID
	if tc, ok := d.st.ConnectionByNick(targetNick); ok {
		targetID = tc.ID()
	}
	ch.Post(chanop.Op{
		Kind: chanop.Kick, Conn: conn.ID(), ConnNick: conn.Nick(), ConnMask: conn.Mask(),
		TargetConn: targetID, TargetNick: targetNick, Reason: msg.Trailing(),
	})
}

func (d *Dispatcher) routeInvite(conn store.Connection, msg wire.Message) {
	targetNick, name := msg.Param(0), msg.Param(1)
	if targetNick == "" || name == "" {
		d.reply(conn, numeric.ERR_NEEDMOREPARAMS, "INVITE", "Not enough parameters")
		return
	}
	ch, ok := d.channelOrNil(name)
	if !ok {
		d.reply(conn, numeric.ERR_NOSUCHCHANNEL, name, "No such channel")
		return
	}
	tc, ok := d.st.ConnectionByNick(targetNick)
	if !ok {
		d.reply(conn, numeric.ERR_NOSUCHNICK, targetNick, "No such nick/channel")
		return
	}
	ch.Post(chanop.Op{
		Kind: chanop.Invite, Conn: conn.ID(), ConnNick: conn.Nick(), ConnMask: conn.Mask(),
		TargetConn: tc.ID(), TargetNick: targetNick,
	})
}

func (d *Dispatcher) routeMode(conn store.Connection, msg wire.Message) {
	name := msg.Param(0)
	if name == "" {
		d.reply(conn, numeric.ERR_NEEDMOREPARAMS, "MODE", "Not enough parameters")
		return
	}
	if !isChannelName(name) {
		// User-mode handling is out of scope beyond the +i/+o set
		// advertised in 004 (§9 open question); answer with an empty set.
		d.reply(conn, numeric.RPL_UMODEIS, "+")
		return
	}
	ch, ok := d.channelOrNil(name)
	if !ok {
		d.reply(conn, numeric.ERR_NOSUCHCHANNEL, name, "No such channel")
		return
	}

	if len(msg.Params) < 2 {
		ch.Post(chanop.Op{Kind: chanop.Mode, Conn: conn.ID(), ConnNick: conn.Nick(), ModeQuery: true})
		return
	}

	changes, isQuery := parseModeString(msg.Param(1), msg.Params[2:])
	ch.Post(chanop.Op{
		Kind: chanop.Mode, Conn: conn.ID(), ConnNick: conn.Nick(), ConnMask: conn.Mask(),
		ModeChanges: changes, ModeQuery: isQuery,
	})
}

// querySnapshot posts a Snapshot op to ch and blocks for its reply. The
// reply channel is buffered so the coordinator never stalls delivering
// it even if this call were abandoned.
func (d *Dispatcher) querySnapshot(ch *channel.Coordinator, id connid.ID) chanop.Snapshot {
	replyCh := make(chan chanop.Snapshot, 1)
	if !ch.Post(chanop.Op{Kind: chanop.Snapshot, Conn: id, Reply: replyCh}) {
		return chanop.Snapshot{}
	}
	return <-replyCh
}
