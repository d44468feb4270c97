package dispatch

import (
	"sort"
	"strings"
	"time"

	"github.com/relayd/relayd/internal/capability"
	"github.com/relayd/relayd/internal/chanop"
	"github.com/relayd/relayd/internal/history"
	"github.com/relayd/relayd/internal/ircid"
	"github.com/relayd/relayd/internal/numeric"
	"github.com/relayd/relayd/internal/store"
	"github.com/relayd/relayd/internal/validate"
	"github.com/relayd/relayd/internal/wire"
)

var dispatchMessageKind = map[string]chanop.MessageKind{
	"PRIVMSG": chanop.PrivMsg,
	"NOTICE":  chanop.Notice,
	"TAGMSG":  chanop.TagMsg,
}

var dispatchHistoryKind = map[chanop.MessageKind]history.Kind{
	chanop.PrivMsg: history.KindMessage,
	chanop.Notice:  history.KindNotice,
}

// routeMessage implements §4.7's PRIVMSG/NOTICE/TAGMSG routing: channel
// targets go to the owning coordinator, direct targets are resolved by
// nickname and enqueued straight onto the recipient's outbound queue,
// with direct-message history recorded under the pair's canonical name.
// NOTICE never produces an error reply (the quiet-failure rule).
func (d *Dispatcher) routeMessage(conn store.Connection, msg wire.Message) {
	quiet := msg.Command == "NOTICE"
	target := msg.Param(0)
	if target == "" {
		if !quiet {
			d.reply(conn, numeric.ERR_NEEDMOREPARAMS, msg.Command, "Not enough parameters")
		}
		return
	}

	kind, ok := dispatchMessageKind[msg.Command]
	if !ok {
		return
	}

	text := msg.Trailing()
	if kind != chanop.TagMsg && text == "" {
		if !quiet {
			d.reply(conn, numeric.ERR_NEEDMOREPARAMS, msg.Command, "Not enough parameters")
		}
		return
	}

	clientTags := clientOnlyTags(msg.Tags)

	if isChannelName(target) {
		ch, ok := d.channelOrNil(target)
		if !ok {
			if !quiet {
				d.reply(conn, numeric.ERR_NOSUCHCHANNEL, target, "No such channel")
			}
			return
		}
		ch.Post(chanop.Op{
			Kind: chanop.Message, Conn: conn.ID(), ConnNick: conn.Nick(), ConnMask: conn.Mask(),
			MsgKind: kind, Text: text, Tags: clientTags,
		})
		return
	}

	dest, ok := d.st.ConnectionByNick(target)
	if !ok {
		if !quiet {
			d.reply(conn, numeric.ERR_NOSUCHNICK, target, "No such nick/channel")
		}
		return
	}

	now := time.Now()
	id := ircid.New(now)
	out := wire.Message{Prefix: conn.Mask(), Command: msg.Command, Params: []string{target}}
	if kind != chanop.TagMsg {
		out.Params = append(out.Params, text)
	}

	if kind != chanop.TagMsg || dest.Caps().Has(capability.MessageTags) {
		dest.EnqueueOutbound(wire.Envelope{Msg: out, Time: now, MsgID: id, ClientTags: clientTags})
	}
	if conn.Caps().Has(capability.EchoMessage) {
		conn.EnqueueOutbound(wire.Envelope{Msg: out, Time: now, MsgID: id, ClientTags: clientTags})
	}

	if hk, ok := dispatchHistoryKind[kind]; ok {
		pair := canonicalPairName(conn.Nick(), target)
		d.hist.Insert(pair, history.Item{
			ID: id, Time: now, Kind: hk, Author: conn.Nick(),
			Account: orStar(conn.Account()), Target: pair, Text: text, Tags: clientTags,
		})
	}

	if d.metrics != nil {
		d.metrics.MessageRelayed(strings.ToLower(msg.Command))
	}
}

// clientOnlyTags returns the subset of inbound tags whose key begins
// with '+' (client-only tags), the only ones relayed to recipients with
// message-tags enabled (§4.10).
func clientOnlyTags(tags wire.Tags) wire.Tags {
	if len(tags) == 0 {
		return nil
	}
	out := wire.Tags{}
	for k, v := range tags {
		if strings.HasPrefix(k, "+") {
			out[k] = v
		}
	}
	if len(out) == 0 {
		return nil
	}
	return out
}

// canonicalPairName gives both correspondents the same history key for a
// direct-message conversation regardless of who is the sender.
func canonicalPairName(a, b string) string {
	fa, fb := validate.FoldNick(a), validate.FoldNick(b)
	pair := []string{fa, fb}
	sort.Strings(pair)
	return pair[0] + "\x00" + pair[1]
}

func orStar(s string) string {
	if s == "" {
		return "*"
	}
	return s
}
