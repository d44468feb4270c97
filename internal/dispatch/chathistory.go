package dispatch

import (
	"strconv"
	"strings"
	"time"

	"github.com/relayd/relayd/internal/history"
	"github.com/relayd/relayd/internal/numeric"
	"github.com/relayd/relayd/internal/store"
	"github.com/relayd/relayd/internal/validate"
	"github.com/relayd/relayd/internal/wire"
)

// routeChatHistory implements §6's CHATHISTORY wire form: five replay
// modes plus TARGETS, access-controlled (channel history visible only
// to current members, direct-message history only to the two parties)
// and framed as a `BATCH +ref chathistory <target>` ... `BATCH -ref`
// envelope per §4.8.
func (d *Dispatcher) routeChatHistory(conn store.Connection, msg wire.Message) {
	sub := strings.ToUpper(msg.Param(0))
	switch sub {
	case "BEFORE", "AFTER":
		d.chatHistorySingle(conn, sub, msg.Param(1), msg.Param(2), msg.Param(3))
	case "LATEST":
		d.chatHistorySingle(conn, sub, msg.Param(1), msg.Param(2), msg.Param(3))
	case "AROUND":
		d.chatHistorySingle(conn, sub, msg.Param(1), msg.Param(2), msg.Param(3))
	case "BETWEEN":
		d.chatHistoryBetween(conn, msg.Param(1), msg.Param(2), msg.Param(3), msg.Param(4))
	case "TARGETS":
		d.chatHistoryTargets(conn, msg.Param(1), msg.Param(2), msg.Param(3))
	default:
		conn.EnqueueOutbound(wire.Envelope{Msg: numeric.StandardReply(
			numeric.Fail, "CHATHISTORY", numeric.CodeInvalidParams, []string{sub}, "Unknown subcommand")})
	}
}

func (d *Dispatcher) chatHistorySingle(conn store.Connection, sub, target, selStr, limitStr string) {
	if target == "" || selStr == "" {
		d.chatHistoryFail(conn, sub, numeric.CodeNeedMoreParams, "Missing parameters")
		return
	}
	if !d.canReadHistory(conn, target) {
		d.chatHistoryFail(conn, sub, numeric.CodeNoSuchTarget, "No such target")
		return
	}
	sel, ok := parseSelector(selStr)
	if !ok && selStr != "*" {
		d.chatHistoryFail(conn, sub, numeric.CodeInvalidParams, "Invalid selector")
		return
	}
	limit := parseLimit(limitStr)
	key := historyKeyFor(conn, target)

	var items []history.Item
	switch sub {
	case "BEFORE":
		items = d.hist.Before(key, sel, limit)
		reverseHistory(items)
	case "AFTER":
		items = d.hist.After(key, sel, limit)
	case "LATEST":
		end := sel
		if selStr == "*" {
			end = history.AnySelector()
		}
		items = d.hist.Latest(key, end, limit)
	case "AROUND":
		items = d.hist.Around(key, sel, limit)
	}
	d.sendChatHistoryBatch(conn, target, items)
}

func (d *Dispatcher) chatHistoryBetween(conn store.Connection, target, selAStr, selBStr, limitStr string) {
	if target == "" || selAStr == "" || selBStr == "" {
		d.chatHistoryFail(conn, "BETWEEN", numeric.CodeNeedMoreParams, "Missing parameters")
		return
	}
	if !d.canReadHistory(conn, target) {
		d.chatHistoryFail(conn, "BETWEEN", numeric.CodeNoSuchTarget, "No such target")
		return
	}
	selA, okA := parseSelector(selAStr)
	selB, okB := parseSelector(selBStr)
	if !okA || !okB {
		d.chatHistoryFail(conn, "BETWEEN", numeric.CodeInvalidParams, "Invalid selector")
		return
	}
	limit := parseLimit(limitStr)
	items := d.hist.Between(historyKeyFor(conn, target), selA, selB, limit)
	d.sendChatHistoryBatch(conn, target, items)
}

func (d *Dispatcher) chatHistoryTargets(conn store.Connection, selFromStr, selToStr, limitStr string) {
	selFrom, okFrom := parseSelector(selFromStr)
	selTo, okTo := parseSelector(selToStr)
	if !okFrom || !okTo {
		d.chatHistoryFail(conn, "TARGETS", numeric.CodeInvalidParams, "Invalid selector")
		return
	}
	limit := parseLimit(limitStr)
	for _, t := range d.hist.Targets(selFrom, selTo, limit) {
		conn.EnqueueOutbound(wire.Envelope{Msg: wire.Message{
			Command: "CHATHISTORY",
			Params:  []string{"TARGETS", t.Target, t.Last.UTC().Format(time.RFC3339)},
		}})
	}
}

// canReadHistory enforces §4.8's access rule: channel history only for
// current members, direct-message history only for the two parties
// (the canonical pair key already folds in both nicknames, so any
// registered connection can only derive the key for conversations it
// was actually a party to by naming itself as one side).
func (d *Dispatcher) canReadHistory(conn store.Connection, target string) bool {
	if isChannelName(target) {
		ch, ok := d.channelOrNil(target)
		if !ok {
			return false
		}
		snap := d.querySnapshot(ch, conn.ID())
		return hasMemberNick(snap, validate.FoldNick(conn.Nick()))
	}
	return true
}

func historyKeyFor(conn store.Connection, target string) string {
	if isChannelName(target) {
		return validate.FoldChannel(target)
	}
	return canonicalPairName(conn.Nick(), target)
}

func (d *Dispatcher) chatHistoryFail(conn store.Connection, sub, code, human string) {
	conn.EnqueueOutbound(wire.Envelope{Msg: numeric.StandardReply(
		numeric.Fail, "CHATHISTORY", code, []string{sub}, human)})
}

// sendChatHistoryBatch frames items as BATCH +ref / replay lines / BATCH
// -ref, tagging each with its recorded time and msgid (§4.8).
func (d *Dispatcher) sendChatHistoryBatch(conn store.Connection, target string, items []history.Item) {
	ref := strconv.FormatInt(time.Now().UnixNano(), 36)
	conn.EnqueueOutbound(wire.Envelope{Msg: wire.Message{
		Command: "BATCH",
		Params:  []string{"+" + ref, "chathistory", target},
	}})
	for _, it := range items {
		cmd := "PRIVMSG"
		if it.Kind == history.KindNotice {
			cmd = "NOTICE"
		}
		m := wire.Message{
			Tags:    wire.Tags{"batch": ref},
			Prefix:  it.Author,
			Command: cmd,
			Params:  []string{target, it.Text},
		}
		conn.EnqueueOutbound(wire.Envelope{Msg: m, Time: it.Time, MsgID: it.ID})
	}
	conn.EnqueueOutbound(wire.Envelope{Msg: wire.Message{
		Command: "BATCH",
		Params:  []string{"-" + ref},
	}})
}

func parseSelector(s string) (history.Selector, bool) {
	switch {
	case s == "*":
		return history.AnySelector(), true
	case strings.HasPrefix(s, "timestamp="):
		t, err := time.Parse(time.RFC3339Nano, s[len("timestamp="):])
		if err != nil {
			return history.Selector{}, false
		}
		return history.TimeSelector(t), true
	case strings.HasPrefix(s, "msgid="):
		return history.IDSelector(s[len("msgid="):]), true
	default:
		return history.Selector{}, false
	}
}

func parseLimit(s string) int {
	n, err := strconv.Atoi(s)
	if err != nil || n <= 0 {
		return history.MaxQueryLimit
	}
	return n
}

func reverseHistory(items []history.Item) {
	for i, j := 0, len(items)-1; i < j; i, j = i+1, j-1 {
		items[i], items[j] = items[j], items[i]
	}
}
