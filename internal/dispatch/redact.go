package dispatch

import (
	"github.com/relayd/relayd/internal/numeric"
	"github.com/relayd/relayd/internal/store"
	"github.com/relayd/relayd/internal/wire"
)

// routeRedact implements REDACT's error path (§7): this server keeps no
// mutable history record to redact in place, so every request fails with
// REDACT_FORBIDDEN once its parameters are present.
func (d *Dispatcher) routeRedact(conn store.Connection, msg wire.Message) {
	target, msgid := msg.Param(0), msg.Param(1)
	if target == "" || msgid == "" {
		d.standardReplyFail(conn, "REDACT", numeric.CodeNeedMoreParams, nil, "Missing parameters")
		return
	}
	d.standardReplyFail(conn, "REDACT", numeric.CodeRedactForbidden, []string{target, msgid}, "Redaction is not supported")
}

// routeMarkRead implements MARKREAD's error path (§7): read markers are
// never persisted, so a request naming a target fails rather than being
// silently accepted and forgotten.
func (d *Dispatcher) routeMarkRead(conn store.Connection, msg wire.Message) {
	target := msg.Param(0)
	if target == "" {
		d.standardReplyFail(conn, "MARKREAD", numeric.CodeNeedMoreParams, nil, "Missing parameters")
		return
	}
	d.standardReplyFail(conn, "MARKREAD", numeric.CodeAccessDenied, []string{target}, "Read markers are not persisted")
}

// standardReplyFail enqueues a FAIL standard-reply for cmd (§4.11).
func (d *Dispatcher) standardReplyFail(conn store.Connection, cmd, code string, context []string, human string) {
	conn.EnqueueOutbound(wire.Envelope{Msg: numeric.StandardReply(
		numeric.Fail, cmd, code, context, human)})
}
