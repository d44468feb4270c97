package numeric

import "github.com/relayd/relayd/internal/wire"

// StandardReplyKind is FAIL, WARN, or NOTE (§4.11).
type StandardReplyKind string

const (
	Fail StandardReplyKind = "FAIL"
	Warn StandardReplyKind = "WARN"
	Note StandardReplyKind = "NOTE"
)

// Standard reply codes, upper-snake-case tokens.
const (
	CodeInvalidParams      = "INVALID_PARAMS"
	CodeNicknameInUse      = "NICKNAME_IN_USE"
	CodeNeedMoreParams     = "NEED_MORE_PARAMS"
	CodeUnknownCommand     = "UNKNOWN_COMMAND"
	CodeRedactForbidden    = "REDACT_FORBIDDEN"
	CodeMultilineMaxBytes  = "MULTILINE_MAX_BYTES"
	CodeNoSuchTarget       = "NO_SUCH_TARGET"
	CodeAccessDenied       = "ACCESS_DENIED"
	CodeInternalError      = "INTERNAL_ERROR"
)

// StandardReply builds `FAIL <cmd> <code> [<context>...] :<human>`
// (likewise WARN/NOTE), per §4.11.
func StandardReply(kind StandardReplyKind, cmd, code string, context []string, human string) wire.Message {
	params := append([]string{cmd, code}, context...)
	params = append(params, human)
	return wire.Message{Command: string(kind), Params: params}
}
