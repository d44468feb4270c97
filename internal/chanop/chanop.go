// Package chanop defines the operation messages a channel coordinator
// accepts on its serial inbound queue (§4.5) and the read-only snapshot
// shape used to answer synchronous queries (LIST, NAMES, WHOIS, GetInfo)
// without breaking the single-writer guarantee: a snapshot request is
// itself queued like any other operation and answered by the owning
// goroutine, so it observes a consistent, linearized view of the channel.
package chanop

import (
	"strconv"
	"time"

	"github.com/relayd/relayd/internal/connid"
	"github.com/relayd/relayd/internal/wire"
)

// Kind identifies which channel operation an Op carries.
type Kind int

const (
	Join Kind = iota
	Part
	Quit
	Message
	SetTopic
	Kick
	Mode
	Invite
	Snapshot
	Terminate
)

// MessageKind distinguishes PRIVMSG/NOTICE/TAGMSG for the Message op.
type MessageKind int

const (
	PrivMsg MessageKind = iota
	Notice
	TagMsg
)

// ModeChange is one parsed +X/-X item from a MODE command.
type ModeChange struct {
	Add    bool
	Letter byte
	Param  string
}

// Op is a single channel-coordinator operation. Only the fields relevant
// to Kind are populated by the caller.
type Op struct {
	Kind Kind

	Conn     connid.ID // the acting connection
	ConnNick string    // snapshot of the acting connection's nickname, for prefixing
	ConnMask string    // snapshot of nick!user@host, for prefixing

	Key    string // Join: supplied key
	Reason string // Part/Kick: reason text

	TargetConn connid.ID // Kick/Invite: resolved target connection id (0 if no connection holds that nickname)
	TargetNick string    // Kick/Invite: target nickname as supplied

	Topic string // SetTopic

	MsgKind MessageKind // Message
	Text    string      // Message
	Tags    wire.Tags   // Message: inbound tags, already filtered by the caller where relevant

	ModeChanges []ModeChange // Mode
	ModeQuery   bool         // Mode: true if this is a mode/list query rather than a change

	// Reply receives the result of a Snapshot op. It is created by the
	// caller and must be buffered (capacity >= 1) or read promptly.
	Reply chan Snapshot
}

// MemberInfo is one member's view for a Snapshot.
type MemberInfo struct {
	Nick     string
	Mask     string
	Operator bool
	Voice    bool
	Account  string
	RealName string
}

// Snapshot is a read-only, point-in-time view of a channel, produced by
// the owning coordinator goroutine in response to a Snapshot op.
type Snapshot struct {
	Exists bool

	Name        string
	Topic       string
	TopicSetter string
	TopicTime   time.Time
	Created     time.Time

	Invite    bool
	NoExternal bool
	Moderated bool
	Secret    bool
	Private   bool
	OpTopic   bool
	Key       string
	HasKey    bool
	Limit     int
	HasLimit  bool

	Members []MemberInfo
	Bans    []string
}

// ModesString renders the currently-set flag modes in the canonical
// letter order used by RPL_CHANNELMODEIS.
func (s Snapshot) ModesString() (letters string, params []string) {
	var b []byte
	if s.Invite {
		b = append(b, 'i')
	}
	if s.NoExternal {
		b = append(b, 'n')
	}
	if s.Moderated {
		b = append(b, 'm')
	}
	if s.Secret {
		b = append(b, 's')
	}
	if s.Private {
		b = append(b, 'p')
	}
	if s.OpTopic {
		b = append(b, 't')
	}
	if s.HasKey {
		b = append(b, 'k')
		params = append(params, s.Key)
	}
	if s.HasLimit {
		b = append(b, 'l')
		params = append(params, strconv.Itoa(s.Limit))
	}
	return string(b), params
}
