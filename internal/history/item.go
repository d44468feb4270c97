// Package history implements the per-target bounded ring buffer that
// backs CHATHISTORY replay (§4.8): a fixed-capacity FIFO keyed by target
// name, with age-based eviction and the five selector-driven query modes.
package history

import (
	"time"

	"github.com/relayd/relayd/internal/wire"
)

// Kind tags the sort of event a History item records.
type Kind string

const (
	KindMessage Kind = "message"
	KindNotice  Kind = "notice"
	KindJoin    Kind = "join"
	KindPart    Kind = "part"
	KindQuit    Kind = "quit"
	KindKick    Kind = "kick"
	KindMode    Kind = "mode"
	KindNick    Kind = "nick"
	KindTopic   Kind = "topic"
)

// Item is a single, immutable history record. Items never mutate after
// insertion; eviction simply drops the reference.
type Item struct {
	ID      string
	Time    time.Time
	Kind    Kind
	Author  string
	Account string // "*" if the author has no account
	Target  string
	Text    string
	Params  []string
	Tags    wire.Tags
}

// Selector anchors a history query: either a message id or a timestamp.
type Selector struct {
	MsgID string
	Time  time.Time
	IsAny bool // true for the "*" selector (used by LATEST)
}

// TimeSelector builds a timestamp-based Selector.
func TimeSelector(t time.Time) Selector { return Selector{Time: t} }

// IDSelector builds a message-id-based Selector.
func IDSelector(id string) Selector { return Selector{MsgID: id} }

// AnySelector is the "*" selector used by CHATHISTORY LATEST.
func AnySelector() Selector { return Selector{IsAny: true} }

func (s Selector) hasID() bool { return s.MsgID != "" }
