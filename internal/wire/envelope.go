package wire

import "time"

// Envelope is what producers (the channel coordinator, the dispatcher)
// place on a connection's outbound queue. It carries a canonical, almost
// tag-free Message plus the metadata needed to rewrite it per-recipient
// at the last moment before encoding (§9 "Capability gating at emit
// time"): server-time and msgid are added only for recipients that
// enabled the corresponding capability, and client-only tags (keys
// beginning with '+') are relayed only to recipients with message-tags
// enabled.
type Envelope struct {
	Msg        Message
	Time       time.Time
	MsgID      string
	ClientTags Tags // the subset of inbound tags whose key begins with '+'
}

// ServerTimeTag formats t as the ISO-8601 millisecond UTC value used by
// the server-time capability.
func ServerTimeTag(t time.Time) string {
	return t.UTC().Format("2006-01-02T15:04:05.000Z")
}

// Render builds the final wire Message for a recipient with the given
// capability gates applied.
func (e Envelope) Render(wantServerTime, wantMessageTags bool) Message {
	m := e.Msg
	tags := Tags{}
	for k, v := range m.Tags {
		tags[k] = v
	}

	if wantMessageTags {
		for k, v := range e.ClientTags {
			tags[k] = v
		}
		if e.MsgID != "" {
			tags["msgid"] = e.MsgID
		}
	}
	if wantServerTime && !e.Time.IsZero() {
		tags["time"] = ServerTimeTag(e.Time)
	}

	if len(tags) > 0 {
		m.Tags = tags
	} else {
		m.Tags = nil
	}
	return m
}
