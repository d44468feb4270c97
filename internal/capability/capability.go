// Package capability implements the IRCv3 capability-negotiation registry
// (§4.9): the static advertised set and the per-connection enabled subset
// that gates optional behaviour at emit time (§9 "Capability gating at
// emit time").
package capability

import (
	"sort"
	"strings"
)

// Name identifies a capability token.
type Name string

const (
	MessageTags      Name = "message-tags"
	ServerTime       Name = "server-time"
	EchoMessage      Name = "echo-message"
	ExtendedJoin     Name = "extended-join"
	MultiPrefix      Name = "multi-prefix"
	UserhostInNames  Name = "userhost-in-names"
	CapNotify        Name = "cap-notify"
	AccountNotify    Name = "account-notify"
	InviteNotify     Name = "invite-notify"
	AwayNotify       Name = "away-notify"
	ChgHost          Name = "chghost"
	Batch            Name = "batch"
	LabeledResponse  Name = "labeled-response"
	StandardReplies  Name = "standard-replies"
	ChatHistory      Name = "draft/chathistory"
	Typing           Name = "draft/typing"
	ReadMarker       Name = "draft/read-marker"
	Multiline        Name = "draft/multiline"
)

// MultilineMaxBytes is advertised as the multiline capability's
// "max-bytes" parameter.
const MultilineMaxBytes = 4096

// Advertised returns the server's full supported-capability set in the
// form CAP LS emits it, as name -> optional value (empty string if the
// capability carries no value).
func Advertised() map[Name]string {
	return map[Name]string{
		MessageTags:     "",
		ServerTime:      "",
		EchoMessage:     "",
		ExtendedJoin:    "",
		MultiPrefix:     "",
		UserhostInNames: "",
		CapNotify:       "",
		AccountNotify:   "",
		InviteNotify:    "",
		AwayNotify:      "",
		ChgHost:         "",
		Batch:           "",
		LabeledResponse: "",
		StandardReplies: "",
		ChatHistory:     "",
		Typing:          "",
		ReadMarker:      "",
		Multiline:       "max-bytes=4096",
	}
}

// AdvertisedLine renders the advertised set in the space-separated
// `name[=value]` form CAP LS emits as its trailing parameter.
func AdvertisedLine() string {
	adv := Advertised()
	names := make([]string, 0, len(adv))
	for n := range adv {
		names = append(names, string(n))
	}
	sort.Strings(names)

	parts := make([]string, 0, len(names))
	for _, n := range names {
		if v := adv[Name(n)]; v != "" {
			parts = append(parts, n+"="+v)
		} else {
			parts = append(parts, n)
		}
	}
	return strings.Join(parts, " ")
}

// IsSupported reports whether name is one of the server's advertised
// capabilities.
func IsSupported(name string) bool {
	_, ok := Advertised()[Name(name)]
	return ok
}

// Set is the per-connection enabled-capability set.
type Set struct {
	enabled map[Name]struct{}
}

// NewSet returns an empty enabled-capability set.
func NewSet() *Set {
	return &Set{enabled: make(map[Name]struct{})}
}

// Enable marks name as enabled for this connection. The caller is
// responsible for having validated that name is supported.
func (s *Set) Enable(name Name) { s.enabled[name] = struct{}{} }

// Disable removes name from the enabled set.
func (s *Set) Disable(name Name) { delete(s.enabled, name) }

// Has reports whether name is enabled.
func (s *Set) Has(name Name) bool {
	_, ok := s.enabled[name]
	return ok
}

// Names returns the currently enabled capability names.
func (s *Set) Names() []Name {
	out := make([]Name, 0, len(s.enabled))
	for n := range s.enabled {
		out = append(out, n)
	}
	return out
}
