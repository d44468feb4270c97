// Package validate implements the syntax rules for nicknames, channel
// names, topics, message bodies, and reasons (§4.2). It has no username
// rule.
package validate

import "strings"

const (
	// MaxNickLength is the longest a nickname may be.
	MaxNickLength = 30
	// MaxChannelLength is the longest a channel name may be.
	MaxChannelLength = 50
	// MaxMessageLength is the longest a message body may be, in octets.
	MaxMessageLength = 512
	// MaxTopicLength is the longest a topic may be, in octets.
	MaxTopicLength = 390
	// MaxReasonLength is the longest an away/kick/quit reason may be.
	MaxReasonLength = 255
)

const nickSpecial = "_[]{}\\|"
const nickSpecialRest = "_-[]{}\\|^`"
const channelPrefixes = "#&"

func isLetter(b byte) bool {
	return (b >= 'a' && b <= 'z') || (b >= 'A' && b <= 'Z')
}

func isDigit(b byte) bool {
	return b >= '0' && b <= '9'
}

// Nickname reports whether s is a syntactically valid nickname.
func Nickname(s string) bool {
	if s == "" || len(s) > MaxNickLength {
		return false
	}
	if !isLetter(s[0]) && !strings.ContainsRune(nickSpecial, rune(s[0])) {
		return false
	}
	for i := 1; i < len(s); i++ {
		b := s[i]
		if isLetter(b) || isDigit(b) || strings.ContainsRune(nickSpecialRest, rune(b)) {
			continue
		}
		return false
	}
	return true
}

// FoldNick case-folds a nickname for comparison using plain ASCII
// lower-casing, per the relay's CASEMAPPING=ascii advertisement. It
// deliberately does NOT fold {}|^ to []\~ (the alternate "rfc1459"
// collation), matching the server's ISUPPORT contract.
func FoldNick(s string) string {
	b := []byte(s)
	for i, c := range b {
		if c >= 'A' && c <= 'Z' {
			b[i] = c + ('a' - 'A')
		}
	}
	return string(b)
}

// ChannelName reports whether s is a syntactically valid channel name.
// '!' and '+' are recognised as channel-type sigils by some commands but
// are not accepted as the leading character here since this server only
// creates '#' and '&' channels.
func ChannelName(s string) bool {
	if len(s) < 1 || len(s) > MaxChannelLength {
		return false
	}
	if !strings.ContainsRune(channelPrefixes, rune(s[0])) {
		return false
	}
	for i := 1; i < len(s); i++ {
		switch s[i] {
		case ' ', 0, '\r', '\n', ',', ':':
			return false
		}
	}
	return true
}

// FoldChannel case-folds a channel name for comparison, same rule as
// FoldNick.
func FoldChannel(s string) string { return FoldNick(s) }

// MessageBody reports whether s is an acceptable PRIVMSG/NOTICE/TAGMSG
// body: 1-512 octets, no NUL/CR/LF.
func MessageBody(s string) bool {
	if len(s) < 1 || len(s) > MaxMessageLength {
		return false
	}
	return !containsForbidden(s)
}

// Topic reports whether s is an acceptable topic: up to 390 octets, no
// NUL/CR/LF. An empty topic (clearing) is allowed.
func Topic(s string) bool {
	return len(s) <= MaxTopicLength && !containsForbidden(s)
}

// Reason reports whether s is an acceptable away/kick/quit reason.
func Reason(s string) bool {
	return len(s) <= MaxReasonLength && !containsForbidden(s)
}

func containsForbidden(s string) bool {
	for i := 0; i < len(s); i++ {
		switch s[i] {
		case 0, '\r', '\n':
			return true
		}
	}
	return false
}
