package wire

import (
	"sort"
	"strings"
)

// tagPriority orders well-known tags first so server output is
// deterministic (and easy to assert on in tests); anything else follows
// in lexical order.
var tagPriority = map[string]int{
	"msgid": 0,
	"time":  1,
	"label": 2,
	"batch": 3,
	"account": 4,
}

func sortedTagKeys(tags Tags) []string {
	keys := make([]string, 0, len(tags))
	for k := range tags {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		pi, oki := tagPriority[keys[i]]
		pj, okj := tagPriority[keys[j]]
		switch {
		case oki && okj:
			return pi < pj
		case oki:
			return true
		case okj:
			return false
		default:
			return keys[i] < keys[j]
		}
	})
	return keys
}

// Format encodes a Message back into wire form, CRLF-terminated. Tag keys
// are emitted in sortedTagKeys order (well-known tags by tagPriority, then
// the rest lexically), so the output is deterministic.
func (m Message) Format() string {
	var b strings.Builder

	if len(m.Tags) > 0 {
		b.WriteByte('@')
		for i, k := range sortedTagKeys(m.Tags) {
			if i > 0 {
				b.WriteByte(';')
			}
			b.WriteString(k)
			if v := m.Tags[k]; v != "" {
				b.WriteByte('=')
				b.WriteString(escapeTagValue(v))
			}
		}
		b.WriteByte(' ')
	}

	if m.Prefix != "" {
		b.WriteByte(':')
		b.WriteString(m.Prefix)
		b.WriteByte(' ')
	}

	b.WriteString(m.Command)

	for i, p := range m.Params {
		b.WriteByte(' ')
		last := i == len(m.Params)-1
		if last && needsTrailing(p) {
			b.WriteByte(':')
		}
		b.WriteString(p)
	}

	b.WriteString("\r\n")
	return b.String()
}

// needsTrailing reports whether the final parameter must be prefixed with
// ':' to round-trip: it contains a space, begins with ':', or is empty.
func needsTrailing(p string) bool {
	return p == "" || p[0] == ':' || strings.ContainsRune(p, ' ')
}
