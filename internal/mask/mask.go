// Package mask implements nick!user@host ban-mask matching with '*' and
// '?' wildcards.
package mask

import "strings"

// Matches reports whether mask (a nick!user@host pattern with '*' and '?'
// wildcards) matches the literal nick!user@host string full.
// Matching is case-insensitive on the whole string, mirroring how real
// servers fold hostmasks for comparison.
func Matches(pattern, full string) bool {
	return globMatch(strings.ToLower(pattern), strings.ToLower(full))
}

// globMatch is a small recursive '*'/'?' matcher; patterns in ban lists
// are short so the recursion depth is bounded in practice.
func globMatch(pattern, s string) bool {
	for len(pattern) > 0 {
		switch pattern[0] {
		case '*':
			// Collapse consecutive '*'.
			for len(pattern) > 0 && pattern[0] == '*' {
				pattern = pattern[1:]
			}
			if len(pattern) == 0 {
				return true
			}
			for i := 0; i <= len(s); i++ {
				if globMatch(pattern, s[i:]) {
					return true
				}
			}
			return false
		case '?':
			if len(s) == 0 {
				return false
			}
			pattern = pattern[1:]
			s = s[1:]
		default:
			if len(s) == 0 || s[0] != pattern[0] {
				return false
			}
			pattern = pattern[1:]
			s = s[1:]
		}
	}
	return len(s) == 0
}
