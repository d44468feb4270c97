package mask

import "testing"

func TestMatches(t *testing.T) {
	cases := []struct {
		pattern, full string
		want          bool
	}{
		{"*!*@*", "alice!a@host.example", true},
		{"alice!*@*", "alice!a@host.example", true},
		{"bob!*@*", "alice!a@host.example", false},
		{"*!*@*.example", "alice!a@host.example", true},
		{"*!*@*.example", "alice!a@host.other", false},
		{"a?ice!*@*", "alice!a@host.example", true},
		{"ALICE!*@*", "alice!a@host.example", true},
		{"*", "anything", true},
	}
	for _, c := range cases {
		if got := Matches(c.pattern, c.full); got != c.want {
			t.Errorf("Matches(%q, %q) = %v, want %v", c.pattern, c.full, got, c.want)
		}
	}
}
