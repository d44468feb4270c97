package numeric

import "testing"

func TestReplyShape(t *testing.T) {
	m := Reply("relay.example", "alice", RPL_WELCOME, "Welcome to relayd")
	if m.Prefix != "relay.example" {
		t.Errorf("Prefix = %q", m.Prefix)
	}
	if m.Command != "001" {
		t.Errorf("Command = %q", m.Command)
	}
	if m.Param(0) != "alice" {
		t.Errorf("Param(0) = %q", m.Param(0))
	}
	if m.Trailing() != "Welcome to relayd" {
		t.Errorf("Trailing() = %q", m.Trailing())
	}
}

func TestReplyfFormatsTrailing(t *testing.T) {
	m := Replyf("relay.example", "bob", RPL_AWAY, []string{"bob"}, "%s is away", "bob")
	if m.Trailing() != "bob is away" {
		t.Errorf("Trailing() = %q", m.Trailing())
	}
}

func TestStandardReplyShape(t *testing.T) {
	m := StandardReply(Fail, "CHATHISTORY", CodeInvalidParams, []string{"BEFORE"}, "bad selector")
	if m.Command != "FAIL" {
		t.Errorf("Command = %q", m.Command)
	}
	want := []string{"CHATHISTORY", CodeInvalidParams, "BEFORE", "bad selector"}
	if len(m.Params) != len(want) {
		t.Fatalf("Params = %+v, want %+v", m.Params, want)
	}
	for i := range want {
		if m.Params[i] != want[i] {
			t.Errorf("Params[%d] = %q, want %q", i, m.Params[i], want[i])
		}
	}
}
