package validate

import (
	"strings"
	"testing"
)

func TestNickname(t *testing.T) {
	cases := map[string]bool{
		"alice":        true,
		"_bob":         true,
		"[bot]":        true,
		"a1-2^3":       true,
		"":             false,
		"1abc":         false,
		"has space":    false,
		strings.Repeat("a", MaxNickLength+1): false,
	}
	for in, want := range cases {
		if got := Nickname(in); got != want {
			t.Errorf("Nickname(%q) = %v, want %v", in, got, want)
		}
	}
}

func TestFoldNickASCIIOnly(t *testing.T) {
	if got := FoldNick("AlicE[Bot]"); got != "alice[bot]" {
		t.Fatalf("FoldNick = %q", got)
	}
	// The alternate rfc1459 collation folds {}|^ to []\~; this server's
	// CASEMAPPING=ascii contract must not do that.
	if got := FoldNick("{x}"); got != "{x}" {
		t.Fatalf("FoldNick must not collate {} to [], got %q", got)
	}
}

func TestChannelName(t *testing.T) {
	cases := map[string]bool{
		"#general":   true,
		"&local":     true,
		"general":    false,
		"":           false,
		"#has space": false,
		"#a,b":       false,
	}
	for in, want := range cases {
		if got := ChannelName(in); got != want {
			t.Errorf("ChannelName(%q) = %v, want %v", in, got, want)
		}
	}
}

func TestMessageBody(t *testing.T) {
	if !MessageBody("hello") {
		t.Fatal("plain text should be valid")
	}
	if MessageBody("") {
		t.Fatal("empty body should be invalid")
	}
	if MessageBody("has\x00nul") {
		t.Fatal("NUL byte must be rejected")
	}
	if MessageBody("has\r\nline") {
		t.Fatal("CRLF must be rejected")
	}
	if !MessageBody(strings.Repeat("a", MaxMessageLength)) {
		t.Fatal("exactly MaxMessageLength should be valid")
	}
	if MessageBody(strings.Repeat("a", MaxMessageLength+1)) {
		t.Fatal("over MaxMessageLength should be invalid")
	}
}

func TestTopicAllowsEmpty(t *testing.T) {
	if !Topic("") {
		t.Fatal("empty topic clears and must be valid")
	}
	if !Topic("Welcome!") {
		t.Fatal("ordinary topic should be valid")
	}
}

func TestReasonLength(t *testing.T) {
	if !Reason(strings.Repeat("a", MaxReasonLength)) {
		t.Fatal("exactly MaxReasonLength should be valid")
	}
	if Reason(strings.Repeat("a", MaxReasonLength+1)) {
		t.Fatal("over MaxReasonLength should be invalid")
	}
}
