package store

import (
	"testing"

	"github.com/relayd/relayd/internal/capability"
	"github.com/relayd/relayd/internal/chanop"
	"github.com/relayd/relayd/internal/connid"
	"github.com/relayd/relayd/internal/wire"
)

type fakeConn struct {
	id   connid.ID
	nick string
}

func (f *fakeConn) ID() connid.ID               { return f.id }
func (f *fakeConn) Nick() string                { return f.nick }
func (f *fakeConn) User() string                { return "u" }
func (f *fakeConn) RealName() string            { return "r" }
func (f *fakeConn) Account() string             { return "" }
func (f *fakeConn) Host() string                { return "h" }
func (f *fakeConn) Mask() string                { return f.nick + "!u@h" }
func (f *fakeConn) Registered() bool            { return true }
func (f *fakeConn) Caps() *capability.Set       { return capability.NewSet() }
func (f *fakeConn) EnqueueOutbound(wire.Envelope) bool { return true }
func (f *fakeConn) Close(string)                {}

type fakeChannel struct{ name string }

func (f *fakeChannel) Name() string          { return f.name }
func (f *fakeChannel) Post(chanop.Op) bool   { return true }

func TestAddAndRemoveConnection(t *testing.T) {
	s := New()
	c := &fakeConn{id: connid.New(), nick: "alice"}
	s.AddConnection(c)

	got, ok := s.Connection(c.ID())
	if !ok || got != c {
		t.Fatal("Connection() did not return the added connection")
	}
	if s.ConnectionCount() != 1 {
		t.Fatalf("ConnectionCount() = %d, want 1", s.ConnectionCount())
	}

	s.RemoveConnection(c.ID())
	if _, ok := s.Connection(c.ID()); ok {
		t.Fatal("Connection() returned a removed connection")
	}
	if s.ConnectionCount() != 0 {
		t.Fatalf("ConnectionCount() = %d, want 0", s.ConnectionCount())
	}
}

func TestRemoveConnectionIsIdempotent(t *testing.T) {
	s := New()
	id := connid.New()
	s.RemoveConnection(id) // must not panic on an unknown id
}

func TestClaimNickCompareAndSwap(t *testing.T) {
	s := New()
	a := connid.New()
	b := connid.New()

	if !s.ClaimNick(a, "", "alice") {
		t.Fatal("first claim of a free nickname should succeed")
	}
	if s.ClaimNick(b, "", "alice") {
		t.Fatal("claiming a nickname already held by another connection should fail")
	}
	if !s.ClaimNick(a, "alice", "alice2") {
		t.Fatal("renaming one's own claimed nickname should succeed")
	}
	if !s.ClaimNick(b, "", "alice") {
		t.Fatal("the freed nickname should now be claimable by another connection")
	}
}

func TestClaimNickIsCaseFolded(t *testing.T) {
	s := New()
	a := connid.New()
	b := connid.New()
	if !s.ClaimNick(a, "", "Alice") {
		t.Fatal("claim should succeed")
	}
	if s.ClaimNick(b, "", "ALICE") {
		t.Fatal("case-folded collision should be rejected")
	}
}

func TestConnectionByNick(t *testing.T) {
	s := New()
	c := &fakeConn{id: connid.New(), nick: "alice"}
	s.AddConnection(c)
	s.ClaimNick(c.ID(), "", "alice")

	got, ok := s.ConnectionByNick("ALICE")
	if !ok || got != c {
		t.Fatal("ConnectionByNick should be case-insensitive")
	}
}

func TestRemoveConnectionClearsNickIndex(t *testing.T) {
	s := New()
	c := &fakeConn{id: connid.New(), nick: "alice"}
	s.AddConnection(c)
	s.ClaimNick(c.ID(), "", "alice")
	s.RemoveConnection(c.ID())

	if _, ok := s.ConnectionByNick("alice"); ok {
		t.Fatal("nickname index should be cleared when its connection is removed")
	}
}

func TestAddAndRemoveChannel(t *testing.T) {
	s := New()
	ch := &fakeChannel{name: "#chan"}
	s.AddChannel(ch)

	got, ok := s.Channel("#CHAN")
	if !ok || got != ch {
		t.Fatal("Channel() should be case-insensitive and return the added channel")
	}
	if s.ChannelCount() != 1 {
		t.Fatalf("ChannelCount() = %d, want 1", s.ChannelCount())
	}

	s.RemoveChannel("#chan", ch)
	if _, ok := s.Channel("#chan"); ok {
		t.Fatal("Channel() returned a removed channel")
	}
}

func TestRemoveChannelGuardsAgainstStaleHandle(t *testing.T) {
	s := New()
	first := &fakeChannel{name: "#chan"}
	second := &fakeChannel{name: "#chan"}
	s.AddChannel(first)
	s.AddChannel(second) // simulates a recreated channel under the same name

	s.RemoveChannel("#chan", first) // stale handle: must not remove the live one
	if _, ok := s.Channel("#chan"); !ok {
		t.Fatal("RemoveChannel with a stale handle should not remove the current channel")
	}
}

func TestAllConnectionsAndAllChannels(t *testing.T) {
	s := New()
	s.AddConnection(&fakeConn{id: connid.New(), nick: "a"})
	s.AddConnection(&fakeConn{id: connid.New(), nick: "b"})
	s.AddChannel(&fakeChannel{name: "#x"})

	if len(s.AllConnections()) != 2 {
		t.Fatalf("AllConnections() = %+v, want 2", s.AllConnections())
	}
	if len(s.AllChannels()) != 1 {
		t.Fatalf("AllChannels() = %+v, want 1", s.AllChannels())
	}
}
