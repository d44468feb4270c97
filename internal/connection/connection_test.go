package connection

import (
	"net"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"

	"github.com/relayd/relayd/internal/connid"
	"github.com/relayd/relayd/internal/store"
	"github.com/relayd/relayd/internal/wire"
)

type noopRouter struct{}

func (noopRouter) Route(store.Connection, wire.Message) {}

func newTestConn(t *testing.T) (*Conn, net.Conn) {
	t.Helper()
	server, client := net.Pipe()
	t.Cleanup(func() { client.Close() })

	log, _ := test.NewNullLogger()
	entry := logrus.NewEntry(log)
	st := store.New()
	c := New(connid.New(), server, "relay.example", st, noopRouter{}, entry)
	return c, client
}

func TestNewConnStartsPreRegistrationWithNoNick(t *testing.T) {
	c, _ := newTestConn(t)
	if c.Nick() != "" {
		t.Fatalf("Nick() = %q, want empty before registration", c.Nick())
	}
	if c.getState() != PreRegistration {
		t.Fatalf("state = %v, want PreRegistration", c.getState())
	}
	if c.Registered() {
		t.Fatal("Registered() should be false before the handshake completes")
	}
}

func TestMaskFormat(t *testing.T) {
	c, _ := newTestConn(t)
	c.mu.Lock()
	c.nick = "alice"
	c.user = "a"
	c.host = "host.example"
	c.mu.Unlock()

	if got := c.Mask(); got != "alice!a@host.example" {
		t.Fatalf("Mask() = %q", got)
	}
}

func TestEnqueueOutboundFailsWhenFull(t *testing.T) {
	c, _ := newTestConn(t)
	env := wire.Envelope{Msg: wire.Message{Command: "PING"}}

	for i := 0; i < outboundCapacity; i++ {
		if !c.EnqueueOutbound(env) {
			t.Fatalf("EnqueueOutbound failed before reaching capacity at i=%d", i)
		}
	}
	if c.EnqueueOutbound(env) {
		t.Fatal("EnqueueOutbound should fail once the outbound queue is full")
	}
}

func TestCloseIsIdempotent(t *testing.T) {
	c, _ := newTestConn(t)
	c.Close("bye")
	c.Close("bye again") // must not panic on double-close

	select {
	case <-c.closing:
	default:
		t.Fatal("closing channel should be closed")
	}
	if c.getState() != Closing {
		t.Fatalf("state = %v, want Closing", c.getState())
	}
}

func TestSetLimiterOverridesDefault(t *testing.T) {
	c, _ := newTestConn(t)
	original := c.limiter
	c.SetLimiter(nil)
	if c.limiter == original {
		t.Fatal("SetLimiter did not override the default limiter")
	}
}
