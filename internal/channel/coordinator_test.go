package channel_test

import (
	"context"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/relayd/relayd/internal/capability"
	"github.com/relayd/relayd/internal/chanop"
	"github.com/relayd/relayd/internal/channel"
	"github.com/relayd/relayd/internal/connid"
	"github.com/relayd/relayd/internal/history"
	"github.com/relayd/relayd/internal/store"
	"github.com/relayd/relayd/internal/wire"
)

// fakeConn is a minimal store.Connection double that records every
// rendered message handed to it, standing in for a real TCP-backed
// connection actor.
type fakeConn struct {
	mu       sync.Mutex
	id       connid.ID
	nick     string
	user     string
	realname string
	account  string
	host     string
	caps     *capability.Set
	inbox    []wire.Message
	closed   bool
	closeMsg string
}

func newFakeConn(nick string) *fakeConn {
	return &fakeConn{
		id:   connid.New(),
		nick: nick,
		user: "u",
		host: "host.example",
		caps: capability.NewSet(),
	}
}

func (f *fakeConn) ID() connid.ID    { return f.id }
func (f *fakeConn) Nick() string     { return f.nick }
func (f *fakeConn) User() string     { return f.user }
func (f *fakeConn) RealName() string { return f.realname }
func (f *fakeConn) Account() string  { return f.account }
func (f *fakeConn) Host() string     { return f.host }
func (f *fakeConn) Mask() string     { return f.nick + "!" + f.user + "@" + f.host }
func (f *fakeConn) Registered() bool { return true }
func (f *fakeConn) Caps() *capability.Set { return f.caps }

func (f *fakeConn) EnqueueOutbound(env wire.Envelope) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.inbox = append(f.inbox, env.Render(false, false))
	return true
}

func (f *fakeConn) Close(reason string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.closed = true
	f.closeMsg = reason
}

func (f *fakeConn) messages() []wire.Message {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]wire.Message, len(f.inbox))
	copy(out, f.inbox)
	return out
}

func (f *fakeConn) commands() []string {
	var out []string
	for _, m := range f.messages() {
		out = append(out, m.Command)
	}
	return out
}

var _ = Describe("Coordinator", func() {
	var (
		st     *store.Store
		hist   *history.Buffer
		log    *logrus.Entry
		ctx    context.Context
		cancel context.CancelFunc
		coord  *channel.Coordinator
		emptied chan struct{}
	)

	BeforeEach(func() {
		st = store.New()
		hist = history.NewBuffer(100, time.Hour)
		base := logrus.New()
		base.SetOutput(GinkgoWriter)
		log = logrus.NewEntry(base)

		ctx, cancel = context.WithCancel(context.Background())
		emptied = make(chan struct{}, 1)
		coord = channel.New("#test", "relay.example", st, hist, log, func(c *channel.Coordinator) {
			select {
			case emptied <- struct{}{}:
			default:
			}
		})
		go coord.Run(ctx)
	})

	AfterEach(func() {
		cancel()
	})

	snapshot := func() chanop.Snapshot {
		reply := make(chan chanop.Snapshot, 1)
		Expect(coord.Post(chanop.Op{Kind: chanop.Snapshot, Reply: reply})).To(BeTrue())
		var snap chanop.Snapshot
		Eventually(reply).Should(Receive(&snap))
		return snap
	}

	It("makes the first joiner a channel operator", func() {
		alice := newFakeConn("alice")
		st.AddConnection(alice)
		Expect(coord.Post(chanop.Op{Kind: chanop.Join, Conn: alice.ID(), ConnNick: "alice", ConnMask: alice.Mask()})).To(BeTrue())

		Eventually(func() []chanop.MemberInfo { return snapshot().Members }).Should(HaveLen(1))
		snap := snapshot()
		Expect(snap.Members[0].Operator).To(BeTrue())
		Expect(alice.commands()).To(ContainElement("JOIN"))
	})

	It("broadcasts JOIN to existing members and sends topic/names to the joiner", func() {
		alice := newFakeConn("alice")
		bob := newFakeConn("bob")
		st.AddConnection(alice)
		st.AddConnection(bob)

		Expect(coord.Post(chanop.Op{Kind: chanop.Join, Conn: alice.ID(), ConnNick: "alice", ConnMask: alice.Mask()})).To(BeTrue())
		Eventually(func() []chanop.MemberInfo { return snapshot().Members }).Should(HaveLen(1))

		Expect(coord.Post(chanop.Op{Kind: chanop.Join, Conn: bob.ID(), ConnNick: "bob", ConnMask: bob.Mask()})).To(BeTrue())
		Eventually(func() []chanop.MemberInfo { return snapshot().Members }).Should(HaveLen(2))

		Eventually(alice.commands).Should(ContainElement("JOIN"))
		Eventually(bob.commands).Should(ContainElement("331")) // RPL_NOTOPIC: no topic set yet
		Eventually(bob.commands).Should(ContainElement("353")) // RPL_NAMREPLY
	})

	It("rejects a second join attempt from the same connection silently (idempotent)", func() {
		alice := newFakeConn("alice")
		st.AddConnection(alice)
		Expect(coord.Post(chanop.Op{Kind: chanop.Join, Conn: alice.ID(), ConnNick: "alice", ConnMask: alice.Mask()})).To(BeTrue())
		Eventually(func() []chanop.MemberInfo { return snapshot().Members }).Should(HaveLen(1))

		Expect(coord.Post(chanop.Op{Kind: chanop.Join, Conn: alice.ID(), ConnNick: "alice", ConnMask: alice.Mask()})).To(BeTrue())
		Consistently(func() []chanop.MemberInfo { return snapshot().Members }).Should(HaveLen(1))
	})

	It("relays a PRIVMSG to other members but not back to a non-echoing sender", func() {
		alice := newFakeConn("alice")
		bob := newFakeConn("bob")
		st.AddConnection(alice)
		st.AddConnection(bob)
		Expect(coord.Post(chanop.Op{Kind: chanop.Join, Conn: alice.ID(), ConnNick: "alice", ConnMask: alice.Mask()})).To(BeTrue())
		Expect(coord.Post(chanop.Op{Kind: chanop.Join, Conn: bob.ID(), ConnNick: "bob", ConnMask: bob.Mask()})).To(BeTrue())
		Eventually(func() []chanop.MemberInfo { return snapshot().Members }).Should(HaveLen(2))

		Expect(coord.Post(chanop.Op{
			Kind: chanop.Message, Conn: alice.ID(), ConnNick: "alice", ConnMask: alice.Mask(),
			MsgKind: chanop.PrivMsg, Text: "hello",
		})).To(BeTrue())

		Eventually(bob.commands).Should(ContainElement("PRIVMSG"))
		Consistently(alice.commands).ShouldNot(ContainElement("PRIVMSG"))
	})

	It("tears the channel down once the last member parts", func() {
		alice := newFakeConn("alice")
		st.AddConnection(alice)
		Expect(coord.Post(chanop.Op{Kind: chanop.Join, Conn: alice.ID(), ConnNick: "alice", ConnMask: alice.Mask()})).To(BeTrue())
		Eventually(func() []chanop.MemberInfo { return snapshot().Members }).Should(HaveLen(1))

		Expect(coord.Post(chanop.Op{Kind: chanop.Part, Conn: alice.ID(), ConnNick: "alice", ConnMask: alice.Mask()})).To(BeTrue())
		Eventually(emptied).Should(Receive())
	})

	It("updates the topic and reports it via Snapshot", func() {
		alice := newFakeConn("alice")
		st.AddConnection(alice)
		Expect(coord.Post(chanop.Op{Kind: chanop.Join, Conn: alice.ID(), ConnNick: "alice", ConnMask: alice.Mask()})).To(BeTrue())
		Eventually(func() []chanop.MemberInfo { return snapshot().Members }).Should(HaveLen(1))

		Expect(coord.Post(chanop.Op{Kind: chanop.SetTopic, Conn: alice.ID(), ConnNick: "alice", ConnMask: alice.Mask(), Topic: "welcome"})).To(BeTrue())
		Eventually(func() string { return snapshot().Topic }).Should(Equal("welcome"))
	})

	It("rejects join behind a channel key until the correct key is supplied", func() {
		alice := newFakeConn("alice")
		bob := newFakeConn("bob")
		st.AddConnection(alice)
		st.AddConnection(bob)
		Expect(coord.Post(chanop.Op{Kind: chanop.Join, Conn: alice.ID(), ConnNick: "alice", ConnMask: alice.Mask()})).To(BeTrue())
		Eventually(func() []chanop.MemberInfo { return snapshot().Members }).Should(HaveLen(1))

		Expect(coord.Post(chanop.Op{
			Kind: chanop.Mode, Conn: alice.ID(), ConnNick: "alice",
			ModeChanges: []chanop.ModeChange{{Add: true, Letter: 'k', Param: "secret"}},
		})).To(BeTrue())
		Eventually(func() bool { return snapshot().HasKey }).Should(BeTrue())

		Expect(coord.Post(chanop.Op{Kind: chanop.Join, Conn: bob.ID(), ConnNick: "bob", ConnMask: bob.Mask(), Key: "wrong"})).To(BeTrue())
		Consistently(func() []chanop.MemberInfo { return snapshot().Members }).Should(HaveLen(1))

		Expect(coord.Post(chanop.Op{Kind: chanop.Join, Conn: bob.ID(), ConnNick: "bob", ConnMask: bob.Mask(), Key: "secret"})).To(BeTrue())
		Eventually(func() []chanop.MemberInfo { return snapshot().Members }).Should(HaveLen(2))
	})

	It("rejects a PRIVMSG from a voiceless non-op in a moderated channel, then delivers it after +v", func() {
		alice := newFakeConn("alice")
		bob := newFakeConn("bob")
		st.AddConnection(alice)
		st.AddConnection(bob)
		st.ClaimNick(bob.ID(), "", "bob")
		Expect(coord.Post(chanop.Op{Kind: chanop.Join, Conn: alice.ID(), ConnNick: "alice", ConnMask: alice.Mask()})).To(BeTrue())
		Expect(coord.Post(chanop.Op{Kind: chanop.Join, Conn: bob.ID(), ConnNick: "bob", ConnMask: bob.Mask()})).To(BeTrue())
		Eventually(func() []chanop.MemberInfo { return snapshot().Members }).Should(HaveLen(2))

		Expect(coord.Post(chanop.Op{
			Kind: chanop.Mode, Conn: alice.ID(), ConnNick: "alice",
			ModeChanges: []chanop.ModeChange{{Add: true, Letter: 'm'}},
		})).To(BeTrue())
		Eventually(func() bool { return snapshot().Moderated }).Should(BeTrue())

		Expect(coord.Post(chanop.Op{
			Kind: chanop.Message, Conn: bob.ID(), ConnNick: "bob", ConnMask: bob.Mask(),
			MsgKind: chanop.PrivMsg, Text: "hello",
		})).To(BeTrue())
		Eventually(bob.commands).Should(ContainElement("404")) // ERR_CANNOTSENDTOCHAN
		Consistently(alice.commands).ShouldNot(ContainElement("PRIVMSG"))

		Expect(coord.Post(chanop.Op{
			Kind: chanop.Mode, Conn: alice.ID(), ConnNick: "alice",
			ModeChanges: []chanop.ModeChange{{Add: true, Letter: 'v', Param: "bob"}},
		})).To(BeTrue())

		Expect(coord.Post(chanop.Op{
			Kind: chanop.Message, Conn: bob.ID(), ConnNick: "bob", ConnMask: bob.Mask(),
			MsgKind: chanop.PrivMsg, Text: "hello again",
		})).To(BeTrue())
		Eventually(alice.commands).Should(ContainElement("PRIVMSG"))
	})
})
