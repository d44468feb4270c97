// Package channel implements the per-channel coordinator actor (§4.5):
// the single-writer owner of one channel's membership, modes, topic, and
// ban/exempt/invite lists, serialising every channel-scoped operation
// through its inbound queue so that broadcast fanout is atomic with
// respect to membership changes (§9 "Per-channel actor vs locking").
package channel

import (
	"context"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/relayd/relayd/internal/chanop"
	"github.com/relayd/relayd/internal/connid"
	"github.com/relayd/relayd/internal/history"
	"github.com/relayd/relayd/internal/mask"
	"github.com/relayd/relayd/internal/store"
)

// queueCapacity bounds the coordinator's inbound operation queue. Posting
// beyond this blocks the caller, which is the suspension point §5 calls
// out for sends to a channel coordinator's queue.
const queueCapacity = 64

// outboundFailThreshold is how many consecutive skipped deliveries to a
// member cause that member's connection to be closed (§5 backpressure
// policy). The close happens at once, on the delivery that reaches the
// threshold; it is not deferred to the next keepalive tick.
const outboundFailThreshold = 2

type member struct {
	joined     time.Time
	operator   bool
	voice      bool
	skips      int
}

// Coordinator is one channel's single-writer actor.
type Coordinator struct {
	name       string
	serverName string
	store      *store.Store
	history    *history.Buffer
	log        *logrus.Entry

	queue chan chanop.Op
	done  chan struct{}

	created time.Time

	topic       string
	topicSetter string
	topicTime   time.Time

	invite     bool
	noExternal bool
	moderated  bool
	secret     bool
	private    bool
	opTopic    bool
	key        string
	hasKey     bool
	limit      int
	hasLimit   bool

	members map[connid.ID]*member

	bans          map[string]struct{}
	exempts       map[string]struct{}
	inviteExempts map[string]struct{}
	invited       map[string]struct{} // case-folded nicknames, cleared on join

	onEmpty func(c *Coordinator) // called once membership drops to zero
}

// New builds a Coordinator for a freshly-created channel. The caller is
// responsible for registering it with the store and starting Run in its
// own goroutine (normally via internal/supervise).
func New(name, serverName string, st *store.Store, hist *history.Buffer, log *logrus.Entry, onEmpty func(*Coordinator)) *Coordinator {
	return &Coordinator{
		name:          name,
		serverName:    serverName,
		store:         st,
		history:       hist,
		log:           log.WithField("channel", name),
		queue:         make(chan chanop.Op, queueCapacity),
		done:          make(chan struct{}),
		created:       time.Now(),
		members:       make(map[connid.ID]*member),
		bans:          make(map[string]struct{}),
		exempts:       make(map[string]struct{}),
		inviteExempts: make(map[string]struct{}),
		invited:       make(map[string]struct{}),
		onEmpty:       onEmpty,
	}
}

// Name implements store.Channel.
func (c *Coordinator) Name() string { return c.name }

// Post implements store.Channel.
func (c *Coordinator) Post(op chanop.Op) bool {
	select {
	case c.queue <- op:
		return true
	case <-c.done:
		return false
	}
}

// Run drives the coordinator's serial processing loop until a Terminate
// op is processed or ctx is cancelled. It must be called exactly once,
// from its own goroutine.
func (c *Coordinator) Run(ctx context.Context) {
	defer close(c.done)
	for {
		select {
		case op := <-c.queue:
			if op.Kind == chanop.Terminate {
				return
			}
			c.handle(op)
		case <-ctx.Done():
			return
		}
	}
}

func (c *Coordinator) handle(op chanop.Op) {
	switch op.Kind {
	case chanop.Join:
		c.handleJoin(op)
	case chanop.Part:
		c.handlePart(op)
	case chanop.Quit:
		c.handleQuit(op)
	case chanop.Message:
		c.handleMessage(op)
	case chanop.SetTopic:
		c.handleSetTopic(op)
	case chanop.Kick:
		c.handleKick(op)
	case chanop.Mode:
		c.handleMode(op)
	case chanop.Invite:
		c.handleInvite(op)
	case chanop.Snapshot:
		c.handleSnapshot(op)
	}
}

// conn resolves an operation's acting connection via the store. Absence
// is legitimate (the connection may have vanished) and handled by the
// caller as "this recipient is gone" (§9 "Indirection over direct
// references").
func (c *Coordinator) conn(id connid.ID) (store.Connection, bool) {
	return c.store.Connection(id)
}

func (c *Coordinator) isMember(id connid.ID) bool {
	_, ok := c.members[id]
	return ok
}

func (c *Coordinator) banMatches(conn store.Connection) bool {
	m := conn.Mask()
	for b := range c.bans {
		if mask.Matches(b, m) {
			if c.exemptMatches(m) {
				return false
			}
			return true
		}
	}
	return false
}

func (c *Coordinator) exemptMatches(full string) bool {
	for e := range c.exempts {
		if mask.Matches(e, full) {
			return true
		}
	}
	return false
}

func (c *Coordinator) inviteExemptMatches(full string) bool {
	for e := range c.inviteExempts {
		if mask.Matches(e, full) {
			return true
		}
	}
	return false
}
