// Package connection implements the per-session connection actor (§4.4):
// the task that exclusively owns one TCP stream, drives the registration
// state machine, enforces the rate limiter and keepalive policy, and
// renders outbound envelopes per its own enabled capability set at the
// last moment before encoding (§9 "Capability gating at emit time").
package connection

import (
	"net"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/relayd/relayd/internal/capability"
	"github.com/relayd/relayd/internal/connid"
	"github.com/relayd/relayd/internal/metrics"
	"github.com/relayd/relayd/internal/ratelimit"
	"github.com/relayd/relayd/internal/store"
	"github.com/relayd/relayd/internal/wire"
)

// State is a connection's position in the registration state machine.
type State int

const (
	PreRegistration State = iota
	CapNegotiating
	Registered
	Closing
)

// outboundCapacity bounds a connection's outbound queue (§5 backpressure
// policy: "Outbound queues are bounded (256 messages)").
const outboundCapacity = 256

// keepaliveInterval is how often a PING is sent to every connection,
// whether or not it has been active.
const keepaliveInterval = 120 * time.Second

// Router is the subset of the server dispatcher's surface a connection
// actor needs: once registered, every command not handled locally (CAP,
// PASS, NICK, USER, PING, PONG, QUIT, AUTHENTICATE) is handed to Route.
// Defining this interface here, rather than importing internal/dispatch
// directly, keeps dispatch free to import connection (for its concrete
// store.Connection implementation) without a cycle.
type Router interface {
	Route(conn store.Connection, msg wire.Message)
}

// Conn is one client session. It implements store.Connection.
type Conn struct {
	id         connid.ID
	netConn    net.Conn
	reader     *wire.Reader
	serverName string

	st       *store.Store
	router   Router
	limiter  *ratelimit.Limiter
	log      *logrus.Entry
	caps     *capability.Set
	metrics  *metrics.Metrics

	createdAt time.Time

	mu           sync.Mutex
	nick         string
	user         string
	realname     string
	account      string
	host         string
	registered   bool
	state        State
	capNegotiating bool
	lastActivity time.Time
	pingToken    string
	pingOutstanding bool

	outbound  chan wire.Envelope
	closing   chan struct{}
	closeOnce sync.Once
	quitReason string

	motd    []string
	version string
}

// SetMOTD supplies the message-of-the-day lines (already split, one per
// line) emitted during the promotion sequence. An empty slice causes
// ERR_NOMOTD instead.
func (c *Conn) SetMOTD(lines []string) { c.motd = lines }

// SetVersion supplies the server version string reported in RPL_MYINFO.
func (c *Conn) SetVersion(v string) { c.version = v }

// SetMetrics attaches the shared metrics registry. Left nil (the
// zero value), every counter increment silently no-ops, so metrics
// remain genuinely optional per §4.14.
func (c *Conn) SetMetrics(m *metrics.Metrics) { c.metrics = m }

// SetLimiter overrides the default flood-control limiter with one tuned
// from the on-disk configuration (§4.13's ratelimit block).
func (c *Conn) SetLimiter(l *ratelimit.Limiter) { c.limiter = l }

// New builds a Conn for a freshly-accepted TCP stream. The caller must
// invoke Run in its own goroutine (normally via internal/supervise).
func New(id connid.ID, nc net.Conn, serverName string, st *store.Store, router Router, log *logrus.Entry) *Conn {
	host, _, err := net.SplitHostPort(nc.RemoteAddr().String())
	if err != nil {
		host = nc.RemoteAddr().String()
	}
	now := time.Now()
	return &Conn{
		id:         id,
		netConn:    nc,
		reader:     wire.NewReader(nc),
		serverName: serverName,
		st:         st,
		router:     router,
		limiter:    ratelimit.NewDefault(),
		log:        log.WithField("conn_id", id.String()).WithField("remote_addr", host),
		caps:       capability.NewSet(),
		createdAt:  now,
		lastActivity: now,
		host:       host,
		state:      PreRegistration,
		outbound:   make(chan wire.Envelope, outboundCapacity),
		closing:    make(chan struct{}),
	}
}

// ID implements store.Connection.
func (c *Conn) ID() connid.ID { return c.id }

// Nick implements store.Connection.
func (c *Conn) Nick() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.nick
}

// User implements store.Connection.
func (c *Conn) User() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.user
}

// RealName implements store.Connection.
func (c *Conn) RealName() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.realname
}

// Account implements store.Connection.
func (c *Conn) Account() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.account
}

// Host implements store.Connection.
func (c *Conn) Host() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.host
}

// Mask implements store.Connection: nick!user@host.
func (c *Conn) Mask() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.nick + "!" + c.user + "@" + c.host
}

// Registered implements store.Connection.
func (c *Conn) Registered() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.registered
}

// Caps implements store.Connection. The set itself is only ever mutated
// from this connection's own goroutine (during CAP REQ handling), so it
// is safe to hand out the pointer directly.
func (c *Conn) Caps() *capability.Set { return c.caps }

// EnqueueOutbound implements store.Connection.
func (c *Conn) EnqueueOutbound(env wire.Envelope) bool {
	select {
	case <-c.closing:
		return false
	default:
	}
	select {
	case c.outbound <- env:
		return true
	default:
		return false
	}
}

// Close implements store.Connection: it is safe to call from any
// goroutine and idempotent.
func (c *Conn) Close(reason string) {
	c.closeOnce.Do(func() {
		c.mu.Lock()
		c.quitReason = reason
		c.state = Closing
		c.mu.Unlock()
		close(c.closing)
	})
}

func (c *Conn) setState(s State) {
	c.mu.Lock()
	c.state = s
	c.mu.Unlock()
}

func (c *Conn) getState() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

func (c *Conn) touch() {
	c.mu.Lock()
	c.lastActivity = time.Now()
	c.mu.Unlock()
}
