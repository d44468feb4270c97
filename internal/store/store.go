// Package store holds the authoritative, in-memory, global state of the
// relay (§3 "State store", §5 "Global indexes"): the connection registry,
// the case-insensitive nickname index, and the channel-name registry. All
// three are guarded by a single read-mostly lock, matching the design's
// "Global indexes ... are guarded by a single read-mostly lock; writes
// (NICK, channel create/destroy) take the write side."
package store

import (
	"sync"

	"github.com/relayd/relayd/internal/capability"
	"github.com/relayd/relayd/internal/chanop"
	"github.com/relayd/relayd/internal/connid"
	"github.com/relayd/relayd/internal/validate"
	"github.com/relayd/relayd/internal/wire"
)

// Connection is the subset of a connection actor's surface that the rest
// of the server needs: the store, the dispatcher, and channel
// coordinators interact with connections only through this interface,
// never a concrete struct, matching §9 "Indirection over direct
// references."
type Connection interface {
	ID() connid.ID
	Nick() string
	User() string
	RealName() string
	Account() string
	Host() string
	Mask() string // nick!user@host
	Registered() bool
	Caps() *capability.Set
	// EnqueueOutbound delivers env to this connection's outbound queue.
	// It returns false if the queue was full (the caller must treat this
	// as a skipped delivery, per §5 backpressure policy) or the
	// connection is already closing.
	EnqueueOutbound(env wire.Envelope) bool
	// Close tears the connection down with the given human-readable
	// reason (used for QUIT broadcast text and the ERROR line).
	Close(reason string)
}

// Channel is the subset of a channel coordinator's surface the rest of
// the server needs.
type Channel interface {
	Name() string
	// Post enqueues op on the coordinator's serial inbound queue. It
	// blocks if the queue is full (queueing is itself a suspension
	// point, per §5), and returns false only if the coordinator has
	// already exited.
	Post(op chanop.Op) bool
}

// Store is the global, shared state: connections, the nickname index, and
// the channel registry.
type Store struct {
	mu sync.RWMutex

	conns map[connid.ID]Connection
	nicks map[string]connid.ID // case-folded nickname -> connection id

	channels map[string]Channel // case-folded channel name -> coordinator handle
}

// New returns an empty Store.
func New() *Store {
	return &Store{
		conns:    make(map[connid.ID]Connection),
		nicks:    make(map[string]connid.ID),
		channels: make(map[string]Channel),
	}
}

// AddConnection registers a newly-accepted connection. It has no
// nickname yet; ClaimNick claims one later.
func (s *Store) AddConnection(c Connection) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.conns[c.ID()] = c
}

// RemoveConnection removes a connection and, if it held one, its
// nickname-index entry. It is idempotent.
func (s *Store) RemoveConnection(id connid.ID) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.conns[id]
	if !ok {
		return
	}
	delete(s.conns, id)
	if nick := validate.FoldNick(c.Nick()); nick != "" {
		if cur, ok := s.nicks[nick]; ok && cur == id {
			delete(s.nicks, nick)
		}
	}
}

// Connection looks up a live connection by id.
func (s *Store) Connection(id connid.ID) (Connection, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	c, ok := s.conns[id]
	return c, ok
}

// ConnectionByNick resolves a nickname to its connection, case-folded.
func (s *Store) ConnectionByNick(nick string) (Connection, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	id, ok := s.nicks[validate.FoldNick(nick)]
	if !ok {
		return nil, false
	}
	c, ok := s.conns[id]
	return c, ok
}

// AllConnections returns a snapshot slice of every registered connection.
func (s *Store) AllConnections() []Connection {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]Connection, 0, len(s.conns))
	for _, c := range s.conns {
		out = append(out, c)
	}
	return out
}

// ClaimNick atomically reassigns id's nickname index entry from its
// previous nickname (if any) to newNick, failing (returning false) if
// newNick is already held by a different connection. This is the
// compare-and-swap §5 mandates: "updates are always compare-and-swap
// (check-then-insert under the write lock)."
func (s *Store) ClaimNick(id connid.ID, oldNick, newNick string) bool {
	folded := validate.FoldNick(newNick)

	s.mu.Lock()
	defer s.mu.Unlock()

	if holder, ok := s.nicks[folded]; ok && holder != id {
		return false
	}

	if oldNick != "" {
		if holder, ok := s.nicks[validate.FoldNick(oldNick)]; ok && holder == id {
			delete(s.nicks, validate.FoldNick(oldNick))
		}
	}
	s.nicks[folded] = id
	return true
}

// Channel looks up a channel by name, case-folded.
func (s *Store) Channel(name string) (Channel, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	ch, ok := s.channels[validate.FoldChannel(name)]
	return ch, ok
}

// AddChannel registers a newly-created channel coordinator.
func (s *Store) AddChannel(ch Channel) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.channels[validate.FoldChannel(ch.Name())] = ch
}

// RemoveChannel unregisters a channel, e.g. once its last member parts.
// It is a no-op if another channel has since been registered under the
// same name (can't happen under correct sequencing, but guards against
// stale-teardown races).
func (s *Store) RemoveChannel(name string, expect Channel) {
	s.mu.Lock()
	defer s.mu.Unlock()
	folded := validate.FoldChannel(name)
	if cur, ok := s.channels[folded]; ok && cur == expect {
		delete(s.channels, folded)
	}
}

// AllChannels returns a snapshot slice of every registered channel.
func (s *Store) AllChannels() []Channel {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]Channel, 0, len(s.channels))
	for _, ch := range s.channels {
		out = append(out, ch)
	}
	return out
}

// ChannelCount reports how many channels are currently registered (for
// the STATS reply).
func (s *Store) ChannelCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.channels)
}

// ConnectionCount reports how many connections are currently registered.
func (s *Store) ConnectionCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.conns)
}
