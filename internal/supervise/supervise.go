// Package supervise provides structured goroutine lifecycle management
// for connection actors and channel coordinators (§5 "supervision
// detail"): a small wrapper around sourcegraph/conc's WaitGroup that
// recovers a panicking actor locally — logging it and letting that one
// actor exit — rather than letting conc's own re-panic-in-Wait behaviour
// take down the whole group (§7's "internal invariant violation"
// disposition: isolate, don't crash the process).
package supervise

import (
	"github.com/sirupsen/logrus"
	"github.com/sourcegraph/conc"
)

// Group supervises a set of long-lived actor goroutines.
type Group struct {
	wg  conc.WaitGroup
	log *logrus.Entry
}

// New builds an empty Group.
func New(log *logrus.Entry) *Group {
	return &Group{log: log}
}

// Go launches fn as a supervised actor goroutine named name (used only
// for log attribution). A panic inside fn is recovered and logged; it
// never reaches conc's group-level panic propagation, so sibling actors
// and the calling Wait are unaffected.
func (g *Group) Go(name string, fn func()) {
	g.wg.Go(func() {
		defer func() {
			if r := recover(); r != nil {
				g.log.WithField("actor", name).WithField("panic", r).Error("actor panicked, isolating")
			}
		}()
		fn()
	})
}

// Wait blocks until every launched actor has returned (or been isolated
// after a panic).
func (g *Group) Wait() {
	g.wg.Wait()
}
