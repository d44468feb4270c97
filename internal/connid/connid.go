// Package connid hands out the unique, monotonically increasing
// connection identifiers described in §3 ("Connection... Unique
// monotonic identifier"). It is deliberately its own leaf package so that
// the store, channel, dispatch, and connection packages can all reference
// the identifier type without creating an import cycle.
package connid

import (
	"strconv"
	"sync/atomic"
)

// ID is a connection's unique, monotonically increasing identifier.
type ID uint64

// String renders the id for logging/debugging.
func (id ID) String() string {
	return strconv.FormatUint(uint64(id), 10)
}

var counter uint64

// New returns the next monotonic connection identifier. It is never zero,
// so the zero value of ID can be used as a "no connection" sentinel.
func New() ID {
	return ID(atomic.AddUint64(&counter, 1))
}
