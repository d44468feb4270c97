// Package ircid generates stable, globally unique, lexicographically
// ~time-ordered message identifiers for history items (§3 "History
// item"). A monotonic counter disambiguates ids minted within the same
// millisecond; plain UUIDs were deliberately not used here since the
// selector-resolution contract in §4.8 requires lexical ordering to track
// arrival order, which an opaque random UUID does not provide.
package ircid

import (
	"encoding/base32"
	"encoding/binary"
	"sync/atomic"
	"time"
)

var counter uint32

var enc = base32.NewEncoding("0123456789abcdefghijklmnopqrstuv").WithPadding(base32.NoPadding)

// New returns a fresh id anchored to t, monotonic across calls within the
// same process even when t does not advance between them.
func New(t time.Time) string {
	seq := atomic.AddUint32(&counter, 1)

	var buf [12]byte
	binary.BigEndian.PutUint64(buf[0:8], uint64(t.UnixMilli()))
	binary.BigEndian.PutUint32(buf[8:12], seq)

	return enc.EncodeToString(buf[:])
}
