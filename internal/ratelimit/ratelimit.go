// Package ratelimit implements the per-connection flood-control policy
// (§4.3): a token bucket with capacity 10 refilling at 10 tokens/second.
// It is built directly on golang.org/x/time/rate, the same dependency the
// teacher client uses for its own outbound pacing.
package ratelimit

import "golang.org/x/time/rate"

// DefaultCapacity is the token-bucket burst size.
const DefaultCapacity = 10

// DefaultRefillPerSecond is the steady-state refill rate.
const DefaultRefillPerSecond = 10

// Limiter gates inbound message processing for one connection.
type Limiter struct {
	l *rate.Limiter
}

// New builds a Limiter with the given capacity and refill rate.
func New(capacity int, refillPerSecond float64) *Limiter {
	return &Limiter{l: rate.NewLimiter(rate.Limit(refillPerSecond), capacity)}
}

// NewDefault builds a Limiter with the server's default tuning.
func NewDefault() *Limiter {
	return New(DefaultCapacity, DefaultRefillPerSecond)
}

// Allow consumes one token for an inbound message. It returns false when
// the bucket is empty, at which point the caller must send
// "ERROR :Flood protection" and close the connection.
func (lim *Limiter) Allow() bool {
	return lim.l.Allow()
}
