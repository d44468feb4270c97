package ratelimit

import (
	"testing"
	"time"
)

func TestAllowBurstThenDeny(t *testing.T) {
	lim := New(3, 1)
	for i := 0; i < 3; i++ {
		if !lim.Allow() {
			t.Fatalf("token %d of burst capacity should be allowed", i)
		}
	}
	if lim.Allow() {
		t.Fatal("bucket should be empty after consuming its full burst")
	}
}

func TestAllowRefills(t *testing.T) {
	lim := New(1, 1000) // 1000/s refill makes the wait negligible for a test
	if !lim.Allow() {
		t.Fatal("first token should be allowed")
	}
	time.Sleep(5 * time.Millisecond)
	if !lim.Allow() {
		t.Fatal("bucket should have refilled after waiting past the refill interval")
	}
}
