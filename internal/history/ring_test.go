package history

import (
	"fmt"
	"testing"
	"time"
)

func itemAt(target string, seq int, t time.Time) Item {
	return Item{ID: fmt.Sprintf("msgid-%03d", seq), Time: t, Kind: KindMessage, Author: "alice", Account: "*", Target: target, Text: "hi"}
}

func TestInsertEvictsOnCapacity(t *testing.T) {
	b := NewBuffer(3, time.Hour)
	base := time.Now()
	for i := 0; i < 5; i++ {
		b.Insert("#chan", itemAt("#chan", i, base.Add(time.Duration(i)*time.Second)))
	}
	if got := b.Len("#chan"); got != 3 {
		t.Fatalf("Len() = %d, want 3", got)
	}
	latest := b.Latest("#chan", AnySelector(), 10)
	if len(latest) != 3 || latest[0].ID != "msgid-002" {
		t.Fatalf("latest = %+v, want oldest-surviving msgid-002 first", latest)
	}
}

func TestInsertEvictsOnMaxAge(t *testing.T) {
	b := NewBuffer(100, 5*time.Second)
	base := time.Now()
	b.Insert("#chan", itemAt("#chan", 0, base))
	b.Insert("#chan", itemAt("#chan", 1, base.Add(10*time.Second)))
	if got := b.Len("#chan"); got != 1 {
		t.Fatalf("Len() = %d, want 1 (first item aged out)", got)
	}
}

func TestBeforeAndAfter(t *testing.T) {
	b := NewBuffer(100, time.Hour)
	base := time.Now()
	for i := 0; i < 5; i++ {
		b.Insert("#chan", itemAt("#chan", i, base.Add(time.Duration(i)*time.Second)))
	}

	mid := TimeSelector(base.Add(2500 * time.Millisecond))
	before := b.Before("#chan", mid, 10)
	if len(before) != 3 {
		t.Fatalf("Before() = %+v, want 3 items strictly before the anchor", before)
	}
	// Before returns newest-first.
	if before[0].ID != "msgid-002" {
		t.Fatalf("Before()[0] = %+v, want msgid-002 (newest of the 3)", before[0])
	}

	after := b.After("#chan", mid, 10)
	if len(after) != 2 {
		t.Fatalf("After() = %+v, want 2 items strictly after the anchor", after)
	}
	if after[0].ID != "msgid-003" {
		t.Fatalf("After()[0] = %+v, want msgid-003 (oldest of the remainder)", after[0])
	}
}

func TestLatestBoundedByEnd(t *testing.T) {
	b := NewBuffer(100, time.Hour)
	base := time.Now()
	for i := 0; i < 5; i++ {
		b.Insert("#chan", itemAt("#chan", i, base.Add(time.Duration(i)*time.Second)))
	}

	end := TimeSelector(base.Add(3 * time.Second))
	got := b.Latest("#chan", end, 10)
	for _, it := range got {
		if !it.Time.Before(end.Time) {
			t.Fatalf("Latest() item %+v not before end selector %v", it, end.Time)
		}
	}
	if len(got) != 3 {
		t.Fatalf("Latest() = %+v, want 3 items strictly before the bound", got)
	}
}

func TestAroundSplitsBeforeAndAfter(t *testing.T) {
	b := NewBuffer(100, time.Hour)
	base := time.Now()
	for i := 0; i < 7; i++ {
		b.Insert("#chan", itemAt("#chan", i, base.Add(time.Duration(i)*time.Second)))
	}

	anchor := TimeSelector(base.Add(3 * time.Second))
	got := b.Around("#chan", anchor, 4)
	if len(got) != 4 {
		t.Fatalf("Around() = %+v, want 4 items", got)
	}
	for _, it := range got {
		if it.ID == "msgid-003" {
			t.Fatalf("Around() must exclude the anchor item itself, got %+v", got)
		}
	}
}

func TestBetweenOrdersRegardlessOfArgumentOrder(t *testing.T) {
	b := NewBuffer(100, time.Hour)
	base := time.Now()
	for i := 0; i < 5; i++ {
		b.Insert("#chan", itemAt("#chan", i, base.Add(time.Duration(i)*time.Second)))
	}

	lo := TimeSelector(base.Add(1 * time.Second))
	hi := TimeSelector(base.Add(3 * time.Second))

	forward := b.Between("#chan", lo, hi, 10)
	backward := b.Between("#chan", hi, lo, 10)
	if len(forward) != len(backward) {
		t.Fatalf("Between() order-dependent: forward=%+v backward=%+v", forward, backward)
	}
	if len(forward) != 3 {
		t.Fatalf("Between() = %+v, want 3 items inclusive of both endpoints", forward)
	}
}

func TestTargetsOrdersByMostRecentActivity(t *testing.T) {
	b := NewBuffer(100, time.Hour)
	base := time.Now()
	b.Insert("#old", itemAt("#old", 0, base))
	b.Insert("#new", itemAt("#new", 0, base.Add(10*time.Second)))

	targets := b.Targets(AnySelector(), AnySelector(), 10)
	if len(targets) != 2 || targets[0].Target != "#new" {
		t.Fatalf("Targets() = %+v, want #new first", targets)
	}
}

func TestLenUnknownTargetIsZero(t *testing.T) {
	b := NewBuffer(10, time.Hour)
	if got := b.Len("#nonexistent"); got != 0 {
		t.Fatalf("Len() = %d, want 0", got)
	}
}
