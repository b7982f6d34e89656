package cache

import (
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
)

func TestGetFreshAndExpired(t *testing.T) {
	clock := clockwork.NewFakeClock()
	c := NewWithClock[string, string](5*time.Minute, clock)

	c.Put("paris", "sunny")

	if v, ok := c.Get("paris"); !ok || v != "sunny" {
		t.Fatalf("Get fresh = %q, %v; want sunny, true", v, ok)
	}

	clock.Advance(5*time.Minute - time.Second)
	if _, ok := c.Get("paris"); !ok {
		t.Fatalf("entry expired one second early")
	}

	clock.Advance(2 * time.Second)
	if _, ok := c.Get("paris"); ok {
		t.Fatalf("entry still fresh past TTL")
	}
	if c.Len() != 1 {
		t.Fatalf("expired entry must stay in the map, Len = %d", c.Len())
	}
}

func TestPutResetsTTL(t *testing.T) {
	clock := clockwork.NewFakeClock()
	c := NewWithClock[string, string](time.Minute, clock)

	c.Put("k", "old")
	clock.Advance(50 * time.Second)
	c.Put("k", "new")
	clock.Advance(30 * time.Second)

	if v, ok := c.Get("k"); !ok || v != "new" {
		t.Fatalf("Get after refresh = %q, %v; want new, true", v, ok)
	}
}

func TestClear(t *testing.T) {
	c := New[string, string](time.Minute)
	c.Put("a", "1")
	c.Put("b", "2")

	if n := c.Clear(); n != 2 {
		t.Fatalf("Clear = %d; want 2", n)
	}
	if c.Len() != 0 {
		t.Fatalf("Len after Clear = %d; want 0", c.Len())
	}
	if _, ok := c.Get("a"); ok {
		t.Fatalf("entry survived Clear")
	}
}

func TestNonPositiveTTLAlwaysMisses(t *testing.T) {
	c := New[string, string](0)
	c.Put("k", "v")
	if _, ok := c.Get("k"); ok {
		t.Fatalf("zero TTL must never serve entries")
	}
	if c.Len() != 1 {
		t.Fatalf("Put must still store the value, Len = %d", c.Len())
	}
}
