package clock

import (
	"testing"
	"time"
)

func TestFakeFiresInOrder(t *testing.T) {
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	c := NewFake(start)

	var fired []string
	c.AfterFunc(2*time.Second, func() { fired = append(fired, "b") })
	c.AfterFunc(time.Second, func() { fired = append(fired, "a") })
	stopped := c.AfterFunc(time.Second, func() { fired = append(fired, "x") })
	if !stopped.Stop() {
		t.Fatalf("expected stop to succeed")
	}

	c.Advance(1500 * time.Millisecond)
	if len(fired) != 1 || fired[0] != "a" {
		t.Fatalf("expected only a to fire, got %v", fired)
	}
	c.Advance(time.Second)
	if len(fired) != 2 || fired[1] != "b" {
		t.Fatalf("expected b to fire, got %v", fired)
	}
	if got := c.Now(); !got.Equal(start.Add(2500 * time.Millisecond)) {
		t.Fatalf("unexpected now %v", got)
	}
	if stopped.Stop() {
		t.Fatalf("expected second stop to report false")
	}
}

func TestFakeRearmWithinAdvance(t *testing.T) {
	c := NewFake(time.Unix(0, 0))
	ticks := 0
	var arm func()
	arm = func() {
		c.AfterFunc(time.Second, func() {
			ticks++
			if ticks < 5 {
				arm()
			}
		})
	}
	arm()

	c.Advance(10 * time.Second)
	if ticks != 5 {
		t.Fatalf("expected 5 ticks, got %d", ticks)
	}
	if c.Pending() != 0 {
		t.Fatalf("expected no pending timers, got %d", c.Pending())
	}
}
