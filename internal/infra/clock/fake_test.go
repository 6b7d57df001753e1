package clock

import (
	"testing"
	"time"
)

func TestFake_AdvanceFiresInOrder(t *testing.T) {
	start := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	c := NewFake(start)

	var order []string
	c.AfterFunc(300*time.Millisecond, func() { order = append(order, "b") })
	c.AfterFunc(100*time.Millisecond, func() { order = append(order, "a") })
	c.AfterFunc(time.Second, func() { order = append(order, "c") })

	c.Advance(500 * time.Millisecond)

	if len(order) != 2 || order[0] != "a" || order[1] != "b" {
		t.Fatalf("order = %v, want [a b]", order)
	}
	if got := c.Now().Sub(start); got != 500*time.Millisecond {
		t.Errorf("elapsed = %v, want 500ms", got)
	}
	if c.Pending() != 1 {
		t.Errorf("Pending() = %d, want 1", c.Pending())
	}
}

func TestFake_Stop(t *testing.T) {
	c := NewFake(time.Now())
	fired := false
	timer := c.AfterFunc(time.Second, func() { fired = true })

	if !timer.Stop() {
		t.Fatal("Stop() = false, want true")
	}
	if timer.Stop() {
		t.Error("second Stop() = true, want false")
	}

	c.Advance(2 * time.Second)
	if fired {
		t.Error("stopped timer fired")
	}
}

func TestFake_NestedTimersInsideWindow(t *testing.T) {
	c := NewFake(time.Now())
	var fired []time.Duration
	start := c.Now()

	c.AfterFunc(100*time.Millisecond, func() {
		fired = append(fired, c.Now().Sub(start))
		c.AfterFunc(100*time.Millisecond, func() {
			fired = append(fired, c.Now().Sub(start))
		})
	})

	c.Advance(250 * time.Millisecond)

	if len(fired) != 2 {
		t.Fatalf("fired %d timers, want 2", len(fired))
	}
	if fired[1] != 200*time.Millisecond {
		t.Errorf("nested timer fired at %v, want 200ms", fired[1])
	}
}
