package timeutil

import (
	"testing"
	"time"
)

func TestRealClock(t *testing.T) {
	var c Clock = RealClock{}
	start := c.Now()
	if d := c.Since(start); d < 0 {
		t.Errorf("Since() = %v, want >= 0", d)
	}
}

func TestMockClock(t *testing.T) {
	base := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)
	c := NewMockClock(base)

	if got := c.Now(); !got.Equal(base) {
		t.Errorf("Now() = %v, want %v", got, base)
	}
	if got := c.Now(); !got.Equal(base) {
		t.Errorf("Now() moved without Advance: %v", got)
	}

	c.Advance(90 * time.Second)
	if got := c.Since(base); got != 90*time.Second {
		t.Errorf("Since() = %v, want 90s", got)
	}

	later := base.Add(time.Hour)
	c.Set(later)
	if got := c.Now(); !got.Equal(later) {
		t.Errorf("Now() after Set = %v, want %v", got, later)
	}
}

func TestSteppingClock(t *testing.T) {
	base := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)
	c := NewSteppingClock(base, 250*time.Millisecond)

	first := c.Now()
	second := c.Now()
	if d := second.Sub(first); d != 250*time.Millisecond {
		t.Errorf("step = %v, want 250ms", d)
	}
	// Two readings taken, so the clock sits two steps past base.
	if got := c.Since(first); got != 500*time.Millisecond {
		t.Errorf("Since(first) = %v, want 500ms", got)
	}
	if got := c.Since(first); got != 500*time.Millisecond {
		t.Errorf("Since must not step, got %v", got)
	}
}
