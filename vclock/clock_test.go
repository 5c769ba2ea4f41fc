package vclock_test

import (
	"testing"

	"github.com/comalice/creepstack/vclock"
)

func TestAdvanceDisabledIsNoop(t *testing.T) {
	c := vclock.New()
	fired := 0
	c.Register(0, func() { fired++ })
	c.Set(59)
	c.Advance(2)
	if c.Time() != 59 || fired != 0 {
		t.Errorf("disabled clock moved: time=%v fired=%d", c.Time(), fired)
	}
}

func TestMarksFireOncePerCrossing(t *testing.T) {
	c := vclock.New()
	c.Enable()
	c.Set(58)

	var fired []float64
	c.Register(0, func() { fired = append(fired, c.Time()) })

	for i := 0; i < 40; i++ {
		c.Advance(0.1)
	}
	if len(fired) != 1 {
		t.Fatalf("expected 1 crossing, got %v", fired)
	}
	if fired[0] != 60 {
		t.Errorf("callback should observe the mark time, got %v", fired[0])
	}

	c.Advance(60)
	if len(fired) != 2 {
		t.Errorf("expected a crossing every minute, got %v", fired)
	}
}

func TestCrossingOrder(t *testing.T) {
	c := vclock.New()
	c.Enable()
	c.Set(44)

	var order []string
	c.Register(1, func() { order = append(order, "1") })
	c.Register(0, func() { order = append(order, "0a") })
	c.Register(59, func() { order = append(order, "59") })
	c.Register(60, func() { order = append(order, "0b") })

	c.Advance(18)

	want := []string{"59", "0a", "0b", "1"}
	if len(order) != len(want) {
		t.Fatalf("expected %v, got %v", want, order)
	}
	for i := range want {
		if order[i] != want[i] {
			t.Errorf("step %d: expected %s, got %s", i, want[i], order[i])
		}
	}
	if c.Time() != 62 {
		t.Errorf("expected time 62, got %v", c.Time())
	}
}

// Test the 44 -> 3 -> 44 loop: the reset callback jumps back and cuts the
// advance short.
func TestSetFromCallbackStopsAdvance(t *testing.T) {
	c := vclock.New()
	c.Enable()
	c.Set(44)

	zeros := 0
	c.Register(3, func() { c.Set(44) })
	c.Register(0, func() { zeros++ })

	c.Advance(25)
	if c.Time() != 44 {
		t.Fatalf("expected reset to 44, got %v", c.Time())
	}
	if zeros != 1 {
		t.Errorf("expected one zero crossing, got %d", zeros)
	}

	for i := 0; i < 3*19*20; i++ {
		c.Advance(0.05)
	}
	if zeros != 4 {
		t.Errorf("expected 4 zero crossings after three more cycles, got %d", zeros)
	}
	if c.Time() < 44 || c.Time() > 63 {
		t.Errorf("clock escaped the cycle: %v", c.Time())
	}
}

func TestUnregister(t *testing.T) {
	c := vclock.New()
	c.Enable()
	fired := 0
	h := c.Register(10, func() { fired++ })
	if !c.Unregister(h) {
		t.Fatal("expected handle to be registered")
	}
	if c.Unregister(h) {
		t.Error("second unregister should report false")
	}
	c.Advance(30)
	if fired != 0 {
		t.Errorf("unregistered callback fired %d times", fired)
	}
}

func TestCallbackMayUnregisterSibling(t *testing.T) {
	c := vclock.New()
	c.Enable()

	var second vclock.Handle
	fired := 0
	c.Register(5, func() { c.Unregister(second) })
	second = c.Register(5, func() { fired++ })

	c.Advance(10)
	if fired != 0 {
		t.Errorf("callback removed during the crossing still fired")
	}
}

func TestGroupClose(t *testing.T) {
	c := vclock.New()
	c.Enable()
	g := c.NewGroup()
	fired := 0
	g.Register(1, func() { fired++ })
	g.Register(2, func() { fired++ })
	other := c.Register(3, func() {})

	if c.Pending() != 3 || g.Len() != 2 {
		t.Fatalf("pending=%d group=%d", c.Pending(), g.Len())
	}

	g.Close()
	g.Close()

	if c.Pending() != 1 || g.Len() != 0 {
		t.Errorf("group left handles behind: pending=%d group=%d", c.Pending(), g.Len())
	}
	c.Advance(10)
	if fired != 0 {
		t.Errorf("closed group callbacks fired %d times", fired)
	}
	if !c.Unregister(other) {
		t.Error("handles outside the group must survive Close")
	}
}
