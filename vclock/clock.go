// Package vclock provides a controllable in-fiction clock that runs detached
// from the simulation clock and fires callbacks when it crosses minute marks.
package vclock

import (
	"math"
	"sort"
)

// Minute is the period marks repeat with.
const Minute = 60.0

type Handle uint64

type Callback func()

type entry struct {
	handle Handle
	mark   float64
	fn     Callback
}

// Clock is a virtual time source advanced by the tick loop. Registered
// callbacks fire once each time the clock crosses their mark, modulo Minute.
// A callback that calls Set ends the current Advance; remaining crossings
// are computed from the new time on the next Advance.
//
// Clock is not safe for concurrent use.
type Clock struct {
	enabled bool
	t       float64
	gen     uint64

	next    Handle
	entries []entry
}

func New() *Clock {
	return &Clock{next: 1}
}

func (c *Clock) Enable()  { c.enabled = true }
func (c *Clock) Disable() { c.enabled = false }

func (c *Clock) Enabled() bool {
	return c.enabled
}

// Time returns the current virtual time in seconds.
func (c *Clock) Time() float64 {
	return c.t
}

// Set jumps to t without firing any callbacks in between.
func (c *Clock) Set(t float64) {
	c.t = t
	c.gen++
}

// Register schedules fn for every crossing of mark (mod Minute).
func (c *Clock) Register(mark float64, fn Callback) Handle {
	h := c.next
	c.next++
	c.entries = append(c.entries, entry{handle: h, mark: Phase(mark), fn: fn})
	return h
}

// Unregister cancels h. It reports false when h was not registered.
func (c *Clock) Unregister(h Handle) bool {
	for i, e := range c.entries {
		if e.handle == h {
			c.entries = append(c.entries[:i], c.entries[i+1:]...)
			return true
		}
	}
	return false
}

func (c *Clock) registered(h Handle) bool {
	for _, e := range c.entries {
		if e.handle == h {
			return true
		}
	}
	return false
}

// Pending returns the number of registered callbacks.
func (c *Clock) Pending() int {
	return len(c.entries)
}

// Advance moves the clock forward by dt seconds while enabled, firing
// callbacks for every mark crossed in (t, t+dt] in time order. Callbacks on
// the same crossing fire in registration order.
func (c *Clock) Advance(dt float64) {
	if !c.enabled || dt <= 0 {
		return
	}
	target := c.t + dt
	gen := c.gen

	for {
		at, due := c.nextCrossing(target)
		if len(due) == 0 {
			break
		}
		c.t = at
		for _, e := range due {
			if !c.registered(e.handle) {
				continue
			}
			e.fn()
			if c.gen != gen {
				return
			}
		}
	}
	c.t = target
}

// nextCrossing returns the earliest crossing value in (c.t, target] and the
// entries due on it.
func (c *Clock) nextCrossing(target float64) (float64, []entry) {
	best := math.Inf(1)
	var due []entry
	for _, e := range c.entries {
		v := crossing(c.t, e.mark)
		if v > target {
			continue
		}
		switch {
		case v < best:
			best = v
			due = append(due[:0], e)
		case v == best:
			due = append(due, e)
		}
	}
	sort.SliceStable(due, func(i, j int) bool { return due[i].handle < due[j].handle })
	return best, due
}

// crossing returns the smallest v > t with v ≡ mark (mod Minute).
func crossing(t, mark float64) float64 {
	k := math.Floor((t-mark)/Minute) + 1
	return mark + k*Minute
}
