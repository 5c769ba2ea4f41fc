package vclock

// Group owns a set of clock registrations so they can be cancelled together.
type Group struct {
	clock   *Clock
	handles []Handle
}

func (c *Clock) NewGroup() *Group {
	return &Group{clock: c}
}

// Register schedules fn on the group's clock and records the handle.
func (g *Group) Register(mark float64, fn Callback) Handle {
	h := g.clock.Register(mark, fn)
	g.handles = append(g.handles, h)
	return h
}

// Close unregisters every handle the group owns. It is safe to call twice.
func (g *Group) Close() {
	for _, h := range g.handles {
		g.clock.Unregister(h)
	}
	g.handles = nil
}

func (g *Group) Len() int {
	return len(g.handles)
}
