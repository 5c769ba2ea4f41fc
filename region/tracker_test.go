package region_test

import (
	"sort"
	"testing"

	"github.com/comalice/creepstack/region"
)

type fakeSource struct {
	next     region.EntityID
	entities map[region.EntityID]*region.Entity
	removed  []region.EntityID
}

func newFakeSource() *fakeSource {
	return &fakeSource{entities: make(map[region.EntityID]*region.Entity)}
}

func (s *fakeSource) spawn(pos region.Vec2) region.EntityID {
	s.next++
	s.entities[s.next] = &region.Entity{
		ID:        s.next,
		Archetype: region.ArchetypeNeutralCreep,
		Team:      region.TeamNeutrals,
		Pos:       pos,
		Alive:     true,
	}
	return s.next
}

func (s *fakeSource) Lookup(id region.EntityID) (region.Entity, bool) {
	e, ok := s.entities[id]
	if !ok {
		return region.Entity{}, false
	}
	return *e, true
}

func (s *fakeSource) FindAllByArchetype(a string) []region.Entity {
	var out []region.Entity
	for _, e := range s.entities {
		if e.Archetype == a && e.Alive {
			out = append(out, *e)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

func (s *fakeSource) Remove(id region.EntityID) {
	if _, ok := s.entities[id]; ok {
		delete(s.entities, id)
		s.removed = append(s.removed, id)
	}
}

var campBox = region.MustNew(region.Vec2{X: -2911, Y: 4373}, region.Vec2{X: -2142, Y: 5203})

const dt = 0.05

// Test the documented end-to-end scenario: tracked after one update, removed
// after moving out of the box.
func TestTrackerEnterAndLeave(t *testing.T) {
	src := newFakeSource()
	tr := region.NewTracker(campBox, src, region.WithRemoveNew(false))

	id := src.spawn(region.Vec2{X: -2500, Y: 4500})
	tr.Update(dt)
	if !tr.Contains(id) || tr.Count() != 1 {
		t.Fatalf("expected entity %d tracked, count=%d", id, tr.Count())
	}

	src.entities[id].Pos = region.Vec2{X: 0, Y: 0}
	tr.Update(dt)
	if tr.Contains(id) || tr.Count() != 0 {
		t.Fatalf("expected entity %d removed, count=%d", id, tr.Count())
	}
	if len(src.removed) != 0 {
		t.Errorf("leaving the box must not destroy the entity, removed=%v", src.removed)
	}
}

func TestTrackerRejectsNewArrivals(t *testing.T) {
	src := newFakeSource()
	var batches int
	tr := region.NewTracker(campBox, src, region.WithArrivalHandler(func([]region.Entity) { batches++ }))

	id := src.spawn(region.Vec2{X: -2500, Y: 4500})
	tr.Update(dt)

	if tr.Contains(id) {
		t.Error("rejected entity must never be tracked")
	}
	if len(src.removed) != 1 || src.removed[0] != id {
		t.Errorf("expected entity %d destroyed, got %v", id, src.removed)
	}
	for i := 0; i < 20; i++ {
		tr.Update(dt)
	}
	if batches != 0 {
		t.Errorf("rejected entities must not be reported, got %d batches", batches)
	}
}

func TestTrackerPrunesDisqualified(t *testing.T) {
	src := newFakeSource()
	tr := region.NewTracker(campBox, src, region.WithRemoveNew(false))

	dead := src.spawn(region.Vec2{X: -2500, Y: 4500})
	turned := src.spawn(region.Vec2{X: -2500, Y: 4600})
	shielded := src.spawn(region.Vec2{X: -2500, Y: 4700})
	gone := src.spawn(region.Vec2{X: -2500, Y: 4800})
	tr.Update(dt)
	if tr.Count() != 4 {
		t.Fatalf("expected 4 tracked, got %d", tr.Count())
	}

	src.entities[dead].Alive = false
	src.entities[turned].Team = region.TeamGoodGuys
	src.entities[shielded].Invulnerable = true
	delete(src.entities, gone)
	tr.Update(dt)

	if tr.Count() != 0 {
		t.Errorf("expected every disqualified entity pruned, tracked=%v", tr.Tracked())
	}
	if tr.Remaining() != 0 {
		t.Errorf("disqualified entities must be forgotten, remaining=%d", tr.Remaining())
	}
}

// Test that a burst spread over several updates yields one batch with every
// entity, delivered only after the quiet period.
func TestTrackerDebouncesBurst(t *testing.T) {
	src := newFakeSource()
	var batches [][]region.Entity
	tr := region.NewTracker(campBox, src,
		region.WithRemoveNew(false),
		region.WithArrivalHandler(func(b []region.Entity) { batches = append(batches, b) }),
	)

	src.spawn(region.Vec2{X: -2500, Y: 4500})
	src.spawn(region.Vec2{X: -2400, Y: 4500})
	tr.Update(dt)
	tr.Update(dt)
	src.spawn(region.Vec2{X: -2300, Y: 4500})
	tr.Update(dt)

	if tr.Pending() != 3 {
		t.Fatalf("expected 3 pending, got %d", tr.Pending())
	}

	// 0.45s after the last arrival: still quiet.
	for i := 0; i < 9; i++ {
		tr.Update(dt)
	}
	if len(batches) != 0 {
		t.Fatalf("batch delivered before quiet period elapsed")
	}

	tr.Update(dt)
	if len(batches) != 1 {
		t.Fatalf("expected exactly one batch, got %d", len(batches))
	}
	if len(batches[0]) != 3 {
		t.Errorf("expected 3 entities in batch, got %d", len(batches[0]))
	}
	if tr.Pending() != 0 {
		t.Errorf("pending should be cleared, got %d", tr.Pending())
	}

	for i := 0; i < 20; i++ {
		tr.Update(dt)
	}
	if len(batches) != 1 {
		t.Errorf("duplicate delivery, got %d batches", len(batches))
	}
}

func TestTrackerDropsPendingDeaths(t *testing.T) {
	src := newFakeSource()
	var batches [][]region.Entity
	tr := region.NewTracker(campBox, src,
		region.WithRemoveNew(false),
		region.WithArrivalHandler(func(b []region.Entity) { batches = append(batches, b) }),
	)

	dies := src.spawn(region.Vec2{X: -2500, Y: 4500})
	lives := src.spawn(region.Vec2{X: -2400, Y: 4500})
	tr.Update(dt)
	if tr.Pending() != 2 {
		t.Fatalf("expected 2 pending, got %d", tr.Pending())
	}

	src.entities[dies].Alive = false
	tr.Update(dt)
	if tr.Pending() != 1 {
		t.Fatalf("dead arrival still pending, got %d", tr.Pending())
	}

	for i := 0; i < 20; i++ {
		tr.Update(dt)
	}
	if len(batches) != 1 || len(batches[0]) != 1 || batches[0][0].ID != lives {
		t.Fatalf("expected one batch with only the survivor, got %v", batches)
	}
}

func TestTrackerDropsLastPendingDeath(t *testing.T) {
	src := newFakeSource()
	delivered := 0
	tr := region.NewTracker(campBox, src,
		region.WithRemoveNew(false),
		region.WithArrivalHandler(func([]region.Entity) { delivered++ }),
	)

	id := src.spawn(region.Vec2{X: -2500, Y: 4500})
	tr.Update(dt)
	src.Remove(id)
	for i := 0; i < 20; i++ {
		tr.Update(dt)
	}
	if delivered != 0 || tr.Pending() != 0 {
		t.Errorf("expected no delivery for a dead arrival, got %d batches, %d pending", delivered, tr.Pending())
	}
}

func TestTrackerReentryIsSilent(t *testing.T) {
	src := newFakeSource()
	var batches int
	tr := region.NewTracker(campBox, src,
		region.WithRemoveNew(false),
		region.WithArrivalHandler(func([]region.Entity) { batches++ }),
	)

	id := src.spawn(region.Vec2{X: -2500, Y: 4500})
	for i := 0; i < 12; i++ {
		tr.Update(dt)
	}
	if batches != 1 {
		t.Fatalf("expected initial batch, got %d", batches)
	}

	tr.SetRemoveNew(true)
	src.entities[id].Pos = region.Vec2{X: 0, Y: 0}
	tr.Update(dt)
	if tr.Remaining() != 1 {
		t.Fatalf("pulled entity should still be known, remaining=%d", tr.Remaining())
	}

	src.entities[id].Pos = region.Vec2{X: -2500, Y: 4500}
	for i := 0; i < 12; i++ {
		tr.Update(dt)
	}
	if !tr.Contains(id) {
		t.Error("returning entity should be tracked again")
	}
	if len(src.removed) != 0 {
		t.Errorf("returning entity must not be destroyed, removed=%v", src.removed)
	}
	if batches != 1 {
		t.Errorf("returning entity must not count as an arrival, batches=%d", batches)
	}
}

func TestTrackerDestroyAll(t *testing.T) {
	src := newFakeSource()
	tr := region.NewTracker(campBox, src, region.WithRemoveNew(false))
	src.spawn(region.Vec2{X: -2500, Y: 4500})
	src.spawn(region.Vec2{X: -2400, Y: 4500})
	tr.Update(dt)

	if n := tr.DestroyAll(); n != 2 {
		t.Errorf("expected 2 destroyed, got %d", n)
	}
	if tr.Count() != 0 || tr.Pending() != 0 || len(src.entities) != 0 {
		t.Errorf("camp not cleared: count=%d pending=%d world=%d", tr.Count(), tr.Pending(), len(src.entities))
	}
}

func TestSetArrivalHandlerReturnsPrevious(t *testing.T) {
	first := func([]region.Entity) {}
	tr := region.NewTracker(campBox, newFakeSource(), region.WithArrivalHandler(first))
	prev := tr.SetArrivalHandler(nil)
	if prev == nil {
		t.Error("expected previous handler")
	}
	if tr.SetArrivalHandler(prev) != nil {
		t.Error("expected nil handler after clearing")
	}
}

func BenchmarkTrackerUpdate(b *testing.B) {
	src := newFakeSource()
	for i := 0; i < 64; i++ {
		src.spawn(region.Vec2{X: -2900 + float64(i*10), Y: 4500})
	}
	tr := region.NewTracker(campBox, src, region.WithRemoveNew(false))
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		tr.Update(dt)
	}
}
