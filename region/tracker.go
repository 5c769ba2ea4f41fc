package region

import (
	"io"
	"log"
	"sort"
)

// DefaultDebounce is the quiet period before an arrival batch is delivered.
const DefaultDebounce = 0.5

// ArrivalHandler receives one coalesced batch of newly admitted entities.
type ArrivalHandler func(batch []Entity)

// Tracker maintains the set of live qualifying entities inside a Region.
//
// Update is driven once per tick by the owner. Entities that stop qualifying
// (dead, removed, wrong team, invulnerable, out of the box) are dropped
// silently. Newly seen entities are destroyed while the tracker rejects new
// arrivals, otherwise they are tracked and delivered to the arrival handler
// after the debounce delay.
//
// Entities that were tracked once and left the box alive (pulled creeps
// walking back to camp) are re-tracked on return without being reported as
// arrivals or destroyed.
type Tracker struct {
	region    Region
	src       Source
	team      Team
	archetype string
	logger    *log.Logger

	removeNew bool
	tracked   map[EntityID]Entity
	known     map[EntityID]struct{}
	debounce  *Debouncer
	onArrival ArrivalHandler
}

type TrackerOption func(*Tracker)

func WithTeam(t Team) TrackerOption {
	return func(tr *Tracker) { tr.team = t }
}

func WithArchetype(a string) TrackerOption {
	return func(tr *Tracker) { tr.archetype = a }
}

// WithDebounce sets the arrival quiet period in seconds.
func WithDebounce(seconds float64) TrackerOption {
	return func(tr *Tracker) { tr.debounce = NewDebouncer(seconds) }
}

func WithArrivalHandler(h ArrivalHandler) TrackerOption {
	return func(tr *Tracker) { tr.onArrival = h }
}

// WithRemoveNew sets the initial admission policy. Trackers reject new
// arrivals by default.
func WithRemoveNew(v bool) TrackerOption {
	return func(tr *Tracker) { tr.removeNew = v }
}

func WithLogger(l *log.Logger) TrackerOption {
	return func(tr *Tracker) { tr.logger = l }
}

// NewTracker creates a tracker for neutral creeps inside r.
func NewTracker(r Region, src Source, opts ...TrackerOption) *Tracker {
	tr := &Tracker{
		region:    r,
		src:       src,
		team:      TeamNeutrals,
		archetype: ArchetypeNeutralCreep,
		logger:    log.New(io.Discard, "", 0),
		removeNew: true,
		tracked:   make(map[EntityID]Entity),
		known:     make(map[EntityID]struct{}),
		debounce:  NewDebouncer(DefaultDebounce),
	}
	for _, opt := range opts {
		opt(tr)
	}
	return tr
}

func (tr *Tracker) qualifies(e Entity) bool {
	return e.Alive && e.Team == tr.team && e.Archetype == tr.archetype && !e.Invulnerable
}

// Update prunes, scans and admits, then delivers the pending batch if its
// quiet period elapsed. dt is the time since the previous Update in seconds.
func (tr *Tracker) Update(dt float64) {
	tr.debounce.Advance(dt)
	tr.prune()

	var arrivals []Entity
	for _, e := range tr.src.FindAllByArchetype(tr.archetype) {
		if !tr.qualifies(e) || !tr.region.Contains(e.Pos) {
			continue
		}
		if _, ok := tr.tracked[e.ID]; ok {
			tr.tracked[e.ID] = e
			continue
		}
		if _, ok := tr.known[e.ID]; ok {
			tr.tracked[e.ID] = e
			continue
		}
		if tr.removeNew {
			tr.src.Remove(e.ID)
			continue
		}
		tr.tracked[e.ID] = e
		tr.known[e.ID] = struct{}{}
		arrivals = append(arrivals, e)
	}

	if len(arrivals) > 0 {
		tr.debounce.Push(arrivals)
	}

	if batch := tr.debounce.Flush(); len(batch) > 0 {
		tr.logger.Printf("region: %d new entities", len(batch))
		if tr.onArrival != nil {
			tr.onArrival(batch)
		}
	}
}

// prune forgets entities that died or stopped qualifying, including any still
// waiting in the arrival batch.
func (tr *Tracker) prune() {
	for id := range tr.known {
		e, ok := tr.src.Lookup(id)
		if !ok || !tr.qualifies(e) {
			delete(tr.known, id)
			delete(tr.tracked, id)
			tr.debounce.Drop(id)
			continue
		}
		if _, tracked := tr.tracked[id]; tracked && !tr.region.Contains(e.Pos) {
			delete(tr.tracked, id)
		}
	}
}

// SetRemoveNew switches the admission policy. true destroys new arrivals.
func (tr *Tracker) SetRemoveNew(v bool) {
	tr.removeNew = v
}

func (tr *Tracker) RemoveNew() bool {
	return tr.removeNew
}

// SetArrivalHandler installs h and returns the handler it replaced.
func (tr *Tracker) SetArrivalHandler(h ArrivalHandler) ArrivalHandler {
	prev := tr.onArrival
	tr.onArrival = h
	return prev
}

// Count returns the number of tracked entities inside the box.
func (tr *Tracker) Count() int {
	return len(tr.tracked)
}

// Remaining returns the number of live camp entities, including ones pulled
// out of the box that have not returned yet.
func (tr *Tracker) Remaining() int {
	return len(tr.known)
}

// Pending returns the number of arrivals waiting for the debounce to flush.
func (tr *Tracker) Pending() int {
	return tr.debounce.Len()
}

func (tr *Tracker) Contains(id EntityID) bool {
	_, ok := tr.tracked[id]
	return ok
}

// Tracked returns the tracked entities ordered by ID.
func (tr *Tracker) Tracked() []Entity {
	out := make([]Entity, 0, len(tr.tracked))
	for _, e := range tr.tracked {
		out = append(out, e)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

func (tr *Tracker) Region() Region {
	return tr.region
}

// DestroyAll removes every known camp entity from the world and forgets any
// pending arrivals.
func (tr *Tracker) DestroyAll() int {
	n := 0
	for id := range tr.known {
		tr.src.Remove(id)
		n++
	}
	clear(tr.known)
	clear(tr.tracked)
	tr.debounce.Cancel()
	return n
}
