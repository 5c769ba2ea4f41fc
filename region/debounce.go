package region

// flushEpsilon absorbs float drift from accumulated tick deltas.
const flushEpsilon = 1e-9

// Debouncer coalesces entity batches with trailing-edge timing: every Push
// moves the flush deadline to now+delay, and only one flush happens per quiet
// period. It runs on its own accumulated clock advanced by the caller.
type Debouncer struct {
	delay   float64
	now     float64
	flushAt float64
	armed   bool

	order   []EntityID
	pending map[EntityID]Entity
}

func NewDebouncer(delay float64) *Debouncer {
	return &Debouncer{
		delay:   delay,
		pending: make(map[EntityID]Entity),
	}
}

// Push adds a batch and restarts the timer. Entities already pending are
// kept once.
func (d *Debouncer) Push(batch []Entity) {
	if len(batch) == 0 {
		return
	}
	for _, e := range batch {
		if _, ok := d.pending[e.ID]; !ok {
			d.order = append(d.order, e.ID)
		}
		d.pending[e.ID] = e
	}
	d.flushAt = d.now + d.delay
	d.armed = true
}

// Advance moves the debouncer clock forward by dt seconds.
func (d *Debouncer) Advance(dt float64) {
	if dt > 0 {
		d.now += dt
	}
}

// Flush returns the coalesced batch if the deadline has passed, clearing the
// pending set. It returns nil otherwise.
func (d *Debouncer) Flush() []Entity {
	if !d.armed || d.now+flushEpsilon < d.flushAt {
		return nil
	}
	out := make([]Entity, 0, len(d.order))
	for _, id := range d.order {
		if e, ok := d.pending[id]; ok {
			out = append(out, e)
		}
	}
	d.Cancel()
	return out
}

// Drop removes id from the pending batch without touching the timer.
func (d *Debouncer) Drop(id EntityID) {
	if _, ok := d.pending[id]; !ok {
		return
	}
	delete(d.pending, id)
	for i, o := range d.order {
		if o == id {
			d.order = append(d.order[:i], d.order[i+1:]...)
			break
		}
	}
	if len(d.order) == 0 {
		d.armed = false
	}
}

// Cancel discards any pending batch.
func (d *Debouncer) Cancel() {
	d.order = d.order[:0]
	clear(d.pending)
	d.armed = false
}

// Len returns the number of entities waiting to be flushed.
func (d *Debouncer) Len() int {
	return len(d.order)
}
