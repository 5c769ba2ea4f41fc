package realtime

import (
	"context"
	"fmt"
)

// processTick processes one complete tick
func (rt *Runtime) processTick(ctx context.Context) {
	// Phase 1: Collect events atomically
	events := rt.collectEvents()

	// Phase 2: Sort for deterministic order
	sortEvents(events)

	// Phase 3: Dispatch client events
	rt.processEvents(ctx, events)

	// Phase 4: Update systems in registration order
	rt.updateSystems(ctx)
}

// collectEvents atomically retrieves and clears the event batch
func (rt *Runtime) collectEvents() []EventWithMeta {
	rt.batchMu.Lock()
	defer rt.batchMu.Unlock()

	events := rt.eventBatch
	rt.eventBatch = make([]EventWithMeta, 0, cap(rt.eventBatch))

	return events
}

func (rt *Runtime) processEvents(ctx context.Context, events []EventWithMeta) {
	for _, em := range events {
		h, ok := rt.handlers[em.Event.Type]
		if !ok {
			rt.logger.Printf("realtime: no handler for event %q", em.Event.Type)
			continue
		}
		rt.guard("event "+em.Event.Type, func() { h(ctx, em.Event) })
	}
}

func (rt *Runtime) updateSystems(ctx context.Context) {
	dt := rt.tickRate.Seconds()
	for _, s := range rt.systems {
		rt.guard("system "+s.name, func() { s.system.Update(ctx, dt) })
	}
}

// guard recovers a panic in fn and logs it so one faulty handler does not
// stop the loop.
func (rt *Runtime) guard(what string, fn func()) {
	defer func() {
		if r := recover(); r != nil {
			rt.logger.Printf("realtime: tick %d: %s panicked: %v", rt.GetTickNumber(), what, fmt.Sprint(r))
		}
	}()
	fn()
}
