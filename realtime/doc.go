// Package realtime provides a tick-based deterministic runtime for the
// stacking chapter.
//
// Every tick runs in two phases:
//  1. Client events queued since the last tick are dispatched to their
//     handlers, sorted by priority and then by submission order.
//  2. Registered systems are updated in registration order with the fixed
//     time step.
//
// System order is the ordering contract of the chapter: the host world
// advances first, then the virtual clock, then the region tracker, and the
// stacking coordinator last so it always observes post-update state.
//
// # Example Usage
//
//	rt := realtime.NewRuntime(realtime.Config{
//		TickRate: 50 * time.Millisecond, // 20 Hz
//	})
//	rt.AddSystem("world", realtime.SystemFunc(func(ctx context.Context, dt float64) {
//		w.Advance(dt)
//	}))
//	rt.Handle("skip", func(ctx context.Context, ev realtime.Event) {
//		session.RequestSkip()
//	})
//	rt.Start(ctx)
//	rt.SendEvent(realtime.Event{Type: "skip"})
//
// Tests and single-threaded hosts call Step instead of Start to drive ticks
// by hand.
//
// # Event Ordering Guarantees
//
// Events are ordered deterministically using:
//  1. Priority (higher priority processed first)
//  2. Sequence number (FIFO for same priority)
//  3. Stable sorting (preserves relative order)
package realtime
