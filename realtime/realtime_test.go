package realtime

import (
	"bytes"
	"context"
	"errors"
	"log"
	"strings"
	"sync"
	"testing"
	"time"
)

// TestRuntimeCreation tests basic runtime creation
func TestRuntimeCreation(t *testing.T) {
	rt := NewRuntime(Config{})
	if rt == nil {
		t.Fatal("Runtime is nil")
	}
	if rt.TickRate() != 16667*time.Microsecond {
		t.Errorf("expected default 60 FPS tick, got %v", rt.TickRate())
	}
	if cap(rt.eventBatch) != 1000 {
		t.Errorf("expected default queue of 1000, got %d", cap(rt.eventBatch))
	}
}

// TestTickLoopTiming tests that the tick loop runs at the correct rate
func TestTickLoopTiming(t *testing.T) {
	rt := NewRuntime(Config{
		TickRate: 10 * time.Millisecond,
	})

	ctx := context.Background()
	if err := rt.Start(ctx); err != nil {
		t.Fatalf("Failed to start runtime: %v", err)
	}

	startTick := rt.GetTickNumber()
	time.Sleep(105 * time.Millisecond) // ~10 ticks
	rt.Stop()
	endTick := rt.GetTickNumber()

	// Loose bounds: CI schedulers can delay ticks.
	tickDiff := endTick - startTick
	if tickDiff < 3 || tickDiff > 12 {
		t.Errorf("Expected ~10 ticks, got %d", tickDiff)
	}

	after := rt.GetTickNumber()
	time.Sleep(30 * time.Millisecond)
	if rt.GetTickNumber() != after {
		t.Error("ticks continued after Stop")
	}
}

// TestSystemOrder tests that systems update in registration order with the
// fixed time step.
func TestSystemOrder(t *testing.T) {
	rt := NewRuntime(Config{TickRate: 50 * time.Millisecond})

	var order []string
	var dts []float64
	for _, name := range []string{"world", "clock", "tracker", "coordinator"} {
		name := name
		rt.AddSystem(name, SystemFunc(func(ctx context.Context, dt float64) {
			order = append(order, name)
			dts = append(dts, dt)
		}))
	}

	rt.Step(context.Background())

	want := []string{"world", "clock", "tracker", "coordinator"}
	for i := range want {
		if order[i] != want[i] {
			t.Errorf("step %d: expected %s, got %s", i, want[i], order[i])
		}
		if dts[i] != 0.05 {
			t.Errorf("expected dt 0.05, got %v", dts[i])
		}
	}
	if rt.GetTickNumber() != 1 {
		t.Errorf("expected tick 1, got %d", rt.GetTickNumber())
	}
}

// TestEventsBeforeSystems tests that queued events are handled before the
// systems of the same tick.
func TestEventsBeforeSystems(t *testing.T) {
	rt := NewRuntime(Config{})
	var order []string
	rt.Handle("skip", func(ctx context.Context, ev Event) { order = append(order, "skip") })
	rt.AddSystem("coordinator", SystemFunc(func(ctx context.Context, dt float64) {
		order = append(order, "coordinator")
	}))

	rt.SendEvent(Event{Type: "skip"})
	rt.Step(context.Background())

	if len(order) != 2 || order[0] != "skip" || order[1] != "coordinator" {
		t.Errorf("expected [skip coordinator], got %v", order)
	}
}

// TestEventSorting tests priority then sequence ordering
func TestEventSorting(t *testing.T) {
	rt := NewRuntime(Config{})
	var got []string
	rt.Handle("order", func(ctx context.Context, ev Event) { got = append(got, ev.Payload.(string)) })

	rt.SendEventWithPriority(Event{Type: "order", Payload: "low-1"}, 0)
	rt.SendEventWithPriority(Event{Type: "order", Payload: "high"}, 10)
	rt.SendEventWithPriority(Event{Type: "order", Payload: "low-2"}, 0)
	rt.SendEventWithPriority(Event{Type: "order", Payload: "mid"}, 5)

	rt.Step(context.Background())

	want := []string{"high", "mid", "low-1", "low-2"}
	if len(got) != len(want) {
		t.Fatalf("expected %v, got %v", want, got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("position %d: expected %s, got %s", i, want[i], got[i])
		}
	}
}

// TestEventBatching tests that events sent mid-tick wait for the next tick
func TestEventBatching(t *testing.T) {
	rt := NewRuntime(Config{})
	count := 0
	rt.Handle("ping", func(ctx context.Context, ev Event) {
		count++
		if count == 1 {
			rt.SendEvent(Event{Type: "ping"})
		}
	})

	rt.SendEvent(Event{Type: "ping"})
	rt.Step(context.Background())
	if count != 1 {
		t.Fatalf("expected 1 event this tick, got %d", count)
	}
	rt.Step(context.Background())
	if count != 2 {
		t.Errorf("expected requeued event on the next tick, got %d", count)
	}
}

func TestQueueFull(t *testing.T) {
	rt := NewRuntime(Config{MaxEventsPerTick: 2})
	rt.SendEvent(Event{Type: "a"})
	rt.SendEvent(Event{Type: "b"})
	if err := rt.SendEvent(Event{Type: "c"}); !errors.Is(err, ErrQueueFull) {
		t.Errorf("expected ErrQueueFull, got %v", err)
	}
	rt.Step(context.Background())
	if err := rt.SendEvent(Event{Type: "c"}); err != nil {
		t.Errorf("queue should drain after a tick: %v", err)
	}
}

// TestPanicRecovery tests that a panicking system is logged and the tick
// continues.
func TestPanicRecovery(t *testing.T) {
	var buf bytes.Buffer
	rt := NewRuntime(Config{Logger: log.New(&buf, "", 0)})
	ran := false
	rt.AddSystem("broken", SystemFunc(func(ctx context.Context, dt float64) { panic("boom") }))
	rt.AddSystem("after", SystemFunc(func(ctx context.Context, dt float64) { ran = true }))

	rt.Step(context.Background())

	if !ran {
		t.Error("systems after a panic should still run")
	}
	if !strings.Contains(buf.String(), "system broken panicked: boom") {
		t.Errorf("panic not logged: %q", buf.String())
	}
}

// TestConcurrentSend tests that SendEvent is safe from client goroutines
func TestConcurrentSend(t *testing.T) {
	rt := NewRuntime(Config{})
	count := 0
	rt.Handle("pull", func(ctx context.Context, ev Event) { count++ })

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			rt.SendEvent(Event{Type: "pull"})
		}()
	}
	wg.Wait()
	rt.Step(context.Background())

	if count != 50 {
		t.Errorf("expected 50 events, got %d", count)
	}
}
