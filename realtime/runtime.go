package realtime

import (
	"context"
	"errors"
	"io"
	"log"
	"sync"
	"time"
)

// ErrQueueFull is returned when more events are sent in one tick than the
// runtime was configured to hold.
var ErrQueueFull = errors.New("event queue full")

// System is updated once per tick with the fixed time step in seconds.
type System interface {
	Update(ctx context.Context, dt float64)
}

// SystemFunc adapts a function to System.
type SystemFunc func(ctx context.Context, dt float64)

func (f SystemFunc) Update(ctx context.Context, dt float64) { f(ctx, dt) }

type namedSystem struct {
	name   string
	system System
}

// Runtime provides tick-based deterministic execution of a set of systems
// and client event handlers.
type Runtime struct {
	tickRate time.Duration
	logger   *log.Logger

	systems  []namedSystem
	handlers map[string]EventHandler

	// Serializes Step against the ticker goroutine.
	stepMu  sync.Mutex
	tickNum uint64

	// Event batching
	eventBatch  []EventWithMeta
	batchMu     sync.Mutex
	sequenceNum uint64

	// Control
	ticker     *time.Ticker
	tickCancel context.CancelFunc
	stopped    chan struct{}
}

// Config configures the real-time runtime
type Config struct {
	TickRate         time.Duration // Fixed tick rate (e.g., 50ms for 20 Hz)
	MaxEventsPerTick int           // Event queue capacity (default: 1000)
	Logger           *log.Logger
}

// NewRuntime creates a new tick-based runtime
func NewRuntime(cfg Config) *Runtime {
	if cfg.MaxEventsPerTick == 0 {
		cfg.MaxEventsPerTick = 1000
	}
	if cfg.TickRate == 0 {
		cfg.TickRate = 16667 * time.Microsecond // Default 60 FPS
	}
	if cfg.Logger == nil {
		cfg.Logger = log.New(io.Discard, "", 0)
	}

	return &Runtime{
		tickRate:   cfg.TickRate,
		logger:     cfg.Logger,
		handlers:   make(map[string]EventHandler),
		eventBatch: make([]EventWithMeta, 0, cfg.MaxEventsPerTick),
	}
}

// AddSystem appends a system. Systems update in the order they were added.
// Must be called before Start.
func (rt *Runtime) AddSystem(name string, s System) {
	rt.systems = append(rt.systems, namedSystem{name: name, system: s})
}

// Handle registers the handler for an event type, replacing any previous one.
// Must be called before Start.
func (rt *Runtime) Handle(eventType string, h EventHandler) {
	rt.handlers[eventType] = h
}

// TickRate returns the fixed time step.
func (rt *Runtime) TickRate() time.Duration {
	return rt.tickRate
}

// Step runs exactly one tick on the calling goroutine.
func (rt *Runtime) Step(ctx context.Context) {
	rt.stepMu.Lock()
	defer rt.stepMu.Unlock()

	rt.processTick(ctx)

	rt.batchMu.Lock()
	rt.tickNum++
	rt.batchMu.Unlock()
}

// Start begins ticker-driven execution
func (rt *Runtime) Start(ctx context.Context) error {
	if rt.stopped != nil {
		return errors.New("runtime already started")
	}
	tickCtx, cancel := context.WithCancel(ctx)
	rt.tickCancel = cancel
	rt.ticker = time.NewTicker(rt.tickRate)
	rt.stopped = make(chan struct{})

	go rt.tickLoop(tickCtx)

	return nil
}

// Stop gracefully stops the runtime
func (rt *Runtime) Stop() error {
	if rt.stopped == nil {
		return nil
	}
	rt.tickCancel()
	rt.ticker.Stop()

	// Wait for tick loop to exit
	<-rt.stopped
	rt.stopped = nil
	return nil
}

// tickLoop is the main tick execution loop
func (rt *Runtime) tickLoop(ctx context.Context) {
	defer close(rt.stopped)

	for {
		select {
		case <-ctx.Done():
			return
		case <-rt.ticker.C:
			rt.Step(ctx)
		}
	}
}

// SendEvent queues an event for the next tick (thread-safe)
func (rt *Runtime) SendEvent(ev Event) error {
	return rt.SendEventWithPriority(ev, 0)
}

// SendEventWithPriority queues an event with priority
func (rt *Runtime) SendEventWithPriority(ev Event, priority int) error {
	rt.batchMu.Lock()
	defer rt.batchMu.Unlock()

	if len(rt.eventBatch) >= cap(rt.eventBatch) {
		return ErrQueueFull
	}

	rt.eventBatch = append(rt.eventBatch, EventWithMeta{
		Event:       ev,
		SequenceNum: rt.sequenceNum,
		Priority:    priority,
	})
	rt.sequenceNum++

	return nil
}

// GetTickNumber returns the current tick count
func (rt *Runtime) GetTickNumber() uint64 {
	rt.batchMu.Lock()
	defer rt.batchMu.Unlock()
	return rt.tickNum
}
