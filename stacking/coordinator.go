// Package stacking runs the neutral-camp stacking exercise: a looped virtual
// minute in which every spawn mark is one attempt, judged a success when a
// new wave joined the camp before the next judgment.
package stacking

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"

	"github.com/comalice/creepstack"
	"github.com/comalice/creepstack/region"
	"github.com/comalice/creepstack/vclock"
)

var ErrAlreadyRunning = errors.New("stacking run already in progress")

const (
	phaseIdle     = "idle"
	phaseRunning  = "running"
	phaseFinished = "finished"

	trigStart = "start"
	trigDone  = "done"
	trigSkip  = "skip"
	trigStop  = "stop"
)

// Coordinator drives one stacking run at a time. All methods must be called
// from the tick loop.
type Coordinator struct {
	clock   *vclock.Clock
	real    vclock.RealClock
	tracker *region.Tracker
	spawner Spawner
	signals Signals
	session *creepstack.Session

	schedule  Schedule
	publisher Publisher
	logger    *log.Logger

	b       *creepstack.PhaseBuilder
	machine *creepstack.PhaseMachine

	count      int
	onSuccess  Handler
	onFailure  Handler
	tries      int
	stacks     int
	prevTries  int
	prevStacks int
	done       bool
	skipped    bool

	group       *vclock.Group
	prevArrival region.ArrivalHandler
}

type Option func(*Coordinator)

func WithSchedule(s Schedule) Option {
	return func(c *Coordinator) { c.schedule = s }
}

func WithPublisher(p Publisher) Option {
	return func(c *Coordinator) { c.publisher = p }
}

func WithLogger(l *log.Logger) Option {
	return func(c *Coordinator) { c.logger = l }
}

// New wires a coordinator. Every collaborator is required.
func New(clock *vclock.Clock, real vclock.RealClock, tracker *region.Tracker, spawner Spawner, signals Signals, session *creepstack.Session, opts ...Option) (*Coordinator, error) {
	switch {
	case clock == nil:
		return nil, fmt.Errorf("stacking: virtual clock: %w", creepstack.ErrMissingDependency)
	case real == nil:
		return nil, fmt.Errorf("stacking: real clock: %w", creepstack.ErrMissingDependency)
	case tracker == nil:
		return nil, fmt.Errorf("stacking: tracker: %w", creepstack.ErrMissingDependency)
	case spawner == nil:
		return nil, fmt.Errorf("stacking: spawner: %w", creepstack.ErrMissingDependency)
	case signals == nil:
		return nil, fmt.Errorf("stacking: signals: %w", creepstack.ErrMissingDependency)
	case session == nil:
		return nil, fmt.Errorf("stacking: session: %w", creepstack.ErrMissingDependency)
	}

	c := &Coordinator{
		clock:    clock,
		real:     real,
		tracker:  tracker,
		spawner:  spawner,
		signals:  signals,
		session:  session,
		schedule: DefaultSchedule(),
		logger:   log.New(io.Discard, "", 0),
	}
	for _, opt := range opts {
		opt(c)
	}
	if err := c.schedule.Validate(); err != nil {
		return nil, fmt.Errorf("stacking: %w", err)
	}

	b := creepstack.NewPhaseBuilder(phaseIdle)
	b.Phase(phaseIdle).
		On(trigStart, phaseRunning, nil, nil)
	b.Phase(phaseRunning).
		Entry(c.setup).
		Exit(c.cleanup).
		On(trigDone, phaseFinished, nil, nil).
		On(trigSkip, phaseFinished, nil, c.logSkip).
		On(trigStop, phaseFinished, nil, nil)
	b.Phase(phaseFinished).Terminal().
		On(trigStart, phaseRunning, nil, nil)

	m, err := b.Build()
	if err != nil {
		return nil, err
	}
	if err := m.Start(context.Background()); err != nil {
		return nil, err
	}
	c.b = b
	c.machine = m
	return c, nil
}

// Start begins a run of count attempts. onSuccess and onFailure may be nil.
func (c *Coordinator) Start(ctx context.Context, count int, onSuccess, onFailure Handler) error {
	if c.Running() {
		return ErrAlreadyRunning
	}
	if count < 1 {
		return fmt.Errorf("stacking: count must be positive, got %d", count)
	}
	c.count = count
	c.onSuccess = onSuccess
	c.onFailure = onFailure
	return c.machine.Send(ctx, c.b.Trigger(trigStart))
}

// Tick evaluates the run once. It must run after the tracker update of the
// same tick.
func (c *Coordinator) Tick(ctx context.Context) {
	if !c.Running() {
		return
	}
	if c.session.SkipRequested() {
		c.skipped = true
		_ = c.machine.Send(ctx, c.b.Trigger(trigSkip))
		return
	}

	c.evaluate()

	if c.done {
		_ = c.machine.Send(ctx, c.b.Trigger(trigDone))
	}
}

// Stop ends a run early, with the same cleanup as a normal exit.
func (c *Coordinator) Stop(ctx context.Context) {
	if !c.Running() {
		return
	}
	_ = c.machine.Send(ctx, c.b.Trigger(trigStop))
}

func (c *Coordinator) evaluate() {
	if c.tries <= c.prevTries {
		return
	}
	// Judge only once the spawn instant has passed and the arrival batch
	// has been delivered.
	if !vclock.InJudgeWindow(c.clock.Time()) || c.tracker.Pending() > 0 {
		return
	}

	o := Outcome{Success: c.stacks > c.prevStacks, Tries: c.tries, Stacks: c.stacks}
	c.logger.Printf("stacking: try %d/%d success=%t stacks=%d", o.Tries, c.count, o.Success, o.Stacks)
	if c.publisher != nil {
		c.publisher.PublishOutcome(o)
	}
	if o.Success {
		if c.onSuccess != nil {
			c.onSuccess(o)
		}
	} else if c.onFailure != nil {
		c.onFailure(o)
	}

	if c.stacks == 0 {
		// No stack yet: the miss is forgiven.
		c.tries, c.stacks = 0, 0
	} else if c.tries >= c.count {
		c.done = true
	}
	c.prevTries, c.prevStacks = c.tries, c.stacks
}

func (c *Coordinator) setup(ctx context.Context, _ creepstack.Trigger, _, _ creepstack.PhaseID) error {
	c.tries, c.stacks, c.prevTries, c.prevStacks = 0, 0, 0, 0
	c.done, c.skipped = false, false

	c.session.OfferSkip(true)
	c.signals.ShowSkip(true)

	c.clock.Enable()
	c.clock.Set(c.schedule.Start)

	c.group = c.clock.NewGroup()
	c.group.Register(c.schedule.Reset, func() { c.clock.Set(c.schedule.Start) })
	for _, m := range c.schedule.Marks {
		c.group.Register(m.At, c.markCallback(m))
	}
	c.tracker.SetRemoveNew(!c.schedule.AdmitAt(c.schedule.Start))

	c.prevArrival = c.tracker.SetArrivalHandler(func(batch []region.Entity) {
		c.signals.Highlight(batch)
		c.stacks++
	})

	c.logger.Printf("stacking: session %s started, %d tries", c.session.ID(), c.count)
	return nil
}

func (c *Coordinator) markCallback(m Mark) vclock.Callback {
	return func() {
		c.tracker.SetRemoveNew(!m.Admit)
		if !m.Spawn {
			return
		}
		if !vclock.NaturalSpawnImminent(c.real.Seconds()) {
			c.spawner.SpawnNeutralCreeps()
		}
		c.tries++
	}
}

func (c *Coordinator) cleanup(ctx context.Context, _ creepstack.Trigger, _, _ creepstack.PhaseID) error {
	c.session.OfferSkip(false)
	c.signals.ShowSkip(false)

	c.group.Close()
	c.group = nil
	c.clock.Disable()

	c.tracker.SetArrivalHandler(c.prevArrival)
	c.prevArrival = nil

	c.logger.Printf("stacking: session %s finished, tries=%d stacks=%d", c.session.ID(), c.tries, c.stacks)
	return nil
}

func (c *Coordinator) logSkip(ctx context.Context, _ creepstack.Trigger, _, _ creepstack.PhaseID) error {
	c.logger.Printf("stacking: skip requested after %d tries", c.tries)
	return nil
}

func (c *Coordinator) Running() bool {
	return c.machine.InPhase(c.b.PhaseID(phaseRunning))
}

// Finished reports whether the last run has ended.
func (c *Coordinator) Finished() bool {
	return c.machine.InPhase(c.b.PhaseID(phaseFinished))
}

// Skipped reports whether the last run ended on a skip request.
func (c *Coordinator) Skipped() bool {
	return c.skipped
}

func (c *Coordinator) Tries() int  { return c.tries }
func (c *Coordinator) Stacks() int { return c.stacks }
func (c *Coordinator) Done() bool  { return c.done }
