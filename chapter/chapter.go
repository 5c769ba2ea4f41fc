// Package chapter runs the neutral camp section of the tutorial: a fresh
// wave, a one-try practice stack, an optional championship, clearing the
// stacked camp and the neutral item lesson. It owns the tick runtime and the
// order filter for the session.
package chapter

import (
	"context"
	"fmt"
	"io"
	"log"
	"math/rand"
	"time"

	"github.com/comalice/creepstack"
	"github.com/comalice/creepstack/orders"
	"github.com/comalice/creepstack/realtime"
	"github.com/comalice/creepstack/region"
	"github.com/comalice/creepstack/stacking"
	"github.com/comalice/creepstack/vclock"
	"github.com/comalice/creepstack/world"
)

// Client event types accepted by the runtime.
const (
	EventSkip   = "skip"
	EventPull   = "pull"
	EventOrder  = "order"
	EventPickUp = "pick_up"
)

const (
	stageIdle         = "idle"
	stageRespawn      = "respawn"
	stagePractice     = "practice"
	stageChampionship = "championship"
	stageClear        = "clear"
	stagePickup       = "pickup_item"
	stageThirdSpawn   = "third_spawn"
	stagePickupSecond = "pickup_second_item"
	stageStash        = "stash"
	stageSwap         = "swap"
	stageComplete     = "complete"

	trigStart = "start"
	trigNext  = "next"
	trigStop  = "stop"
)

var stages = []string{
	stageIdle, stageRespawn, stagePractice, stageChampionship, stageClear,
	stagePickup, stageThirdSpawn, stagePickupSecond, stageStash, stageSwap,
	stageComplete,
}

// Goals is the goal tracker UI.
type Goals interface {
	Start(key string)
	Complete(key string)
	SetValue(key string, v int)
}

// Dialogue plays a localized line.
type Dialogue interface {
	Play(key string)
}

// Signals is the UI signaling surface the chapter drives.
type Signals interface {
	stacking.Signals
	stacking.Publisher
	SectionStarted(name string)
}

// Observer is told about every outcome and stage change.
type Observer interface {
	stacking.Publisher
	StageChanged(from, to string)
}

type publishers []stacking.Publisher

func (ps publishers) PublishOutcome(o stacking.Outcome) {
	for _, p := range ps {
		p.PublishOutcome(o)
	}
}

type Config struct {
	Camp              string
	Region            region.Region
	CampSize          int
	Debounce          float64
	PracticeTries     int
	ChampionshipTries int
	Schedule          stacking.Schedule
	Items             orders.Items
	Seed              int64
	TickRate          time.Duration
}

// DefaultConfig returns the hard camp above the radiant jungle with the
// standard stacking schedule.
func DefaultConfig() Config {
	return Config{
		Camp:              "hard",
		Region:            region.MustNew(region.Vec2{X: -2911, Y: 4373}, region.Vec2{X: -2142, Y: 5203}),
		CampSize:          3,
		Debounce:          region.DefaultDebounce,
		PracticeTries:     1,
		ChampionshipTries: 5,
		Schedule:          stacking.DefaultSchedule(),
		Items:             orders.Items{First: "item_arcane_ring", Second: "item_mysterious_hat"},
		Seed:              1,
		TickRate:          50 * time.Millisecond,
	}
}

type Option func(*Chapter)

func WithLogger(l *log.Logger) Option {
	return func(c *Chapter) { c.logger = l }
}

// WithRealClock replaces the world as the source of real game time.
func WithRealClock(rc vclock.RealClock) Option {
	return func(c *Chapter) { c.real = rc }
}

// WithLocalizer resolves denial reasons before they reach the notifier.
func WithLocalizer(l orders.Localizer) Option {
	return func(c *Chapter) { c.localize = l }
}

// WithObserver adds an observer. It is called on the tick goroutine.
func WithObserver(o Observer) Option {
	return func(c *Chapter) { c.observers = append(c.observers, o) }
}

// Chapter is driven entirely from its runtime's tick goroutine. Start and
// Stop must be called before the runtime runs or after it has stopped.
type Chapter struct {
	cfg      Config
	world    *world.World
	session  *creepstack.Session
	signals  Signals
	goals    Goals
	dialogue Dialogue

	logger    *log.Logger
	real      vclock.RealClock
	localize  orders.Localizer
	observers []Observer
	rng       *rand.Rand

	clock   *vclock.Clock
	tracker *region.Tracker
	coord   *stacking.Coordinator
	respawn *Respawn
	filter  *orders.Filter
	runtime *realtime.Runtime

	b       *creepstack.PhaseBuilder
	machine *creepstack.PhaseMachine
}

// New wires a chapter onto w. The player's hero must already be in the
// world.
func New(w *world.World, session *creepstack.Session, signals Signals, notifier orders.Notifier, goals Goals, dialogue Dialogue, cfg Config, opts ...Option) (*Chapter, error) {
	switch {
	case w == nil:
		return nil, fmt.Errorf("chapter: world: %w", creepstack.ErrMissingDependency)
	case session == nil:
		return nil, fmt.Errorf("chapter: session: %w", creepstack.ErrMissingDependency)
	case signals == nil:
		return nil, fmt.Errorf("chapter: signals: %w", creepstack.ErrMissingDependency)
	case goals == nil:
		return nil, fmt.Errorf("chapter: goals: %w", creepstack.ErrMissingDependency)
	case dialogue == nil:
		return nil, fmt.Errorf("chapter: dialogue: %w", creepstack.ErrMissingDependency)
	}
	if _, err := w.Hero(); err != nil {
		return nil, fmt.Errorf("chapter: %w", err)
	}
	if cfg.PracticeTries < 1 || cfg.ChampionshipTries < 1 {
		return nil, fmt.Errorf("chapter: tries must be positive, got %d and %d", cfg.PracticeTries, cfg.ChampionshipTries)
	}

	c := &Chapter{
		cfg:      cfg,
		world:    w,
		session:  session,
		signals:  signals,
		goals:    goals,
		dialogue: dialogue,
		logger:   log.New(io.Discard, "", 0),
		real:     w,
		rng:      rand.New(rand.NewSource(cfg.Seed)),
		clock:    vclock.New(),
	}
	for _, opt := range opts {
		opt(c)
	}

	w.AddCamp(world.Camp{Name: cfg.Camp, Box: cfg.Region, Size: cfg.CampSize})

	debounce := cfg.Debounce
	if debounce <= 0 {
		debounce = region.DefaultDebounce
	}
	c.tracker = region.NewTracker(cfg.Region, w,
		region.WithDebounce(debounce),
		region.WithLogger(c.logger),
	)
	c.respawn = NewRespawn(c.tracker, w)

	pubs := publishers{signals}
	for _, o := range c.observers {
		pubs = append(pubs, o)
	}
	coord, err := stacking.New(c.clock, c.real, c.tracker, w, signals, session,
		stacking.WithSchedule(cfg.Schedule),
		stacking.WithPublisher(pubs),
		stacking.WithLogger(c.logger),
	)
	if err != nil {
		return nil, fmt.Errorf("chapter: %w", err)
	}
	c.coord = coord

	filterOpts := []orders.FilterOption{orders.WithLogger(c.logger)}
	if c.localize != nil {
		filterOpts = append(filterOpts, orders.WithLocalizer(c.localize))
	}
	c.filter = orders.NewFilter(session, cfg.Items, notifier, filterOpts...)

	c.runtime = realtime.NewRuntime(realtime.Config{TickRate: cfg.TickRate, Logger: c.logger})
	c.runtime.AddSystem("world", realtime.SystemFunc(func(_ context.Context, dt float64) { w.Advance(dt) }))
	c.runtime.AddSystem("clock", realtime.SystemFunc(func(_ context.Context, dt float64) { c.clock.Advance(dt) }))
	c.runtime.AddSystem("tracker", realtime.SystemFunc(func(_ context.Context, dt float64) { c.tracker.Update(dt) }))
	c.runtime.AddSystem("chapter", realtime.SystemFunc(c.update))
	c.runtime.Handle(EventSkip, c.onSkip)
	c.runtime.Handle(EventPull, c.onPull)
	c.runtime.Handle(EventOrder, c.onOrder)
	c.runtime.Handle(EventPickUp, c.onPickUp)

	if err := c.buildStages(); err != nil {
		return nil, err
	}
	return c, nil
}

func (c *Chapter) buildStages() error {
	b := creepstack.NewPhaseBuilder(stageIdle)
	b.Phase(stageIdle).
		On(trigStart, stageRespawn, nil, nil).
		On(trigStop, stageComplete, nil, nil)
	b.Phase(stageRespawn).
		Entry(c.enterRespawn).
		On(trigNext, stagePractice, nil, nil).
		On(trigStop, stageComplete, nil, nil)
	b.Phase(stagePractice).
		Entry(c.enterPractice).
		Exit(c.exitPractice).
		On(trigNext, stageClear, c.skipRequested, nil).
		On(trigNext, stageChampionship, nil, nil).
		On(trigStop, stageComplete, nil, nil)
	b.Phase(stageChampionship).
		Entry(c.enterChampionship).
		Exit(c.exitChampionship).
		On(trigNext, stageClear, nil, nil).
		On(trigStop, stageComplete, nil, nil)
	b.Phase(stageClear).
		Entry(c.enterClear).
		On(trigNext, stagePickup, nil, c.completeClear).
		On(trigStop, stageComplete, nil, nil)
	b.Phase(stagePickup).
		Entry(c.enterPickup).
		Exit(c.exitPickup).
		On(trigNext, stageThirdSpawn, nil, nil).
		On(trigStop, stageComplete, nil, nil)
	b.Phase(stageThirdSpawn).
		Entry(c.enterThirdSpawn).
		Exit(c.exitThirdSpawn).
		On(trigNext, stagePickupSecond, nil, nil).
		On(trigStop, stageComplete, nil, nil)
	b.Phase(stagePickupSecond).
		Entry(c.enterPickupSecond).
		Exit(c.exitPickupSecond).
		On(trigNext, stageStash, nil, nil).
		On(trigStop, stageComplete, nil, nil)
	b.Phase(stageStash).
		Entry(c.enterStash).
		Exit(c.exitStash).
		On(trigNext, stageSwap, nil, nil).
		On(trigStop, stageComplete, nil, nil)
	b.Phase(stageSwap).
		Entry(c.enterSwap).
		Exit(c.exitSwap).
		On(trigNext, stageComplete, nil, c.completeChapter).
		On(trigStop, stageComplete, nil, nil)
	b.Phase(stageComplete).Terminal()

	m, err := b.Build()
	if err != nil {
		return fmt.Errorf("chapter: %w", err)
	}
	if err := m.Start(context.Background()); err != nil {
		return fmt.Errorf("chapter: %w", err)
	}
	c.b, c.machine = b, m
	return nil
}

// Start resets the session and begins the section.
func (c *Chapter) Start(ctx context.Context) error {
	if !c.machine.InPhase(c.b.PhaseID(stageIdle)) {
		return fmt.Errorf("chapter: already started (stage %s)", c.Stage())
	}
	c.session.Reset()
	c.logger.Printf("chapter: session %s starting", c.session.ID())
	c.signals.SectionStarted(SectionName)
	return c.send(ctx, trigStart)
}

// Stop tears the section down from any stage: the stacking run ends with its
// usual cleanup, the camp is emptied and the session forgets its state.
func (c *Chapter) Stop(ctx context.Context) {
	c.coord.Stop(ctx)
	c.clock.Disable()
	c.signals.ShowSkip(false)
	n := c.tracker.DestroyAll()
	c.world.ClearGroundItems()
	_ = c.send(ctx, trigStop)
	c.session.Reset()
	c.logger.Printf("chapter: stopped, %d neutrals removed", n)
}

// Step runs one tick on the calling goroutine.
func (c *Chapter) Step(ctx context.Context) {
	c.runtime.Step(ctx)
}

// Skip queues a skip request for the next tick.
func (c *Chapter) Skip() error {
	return c.runtime.SendEvent(realtime.Event{Type: EventSkip})
}

// Pull queues a pull of the camp towards pos.
func (c *Chapter) Pull(pos region.Vec2) error {
	return c.runtime.SendEvent(realtime.Event{Type: EventPull, Payload: pos})
}

// Order queues an order for the player's hero. Allowed orders are carried
// out on the world; denials reach the notifier. Hosts that execute orders
// themselves call FilterOrder instead.
func (c *Chapter) Order(o orders.Order) error {
	return c.runtime.SendEvent(realtime.Event{Type: EventOrder, Payload: o})
}

// PickUp queues the hero picking up a ground item.
func (c *Chapter) PickUp(item string) error {
	return c.runtime.SendEvent(realtime.Event{Type: EventPickUp, Payload: item})
}

// FilterOrder is the order-filter hook.
func (c *Chapter) FilterOrder(o orders.Order) (bool, orders.Reason) {
	return c.filter.Filter(o)
}

// Stage returns the name of the current stage.
func (c *Chapter) Stage() string {
	for _, s := range stages {
		if c.machine.InPhase(c.b.PhaseID(s)) {
			return s
		}
	}
	return ""
}

// StageMachine exposes the stage machine and its trigger names for
// rendering.
func (c *Chapter) StageMachine() (*creepstack.PhaseMachine, func(creepstack.Trigger) string) {
	return c.machine, c.b.TriggerName
}

// Done reports whether the section has finished or was stopped.
func (c *Chapter) Done() bool {
	return c.machine.InPhase(c.b.PhaseID(stageComplete))
}

func (c *Chapter) Runtime() *realtime.Runtime         { return c.runtime }
func (c *Chapter) Clock() *vclock.Clock               { return c.clock }
func (c *Chapter) Tracker() *region.Tracker           { return c.tracker }
func (c *Chapter) Coordinator() *stacking.Coordinator { return c.coord }
func (c *Chapter) Session() *creepstack.Session       { return c.session }
func (c *Chapter) World() *world.World                { return c.world }
func (c *Chapter) Config() Config                     { return c.cfg }

// update is the last system of every tick.
func (c *Chapter) update(ctx context.Context, _ float64) {
	switch c.Stage() {
	case stageRespawn:
		if c.respawn.Poll() {
			c.next(ctx)
		}
	case stagePractice, stageChampionship:
		c.coord.Tick(ctx)
		if c.coord.Finished() {
			c.next(ctx)
		}
	case stageClear:
		if c.tracker.Remaining() == 0 {
			c.next(ctx)
		}
	case stagePickup:
		if c.world.Inventory().Has(c.cfg.Items.First) {
			c.next(ctx)
		}
	case stageThirdSpawn:
		if c.respawn.Active() {
			c.respawn.Poll()
			return
		}
		if c.tracker.Remaining() == 0 {
			c.next(ctx)
		}
	case stagePickupSecond:
		if c.world.Inventory().Has(c.cfg.Items.Second) {
			c.next(ctx)
		}
	case stageStash:
		if c.session.MovedToStash() {
			c.next(ctx)
		}
	case stageSwap:
		if c.world.Inventory().Neutral == c.cfg.Items.Second {
			c.next(ctx)
		}
	}
}

func (c *Chapter) next(ctx context.Context) {
	if err := c.send(ctx, trigNext); err != nil {
		c.logger.Printf("chapter: leaving %s: %v", c.Stage(), err)
	}
}

func (c *Chapter) send(ctx context.Context, trig string) error {
	from := c.Stage()
	if err := c.machine.Send(ctx, c.b.Trigger(trig)); err != nil {
		return err
	}
	if to := c.Stage(); to != from {
		c.logger.Printf("chapter: %s -> %s", from, to)
		for _, o := range c.observers {
			o.StageChanged(from, to)
		}
	}
	return nil
}

func (c *Chapter) skipRequested(context.Context, creepstack.Trigger, creepstack.PhaseID, creepstack.PhaseID) (bool, error) {
	return c.session.SkipRequested(), nil
}

func (c *Chapter) enterRespawn(context.Context, creepstack.Trigger, creepstack.PhaseID, creepstack.PhaseID) error {
	c.tracker.DestroyAll()
	n := c.respawn.Begin()
	c.logger.Printf("chapter: respawned %d neutrals", n)
	return nil
}

func (c *Chapter) enterPractice(ctx context.Context, _ creepstack.Trigger, _, _ creepstack.PhaseID) error {
	c.goals.Start(GoalStackCreeps)
	c.dialogue.Play(DialoguePracticeIntro)
	return c.coord.Start(ctx, c.cfg.PracticeTries, nil, func(stacking.Outcome) {
		c.dialogue.Play(DialoguePracticeFailure)
	})
}

func (c *Chapter) exitPractice(_ context.Context, trig creepstack.Trigger, _, _ creepstack.PhaseID) error {
	c.tracker.SetRemoveNew(true)
	if c.stopping(trig) {
		return nil
	}
	c.dialogue.Play(DialoguePracticeDone)
	c.goals.Complete(GoalStackCreeps)
	return nil
}

func (c *Chapter) enterChampionship(ctx context.Context, _ creepstack.Trigger, _, _ creepstack.PhaseID) error {
	c.dialogue.Play(DialogueChampionshipIntro)
	c.goals.Start(GoalOptionalStack)
	c.goals.Start(GoalTryStack)
	report := func(o stacking.Outcome) {
		c.goals.SetValue(GoalTryStack, o.Tries)
		c.goals.SetValue(GoalOptionalStack, o.Stacks)
		if o.Success {
			c.dialogue.Play(StackLine(o.Stacks, c.rng))
		} else {
			c.dialogue.Play(StackLine(0, c.rng))
		}
	}
	return c.coord.Start(ctx, c.cfg.ChampionshipTries, report, report)
}

func (c *Chapter) exitChampionship(_ context.Context, trig creepstack.Trigger, _, _ creepstack.PhaseID) error {
	c.tracker.SetRemoveNew(true)
	if c.stopping(trig) {
		return nil
	}
	c.goals.Complete(GoalOptionalStack)
	c.goals.Complete(GoalTryStack)
	return nil
}

func (c *Chapter) enterClear(context.Context, creepstack.Trigger, creepstack.PhaseID, creepstack.PhaseID) error {
	c.dialogue.Play(DialogueKillStack)
	c.goals.Start(GoalKillStack)
	return nil
}

func (c *Chapter) completeClear(context.Context, creepstack.Trigger, creepstack.PhaseID, creepstack.PhaseID) error {
	c.goals.Complete(GoalKillStack)
	return nil
}

func (c *Chapter) stopping(trig creepstack.Trigger) bool {
	return trig == c.b.Trigger(trigStop)
}

func (c *Chapter) enterPickup(context.Context, creepstack.Trigger, creepstack.PhaseID, creepstack.PhaseID) error {
	c.world.DropItem(c.cfg.Items.First, c.cfg.Region.Center())
	c.goals.Start(GoalPickupItem)
	return nil
}

func (c *Chapter) exitPickup(_ context.Context, trig creepstack.Trigger, _, _ creepstack.PhaseID) error {
	if c.stopping(trig) {
		return nil
	}
	c.goals.Complete(GoalPickupItem)
	c.dialogue.Play(DialogueNeutralSlot)
	return nil
}

func (c *Chapter) enterThirdSpawn(context.Context, creepstack.Trigger, creepstack.PhaseID, creepstack.PhaseID) error {
	c.goals.Start(GoalKillSpawn)
	n := c.respawn.Begin()
	c.logger.Printf("chapter: third wave, %d neutrals", n)
	c.dialogue.Play(DialogueThirdSpawn)
	return nil
}

func (c *Chapter) exitThirdSpawn(_ context.Context, trig creepstack.Trigger, _, _ creepstack.PhaseID) error {
	c.tracker.SetRemoveNew(true)
	if c.stopping(trig) {
		return nil
	}
	c.goals.Complete(GoalKillSpawn)
	return nil
}

func (c *Chapter) enterPickupSecond(context.Context, creepstack.Trigger, creepstack.PhaseID, creepstack.PhaseID) error {
	c.world.DropItem(c.cfg.Items.Second, c.cfg.Region.Center())
	c.goals.Start(GoalPickupSecond)
	return nil
}

func (c *Chapter) exitPickupSecond(_ context.Context, trig creepstack.Trigger, _, _ creepstack.PhaseID) error {
	if !c.stopping(trig) {
		c.goals.Complete(GoalPickupSecond)
	}
	return nil
}

// enterStash is the checkpoint that lets the first item go to the stash.
func (c *Chapter) enterStash(context.Context, creepstack.Trigger, creepstack.PhaseID, creepstack.PhaseID) error {
	c.dialogue.Play(DialogueStash)
	c.goals.Start(GoalStash)
	c.session.SetExpectingStashDeposit(true)
	return nil
}

func (c *Chapter) exitStash(_ context.Context, trig creepstack.Trigger, _, _ creepstack.PhaseID) error {
	c.session.SetExpectingStashDeposit(false)
	if c.stopping(trig) {
		return nil
	}
	c.goals.Complete(GoalStash)
	c.dialogue.Play(DialogueStashed)
	return nil
}

// enterSwap is the checkpoint that lets the second item leave the backpack.
func (c *Chapter) enterSwap(context.Context, creepstack.Trigger, creepstack.PhaseID, creepstack.PhaseID) error {
	c.goals.Start(GoalSwapItems)
	c.session.SetCanMoveNeutralFromBackpack(true)
	return nil
}

func (c *Chapter) exitSwap(_ context.Context, trig creepstack.Trigger, _, _ creepstack.PhaseID) error {
	c.session.SetCanMoveNeutralFromBackpack(false)
	if c.stopping(trig) {
		return nil
	}
	c.goals.Complete(GoalSwapItems)
	c.dialogue.Play(DialogueSwapped)
	return nil
}

func (c *Chapter) completeChapter(context.Context, creepstack.Trigger, creepstack.PhaseID, creepstack.PhaseID) error {
	c.logger.Printf("chapter: session %s complete", c.session.ID())
	return nil
}

func (c *Chapter) onSkip(context.Context, realtime.Event) {
	if c.session.RequestSkip() {
		c.logger.Printf("chapter: skip requested")
	}
}

func (c *Chapter) onPull(_ context.Context, ev realtime.Event) {
	pos, ok := ev.Payload.(region.Vec2)
	if !ok {
		c.logger.Printf("chapter: pull payload %T", ev.Payload)
		return
	}
	c.world.PullCamp(c.cfg.Camp, pos)
}

func (c *Chapter) onPickUp(_ context.Context, ev realtime.Event) {
	item, _ := ev.Payload.(string)
	if err := c.world.PickUp(item); err != nil {
		c.logger.Printf("chapter: %v", err)
	}
}

func (c *Chapter) onOrder(_ context.Context, ev realtime.Event) {
	o, ok := ev.Payload.(orders.Order)
	if !ok {
		c.logger.Printf("chapter: order payload %T", ev.Payload)
		return
	}
	if o.Issuer == c.session.PlayerID() && carried(o.Kind) && !c.world.Inventory().Has(o.Item) {
		c.logger.Printf("chapter: %s %s: hero does not carry it", o.Kind, o.Item)
		return
	}
	ok, reason := c.filter.Filter(o)
	if !ok {
		c.logger.Printf("chapter: %s %s refused: %s", o.Kind, o.Item, reason)
		return
	}
	if o.Issuer != c.session.PlayerID() {
		return
	}
	if err := c.execute(o); err != nil {
		c.logger.Printf("chapter: %s %s: %v", o.Kind, o.Item, err)
	}
}

// carried reports whether orders of kind act on an item the hero holds.
func carried(k orders.Kind) bool {
	return k == orders.KindDropItemAtFountain || k == orders.KindMoveItem
}

// execute carries out an allowed order on the hero's inventory.
func (c *Chapter) execute(o orders.Order) error {
	switch o.Kind {
	case orders.KindDropItemAtFountain:
		return c.world.SendToStash(o.Item)
	case orders.KindMoveItem:
		return c.world.MoveToNeutralSlot(o.Item)
	}
	return nil
}
