package creepstack

import (
	"context"
	"errors"
	"fmt"
)

type PhaseID int
type Trigger int

type Action func(ctx context.Context, trig Trigger, from PhaseID, to PhaseID) error
type Guard func(ctx context.Context, trig Trigger, from PhaseID, to PhaseID) (bool, error)

// ---

type Phase struct {
	ID          PhaseID
	Name        string
	Transitions []*Transition
	EntryAction Action
	ExitAction  Action
	Initial     bool
	Terminal    bool
}

type Transition struct {
	Trigger Trigger
	Source  *Phase
	Target  *Phase // nil --> internal transition
	Guard   Guard  // nil --> always taken
	Action  Action // nil --> do nothing
}

// PhaseMachine is a flat set of phases driven by triggers. It is not safe for
// concurrent use; callers own it from the tick loop.
type PhaseMachine struct {
	phases  map[PhaseID]*Phase
	order   []*Phase
	initial *Phase
	current *Phase
	started bool
}

//
// Public API
//

func (p *Phase) OnEntry(action Action) {
	p.EntryAction = action
}

func (p *Phase) OnExit(action Action) {
	p.ExitAction = action
}

// On registers a transition to target for trig. A nil target makes the
// transition internal: the action runs, no exit or entry happens.
func (p *Phase) On(trig Trigger, target *Phase, guard Guard, action Action) {
	p.Transitions = append(p.Transitions, &Transition{
		Trigger: trig,
		Source:  p,
		Target:  target,
		Guard:   guard,
		Action:  action,
	})
}

func NewPhaseMachine(phases ...*Phase) (*PhaseMachine, error) {
	if len(phases) == 0 {
		return nil, errors.New("no phases provided")
	}
	m := &PhaseMachine{
		phases: make(map[PhaseID]*Phase, len(phases)),
		order:  phases,
	}

	var initial *Phase
	for _, p := range phases {
		if p == nil {
			return nil, errors.New("nil phase")
		}
		if _, exists := m.phases[p.ID]; exists {
			return nil, fmt.Errorf("duplicate phase ID %d", p.ID)
		}
		m.phases[p.ID] = p
		if p.Initial {
			if initial != nil {
				return nil, errors.New("more than one initial phase")
			}
			initial = p
		}
	}

	if initial == nil {
		initial = phases[0] // First phase is the initial one.
	}
	m.initial = initial
	m.current = initial

	for _, p := range phases {
		for _, t := range p.Transitions {
			if t == nil {
				continue
			}
			if t.Source == nil {
				t.Source = p
			}
			if t.Target != nil {
				if _, ok := m.phases[t.Target.ID]; !ok {
					return nil, fmt.Errorf("phase %d has transition to unknown phase %d", p.ID, t.Target.ID)
				}
			}
		}
	}

	return m, nil
}

// Start enters the initial phase.
func (m *PhaseMachine) Start(ctx context.Context) error {
	m.current = m.initial
	m.started = true
	return m.current.enter(ctx, 0, m.current.ID, m.current.ID)
}

// Send fires trig against the current phase. Triggers without a matching
// transition are ignored.
func (m *PhaseMachine) Send(ctx context.Context, trig Trigger) error {
	if !m.started {
		return ErrNotStarted
	}

	for _, t := range m.current.Transitions {
		if t == nil || t.Trigger != trig {
			continue
		}
		next, taken, err := t.fire(ctx)
		if err != nil {
			return err
		}
		if taken {
			m.current = next
			return nil
		}
	}
	return nil
}

// Current returns the active phase.
func (m *PhaseMachine) Current() PhaseID {
	return m.current.ID
}

func (m *PhaseMachine) InPhase(id PhaseID) bool {
	return m.started && m.current.ID == id
}

// Started reports whether Start has been called.
func (m *PhaseMachine) Started() bool {
	return m.started
}

// Phases returns the phases in declaration order.
func (m *PhaseMachine) Phases() []*Phase {
	return append([]*Phase(nil), m.order...)
}

// Phase looks up a phase by ID.
func (m *PhaseMachine) Phase(id PhaseID) (*Phase, bool) {
	p, ok := m.phases[id]
	return p, ok
}

//
// Helper Functions (internal API)
//

func (p *Phase) enter(ctx context.Context, trig Trigger, from, to PhaseID) error {
	if p.EntryAction != nil {
		return p.EntryAction(ctx, trig, from, to)
	}
	return nil
}

func (p *Phase) exit(ctx context.Context, trig Trigger, from, to PhaseID) error {
	if p.ExitAction != nil {
		return p.ExitAction(ctx, trig, from, to)
	}
	return nil
}

func (t *Transition) targetID() PhaseID {
	if t.Target == nil {
		return t.Source.ID
	}
	return t.Target.ID
}

// fire evaluates a transition. taken is false when the guard rejected it, in
// which case the next candidate transition is tried.
func (t *Transition) fire(ctx context.Context) (next *Phase, taken bool, err error) {
	from, to := t.Source.ID, t.targetID()

	if t.Guard != nil {
		pass, err := t.Guard(ctx, t.Trigger, from, to)
		if err != nil {
			return t.Source, false, err
		}
		if !pass {
			return t.Source, false, nil
		}
	}

	if t.Target == nil {
		if t.Action != nil {
			if err := t.Action(ctx, t.Trigger, from, to); err != nil {
				return t.Source, true, err
			}
		}
		return t.Source, true, nil
	}

	if err := t.Source.exit(ctx, t.Trigger, from, to); err != nil {
		return t.Source, true, err
	}

	if t.Action != nil {
		if err := t.Action(ctx, t.Trigger, from, to); err != nil {
			// Rewind into the source phase.
			if err := t.Source.enter(ctx, t.Trigger, from, from); err != nil {
				return t.Source, true, err
			}
			return t.Source, true, nil
		}
	}

	if err := t.Target.enter(ctx, t.Trigger, from, to); err != nil {
		return t.Source, true, err
	}

	return t.Target, true, nil
}
