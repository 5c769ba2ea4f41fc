package creepstack

import (
	"fmt"
	"sort"
)

// PhaseBuilder provides a fluent API for declaring a phase machine by name
// instead of wiring Phase structs and numeric IDs by hand.
type PhaseBuilder struct {
	nextPhase   PhaseID
	nextTrigger Trigger
	phaseIDs    map[string]PhaseID
	triggerIDs  map[string]Trigger
	phases      map[PhaseID]*Phase
	initial     string
	pending     []pendingTransition
}

// PhaseStep configures a single phase.
type PhaseStep struct {
	b     *PhaseBuilder
	phase *Phase
}

type pendingTransition struct {
	source  *Phase
	trigger Trigger
	target  string // "" --> internal transition
	guard   Guard
	action  Action
}

// NewPhaseBuilder creates a builder whose machine starts in initialPhase.
func NewPhaseBuilder(initialPhase string) *PhaseBuilder {
	return &PhaseBuilder{
		nextPhase:   1,
		nextTrigger: 1,
		phaseIDs:    make(map[string]PhaseID),
		triggerIDs:  make(map[string]Trigger),
		phases:      make(map[PhaseID]*Phase),
		initial:     initialPhase,
	}
}

// Phase creates or retrieves a phase by name.
func (b *PhaseBuilder) Phase(name string) *PhaseStep {
	id := b.phaseID(name)
	p := b.phases[id]
	if p == nil {
		p = &Phase{ID: id, Name: name}
		b.phases[id] = p
	}
	return &PhaseStep{b: b, phase: p}
}

// Build validates the declared phases and constructs the machine.
func (b *PhaseBuilder) Build() (*PhaseMachine, error) {
	if _, ok := b.phaseIDs[b.initial]; !ok {
		return nil, fmt.Errorf("initial phase %q was never declared", b.initial)
	}

	for _, pt := range b.pending {
		var target *Phase
		if pt.target != "" {
			id, ok := b.phaseIDs[pt.target]
			if !ok || b.phases[id] == nil {
				return nil, fmt.Errorf("phase %s has transition to unknown phase %q", pt.source.Name, pt.target)
			}
			target = b.phases[id]
		}
		pt.source.On(pt.trigger, target, pt.guard, pt.action)
	}
	b.pending = nil

	ids := make([]int, 0, len(b.phases))
	for id := range b.phases {
		ids = append(ids, int(id))
	}
	sort.Ints(ids)

	phases := make([]*Phase, 0, len(ids))
	for _, id := range ids {
		p := b.phases[PhaseID(id)]
		p.Initial = p.Name == b.initial
		phases = append(phases, p)
	}
	return NewPhaseMachine(phases...)
}

// PhaseID returns the ID assigned to name, or 0 if the name is unknown.
func (b *PhaseBuilder) PhaseID(name string) PhaseID {
	return b.phaseIDs[name]
}

// Trigger returns the trigger assigned to name, registering it if needed.
func (b *PhaseBuilder) Trigger(name string) Trigger {
	if t, ok := b.triggerIDs[name]; ok {
		return t
	}
	t := b.nextTrigger
	b.nextTrigger++
	b.triggerIDs[name] = t
	return t
}

// TriggerName returns the name t was registered under, or "" if unknown.
func (b *PhaseBuilder) TriggerName(t Trigger) string {
	for name, id := range b.triggerIDs {
		if id == t {
			return name
		}
	}
	return ""
}

// phaseID returns the existing ID for a name or assigns the next sequential one.
func (b *PhaseBuilder) phaseID(name string) PhaseID {
	if id, ok := b.phaseIDs[name]; ok {
		return id
	}
	id := b.nextPhase
	b.nextPhase++
	b.phaseIDs[name] = id
	return id
}

// PhaseStep fluent methods

// Terminal marks the phase as an end phase of the machine.
func (ps *PhaseStep) Terminal() *PhaseStep {
	ps.phase.Terminal = true
	return ps
}

// Entry sets the action run when the phase is entered.
func (ps *PhaseStep) Entry(action Action) *PhaseStep {
	ps.phase.EntryAction = action
	return ps
}

// Exit sets the action run when the phase is left.
func (ps *PhaseStep) Exit(action Action) *PhaseStep {
	ps.phase.ExitAction = action
	return ps
}

// On adds a transition to targetName fired by triggerName. Targets may be
// declared later; they are resolved in Build.
func (ps *PhaseStep) On(triggerName, targetName string, guard Guard, action Action) *PhaseStep {
	ps.b.phaseID(targetName)
	ps.b.pending = append(ps.b.pending, pendingTransition{
		source:  ps.phase,
		trigger: ps.b.Trigger(triggerName),
		target:  targetName,
		guard:   guard,
		action:  action,
	})
	return ps
}

// OnInternal adds a transition that runs action without leaving the phase.
func (ps *PhaseStep) OnInternal(triggerName string, guard Guard, action Action) *PhaseStep {
	ps.b.pending = append(ps.b.pending, pendingTransition{
		source:  ps.phase,
		trigger: ps.b.Trigger(triggerName),
		guard:   guard,
		action:  action,
	})
	return ps
}
