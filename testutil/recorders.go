// Package testutil holds recording fakes for the UI, goal and dialogue
// collaborators so tests can assert on what the engine asked for.
package testutil

import (
	"sync"

	"github.com/comalice/creepstack"
	"github.com/comalice/creepstack/region"
	"github.com/comalice/creepstack/stacking"
)

// FixedClock is a real clock that never moves on its own.
type FixedClock struct {
	T float64
}

func (c *FixedClock) Seconds() float64 { return c.T }

// Signals records UI signaling calls.
type Signals struct {
	mu         sync.Mutex
	skip       []bool
	highlights [][]region.Entity
	sections   []string
	outcomes   []stacking.Outcome
}

func (s *Signals) ShowSkip(show bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.skip = append(s.skip, show)
}

func (s *Signals) Highlight(batch []region.Entity) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.highlights = append(s.highlights, append([]region.Entity(nil), batch...))
}

func (s *Signals) SectionStarted(name string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sections = append(s.sections, name)
}

func (s *Signals) PublishOutcome(o stacking.Outcome) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.outcomes = append(s.outcomes, o)
}

// SkipVisible reports the last skip affordance state.
func (s *Signals) SkipVisible() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.skip) > 0 && s.skip[len(s.skip)-1]
}

func (s *Signals) SkipToggles() []bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]bool(nil), s.skip...)
}

func (s *Signals) Highlights() [][]region.Entity {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([][]region.Entity(nil), s.highlights...)
}

func (s *Signals) Sections() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.sections...)
}

func (s *Signals) Outcomes() []stacking.Outcome {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]stacking.Outcome(nil), s.outcomes...)
}

// ErrorMessage is one on-screen error shown to a player.
type ErrorMessage struct {
	Player creepstack.PlayerID
	Text   string
}

// Notifier records order-denial messages.
type Notifier struct {
	mu   sync.Mutex
	msgs []ErrorMessage
}

func (n *Notifier) ShowError(player creepstack.PlayerID, text string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.msgs = append(n.msgs, ErrorMessage{Player: player, Text: text})
}

func (n *Notifier) Messages() []ErrorMessage {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]ErrorMessage(nil), n.msgs...)
}

// Goals records goal tracker updates by key.
type Goals struct {
	mu        sync.Mutex
	started   map[string]bool
	completed map[string]bool
	values    map[string]int
}

func NewGoals() *Goals {
	return &Goals{
		started:   make(map[string]bool),
		completed: make(map[string]bool),
		values:    make(map[string]int),
	}
}

func (g *Goals) Start(key string) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.started[key] = true
}

func (g *Goals) Complete(key string) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.completed[key] = true
}

func (g *Goals) SetValue(key string, v int) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.values[key] = v
}

func (g *Goals) Started(key string) bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.started[key]
}

func (g *Goals) Completed(key string) bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.completed[key]
}

func (g *Goals) Value(key string) int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.values[key]
}

// Dialogue records the dialogue keys played, in order.
type Dialogue struct {
	mu   sync.Mutex
	keys []string
}

func (d *Dialogue) Play(key string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.keys = append(d.keys, key)
}

func (d *Dialogue) Keys() []string {
	d.mu.Lock()
	defer d.mu.Unlock()
	return append([]string(nil), d.keys...)
}
