package stacking

import (
	"errors"
	"fmt"
	"sort"

	"github.com/comalice/creepstack/vclock"
)

// Mark is one virtual-clock checkpoint of a stacking cycle.
type Mark struct {
	At    float64 `yaml:"at" json:"at"`
	Admit bool    `yaml:"admit" json:"admit"`
	Spawn bool    `yaml:"spawn" json:"spawn"`
}

// Schedule describes the looped virtual minute: the clock starts at Start,
// runs through the marks and jumps back to Start when it reaches Reset.
type Schedule struct {
	Start float64 `yaml:"start" json:"start"`
	Reset float64 `yaml:"reset" json:"reset"`
	Marks []Mark  `yaml:"marks" json:"marks"`
}

// DefaultSchedule opens the camp one second before the minute, spawns on
// the minute and closes it again one second after.
func DefaultSchedule() Schedule {
	return Schedule{
		Start: 44,
		Reset: 3,
		Marks: []Mark{
			{At: 59, Admit: true},
			{At: 0, Admit: true, Spawn: true},
			{At: 1, Admit: false},
		},
	}
}

var errBadSchedule = errors.New("bad schedule")

// Validate checks that exactly one mark spawns and that marks are distinct.
func (s Schedule) Validate() error {
	spawns := 0
	seen := make(map[float64]bool, len(s.Marks))
	for _, m := range s.Marks {
		p := vclock.Phase(m.At)
		if seen[p] {
			return fmt.Errorf("%w: duplicate mark at %v", errBadSchedule, m.At)
		}
		seen[p] = true
		if m.Spawn {
			spawns++
		}
	}
	if spawns != 1 {
		return fmt.Errorf("%w: need exactly one spawn mark, got %d", errBadSchedule, spawns)
	}
	if seen[vclock.Phase(s.Reset)] {
		return fmt.Errorf("%w: reset at %v collides with a mark", errBadSchedule, s.Reset)
	}
	if vclock.Phase(s.Start) == vclock.Phase(s.Reset) {
		return fmt.Errorf("%w: start equals reset", errBadSchedule)
	}
	return nil
}

// AdmitAt returns the admission policy in effect at phase: that of the most
// recent mark at or before it, wrapping around the minute.
func (s Schedule) AdmitAt(phase float64) bool {
	if len(s.Marks) == 0 {
		return false
	}
	marks := append([]Mark(nil), s.Marks...)
	sort.Slice(marks, func(i, j int) bool { return vclock.Phase(marks[i].At) < vclock.Phase(marks[j].At) })

	p := vclock.Phase(phase)
	admit := marks[len(marks)-1].Admit
	for _, m := range marks {
		if vclock.Phase(m.At) > p {
			break
		}
		admit = m.Admit
	}
	return admit
}
