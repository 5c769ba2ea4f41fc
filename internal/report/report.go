// Package report records what happened in a chapter run: stage changes and
// stacking outcomes. Reports can be persisted as JSON, YAML or SQLite rows,
// streamed to a channel or a compressed event log, and the stage machine
// rendered as Graphviz DOT.
package report

import (
	"errors"
	"sync"
	"time"

	"github.com/comalice/creepstack/stacking"
)

var ErrNoSession = errors.New("report has no session")

// Stage is one stage change.
type Stage struct {
	From string    `json:"from" yaml:"from"`
	To   string    `json:"to" yaml:"to"`
	At   time.Time `json:"at" yaml:"at"`
}

type Report struct {
	Session  string             `json:"session" yaml:"session"`
	Stages   []Stage            `json:"stages" yaml:"stages"`
	Outcomes []stacking.Outcome `json:"outcomes" yaml:"outcomes"`
}

// Stacks returns the stack count of the last outcome.
func (r Report) Stacks() int {
	if len(r.Outcomes) == 0 {
		return 0
	}
	return r.Outcomes[len(r.Outcomes)-1].Stacks
}

func (r Report) Validate() error {
	if r.Session == "" {
		return ErrNoSession
	}
	return nil
}

// Recorder collects a Report. It is safe for concurrent use so HTTP
// handlers can read it while the tick loop writes.
type Recorder struct {
	mu     sync.Mutex
	now    func() time.Time
	report Report
}

func NewRecorder() *Recorder {
	return &Recorder{now: time.Now}
}

func (r *Recorder) PublishOutcome(o stacking.Outcome) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.report.Outcomes = append(r.report.Outcomes, o)
}

func (r *Recorder) StageChanged(from, to string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.report.Stages = append(r.report.Stages, Stage{From: from, To: to, At: r.now()})
}

// Snapshot returns a copy of the report stamped with session.
func (r *Recorder) Snapshot(session string) Report {
	r.mu.Lock()
	defer r.mu.Unlock()
	return Report{
		Session:  session,
		Stages:   append([]Stage(nil), r.report.Stages...),
		Outcomes: append([]stacking.Outcome(nil), r.report.Outcomes...),
	}
}

// Reset forgets everything recorded so far.
func (r *Recorder) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.report = Report{}
}
