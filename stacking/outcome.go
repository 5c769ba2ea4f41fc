package stacking

import "github.com/comalice/creepstack/region"

// Outcome is the verdict on one attempt cycle with the running tally.
type Outcome struct {
	Success bool `json:"success"`
	Tries   int  `json:"tries"`
	Stacks  int  `json:"stacks"`
}

// Handler reacts to one outcome. It runs synchronously on the tick loop.
type Handler func(Outcome)

// Signals is the UI surface the coordinator drives.
type Signals interface {
	ShowSkip(show bool)
	Highlight(batch []region.Entity)
}

// Spawner spawns the neutral camps.
type Spawner interface {
	SpawnNeutralCreeps() int
}

// Publisher receives every outcome, e.g. for broadcasting to clients.
type Publisher interface {
	PublishOutcome(Outcome)
}
