package chapter

import (
	"github.com/comalice/creepstack/region"
	"github.com/comalice/creepstack/stacking"
)

// Respawn brings a fresh wave into the camp outside a stacking run. The
// tracker admits while the wave spawns and rejects again once it has been
// delivered.
type Respawn struct {
	tracker *region.Tracker
	spawner stacking.Spawner
	active  bool
}

func NewRespawn(tracker *region.Tracker, spawner stacking.Spawner) *Respawn {
	return &Respawn{tracker: tracker, spawner: spawner}
}

// Begin opens admission and spawns. It returns the number of creeps created.
func (r *Respawn) Begin() int {
	r.active = true
	r.tracker.SetRemoveNew(false)
	return r.spawner.SpawnNeutralCreeps()
}

// Poll reports whether the wave is in the camp and its arrival batch has
// been delivered. Admission closes on the first true.
func (r *Respawn) Poll() bool {
	if !r.active {
		return false
	}
	if r.tracker.Count() == 0 || r.tracker.Pending() > 0 {
		return false
	}
	r.tracker.SetRemoveNew(true)
	r.active = false
	return true
}

func (r *Respawn) Active() bool {
	return r.active
}
