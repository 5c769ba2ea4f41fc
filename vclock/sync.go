package vclock

import "math"

// Boundaries of the judgment window after a spawn mark, and the slack around
// the minute mark in which the real world spawns camps on its own.
const (
	JudgeAfter  = 0.1
	JudgeBefore = 59.0
	SpawnSlack  = 1.0
)

// RealClock is the simulation clock the virtual clock is compared against.
type RealClock interface {
	Seconds() float64
}

// Phase normalizes t into [0, Minute).
func Phase(t float64) float64 {
	p := math.Mod(t, Minute)
	if p < 0 {
		p += Minute
	}
	return p
}

// NaturalSpawnImminent reports whether the real clock is within SpawnSlack
// of a minute mark. The world spawns camps on its own there, so a virtual
// spawn would double them.
func NaturalSpawnImminent(real float64) bool {
	p := Phase(real)
	return !(p > SpawnSlack && p < Minute-SpawnSlack)
}

// InJudgeWindow reports whether virtual time t is past the spawn instant
// and before the next closing mark.
func InJudgeWindow(t float64) bool {
	p := Phase(t)
	return p > JudgeAfter && p < JudgeBefore
}
