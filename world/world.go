// Package world is a small in-memory host simulation: entities with team,
// archetype and position, neutral camps that respawn on the minute when
// empty, pulled creeps leashing back to camp, the hero's items and the real
// game clock.
package world

import (
	"errors"
	"fmt"
	"io"
	"log"
	"math"
	"sort"

	"github.com/comalice/creepstack"
	"github.com/comalice/creepstack/region"
)

// ArchetypeHero is the archetype of player heroes.
const ArchetypeHero = "npc_dota_hero"

// DefaultLeashDelay is how long a pulled creep stays out before walking back.
const DefaultLeashDelay = 3.0

var ErrUnknownEntity = errors.New("unknown entity")

// Camp is a neutral spawn location. Spawning is blocked while any live
// neutral creep stands inside Box.
type Camp struct {
	Name string
	Box  region.Region
	Size int
}

var campOffsets = []region.Vec2{
	{X: 0, Y: 0},
	{X: 60, Y: 0},
	{X: -60, Y: 0},
	{X: 0, Y: 60},
	{X: 0, Y: -60},
	{X: 60, Y: 60},
}

type leash struct {
	id   region.EntityID
	home region.Vec2
	due  float64
}

// World is not safe for concurrent use; it belongs to the tick loop.
type World struct {
	logger *log.Logger

	next     region.EntityID
	entities map[region.EntityID]*region.Entity
	camps    []Camp
	hero     region.EntityID

	seconds       float64
	naturalSpawns bool
	leashDelay    float64
	leashes       []leash

	ground []GroundItem
	inv    Inventory
}

type Option func(*World)

// WithNaturalSpawns toggles camp spawns on every real minute mark.
func WithNaturalSpawns(v bool) Option {
	return func(w *World) { w.naturalSpawns = v }
}

func WithStartTime(seconds float64) Option {
	return func(w *World) { w.seconds = seconds }
}

func WithLeashDelay(seconds float64) Option {
	return func(w *World) { w.leashDelay = seconds }
}

func WithLogger(l *log.Logger) Option {
	return func(w *World) { w.logger = l }
}

func New(opts ...Option) *World {
	w := &World{
		logger:        log.New(io.Discard, "", 0),
		entities:      make(map[region.EntityID]*region.Entity),
		naturalSpawns: true,
		leashDelay:    DefaultLeashDelay,
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

func (w *World) AddCamp(c Camp) {
	if c.Size <= 0 {
		c.Size = 3
	}
	w.camps = append(w.camps, c)
}

func (w *World) Camps() []Camp {
	return append([]Camp(nil), w.camps...)
}

// Spawn creates a live entity and returns its ID.
func (w *World) Spawn(archetype string, team region.Team, pos region.Vec2) region.EntityID {
	w.next++
	w.entities[w.next] = &region.Entity{
		ID:        w.next,
		Archetype: archetype,
		Team:      team,
		Pos:       pos,
		Alive:     true,
	}
	return w.next
}

// SpawnHero places the player's hero.
func (w *World) SpawnHero(pos region.Vec2) region.EntityID {
	w.hero = w.Spawn(ArchetypeHero, region.TeamGoodGuys, pos)
	return w.hero
}

// Hero returns the player's hero, failing with creepstack.ErrMissingDependency
// when there is none.
func (w *World) Hero() (region.Entity, error) {
	e, ok := w.Lookup(w.hero)
	if w.hero == 0 || !ok || !e.Alive {
		return region.Entity{}, fmt.Errorf("could not find the player's hero: %w", creepstack.ErrMissingDependency)
	}
	return e, nil
}

func (w *World) Lookup(id region.EntityID) (region.Entity, bool) {
	e, ok := w.entities[id]
	if !ok {
		return region.Entity{}, false
	}
	return *e, true
}

// FindAllByArchetype returns live entities of archetype ordered by ID.
func (w *World) FindAllByArchetype(archetype string) []region.Entity {
	var out []region.Entity
	for _, e := range w.entities {
		if e.Alive && e.Archetype == archetype {
			out = append(out, *e)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// Remove destroys an entity without a death.
func (w *World) Remove(id region.EntityID) {
	delete(w.entities, id)
	w.dropLeash(id)
}

func (w *World) Move(id region.EntityID, pos region.Vec2) error {
	e, ok := w.entities[id]
	if !ok {
		return fmt.Errorf("move %d: %w", id, ErrUnknownEntity)
	}
	e.Pos = pos
	return nil
}

// Kill marks an entity dead. Corpses are purged on the next Advance.
func (w *World) Kill(id region.EntityID) error {
	e, ok := w.entities[id]
	if !ok {
		return fmt.Errorf("kill %d: %w", id, ErrUnknownEntity)
	}
	e.Alive = false
	w.dropLeash(id)
	return nil
}

func (w *World) SetInvulnerable(id region.EntityID, v bool) error {
	e, ok := w.entities[id]
	if !ok {
		return fmt.Errorf("invulnerable %d: %w", id, ErrUnknownEntity)
	}
	e.Invulnerable = v
	return nil
}

// Pull moves a creep to pos. It walks back to where it stood after the
// leash delay.
func (w *World) Pull(id region.EntityID, pos region.Vec2) error {
	e, ok := w.entities[id]
	if !ok {
		return fmt.Errorf("pull %d: %w", id, ErrUnknownEntity)
	}
	home := e.Pos
	for _, l := range w.leashes {
		if l.id == id {
			home = l.home
		}
	}
	w.dropLeash(id)
	e.Pos = pos
	w.leashes = append(w.leashes, leash{id: id, home: home, due: w.seconds + w.leashDelay})
	return nil
}

// PullCamp pulls every live neutral in the named camp towards pos.
func (w *World) PullCamp(name string, pos region.Vec2) int {
	n := 0
	for _, c := range w.camps {
		if c.Name != name {
			continue
		}
		for _, e := range w.FindAllByArchetype(region.ArchetypeNeutralCreep) {
			if c.Box.Contains(e.Pos) && w.Pull(e.ID, pos) == nil {
				n++
			}
		}
	}
	return n
}

func (w *World) dropLeash(id region.EntityID) {
	for i, l := range w.leashes {
		if l.id == id {
			w.leashes = append(w.leashes[:i], w.leashes[i+1:]...)
			return
		}
	}
}

// CampOccupied reports whether a live neutral creep blocks c from spawning.
func (w *World) CampOccupied(c Camp) bool {
	for _, e := range w.entities {
		if e.Alive && e.Team == region.TeamNeutrals && c.Box.Contains(e.Pos) {
			return true
		}
	}
	return false
}

// SpawnNeutralCreeps spawns a wave in every unblocked camp and returns the
// number of creeps created.
func (w *World) SpawnNeutralCreeps() int {
	n := 0
	for _, c := range w.camps {
		if w.CampOccupied(c) {
			continue
		}
		center := c.Box.Center()
		for i := 0; i < c.Size; i++ {
			w.Spawn(region.ArchetypeNeutralCreep, region.TeamNeutrals, center.Add(campOffsets[i%len(campOffsets)]))
			n++
		}
		w.logger.Printf("world: camp %s spawned at %.2fs", c.Name, w.seconds)
	}
	return n
}

// Seconds is the real game clock.
func (w *World) Seconds() float64 {
	return w.seconds
}

func (w *World) SetSeconds(t float64) {
	w.seconds = t
}

// Advance runs the simulation for dt seconds: corpses are purged, leashed
// creeps that are due walk home and camps spawn when a minute mark passes.
func (w *World) Advance(dt float64) {
	if dt <= 0 {
		return
	}
	prev := w.seconds
	w.seconds += dt

	for id, e := range w.entities {
		if !e.Alive {
			delete(w.entities, id)
		}
	}

	kept := w.leashes[:0]
	for _, l := range w.leashes {
		if l.due > w.seconds {
			kept = append(kept, l)
			continue
		}
		if e, ok := w.entities[l.id]; ok {
			e.Pos = l.home
		}
	}
	w.leashes = kept

	if w.naturalSpawns && math.Floor(w.seconds/60) > math.Floor(prev/60) {
		w.SpawnNeutralCreeps()
	}
}

// Neutrals returns live neutral creeps ordered by ID.
func (w *World) Neutrals() []region.Entity {
	return w.FindAllByArchetype(region.ArchetypeNeutralCreep)
}

// Entities returns every live entity ordered by ID.
func (w *World) Entities() []region.Entity {
	out := make([]region.Entity, 0, len(w.entities))
	for _, e := range w.entities {
		if e.Alive {
			out = append(out, *e)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}
