package world

import (
	"errors"
	"fmt"
	"slices"

	"github.com/comalice/creepstack/region"
)

var ErrNoItem = errors.New("no such item")

// GroundItem is an item lying in the world waiting to be picked up.
type GroundItem struct {
	Name string
	Pos  region.Vec2
}

// Inventory holds the hero's items. Neutral is the single neutral item
// slot; the backpack takes everything else.
type Inventory struct {
	Neutral  string
	Backpack []string
	Stash    []string
}

// Has reports whether the hero carries name.
func (inv Inventory) Has(name string) bool {
	return inv.Neutral == name || slices.Contains(inv.Backpack, name)
}

// DropItem places an item on the ground at pos.
func (w *World) DropItem(name string, pos region.Vec2) {
	w.ground = append(w.ground, GroundItem{Name: name, Pos: pos})
	w.logger.Printf("world: %s dropped at (%.0f, %.0f)", name, pos.X, pos.Y)
}

func (w *World) GroundItems() []GroundItem {
	return append([]GroundItem(nil), w.ground...)
}

// ClearGroundItems removes every item lying on the ground.
func (w *World) ClearGroundItems() {
	w.ground = nil
}

// PickUp moves a ground item into the hero's inventory. It goes to the
// neutral slot when that is empty, otherwise to the backpack.
func (w *World) PickUp(name string) error {
	i := slices.IndexFunc(w.ground, func(g GroundItem) bool { return g.Name == name })
	if i < 0 {
		return fmt.Errorf("pick up %s: %w", name, ErrNoItem)
	}
	w.ground = slices.Delete(w.ground, i, i+1)
	if w.inv.Neutral == "" {
		w.inv.Neutral = name
	} else {
		w.inv.Backpack = append(w.inv.Backpack, name)
	}
	return nil
}

// SendToStash moves a carried item to the neutral stash.
func (w *World) SendToStash(name string) error {
	switch {
	case w.inv.Neutral == name:
		w.inv.Neutral = ""
	case slices.Contains(w.inv.Backpack, name):
		w.inv.Backpack = slices.DeleteFunc(w.inv.Backpack, func(s string) bool { return s == name })
	default:
		return fmt.Errorf("stash %s: %w", name, ErrNoItem)
	}
	w.inv.Stash = append(w.inv.Stash, name)
	return nil
}

// MoveToNeutralSlot swaps a backpack item into the neutral slot. The
// previous occupant goes to the backpack.
func (w *World) MoveToNeutralSlot(name string) error {
	i := slices.Index(w.inv.Backpack, name)
	if i < 0 {
		return fmt.Errorf("move %s: %w", name, ErrNoItem)
	}
	w.inv.Backpack = slices.Delete(w.inv.Backpack, i, i+1)
	if w.inv.Neutral != "" {
		w.inv.Backpack = append(w.inv.Backpack, w.inv.Neutral)
	}
	w.inv.Neutral = name
	return nil
}

// Inventory returns a copy of the hero's items.
func (w *World) Inventory() Inventory {
	return Inventory{
		Neutral:  w.inv.Neutral,
		Backpack: slices.Clone(w.inv.Backpack),
		Stash:    slices.Clone(w.inv.Stash),
	}
}
