// Package region tracks qualifying entities inside an axis-aligned box and
// coalesces bursts of newly seen entities into a single arrival batch.
package region

import (
	"errors"
	"fmt"
)

// ErrInvalidRegion is returned when a box has its minimum corner above its
// maximum corner on either axis.
var ErrInvalidRegion = errors.New("invalid region")

type Vec2 struct {
	X, Y float64
}

func (v Vec2) Add(o Vec2) Vec2 {
	return Vec2{X: v.X + o.X, Y: v.Y + o.Y}
}

// Region is an axis-aligned rectangle. Containment is open on the lower
// bound and closed on the upper bound.
type Region struct {
	Min Vec2
	Max Vec2
}

// New builds a region, rejecting malformed bounds instead of clamping them.
func New(min, max Vec2) (Region, error) {
	if min.X > max.X || min.Y > max.Y {
		return Region{}, fmt.Errorf("%w: min %v greater than max %v", ErrInvalidRegion, min, max)
	}
	return Region{Min: min, Max: max}, nil
}

// MustNew is like New but panics on malformed bounds. Intended for fixed
// coordinates in tests and examples.
func MustNew(min, max Vec2) Region {
	r, err := New(min, max)
	if err != nil {
		panic(err)
	}
	return r
}

// Contains reports whether p lies in (Min.X, Max.X] x (Min.Y, Max.Y].
func (r Region) Contains(p Vec2) bool {
	return p.X > r.Min.X && p.X <= r.Max.X && p.Y > r.Min.Y && p.Y <= r.Max.Y
}

func (r Region) Center() Vec2 {
	return Vec2{X: (r.Min.X + r.Max.X) / 2, Y: (r.Min.Y + r.Max.Y) / 2}
}
