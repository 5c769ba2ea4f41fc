package creepstack

import "errors"

var (
	// ErrNotStarted is returned when a trigger is sent before Start.
	ErrNotStarted = errors.New("phase machine not started")

	// ErrMissingDependency marks a required collaborator or entity that could
	// not be found. It aborts the section instead of propagating a nil.
	ErrMissingDependency = errors.New("missing dependency")
)
