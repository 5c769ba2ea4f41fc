package realtime

import (
	"context"
	"sort"
)

// Event is a client request delivered on the next tick boundary.
type Event struct {
	Type    string
	Payload any
}

// EventHandler processes one event on the tick goroutine.
type EventHandler func(ctx context.Context, ev Event)

// EventWithMeta is a queued event with its submission order.
type EventWithMeta struct {
	Event       Event
	SequenceNum uint64
	Priority    int
}

// sortEvents puts higher priorities first, FIFO within a priority.
func sortEvents(events []EventWithMeta) {
	sort.SliceStable(events, func(i, j int) bool {
		a, b := events[i], events[j]
		if a.Priority != b.Priority {
			return a.Priority > b.Priority
		}
		return a.SequenceNum < b.SequenceNum
	})
}
