// Package events reduces mesh lifecycle events into the set of meshes that
// need to be compiled and the set that needs to be evicted.
package events

import (
	"fmt"
	"maps"
	"slices"
	"sync"

	"github.com/achilleasa/bindless/asset/mesh"
)

// The kind of a lifecycle event.
type Kind uint8

// Supported lifecycle events.
const (
	Created Kind = iota
	Modified
	Removed
)

func (k Kind) String() string {
	switch k {
	case Created:
		return "created"
	case Modified:
		return "modified"
	case Removed:
		return "removed"
	}
	return fmt.Sprintf("kind(%d)", uint8(k))
}

// An Event reports a lifecycle change for a mesh asset.
type Event struct {
	ID   mesh.ID
	Kind Kind
}

// A ChangeSet is the reduction of one tick worth of events. The two sets are
// disjoint and sorted in ascending identity order.
type ChangeSet struct {
	// Meshes that need to be (re-)compiled and inserted.
	Changed []mesh.ID

	// Meshes that need to be evicted.
	Removed []mesh.ID
}

// Returns true if the change set contains no work.
func (cs ChangeSet) Empty() bool {
	return len(cs.Changed) == 0 && len(cs.Removed) == 0
}

// Reduce a batch of events. Repeated Created/Modified events collapse into a
// single change. A Removed event cancels any pending change for the same
// mesh; a change that follows a Removed event in the same batch cancels the
// removal.
func Reduce(batch []Event) ChangeSet {
	changed := make(map[mesh.ID]struct{})
	removed := make(map[mesh.ID]struct{})

	for _, evt := range batch {
		switch evt.Kind {
		case Created, Modified:
			delete(removed, evt.ID)
			changed[evt.ID] = struct{}{}
		case Removed:
			delete(changed, evt.ID)
			removed[evt.ID] = struct{}{}
		}
	}

	return ChangeSet{
		Changed: slices.Sorted(maps.Keys(changed)),
		Removed: slices.Sorted(maps.Keys(removed)),
	}
}

// A Queue collects lifecycle events from asset producers until the pipeline
// drains them at the start of a tick. It is safe for concurrent use.
type Queue struct {
	mu      sync.Mutex
	pending []Event
}

// Create a new event queue.
func NewQueue() *Queue {
	return &Queue{}
}

// Append events to the pending batch.
func (q *Queue) Push(evts ...Event) {
	q.mu.Lock()
	q.pending = append(q.pending, evts...)
	q.mu.Unlock()
}

// Return the pending batch and start a new one.
func (q *Queue) Drain() []Event {
	q.mu.Lock()
	defer q.mu.Unlock()

	batch := q.pending
	q.pending = nil
	return batch
}

// Get the number of pending events.
func (q *Queue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.pending)
}
