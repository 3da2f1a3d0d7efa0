package session

import (
	"sort"

	"github.com/riva-ui/riva/pkg/component"
)

// DirtySet tracks component identifiers pending rebuild. Insertion is
// idempotent, so a component marked many times between drains is rebuilt
// once. The set is mutated only on the session's own task, which makes
// Drain atomic with respect to marks arriving in the same cooperative
// step.
type DirtySet struct {
	pending map[component.ID]struct{}
}

// NewDirtySet returns an empty dirty set.
func NewDirtySet() *DirtySet {
	return &DirtySet{pending: make(map[component.ID]struct{})}
}

// Mark inserts an identifier. Marking an already-pending identifier is a
// no-op.
func (d *DirtySet) Mark(id component.ID) {
	d.pending[id] = struct{}{}
}

// Drain returns all pending identifiers in ascending order and empties
// the set.
func (d *DirtySet) Drain() []component.ID {
	if len(d.pending) == 0 {
		return nil
	}
	ids := make([]component.ID, 0, len(d.pending))
	for id := range d.pending {
		ids = append(ids, id)
	}
	clear(d.pending)
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

// Len returns the number of pending identifiers.
func (d *DirtySet) Len() int {
	return len(d.pending)
}
