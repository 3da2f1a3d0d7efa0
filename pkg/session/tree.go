package session

import (
	"sort"

	"github.com/riva-ui/riva/pkg/component"
)

// record holds what the session tracks per mounted component: the
// instance itself, the encoded state at the last outbound sync (the diff
// baseline), and the subtree its builder produced last (composites only).
type record struct {
	comp        component.Component
	lastSync    component.DeltaState
	buildResult component.Component
}

// tree is the identifier index over all mounted components. It is a weak
// back-reference table: entries are removed explicitly on unmount and
// never keep a component alive past its structural lifetime. Mutated
// only on the session task.
type tree struct {
	nextID  component.ID
	records map[component.ID]*record
}

func newTree() *tree {
	return &tree{records: make(map[component.ID]*record)}
}

// allocate returns a fresh identifier. IDs are never reused within a
// session, so retired identifiers stay invalid.
func (t *tree) allocate() component.ID {
	t.nextID++
	return t.nextID
}

func (t *tree) insert(id component.ID, rec *record) {
	t.records[id] = rec
}

func (t *tree) lookup(id component.ID) (*record, bool) {
	rec, ok := t.records[id]
	return rec, ok
}

func (t *tree) remove(id component.ID) {
	delete(t.records, id)
}

func (t *tree) len() int {
	return len(t.records)
}

// ids returns all live identifiers in ascending order.
func (t *tree) ids() []component.ID {
	out := make([]component.ID, 0, len(t.records))
	for id := range t.records {
		out = append(out, id)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}
