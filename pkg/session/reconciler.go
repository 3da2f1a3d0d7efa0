package session

import (
	"fmt"
	"log/slog"
	"reflect"
	"runtime/debug"

	"github.com/riva-ui/riva/pkg/component"
)

// Phase identifies where the reconciler is inside a refresh cycle.
// Exposed mainly for logging and tests.
type Phase int

const (
	PhaseIdle Phase = iota
	PhaseDraining
	PhaseRebuilding
	PhaseDiffing
)

func (p Phase) String() string {
	switch p {
	case PhaseIdle:
		return "idle"
	case PhaseDraining:
		return "draining"
	case PhaseRebuilding:
		return "rebuilding"
	case PhaseDiffing:
		return "diffing"
	default:
		return fmt.Sprintf("phase(%d)", int(p))
	}
}

// Reconciler owns the component tree and turns dirty marks into wire
// deltas. It rebuilds composite components, matches rebuild output
// against the previous output positionally, transplants identities onto
// matching nodes, and mounts or unmounts the rest.
//
// All methods must be called from the session goroutine.
type Reconciler struct {
	tree    *tree
	dirty   *DirtySet
	codec   *Codec
	catalog *component.Catalog
	notify  func(component.ID)
	logger  *slog.Logger

	maxPasses int
	phase     Phase

	crashed map[component.ID]*BuildFailureError
}

// NewReconciler wires a reconciler over the given tree and dirty set.
// notify is installed on every core the reconciler mounts.
func NewReconciler(t *tree, dirty *DirtySet, codec *Codec, catalog *component.Catalog,
	notify func(component.ID), logger *slog.Logger, maxPasses int) *Reconciler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Reconciler{
		tree:      t,
		dirty:     dirty,
		codec:     codec,
		catalog:   catalog,
		notify:    notify,
		logger:    logger,
		maxPasses: maxPasses,
		crashed:   make(map[component.ID]*BuildFailureError),
	}
}

// Phase reports the reconciler's current phase.
func (r *Reconciler) Phase() Phase { return r.phase }

// CrashedBuilders returns the build failures currently masking composite
// rebuilds, keyed by component ID.
func (r *Reconciler) CrashedBuilders() map[component.ID]*BuildFailureError {
	out := make(map[component.ID]*BuildFailureError, len(r.crashed))
	for id, err := range r.crashed {
		out[id] = err
	}
	return out
}

// MountRoot mounts the root component and its entire subtree, returning
// the full initial state of every mounted component.
func (r *Reconciler) MountRoot(root component.Component) (map[component.ID]component.DeltaState, error) {
	deltas := make(map[component.ID]component.DeltaState)
	if _, err := r.mountSubtree(root, deltas); err != nil {
		return nil, err
	}
	return deltas, nil
}

// RunCycle drains the dirty set, rebuilding and diffing until no new
// marks appear, and returns the accumulated per-component deltas. A
// component rebuilds at most once per cycle; the pass count is capped so
// a build function that keeps dirtying itself cannot spin forever.
func (r *Reconciler) RunCycle() map[component.ID]component.DeltaState {
	deltas := make(map[component.ID]component.DeltaState)
	rebuilt := make(map[component.ID]struct{})

	for pass := 0; r.dirty.Len() > 0; pass++ {
		if pass >= r.maxPasses {
			r.logger.Error("refresh cycle did not settle, dropping remaining marks",
				"passes", pass, "remaining", r.dirty.Len())
			r.dirty.Drain()
			break
		}
		r.phase = PhaseDraining
		ids := r.dirty.Drain()
		for _, id := range ids {
			if _, done := rebuilt[id]; done {
				continue
			}
			rec, ok := r.tree.lookup(id)
			if !ok {
				// Unmounted earlier in this cycle.
				continue
			}
			rebuilt[id] = struct{}{}
			r.rebuild(id, rec, deltas)
		}
	}
	r.phase = PhaseIdle

	// Unmounted components must not leak partial deltas.
	for id := range deltas {
		if _, ok := r.tree.lookup(id); !ok {
			delete(deltas, id)
		}
	}
	return deltas
}

// rebuild re-runs one component's build function (if composite) and
// records its attribute changes.
func (r *Reconciler) rebuild(id component.ID, rec *record, deltas map[component.ID]component.DeltaState) {
	r.phase = PhaseRebuilding
	result, buildErr := r.safeBuild(rec.comp)
	if buildErr != nil {
		r.crashed[id] = buildErr
		r.logger.Error("build function panicked, keeping previous output",
			"component_id", id, "type", rec.comp.Core().TypeName(),
			"panic", buildErr.Panic)
		r.appendAttrDelta(id, rec, deltas)
		return
	}
	delete(r.crashed, id)

	if result == nil {
		// Fundamental component, attribute changes only.
		r.appendAttrDelta(id, rec, deltas)
		return
	}

	rec.buildResult = r.reconcileNode(rec.buildResult, result, deltas)
	r.appendAttrDelta(id, rec, deltas)
}

// safeBuild calls Build under panic recovery.
func (r *Reconciler) safeBuild(comp component.Component) (result component.Component, failure *BuildFailureError) {
	defer func() {
		if rec := recover(); rec != nil {
			failure = &BuildFailureError{
				ComponentID: comp.Core().ID(),
				TypeName:    comp.Core().TypeName(),
				Panic:       rec,
				Stack:       debug.Stack(),
			}
		}
	}()
	return comp.Build(), nil
}

// reconcileNode matches a freshly built node against the previous output
// at the same position. Matching type names keep the old identity; a
// mismatch unmounts the old subtree and mounts the new one.
func (r *Reconciler) reconcileNode(old, next component.Component, deltas map[component.ID]component.DeltaState) component.Component {
	r.phase = PhaseDiffing
	switch {
	case old == nil && next == nil:
		return nil
	case old == nil:
		if _, err := r.mountSubtree(next, deltas); err != nil {
			r.logger.Error("mount during reconcile failed", "error", err)
		}
		return next
	case next == nil:
		r.unmountSubtree(old)
		return nil
	}

	oldCore, nextCore := old.Core(), next.Core()
	if oldCore.TypeName() != nextCore.TypeName() {
		r.unmountSubtree(old)
		if _, err := r.mountSubtree(next, deltas); err != nil {
			r.logger.Error("mount during reconcile failed", "error", err)
		}
		return next
	}

	id := oldCore.ID()
	rec, ok := r.tree.lookup(id)
	if !ok {
		// Old node vanished out from under us; treat next as new.
		if _, err := r.mountSubtree(next, deltas); err != nil {
			r.logger.Error("mount during reconcile failed", "error", err)
		}
		return next
	}

	if old != next {
		// Transplant the identity onto the new instance.
		next.Core().Mount(id, r.catalog.Spec(nextCore.TypeName()), r.notify)
		oldCore.Unmount()
		rec.comp = next
	}
	changed := r.appendAttrDelta(id, rec, deltas)

	// Recurse into containers positionally.
	oldCh := children(old)
	nextCh := children(next)
	n := len(oldCh)
	if len(nextCh) > n {
		n = len(nextCh)
	}
	for i := 0; i < n; i++ {
		var o, x component.Component
		if i < len(oldCh) {
			o = oldCh[i]
		}
		if i < len(nextCh) {
			x = nextCh[i]
		}
		r.reconcileNode(o, x, deltas)
	}

	// A kept composite with attribute changes rebuilds later this cycle.
	if changed && rec.buildResult != nil {
		r.dirty.Mark(id)
	}
	return next
}

func children(c component.Component) []component.Component {
	if container, ok := c.(component.Container); ok {
		return container.Children()
	}
	return nil
}

// mountSubtree allocates an identity for the node, records its full
// state, and recurses into children and build output.
func (r *Reconciler) mountSubtree(c component.Component, deltas map[component.ID]component.DeltaState) (component.ID, error) {
	core := c.Core()
	if core.Mounted() {
		return 0, fmt.Errorf("session: component %s already mounted as %d",
			core.TypeName(), core.ID())
	}
	id := r.tree.allocate()
	core.Mount(id, r.catalog.Spec(core.TypeName()), r.notify)
	rec := &record{comp: c}
	r.tree.insert(id, rec)

	state, err := r.codec.EncodeState(c)
	if err != nil {
		return 0, err
	}
	deltas[id] = state
	rec.lastSync = state.Clone()

	for _, child := range children(c) {
		if _, err := r.mountSubtree(child, deltas); err != nil {
			return 0, err
		}
	}

	result, buildErr := r.safeBuild(c)
	if buildErr != nil {
		r.crashed[id] = buildErr
		r.logger.Error("build function panicked during mount",
			"component_id", id, "type", core.TypeName(), "panic", buildErr.Panic)
		return id, nil
	}
	if result != nil {
		if _, err := r.mountSubtree(result, deltas); err != nil {
			return 0, err
		}
		rec.buildResult = result
	}
	return id, nil
}

// unmountSubtree removes the node and everything beneath it from the
// tree, firing OnUnmount hooks on the way out.
func (r *Reconciler) unmountSubtree(c component.Component) {
	for _, child := range children(c) {
		r.unmountSubtree(child)
	}
	core := c.Core()
	if !core.Mounted() {
		return
	}
	id := core.ID()
	if rec, ok := r.tree.lookup(id); ok {
		if rec.buildResult != nil {
			r.unmountSubtree(rec.buildResult)
		}
		r.tree.remove(id)
	}
	delete(r.crashed, id)
	if u, ok := c.(component.Unmounter); ok {
		u.OnUnmount()
	}
	core.Unmount()
}

// appendAttrDelta diffs the component's encoded state against the last
// synced snapshot and merges any changed keys into deltas. Reports
// whether anything changed.
func (r *Reconciler) appendAttrDelta(id component.ID, rec *record, deltas map[component.ID]component.DeltaState) bool {
	state, err := r.codec.EncodeState(rec.comp)
	if err != nil {
		r.logger.Error("state encoding failed", "component_id", id, "error", err)
		return false
	}
	changed := false
	for name, value := range state {
		if stateValueEqual(rec.lastSync[name], value) {
			continue
		}
		if deltas[id] == nil {
			deltas[id] = make(component.DeltaState)
		}
		deltas[id][name] = value
		if rec.lastSync == nil {
			rec.lastSync = make(component.DeltaState)
		}
		rec.lastSync[name] = value
		changed = true
	}
	return changed
}

func stateValueEqual(a, b any) bool {
	if a == nil || b == nil {
		return a == b
	}
	switch av := a.(type) {
	case string:
		bv, ok := b.(string)
		return ok && av == bv
	case bool:
		bv, ok := b.(bool)
		return ok && av == bv
	case float64:
		bv, ok := b.(float64)
		return ok && av == bv
	case int:
		bv, ok := b.(int)
		return ok && av == bv
	}
	return reflect.DeepEqual(a, b)
}
