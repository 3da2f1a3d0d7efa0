package component

import (
	"reflect"
	"sort"
	"strconv"
)

// ID is a process-unique component identifier. It is assigned when the
// component is mounted into a session tree and stays stable for the
// component's lifetime. The zero ID means "not mounted".
type ID uint64

// String formats the ID the way it appears on the wire (decimal).
func (id ID) String() string {
	return strconv.FormatUint(uint64(id), 10)
}

// DeltaState is a partial attribute mapping: attribute name to value.
// It is used in both directions - outbound "what changed this refresh"
// and inbound "what the user edited".
type DeltaState map[string]any

// Clone returns a shallow copy of the delta.
func (d DeltaState) Clone() DeltaState {
	if d == nil {
		return nil
	}
	out := make(DeltaState, len(d))
	for k, v := range d {
		out[k] = v
	}
	return out
}

// Component is a server-owned stateful node. Composite components return
// their subtree from Build; fundamental components (rendered by the
// client) return nil.
type Component interface {
	// Core returns the embedded runtime base. Satisfied for free by
	// embedding Base.
	Core() *Base

	// Build produces the component's subtree, or nil for fundamental
	// components.
	Build() Component
}

// Container is implemented by fundamental components that hold child
// components structurally (e.g. Column). The reconciler descends into
// these children when diffing a build result.
type Container interface {
	Children() []Component
}

// Unmounter is an optional cleanup hook invoked when a component is
// removed from the tree.
type Unmounter interface {
	OnUnmount()
}

// ChangeHandler is invoked when the client edits the component's state.
// For live edits the delta carries the value straight from the inbound
// message, before it has been merged into the attribute store.
type ChangeHandler func(delta DeltaState)

// ConfirmHandler is invoked when the client explicitly confirms input.
// The values reflect the component's stored state at invocation time.
type ConfirmHandler func(values DeltaState)

// Base holds the runtime state every component carries: identity, the
// attribute store, registered handlers, and the dirty-marking hook wired
// in by the owning session on mount.
//
// Embed Base by value in concrete component types; the promoted Core()
// method then satisfies the Component interface's accessor.
type Base struct {
	typeName string
	id       ID
	attrs    map[string]any

	onChange  ChangeHandler
	onConfirm ConfirmHandler

	spec   *Spec
	notify func(ID)
}

// NewBase creates the base for a component of the given catalog type
// name with its declared attributes and their initial values.
func NewBase(typeName string, attrs DeltaState) Base {
	store := make(map[string]any, len(attrs))
	for k, v := range attrs {
		store[k] = v
	}
	return Base{typeName: typeName, attrs: store}
}

// Core returns the base itself.
func (c *Base) Core() *Base { return c }

// TypeName returns the catalog type name this component was created with.
func (c *Base) TypeName() string { return c.typeName }

// ID returns the component's identifier, or zero if unmounted.
func (c *Base) ID() ID { return c.id }

// Mounted reports whether the component is registered in a session tree.
func (c *Base) Mounted() bool { return c.id != 0 }

// Attr returns the value of a declared attribute.
func (c *Base) Attr(name string) (any, bool) {
	v, ok := c.attrs[name]
	return v, ok
}

// SetAttr stores an attribute value. If the component is mounted and the
// value actually changed, the component is marked dirty in its session.
func (c *Base) SetAttr(name string, value any) {
	old, had := c.attrs[name]
	c.attrs[name] = value
	if c.notify != nil && (!had || !attrEqual(old, value)) {
		c.notify(c.id)
	}
}

// ApplyRemote merges a client-supplied delta into the attribute store
// without dirty marking: the client already holds these values, so there
// is nothing to send back. Called by the session runtime after the delta
// has passed whitelist validation.
func (c *Base) ApplyRemote(delta DeltaState) {
	for k, v := range delta {
		c.attrs[k] = v
	}
}

// State returns a copy of the full attribute store.
func (c *Base) State() DeltaState {
	out := make(DeltaState, len(c.attrs))
	for k, v := range c.attrs {
		out[k] = v
	}
	return out
}

// AttrNames returns the declared attribute names in ascending order.
func (c *Base) AttrNames() []string {
	names := make([]string, 0, len(c.attrs))
	for k := range c.attrs {
		names = append(names, k)
	}
	sort.Strings(names)
	return names
}

// SetOnChange registers the change handler. A nil handler is a no-op at
// dispatch time, never an error.
func (c *Base) SetOnChange(h ChangeHandler) { c.onChange = h }

// OnChange returns the registered change handler, possibly nil.
func (c *Base) OnChange() ChangeHandler { return c.onChange }

// SetOnConfirm registers the confirm handler.
func (c *Base) SetOnConfirm(h ConfirmHandler) { c.onConfirm = h }

// OnConfirm returns the registered confirm handler, possibly nil.
func (c *Base) OnConfirm() ConfirmHandler { return c.onConfirm }

// Spec returns the wire behavior spec bound at mount time, or nil before
// mounting.
func (c *Base) Spec() *Spec { return c.spec }

// Mount wires the component into a session tree: assigns its identifier,
// binds its catalog spec, and installs the dirty-marking hook. Called by
// the session runtime only.
func (c *Base) Mount(id ID, spec *Spec, notify func(ID)) {
	c.id = id
	c.spec = spec
	c.notify = notify
}

// Unmount retires the component's identity. Called by the session runtime
// only. Attribute values survive so stale references stay readable.
func (c *Base) Unmount() {
	c.id = 0
	c.notify = nil
}

// attrEqual compares two attribute values. Fast paths cover the common
// wire types, with reflect.DeepEqual as the fallback for variants and
// structs.
func attrEqual(a, b any) bool {
	switch av := a.(type) {
	case string:
		bv, ok := b.(string)
		return ok && av == bv
	case bool:
		bv, ok := b.(bool)
		return ok && av == bv
	case int:
		bv, ok := b.(int)
		return ok && av == bv
	case int64:
		bv, ok := b.(int64)
		return ok && av == bv
	case float64:
		bv, ok := b.(float64)
		return ok && av == bv
	case nil:
		return b == nil
	}
	return reflect.DeepEqual(a, b)
}
