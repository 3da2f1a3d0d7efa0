package session

import (
	"fmt"
	"reflect"

	"github.com/riva-ui/riva/pkg/component"
)

// Codec converts between a component's typed attribute values and
// wire-safe values, enforcing the component's mutation policy on the way
// in. Inbound application is atomic: either the whole delta passes
// validation or none of it is applied.
type Codec struct {
	catalog *component.Catalog
}

// NewCodec creates a codec resolving specs through the given catalog.
func NewCodec(catalog *component.Catalog) *Codec {
	return &Codec{catalog: catalog}
}

// specFor returns the component's bound spec, falling back to a catalog
// lookup for components that are not mounted yet.
func (c *Codec) specFor(comp component.Component) *component.Spec {
	if s := comp.Core().Spec(); s != nil {
		return s
	}
	return c.catalog.Spec(comp.Core().TypeName())
}

// EncodeState produces the full wire-safe state of a component.
// Attributes with a registered encode hook (union/variant types) are
// serialized through it; everything else ships as-is.
func (c *Codec) EncodeState(comp component.Component) (component.DeltaState, error) {
	spec := c.specFor(comp)
	state := comp.Core().State()
	out := make(component.DeltaState, len(state))
	for name, value := range state {
		enc, err := encodeAttr(spec, name, value)
		if err != nil {
			return nil, fmt.Errorf("session: encode %s.%s: %w",
				comp.Core().TypeName(), name, err)
		}
		out[name] = enc
	}
	return out, nil
}

// EncodeAttr encodes a single attribute value for the wire.
func (c *Codec) EncodeAttr(comp component.Component, name string, value any) (any, error) {
	return encodeAttr(c.specFor(comp), name, value)
}

func encodeAttr(spec *component.Spec, name string, value any) (any, error) {
	if hook, ok := spec.Encoders[name]; ok {
		return hook(value)
	}
	return value, nil
}

// DecodeDelta validates a raw inbound mapping against the component's
// mutation policy and returns the typed delta. Any key outside the
// whitelist, any gated key whose gate fails, and any value whose type
// does not match the stored attribute is a protocol violation; in that
// case nothing is returned and nothing may be applied.
func (c *Codec) DecodeDelta(comp component.Component, raw map[string]any) (component.DeltaState, error) {
	spec := c.specFor(comp)
	core := comp.Core()

	delta := make(component.DeltaState, len(raw))
	for name, value := range raw {
		if !spec.IsMutable(name) {
			return nil, &ProtocolViolationError{
				ComponentID: core.ID(),
				Attr:        name,
				Reason:      "attribute is not client-mutable",
			}
		}
		if !spec.AllowsWrite(comp, name) {
			return nil, &ProtocolViolationError{
				ComponentID: core.ID(),
				Attr:        name,
				Reason:      "attribute is currently immutable",
			}
		}
		if current, ok := core.Attr(name); ok && current != nil && value != nil {
			if reflect.TypeOf(current) != reflect.TypeOf(value) {
				return nil, &ProtocolViolationError{
					ComponentID: core.ID(),
					Attr:        name,
					Reason: fmt.Sprintf("value type %T, want %T",
						value, current),
				}
			}
		}
		delta[name] = value
	}
	return delta, nil
}

// ApplyDelta validates raw and, only if the whole delta passes, merges it
// into the component's attribute store. Returns the validated delta.
func (c *Codec) ApplyDelta(comp component.Component, raw map[string]any) (component.DeltaState, error) {
	delta, err := c.DecodeDelta(comp, raw)
	if err != nil {
		return nil, err
	}
	comp.Core().ApplyRemote(delta)
	return delta, nil
}
