package component

import "fmt"

// EncodeFunc converts one attribute value into a wire-safe value.
// Attributes with union/variant types register one of these; plain
// attributes are shipped as-is.
type EncodeFunc func(value any) (any, error)

// Gate restricts a normally-mutable attribute further by consulting
// companion state on the component (e.g. TextInput.text is only writable
// while the input is sensitive).
type Gate func(c Component) bool

// Spec describes the wire behavior of one component type: which
// attributes a client message may ever set, conditional gates on those,
// and custom encoders for union-typed attributes.
type Spec struct {
	// Name is the catalog type name.
	Name string

	// Mutable lists the attributes a client delta is permitted to set.
	Mutable []string

	// Gates holds per-attribute conditional mutability checks, keyed by
	// attribute name. A missing entry means the attribute is always
	// mutable once listed in Mutable.
	Gates map[string]Gate

	// Encoders holds per-attribute custom encode hooks.
	Encoders map[string]EncodeFunc
}

// IsMutable reports whether attr appears in the mutation whitelist.
func (s *Spec) IsMutable(attr string) bool {
	for _, m := range s.Mutable {
		if m == attr {
			return true
		}
	}
	return false
}

// AllowsWrite reports whether a client may set attr on c right now:
// the attribute must be whitelisted and its gate, if any, must pass.
func (s *Spec) AllowsWrite(c Component, attr string) bool {
	if !s.IsMutable(attr) {
		return false
	}
	if gate, ok := s.Gates[attr]; ok {
		return gate(c)
	}
	return true
}

// lockedSpec is bound to components whose type is not registered in the
// catalog: no attribute is client-mutable and no custom encoding applies.
var lockedSpec = &Spec{}

// Catalog maps component type names to their specs. It is constructed
// explicitly at startup and passed into the session, never consulted
// through process-global state.
type Catalog struct {
	specs map[string]*Spec
}

// NewCatalog returns an empty catalog.
func NewCatalog() *Catalog {
	return &Catalog{specs: make(map[string]*Spec)}
}

// Register adds a spec to the catalog. Registering the same type name
// twice is an error.
func (c *Catalog) Register(s *Spec) error {
	if s.Name == "" {
		return fmt.Errorf("component: spec has no type name")
	}
	if _, dup := c.specs[s.Name]; dup {
		return fmt.Errorf("component: type %q already registered", s.Name)
	}
	c.specs[s.Name] = s
	return nil
}

// MustRegister is Register that panics on error; for startup wiring.
func (c *Catalog) MustRegister(s *Spec) {
	if err := c.Register(s); err != nil {
		panic(err)
	}
}

// Spec returns the spec for a type name. Unregistered types get a locked
// spec: nothing mutable, no custom encoders. Composite application
// components typically fall in this bucket since the client never writes
// to them directly.
func (c *Catalog) Spec(name string) *Spec {
	if s, ok := c.specs[name]; ok {
		return s
	}
	return lockedSpec
}

// Builtins returns a catalog with the built-in component types
// registered.
func Builtins() *Catalog {
	c := NewCatalog()
	c.MustRegister(textSpec)
	c.MustRegister(textInputSpec)
	c.MustRegister(switchSpec)
	c.MustRegister(columnSpec)
	c.MustRegister(spacerSpec)
	return c
}
