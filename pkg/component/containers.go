package component

// Column lays out children vertically. The children are structural, not
// attributes: the reconciler descends into them when diffing.
type Column struct {
	Base
	children []Component
}

var columnSpec = &Spec{Name: "Column"}

// NewColumn creates a Column holding the given children.
func NewColumn(children ...Component) *Column {
	c := &Column{children: children}
	c.Base = NewBase("Column", DeltaState{
		"spacing": 0.0,
	})
	return c
}

// Build returns nil: Column is fundamental.
func (c *Column) Build() Component { return nil }

// Children returns the structural children.
func (c *Column) Children() []Component { return c.children }

// SetSpacing sets the gap between children.
func (c *Column) SetSpacing(s float64) { c.SetAttr("spacing", s) }

// Spacer is an empty fundamental component; the default root when an
// application supplies no builder of its own.
type Spacer struct {
	Base
}

var spacerSpec = &Spec{Name: "Spacer"}

// NewSpacer creates a Spacer.
func NewSpacer() *Spacer {
	s := &Spacer{}
	s.Base = NewBase("Spacer", DeltaState{})
	return s
}

// Build returns nil: Spacer is fundamental.
func (s *Spacer) Build() Component { return nil }
