package component

// SwitchChangeEvent carries the new position when the user toggles a
// Switch.
type SwitchChangeEvent struct {
	IsOn bool
}

// Switch is an on/off toggle. Its "is_on" attribute is client-mutable
// while the switch is sensitive.
type Switch struct {
	Base
}

var switchSpec = &Spec{
	Name:    "Switch",
	Mutable: []string{"is_on"},
	Gates: map[string]Gate{
		"is_on": func(c Component) bool {
			v, _ := c.Core().Attr("is_sensitive")
			on, _ := v.(bool)
			return on
		},
	},
}

// NewSwitch creates a Switch in the given position.
func NewSwitch(isOn bool) *Switch {
	s := &Switch{}
	s.Base = NewBase("Switch", DeltaState{
		"is_on":        isOn,
		"is_sensitive": true,
	})
	return s
}

// Build returns nil: Switch is fundamental.
func (s *Switch) Build() Component { return nil }

// IsOn returns the current position.
func (s *Switch) IsOn() bool {
	v, _ := s.Attr("is_on")
	on, _ := v.(bool)
	return on
}

// SetOn updates the position.
func (s *Switch) SetOn(on bool) { s.SetAttr("is_on", on) }

// SetSensitive controls whether the switch responds to user input.
func (s *Switch) SetSensitive(on bool) { s.SetAttr("is_sensitive", on) }

// HandleChange registers a typed change handler. Pass nil to clear.
func (s *Switch) HandleChange(fn func(SwitchChangeEvent)) {
	if fn == nil {
		s.SetOnChange(nil)
		return
	}
	s.SetOnChange(func(delta DeltaState) {
		if v, ok := delta["is_on"].(bool); ok {
			fn(SwitchChangeEvent{IsOn: v})
		}
	})
}
