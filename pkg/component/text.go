package component

// Text displays unformatted text. The style attribute is union-typed
// (preset name or full TextStyle) and uses a custom encoder.
type Text struct {
	Base
}

var textSpec = &Spec{
	Name: "Text",
	Encoders: map[string]EncodeFunc{
		"style": encodeStyle,
	},
}

// NewText creates a Text with default styling.
func NewText(text string) *Text {
	t := &Text{}
	t.Base = NewBase("Text", DeltaState{
		"text":       text,
		"selectable": true,
		"style":      PresetStyle("text"),
		"justify":    "left",
	})
	return t
}

// Build returns nil: Text is fundamental.
func (t *Text) Build() Component { return nil }

// Text returns the displayed text.
func (t *Text) Text() string {
	v, _ := t.Attr("text")
	s, _ := v.(string)
	return s
}

// SetText updates the displayed text.
func (t *Text) SetText(s string) { t.SetAttr("text", s) }

// Style returns the current style variant.
func (t *Text) Style() Style {
	v, _ := t.Attr("style")
	s, _ := v.(Style)
	return s
}

// SetStyle updates the style variant.
func (t *Text) SetStyle(s Style) { t.SetAttr("style", s) }

// SetJustify sets the horizontal justification ("left", "right",
// "center" or "justify").
func (t *Text) SetJustify(j string) { t.SetAttr("justify", j) }

// SetSelectable controls whether the user can select the text.
func (t *Text) SetSelectable(on bool) { t.SetAttr("selectable", on) }
