package component

// TextInputChangeEvent carries the new text when the user edits a
// TextInput. For live edits the value comes straight from the inbound
// delta, so the handler always observes the exact edit.
type TextInputChangeEvent struct {
	Text string
}

// TextInputConfirmEvent carries the text when the user explicitly
// confirms their input (e.g. pressing Enter).
type TextInputConfirmEvent struct {
	Text string
}

// TextInput is a user-editable text field. Only its "text" attribute is
// client-mutable, and only while the input is sensitive.
type TextInput struct {
	Base
}

var textInputSpec = &Spec{
	Name:    "TextInput",
	Mutable: []string{"text"},
	Gates: map[string]Gate{
		"text": func(c Component) bool {
			v, _ := c.Core().Attr("is_sensitive")
			on, _ := v.(bool)
			return on
		},
	},
}

// NewTextInput creates a TextInput with the given initial text.
func NewTextInput(text string) *TextInput {
	t := &TextInput{}
	t.Base = NewBase("TextInput", DeltaState{
		"text":         text,
		"label":        "",
		"prefix_text":  "",
		"suffix_text":  "",
		"is_secret":    false,
		"is_sensitive": true,
		"is_valid":     true,
	})
	return t
}

// Build returns nil: TextInput is fundamental.
func (t *TextInput) Build() Component { return nil }

// Text returns the current text.
func (t *TextInput) Text() string {
	v, _ := t.Attr("text")
	s, _ := v.(string)
	return s
}

// SetText updates the current text.
func (t *TextInput) SetText(s string) { t.SetAttr("text", s) }

// SetLabel sets the short text displayed next to the input.
func (t *TextInput) SetLabel(s string) { t.SetAttr("label", s) }

// IsSensitive reports whether the input responds to user edits.
func (t *TextInput) IsSensitive() bool {
	v, _ := t.Attr("is_sensitive")
	on, _ := v.(bool)
	return on
}

// SetSensitive controls whether the input responds to user edits. While
// false, inbound writes to "text" are protocol violations.
func (t *TextInput) SetSensitive(on bool) { t.SetAttr("is_sensitive", on) }

// SetSecret controls whether the text is hidden (passwords etc.).
func (t *TextInput) SetSecret(on bool) { t.SetAttr("is_secret", on) }

// SetValid controls the input's validity indicator.
func (t *TextInput) SetValid(on bool) { t.SetAttr("is_valid", on) }

// HandleChange registers a typed change handler. Pass nil to clear.
func (t *TextInput) HandleChange(fn func(TextInputChangeEvent)) {
	if fn == nil {
		t.SetOnChange(nil)
		return
	}
	t.SetOnChange(func(delta DeltaState) {
		if v, ok := delta["text"].(string); ok {
			fn(TextInputChangeEvent{Text: v})
		}
	})
}

// HandleConfirm registers a typed confirm handler. The event reads the
// stored text, which the dispatcher has already updated by the time the
// handler runs. Pass nil to clear.
func (t *TextInput) HandleConfirm(fn func(TextInputConfirmEvent)) {
	if fn == nil {
		t.SetOnConfirm(nil)
		return
	}
	t.SetOnConfirm(func(DeltaState) {
		fn(TextInputConfirmEvent{Text: t.Text()})
	})
}
