package component

import "fmt"

// TextStyle is a fully specified text style.
type TextStyle struct {
	Font       string
	FontSize   float64
	FontWeight string
	Italic     bool
	Fill       string
}

// Style is a tagged variant: either a named preset ("heading1", "text",
// "dim", ...) or a full TextStyle. The zero value means the "text"
// preset.
type Style struct {
	preset string
	custom *TextStyle
}

// PresetStyle returns a Style referring to a named preset.
func PresetStyle(name string) Style {
	return Style{preset: name}
}

// CustomStyle returns a Style carrying a full TextStyle.
func CustomStyle(ts TextStyle) Style {
	return Style{custom: &ts}
}

// IsPreset reports whether the style is the preset variant.
func (s Style) IsPreset() bool { return s.custom == nil }

// Preset returns the preset name, defaulting to "text".
func (s Style) Preset() string {
	if s.preset == "" {
		return "text"
	}
	return s.preset
}

// Custom returns the full style and whether that variant is set.
func (s Style) Custom() (TextStyle, bool) {
	if s.custom == nil {
		return TextStyle{}, false
	}
	return *s.custom, true
}

// encodeStyle is the custom encode hook for style attributes. A single
// schema-driven pass cannot express the union, so the runtime variant is
// inspected here: presets serialize to their bare name, full styles to an
// attribute map.
func encodeStyle(v any) (any, error) {
	s, ok := v.(Style)
	if !ok {
		return nil, fmt.Errorf("component: style attribute holds %T, want Style", v)
	}
	if ts, custom := s.Custom(); custom {
		return map[string]any{
			"font":       ts.Font,
			"fontSize":   ts.FontSize,
			"fontWeight": ts.FontWeight,
			"italic":     ts.Italic,
			"fill":       ts.Fill,
		}, nil
	}
	return s.Preset(), nil
}
