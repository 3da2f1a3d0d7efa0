package main

import (
	"fmt"

	"github.com/riva-ui/riva/pkg/component"
)

// settingsForm is a small composite component: a username field and a
// dark-mode switch, with a status line reflecting both.
type settingsForm struct {
	component.Base
}

func newSettingsForm() component.Component {
	return &settingsForm{
		Base: component.NewBase("SettingsForm", component.DeltaState{
			"username":  "",
			"dark_mode": false,
		}),
	}
}

func (f *settingsForm) Build() component.Component {
	username := f.attrString("username")
	dark := f.attrBool("dark_mode")

	title := component.NewText("Settings")
	title.SetStyle(component.PresetStyle("heading1"))

	input := component.NewTextInput(username)
	input.SetLabel("Username")
	input.HandleChange(func(ev component.TextInputChangeEvent) {
		f.SetAttr("username", ev.Text)
	})

	sw := component.NewSwitch(dark)
	sw.HandleChange(func(ev component.SwitchChangeEvent) {
		f.SetAttr("dark_mode", ev.IsOn)
	})

	mode := "light"
	if dark {
		mode = "dark"
	}
	status := component.NewText(
		fmt.Sprintf("Hello %s, you prefer %s mode", username, mode))
	status.SetStyle(component.PresetStyle("dim"))

	col := component.NewColumn(title, input, sw, status)
	col.SetSpacing(1)
	return col
}

func (f *settingsForm) attrString(name string) string {
	if v, ok := f.Attr(name); ok {
		if s, ok := v.(string); ok {
			return s
		}
	}
	return ""
}

func (f *settingsForm) attrBool(name string) bool {
	if v, ok := f.Attr(name); ok {
		if b, ok := v.(bool); ok {
			return b
		}
	}
	return false
}
