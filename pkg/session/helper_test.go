package session

import (
	"testing"

	"github.com/riva-ui/riva/pkg/component"
)

// fakeForm is a composite used across the package tests: a heading, a
// text input, and optionally a switch.
type fakeForm struct {
	component.Base
	buildCount int
	crash      bool
}

func newFakeForm() *fakeForm {
	return &fakeForm{
		Base: component.NewBase("FakeForm", component.DeltaState{
			"heading":    "welcome",
			"show_extra": false,
		}),
	}
}

func (f *fakeForm) Build() component.Component {
	f.buildCount++
	if f.crash {
		panic("fakeForm: build crash")
	}

	heading, _ := f.Attr("heading")
	showExtra, _ := f.Attr("show_extra")

	children := []component.Component{
		component.NewText(heading.(string)),
		component.NewTextInput(""),
	}
	if on, _ := showExtra.(bool); on {
		children = append(children, component.NewSwitch(false))
	}
	return component.NewColumn(children...)
}

func newTestReconciler(t *testing.T) (*Reconciler, *tree, *DirtySet) {
	t.Helper()
	tr := newTree()
	dirty := NewDirtySet()
	catalog := component.Builtins()
	codec := NewCodec(catalog)
	r := NewReconciler(tr, dirty, codec, catalog, dirty.Mark, nil, 64)
	return r, tr, dirty
}

// findByType returns the first mounted component with the given type
// name, scanning in ascending ID order.
func findByType(t *testing.T, tr *tree, typeName string) (component.ID, component.Component) {
	t.Helper()
	for _, id := range tr.ids() {
		rec, _ := tr.lookup(id)
		if rec.comp.Core().TypeName() == typeName {
			return id, rec.comp
		}
	}
	t.Fatalf("no mounted component of type %q", typeName)
	return 0, nil
}
