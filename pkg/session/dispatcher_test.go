package session

import (
	"errors"
	"testing"

	"github.com/riva-ui/riva/pkg/component"
	"github.com/riva-ui/riva/pkg/protocol"
)

func newTestDispatcher(t *testing.T) (*Dispatcher, *Reconciler, *tree) {
	t.Helper()
	r, tr, _ := newTestReconciler(t)
	d := NewDispatcher(tr, NewCodec(component.Builtins()), nil)
	return d, r, tr
}

func TestLiveEditHandlerRunsBeforeApply(t *testing.T) {
	d, r, _ := newTestDispatcher(t)
	input := component.NewTextInput("old")
	if _, err := r.MountRoot(input); err != nil {
		t.Fatalf("mount: %v", err)
	}

	var sawEvent, sawStored string
	input.HandleChange(func(ev component.TextInputChangeEvent) {
		sawEvent = ev.Text
		sawStored = input.Text()
	})

	err := d.DispatchStateUpdate(&protocol.ComponentStateUpdateParams{
		ComponentID: uint64(input.Core().ID()),
		DeltaState:  map[string]any{"text": "new"},
	})
	if err != nil {
		t.Fatalf("dispatch: %v", err)
	}

	if sawEvent != "new" {
		t.Fatalf("handler saw event text %q, want %q", sawEvent, "new")
	}
	if sawStored != "old" {
		t.Fatalf("stored text during handler = %q, want pre-apply %q", sawStored, "old")
	}
	if input.Text() != "new" {
		t.Fatalf("stored text after dispatch = %q, want %q", input.Text(), "new")
	}
}

func TestConfirmAppliesBeforeHandlers(t *testing.T) {
	d, r, _ := newTestDispatcher(t)
	input := component.NewTextInput("old")
	if _, err := r.MountRoot(input); err != nil {
		t.Fatalf("mount: %v", err)
	}

	var order []string
	input.HandleChange(func(ev component.TextInputChangeEvent) {
		order = append(order, "change:"+input.Text())
	})
	input.HandleConfirm(func(ev component.TextInputConfirmEvent) {
		order = append(order, "confirm:"+ev.Text)
	})

	err := d.DispatchComponentMessage(&protocol.ComponentMessageParams{
		ComponentID: uint64(input.Core().ID()),
		Payload:     map[string]any{"text": "done"},
	})
	if err != nil {
		t.Fatalf("dispatch: %v", err)
	}

	if len(order) != 2 || order[0] != "change:done" || order[1] != "confirm:done" {
		t.Fatalf("handler order = %v, want [change:done confirm:done]", order)
	}
}

func TestDispatchUnknownComponent(t *testing.T) {
	d, _, _ := newTestDispatcher(t)

	err := d.DispatchStateUpdate(&protocol.ComponentStateUpdateParams{
		ComponentID: 999,
		DeltaState:  map[string]any{"text": "x"},
	})
	if !errors.Is(err, ErrProtocolViolation) {
		t.Fatalf("err = %v, want protocol violation", err)
	}
}

func TestRejectedDeltaSkipsHandlers(t *testing.T) {
	d, r, _ := newTestDispatcher(t)
	input := component.NewTextInput("old")
	if _, err := r.MountRoot(input); err != nil {
		t.Fatalf("mount: %v", err)
	}
	input.SetSensitive(false)

	fired := false
	input.HandleChange(func(component.TextInputChangeEvent) { fired = true })

	err := d.DispatchStateUpdate(&protocol.ComponentStateUpdateParams{
		ComponentID: uint64(input.Core().ID()),
		DeltaState:  map[string]any{"text": "x"},
	})
	if !errors.Is(err, ErrProtocolViolation) {
		t.Fatalf("err = %v, want protocol violation", err)
	}
	if fired {
		t.Fatal("handler fired for a rejected delta")
	}
	if input.Text() != "old" {
		t.Fatalf("rejected delta applied: text = %q", input.Text())
	}
}

func TestAppliedDeltaIsNotEchoedBack(t *testing.T) {
	d, r, _ := newTestDispatcher(t)
	input := component.NewTextInput("old")
	if _, err := r.MountRoot(input); err != nil {
		t.Fatalf("mount: %v", err)
	}

	err := d.DispatchStateUpdate(&protocol.ComponentStateUpdateParams{
		ComponentID: uint64(input.Core().ID()),
		DeltaState:  map[string]any{"text": "typed"},
	})
	if err != nil {
		t.Fatalf("dispatch: %v", err)
	}

	// The client already holds this value; the next cycle must not send
	// it back.
	if deltas := r.RunCycle(); len(deltas) != 0 {
		t.Fatalf("applied delta echoed: %v", deltas)
	}
}

func TestPanickingHandlerDoesNotBlockApply(t *testing.T) {
	d, r, _ := newTestDispatcher(t)
	input := component.NewTextInput("old")
	if _, err := r.MountRoot(input); err != nil {
		t.Fatalf("mount: %v", err)
	}
	input.HandleChange(func(component.TextInputChangeEvent) {
		panic("handler crash")
	})

	err := d.DispatchStateUpdate(&protocol.ComponentStateUpdateParams{
		ComponentID: uint64(input.Core().ID()),
		DeltaState:  map[string]any{"text": "new"},
	})
	if err != nil {
		t.Fatalf("dispatch: %v", err)
	}
	if input.Text() != "new" {
		t.Fatalf("text = %q, want applied %q", input.Text(), "new")
	}
}
