package component

import (
	"testing"

	"github.com/google/go-cmp/cmp"
)

// Every concrete component must expose the promoted Core accessor; the
// embedded runtime type may not shadow it.
var (
	_ Component = (*Text)(nil)
	_ Component = (*TextInput)(nil)
	_ Component = (*Switch)(nil)
	_ Component = (*Column)(nil)
	_ Component = (*Spacer)(nil)
	_ Container = (*Column)(nil)
)

func TestSetAttrBeforeMountDoesNotNotify(t *testing.T) {
	text := NewText("hello")

	notified := 0
	// Not mounted yet, so no notify function is installed.
	text.SetText("world")

	text.Mount(1, nil, func(ID) { notified++ })
	if notified != 0 {
		t.Fatalf("notified %d times before any mounted mutation", notified)
	}
	if got := text.Text(); got != "world" {
		t.Fatalf("text = %q, want %q", got, "world")
	}
}

func TestSetAttrNotifiesOnChange(t *testing.T) {
	text := NewText("hello")

	var marks []ID
	text.Mount(7, nil, func(id ID) { marks = append(marks, id) })

	text.SetText("world")
	text.SetText("world") // unchanged, no mark
	text.SetText("again")

	if len(marks) != 2 {
		t.Fatalf("got %d marks, want 2: %v", len(marks), marks)
	}
	for _, id := range marks {
		if id != 7 {
			t.Fatalf("mark carried id %d, want 7", id)
		}
	}
}

func TestApplyRemoteDoesNotNotify(t *testing.T) {
	input := NewTextInput("a")

	notified := 0
	input.Mount(3, nil, func(ID) { notified++ })

	input.ApplyRemote(DeltaState{"text": "b"})

	if notified != 0 {
		t.Fatalf("remote apply marked dirty %d times", notified)
	}
	if got := input.Text(); got != "b" {
		t.Fatalf("text = %q, want %q", got, "b")
	}
}

func TestStateReturnsCopy(t *testing.T) {
	text := NewText("hello")

	state := text.State()
	state["text"] = "mutated"

	if got := text.Text(); got != "hello" {
		t.Fatalf("state copy mutation leaked into component: %q", got)
	}
}

func TestUnmountClearsIdentity(t *testing.T) {
	text := NewText("x")
	text.Mount(5, nil, func(ID) {})

	if !text.Mounted() {
		t.Fatal("component not mounted after Mount")
	}
	text.Unmount()
	if text.Mounted() {
		t.Fatal("component still mounted after Unmount")
	}

	// Mutations after unmount must not panic or notify.
	text.SetText("y")
}

func TestDeltaStateClone(t *testing.T) {
	orig := DeltaState{"a": 1, "b": "two"}
	clone := orig.Clone()
	clone["a"] = 99

	if diff := cmp.Diff(DeltaState{"a": 1, "b": "two"}, orig); diff != "" {
		t.Fatalf("original mutated (-want +got):\n%s", diff)
	}
}

func TestIDString(t *testing.T) {
	if got := ID(42).String(); got != "42" {
		t.Fatalf("ID(42).String() = %q", got)
	}
}
