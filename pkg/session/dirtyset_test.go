package session

import (
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/riva-ui/riva/pkg/component"
)

func TestDirtySetMarkIsIdempotent(t *testing.T) {
	d := NewDirtySet()
	d.Mark(3)
	d.Mark(3)
	d.Mark(3)

	if d.Len() != 1 {
		t.Fatalf("len = %d, want 1", d.Len())
	}
	if got := d.Drain(); len(got) != 1 || got[0] != 3 {
		t.Fatalf("drain = %v, want [3]", got)
	}
}

func TestDirtySetDrainsAscendingAndClears(t *testing.T) {
	d := NewDirtySet()
	d.Mark(9)
	d.Mark(1)
	d.Mark(5)

	want := []component.ID{1, 5, 9}
	if diff := cmp.Diff(want, d.Drain()); diff != "" {
		t.Fatalf("drain order mismatch (-want +got):\n%s", diff)
	}
	if d.Len() != 0 {
		t.Fatalf("len after drain = %d", d.Len())
	}
	if got := d.Drain(); got != nil {
		t.Fatalf("second drain = %v, want nil", got)
	}
}
