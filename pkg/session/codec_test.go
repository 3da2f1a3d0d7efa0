package session

import (
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/riva-ui/riva/pkg/component"
)

func newTestCodec() *Codec {
	return NewCodec(component.Builtins())
}

func TestDecodeDeltaAcceptsWhitelistedWrite(t *testing.T) {
	codec := newTestCodec()
	input := component.NewTextInput("old")

	delta, err := codec.DecodeDelta(input, map[string]any{"text": "new"})
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if diff := cmp.Diff(component.DeltaState{"text": "new"}, delta); diff != "" {
		t.Fatalf("delta mismatch (-want +got):\n%s", diff)
	}
	// Decoding alone must not touch the component.
	if input.Text() != "old" {
		t.Fatalf("decode applied the delta: text = %q", input.Text())
	}
}

func TestDecodeDeltaRejectsNonWhitelistedAttr(t *testing.T) {
	codec := newTestCodec()
	input := component.NewTextInput("x")

	_, err := codec.DecodeDelta(input, map[string]any{"label": "hacked"})
	if !errors.Is(err, ErrProtocolViolation) {
		t.Fatalf("err = %v, want protocol violation", err)
	}

	var pv *ProtocolViolationError
	if !errors.As(err, &pv) || pv.Attr != "label" {
		t.Fatalf("violation does not name the attribute: %v", err)
	}
}

func TestDecodeDeltaRejectsGatedWrite(t *testing.T) {
	codec := newTestCodec()
	input := component.NewTextInput("x")
	input.SetSensitive(false)

	_, err := codec.DecodeDelta(input, map[string]any{"text": "y"})
	if !errors.Is(err, ErrProtocolViolation) {
		t.Fatalf("err = %v, want protocol violation", err)
	}
	if input.Text() != "x" {
		t.Fatalf("gated write applied: text = %q", input.Text())
	}
}

func TestDecodeDeltaRejectsTypeMismatch(t *testing.T) {
	codec := newTestCodec()
	input := component.NewTextInput("x")

	_, err := codec.DecodeDelta(input, map[string]any{"text": float64(42)})
	if !errors.Is(err, ErrProtocolViolation) {
		t.Fatalf("err = %v, want protocol violation", err)
	}
}

func TestApplyDeltaIsAtomic(t *testing.T) {
	codec := newTestCodec()
	input := component.NewTextInput("old")

	// One valid key, one forbidden key: nothing may be applied.
	_, err := codec.ApplyDelta(input, map[string]any{
		"text":  "new",
		"label": "hacked",
	})
	if !errors.Is(err, ErrProtocolViolation) {
		t.Fatalf("err = %v, want protocol violation", err)
	}
	if input.Text() != "old" {
		t.Fatalf("partial apply leaked: text = %q", input.Text())
	}
}

func TestApplyDeltaMergesValidatedValues(t *testing.T) {
	codec := newTestCodec()
	input := component.NewTextInput("old")

	delta, err := codec.ApplyDelta(input, map[string]any{"text": "new"})
	if err != nil {
		t.Fatalf("apply: %v", err)
	}
	if input.Text() != "new" {
		t.Fatalf("text = %q, want %q", input.Text(), "new")
	}
	if delta["text"] != "new" {
		t.Fatalf("returned delta = %v", delta)
	}
}

func TestEncodeStateRunsCustomEncoders(t *testing.T) {
	codec := newTestCodec()
	text := component.NewText("hi")
	text.SetStyle(component.PresetStyle("heading1"))

	state, err := codec.EncodeState(text)
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	if state["style"] != "heading1" {
		t.Fatalf("style encoded as %v, want %q", state["style"], "heading1")
	}
	if state["text"] != "hi" {
		t.Fatalf("text encoded as %v", state["text"])
	}
}
