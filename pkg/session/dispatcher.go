package session

import (
	"log/slog"
	"runtime/debug"

	"github.com/riva-ui/riva/pkg/component"
	"github.com/riva-ui/riva/pkg/protocol"
)

// Dispatcher routes validated client messages to component handlers.
//
// Live state updates invoke the change handler with the incoming values
// before they are applied, so the handler can observe the transition.
// Confirm messages apply first and hand the handler the stored values.
// All methods must be called from the session goroutine.
type Dispatcher struct {
	tree   *tree
	codec  *Codec
	logger *slog.Logger
}

// NewDispatcher creates a dispatcher over the session's tree.
func NewDispatcher(t *tree, codec *Codec, logger *slog.Logger) *Dispatcher {
	if logger == nil {
		logger = slog.Default()
	}
	return &Dispatcher{tree: t, codec: codec, logger: logger}
}

// DispatchStateUpdate handles a live edit. The delta is validated in
// full, the change handler runs with the not-yet-applied values, and only
// then does the delta merge into the component's state.
func (d *Dispatcher) DispatchStateUpdate(p *protocol.ComponentStateUpdateParams) error {
	id := component.ID(p.ComponentID)
	rec, ok := d.tree.lookup(id)
	if !ok {
		return &ProtocolViolationError{ComponentID: id, Reason: "unknown component"}
	}
	delta, err := d.codec.DecodeDelta(rec.comp, p.DeltaState)
	if err != nil {
		return err
	}
	if handler := rec.comp.Core().OnChange(); handler != nil {
		d.safeInvoke(id, "change", func() { handler(delta.Clone()) })
	}
	rec.comp.Core().ApplyRemote(delta)
	d.markSynced(rec, delta)
	return nil
}

// DispatchComponentMessage handles a confirm action. The payload is
// applied before any handler runs, then change fires, then confirm.
func (d *Dispatcher) DispatchComponentMessage(p *protocol.ComponentMessageParams) error {
	id := component.ID(p.ComponentID)
	rec, ok := d.tree.lookup(id)
	if !ok {
		return &ProtocolViolationError{ComponentID: id, Reason: "unknown component"}
	}
	delta, err := d.codec.ApplyDelta(rec.comp, p.Payload)
	if err != nil {
		return err
	}
	d.markSynced(rec, delta)

	stored := make(component.DeltaState, len(delta))
	for name := range delta {
		if value, ok := rec.comp.Core().Attr(name); ok {
			stored[name] = value
		}
	}
	if handler := rec.comp.Core().OnChange(); handler != nil {
		d.safeInvoke(id, "change", func() { handler(stored.Clone()) })
	}
	if handler := rec.comp.Core().OnConfirm(); handler != nil {
		d.safeInvoke(id, "confirm", func() { handler(stored.Clone()) })
	}
	return nil
}

// markSynced updates the last synced snapshot for the applied keys so the
// next refresh does not echo the client's own values back at it.
func (d *Dispatcher) markSynced(rec *record, delta component.DeltaState) {
	if rec.lastSync == nil {
		rec.lastSync = make(component.DeltaState)
	}
	for name := range delta {
		value, ok := rec.comp.Core().Attr(name)
		if !ok {
			continue
		}
		enc, err := d.codec.EncodeAttr(rec.comp, name, value)
		if err != nil {
			d.logger.Error("encode applied attribute", "attr", name, "error", err)
			continue
		}
		rec.lastSync[name] = enc
	}
}

// safeInvoke runs a handler under panic recovery. A crashing handler is
// logged and the session keeps running.
func (d *Dispatcher) safeInvoke(id component.ID, kind string, fn func()) {
	defer func() {
		if rec := recover(); rec != nil {
			d.logger.Error("component handler panicked",
				"component_id", id, "handler", kind,
				"panic", rec, "stack", string(debug.Stack()))
		}
	}()
	fn()
}
