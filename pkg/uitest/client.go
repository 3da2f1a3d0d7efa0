package uitest

import (
	"context"
	"encoding/json"
	"log/slog"
	"testing"
	"time"

	"github.com/riva-ui/riva/pkg/component"
	"github.com/riva-ui/riva/pkg/protocol"
	"github.com/riva-ui/riva/pkg/session"
	"github.com/riva-ui/riva/pkg/transport"
)

// Client drives a session against a recording transport, letting tests
// inject client messages and inspect the deltas the server would send.
type Client struct {
	Session  *session.Session
	recorder *transport.Recorder
	root     component.Component
}

type config struct {
	handshake *protocol.Handshake
	catalog   *component.Catalog
	sessCfg   *session.Config
	logger    *slog.Logger
}

// Option configures a test client.
type Option func(*config)

// WithHandshake overrides the default handshake payload.
func WithHandshake(h *protocol.Handshake) Option {
	return func(c *config) { c.handshake = h }
}

// WithCatalog overrides the component catalog.
func WithCatalog(cat *component.Catalog) Option {
	return func(c *config) { c.catalog = cat }
}

// WithSessionConfig overrides the session configuration.
func WithSessionConfig(cfg *session.Config) Option {
	return func(c *config) { c.sessCfg = cfg }
}

// WithLogger overrides the logger.
func WithLogger(l *slog.Logger) Option {
	return func(c *config) { c.logger = l }
}

// New creates a session over a recording transport with build as its
// root. The session is closed automatically when the test ends.
func New(tb testing.TB, build func() component.Component, opts ...Option) *Client {
	tb.Helper()

	cfg := config{
		handshake: protocol.DefaultHandshake("http://localhost/"),
	}
	for _, opt := range opts {
		opt(&cfg)
	}

	rec := transport.NewRecorder()
	var root component.Component
	wrapped := func() component.Component {
		root = build()
		return root
	}

	sess, err := session.Create(context.Background(), session.Options{
		Build:     wrapped,
		Transport: rec,
		Handshake: cfg.handshake,
		Catalog:   cfg.catalog,
		Config:    cfg.sessCfg,
		Logger:    cfg.logger,
	})
	if err != nil {
		tb.Fatalf("create session: %v", err)
	}
	tb.Cleanup(func() { sess.Close() })

	return &Client{Session: sess, recorder: rec, root: root}
}

// Root returns the root component the build function produced.
func (c *Client) Root() component.Component { return c.root }

// Recorder exposes the underlying transport for low-level assertions.
func (c *Client) Recorder() *transport.Recorder { return c.recorder }

// OutgoingMessages returns every message the session has sent so far.
func (c *Client) OutgoingMessages() []*protocol.Message {
	return c.recorder.SentMessages()
}

// Sync waits until the session has processed everything queued so far,
// including the refresh that follows.
func (c *Client) Sync(tb testing.TB) {
	tb.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := c.Session.Do(ctx, func() {}); err != nil {
		tb.Fatalf("sync: %v", err)
	}
}

// SendStateUpdate injects a live state edit as the client would send it
// and waits for it to be processed.
func (c *Client) SendStateUpdate(tb testing.TB, id component.ID, delta map[string]any) {
	tb.Helper()
	c.send(tb, protocol.MethodComponentStateUpdate, protocol.ComponentStateUpdateParams{
		ComponentID: uint64(id),
		DeltaState:  delta,
	})
}

// SendComponentMessage injects a confirm-style payload and waits for it
// to be processed.
func (c *Client) SendComponentMessage(tb testing.TB, id component.ID, payload map[string]any) {
	tb.Helper()
	c.send(tb, protocol.MethodComponentMessage, protocol.ComponentMessageParams{
		ComponentID: uint64(id),
		Payload:     payload,
	})
}

func (c *Client) send(tb testing.TB, method string, params any) {
	tb.Helper()
	raw, err := json.Marshal(params)
	if err != nil {
		tb.Fatalf("marshal params: %v", err)
	}
	msg := &protocol.Message{
		JSONRPC: protocol.Version,
		Method:  method,
		Params:  raw,
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := c.Session.HandleInbound(ctx, msg); err != nil {
		tb.Fatalf("handle inbound: %v", err)
	}
}

// LastDeltaStates returns the deltaStates payload of the most recent
// updateComponentStates message, or nil when none has been sent.
func (c *Client) LastDeltaStates(tb testing.TB) map[string]map[string]any {
	tb.Helper()
	msgs := c.recorder.SentMessages()
	for i := len(msgs) - 1; i >= 0; i-- {
		if msgs[i].Method != protocol.MethodUpdateComponentStates {
			continue
		}
		var p protocol.UpdateComponentStatesParams
		if err := msgs[i].DecodeParams(&p); err != nil {
			tb.Fatalf("decode deltaStates: %v", err)
		}
		return p.DeltaStates
	}
	return nil
}

// LastComponentStateChanges is LastDeltaStates without the root
// component's entry, which most assertions want to ignore.
func (c *Client) LastComponentStateChanges(tb testing.TB) map[string]map[string]any {
	tb.Helper()
	deltas := c.LastDeltaStates(tb)
	if deltas == nil {
		return nil
	}
	delete(deltas, c.root.Core().ID().String())
	return deltas
}

// MessageCount returns how many updateComponentStates messages have been
// sent so far.
func (c *Client) MessageCount() int {
	n := 0
	for _, m := range c.recorder.SentMessages() {
		if m.Method == protocol.MethodUpdateComponentStates {
			n++
		}
	}
	return n
}

// Lookup finds a mounted component by ID, failing the test when absent.
func (c *Client) Lookup(tb testing.TB, id component.ID) component.Component {
	tb.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	comp, err := c.Session.Lookup(ctx, id)
	if err != nil {
		tb.Fatalf("lookup %d: %v", id, err)
	}
	return comp
}

// FindByType returns the first mounted component with the given catalog
// type name, in ascending ID order, failing the test when none exists.
func (c *Client) FindByType(tb testing.TB, typeName string) component.Component {
	tb.Helper()
	for _, id := range c.Components(tb) {
		comp := c.Lookup(tb, id)
		if comp.Core().TypeName() == typeName {
			return comp
		}
	}
	tb.Fatalf("no mounted component of type %q", typeName)
	return nil
}

// Components returns the IDs of every mounted component.
func (c *Client) Components(tb testing.TB) []component.ID {
	tb.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	ids, err := c.Session.Components(ctx)
	if err != nil {
		tb.Fatalf("components: %v", err)
	}
	return ids
}

// CrashedBuilders returns build failures currently masking rebuilds.
func (c *Client) CrashedBuilders(tb testing.TB) map[component.ID]*session.BuildFailureError {
	tb.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	out, err := c.Session.CrashedBuilders(ctx)
	if err != nil {
		tb.Fatalf("crashed builders: %v", err)
	}
	return out
}

// Close tears the session down.
func (c *Client) Close() error {
	return c.Session.Close()
}
