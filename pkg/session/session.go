package session

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"log/slog"
	"runtime/debug"
	"sync/atomic"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/riva-ui/riva/pkg/component"
	"github.com/riva-ui/riva/pkg/protocol"
	"github.com/riva-ui/riva/pkg/transport"
)

// Session owns one client connection's component tree. A single
// goroutine serializes every mutation: inbound messages, dispatched
// functions, and refresh cycles all run on it, so components never need
// locks.
type Session struct {
	ID        string
	CreatedAt time.Time

	catalog *component.Catalog
	config  *Config
	logger  *slog.Logger
	tracer  trace.Tracer

	transport transport.Transport
	handshake *protocol.Handshake

	tree  *tree
	dirty *DirtySet
	codec *Codec
	rec   *Reconciler
	disp  *Dispatcher
	root  component.Component

	refreshCh  chan struct{}
	dispatchCh chan func()
	done       chan struct{}
	closed     atomic.Bool

	msgID atomic.Int64

	inboundCount   atomic.Uint64
	violationCount atomic.Uint64
	refreshCount   atomic.Uint64
	messagesSent   atomic.Uint64
}

// Options configures session creation.
type Options struct {
	// Build constructs the session's root component. Defaults to an
	// empty placeholder when nil.
	Build func() component.Component

	// Transport carries messages to and from the client. Required.
	Transport transport.Transport

	// Handshake is the validated client handshake. Required.
	Handshake *protocol.Handshake

	// Catalog resolves component specs. Defaults to Builtins.
	Catalog *component.Catalog

	// Config tunes queue sizes and refresh limits. Nil means
	// DefaultConfig; unset fields fall back to their defaults.
	Config *Config

	// Logger receives session-scoped log records.
	Logger *slog.Logger
}

// Create mounts the root component, pushes the full initial state to the
// client, and starts the session goroutine. The returned session is live
// until Close or until the transport's inbound channel closes.
func Create(ctx context.Context, opts Options) (*Session, error) {
	if opts.Transport == nil {
		return nil, errors.New("session: transport is required")
	}
	if opts.Handshake == nil {
		return nil, &protocol.HandshakeError{Field: "payload", Reason: "missing"}
	}
	if err := opts.Handshake.Validate(); err != nil {
		return nil, err
	}

	build := opts.Build
	if build == nil {
		build = func() component.Component { return component.NewSpacer() }
	}
	catalog := opts.Catalog
	if catalog == nil {
		catalog = component.Builtins()
	}
	cfg := opts.Config.withDefaults()
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	s := &Session{
		ID:         generateSessionID(),
		CreatedAt:  time.Now(),
		catalog:    catalog,
		config:     cfg,
		tracer:     otel.Tracer("riva/session"),
		transport:  opts.Transport,
		handshake:  opts.Handshake,
		tree:       newTree(),
		dirty:      NewDirtySet(),
		refreshCh:  make(chan struct{}, 1),
		dispatchCh: make(chan func(), cfg.DispatchQueue),
		done:       make(chan struct{}),
	}
	s.logger = logger.With("session_id", s.ID)
	s.codec = NewCodec(catalog)
	markDirty := func(id component.ID) {
		s.dirty.Mark(id)
		s.scheduleRefresh()
	}
	s.rec = NewReconciler(s.tree, s.dirty, s.codec, catalog, markDirty,
		s.logger, cfg.MaxRefreshPasses)
	s.disp = NewDispatcher(s.tree, s.codec, s.logger)

	_, span := s.tracer.Start(ctx, "session.create",
		trace.WithAttributes(attribute.String("session.id", s.ID)))
	defer span.End()

	s.root = build()
	deltas, err := s.rec.MountRoot(s.root)
	if err != nil {
		return nil, err
	}
	// Dirty marks raised during mount are already covered by the full
	// initial state.
	s.dirty.Drain()
	drainSignal(s.refreshCh)

	if err := s.send(deltas); err != nil {
		s.transport.Close()
		return nil, err
	}
	s.logger.Info("session created",
		"url", s.handshake.URL, "components", s.tree.len())

	go s.loop()
	return s, nil
}

func generateSessionID() string {
	b := make([]byte, 16)
	if _, err := rand.Read(b); err != nil {
		panic("session: id generation: " + err.Error())
	}
	return hex.EncodeToString(b)
}

// loop is the session goroutine. Every inbound message and every
// dispatched function is followed by a refresh, so client-visible state
// never lags a handler.
func (s *Session) loop() {
	for {
		select {
		case msg, ok := <-s.transport.Inbound():
			if !ok {
				s.logger.Info("transport closed, ending session")
				s.Close()
				return
			}
			s.handleInbound(msg)
			s.refreshNow()
		case fn := <-s.dispatchCh:
			s.run(fn)
			s.refreshNow()
		case <-s.refreshCh:
			s.refreshNow()
		case <-s.done:
			return
		}
	}
}

func (s *Session) run(fn func()) {
	defer func() {
		if rec := recover(); rec != nil {
			s.logger.Error("dispatched function panicked",
				"panic", rec, "stack", string(debug.Stack()))
		}
	}()
	fn()
}

// handleInbound routes one parsed message and returns the dispatch
// error, if any. Protocol violations are logged and counted; the session
// stays alive either way.
func (s *Session) handleInbound(msg *protocol.Message) error {
	s.inboundCount.Add(1)

	if msg.IsResponse() {
		s.logger.Debug("acknowledgement received", "id", *msg.ID)
		return nil
	}

	_, span := s.tracer.Start(context.Background(), "session.dispatch",
		trace.WithAttributes(
			attribute.String("session.id", s.ID),
			attribute.String("rpc.method", msg.Method)))
	defer span.End()

	var err error
	switch msg.Method {
	case protocol.MethodComponentStateUpdate:
		var p protocol.ComponentStateUpdateParams
		if err = msg.DecodeParams(&p); err == nil {
			err = s.disp.DispatchStateUpdate(&p)
		}
	case protocol.MethodComponentMessage:
		var p protocol.ComponentMessageParams
		if err = msg.DecodeParams(&p); err == nil {
			err = s.disp.DispatchComponentMessage(&p)
		}
	default:
		err = &ProtocolViolationError{Reason: "unknown method " + msg.Method}
	}
	if err != nil {
		s.violationCount.Add(1)
		s.logger.Warn("inbound message rejected",
			"method", msg.Method, "error", err)
	}
	return err
}

// refreshNow runs one reconciliation cycle and ships the resulting
// deltas, if any, as a single message.
func (s *Session) refreshNow() {
	if s.closed.Load() {
		return
	}
	drainSignal(s.refreshCh)
	_, span := s.tracer.Start(context.Background(), "session.refresh",
		trace.WithAttributes(attribute.String("session.id", s.ID)))
	defer span.End()

	deltas := s.rec.RunCycle()
	s.refreshCount.Add(1)
	span.SetAttributes(attribute.Int("refresh.components", len(deltas)))
	if len(deltas) == 0 {
		return
	}
	if err := s.send(deltas); err != nil {
		s.logger.Error("state sync failed, closing session", "error", err)
		s.Close()
	}
}

func (s *Session) send(deltas map[component.ID]component.DeltaState) error {
	wire := make(map[string]map[string]any, len(deltas))
	for id, delta := range deltas {
		wire[id.String()] = delta
	}
	id := s.msgID.Add(1)
	msg, err := protocol.NewUpdateComponentStates(wire, &id)
	if err != nil {
		return err
	}
	if err := s.transport.Send(msg); err != nil {
		return err
	}
	s.messagesSent.Add(1)
	return nil
}

func drainSignal(ch chan struct{}) {
	select {
	case <-ch:
	default:
	}
}

func (s *Session) scheduleRefresh() {
	select {
	case s.refreshCh <- struct{}{}:
	default:
	}
}

// HandleInbound injects a message as if it arrived from the client and
// waits for it to be processed, including the follow-up refresh. The
// dispatch error is returned so programmatic drivers can observe a
// rejected message; the session stays alive regardless. Mainly for tests
// and custom transports.
func (s *Session) HandleInbound(ctx context.Context, msg *protocol.Message) error {
	var dispatchErr error
	if err := s.Do(ctx, func() {
		dispatchErr = s.handleInbound(msg)
	}); err != nil {
		return err
	}
	return dispatchErr
}

// Refresh schedules a reconciliation cycle. Multiple calls before the
// cycle runs coalesce into one. Safe from any goroutine.
func (s *Session) Refresh() error {
	if s.closed.Load() {
		return ErrSessionClosed
	}
	s.scheduleRefresh()
	return nil
}

// Do runs fn on the session goroutine and waits for it to finish. It is
// for code outside the session; handlers already run on the session
// goroutine and must use Refresh instead.
func (s *Session) Do(ctx context.Context, fn func()) error {
	if s.closed.Load() {
		return ErrSessionClosed
	}
	doneCh := make(chan struct{})
	wrapped := func() {
		defer close(doneCh)
		fn()
		s.refreshNow()
	}
	select {
	case s.dispatchCh <- wrapped:
	case <-s.done:
		return ErrSessionClosed
	case <-ctx.Done():
		return ctx.Err()
	}
	select {
	case <-doneCh:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Dispatch queues fn to run on the session goroutine without waiting.
func (s *Session) Dispatch(fn func()) error {
	if s.closed.Load() {
		return ErrSessionClosed
	}
	select {
	case s.dispatchCh <- fn:
		return nil
	case <-s.done:
		return ErrSessionClosed
	}
}

// Close tears the session down. Idempotent and safe from any goroutine.
func (s *Session) Close() error {
	if s.closed.Swap(true) {
		return nil
	}
	close(s.done)
	err := s.transport.Close()
	s.logger.Info("session closed",
		"inbound", s.inboundCount.Load(),
		"violations", s.violationCount.Load(),
		"refreshes", s.refreshCount.Load(),
		"sent", s.messagesSent.Load())
	return err
}

// Closed reports whether Close has been called.
func (s *Session) Closed() bool { return s.closed.Load() }

// Done returns a channel closed when the session shuts down.
func (s *Session) Done() <-chan struct{} { return s.done }

// Handshake returns the client handshake the session was created with.
func (s *Session) Handshake() *protocol.Handshake { return s.handshake }

// Root returns the root component.
func (s *Session) Root() component.Component { return s.root }

// Components returns the IDs of every mounted component in ascending
// order.
func (s *Session) Components(ctx context.Context) ([]component.ID, error) {
	var ids []component.ID
	err := s.Do(ctx, func() { ids = s.tree.ids() })
	return ids, err
}

// Lookup finds a mounted component by ID.
func (s *Session) Lookup(ctx context.Context, id component.ID) (component.Component, error) {
	var comp component.Component
	err := s.Do(ctx, func() {
		if rec, ok := s.tree.lookup(id); ok {
			comp = rec.comp
		}
	})
	if err != nil {
		return nil, err
	}
	if comp == nil {
		return nil, &ProtocolViolationError{ComponentID: id, Reason: "unknown component"}
	}
	return comp, nil
}

// CrashedBuilders returns the build failures currently masking composite
// rebuilds.
func (s *Session) CrashedBuilders(ctx context.Context) (map[component.ID]*BuildFailureError, error) {
	var out map[component.ID]*BuildFailureError
	err := s.Do(ctx, func() { out = s.rec.CrashedBuilders() })
	return out, err
}

// Stats is a point-in-time snapshot of session counters.
type Stats struct {
	Inbound    uint64
	Violations uint64
	Refreshes  uint64
	Sent       uint64
	Components int
}

// Stats returns the session's counters. The component count requires the
// session goroutine and is fetched with a short timeout.
func (s *Session) Stats() Stats {
	st := Stats{
		Inbound:    s.inboundCount.Load(),
		Violations: s.violationCount.Load(),
		Refreshes:  s.refreshCount.Load(),
		Sent:       s.messagesSent.Load(),
	}
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	_ = s.Do(ctx, func() { st.Components = s.tree.len() })
	return st
}
