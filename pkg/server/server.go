package server

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/gorilla/websocket"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/riva-ui/riva/pkg/component"
	"github.com/riva-ui/riva/pkg/protocol"
	"github.com/riva-ui/riva/pkg/session"
	"github.com/riva-ui/riva/pkg/transport"
)

// Options configures a Server.
type Options struct {
	// Build constructs the root component for each new session. Required.
	Build func() component.Component

	// Catalog resolves component specs. Defaults to the builtin catalog.
	Catalog *component.Catalog

	// Config holds server settings. Nil means DefaultConfig.
	Config *Config

	// Logger receives server log records.
	Logger *slog.Logger

	// Registry receives the server's Prometheus instruments. Nil uses
	// the default registerer.
	Registry prometheus.Registerer
}

// Server accepts WebSocket connections, performs the handshake, and runs
// one session per connection.
type Server struct {
	config   *Config
	logger   *slog.Logger
	metrics  *Metrics
	tracer   trace.Tracer
	build    func() component.Component
	catalog  *component.Catalog
	upgrader websocket.Upgrader

	gatherer prometheus.Gatherer

	mu       sync.Mutex
	sessions map[string]*session.Session

	httpServer *http.Server
}

// New creates a server. Options.Build is required.
func New(opts Options) (*Server, error) {
	if opts.Build == nil {
		return nil, errors.New("server: build function is required")
	}
	cfg := opts.Config
	if cfg == nil {
		cfg = DefaultConfig()
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	catalog := opts.Catalog
	if catalog == nil {
		catalog = component.Builtins()
	}
	gatherer := prometheus.Gatherer(prometheus.DefaultGatherer)
	if g, ok := opts.Registry.(prometheus.Gatherer); ok {
		gatherer = g
	}

	return &Server{
		config:  cfg,
		logger:  logger,
		metrics: NewMetrics(opts.Registry),
		tracer:  otel.Tracer("riva/server"),
		build:   opts.Build,
		catalog: catalog,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  4096,
			WriteBufferSize: 4096,
		},
		gatherer: gatherer,
		sessions: make(map[string]*session.Session),
	}, nil
}

// Handler returns the server's HTTP handler: the session endpoint plus
// health and metrics routes.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(chimw.RequestID)
	r.Use(chimw.Recoverer)

	r.Get("/ws", s.handleWS)
	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	})
	r.Handle("/metrics", promhttp.HandlerFor(s.gatherer, promhttp.HandlerOpts{}))
	return r
}

// ListenAndServe blocks serving HTTP until Shutdown or a listener error.
func (s *Server) ListenAndServe() error {
	s.httpServer = &http.Server{
		Addr:              s.config.Addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	s.logger.Info("listening", "addr", s.config.Addr)
	err := s.httpServer.ListenAndServe()
	if errors.Is(err, http.ErrServerClosed) {
		return nil
	}
	return err
}

// handleWS upgrades the connection, reads the handshake, and runs the
// session until it ends.
func (s *Server) handleWS(w http.ResponseWriter, r *http.Request) {
	ctx, span := s.tracer.Start(r.Context(), "server.connection")
	defer span.End()

	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Error("upgrade failed", "error", err, "remote", r.RemoteAddr)
		return
	}

	hs, err := s.readHandshake(conn)
	if err != nil {
		s.metrics.handshakeFailures.Inc()
		s.logger.Warn("handshake rejected", "error", err, "remote", r.RemoteAddr)
		conn.WriteControl(
			websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.ClosePolicyViolation, err.Error()),
			time.Now().Add(time.Second),
		)
		conn.Close()
		return
	}

	tr := transport.NewWebSocket(conn, s.config.WebSocket, s.logger)
	sess, err := session.Create(ctx, session.Options{
		Build:     s.build,
		Transport: tr,
		Handshake: hs,
		Catalog:   s.catalog,
		Config:    s.config.Session,
		Logger:    s.logger,
	})
	if err != nil {
		s.metrics.handshakeFailures.Inc()
		s.logger.Error("session create failed", "error", err)
		tr.Close()
		return
	}
	span.SetAttributes(attribute.String("session.id", sess.ID))

	s.register(sess)
	s.metrics.sessionsTotal.Inc()
	s.metrics.activeSessions.Inc()

	<-sess.Done()

	s.unregister(sess)
	stats := sess.Stats()
	s.metrics.activeSessions.Dec()
	s.metrics.sessionDuration.Observe(time.Since(sess.CreatedAt).Seconds())
	s.metrics.messagesSent.Add(float64(stats.Sent))
	s.metrics.violationsTotal.Add(float64(stats.Violations))
}

// readHandshake reads and validates the first client message, which must
// be the handshake payload.
func (s *Server) readHandshake(conn *websocket.Conn) (*protocol.Handshake, error) {
	conn.SetReadDeadline(time.Now().Add(s.config.HandshakeTimeout))
	defer conn.SetReadDeadline(time.Time{})

	_, data, err := conn.ReadMessage()
	if err != nil {
		return nil, &protocol.HandshakeError{Field: "payload", Reason: err.Error()}
	}
	return protocol.ParseHandshake(data)
}

func (s *Server) register(sess *session.Session) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sessions[sess.ID] = sess
}

func (s *Server) unregister(sess *session.Session) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sessions, sess.ID)
}

// Session returns a live session by ID.
func (s *Server) Session(id string) (*session.Session, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess, ok := s.sessions[id]
	return sess, ok
}

// SessionCount reports how many sessions are live.
func (s *Server) SessionCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.sessions)
}

// Shutdown closes every session and stops the HTTP listener.
func (s *Server) Shutdown(ctx context.Context) error {
	s.mu.Lock()
	open := make([]*session.Session, 0, len(s.sessions))
	for _, sess := range s.sessions {
		open = append(open, sess)
	}
	s.mu.Unlock()

	for _, sess := range open {
		sess.Close()
	}
	s.logger.Info("sessions closed", "count", len(open))

	if s.httpServer == nil {
		return nil
	}
	ctx, cancel := context.WithTimeout(ctx, s.config.ShutdownTimeout)
	defer cancel()
	return s.httpServer.Shutdown(ctx)
}
