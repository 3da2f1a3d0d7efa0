package server

import (
	"time"

	"github.com/riva-ui/riva/pkg/session"
	"github.com/riva-ui/riva/pkg/transport"
)

// Config holds server-wide settings.
type Config struct {
	// Addr is the listen address. Default: ":8000".
	Addr string

	// HandshakeTimeout caps how long a new connection may take to send
	// its handshake message. Default: 10 seconds.
	HandshakeTimeout time.Duration

	// ShutdownTimeout bounds graceful shutdown. Default: 15 seconds.
	ShutdownTimeout time.Duration

	// WebSocket tunes the per-connection transport.
	WebSocket *transport.WebSocketConfig

	// Session tunes per-session queues and refresh limits.
	Session *session.Config
}

// DefaultConfig returns a config with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		Addr:             ":8000",
		HandshakeTimeout: 10 * time.Second,
		ShutdownTimeout:  15 * time.Second,
		WebSocket:        transport.DefaultWebSocketConfig(),
		Session:          session.DefaultConfig(),
	}
}
