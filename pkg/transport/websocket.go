package transport

import (
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"

	"github.com/riva-ui/riva/pkg/protocol"
)

// WebSocketConfig tunes the WebSocket transport adapter.
type WebSocketConfig struct {
	// ReadTimeout is the maximum time to wait for a client message.
	// Default: 60 seconds.
	ReadTimeout time.Duration

	// WriteTimeout is the maximum time to wait when sending.
	// Default: 10 seconds.
	WriteTimeout time.Duration

	// MaxMessageSize caps inbound message size. Default: 64KB.
	MaxMessageSize int64

	// InboundBuffer is the inbound channel capacity. Default: 64.
	InboundBuffer int
}

// DefaultWebSocketConfig returns a config with sensible defaults.
func DefaultWebSocketConfig() *WebSocketConfig {
	return &WebSocketConfig{
		ReadTimeout:    60 * time.Second,
		WriteTimeout:   10 * time.Second,
		MaxMessageSize: 64 * 1024,
		InboundBuffer:  64,
	}
}

// WebSocket adapts a gorilla WebSocket connection to the Transport
// interface. It is a thin envelope codec over the socket: a read loop
// parses inbound envelopes onto the Inbound channel, and Send writes
// JSON text messages under a mutex with a write deadline.
type WebSocket struct {
	conn    *websocket.Conn
	config  *WebSocketConfig
	logger  *slog.Logger
	inbound chan *protocol.Message

	writeMu sync.Mutex
	closed  atomic.Bool
}

// NewWebSocket wraps an upgraded connection and starts its read loop.
func NewWebSocket(conn *websocket.Conn, config *WebSocketConfig, logger *slog.Logger) *WebSocket {
	if config == nil {
		config = DefaultWebSocketConfig()
	}
	if logger == nil {
		logger = slog.Default()
	}

	w := &WebSocket{
		conn:    conn,
		config:  config,
		logger:  logger,
		inbound: make(chan *protocol.Message, config.InboundBuffer),
	}

	conn.SetReadLimit(config.MaxMessageSize)
	go w.readLoop()

	return w
}

// Send writes one outbound message as a JSON text frame.
func (w *WebSocket) Send(msg *protocol.Message) error {
	if w.closed.Load() {
		return ErrTransportClosed
	}

	data, err := msg.Encode()
	if err != nil {
		return err
	}

	w.writeMu.Lock()
	defer w.writeMu.Unlock()

	w.conn.SetWriteDeadline(time.Now().Add(w.config.WriteTimeout))
	if err := w.conn.WriteMessage(websocket.TextMessage, data); err != nil {
		w.logger.Error("write error", "error", err)
		w.Close()
		return err
	}
	return nil
}

// Inbound returns the inbound message stream.
func (w *WebSocket) Inbound() <-chan *protocol.Message {
	return w.inbound
}

// Close sends a close frame and tears down the connection. Idempotent.
func (w *WebSocket) Close() error {
	if w.closed.Swap(true) {
		return nil
	}

	w.conn.WriteControl(
		websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
		time.Now().Add(time.Second),
	)
	return w.conn.Close()
}

// readLoop parses inbound envelopes until the connection drops. Frames
// that fail envelope validation are logged and skipped; the session
// decides whether repeated violations warrant teardown.
func (w *WebSocket) readLoop() {
	defer func() {
		w.closed.Store(true)
		w.conn.Close()
		close(w.inbound)
	}()

	for {
		w.conn.SetReadDeadline(time.Now().Add(w.config.ReadTimeout))

		_, data, err := w.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err,
				websocket.CloseGoingAway,
				websocket.CloseAbnormalClosure,
				websocket.CloseNormalClosure) {
				w.logger.Error("read error", "error", err)
			}
			return
		}

		msg, err := protocol.Parse(data)
		if err != nil {
			w.logger.Warn("dropping malformed message", "error", err)
			continue
		}

		select {
		case w.inbound <- msg:
		default:
			w.logger.Warn("inbound buffer full, dropping message",
				"method", msg.Method)
		}
	}
}
