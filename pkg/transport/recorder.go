package transport

import (
	"sync"
	"sync/atomic"

	"github.com/riva-ui/riva/pkg/protocol"
)

// Recorder is an in-memory Transport that records every sent message.
// It backs the test harness and programmatic drivers. When AutoAck is
// enabled (the default), correlated outbound requests are immediately
// answered with a null result, the way a healthy client would.
type Recorder struct {
	mu      sync.Mutex
	sent    []*protocol.Message
	inbound chan *protocol.Message
	closed  atomic.Bool

	// ProcessSent, if set, observes every sent message while the
	// recorder's lock is not held.
	ProcessSent func(msg *protocol.Message)

	autoAck bool
}

// RecorderOption configures a Recorder.
type RecorderOption func(*Recorder)

// WithoutAutoAck disables automatic acknowledgment of correlated
// outbound requests.
func WithoutAutoAck() RecorderOption {
	return func(r *Recorder) { r.autoAck = false }
}

// NewRecorder creates a recording transport.
func NewRecorder(opts ...RecorderOption) *Recorder {
	r := &Recorder{
		inbound: make(chan *protocol.Message, 64),
		autoAck: true,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Send records the message and, for correlated requests, queues an
// acknowledgment on the inbound stream.
func (r *Recorder) Send(msg *protocol.Message) error {
	if r.closed.Load() {
		return ErrTransportClosed
	}

	r.mu.Lock()
	r.sent = append(r.sent, msg)
	r.mu.Unlock()

	if r.ProcessSent != nil {
		r.ProcessSent(msg)
	}

	if r.autoAck && msg.ID != nil {
		r.QueueInbound(protocol.NewResult(*msg.ID))
	}
	return nil
}

// Inbound returns the inbound message stream.
func (r *Recorder) Inbound() <-chan *protocol.Message {
	return r.inbound
}

// QueueInbound injects a message as if the client had sent it. Messages
// queued after Close are dropped. The lock orders the closed check
// against Close so the send cannot hit a freshly closed channel.
func (r *Recorder) QueueInbound(msg *protocol.Message) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.closed.Load() {
		return
	}
	select {
	case r.inbound <- msg:
	default:
		// Inbound buffer full; a real client would be flow-controlled
		// by the socket. Drop to keep tests from deadlocking.
	}
}

// Close closes the inbound stream. Idempotent.
func (r *Recorder) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.closed.Swap(true) {
		return nil
	}
	close(r.inbound)
	return nil
}

// SentMessages returns a copy of everything sent so far.
func (r *Recorder) SentMessages() []*protocol.Message {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]*protocol.Message, len(r.sent))
	copy(out, r.sent)
	return out
}

// LastMessage returns the most recently sent message, or nil.
func (r *Recorder) LastMessage() *protocol.Message {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.sent) == 0 {
		return nil
	}
	return r.sent[len(r.sent)-1]
}
