package transport

import (
	"errors"

	"github.com/riva-ui/riva/pkg/protocol"
)

// ErrTransportClosed is returned by Send after the transport is torn
// down.
var ErrTransportClosed = errors.New("transport: closed")

// Transport is the abstract bidirectional channel connecting a session
// to its client. Implementations must make Send safe for concurrent use
// and must close the Inbound channel on teardown.
type Transport interface {
	// Send delivers one outbound message to the client.
	Send(msg *protocol.Message) error

	// Inbound is the stream of messages arriving from the client. The
	// channel is closed when the transport shuts down.
	Inbound() <-chan *protocol.Message

	// Close tears the transport down. Idempotent.
	Close() error
}
