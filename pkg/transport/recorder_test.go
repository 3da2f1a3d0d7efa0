package transport

import (
	"errors"
	"sync"
	"testing"

	"github.com/riva-ui/riva/pkg/protocol"
)

func TestRecorderRecordsSends(t *testing.T) {
	r := NewRecorder()

	msg, err := protocol.NewUpdateComponentStates(map[string]map[string]any{
		"1": {"text": "a"},
	}, nil)
	if err != nil {
		t.Fatalf("build message: %v", err)
	}
	if err := r.Send(msg); err != nil {
		t.Fatalf("send: %v", err)
	}

	sent := r.SentMessages()
	if len(sent) != 1 {
		t.Fatalf("recorded %d messages, want 1", len(sent))
	}
	if r.LastMessage() != msg {
		t.Fatal("LastMessage did not return the sent message")
	}
}

func TestRecorderAutoAcksCorrelatedSends(t *testing.T) {
	r := NewRecorder()

	id := int64(11)
	msg, err := protocol.NewUpdateComponentStates(nil, &id)
	if err != nil {
		t.Fatalf("build message: %v", err)
	}
	if err := r.Send(msg); err != nil {
		t.Fatalf("send: %v", err)
	}

	select {
	case ack := <-r.Inbound():
		if !ack.IsResponse() {
			t.Fatal("auto-ack is not a response")
		}
		if *ack.ID != 11 {
			t.Fatalf("ack id = %d, want 11", *ack.ID)
		}
	default:
		t.Fatal("no auto-ack queued")
	}
}

func TestRecorderWithoutAutoAck(t *testing.T) {
	r := NewRecorder(WithoutAutoAck())

	id := int64(1)
	msg, _ := protocol.NewUpdateComponentStates(nil, &id)
	if err := r.Send(msg); err != nil {
		t.Fatalf("send: %v", err)
	}

	select {
	case <-r.Inbound():
		t.Fatal("unexpected inbound message")
	default:
	}
}

func TestRecorderCloseIsIdempotent(t *testing.T) {
	r := NewRecorder()
	if err := r.Close(); err != nil {
		t.Fatalf("first close: %v", err)
	}
	if err := r.Close(); err != nil {
		t.Fatalf("second close: %v", err)
	}

	// Inbound must be closed.
	if _, ok := <-r.Inbound(); ok {
		t.Fatal("inbound channel still open after close")
	}

	msg, _ := protocol.NewUpdateComponentStates(nil, nil)
	if err := r.Send(msg); !errors.Is(err, ErrTransportClosed) {
		t.Fatalf("send after close: err = %v, want ErrTransportClosed", err)
	}

	// Queueing after close must not panic.
	r.QueueInbound(protocol.NewResult(1))
}

func TestRecorderQueueDuringCloseDoesNotPanic(t *testing.T) {
	for i := 0; i < 100; i++ {
		r := NewRecorder()

		var wg sync.WaitGroup
		wg.Add(2)
		go func() {
			defer wg.Done()
			for j := int64(0); j < 16; j++ {
				r.QueueInbound(protocol.NewResult(j))
			}
		}()
		go func() {
			defer wg.Done()
			r.Close()
		}()
		wg.Wait()
	}
}
