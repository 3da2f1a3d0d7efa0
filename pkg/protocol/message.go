package protocol

import (
	"encoding/json"
	"errors"
	"fmt"
)

// Version is the JSON-RPC protocol version carried in every envelope.
const Version = "2.0"

// Method names exchanged between session and client.
const (
	// MethodUpdateComponentStates is the outbound delta/full-sync method.
	MethodUpdateComponentStates = "updateComponentStates"

	// MethodComponentStateUpdate is an inbound live state edit.
	MethodComponentStateUpdate = "componentStateUpdate"

	// MethodComponentMessage is an inbound component-scoped payload,
	// e.g. a confirm action carrying the input's current value.
	MethodComponentMessage = "componentMessage"
)

// ErrMalformedEnvelope is returned when an inbound message does not form
// a valid JSON-RPC 2.0 envelope.
var ErrMalformedEnvelope = errors.New("protocol: malformed envelope")

// Message is the wire envelope: a method with parameters, or a correlated
// response carrying a result.
type Message struct {
	JSONRPC string          `json:"jsonrpc"`
	Method  string          `json:"method,omitempty"`
	Params  json.RawMessage `json:"params,omitempty"`
	ID      *int64          `json:"id,omitempty"`
	Result  json.RawMessage `json:"result,omitempty"`
}

// IsResponse reports whether the message is a correlated response rather
// than a method call.
func (m *Message) IsResponse() bool {
	return m.Method == "" && m.ID != nil
}

// UpdateComponentStatesParams is the outbound payload: per-component
// partial attribute mappings keyed by decimal component identifier.
type UpdateComponentStatesParams struct {
	DeltaStates map[string]map[string]any `json:"deltaStates"`
}

// ComponentStateUpdateParams is an inbound live edit targeting one
// component.
type ComponentStateUpdateParams struct {
	ComponentID uint64         `json:"componentId"`
	DeltaState  map[string]any `json:"deltaState"`
}

// ComponentMessageParams is an inbound component-scoped payload.
type ComponentMessageParams struct {
	ComponentID uint64         `json:"componentId"`
	Payload     map[string]any `json:"payload"`
}

// NewUpdateComponentStates builds the outbound delta message. The id, if
// non-nil, requests a correlated acknowledgment from the client.
func NewUpdateComponentStates(deltaStates map[string]map[string]any, id *int64) (*Message, error) {
	params, err := json.Marshal(UpdateComponentStatesParams{DeltaStates: deltaStates})
	if err != nil {
		return nil, fmt.Errorf("protocol: encode deltaStates: %w", err)
	}
	return &Message{
		JSONRPC: Version,
		Method:  MethodUpdateComponentStates,
		Params:  params,
		ID:      id,
	}, nil
}

// NewResult builds a correlated response acknowledging message id.
func NewResult(id int64) *Message {
	return &Message{
		JSONRPC: Version,
		ID:      &id,
		Result:  json.RawMessage("null"),
	}
}

// Parse decodes and validates an inbound envelope. A message must carry
// the protocol version and either a method or a correlation id.
func Parse(data []byte) (*Message, error) {
	var m Message
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedEnvelope, err)
	}
	if m.JSONRPC != Version {
		return nil, fmt.Errorf("%w: jsonrpc %q", ErrMalformedEnvelope, m.JSONRPC)
	}
	if m.Method == "" && m.ID == nil {
		return nil, fmt.Errorf("%w: neither method nor id", ErrMalformedEnvelope)
	}
	return &m, nil
}

// DecodeParams unmarshals a message's params into the given struct.
func (m *Message) DecodeParams(v any) error {
	if len(m.Params) == 0 {
		return fmt.Errorf("%w: missing params for %q", ErrMalformedEnvelope, m.Method)
	}
	if err := json.Unmarshal(m.Params, v); err != nil {
		return fmt.Errorf("%w: params for %q: %v", ErrMalformedEnvelope, m.Method, err)
	}
	return nil
}

// Encode serializes the message for the wire.
func (m *Message) Encode() ([]byte, error) {
	return json.Marshal(m)
}
