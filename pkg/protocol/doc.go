// Package protocol defines the wire format between a session and its
// client: a JSON-RPC 2.0 message envelope, the updateComponentStates
// delta payload, the inbound component event payloads, and the initial
// handshake message.
//
// The protocol is fire-and-forget: outbound requests may carry a
// correlation id, but a missing acknowledgment is not treated as a
// failure.
package protocol
