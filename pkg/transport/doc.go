// Package transport provides the abstract message channel between a
// session and its client, plus two implementations: an in-memory
// Recorder for tests and programmatic drivers, and a WebSocket adapter
// over gorilla/websocket.
package transport
