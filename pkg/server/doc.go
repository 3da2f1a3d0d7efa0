// Package server ties the pieces together over HTTP: it upgrades
// WebSocket connections, validates the client handshake, and runs one
// session per connection, exposing health and Prometheus metrics routes
// alongside.
package server
