// Package session implements the server side of the state sync protocol:
// a per-connection component tree, a dirty-set reconciler that turns
// server mutations into minimal wire deltas, a validating codec for
// client-originated state writes, and an event dispatcher.
//
// Each session runs one goroutine; inbound messages, dispatched
// functions, and refresh cycles are serialized on it, so component code
// never takes locks.
package session
