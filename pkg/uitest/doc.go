// Package uitest provides a test client for exercising sessions without
// a real connection: it records every outbound state-sync message and
// injects inbound ones synchronously.
package uitest
