package session

import (
	"errors"
	"fmt"

	"github.com/riva-ui/riva/pkg/component"
)

// Sentinel errors for session error conditions.
var (
	// ErrSessionClosed is returned when an operation is attempted on a
	// closed session.
	ErrSessionClosed = errors.New("session: closed")

	// ErrProtocolViolation is the base of all inbound-message validation
	// failures; match with errors.Is.
	ErrProtocolViolation = errors.New("session: protocol violation")
)

// ProtocolViolationError reports an inbound message that violates the
// mutation whitelist or addresses an unknown component. The message is
// dropped and the session stays alive; repeated violations indicate a
// desynced or hostile client and are the caller's policy decision.
type ProtocolViolationError struct {
	ComponentID component.ID
	Attr        string
	Reason      string
}

// Error returns the error message.
func (e *ProtocolViolationError) Error() string {
	if e.Attr == "" {
		return fmt.Sprintf("session: protocol violation: component %d: %s",
			e.ComponentID, e.Reason)
	}
	return fmt.Sprintf("session: protocol violation: component %d attr %q: %s",
		e.ComponentID, e.Attr, e.Reason)
}

// Unwrap allows errors.Is(err, ErrProtocolViolation).
func (e *ProtocolViolationError) Unwrap() error {
	return ErrProtocolViolation
}

// BuildFailureError records a builder that panicked during a refresh
// cycle. The failure is isolated: the previous build result stays in
// place and the cycle continues with the remaining dirty components.
type BuildFailureError struct {
	ComponentID component.ID
	TypeName    string
	Panic       any
	Stack       []byte
}

// Error returns the error message.
func (e *BuildFailureError) Error() string {
	return fmt.Sprintf("session: builder for %s (component %d) panicked: %v",
		e.TypeName, e.ComponentID, e.Panic)
}
