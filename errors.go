package lightfsm

import (
	"errors"
	"fmt"
)

// ErrInvalidTransition is the sentinel for all recoverable runtime
// rejections. Both InvalidTransitionError and FinalStateError unwrap to
// it, so errors.Is matches the family while errors.As distinguishes the
// variant.
var ErrInvalidTransition = errors.New("invalid transition")

// InvalidTransitionError reports an event with no matching transition in
// the current state. The snapshot is unchanged and Send returns
// normally; the error is only delivered through the config's
// HandleInvalidTransition callback.
type InvalidTransitionError struct {
	State StateID
	Event Event
}

// Error implements the error interface
func (e *InvalidTransitionError) Error() string {
	return fmt.Sprintf("no transition for event '%s' in state '%s'", e.Event.Type, e.State)
}

// Unwrap returns the invalid-transition sentinel
func (e *InvalidTransitionError) Unwrap() error { return ErrInvalidTransition }

// FinalStateError reports an event sent while the machine is in a final
// state. It is a distinguished invalid-transition variant.
type FinalStateError struct {
	State StateID
	Event Event
}

// Error implements the error interface
func (e *FinalStateError) Error() string {
	return fmt.Sprintf("state '%s' is final and accepts no events (got '%s')", e.State, e.Event.Type)
}

// Unwrap returns the invalid-transition sentinel
func (e *FinalStateError) Unwrap() error { return ErrInvalidTransition }

// IsInvalidTransition returns true for any recoverable rejection,
// including the final-state variant. Uses errors.Is to handle wrapping.
func IsInvalidTransition(err error) bool {
	return errors.Is(err, ErrInvalidTransition)
}

// IsFinalState returns true if the error is a final-state rejection
func IsFinalState(err error) bool {
	var fe *FinalStateError
	return errors.As(err, &fe)
}

// CascadeError is the panic value raised when reentrant sends nest
// deeper than the machine's cascade depth limit. A misconfigured action
// that unconditionally re-sends is a caller defect, not ordinary flow,
// so it is fatal rather than reported through the callback.
type CascadeError struct {
	State StateID
	Event Event
	Depth int
}

// Error implements the error interface
func (e *CascadeError) Error() string {
	return fmt.Sprintf("transition cascade too deep: depth %d exceeded at state '%s' on event '%s'", e.Depth, e.State, e.Event.Type)
}

// GuardNotFoundError is the panic value raised if a named guard
// reference cannot be resolved at evaluation time. Construction-time
// validation rejects unresolved guard names, so hitting this means the
// guards map was mutated behind the engine's back.
type GuardNotFoundError struct {
	Guard GuardName
}

// Error implements the error interface
func (e *GuardNotFoundError) Error() string {
	return fmt.Sprintf("guard not found: '%s'", e.Guard)
}
