// Package controller implements the three capture workflows: one-shot
// location, microphone clip recording and the camera preview deck.
package controller

import (
	"errors"
	"fmt"
)

// State is the lifecycle phase of a capture controller. Every operation
// is guarded by the current state; out-of-state calls fail fast.
type State string

const (
	// StateStopped means no stream is held.
	StateStopped State = "stopped"
	// StateRecording means a stream is held and chunks are being produced.
	StateRecording State = "recording"
	// StatePreviewing means a camera stream is held without recording.
	StatePreviewing State = "previewing"
	// StateError is terminal for the controller's lifetime.
	StateError State = "error"
)

// ErrInvalidState matches any invalid-state failure via errors.Is.
var ErrInvalidState = errors.New("operation not allowed in current state")

// InvalidStateError reports an operation called in a state that does
// not permit it. The controller's state is left untouched.
type InvalidStateError struct {
	Op    string
	State State
}

func (e *InvalidStateError) Error() string {
	return fmt.Sprintf("%s not allowed in state %q", e.Op, e.State)
}

// Is makes the error match ErrInvalidState.
func (e *InvalidStateError) Is(target error) bool {
	return target == ErrInvalidState
}

func invalidState(op string, s State) error {
	return &InvalidStateError{Op: op, State: s}
}
