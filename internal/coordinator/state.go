package coordinator

import (
	"errors"
	"fmt"
)

// State is a coordinator lifecycle state.
//
//	Created -> Running -> Joined -> Done
//
// There are no cycles and no way back.
type State int

const (
	// Created: counter and workers constructed, nothing started.
	Created State = iota
	// Running: both workers have been started.
	Running
	// Joined: both workers have terminated.
	Joined
	// Done: the final value has been read.
	Done
)

// String returns the lower-case state name.
func (s State) String() string {
	switch s {
	case Created:
		return "created"
	case Running:
		return "running"
	case Joined:
		return "joined"
	case Done:
		return "done"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

// next returns the only state reachable from s.
func (s State) next() (State, bool) {
	if s < Created || s >= Done {
		return s, false
	}
	return s + 1, true
}

// ErrInvalidTransition is wrapped by every StateError.
var ErrInvalidTransition = errors.New("invalid state transition")

// StateError reports an operation attempted in the wrong state.
type StateError struct {
	Op   string // Operation attempted (Start, Join, Finish)
	From State  // State the coordinator was in
	To   State  // State the operation would have entered
}

// Error implements the error interface.
func (e *StateError) Error() string {
	return fmt.Sprintf("coordinator %s: cannot move from %s to %s", e.Op, e.From, e.To)
}

// Unwrap returns ErrInvalidTransition.
func (e *StateError) Unwrap() error {
	return ErrInvalidTransition
}
