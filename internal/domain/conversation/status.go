package conversation

import (
	"errors"
	"fmt"
)

// Status is the lifecycle state of a conversation.
type Status string

const (
	StatusActive    Status = "active"
	StatusCompleted Status = "completed"
)

// ErrInvalidTransition is returned when a status transition is not allowed.
var ErrInvalidTransition = errors.New("invalid conversation status transition")

// ValidTransitions defines allowed status transitions.
var ValidTransitions = map[Status][]Status{
	StatusActive:    {StatusCompleted},
	StatusCompleted: {},
}

// IsTerminal returns true if no further responses can be written.
func (s Status) IsTerminal() bool {
	return s == StatusCompleted
}

// String returns the string representation of the status.
func (s Status) String() string {
	return string(s)
}

// CanTransitionTo checks if a transition from s to target is valid.
func (s Status) CanTransitionTo(target Status) bool {
	for _, t := range ValidTransitions[s] {
		if t == target {
			return true
		}
	}
	return false
}

// TransitionTo returns target if the transition is allowed. Staying in a
// non-terminal status is a no-op.
func (s Status) TransitionTo(target Status) (Status, error) {
	if s == target && !s.IsTerminal() {
		if _, known := ValidTransitions[s]; known {
			return s, nil
		}
	}
	if !s.CanTransitionTo(target) {
		return s, fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, s, target)
	}
	return target, nil
}
