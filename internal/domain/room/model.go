package room

import (
	"errors"
	"time"
)

// Status is the lifecycle state of a room.
type Status string

const (
	StatusWaiting   Status = "waiting"
	StatusActive    Status = "active"
	StatusCompleted Status = "completed"
)

// ErrInvalidTransition is returned when a status transition is not allowed.
var ErrInvalidTransition = errors.New("invalid room status transition")

// ValidTransitions defines allowed status transitions. A room must host a
// conversation before it can complete.
var ValidTransitions = map[Status][]Status{
	StatusWaiting:   {StatusActive},
	StatusActive:    {StatusCompleted},
	StatusCompleted: {},
}

// IsTerminal returns true if the room accepts no new conversations.
func (s Status) IsTerminal() bool {
	return s == StatusCompleted
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

// TransitionTo returns target if the transition is allowed.
func (s Status) TransitionTo(target Status) (Status, error) {
	if !s.CanTransitionTo(target) {
		return s, ErrInvalidTransition
	}
	return target, nil
}

// Member is a user seated in a room, in join order.
type Member struct {
	UserID      string
	Username    string
	DisplayName string
	JoinedAt    time.Time
}

// Room groups players practising one language at one level.
type Room struct {
	ID                 string
	Language           string
	Level              string
	MaxPlayers         int
	JoinCode           string
	Status             Status
	CreatedBy          string
	Members            []Member
	LastConversationID string
	LastScenario       string
	CreatedAt          time.Time
	UpdatedAt          time.Time
}

// IsMember reports whether userID has joined the room.
func (r Room) IsMember(userID string) bool {
	for _, m := range r.Members {
		if m.UserID == userID {
			return true
		}
	}
	return false
}

// IsFull reports whether every seat is taken.
func (r Room) IsFull() bool {
	return len(r.Members) >= r.MaxPlayers
}

const (
	MinPlayers = 2
	MaxPlayers = 4
)
