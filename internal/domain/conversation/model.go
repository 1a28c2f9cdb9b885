package conversation

import (
	"strings"
	"time"
)

// Role is a symbolic seat in a conversation.
type Role string

const (
	RoleA Role = "A"
	RoleB Role = "B"
	RoleC Role = "C"
	RoleD Role = "D"
)

// CanonicalRoles is the order in which seats are handed out.
var CanonicalRoles = []Role{RoleA, RoleB, RoleC, RoleD}

// Valid reports whether r is one of the canonical roles.
func (r Role) Valid() bool {
	for _, c := range CanonicalRoles {
		if r == c {
			return true
		}
	}
	return false
}

// InputMode selects which script a response is typed in.
type InputMode string

const (
	InputModeRoman  InputMode = "roman"
	InputModeNative InputMode = "native"
)

// ParseInputMode maps a request value to an InputMode. Empty means roman.
func ParseInputMode(raw string) (InputMode, bool) {
	switch InputMode(strings.ToLower(strings.TrimSpace(raw))) {
	case "", InputModeRoman:
		return InputModeRoman, true
	case InputModeNative:
		return InputModeNative, true
	default:
		return "", false
	}
}

// Member is a human in join order, as handed to AssignRoles.
type Member struct {
	UserID      string
	Username    string
	DisplayName string
}

// Participant binds a role to a human identity or to an AI placeholder.
type Participant struct {
	Role        Role
	IsAI        bool
	UserID      string
	Username    string
	DisplayName string
}

// Line is the generated text a turn is graded against.
type Line struct {
	RomanText   string
	NativeText  string
	EnglishText string
	Hint        string
}

// Reference returns the text a submission in mode is scored against.
func (l Line) Reference(mode InputMode) string {
	if mode == InputModeNative {
		return l.NativeText
	}
	return l.RomanText
}

// Response is a graded submission. It is never modified once attached to a turn.
type Response struct {
	UserID      string
	DisplayName string
	Text        string
	InputMode   InputMode
	Score       int
	Label       string
	Breakdown   string
	SubmittedAt time.Time
}

// Turn is one numbered slot of the conversation.
type Turn struct {
	TurnNumber int
	Speaker    Role
	Line       Line
	Response   *Response
}

// Conversation is the aggregate governed by SubmitTurn.
type Conversation struct {
	ID           string
	RoomID       string
	Scenario     string
	Status       Status
	CurrentTurn  int
	Participants []Participant
	Turns        []Turn
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// Participant returns the participant bound to role.
func (c Conversation) Participant(role Role) (Participant, bool) {
	for _, p := range c.Participants {
		if p.Role == role {
			return p, true
		}
	}
	return Participant{}, false
}

// Turn returns the turn with the given number.
func (c Conversation) Turn(number int) (Turn, bool) {
	if i := c.turnIndex(number); i >= 0 {
		return c.Turns[i], true
	}
	return Turn{}, false
}

// IsHumanRole reports whether role is bound to a human participant.
func (c Conversation) IsHumanRole(role Role) bool {
	p, ok := c.Participant(role)
	return ok && !p.IsAI
}

// HasParticipant reports whether userID holds a seat.
func (c Conversation) HasParticipant(userID string) bool {
	for _, p := range c.Participants {
		if !p.IsAI && p.UserID == userID {
			return true
		}
	}
	return false
}

func (c Conversation) turnIndex(number int) int {
	// turns are contiguous from 1, so the direct index is almost always right
	if i := number - 1; i >= 0 && i < len(c.Turns) && c.Turns[i].TurnNumber == number {
		return i
	}
	for i, t := range c.Turns {
		if t.TurnNumber == number {
			return i
		}
	}
	return -1
}

// clone copies c deeply enough that writing a response to the copy leaves c untouched.
func (c Conversation) clone() Conversation {
	out := c
	out.Participants = append([]Participant(nil), c.Participants...)
	out.Turns = make([]Turn, len(c.Turns))
	for i, t := range c.Turns {
		if t.Response != nil {
			r := *t.Response
			t.Response = &r
		}
		out.Turns[i] = t
	}
	return out
}

// Submission is a typed response to the current turn.
type Submission struct {
	TurnNumber int
	UserID     string
	Text       string
	InputMode  InputMode
}
