package conversation

import "fmt"

// Assignment is the outcome of AssignRoles.
type Assignment struct {
	Participants []Participant
	// Plan holds the speaker of turn i+1 at index i.
	Plan []Role
}

// AssignRoles binds roleOrder[:maxPartySize] to members in join order, fills
// the remaining seats with AI participants and lays out totalTurns turns
// round-robin across the seats.
//
// When totalTurns is not a multiple of the seat count the sequence is cut
// short, so earlier roles speak one turn more than later ones.
func AssignRoles(members []Member, maxPartySize int, roleOrder []Role, totalTurns int) (Assignment, error) {
	if maxPartySize < 1 || maxPartySize > len(roleOrder) {
		return Assignment{}, fmt.Errorf("%w: party size %d outside 1..%d", ErrInvalidPartySize, maxPartySize, len(roleOrder))
	}
	if totalTurns < 1 {
		return Assignment{}, fmt.Errorf("%w: %d turns", ErrInvalidPartySize, totalTurns)
	}
	if len(members) == 0 {
		return Assignment{}, ErrEmptyRoom
	}
	if len(members) > maxPartySize {
		return Assignment{}, fmt.Errorf("%w: %d members for %d seats", ErrInvalidPartySize, len(members), maxPartySize)
	}

	seats := roleOrder[:maxPartySize]
	participants := make([]Participant, len(seats))
	for i, role := range seats {
		if i < len(members) {
			m := members[i]
			participants[i] = Participant{
				Role:        role,
				UserID:      m.UserID,
				Username:    m.Username,
				DisplayName: m.DisplayName,
			}
			continue
		}
		participants[i] = Participant{Role: role, IsAI: true}
	}

	return Assignment{
		Participants: participants,
		Plan:         TurnPlan(seats, totalTurns),
	}, nil
}

// TurnPlan returns the speaker of each turn: turn i goes to seats[(i-1) mod len(seats)].
func TurnPlan(seats []Role, totalTurns int) []Role {
	if len(seats) == 0 || totalTurns < 1 {
		return nil
	}
	plan := make([]Role, totalTurns)
	for i := range plan {
		plan[i] = seats[i%len(seats)]
	}
	return plan
}
