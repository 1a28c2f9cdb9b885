package conversation

import "context"

// GeneratedLine is one turn of dialogue produced for a plan.
type GeneratedLine struct {
	TurnNumber int
	Speaker    Role
	Line
}

// GenerateRequest describes the dialogue to produce.
type GenerateRequest struct {
	Language     string
	Level        string
	Scenario     string
	Participants []Participant
	Plan         []Role
}

// Generator produces the reference lines for every planned turn.
type Generator interface {
	Generate(ctx context.Context, req GenerateRequest) ([]GeneratedLine, error)
}
