package conversation

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"babel-bridge/internal/domain/scoring"
)

// Build assembles a new active conversation from a role assignment and the
// lines generated for its plan. CurrentTurn starts on the first human turn.
func Build(id, roomID, scenario string, assignment Assignment, lines []GeneratedLine, now time.Time) (Conversation, error) {
	if err := ValidateLines(assignment.Plan, lines); err != nil {
		return Conversation{}, err
	}

	sorted := append([]GeneratedLine(nil), lines...)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].TurnNumber < sorted[j].TurnNumber })

	turns := make([]Turn, len(sorted))
	for i, l := range sorted {
		turns[i] = Turn{TurnNumber: l.TurnNumber, Speaker: l.Speaker, Line: l.Line}
	}

	conv := Conversation{
		ID:           id,
		RoomID:       roomID,
		Scenario:     scenario,
		Status:       StatusActive,
		Participants: append([]Participant(nil), assignment.Participants...),
		Turns:        turns,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	conv.CurrentTurn, conv.Status = resolveNext(conv, 0)
	return conv, nil
}

// ValidateLines checks generated lines against the plan: one line per planned
// turn, numbered 1..N, each spoken by the planned role.
func ValidateLines(plan []Role, lines []GeneratedLine) error {
	if len(lines) != len(plan) {
		return fmt.Errorf("%w: expected %d turns, got %d", ErrGeneratorContract, len(plan), len(lines))
	}
	seen := make(map[int]struct{}, len(lines))
	for _, l := range lines {
		if l.TurnNumber < 1 || l.TurnNumber > len(plan) {
			return fmt.Errorf("%w: turn number %d out of range", ErrGeneratorContract, l.TurnNumber)
		}
		if _, dup := seen[l.TurnNumber]; dup {
			return fmt.Errorf("%w: turn %d repeated", ErrGeneratorContract, l.TurnNumber)
		}
		seen[l.TurnNumber] = struct{}{}
		if want := plan[l.TurnNumber-1]; l.Speaker != want {
			return fmt.Errorf("%w: turn %d spoken by %s, planned for %s", ErrGeneratorContract, l.TurnNumber, l.Speaker, want)
		}
	}
	return nil
}

// NextHumanTurn returns the first turn numbered above after whose speaker is human.
func NextHumanTurn(c Conversation, after int) (int, bool) {
	next := 0
	for _, t := range c.Turns {
		if t.TurnNumber <= after || !c.IsHumanRole(t.Speaker) {
			continue
		}
		if next == 0 || t.TurnNumber < next {
			next = t.TurnNumber
		}
	}
	return next, next != 0
}

func resolveNext(c Conversation, after int) (int, Status) {
	if next, ok := NextHumanTurn(c, after); ok {
		return next, StatusActive
	}
	return len(c.Turns) + 1, StatusCompleted
}

// SubmitTurn validates sub against snapshot and returns the conversation with
// the graded response attached and the next human turn made current. The
// snapshot itself is left untouched; on error nothing is returned.
func SubmitTurn(snapshot Conversation, sub Submission, scorer scoring.Scorer, now time.Time) (Conversation, error) {
	if snapshot.Status.IsTerminal() {
		return Conversation{}, ErrAlreadyCompleted
	}
	if sub.TurnNumber != snapshot.CurrentTurn {
		return Conversation{}, fmt.Errorf("%w: it is turn %d, not turn %d", ErrTurnMismatch, snapshot.CurrentTurn, sub.TurnNumber)
	}
	idx := snapshot.turnIndex(sub.TurnNumber)
	if idx < 0 {
		return Conversation{}, ErrUnknownTurn
	}
	turn := snapshot.Turns[idx]
	speaker, ok := snapshot.Participant(turn.Speaker)
	if !ok || speaker.IsAI || speaker.UserID != sub.UserID {
		return Conversation{}, ErrNotYourTurn
	}
	if strings.TrimSpace(sub.Text) == "" {
		return Conversation{}, ErrEmptyResponseText
	}

	mode := sub.InputMode
	if mode == "" {
		mode = InputModeRoman
	}
	result := scorer.Score(sub.Text, turn.Line.Reference(mode), scoring.Options{FoldMarks: mode == InputModeRoman})

	next := snapshot.clone()
	next.Turns[idx].Response = &Response{
		UserID:      sub.UserID,
		DisplayName: speaker.DisplayName,
		Text:        sub.Text,
		InputMode:   mode,
		Score:       result.Score,
		Label:       result.Label,
		Breakdown:   result.Breakdown,
		SubmittedAt: now,
	}
	current, target := resolveNext(next, sub.TurnNumber)
	status, err := snapshot.Status.TransitionTo(target)
	if err != nil {
		return Conversation{}, err
	}
	next.CurrentTurn, next.Status = current, status
	next.UpdatedAt = now
	return next, nil
}
