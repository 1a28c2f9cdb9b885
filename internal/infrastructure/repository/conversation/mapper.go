package conversation

import (
	domain "babel-bridge/internal/domain/conversation"
	"babel-bridge/internal/infrastructure/database/entities"
)

func toEntity(conv domain.Conversation) entities.Conversation {
	participants := make([]entities.ConversationParticipant, len(conv.Participants))
	for i, p := range conv.Participants {
		participants[i] = entities.ConversationParticipant{
			ConversationID: conv.ID,
			Role:           string(p.Role),
			IsAI:           p.IsAI,
			UserID:         p.UserID,
			Username:       p.Username,
			DisplayName:    p.DisplayName,
		}
	}

	turns := make([]entities.ConversationTurn, len(conv.Turns))
	for i, t := range conv.Turns {
		rec := entities.ConversationTurn{
			ConversationID: conv.ID,
			TurnNumber:     t.TurnNumber,
			Speaker:        string(t.Speaker),
			RomanText:      t.Line.RomanText,
			NativeText:     t.Line.NativeText,
			EnglishText:    t.Line.EnglishText,
			Hint:           t.Line.Hint,
		}
		if r := t.Response; r != nil {
			mode := string(r.InputMode)
			score := r.Score
			submitted := r.SubmittedAt
			rec.ResponseUserID = &r.UserID
			rec.ResponseDisplayName = &r.DisplayName
			rec.ResponseText = &r.Text
			rec.ResponseInputMode = &mode
			rec.ResponseScore = &score
			rec.ResponseLabel = &r.Label
			rec.ResponseBreakdown = &r.Breakdown
			rec.RespondedAt = &submitted
		}
		turns[i] = rec
	}

	return entities.Conversation{
		ID:           conv.ID,
		RoomID:       conv.RoomID,
		Scenario:     conv.Scenario,
		Status:       string(conv.Status),
		CurrentTurn:  conv.CurrentTurn,
		Participants: participants,
		Turns:        turns,
		CreatedAt:    conv.CreatedAt,
		UpdatedAt:    conv.UpdatedAt,
	}
}

func toDomain(record entities.Conversation) domain.Conversation {
	participants := make([]domain.Participant, len(record.Participants))
	for i, p := range record.Participants {
		participants[i] = domain.Participant{
			Role:        domain.Role(p.Role),
			IsAI:        p.IsAI,
			UserID:      p.UserID,
			Username:    p.Username,
			DisplayName: p.DisplayName,
		}
	}

	turns := make([]domain.Turn, len(record.Turns))
	for i, t := range record.Turns {
		turn := domain.Turn{
			TurnNumber: t.TurnNumber,
			Speaker:    domain.Role(t.Speaker),
			Line: domain.Line{
				RomanText:   t.RomanText,
				NativeText:  t.NativeText,
				EnglishText: t.EnglishText,
				Hint:        t.Hint,
			},
		}
		if t.ResponseText != nil {
			turn.Response = &domain.Response{
				UserID:      deref(t.ResponseUserID),
				DisplayName: deref(t.ResponseDisplayName),
				Text:        *t.ResponseText,
				InputMode:   domain.InputMode(deref(t.ResponseInputMode)),
				Label:       deref(t.ResponseLabel),
				Breakdown:   deref(t.ResponseBreakdown),
			}
			if t.ResponseScore != nil {
				turn.Response.Score = *t.ResponseScore
			}
			if t.RespondedAt != nil {
				turn.Response.SubmittedAt = *t.RespondedAt
			}
		}
		turns[i] = turn
	}

	return domain.Conversation{
		ID:           record.ID,
		RoomID:       record.RoomID,
		Scenario:     record.Scenario,
		Status:       domain.Status(record.Status),
		CurrentTurn:  record.CurrentTurn,
		Participants: participants,
		Turns:        turns,
		CreatedAt:    record.CreatedAt,
		UpdatedAt:    record.UpdatedAt,
	}
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
