// Package responses maps domain models onto the JSON returned by the v1 API.
package responses

import (
	"time"

	"babel-bridge/internal/domain/catalog"
	"babel-bridge/internal/domain/conversation"
	"babel-bridge/internal/domain/room"
)

type MemberResponse struct {
	UserID      string    `json:"user_id"`
	Username    string    `json:"username"`
	DisplayName string    `json:"display_name"`
	JoinedAt    time.Time `json:"joined_at"`
}

type RoomResponse struct {
	ID                 string           `json:"id"`
	Language           string           `json:"language"`
	Level              string           `json:"level"`
	MaxPlayers         int              `json:"max_players"`
	JoinCode           string           `json:"join_code"`
	Status             string           `json:"status"`
	CreatedBy          string           `json:"created_by"`
	CreatedAt          time.Time        `json:"created_at"`
	Members            []MemberResponse `json:"members"`
	LastConversationID *string          `json:"last_conversation_id"`
	LastScenario       *string          `json:"last_scenario"`
}

func NewRoomResponse(r room.Room) RoomResponse {
	members := make([]MemberResponse, len(r.Members))
	for i, m := range r.Members {
		members[i] = MemberResponse{
			UserID:      m.UserID,
			Username:    m.Username,
			DisplayName: m.DisplayName,
			JoinedAt:    m.JoinedAt,
		}
	}
	return RoomResponse{
		ID:                 r.ID,
		Language:           r.Language,
		Level:              r.Level,
		MaxPlayers:         r.MaxPlayers,
		JoinCode:           r.JoinCode,
		Status:             string(r.Status),
		CreatedBy:          r.CreatedBy,
		CreatedAt:          r.CreatedAt,
		Members:            members,
		LastConversationID: optional(r.LastConversationID),
		LastScenario:       optional(r.LastScenario),
	}
}

func NewRoomListResponse(rooms []room.Room) []RoomResponse {
	out := make([]RoomResponse, len(rooms))
	for i, r := range rooms {
		out[i] = NewRoomResponse(r)
	}
	return out
}

type ParticipantResponse struct {
	Role        string  `json:"role"`
	IsAI        bool    `json:"is_ai"`
	UserID      *string `json:"user_id"`
	Username    *string `json:"username"`
	DisplayName *string `json:"display_name"`
}

type TurnResponseBody struct {
	UserID         string    `json:"user_id"`
	DisplayName    string    `json:"display_name"`
	Text           string    `json:"text"`
	InputMode      string    `json:"input_mode"`
	Score          int       `json:"score"`
	ScoreLabel     string    `json:"score_label"`
	ScoreBreakdown string    `json:"score_breakdown"`
	SubmittedAt    time.Time `json:"submitted_at"`
}

type MessageResponse struct {
	TurnNumber  int               `json:"turn_number"`
	Speaker     string            `json:"speaker"`
	RomanText   string            `json:"roman_text"`
	NativeText  string            `json:"native_text"`
	EnglishText string            `json:"english_text"`
	Hint        string            `json:"hint"`
	Response    *TurnResponseBody `json:"response"`
}

type ConversationResponse struct {
	ID           string                `json:"id"`
	RoomID       string                `json:"room_id"`
	Prompt       string                `json:"prompt"`
	Status       string                `json:"status"`
	CurrentTurn  int                   `json:"current_turn"`
	CreatedAt    time.Time             `json:"created_at"`
	Participants []ParticipantResponse `json:"participants"`
	Messages     []MessageResponse     `json:"messages"`
}

func NewConversationResponse(c conversation.Conversation) ConversationResponse {
	participants := make([]ParticipantResponse, len(c.Participants))
	for i, p := range c.Participants {
		participants[i] = ParticipantResponse{Role: string(p.Role), IsAI: p.IsAI}
		if !p.IsAI {
			participants[i].UserID = optional(p.UserID)
			participants[i].Username = optional(p.Username)
			participants[i].DisplayName = optional(p.DisplayName)
		}
	}

	messages := make([]MessageResponse, len(c.Turns))
	for i, t := range c.Turns {
		messages[i] = MessageResponse{
			TurnNumber:  t.TurnNumber,
			Speaker:     string(t.Speaker),
			RomanText:   t.Line.RomanText,
			NativeText:  t.Line.NativeText,
			EnglishText: t.Line.EnglishText,
			Hint:        t.Line.Hint,
		}
		if r := t.Response; r != nil {
			messages[i].Response = &TurnResponseBody{
				UserID:         r.UserID,
				DisplayName:    r.DisplayName,
				Text:           r.Text,
				InputMode:      string(r.InputMode),
				Score:          r.Score,
				ScoreLabel:     r.Label,
				ScoreBreakdown: r.Breakdown,
				SubmittedAt:    r.SubmittedAt,
			}
		}
	}

	return ConversationResponse{
		ID:           c.ID,
		RoomID:       c.RoomID,
		Prompt:       c.Scenario,
		Status:       string(c.Status),
		CurrentTurn:  c.CurrentTurn,
		CreatedAt:    c.CreatedAt,
		Participants: participants,
		Messages:     messages,
	}
}

func NewConversationListResponse(convs []conversation.Conversation) []ConversationResponse {
	out := make([]ConversationResponse, len(convs))
	for i, c := range convs {
		out[i] = NewConversationResponse(c)
	}
	return out
}

type TokenResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type" example:"bearer"`
	Username    string `json:"username"`
}

type LanguageResponse struct {
	Code         string `json:"code"`
	DisplayName  string `json:"display_name"`
	NativeSymbol string `json:"native_symbol"`
	RomanSymbol  string `json:"roman_symbol"`
	SpeechCode   string `json:"speech_code"`
}

type LevelResponse struct {
	Code        string            `json:"code"`
	Description string            `json:"description"`
	Scenarios   map[string]string `json:"scenarios"`
}

type MetaResponse struct {
	Languages []LanguageResponse `json:"languages"`
	Levels    []LevelResponse    `json:"levels"`
}

// NewMetaResponse lists the catalog. Each level carries its default scenario
// per language code.
func NewMetaResponse(cat *catalog.Catalog) MetaResponse {
	resp := MetaResponse{
		Languages: make([]LanguageResponse, len(cat.Languages)),
		Levels:    make([]LevelResponse, len(cat.Levels)),
	}
	for i, l := range cat.Languages {
		resp.Languages[i] = LanguageResponse{
			Code:         l.Code,
			DisplayName:  l.DisplayName,
			NativeSymbol: l.NativeSymbol,
			RomanSymbol:  l.RomanSymbol,
			SpeechCode:   l.SpeechCode,
		}
	}
	for i, lvl := range cat.Levels {
		scenarios := make(map[string]string, len(cat.Languages))
		for _, l := range cat.Languages {
			scenarios[l.Code] = l.Scenarios[lvl.Code]
		}
		resp.Levels[i] = LevelResponse{Code: lvl.Code, Description: lvl.Description, Scenarios: scenarios}
	}
	return resp
}

func optional(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
