// Package requests holds the JSON bodies accepted by the v1 API.
package requests

type RegisterRequest struct {
	Username string `json:"username" binding:"required" example:"anna"`
	Password string `json:"password" binding:"required" example:"secret1"`
}

type LoginRequest struct {
	Username string `json:"username" binding:"required" example:"anna"`
	Password string `json:"password" binding:"required" example:"secret1"`
}

type CreateRoomRequest struct {
	Language    string `json:"language" binding:"required" example:"Russian"`
	Level       string `json:"level" binding:"required" example:"A1"`
	MaxPlayers  int    `json:"max_players" example:"2"`
	DisplayName string `json:"display_name" binding:"required" example:"Anna"`
}

type JoinRoomRequest struct {
	JoinCode    string `json:"join_code" binding:"required" example:"K7Q2ZD"`
	DisplayName string `json:"display_name" binding:"required" example:"Olga"`
}

// StartConversationRequest may be omitted entirely; a blank prompt picks the
// default scenario for the room's language and level.
type StartConversationRequest struct {
	Prompt string `json:"prompt" example:"Ordering coffee in a busy cafe"`
}

type SubmitTurnRequest struct {
	Text      string `json:"text" binding:"required" example:"Privet, kak dela?"`
	InputMode string `json:"input_mode" enums:"roman,native" example:"roman"`
}
