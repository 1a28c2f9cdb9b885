package entities

import "time"

// Conversation is the persisted aggregate root. Version increases on every
// committed turn.
type Conversation struct {
	ID           string                    `gorm:"size:36;primaryKey"`
	RoomID       string                    `gorm:"size:36;not null;index"`
	Scenario     string                    `gorm:"type:text;not null"`
	Status       string                    `gorm:"size:16;not null"`
	CurrentTurn  int                       `gorm:"not null"`
	Version      int                       `gorm:"not null;default:0"`
	Participants []ConversationParticipant `gorm:"foreignKey:ConversationID;constraint:OnDelete:CASCADE"`
	Turns        []ConversationTurn        `gorm:"foreignKey:ConversationID;constraint:OnDelete:CASCADE"`
	CreatedAt    time.Time                 `gorm:"index"`
	UpdatedAt    time.Time
}

func (Conversation) TableName() string {
	return "conversations"
}

// ConversationParticipant binds a role to a user or to an AI placeholder.
type ConversationParticipant struct {
	ID             uint   `gorm:"primaryKey;autoIncrement"`
	ConversationID string `gorm:"size:36;not null;uniqueIndex:idx_conversation_role"`
	Role           string `gorm:"size:1;not null;uniqueIndex:idx_conversation_role"`
	IsAI           bool   `gorm:"not null"`
	UserID         string `gorm:"size:36"`
	Username       string `gorm:"size:32"`
	DisplayName    string `gorm:"size:32"`
}

func (ConversationParticipant) TableName() string {
	return "conversation_participants"
}

// ConversationTurn holds a generated line and, once answered, the graded response.
type ConversationTurn struct {
	ID                  uint    `gorm:"primaryKey;autoIncrement"`
	ConversationID      string  `gorm:"size:36;not null;uniqueIndex:idx_conversation_turn"`
	TurnNumber          int     `gorm:"not null;uniqueIndex:idx_conversation_turn"`
	Speaker             string  `gorm:"size:1;not null"`
	RomanText           string  `gorm:"type:text;not null"`
	NativeText          string  `gorm:"type:text;not null"`
	EnglishText         string  `gorm:"type:text;not null"`
	Hint                string  `gorm:"type:text"`
	ResponseUserID      *string `gorm:"size:36"`
	ResponseDisplayName *string `gorm:"size:32"`
	ResponseText        *string `gorm:"type:text"`
	ResponseInputMode   *string `gorm:"size:8"`
	ResponseScore       *int
	ResponseLabel       *string `gorm:"size:32"`
	ResponseBreakdown   *string `gorm:"type:text"`
	RespondedAt         *time.Time
}

func (ConversationTurn) TableName() string {
	return "conversation_turns"
}
