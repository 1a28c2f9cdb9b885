package handlers

import (
	"babel-bridge/internal/domain/catalog"
	"babel-bridge/internal/domain/conversation"
	"babel-bridge/internal/domain/room"
	"babel-bridge/internal/domain/user"
)

// Provider wires all HTTP handlers for dependency injection.
type Provider struct {
	Auth         *AuthHandler
	Meta         *MetaHandler
	Room         *RoomHandler
	Conversation *ConversationHandler
}

// NewProvider constructs the handler provider with domain services.
func NewProvider(users user.Service, rooms room.Service, conversations conversation.Service, cat *catalog.Catalog) *Provider {
	return &Provider{
		Auth:         NewAuthHandler(users),
		Meta:         NewMetaHandler(cat),
		Room:         NewRoomHandler(rooms),
		Conversation: NewConversationHandler(conversations),
	}
}
