package handlers

import (
	"context"
	"strconv"

	"babel-bridge/internal/domain/conversation"
	"babel-bridge/internal/infrastructure/auth"
	"babel-bridge/internal/interfaces/httpserver/requests"
	"babel-bridge/internal/interfaces/httpserver/responses"
	"babel-bridge/internal/utils/platformerrors"
)

// ConversationHandler invokes the conversation use cases on behalf of the caller.
type ConversationHandler struct {
	conversations conversation.Service
}

func NewConversationHandler(conversations conversation.Service) *ConversationHandler {
	return &ConversationHandler{conversations: conversations}
}

func (h *ConversationHandler) StartConversation(ctx context.Context, caller auth.Principal, roomID string, req requests.StartConversationRequest) (responses.ConversationResponse, error) {
	conv, err := h.conversations.Start(ctx, conversation.StartInput{
		RoomID: roomID,
		UserID: caller.UserID,
		Prompt: req.Prompt,
	})
	if err != nil {
		return responses.ConversationResponse{}, err
	}
	return responses.NewConversationResponse(conv), nil
}

func (h *ConversationHandler) ListConversations(ctx context.Context, caller auth.Principal, roomID string) ([]responses.ConversationResponse, error) {
	convs, err := h.conversations.List(ctx, roomID, caller.UserID)
	if err != nil {
		return nil, err
	}
	return responses.NewConversationListResponse(convs), nil
}

func (h *ConversationHandler) GetConversation(ctx context.Context, caller auth.Principal, roomID, conversationID string) (responses.ConversationResponse, error) {
	conv, err := h.conversations.Get(ctx, roomID, conversationID, caller.UserID)
	if err != nil {
		return responses.ConversationResponse{}, err
	}
	return responses.NewConversationResponse(conv), nil
}

// SubmitTurn parses the path turn number and input mode before handing the
// submission to the domain.
func (h *ConversationHandler) SubmitTurn(ctx context.Context, caller auth.Principal, roomID, conversationID, rawTurn string, req requests.SubmitTurnRequest) (responses.ConversationResponse, error) {
	turn, err := strconv.Atoi(rawTurn)
	if err != nil {
		return responses.ConversationResponse{}, platformerrors.NewError(ctx, platformerrors.LayerHandler, platformerrors.ErrorTypeValidation, "turn_number must be an integer", err, "c1d9a0f2-5d7e-4f0b-9a57-3e51f0c2b8a4")
	}
	mode, ok := conversation.ParseInputMode(req.InputMode)
	if !ok {
		return responses.ConversationResponse{}, platformerrors.NewError(ctx, platformerrors.LayerHandler, platformerrors.ErrorTypeValidation, "input_mode must be roman or native", nil, "4b6e2c19-8f3a-4d61-b0e7-a92d5c7f1e38")
	}

	conv, err := h.conversations.Submit(ctx, roomID, conversationID, conversation.Submission{
		TurnNumber: turn,
		UserID:     caller.UserID,
		Text:       req.Text,
		InputMode:  mode,
	})
	if err != nil {
		return responses.ConversationResponse{}, err
	}
	return responses.NewConversationResponse(conv), nil
}
