package handlers

import (
	"context"

	"babel-bridge/internal/domain/room"
	"babel-bridge/internal/infrastructure/auth"
	"babel-bridge/internal/interfaces/httpserver/requests"
	"babel-bridge/internal/interfaces/httpserver/responses"
)

// RoomHandler invokes the room use cases on behalf of the caller.
type RoomHandler struct {
	rooms room.Service
}

func NewRoomHandler(rooms room.Service) *RoomHandler {
	return &RoomHandler{rooms: rooms}
}

func (h *RoomHandler) CreateRoom(ctx context.Context, caller auth.Principal, req requests.CreateRoomRequest) (responses.RoomResponse, error) {
	r, err := h.rooms.Create(ctx, room.CreateInput{
		UserID:      caller.UserID,
		Username:    caller.Username,
		DisplayName: req.DisplayName,
		Language:    req.Language,
		Level:       req.Level,
		MaxPlayers:  req.MaxPlayers,
	})
	if err != nil {
		return responses.RoomResponse{}, err
	}
	return responses.NewRoomResponse(r), nil
}

func (h *RoomHandler) JoinRoom(ctx context.Context, caller auth.Principal, req requests.JoinRoomRequest) (responses.RoomResponse, error) {
	r, err := h.rooms.Join(ctx, room.JoinInput{
		UserID:      caller.UserID,
		Username:    caller.Username,
		DisplayName: req.DisplayName,
		JoinCode:    req.JoinCode,
	})
	if err != nil {
		return responses.RoomResponse{}, err
	}
	return responses.NewRoomResponse(r), nil
}

func (h *RoomHandler) ListRooms(ctx context.Context, caller auth.Principal) ([]responses.RoomResponse, error) {
	rooms, err := h.rooms.ListForUser(ctx, caller.UserID)
	if err != nil {
		return nil, err
	}
	return responses.NewRoomListResponse(rooms), nil
}

func (h *RoomHandler) GetRoom(ctx context.Context, caller auth.Principal, roomID string) (responses.RoomResponse, error) {
	r, err := h.rooms.Get(ctx, roomID, caller.UserID)
	if err != nil {
		return responses.RoomResponse{}, err
	}
	return responses.NewRoomResponse(r), nil
}
