package handlers

import (
	"context"

	"babel-bridge/internal/domain/user"
	"babel-bridge/internal/interfaces/httpserver/requests"
	"babel-bridge/internal/interfaces/httpserver/responses"
)

// AuthHandler registers players and logs them in.
type AuthHandler struct {
	users user.Service
}

func NewAuthHandler(users user.Service) *AuthHandler {
	return &AuthHandler{users: users}
}

func (h *AuthHandler) Register(ctx context.Context, req requests.RegisterRequest) (responses.TokenResponse, error) {
	token, err := h.users.Register(ctx, req.Username, req.Password)
	if err != nil {
		return responses.TokenResponse{}, err
	}
	return tokenResponse(token), nil
}

func (h *AuthHandler) Login(ctx context.Context, req requests.LoginRequest) (responses.TokenResponse, error) {
	token, err := h.users.Login(ctx, req.Username, req.Password)
	if err != nil {
		return responses.TokenResponse{}, err
	}
	return tokenResponse(token), nil
}

func tokenResponse(t user.Token) responses.TokenResponse {
	return responses.TokenResponse{AccessToken: t.AccessToken, TokenType: t.TokenType, Username: t.Username}
}
