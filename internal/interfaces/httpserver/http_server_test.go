package httpserver

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"babel-bridge/internal/config"
	"babel-bridge/internal/domain/catalog"
	"babel-bridge/internal/domain/conversation"
	"babel-bridge/internal/domain/room"
	"babel-bridge/internal/domain/user"
	"babel-bridge/internal/infrastructure/auth"
	"babel-bridge/internal/infrastructure/cache"
	convrepo "babel-bridge/internal/infrastructure/repository/conversation"
	roomrepo "babel-bridge/internal/infrastructure/repository/room"
	userrepo "babel-bridge/internal/infrastructure/repository/user"
	"babel-bridge/internal/interfaces/httpserver/responses"
)

type echoGenerator struct{}

func (echoGenerator) Generate(ctx context.Context, req conversation.GenerateRequest) ([]conversation.GeneratedLine, error) {
	lines := make([]conversation.GeneratedLine, len(req.Plan))
	for i, role := range req.Plan {
		lines[i] = conversation.GeneratedLine{
			TurnNumber: i + 1,
			Speaker:    role,
			Line: conversation.Line{
				RomanText:  fmt.Sprintf("privet %d", i+1),
				NativeText: fmt.Sprintf("привет %d", i+1),
			},
		}
	}
	return lines, nil
}

type testServer struct {
	t       *testing.T
	handler http.Handler
}

func newTestServer(t *testing.T, checks map[string]ReadinessCheck) *testServer {
	t.Helper()
	gin.SetMode(gin.TestMode)

	cfg := &config.Config{
		ServiceName:     "babel-bridge",
		Environment:     "development",
		JWTSecret:       "test-secret",
		JWTExpire:       time.Hour,
		ShutdownTimeout: time.Second,
	}
	log := zerolog.Nop()
	cat, err := catalog.Default()
	require.NoError(t, err)

	validator, err := auth.NewValidator(context.Background(), cfg, log)
	require.NoError(t, err)

	locker := cache.NewLocalLocker()
	rooms := room.NewService(roomrepo.NewInMemoryRepository(), locker, cat, log)
	services := Services{
		Users: user.NewService(userrepo.NewInMemoryRepository(), validator, bcrypt.MinCost, log),
		Rooms: rooms,
		Conversations: conversation.NewService(convrepo.NewInMemoryRepository(), rooms, locker, echoGenerator{}, cat, nil,
			conversation.Config{TurnsPerConversation: 4, SubmitMaxAttempts: 3}, log),
		Catalog: cat,
	}
	return &testServer{t: t, handler: New(cfg, log, services, validator, checks).Handler()}
}

func (s *testServer) do(method, path, token string, body any, out any) int {
	s.t.Helper()
	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(s.t, err)
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	s.handler.ServeHTTP(w, req)
	if out != nil {
		require.NoError(s.t, json.Unmarshal(w.Body.Bytes(), out), w.Body.String())
	}
	return w.Code
}

func (s *testServer) register(username string) string {
	s.t.Helper()
	var token responses.TokenResponse
	code := s.do(http.MethodPost, "/v1/auth/register", "", map[string]string{"username": username, "password": "secret1"}, &token)
	require.Equal(s.t, http.StatusCreated, code)
	return token.AccessToken
}

type errorBody struct {
	Error struct {
		Message   string `json:"message"`
		Type      string `json:"type"`
		Code      string `json:"code"`
		RequestID string `json:"request_id"`
	} `json:"error"`
}

func TestCoreRoutes(t *testing.T) {
	s := newTestServer(t, map[string]ReadinessCheck{
		"database": func(context.Context) error { return nil },
	})

	for _, path := range []string{"/", "/healthz", "/readyz", "/metrics"} {
		assert.Equal(t, http.StatusOK, s.do(http.MethodGet, path, "", nil, nil), path)
	}

	failing := newTestServer(t, map[string]ReadinessCheck{
		"locks": func(context.Context) error { return errors.New("redis down") },
	})
	var body map[string]any
	assert.Equal(t, http.StatusServiceUnavailable, failing.do(http.MethodGet, "/readyz", "", nil, &body))
	assert.Equal(t, "not ready", body["status"])
}

func TestAuthFlow(t *testing.T) {
	s := newTestServer(t, nil)
	s.register("Anna")

	var token responses.TokenResponse
	assert.Equal(t, http.StatusOK, s.do(http.MethodPost, "/v1/auth/login", "", map[string]string{"username": "anna", "password": "secret1"}, &token))
	assert.Equal(t, "bearer", token.TokenType)
	assert.Equal(t, "anna", token.Username)

	var e errorBody
	assert.Equal(t, http.StatusUnauthorized, s.do(http.MethodPost, "/v1/auth/login", "", map[string]string{"username": "anna", "password": "nope"}, &e))
	assert.Equal(t, "unauthorized_error", e.Error.Type)

	assert.Equal(t, http.StatusConflict, s.do(http.MethodPost, "/v1/auth/register", "", map[string]string{"username": "ANNA", "password": "secret1"}, nil))
	assert.Equal(t, http.StatusBadRequest, s.do(http.MethodPost, "/v1/auth/register", "", map[string]string{"username": "anna"}, nil))
	assert.Equal(t, http.StatusUnauthorized, s.do(http.MethodGet, "/v1/rooms", "", nil, nil))
}

func TestMeta(t *testing.T) {
	s := newTestServer(t, nil)
	var meta responses.MetaResponse
	require.Equal(t, http.StatusOK, s.do(http.MethodGet, "/v1/meta", "", nil, &meta))
	assert.Len(t, meta.Languages, 3)
	require.Len(t, meta.Levels, 6)
	assert.Equal(t, "A1", meta.Levels[0].Code)
	assert.NotEmpty(t, meta.Levels[0].Scenarios["Russian"])
}

func TestConversationFlow(t *testing.T) {
	s := newTestServer(t, nil)
	anna := s.register("anna")
	olga := s.register("olga")
	stranger := s.register("ivan")

	var r responses.RoomResponse
	require.Equal(t, http.StatusCreated, s.do(http.MethodPost, "/v1/rooms", anna, map[string]any{
		"language": "Russian", "level": "A1", "max_players": 2, "display_name": "Anna",
	}, &r))
	assert.Equal(t, "waiting", r.Status)

	require.Equal(t, http.StatusOK, s.do(http.MethodPost, "/v1/rooms/join", olga, map[string]any{
		"join_code": strings.ToLower(r.JoinCode), "display_name": "Olga",
	}, &r))
	require.Len(t, r.Members, 2)

	roomPath := "/v1/rooms/" + r.ID
	assert.Equal(t, http.StatusForbidden, s.do(http.MethodGet, roomPath, stranger, nil, nil))
	assert.Equal(t, http.StatusForbidden, s.do(http.MethodPost, roomPath+"/conversations", olga, nil, nil))

	var conv responses.ConversationResponse
	require.Equal(t, http.StatusCreated, s.do(http.MethodPost, roomPath+"/conversations", anna, nil, &conv))
	assert.Equal(t, 1, conv.CurrentTurn)
	assert.Len(t, conv.Messages, 4)
	assert.Equal(t, "Two strangers introduce themselves at a bus stop.", conv.Prompt)

	turnPath := func(n string) string { return roomPath + "/conversations/" + conv.ID + "/turns/" + n }

	var e errorBody
	assert.Equal(t, http.StatusConflict, s.do(http.MethodPost, turnPath("2"), olga, map[string]string{"text": "privet 2"}, &e))
	assert.Equal(t, "It is turn 1, not turn 2", e.Error.Message)
	assert.Equal(t, http.StatusForbidden, s.do(http.MethodPost, turnPath("1"), olga, map[string]string{"text": "privet 1"}, nil))
	assert.Equal(t, http.StatusBadRequest, s.do(http.MethodPost, turnPath("one"), anna, map[string]string{"text": "privet 1"}, nil))
	assert.Equal(t, http.StatusBadRequest, s.do(http.MethodPost, turnPath("1"), anna, map[string]string{"text": "privet 1", "input_mode": "morse"}, nil))

	require.Equal(t, http.StatusOK, s.do(http.MethodPost, turnPath("1"), anna, map[string]string{"text": "privet 1"}, &conv))
	require.NotNil(t, conv.Messages[0].Response)
	assert.Equal(t, 100, conv.Messages[0].Response.Score)
	assert.Equal(t, "Perfect!", conv.Messages[0].Response.ScoreLabel)
	assert.Equal(t, 2, conv.CurrentTurn)

	require.Equal(t, http.StatusOK, s.do(http.MethodPost, turnPath("2"), olga, map[string]string{"text": "привет 2", "input_mode": "native"}, &conv))
	assert.Equal(t, 100, conv.Messages[1].Response.Score)
	assert.Equal(t, "native", conv.Messages[1].Response.InputMode)

	require.Equal(t, http.StatusOK, s.do(http.MethodPost, turnPath("3"), anna, map[string]string{"text": "privet 3"}, &conv))
	require.Equal(t, http.StatusOK, s.do(http.MethodPost, turnPath("4"), olga, map[string]string{"text": "privet 4"}, &conv))
	assert.Equal(t, "completed", conv.Status)
	assert.Equal(t, 5, conv.CurrentTurn)

	assert.Equal(t, http.StatusConflict, s.do(http.MethodPost, turnPath("5"), anna, map[string]string{"text": "more"}, nil))

	require.Equal(t, http.StatusOK, s.do(http.MethodGet, roomPath, anna, nil, &r))
	assert.Equal(t, "completed", r.Status)
	require.NotNil(t, r.LastConversationID)
	assert.Equal(t, conv.ID, *r.LastConversationID)

	var list []responses.ConversationResponse
	require.Equal(t, http.StatusOK, s.do(http.MethodGet, roomPath+"/conversations", olga, nil, &list))
	assert.Len(t, list, 1)

	var rooms []responses.RoomResponse
	require.Equal(t, http.StatusOK, s.do(http.MethodGet, "/v1/rooms", olga, nil, &rooms))
	assert.Len(t, rooms, 1)
}
