package dialogue

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"babel-bridge/internal/config"
	"babel-bridge/internal/domain/catalog"
	"babel-bridge/internal/domain/conversation"
)

const twoTurns = `[
  {"turn_number": 1, "speaker": "A", "roman_text": "Privet", "native_text": "Привет", "english_text": "Hi", "hint": "Informal greeting"},
  {"turn_number": 2, "speaker": "b", "roman_text": "Zdravstvuyte", "native_text": "Здравствуйте", "english_text": "Hello", "hint": "Formal greeting"}
]`

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	cat, err := catalog.Default()
	require.NoError(t, err)

	cfg := &config.Config{
		LLMAPIURL:  server.URL,
		LLMAPIKey:  "secret-key",
		LLMModel:   "test-model",
		LLMTimeout: 5 * time.Second,
	}
	return NewClient(cfg, cat, zerolog.Nop())
}

func request() conversation.GenerateRequest {
	return conversation.GenerateRequest{
		Language: "Russian",
		Level:    "A1",
		Scenario: "Two strangers meet",
		Participants: []conversation.Participant{
			{Role: conversation.RoleA, UserID: "u1", DisplayName: "Anna"},
			{Role: conversation.RoleB, IsAI: true},
		},
		Plan: []conversation.Role{conversation.RoleA, conversation.RoleB},
	}
}

func completion(content string) map[string]any {
	return map[string]any{
		"choices": []map[string]any{
			{"message": map[string]string{"role": "assistant", "content": content}},
		},
	}
}

func TestGenerate(t *testing.T) {
	var got chatCompletionRequest
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/chat/completions", r.URL.Path)
		assert.Equal(t, "Bearer secret-key", r.Header.Get("Authorization"))
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(completion("```json\n" + twoTurns + "\n```"))
	})

	lines, err := client.Generate(context.Background(), request())
	require.NoError(t, err)
	require.Len(t, lines, 2)

	assert.Equal(t, 1, lines[0].TurnNumber)
	assert.Equal(t, conversation.RoleA, lines[0].Speaker)
	assert.Equal(t, "Привет", lines[0].NativeText)
	assert.Equal(t, conversation.RoleB, lines[1].Speaker)
	assert.Equal(t, "Formal greeting", lines[1].Hint)

	assert.Equal(t, "test-model", got.Model)
	require.Len(t, got.Messages, 2)
	prompt := got.Messages[1].Content
	assert.Contains(t, prompt, "Role A: Anna")
	assert.Contains(t, prompt, "Role B: AI character")
	assert.Contains(t, prompt, "Turn 1→A, Turn 2→B")
	assert.Contains(t, prompt, "Exactly 2 turns")
	assert.Contains(t, prompt, "Cyrillic")
	assert.Contains(t, prompt, `"Two strangers meet"`)
}

func TestGenerateErrors(t *testing.T) {
	tests := []struct {
		name     string
		handler  http.HandlerFunc
		contract bool
	}{
		{
			name: "upstream error",
			handler: func(w http.ResponseWriter, r *http.Request) {
				http.Error(w, "quota exceeded", http.StatusTooManyRequests)
			},
		},
		{
			name: "no choices",
			handler: func(w http.ResponseWriter, r *http.Request) {
				w.Header().Set("Content-Type", "application/json")
				fmt.Fprint(w, `{"choices":[]}`)
			},
		},
		{
			name: "prose instead of json",
			handler: func(w http.ResponseWriter, r *http.Request) {
				w.Header().Set("Content-Type", "application/json")
				_ = json.NewEncoder(w).Encode(completion("Sure! Here is your conversation."))
			},
			contract: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client := newTestClient(t, tt.handler)
			_, err := client.Generate(context.Background(), request())
			require.Error(t, err)
			assert.Equal(t, tt.contract, errors.Is(err, conversation.ErrGeneratorContract))
		})
	}
}

func TestGenerateUnknownLanguage(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		t.Error("no request expected")
	})
	req := request()
	req.Language = "Klingon"
	_, err := client.Generate(context.Background(), req)
	assert.Error(t, err)
}

func TestParseLines(t *testing.T) {
	tests := []struct {
		name    string
		content string
		want    int
	}{
		{"bare", twoTurns, 2},
		{"json fence", "```json\n" + twoTurns + "\n```", 2},
		{"plain fence", "```\n" + twoTurns + "\n```", 2},
		{"padded", "\n\n  " + twoTurns + "  \n", 2},
		{"empty array", "[]", 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			lines, err := parseLines(tt.content)
			if err != nil {
				t.Fatalf("parseLines() error = %v", err)
			}
			if len(lines) != tt.want {
				t.Errorf("parseLines() = %d lines, want %d", len(lines), tt.want)
			}
		})
	}
}

func TestBuildPromptUsesUsernameWithoutDisplayName(t *testing.T) {
	cat, err := catalog.Default()
	require.NoError(t, err)
	lang, _ := cat.Language("Swedish")
	level, _ := cat.Level("B2")

	req := request()
	req.Participants[0].DisplayName = ""
	req.Participants[0].Username = "anna_s"
	prompt := buildPrompt(lang, level, req)

	assert.Contains(t, prompt, "Role A: anna_s")
	assert.Contains(t, prompt, "Level: B2 ("+level.Description+")")
	assert.True(t, strings.HasPrefix(prompt, "Generate a realistic"))
}
