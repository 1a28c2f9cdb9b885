// Package dialogue generates reference conversations through an
// OpenAI-compatible chat completions API.
package dialogue

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/rs/zerolog"

	"babel-bridge/internal/config"
	"babel-bridge/internal/domain/catalog"
	"babel-bridge/internal/domain/conversation"
	"babel-bridge/internal/infrastructure/metrics"
)

var fencePattern = regexp.MustCompile("(?m)^```json\\s*|^```\\s*|```\\s*$")

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatCompletionRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	Temperature float64       `json:"temperature"`
	Stream      bool          `json:"stream"`
}

type chatCompletionResponse struct {
	Choices []struct {
		Message chatMessage `json:"message"`
	} `json:"choices"`
}

type generatedTurn struct {
	TurnNumber  int    `json:"turn_number"`
	Speaker     string `json:"speaker"`
	RomanText   string `json:"roman_text"`
	NativeText  string `json:"native_text"`
	EnglishText string `json:"english_text"`
	Hint        string `json:"hint"`
}

// Client implements conversation.Generator.
type Client struct {
	http    *resty.Client
	model   string
	catalog *catalog.Catalog
	log     zerolog.Logger
}

// NewClient creates a resty-backed generator for the configured LLM endpoint.
func NewClient(cfg *config.Config, cat *catalog.Catalog, log zerolog.Logger) *Client {
	httpClient := resty.New().
		SetBaseURL(strings.TrimRight(cfg.LLMAPIURL, "/")).
		SetHeader("Content-Type", "application/json").
		SetTimeout(cfg.LLMTimeout)
	if cfg.LLMAPIKey != "" {
		httpClient.SetAuthToken(cfg.LLMAPIKey)
	}

	return &Client{
		http:    httpClient,
		model:   cfg.LLMModel,
		catalog: cat,
		log:     log.With().Str("component", "dialogue-generator").Logger(),
	}
}

// Generate asks the model for one line per planned turn.
func (c *Client) Generate(ctx context.Context, req conversation.GenerateRequest) ([]conversation.GeneratedLine, error) {
	lang, ok := c.catalog.Language(req.Language)
	if !ok {
		return nil, fmt.Errorf("unsupported language %q", req.Language)
	}
	level, ok := c.catalog.Level(req.Level)
	if !ok {
		return nil, fmt.Errorf("unsupported level %q", req.Level)
	}

	start := time.Now()
	lines, err := c.complete(ctx, buildPrompt(lang, level, req))
	status := "ok"
	if err != nil {
		status = "error"
	}
	metrics.RecordGeneration(status, time.Since(start).Seconds())

	if err != nil {
		c.log.Error().Err(err).
			Str("language", lang.Code).
			Str("level", level.Code).
			Int("turns", len(req.Plan)).
			Msg("dialogue generation failed")
		return nil, err
	}

	c.log.Info().
		Str("language", lang.Code).
		Str("level", level.Code).
		Int("turns", len(lines)).
		Dur("latency", time.Since(start)).
		Msg("dialogue generated")
	return lines, nil
}

func (c *Client) complete(ctx context.Context, prompt string) ([]conversation.GeneratedLine, error) {
	var completion chatCompletionResponse
	resp, err := c.http.R().
		SetContext(ctx).
		SetBody(chatCompletionRequest{
			Model: c.model,
			Messages: []chatMessage{
				{Role: "system", Content: systemPrompt},
				{Role: "user", Content: prompt},
			},
			Temperature: 0.8,
		}).
		SetResult(&completion).
		Post("/v1/chat/completions")
	if err != nil {
		return nil, fmt.Errorf("llm request: %w", err)
	}
	if resp.IsError() {
		return nil, fmt.Errorf("llm api error: %d %s", resp.StatusCode(), resp.String())
	}
	if len(completion.Choices) == 0 {
		return nil, errors.New("llm api returned no choices")
	}

	return parseLines(completion.Choices[0].Message.Content)
}

// parseLines decodes the JSON array the model returned, tolerating a
// surrounding markdown code fence.
func parseLines(content string) ([]conversation.GeneratedLine, error) {
	text := strings.TrimSpace(fencePattern.ReplaceAllString(strings.TrimSpace(content), ""))

	var turns []generatedTurn
	if err := json.Unmarshal([]byte(text), &turns); err != nil {
		return nil, fmt.Errorf("%w: decode lines: %v", conversation.ErrGeneratorContract, err)
	}

	lines := make([]conversation.GeneratedLine, len(turns))
	for i, t := range turns {
		lines[i] = conversation.GeneratedLine{
			TurnNumber: t.TurnNumber,
			Speaker:    conversation.Role(strings.ToUpper(strings.TrimSpace(t.Speaker))),
			Line: conversation.Line{
				RomanText:   t.RomanText,
				NativeText:  t.NativeText,
				EnglishText: t.EnglishText,
				Hint:        t.Hint,
			},
		}
	}
	return lines, nil
}

var _ conversation.Generator = (*Client)(nil)
