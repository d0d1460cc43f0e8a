// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package engine adapts a chat-completion API into the
// relationship-extraction contract the coordinator consumes.
package engine

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"strings"
	"time"

	openai "github.com/sashabaranov/go-openai"
	"go.uber.org/zap"

	"github.com/pdiddy/notescan/pkg/types"
)

const (
	defaultModel      = "gpt-4o-mini"
	defaultMaxRetries = 3
)

// backoffBase controls the base duration for exponential backoff between
// retries. Tests override this to avoid real sleeps.
var backoffBase = time.Second

// chatClient abstracts the completion call so tests can supply a mock.
// *openai.Client satisfies it.
type chatClient interface {
	CreateChatCompletion(ctx context.Context, req openai.ChatCompletionRequest) (openai.ChatCompletionResponse, error)
}

// OpenAI calls an OpenAI-compatible chat API to extract relationships.
type OpenAI struct {
	client     chatClient
	model      string
	maxRetries int
	log        *zap.Logger
}

// NewOpenAI builds the adapter from config. BaseURL may point at any
// OpenAI-compatible endpoint.
func NewOpenAI(cfg types.EngineConfig, log *zap.Logger) *OpenAI {
	clientCfg := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		clientCfg.BaseURL = cfg.BaseURL
	}

	model := cfg.Model
	if model == "" {
		model = defaultModel
	}
	maxRetries := cfg.MaxRetries
	if maxRetries <= 0 {
		maxRetries = defaultMaxRetries
	}

	return &OpenAI{
		client:     openai.NewClientWithConfig(clientCfg),
		model:      model,
		maxRetries: maxRetries,
		log:        log,
	}
}

// relationResponse is the JSON shape the prompt requests.
type relationResponse struct {
	Relations []relationItem `json:"relations"`
}

type relationItem struct {
	Subject    string  `json:"subject"`
	Predicate  string  `json:"predicate"`
	Object     string  `json:"object"`
	Confidence float64 `json:"confidence"`
}

// ExtractRelations sends the passage and entity list to the model and
// parses the relations out of its JSON response. Transient failures are
// retried with exponential backoff between attempts: 1s then 2s at the
// default three attempts.
func (o *OpenAI) ExtractRelations(ctx context.Context, content string, entities []types.EntitySpan) ([]types.Relation, error) {
	prompt, err := buildPrompt(content, entities)
	if err != nil {
		return nil, fmt.Errorf("building prompt: %w", err)
	}

	req := openai.ChatCompletionRequest{
		Model: o.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleUser, Content: prompt},
		},
		ResponseFormat: &openai.ChatCompletionResponseFormat{
			Type: openai.ChatCompletionResponseFormatTypeJSONObject,
		},
	}

	resp, err := o.completeWithRetry(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("extraction call: %w", err)
	}
	if len(resp.Choices) == 0 {
		return nil, fmt.Errorf("extraction call: empty response")
	}

	return parseRelations(resp.Choices[0].Message.Content)
}

func (o *OpenAI) completeWithRetry(ctx context.Context, req openai.ChatCompletionRequest) (openai.ChatCompletionResponse, error) {
	var lastErr error
	for attempt := 0; attempt < o.maxRetries; attempt++ {
		if attempt > 0 {
			backoff := time.Duration(math.Pow(2, float64(attempt-1))) * backoffBase
			o.log.Debug("retrying extraction call",
				zap.Int("attempt", attempt+1),
				zap.Duration("backoff", backoff))
			select {
			case <-ctx.Done():
				return openai.ChatCompletionResponse{}, ctx.Err()
			case <-time.After(backoff):
			}
		}

		resp, err := o.client.CreateChatCompletion(ctx, req)
		if err == nil {
			return resp, nil
		}
		lastErr = err
	}
	return openai.ChatCompletionResponse{}, fmt.Errorf("after %d attempts: %w", o.maxRetries, lastErr)
}

// parseRelations decodes the model's JSON, tolerating a markdown code
// fence around it, and drops incomplete triples.
func parseRelations(raw string) ([]types.Relation, error) {
	raw = strings.TrimSpace(raw)
	raw = strings.TrimPrefix(raw, "```json")
	raw = strings.TrimPrefix(raw, "```")
	raw = strings.TrimSuffix(raw, "```")
	raw = strings.TrimSpace(raw)

	var resp relationResponse
	if err := json.Unmarshal([]byte(raw), &resp); err != nil {
		return nil, fmt.Errorf("parsing relations response: %w", err)
	}

	rels := make([]types.Relation, 0, len(resp.Relations))
	for _, r := range resp.Relations {
		if r.Subject == "" || r.Predicate == "" || r.Object == "" {
			continue
		}
		rels = append(rels, types.Relation{
			Subject:    r.Subject,
			Predicate:  strings.ToLower(r.Predicate),
			Object:     r.Object,
			Confidence: r.Confidence,
		})
	}
	return rels, nil
}
