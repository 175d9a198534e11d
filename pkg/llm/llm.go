// Package llm wraps an OpenAI-compatible chat completion API behind a small
// client used for answer synthesis and metadata extraction.
package llm

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/sashabaranov/go-openai"

	"github.com/astrabio/astrabio/pkg/config"
)

const maxRetries = 2

// ErrMissingAPIKey is returned at construction when no credential is set.
var ErrMissingAPIKey = errors.New("LLM API key is not configured")

// ErrEmptyResponse is returned when the API answers with no choices.
var ErrEmptyResponse = errors.New("empty response from LLM")

// Client generates chat completions.
type Client interface {
	// Complete sends a system and user message and returns the
	// assistant's reply text.
	Complete(ctx context.Context, system, user string) (string, error)
}

// OpenAIClient implements Client against an OpenAI-compatible API.
type OpenAIClient struct {
	client      *openai.Client
	model       string
	temperature float32
	maxTokens   int
	logger      *slog.Logger
}

// NewOpenAIClient creates a chat client. Fails fast on a missing API key.
func NewOpenAIClient(cfg config.LLMConfig, logger *slog.Logger) (*OpenAIClient, error) {
	if cfg.APIKey == "" {
		return nil, ErrMissingAPIKey
	}

	clientCfg := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		clientCfg.BaseURL = cfg.BaseURL
	}

	model := cfg.Model
	if model == "" {
		model = "gpt-4o-mini"
	}

	return &OpenAIClient{
		client:      openai.NewClientWithConfig(clientCfg),
		model:       model,
		temperature: cfg.Temperature,
		maxTokens:   cfg.MaxTokens,
		logger:      logger,
	}, nil
}

// Complete implements Client with bounded retries on transient failures.
func (c *OpenAIClient) Complete(ctx context.Context, system, user string) (string, error) {
	req := openai.ChatCompletionRequest{
		Model: c.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: system},
			{Role: openai.ChatMessageRoleUser, Content: user},
		},
		Temperature: c.temperature,
		MaxTokens:   c.maxTokens,
	}

	var lastErr error
	for attempt := 0; attempt <= maxRetries; attempt++ {
		if attempt > 0 {
			backoff := time.Duration(attempt*attempt) * time.Second
			c.logger.Warn("retrying LLM request",
				"attempt", attempt+1, "backoff", backoff, "error", lastErr)

			select {
			case <-ctx.Done():
				return "", ctx.Err()
			case <-time.After(backoff):
			}
		}

		resp, err := c.client.CreateChatCompletion(ctx, req)
		if err != nil {
			lastErr = err
			if isRetriableError(err) && attempt < maxRetries {
				continue
			}
			return "", fmt.Errorf("chat completion failed: %w", err)
		}

		if len(resp.Choices) == 0 || resp.Choices[0].Message.Content == "" {
			lastErr = ErrEmptyResponse
			if attempt < maxRetries {
				continue
			}
			return "", ErrEmptyResponse
		}

		return resp.Choices[0].Message.Content, nil
	}

	return "", fmt.Errorf("all retries exhausted: %w", lastErr)
}

// isRetriableError reports whether an API error is worth retrying.
func isRetriableError(err error) bool {
	errStr := strings.ToLower(err.Error())
	retriable := []string{
		"rate limit",
		"rate_limit",
		"timeout",
		"connection",
		"internal server error",
		"service unavailable",
		"bad gateway",
		"gateway timeout",
	}
	for _, s := range retriable {
		if strings.Contains(errStr, s) {
			return true
		}
	}
	return false
}
