package llm

import (
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/astrabio/astrabio/pkg/config"
)

func TestNewOpenAIClientRequiresAPIKey(t *testing.T) {
	_, err := NewOpenAIClient(config.LLMConfig{}, slog.New(slog.NewTextHandler(io.Discard, nil)))
	assert.ErrorIs(t, err, ErrMissingAPIKey)
}

func TestNewOpenAIClientDefaults(t *testing.T) {
	c, err := NewOpenAIClient(config.LLMConfig{APIKey: "sk-test"},
		slog.New(slog.NewTextHandler(io.Discard, nil)))
	require.NoError(t, err)
	assert.Equal(t, "gpt-4o-mini", c.model)
}

func TestIsRetriableError(t *testing.T) {
	retriable := []string{
		"Rate limit exceeded",
		"request timeout",
		"connection refused",
		"502 Bad Gateway",
		"503 Service Unavailable",
	}
	for _, msg := range retriable {
		assert.True(t, isRetriableError(errors.New(msg)), msg)
	}

	permanent := []string{
		"invalid api key",
		"model not found",
		"context length exceeded",
	}
	for _, msg := range permanent {
		assert.False(t, isRetriableError(errors.New(msg)), msg)
	}
}
