package embedder

import (
	"context"
	"errors"
	"unicode/utf8"
)

// ErrMissingAPIKey is returned at construction time when the embedding
// backend was selected but no credential is configured.
var ErrMissingAPIKey = errors.New("embedding API key is not configured")

// ErrNoEmbeddings is returned when the backend responds without vectors.
var ErrNoEmbeddings = errors.New("no embeddings returned")

// Client generates embeddings for text.
type Client interface {
	// Embed generates an embedding for a single text.
	Embed(ctx context.Context, text string) ([]float32, error)

	// EmbedBatch generates embeddings for multiple texts in order.
	EmbedBatch(ctx context.Context, texts []string) ([][]float32, error)

	// Dimensions returns the dimensionality of produced vectors.
	Dimensions() int
}

// Truncate deterministically trims text to the provider character budget,
// keeping the prefix. The cut backs off to the previous rune boundary so a
// multi-byte character is never split. Budgets <= 0 disable truncation.
func Truncate(text string, maxChars int) string {
	if maxChars <= 0 || len(text) <= maxChars {
		return text
	}
	cut := maxChars
	for cut > 0 && !utf8.RuneStart(text[cut]) {
		cut--
	}
	return text[:cut]
}
