package embedder

import (
	"context"
	"fmt"

	"github.com/sashabaranov/go-openai"

	"github.com/astrabio/astrabio/pkg/config"
)

// OpenAIClient implements Client against an OpenAI-compatible embeddings API.
type OpenAIClient struct {
	client     *openai.Client
	model      openai.EmbeddingModel
	dimensions int
	maxChars   int
}

// NewOpenAIClient creates an embeddings client. It fails fast when the API
// key is missing so misconfiguration surfaces at construction, not on the
// first query.
func NewOpenAIClient(cfg config.EmbeddingConfig) (*OpenAIClient, error) {
	if cfg.APIKey == "" {
		return nil, ErrMissingAPIKey
	}

	clientCfg := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		clientCfg.BaseURL = cfg.BaseURL
	}

	model := cfg.Model
	if model == "" {
		model = "text-embedding-3-small"
	}

	dims := cfg.Dimensions
	if dims <= 0 {
		dims = 768
	}

	return &OpenAIClient{
		client:     openai.NewClientWithConfig(clientCfg),
		model:      openai.EmbeddingModel(model),
		dimensions: dims,
		maxChars:   cfg.MaxChars,
	}, nil
}

// Embed generates an embedding for a single text.
func (c *OpenAIClient) Embed(ctx context.Context, text string) ([]float32, error) {
	vectors, err := c.EmbedBatch(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	if len(vectors) == 0 {
		return nil, ErrNoEmbeddings
	}
	return vectors[0], nil
}

// EmbedBatch generates embeddings for multiple texts in request order.
// Inputs are truncated to the configured character budget before sending.
func (c *OpenAIClient) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, nil
	}

	truncated := make([]string, len(texts))
	for i, t := range texts {
		truncated[i] = Truncate(t, c.maxChars)
	}

	resp, err := c.client.CreateEmbeddings(ctx, openai.EmbeddingRequestStrings{
		Input:      truncated,
		Model:      c.model,
		Dimensions: c.dimensions,
	})
	if err != nil {
		return nil, fmt.Errorf("embedding request failed: %w", err)
	}
	if len(resp.Data) != len(truncated) {
		return nil, fmt.Errorf("%w: got %d vectors for %d inputs", ErrNoEmbeddings, len(resp.Data), len(truncated))
	}

	vectors := make([][]float32, len(resp.Data))
	for i, d := range resp.Data {
		vectors[i] = d.Embedding
	}
	return vectors, nil
}

// Dimensions returns the dimensionality of produced vectors.
func (c *OpenAIClient) Dimensions() int {
	return c.dimensions
}
