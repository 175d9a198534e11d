package embedder

import (
	"context"
	"log/slog"
	"time"

	"github.com/sony/gobreaker"

	"github.com/astrabio/astrabio/pkg/config"
)

// CircuitBreakerClient wraps a Client with circuit breaking so a dead
// embedding backend fails fast instead of paying a connection timeout on
// every query. The retriever treats an open breaker like any other backend
// failure and falls through its ladder.
type CircuitBreakerClient struct {
	client Client
	cb     *gobreaker.CircuitBreaker
}

// NewCircuitBreakerClient creates a circuit breaker wrapper around client.
func NewCircuitBreakerClient(client Client, cfg config.CircuitBreakerConfig, logger *slog.Logger) *CircuitBreakerClient {
	st := gobreaker.Settings{
		Name:        "embedder",
		MaxRequests: cfg.MaxRequests,
		Interval:    time.Duration(cfg.Interval) * time.Second,
		Timeout:     time.Duration(cfg.Timeout) * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			failureRatio := float64(counts.TotalFailures) / float64(counts.Requests)
			return counts.Requests >= 3 && failureRatio >= cfg.ReadyToTripRatio
		},
		OnStateChange: func(name string, from gobreaker.State, to gobreaker.State) {
			if logger != nil {
				logger.Warn("embedding circuit breaker state change",
					"name", name, "from", from.String(), "to", to.String())
			}
		},
	}

	return &CircuitBreakerClient{
		client: client,
		cb:     gobreaker.NewCircuitBreaker(st),
	}
}

// Embed implements Client.
func (c *CircuitBreakerClient) Embed(ctx context.Context, text string) ([]float32, error) {
	result, err := c.cb.Execute(func() (interface{}, error) {
		return c.client.Embed(ctx, text)
	})
	if err != nil {
		return nil, err
	}
	return result.([]float32), nil
}

// EmbedBatch implements Client.
func (c *CircuitBreakerClient) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	result, err := c.cb.Execute(func() (interface{}, error) {
		return c.client.EmbedBatch(ctx, texts)
	})
	if err != nil {
		return nil, err
	}
	return result.([][]float32), nil
}

// Dimensions implements Client.
func (c *CircuitBreakerClient) Dimensions() int {
	return c.client.Dimensions()
}
