// Package keyword provides full-text search over article titles and
// abstracts. Two implementations share one contract: a RediSearch index for
// the networked tiers and an in-process TF-IDF index for degraded mode.
package keyword

import (
	"context"
	"errors"
)

// ErrUnavailable is returned when the backing index cannot be reached.
var ErrUnavailable = errors.New("keyword index unavailable")

// Hit is one full-text match.
type Hit struct {
	ID    string
	Score float64
}

// Index answers keyword queries over the article corpus.
type Index interface {
	// Search returns up to topK articles matching the query terms,
	// best first.
	Search(ctx context.Context, query string, topK int) ([]Hit, error)
}
