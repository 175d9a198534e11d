// Package vector provides pluggable nearest-neighbor stores over article
// embeddings. Three implementations share one contract: a networked Redis
// index, a Mongo collection with native vector search, and an in-process
// brute-force store for degraded mode.
package vector

import (
	"context"
	"errors"

	"github.com/astrabio/astrabio/pkg/types"
)

// ErrUnavailable is returned when the backing store cannot be reached.
// The retriever treats it as a signal to advance its fallback ladder.
var ErrUnavailable = errors.New("vector store unavailable")

// ScoreKind describes the semantics of Hit.Score.
type ScoreKind int

const (
	// ScoreDistance means smaller is better (e.g. cosine distance).
	ScoreDistance ScoreKind = iota
	// ScoreSimilarity means larger is better.
	ScoreSimilarity
)

// Hit is one nearest-neighbor result with the payload fields needed to
// build a Candidate without a second round-trip.
type Hit struct {
	ID    string
	Title string
	Year  *int
	DOI   *string
	Score float64
}

// Store persists (id, vector, payload) tuples and answers k-nearest
// queries by cosine similarity.
type Store interface {
	// Upsert inserts or replaces the records' vectors and payloads,
	// keyed by experiment ID.
	Upsert(ctx context.Context, records []*types.ArticleRecord) error

	// Search returns up to topK nearest neighbors of the query vector.
	Search(ctx context.Context, vector []float32, topK int) ([]Hit, error)

	// ScoreKind reports whether Search scores are distances or
	// similarities, so callers normalize them correctly.
	ScoreKind() ScoreKind

	// Ping verifies connectivity to the backing store.
	Ping(ctx context.Context) error
}
