package vector

import (
	"context"
	"math"
	"sort"
	"sync"

	"github.com/astrabio/astrabio/pkg/types"
)

// MemoryStore is an in-process brute-force store used when no networked
// backend is reachable. Vectors are L2-normalized at insert so search is a
// plain dot product.
type MemoryStore struct {
	mu      sync.RWMutex
	ids     []string
	vectors [][]float32
	index   map[string]int
	meta    map[string]memoryMeta
}

type memoryMeta struct {
	title string
	year  *int
	doi   *string
}

// NewMemoryStore creates an empty in-process store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		index: make(map[string]int),
		meta:  make(map[string]memoryMeta),
	}
}

// Upsert implements Store.
func (s *MemoryStore) Upsert(_ context.Context, records []*types.ArticleRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, rec := range records {
		if rec.ExperimentID == "" || len(rec.Embedding) == 0 {
			continue
		}

		vec := normalize(rec.Embedding)
		if pos, ok := s.index[rec.ExperimentID]; ok {
			s.vectors[pos] = vec
		} else {
			s.index[rec.ExperimentID] = len(s.ids)
			s.ids = append(s.ids, rec.ExperimentID)
			s.vectors = append(s.vectors, vec)
		}
		s.meta[rec.ExperimentID] = memoryMeta{title: rec.Title, year: rec.Year, doi: rec.DOI}
	}
	return nil
}

// Search implements Store. Scores are cosine similarities in [-1, 1].
func (s *MemoryStore) Search(_ context.Context, vector []float32, topK int) ([]Hit, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if len(s.ids) == 0 || topK <= 0 {
		return nil, nil
	}

	query := normalize(vector)
	hits := make([]Hit, 0, len(s.ids))
	for i, id := range s.ids {
		m := s.meta[id]
		hits = append(hits, Hit{
			ID:    id,
			Title: m.title,
			Year:  m.year,
			DOI:   m.doi,
			Score: dot(query, s.vectors[i]),
		})
	}

	sort.SliceStable(hits, func(i, j int) bool {
		return hits[i].Score > hits[j].Score
	})
	if len(hits) > topK {
		hits = hits[:topK]
	}
	return hits, nil
}

// ScoreKind implements Store.
func (s *MemoryStore) ScoreKind() ScoreKind { return ScoreSimilarity }

// Ping implements Store. An in-process store is always reachable.
func (s *MemoryStore) Ping(context.Context) error { return nil }

// Len reports the number of stored vectors.
func (s *MemoryStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.ids)
}

func normalize(v []float32) []float32 {
	var sum float64
	for _, x := range v {
		sum += float64(x) * float64(x)
	}
	norm := math.Sqrt(sum)
	out := make([]float32, len(v))
	if norm == 0 {
		copy(out, v)
		return out
	}
	for i, x := range v {
		out[i] = float32(float64(x) / norm)
	}
	return out
}

func dot(a, b []float32) float64 {
	n := len(a)
	if len(b) < n {
		n = len(b)
	}
	var sum float64
	for i := 0; i < n; i++ {
		sum += float64(a[i]) * float64(b[i])
	}
	return sum
}
