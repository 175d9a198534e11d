package vector

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/astrabio/astrabio/pkg/types"
)

func TestMemoryStoreSearchOrdersByCosine(t *testing.T) {
	s := NewMemoryStore()
	year := 2021
	require.NoError(t, s.Upsert(context.Background(), []*types.ArticleRecord{
		{ExperimentID: "PMC1", Title: "close", Year: &year, Embedding: []float32{1, 0.1}},
		{ExperimentID: "PMC2", Title: "far", Embedding: []float32{0, 1}},
		{ExperimentID: "PMC3", Title: "middle", Embedding: []float32{1, 1}},
	}))
	require.Equal(t, 3, s.Len())

	hits, err := s.Search(context.Background(), []float32{1, 0}, 10)
	require.NoError(t, err)
	require.Len(t, hits, 3)

	assert.Equal(t, "PMC1", hits[0].ID)
	assert.Equal(t, "PMC3", hits[1].ID)
	assert.Equal(t, "PMC2", hits[2].ID)
	assert.InDelta(t, 0.0, hits[2].Score, 1e-6)

	// Payload fields ride along with the hit.
	assert.Equal(t, "close", hits[0].Title)
	require.NotNil(t, hits[0].Year)
	assert.Equal(t, 2021, *hits[0].Year)
}

func TestMemoryStoreTopK(t *testing.T) {
	s := NewMemoryStore()
	require.NoError(t, s.Upsert(context.Background(), []*types.ArticleRecord{
		{ExperimentID: "a", Embedding: []float32{1, 0}},
		{ExperimentID: "b", Embedding: []float32{0.9, 0.1}},
		{ExperimentID: "c", Embedding: []float32{0, 1}},
	}))

	hits, err := s.Search(context.Background(), []float32{1, 0}, 2)
	require.NoError(t, err)
	assert.Len(t, hits, 2)
}

func TestMemoryStoreUpsertReplaces(t *testing.T) {
	s := NewMemoryStore()
	require.NoError(t, s.Upsert(context.Background(), []*types.ArticleRecord{
		{ExperimentID: "PMC1", Title: "v1", Embedding: []float32{1, 0}},
	}))
	require.NoError(t, s.Upsert(context.Background(), []*types.ArticleRecord{
		{ExperimentID: "PMC1", Title: "v2", Embedding: []float32{0, 1}},
	}))
	require.Equal(t, 1, s.Len())

	hits, err := s.Search(context.Background(), []float32{0, 1}, 1)
	require.NoError(t, err)
	require.Len(t, hits, 1)
	assert.Equal(t, "v2", hits[0].Title)
	assert.InDelta(t, 1.0, hits[0].Score, 1e-6)
}

func TestMemoryStoreSkipsRecordsWithoutVector(t *testing.T) {
	s := NewMemoryStore()
	require.NoError(t, s.Upsert(context.Background(), []*types.ArticleRecord{
		{ExperimentID: "PMC1"},
		{Embedding: []float32{1, 0}},
	}))
	assert.Zero(t, s.Len())
}

func TestMemoryStoreEmpty(t *testing.T) {
	s := NewMemoryStore()
	hits, err := s.Search(context.Background(), []float32{1, 0}, 5)
	require.NoError(t, err)
	assert.Empty(t, hits)
	assert.NoError(t, s.Ping(context.Background()))
	assert.Equal(t, ScoreSimilarity, s.ScoreKind())
}
