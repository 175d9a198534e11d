package retriever

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/astrabio/astrabio/pkg/keyword"
	"github.com/astrabio/astrabio/pkg/types"
	"github.com/astrabio/astrabio/pkg/vector"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type fakeEmbedder struct {
	vec []float32
	err error
}

func (f *fakeEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	return f.vec, f.err
}

func (f *fakeEmbedder) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, len(texts))
	for i := range texts {
		out[i] = f.vec
	}
	return out, f.err
}

func (f *fakeEmbedder) Dimensions() int { return len(f.vec) }

type fakeVectorStore struct {
	hits  []vector.Hit
	err   error
	calls int
}

func (f *fakeVectorStore) Upsert(ctx context.Context, records []*types.ArticleRecord) error {
	return nil
}

func (f *fakeVectorStore) Search(ctx context.Context, vec []float32, topK int) ([]vector.Hit, error) {
	f.calls++
	return f.hits, f.err
}

func (f *fakeVectorStore) ScoreKind() vector.ScoreKind { return vector.ScoreSimilarity }

func (f *fakeVectorStore) Ping(ctx context.Context) error { return nil }

type fakeKeywordIndex struct {
	hits []keyword.Hit
	err  error
}

func (f *fakeKeywordIndex) Search(ctx context.Context, query string, topK int) ([]keyword.Hit, error) {
	return f.hits, f.err
}

func TestRetrieveFirstTierWins(t *testing.T) {
	primary := &fakeVectorStore{hits: []vector.Hit{{ID: "PMC1", Score: 0.9}}}
	secondary := &fakeVectorStore{hits: []vector.Hit{{ID: "PMC2", Score: 0.9}}}

	r := New(&fakeEmbedder{vec: []float32{1, 0}}, []Tier{
		{Name: "primary", Vector: primary},
		{Name: "secondary", Vector: secondary},
	}, nil, 0.7, time.Second, testLogger())

	res, err := r.Retrieve(context.Background(), "microgravity bone loss", 5)
	require.NoError(t, err)
	assert.Equal(t, "primary", res.Tier)
	require.Len(t, res.Candidates, 1)
	assert.Equal(t, "PMC1", res.Candidates[0].ID)
	assert.Zero(t, secondary.calls)
}

func TestRetrieveFallsThroughFailedTier(t *testing.T) {
	// The primary tier has no keyword index, so its vector failure leaves
	// no working component and retrieval moves on.
	primary := &fakeVectorStore{err: errors.New("connection refused")}
	secondary := &fakeVectorStore{hits: []vector.Hit{{ID: "PMC2", Score: 0.9}}}

	r := New(&fakeEmbedder{vec: []float32{1, 0}}, []Tier{
		{Name: "primary", Vector: primary},
		{Name: "secondary", Vector: secondary},
	}, nil, 0.7, time.Second, testLogger())

	res, err := r.Retrieve(context.Background(), "radiation dna damage", 5)
	require.NoError(t, err)
	assert.Equal(t, "secondary", res.Tier)
	require.Len(t, res.Candidates, 1)
	assert.Equal(t, "PMC2", res.Candidates[0].ID)
}

func TestRetrieveVectorFailureDegradesToKeyword(t *testing.T) {
	store := &fakeVectorStore{err: errors.New("connection refused")}
	idx := &fakeKeywordIndex{hits: []keyword.Hit{{ID: "PMC7", Score: 0.6}}}
	secondary := &fakeVectorStore{hits: []vector.Hit{{ID: "PMC2", Score: 0.9}}}

	r := New(&fakeEmbedder{vec: []float32{1, 0}}, []Tier{
		{Name: "primary", Vector: store, Keyword: idx},
		{Name: "secondary", Vector: secondary},
	}, nil, 0.7, time.Second, testLogger())

	res, err := r.Retrieve(context.Background(), "cell cycle arrest", 5)
	require.NoError(t, err)
	assert.Equal(t, "primary", res.Tier, "a working keyword index keeps the tier alive")
	require.Len(t, res.Candidates, 1)
	assert.Equal(t, "PMC7", res.Candidates[0].ID)
	assert.Zero(t, secondary.calls)
}

func TestRetrieveKeywordFailureAbsorbed(t *testing.T) {
	store := &fakeVectorStore{hits: []vector.Hit{{ID: "PMC1", Score: 0.9}}}
	idx := &fakeKeywordIndex{err: errors.New("index missing")}

	r := New(&fakeEmbedder{vec: []float32{1, 0}}, []Tier{
		{Name: "primary", Vector: store, Keyword: idx},
	}, nil, 0.7, time.Second, testLogger())

	res, err := r.Retrieve(context.Background(), "plant growth", 5)
	require.NoError(t, err)
	assert.Equal(t, "primary", res.Tier)
	require.Len(t, res.Candidates, 1)
}

func TestRetrieveKeywordOnlyOnEmbedFailure(t *testing.T) {
	store := &fakeVectorStore{hits: []vector.Hit{{ID: "ignored", Score: 0.9}}}
	idx := &fakeKeywordIndex{hits: []keyword.Hit{{ID: "PMC9", Score: 0.5}}}

	r := New(&fakeEmbedder{err: errors.New("quota exceeded")}, []Tier{
		{Name: "primary", Vector: store, Keyword: idx},
	}, nil, 0.7, time.Second, testLogger())

	res, err := r.Retrieve(context.Background(), "muscle atrophy", 5)
	require.NoError(t, err)
	require.Len(t, res.Candidates, 1)
	assert.Equal(t, "PMC9", res.Candidates[0].ID)
	assert.Zero(t, store.calls, "vector search must be skipped without a query vector")
}

func TestRetrieveAllTiersFailed(t *testing.T) {
	store := &fakeVectorStore{err: errors.New("down")}

	r := New(&fakeEmbedder{vec: []float32{1, 0}}, []Tier{
		{Name: "primary", Vector: store},
	}, nil, 0.7, time.Second, testLogger())

	_, err := r.Retrieve(context.Background(), "anything", 5)
	assert.ErrorIs(t, err, ErrNoBackends)
}

func TestRetrieveMemoryFallback(t *testing.T) {
	primary := &fakeVectorStore{err: errors.New("down")}
	loads := 0
	loader := func(ctx context.Context) ([]*types.ArticleRecord, error) {
		loads++
		return []*types.ArticleRecord{
			{ExperimentID: "PMC1", Title: "Bone density loss in microgravity", Embedding: []float32{1, 0}},
			{ExperimentID: "PMC2", Title: "Plant transcriptome aboard the ISS", Embedding: []float32{0, 1}},
		}, nil
	}

	r := New(&fakeEmbedder{vec: []float32{1, 0}}, []Tier{
		{Name: "primary", Vector: primary},
	}, loader, 0.7, time.Second, testLogger())

	res, err := r.Retrieve(context.Background(), "bone density microgravity", 5)
	require.NoError(t, err)
	assert.Equal(t, "memory", res.Tier)
	require.NotEmpty(t, res.Candidates)
	assert.Equal(t, "PMC1", res.Candidates[0].ID)

	// Second query reuses the built tier.
	_, err = r.Retrieve(context.Background(), "bone density microgravity", 5)
	require.NoError(t, err)
	assert.Equal(t, 1, loads)

	// Reconnect forces a rebuild on next use.
	r.Reconnect()
	_, err = r.Retrieve(context.Background(), "bone density microgravity", 5)
	require.NoError(t, err)
	assert.Equal(t, 2, loads)
}

func TestRetrieveMemoryTierEmbedsCachedArticles(t *testing.T) {
	primary := &fakeVectorStore{err: errors.New("down")}
	loader := func(ctx context.Context) ([]*types.ArticleRecord, error) {
		// Cached without an embedding, and with a title sharing no terms
		// with the query, so only the vector component can surface it.
		return []*types.ArticleRecord{
			{ExperimentID: "PMC5", Title: "Transcriptional response of Arabidopsis roots"},
		}, nil
	}

	r := New(&fakeEmbedder{vec: []float32{1, 0}}, []Tier{
		{Name: "primary", Vector: primary},
	}, loader, 0.7, time.Second, testLogger())

	res, err := r.Retrieve(context.Background(), "oxidative stress spaceflight", 5)
	require.NoError(t, err)
	assert.Equal(t, "memory", res.Tier)
	require.Len(t, res.Candidates, 1)
	assert.Equal(t, "PMC5", res.Candidates[0].ID)
}

func TestRetrieveMemoryTierKeywordOnlyWhenEmbeddingFails(t *testing.T) {
	primary := &fakeVectorStore{err: errors.New("down")}
	loader := func(ctx context.Context) ([]*types.ArticleRecord, error) {
		return []*types.ArticleRecord{
			{ExperimentID: "PMC6", Title: "Muscle atrophy countermeasures in spaceflight"},
		}, nil
	}

	r := New(&fakeEmbedder{err: errors.New("quota exceeded")}, []Tier{
		{Name: "primary", Vector: primary},
	}, loader, 0.7, time.Second, testLogger())

	res, err := r.Retrieve(context.Background(), "muscle atrophy countermeasures", 5)
	require.NoError(t, err)
	assert.Equal(t, "memory", res.Tier)
	require.Len(t, res.Candidates, 1)
	assert.Equal(t, "PMC6", res.Candidates[0].ID)
}

func TestRetrieveEmptyCorpusNoMemoryTier(t *testing.T) {
	primary := &fakeVectorStore{err: errors.New("down")}
	loader := func(ctx context.Context) ([]*types.ArticleRecord, error) {
		return nil, nil
	}

	r := New(&fakeEmbedder{vec: []float32{1, 0}}, []Tier{
		{Name: "primary", Vector: primary},
	}, loader, 0.7, time.Second, testLogger())

	_, err := r.Retrieve(context.Background(), "anything", 5)
	assert.ErrorIs(t, err, ErrNoBackends)
}
