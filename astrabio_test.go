package astrabio

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/astrabio/astrabio/pkg/retriever"
	"github.com/astrabio/astrabio/pkg/synthesis"
	"github.com/astrabio/astrabio/pkg/types"
	"github.com/astrabio/astrabio/pkg/vector"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type stubEmbedder struct{}

func (stubEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	return []float32{1, 0}, nil
}

func (stubEmbedder) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, len(texts))
	for i := range out {
		out[i] = []float32{1, 0}
	}
	return out, nil
}

func (stubEmbedder) Dimensions() int { return 2 }

type stubStore struct {
	hits     []vector.Hit
	err      error
	lastTopK int
}

func (s *stubStore) Upsert(ctx context.Context, records []*types.ArticleRecord) error { return nil }

func (s *stubStore) Search(ctx context.Context, vec []float32, topK int) ([]vector.Hit, error) {
	s.lastTopK = topK
	return s.hits, s.err
}

func (s *stubStore) ScoreKind() vector.ScoreKind { return vector.ScoreSimilarity }

func (s *stubStore) Ping(ctx context.Context) error { return nil }

type stubLLM struct {
	answer string
	err    error
}

func (s *stubLLM) Complete(ctx context.Context, system, user string) (string, error) {
	return s.answer, s.err
}

type stubArticles struct {
	records map[string]*types.ArticleRecord
	err     error
}

func (s *stubArticles) Get(ctx context.Context, id string) (*types.ArticleRecord, error) {
	if s.err != nil {
		return nil, s.err
	}
	rec, ok := s.records[id]
	if !ok {
		return nil, errors.New("not found")
	}
	return rec, nil
}

func newTestClient(store *stubStore, llmClient *stubLLM, articles ArticleSource) *Client {
	ret := retriever.New(stubEmbedder{}, []retriever.Tier{
		{Name: "primary", Vector: store},
	}, nil, 0.7, time.Second, testLogger())
	synth := synthesis.New(llmClient, time.Second, testLogger())
	return NewClient(ret, synth, articles, nil, 0.1, testLogger())
}

func TestAnswerQuestionTooShort(t *testing.T) {
	c := newTestClient(&stubStore{}, &stubLLM{}, nil)
	_, err := c.Answer(context.Background(), "hi", 5)
	assert.ErrorIs(t, err, ErrQuestionTooShort)
}

func TestAnswerTopKClamping(t *testing.T) {
	store := &stubStore{}
	c := newTestClient(store, &stubLLM{answer: "ok"}, nil)

	for _, tc := range []struct {
		in, want int
	}{
		{0, DefaultTopK},
		{-3, MinTopK},
		{100, MaxTopK},
		{7, 7},
	} {
		_, err := c.Answer(context.Background(), "bone loss in space", tc.in)
		require.NoError(t, err)
		assert.Equal(t, tc.want, store.lastTopK, "topK %d", tc.in)
	}
}

func TestAnswerRetrievalExhaustedYieldsNoResults(t *testing.T) {
	store := &stubStore{err: errors.New("down")}
	c := newTestClient(store, &stubLLM{answer: "unused"}, nil)

	answer, err := c.Answer(context.Background(), "muscle atrophy countermeasures", 5)
	require.NoError(t, err)
	assert.Contains(t, answer.Text, "muscle atrophy countermeasures")
	assert.Empty(t, answer.Sources)
	assert.Nil(t, answer.Article)
}

func TestAnswerNoCandidatesYieldsNoResults(t *testing.T) {
	c := newTestClient(&stubStore{}, &stubLLM{answer: "unused"}, nil)

	answer, err := c.Answer(context.Background(), "quantum chromodynamics", 5)
	require.NoError(t, err)
	assert.Empty(t, answer.Sources)
	assert.Nil(t, answer.Article)
	assert.Contains(t, answer.Text, "did not find relevant scientific articles")
}

func TestAnswerFullPipeline(t *testing.T) {
	year := 2020
	doi := "10.1000/demo"
	store := &stubStore{hits: []vector.Hit{
		{ID: "PMC1", Title: "Bone loss", Year: &year, DOI: &doi, Score: 0.9},
		{ID: "PMC2", Title: "Plant growth", Score: 0.4},
	}}
	articles := &stubArticles{records: map[string]*types.ArticleRecord{
		"PMC1": {ExperimentID: "PMC1", Title: "Bone loss", ResultsSummary: "Mice lost bone."},
	}}

	c := newTestClient(store, &stubLLM{answer: "Bone density decreases in microgravity."}, articles)

	answer, err := c.Answer(context.Background(), "what happens to bones?", 5)
	require.NoError(t, err)
	assert.Equal(t, "Bone density decreases in microgravity.", answer.Text)

	require.Len(t, answer.Sources, 2)
	first := answer.Sources[0]
	assert.Equal(t, "PMC1", first.ID)
	assert.Equal(t, "https://www.ncbi.nlm.nih.gov/pmc/articles/PMC1/", first.URL)
	require.NotNil(t, first.Year)
	assert.Equal(t, 2020, *first.Year)
	require.NotNil(t, first.Score)
	require.NotNil(t, answer.Sources[1].Score)
	assert.Greater(t, *first.Score, *answer.Sources[1].Score)

	require.NotNil(t, answer.Article)
	assert.Equal(t, "PMC1", answer.Article.ExperimentID)
}

func TestAnswerSynthesisFailureReturnsApology(t *testing.T) {
	store := &stubStore{hits: []vector.Hit{{ID: "PMC1", Title: "T", Score: 0.9}}}
	c := newTestClient(store, &stubLLM{err: errors.New("rate limited")}, nil)

	answer, err := c.Answer(context.Background(), "anything interesting?", 5)
	require.NoError(t, err)
	assert.Equal(t, synthesis.Apology, answer.Text)
	assert.Len(t, answer.Sources, 1)
}

func TestAnswerHydrationFailureFallsBackToPayload(t *testing.T) {
	store := &stubStore{hits: []vector.Hit{{ID: "PMC1", Title: "Payload title", Score: 0.9}}}
	articles := &stubArticles{err: errors.New("mongo down")}
	c := newTestClient(store, &stubLLM{answer: "ok"}, articles)

	answer, err := c.Answer(context.Background(), "payload fallback?", 5)
	require.NoError(t, err)
	require.Len(t, answer.Sources, 1)
	assert.Equal(t, "Payload title", answer.Sources[0].Title)
	assert.Nil(t, answer.Article)
}
