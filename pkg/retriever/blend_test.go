package retriever

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/astrabio/astrabio/pkg/keyword"
	"github.com/astrabio/astrabio/pkg/vector"
)

func TestBlendRankedAndBounded(t *testing.T) {
	vectorHits := []vector.Hit{
		{ID: "PMC1", Score: 0.9},
		{ID: "PMC2", Score: 0.5},
		{ID: "PMC3", Score: 0.1},
	}
	keywordHits := []keyword.Hit{
		{ID: "PMC2", Score: 0.5},
		{ID: "PMC4", Score: 0.5},
	}

	candidates := Blend(vectorHits, vector.ScoreSimilarity, keywordHits, 0.7, 10)
	require.Len(t, candidates, 4)

	seen := make(map[string]bool)
	for i, c := range candidates {
		assert.False(t, seen[c.ID], "duplicate candidate %s", c.ID)
		seen[c.ID] = true

		assert.GreaterOrEqual(t, c.BlendedScore, 0.0)
		assert.LessOrEqual(t, c.BlendedScore, 1.0)
		if i > 0 {
			assert.GreaterOrEqual(t, candidates[i-1].BlendedScore, c.BlendedScore)
		}
	}

	// PMC1 has the best vector score and normalizes to 1.0.
	assert.Equal(t, "PMC1", candidates[0].ID)
	assert.InDelta(t, 0.7, candidates[0].BlendedScore, 1e-9)
}

func TestBlendDistanceInversion(t *testing.T) {
	vectorHits := []vector.Hit{
		{ID: "near", Score: 0.1},
		{ID: "far", Score: 0.9},
	}

	candidates := Blend(vectorHits, vector.ScoreDistance, nil, 1.0, 10)
	require.Len(t, candidates, 2)

	assert.Equal(t, "near", candidates[0].ID)
	assert.InDelta(t, 1.0, candidates[0].VectorScore, 1e-9)
	assert.InDelta(t, 0.0, candidates[1].VectorScore, 1e-9)
}

func TestBlendDegenerateBatchNormalizesToOne(t *testing.T) {
	vectorHits := []vector.Hit{
		{ID: "a", Score: 0.42},
		{ID: "b", Score: 0.42},
	}

	candidates := Blend(vectorHits, vector.ScoreDistance, nil, 1.0, 10)
	require.Len(t, candidates, 2)
	for _, c := range candidates {
		assert.InDelta(t, 1.0, c.VectorScore, 1e-9)
	}
}

func TestBlendTieBreakPrefersVectorOrder(t *testing.T) {
	// Equal blended scores: the candidate seen earlier in the vector
	// results wins.
	vectorHits := []vector.Hit{
		{ID: "first", Score: 0.5},
		{ID: "second", Score: 0.5},
	}

	candidates := Blend(vectorHits, vector.ScoreSimilarity, nil, 1.0, 10)
	require.Len(t, candidates, 2)
	assert.Equal(t, "first", candidates[0].ID)
	assert.Equal(t, "second", candidates[1].ID)
}

func TestBlendKeywordOnlyRanksAfterVectorOnTies(t *testing.T) {
	vectorHits := []vector.Hit{{ID: "vec", Score: 1.0}}
	keywordHits := []keyword.Hit{{ID: "kw", Score: 1.0}}

	// alpha 0 makes the vector hit score 0*1 + 1*0 = 0 and the keyword
	// hit 0*0 + 1*1 = 1, so the keyword hit leads outright.
	candidates := Blend(vectorHits, vector.ScoreSimilarity, keywordHits, 0, 10)
	require.Len(t, candidates, 2)
	assert.Equal(t, "kw", candidates[0].ID)

	// With both components equal the vector hit keeps its earlier rank.
	keywordHits = []keyword.Hit{{ID: "vec", Score: 1.0}, {ID: "kw", Score: 1.0}}
	candidates = Blend(vectorHits, vector.ScoreSimilarity, keywordHits, 0, 10)
	require.Len(t, candidates, 2)
	assert.Equal(t, "vec", candidates[0].ID)
}

func TestBlendMissingComponentsContributeZero(t *testing.T) {
	vectorHits := []vector.Hit{
		{ID: "both", Score: 1.0},
		{ID: "veconly", Score: 0.5},
	}
	keywordHits := []keyword.Hit{
		{ID: "both", Score: 0.5},
		{ID: "kwonly", Score: 0.5},
	}

	candidates := Blend(vectorHits, vector.ScoreSimilarity, keywordHits, 0.7, 10)
	byID := make(map[string]float64)
	for _, c := range candidates {
		byID[c.ID] = c.BlendedScore
	}

	assert.InDelta(t, 0.7*1.0+0.3*0.5, byID["both"], 1e-9)
	assert.InDelta(t, 0.7*0.0+0.3*0.0, byID["veconly"], 1e-9)
	assert.InDelta(t, 0.3*0.5, byID["kwonly"], 1e-9)
}

func TestBlendTruncatesToTopK(t *testing.T) {
	vectorHits := []vector.Hit{
		{ID: "a", Score: 0.9},
		{ID: "b", Score: 0.8},
		{ID: "c", Score: 0.7},
		{ID: "d", Score: 0.6},
	}

	candidates := Blend(vectorHits, vector.ScoreSimilarity, nil, 1.0, 2)
	require.Len(t, candidates, 2)
	assert.Equal(t, "a", candidates[0].ID)
	assert.Equal(t, "b", candidates[1].ID)
}

func TestBlendEmptyInputs(t *testing.T) {
	assert.Empty(t, Blend(nil, vector.ScoreSimilarity, nil, 0.7, 5))
}
