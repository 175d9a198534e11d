package retriever

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/astrabio/astrabio/pkg/types"
)

func intPtr(v int) *int { return &v }

func TestRerankBonusFormula(t *testing.T) {
	candidates := []types.Candidate{
		{ID: "old", BlendedScore: 0.5, Year: intPtr(1960)},
		{ID: "new", BlendedScore: 0.5, Year: intPtr(2020)},
	}

	out := Rerank(candidates, 0.1)
	require.Len(t, out, 2)

	// maxYear is 2020; bonus = (year-1900)/(2020-1900) * 0.1.
	assert.Equal(t, "new", out[0].ID)
	assert.InDelta(t, 0.5+0.1, out[0].AdjustedScore, 1e-9)
	assert.InDelta(t, 0.5+float64(60)/120*0.1, out[1].AdjustedScore, 1e-9)
}

func TestRerankNilYearGetsNoBonus(t *testing.T) {
	candidates := []types.Candidate{
		{ID: "dated", BlendedScore: 0.4, Year: intPtr(2020)},
		{ID: "undated", BlendedScore: 0.4},
	}

	out := Rerank(candidates, 0.1)
	require.Len(t, out, 2)
	assert.Equal(t, "dated", out[0].ID)
	assert.InDelta(t, 0.4, out[1].AdjustedScore, 1e-9)
}

func TestRerankNegativeBonusClamped(t *testing.T) {
	candidates := []types.Candidate{
		{ID: "ancient", BlendedScore: 0.4, Year: intPtr(1850)},
		{ID: "modern", BlendedScore: 0.4, Year: intPtr(2000)},
	}

	out := Rerank(candidates, 0.1)
	byID := make(map[string]float64)
	for _, c := range out {
		byID[c.ID] = c.AdjustedScore
	}
	assert.InDelta(t, 0.4, byID["ancient"], 1e-9)
	assert.InDelta(t, 0.5, byID["modern"], 1e-9)
}

func TestRerankDefaultAnchorWithoutYears(t *testing.T) {
	candidates := []types.Candidate{
		{ID: "a", BlendedScore: 0.9},
		{ID: "b", BlendedScore: 0.3},
	}

	out := Rerank(candidates, 0.1)
	require.Len(t, out, 2)
	assert.Equal(t, "a", out[0].ID)
	assert.InDelta(t, 0.9, out[0].AdjustedScore, 1e-9)
	assert.InDelta(t, 0.3, out[1].AdjustedScore, 1e-9)
}

func TestRerankStableOnEqualAdjustedScores(t *testing.T) {
	candidates := []types.Candidate{
		{ID: "first", BlendedScore: 0.5, Year: intPtr(2020)},
		{ID: "second", BlendedScore: 0.5, Year: intPtr(2020)},
	}

	out := Rerank(candidates, 0.1)
	require.Len(t, out, 2)
	assert.Equal(t, "first", out[0].ID)
	assert.Equal(t, "second", out[1].ID)
}

func TestRerankReapplication(t *testing.T) {
	candidates := []types.Candidate{
		{ID: "old", BlendedScore: 0.8, Year: intPtr(1970)},
		{ID: "new", BlendedScore: 0.5, Year: intPtr(2020)},
		{ID: "undated", BlendedScore: 0.6},
	}

	once := Rerank(candidates, 0.3)
	twice := Rerank(once, 0.3)

	// The bonus is recomputed from the blended score on every application,
	// so feeding reranked output back in never compounds it: each adjusted
	// score stays blended + (year-1900)/(maxYear-1900)*weight.
	require.Len(t, twice, len(once))
	for i := range once {
		assert.Equal(t, once[i].ID, twice[i].ID)
		assert.InDelta(t, once[i].AdjustedScore, twice[i].AdjustedScore, 1e-9)
		assert.InDelta(t,
			once[i].BlendedScore+recencyBonus(once[i].Year, 2020, 0.3),
			twice[i].AdjustedScore, 1e-9)
	}
}

func TestRerankDoesNotMutateInput(t *testing.T) {
	candidates := []types.Candidate{
		{ID: "b", BlendedScore: 0.2, Year: intPtr(2010)},
		{ID: "a", BlendedScore: 0.9, Year: intPtr(2020)},
	}

	_ = Rerank(candidates, 0.5)
	assert.Equal(t, "b", candidates[0].ID)
	assert.Zero(t, candidates[0].AdjustedScore)
}
