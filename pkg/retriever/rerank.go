package retriever

import (
	"sort"

	"github.com/astrabio/astrabio/pkg/types"
)

// defaultMaxYear anchors the recency scale when no candidate carries a
// publication year.
const defaultMaxYear = 2024

// Rerank applies a recency bonus to blended scores and re-sorts. The bonus
// scales linearly from 1900 to the newest year in the batch, weighted by
// yearWeight; candidates without a year get no bonus. The sort is stable so
// equal adjusted scores keep their blended order.
func Rerank(candidates []types.Candidate, yearWeight float64) []types.Candidate {
	if len(candidates) == 0 {
		return candidates
	}

	maxYear := defaultMaxYear
	seen := false
	for _, c := range candidates {
		if c.Year != nil {
			if !seen || *c.Year > maxYear {
				maxYear = *c.Year
			}
			seen = true
		}
	}

	out := make([]types.Candidate, len(candidates))
	copy(out, candidates)
	for i := range out {
		out[i].AdjustedScore = out[i].BlendedScore + recencyBonus(out[i].Year, maxYear, yearWeight)
	}

	sort.SliceStable(out, func(i, j int) bool {
		return out[i].AdjustedScore > out[j].AdjustedScore
	})
	return out
}

func recencyBonus(year *int, maxYear int, yearWeight float64) float64 {
	if year == nil || maxYear <= 1900 {
		return 0
	}
	bonus := float64(*year-1900) / float64(maxYear-1900) * yearWeight
	if bonus < 0 {
		return 0
	}
	return bonus
}
