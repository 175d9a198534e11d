package retriever

import (
	"sort"

	"github.com/astrabio/astrabio/pkg/keyword"
	"github.com/astrabio/astrabio/pkg/types"
	"github.com/astrabio/astrabio/pkg/vector"
)

// Blend merges vector and keyword results into a single ranked candidate
// list. Vector scores are min/max normalized within the batch (and inverted
// for distance semantics, so 1.0 is always the best match); the two
// components are combined as alpha*vec + (1-alpha)*text over the union of
// ids, with a missing component contributing zero.
func Blend(vectorHits []vector.Hit, kind vector.ScoreKind, keywordHits []keyword.Hit, alpha float64, topK int) []types.Candidate {
	normalized := normalizeScores(vectorHits, kind)

	byID := make(map[string]*types.Candidate, len(vectorHits)+len(keywordHits))
	order := make([]string, 0, len(vectorHits)+len(keywordHits))

	for i, hit := range vectorHits {
		c, ok := byID[hit.ID]
		if !ok {
			c = &types.Candidate{ID: hit.ID, VectorRank: len(byID)}
			byID[hit.ID] = c
			order = append(order, hit.ID)
		}
		c.Title = hit.Title
		c.Year = hit.Year
		c.DOI = hit.DOI
		c.VectorScore = normalized[i]
	}

	for _, hit := range keywordHits {
		c, ok := byID[hit.ID]
		if !ok {
			// Keyword-only hits rank after every vector hit, in
			// keyword order.
			c = &types.Candidate{ID: hit.ID, VectorRank: len(byID)}
			byID[hit.ID] = c
			order = append(order, hit.ID)
		}
		c.KeywordScore = hit.Score
	}

	candidates := make([]types.Candidate, 0, len(order))
	for _, id := range order {
		c := byID[id]
		c.BlendedScore = alpha*c.VectorScore + (1-alpha)*c.KeywordScore
		c.AdjustedScore = c.BlendedScore
		candidates = append(candidates, *c)
	}

	sort.SliceStable(candidates, func(i, j int) bool {
		if candidates[i].BlendedScore != candidates[j].BlendedScore {
			return candidates[i].BlendedScore > candidates[j].BlendedScore
		}
		return candidates[i].VectorRank < candidates[j].VectorRank
	})

	if topK > 0 && len(candidates) > topK {
		candidates = candidates[:topK]
	}
	return candidates
}

// normalizeScores maps raw backend scores to [0, 1] where 1.0 is the best
// match. A degenerate batch (all scores equal) normalizes to 1.0.
func normalizeScores(hits []vector.Hit, kind vector.ScoreKind) []float64 {
	if len(hits) == 0 {
		return nil
	}

	minScore, maxScore := hits[0].Score, hits[0].Score
	for _, h := range hits[1:] {
		if h.Score < minScore {
			minScore = h.Score
		}
		if h.Score > maxScore {
			maxScore = h.Score
		}
	}

	out := make([]float64, len(hits))
	if maxScore == minScore {
		for i := range out {
			out[i] = 1.0
		}
		return out
	}

	span := maxScore - minScore
	for i, h := range hits {
		norm := (h.Score - minScore) / span
		if kind == vector.ScoreDistance {
			norm = 1 - norm
		}
		out[i] = norm
	}
	return out
}
