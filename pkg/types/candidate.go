package types

// Candidate is a per-query retrieval result. It lives only for the duration
// of one question and carries every score the pipeline computes so that the
// final ranking is fully auditable.
type Candidate struct {
	ID    string  `json:"id"`
	Title string  `json:"title"`
	Year  *int    `json:"year,omitempty"`
	DOI   *string `json:"doi,omitempty"`
	URL   string  `json:"url,omitempty"`

	// VectorScore and KeywordScore are the normalized [0,1] per-backend
	// signals; a candidate absent from one backend carries 0 for it.
	VectorScore  float64 `json:"vector_score"`
	KeywordScore float64 `json:"keyword_score"`

	// BlendedScore = alpha*VectorScore + (1-alpha)*KeywordScore.
	BlendedScore float64 `json:"blended_score"`

	// AdjustedScore is BlendedScore plus the recency bonus.
	AdjustedScore float64 `json:"adjusted_score"`

	// VectorRank is the candidate's position in the vector search result,
	// used as the stable tie-break when blended scores are equal.
	// Candidates missing from the vector result get a rank past the end.
	VectorRank int `json:"-"`
}

// SourceRef is the citation shape returned to API clients.
type SourceRef struct {
	ID    string   `json:"id"`
	Title string   `json:"title"`
	Year  *int     `json:"year,omitempty"`
	DOI   *string  `json:"doi,omitempty"`
	URL   string   `json:"url,omitempty"`
	Score *float64 `json:"score,omitempty"`
}

// Answer is the full question-answering response contract. Empty Sources
// together with a nil Article mean "no relevant documents found" and are a
// valid, non-error outcome.
type Answer struct {
	Text    string         `json:"answer"`
	Sources []SourceRef    `json:"sources"`
	Article *ArticleRecord `json:"article"`
}
