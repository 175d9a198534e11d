package types

import (
	"fmt"
	"strings"
	"time"
)

// ArticleRecord is one enriched scientific article. It is created by the
// enrichment pipeline, persisted once, and may be re-upserted in place when
// an article is re-enriched. A record is either absent or fully present:
// optional collections are empty slices, never nil-vs-absent ambiguity, and
// optional scalars are explicit pointers.
type ArticleRecord struct {
	ExperimentID string  `bson:"experiment_id" json:"experiment_id"`
	Title        string  `bson:"title,omitempty" json:"title,omitempty"`
	Abstract     string  `bson:"abstract,omitempty" json:"abstract,omitempty"`
	SummaryEn    string  `bson:"summary_en,omitempty" json:"summary_en,omitempty"`
	Year         *int    `bson:"year,omitempty" json:"year,omitempty"`
	DOI          *string `bson:"doi,omitempty" json:"doi,omitempty"`
	PMID         *string `bson:"pmid,omitempty" json:"pmid,omitempty"`
	Journal      string  `bson:"journal,omitempty" json:"journal,omitempty"`

	Authors      []string `bson:"authors,omitempty" json:"authors,omitempty"`
	Institutions []string `bson:"institutions,omitempty" json:"institutions,omitempty"`
	Organisms    []string `bson:"organisms,omitempty" json:"organisms,omitempty"`
	Funding      []string `bson:"funding,omitempty" json:"funding,omitempty"`

	Objectives          []string `bson:"objectives,omitempty" json:"objectives,omitempty"`
	Hypotheses          []string `bson:"hypotheses,omitempty" json:"hypotheses,omitempty"`
	Conditions          []string `bson:"conditions,omitempty" json:"conditions,omitempty"`
	Methods             []string `bson:"methods,omitempty" json:"methods,omitempty"`
	ParametersMeasured  []string `bson:"parameters_measured,omitempty" json:"parameters_measured,omitempty"`
	ResultsSummary      string   `bson:"results_summary,omitempty" json:"results_summary,omitempty"`
	SignificantFindings []string `bson:"significant_findings,omitempty" json:"significant_findings,omitempty"`
	Implications        []string `bson:"implications,omitempty" json:"implications,omitempty"`
	Limitations         []string `bson:"limitations,omitempty" json:"limitations,omitempty"`
	FutureDirections    []string `bson:"future_directions,omitempty" json:"future_directions,omitempty"`
	Duration            *string  `bson:"duration,omitempty" json:"duration,omitempty"`
	SampleSize          *int     `bson:"sample_size,omitempty" json:"sample_size,omitempty"`
	Citations           *int     `bson:"citations,omitempty" json:"citations,omitempty"`
	MeshTerms           []string `bson:"mesh_terms,omitempty" json:"mesh_terms,omitempty"`

	// Embedding is the vector for PrimaryText, regenerated whenever the
	// source text changes. It is owned by this record and never shared.
	Embedding []float32 `bson:"embedding,omitempty" json:"-"`

	CreatedAt time.Time `bson:"created_at,omitempty" json:"created_at,omitempty"`
	UpdatedAt time.Time `bson:"updated_at,omitempty" json:"updated_at,omitempty"`
}

// PrimaryText returns the text the article's embedding is computed from.
func (a *ArticleRecord) PrimaryText() string {
	switch {
	case a.Title != "" && a.Abstract != "":
		return a.Title + "\n\n" + a.Abstract
	case a.Title != "":
		return a.Title
	default:
		return a.Abstract
	}
}

// URL derives the canonical PMC article URL from the experiment ID.
// Returns an empty string when the record has no ID.
func (a *ArticleRecord) URL() string {
	if a.ExperimentID == "" {
		return ""
	}
	return fmt.Sprintf("https://www.ncbi.nlm.nih.gov/pmc/articles/%s/", a.ExperimentID)
}

// Normalize ensures all optional collections are non-nil so that callers
// and serializers never have to distinguish nil from empty.
func (a *ArticleRecord) Normalize() {
	ensure := func(s *[]string) {
		if *s == nil {
			*s = []string{}
		}
	}
	ensure(&a.Authors)
	ensure(&a.Institutions)
	ensure(&a.Organisms)
	ensure(&a.Funding)
	ensure(&a.Objectives)
	ensure(&a.Hypotheses)
	ensure(&a.Conditions)
	ensure(&a.Methods)
	ensure(&a.ParametersMeasured)
	ensure(&a.SignificantFindings)
	ensure(&a.Implications)
	ensure(&a.Limitations)
	ensure(&a.FutureDirections)
	ensure(&a.MeshTerms)
}

// SynthesisContext renders the high-signal structured fields as a labelled
// text block for the synthesis prompt.
func (a *ArticleRecord) SynthesisContext() string {
	var parts []string

	add := func(label, value string) {
		if value != "" {
			parts = append(parts, label+": "+value)
		}
	}
	addList := func(label string, values []string, sep string) {
		if len(values) > 0 {
			parts = append(parts, label+": "+strings.Join(values, sep))
		}
	}

	add("TITLE", a.Title)
	addList("AUTHORS", a.Authors, ", ")
	add("ABSTRACT", a.Abstract)
	addList("OBJECTIVES", a.Objectives, "; ")
	addList("HYPOTHESES", a.Hypotheses, "; ")
	addList("METHODS", a.Methods, "; ")
	add("RESULTS", a.ResultsSummary)
	addList("KEY FINDINGS", a.SignificantFindings, "; ")
	addList("IMPLICATIONS", a.Implications, "; ")
	addList("FUTURE DIRECTIONS", a.FutureDirections, "; ")

	return strings.Join(parts, "\n")
}
