// Package enrich extracts structured metadata from article text through an
// LLM. Malformed model output is repaired where possible and otherwise
// degraded to an empty extraction, never a request failure.
package enrich

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"

	jsonrepair "github.com/kaptinlin/jsonrepair"

	"github.com/astrabio/astrabio/pkg/llm"
	"github.com/astrabio/astrabio/pkg/types"
)

// payloadLogLimit bounds how much of a malformed payload is logged.
const payloadLogLimit = 500

const extractionSystemPrompt = "You are a scientific metadata extraction system. You respond only with JSON."

const extractionPromptTemplate = `Extract structured metadata from the scientific article below.

Respond with a single JSON object using exactly these keys (use empty lists or null when information is absent):
{
  "authors": [], "institutions": [], "organisms": [], "journal": null,
  "year": null, "doi": null, "objectives": [], "hypotheses": [],
  "conditions": [], "methods": [], "parameters_measured": [],
  "results_summary": null, "significant_findings": [], "implications": [],
  "limitations": [], "future_directions": [], "duration": null,
  "sample_size": null, "mesh_terms": [], "funding": []
}

TITLE: %s

TEXT:
%s`

// extraction mirrors the JSON object requested from the model.
type extraction struct {
	Authors            []string `json:"authors"`
	Institutions       []string `json:"institutions"`
	Organisms          []string `json:"organisms"`
	Journal            *string  `json:"journal"`
	Year               *int     `json:"year"`
	DOI                *string  `json:"doi"`
	Objectives         []string `json:"objectives"`
	Hypotheses         []string `json:"hypotheses"`
	Conditions         []string `json:"conditions"`
	Methods            []string `json:"methods"`
	ParametersMeasured []string `json:"parameters_measured"`
	ResultsSummary     *string  `json:"results_summary"`
	Findings           []string `json:"significant_findings"`
	Implications       []string `json:"implications"`
	Limitations        []string `json:"limitations"`
	FutureDirections   []string `json:"future_directions"`
	Duration           *string  `json:"duration"`
	SampleSize         *int     `json:"sample_size"`
	MeshTerms          []string `json:"mesh_terms"`
	Funding            []string `json:"funding"`
}

// Extractor enriches articles with structured fields.
type Extractor struct {
	client llm.Client
	logger *slog.Logger
}

// NewExtractor creates an Extractor.
func NewExtractor(client llm.Client, logger *slog.Logger) *Extractor {
	return &Extractor{client: client, logger: logger}
}

// Enrich fills the structured fields of rec from its title and abstract.
// An unusable model response leaves rec unchanged and returns nil; only
// transport-level failures are returned as errors.
func (e *Extractor) Enrich(ctx context.Context, rec *types.ArticleRecord) error {
	prompt := fmt.Sprintf(extractionPromptTemplate, rec.Title, rec.Abstract)

	response, err := e.client.Complete(ctx, extractionSystemPrompt, prompt)
	if err != nil {
		return fmt.Errorf("extraction request failed: %w", err)
	}

	ext, ok := e.parse(response)
	if !ok {
		return nil
	}
	apply(rec, ext)
	return nil
}

// parse decodes the model response, repairing malformed JSON and falling
// back to the first object-shaped substring before giving up.
func (e *Extractor) parse(response string) (*extraction, bool) {
	repaired, err := jsonrepair.JSONRepair(response)
	if err != nil {
		repaired = response
	}

	var ext extraction
	if err := json.Unmarshal([]byte(repaired), &ext); err == nil {
		return &ext, true
	}

	start := strings.Index(repaired, "{")
	end := strings.LastIndex(repaired, "}")
	if start != -1 && end > start {
		if err := json.Unmarshal([]byte(repaired[start:end+1]), &ext); err == nil {
			return &ext, true
		}
	}

	e.logger.Warn("discarding malformed extraction response",
		"payload", truncate(response, payloadLogLimit))
	return nil, false
}

func apply(rec *types.ArticleRecord, ext *extraction) {
	rec.Authors = ext.Authors
	rec.Institutions = ext.Institutions
	rec.Organisms = ext.Organisms
	rec.Objectives = ext.Objectives
	rec.Hypotheses = ext.Hypotheses
	rec.Conditions = ext.Conditions
	rec.Methods = ext.Methods
	rec.ParametersMeasured = ext.ParametersMeasured
	rec.SignificantFindings = ext.Findings
	rec.Implications = ext.Implications
	rec.Limitations = ext.Limitations
	rec.FutureDirections = ext.FutureDirections
	rec.MeshTerms = ext.MeshTerms
	rec.Funding = ext.Funding

	if ext.Journal != nil {
		rec.Journal = *ext.Journal
	}
	if ext.Year != nil {
		rec.Year = ext.Year
	}
	if ext.DOI != nil {
		rec.DOI = ext.DOI
	}
	if ext.ResultsSummary != nil {
		rec.ResultsSummary = *ext.ResultsSummary
	}
	if ext.Duration != nil {
		rec.Duration = ext.Duration
	}
	if ext.SampleSize != nil {
		rec.SampleSize = ext.SampleSize
	}

	rec.Normalize()
}

func truncate(s string, limit int) string {
	if len(s) <= limit {
		return s
	}
	return s[:limit] + "..."
}
