package astrabio

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/astrabio/astrabio/pkg/retriever"
	"github.com/astrabio/astrabio/pkg/synthesis"
	"github.com/astrabio/astrabio/pkg/telemetry"
	"github.com/astrabio/astrabio/pkg/types"
)

// Question bounds enforced by Answer.
const (
	MinQuestionLength = 3
	MinTopK           = 1
	MaxTopK           = 20
	DefaultTopK       = 5
)

// ErrQuestionTooShort is returned for questions under the minimum length.
var ErrQuestionTooShort = errors.New("question is too short")

// Engine answers questions about the article corpus.
type Engine interface {
	// Answer runs the retrieve, rerank, synthesize, assemble pipeline.
	// Empty sources with a nil article is the valid "nothing relevant
	// found" outcome, never an error.
	Answer(ctx context.Context, question string, topK int) (*types.Answer, error)
}

// ArticleSource fetches full article records for answer assembly.
type ArticleSource interface {
	Get(ctx context.Context, experimentID string) (*types.ArticleRecord, error)
}

// Client is the production Engine. It is constructed once at process start
// and handed to request handlers; per-question state lives entirely on the
// stack of each Answer call.
type Client struct {
	retriever   *retriever.HybridRetriever
	synthesizer *synthesis.Synthesizer
	articles    ArticleSource
	recorder    *telemetry.Recorder
	yearWeight  float64
	logger      *slog.Logger
}

// NewClient wires the answering pipeline. articles and recorder may be nil;
// the pipeline then assembles answers from retrieval payloads alone and
// skips event recording.
func NewClient(
	ret *retriever.HybridRetriever,
	synth *synthesis.Synthesizer,
	articles ArticleSource,
	recorder *telemetry.Recorder,
	yearWeight float64,
	logger *slog.Logger,
) *Client {
	return &Client{
		retriever:   ret,
		synthesizer: synth,
		articles:    articles,
		recorder:    recorder,
		yearWeight:  yearWeight,
		logger:      logger,
	}
}

// Answer implements Engine.
func (c *Client) Answer(ctx context.Context, question string, topK int) (*types.Answer, error) {
	if len(question) < MinQuestionLength {
		return nil, ErrQuestionTooShort
	}
	topK = clampTopK(topK)

	start := time.Now()
	result, err := c.retriever.Retrieve(ctx, question, topK)
	if err != nil {
		// Exhausted ladder: degrade to the no-results answer rather
		// than failing the request.
		c.logger.Warn("retrieval exhausted all tiers", "error", err)
		c.record("", topK, 0, start, true)
		return noResults(question), nil
	}

	candidates := retriever.Rerank(result.Candidates, c.yearWeight)
	c.record(result.Tier, topK, len(candidates), start, false)

	if len(candidates) == 0 {
		return noResults(question), nil
	}

	records := c.hydrate(ctx, candidates)
	answerText := c.synthesizer.Synthesize(ctx, question, contextDocs(candidates, records))

	return assemble(answerText, candidates, records), nil
}

func clampTopK(topK int) int {
	switch {
	case topK == 0:
		return DefaultTopK
	case topK < MinTopK:
		return MinTopK
	case topK > MaxTopK:
		return MaxTopK
	}
	return topK
}

func noResults(question string) *types.Answer {
	return &types.Answer{
		Text:    synthesis.NoResultsAnswer(question),
		Sources: []types.SourceRef{},
		Article: nil,
	}
}

// hydrate fetches full records for the candidates, best effort: a missing
// or unreachable record leaves a nil slot and the pipeline falls back to
// retrieval payloads for that candidate.
func (c *Client) hydrate(ctx context.Context, candidates []types.Candidate) []*types.ArticleRecord {
	records := make([]*types.ArticleRecord, len(candidates))
	if c.articles == nil {
		return records
	}

	for i, cand := range candidates {
		rec, err := c.articles.Get(ctx, cand.ID)
		if err != nil {
			c.logger.Warn("failed to hydrate article", "id", cand.ID, "error", err)
			continue
		}
		records[i] = rec
	}
	return records
}

// contextDocs renders each candidate as a synthesis context block, using
// the full structured record when available and the retrieval payload
// otherwise.
func contextDocs(candidates []types.Candidate, records []*types.ArticleRecord) []string {
	docs := make([]string, 0, len(candidates))
	for i, cand := range candidates {
		if records[i] != nil {
			docs = append(docs, records[i].SynthesisContext())
			continue
		}
		if cand.Title != "" {
			docs = append(docs, "TITLE: "+cand.Title)
		}
	}
	return docs
}

// assemble packages the answer text, ranked sources, and the best full
// record into the response contract.
func assemble(answerText string, candidates []types.Candidate, records []*types.ArticleRecord) *types.Answer {
	sources := make([]types.SourceRef, 0, len(candidates))
	for i, cand := range candidates {
		ref := types.SourceRef{
			ID:    cand.ID,
			Title: cand.Title,
			Year:  cand.Year,
			DOI:   cand.DOI,
			URL:   pmcURL(cand.ID),
		}
		score := cand.AdjustedScore
		ref.Score = &score

		if rec := records[i]; rec != nil {
			if ref.Title == "" {
				ref.Title = rec.Title
			}
			if ref.Year == nil {
				ref.Year = rec.Year
			}
			if ref.DOI == nil {
				ref.DOI = rec.DOI
			}
		}
		sources = append(sources, ref)
	}

	return &types.Answer{
		Text:    answerText,
		Sources: sources,
		Article: records[0],
	}
}

func pmcURL(experimentID string) string {
	if experimentID == "" {
		return ""
	}
	return "https://www.ncbi.nlm.nih.gov/pmc/articles/" + experimentID + "/"
}

func (c *Client) record(tier string, topK, count int, start time.Time, failed bool) {
	if c.recorder == nil {
		return
	}
	c.recorder.Record(telemetry.RetrievalEvent{
		Tier:           tier,
		TopK:           topK,
		CandidateCount: count,
		DurationMs:     time.Since(start).Milliseconds(),
		Failed:         failed,
	})
}
