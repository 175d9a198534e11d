// Package retriever implements hybrid article retrieval: dense vector search
// and keyword search blended into one ranked list, with a ladder of fallback
// tiers so a degraded deployment still answers questions.
package retriever

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/astrabio/astrabio/pkg/embedder"
	"github.com/astrabio/astrabio/pkg/keyword"
	"github.com/astrabio/astrabio/pkg/types"
	"github.com/astrabio/astrabio/pkg/vector"
)

// ErrNoBackends is returned when every retrieval tier failed for a query.
var ErrNoBackends = errors.New("no retrieval backend available")

// Tier pairs a vector store with a keyword index under one name. Tiers are
// tried in order; a component failure inside a tier is absorbed and the tier
// serves whatever the other component returned. Retrieval moves to the next
// tier only when both components of the current one failed.
type Tier struct {
	Name    string
	Vector  vector.Store
	Keyword keyword.Index
}

// CorpusLoader supplies the article corpus for the lazily-built in-memory
// tier, typically from the local cache.
type CorpusLoader func(ctx context.Context) ([]*types.ArticleRecord, error)

// Result is a ranked candidate list plus the tier that produced it.
type Result struct {
	Candidates []types.Candidate
	Tier       string
}

// HybridRetriever runs hybrid retrieval over a fallback ladder of tiers.
// The last rung is an in-process tier built once, on first use, from the
// local article cache.
type HybridRetriever struct {
	embed   embedder.Client
	tiers   []Tier
	loader  CorpusLoader
	alpha   float64
	timeout time.Duration
	logger  *slog.Logger

	mu      sync.Mutex
	memOnce *sync.Once
	memTier *Tier
	memErr  error
}

// New creates a retriever over the given tier ladder. loader may be nil, in
// which case no in-memory fallback is built.
func New(embed embedder.Client, tiers []Tier, loader CorpusLoader, alpha float64, timeout time.Duration, logger *slog.Logger) *HybridRetriever {
	return &HybridRetriever{
		embed:   embed,
		tiers:   tiers,
		loader:  loader,
		alpha:   alpha,
		timeout: timeout,
		logger:  logger,
		memOnce: new(sync.Once),
	}
}

// Retrieve embeds the question, walks the tier ladder, and returns blended
// candidates from the first tier that responds.
func (r *HybridRetriever) Retrieve(ctx context.Context, question string, topK int) (*Result, error) {
	queryVec, embedErr := r.embedQuery(ctx, question)
	if embedErr != nil {
		// Keyword-only degradation: tiers still run without the
		// vector component.
		r.logger.Warn("query embedding failed, falling back to keyword-only retrieval", "error", embedErr)
	}

	for _, tier := range r.allTiers(ctx) {
		candidates, err := r.searchTier(ctx, tier, queryVec, question, topK)
		if err != nil {
			r.logger.Warn("retrieval tier failed", "tier", tier.Name, "error", err)
			continue
		}
		return &Result{Candidates: candidates, Tier: tier.Name}, nil
	}

	return nil, ErrNoBackends
}

// Reconnect discards the lazily-built in-memory tier so the next query that
// needs it rebuilds from the current cache contents.
func (r *HybridRetriever) Reconnect() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.memOnce = new(sync.Once)
	r.memTier = nil
	r.memErr = nil
}

func (r *HybridRetriever) embedQuery(ctx context.Context, question string) ([]float32, error) {
	cctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()
	return r.embed.Embed(cctx, question)
}

// allTiers returns the configured ladder plus the in-memory tier, built on
// first use.
func (r *HybridRetriever) allTiers(ctx context.Context) []Tier {
	tiers := make([]Tier, len(r.tiers))
	copy(tiers, r.tiers)

	if mem := r.memoryTier(ctx); mem != nil {
		tiers = append(tiers, *mem)
	}
	return tiers
}

func (r *HybridRetriever) memoryTier(ctx context.Context) *Tier {
	if r.loader == nil {
		return nil
	}

	r.mu.Lock()
	once := r.memOnce
	r.mu.Unlock()

	once.Do(func() {
		tier, err := r.buildMemoryTier(ctx)
		r.mu.Lock()
		r.memTier, r.memErr = tier, err
		r.mu.Unlock()
	})

	r.mu.Lock()
	defer r.mu.Unlock()
	if r.memErr != nil {
		r.logger.Warn("in-memory tier unavailable", "error", r.memErr)
		return nil
	}
	return r.memTier
}

func (r *HybridRetriever) buildMemoryTier(ctx context.Context) (*Tier, error) {
	records, err := r.loader(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load fallback corpus: %w", err)
	}
	if len(records) == 0 {
		return nil, errors.New("fallback corpus is empty")
	}

	r.backfillEmbeddings(ctx, records)

	store := vector.NewMemoryStore()
	if err := store.Upsert(ctx, records); err != nil {
		return nil, fmt.Errorf("failed to index fallback corpus: %w", err)
	}
	idx := keyword.NewTFIDFIndex(records)

	r.logger.Info("built in-memory retrieval tier", "articles", len(records))
	return &Tier{Name: "memory", Vector: store, Keyword: idx}, nil
}

// backfillEmbeddings embeds articles that reached the cache without a vector,
// so they are searchable by the in-memory tier's vector component too. On
// embedding failure those articles stay keyword-only.
func (r *HybridRetriever) backfillEmbeddings(ctx context.Context, records []*types.ArticleRecord) {
	var (
		missing []*types.ArticleRecord
		texts   []string
	)
	for _, rec := range records {
		if rec.ExperimentID == "" || len(rec.Embedding) > 0 {
			continue
		}
		missing = append(missing, rec)
		texts = append(texts, rec.PrimaryText())
	}
	if len(missing) == 0 {
		return
	}

	cctx, cancel := context.WithTimeout(ctx, r.timeout)
	vectors, err := r.embed.EmbedBatch(cctx, texts)
	cancel()
	if err != nil {
		r.logger.Warn("failed to embed cached articles, keeping them keyword-only",
			"articles", len(missing), "error", err)
		return
	}

	for i, rec := range missing {
		if i >= len(vectors) {
			break
		}
		rec.Embedding = vectors[i]
	}
	r.logger.Info("backfilled embeddings for cached articles", "articles", len(missing))
}

// searchTier runs both components of one tier and blends them. A failure in
// either component is absorbed as zero results from that component; the tier
// itself fails only when neither component answered.
func (r *HybridRetriever) searchTier(ctx context.Context, tier Tier, queryVec []float32, question string, topK int) ([]types.Candidate, error) {
	var (
		vectorHits []vector.Hit
		kind       vector.ScoreKind
		vectorOK   bool
	)

	if queryVec != nil {
		cctx, cancel := context.WithTimeout(ctx, r.timeout)
		hits, err := tier.Vector.Search(cctx, queryVec, topK)
		cancel()
		if err != nil {
			r.logger.Warn("vector search failed, using keyword results only",
				"tier", tier.Name, "error", err)
		} else {
			vectorHits = hits
			kind = tier.Vector.ScoreKind()
			vectorOK = true
		}
	}

	var keywordHits []keyword.Hit
	keywordOK := false
	if tier.Keyword != nil {
		cctx, cancel := context.WithTimeout(ctx, r.timeout)
		hits, err := tier.Keyword.Search(cctx, question, topK)
		cancel()
		if err != nil {
			r.logger.Warn("keyword search failed, using vector results only",
				"tier", tier.Name, "error", err)
		} else {
			keywordHits = hits
			keywordOK = true
		}
	}

	if !vectorOK && !keywordOK {
		return nil, fmt.Errorf("tier %s produced no results: %w", tier.Name, ErrNoBackends)
	}

	return Blend(vectorHits, kind, keywordHits, r.alpha, topK), nil
}
