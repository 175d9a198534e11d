package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/astrabio/astrabio"
	"github.com/astrabio/astrabio/pkg/cache"
	"github.com/astrabio/astrabio/pkg/config"
	"github.com/astrabio/astrabio/pkg/embedder"
	"github.com/astrabio/astrabio/pkg/graph"
	"github.com/astrabio/astrabio/pkg/keyword"
	"github.com/astrabio/astrabio/pkg/llm"
	"github.com/astrabio/astrabio/pkg/logger"
	"github.com/astrabio/astrabio/pkg/retriever"
	"github.com/astrabio/astrabio/pkg/server/handlers"
	"github.com/astrabio/astrabio/pkg/store"
	"github.com/astrabio/astrabio/pkg/synthesis"
	"github.com/astrabio/astrabio/pkg/telemetry"
	"github.com/astrabio/astrabio/pkg/types"
	"github.com/astrabio/astrabio/pkg/vector"
)

// components holds everything the commands wire together. Constructed once
// at process start; request handlers receive the already-built services.
type components struct {
	cfg    *config.Config
	logger *slog.Logger

	embed    embedder.Client
	articles *store.MongoStore
	redisVec *vector.RedisStore
	cache    *cache.ArticleCache
	recorder *telemetry.Recorder

	retriever *retriever.HybridRetriever
	graphs    *graph.Engine
	engine    *astrabio.Client
	backends  map[string]handlers.Pinger
}

// buildComponents constructs the service graph. Missing credentials for
// explicitly selected backends fail fast; mere connectivity problems are
// logged and absorbed by the retrieval fallback ladder.
func buildComponents(ctx context.Context, cfg *config.Config) (*components, error) {
	log := logger.New(cfg.Log.Level, cfg.Log.Format)

	c := &components{
		cfg:      cfg,
		logger:   log,
		backends: make(map[string]handlers.Pinger),
	}

	embedClient, err := embedder.NewOpenAIClient(cfg.Embedding)
	if err != nil {
		return nil, fmt.Errorf("failed to create embedding client: %w", err)
	}
	c.embed = embedClient
	if cfg.CircuitBreaker.Enabled {
		c.embed = embedder.NewCircuitBreakerClient(embedClient, cfg.CircuitBreaker, log)
	}

	if mongoStore, err := store.NewMongoStore(ctx, cfg.Mongo); err != nil {
		log.Warn("document store unavailable", "error", err)
	} else {
		c.articles = mongoStore
		c.backends["mongo"] = mongoStore
	}

	tiers := c.buildTiers(ctx)

	if articleCache, err := cache.Open(cfg.Cache.Path); err != nil {
		log.Warn("article cache unavailable", "error", err)
	} else {
		c.cache = articleCache
	}

	timeout := time.Duration(cfg.Retrieval.BackendTimeout) * time.Second
	c.retriever = retriever.New(c.embed, tiers, c.corpusLoader(), cfg.Retrieval.Alpha, timeout, log)

	llmClient, err := llm.NewOpenAIClient(cfg.LLM, log)
	if err != nil {
		return nil, fmt.Errorf("failed to create LLM client: %w", err)
	}
	synth := synthesis.New(llmClient, timeout, log)

	if rec, err := telemetry.NewRecorder(cfg.Telemetry.ParquetPath, log); err != nil {
		log.Warn("telemetry disabled", "error", err)
	} else {
		c.recorder = rec
	}

	c.graphs = graph.NewEngine(log)
	if cfg.Graph.SnapshotPath != "" {
		if _, err := os.Stat(cfg.Graph.SnapshotPath); err == nil {
			if err := c.graphs.LoadSnapshotFile(cfg.Graph.SnapshotPath); err != nil {
				log.Warn("failed to load graph snapshot", "path", cfg.Graph.SnapshotPath, "error", err)
			}
		}
	}

	var articleSource astrabio.ArticleSource
	if c.articles != nil {
		articleSource = c.articles
	}
	c.engine = astrabio.NewClient(c.retriever, synth, articleSource, c.recorder, cfg.Retrieval.YearWeight, log)

	return c, nil
}

// buildTiers assembles the retrieval ladder for the configured backend. The
// in-memory fallback is appended by the retriever itself.
func (c *components) buildTiers(ctx context.Context) []retriever.Tier {
	var tiers []retriever.Tier

	if c.cfg.Retrieval.Backend == "redis" {
		redisStore, err := vector.NewRedisStore(ctx, c.cfg.Redis, c.embed.Dimensions(), c.logger)
		if err != nil {
			c.logger.Warn("redis search unavailable", "error", err)
		} else {
			c.redisVec = redisStore
			c.backends["redis"] = redisStore
			tiers = append(tiers, retriever.Tier{
				Name:    "redis",
				Vector:  redisStore,
				Keyword: keyword.NewRedisIndex(redisStore.Client(), redisStore.IndexName(), redisStore.KeyPrefix()),
			})
		}
	}

	if c.articles != nil && c.cfg.Retrieval.Backend != "memory" {
		tiers = append(tiers, retriever.Tier{
			Name:   "mongo",
			Vector: vector.NewMongoStore(c.articles.Collection(), c.cfg.Mongo.VectorIndex),
		})
	}

	return tiers
}

// corpusLoader feeds the in-memory fallback tier: local cache when present,
// the document store otherwise.
func (c *components) corpusLoader() retriever.CorpusLoader {
	if c.cache != nil {
		articleCache := c.cache
		return func(context.Context) ([]*types.ArticleRecord, error) {
			return articleCache.All()
		}
	}
	if c.articles != nil {
		articles := c.articles
		return func(ctx context.Context) ([]*types.ArticleRecord, error) {
			return articles.FetchAll(ctx)
		}
	}
	return nil
}

// close releases everything buildComponents opened.
func (c *components) close(ctx context.Context) {
	if c.recorder != nil {
		c.recorder.Close()
	}
	if c.cache != nil {
		if err := c.cache.Close(); err != nil {
			c.logger.Warn("failed to close article cache", "error", err)
		}
	}
	if c.redisVec != nil {
		if err := c.redisVec.Close(); err != nil {
			c.logger.Warn("failed to close redis client", "error", err)
		}
	}
	if c.articles != nil {
		if err := c.articles.Close(ctx); err != nil {
			c.logger.Warn("failed to disconnect document store", "error", err)
		}
	}
}
