package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/astrabio/astrabio/pkg/cache"
	"github.com/astrabio/astrabio/pkg/config"
	"github.com/astrabio/astrabio/pkg/embedder"
	"github.com/astrabio/astrabio/pkg/enrich"
	"github.com/astrabio/astrabio/pkg/llm"
	"github.com/astrabio/astrabio/pkg/logger"
	"github.com/astrabio/astrabio/pkg/store"
	"github.com/astrabio/astrabio/pkg/types"
	"github.com/astrabio/astrabio/pkg/vector"
)

var ingestCmd = &cobra.Command{
	Use:   "ingest <articles.json>",
	Short: "Ingest articles into the document store and search backends",
	Long: `Ingest reads a JSON array of article records, optionally enriches them
with structured fields extracted by the LLM, embeds their primary text, and
upserts them into the document store, the vector index, and the local cache.
Re-ingesting an article replaces its stored record in place.`,
	Args: cobra.ExactArgs(1),
	RunE: runIngest,
}

func init() {
	ingestCmd.Flags().Bool("enrich", false, "run LLM enrichment on each article before storing")
	ingestCmd.Flags().Int("batch-size", 32, "embedding batch size")

	rootCmd.AddCommand(ingestCmd)
}

func runIngest(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	enrichFlag, _ := cmd.Flags().GetBool("enrich")
	batchSize, _ := cmd.Flags().GetInt("batch-size")
	if batchSize < 1 {
		batchSize = 1
	}

	log := logger.New(cfg.Log.Level, cfg.Log.Format)
	ctx := context.Background()

	records, err := readArticles(args[0])
	if err != nil {
		return err
	}
	if len(records) == 0 {
		log.Info("nothing to ingest")
		return nil
	}

	embedClient, err := embedder.NewOpenAIClient(cfg.Embedding)
	if err != nil {
		return fmt.Errorf("failed to create embedding client: %w", err)
	}

	articles, err := store.NewMongoStore(ctx, cfg.Mongo)
	if err != nil {
		return fmt.Errorf("failed to connect to document store: %w", err)
	}
	defer articles.Close(ctx)

	var redisStore *vector.RedisStore
	if cfg.Retrieval.Backend == "redis" {
		redisStore, err = vector.NewRedisStore(ctx, cfg.Redis, embedClient.Dimensions(), log)
		if err != nil {
			return fmt.Errorf("failed to connect to redis search: %w", err)
		}
		defer redisStore.Close()
	}

	if enrichFlag {
		llmClient, err := llm.NewOpenAIClient(cfg.LLM, log)
		if err != nil {
			return fmt.Errorf("failed to create LLM client: %w", err)
		}
		extractor := enrich.NewExtractor(llmClient, log)
		for _, rec := range records {
			if err := extractor.Enrich(ctx, rec); err != nil {
				return fmt.Errorf("failed to enrich article %s: %w", rec.ExperimentID, err)
			}
		}
	}

	for start := 0; start < len(records); start += batchSize {
		end := start + batchSize
		if end > len(records) {
			end = len(records)
		}
		batch := records[start:end]

		texts := make([]string, len(batch))
		for i, rec := range batch {
			texts[i] = embedder.Truncate(rec.PrimaryText(), cfg.Embedding.MaxChars)
		}
		vectors, err := embedClient.EmbedBatch(ctx, texts)
		if err != nil {
			return fmt.Errorf("failed to embed batch: %w", err)
		}
		for i, rec := range batch {
			rec.Embedding = vectors[i]
		}

		if err := articles.Upsert(ctx, batch); err != nil {
			return fmt.Errorf("failed to upsert articles: %w", err)
		}
		if redisStore != nil {
			if err := redisStore.Upsert(ctx, batch); err != nil {
				return fmt.Errorf("failed to index articles in redis: %w", err)
			}
		}
		log.Info("ingested batch", "from", start, "to", end, "total", len(records))
	}

	if articleCache, err := cache.Open(cfg.Cache.Path); err != nil {
		log.Warn("skipping local cache update", "error", err)
	} else {
		defer articleCache.Close()
		if err := articleCache.Put(records); err != nil {
			log.Warn("failed to update local cache", "error", err)
		}
	}

	log.Info("ingest complete", "articles", len(records))
	return nil
}

func readArticles(path string) ([]*types.ArticleRecord, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read input file: %w", err)
	}

	var records []*types.ArticleRecord
	if err := json.Unmarshal(data, &records); err != nil {
		return nil, fmt.Errorf("failed to parse input file: %w", err)
	}
	for _, rec := range records {
		rec.Normalize()
	}
	return records, nil
}
