package vector

import (
	"bytes"
	"context"
	"encoding/binary"
	"encoding/json"
	"fmt"
	"log/slog"
	"math"
	"strconv"
	"strings"

	"github.com/redis/go-redis/v9"

	"github.com/astrabio/astrabio/pkg/config"
	"github.com/astrabio/astrabio/pkg/types"
)

// RedisStore keeps article payloads as RedisJSON documents and serves KNN
// queries through a RediSearch FLAT index with cosine distance.
type RedisStore struct {
	client    *redis.Client
	indexName string
	keyPrefix string
	dims      int
	logger    *slog.Logger
}

// redisArticle is the JSON document stored per article. The embedding is
// indexed as a FLOAT32 vector field; the rest are payload for search hits.
type redisArticle struct {
	Title     string    `json:"title"`
	Abstract  string    `json:"abstract"`
	Year      *int      `json:"year,omitempty"`
	DOI       *string   `json:"doi,omitempty"`
	Embedding []float32 `json:"embedding"`
}

// NewRedisStore connects to Redis and ensures the search index exists.
func NewRedisStore(ctx context.Context, cfg config.RedisConfig, dims int, logger *slog.Logger) (*RedisStore, error) {
	opts, err := redis.ParseURL(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("invalid redis url: %w", err)
	}
	if cfg.Username != "" {
		opts.Username = cfg.Username
	}
	if cfg.Password != "" {
		opts.Password = cfg.Password
	}

	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}

	s := &RedisStore{
		client:    client,
		indexName: cfg.IndexName,
		keyPrefix: cfg.KeyPrefix,
		dims:      dims,
		logger:    logger,
	}

	if err := s.ensureIndex(ctx); err != nil {
		return nil, err
	}

	return s, nil
}

// Client exposes the underlying connection so the keyword index can share it.
func (s *RedisStore) Client() *redis.Client { return s.client }

// IndexName returns the search index this store writes to.
func (s *RedisStore) IndexName() string { return s.indexName }

// KeyPrefix returns the key prefix articles are stored under.
func (s *RedisStore) KeyPrefix() string { return s.keyPrefix }

func (s *RedisStore) ensureIndex(ctx context.Context) error {
	if err := s.client.FTInfo(ctx, s.indexName).Err(); err == nil {
		return nil
	}

	err := s.client.FTCreate(ctx, s.indexName,
		&redis.FTCreateOptions{
			OnJSON: true,
			Prefix: []interface{}{s.keyPrefix},
		},
		&redis.FieldSchema{FieldName: "$.title", As: "title", FieldType: redis.SearchFieldTypeText},
		&redis.FieldSchema{FieldName: "$.abstract", As: "abstract", FieldType: redis.SearchFieldTypeText},
		&redis.FieldSchema{FieldName: "$.year", As: "year", FieldType: redis.SearchFieldTypeNumeric},
		&redis.FieldSchema{FieldName: "$.doi", As: "doi", FieldType: redis.SearchFieldTypeTag},
		&redis.FieldSchema{
			FieldName: "$.embedding",
			As:        "embedding",
			FieldType: redis.SearchFieldTypeVector,
			VectorArgs: &redis.FTVectorArgs{
				FlatOptions: &redis.FTFlatOptions{
					Type:           "FLOAT32",
					Dim:            s.dims,
					DistanceMetric: "COSINE",
				},
			},
		},
	).Err()
	if err != nil && !strings.Contains(err.Error(), "Index already exists") {
		return fmt.Errorf("failed to create search index: %w", err)
	}

	return nil
}

// Upsert implements Store.
func (s *RedisStore) Upsert(ctx context.Context, records []*types.ArticleRecord) error {
	for _, rec := range records {
		if rec.ExperimentID == "" {
			continue
		}

		doc := redisArticle{
			Title:     rec.Title,
			Abstract:  rec.Abstract,
			Year:      rec.Year,
			DOI:       rec.DOI,
			Embedding: rec.Embedding,
		}
		data, err := json.Marshal(doc)
		if err != nil {
			return fmt.Errorf("failed to marshal article %s: %w", rec.ExperimentID, err)
		}

		key := s.keyPrefix + rec.ExperimentID
		if err := s.client.JSONSet(ctx, key, "$", string(data)).Err(); err != nil {
			return fmt.Errorf("%w: JSON.SET %s: %v", ErrUnavailable, key, err)
		}
	}
	return nil
}

// Search implements Store. Scores are cosine distances (smaller is better).
func (s *RedisStore) Search(ctx context.Context, vector []float32, topK int) ([]Hit, error) {
	query := fmt.Sprintf("*=>[KNN %d @embedding $vec AS score]", topK)

	res, err := s.client.FTSearchWithArgs(ctx, s.indexName, query, &redis.FTSearchOptions{
		Return: []redis.FTSearchReturn{
			{FieldName: "title"},
			{FieldName: "year"},
			{FieldName: "doi"},
			{FieldName: "score"},
		},
		SortBy:         []redis.FTSearchSortBy{{FieldName: "score", Asc: true}},
		Limit:          topK,
		Params:         map[string]interface{}{"vec": encodeVector(vector)},
		DialectVersion: 2,
	}).Result()
	if err != nil {
		return nil, fmt.Errorf("%w: knn search: %v", ErrUnavailable, err)
	}

	hits := make([]Hit, 0, len(res.Docs))
	for _, doc := range res.Docs {
		hit := Hit{ID: strings.TrimPrefix(doc.ID, s.keyPrefix)}

		if title, ok := doc.Fields["title"]; ok {
			hit.Title = title
		}
		if yearStr, ok := doc.Fields["year"]; ok && yearStr != "" {
			if year, err := strconv.Atoi(yearStr); err == nil {
				hit.Year = &year
			}
		}
		if doi, ok := doc.Fields["doi"]; ok && doi != "" {
			hit.DOI = &doi
		}
		if scoreStr, ok := doc.Fields["score"]; ok {
			if score, err := strconv.ParseFloat(scoreStr, 64); err == nil && !math.IsNaN(score) {
				hit.Score = score
			}
		}

		hits = append(hits, hit)
	}

	return hits, nil
}

// ScoreKind implements Store: Redis KNN returns cosine distances.
func (s *RedisStore) ScoreKind() ScoreKind { return ScoreDistance }

// Ping implements Store.
func (s *RedisStore) Ping(ctx context.Context) error {
	if err := s.client.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	return nil
}

// Close releases the Redis connection.
func (s *RedisStore) Close() error {
	return s.client.Close()
}

// encodeVector packs a float32 slice into the little-endian byte blob the
// RediSearch KNN parameter expects.
func encodeVector(vector []float32) []byte {
	buf := new(bytes.Buffer)
	for _, v := range vector {
		_ = binary.Write(buf, binary.LittleEndian, v)
	}
	return buf.Bytes()
}
