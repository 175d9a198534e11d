package keyword

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"github.com/redis/go-redis/v9"
)

// PresenceScore is the flat score assigned to every full-text match. The
// Redis index reports presence, not relevance, so the blender gets a
// constant text component for matched articles.
const PresenceScore = 0.5

var termPattern = regexp.MustCompile(`[\p{L}\p{N}]+`)

// RedisIndex runs full-text queries against the same RediSearch index the
// Redis vector store maintains, matching on title and abstract fields.
type RedisIndex struct {
	client    *redis.Client
	indexName string
	keyPrefix string
}

// NewRedisIndex wraps an existing Redis connection and search index.
func NewRedisIndex(client *redis.Client, indexName, keyPrefix string) *RedisIndex {
	return &RedisIndex{client: client, indexName: indexName, keyPrefix: keyPrefix}
}

// Search implements Index. Query text is reduced to bare terms before being
// handed to the query language, so user punctuation cannot break the syntax.
func (idx *RedisIndex) Search(ctx context.Context, query string, topK int) ([]Hit, error) {
	terms := termPattern.FindAllString(query, -1)
	if len(terms) == 0 {
		return nil, nil
	}

	q := fmt.Sprintf("@title|abstract:(%s)", strings.Join(terms, " "))
	res, err := idx.client.FTSearchWithArgs(ctx, idx.indexName, q, &redis.FTSearchOptions{
		NoContent:      true,
		Limit:          topK,
		DialectVersion: 2,
	}).Result()
	if err != nil {
		return nil, fmt.Errorf("%w: full-text search: %v", ErrUnavailable, err)
	}

	hits := make([]Hit, 0, len(res.Docs))
	for _, doc := range res.Docs {
		hits = append(hits, Hit{
			ID:    strings.TrimPrefix(doc.ID, idx.keyPrefix),
			Score: PresenceScore,
		})
	}
	return hits, nil
}
