package vector

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"

	"github.com/astrabio/astrabio/pkg/types"
)

// MongoStore serves nearest-neighbor queries through an Atlas Vector Search
// index over the article collection. It shares the collection with the
// document store, so Upsert writes full article records.
type MongoStore struct {
	coll      *mongo.Collection
	indexName string
}

// NewMongoStore wraps an article collection carrying a vector search index.
func NewMongoStore(coll *mongo.Collection, indexName string) *MongoStore {
	return &MongoStore{coll: coll, indexName: indexName}
}

// Upsert implements Store. Records are replaced by experiment ID so repeated
// ingestion of the same article is idempotent.
func (s *MongoStore) Upsert(ctx context.Context, records []*types.ArticleRecord) error {
	for _, rec := range records {
		if rec.ExperimentID == "" {
			continue
		}
		rec.UpdatedAt = time.Now().UTC()

		filter := bson.D{{Key: "experiment_id", Value: rec.ExperimentID}}
		_, err := s.coll.ReplaceOne(ctx, filter, rec, options.Replace().SetUpsert(true))
		if err != nil {
			return fmt.Errorf("%w: replace %s: %v", ErrUnavailable, rec.ExperimentID, err)
		}
	}
	return nil
}

// Search implements Store via a $vectorSearch aggregation. Scores are Atlas
// similarity scores (larger is better).
func (s *MongoStore) Search(ctx context.Context, vector []float32, topK int) ([]Hit, error) {
	numCandidates := topK * 10
	if numCandidates < 100 {
		numCandidates = 100
	}

	pipeline := mongo.Pipeline{
		{{Key: "$vectorSearch", Value: bson.D{
			{Key: "index", Value: s.indexName},
			{Key: "path", Value: "embedding"},
			{Key: "queryVector", Value: vector},
			{Key: "numCandidates", Value: numCandidates},
			{Key: "limit", Value: topK},
		}}},
		{{Key: "$project", Value: bson.D{
			{Key: "experiment_id", Value: 1},
			{Key: "title", Value: 1},
			{Key: "year", Value: 1},
			{Key: "doi", Value: 1},
			{Key: "score", Value: bson.D{{Key: "$meta", Value: "vectorSearchScore"}}},
		}}},
	}

	cursor, err := s.coll.Aggregate(ctx, pipeline)
	if err != nil {
		return nil, fmt.Errorf("%w: vector search: %v", ErrUnavailable, err)
	}
	defer cursor.Close(ctx)

	var rows []struct {
		ExperimentID string  `bson:"experiment_id"`
		Title        string  `bson:"title"`
		Year         *int    `bson:"year"`
		DOI          *string `bson:"doi"`
		Score        float64 `bson:"score"`
	}
	if err := cursor.All(ctx, &rows); err != nil {
		return nil, fmt.Errorf("%w: decode vector search results: %v", ErrUnavailable, err)
	}

	hits := make([]Hit, 0, len(rows))
	for _, row := range rows {
		hits = append(hits, Hit{
			ID:    row.ExperimentID,
			Title: row.Title,
			Year:  row.Year,
			DOI:   row.DOI,
			Score: row.Score,
		})
	}
	return hits, nil
}

// ScoreKind implements Store: Atlas returns similarities.
func (s *MongoStore) ScoreKind() ScoreKind { return ScoreSimilarity }

// Ping implements Store.
func (s *MongoStore) Ping(ctx context.Context) error {
	if err := s.coll.Database().Client().Ping(ctx, nil); err != nil {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	return nil
}
