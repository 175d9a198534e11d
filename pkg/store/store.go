// Package store persists article records in MongoDB. It is the system of
// record for ingestion, graph builds, and the in-memory fallback corpus.
package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"

	"github.com/astrabio/astrabio/pkg/config"
	"github.com/astrabio/astrabio/pkg/types"
)

// ErrNotFound is returned when no article matches the given experiment ID.
var ErrNotFound = errors.New("article not found")

// ErrUnavailable is returned when the database cannot be reached.
var ErrUnavailable = errors.New("document store unavailable")

// MongoStore is the article document store.
type MongoStore struct {
	client *mongo.Client
	coll   *mongo.Collection
}

// NewMongoStore connects to MongoDB and verifies the connection.
func NewMongoStore(ctx context.Context, cfg config.MongoConfig) (*MongoStore, error) {
	client, err := mongo.Connect(options.Client().ApplyURI(cfg.URI))
	if err != nil {
		return nil, fmt.Errorf("failed to create mongo client: %w", err)
	}
	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}

	return &MongoStore{
		client: client,
		coll:   client.Database(cfg.Database).Collection(cfg.Collection),
	}, nil
}

// Collection exposes the article collection so the vector search layer can
// aggregate over the same documents.
func (s *MongoStore) Collection() *mongo.Collection { return s.coll }

// Upsert inserts or replaces articles keyed on experiment ID, so re-running
// an ingestion is idempotent.
func (s *MongoStore) Upsert(ctx context.Context, records []*types.ArticleRecord) error {
	now := time.Now().UTC()
	for _, rec := range records {
		if rec.ExperimentID == "" {
			continue
		}
		rec.Normalize()
		rec.UpdatedAt = now
		if rec.CreatedAt.IsZero() {
			rec.CreatedAt = now
		}

		filter := bson.D{{Key: "experiment_id", Value: rec.ExperimentID}}
		_, err := s.coll.ReplaceOne(ctx, filter, rec, options.Replace().SetUpsert(true))
		if err != nil {
			return fmt.Errorf("%w: upsert %s: %v", ErrUnavailable, rec.ExperimentID, err)
		}
	}
	return nil
}

// Get fetches one article by experiment ID.
func (s *MongoStore) Get(ctx context.Context, experimentID string) (*types.ArticleRecord, error) {
	var rec types.ArticleRecord
	err := s.coll.FindOne(ctx, bson.D{{Key: "experiment_id", Value: experimentID}}).Decode(&rec)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, experimentID)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: get %s: %v", ErrUnavailable, experimentID, err)
	}
	rec.Normalize()
	return &rec, nil
}

// FetchAll streams every stored article. Graph builds consume this.
func (s *MongoStore) FetchAll(ctx context.Context) ([]*types.ArticleRecord, error) {
	cursor, err := s.coll.Find(ctx, bson.D{})
	if err != nil {
		return nil, fmt.Errorf("%w: fetch all: %v", ErrUnavailable, err)
	}
	defer cursor.Close(ctx)

	var records []*types.ArticleRecord
	for cursor.Next(ctx) {
		var rec types.ArticleRecord
		if err := cursor.Decode(&rec); err != nil {
			return nil, fmt.Errorf("failed to decode article: %w", err)
		}
		rec.Normalize()
		records = append(records, &rec)
	}
	if err := cursor.Err(); err != nil {
		return nil, fmt.Errorf("%w: fetch all: %v", ErrUnavailable, err)
	}
	return records, nil
}

// Count reports how many articles are stored.
func (s *MongoStore) Count(ctx context.Context) (int64, error) {
	n, err := s.coll.CountDocuments(ctx, bson.D{})
	if err != nil {
		return 0, fmt.Errorf("%w: count: %v", ErrUnavailable, err)
	}
	return n, nil
}

// Ping verifies database connectivity.
func (s *MongoStore) Ping(ctx context.Context) error {
	if err := s.client.Ping(ctx, nil); err != nil {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	return nil
}

// Close disconnects from the database.
func (s *MongoStore) Close(ctx context.Context) error {
	return s.client.Disconnect(ctx)
}
