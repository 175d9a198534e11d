// Package cache keeps a local copy of articles and their embeddings in a
// Badger key-value store. The retriever seeds its in-process fallback tier
// from here when every networked backend is down.
package cache

import (
	"bytes"
	"encoding/gob"
	"fmt"

	badger "github.com/dgraph-io/badger/v4"

	"github.com/astrabio/astrabio/pkg/types"
)

const articlePrefix = "article:"

// ArticleCache is a local Badger-backed article store.
type ArticleCache struct {
	db *badger.DB
}

// Open opens or creates the cache at path.
func Open(path string) (*ArticleCache, error) {
	opts := badger.DefaultOptions(path).WithLogger(nil)
	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("failed to open article cache: %w", err)
	}
	return &ArticleCache{db: db}, nil
}

// Put stores articles, including embeddings, keyed by experiment ID.
func (c *ArticleCache) Put(records []*types.ArticleRecord) error {
	return c.db.Update(func(txn *badger.Txn) error {
		for _, rec := range records {
			if rec.ExperimentID == "" {
				continue
			}
			var buf bytes.Buffer
			if err := gob.NewEncoder(&buf).Encode(rec); err != nil {
				return fmt.Errorf("failed to encode article %s: %w", rec.ExperimentID, err)
			}
			key := []byte(articlePrefix + rec.ExperimentID)
			if err := txn.Set(key, buf.Bytes()); err != nil {
				return fmt.Errorf("failed to cache article %s: %w", rec.ExperimentID, err)
			}
		}
		return nil
	})
}

// Get fetches one cached article. Returns badger.ErrKeyNotFound when the
// article is not cached.
func (c *ArticleCache) Get(experimentID string) (*types.ArticleRecord, error) {
	var rec types.ArticleRecord
	err := c.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(articlePrefix + experimentID))
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			return gob.NewDecoder(bytes.NewReader(val)).Decode(&rec)
		})
	})
	if err != nil {
		return nil, err
	}
	rec.Normalize()
	return &rec, nil
}

// All returns every cached article.
func (c *ArticleCache) All() ([]*types.ArticleRecord, error) {
	var records []*types.ArticleRecord
	err := c.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = []byte(articlePrefix)
		it := txn.NewIterator(opts)
		defer it.Close()

		for it.Rewind(); it.Valid(); it.Next() {
			err := it.Item().Value(func(val []byte) error {
				var rec types.ArticleRecord
				if err := gob.NewDecoder(bytes.NewReader(val)).Decode(&rec); err != nil {
					return fmt.Errorf("failed to decode cached article: %w", err)
				}
				rec.Normalize()
				records = append(records, &rec)
				return nil
			})
			if err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return records, nil
}

// Len reports the number of cached articles.
func (c *ArticleCache) Len() (int, error) {
	count := 0
	err := c.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = []byte(articlePrefix)
		opts.PrefetchValues = false
		it := txn.NewIterator(opts)
		defer it.Close()
		for it.Rewind(); it.Valid(); it.Next() {
			count++
		}
		return nil
	})
	return count, err
}

// Close closes the underlying store.
func (c *ArticleCache) Close() error {
	return c.db.Close()
}
