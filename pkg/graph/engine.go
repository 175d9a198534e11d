package graph

import (
	"log/slog"
	"sync/atomic"

	"github.com/astrabio/astrabio/pkg/types"
)

// Engine serves read-only queries over the current graph snapshot. Builds
// produce a complete new graph which is swapped in atomically, so readers
// never observe a partially-built graph.
type Engine struct {
	current atomic.Pointer[Graph]
	logger  *slog.Logger
}

// NewEngine creates an engine holding an empty graph.
func NewEngine(logger *slog.Logger) *Engine {
	e := &Engine{logger: logger}
	e.current.Store(New())
	return e
}

// Graph returns the current snapshot. The returned graph is immutable by
// convention; callers only run read-only queries against it.
func (e *Engine) Graph() *Graph {
	return e.current.Load()
}

// Swap replaces the current snapshot.
func (e *Engine) Swap(g *Graph) {
	e.current.Store(g)
}

// Rebuild constructs a fresh graph from the article corpus and swaps it in.
func (e *Engine) Rebuild(records []*types.ArticleRecord) *Graph {
	g := Build(EntitiesFromRecords(records), e.logger)
	e.current.Store(g)
	return g
}

// LoadSnapshotFile loads a snapshot from disk and swaps it in.
func (e *Engine) LoadSnapshotFile(path string) error {
	g, err := LoadSnapshot(path)
	if err != nil {
		return err
	}
	e.current.Store(g)
	e.logger.Info("knowledge graph snapshot loaded",
		"path", path, "nodes", g.NodeCount(), "edges", g.EdgeCount())
	return nil
}

// EntitiesFromRecords projects article records onto the typed entity
// mentions the graph build consumes.
func EntitiesFromRecords(records []*types.ArticleRecord) []ArticleEntities {
	out := make([]ArticleEntities, 0, len(records))
	for _, rec := range records {
		out = append(out, ArticleEntities{
			ExperimentID: rec.ExperimentID,
			Authors:      rec.Authors,
			Institutions: rec.Institutions,
			Organisms:    rec.Organisms,
			Journal:      rec.Journal,
		})
	}
	return out
}
