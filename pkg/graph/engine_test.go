package graph

import (
	"io"
	"log/slog"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/astrabio/astrabio/pkg/types"
)

func TestEngineStartsEmpty(t *testing.T) {
	e := NewEngine(slog.New(slog.NewTextHandler(io.Discard, nil)))
	assert.Zero(t, e.Graph().NodeCount())
}

func TestEngineRebuildSwapsSnapshot(t *testing.T) {
	e := NewEngine(slog.New(slog.NewTextHandler(io.Discard, nil)))
	before := e.Graph()

	records := []*types.ArticleRecord{
		{ExperimentID: "PMC1", Authors: []string{"A", "B"}, Journal: "J"},
	}
	built := e.Rebuild(records)

	assert.NotSame(t, before, e.Graph())
	assert.Same(t, built, e.Graph())
	assert.Equal(t, 3, e.Graph().NodeCount())

	// The previous snapshot is untouched.
	assert.Zero(t, before.NodeCount())
}

func TestEngineLoadSnapshotFile(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	path := filepath.Join(t.TempDir(), "graph.gob")
	require.NoError(t, testCorpus().SaveSnapshot(path))

	e := NewEngine(logger)
	require.NoError(t, e.LoadSnapshotFile(path))
	assert.Equal(t, 6, e.Graph().NodeCount())

	assert.Error(t, e.LoadSnapshotFile(filepath.Join(t.TempDir(), "missing.gob")))
}

func TestEntitiesFromRecords(t *testing.T) {
	records := []*types.ArticleRecord{{
		ExperimentID: "PMC1",
		Authors:      []string{"A"},
		Institutions: []string{"NASA Ames"},
		Organisms:    []string{"Mus musculus"},
		Journal:      "npj Microgravity",
	}}

	entities := EntitiesFromRecords(records)
	require.Len(t, entities, 1)
	assert.Equal(t, "PMC1", entities[0].ExperimentID)
	assert.Equal(t, []string{"NASA Ames"}, entities[0].Institutions)
	assert.Equal(t, "npj Microgravity", entities[0].Journal)
}
