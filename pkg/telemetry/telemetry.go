// Package telemetry records retrieval events in local Parquet files for
// offline analysis of tier usage and latency.
package telemetry

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/parquet-go/parquet-go"
)

// RetrievalEvent is one recorded retrieval execution.
type RetrievalEvent struct {
	ID             string    `parquet:"id"`
	Timestamp      time.Time `parquet:"timestamp"`
	Tier           string    `parquet:"tier"`
	TopK           int       `parquet:"top_k"`
	CandidateCount int       `parquet:"candidate_count"`
	DurationMs     int64     `parquet:"duration_ms"`
	Failed         bool      `parquet:"failed"`
}

// Recorder buffers retrieval events and flushes them to timestamped Parquet
// files in batches.
type Recorder struct {
	outputDir string
	logger    *slog.Logger

	mu        sync.Mutex
	buffer    []RetrievalEvent
	batchSize int
}

// NewRecorder creates a Recorder writing under outputDir.
func NewRecorder(outputDir string, logger *slog.Logger) (*Recorder, error) {
	if err := os.MkdirAll(outputDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create telemetry directory: %w", err)
	}
	return &Recorder{
		outputDir: outputDir,
		logger:    logger,
		batchSize: 100,
		buffer:    make([]RetrievalEvent, 0, 100),
	}, nil
}

// Record buffers one event, flushing when the batch is full. Recording never
// fails the request path; write errors are logged and dropped.
func (r *Recorder) Record(event RetrievalEvent) {
	if event.ID == "" {
		event.ID = uuid.New().String()
	}
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now().UTC()
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	r.buffer = append(r.buffer, event)
	if len(r.buffer) >= r.batchSize {
		r.flush()
	}
}

// Close flushes any buffered events.
func (r *Recorder) Close() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.flush()
}

// flush writes the current buffer to a new Parquet file. Caller holds the
// lock.
func (r *Recorder) flush() {
	if len(r.buffer) == 0 {
		return
	}

	filename := fmt.Sprintf("retrieval_events_%s_%d.parquet",
		time.Now().Format("20060102_150405"), time.Now().UnixNano())
	path := filepath.Join(r.outputDir, filename)

	if err := parquet.WriteFile(path, r.buffer); err != nil {
		r.logger.Error("failed to write telemetry parquet file", "path", path, "error", err)
		return
	}
	r.buffer = r.buffer[:0]
}
