// Package embedder turns text into fixed-dimension vectors through an
// OpenAI-compatible embeddings API. It performs no retries of its own:
// transport and quota errors propagate to the caller, whose fallback
// ladder decides what happens next.
package embedder
