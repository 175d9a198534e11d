// Package astrabio answers natural-language questions about a corpus of
// scientific articles. It combines hybrid retrieval (vector similarity plus
// keyword relevance, blended and recency-reranked across a ladder of
// fallback backends) with LLM answer synthesis, and maintains a weighted
// co-occurrence knowledge graph over article entities for exploration.
package astrabio
