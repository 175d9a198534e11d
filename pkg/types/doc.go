// Package types defines the shared data model for astrabio: enriched
// article records, transient retrieval candidates, and the answer
// contract returned by the question-answering pipeline.
//
// ArticleRecord is the join entity across the document store, the vector
// store, and the knowledge graph; its ExperimentID is the stable key
// everywhere. Candidates exist only for the lifetime of a single query
// and are never persisted.
package types
