package interfaces

import (
	"context"
)

// EmbeddingService generates vector embeddings with per-run caching.
// Each distinct text is embedded at most once per run.
type EmbeddingService interface {
	// GenerateEmbedding creates a vector embedding for text
	GenerateEmbedding(ctx context.Context, text string) ([]float32, error)

	// Dimension returns the embedding dimension
	Dimension() int

	// IsAvailable checks if the embedding provider is reachable
	IsAvailable(ctx context.Context) bool
}

// SearchHit is one nearest-neighbor result from a vector index query
type SearchHit struct {
	ID         string
	Title      string
	Similarity float64 // 0-1
}

// VectorIndex is the nearest-neighbor search contract consumed by the
// semantic aligner. Query results are ordered by descending similarity
// and are deterministic for identical contents.
type VectorIndex interface {
	// Upsert stores a vector under an item id
	Upsert(id, title string, vector []float32) error

	// Query returns the k nearest items by cosine similarity
	Query(vector []float32, k int) ([]SearchHit, error)

	// Len returns the number of indexed items
	Len() int
}
