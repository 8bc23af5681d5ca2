package driven

import "context"

// VectorIndex is the semantic half of hybrid retrieval.
type VectorIndex interface {
	// Add replaces any vector already stored for chunkID.
	Add(ctx context.Context, chunkID string, embedding []float32) error
	Delete(ctx context.Context, chunkID string) error

	// Search returns the k nearest vectors by cosine similarity. Ties
	// keep insertion order.
	Search(ctx context.Context, query []float32, k int) ([]VectorHit, error)
	Close() error
}

// VectorHit is one nearest neighbour. Seq is the insertion counter used
// to break ties.
type VectorHit struct {
	ChunkID    string
	Similarity float64
	Seq        int64
}
