package driven

import (
	"context"

	"github.com/custodia-labs/qpro/internal/core/domain"
)

// SearchEngine is the keyword half of hybrid retrieval.
type SearchEngine interface {
	Index(ctx context.Context, chunk domain.Chunk) error
	Delete(ctx context.Context, chunkID string) error

	// Search returns at most limit hits, best BM25 score first. Equal
	// scores are ordered by ascending chunk Seq.
	Search(ctx context.Context, query string, limit int) ([]SearchHit, error)
	Close() error
}

// SearchHit pairs a chunk with its BM25 score. Seq is the chunk's
// insertion sequence, zero when the index does not know it.
type SearchHit struct {
	ChunkID string
	Score   float64
	Seq     int64
}

// TextAnalyzer exposes the engine's tokeniser so ATS keyword matching
// sees the same terms search does.
type TextAnalyzer interface {
	Terms(text string) []string
}
