package driven

import (
	"context"

	"github.com/custodia-labs/qpro/internal/core/domain"
)

// DocumentStore is the system of record for documents and their chunks.
// Lookups of a missing ID return domain.ErrNotFound.
type DocumentStore interface {
	// SaveDocument inserts or replaces by ID.
	SaveDocument(ctx context.Context, doc *domain.Document) error

	// SaveChunks upserts by chunk ID and leaves other chunks of the
	// document untouched. It sets each chunk's Seq in place; later
	// inserts get larger values.
	SaveChunks(ctx context.Context, chunks []domain.Chunk) error

	GetDocument(ctx context.Context, id string) (*domain.Document, error)

	// GetChunks orders by Position.
	GetChunks(ctx context.Context, documentID string) ([]domain.Chunk, error)
	GetChunk(ctx context.Context, id string) (*domain.Chunk, error)

	// DeleteDocument cascades to the chunks.
	DeleteDocument(ctx context.Context, id string) error

	// ListDocuments filters by collection; "" means every document.
	ListDocuments(ctx context.Context, collection string) ([]domain.Document, error)
}
