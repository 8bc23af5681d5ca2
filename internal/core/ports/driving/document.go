package driving

import (
	"context"
	"time"

	"github.com/custodia-labs/qpro/internal/core/domain"
)

// DocumentService manages ingested documents.
type DocumentService interface {
	// List returns all documents in a collection. Empty lists every collection.
	List(ctx context.Context, collection string) ([]domain.Document, error)

	// Get retrieves a document by ID.
	Get(ctx context.Context, documentID string) (*domain.Document, error)

	// GetContent returns the document's extracted text.
	GetContent(ctx context.Context, documentID string) (string, error)

	// GetDetails returns metadata flattened for display.
	GetDetails(ctx context.Context, documentID string) (*DocumentDetails, error)

	// Delete removes a document, its chunks and their index entries.
	Delete(ctx context.Context, documentID string) error

	// Open opens the document's source file in the default application.
	Open(ctx context.Context, documentID string) error
}

// DocumentDetails provides a flattened view of document metadata.
type DocumentDetails struct {
	// ID is the document identifier (doc_id).
	ID string

	// Collection is the storage collection.
	Collection string

	// Type is the declared document type.
	Type string

	// Title is the document title.
	Title string

	// URI is the source path.
	URI string

	// ChunkCount is the number of chunks.
	ChunkCount int

	// CreatedAt is when the document was first ingested.
	CreatedAt time.Time

	// UpdatedAt is when the document was last ingested.
	UpdatedAt time.Time

	// Metadata contains flattened key-value pairs for display.
	Metadata map[string]string
}
