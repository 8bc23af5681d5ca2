package driven

import (
	"context"

	"github.com/custodia-labs/qpro/internal/core/domain"
)

// DocumentSource enumerates and watches files to ingest.
// The filesystem connector is the only implementation.
type DocumentSource interface {
	// Root returns the directory the source reads from.
	Root() string

	// Validate checks the root exists and is readable.
	Validate(ctx context.Context) error

	// Walk emits every supported file under the root. Both channels
	// are closed when the walk finishes or ctx is cancelled.
	Walk(ctx context.Context) (<-chan domain.RawDocument, <-chan error)

	// Watch emits file changes until ctx is cancelled.
	Watch(ctx context.Context) (<-chan domain.RawDocumentChange, error)

	// Close releases resources.
	Close() error
}
