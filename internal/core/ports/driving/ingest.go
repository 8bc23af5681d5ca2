package driving

import (
	"context"

	"github.com/custodia-labs/qpro/internal/core/domain"
)

// IngestService adds career documents to the local store.
type IngestService interface {
	// IngestFile extracts, chunks and stores a single file. Caller
	// metadata overrides fields found in the file.
	IngestFile(ctx context.Context, path string, metadata map[string]any) (domain.IngestResult, error)

	// IngestText chunks and stores manually supplied text.
	IngestText(ctx context.Context, text string, metadata map[string]any) (domain.IngestResult, error)

	// IngestDirectory ingests every supported file under root. A file
	// that fails is recorded in the result and does not stop the walk.
	IngestDirectory(ctx context.Context, root string, opts BulkOptions) (domain.BulkResult, error)

	// Watch re-ingests files under root as they change, until ctx is cancelled.
	Watch(ctx context.Context, root string, opts BulkOptions) error
}

// BulkOptions configures directory ingestion.
type BulkOptions struct {
	// Type is applied as the declared type of every file, if set.
	Type string

	// Metadata is merged into every file's metadata.
	Metadata map[string]any

	// Workers bounds concurrent file ingestion. Zero uses the default.
	Workers int

	// OnFile is called after each file, successful or not.
	OnFile func(path string, res domain.IngestResult, err error)
}
