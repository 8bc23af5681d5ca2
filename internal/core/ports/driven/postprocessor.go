package driven

import (
	"context"

	"github.com/custodia-labs/qpro/internal/core/domain"
)

// PostProcessor is one step of the chunking pipeline. The first step
// receives nil chunks and splits the document; later steps filter or
// rewrite what they are given.
type PostProcessor interface {
	// Name is the key used in pipeline.processors.
	Name() string
	Process(ctx context.Context, doc *domain.Document, chunks []domain.Chunk) ([]domain.Chunk, error)
}

// PostProcessorPipeline turns a document into its final chunks.
type PostProcessorPipeline interface {
	Process(ctx context.Context, doc *domain.Document) ([]domain.Chunk, error)
}
