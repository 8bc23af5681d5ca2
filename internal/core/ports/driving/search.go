package driving

import (
	"context"

	"github.com/custodia-labs/qpro/internal/core/domain"
)

// RetrievalService finds the stored chunks most relevant to a text.
type RetrievalService interface {
	// Retrieve returns at most k chunks, most relevant first. Ties are
	// broken by insertion order. An empty store yields an empty slice.
	Retrieve(ctx context.Context, query string, k int) ([]domain.RetrievedChunk, error)
}
