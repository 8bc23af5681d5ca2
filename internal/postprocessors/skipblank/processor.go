// Package skipblank drops chunks that hold only whitespace.
//
// It is not part of the default pipeline. Enable it with
// pipeline.processors = ["chunker", "skip_blank"] in config.toml when
// extracted text carries long runs of blank padding (common in PDFs).
package skipblank

import (
	"context"
	"strings"

	"github.com/custodia-labs/qpro/internal/core/domain"
)

// Name is the processor name used in pipeline configuration.
const Name = "skip_blank"

// Processor removes whitespace-only chunks and renumbers the rest.
type Processor struct{}

// New creates a blank-chunk filter.
func New() *Processor {
	return &Processor{}
}

// Name returns the processor name.
func (p *Processor) Name() string {
	return Name
}

// Process keeps chunk IDs and positions contiguous after filtering, so
// stored chunk keys stay "<doc_id>-<ordinal>".
func (p *Processor) Process(_ context.Context, doc *domain.Document, chunks []domain.Chunk) ([]domain.Chunk, error) {
	out := chunks[:0:0]
	for _, c := range chunks {
		if strings.TrimSpace(c.Content) == "" {
			continue
		}
		pos := len(out)
		c.Position = pos
		c.ID = domain.ChunkID(doc.ID, pos)
		if c.Metadata != nil {
			c.Metadata[domain.MetaChunkIndex] = int64(pos)
		}
		out = append(out, c)
	}
	return out, nil
}
