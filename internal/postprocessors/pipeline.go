// Package postprocessors turns extracted document text into chunks.
package postprocessors

import (
	"context"
	"errors"
	"fmt"

	"github.com/custodia-labs/qpro/internal/core/domain"
	"github.com/custodia-labs/qpro/internal/core/ports/driven"
	"github.com/custodia-labs/qpro/internal/logger"
)

var _ driven.PostProcessorPipeline = (*Pipeline)(nil)

var errNilDocument = errors.New("postprocessors: nil document")

// Pipeline runs processors in order, each refining the previous output.
type Pipeline struct {
	steps []driven.PostProcessor
}

// NewPipeline creates a pipeline from steps.
func NewPipeline(steps ...driven.PostProcessor) *Pipeline {
	return &Pipeline{steps: steps}
}

// Process chunks doc. The first step receives nil chunks.
func (p *Pipeline) Process(ctx context.Context, doc *domain.Document) ([]domain.Chunk, error) {
	if doc == nil {
		return nil, errNilDocument
	}

	var chunks []domain.Chunk
	for _, step := range p.steps {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		out, err := step.Process(ctx, doc, chunks)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", step.Name(), err)
		}
		logger.Debug("pipeline %s: %s %d -> %d chunks", doc.ID, step.Name(), len(chunks), len(out))
		chunks = out
	}
	return chunks, nil
}

// Names returns the step names in run order.
func (p *Pipeline) Names() []string {
	names := make([]string, len(p.steps))
	for i, step := range p.steps {
		names[i] = step.Name()
	}
	return names
}
