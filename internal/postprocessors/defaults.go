package postprocessors

import (
	"fmt"

	"github.com/custodia-labs/qpro/internal/core/domain"
	"github.com/custodia-labs/qpro/internal/core/ports/driven"
	"github.com/custodia-labs/qpro/internal/postprocessors/chunker"
	"github.com/custodia-labs/qpro/internal/postprocessors/skipblank"
)

const (
	chunkerName   = chunker.Name
	skipBlankName = skipblank.Name
)

// DefaultProcessors is the pipeline used when settings name none.
var DefaultProcessors = []string{chunkerName}

// BuildPipeline assembles the processors named in settings.Processors,
// falling back to DefaultProcessors. The chunker must run first because
// it is the only processor that creates chunks.
func BuildPipeline(settings domain.PipelineSettings) (*Pipeline, error) {
	return Builtins().Pipeline(settings)
}

// Pipeline builds a pipeline from the catalogue.
func (c *Catalogue) Pipeline(settings domain.PipelineSettings) (*Pipeline, error) {
	names := settings.Processors
	if len(names) == 0 {
		names = DefaultProcessors
	}
	if names[0] != chunkerName {
		return nil, fmt.Errorf("%w: pipeline must start with %q, got %q",
			domain.ErrInvalidInput, chunkerName, names[0])
	}

	steps := make([]driven.PostProcessor, 0, len(names))
	for _, name := range names {
		proc, err := c.Build(name, settings)
		if err != nil {
			return nil, err
		}
		steps = append(steps, proc)
	}
	return NewPipeline(steps...), nil
}

func newChunker(settings domain.PipelineSettings) driven.PostProcessor {
	return chunker.New(chunker.WithChunkSize(settings.ChunkSize), chunker.WithOverlap(settings.Overlap))
}

func newSkipBlank(domain.PipelineSettings) driven.PostProcessor {
	return skipblank.New()
}
