package postprocessors

import (
	"fmt"
	"maps"
	"slices"
	"strings"

	"github.com/custodia-labs/qpro/internal/core/domain"
	"github.com/custodia-labs/qpro/internal/core/ports/driven"
)

// Factory builds a processor configured from the pipeline settings.
type Factory func(settings domain.PipelineSettings) driven.PostProcessor

// Catalogue maps processor names to factories.
type Catalogue struct {
	factories map[string]Factory
}

// NewCatalogue creates an empty catalogue.
func NewCatalogue() *Catalogue {
	return &Catalogue{factories: make(map[string]Factory)}
}

// Builtins returns a catalogue holding every processor shipped with qpro.
func Builtins() *Catalogue {
	c := NewCatalogue()
	c.Add(chunkerName, newChunker)
	c.Add(skipBlankName, newSkipBlank)
	return c
}

// Add registers f under name, replacing any earlier factory.
func (c *Catalogue) Add(name string, f Factory) {
	c.factories[name] = f
}

// Build creates the named processor. Unknown names are invalid input.
func (c *Catalogue) Build(name string, settings domain.PipelineSettings) (driven.PostProcessor, error) {
	f, ok := c.factories[name]
	if !ok {
		return nil, fmt.Errorf("%w: unknown processor %q (known: %s)",
			domain.ErrInvalidInput, name, strings.Join(c.Names(), ", "))
	}
	return f(settings), nil
}

// Names returns the registered names in sorted order.
func (c *Catalogue) Names() []string {
	return slices.Sorted(maps.Keys(c.factories))
}
