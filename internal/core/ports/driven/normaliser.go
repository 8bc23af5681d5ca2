package driven

import (
	"context"

	"github.com/custodia-labs/qpro/internal/core/domain"
)

// Normaliser extracts plain text from one file format.
// Each supported format is one Normaliser; the registry picks between them.
type Normaliser interface {
	// SupportedMIMETypes returns the MIME types this normaliser handles.
	SupportedMIMETypes() []string

	// SupportedExtensions returns lowercase file extensions (with dot)
	// that map directly to this normaliser.
	SupportedExtensions() []string

	// Priority returns the selection priority (higher = preferred).
	// Format normalisers return 50-89, the plain-text fallback returns 1-9.
	Priority() int

	// Normalise extracts the document text. An empty input yields an
	// empty Content, never an error.
	Normalise(ctx context.Context, raw *domain.RawDocument) (*NormaliseResult, error)
}

// NormaliseResult contains the output of extraction.
// Chunking is handled by the PostProcessor pipeline.
type NormaliseResult struct {
	// Document is the extracted document with Content populated.
	Document domain.Document

	// Fields are candidate metadata found in the file itself,
	// such as markdown front-matter. Values may be nested.
	Fields map[string]any
}
