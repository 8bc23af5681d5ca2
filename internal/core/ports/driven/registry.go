package driven

import (
	"context"

	"github.com/custodia-labs/qpro/internal/core/domain"
)

// NormaliserRegistry selects the appropriate normaliser for a document.
// Selection order: file extension, then MIME type, then the fallback.
type NormaliserRegistry interface {
	// Normalise extracts a raw document using the best matching normaliser.
	Normalise(ctx context.Context, raw *domain.RawDocument) (*NormaliseResult, error)

	// Register adds a normaliser to the registry.
	Register(normaliser Normaliser)

	// DetectMIMEType resolves the MIME type for a file from its
	// extension, or by sniffing its content.
	DetectMIMEType(path string, content []byte) string

	// SupportedMIMETypes returns all MIME types that can be normalised.
	SupportedMIMETypes() []string
}
