package driving

import (
	"context"

	"github.com/custodia-labs/qpro/internal/core/domain"
)

// DraftService composes tailored application material for a job post.
type DraftService interface {
	// Compose retrieves relevant prior documents and asks the LLM for a
	// cover letter, CV bullets and an ATS report. Missing sections are
	// flagged on the returned Draft rather than failing the call.
	Compose(ctx context.Context, jobPost string, opts DraftOptions) (*domain.Draft, error)
}

// DraftOptions overrides composer defaults for one request.
type DraftOptions struct {
	// TopK overrides the number of retrieved chunks when positive.
	TopK int
}
