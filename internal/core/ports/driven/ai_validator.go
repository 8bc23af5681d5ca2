package driven

import "github.com/custodia-labs/qpro/internal/core/domain"

// AIConfigValidator probes a provider before its settings are saved.
// A provider left as none always passes.
type AIConfigValidator interface {
	ValidateEmbedding(config *domain.EmbeddingSettings) error
	ValidateLLM(config *domain.LLMSettings) error
}
