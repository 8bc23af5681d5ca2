package driving

import "github.com/custodia-labs/qpro/internal/core/domain"

// SettingsService reads and writes config.toml through typed settings.
type SettingsService interface {
	// Get overlays the stored values on GetDefaults.
	Get() (*domain.AppSettings, error)

	// Save rejects settings that fail Validate.
	Save(settings *domain.AppSettings) error

	SetEmbeddingProvider(provider domain.AIProvider, model, apiKey string) error
	SetLLMProvider(provider domain.AIProvider, model, apiKey string) error
	SetPipeline(pipeline domain.PipelineSettings) error

	Validate() error
	GetDefaults() domain.AppSettings

	// ValidateEmbeddingConfig and ValidateLLMConfig ping the saved provider.
	ValidateEmbeddingConfig() error
	ValidateLLMConfig() error
}
