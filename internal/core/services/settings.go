package services

import (
	"errors"
	"fmt"
	"os"
	"slices"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/custodia-labs/qpro/internal/core/domain"
	"github.com/custodia-labs/qpro/internal/core/ports/driven"
	"github.com/custodia-labs/qpro/internal/core/ports/driving"
)

// Ensure SettingsService implements the interface.
var _ driving.SettingsService = (*SettingsService)(nil)

// Config keys for settings storage.
//
//nolint:gosec // G101: These are config key names, not actual credentials.
const (
	keyEmbedProvider = "embedding.provider"
	keyEmbedModel    = "embedding.model"
	keyEmbedBaseURL  = "embedding.base_url"
	keyEmbedAPIKey   = "embedding.api_key"
	keyLLMProvider   = "llm.provider"
	keyLLMModel      = "llm.model"
	keyLLMBaseURL    = "llm.base_url"
	keyLLMAPIKey     = "llm.api_key"

	keyChunkSize       = "pipeline.chunk_size"
	keyOverlap         = "pipeline.overlap"
	keyTopK            = "pipeline.top_k"
	keySimilarityFloor = "pipeline.similarity_floor"
	keyProcessors      = "pipeline.processors"

	keyMaxRetries   = "generation.max_retries"
	keyRetryBackoff = "generation.retry_backoff"
	keyTimeout      = "generation.timeout"
	keyTemperature  = "generation.temperature"
	keyMaxTokens    = "generation.max_tokens"
)

// SettingsService manages application settings.
type SettingsService struct {
	configStore driven.ConfigStore
	aiValidator driven.AIConfigValidator
	validate    *validator.Validate
}

// NewSettingsService creates a new settings service.
func NewSettingsService(configStore driven.ConfigStore, aiValidator driven.AIConfigValidator) *SettingsService {
	return &SettingsService{
		configStore: configStore,
		aiValidator: aiValidator,
		validate:    validator.New(),
	}
}

// Get retrieves current application settings. Missing or invalid values
// fall back to defaults. An empty API key is filled from the provider's
// environment variable.
func (s *SettingsService) Get() (*domain.AppSettings, error) {
	defaults := domain.DefaultAppSettings()

	settings := &domain.AppSettings{
		Embedding: domain.EmbeddingSettings{
			Provider: s.getProvider(keyEmbedProvider, defaults.Embedding.Provider),
			Model:    s.getString(keyEmbedModel, defaults.Embedding.Model),
			BaseURL:  s.configStore.GetString(keyEmbedBaseURL),
			APIKey:   s.configStore.GetString(keyEmbedAPIKey),
		},
		LLM: domain.LLMSettings{
			Provider: s.getProvider(keyLLMProvider, defaults.LLM.Provider),
			Model:    s.getString(keyLLMModel, defaults.LLM.Model),
			BaseURL:  s.configStore.GetString(keyLLMBaseURL),
			APIKey:   s.configStore.GetString(keyLLMAPIKey),
		},
		Pipeline: domain.PipelineSettings{
			ChunkSize:       s.getInt(keyChunkSize, defaults.Pipeline.ChunkSize),
			Overlap:         s.getInt(keyOverlap, defaults.Pipeline.Overlap),
			TopK:            s.getInt(keyTopK, defaults.Pipeline.TopK),
			SimilarityFloor: s.getFloat(keySimilarityFloor, defaults.Pipeline.SimilarityFloor),
			Processors:      s.configStore.GetStringSlice(keyProcessors),
		},
		Generation: domain.GenerationSettings{
			MaxRetries:   s.getInt(keyMaxRetries, defaults.Generation.MaxRetries),
			RetryBackoff: s.getDuration(keyRetryBackoff, defaults.Generation.RetryBackoff),
			Timeout:      s.getDuration(keyTimeout, defaults.Generation.Timeout),
			Temperature:  s.getFloat(keyTemperature, defaults.Generation.Temperature),
			MaxTokens:    s.getInt(keyMaxTokens, defaults.Generation.MaxTokens),
		},
	}

	if settings.Embedding.Provider.IsLocal() && settings.Embedding.BaseURL == "" {
		settings.Embedding.BaseURL = domain.DefaultOllamaURL
	}
	if settings.LLM.Provider.IsLocal() && settings.LLM.BaseURL == "" {
		settings.LLM.BaseURL = domain.DefaultOllamaURL
	}
	if settings.Embedding.APIKey == "" {
		settings.Embedding.APIKey = envAPIKey(settings.Embedding.Provider)
	}
	if settings.LLM.APIKey == "" {
		settings.LLM.APIKey = envAPIKey(settings.LLM.Provider)
	}

	return settings, nil
}

type configValue struct {
	key   string
	value any
}

func envAPIKey(p domain.AIProvider) string {
	if name := p.APIKeyEnv(); name != "" {
		return os.Getenv(name)
	}
	return ""
}

// Save validates and persists application settings. API keys that only
// came from the environment are not written to the config file.
func (s *SettingsService) Save(settings *domain.AppSettings) error {
	if err := s.checkStructs(settings.Pipeline, settings.Generation); err != nil {
		return err
	}

	values := []configValue{
		{keyEmbedProvider, settings.Embedding.Provider.String()},
		{keyEmbedModel, settings.Embedding.Model},
		{keyEmbedBaseURL, settings.Embedding.BaseURL},
		{keyLLMProvider, settings.LLM.Provider.String()},
		{keyLLMModel, settings.LLM.Model},
		{keyLLMBaseURL, settings.LLM.BaseURL},
		{keyChunkSize, settings.Pipeline.ChunkSize},
		{keyOverlap, settings.Pipeline.Overlap},
		{keyTopK, settings.Pipeline.TopK},
		{keySimilarityFloor, settings.Pipeline.SimilarityFloor},
		{keyMaxRetries, settings.Generation.MaxRetries},
		{keyRetryBackoff, settings.Generation.RetryBackoff.String()},
		{keyTimeout, settings.Generation.Timeout.String()},
		{keyTemperature, settings.Generation.Temperature},
		{keyMaxTokens, settings.Generation.MaxTokens},
	}
	if len(settings.Pipeline.Processors) > 0 {
		values = append(values, configValue{keyProcessors, settings.Pipeline.Processors})
	}
	if key := settings.Embedding.APIKey; key != "" && key != envAPIKey(settings.Embedding.Provider) {
		values = append(values, configValue{keyEmbedAPIKey, key})
	}
	if key := settings.LLM.APIKey; key != "" && key != envAPIKey(settings.LLM.Provider) {
		values = append(values, configValue{keyLLMAPIKey, key})
	}

	for _, v := range values {
		if err := s.configStore.Set(v.key, v.value); err != nil {
			return fmt.Errorf("save %s: %w", v.key, err)
		}
	}
	return nil
}

// SetEmbeddingProvider configures the embedding provider.
func (s *SettingsService) SetEmbeddingProvider(provider domain.AIProvider, model, apiKey string) error {
	if !slices.Contains(domain.AllEmbeddingProviders(), provider) {
		return fmt.Errorf("%w: provider %q does not support embeddings", domain.ErrInvalidInput, provider)
	}
	if apiKey == "" {
		apiKey = envAPIKey(provider)
	}
	if provider.RequiresAPIKey() && apiKey == "" {
		return fmt.Errorf("%w: API key required for %s (or set %s)", domain.ErrInvalidInput, provider, provider.APIKeyEnv())
	}

	settings, err := s.Get()
	if err != nil {
		return err
	}

	settings.Embedding.Provider = provider
	settings.Embedding.Model = modelOrDefault(model, domain.DefaultEmbeddingModels()[provider])
	settings.Embedding.BaseURL = baseURLFor(provider, settings.Embedding.BaseURL)
	settings.Embedding.APIKey = apiKey

	return s.Save(settings)
}

// SetLLMProvider configures the LLM provider.
func (s *SettingsService) SetLLMProvider(provider domain.AIProvider, model, apiKey string) error {
	if !provider.IsValid() {
		return fmt.Errorf("%w: invalid LLM provider %q", domain.ErrInvalidInput, provider)
	}
	if apiKey == "" {
		apiKey = envAPIKey(provider)
	}
	if provider.RequiresAPIKey() && apiKey == "" {
		return fmt.Errorf("%w: API key required for %s (or set %s)", domain.ErrInvalidInput, provider, provider.APIKeyEnv())
	}

	settings, err := s.Get()
	if err != nil {
		return err
	}

	settings.LLM.Provider = provider
	settings.LLM.Model = modelOrDefault(model, domain.DefaultLLMModels()[provider])
	settings.LLM.BaseURL = baseURLFor(provider, settings.LLM.BaseURL)
	settings.LLM.APIKey = apiKey

	return s.Save(settings)
}

func modelOrDefault(model, fallback string) string {
	if model != "" {
		return model
	}
	return fallback
}

// baseURLFor keeps a local endpoint and clears it for cloud providers.
func baseURLFor(provider domain.AIProvider, current string) string {
	if !provider.IsLocal() {
		return ""
	}
	if current == "" {
		return domain.DefaultOllamaURL
	}
	return current
}

// SetPipeline updates chunking and retrieval settings.
func (s *SettingsService) SetPipeline(pipeline domain.PipelineSettings) error {
	if err := s.checkStructs(pipeline); err != nil {
		return err
	}
	settings, err := s.Get()
	if err != nil {
		return err
	}
	settings.Pipeline = pipeline
	return s.Save(settings)
}

// Validate checks current settings are internally consistent.
func (s *SettingsService) Validate() error {
	settings, err := s.Get()
	if err != nil {
		return err
	}

	var errs []error
	if !slices.Contains(domain.AllEmbeddingProviders(), settings.Embedding.Provider) {
		errs = append(errs, fmt.Errorf("embedding provider %q does not support embeddings", settings.Embedding.Provider))
	} else if !settings.Embedding.IsConfigured() {
		errs = append(errs, fmt.Errorf("embedding provider %s needs an API key", settings.Embedding.Provider))
	}
	if !settings.LLM.IsConfigured() {
		errs = append(errs, fmt.Errorf("LLM provider %s needs an API key", settings.LLM.Provider))
	}
	if err := s.checkStructs(settings.Pipeline, settings.Generation); err != nil {
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}

// checkStructs runs tag validation, reporting the first bad field of each.
func (s *SettingsService) checkStructs(values ...any) error {
	for _, v := range values {
		if err := s.validate.Struct(v); err != nil {
			var fieldErrs validator.ValidationErrors
			if errors.As(err, &fieldErrs) && len(fieldErrs) > 0 {
				fe := fieldErrs[0]
				return fmt.Errorf("%w: %s fails %q (%v)", domain.ErrInvalidInput, fe.Namespace(), fe.Tag(), fe.Value())
			}
			return fmt.Errorf("%w: %v", domain.ErrInvalidInput, err)
		}
	}
	return nil
}

// GetDefaults returns default settings.
func (s *SettingsService) GetDefaults() domain.AppSettings {
	return domain.DefaultAppSettings()
}

// ValidateEmbeddingConfig validates the current embedding configuration by pinging the provider.
func (s *SettingsService) ValidateEmbeddingConfig() error {
	if s.aiValidator == nil {
		return nil
	}
	settings, err := s.Get()
	if err != nil {
		return err
	}
	return s.aiValidator.ValidateEmbedding(&settings.Embedding)
}

// ValidateLLMConfig validates the current LLM configuration by pinging the provider.
func (s *SettingsService) ValidateLLMConfig() error {
	if s.aiValidator == nil {
		return nil
	}
	settings, err := s.Get()
	if err != nil {
		return err
	}
	return s.aiValidator.ValidateLLM(&settings.LLM)
}

// Helper methods for reading config with defaults.

func (s *SettingsService) getString(key, defaultVal string) string {
	val := s.configStore.GetString(key)
	if val == "" {
		return defaultVal
	}
	return val
}

// getInt distinguishes an absent key from an explicit zero.
func (s *SettingsService) getInt(key string, defaultVal int) int {
	if _, exists := s.configStore.Get(key); !exists {
		return defaultVal
	}
	return s.configStore.GetInt(key)
}

func (s *SettingsService) getFloat(key string, defaultVal float64) float64 {
	if _, exists := s.configStore.Get(key); !exists {
		return defaultVal
	}
	return s.configStore.GetFloat(key)
}

func (s *SettingsService) getDuration(key string, defaultVal time.Duration) time.Duration {
	val := s.configStore.GetString(key)
	if val == "" {
		return defaultVal
	}
	d, err := time.ParseDuration(val)
	if err != nil {
		return defaultVal
	}
	return d
}

func (s *SettingsService) getProvider(key string, defaultVal domain.AIProvider) domain.AIProvider {
	val := s.configStore.GetString(key)
	if val == "" {
		return defaultVal
	}
	provider := domain.AIProvider(val)
	if !provider.IsValid() {
		return defaultVal
	}
	return provider
}
