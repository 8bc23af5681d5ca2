package domain

import "time"

// AIProvider names a backend for embeddings or generation.
type AIProvider string

const (
	AIProviderOllama    AIProvider = "ollama"
	AIProviderOpenAI    AIProvider = "openai"
	AIProviderAnthropic AIProvider = "anthropic"
	AIProviderGemini    AIProvider = "gemini"
)

type providerInfo struct {
	label      string
	keyEnv     string // empty for keyless backends
	embedModel string // empty when the backend has no embedding API
	llmModel   string
}

// providers is ordered; the All*Providers lists follow it.
var providers = []struct {
	id AIProvider
	providerInfo
}{
	{AIProviderOllama, providerInfo{label: "Ollama on this machine", embedModel: "nomic-embed-text", llmModel: "llama3:8b"}},
	{AIProviderOpenAI, providerInfo{label: "OpenAI API", keyEnv: "OPENAI_API_KEY", embedModel: "text-embedding-3-small", llmModel: "gpt-4o-mini"}},
	{AIProviderAnthropic, providerInfo{label: "Anthropic API", keyEnv: "ANTHROPIC_API_KEY", llmModel: "claude-3-5-sonnet-latest"}},
	{AIProviderGemini, providerInfo{label: "Google Gemini API", keyEnv: "GEMINI_API_KEY", llmModel: "gemini-1.5-flash"}},
}

func (p AIProvider) info() (providerInfo, bool) {
	for _, e := range providers {
		if e.id == p {
			return e.providerInfo, true
		}
	}
	return providerInfo{}, false
}

func (p AIProvider) IsValid() bool {
	_, ok := p.info()
	return ok
}

// RequiresAPIKey reports whether p authenticates with a key.
func (p AIProvider) RequiresAPIKey() bool { return p.APIKeyEnv() != "" }

// IsLocal reports whether p runs without a network account.
func (p AIProvider) IsLocal() bool {
	i, ok := p.info()
	return ok && i.keyEnv == ""
}

// APIKeyEnv is the variable read when no key is stored in settings.
func (p AIProvider) APIKeyEnv() string {
	i, _ := p.info()
	return i.keyEnv
}

func (p AIProvider) String() string { return string(p) }

// Description is the label shown in settings screens.
func (p AIProvider) Description() string {
	if i, ok := p.info(); ok {
		return i.label
	}
	return "Unknown"
}

// usable reports whether p is known and has the key it needs.
func usable(p AIProvider, key string) bool {
	return p.IsValid() && (key != "" || !p.RequiresAPIKey())
}

// EmbeddingSettings selects the embedding backend.
type EmbeddingSettings struct {
	Provider AIProvider
	Model    string
	// BaseURL overrides the endpoint; only Ollama reads it.
	BaseURL string
	APIKey  string
}

func (e EmbeddingSettings) IsConfigured() bool { return usable(e.Provider, e.APIKey) }

// LLMSettings selects the generation backend.
type LLMSettings struct {
	Provider AIProvider
	Model    string
	BaseURL  string
	APIKey   string
}

func (l LLMSettings) IsConfigured() bool { return usable(l.Provider, l.APIKey) }

// PipelineSettings configures chunking and retrieval.
type PipelineSettings struct {
	// ChunkSize is the chunk window W in characters.
	ChunkSize int `validate:"gt=0"`

	// Overlap is the number of characters O shared by neighbouring chunks.
	Overlap int `validate:"gte=0,ltfield=ChunkSize"`

	// TopK is the number of chunks retrieved for a draft.
	TopK int `validate:"gte=1,lte=50"`

	// SimilarityFloor drops vector hits scoring below it. Zero keeps all.
	SimilarityFloor float64 `validate:"gte=-1,lte=1"`

	// Processors names the chunk post-processors in run order. Empty
	// means the chunker alone.
	Processors []string
}

// GenerationSettings configures the generation call.
type GenerationSettings struct {
	// MaxRetries is how many times a transient failure is retried.
	MaxRetries int `validate:"gte=0,lte=10"`

	// RetryBackoff is the fixed pause between attempts.
	RetryBackoff time.Duration `validate:"gte=0"`

	// Timeout bounds each generation attempt.
	Timeout time.Duration `validate:"gt=0"`

	// Temperature is the sampling temperature.
	Temperature float64 `validate:"gte=0,lte=2"`

	// MaxTokens bounds the response length.
	MaxTokens int `validate:"gt=0"`
}

// AppSettings is everything persisted by the settings store.
type AppSettings struct {
	Embedding  EmbeddingSettings
	LLM        LLMSettings
	Pipeline   PipelineSettings
	Generation GenerationSettings
}

// Pipeline defaults.
const (
	DefaultChunkSize = 900
	DefaultOverlap   = 150
	DefaultTopK      = 8
)

// DefaultPipelineSettings returns the chunking and retrieval defaults.
func DefaultPipelineSettings() PipelineSettings {
	return PipelineSettings{
		ChunkSize: DefaultChunkSize,
		Overlap:   DefaultOverlap,
		TopK:      DefaultTopK,
	}
}

// DefaultGenerationSettings returns the generation defaults.
func DefaultGenerationSettings() GenerationSettings {
	return GenerationSettings{
		MaxRetries:   2,
		RetryBackoff: time.Second,
		Timeout:      120 * time.Second,
		Temperature:  0.2,
		MaxTokens:    2048,
	}
}

// DefaultAppSettings points both backends at a local Ollama. Cloud
// backends are opt-in.
func DefaultAppSettings() AppSettings {
	return AppSettings{
		Embedding: EmbeddingSettings{
			Provider: AIProviderOllama,
			Model:    DefaultEmbeddingModels()[AIProviderOllama],
			BaseURL:  DefaultOllamaURL,
		},
		LLM: LLMSettings{
			Provider: AIProviderOllama,
			Model:    DefaultLLMModels()[AIProviderOllama],
			BaseURL:  DefaultOllamaURL,
		},
		Pipeline:   DefaultPipelineSettings(),
		Generation: DefaultGenerationSettings(),
	}
}

const DefaultOllamaURL = "http://localhost:11434"

// AllEmbeddingProviders lists the backends with an embedding API.
func AllEmbeddingProviders() []AIProvider {
	var out []AIProvider
	for _, e := range providers {
		if e.embedModel != "" {
			out = append(out, e.id)
		}
	}
	return out
}

func AllLLMProviders() []AIProvider {
	out := make([]AIProvider, len(providers))
	for i, e := range providers {
		out[i] = e.id
	}
	return out
}

func DefaultEmbeddingModels() map[AIProvider]string {
	out := make(map[AIProvider]string)
	for _, e := range providers {
		if e.embedModel != "" {
			out[e.id] = e.embedModel
		}
	}
	return out
}

func DefaultLLMModels() map[AIProvider]string {
	out := make(map[AIProvider]string, len(providers))
	for _, e := range providers {
		out[e.id] = e.llmModel
	}
	return out
}

// EmbeddingDimensions maps model names to vector width. Unlisted models
// fall back to the adapter's default.
func EmbeddingDimensions() map[string]int {
	return map[string]int{
		"nomic-embed-text":       768,
		"mxbai-embed-large":      1024,
		"all-minilm":             384,
		"text-embedding-3-small": 1536,
		"text-embedding-3-large": 3072,
		"text-embedding-ada-002": 1536,
	}
}
