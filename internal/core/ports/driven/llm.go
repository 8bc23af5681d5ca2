package driven

import "context"

// LLMService writes the draft. Without one, Compose fails with
// domain.ErrLLMUnavailable while ingest and retrieval keep working.
//
// Adapters exist for Ollama, OpenAI, Anthropic and Gemini. Each marks
// rate limits, 5xx replies and network failures with domain.ErrTransient
// and returns context errors unwrapped.
type LLMService interface {
	Generate(ctx context.Context, prompt string, opts GenerateOptions) (string, error)
	Chat(ctx context.Context, messages []ChatMessage, opts ChatOptions) (string, error)
	ModelName() string

	// Ping must not spend tokens where the provider offers a free call.
	Ping(ctx context.Context) error
	Close() error
}

// GenerateOptions tunes a single-prompt call.
type GenerateOptions struct {
	System string

	// MaxTokens of zero leaves the provider default.
	MaxTokens   int
	Temperature float64

	// JSON requests a JSON object reply on providers that can enforce it.
	JSON bool
}

// ChatMessage is one turn. Role is system, user or assistant.
type ChatMessage struct {
	Role    string
	Content string
}

// ChatOptions tunes a conversation call.
type ChatOptions struct {
	MaxTokens   int
	Temperature float64
}
