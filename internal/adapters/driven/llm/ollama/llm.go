// Package ollama generates text with a local Ollama server.
package ollama

import (
	"context"
	"fmt"
	"time"

	"github.com/custodia-labs/qpro/internal/adapters/driven/llm/ollamaapi"
	"github.com/custodia-labs/qpro/internal/core/ports/driven"
)

var _ driven.LLMService = (*LLMService)(nil)

const (
	DefaultBaseURL    = ollamaapi.DefaultBaseURL
	DefaultLLMModel   = "llama3:8b"
	DefaultLLMTimeout = 180 * time.Second

	// DefaultNumCtx is the context window requested per call.
	DefaultNumCtx = 4096
)

// LLMConfig selects the server and model.
type LLMConfig struct {
	BaseURL string
	Model   string

	// Timeout bounds one HTTP request. Callers usually set a tighter
	// deadline through the context.
	Timeout time.Duration
}

// LLMService calls /api/chat without streaming.
type LLMService struct {
	api   *ollamaapi.Client
	model string
}

type options struct {
	NumPredict  int     `json:"num_predict,omitempty"`
	NumCtx      int     `json:"num_ctx,omitempty"`
	Temperature float64 `json:"temperature"`
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model    string        `json:"model"`
	Messages []chatMessage `json:"messages"`
	Stream   bool          `json:"stream"`
	Format   string        `json:"format,omitempty"`
	Options  options       `json:"options"`
}

type chatResponse struct {
	Message chatMessage `json:"message"`
	Done    bool        `json:"done"`
	Error   string      `json:"error,omitempty"`
}

// NewLLMService creates the adapter.
func NewLLMService(cfg LLMConfig) *LLMService {
	if cfg.Model == "" {
		cfg.Model = DefaultLLMModel
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = DefaultLLMTimeout
	}
	return &LLMService{
		api:   ollamaapi.New(cfg.BaseURL, cfg.Timeout),
		model: cfg.Model,
	}
}

// Generate sends a single-turn chat. With opts.JSON the model is
// constrained to emit a JSON object.
func (s *LLMService) Generate(ctx context.Context, prompt string, opts driven.GenerateOptions) (string, error) {
	var messages []chatMessage
	if opts.System != "" {
		messages = append(messages, chatMessage{Role: "system", Content: opts.System})
	}
	messages = append(messages, chatMessage{Role: "user", Content: prompt})

	req := chatRequest{
		Model:    s.model,
		Messages: messages,
		Options:  s.options(opts.MaxTokens, opts.Temperature),
	}
	if opts.JSON {
		req.Format = "json"
	}
	return s.chat(ctx, req)
}

// Chat conducts a multi-turn conversation.
func (s *LLMService) Chat(ctx context.Context, messages []driven.ChatMessage, opts driven.ChatOptions) (string, error) {
	turns := make([]chatMessage, len(messages))
	for i, msg := range messages {
		turns[i] = chatMessage{Role: msg.Role, Content: msg.Content}
	}
	return s.chat(ctx, chatRequest{
		Model:    s.model,
		Messages: turns,
		Options:  s.options(opts.MaxTokens, opts.Temperature),
	})
}

func (s *LLMService) options(maxTokens int, temperature float64) options {
	return options{NumPredict: maxTokens, NumCtx: DefaultNumCtx, Temperature: temperature}
}

func (s *LLMService) chat(ctx context.Context, req chatRequest) (string, error) {
	var resp chatResponse
	if err := s.api.Post(ctx, "/api/chat", req, &resp); err != nil {
		return "", err
	}
	if resp.Error != "" {
		return "", fmt.Errorf("ollama: %s", resp.Error)
	}
	return resp.Message.Content, nil
}

// ModelName returns the model.
func (s *LLMService) ModelName() string { return s.model }

// Ping lists local models.
func (s *LLMService) Ping(ctx context.Context) error { return s.api.Ping(ctx) }

// Close is a no-op.
func (s *LLMService) Close() error { return nil }
