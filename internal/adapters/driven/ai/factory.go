// Package ai turns provider settings into embedding and LLM adapters.
package ai

import (
	"context"
	"fmt"

	ollamaembed "github.com/custodia-labs/qpro/internal/adapters/driven/embedding/ollama"
	openaiembed "github.com/custodia-labs/qpro/internal/adapters/driven/embedding/openai"
	anthropicllm "github.com/custodia-labs/qpro/internal/adapters/driven/llm/anthropic"
	geminillm "github.com/custodia-labs/qpro/internal/adapters/driven/llm/gemini"
	ollamallm "github.com/custodia-labs/qpro/internal/adapters/driven/llm/ollama"
	openaillm "github.com/custodia-labs/qpro/internal/adapters/driven/llm/openai"
	"github.com/custodia-labs/qpro/internal/core/domain"
	"github.com/custodia-labs/qpro/internal/core/ports/driven"
)

const fixHint = "Run 'qpro settings' to fix"

type (
	embeddingBuilder func(*domain.EmbeddingSettings) (driven.EmbeddingService, error)
	llmBuilder       func(*domain.LLMSettings) (driven.LLMService, error)
)

var embeddingBuilders = map[domain.AIProvider]embeddingBuilder{
	domain.AIProviderOllama: func(s *domain.EmbeddingSettings) (driven.EmbeddingService, error) {
		dims := domain.EmbeddingDimensions()[s.Model]
		if dims == 0 {
			dims = ollamaembed.DefaultDimensions
		}
		return ollamaembed.NewEmbeddingService(ollamaembed.Config{
			BaseURL: s.BaseURL, Model: s.Model, Dimensions: dims,
		}), nil
	},
	domain.AIProviderOpenAI: func(s *domain.EmbeddingSettings) (driven.EmbeddingService, error) {
		svc, err := openaiembed.NewEmbeddingService(openaiembed.Config{
			APIKey: s.APIKey, BaseURL: s.BaseURL, Model: s.Model,
			Dimensions: domain.EmbeddingDimensions()[s.Model],
		})
		if err != nil {
			return nil, err
		}
		return svc, nil
	},
	domain.AIProviderAnthropic: noEmbeddings,
	domain.AIProviderGemini:    noEmbeddings,
}

var llmBuilders = map[domain.AIProvider]llmBuilder{
	domain.AIProviderOllama: func(s *domain.LLMSettings) (driven.LLMService, error) {
		return ollamallm.NewLLMService(ollamallm.LLMConfig{BaseURL: s.BaseURL, Model: s.Model}), nil
	},
	domain.AIProviderOpenAI: func(s *domain.LLMSettings) (driven.LLMService, error) {
		svc, err := openaillm.NewLLMService(openaillm.LLMConfig{
			APIKey: s.APIKey, BaseURL: s.BaseURL, Model: s.Model,
		})
		if err != nil {
			return nil, err
		}
		return svc, nil
	},
	domain.AIProviderAnthropic: func(s *domain.LLMSettings) (driven.LLMService, error) {
		svc, err := anthropicllm.NewLLMService(anthropicllm.Config{
			APIKey: s.APIKey, BaseURL: s.BaseURL, Model: s.Model,
		})
		if err != nil {
			return nil, err
		}
		return svc, nil
	},
	domain.AIProviderGemini: func(s *domain.LLMSettings) (driven.LLMService, error) {
		svc, err := geminillm.NewLLMService(context.Background(), geminillm.Config{
			APIKey: s.APIKey, Model: s.Model,
		})
		if err != nil {
			return nil, err
		}
		return svc, nil
	},
}

func noEmbeddings(s *domain.EmbeddingSettings) (driven.EmbeddingService, error) {
	return nil, fmt.Errorf("%s does not provide embeddings here, use ollama or openai", s.Provider)
}

// InitResult holds whatever Init managed to build.
type InitResult struct {
	EmbeddingService driven.EmbeddingService
	LLMService       driven.LLMService

	// Warnings describe non-fatal problems, one per provider.
	Warnings []string

	// FellBack is set when retrieval runs on keywords alone.
	FellBack bool
}

// Close closes both services.
func (r *InitResult) Close() {
	if r.EmbeddingService != nil {
		_ = r.EmbeddingService.Close()
	}
	if r.LLMService != nil {
		_ = r.LLMService.Close()
	}
}

// Init builds both services. An unreachable embedding provider only
// downgrades retrieval to keywords. The LLM is not pinged: a bad LLM
// setup surfaces on the first draft.
func Init(settings *domain.AppSettings) *InitResult {
	result := &InitResult{}
	if settings == nil {
		return result
	}

	embedder, err := CreateAndValidateEmbeddingService(&settings.Embedding)
	switch {
	case err != nil:
		result.Warnings = append(result.Warnings, err.Error())
		result.FellBack = true
	case embedder == nil:
		result.FellBack = true
	default:
		result.EmbeddingService = embedder
	}

	llmSvc, err := CreateLLMService(&settings.LLM)
	if err != nil {
		result.Warnings = append(result.Warnings, fmt.Sprintf("%v: %v", domain.ErrLLMUnavailable, err))
	} else {
		result.LLMService = llmSvc
	}
	return result
}

// CreateEmbeddingService returns nil, nil when no provider is configured.
func CreateEmbeddingService(settings *domain.EmbeddingSettings) (driven.EmbeddingService, error) {
	if settings == nil || !settings.IsConfigured() {
		return nil, nil
	}
	build, ok := embeddingBuilders[settings.Provider]
	if !ok {
		return nil, fmt.Errorf("unsupported embedding provider: %s", settings.Provider)
	}
	return build(settings)
}

// CreateLLMService returns nil, nil when no provider is configured.
func CreateLLMService(settings *domain.LLMSettings) (driven.LLMService, error) {
	if settings == nil || !settings.IsConfigured() {
		return nil, nil
	}
	build, ok := llmBuilders[settings.Provider]
	if !ok {
		return nil, fmt.Errorf("unsupported LLM provider: %s", settings.Provider)
	}
	return build(settings)
}

// CreateAndValidateEmbeddingService builds the embedder and pings it.
// Errors wrap domain.ErrEmbeddingUnavailable and tell the user how to fix them.
func CreateAndValidateEmbeddingService(settings *domain.EmbeddingSettings) (driven.EmbeddingService, error) {
	svc, err := CreateEmbeddingService(settings)
	if err == nil && svc != nil {
		err = probe(svc, pingTimeout, true)
		if err != nil {
			svc, err = nil, fmt.Errorf("service unreachable (%w)", err)
		}
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %w. %s", domain.ErrEmbeddingUnavailable, err, fixHint)
	}
	return svc, nil
}

// CreateAndValidateLLMService builds the LLM client and pings it.
// Errors wrap domain.ErrLLMUnavailable.
func CreateAndValidateLLMService(settings *domain.LLMSettings) (driven.LLMService, error) {
	svc, err := CreateLLMService(settings)
	if err == nil && svc != nil {
		err = probe(svc, pingTimeout, true)
		if err != nil {
			svc, err = nil, fmt.Errorf("service unreachable (%w)", err)
		}
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %w. %s", domain.ErrLLMUnavailable, err, fixHint)
	}
	return svc, nil
}
