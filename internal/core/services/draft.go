package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/custodia-labs/qpro/internal/core/domain"
	"github.com/custodia-labs/qpro/internal/core/ports/driven"
	"github.com/custodia-labs/qpro/internal/core/ports/driving"
	"github.com/custodia-labs/qpro/internal/logger"
)

// Ensure DraftService implements the interface.
var _ driving.DraftService = (*DraftService)(nil)

// contextSeparator joins retrieved chunks in the prompt.
const contextSeparator = "\n\n---\n\n"

// DraftService turns a job post into a cover letter, CV bullets and an
// ATS report grounded on the user's stored documents.
type DraftService struct {
	retrieval  driving.RetrievalService
	llm        driven.LLMService
	prompts    driven.PromptStore
	analyzer   driven.TextAnalyzer
	pipeline   domain.PipelineSettings
	generation domain.GenerationSettings
	sleep      func(ctx context.Context, d time.Duration) error
}

// NewDraftService creates a new draft service. The analyzer is optional;
// without it ATS keywords are compared on lowercase words.
func NewDraftService(
	retrieval driving.RetrievalService,
	llm driven.LLMService,
	prompts driven.PromptStore,
	analyzer driven.TextAnalyzer,
	pipeline domain.PipelineSettings,
	generation domain.GenerationSettings,
) *DraftService {
	if pipeline.TopK <= 0 {
		pipeline.TopK = domain.DefaultTopK
	}
	defaults := domain.DefaultGenerationSettings()
	if generation.Timeout <= 0 {
		generation.Timeout = defaults.Timeout
	}
	if generation.MaxTokens <= 0 {
		generation.MaxTokens = defaults.MaxTokens
	}
	return &DraftService{
		retrieval:  retrieval,
		llm:        llm,
		prompts:    prompts,
		analyzer:   analyzer,
		pipeline:   pipeline,
		generation: generation,
		sleep:      sleepContext,
	}
}

// SetPromptStore sets the prompt store for loading customisable prompts.
func (s *DraftService) SetPromptStore(store driven.PromptStore) {
	s.prompts = store
}

// Compose retrieves context for the job post, generates a draft and
// reconciles its ATS report against the retrieved text.
func (s *DraftService) Compose(ctx context.Context, jobPost string, opts driving.DraftOptions) (*domain.Draft, error) {
	logger.Section("Draft")
	defer logger.Timed("draft")()

	jobPost = strings.TrimSpace(jobPost)
	if jobPost == "" {
		return nil, fmt.Errorf("%w: job post is empty", domain.ErrInvalidInput)
	}
	if s.llm == nil {
		return nil, domain.ErrLLMUnavailable
	}

	k := opts.TopK
	if k <= 0 {
		k = s.pipeline.TopK
	}
	retrieved, err := s.retrieval.Retrieve(ctx, jobPost, k)
	if err != nil {
		return nil, err
	}
	logger.Debug("Context: %d chunks", len(retrieved))

	prompt, system, err := s.buildPrompt(jobPost, retrieved)
	if err != nil {
		return nil, err
	}

	raw, err := s.generate(ctx, prompt, system)
	if err != nil {
		return nil, err
	}

	draft := ParseDraft(raw)
	texts := make([]string, len(retrieved))
	for i := range retrieved {
		texts[i] = retrieved[i].Chunk.Content
	}
	reconcileATS(&draft.ATS, texts, s.analyzer)

	draft.Sources = retrieved
	draft.Raw = raw
	if draft.Partial {
		logger.Warn("Draft is partial, missing: %v", draft.Missing)
	}
	return draft, nil
}

// buildPrompt fills the draft template with the job post and the
// attributed context block.
func (s *DraftService) buildPrompt(jobPost string, retrieved []domain.RetrievedChunk) (string, string, error) {
	if s.prompts == nil {
		return "", "", domain.NewInfrastructure("prompt", errors.New("no prompt store configured"))
	}
	template, err := s.prompts.Load(driven.PromptDraft)
	if err != nil {
		return "", "", domain.NewInfrastructure("prompt", err)
	}
	system, err := s.prompts.Load(driven.PromptDraftSystem)
	if err != nil {
		return "", "", domain.NewInfrastructure("prompt", err)
	}
	return fmt.Sprintf(template, jobPost, FormatContext(retrieved)), system, nil
}

// FormatContext renders retrieved chunks for the prompt, each tagged
// with its document type and file name.
func FormatContext(retrieved []domain.RetrievedChunk) string {
	parts := make([]string, len(retrieved))
	for i := range retrieved {
		r := &retrieved[i]
		docType := r.Document.Type
		if docType == "" {
			docType = domain.TypeFile
		}
		file := r.Document.Filename()
		if file == "" {
			file = r.Document.ID
		}
		parts[i] = fmt.Sprintf("[type: %s, file: %s]\n%s", docType, file, r.Chunk.Content)
	}
	return strings.Join(parts, contextSeparator)
}

// generate calls the LLM with a per-attempt timeout. Only transient
// failures are retried; a deadline is reported as a generation timeout.
func (s *DraftService) generate(ctx context.Context, prompt, system string) (string, error) {
	opts := driven.GenerateOptions{
		System:      system,
		MaxTokens:   s.generation.MaxTokens,
		Temperature: s.generation.Temperature,
		JSON:        true,
	}

	for attempt := 0; ; attempt++ {
		logger.Debug("Generate attempt %d with %s", attempt+1, s.llm.ModelName())

		attemptCtx, cancel := context.WithTimeout(ctx, s.generation.Timeout)
		out, err := s.llm.Generate(attemptCtx, prompt, opts)
		timedOut := errors.Is(attemptCtx.Err(), context.DeadlineExceeded)
		cancel()

		if err == nil {
			return out, nil
		}
		if errors.Is(err, context.DeadlineExceeded) || timedOut {
			return "", domain.NewGenerationTimeout(err)
		}
		if ctx.Err() != nil {
			return "", ctx.Err()
		}
		if !errors.Is(err, domain.ErrTransient) || attempt >= s.generation.MaxRetries {
			return "", domain.NewInfrastructure("generate", err)
		}

		logger.Warn("Transient generation failure (attempt %d): %v", attempt+1, err)
		if err := s.sleep(ctx, s.generation.RetryBackoff); err != nil {
			return "", err
		}
	}
}

func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
