// Package embedding holds the embedding provider adapters and the rate
// limiter they share.
package embedding

import (
	"context"
	"errors"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"github.com/custodia-labs/qpro/internal/core/domain"
	"github.com/custodia-labs/qpro/internal/core/ports/driven"
)

var _ driven.EmbeddingService = (*RateLimited)(nil)

// RateLimitConfig holds rate limiting configuration for a provider.
type RateLimitConfig struct {
	// RequestsPerSecond is the sustained rate limit.
	RequestsPerSecond float64
	// BurstSize is the maximum burst size.
	BurstSize int
	// Backoff is how long calls pause after a transient provider error.
	Backoff time.Duration
}

// DefaultRateLimits are per-provider defaults. Local Ollama is only
// bounded to keep bulk ingestion from starving the machine.
var DefaultRateLimits = map[domain.AIProvider]RateLimitConfig{
	domain.AIProviderOllama: {RequestsPerSecond: 20, BurstSize: 20, Backoff: time.Second},
	domain.AIProviderOpenAI: {RequestsPerSecond: 5, BurstSize: 10, Backoff: 20 * time.Second},
}

// RateLimited wraps an embedding service with a token bucket. After a
// transient error every caller waits out the backoff before the next call.
type RateLimited struct {
	driven.EmbeddingService

	mu      sync.Mutex
	limiter *rate.Limiter
	backoff time.Duration
	retryAt time.Time
}

// NewRateLimited wraps svc using the defaults for provider.
func NewRateLimited(svc driven.EmbeddingService, provider domain.AIProvider) *RateLimited {
	cfg, ok := DefaultRateLimits[provider]
	if !ok {
		cfg = RateLimitConfig{RequestsPerSecond: 5, BurstSize: 10, Backoff: 10 * time.Second}
	}
	return NewRateLimitedWithConfig(svc, cfg)
}

// NewRateLimitedWithConfig wraps svc with a custom configuration.
func NewRateLimitedWithConfig(svc driven.EmbeddingService, cfg RateLimitConfig) *RateLimited {
	return &RateLimited{
		EmbeddingService: svc,
		limiter:          rate.NewLimiter(rate.Limit(cfg.RequestsPerSecond), cfg.BurstSize),
		backoff:          cfg.Backoff,
	}
}

// Embed waits for a token, then embeds text.
func (r *RateLimited) Embed(ctx context.Context, text string) ([]float32, error) {
	if err := r.wait(ctx); err != nil {
		return nil, err
	}
	v, err := r.EmbeddingService.Embed(ctx, text)
	r.record(err)
	return v, err
}

// EmbedBatch waits for a single token, then embeds all texts in one call.
func (r *RateLimited) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	if err := r.wait(ctx); err != nil {
		return nil, err
	}
	v, err := r.EmbeddingService.EmbedBatch(ctx, texts)
	r.record(err)
	return v, err
}

func (r *RateLimited) wait(ctx context.Context) error {
	r.mu.Lock()
	retryAt := r.retryAt
	r.mu.Unlock()

	if d := time.Until(retryAt); d > 0 {
		timer := time.NewTimer(d)
		defer timer.Stop()
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-timer.C:
		}
	}
	return r.limiter.Wait(ctx)
}

func (r *RateLimited) record(err error) {
	if err == nil || !errors.Is(err, domain.ErrTransient) {
		return
	}
	r.mu.Lock()
	r.retryAt = time.Now().Add(r.backoff)
	r.mu.Unlock()
}
