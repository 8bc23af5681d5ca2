package ai

import (
	"context"
	"time"

	"github.com/custodia-labs/qpro/internal/core/domain"
	"github.com/custodia-labs/qpro/internal/core/ports/driven"
)

var _ driven.AIConfigValidator = (*ConfigValidator)(nil)

// pingTimeout bounds every connectivity check.
const pingTimeout = 5 * time.Second

// ConfigValidator builds a throwaway client for a settings block and
// pings it. Unconfigured settings pass without any network call.
type ConfigValidator struct {
	timeout time.Duration
}

// NewConfigValidator returns a validator using the default ping timeout.
func NewConfigValidator() *ConfigValidator {
	return &ConfigValidator{timeout: pingTimeout}
}

// ValidateEmbedding checks that the embedding provider answers.
func (v *ConfigValidator) ValidateEmbedding(cfg *domain.EmbeddingSettings) error {
	svc, err := CreateEmbeddingService(cfg)
	if err != nil || svc == nil {
		return err
	}
	return probe(svc, v.timeout, false)
}

// ValidateLLM checks that the LLM provider answers.
func (v *ConfigValidator) ValidateLLM(cfg *domain.LLMSettings) error {
	svc, err := CreateLLMService(cfg)
	if err != nil || svc == nil {
		return err
	}
	return probe(svc, v.timeout, false)
}

// pingCloser is the part of both AI ports a probe needs.
type pingCloser interface {
	Ping(ctx context.Context) error
	Close() error
}

// probe pings svc within timeout. svc is closed afterwards unless the
// ping succeeded and keep is set.
func probe(svc pingCloser, timeout time.Duration, keep bool) error {
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	err := svc.Ping(ctx)
	if err != nil || !keep {
		_ = svc.Close()
	}
	return err
}
