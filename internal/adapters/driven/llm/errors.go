// Package llm holds the generation adapters, one subpackage per
// provider, and the error classification they share.
package llm

import (
	"context"
	"errors"
	"fmt"
	"net"
	"strings"

	"github.com/custodia-labs/qpro/internal/core/domain"
)

// Classify wraps err for the named provider. Rate limits, 5xx responses
// and network failures are marked domain.ErrTransient; context errors
// pass through unchanged so callers can detect timeouts.
func Classify(provider string, err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return err
	}
	if IsRetryable(err) {
		return fmt.Errorf("%s: %w: %w", provider, domain.ErrTransient, err)
	}
	return fmt.Errorf("%s: %w", provider, err)
}

// IsRetryable reports whether a request may succeed if repeated.
func IsRetryable(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, domain.ErrTransient) {
		return true
	}
	var netErr net.Error
	if errors.As(err, &netErr) {
		return true
	}
	return isRateLimitError(err) || isServerError(err) || isConnectionError(err)
}

// IsRetryableStatus reports whether an HTTP status code is transient.
func IsRetryableStatus(code int) bool {
	return code == 429 || code >= 500
}

func isRateLimitError(err error) bool {
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "rate limit") ||
		strings.Contains(msg, "too many requests") ||
		strings.Contains(msg, "429") ||
		strings.Contains(msg, "overloaded") ||
		strings.Contains(msg, "resource exhausted")
}

func isServerError(err error) bool {
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "500") ||
		strings.Contains(msg, "502") ||
		strings.Contains(msg, "503") ||
		strings.Contains(msg, "504") ||
		strings.Contains(msg, "internal server error") ||
		strings.Contains(msg, "bad gateway") ||
		strings.Contains(msg, "service unavailable") ||
		strings.Contains(msg, "temporarily unavailable")
}

func isConnectionError(err error) bool {
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "connection refused") ||
		strings.Contains(msg, "connection reset") ||
		strings.Contains(msg, "eof")
}
