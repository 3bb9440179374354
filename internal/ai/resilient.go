package ai

import (
	"context"
	"time"

	"sofia/internal/clock"
	apperrors "sofia/internal/errors"
	"sofia/internal/logger"
)

// Resilient decorates a Completer with a per-attempt timeout and retries.
// Final failures are reported as AI_REQUEST_FAILED; AI_UNAVAILABLE passes
// through untouched.
type Resilient struct {
	inner   Completer
	clock   clock.Clock
	timeout time.Duration
	retry   RetryConfig
}

// NewResilient wraps inner. A zero timeout disables the per-attempt bound.
func NewResilient(inner Completer, clk clock.Clock, timeout time.Duration, retry RetryConfig) *Resilient {
	return &Resilient{inner: inner, clock: clk, timeout: timeout, retry: retry}
}

func (r *Resilient) Complete(ctx context.Context, req Request) (string, error) {
	text, err := WithRetry(ctx, r.clock, r.retry, func(ctx context.Context) (string, error) {
		if r.timeout > 0 {
			var cancel context.CancelFunc
			ctx, cancel = context.WithTimeout(ctx, r.timeout)
			defer cancel()
		}
		return r.inner.Complete(ctx, req)
	})
	if err != nil {
		if IsUnavailable(err) {
			return "", err
		}
		logger.Named("ai").Warnw("AI completion failed", "error", err)
		return "", apperrors.Wrap(apperrors.ErrAIRequestFailed, err)
	}
	return text, nil
}
