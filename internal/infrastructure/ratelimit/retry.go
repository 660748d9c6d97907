package ratelimit

import (
	"context"
	"math/rand"
	"time"

	"go.uber.org/zap"

	"github.com/orderbridge/backend/internal/domain/sync"
)

// RetryPolicy bounds how platform call failures are retried. Only
// rate-limited and transient failures are retried; validation, fatal and
// conflict failures surface to the caller on the first attempt.
type RetryPolicy struct {
	// MaxAttempts is the total attempt count including the first call
	MaxAttempts int
	// BaseDelay is the backoff before the first retry
	BaseDelay time.Duration
	// MaxDelay caps the exponential backoff
	MaxDelay time.Duration
}

// DefaultRetryPolicy returns the standard policy: four attempts with
// exponential backoff starting at 200ms and capped at 10s.
func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{
		MaxAttempts: 4,
		BaseDelay:   200 * time.Millisecond,
		MaxDelay:    10 * time.Second,
	}
}

// Retrier executes platform calls under a rate limiter and retry policy
type Retrier struct {
	limiter *PlatformLimiter
	policy  RetryPolicy
	logger  *zap.Logger
}

// NewRetrier creates a retrier
func NewRetrier(limiter *PlatformLimiter, policy RetryPolicy, logger *zap.Logger) *Retrier {
	if policy.MaxAttempts <= 0 {
		policy = DefaultRetryPolicy()
	}
	return &Retrier{
		limiter: limiter,
		policy:  policy,
		logger:  logger,
	}
}

// Do runs fn against the given platform, waiting for the platform's rate
// budget before each attempt and retrying retryable failures with
// exponential backoff. A platform-supplied retry-after hint overrides the
// computed backoff when it is longer.
func (r *Retrier) Do(ctx context.Context, platform sync.PlatformCode, op string, fn func(ctx context.Context) error) error {
	var lastErr error
	for attempt := 1; attempt <= r.policy.MaxAttempts; attempt++ {
		if err := r.limiter.Wait(ctx, platform); err != nil {
			return err
		}

		lastErr = fn(ctx)
		if lastErr == nil {
			return nil
		}

		class := sync.Classify(lastErr)
		if !class.Retryable() || attempt == r.policy.MaxAttempts {
			return lastErr
		}

		delay := r.backoff(attempt)
		if hint := sync.RetryAfterHint(lastErr); hint > delay {
			delay = hint
		}

		r.logger.Warn("Retrying platform call",
			zap.String("platform", platform.String()),
			zap.String("operation", op),
			zap.String("error_class", string(class)),
			zap.Int("attempt", attempt),
			zap.Duration("delay", delay),
			zap.Error(lastErr))

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(delay):
		}
	}
	return lastErr
}

// backoff returns the exponential delay for the given attempt with jitter
func (r *Retrier) backoff(attempt int) time.Duration {
	delay := r.policy.BaseDelay << (attempt - 1)
	if delay > r.policy.MaxDelay {
		delay = r.policy.MaxDelay
	}
	// Up to 25% jitter so concurrent workers do not retry in lockstep.
	jitter := time.Duration(rand.Int63n(int64(delay)/4 + 1))
	return delay + jitter
}
