package ratelimit

import (
	"context"
	"fmt"

	"golang.org/x/time/rate"

	"github.com/orderbridge/backend/internal/domain/sync"
)

// PlatformLimiter enforces a client-side request budget per platform so the
// engine stays under each platform's documented rate limit instead of
// discovering it through 429 responses.
type PlatformLimiter struct {
	limiters map[sync.PlatformCode]*rate.Limiter
}

// LimitConfig is the request budget for one platform
type LimitConfig struct {
	// RequestsPerSecond is the sustained request rate
	RequestsPerSecond float64
	// Burst is the maximum burst size
	Burst int
}

// NewPlatformLimiter creates a limiter with per-platform budgets
func NewPlatformLimiter(limits map[sync.PlatformCode]LimitConfig) *PlatformLimiter {
	limiters := make(map[sync.PlatformCode]*rate.Limiter, len(limits))
	for code, cfg := range limits {
		limiters[code] = rate.NewLimiter(rate.Limit(cfg.RequestsPerSecond), cfg.Burst)
	}
	return &PlatformLimiter{limiters: limiters}
}

// Wait blocks until the platform's budget permits one request or the
// context is cancelled. Platforms without a configured budget pass through
// unthrottled.
func (l *PlatformLimiter) Wait(ctx context.Context, platform sync.PlatformCode) error {
	limiter, ok := l.limiters[platform]
	if !ok {
		return nil
	}
	if err := limiter.Wait(ctx); err != nil {
		return fmt.Errorf("rate limit wait for %s: %w", platform, err)
	}
	return nil
}

// Allow reports whether one request for the platform is permitted right now
// without blocking.
func (l *PlatformLimiter) Allow(platform sync.PlatformCode) bool {
	limiter, ok := l.limiters[platform]
	if !ok {
		return true
	}
	return limiter.Allow()
}
