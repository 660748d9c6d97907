package middleware

import (
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/orderbridge/backend/internal/interfaces/http/dto"
	"golang.org/x/time/rate"
)

// RateLimitConfig holds rate limiting configuration
type RateLimitConfig struct {
	RequestsPerSecond float64
	Burst             int
	// ClientTTL controls how long an idle client's limiter is retained
	ClientTTL       time.Duration
	CleanupInterval time.Duration
}

// DefaultRateLimitConfig returns sensible rate limiting defaults
func DefaultRateLimitConfig() RateLimitConfig {
	return RateLimitConfig{
		RequestsPerSecond: 20,
		Burst:             40,
		ClientTTL:         3 * time.Minute,
		CleanupInterval:   time.Minute,
	}
}

// clientLimiter pairs a token bucket with its last access time
type clientLimiter struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// RateLimiter enforces a per-client request rate
type RateLimiter struct {
	config  RateLimitConfig
	mu      sync.Mutex
	clients map[string]*clientLimiter
	lastGC  time.Time
}

// NewRateLimiter creates a rate limiter with the given configuration
func NewRateLimiter(cfg RateLimitConfig) *RateLimiter {
	if cfg.RequestsPerSecond <= 0 {
		cfg.RequestsPerSecond = DefaultRateLimitConfig().RequestsPerSecond
	}
	if cfg.Burst <= 0 {
		cfg.Burst = int(cfg.RequestsPerSecond) + 1
	}
	if cfg.ClientTTL <= 0 {
		cfg.ClientTTL = DefaultRateLimitConfig().ClientTTL
	}
	if cfg.CleanupInterval <= 0 {
		cfg.CleanupInterval = DefaultRateLimitConfig().CleanupInterval
	}
	return &RateLimiter{
		config:  cfg,
		clients: make(map[string]*clientLimiter),
		lastGC:  time.Now(),
	}
}

// Allow reports whether the given client may proceed
func (rl *RateLimiter) Allow(clientKey string) bool {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := time.Now()
	if now.Sub(rl.lastGC) >= rl.config.CleanupInterval {
		for key, cl := range rl.clients {
			if now.Sub(cl.lastSeen) > rl.config.ClientTTL {
				delete(rl.clients, key)
			}
		}
		rl.lastGC = now
	}

	cl, ok := rl.clients[clientKey]
	if !ok {
		cl = &clientLimiter{
			limiter: rate.NewLimiter(rate.Limit(rl.config.RequestsPerSecond), rl.config.Burst),
		}
		rl.clients[clientKey] = cl
	}
	cl.lastSeen = now

	return cl.limiter.Allow()
}

// Middleware returns a gin middleware enforcing the per-client rate limit
func (rl *RateLimiter) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		if !rl.Allow(c.ClientIP()) {
			c.AbortWithStatusJSON(http.StatusTooManyRequests,
				dto.NewErrorResponse("RATE_LIMITED", "Too many requests, please slow down"))
			return
		}
		c.Next()
	}
}

// RateLimit returns a rate limiting middleware with default configuration
func RateLimit() gin.HandlerFunc {
	return NewRateLimiter(DefaultRateLimitConfig()).Middleware()
}
