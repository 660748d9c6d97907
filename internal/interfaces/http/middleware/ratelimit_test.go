package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRateLimiter_AllowWithinBurst(t *testing.T) {
	rl := NewRateLimiter(RateLimitConfig{RequestsPerSecond: 1, Burst: 3})

	for i := 0; i < 3; i++ {
		assert.True(t, rl.Allow("client-1"), "request %d should be allowed", i)
	}
	assert.False(t, rl.Allow("client-1"))
}

func TestRateLimiter_ClientsIsolated(t *testing.T) {
	rl := NewRateLimiter(RateLimitConfig{RequestsPerSecond: 1, Burst: 1})

	assert.True(t, rl.Allow("client-1"))
	assert.False(t, rl.Allow("client-1"))
	assert.True(t, rl.Allow("client-2"))
}

func TestRateLimiter_Refill(t *testing.T) {
	rl := NewRateLimiter(RateLimitConfig{RequestsPerSecond: 50, Burst: 1})

	require.True(t, rl.Allow("client-1"))
	require.False(t, rl.Allow("client-1"))

	time.Sleep(40 * time.Millisecond)
	assert.True(t, rl.Allow("client-1"))
}

func TestRateLimiter_IdleClientsEvicted(t *testing.T) {
	rl := NewRateLimiter(RateLimitConfig{
		RequestsPerSecond: 1,
		Burst:             1,
		ClientTTL:         time.Millisecond,
		CleanupInterval:   time.Millisecond,
	})

	rl.Allow("client-1")
	time.Sleep(5 * time.Millisecond)
	rl.Allow("client-2")

	rl.mu.Lock()
	_, ok := rl.clients["client-1"]
	rl.mu.Unlock()
	assert.False(t, ok, "idle client should be evicted")
}

func TestRateLimiter_DefaultsApplied(t *testing.T) {
	rl := NewRateLimiter(RateLimitConfig{})
	assert.Equal(t, DefaultRateLimitConfig().RequestsPerSecond, rl.config.RequestsPerSecond)
	assert.Positive(t, rl.config.Burst)
}

func TestRateLimitMiddleware_TooManyRequests(t *testing.T) {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.Use(NewRateLimiter(RateLimitConfig{RequestsPerSecond: 1, Burst: 1}).Middleware())
	router.GET("/test", func(c *gin.Context) {
		c.Status(http.StatusOK)
	})

	req := httptest.NewRequest(http.MethodGet, "/test", nil)
	req.RemoteAddr = "10.0.0.1:1234"

	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)

	w = httptest.NewRecorder()
	router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusTooManyRequests, w.Code)
	assert.Contains(t, w.Body.String(), "RATE_LIMITED")
}
