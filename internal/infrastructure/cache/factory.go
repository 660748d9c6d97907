package cache

import (
	"fmt"

	"github.com/orderbridge/backend/internal/domain/shared"
	"github.com/orderbridge/backend/internal/infrastructure/config"
	"go.uber.org/zap"
)

// IdempotencyStoreFactory builds the webhook deduplication store. It
// prefers Redis so duplicate deliveries are caught across server
// instances, with an optional single-process fallback.
type IdempotencyStoreFactory struct {
	redisConfig     config.RedisConfig
	logger          *zap.Logger
	inMemoryEnabled bool
}

// IdempotencyStoreFactoryOption configures the factory.
type IdempotencyStoreFactoryOption func(*IdempotencyStoreFactory)

// WithLogger sets the factory's logger.
func WithLogger(logger *zap.Logger) IdempotencyStoreFactoryOption {
	return func(f *IdempotencyStoreFactory) {
		f.logger = logger
	}
}

// WithInMemoryFallback controls whether CreateStore may return an
// in-memory store when Redis cannot be reached. Enabled by default.
func WithInMemoryFallback(allow bool) IdempotencyStoreFactoryOption {
	return func(f *IdempotencyStoreFactory) {
		f.inMemoryEnabled = allow
	}
}

// NewIdempotencyStoreFactory builds a factory from the Redis section of
// the app configuration.
func NewIdempotencyStoreFactory(cfg config.RedisConfig, opts ...IdempotencyStoreFactoryOption) *IdempotencyStoreFactory {
	f := &IdempotencyStoreFactory{
		redisConfig:     cfg,
		logger:          zap.NewNop(),
		inMemoryEnabled: true,
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// CreateRedisStore connects to Redis and returns a store backed by it.
func (f *IdempotencyStoreFactory) CreateRedisStore() (shared.IdempotencyStore, error) {
	store, err := NewRedisIdempotencyStore(RedisConfig{
		Host:     f.redisConfig.Host,
		Port:     f.redisConfig.Port,
		Password: f.redisConfig.Password,
		DB:       f.redisConfig.DB,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create Redis idempotency store: %w", err)
	}
	return store, nil
}

// CreateInMemoryStore returns a process-local store. Duplicate webhook
// deliveries routed to a different instance will not be detected, so
// this is only suitable for single-instance deployments and tests.
func (f *IdempotencyStoreFactory) CreateInMemoryStore() shared.IdempotencyStore {
	return NewInMemoryIdempotencyStore()
}

// CreateStore returns a Redis-backed store when Redis is reachable,
// otherwise falls back to the in-memory store if the fallback is
// enabled.
func (f *IdempotencyStoreFactory) CreateStore() (shared.IdempotencyStore, error) {
	store, err := f.CreateRedisStore()
	if err == nil {
		f.logger.Info("using Redis idempotency store")
		return store, nil
	}

	if !f.inMemoryEnabled {
		return nil, fmt.Errorf("Redis required for webhook deduplication but unavailable: %w", err)
	}

	f.logger.Warn("Redis unavailable, falling back to in-memory idempotency store",
		zap.Error(err),
	)
	return f.CreateInMemoryStore(), nil
}
