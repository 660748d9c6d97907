package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/orderbridge/backend/internal/domain/sync"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// RedisMappingCache implements MappingCache using Redis
type RedisMappingCache struct {
	client     *redis.Client
	ownsClient bool // true if we created the client and should close it
	config     sync.MappingCacheConfig
	logger     *zap.Logger
}

// RedisMappingCacheOption is a functional option for configuring the cache
type RedisMappingCacheOption func(*RedisMappingCache)

// WithMappingCacheConfig sets the cache configuration
func WithMappingCacheConfig(config sync.MappingCacheConfig) RedisMappingCacheOption {
	return func(c *RedisMappingCache) {
		c.config = config
	}
}

// WithMappingCacheLogger sets the logger for the cache
func WithMappingCacheLogger(logger *zap.Logger) RedisMappingCacheOption {
	return func(c *RedisMappingCache) {
		c.logger = logger
	}
}

// NewRedisMappingCache creates a new Redis-based mapping cache
func NewRedisMappingCache(cfg RedisConfig, opts ...RedisMappingCacheOption) (*RedisMappingCache, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     fmt.Sprintf("%s:%d", cfg.Host, cfg.Port),
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	// Test connection
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	cache := &RedisMappingCache{
		client:     client,
		ownsClient: true, // We created this client, so we own it
		config:     sync.DefaultMappingCacheConfig(),
		logger:     zap.NewNop(),
	}

	for _, opt := range opts {
		opt(cache)
	}

	return cache, nil
}

// NewRedisMappingCacheWithClient creates a cache with an existing Redis client
// Note: The caller retains ownership of the client and is responsible for closing it
func NewRedisMappingCacheWithClient(client *redis.Client, opts ...RedisMappingCacheOption) *RedisMappingCache {
	cache := &RedisMappingCache{
		client:     client,
		ownsClient: false, // Client is shared, don't close it
		config:     sync.DefaultMappingCacheConfig(),
		logger:     zap.NewNop(),
	}

	for _, opt := range opts {
		opt(cache)
	}

	return cache
}

// mappingCacheKey generates the cache key for one side of a mapping
func mappingCacheKey(entityType sync.EntityType, system sync.PlatformCode, id string) string {
	return fmt.Sprintf("mapping:%s:%s:%s", entityType, system, id)
}

// Get retrieves a mapping from cache by the ID it holds on one side
func (c *RedisMappingCache) Get(ctx context.Context, entityType sync.EntityType, system sync.PlatformCode, id string) (*sync.EntityMapping, error) {
	cacheKey := mappingCacheKey(entityType, system, id)

	data, err := c.client.Get(ctx, cacheKey).Bytes()
	if err == redis.Nil {
		// Cache miss
		c.logger.Debug("Cache miss for entity mapping", zap.String("key", cacheKey))
		return nil, nil
	}
	if err != nil {
		c.logger.Error("Failed to get entity mapping from cache",
			zap.String("key", cacheKey),
			zap.Error(err))
		return nil, fmt.Errorf("failed to get mapping from cache: %w", err)
	}

	var mapping sync.EntityMapping
	if err := json.Unmarshal(data, &mapping); err != nil {
		c.logger.Error("Failed to unmarshal entity mapping",
			zap.String("key", cacheKey),
			zap.Error(err))
		// Delete corrupted cache entry
		_ = c.client.Del(ctx, cacheKey)
		return nil, fmt.Errorf("failed to unmarshal mapping: %w", err)
	}

	c.logger.Debug("Cache hit for entity mapping", zap.String("key", cacheKey))
	return &mapping, nil
}

// Set stores a mapping in cache under both of its side keys
func (c *RedisMappingCache) Set(ctx context.Context, mapping *sync.EntityMapping, ttl time.Duration) error {
	if mapping == nil {
		return nil
	}

	if ttl == 0 {
		ttl = c.config.TTL
	}

	data, err := json.Marshal(mapping)
	if err != nil {
		c.logger.Error("Failed to marshal entity mapping",
			zap.String("mapping_id", mapping.ID.String()),
			zap.Error(err))
		return fmt.Errorf("failed to marshal mapping: %w", err)
	}

	for _, key := range c.sideKeys(mapping) {
		if err := c.client.Set(ctx, key, data, ttl).Err(); err != nil {
			c.logger.Error("Failed to set entity mapping in cache",
				zap.String("key", key),
				zap.Error(err))
			return fmt.Errorf("failed to set mapping in cache: %w", err)
		}
	}

	c.logger.Debug("Cached entity mapping",
		zap.String("mapping_id", mapping.ID.String()),
		zap.Duration("ttl", ttl))
	return nil
}

// Delete removes both side keys of a mapping from cache
func (c *RedisMappingCache) Delete(ctx context.Context, mapping *sync.EntityMapping) error {
	if mapping == nil {
		return nil
	}

	if err := c.client.Del(ctx, c.sideKeys(mapping)...).Err(); err != nil {
		c.logger.Error("Failed to delete entity mapping from cache",
			zap.String("mapping_id", mapping.ID.String()),
			zap.Error(err))
		return fmt.Errorf("failed to delete mapping from cache: %w", err)
	}

	c.logger.Debug("Deleted entity mapping from cache",
		zap.String("mapping_id", mapping.ID.String()))
	return nil
}

func (c *RedisMappingCache) sideKeys(mapping *sync.EntityMapping) []string {
	return []string{
		mappingCacheKey(mapping.EntityType, mapping.SourceSystem, mapping.SourceID),
		mappingCacheKey(mapping.EntityType, mapping.TargetSystem, mapping.TargetID),
	}
}

// Close releases any resources held by the cache
func (c *RedisMappingCache) Close() error {
	// Only close client if we own it
	if c.ownsClient {
		return c.client.Close()
	}
	return nil
}

// GetClient returns the underlying Redis client (for testing/monitoring)
func (c *RedisMappingCache) GetClient() *redis.Client {
	return c.client
}

// Ensure RedisMappingCache implements MappingCache
var _ sync.MappingCache = (*RedisMappingCache)(nil)
