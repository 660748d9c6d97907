package cache

import (
	"context"
	stdsync "sync"
	"sync/atomic"
	"time"

	"github.com/orderbridge/backend/internal/domain/sync"
	"go.uber.org/zap"
)

// Constants for in-memory cache configuration
const (
	defaultCleanupInterval = 30 * time.Second
)

// InMemoryMappingCache implements MappingCache using in-memory storage.
// Suitable for single-instance deployments and testing; instances do not
// share cached mappings, which is safe because a stale miss only costs a
// repository lookup.
type InMemoryMappingCache struct {
	entries stdsync.Map // map[string]*mappingEntry
	config  sync.MappingCacheConfig
	logger  *zap.Logger
	stopCh  chan struct{} // Channel to stop the cleanup goroutine
	stopped int32         // Atomic flag to track if cache is stopped

	// Stats for monitoring
	hits   int64
	misses int64
}

// mappingEntry wraps a cached mapping with expiration time
type mappingEntry struct {
	value     *sync.EntityMapping
	expiresAt time.Time
}

// isExpired checks if the cache entry has expired
func (e *mappingEntry) isExpired() bool {
	return time.Now().After(e.expiresAt)
}

// InMemoryMappingCacheOption is a functional option for configuring the cache
type InMemoryMappingCacheOption func(*InMemoryMappingCache)

// WithInMemoryMappingConfig sets the cache configuration
func WithInMemoryMappingConfig(config sync.MappingCacheConfig) InMemoryMappingCacheOption {
	return func(c *InMemoryMappingCache) {
		c.config = config
	}
}

// WithInMemoryMappingLogger sets the logger for the cache
func WithInMemoryMappingLogger(logger *zap.Logger) InMemoryMappingCacheOption {
	return func(c *InMemoryMappingCache) {
		c.logger = logger
	}
}

// NewInMemoryMappingCache creates a new in-memory mapping cache
func NewInMemoryMappingCache(opts ...InMemoryMappingCacheOption) *InMemoryMappingCache {
	cache := &InMemoryMappingCache{
		config: sync.DefaultMappingCacheConfig(),
		logger: zap.NewNop(),
		stopCh: make(chan struct{}),
	}

	for _, opt := range opts {
		opt(cache)
	}

	// Start background cleanup goroutine
	go cache.cleanupExpired()

	return cache
}

// Get retrieves a mapping from cache by the ID it holds on one side
func (c *InMemoryMappingCache) Get(ctx context.Context, entityType sync.EntityType, system sync.PlatformCode, id string) (*sync.EntityMapping, error) {
	cacheKey := mappingCacheKey(entityType, system, id)

	if value, ok := c.entries.Load(cacheKey); ok {
		entry := value.(*mappingEntry)
		if !entry.isExpired() {
			atomic.AddInt64(&c.hits, 1)
			c.logger.Debug("Cache hit for entity mapping", zap.String("key", cacheKey))
			return entry.value, nil
		}
		// Expired, remove from cache
		c.entries.Delete(cacheKey)
	}

	atomic.AddInt64(&c.misses, 1)
	c.logger.Debug("Cache miss for entity mapping", zap.String("key", cacheKey))
	return nil, nil
}

// Set stores a mapping in cache under both of its side keys
func (c *InMemoryMappingCache) Set(ctx context.Context, mapping *sync.EntityMapping, ttl time.Duration) error {
	if mapping == nil {
		return nil
	}

	if ttl == 0 {
		ttl = c.config.TTL
	}

	entry := &mappingEntry{
		value:     mapping,
		expiresAt: time.Now().Add(ttl),
	}
	for _, key := range c.sideKeys(mapping) {
		c.entries.Store(key, entry)
	}
	return nil
}

// Delete removes both side keys of a mapping from cache
func (c *InMemoryMappingCache) Delete(ctx context.Context, mapping *sync.EntityMapping) error {
	if mapping == nil {
		return nil
	}
	for _, key := range c.sideKeys(mapping) {
		c.entries.Delete(key)
	}
	return nil
}

func (c *InMemoryMappingCache) sideKeys(mapping *sync.EntityMapping) []string {
	return []string{
		mappingCacheKey(mapping.EntityType, mapping.SourceSystem, mapping.SourceID),
		mappingCacheKey(mapping.EntityType, mapping.TargetSystem, mapping.TargetID),
	}
}

// Stats returns cache hit/miss counters
func (c *InMemoryMappingCache) Stats() (hits, misses int64) {
	return atomic.LoadInt64(&c.hits), atomic.LoadInt64(&c.misses)
}

// Close stops the cleanup goroutine
func (c *InMemoryMappingCache) Close() error {
	if atomic.CompareAndSwapInt32(&c.stopped, 0, 1) {
		close(c.stopCh)
	}
	return nil
}

// cleanupExpired periodically removes expired entries
func (c *InMemoryMappingCache) cleanupExpired() {
	ticker := time.NewTicker(defaultCleanupInterval)
	defer ticker.Stop()

	for {
		select {
		case <-c.stopCh:
			return
		case <-ticker.C:
			c.entries.Range(func(key, value any) bool {
				if value.(*mappingEntry).isExpired() {
					c.entries.Delete(key)
				}
				return true
			})
		}
	}
}

// Ensure InMemoryMappingCache implements MappingCache
var _ sync.MappingCache = (*InMemoryMappingCache)(nil)
