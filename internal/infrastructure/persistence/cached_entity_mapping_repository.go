package persistence

import (
	"context"
	"time"

	"github.com/orderbridge/backend/internal/domain/sync"
	"go.uber.org/zap"
)

// CachedEntityMappingRepository decorates a MappingRepository with a
// read-through MappingCache. Cache failures degrade to repository lookups
// and never fail the caller.
type CachedEntityMappingRepository struct {
	inner  sync.MappingRepository
	cache  sync.MappingCache
	ttl    time.Duration
	logger *zap.Logger
}

// NewCachedEntityMappingRepository creates a caching decorator around the
// given repository. A zero ttl uses the default mapping cache TTL.
func NewCachedEntityMappingRepository(inner sync.MappingRepository, cache sync.MappingCache, ttl time.Duration, logger *zap.Logger) *CachedEntityMappingRepository {
	if ttl == 0 {
		ttl = sync.DefaultMappingCacheConfig().TTL
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CachedEntityMappingRepository{
		inner:  inner,
		cache:  cache,
		ttl:    ttl,
		logger: logger,
	}
}

// Find returns the mapping holding the given ID, consulting the cache first
func (r *CachedEntityMappingRepository) Find(ctx context.Context, entityType sync.EntityType, system sync.PlatformCode, id string) (*sync.EntityMapping, error) {
	cached, err := r.cache.Get(ctx, entityType, system, id)
	if err != nil {
		r.logger.Warn("mapping cache lookup failed, falling back to repository",
			zap.String("entity_type", entityType.String()),
			zap.String("system", string(system)),
			zap.Error(err))
	} else if cached != nil {
		return cached, nil
	}

	mapping, err := r.inner.Find(ctx, entityType, system, id)
	if err != nil {
		return nil, err
	}

	if err := r.cache.Set(ctx, mapping, r.ttl); err != nil {
		r.logger.Warn("failed to cache mapping after lookup",
			zap.String("mapping_id", mapping.ID.String()),
			zap.Error(err))
	}
	return mapping, nil
}

// Upsert writes through to the repository and refreshes the cache
func (r *CachedEntityMappingRepository) Upsert(ctx context.Context, mapping *sync.EntityMapping) error {
	if err := r.inner.Upsert(ctx, mapping); err != nil {
		return err
	}
	if err := r.cache.Set(ctx, mapping, r.ttl); err != nil {
		r.logger.Warn("failed to refresh mapping cache after upsert",
			zap.String("mapping_id", mapping.ID.String()),
			zap.Error(err))
	}
	return nil
}

// CountByType delegates to the repository; counts are not cached
func (r *CachedEntityMappingRepository) CountByType(ctx context.Context, entityType sync.EntityType) (int64, error) {
	return r.inner.CountByType(ctx, entityType)
}

// Ensure CachedEntityMappingRepository implements MappingRepository
var _ sync.MappingRepository = (*CachedEntityMappingRepository)(nil)
