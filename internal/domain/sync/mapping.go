package sync

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
)

// ---------------------------------------------------------------------------
// Entity Mapping Errors
// ---------------------------------------------------------------------------

var (
	ErrMappingNotFound          = errors.New("sync: entity mapping not found")
	ErrMappingInvalidEntityType = errors.New("sync: invalid entity type")
	ErrMappingInvalidSystem     = errors.New("sync: invalid mapping system")
	ErrMappingInvalidID         = errors.New("sync: mapping ID must not be empty")
	ErrMappingTargetConflict    = errors.New("sync: target ID already mapped to a different source")
	ErrMappingSameSystem        = errors.New("sync: source and target system must differ")
)

// ---------------------------------------------------------------------------
// EntityType
// ---------------------------------------------------------------------------

// EntityType identifies the kind of commerce entity a mapping or sync task
// operates on
type EntityType string

const (
	// EntityTypeOrder covers orders including their fulfillment and
	// payment status fields
	EntityTypeOrder EntityType = "ORDER"
	// EntityTypeInventory covers SKU-level inventory counts
	EntityTypeInventory EntityType = "INVENTORY"
)

// IsValid returns true if the entity type is valid
func (t EntityType) IsValid() bool {
	switch t {
	case EntityTypeOrder, EntityTypeInventory:
		return true
	default:
		return false
	}
}

// String returns the string representation of EntityType
func (t EntityType) String() string {
	return string(t)
}

// ---------------------------------------------------------------------------
// EntityMapping Entity
// ---------------------------------------------------------------------------

// EntityMapping is the durable correspondence between an entity's ID on one
// platform and its ID on the other. A mapping is created on the first
// successful create-in-target and its LastSyncedAt is refreshed on every
// successful sync of the entity. Mappings are never deleted automatically;
// stale mappings are tolerated and re-validated lazily.
type EntityMapping struct {
	// ID is the unique identifier of this mapping
	ID uuid.UUID
	// EntityType is the kind of entity mapped
	EntityType EntityType
	// SourceSystem is the platform the source ID belongs to
	SourceSystem PlatformCode
	// SourceID is the entity ID on the source platform
	SourceID string
	// TargetSystem is the platform the target ID belongs to
	TargetSystem PlatformCode
	// TargetID is the entity ID on the target platform
	TargetID string
	// LastSyncedAt is when this entity last synced successfully
	LastSyncedAt time.Time
	// CreatedAt is when this mapping was created
	CreatedAt time.Time
}

// NewEntityMapping creates a new entity mapping
func NewEntityMapping(entityType EntityType, sourceSystem PlatformCode, sourceID string, targetSystem PlatformCode, targetID string) (*EntityMapping, error) {
	if !entityType.IsValid() {
		return nil, ErrMappingInvalidEntityType
	}
	if !sourceSystem.IsValid() || !targetSystem.IsValid() {
		return nil, ErrMappingInvalidSystem
	}
	if sourceSystem == targetSystem {
		return nil, ErrMappingSameSystem
	}
	if sourceID == "" || targetID == "" {
		return nil, ErrMappingInvalidID
	}

	now := time.Now()
	return &EntityMapping{
		ID:           uuid.New(),
		EntityType:   entityType,
		SourceSystem: sourceSystem,
		SourceID:     sourceID,
		TargetSystem: targetSystem,
		TargetID:     targetID,
		LastSyncedAt: now,
		CreatedAt:    now,
	}, nil
}

// Validate validates the entity mapping
func (m *EntityMapping) Validate() error {
	if !m.EntityType.IsValid() {
		return ErrMappingInvalidEntityType
	}
	if !m.SourceSystem.IsValid() || !m.TargetSystem.IsValid() {
		return ErrMappingInvalidSystem
	}
	if m.SourceSystem == m.TargetSystem {
		return ErrMappingSameSystem
	}
	if m.SourceID == "" || m.TargetID == "" {
		return ErrMappingInvalidID
	}
	return nil
}

// Touch refreshes LastSyncedAt after a successful sync
func (m *EntityMapping) Touch() {
	m.LastSyncedAt = time.Now()
}

// IDForSystem returns the mapped ID held on the given platform, and false
// when the mapping does not involve that platform.
func (m *EntityMapping) IDForSystem(system PlatformCode) (string, bool) {
	switch system {
	case m.SourceSystem:
		return m.SourceID, true
	case m.TargetSystem:
		return m.TargetID, true
	default:
		return "", false
	}
}

// ---------------------------------------------------------------------------
// MappingRepository Interface
// ---------------------------------------------------------------------------

// MappingRepository persists entity mappings. Lookups succeed when given the
// ID held on either side of the mapping, since callers never know a priori
// which side they hold.
type MappingRepository interface {
	// Find returns the mapping that holds the given ID on the given
	// system, on either side. Returns ErrMappingNotFound when absent.
	Find(ctx context.Context, entityType EntityType, system PlatformCode, id string) (*EntityMapping, error)

	// Upsert creates the mapping or refreshes an existing one. The write
	// fails with ErrMappingTargetConflict when it would map the same
	// (entityType, targetSystem, targetID) to a different source ID.
	Upsert(ctx context.Context, mapping *EntityMapping) error

	// CountByType returns the number of mappings for an entity type
	CountByType(ctx context.Context, entityType EntityType) (int64, error)
}

// ---------------------------------------------------------------------------
// MappingCache Interface
// ---------------------------------------------------------------------------

// MappingCache is a read-through cache in front of MappingRepository lookups.
// Every synced entity triggers at least one Find, so lookups dominate mapping
// traffic. A nil result with a nil error is a cache miss; callers fall through
// to the repository.
type MappingCache interface {
	// Get returns the cached mapping for the given side, or nil on miss
	Get(ctx context.Context, entityType EntityType, system PlatformCode, id string) (*EntityMapping, error)

	// Set caches a mapping under both of its side keys
	Set(ctx context.Context, mapping *EntityMapping, ttl time.Duration) error

	// Delete drops both side keys of a mapping
	Delete(ctx context.Context, mapping *EntityMapping) error

	// Close releases any resources held by the cache
	Close() error
}

// MappingCacheConfig holds cache tuning for mapping lookups
type MappingCacheConfig struct {
	// TTL is how long a cached mapping stays valid
	TTL time.Duration
}

// DefaultMappingCacheConfig returns the default mapping cache configuration
func DefaultMappingCacheConfig() MappingCacheConfig {
	return MappingCacheConfig{
		TTL: 5 * time.Minute,
	}
}
