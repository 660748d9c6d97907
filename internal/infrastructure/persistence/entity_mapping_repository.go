package persistence

import (
	"context"
	"errors"
	"strings"

	"github.com/orderbridge/backend/internal/domain/sync"
	"github.com/orderbridge/backend/internal/infrastructure/persistence/models"
	"gorm.io/gorm"
)

// GormEntityMappingRepository implements MappingRepository using GORM
type GormEntityMappingRepository struct {
	db *gorm.DB
}

// NewGormEntityMappingRepository creates a new GormEntityMappingRepository
func NewGormEntityMappingRepository(db *gorm.DB) *GormEntityMappingRepository {
	return &GormEntityMappingRepository{db: db}
}

// Find returns the mapping that holds the given ID on either side
func (r *GormEntityMappingRepository) Find(ctx context.Context, entityType sync.EntityType, system sync.PlatformCode, id string) (*sync.EntityMapping, error) {
	var model models.EntityMappingModel
	if err := r.db.WithContext(ctx).
		Where("entity_type = ? AND ((source_system = ? AND source_id = ?) OR (target_system = ? AND target_id = ?))",
			entityType, system, id, system, id).
		First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, sync.ErrMappingNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// Upsert creates the mapping or refreshes the one keyed by the same
// (entityType, sourceSystem, sourceID). A write that would bind the target
// side to a different source fails with ErrMappingTargetConflict; the unique
// index on the target side backstops the check under concurrency.
func (r *GormEntityMappingRepository) Upsert(ctx context.Context, mapping *sync.EntityMapping) error {
	if err := mapping.Validate(); err != nil {
		return err
	}

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var byTarget models.EntityMappingModel
		err := tx.Where("entity_type = ? AND target_system = ? AND target_id = ?",
			mapping.EntityType, mapping.TargetSystem, mapping.TargetID).
			First(&byTarget).Error
		if err == nil {
			if byTarget.SourceSystem != mapping.SourceSystem || byTarget.SourceID != mapping.SourceID {
				return sync.ErrMappingTargetConflict
			}
		} else if !errors.Is(err, gorm.ErrRecordNotFound) {
			return err
		}

		var current models.EntityMappingModel
		err = tx.Where("entity_type = ? AND source_system = ? AND source_id = ?",
			mapping.EntityType, mapping.SourceSystem, mapping.SourceID).
			First(&current).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return tx.Create(models.EntityMappingModelFromDomain(mapping)).Error
		}
		if err != nil {
			return err
		}

		// Keep the persisted row's primary key stable across refreshes
		return tx.Model(&models.EntityMappingModel{}).
			Where("id = ?", current.ID).
			Updates(map[string]any{
				"target_system":  mapping.TargetSystem,
				"target_id":      mapping.TargetID,
				"last_synced_at": mapping.LastSyncedAt,
			}).Error
	})
	if err != nil {
		if isUniqueViolation(err) {
			return sync.ErrMappingTargetConflict
		}
		return err
	}
	return nil
}

// CountByType returns the number of mappings for an entity type
func (r *GormEntityMappingRepository) CountByType(ctx context.Context, entityType sync.EntityType) (int64, error) {
	var count int64
	if err := r.db.WithContext(ctx).
		Model(&models.EntityMappingModel{}).
		Where("entity_type = ?", entityType).
		Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

// Ensure GormEntityMappingRepository implements MappingRepository
var _ sync.MappingRepository = (*GormEntityMappingRepository)(nil)

// ---------------------------------------------------------------------------
// Helper functions
// ---------------------------------------------------------------------------

// isUniqueViolation reports whether the error is a unique index violation,
// covering both the postgres and sqlite wordings
func isUniqueViolation(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	msg := err.Error()
	return strings.Contains(msg, "duplicate key") || strings.Contains(msg, "UNIQUE constraint")
}
