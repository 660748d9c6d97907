package persistence

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/orderbridge/backend/internal/domain/sync"
	"github.com/orderbridge/backend/internal/infrastructure/persistence/models"
	"gorm.io/gorm"
)

// defaultTaskListLimit caps List results when the filter leaves Limit unset
const defaultTaskListLimit = 50

// GormSyncTaskRepository implements TaskRepository using GORM
type GormSyncTaskRepository struct {
	db *gorm.DB
}

// NewGormSyncTaskRepository creates a new GormSyncTaskRepository
func NewGormSyncTaskRepository(db *gorm.DB) *GormSyncTaskRepository {
	return &GormSyncTaskRepository{db: db}
}

// ClaimRunning atomically transitions the task to RUNNING provided no other
// task is RUNNING for the same (entityType, direction). The transactional
// count keeps the common path conflict-free; the partial unique index on
// RUNNING tasks decides the winner when two claims race.
func (r *GormSyncTaskRepository) ClaimRunning(ctx context.Context, task *sync.SyncTask, totalEntities int) error {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var running int64
		if err := tx.Model(&models.SyncTaskModel{}).
			Where("entity_type = ? AND direction = ? AND status = ? AND id <> ?",
				task.EntityType, task.Direction, sync.TaskStatusRunning, task.ID).
			Count(&running).Error; err != nil {
			return err
		}
		if running > 0 {
			return sync.ErrTaskAlreadyRunning
		}

		if task.Status == sync.TaskStatusPending {
			if err := task.Start(totalEntities); err != nil {
				return err
			}
		} else if task.Status != sync.TaskStatusRunning {
			return sync.ErrTaskNotRunning
		}

		return tx.Save(models.SyncTaskModelFromDomain(task)).Error
	})
	if err != nil {
		if isUniqueViolation(err) {
			return sync.ErrTaskAlreadyRunning
		}
		return err
	}
	return nil
}

// Save persists the task's current state
func (r *GormSyncTaskRepository) Save(ctx context.Context, task *sync.SyncTask) error {
	return r.db.WithContext(ctx).Save(models.SyncTaskModelFromDomain(task)).Error
}

// FindByID loads a task by ID
func (r *GormSyncTaskRepository) FindByID(ctx context.Context, id uuid.UUID) (*sync.SyncTask, error) {
	var model models.SyncTaskModel
	if err := r.db.WithContext(ctx).First(&model, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, sync.ErrTaskNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// List returns tasks matching the filter, most recent first
func (r *GormSyncTaskRepository) List(ctx context.Context, filter sync.TaskFilter) ([]sync.SyncTask, error) {
	query := r.db.WithContext(ctx).Model(&models.SyncTaskModel{})

	if filter.EntityType != nil && filter.EntityType.IsValid() {
		query = query.Where("entity_type = ?", *filter.EntityType)
	}
	if filter.Direction != nil && filter.Direction.IsValid() {
		query = query.Where("direction = ?", *filter.Direction)
	}
	if filter.Status != nil && filter.Status.IsValid() {
		query = query.Where("status = ?", *filter.Status)
	}

	limit := filter.Limit
	if limit <= 0 {
		limit = defaultTaskListLimit
	}

	var taskModels []models.SyncTaskModel
	if err := query.Order("created_at DESC").Limit(limit).Find(&taskModels).Error; err != nil {
		return nil, err
	}

	tasks := make([]sync.SyncTask, len(taskModels))
	for i, model := range taskModels {
		tasks[i] = *model.ToDomain()
	}
	return tasks, nil
}

// FindRecoverable returns non-terminal tasks eligible for recovery on
// startup, oldest first so recovery replays them in creation order
func (r *GormSyncTaskRepository) FindRecoverable(ctx context.Context) ([]sync.SyncTask, error) {
	var taskModels []models.SyncTaskModel
	if err := r.db.WithContext(ctx).
		Where("status IN ?", []sync.TaskStatus{
			sync.TaskStatusInterrupted,
			sync.TaskStatusRunning,
			sync.TaskStatusPending,
		}).
		Order("created_at ASC").
		Find(&taskModels).Error; err != nil {
		return nil, err
	}

	tasks := make([]sync.SyncTask, len(taskModels))
	for i, model := range taskModels {
		tasks[i] = *model.ToDomain()
	}
	return tasks, nil
}

// Ensure GormSyncTaskRepository implements TaskRepository
var _ sync.TaskRepository = (*GormSyncTaskRepository)(nil)
