package persistence

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/orderbridge/backend/internal/domain/sync"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

// setupTaskTestDB creates an in-memory SQLite database for testing
func setupTaskTestDB(t *testing.T) *gorm.DB {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)

	err = db.Exec(`
		CREATE TABLE sync_tasks (
			id TEXT PRIMARY KEY,
			entity_type TEXT NOT NULL,
			direction TEXT NOT NULL,
			status TEXT NOT NULL,
			tie_break TEXT NOT NULL DEFAULT 'A',
			total_entities INTEGER NOT NULL DEFAULT 0,
			processed_count INTEGER NOT NULL DEFAULT 0,
			created_count_a INTEGER NOT NULL DEFAULT 0,
			created_count_b INTEGER NOT NULL DEFAULT 0,
			updated_count_a INTEGER NOT NULL DEFAULT 0,
			updated_count_b INTEGER NOT NULL DEFAULT 0,
			failed_count INTEGER NOT NULL DEFAULT 0,
			errors TEXT,
			last_synced_entity_id TEXT,
			started_at DATETIME,
			completed_at DATETIME,
			created_at DATETIME NOT NULL
		)
	`).Error
	require.NoError(t, err)

	err = db.Exec(`
		CREATE UNIQUE INDEX uq_sync_task_running
		ON sync_tasks(entity_type, direction)
		WHERE status = 'RUNNING'
	`).Error
	require.NoError(t, err)

	return db
}

// setupMigratedTestDB applies the production schema migration to an
// in-memory SQLite database, so tests exercise the shipped DDL rather
// than a hand-written copy of it.
func setupMigratedTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)

	ddl, err := os.ReadFile(filepath.Join("..", "..", "..", "migrations", "000001_create_sync_schema.up.sql"))
	require.NoError(t, err)
	require.NoError(t, db.Exec(string(ddl)).Error)

	return db
}

func newOrderTask(t *testing.T, direction sync.Direction) *sync.SyncTask {
	t.Helper()
	task, err := sync.NewSyncTask(sync.EntityTypeOrder, direction, sync.DefaultConflictStrategy())
	require.NoError(t, err)
	return task
}

func TestGormSyncTaskRepository_ClaimRunning(t *testing.T) {
	ctx := context.Background()

	t.Run("claims and starts a pending task", func(t *testing.T) {
		db := setupTaskTestDB(t)
		repo := NewGormSyncTaskRepository(db)

		task := newOrderTask(t, sync.DirectionAToB)
		require.NoError(t, repo.ClaimRunning(ctx, task, 10))

		assert.Equal(t, sync.TaskStatusRunning, task.Status)
		assert.Equal(t, 10, task.TotalEntities)

		loaded, err := repo.FindByID(ctx, task.ID)
		require.NoError(t, err)
		assert.Equal(t, sync.TaskStatusRunning, loaded.Status)
	})

	t.Run("second claim for the same key loses", func(t *testing.T) {
		db := setupTaskTestDB(t)
		repo := NewGormSyncTaskRepository(db)

		first := newOrderTask(t, sync.DirectionAToB)
		require.NoError(t, repo.ClaimRunning(ctx, first, 5))

		second := newOrderTask(t, sync.DirectionAToB)
		err := repo.ClaimRunning(ctx, second, 5)
		assert.ErrorIs(t, err, sync.ErrTaskAlreadyRunning)
	})

	t.Run("other direction claims independently", func(t *testing.T) {
		db := setupTaskTestDB(t)
		repo := NewGormSyncTaskRepository(db)

		aToB := newOrderTask(t, sync.DirectionAToB)
		require.NoError(t, repo.ClaimRunning(ctx, aToB, 5))

		bToA := newOrderTask(t, sync.DirectionBToA)
		require.NoError(t, repo.ClaimRunning(ctx, bToA, 5))
	})

	t.Run("reclaim after completion succeeds", func(t *testing.T) {
		db := setupTaskTestDB(t)
		repo := NewGormSyncTaskRepository(db)

		first := newOrderTask(t, sync.DirectionAToB)
		require.NoError(t, repo.ClaimRunning(ctx, first, 5))
		require.NoError(t, first.Complete(sync.TaskStatusCompleted))
		require.NoError(t, repo.Save(ctx, first))

		second := newOrderTask(t, sync.DirectionAToB)
		require.NoError(t, repo.ClaimRunning(ctx, second, 5))
	})

	t.Run("resumed task reenters its own claim", func(t *testing.T) {
		db := setupTaskTestDB(t)
		repo := NewGormSyncTaskRepository(db)

		task := newOrderTask(t, sync.DirectionAToB)
		require.NoError(t, repo.ClaimRunning(ctx, task, 5))
		require.NoError(t, task.Complete(sync.TaskStatusInterrupted))
		require.NoError(t, repo.Save(ctx, task))

		loaded, err := repo.FindByID(ctx, task.ID)
		require.NoError(t, err)
		require.NoError(t, loaded.PrepareResume())
		require.NoError(t, repo.ClaimRunning(ctx, loaded, 0))
		assert.Equal(t, sync.TaskStatusRunning, loaded.Status)
	})
}

func TestMigratedSchema_RejectsSecondRunningTaskPerKey(t *testing.T) {
	db := setupMigratedTestDB(t)
	repo := NewGormSyncTaskRepository(db)
	ctx := context.Background()

	winner := newOrderTask(t, sync.DirectionAToB)
	require.NoError(t, repo.ClaimRunning(ctx, winner, 5))

	// A racing claim that passed the transactional count before the
	// winner committed would insert its own RUNNING row. The partial
	// unique index must reject it.
	err := db.Exec(`
		INSERT INTO sync_tasks (id, entity_type, direction, status, tie_break, created_at, started_at)
		VALUES (?, ?, ?, 'RUNNING', 'A', ?, ?)
	`, uuid.New().String(), sync.EntityTypeOrder, sync.DirectionAToB, time.Now(), time.Now()).Error
	require.Error(t, err)
	assert.True(t, isUniqueViolation(err))

	var running int64
	require.NoError(t, db.Table("sync_tasks").Where("status = ?", sync.TaskStatusRunning).Count(&running).Error)
	assert.Equal(t, int64(1), running)

	// A completed winner frees the key for the next claim.
	require.NoError(t, winner.Complete(sync.TaskStatusCompleted))
	require.NoError(t, repo.Save(ctx, winner))
	next := newOrderTask(t, sync.DirectionAToB)
	require.NoError(t, repo.ClaimRunning(ctx, next, 5))
}

func TestGormSyncTaskRepository_SaveRoundTrip(t *testing.T) {
	db := setupTaskTestDB(t)
	repo := NewGormSyncTaskRepository(db)
	ctx := context.Background()

	task := newOrderTask(t, sync.DirectionAToB)
	require.NoError(t, repo.ClaimRunning(ctx, task, 3))
	require.NoError(t, task.ApplyDelta(sync.BatchDelta{
		Processed: 3,
		CreatedB:  2,
		UpdatedB:  1,
		Errors: []sync.SyncError{
			{EntityID: "A-2", Message: "validation failed", SourceSystem: sync.PlatformSupplyHub},
		},
		LastEntityID: "A-3",
	}))
	require.NoError(t, repo.Save(ctx, task))

	loaded, err := repo.FindByID(ctx, task.ID)
	require.NoError(t, err)
	assert.Equal(t, 3, loaded.ProcessedCount)
	assert.Equal(t, 2, loaded.CreatedCountB)
	assert.Equal(t, 1, loaded.UpdatedCountB)
	assert.Equal(t, 1, loaded.FailedCount)
	assert.Equal(t, "A-3", loaded.LastSyncedEntityID)
	require.Len(t, loaded.Errors, 1)
	assert.Equal(t, "A-2", loaded.Errors[0].EntityID)
	assert.Equal(t, sync.SideA, loaded.ConflictStrategy.TieBreak)
}

func TestGormSyncTaskRepository_FindByID_NotFound(t *testing.T) {
	db := setupTaskTestDB(t)
	repo := NewGormSyncTaskRepository(db)

	_, err := repo.FindByID(context.Background(), uuid.New())
	assert.ErrorIs(t, err, sync.ErrTaskNotFound)
}

func TestGormSyncTaskRepository_List(t *testing.T) {
	db := setupTaskTestDB(t)
	repo := NewGormSyncTaskRepository(db)
	ctx := context.Background()

	running := newOrderTask(t, sync.DirectionAToB)
	require.NoError(t, repo.ClaimRunning(ctx, running, 5))

	done := newOrderTask(t, sync.DirectionBToA)
	require.NoError(t, repo.ClaimRunning(ctx, done, 5))
	require.NoError(t, done.Complete(sync.TaskStatusCompleted))
	require.NoError(t, repo.Save(ctx, done))

	t.Run("filters by status", func(t *testing.T) {
		status := sync.TaskStatusRunning
		tasks, err := repo.List(ctx, sync.TaskFilter{Status: &status})
		require.NoError(t, err)
		require.Len(t, tasks, 1)
		assert.Equal(t, running.ID, tasks[0].ID)
	})

	t.Run("filters by direction", func(t *testing.T) {
		direction := sync.DirectionBToA
		tasks, err := repo.List(ctx, sync.TaskFilter{Direction: &direction})
		require.NoError(t, err)
		require.Len(t, tasks, 1)
		assert.Equal(t, done.ID, tasks[0].ID)
	})

	t.Run("unfiltered list returns all", func(t *testing.T) {
		tasks, err := repo.List(ctx, sync.TaskFilter{})
		require.NoError(t, err)
		assert.Len(t, tasks, 2)
	})

	t.Run("limit caps results", func(t *testing.T) {
		tasks, err := repo.List(ctx, sync.TaskFilter{Limit: 1})
		require.NoError(t, err)
		assert.Len(t, tasks, 1)
	})
}

func TestGormSyncTaskRepository_FindRecoverable(t *testing.T) {
	db := setupTaskTestDB(t)
	repo := NewGormSyncTaskRepository(db)
	ctx := context.Background()

	interrupted := newOrderTask(t, sync.DirectionAToB)
	require.NoError(t, repo.ClaimRunning(ctx, interrupted, 5))
	require.NoError(t, interrupted.Complete(sync.TaskStatusInterrupted))
	require.NoError(t, repo.Save(ctx, interrupted))

	completed := newOrderTask(t, sync.DirectionAToB)
	require.NoError(t, repo.ClaimRunning(ctx, completed, 5))
	require.NoError(t, completed.Complete(sync.TaskStatusCompleted))
	require.NoError(t, repo.Save(ctx, completed))

	// Simulates a crash: the task row is still RUNNING
	orphaned := newOrderTask(t, sync.DirectionBToA)
	require.NoError(t, repo.ClaimRunning(ctx, orphaned, 5))

	tasks, err := repo.FindRecoverable(ctx)
	require.NoError(t, err)
	require.Len(t, tasks, 2)

	ids := []uuid.UUID{tasks[0].ID, tasks[1].ID}
	assert.Contains(t, ids, interrupted.ID)
	assert.Contains(t, ids, orphaned.ID)
}
