package scheduler

import (
	"context"
	stdsync "sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	appsync "github.com/orderbridge/backend/internal/application/sync"
	"github.com/orderbridge/backend/internal/domain/sync"
)

// ---------------------------------------------------------------------------
// Test Doubles
// ---------------------------------------------------------------------------

type stubRunner struct {
	mu          stdsync.Mutex
	runRequests []appsync.RunSyncRequest
	resumedIDs  []uuid.UUID
	runErr      error
	resumeErr   map[uuid.UUID]error
}

func (r *stubRunner) RunSync(ctx context.Context, req appsync.RunSyncRequest) (*sync.SyncTask, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.runRequests = append(r.runRequests, req)
	if r.runErr != nil {
		return nil, r.runErr
	}
	task, err := sync.NewSyncTask(req.EntityType, req.Direction, sync.DefaultConflictStrategy())
	if err != nil {
		return nil, err
	}
	if err := task.Start(0); err != nil {
		return nil, err
	}
	if err := task.Complete(sync.TaskStatusCompleted); err != nil {
		return nil, err
	}
	return task, nil
}

func (r *stubRunner) ResumeTask(ctx context.Context, taskID uuid.UUID) (*sync.SyncTask, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.resumedIDs = append(r.resumedIDs, taskID)
	if err, ok := r.resumeErr[taskID]; ok {
		return nil, err
	}
	task, err := sync.NewSyncTask(sync.EntityTypeOrder, sync.DirectionAToB, sync.DefaultConflictStrategy())
	if err != nil {
		return nil, err
	}
	task.ID = taskID
	if err := task.Start(0); err != nil {
		return nil, err
	}
	if err := task.Complete(sync.TaskStatusCompleted); err != nil {
		return nil, err
	}
	return task, nil
}

type stubReconciler struct {
	mu     stdsync.Mutex
	calls  int
	result *appsync.ReconcileResult
	err    error
}

func (r *stubReconciler) ReconcileInventory(ctx context.Context, req appsync.ReconcileRequest) (*appsync.ReconcileResult, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls++
	if r.err != nil {
		return nil, r.err
	}
	if r.result != nil {
		return r.result, nil
	}
	return &appsync.ReconcileResult{}, nil
}

type stubTaskRepo struct {
	recoverable []sync.SyncTask
	listErr     error
}

func (r *stubTaskRepo) ClaimRunning(ctx context.Context, task *sync.SyncTask, totalEntities int) error {
	return nil
}

func (r *stubTaskRepo) Save(ctx context.Context, task *sync.SyncTask) error {
	return nil
}

func (r *stubTaskRepo) FindByID(ctx context.Context, id uuid.UUID) (*sync.SyncTask, error) {
	return nil, sync.ErrTaskNotFound
}

func (r *stubTaskRepo) List(ctx context.Context, filter sync.TaskFilter) ([]sync.SyncTask, error) {
	return nil, nil
}

func (r *stubTaskRepo) FindRecoverable(ctx context.Context) ([]sync.SyncTask, error) {
	if r.listErr != nil {
		return nil, r.listErr
	}
	return r.recoverable, nil
}

var _ sync.TaskRepository = (*stubTaskRepo)(nil)

func interruptedTask(t *testing.T) sync.SyncTask {
	t.Helper()
	task, err := sync.NewSyncTask(sync.EntityTypeOrder, sync.DirectionAToB, sync.DefaultConflictStrategy())
	require.NoError(t, err)
	require.NoError(t, task.Start(10))
	require.NoError(t, task.Complete(sync.TaskStatusInterrupted))
	return *task
}

// ---------------------------------------------------------------------------
// Lifecycle Tests
// ---------------------------------------------------------------------------

func TestSyncScheduler_Start(t *testing.T) {
	t.Run("invalid order schedule", func(t *testing.T) {
		s := NewSyncScheduler(&stubRunner{}, &stubReconciler{}, &stubTaskRepo{}, Config{
			Enabled:       true,
			OrderSchedule: "not a cron expression",
		}, zap.NewNop())

		err := s.Start(context.Background())
		assert.ErrorIs(t, err, ErrInvalidSchedule)
	})

	t.Run("double start", func(t *testing.T) {
		s := NewSyncScheduler(&stubRunner{}, &stubReconciler{}, &stubTaskRepo{}, Config{
			Enabled: true,
		}, zap.NewNop())

		require.NoError(t, s.Start(context.Background()))
		defer s.Stop(context.Background())

		assert.ErrorIs(t, s.Start(context.Background()), ErrSchedulerAlreadyStarted)
	})

	t.Run("disabled scheduler registers no jobs", func(t *testing.T) {
		s := NewSyncScheduler(&stubRunner{}, &stubReconciler{}, &stubTaskRepo{}, Config{
			Enabled: false,
		}, zap.NewNop())

		require.NoError(t, s.Start(context.Background()))
		assert.NoError(t, s.Stop(context.Background()))
	})

	t.Run("stop before start is a no-op", func(t *testing.T) {
		s := NewSyncScheduler(&stubRunner{}, &stubReconciler{}, &stubTaskRepo{}, DefaultConfig(), zap.NewNop())
		assert.NoError(t, s.Stop(context.Background()))
	})
}

// ---------------------------------------------------------------------------
// Recovery Tests
// ---------------------------------------------------------------------------

func TestSyncScheduler_Recovery(t *testing.T) {
	t.Run("resumes every recoverable task", func(t *testing.T) {
		first := interruptedTask(t)
		second := interruptedTask(t)
		runner := &stubRunner{}
		repo := &stubTaskRepo{recoverable: []sync.SyncTask{first, second}}

		s := NewSyncScheduler(runner, &stubReconciler{}, repo, Config{
			Enabled:         false,
			RecoveryOnStart: true,
			JobTimeout:      time.Second,
		}, zap.NewNop())

		require.NoError(t, s.Start(context.Background()))
		assert.Equal(t, []uuid.UUID{first.ID, second.ID}, runner.resumedIDs)
	})

	t.Run("task reclaimed elsewhere is skipped without failing others", func(t *testing.T) {
		claimed := interruptedTask(t)
		free := interruptedTask(t)
		runner := &stubRunner{
			resumeErr: map[uuid.UUID]error{claimed.ID: sync.ErrTaskAlreadyRunning},
		}
		repo := &stubTaskRepo{recoverable: []sync.SyncTask{claimed, free}}

		s := NewSyncScheduler(runner, &stubReconciler{}, repo, Config{
			Enabled:         false,
			RecoveryOnStart: true,
		}, zap.NewNop())

		require.NoError(t, s.Start(context.Background()))
		assert.Len(t, runner.resumedIDs, 2)
	})

	t.Run("recovery disabled leaves tasks alone", func(t *testing.T) {
		runner := &stubRunner{}
		repo := &stubTaskRepo{recoverable: []sync.SyncTask{interruptedTask(t)}}

		s := NewSyncScheduler(runner, &stubReconciler{}, repo, Config{
			Enabled:         false,
			RecoveryOnStart: false,
		}, zap.NewNop())

		require.NoError(t, s.Start(context.Background()))
		assert.Empty(t, runner.resumedIDs)
	})

	t.Run("listing failure does not block startup", func(t *testing.T) {
		s := NewSyncScheduler(&stubRunner{}, &stubReconciler{}, &stubTaskRepo{listErr: assert.AnError}, Config{
			Enabled:         false,
			RecoveryOnStart: true,
		}, zap.NewNop())

		assert.NoError(t, s.Start(context.Background()))
	})
}

// ---------------------------------------------------------------------------
// Job Tests
// ---------------------------------------------------------------------------

func TestSyncScheduler_RunOrderSyncs(t *testing.T) {
	t.Run("runs both directions", func(t *testing.T) {
		runner := &stubRunner{}
		s := NewSyncScheduler(runner, &stubReconciler{}, &stubTaskRepo{}, DefaultConfig(), zap.NewNop())

		s.runOrderSyncs()

		require.Len(t, runner.runRequests, 2)
		assert.Equal(t, sync.DirectionAToB, runner.runRequests[0].Direction)
		assert.Equal(t, sync.DirectionBToA, runner.runRequests[1].Direction)
		assert.Equal(t, sync.EntityTypeOrder, runner.runRequests[0].EntityType)
	})

	t.Run("active run does not stop the other direction", func(t *testing.T) {
		runner := &stubRunner{runErr: sync.ErrTaskAlreadyRunning}
		s := NewSyncScheduler(runner, &stubReconciler{}, &stubTaskRepo{}, DefaultConfig(), zap.NewNop())

		s.runOrderSyncs()
		assert.Len(t, runner.runRequests, 2)
	})
}

func TestSyncScheduler_RunReconciliation(t *testing.T) {
	t.Run("successful pass", func(t *testing.T) {
		reconciler := &stubReconciler{
			result: &appsync.ReconcileResult{CheckedSKUs: 12, CorrectedSKUs: 2},
		}
		s := NewSyncScheduler(&stubRunner{}, reconciler, &stubTaskRepo{}, DefaultConfig(), zap.NewNop())

		s.runReconciliation()
		assert.Equal(t, 1, reconciler.calls)
	})

	t.Run("failure is logged and swallowed", func(t *testing.T) {
		reconciler := &stubReconciler{err: assert.AnError}
		s := NewSyncScheduler(&stubRunner{}, reconciler, &stubTaskRepo{}, DefaultConfig(), zap.NewNop())

		s.runReconciliation()
		assert.Equal(t, 1, reconciler.calls)
	})
}
