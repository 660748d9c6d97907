package sync

import (
	"context"
	stdsync "sync"

	"go.uber.org/zap"

	"github.com/orderbridge/backend/internal/domain/sync"
)

// ProgressTracker serializes progress updates onto a running task and
// persists them after every batch, so a crash loses at most one batch of
// progress. Workers report deltas concurrently; the tracker owns the task
// entity while a run is active.
type ProgressTracker struct {
	taskRepo sync.TaskRepository
	logger   *zap.Logger
}

// NewProgressTracker creates a progress tracker
func NewProgressTracker(taskRepo sync.TaskRepository, logger *zap.Logger) *ProgressTracker {
	return &ProgressTracker{
		taskRepo: taskRepo,
		logger:   logger,
	}
}

// RunProgress is the mutable progress state of one active run
type RunProgress struct {
	tracker *ProgressTracker
	task    *sync.SyncTask
	mu      stdsync.Mutex
}

// Begin wraps a claimed RUNNING task for concurrent progress reporting
func (t *ProgressTracker) Begin(task *sync.SyncTask) *RunProgress {
	return &RunProgress{tracker: t, task: task}
}

// Record merges a batch delta into the task and persists the new state
func (p *RunProgress) Record(ctx context.Context, delta sync.BatchDelta) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if err := p.task.ApplyDelta(delta); err != nil {
		return err
	}
	if err := p.tracker.taskRepo.Save(ctx, p.task); err != nil {
		return err
	}

	p.tracker.logger.Debug("Sync progress recorded",
		zap.String("task_id", p.task.ID.String()),
		zap.Int("processed", p.task.ProcessedCount),
		zap.Int("failed", p.task.FailedCount),
		zap.String("checkpoint", p.task.LastSyncedEntityID))
	return nil
}

// GrowTotal raises the task's expected entity count as pages stream in
func (p *RunProgress) GrowTotal(ctx context.Context, n int) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.task.TotalEntities += n
	return p.tracker.taskRepo.Save(ctx, p.task)
}

// Finish stamps the terminal status and persists the task
func (p *RunProgress) Finish(ctx context.Context, status sync.TaskStatus) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if err := p.task.Complete(status); err != nil {
		return err
	}
	if err := p.tracker.taskRepo.Save(ctx, p.task); err != nil {
		return err
	}

	p.tracker.logger.Info("Sync task finished",
		zap.String("task_id", p.task.ID.String()),
		zap.String("status", status.String()),
		zap.Int("processed", p.task.ProcessedCount),
		zap.Int("failed", p.task.FailedCount))
	return nil
}

// Task returns the underlying task entity
func (p *RunProgress) Task() *sync.SyncTask {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.task
}

// Checkpoint returns the current resume checkpoint
func (p *RunProgress) Checkpoint() string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.task.LastSyncedEntityID
}

// FailureRate returns the current failure fraction
func (p *RunProgress) FailureRate() float64 {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.task.FailureRate()
}
