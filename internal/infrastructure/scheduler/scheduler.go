package scheduler

import (
	"context"
	"errors"
	stdsync "sync"
	"time"

	"github.com/google/uuid"
	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	appsync "github.com/orderbridge/backend/internal/application/sync"
	"github.com/orderbridge/backend/internal/domain/sync"
)

var (
	// ErrSchedulerAlreadyStarted is returned when Start is called twice
	ErrSchedulerAlreadyStarted = errors.New("scheduler: already started")

	// ErrInvalidSchedule is returned for cron expressions that fail to parse
	ErrInvalidSchedule = errors.New("scheduler: invalid cron schedule")
)

// OrderSyncRunner starts and resumes batch synchronization runs
type OrderSyncRunner interface {
	RunSync(ctx context.Context, req appsync.RunSyncRequest) (*sync.SyncTask, error)
	ResumeTask(ctx context.Context, taskID uuid.UUID) (*sync.SyncTask, error)
}

// InventoryReconciler runs inventory reconciliation passes
type InventoryReconciler interface {
	ReconcileInventory(ctx context.Context, req appsync.ReconcileRequest) (*appsync.ReconcileResult, error)
}

// Config holds the periodic sync scheduler configuration
type Config struct {
	// Enabled indicates whether periodic jobs should run at all
	Enabled bool
	// OrderSchedule is the cron expression for batch order sync runs
	OrderSchedule string
	// InventorySchedule is the cron expression for inventory reconciliation
	InventorySchedule string
	// RecoveryOnStart resumes interrupted tasks during Start
	RecoveryOnStart bool
	// JobTimeout bounds each scheduled run
	JobTimeout time.Duration
}

// DefaultConfig returns the standard scheduler configuration: order syncs
// every 15 minutes and a nightly inventory reconciliation at 3 AM.
func DefaultConfig() Config {
	return Config{
		Enabled:           true,
		OrderSchedule:     "*/15 * * * *",
		InventorySchedule: "0 3 * * *",
		RecoveryOnStart:   true,
		JobTimeout:        30 * time.Minute,
	}
}

// SyncScheduler runs periodic order synchronization and inventory
// reconciliation jobs, and resumes interrupted runs on startup. Both
// directions are synchronized on each order tick; a direction whose
// previous run is still active is skipped by the single-run claim rather
// than queued.
type SyncScheduler struct {
	runner     OrderSyncRunner
	reconciler InventoryReconciler
	taskRepo   sync.TaskRepository
	config     Config
	logger     *zap.Logger

	cron      *cron.Cron
	mu        stdsync.Mutex
	isRunning bool
}

// NewSyncScheduler creates a sync scheduler
func NewSyncScheduler(
	runner OrderSyncRunner,
	reconciler InventoryReconciler,
	taskRepo sync.TaskRepository,
	config Config,
	logger *zap.Logger,
) *SyncScheduler {
	if config.OrderSchedule == "" {
		config.OrderSchedule = DefaultConfig().OrderSchedule
	}
	if config.InventorySchedule == "" {
		config.InventorySchedule = DefaultConfig().InventorySchedule
	}
	if config.JobTimeout <= 0 {
		config.JobTimeout = DefaultConfig().JobTimeout
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SyncScheduler{
		runner:     runner,
		reconciler: reconciler,
		taskRepo:   taskRepo,
		config:     config,
		logger:     logger,
	}
}

// Start recovers interrupted tasks and registers the periodic jobs. It
// returns once the cron loop is running.
func (s *SyncScheduler) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.isRunning {
		return ErrSchedulerAlreadyStarted
	}

	if s.config.RecoveryOnStart {
		s.recoverTasks(ctx)
	}

	if !s.config.Enabled {
		s.logger.Info("Sync scheduler disabled, periodic jobs not registered")
		return nil
	}

	c := cron.New()
	if _, err := c.AddFunc(s.config.OrderSchedule, s.runOrderSyncs); err != nil {
		return errors.Join(ErrInvalidSchedule, err)
	}
	if _, err := c.AddFunc(s.config.InventorySchedule, s.runReconciliation); err != nil {
		return errors.Join(ErrInvalidSchedule, err)
	}
	c.Start()

	s.cron = c
	s.isRunning = true
	s.logger.Info("Sync scheduler started",
		zap.String("order_schedule", s.config.OrderSchedule),
		zap.String("inventory_schedule", s.config.InventorySchedule))
	return nil
}

// Stop halts the cron loop and waits for in-flight jobs to finish, up to
// the given context's deadline.
func (s *SyncScheduler) Stop(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.isRunning {
		return nil
	}
	s.isRunning = false

	done := s.cron.Stop().Done()
	select {
	case <-done:
		s.logger.Info("Sync scheduler stopped")
		return nil
	case <-ctx.Done():
		s.logger.Warn("Sync scheduler stop timed out with jobs in flight")
		return ctx.Err()
	}
}

// ---------------------------------------------------------------------------
// Periodic Jobs
// ---------------------------------------------------------------------------

// runOrderSyncs starts one batch run per direction. Directions run
// sequentially so the two runs never compete for the same rate budget.
func (s *SyncScheduler) runOrderSyncs() {
	ctx, cancel := context.WithTimeout(context.Background(), s.config.JobTimeout)
	defer cancel()

	for _, direction := range []sync.Direction{sync.DirectionAToB, sync.DirectionBToA} {
		task, err := s.runner.RunSync(ctx, appsync.RunSyncRequest{
			EntityType: sync.EntityTypeOrder,
			Direction:  direction,
		})
		switch {
		case errors.Is(err, sync.ErrTaskAlreadyRunning):
			s.logger.Info("Skipping scheduled sync, run already active",
				zap.String("direction", direction.String()))
		case err != nil:
			s.logger.Error("Scheduled sync run failed",
				zap.String("direction", direction.String()),
				zap.Error(err))
		default:
			s.logger.Info("Scheduled sync run finished",
				zap.String("task_id", task.ID.String()),
				zap.String("direction", direction.String()),
				zap.String("status", task.Status.String()),
				zap.Int("processed", task.ProcessedCount))
		}
	}
}

// runReconciliation runs one inventory reconciliation pass
func (s *SyncScheduler) runReconciliation() {
	ctx, cancel := context.WithTimeout(context.Background(), s.config.JobTimeout)
	defer cancel()

	result, err := s.reconciler.ReconcileInventory(ctx, appsync.ReconcileRequest{})
	if err != nil {
		s.logger.Error("Scheduled inventory reconciliation failed", zap.Error(err))
		return
	}
	s.logger.Info("Scheduled inventory reconciliation finished",
		zap.Int("checked_skus", result.CheckedSKUs),
		zap.Int("discrepancies", len(result.Discrepancies)),
		zap.Int("corrected_skus", result.CorrectedSKUs))
}

// ---------------------------------------------------------------------------
// Startup Recovery
// ---------------------------------------------------------------------------

// recoverTasks resumes runs that did not reach a terminal state before the
// previous process exited. Resumption continues from each task's checkpoint;
// a task another instance has already reclaimed is skipped.
func (s *SyncScheduler) recoverTasks(ctx context.Context) {
	tasks, err := s.taskRepo.FindRecoverable(ctx)
	if err != nil {
		s.logger.Error("Failed to list recoverable tasks", zap.Error(err))
		return
	}
	if len(tasks) == 0 {
		return
	}

	s.logger.Info("Recovering unfinished sync tasks", zap.Int("count", len(tasks)))
	for i := range tasks {
		task := &tasks[i]
		resumeCtx, cancel := context.WithTimeout(ctx, s.config.JobTimeout)
		resumed, err := s.runner.ResumeTask(resumeCtx, task.ID)
		cancel()

		switch {
		case errors.Is(err, sync.ErrTaskAlreadyRunning):
			s.logger.Info("Task already reclaimed elsewhere",
				zap.String("task_id", task.ID.String()))
		case err != nil:
			s.logger.Error("Task recovery failed",
				zap.String("task_id", task.ID.String()),
				zap.String("checkpoint", task.LastSyncedEntityID),
				zap.Error(err))
		default:
			s.logger.Info("Task recovered",
				zap.String("task_id", resumed.ID.String()),
				zap.String("status", resumed.Status.String()))
		}
	}
}
