package sync

import (
	"context"
	"errors"
	stdsync "sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/orderbridge/backend/internal/domain/sync"
	"github.com/orderbridge/backend/internal/infrastructure/ratelimit"
)

// persistTimeout bounds final task writes made after the run context died
const persistTimeout = 5 * time.Second

// OrchestratorConfig tunes a batch synchronization run
type OrchestratorConfig struct {
	// PageSize is the number of entities fetched per source page
	PageSize int
	// Workers is the number of concurrent entity workers per batch
	Workers int
	// FailureThreshold is the failure fraction above which a finished run
	// is marked FAILED instead of COMPLETED
	FailureThreshold float64
	// Strategy is the default conflict resolution strategy
	Strategy sync.ConflictStrategy
}

// DefaultOrchestratorConfig returns the standard run configuration
func DefaultOrchestratorConfig() OrchestratorConfig {
	return OrchestratorConfig{
		PageSize:         50,
		Workers:          4,
		FailureThreshold: 0.1,
		Strategy:         sync.DefaultConflictStrategy(),
	}
}

// Orchestrator drives batch synchronization runs between the two platforms.
// It walks the source platform in ID order, decides create-vs-update per
// entity through the mapping store, resolves status conflicts, and reports
// progress after every batch so interrupted runs can resume from the last
// checkpoint.
type Orchestrator struct {
	adapters    sync.AdapterRegistry
	mappingRepo sync.MappingRepository
	taskRepo    sync.TaskRepository
	tracker     *ProgressTracker
	retrier     *ratelimit.Retrier
	config      OrchestratorConfig
	logger      *zap.Logger
}

// NewOrchestrator creates an orchestrator
func NewOrchestrator(
	adapters sync.AdapterRegistry,
	mappingRepo sync.MappingRepository,
	taskRepo sync.TaskRepository,
	tracker *ProgressTracker,
	retrier *ratelimit.Retrier,
	config OrchestratorConfig,
	logger *zap.Logger,
) *Orchestrator {
	if config.PageSize <= 0 {
		config.PageSize = DefaultOrchestratorConfig().PageSize
	}
	if config.Workers <= 0 {
		config.Workers = DefaultOrchestratorConfig().Workers
	}
	if config.FailureThreshold <= 0 {
		config.FailureThreshold = DefaultOrchestratorConfig().FailureThreshold
	}
	return &Orchestrator{
		adapters:    adapters,
		mappingRepo: mappingRepo,
		taskRepo:    taskRepo,
		tracker:     tracker,
		retrier:     retrier,
		config:      config,
		logger:      logger,
	}
}

// ---------------------------------------------------------------------------
// Run Lifecycle
// ---------------------------------------------------------------------------

// RunSync starts a new synchronization run. At most one run may be active
// per (entityType, direction); a second concurrent start fails with
// ErrTaskAlreadyRunning. The run executes synchronously and returns the
// finished task.
func (o *Orchestrator) RunSync(ctx context.Context, req RunSyncRequest) (*sync.SyncTask, error) {
	strategy := o.config.Strategy
	switch req.TieBreak {
	case "":
	case "A":
		strategy.TieBreak = sync.SideA
	case "B":
		strategy.TieBreak = sync.SideB
	default:
		return nil, sync.ErrEntityInvalid
	}

	task, err := sync.NewSyncTask(req.EntityType, req.Direction, strategy)
	if err != nil {
		return nil, err
	}

	if err := o.taskRepo.ClaimRunning(ctx, task, 0); err != nil {
		return nil, err
	}

	o.logger.Info("Sync run started",
		zap.String("task_id", task.ID.String()),
		zap.String("entity_type", task.EntityType.String()),
		zap.String("direction", task.Direction.String()))

	return o.run(ctx, task)
}

// ResumeTask restarts an interrupted run from its checkpoint. Counters and
// recorded errors from the original run are preserved; entities at or below
// the checkpoint are not reprocessed.
func (o *Orchestrator) ResumeTask(ctx context.Context, taskID uuid.UUID) (*sync.SyncTask, error) {
	task, err := o.taskRepo.FindByID(ctx, taskID)
	if err != nil {
		return nil, err
	}
	if err := task.PrepareResume(); err != nil {
		return nil, err
	}
	if err := o.taskRepo.ClaimRunning(ctx, task, task.TotalEntities); err != nil {
		return nil, err
	}

	o.logger.Info("Sync run resumed",
		zap.String("task_id", task.ID.String()),
		zap.String("checkpoint", task.LastSyncedEntityID))

	return o.run(ctx, task)
}

// GetTask returns a task by ID
func (o *Orchestrator) GetTask(ctx context.Context, taskID uuid.UUID) (*sync.SyncTask, error) {
	return o.taskRepo.FindByID(ctx, taskID)
}

// ListTasks returns tasks matching the filter, most recent first
func (o *Orchestrator) ListTasks(ctx context.Context, filter sync.TaskFilter) ([]sync.SyncTask, error) {
	return o.taskRepo.List(ctx, filter)
}

// run walks the source platform page by page from the task's checkpoint
func (o *Orchestrator) run(ctx context.Context, task *sync.SyncTask) (*sync.SyncTask, error) {
	source, err := o.adapters.Adapter(task.Direction.Source())
	if err != nil {
		return o.abort(task, err)
	}
	target, err := o.adapters.Adapter(task.Direction.Target())
	if err != nil {
		return o.abort(task, err)
	}

	progress := o.tracker.Begin(task)
	afterID := progress.Checkpoint()

	for {
		if ctx.Err() != nil {
			return o.interrupt(progress, task)
		}

		var page *sync.OrderListResponse
		listErr := o.retrier.Do(ctx, source.PlatformCode(), "list_orders", func(ctx context.Context) error {
			var err error
			page, err = source.ListOrders(ctx, &sync.OrderListRequest{
				AfterID:  afterID,
				PageSize: o.config.PageSize,
			})
			return err
		})
		if listErr != nil {
			if errors.Is(listErr, context.Canceled) || errors.Is(listErr, context.DeadlineExceeded) {
				return o.interrupt(progress, task)
			}
			// Losing the source listing aborts the run; per-entity
			// failures never do.
			o.logger.Error("Source listing failed, aborting run",
				zap.String("task_id", task.ID.String()),
				zap.Error(listErr))
			if finishErr := progress.Finish(ctx, sync.TaskStatusFailed); finishErr != nil {
				o.logger.Error("Failed to persist task failure", zap.Error(finishErr))
			}
			return task, listErr
		}

		if len(page.Orders) == 0 {
			break
		}
		if err := progress.GrowTotal(ctx, len(page.Orders)); err != nil {
			o.logger.Warn("Failed to persist task total", zap.Error(err))
		}

		delta := o.processBatch(ctx, task, target, page.Orders)
		if err := progress.Record(ctx, delta); err != nil {
			o.logger.Error("Failed to persist sync progress",
				zap.String("task_id", task.ID.String()),
				zap.Error(err))
		}

		afterID = page.Orders[len(page.Orders)-1].PlatformOrderID
		if ctx.Err() != nil {
			return o.interrupt(progress, task)
		}
		if !page.HasMore {
			break
		}
	}

	final := sync.TaskStatusCompleted
	if progress.FailureRate() > o.config.FailureThreshold {
		final = sync.TaskStatusFailed
	}
	if err := progress.Finish(ctx, final); err != nil {
		return task, err
	}
	return task, nil
}

// interrupt marks a cancelled run INTERRUPTED so it can be resumed later.
// The task is persisted with a background context since the run context is
// already dead.
func (o *Orchestrator) interrupt(progress *RunProgress, task *sync.SyncTask) (*sync.SyncTask, error) {
	saveCtx, cancel := context.WithTimeout(context.Background(), persistTimeout)
	defer cancel()
	if err := progress.Finish(saveCtx, sync.TaskStatusInterrupted); err != nil {
		o.logger.Error("Failed to persist task interruption",
			zap.String("task_id", task.ID.String()),
			zap.Error(err))
	}
	return task, context.Canceled
}

// abort fails a claimed task that could not start its run loop
func (o *Orchestrator) abort(task *sync.SyncTask, cause error) (*sync.SyncTask, error) {
	saveCtx, cancel := context.WithTimeout(context.Background(), persistTimeout)
	defer cancel()
	if err := task.Complete(sync.TaskStatusFailed); err == nil {
		if saveErr := o.taskRepo.Save(saveCtx, task); saveErr != nil {
			o.logger.Error("Failed to persist task abort", zap.Error(saveErr))
		}
	}
	return nil, cause
}

// ---------------------------------------------------------------------------
// Batch Processing
// ---------------------------------------------------------------------------

// processBatch fans one page of source orders out to the worker pool and
// folds the per-entity outcomes into a single delta.
func (o *Orchestrator) processBatch(ctx context.Context, task *sync.SyncTask, target sync.PlatformAdapter, orders []sync.Order) sync.BatchDelta {
	jobs := make(chan *sync.Order)
	results := make(chan entityOutcome, len(orders))

	var wg stdsync.WaitGroup
	for i := 0; i < o.config.Workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for order := range jobs {
				results <- o.syncOne(ctx, task, target, order)
			}
		}()
	}

	for i := range orders {
		jobs <- &orders[i]
	}
	close(jobs)
	wg.Wait()
	close(results)

	delta := sync.BatchDelta{}
	for outcome := range results {
		delta.Processed++
		delta.CreatedA += outcome.createdA
		delta.CreatedB += outcome.createdB
		delta.UpdatedA += outcome.updatedA
		delta.UpdatedB += outcome.updatedB
		if outcome.err != nil {
			delta.Errors = append(delta.Errors, sync.SyncError{
				EntityID:     outcome.entityID,
				Message:      outcome.err.Error(),
				SourceSystem: task.Direction.Source(),
			})
		}
	}
	// The whole page was attempted, so the checkpoint moves to its end
	// regardless of individual failures; failures are kept in the error
	// list for operator follow-up.
	delta.LastEntityID = orders[len(orders)-1].PlatformOrderID
	return delta
}

// entityOutcome is one entity's contribution to a batch delta
type entityOutcome struct {
	entityID string
	createdA int
	createdB int
	updatedA int
	updatedB int
	err      error
}

// syncOne synchronizes a single source order into the target platform. It
// is the primitive shared by batch runs and webhook-triggered syncs.
func (o *Orchestrator) syncOne(ctx context.Context, task *sync.SyncTask, target sync.PlatformAdapter, srcOrder *sync.Order) entityOutcome {
	outcome := entityOutcome{entityID: srcOrder.PlatformOrderID}

	if err := srcOrder.Validate(); err != nil {
		outcome.err = sync.NewPlatformError(sync.ClassValidation, srcOrder.Platform, err)
		return outcome
	}

	sourceSystem := task.Direction.Source()
	targetSystem := task.Direction.Target()

	mapping, err := o.mappingRepo.Find(ctx, sync.EntityTypeOrder, sourceSystem, srcOrder.PlatformOrderID)
	switch {
	case err == nil:
		// A missing target under an existing mapping is a real error,
		// not a create: recreating an order that was deleted on the
		// target would duplicate it. The failure stays in the task's
		// error list for operator follow-up.
		targetID, _ := mapping.IDForSystem(targetSystem)
		outcome.err = o.updateTarget(ctx, task, target, srcOrder, mapping, targetID)
		if outcome.err == nil {
			o.countUpdate(&outcome, targetSystem)
		}
	case errors.Is(err, sync.ErrMappingNotFound):
		outcome.err = o.createOnTarget(ctx, target, srcOrder, sourceSystem, targetSystem)
		if outcome.err == nil {
			o.countCreate(&outcome, targetSystem)
		}
	default:
		outcome.err = err
	}
	return outcome
}

// createOnTarget creates the order on the target platform and records the
// new mapping.
func (o *Orchestrator) createOnTarget(ctx context.Context, target sync.PlatformAdapter, srcOrder *sync.Order, sourceSystem, targetSystem sync.PlatformCode) error {
	var targetID string
	err := o.retrier.Do(ctx, targetSystem, "create_order", func(ctx context.Context) error {
		var err error
		targetID, err = target.CreateOrder(ctx, srcOrder)
		return err
	})
	if err != nil {
		return err
	}

	mapping, err := sync.NewEntityMapping(sync.EntityTypeOrder, sourceSystem, srcOrder.PlatformOrderID, targetSystem, targetID)
	if err != nil {
		return err
	}
	if err := o.mappingRepo.Upsert(ctx, mapping); err != nil {
		return err
	}

	o.logger.Info("Order created on target",
		zap.String("source_system", sourceSystem.String()),
		zap.String("source_id", srcOrder.PlatformOrderID),
		zap.String("target_system", targetSystem.String()),
		zap.String("target_id", targetID))
	return nil
}

// updateTarget pushes resolved status fields to an already-mapped order.
// A conflicting concurrent write on the target is retried exactly once
// with freshly fetched target state.
func (o *Orchestrator) updateTarget(ctx context.Context, task *sync.SyncTask, target sync.PlatformAdapter, srcOrder *sync.Order, mapping *sync.EntityMapping, targetID string) error {
	err := o.applyResolved(ctx, task, target, srcOrder, targetID)
	if sync.Classify(err) == sync.ClassConflictWrite {
		o.logger.Warn("Write conflict on target, retrying with fresh state",
			zap.String("target_id", targetID))
		err = o.applyResolved(ctx, task, target, srcOrder, targetID)
	}
	if err != nil {
		return err
	}

	mapping.Touch()
	if err := o.mappingRepo.Upsert(ctx, mapping); err != nil {
		o.logger.Warn("Failed to refresh mapping timestamp",
			zap.String("mapping_id", mapping.ID.String()),
			zap.Error(err))
	}
	return nil
}

// applyResolved fetches the target copy, resolves both status fields and
// pushes whichever values the target does not already hold.
func (o *Orchestrator) applyResolved(ctx context.Context, task *sync.SyncTask, target sync.PlatformAdapter, srcOrder *sync.Order, targetID string) error {
	var targetOrder *sync.Order
	err := o.retrier.Do(ctx, target.PlatformCode(), "fetch_order", func(ctx context.Context) error {
		var err error
		targetOrder, err = target.FetchOrder(ctx, targetID)
		return err
	})
	if err != nil {
		return err
	}

	// Map the pair onto the fixed A/B sides of the conflict strategy.
	aOrder, bOrder := srcOrder, targetOrder
	if srcOrder.Platform != sync.PlatformSupplyHub {
		aOrder, bOrder = targetOrder, srcOrder
	}

	fulfillment := task.ConflictStrategy.ResolveFulfillment(aOrder.FulfillmentStatus, bOrder.FulfillmentStatus)
	if fulfillment.Status != targetOrder.FulfillmentStatus {
		update := sync.FulfillmentUpdate{Status: fulfillment.Status}
		if winner := o.orderForSide(fulfillment.Winner, aOrder, bOrder); winner.HasTracking() {
			update.Carrier = winner.Shipping.Carrier
			update.TrackingNumber = winner.Shipping.TrackingNumber
		}
		err := o.retrier.Do(ctx, target.PlatformCode(), "update_fulfillment", func(ctx context.Context) error {
			return target.UpdateFulfillment(ctx, targetID, update)
		})
		if err != nil {
			return err
		}
	}

	payment := task.ConflictStrategy.ResolvePayment(aOrder.PaymentStatus, bOrder.PaymentStatus)
	if payment.Status != targetOrder.PaymentStatus {
		err := o.retrier.Do(ctx, target.PlatformCode(), "update_payment", func(ctx context.Context) error {
			return target.UpdatePayment(ctx, targetID, sync.PaymentUpdate{Status: payment.Status})
		})
		if err != nil {
			return err
		}
	}
	return nil
}

func (o *Orchestrator) orderForSide(side sync.Side, aOrder, bOrder *sync.Order) *sync.Order {
	if side == sync.SideB {
		return bOrder
	}
	return aOrder
}

func (o *Orchestrator) countCreate(outcome *entityOutcome, targetSystem sync.PlatformCode) {
	if targetSystem == sync.PlatformSupplyHub {
		outcome.createdA++
	} else {
		outcome.createdB++
	}
}

func (o *Orchestrator) countUpdate(outcome *entityOutcome, targetSystem sync.PlatformCode) {
	if targetSystem == sync.PlatformSupplyHub {
		outcome.updatedA++
	} else {
		outcome.updatedB++
	}
}

// ---------------------------------------------------------------------------
// Single Entity Sync
// ---------------------------------------------------------------------------

// SyncEntity synchronizes one order identified by its ID on the source
// platform, without creating a task record. Used by webhook ingestion.
// Returns ErrEntityNotFound when the order does not exist on the source.
func (o *Orchestrator) SyncEntity(ctx context.Context, direction sync.Direction, entityID string) error {
	source, err := o.adapters.Adapter(direction.Source())
	if err != nil {
		return err
	}
	target, err := o.adapters.Adapter(direction.Target())
	if err != nil {
		return err
	}

	var order *sync.Order
	err = o.retrier.Do(ctx, source.PlatformCode(), "fetch_order", func(ctx context.Context) error {
		var err error
		order, err = source.FetchOrder(ctx, entityID)
		return err
	})
	if err != nil {
		return err
	}

	// An ephemeral task carries the direction and strategy through the
	// shared per-entity path.
	task, err := sync.NewSyncTask(sync.EntityTypeOrder, direction, o.config.Strategy)
	if err != nil {
		return err
	}
	if err := task.Start(1); err != nil {
		return err
	}

	outcome := o.syncOne(ctx, task, target, order)
	return outcome.err
}
