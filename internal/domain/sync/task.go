package sync

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
)

// ---------------------------------------------------------------------------
// Sync Task Errors
// ---------------------------------------------------------------------------

var (
	ErrTaskNotFound       = errors.New("sync: task not found")
	ErrTaskAlreadyRunning = errors.New("sync: a task is already running for this entity type and direction")
	ErrTaskNotRunning     = errors.New("sync: task is not running")
	ErrTaskNotRecoverable = errors.New("sync: task is not recoverable")
	ErrInvalidDirection   = errors.New("sync: invalid sync direction")
)

// ---------------------------------------------------------------------------
// Direction
// ---------------------------------------------------------------------------

// Direction represents which way entities flow in one sync run
type Direction string

const (
	// DirectionAToB pushes SupplyHub state toward Posify
	DirectionAToB Direction = "A_TO_B"
	// DirectionBToA pushes Posify state toward SupplyHub
	DirectionBToA Direction = "B_TO_A"
)

// IsValid returns true if the direction is valid
func (d Direction) IsValid() bool {
	switch d {
	case DirectionAToB, DirectionBToA:
		return true
	default:
		return false
	}
}

// String returns the string representation of Direction
func (d Direction) String() string {
	return string(d)
}

// Source returns the platform entities are read from
func (d Direction) Source() PlatformCode {
	if d == DirectionBToA {
		return PlatformPosify
	}
	return PlatformSupplyHub
}

// Target returns the platform entities are written to
func (d Direction) Target() PlatformCode {
	return d.Source().Opposite()
}

// ---------------------------------------------------------------------------
// TaskStatus
// ---------------------------------------------------------------------------

// TaskStatus represents the lifecycle state of a sync task.
// Transitions: PENDING -> RUNNING -> {COMPLETED, FAILED, INTERRUPTED}.
// INTERRUPTED tasks are eligible for recovery.
type TaskStatus string

const (
	TaskStatusPending     TaskStatus = "PENDING"
	TaskStatusRunning     TaskStatus = "RUNNING"
	TaskStatusCompleted   TaskStatus = "COMPLETED"
	TaskStatusFailed      TaskStatus = "FAILED"
	TaskStatusInterrupted TaskStatus = "INTERRUPTED"
)

// IsValid returns true if the status is valid
func (s TaskStatus) IsValid() bool {
	switch s {
	case TaskStatusPending, TaskStatusRunning, TaskStatusCompleted,
		TaskStatusFailed, TaskStatusInterrupted:
		return true
	default:
		return false
	}
}

// String returns the string representation of TaskStatus
func (s TaskStatus) String() string {
	return string(s)
}

// IsTerminal returns true for statuses that end a task's run
func (s TaskStatus) IsTerminal() bool {
	switch s {
	case TaskStatusCompleted, TaskStatusFailed, TaskStatusInterrupted:
		return true
	default:
		return false
	}
}

// ---------------------------------------------------------------------------
// SyncError
// ---------------------------------------------------------------------------

// SyncError records one entity's failure within a task. Failures are
// accumulated, never replaced, so a recovered run keeps the history of the
// run it resumed.
type SyncError struct {
	// EntityID is the source-side ID of the failed entity
	EntityID string `json:"entity_id"`
	// Message is the failure description
	Message string `json:"message"`
	// SourceSystem is the platform the entity was read from
	SourceSystem PlatformCode `json:"source_system"`
}

// ---------------------------------------------------------------------------
// BatchDelta
// ---------------------------------------------------------------------------

// BatchDelta is the counter contribution of one processed batch, merged
// into the task by the progress tracker.
type BatchDelta struct {
	// Processed is the number of entities examined
	Processed int
	// CreatedA is the number of entities created on SupplyHub
	CreatedA int
	// CreatedB is the number of entities created on Posify
	CreatedB int
	// UpdatedA is the number of entities updated on SupplyHub
	UpdatedA int
	// UpdatedB is the number of entities updated on Posify
	UpdatedB int
	// Errors contains per-entity failures from this batch
	Errors []SyncError
	// LastEntityID is the source-side ID the batch's page ended on, an
	// opaque cursor compatible with the source's listing order
	LastEntityID string
}

// ---------------------------------------------------------------------------
// SyncTask Entity
// ---------------------------------------------------------------------------

// SyncTask is one run of the orchestrator over a set of entities. At most
// one task may be RUNNING per (entityType, direction); the task repository
// enforces the claim. Tasks are retained after completion for recovery and
// audit.
type SyncTask struct {
	// ID is the unique identifier of the task
	ID uuid.UUID
	// EntityType is the kind of entity this run synchronizes
	EntityType EntityType
	// Direction is the flow direction of this run
	Direction Direction
	// Status is the lifecycle state
	Status TaskStatus
	// ConflictStrategy is the strategy applied to contested fields
	ConflictStrategy ConflictStrategy
	// TotalEntities is the number of entities this run will examine
	TotalEntities int
	// ProcessedCount is the number of entities examined so far
	ProcessedCount int
	// CreatedCountA / CreatedCountB count creates per platform
	CreatedCountA int
	CreatedCountB int
	// UpdatedCountA / UpdatedCountB count updates per platform
	UpdatedCountA int
	UpdatedCountB int
	// FailedCount is the number of entities that failed
	FailedCount int
	// Errors accumulates per-entity failures
	Errors []SyncError
	// LastSyncedEntityID is the checkpoint: a recovered run resumes
	// strictly after this ID
	LastSyncedEntityID string
	// StartedAt is when the task entered RUNNING
	StartedAt *time.Time
	// CompletedAt is when the task reached a terminal status
	CompletedAt *time.Time
	// CreatedAt is when the task record was created
	CreatedAt time.Time
}

// NewSyncTask creates a task in PENDING state
func NewSyncTask(entityType EntityType, direction Direction, strategy ConflictStrategy) (*SyncTask, error) {
	if !entityType.IsValid() {
		return nil, ErrMappingInvalidEntityType
	}
	if !direction.IsValid() {
		return nil, ErrInvalidDirection
	}
	return &SyncTask{
		ID:               uuid.New(),
		EntityType:       entityType,
		Direction:        direction,
		Status:           TaskStatusPending,
		ConflictStrategy: strategy,
		Errors:           make([]SyncError, 0),
		CreatedAt:        time.Now(),
	}, nil
}

// Start transitions the task to RUNNING and records the entity count
func (t *SyncTask) Start(totalEntities int) error {
	if t.Status != TaskStatusPending {
		return ErrTaskNotRunning
	}
	now := time.Now()
	t.Status = TaskStatusRunning
	t.StartedAt = &now
	t.TotalEntities = totalEntities
	return nil
}

// ApplyDelta merges one batch's counters into the task. Prior errors are
// kept; the checkpoint follows the batch order the run reports in.
func (t *SyncTask) ApplyDelta(delta BatchDelta) error {
	if t.Status != TaskStatusRunning {
		return ErrTaskNotRunning
	}
	t.ProcessedCount += delta.Processed
	t.CreatedCountA += delta.CreatedA
	t.CreatedCountB += delta.CreatedB
	t.UpdatedCountA += delta.UpdatedA
	t.UpdatedCountB += delta.UpdatedB
	t.FailedCount += len(delta.Errors)
	t.Errors = append(t.Errors, delta.Errors...)
	// Entity IDs are opaque cursors, so batch order decides checkpoint
	// advancement. Comparing IDs would misorder numeric platforms.
	if delta.LastEntityID != "" {
		t.LastSyncedEntityID = delta.LastEntityID
	}
	return nil
}

// Complete stamps the chosen terminal status
func (t *SyncTask) Complete(status TaskStatus) error {
	if t.Status != TaskStatusRunning {
		return ErrTaskNotRunning
	}
	if !status.IsTerminal() {
		return errors.New("sync: complete requires a terminal status")
	}
	now := time.Now()
	t.Status = status
	t.CompletedAt = &now
	return nil
}

// FailureRate returns the fraction of processed entities that failed
func (t *SyncTask) FailureRate() float64 {
	if t.ProcessedCount == 0 {
		return 0
	}
	return float64(t.FailedCount) / float64(t.ProcessedCount)
}

// IsRecoverable returns true when the task can be resumed: it was
// interrupted, or it never reached a terminal state.
func (t *SyncTask) IsRecoverable() bool {
	return t.Status == TaskStatusInterrupted || !t.Status.IsTerminal()
}

// PrepareResume returns the task to RUNNING so a recovered run can continue
// past the checkpoint, preserving prior counters and errors.
func (t *SyncTask) PrepareResume() error {
	if !t.IsRecoverable() {
		return ErrTaskNotRecoverable
	}
	now := time.Now()
	t.Status = TaskStatusRunning
	t.CompletedAt = nil
	if t.StartedAt == nil {
		t.StartedAt = &now
	}
	return nil
}

// ---------------------------------------------------------------------------
// TaskRepository Interface
// ---------------------------------------------------------------------------

// TaskFilter defines filter criteria for listing sync tasks
type TaskFilter struct {
	// EntityType filters by entity type (optional)
	EntityType *EntityType
	// Direction filters by direction (optional)
	Direction *Direction
	// Status filters by lifecycle status (optional)
	Status *TaskStatus
	// Limit caps the number of results (0 means repository default)
	Limit int
}

// TaskRepository persists sync tasks and enforces the single-active-task
// invariant.
type TaskRepository interface {
	// ClaimRunning atomically transitions the task to RUNNING provided no
	// other task is RUNNING for the same (entityType, direction). Exactly
	// one of two concurrent claims for the same key succeeds; the loser
	// receives ErrTaskAlreadyRunning.
	ClaimRunning(ctx context.Context, task *SyncTask, totalEntities int) error

	// Save persists the task's current state
	Save(ctx context.Context, task *SyncTask) error

	// FindByID loads a task. Returns ErrTaskNotFound when absent.
	FindByID(ctx context.Context, id uuid.UUID) (*SyncTask, error)

	// List returns tasks matching the filter, most recent first
	List(ctx context.Context, filter TaskFilter) ([]SyncTask, error)

	// FindRecoverable returns non-terminal tasks eligible for recovery,
	// oldest first
	FindRecoverable(ctx context.Context) ([]SyncTask, error)
}
