package sync

import (
	"time"

	"github.com/google/uuid"

	"github.com/orderbridge/backend/internal/domain/sync"
)

// RunSyncRequest starts one batch synchronization run
type RunSyncRequest struct {
	// EntityType is the kind of entity to synchronize
	EntityType sync.EntityType `json:"entity_type"`
	// Direction is the flow direction of the run
	Direction sync.Direction `json:"direction"`
	// TieBreak optionally overrides the configured conflict tie-break
	// side ("A" or "B")
	TieBreak string `json:"tie_break,omitempty"`
}

// TaskResult is the externally visible state of a sync task
type TaskResult struct {
	ID                 uuid.UUID        `json:"id"`
	EntityType         string           `json:"entity_type"`
	Direction          string           `json:"direction"`
	Status             string           `json:"status"`
	TotalEntities      int              `json:"total_entities"`
	ProcessedCount     int              `json:"processed_count"`
	CreatedCountA      int              `json:"created_count_a"`
	CreatedCountB      int              `json:"created_count_b"`
	UpdatedCountA      int              `json:"updated_count_a"`
	UpdatedCountB      int              `json:"updated_count_b"`
	FailedCount        int              `json:"failed_count"`
	Errors             []sync.SyncError `json:"errors,omitempty"`
	LastSyncedEntityID string           `json:"last_synced_entity_id,omitempty"`
	StartedAt          *time.Time       `json:"started_at,omitempty"`
	CompletedAt        *time.Time       `json:"completed_at,omitempty"`
	CreatedAt          time.Time        `json:"created_at"`
}

// NewTaskResult maps a task entity to its external representation
func NewTaskResult(task *sync.SyncTask) *TaskResult {
	return &TaskResult{
		ID:                 task.ID,
		EntityType:         task.EntityType.String(),
		Direction:          task.Direction.String(),
		Status:             task.Status.String(),
		TotalEntities:      task.TotalEntities,
		ProcessedCount:     task.ProcessedCount,
		CreatedCountA:      task.CreatedCountA,
		CreatedCountB:      task.CreatedCountB,
		UpdatedCountA:      task.UpdatedCountA,
		UpdatedCountB:      task.UpdatedCountB,
		FailedCount:        task.FailedCount,
		Errors:             task.Errors,
		LastSyncedEntityID: task.LastSyncedEntityID,
		StartedAt:          task.StartedAt,
		CompletedAt:        task.CompletedAt,
		CreatedAt:          task.CreatedAt,
	}
}

// WebhookResult reports the outcome of one webhook delivery
type WebhookResult struct {
	WebhookID string `json:"webhook_id"`
	Kind      string `json:"kind"`
	Duplicate bool   `json:"duplicate"`
	Processed bool   `json:"processed"`
	Message   string `json:"message,omitempty"`
}

// ReconcileRequest starts one inventory reconciliation pass
type ReconcileRequest struct {
	// LocationID optionally scopes the pass to one stock location
	LocationID string `json:"location_id,omitempty"`
	// Force disables the discrepancy threshold so every divergence is
	// corrected, used for explicitly requested syncs
	Force bool `json:"force,omitempty"`
}

// ReconcileResult reports the outcome of one reconciliation pass
type ReconcileResult struct {
	CheckedSKUs   int                `json:"checked_skus"`
	Discrepancies []sync.Discrepancy `json:"discrepancies,omitempty"`
	CorrectedSKUs int                `json:"corrected_skus"`
	UnmatchedSKUs []string           `json:"unmatched_skus,omitempty"`
}
