package models

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/orderbridge/backend/internal/domain/sync"
)

// EntityMappingModel is the persistence model for the EntityMapping domain entity.
type EntityMappingModel struct {
	ID           uuid.UUID         `gorm:"type:uuid;primary_key"`
	EntityType   sync.EntityType   `gorm:"type:varchar(20);not null;index:idx_entity_mapping_source,priority:1;index:idx_entity_mapping_target,priority:1;uniqueIndex:uq_entity_mapping_target_side,priority:1"`
	SourceSystem sync.PlatformCode `gorm:"type:varchar(20);not null;index:idx_entity_mapping_source,priority:2"`
	SourceID     string            `gorm:"type:varchar(100);not null;index:idx_entity_mapping_source,priority:3"`
	TargetSystem sync.PlatformCode `gorm:"type:varchar(20);not null;index:idx_entity_mapping_target,priority:2;uniqueIndex:uq_entity_mapping_target_side,priority:2"`
	TargetID     string            `gorm:"type:varchar(100);not null;index:idx_entity_mapping_target,priority:3;uniqueIndex:uq_entity_mapping_target_side,priority:3"`
	LastSyncedAt time.Time         `gorm:"not null;index"`
	CreatedAt    time.Time         `gorm:"not null"`
}

// TableName returns the table name for GORM
func (EntityMappingModel) TableName() string {
	return "entity_mappings"
}

// ToDomain converts the persistence model to a domain EntityMapping entity.
func (m *EntityMappingModel) ToDomain() *sync.EntityMapping {
	return &sync.EntityMapping{
		ID:           m.ID,
		EntityType:   m.EntityType,
		SourceSystem: m.SourceSystem,
		SourceID:     m.SourceID,
		TargetSystem: m.TargetSystem,
		TargetID:     m.TargetID,
		LastSyncedAt: m.LastSyncedAt,
		CreatedAt:    m.CreatedAt,
	}
}

// FromDomain populates the persistence model from a domain EntityMapping entity.
func (m *EntityMappingModel) FromDomain(em *sync.EntityMapping) {
	m.ID = em.ID
	m.EntityType = em.EntityType
	m.SourceSystem = em.SourceSystem
	m.SourceID = em.SourceID
	m.TargetSystem = em.TargetSystem
	m.TargetID = em.TargetID
	m.LastSyncedAt = em.LastSyncedAt
	m.CreatedAt = em.CreatedAt
}

// EntityMappingModelFromDomain creates a new persistence model from a domain EntityMapping entity.
func EntityMappingModelFromDomain(em *sync.EntityMapping) *EntityMappingModel {
	m := &EntityMappingModel{}
	m.FromDomain(em)
	return m
}

// SyncTaskModel is the persistence model for the SyncTask domain entity.
type SyncTaskModel struct {
	ID                 uuid.UUID       `gorm:"type:uuid;primary_key"`
	EntityType         sync.EntityType `gorm:"type:varchar(20);not null;index:idx_sync_task_key,priority:1"`
	Direction          sync.Direction  `gorm:"type:varchar(10);not null;index:idx_sync_task_key,priority:2"`
	Status             sync.TaskStatus `gorm:"type:varchar(20);not null;index:idx_sync_task_key,priority:3;index:idx_sync_task_status"`
	TieBreak           sync.Side       `gorm:"type:varchar(1);not null;default:'A'"`
	TotalEntities      int             `gorm:"not null;default:0"`
	ProcessedCount     int             `gorm:"not null;default:0"`
	CreatedCountA      int             `gorm:"not null;default:0"`
	CreatedCountB      int             `gorm:"not null;default:0"`
	UpdatedCountA      int             `gorm:"not null;default:0"`
	UpdatedCountB      int             `gorm:"not null;default:0"`
	FailedCount        int             `gorm:"not null;default:0"`
	ErrorsJSON         string          `gorm:"type:jsonb;column:errors"`
	LastSyncedEntityID string          `gorm:"type:varchar(100)"`
	StartedAt          *time.Time      `gorm:""`
	CompletedAt        *time.Time      `gorm:""`
	CreatedAt          time.Time       `gorm:"not null;index"`
}

// TableName returns the table name for GORM
func (SyncTaskModel) TableName() string {
	return "sync_tasks"
}

// ToDomain converts the persistence model to a domain SyncTask entity.
func (m *SyncTaskModel) ToDomain() *sync.SyncTask {
	task := &sync.SyncTask{
		ID:                 m.ID,
		EntityType:         m.EntityType,
		Direction:          m.Direction,
		Status:             m.Status,
		ConflictStrategy:   sync.ConflictStrategy{TieBreak: m.TieBreak},
		TotalEntities:      m.TotalEntities,
		ProcessedCount:     m.ProcessedCount,
		CreatedCountA:      m.CreatedCountA,
		CreatedCountB:      m.CreatedCountB,
		UpdatedCountA:      m.UpdatedCountA,
		UpdatedCountB:      m.UpdatedCountB,
		FailedCount:        m.FailedCount,
		Errors:             make([]sync.SyncError, 0),
		LastSyncedEntityID: m.LastSyncedEntityID,
		StartedAt:          m.StartedAt,
		CompletedAt:        m.CompletedAt,
		CreatedAt:          m.CreatedAt,
	}

	// Parse accumulated errors from JSON
	if m.ErrorsJSON != "" {
		var syncErrors []sync.SyncError
		if err := json.Unmarshal([]byte(m.ErrorsJSON), &syncErrors); err == nil {
			task.Errors = syncErrors
		}
	}

	return task
}

// FromDomain populates the persistence model from a domain SyncTask entity.
func (m *SyncTaskModel) FromDomain(t *sync.SyncTask) {
	m.ID = t.ID
	m.EntityType = t.EntityType
	m.Direction = t.Direction
	m.Status = t.Status
	m.TieBreak = t.ConflictStrategy.TieBreak
	m.TotalEntities = t.TotalEntities
	m.ProcessedCount = t.ProcessedCount
	m.CreatedCountA = t.CreatedCountA
	m.CreatedCountB = t.CreatedCountB
	m.UpdatedCountA = t.UpdatedCountA
	m.UpdatedCountB = t.UpdatedCountB
	m.FailedCount = t.FailedCount
	m.LastSyncedEntityID = t.LastSyncedEntityID
	m.StartedAt = t.StartedAt
	m.CompletedAt = t.CompletedAt
	m.CreatedAt = t.CreatedAt

	// Serialize accumulated errors to JSON
	if len(t.Errors) > 0 {
		if jsonBytes, err := json.Marshal(t.Errors); err == nil {
			m.ErrorsJSON = string(jsonBytes)
		}
	} else {
		m.ErrorsJSON = "[]"
	}
}

// SyncTaskModelFromDomain creates a new persistence model from a domain SyncTask entity.
func SyncTaskModelFromDomain(t *sync.SyncTask) *SyncTaskModel {
	m := &SyncTaskModel{}
	m.FromDomain(t)
	return m
}
