package handler

import (
	"context"
	"errors"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	appsync "github.com/orderbridge/backend/internal/application/sync"
	"github.com/orderbridge/backend/internal/domain/sync"
	"github.com/orderbridge/backend/internal/interfaces/http/dto"
)

// SyncService drives batch synchronization runs
type SyncService interface {
	RunSync(ctx context.Context, req appsync.RunSyncRequest) (*sync.SyncTask, error)
	ResumeTask(ctx context.Context, taskID uuid.UUID) (*sync.SyncTask, error)
	GetTask(ctx context.Context, taskID uuid.UUID) (*sync.SyncTask, error)
	ListTasks(ctx context.Context, filter sync.TaskFilter) ([]sync.SyncTask, error)
}

// SyncHandler exposes sync run management endpoints
type SyncHandler struct {
	BaseHandler
	service SyncService
	logger  *zap.Logger
}

// NewSyncHandler creates a new SyncHandler
func NewSyncHandler(service SyncService, logger *zap.Logger) *SyncHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SyncHandler{service: service, logger: logger}
}

// RegisterRoutes registers sync routes on the given group
func (h *SyncHandler) RegisterRoutes(rg *gin.RouterGroup) {
	group := rg.Group("/sync")
	group.POST("/runs", h.RunSync)
	group.GET("/tasks", h.ListTasks)
	group.GET("/tasks/:id", h.GetTask)
	group.POST("/tasks/:id/resume", h.ResumeTask)
}

// RunSync starts a batch synchronization run. The run executes
// synchronously; long runs should be started by the scheduler instead.
func (h *SyncHandler) RunSync(c *gin.Context) {
	var req appsync.RunSyncRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, "invalid sync run request: "+err.Error())
		return
	}
	if !req.EntityType.IsValid() {
		h.Error(c, 400, dto.ErrCodeValidation, "unknown entity type")
		return
	}
	if !req.Direction.IsValid() {
		h.Error(c, 400, dto.ErrCodeValidation, "unknown sync direction")
		return
	}

	task, err := h.service.RunSync(c.Request.Context(), req)
	if err != nil {
		h.DomainError(c, err)
		return
	}
	h.Success(c, appsync.NewTaskResult(task))
}

// ResumeTask resumes an interrupted run from its checkpoint
func (h *SyncHandler) ResumeTask(c *gin.Context) {
	taskID, ok := h.taskID(c)
	if !ok {
		return
	}

	task, err := h.service.ResumeTask(c.Request.Context(), taskID)
	if err != nil {
		h.DomainError(c, err)
		return
	}
	h.Success(c, appsync.NewTaskResult(task))
}

// GetTask returns one task by ID
func (h *SyncHandler) GetTask(c *gin.Context) {
	taskID, ok := h.taskID(c)
	if !ok {
		return
	}

	task, err := h.service.GetTask(c.Request.Context(), taskID)
	if err != nil {
		h.DomainError(c, err)
		return
	}
	h.Success(c, appsync.NewTaskResult(task))
}

// ListTasks returns tasks matching the query filters, most recent first
func (h *SyncHandler) ListTasks(c *gin.Context) {
	filter, err := h.taskFilter(c)
	if err != nil {
		h.Error(c, 400, dto.ErrCodeValidation, err.Error())
		return
	}

	tasks, err := h.service.ListTasks(c.Request.Context(), filter)
	if err != nil {
		h.DomainError(c, err)
		return
	}

	results := make([]*appsync.TaskResult, 0, len(tasks))
	for i := range tasks {
		results = append(results, appsync.NewTaskResult(&tasks[i]))
	}
	h.SuccessWithMeta(c, results, len(results), filter.Limit)
}

func (h *SyncHandler) taskID(c *gin.Context) (uuid.UUID, bool) {
	var req dto.IDRequest
	if err := c.ShouldBindUri(&req); err != nil {
		h.BadRequest(c, "invalid task ID")
		return uuid.Nil, false
	}
	id, err := uuid.Parse(req.ID)
	if err != nil {
		h.BadRequest(c, "invalid task ID")
		return uuid.Nil, false
	}
	return id, true
}

type taskListQuery struct {
	EntityType string `form:"entity_type"`
	Direction  string `form:"direction"`
	Status     string `form:"status"`
	Limit      int    `form:"limit" binding:"omitempty,min=1,max=200"`
}

func (h *SyncHandler) taskFilter(c *gin.Context) (sync.TaskFilter, error) {
	var query taskListQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		return sync.TaskFilter{}, err
	}

	filter := sync.TaskFilter{Limit: query.Limit}
	if query.EntityType != "" {
		entityType := sync.EntityType(query.EntityType)
		if !entityType.IsValid() {
			return filter, sync.ErrMappingInvalidEntityType
		}
		filter.EntityType = &entityType
	}
	if query.Direction != "" {
		direction := sync.Direction(query.Direction)
		if !direction.IsValid() {
			return filter, sync.ErrInvalidDirection
		}
		filter.Direction = &direction
	}
	if query.Status != "" {
		status := sync.TaskStatus(query.Status)
		if !status.IsValid() {
			return filter, errors.New("unknown task status")
		}
		filter.Status = &status
	}
	return filter, nil
}
