package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	appsync "github.com/orderbridge/backend/internal/application/sync"
	"github.com/orderbridge/backend/internal/interfaces/http/dto"
)

// InventoryReconciler runs on-demand inventory reconciliation
type InventoryReconciler interface {
	ReconcileInventory(ctx context.Context, req appsync.ReconcileRequest) (*appsync.ReconcileResult, error)
}

// InventoryHandler exposes inventory reconciliation over HTTP
type InventoryHandler struct {
	BaseHandler
	service InventoryReconciler
	logger  *zap.Logger
}

// NewInventoryHandler creates a new InventoryHandler
func NewInventoryHandler(service InventoryReconciler, logger *zap.Logger) *InventoryHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &InventoryHandler{service: service, logger: logger}
}

// RegisterRoutes registers inventory routes on the given group
func (h *InventoryHandler) RegisterRoutes(rg *gin.RouterGroup) {
	group := rg.Group("/inventory")
	group.POST("/reconcile", h.Reconcile)
}

// reconcileRequest is the HTTP payload for a reconciliation run. An empty
// body is accepted and reconciles all locations.
type reconcileRequest struct {
	LocationID string `json:"location_id"`
	// UseTolerance applies the scheduled drift tolerance instead of the
	// exact comparison explicit requests default to.
	UseTolerance bool `json:"use_tolerance"`
}

// Reconcile compares stock levels across both platforms and corrects
// drift. An explicit request corrects every discrepancy; the drift
// tolerance is opt-in via use_tolerance.
func (h *InventoryHandler) Reconcile(c *gin.Context) {
	var req reconcileRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			h.Error(c, http.StatusBadRequest, dto.ErrCodeValidation, "invalid reconcile request: "+err.Error())
			return
		}
	}

	result, err := h.service.ReconcileInventory(c.Request.Context(), appsync.ReconcileRequest{
		LocationID: req.LocationID,
		Force:      !req.UseTolerance,
	})
	if err != nil {
		h.logger.Error("Inventory reconciliation failed",
			zap.String("location_id", req.LocationID),
			zap.Error(err))
		h.DomainError(c, err)
		return
	}

	h.logger.Info("Inventory reconciliation finished",
		zap.String("location_id", req.LocationID),
		zap.Int("checked_skus", result.CheckedSKUs),
		zap.Int("corrected_skus", result.CorrectedSKUs))
	h.Success(c, result)
}
