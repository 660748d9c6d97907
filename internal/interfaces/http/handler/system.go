package handler

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// Pinger reports whether a backing service is reachable
type Pinger interface {
	Ping() error
}

// SystemHandler serves health and liveness endpoints
type SystemHandler struct {
	BaseHandler
	appName string
	env     string
	db      Pinger
	logger  *zap.Logger
	started time.Time
}

// NewSystemHandler creates a new SystemHandler
func NewSystemHandler(appName, env string, db Pinger, logger *zap.Logger) *SystemHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SystemHandler{
		appName: appName,
		env:     env,
		db:      db,
		logger:  logger,
		started: time.Now(),
	}
}

// RegisterRoutes registers system routes on the given group
func (h *SystemHandler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET("/health", h.Health)
	rg.GET("/ping", h.Ping)
}

// healthStatus is the payload returned by the health endpoint
type healthStatus struct {
	Status        string `json:"status"`
	App           string `json:"app"`
	Env           string `json:"env"`
	Database      string `json:"database"`
	UptimeSeconds int64  `json:"uptime_seconds"`
}

// Health reports overall service health including the database connection
func (h *SystemHandler) Health(c *gin.Context) {
	status := healthStatus{
		Status:        "ok",
		App:           h.appName,
		Env:           h.env,
		Database:      "ok",
		UptimeSeconds: int64(time.Since(h.started).Seconds()),
	}

	httpStatus := http.StatusOK
	if h.db != nil {
		if err := h.db.Ping(); err != nil {
			h.logger.Error("Database health check failed", zap.Error(err))
			status.Status = "degraded"
			status.Database = "unreachable"
			httpStatus = http.StatusServiceUnavailable
		}
	}

	c.JSON(httpStatus, status)
}

// Ping is a trivial liveness probe
func (h *SystemHandler) Ping(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"message": "pong"})
}
