package handler

import (
	"context"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	appsync "github.com/orderbridge/backend/internal/application/sync"
	"github.com/orderbridge/backend/internal/domain/sync"
	"github.com/orderbridge/backend/internal/interfaces/http/dto"
)

// Webhook delivery signature headers
const (
	supplyHubSignatureHeader = "X-Supplyhub-Signature"
	posifySignatureHeader    = "X-Posify-Hmac-Sha256"
)

// maxWebhookBodySize bounds inbound webhook bodies
const maxWebhookBodySize = 1 << 20 // 1MB

// WebhookIngestor processes raw webhook deliveries
type WebhookIngestor interface {
	IngestWebhook(ctx context.Context, platform sync.PlatformCode, signature string, body []byte) (*appsync.WebhookResult, error)
}

// WebhookHandler receives webhook deliveries from both platforms
type WebhookHandler struct {
	BaseHandler
	service WebhookIngestor
	logger  *zap.Logger
}

// NewWebhookHandler creates a new WebhookHandler
func NewWebhookHandler(service WebhookIngestor, logger *zap.Logger) *WebhookHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &WebhookHandler{service: service, logger: logger}
}

// RegisterRoutes registers webhook routes on the given group
func (h *WebhookHandler) RegisterRoutes(rg *gin.RouterGroup) {
	group := rg.Group("/webhooks")
	group.POST("/supplyhub", h.IngestSupplyHub)
	group.POST("/posify", h.IngestPosify)
}

// IngestSupplyHub processes one SupplyHub webhook delivery
func (h *WebhookHandler) IngestSupplyHub(c *gin.Context) {
	h.ingest(c, sync.PlatformSupplyHub, c.GetHeader(supplyHubSignatureHeader))
}

// IngestPosify processes one Posify webhook delivery
func (h *WebhookHandler) IngestPosify(c *gin.Context) {
	h.ingest(c, sync.PlatformPosify, c.GetHeader(posifySignatureHeader))
}

// ingest reads the raw body and hands it to the webhook service. The raw
// bytes are passed through untouched: signature verification covers the
// exact payload the platform signed.
func (h *WebhookHandler) ingest(c *gin.Context, platform sync.PlatformCode, signature string) {
	body, err := io.ReadAll(io.LimitReader(c.Request.Body, maxWebhookBodySize))
	if err != nil {
		h.BadRequest(c, "failed to read webhook body")
		return
	}
	if len(body) == 0 {
		h.Error(c, http.StatusBadRequest, dto.ErrCodeWebhookMalformed, "empty webhook body")
		return
	}

	result, err := h.service.IngestWebhook(c.Request.Context(), platform, signature, body)
	if err != nil {
		h.logger.Warn("Webhook ingestion rejected",
			zap.String("platform", platform.String()),
			zap.Error(err))
		h.DomainError(c, err)
		return
	}

	h.Success(c, result)
}
