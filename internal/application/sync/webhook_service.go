package sync

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/orderbridge/backend/internal/domain/shared"
	"github.com/orderbridge/backend/internal/domain/sync"
)

// WebhookService ingests platform webhook deliveries. Every delivery is
// verified against its platform's signature scheme, fenced by its webhook
// ID so redelivery causes no duplicate sync action, and then mapped to a
// single-entity sync in the direction away from the originating platform.
type WebhookService struct {
	adapters     sync.AdapterRegistry
	idempotency  shared.IdempotencyStore
	orchestrator *Orchestrator
	inventory    *InventoryService
	dedupTTL     time.Duration
	logger       *zap.Logger
}

// NewWebhookService creates a webhook service
func NewWebhookService(
	adapters sync.AdapterRegistry,
	idempotency shared.IdempotencyStore,
	orchestrator *Orchestrator,
	inventory *InventoryService,
	dedupTTL time.Duration,
	logger *zap.Logger,
) *WebhookService {
	if dedupTTL <= 0 {
		dedupTTL = shared.DefaultIdempotencyConfig().TTL
	}
	return &WebhookService{
		adapters:     adapters,
		idempotency:  idempotency,
		orchestrator: orchestrator,
		inventory:    inventory,
		dedupTTL:     dedupTTL,
		logger:       logger,
	}
}

// IngestWebhook processes one raw webhook delivery from the given platform.
// Signature verification happens before any parsing; a bad signature is
// rejected with ErrWebhookBadSignature and never reaches the dedup fence.
func (s *WebhookService) IngestWebhook(ctx context.Context, platform sync.PlatformCode, signature string, body []byte) (*WebhookResult, error) {
	adapter, err := s.adapters.Adapter(platform)
	if err != nil {
		return nil, err
	}

	if !adapter.VerifyWebhookSignature(signature, body) {
		s.logger.Warn("Webhook signature verification failed",
			zap.String("platform", platform.String()))
		return nil, sync.ErrWebhookBadSignature
	}

	event, err := adapter.ParseWebhook(body)
	if err != nil {
		s.logger.Warn("Malformed webhook payload",
			zap.String("platform", platform.String()),
			zap.Error(err))
		return nil, err
	}

	result := &WebhookResult{
		WebhookID: event.WebhookID,
		Kind:      event.Kind.String(),
	}

	// The fence is claimed before processing: a crash after the claim
	// loses at most one delivery, while claiming after processing would
	// allow a duplicate side effect on redelivery.
	fenceKey := fmt.Sprintf("%s:%s", platform, event.WebhookID)
	fresh, err := s.idempotency.MarkProcessed(ctx, fenceKey, s.dedupTTL)
	if err != nil {
		return nil, fmt.Errorf("webhook dedup fence: %w", err)
	}
	if !fresh {
		s.logger.Info("Duplicate webhook delivery ignored",
			zap.String("platform", platform.String()),
			zap.String("webhook_id", event.WebhookID))
		result.Duplicate = true
		return result, nil
	}

	if err := s.dispatch(ctx, event); err != nil {
		// Releasing the fence lets the platform's redelivery retry the
		// failed sync; otherwise one transient failure would drop the
		// event for the whole dedup TTL.
		if forgetErr := s.idempotency.Forget(ctx, fenceKey); forgetErr != nil {
			s.logger.Error("Failed to release webhook dedup fence",
				zap.String("webhook_id", event.WebhookID),
				zap.Error(forgetErr))
		}
		result.Message = err.Error()
		return result, err
	}
	result.Processed = true
	return result, nil
}

// dispatch routes a deduplicated event to its sync action. The switch over
// event kinds is exhaustive: every member of the closed set has an explicit
// arm, and unknown kinds are logged and ignored rather than failed, since
// platforms add event types without notice.
func (s *WebhookService) dispatch(ctx context.Context, event *sync.WebhookEvent) error {
	s.logger.Info("Processing webhook event",
		zap.String("platform", event.Platform.String()),
		zap.String("webhook_id", event.WebhookID),
		zap.String("kind", event.Kind.String()),
		zap.String("entity_id", event.EntityID))

	if event.EntityID == "" && event.Kind != sync.EventKindUnknown {
		s.logger.Warn("Webhook event carries no entity ID, dropping",
			zap.String("webhook_id", event.WebhookID),
			zap.String("kind", event.Kind.String()))
		return nil
	}

	switch event.Kind {
	case sync.EventKindOrderCreated,
		sync.EventKindOrderUpdated,
		sync.EventKindFulfillmentUpdated,
		sync.EventKindPaymentUpdated:
		return s.syncOrder(ctx, event)
	case sync.EventKindInventoryUpdated:
		return s.reconcileSKU(ctx, event)
	case sync.EventKindUnknown:
		s.logger.Info("Unhandled webhook event kind ignored",
			zap.String("platform", event.Platform.String()),
			zap.String("webhook_id", event.WebhookID))
		return nil
	default:
		s.logger.Info("Unhandled webhook event kind ignored",
			zap.String("platform", event.Platform.String()),
			zap.String("kind", event.Kind.String()))
		return nil
	}
}

// syncOrder pushes the referenced order toward the opposite platform. An
// order that no longer exists on the originating platform is a warning
// no-op: deletions race webhook delivery and are not an ingestion failure.
func (s *WebhookService) syncOrder(ctx context.Context, event *sync.WebhookEvent) error {
	direction := sync.DirectionAToB
	if event.Platform == sync.PlatformPosify {
		direction = sync.DirectionBToA
	}

	err := s.orchestrator.SyncEntity(ctx, direction, event.EntityID)
	if err != nil {
		if errors.Is(err, sync.ErrEntityNotFound) || sync.Classify(err) == sync.ClassNotFound {
			s.logger.Warn("Webhook references missing entity, ignoring",
				zap.String("platform", event.Platform.String()),
				zap.String("entity_id", event.EntityID))
			return nil
		}
		return err
	}

	s.logger.Info("Webhook-triggered sync completed",
		zap.String("entity_id", event.EntityID),
		zap.String("direction", direction.String()))
	return nil
}

// reconcileSKU runs a thresholdless reconciliation for the referenced SKU
func (s *WebhookService) reconcileSKU(ctx context.Context, event *sync.WebhookEvent) error {
	return s.inventory.ReconcileSKU(ctx, event.EntityID)
}
