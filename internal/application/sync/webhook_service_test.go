package sync

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/orderbridge/backend/internal/domain/sync"
	"github.com/orderbridge/backend/internal/infrastructure/ratelimit"
)

type webhookFixture struct {
	service   *WebhookService
	supplyHub *fakeAdapter
	posify    *fakeAdapter
	store     *memIdempotencyStore
}

func newWebhookFixture(t *testing.T) *webhookFixture {
	t.Helper()
	logger := zap.NewNop()
	supplyHub := newFakeAdapter(sync.PlatformSupplyHub)
	posify := newFakeAdapter(sync.PlatformPosify)
	registry := newFakeRegistry(supplyHub, posify)
	mappingRepo := newMemMappingRepo()
	taskRepo := newMemTaskRepo()
	retrier := ratelimit.NewRetrier(
		ratelimit.NewPlatformLimiter(nil),
		ratelimit.RetryPolicy{MaxAttempts: 2, BaseDelay: time.Millisecond, MaxDelay: time.Millisecond},
		logger,
	)
	orchestrator := NewOrchestrator(registry, mappingRepo, taskRepo,
		NewProgressTracker(taskRepo, logger), retrier, DefaultOrchestratorConfig(), logger)
	inventory := NewInventoryService(registry, mappingRepo, retrier, logger)
	store := newMemIdempotencyStore()
	return &webhookFixture{
		service:   NewWebhookService(registry, store, orchestrator, inventory, time.Hour, logger),
		supplyHub: supplyHub,
		posify:    posify,
		store:     store,
	}
}

func webhookBody(webhookID, kind, entityID string) []byte {
	return []byte(fmt.Sprintf(`{"webhook_id":%q,"kind":%q,"entity_id":%q}`, webhookID, kind, entityID))
}

func TestWebhookService_RejectsBadSignature(t *testing.T) {
	f := newWebhookFixture(t)

	_, err := f.service.IngestWebhook(context.Background(), sync.PlatformSupplyHub, "forged",
		webhookBody("wh-1", "ORDER_CREATED", "A1"))
	require.ErrorIs(t, err, sync.ErrWebhookBadSignature)

	// A rejected delivery never claims the dedup fence.
	seen, err := f.store.IsProcessed(context.Background(), "SUPPLYHUB:wh-1")
	require.NoError(t, err)
	assert.False(t, seen)
}

func TestWebhookService_RejectsMalformedBody(t *testing.T) {
	f := newWebhookFixture(t)

	_, err := f.service.IngestWebhook(context.Background(), sync.PlatformSupplyHub, "valid", []byte("{not json"))
	assert.ErrorIs(t, err, sync.ErrWebhookMalformed)
}

func TestWebhookService_OrderEventTriggersSync(t *testing.T) {
	f := newWebhookFixture(t)
	f.supplyHub.addOrder(testOrder("A1", sync.FulfillmentPending, sync.PaymentPaid))

	result, err := f.service.IngestWebhook(context.Background(), sync.PlatformSupplyHub, "valid",
		webhookBody("wh-1", "ORDER_CREATED", "A1"))
	require.NoError(t, err)

	assert.True(t, result.Processed)
	assert.False(t, result.Duplicate)
	// The order flowed away from the originating platform.
	assert.Len(t, f.posify.createdIDs, 1)
}

func TestWebhookService_DuplicateDeliveryIsNoOp(t *testing.T) {
	f := newWebhookFixture(t)
	f.supplyHub.addOrder(testOrder("A1", sync.FulfillmentPending, sync.PaymentPaid))

	body := webhookBody("wh-1", "ORDER_CREATED", "A1")
	first, err := f.service.IngestWebhook(context.Background(), sync.PlatformSupplyHub, "valid", body)
	require.NoError(t, err)
	require.True(t, first.Processed)

	second, err := f.service.IngestWebhook(context.Background(), sync.PlatformSupplyHub, "valid", body)
	require.NoError(t, err)
	assert.True(t, second.Duplicate)
	assert.False(t, second.Processed)

	// No second downstream create happened.
	assert.Len(t, f.posify.createdIDs, 1)
}

func TestWebhookService_FailedDispatchAllowsRedelivery(t *testing.T) {
	f := newWebhookFixture(t)
	f.supplyHub.addOrder(testOrder("A1", sync.FulfillmentPending, sync.PaymentPaid))
	f.supplyHub.fetchErrs["A1"] = sync.NewPlatformError(sync.ClassFatal, sync.PlatformSupplyHub, errors.New("auth expired"))

	body := webhookBody("wh-1", "ORDER_CREATED", "A1")
	first, err := f.service.IngestWebhook(context.Background(), sync.PlatformSupplyHub, "valid", body)
	require.Error(t, err)
	assert.False(t, first.Processed)

	// The failed delivery no longer holds the dedup fence.
	seen, err := f.store.IsProcessed(context.Background(), "SUPPLYHUB:wh-1")
	require.NoError(t, err)
	assert.False(t, seen)

	// The platform redelivers after the outage clears.
	delete(f.supplyHub.fetchErrs, "A1")
	second, err := f.service.IngestWebhook(context.Background(), sync.PlatformSupplyHub, "valid", body)
	require.NoError(t, err)
	assert.True(t, second.Processed)
	assert.False(t, second.Duplicate)
	assert.Len(t, f.posify.createdIDs, 1)
}

func TestWebhookService_PosifyEventFlowsTowardSupplyHub(t *testing.T) {
	f := newWebhookFixture(t)
	f.posify.addOrder(testOrder("B1", sync.FulfillmentPending, sync.PaymentPaid))

	result, err := f.service.IngestWebhook(context.Background(), sync.PlatformPosify, "valid",
		webhookBody("wh-2", "ORDER_UPDATED", "B1"))
	require.NoError(t, err)

	assert.True(t, result.Processed)
	assert.Len(t, f.supplyHub.createdIDs, 1)
}

func TestWebhookService_MissingEntityIsWarnNoOp(t *testing.T) {
	f := newWebhookFixture(t)

	result, err := f.service.IngestWebhook(context.Background(), sync.PlatformSupplyHub, "valid",
		webhookBody("wh-3", "ORDER_UPDATED", "A-GONE"))
	require.NoError(t, err)

	assert.True(t, result.Processed)
	assert.Empty(t, f.posify.createdIDs)
}

func TestWebhookService_UnknownKindIgnored(t *testing.T) {
	f := newWebhookFixture(t)

	result, err := f.service.IngestWebhook(context.Background(), sync.PlatformSupplyHub, "valid",
		webhookBody("wh-4", "SHOP_REDESIGNED", "A1"))
	require.NoError(t, err)

	assert.True(t, result.Processed)
	assert.Equal(t, sync.EventKindUnknown.String(), result.Kind)
	assert.Empty(t, f.posify.createdIDs)
}

func TestWebhookService_InventoryEventReconcilesSKU(t *testing.T) {
	f := newWebhookFixture(t)
	f.supplyHub.inventory = []sync.InventoryLevel{{SKU: "SKU-9", Quantity: 40}}

	result, err := f.service.IngestWebhook(context.Background(), sync.PlatformPosify, "valid",
		webhookBody("wh-5", "INVENTORY_UPDATED", "SKU-9"))
	require.NoError(t, err)

	assert.True(t, result.Processed)
	require.Len(t, f.posify.adjustments, 1)
	assert.Equal(t, "SKU-9", f.posify.adjustments[0][0].SKU)
	assert.Equal(t, int64(40), f.posify.adjustments[0][0].Quantity)
}

func TestWebhookService_EmptyEntityIDDropped(t *testing.T) {
	f := newWebhookFixture(t)

	result, err := f.service.IngestWebhook(context.Background(), sync.PlatformSupplyHub, "valid",
		webhookBody("wh-6", "ORDER_CREATED", ""))
	require.NoError(t, err)

	assert.True(t, result.Processed)
	assert.Empty(t, f.posify.createdIDs)
}
