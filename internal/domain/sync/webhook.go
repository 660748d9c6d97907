package sync

import (
	"errors"
	"time"
)

// ---------------------------------------------------------------------------
// Webhook Errors
// ---------------------------------------------------------------------------

var (
	ErrWebhookBadSignature = errors.New("sync: webhook signature verification failed")
	ErrWebhookMalformed    = errors.New("sync: malformed webhook payload")
)

// ---------------------------------------------------------------------------
// EventKind
// ---------------------------------------------------------------------------

// EventKind is the closed set of webhook event kinds the engine reacts to.
// Adapters translate platform-native event type strings into this set;
// anything outside it maps to EventKindUnknown, which is logged and
// ignored rather than silently dropped inside an adapter.
type EventKind string

const (
	// EventKindOrderCreated signals a new order on the platform
	EventKindOrderCreated EventKind = "ORDER_CREATED"
	// EventKindOrderUpdated signals an order change on the platform
	EventKindOrderUpdated EventKind = "ORDER_UPDATED"
	// EventKindFulfillmentUpdated signals a fulfillment status change
	EventKindFulfillmentUpdated EventKind = "FULFILLMENT_UPDATED"
	// EventKindPaymentUpdated signals a payment status change
	EventKindPaymentUpdated EventKind = "PAYMENT_UPDATED"
	// EventKindInventoryUpdated signals a SKU quantity change
	EventKindInventoryUpdated EventKind = "INVENTORY_UPDATED"
	// EventKindUnknown marks an event type the engine does not handle
	EventKindUnknown EventKind = "UNKNOWN"
)

// IsValid returns true if the kind is a known event kind
func (k EventKind) IsValid() bool {
	switch k {
	case EventKindOrderCreated, EventKindOrderUpdated, EventKindFulfillmentUpdated,
		EventKindPaymentUpdated, EventKindInventoryUpdated, EventKindUnknown:
		return true
	default:
		return false
	}
}

// String returns the string representation of EventKind
func (k EventKind) String() string {
	return string(k)
}

// ---------------------------------------------------------------------------
// WebhookEvent
// ---------------------------------------------------------------------------

// WebhookEvent is a verified, parsed inbound event. The WebhookID doubles
// as the idempotency fence key: redelivery of the same ID performs no
// downstream sync action.
type WebhookEvent struct {
	// WebhookID is the platform-assigned unique delivery ID
	WebhookID string
	// Platform is the originating platform
	Platform PlatformCode
	// Kind is the translated event kind
	Kind EventKind
	// EntityID is the platform-side ID of the referenced entity
	// (order ID or SKU, depending on Kind). May be empty for malformed
	// deliveries, which are warned about and dropped.
	EntityID string
	// ReceivedAt is when the event was accepted
	ReceivedAt time.Time
}

// EntityType returns the entity type a kind operates on
func (k EventKind) EntityType() EntityType {
	if k == EventKindInventoryUpdated {
		return EntityTypeInventory
	}
	return EntityTypeOrder
}
