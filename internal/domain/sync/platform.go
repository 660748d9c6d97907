package sync

import (
	"context"
	"errors"
)

// ---------------------------------------------------------------------------
// Platform Errors
// ---------------------------------------------------------------------------

var (
	// Platform errors
	ErrPlatformNotConfigured    = errors.New("sync: platform not configured")
	ErrPlatformUnavailable      = errors.New("sync: platform temporarily unavailable")
	ErrPlatformRequestFailed    = errors.New("sync: platform request failed")
	ErrPlatformInvalidResponse  = errors.New("sync: invalid platform response")
	ErrPlatformAuthFailed       = errors.New("sync: platform authentication failed")
	ErrPlatformRateLimited      = errors.New("sync: platform rate limited")
	ErrPlatformInvalidSignature = errors.New("sync: invalid platform signature")

	// Entity errors
	ErrEntityNotFound = errors.New("sync: entity not found on platform")
	ErrEntityInvalid  = errors.New("sync: invalid entity for sync")
)

// ---------------------------------------------------------------------------
// PlatformCode
// ---------------------------------------------------------------------------

// PlatformCode identifies one of the two synchronized commerce platforms
type PlatformCode string

const (
	// PlatformSupplyHub is the product-sourcing and order platform (platform A).
	// It is the authoritative side for inventory counts.
	PlatformSupplyHub PlatformCode = "SUPPLYHUB"
	// PlatformPosify is the point-of-sale commerce platform (platform B)
	PlatformPosify PlatformCode = "POSIFY"
)

// IsValid returns true if the platform code is valid
func (c PlatformCode) IsValid() bool {
	switch c {
	case PlatformSupplyHub, PlatformPosify:
		return true
	default:
		return false
	}
}

// String returns the string representation of PlatformCode
func (c PlatformCode) String() string {
	return string(c)
}

// Opposite returns the other platform of the pair
func (c PlatformCode) Opposite() PlatformCode {
	if c == PlatformSupplyHub {
		return PlatformPosify
	}
	return PlatformSupplyHub
}

// ---------------------------------------------------------------------------
// Status and Tracking Updates
// ---------------------------------------------------------------------------

// FulfillmentUpdate carries the fulfillment fields pushed to a platform
type FulfillmentUpdate struct {
	// Status is the new fulfillment status
	Status FulfillmentStatus
	// Carrier is the shipping carrier name (for SHIPPED)
	Carrier string
	// TrackingNumber is the carrier tracking number (for SHIPPED)
	TrackingNumber string
}

// PaymentUpdate carries the payment fields pushed to a platform
type PaymentUpdate struct {
	// Status is the new payment status
	Status PaymentStatus
}

// InventoryAdjustment represents one SKU-level quantity correction
type InventoryAdjustment struct {
	// SKU identifies the product variant
	SKU string
	// Quantity is the absolute quantity to set
	Quantity int64
	// LocationID scopes the adjustment to a stock location (optional)
	LocationID string
}

// ---------------------------------------------------------------------------
// PlatformAdapter Port Interface
// ---------------------------------------------------------------------------

// PlatformAdapter defines the port interface for a commerce platform.
// It is defined in the domain layer following the Ports & Adapters pattern;
// concrete HTTP implementations live in the infrastructure layer. The core
// never sees platform-native payloads: adapters produce and consume the
// canonical shapes defined in this package, and all failures are classified
// through the error taxonomy in errors.go.
type PlatformAdapter interface {
	// PlatformCode returns the platform this adapter handles
	PlatformCode() PlatformCode

	// FetchOrder retrieves an order in canonical form.
	// Returns ErrEntityNotFound (class ClassNotFound) when the order
	// does not exist on the platform.
	FetchOrder(ctx context.Context, platformOrderID string) (*Order, error)

	// ListOrders returns orders updated within the given page window.
	// Ordering is by platform order ID ascending so a sync run can be
	// resumed strictly after the last processed ID.
	ListOrders(ctx context.Context, req *OrderListRequest) (*OrderListResponse, error)

	// CreateOrder creates the order on the platform and returns the
	// platform-assigned order ID.
	CreateOrder(ctx context.Context, order *Order) (string, error)

	// UpdateFulfillment applies a fulfillment update to an existing order
	UpdateFulfillment(ctx context.Context, platformOrderID string, update FulfillmentUpdate) error

	// UpdatePayment applies a payment update to an existing order
	UpdatePayment(ctx context.Context, platformOrderID string, update PaymentUpdate) error

	// FetchInventory returns current inventory levels keyed by SKU,
	// optionally scoped to a location.
	FetchInventory(ctx context.Context, locationID string) ([]InventoryLevel, error)

	// AdjustInventory submits a batch of absolute quantity corrections.
	// The idempotencyKey makes redelivery of the same batch a no-op on
	// the platform side.
	AdjustInventory(ctx context.Context, adjustments []InventoryAdjustment, idempotencyKey string) error

	// VerifyWebhookSignature checks an inbound webhook signature against
	// the raw body using the platform's scheme. It performs no I/O.
	VerifyWebhookSignature(signature string, body []byte) bool

	// ParseWebhook translates a verified platform-native webhook body into
	// a canonical event. Unrecognized event types map to EventKindUnknown
	// rather than an error. Returns ErrWebhookMalformed for bodies that
	// cannot be decoded at all.
	ParseWebhook(body []byte) (*WebhookEvent, error)
}

// OrderListRequest is a paged request for orders from a platform
type OrderListRequest struct {
	// AfterID resumes listing strictly after this cursor in the
	// platform's own listing order (empty means from the beginning).
	// The cursor is opaque to callers; each adapter interprets it in
	// whatever order its platform lists orders.
	AfterID string
	// PageSize is the maximum number of orders to return
	PageSize int
	// UpdatedSince filters to orders changed after this instant (optional)
	UpdatedSince *int64
}

// OrderListResponse is one page of orders from a platform
type OrderListResponse struct {
	// Orders contains the page of canonical orders, ordered by platform ID
	Orders []Order
	// HasMore indicates whether another page exists
	HasMore bool
}

// ---------------------------------------------------------------------------
// AdapterRegistry
// ---------------------------------------------------------------------------

// AdapterRegistry provides access to the configured platform adapters
type AdapterRegistry interface {
	// Adapter returns the adapter for the given platform code
	Adapter(code PlatformCode) (PlatformAdapter, error)
}
