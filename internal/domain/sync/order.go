package sync

import (
	"errors"
	"time"

	"github.com/shopspring/decimal"

	"github.com/orderbridge/backend/internal/domain/shared/valueobject"
)

// ---------------------------------------------------------------------------
// Canonical Order
// ---------------------------------------------------------------------------

// Order is the platform-agnostic representation of an order. Each platform
// adapter is responsible for producing and consuming this shape; the core
// never parses platform-native payloads.
type Order struct {
	// PlatformOrderID is the order ID on the platform this copy came from
	PlatformOrderID string
	// Platform identifies which platform this copy came from
	Platform PlatformCode
	// Customer is the buyer block
	Customer Customer
	// Items contains the order line items
	Items []OrderItem
	// Shipping is the shipping block
	Shipping ShippingInfo
	// FulfillmentStatus is the current fulfillment status
	FulfillmentStatus FulfillmentStatus
	// PaymentStatus is the current payment status
	PaymentStatus PaymentStatus
	// Total is the order total (amount plus currency, never a bare float)
	Total valueobject.Money
	// CreatedAt is when the order was created on the platform
	CreatedAt time.Time
	// UpdatedAt is when the order last changed on the platform
	UpdatedAt time.Time
}

// Customer is the buyer block of a canonical order
type Customer struct {
	// Email is the buyer's email address
	Email string
	// Name is the buyer's full name
	Name string
	// Phone is the buyer's phone number
	Phone string
}

// OrderItem is a line item of a canonical order
type OrderItem struct {
	// SKU identifies the product variant
	SKU string
	// Name is the product name
	Name string
	// Quantity is the ordered quantity
	Quantity decimal.Decimal
	// UnitPrice is the unit price in the order currency
	UnitPrice decimal.Decimal
}

// ShippingInfo is the shipping block of a canonical order
type ShippingInfo struct {
	// Address is the delivery address
	Address Address
	// Carrier is the shipping carrier name
	Carrier string
	// TrackingNumber is the carrier tracking number
	TrackingNumber string
}

// Address is a delivery address
type Address struct {
	Line1      string
	Line2      string
	City       string
	Region     string
	PostalCode string
	Country    string
}

// Validate checks that the order is complete enough to synchronize.
// Violations are ClassValidation failures and are never retried.
func (o *Order) Validate() error {
	if o.PlatformOrderID == "" {
		return errors.New("sync: order has no platform order ID")
	}
	if !o.Platform.IsValid() {
		return errors.New("sync: order has no valid platform code")
	}
	if len(o.Items) == 0 {
		return errors.New("sync: order has no line items")
	}
	if !o.FulfillmentStatus.IsValid() {
		return errors.New("sync: order has invalid fulfillment status")
	}
	if !o.PaymentStatus.IsValid() {
		return errors.New("sync: order has invalid payment status")
	}
	for _, item := range o.Items {
		if item.SKU == "" {
			return errors.New("sync: order item has no SKU")
		}
		if !item.Quantity.IsPositive() {
			return errors.New("sync: order item quantity must be positive")
		}
	}
	return nil
}

// HasTracking returns true when the order carries carrier and tracking data
func (o *Order) HasTracking() bool {
	return o.Shipping.Carrier != "" && o.Shipping.TrackingNumber != ""
}
