package sync

// ---------------------------------------------------------------------------
// FulfillmentStatus
// ---------------------------------------------------------------------------

// FulfillmentStatus represents the fulfillment state of an order.
// The non-terminal statuses form an ordered progression; CANCELLED and
// FAILED are terminal exceptions that sit outside the ordering.
type FulfillmentStatus string

const (
	// FulfillmentPending indicates the order has not started fulfillment
	FulfillmentPending FulfillmentStatus = "PENDING"
	// FulfillmentProcessing indicates the order is being prepared
	FulfillmentProcessing FulfillmentStatus = "PROCESSING"
	// FulfillmentShipped indicates the order has left the warehouse
	FulfillmentShipped FulfillmentStatus = "SHIPPED"
	// FulfillmentDelivered indicates the order reached the customer
	FulfillmentDelivered FulfillmentStatus = "DELIVERED"
	// FulfillmentCancelled indicates the order was cancelled (terminal)
	FulfillmentCancelled FulfillmentStatus = "CANCELLED"
	// FulfillmentFailed indicates fulfillment failed permanently (terminal)
	FulfillmentFailed FulfillmentStatus = "FAILED"
)

// IsValid returns true if the status is a known fulfillment status
func (s FulfillmentStatus) IsValid() bool {
	switch s {
	case FulfillmentPending, FulfillmentProcessing, FulfillmentShipped,
		FulfillmentDelivered, FulfillmentCancelled, FulfillmentFailed:
		return true
	default:
		return false
	}
}

// String returns the string representation of FulfillmentStatus
func (s FulfillmentStatus) String() string {
	return string(s)
}

// IsTerminal returns true for statuses that end the fulfillment lifecycle
func (s FulfillmentStatus) IsTerminal() bool {
	return s == FulfillmentCancelled || s == FulfillmentFailed
}

// Priority returns the ordinal position of the status within the ordered
// progression. Terminal statuses have no ordinal position and return -1.
func (s FulfillmentStatus) Priority() int {
	switch s {
	case FulfillmentPending:
		return 0
	case FulfillmentProcessing:
		return 1
	case FulfillmentShipped:
		return 2
	case FulfillmentDelivered:
		return 3
	default:
		return -1
	}
}

// ---------------------------------------------------------------------------
// PaymentStatus
// ---------------------------------------------------------------------------

// PaymentStatus represents the payment state of an order.
// PENDING through REFUNDED form an ordered progression; FAILED and VOIDED
// are terminal exceptions outside the ordering.
type PaymentStatus string

const (
	// PaymentPending indicates no payment has been attempted
	PaymentPending PaymentStatus = "PENDING"
	// PaymentAuthorized indicates funds are reserved but not captured
	PaymentAuthorized PaymentStatus = "AUTHORIZED"
	// PaymentPaid indicates funds were captured
	PaymentPaid PaymentStatus = "PAID"
	// PaymentPartiallyRefunded indicates part of the payment was returned
	PaymentPartiallyRefunded PaymentStatus = "PARTIALLY_REFUNDED"
	// PaymentRefunded indicates the full payment was returned
	PaymentRefunded PaymentStatus = "REFUNDED"
	// PaymentFailed indicates the payment failed permanently (terminal)
	PaymentFailed PaymentStatus = "FAILED"
	// PaymentVoided indicates the authorization was voided (terminal)
	PaymentVoided PaymentStatus = "VOIDED"
)

// IsValid returns true if the status is a known payment status
func (s PaymentStatus) IsValid() bool {
	switch s {
	case PaymentPending, PaymentAuthorized, PaymentPaid,
		PaymentPartiallyRefunded, PaymentRefunded, PaymentFailed, PaymentVoided:
		return true
	default:
		return false
	}
}

// String returns the string representation of PaymentStatus
func (s PaymentStatus) String() string {
	return string(s)
}

// IsTerminal returns true for statuses that end the payment lifecycle
func (s PaymentStatus) IsTerminal() bool {
	return s == PaymentFailed || s == PaymentVoided
}

// IsIrreversible returns true for statuses that represent an irreversible
// financial event. An irreversible status must never be overwritten by a
// progression status from the other platform.
func (s PaymentStatus) IsIrreversible() bool {
	return s == PaymentFailed || s == PaymentRefunded
}

// Priority returns the ordinal position of the status within the ordered
// progression. Terminal statuses have no ordinal position and return -1.
func (s PaymentStatus) Priority() int {
	switch s {
	case PaymentPending:
		return 0
	case PaymentAuthorized:
		return 1
	case PaymentPaid:
		return 2
	case PaymentPartiallyRefunded:
		return 3
	case PaymentRefunded:
		return 4
	default:
		return -1
	}
}
