package sync

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

// ---------------------------------------------------------------------------
// FulfillmentStatus Tests
// ---------------------------------------------------------------------------

func TestFulfillmentStatus_IsValid(t *testing.T) {
	tests := []struct {
		name     string
		status   FulfillmentStatus
		expected bool
	}{
		{"Pending valid", FulfillmentPending, true},
		{"Processing valid", FulfillmentProcessing, true},
		{"Shipped valid", FulfillmentShipped, true},
		{"Delivered valid", FulfillmentDelivered, true},
		{"Cancelled valid", FulfillmentCancelled, true},
		{"Failed valid", FulfillmentFailed, true},
		{"Invalid status", FulfillmentStatus("INVALID"), false},
		{"Empty status", FulfillmentStatus(""), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, tt.status.IsValid())
		})
	}
}

func TestFulfillmentStatus_Priority(t *testing.T) {
	tests := []struct {
		status   FulfillmentStatus
		expected int
	}{
		{FulfillmentPending, 0},
		{FulfillmentProcessing, 1},
		{FulfillmentShipped, 2},
		{FulfillmentDelivered, 3},
		{FulfillmentCancelled, -1},
		{FulfillmentFailed, -1},
	}

	for _, tt := range tests {
		t.Run(string(tt.status), func(t *testing.T) {
			assert.Equal(t, tt.expected, tt.status.Priority())
		})
	}
}

func TestFulfillmentStatus_IsTerminal(t *testing.T) {
	assert.True(t, FulfillmentCancelled.IsTerminal())
	assert.True(t, FulfillmentFailed.IsTerminal())
	assert.False(t, FulfillmentPending.IsTerminal())
	assert.False(t, FulfillmentDelivered.IsTerminal())
}

// ---------------------------------------------------------------------------
// PaymentStatus Tests
// ---------------------------------------------------------------------------

func TestPaymentStatus_IsValid(t *testing.T) {
	validStatuses := []PaymentStatus{
		PaymentPending,
		PaymentAuthorized,
		PaymentPaid,
		PaymentPartiallyRefunded,
		PaymentRefunded,
		PaymentFailed,
		PaymentVoided,
	}

	for _, status := range validStatuses {
		t.Run(string(status), func(t *testing.T) {
			assert.True(t, status.IsValid())
		})
	}

	t.Run("Invalid status", func(t *testing.T) {
		assert.False(t, PaymentStatus("INVALID").IsValid())
	})
}

func TestPaymentStatus_Priority(t *testing.T) {
	tests := []struct {
		status   PaymentStatus
		expected int
	}{
		{PaymentPending, 0},
		{PaymentAuthorized, 1},
		{PaymentPaid, 2},
		{PaymentPartiallyRefunded, 3},
		{PaymentRefunded, 4},
		{PaymentFailed, -1},
		{PaymentVoided, -1},
	}

	for _, tt := range tests {
		t.Run(string(tt.status), func(t *testing.T) {
			assert.Equal(t, tt.expected, tt.status.Priority())
		})
	}
}

func TestPaymentStatus_IsIrreversible(t *testing.T) {
	tests := []struct {
		status   PaymentStatus
		expected bool
	}{
		{PaymentPending, false},
		{PaymentAuthorized, false},
		{PaymentPaid, false},
		{PaymentPartiallyRefunded, false},
		{PaymentRefunded, true},
		{PaymentFailed, true},
		{PaymentVoided, false},
	}

	for _, tt := range tests {
		t.Run(string(tt.status), func(t *testing.T) {
			assert.Equal(t, tt.expected, tt.status.IsIrreversible())
		})
	}
}
