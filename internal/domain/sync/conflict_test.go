package sync

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

// ---------------------------------------------------------------------------
// ResolveFulfillment Tests
// ---------------------------------------------------------------------------

func TestResolveFulfillment_HigherOrdinalWins(t *testing.T) {
	strategy := DefaultConflictStrategy()

	tests := []struct {
		name       string
		a          FulfillmentStatus
		b          FulfillmentStatus
		wantStatus FulfillmentStatus
		wantWinner Side
	}{
		{"Shipped beats pending", FulfillmentShipped, FulfillmentPending, FulfillmentShipped, SideA},
		{"Delivered beats shipped", FulfillmentShipped, FulfillmentDelivered, FulfillmentDelivered, SideB},
		{"Processing beats pending", FulfillmentPending, FulfillmentProcessing, FulfillmentProcessing, SideB},
		{"Tie goes to side A", FulfillmentShipped, FulfillmentShipped, FulfillmentShipped, SideA},
		{"Cancelled beats delivered", FulfillmentCancelled, FulfillmentDelivered, FulfillmentCancelled, SideA},
		{"Failed beats shipped", FulfillmentShipped, FulfillmentFailed, FulfillmentFailed, SideB},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := strategy.ResolveFulfillment(tt.a, tt.b)
			assert.Equal(t, tt.wantStatus, res.Status)
			assert.Equal(t, tt.wantWinner, res.Winner)
		})
	}
}

func TestResolveFulfillment_ConfigurableTieBreak(t *testing.T) {
	strategy := ConflictStrategy{TieBreak: SideB}

	res := strategy.ResolveFulfillment(FulfillmentProcessing, FulfillmentProcessing)
	assert.Equal(t, FulfillmentProcessing, res.Status)
	assert.Equal(t, SideB, res.Winner)
}

func TestResolveFulfillment_Deterministic(t *testing.T) {
	strategy := DefaultConflictStrategy()

	first := strategy.ResolveFulfillment(FulfillmentShipped, FulfillmentPending)
	for i := 0; i < 100; i++ {
		assert.Equal(t, first, strategy.ResolveFulfillment(FulfillmentShipped, FulfillmentPending))
	}
}

// ---------------------------------------------------------------------------
// ResolvePayment Tests
// ---------------------------------------------------------------------------

func TestResolvePayment_IrreversibleWinsUnconditionally(t *testing.T) {
	strategy := DefaultConflictStrategy()

	tests := []struct {
		name       string
		a          PaymentStatus
		b          PaymentStatus
		wantStatus PaymentStatus
		wantWinner Side
	}{
		{"Failed on A beats paid on B", PaymentFailed, PaymentPaid, PaymentFailed, SideA},
		{"Failed on B beats paid on A", PaymentPaid, PaymentFailed, PaymentFailed, SideB},
		{"Refunded on A beats authorized on B", PaymentRefunded, PaymentAuthorized, PaymentRefunded, SideA},
		{"Refunded on B beats partially refunded on A", PaymentPartiallyRefunded, PaymentRefunded, PaymentRefunded, SideB},
		{"Both irreversible ties to A", PaymentFailed, PaymentRefunded, PaymentFailed, SideA},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := strategy.ResolvePayment(tt.a, tt.b)
			assert.Equal(t, tt.wantStatus, res.Status)
			assert.Equal(t, tt.wantWinner, res.Winner)
		})
	}
}

func TestResolvePayment_OrdinalFallback(t *testing.T) {
	strategy := DefaultConflictStrategy()

	tests := []struct {
		name       string
		a          PaymentStatus
		b          PaymentStatus
		wantStatus PaymentStatus
		wantWinner Side
	}{
		{"Paid beats pending", PaymentPaid, PaymentPending, PaymentPaid, SideA},
		{"Authorized beats pending", PaymentPending, PaymentAuthorized, PaymentAuthorized, SideB},
		{"Tie goes to side A", PaymentPaid, PaymentPaid, PaymentPaid, SideA},
		{"Voided beats paid", PaymentPaid, PaymentVoided, PaymentVoided, SideB},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := strategy.ResolvePayment(tt.a, tt.b)
			assert.Equal(t, tt.wantStatus, res.Status)
			assert.Equal(t, tt.wantWinner, res.Winner)
		})
	}
}

func TestResolvePayment_FailedNeverOverwrittenRegardlessOfOrder(t *testing.T) {
	strategy := DefaultConflictStrategy()

	left := strategy.ResolvePayment(PaymentFailed, PaymentPaid)
	right := strategy.ResolvePayment(PaymentPaid, PaymentFailed)

	assert.Equal(t, PaymentFailed, left.Status)
	assert.Equal(t, SideA, left.Winner)
	assert.Equal(t, PaymentFailed, right.Status)
	assert.Equal(t, SideB, right.Winner)
}
