package sync

// ---------------------------------------------------------------------------
// Conflict Resolution
// ---------------------------------------------------------------------------

// Side identifies which platform's value won a conflict
type Side string

const (
	// SideA is the SupplyHub side of a comparison
	SideA Side = "A"
	// SideB is the Posify side of a comparison
	SideB Side = "B"
)

// String returns the string representation of Side
func (s Side) String() string {
	return string(s)
}

// Platform returns the platform code for the side
func (s Side) Platform() PlatformCode {
	if s == SideA {
		return PlatformSupplyHub
	}
	return PlatformPosify
}

// ConflictStrategy configures how contested fields are resolved. The
// tie-break side is an explicit business rule, not an accident of call
// order, and is configurable per deployment.
type ConflictStrategy struct {
	// TieBreak is the side that wins when both statuses have equal
	// ordinal priority
	TieBreak Side
}

// DefaultConflictStrategy returns the default strategy: ties go to
// SupplyHub (side A).
func DefaultConflictStrategy() ConflictStrategy {
	return ConflictStrategy{TieBreak: SideA}
}

// FulfillmentResolution is the outcome of resolving a contested
// fulfillment status
type FulfillmentResolution struct {
	// Status is the winning fulfillment status
	Status FulfillmentStatus
	// Winner is the side that held the winning value
	Winner Side
}

// PaymentResolution is the outcome of resolving a contested payment status
type PaymentResolution struct {
	// Status is the winning payment status
	Status PaymentStatus
	// Winner is the side that held the winning value
	Winner Side
}

// ResolveFulfillment decides the winning fulfillment status between side A
// and side B. The status with the higher ordinal priority wins; a terminal
// status (CANCELLED, FAILED) on either side wins over any progression
// status, since it cannot be advanced out of. Ties go to the strategy's
// tie-break side. The function is pure: it has no side effects and repeated
// calls with the same inputs return the same result.
func (s ConflictStrategy) ResolveFulfillment(a, b FulfillmentStatus) FulfillmentResolution {
	// Terminal statuses trump the ordered progression.
	if a.IsTerminal() && !b.IsTerminal() {
		return FulfillmentResolution{Status: a, Winner: SideA}
	}
	if b.IsTerminal() && !a.IsTerminal() {
		return FulfillmentResolution{Status: b, Winner: SideB}
	}

	pa, pb := a.Priority(), b.Priority()
	switch {
	case pa > pb:
		return FulfillmentResolution{Status: a, Winner: SideA}
	case pb > pa:
		return FulfillmentResolution{Status: b, Winner: SideB}
	default:
		return s.tieFulfillment(a, b)
	}
}

// ResolvePayment decides the winning payment status between side A and
// side B. FAILED or REFUNDED on either side wins unconditionally over any
// other status: these are irreversible financial events that must never be
// overwritten by a happier status from the other platform. Otherwise the
// higher ordinal priority wins, with ties going to the strategy's tie-break
// side. The function is pure.
func (s ConflictStrategy) ResolvePayment(a, b PaymentStatus) PaymentResolution {
	if a.IsIrreversible() && !b.IsIrreversible() {
		return PaymentResolution{Status: a, Winner: SideA}
	}
	if b.IsIrreversible() && !a.IsIrreversible() {
		return PaymentResolution{Status: b, Winner: SideB}
	}
	if a.IsIrreversible() && b.IsIrreversible() {
		// Both irreversible: the tie-break side's event stands.
		return s.tiePayment(a, b)
	}

	// VOIDED terminates the lifecycle even though it is not an
	// irreversible refund event.
	if a.IsTerminal() && !b.IsTerminal() {
		return PaymentResolution{Status: a, Winner: SideA}
	}
	if b.IsTerminal() && !a.IsTerminal() {
		return PaymentResolution{Status: b, Winner: SideB}
	}

	pa, pb := a.Priority(), b.Priority()
	switch {
	case pa > pb:
		return PaymentResolution{Status: a, Winner: SideA}
	case pb > pa:
		return PaymentResolution{Status: b, Winner: SideB}
	default:
		return s.tiePayment(a, b)
	}
}

func (s ConflictStrategy) tieFulfillment(a, b FulfillmentStatus) FulfillmentResolution {
	if s.TieBreak == SideB {
		return FulfillmentResolution{Status: b, Winner: SideB}
	}
	return FulfillmentResolution{Status: a, Winner: SideA}
}

func (s ConflictStrategy) tiePayment(a, b PaymentStatus) PaymentResolution {
	if s.TieBreak == SideB {
		return PaymentResolution{Status: b, Winner: SideB}
	}
	return PaymentResolution{Status: a, Winner: SideA}
}
