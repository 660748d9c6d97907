package sync

import "time"

// ---------------------------------------------------------------------------
// Inventory Level
// ---------------------------------------------------------------------------

// InventoryLevel is a platform-agnostic stock count for one SKU. The SKU is
// the natural key for cross-platform comparison when no entity mapping
// exists yet.
type InventoryLevel struct {
	// ProductID is the product ID on the platform this level came from
	ProductID string
	// VariantID is the variant ID on the platform (optional)
	VariantID string
	// SKU identifies the product variant across platforms
	SKU string
	// Quantity is the available stock count
	Quantity int64
	// LocationID scopes the level to a stock location (optional)
	LocationID string
	// UpdatedAt is when the level last changed on the platform
	UpdatedAt time.Time
}

// ---------------------------------------------------------------------------
// Discrepancy
// ---------------------------------------------------------------------------

// Discrepancy is a detected quantity divergence for one SKU.
// Delta is quantityB - quantityA: positive means Posify overcounts
// relative to SupplyHub.
type Discrepancy struct {
	// SKU identifies the diverging variant
	SKU string
	// QuantityA is the count on SupplyHub
	QuantityA int64
	// QuantityB is the count on Posify
	QuantityB int64
	// Delta is QuantityB - QuantityA
	Delta int64
}

// Abs returns the magnitude of the discrepancy
func (d Discrepancy) Abs() int64 {
	if d.Delta < 0 {
		return -d.Delta
	}
	return d.Delta
}

// ReconcileThreshold returns the minimum discrepancy magnitude that
// triggers a correction during a scheduled reconciliation: the greater of
// five units and one percent of the larger quantity. Explicit sync requests
// use a threshold of zero instead, so every divergence is corrected.
func ReconcileThreshold(a, b int64) int64 {
	maxQty := a
	if b > maxQty {
		maxQty = b
	}
	pct := maxQty / 100
	if pct < 5 {
		return 5
	}
	return pct
}
