package sync

import (
	"context"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/orderbridge/backend/internal/domain/sync"
	"github.com/orderbridge/backend/internal/infrastructure/ratelimit"
)

// InventoryService reconciles SKU-level stock counts between the two
// platforms. SupplyHub is the authoritative side: corrections always push
// its quantity onto Posify, never the reverse. Scheduled passes only
// correct divergences above the discrepancy threshold; forced passes
// correct everything.
type InventoryService struct {
	adapters    sync.AdapterRegistry
	mappingRepo sync.MappingRepository
	retrier     *ratelimit.Retrier
	logger      *zap.Logger
}

// NewInventoryService creates an inventory reconciliation service
func NewInventoryService(
	adapters sync.AdapterRegistry,
	mappingRepo sync.MappingRepository,
	retrier *ratelimit.Retrier,
	logger *zap.Logger,
) *InventoryService {
	return &InventoryService{
		adapters:    adapters,
		mappingRepo: mappingRepo,
		retrier:     retrier,
		logger:      logger,
	}
}

// ReconcileInventory compares the full SKU-keyed stock picture of both
// platforms and pushes corrections to Posify for every SKU whose divergence
// exceeds the threshold.
func (s *InventoryService) ReconcileInventory(ctx context.Context, req ReconcileRequest) (*ReconcileResult, error) {
	authoritative, err := s.adapters.Adapter(sync.PlatformSupplyHub)
	if err != nil {
		return nil, err
	}
	follower, err := s.adapters.Adapter(sync.PlatformPosify)
	if err != nil {
		return nil, err
	}

	levelsA, err := s.fetchLevels(ctx, authoritative, req.LocationID)
	if err != nil {
		return nil, err
	}
	levelsB, err := s.fetchLevels(ctx, follower, req.LocationID)
	if err != nil {
		return nil, err
	}

	bySKU := make(map[string]sync.InventoryLevel, len(levelsB))
	for _, level := range levelsB {
		bySKU[level.SKU] = level
	}

	result := &ReconcileResult{}
	var adjustments []sync.InventoryAdjustment

	for _, a := range levelsA {
		result.CheckedSKUs++

		b, matched := bySKU[a.SKU]
		delete(bySKU, a.SKU)
		if !matched {
			// A SKU SupplyHub carries but Posify does not cannot be
			// corrected by a quantity adjustment; it needs catalog
			// attention and is surfaced instead.
			result.UnmatchedSKUs = append(result.UnmatchedSKUs, a.SKU)
			continue
		}

		delta := b.Quantity - a.Quantity
		if delta == 0 {
			continue
		}

		discrepancy := sync.Discrepancy{
			SKU:       a.SKU,
			QuantityA: a.Quantity,
			QuantityB: b.Quantity,
			Delta:     delta,
		}
		result.Discrepancies = append(result.Discrepancies, discrepancy)

		threshold := sync.ReconcileThreshold(a.Quantity, b.Quantity)
		if req.Force {
			threshold = 0
		}
		if discrepancy.Abs() <= threshold {
			continue
		}

		adjustments = append(adjustments, sync.InventoryAdjustment{
			SKU:        a.SKU,
			Quantity:   a.Quantity,
			LocationID: req.LocationID,
		})
	}

	// SKUs only Posify knows about are surfaced, not zeroed: deleting
	// stock the authoritative side never heard of is an operator call.
	for skuOnlyB := range bySKU {
		result.UnmatchedSKUs = append(result.UnmatchedSKUs, skuOnlyB)
	}

	if len(adjustments) > 0 {
		if err := s.pushAdjustments(ctx, follower, adjustments); err != nil {
			return result, err
		}
		result.CorrectedSKUs = len(adjustments)
		s.touchMappings(ctx, adjustments)
	}

	s.logger.Info("Inventory reconciliation finished",
		zap.Int("checked_skus", result.CheckedSKUs),
		zap.Int("discrepancies", len(result.Discrepancies)),
		zap.Int("corrected_skus", result.CorrectedSKUs),
		zap.Int("unmatched_skus", len(result.UnmatchedSKUs)))
	return result, nil
}

// ReconcileSKU corrects a single SKU without a threshold. Used for
// webhook-triggered inventory changes.
func (s *InventoryService) ReconcileSKU(ctx context.Context, skuID string) error {
	authoritative, err := s.adapters.Adapter(sync.PlatformSupplyHub)
	if err != nil {
		return err
	}
	follower, err := s.adapters.Adapter(sync.PlatformPosify)
	if err != nil {
		return err
	}

	levelsA, err := s.fetchLevels(ctx, authoritative, "")
	if err != nil {
		return err
	}

	for _, a := range levelsA {
		if a.SKU != skuID {
			continue
		}
		adjustments := []sync.InventoryAdjustment{{SKU: a.SKU, Quantity: a.Quantity}}
		if err := s.pushAdjustments(ctx, follower, adjustments); err != nil {
			return err
		}
		s.touchMappings(ctx, adjustments)
		s.logger.Info("SKU reconciled",
			zap.String("sku", a.SKU),
			zap.Int64("quantity", a.Quantity))
		return nil
	}

	s.logger.Warn("SKU not found on authoritative platform, ignoring",
		zap.String("sku", skuID))
	return nil
}

func (s *InventoryService) fetchLevels(ctx context.Context, adapter sync.PlatformAdapter, locationID string) ([]sync.InventoryLevel, error) {
	var levels []sync.InventoryLevel
	err := s.retrier.Do(ctx, adapter.PlatformCode(), "fetch_inventory", func(ctx context.Context) error {
		var err error
		levels, err = adapter.FetchInventory(ctx, locationID)
		return err
	})
	return levels, err
}

// pushAdjustments submits the correction batch under a fresh idempotency
// key so a retried submission cannot double-apply on the platform side.
func (s *InventoryService) pushAdjustments(ctx context.Context, follower sync.PlatformAdapter, adjustments []sync.InventoryAdjustment) error {
	key := uuid.New().String()
	return s.retrier.Do(ctx, follower.PlatformCode(), "adjust_inventory", func(ctx context.Context) error {
		return follower.AdjustInventory(ctx, adjustments, key)
	})
}

// touchMappings refreshes the inventory mappings of corrected SKUs. The
// SKU is its own ID on both platforms, so the mapping mainly carries the
// last-synced timestamp.
func (s *InventoryService) touchMappings(ctx context.Context, adjustments []sync.InventoryAdjustment) {
	for _, adj := range adjustments {
		mapping, err := s.mappingRepo.Find(ctx, sync.EntityTypeInventory, sync.PlatformSupplyHub, adj.SKU)
		if err == nil {
			mapping.Touch()
		} else {
			mapping, err = sync.NewEntityMapping(sync.EntityTypeInventory, sync.PlatformSupplyHub, adj.SKU, sync.PlatformPosify, adj.SKU)
			if err != nil {
				continue
			}
		}
		if err := s.mappingRepo.Upsert(ctx, mapping); err != nil {
			s.logger.Warn("Failed to record inventory mapping",
				zap.String("sku", adj.SKU),
				zap.Error(err))
		}
	}
}
