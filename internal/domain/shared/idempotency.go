package shared

import (
	"context"
	"time"
)

// IdempotencyStore remembers webhook delivery IDs that have already
// been handled so a redelivered notification is acknowledged without
// being applied twice.
type IdempotencyStore interface {
	// MarkProcessed records the delivery ID with the given TTL. It
	// returns true when the ID was not seen before, false when the
	// delivery is a duplicate.
	MarkProcessed(ctx context.Context, eventID string, ttl time.Duration) (bool, error)

	// IsProcessed reports whether the delivery ID was already recorded.
	IsProcessed(ctx context.Context, eventID string) (bool, error)

	// Forget drops the delivery ID so a later redelivery is treated as
	// fresh. Used when handling failed after the ID was recorded.
	Forget(ctx context.Context, eventID string) error

	// Close releases the store's resources.
	Close() error
}

// IdempotencyConfig controls webhook deduplication.
type IdempotencyConfig struct {
	// TTL bounds how long a delivery ID is remembered. Platforms stop
	// redelivering well before a day, so the default is 24 hours.
	TTL time.Duration

	// Enabled turns deduplication off entirely when false.
	Enabled bool
}

// DefaultIdempotencyConfig returns the settings used when the
// application does not override them.
func DefaultIdempotencyConfig() IdempotencyConfig {
	return IdempotencyConfig{
		TTL:     24 * time.Hour,
		Enabled: true,
	}
}
