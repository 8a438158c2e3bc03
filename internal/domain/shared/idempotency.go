package shared

import (
	"context"
	"time"
)

// IdempotencyStore remembers delivered event IDs so at-least-once delivery
// does not run a handler twice within the TTL
type IdempotencyStore interface {
	// MarkProcessed returns true if the ID was newly marked, false if it was already present
	MarkProcessed(ctx context.Context, eventID string, ttl time.Duration) (bool, error)
	IsProcessed(ctx context.Context, eventID string) (bool, error)
	// Forget removes a mark so a failed delivery can be retried
	Forget(ctx context.Context, eventID string) error
	Close() error
}

// IdempotencyConfig holds configuration for event-level idempotency
type IdempotencyConfig struct {
	TTL     time.Duration
	Enabled bool
}

// DefaultIdempotencyConfig returns a 24h TTL, enabled
func DefaultIdempotencyConfig() IdempotencyConfig {
	return IdempotencyConfig{
		TTL:     24 * time.Hour,
		Enabled: true,
	}
}
