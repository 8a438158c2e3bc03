package cache

import (
	"fmt"

	"github.com/erp/ledger/internal/domain/shared"
	"github.com/erp/ledger/internal/infrastructure/config"
	"go.uber.org/zap"
)

// OpenIdempotencyStore returns the delivery-mark store for the adapter
// dedupe wrapper. Redis is preferred; when it cannot be reached and
// requireRedis is false the process falls back to an in-memory store,
// which only deduplicates within this instance.
func OpenIdempotencyStore(cfg config.RedisConfig, requireRedis bool, logger *zap.Logger) (shared.IdempotencyStore, error) {
	store, err := NewRedisIdempotencyStore(RedisConfig{
		Host:     cfg.Host,
		Port:     cfg.Port,
		Password: cfg.Password,
		DB:       cfg.DB,
	})
	if err == nil {
		logger.Info("Using Redis idempotency store",
			zap.String("addr", fmt.Sprintf("%s:%d", cfg.Host, cfg.Port)),
		)
		return store, nil
	}

	if requireRedis {
		return nil, fmt.Errorf("redis required for adapter dedupe: %w", err)
	}

	logger.Warn("Redis unavailable, falling back to in-memory idempotency store", zap.Error(err))
	return NewInMemoryIdempotencyStore(), nil
}
