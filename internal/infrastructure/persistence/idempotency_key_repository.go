package persistence

import (
	"context"
	"errors"
	"time"

	"github.com/erp/ledger/internal/domain/ledger"
	"github.com/erp/ledger/internal/infrastructure/persistence/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// GormIdempotencyKeyRepository implements ledger.IdempotencyKeyRepository using GORM
type GormIdempotencyKeyRepository struct {
	db *gorm.DB
}

// NewGormIdempotencyKeyRepository creates a new GormIdempotencyKeyRepository
func NewGormIdempotencyKeyRepository(db *gorm.DB) *GormIdempotencyKeyRepository {
	return &GormIdempotencyKeyRepository{db: db}
}

// Find returns the stored key for (tenant, client request id, operation)
func (r *GormIdempotencyKeyRepository) Find(ctx context.Context, tenantID uuid.UUID, clientRequestID, operation string) (*ledger.IdempotencyKey, error) {
	var model models.IdempotencyKeyModel
	if err := r.db.WithContext(ctx).
		First(&model, "tenant_id = ? AND client_request_id = ? AND operation_name = ?", tenantID, clientRequestID, operation).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// Create inserts a key. A concurrent insert of the same key fails with shared.ErrUniqueViolation.
func (r *GormIdempotencyKeyRepository) Create(ctx context.Context, key *ledger.IdempotencyKey) error {
	model := models.IdempotencyKeyModelFromDomain(key)
	return wrapWriteError(r.db.WithContext(ctx).Create(model).Error, "create idempotency key")
}

// DeleteOlderThan purges keys created before cutoff and returns how many were removed
func (r *GormIdempotencyKeyRepository) DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error) {
	result := r.db.WithContext(ctx).Where("created_at < ?", cutoff).Delete(&models.IdempotencyKeyModel{})
	return result.RowsAffected, result.Error
}

// Ensure GormIdempotencyKeyRepository implements IdempotencyKeyRepository
var _ ledger.IdempotencyKeyRepository = (*GormIdempotencyKeyRepository)(nil)
