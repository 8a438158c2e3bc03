package persistence

import (
	"context"

	"github.com/erp/ledger/internal/domain/ledger"
	"github.com/erp/ledger/internal/infrastructure/persistence/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// GormAuditRepository implements ledger.AuditRepository using GORM
type GormAuditRepository struct {
	db *gorm.DB
}

// NewGormAuditRepository creates a new GormAuditRepository
func NewGormAuditRepository(db *gorm.DB) *GormAuditRepository {
	return &GormAuditRepository{db: db}
}

// Create appends an audit entry
func (r *GormAuditRepository) Create(ctx context.Context, entry *ledger.AuditEntry) error {
	model := models.AuditEntryModelFromDomain(entry)
	return wrapWriteError(r.db.WithContext(ctx).Create(model).Error, "create audit entry")
}

// List returns the audit trail of an entity, oldest first
func (r *GormAuditRepository) List(ctx context.Context, tenantID uuid.UUID, entityType, entityID string) ([]*ledger.AuditEntry, error) {
	var entryModels []models.AuditEntryModel
	if err := r.db.WithContext(ctx).
		Where("tenant_id = ? AND entity_type = ? AND entity_id = ?", tenantID, entityType, entityID).
		Order("created_at ASC").
		Find(&entryModels).Error; err != nil {
		return nil, err
	}
	result := make([]*ledger.AuditEntry, len(entryModels))
	for i := range entryModels {
		result[i] = entryModels[i].ToDomain()
	}
	return result, nil
}

// Ensure GormAuditRepository implements AuditRepository
var _ ledger.AuditRepository = (*GormAuditRepository)(nil)
