package persistence

import (
	"context"
	"errors"

	"github.com/erp/ledger/internal/domain/ledger"
	"github.com/erp/ledger/internal/infrastructure/persistence/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// GormMappingRepository implements ledger.MappingRepository using GORM
type GormMappingRepository struct {
	db *gorm.DB
}

// NewGormMappingRepository creates a new GormMappingRepository
func NewGormMappingRepository(db *gorm.DB) *GormMappingRepository {
	return &GormMappingRepository{db: db}
}

// Find returns the mapping row of an entity. Use ledger.DefaultEntityID for the
// entity type's fallback row.
func (r *GormMappingRepository) Find(ctx context.Context, tenantID uuid.UUID, entityType, entityID string) (*ledger.GLAccountMapping, error) {
	var model models.GLAccountMappingModel
	if err := r.db.WithContext(ctx).
		First(&model, "tenant_id = ? AND entity_type = ? AND entity_id = ?", tenantID, entityType, entityID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// List returns mappings, optionally restricted to one entity type
func (r *GormMappingRepository) List(ctx context.Context, tenantID uuid.UUID, entityType string) ([]*ledger.GLAccountMapping, error) {
	query := r.db.WithContext(ctx).Where("tenant_id = ?", tenantID)
	if entityType != "" {
		query = query.Where("entity_type = ?", entityType)
	}
	var mappingModels []models.GLAccountMappingModel
	if err := query.Order("entity_type ASC, entity_id ASC").Find(&mappingModels).Error; err != nil {
		return nil, err
	}
	result := make([]*ledger.GLAccountMapping, len(mappingModels))
	for i := range mappingModels {
		result[i] = mappingModels[i].ToDomain()
	}
	return result, nil
}

// Save creates or updates a mapping row
func (r *GormMappingRepository) Save(ctx context.Context, m *ledger.GLAccountMapping) error {
	model := models.GLAccountMappingModelFromDomain(m)
	return wrapWriteError(r.db.WithContext(ctx).Save(model).Error, "save account mapping")
}

// Ensure GormMappingRepository implements MappingRepository
var _ ledger.MappingRepository = (*GormMappingRepository)(nil)
