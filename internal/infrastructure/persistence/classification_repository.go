package persistence

import (
	"context"
	"errors"

	"github.com/erp/ledger/internal/domain/ledger"
	"github.com/erp/ledger/internal/infrastructure/persistence/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// GormClassificationRepository implements ledger.ClassificationRepository using GORM
type GormClassificationRepository struct {
	db *gorm.DB
}

// NewGormClassificationRepository creates a new GormClassificationRepository
func NewGormClassificationRepository(db *gorm.DB) *GormClassificationRepository {
	return &GormClassificationRepository{db: db}
}

// FindByID finds a classification by ID for a tenant
func (r *GormClassificationRepository) FindByID(ctx context.Context, tenantID, id uuid.UUID) (*ledger.Classification, error) {
	return r.findOne(ctx, "id = ? AND tenant_id = ?", id, tenantID)
}

// FindByNormalizedName finds a classification by its case-folded name
func (r *GormClassificationRepository) FindByNormalizedName(ctx context.Context, tenantID uuid.UUID, normalized string) (*ledger.Classification, error) {
	return r.findOne(ctx, "tenant_id = ? AND normalized_name = ?", tenantID, normalized)
}

func (r *GormClassificationRepository) findOne(ctx context.Context, query string, args ...any) (*ledger.Classification, error) {
	var model models.ClassificationModel
	if err := r.db.WithContext(ctx).Where(query, args...).First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// List returns the tenant's classifications by sort order, then name
func (r *GormClassificationRepository) List(ctx context.Context, tenantID uuid.UUID) ([]*ledger.Classification, error) {
	var classificationModels []models.ClassificationModel
	if err := r.db.WithContext(ctx).
		Where("tenant_id = ?", tenantID).
		Order("sort_order ASC, name ASC").
		Find(&classificationModels).Error; err != nil {
		return nil, err
	}
	result := make([]*ledger.Classification, len(classificationModels))
	for i := range classificationModels {
		result[i] = classificationModels[i].ToDomain()
	}
	return result, nil
}

// Save creates or updates a classification
func (r *GormClassificationRepository) Save(ctx context.Context, c *ledger.Classification) error {
	model := models.ClassificationModelFromDomain(c)
	return wrapWriteError(r.db.WithContext(ctx).Save(model).Error, "save classification "+c.Name)
}

// Count counts the tenant's classifications
func (r *GormClassificationRepository) Count(ctx context.Context, tenantID uuid.UUID) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.ClassificationModel{}).Where("tenant_id = ?", tenantID).Count(&count).Error
	return count, err
}

// Ensure GormClassificationRepository implements ClassificationRepository
var _ ledger.ClassificationRepository = (*GormClassificationRepository)(nil)
