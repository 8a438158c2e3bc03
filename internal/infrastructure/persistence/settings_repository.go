package persistence

import (
	"context"
	"errors"
	"fmt"

	"github.com/erp/ledger/internal/domain/ledger"
	"github.com/erp/ledger/internal/infrastructure/persistence/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// GormSettingsRepository implements ledger.SettingsRepository using GORM
type GormSettingsRepository struct {
	db *gorm.DB
}

// NewGormSettingsRepository creates a new GormSettingsRepository
func NewGormSettingsRepository(db *gorm.DB) *GormSettingsRepository {
	return &GormSettingsRepository{db: db}
}

// FindByTenant returns the tenant's settings, or nil when the tenant is not bootstrapped
func (r *GormSettingsRepository) FindByTenant(ctx context.Context, tenantID uuid.UUID) (*ledger.AccountingSettings, error) {
	var model models.AccountingSettingsModel
	if err := r.db.WithContext(ctx).First(&model, "tenant_id = ?", tenantID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// Create inserts the settings row. A second row for the same tenant fails with
// shared.ErrUniqueViolation.
func (r *GormSettingsRepository) Create(ctx context.Context, s *ledger.AccountingSettings) error {
	model := models.AccountingSettingsModelFromDomain(s)
	return wrapWriteError(r.db.WithContext(ctx).Create(model).Error, "create accounting settings")
}

// Update rewrites the settings row
func (r *GormSettingsRepository) Update(ctx context.Context, s *ledger.AccountingSettings) error {
	model := models.AccountingSettingsModelFromDomain(s)
	result := r.db.WithContext(ctx).
		Model(&models.AccountingSettingsModel{}).
		Where("id = ? AND tenant_id = ?", s.ID, s.TenantID).
		Select("*").
		Omit("id", "created_at").
		Updates(model)
	if result.Error != nil {
		return fmt.Errorf("failed to update accounting settings: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return fmt.Errorf("accounting settings %s not found", s.ID)
	}
	return nil
}

// Ensure GormSettingsRepository implements SettingsRepository
var _ ledger.SettingsRepository = (*GormSettingsRepository)(nil)
