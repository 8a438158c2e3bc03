package persistence

import (
	"context"
	"errors"
	"fmt"

	"github.com/erp/ledger/internal/domain/ledger"
	"github.com/erp/ledger/internal/domain/shared"
	"github.com/erp/ledger/internal/infrastructure/persistence/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// GormUnmappedEventRepository implements ledger.UnmappedEventRepository using GORM
type GormUnmappedEventRepository struct {
	db *gorm.DB
}

// NewGormUnmappedEventRepository creates a new GormUnmappedEventRepository
func NewGormUnmappedEventRepository(db *gorm.DB) *GormUnmappedEventRepository {
	return &GormUnmappedEventRepository{db: db}
}

// Create inserts an unmapped event
func (r *GormUnmappedEventRepository) Create(ctx context.Context, e *ledger.UnmappedEvent) error {
	model := models.UnmappedEventModelFromDomain(e)
	return wrapWriteError(r.db.WithContext(ctx).Create(model).Error, "create unmapped event")
}

// FindByID finds an unmapped event for a tenant
func (r *GormUnmappedEventRepository) FindByID(ctx context.Context, tenantID, id uuid.UUID) (*ledger.UnmappedEvent, error) {
	var model models.UnmappedEventModel
	if err := r.db.WithContext(ctx).First(&model, "id = ? AND tenant_id = ?", id, tenantID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// FindOpen finds an unresolved event recorded for the same source line
func (r *GormUnmappedEventRepository) FindOpen(ctx context.Context, e *ledger.UnmappedEvent) (*ledger.UnmappedEvent, error) {
	var model models.UnmappedEventModel
	err := r.db.WithContext(ctx).
		Where("tenant_id = ? AND source_module = ? AND source_reference_id = ?", e.TenantID, e.SourceModule, e.SourceReferenceID).
		Where("category = ? AND entity_type = ? AND entity_id = ?", e.Category, e.EntityType, e.EntityID).
		Where("resolved_at IS NULL").
		Order("created_at").
		First(&model).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// List returns a page of unmapped events, newest first
func (r *GormUnmappedEventRepository) List(ctx context.Context, tenantID uuid.UUID, openOnly bool, page shared.Pagination) ([]*ledger.UnmappedEvent, int64, error) {
	scope := func() *gorm.DB {
		q := r.db.WithContext(ctx).Model(&models.UnmappedEventModel{}).Where("tenant_id = ?", tenantID)
		if openOnly {
			q = q.Where("resolved_at IS NULL")
		}
		return q
	}

	var total int64
	if err := scope().Count(&total).Error; err != nil {
		return nil, 0, err
	}

	page = page.Normalize(100)
	var eventModels []models.UnmappedEventModel
	if err := scope().
		Order("created_at DESC").
		Limit(page.PageSize).
		Offset(page.Offset()).
		Find(&eventModels).Error; err != nil {
		return nil, 0, err
	}
	result := make([]*ledger.UnmappedEvent, len(eventModels))
	for i := range eventModels {
		result[i] = eventModels[i].ToDomain()
	}
	return result, total, nil
}

// Update writes the resolution state of an unmapped event
func (r *GormUnmappedEventRepository) Update(ctx context.Context, e *ledger.UnmappedEvent) error {
	result := r.db.WithContext(ctx).
		Model(&models.UnmappedEventModel{}).
		Where("id = ? AND tenant_id = ?", e.ID, e.TenantID).
		Update("resolved_at", e.ResolvedAt)
	if result.Error != nil {
		return fmt.Errorf("failed to update unmapped event: %w", result.Error)
	}
	return nil
}

// Ensure GormUnmappedEventRepository implements UnmappedEventRepository
var _ ledger.UnmappedEventRepository = (*GormUnmappedEventRepository)(nil)
