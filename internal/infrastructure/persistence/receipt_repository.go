package persistence

import (
	"context"
	"errors"
	"fmt"

	"github.com/erp/ledger/internal/domain/receivable"
	"github.com/erp/ledger/internal/infrastructure/persistence/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GormReceiptRepository implements receivable.ReceiptRepository using GORM
type GormReceiptRepository struct {
	db *gorm.DB
}

// NewGormReceiptRepository creates a new GormReceiptRepository
func NewGormReceiptRepository(db *gorm.DB) *GormReceiptRepository {
	return &GormReceiptRepository{db: db}
}

// FindByID finds a receipt with its allocations
func (r *GormReceiptRepository) FindByID(ctx context.Context, tenantID, id uuid.UUID) (*receivable.Receipt, error) {
	var model models.ReceiptModel
	if err := r.db.WithContext(ctx).
		Preload("Allocations").
		First(&model, "id = ? AND tenant_id = ?", id, tenantID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// FindByIDForUpdate locks the receipt row, then loads its allocations
func (r *GormReceiptRepository) FindByIDForUpdate(ctx context.Context, tenantID, id uuid.UUID) (*receivable.Receipt, error) {
	var model models.ReceiptModel
	if err := r.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		First(&model, "id = ? AND tenant_id = ?", id, tenantID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	if err := r.db.WithContext(ctx).
		Where("receipt_id = ?", model.ID).
		Find(&model.Allocations).Error; err != nil {
		return nil, err
	}
	return model.ToDomain(), nil
}

func (r *GormReceiptRepository) filtered(ctx context.Context, tenantID uuid.UUID, filter receivable.ReceiptFilter) *gorm.DB {
	query := r.db.WithContext(ctx).Model(&models.ReceiptModel{}).Where("tenant_id = ?", tenantID)
	if filter.CustomerID != nil {
		query = query.Where("customer_id = ?", *filter.CustomerID)
	}
	if filter.Status != nil {
		query = query.Where("status = ?", *filter.Status)
	}
	return query
}

// List returns a page of receipts, newest receipt date first
func (r *GormReceiptRepository) List(ctx context.Context, tenantID uuid.UUID, filter receivable.ReceiptFilter) ([]*receivable.Receipt, int64, error) {
	var total int64
	if err := r.filtered(ctx, tenantID, filter).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	page := filter.Pagination.Normalize(100)
	var receiptModels []models.ReceiptModel
	if err := r.filtered(ctx, tenantID, filter).
		Preload("Allocations").
		Order("receipt_date DESC, created_at DESC").
		Limit(page.PageSize).
		Offset(page.Offset()).
		Find(&receiptModels).Error; err != nil {
		return nil, 0, err
	}
	result := make([]*receivable.Receipt, len(receiptModels))
	for i := range receiptModels {
		result[i] = receiptModels[i].ToDomain()
	}
	return result, total, nil
}

// Create inserts the receipt and its allocations
func (r *GormReceiptRepository) Create(ctx context.Context, receipt *receivable.Receipt) error {
	model := models.ReceiptModelFromDomain(receipt)
	return wrapWriteError(r.db.WithContext(ctx).Create(model).Error, "create receipt")
}

// UpdateStatus writes the lifecycle columns of the receipt header
func (r *GormReceiptRepository) UpdateStatus(ctx context.Context, receipt *receivable.Receipt) error {
	result := r.db.WithContext(ctx).
		Model(&models.ReceiptModel{}).
		Where("id = ? AND tenant_id = ?", receipt.ID, receipt.TenantID).
		Updates(map[string]any{
			"status":              receipt.Status,
			"gl_journal_entry_id": receipt.GLJournalEntryID,
			"posted_at":           receipt.PostedAt,
			"posted_by":           receipt.PostedBy,
			"voided_at":           receipt.VoidedAt,
			"voided_by":           receipt.VoidedBy,
			"void_reason":         receipt.VoidReason,
			"version":             receipt.Version,
			"updated_at":          receipt.UpdatedAt,
		})
	if result.Error != nil {
		return fmt.Errorf("failed to update receipt: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return fmt.Errorf("receipt %s not found", receipt.ID)
	}
	return nil
}

// Ensure GormReceiptRepository implements ReceiptRepository
var _ receivable.ReceiptRepository = (*GormReceiptRepository)(nil)
