package persistence

import (
	"context"
	"errors"

	"github.com/erp/ledger/internal/domain/receivable"
	"github.com/erp/ledger/internal/infrastructure/persistence/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GormInvoiceRepository implements receivable.InvoiceRepository using GORM
type GormInvoiceRepository struct {
	db *gorm.DB
}

// NewGormInvoiceRepository creates a new GormInvoiceRepository
func NewGormInvoiceRepository(db *gorm.DB) *GormInvoiceRepository {
	return &GormInvoiceRepository{db: db}
}

// FindByID finds an invoice for a tenant
func (r *GormInvoiceRepository) FindByID(ctx context.Context, tenantID, id uuid.UUID) (*receivable.Invoice, error) {
	var model models.InvoiceModel
	if err := r.db.WithContext(ctx).First(&model, "id = ? AND tenant_id = ?", id, tenantID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// FindByIDsForUpdate locks the invoices in id order so concurrent receipts
// touching overlapping invoices cannot deadlock
func (r *GormInvoiceRepository) FindByIDsForUpdate(ctx context.Context, tenantID uuid.UUID, ids []uuid.UUID) (map[uuid.UUID]*receivable.Invoice, error) {
	result := make(map[uuid.UUID]*receivable.Invoice, len(ids))
	if len(ids) == 0 {
		return result, nil
	}
	var invoiceModels []models.InvoiceModel
	if err := r.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("tenant_id = ? AND id IN ?", tenantID, ids).
		Order("id ASC").
		Find(&invoiceModels).Error; err != nil {
		return nil, err
	}
	for i := range invoiceModels {
		inv := invoiceModels[i].ToDomain()
		result[inv.ID] = inv
	}
	return result, nil
}

// ListOpenByCustomer returns invoices of a customer that can still receive payments
func (r *GormInvoiceRepository) ListOpenByCustomer(ctx context.Context, tenantID, customerID uuid.UUID) ([]*receivable.Invoice, error) {
	var invoiceModels []models.InvoiceModel
	if err := r.db.WithContext(ctx).
		Where("tenant_id = ? AND customer_id = ?", tenantID, customerID).
		Where("status IN ?", []receivable.InvoiceStatus{receivable.InvoiceStatusOpen, receivable.InvoiceStatusPartial}).
		Order("created_at ASC").
		Find(&invoiceModels).Error; err != nil {
		return nil, err
	}
	result := make([]*receivable.Invoice, len(invoiceModels))
	for i := range invoiceModels {
		result[i] = invoiceModels[i].ToDomain()
	}
	return result, nil
}

// Save creates or updates an invoice
func (r *GormInvoiceRepository) Save(ctx context.Context, invoice *receivable.Invoice) error {
	model := models.InvoiceModelFromDomain(invoice)
	return wrapWriteError(r.db.WithContext(ctx).Save(model).Error, "save invoice")
}

// Ensure GormInvoiceRepository implements InvoiceRepository
var _ receivable.InvoiceRepository = (*GormInvoiceRepository)(nil)
