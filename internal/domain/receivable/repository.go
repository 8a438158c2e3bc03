package receivable

import (
	"context"

	"github.com/erp/ledger/internal/domain/shared"
	"github.com/google/uuid"
)

// InvoiceRepository persists AR invoices. Find methods return (nil, nil) when absent.
type InvoiceRepository interface {
	FindByID(ctx context.Context, tenantID, id uuid.UUID) (*Invoice, error)
	// FindByIDsForUpdate loads and row-locks the invoices until the transaction ends
	FindByIDsForUpdate(ctx context.Context, tenantID uuid.UUID, ids []uuid.UUID) (map[uuid.UUID]*Invoice, error)
	ListOpenByCustomer(ctx context.Context, tenantID, customerID uuid.UUID) ([]*Invoice, error)
	Save(ctx context.Context, invoice *Invoice) error
}

// ReceiptFilter narrows receipt listings
type ReceiptFilter struct {
	CustomerID *uuid.UUID
	Status     *ReceiptStatus
	shared.Pagination
}

// ReceiptRepository persists receipts with their allocations
type ReceiptRepository interface {
	FindByID(ctx context.Context, tenantID, id uuid.UUID) (*Receipt, error)
	FindByIDForUpdate(ctx context.Context, tenantID, id uuid.UUID) (*Receipt, error)
	List(ctx context.Context, tenantID uuid.UUID, filter ReceiptFilter) ([]*Receipt, int64, error)
	Create(ctx context.Context, receipt *Receipt) error
	// UpdateStatus persists header state changes; allocations are fixed after creation
	UpdateStatus(ctx context.Context, receipt *Receipt) error
}
