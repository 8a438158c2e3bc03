package receivable

import (
	"context"

	"github.com/erp/ledger/internal/application/uow"
	"github.com/erp/ledger/internal/domain/receivable"
	"github.com/google/uuid"
)

// InvoiceService registers AR invoices that receipts are applied to
type InvoiceService struct {
	exec *uow.Executor
}

// NewInvoiceService creates an InvoiceService
func NewInvoiceService(exec *uow.Executor) *InvoiceService {
	return &InvoiceService{exec: exec}
}

// CreateInvoice registers an open invoice
func (s *InvoiceService) CreateInvoice(ctx context.Context, cc uow.CommandContext, req CreateInvoiceRequest) (*InvoiceResponse, error) {
	return uow.Run(ctx, s.exec, cc, "create_invoice", func(ctx context.Context, repos uow.Repositories) (uow.Outcome[*InvoiceResponse], error) {
		inv, err := receivable.NewInvoice(cc.TenantID, req.CustomerID, req.InvoiceNumber, req.TotalAmount)
		if err != nil {
			return uow.Outcome[*InvoiceResponse]{}, err
		}
		if err := repos.Invoices().Save(ctx, inv); err != nil {
			return uow.Outcome[*InvoiceResponse]{}, err
		}
		return uow.Outcome[*InvoiceResponse]{
			Result: toInvoiceResponse(inv),
			Audit: &uow.AuditRecord{
				Action:     "invoice.create",
				EntityType: "ar_invoice",
				EntityID:   inv.ID.String(),
				Metadata:   map[string]string{"invoice_number": inv.InvoiceNumber, "total_amount": inv.TotalAmount.StringFixed(2)},
			},
		}, nil
	})
}

// GetInvoice returns one invoice
func (s *InvoiceService) GetInvoice(ctx context.Context, tenantID, id uuid.UUID) (*InvoiceResponse, error) {
	inv, err := s.exec.Scope().Repositories().Invoices().FindByID(ctx, tenantID, id)
	if err != nil {
		return nil, err
	}
	if inv == nil {
		return nil, invoiceNotFound(id)
	}
	return toInvoiceResponse(inv), nil
}

// ListOpenInvoices returns a customer's invoices that can still receive payments
func (s *InvoiceService) ListOpenInvoices(ctx context.Context, tenantID, customerID uuid.UUID) ([]InvoiceResponse, error) {
	items, err := s.exec.Scope().Repositories().Invoices().ListOpenByCustomer(ctx, tenantID, customerID)
	if err != nil {
		return nil, err
	}
	out := make([]InvoiceResponse, len(items))
	for i, inv := range items {
		out[i] = *toInvoiceResponse(inv)
	}
	return out, nil
}
