package receivable

import (
	"strings"

	"github.com/erp/ledger/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// InvoiceStatus is the payment state of an AR invoice.
// open means no payment is applied; paid means nothing is outstanding.
type InvoiceStatus string

const (
	InvoiceStatusOpen    InvoiceStatus = "open"
	InvoiceStatusPartial InvoiceStatus = "partial"
	InvoiceStatusPaid    InvoiceStatus = "paid"
)

// IsValid checks if the status is known
func (s InvoiceStatus) IsValid() bool {
	switch s {
	case InvoiceStatusOpen, InvoiceStatusPartial, InvoiceStatusPaid:
		return true
	}
	return false
}

// CanReceivePayment returns true if receipts may be applied in this status
func (s InvoiceStatus) CanReceivePayment() bool {
	return s == InvoiceStatusOpen || s == InvoiceStatusPartial
}

// Invoice is a customer invoice tracked for receipts
type Invoice struct {
	shared.BaseEntity
	TenantID      uuid.UUID
	CustomerID    uuid.UUID
	InvoiceNumber string
	TotalAmount   decimal.Decimal
	AmountPaid    decimal.Decimal
	BalanceDue    decimal.Decimal
	Status        InvoiceStatus
}

// NewInvoice creates an open invoice with nothing paid
func NewInvoice(tenantID, customerID uuid.UUID, number string, total decimal.Decimal) (*Invoice, error) {
	if customerID == uuid.Nil {
		return nil, shared.NewValidationError("INVALID_CUSTOMER", "Customer is required")
	}
	if !total.IsPositive() {
		return nil, shared.NewValidationError("INVALID_AMOUNT", "Invoice total must be positive")
	}
	return &Invoice{
		BaseEntity:    shared.NewBaseEntity(),
		TenantID:      tenantID,
		CustomerID:    customerID,
		InvoiceNumber: strings.TrimSpace(number),
		TotalAmount:   total,
		AmountPaid:    decimal.Zero,
		BalanceDue:    total,
		Status:        InvoiceStatusOpen,
	}, nil
}

// ApplyPayment adds a posted receipt allocation to the invoice
func (i *Invoice) ApplyPayment(amount decimal.Decimal) error {
	if !amount.IsPositive() {
		return shared.NewValidationError("INVALID_AMOUNT", "Applied amount must be positive")
	}
	if !i.Status.CanReceivePayment() {
		return shared.NewConflictError("INVOICE_NOT_PAYABLE", "Cannot apply payment to invoice in "+string(i.Status)+" status")
	}
	if amount.GreaterThan(i.BalanceDue) {
		return shared.NewValidationError("EXCEEDS_INVOICE_BALANCE", "Applied amount "+amount.StringFixed(2)+
			" exceeds invoice balance "+i.BalanceDue.StringFixed(2))
	}
	i.AmountPaid = i.AmountPaid.Add(amount)
	i.BalanceDue = i.TotalAmount.Sub(i.AmountPaid)
	if i.BalanceDue.IsPositive() {
		i.Status = InvoiceStatusPartial
	} else {
		i.Status = InvoiceStatusPaid
	}
	i.Touch()
	return nil
}

// ReversePayment backs a voided receipt allocation out of the invoice. The paid
// amount never drops below zero and the balance is recomputed from the total.
func (i *Invoice) ReversePayment(amount decimal.Decimal) {
	restoredPaid := decimal.Max(decimal.Zero, i.AmountPaid.Sub(amount))
	i.AmountPaid = restoredPaid
	i.BalanceDue = i.TotalAmount.Sub(restoredPaid)
	if restoredPaid.IsZero() {
		i.Status = InvoiceStatusOpen
	} else {
		i.Status = InvoiceStatusPartial
	}
	i.Touch()
}
