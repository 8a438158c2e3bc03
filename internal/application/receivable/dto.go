package receivable

import (
	"time"

	"github.com/erp/ledger/internal/domain/receivable"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// AllocationRequest applies part of a receipt to one invoice
type AllocationRequest struct {
	InvoiceID uuid.UUID       `json:"invoice_id" binding:"required"`
	Amount    decimal.Decimal `json:"amount"`
}

// CreateReceiptRequest represents a request to record a customer receipt as a draft
type CreateReceiptRequest struct {
	CustomerID    uuid.UUID           `json:"customer_id" binding:"required"`
	BankAccountID uuid.UUID           `json:"bank_account_id" binding:"required"`
	Amount        decimal.Decimal     `json:"amount"`
	ReceiptDate   time.Time           `json:"receipt_date"`
	Reference     string              `json:"reference" binding:"max=100"`
	Memo          string              `json:"memo" binding:"max=500"`
	Allocations   []AllocationRequest `json:"allocations" binding:"dive"`
}

// VoidReceiptRequest represents a request to void a posted receipt
type VoidReceiptRequest struct {
	Reason string `json:"reason" binding:"max=500"`
}

// AllocationResponse represents an allocation in API responses
type AllocationResponse struct {
	ID            uuid.UUID       `json:"id"`
	InvoiceID     uuid.UUID       `json:"invoice_id"`
	AmountApplied decimal.Decimal `json:"amount_applied"`
}

// ReceiptResponse represents a receipt in API responses
type ReceiptResponse struct {
	ID                uuid.UUID            `json:"id"`
	TenantID          uuid.UUID            `json:"tenant_id"`
	CustomerID        uuid.UUID            `json:"customer_id"`
	Amount            decimal.Decimal      `json:"amount"`
	UnallocatedAmount decimal.Decimal      `json:"unallocated_amount"`
	Status            string               `json:"status"`
	BankAccountID     uuid.UUID            `json:"bank_account_id"`
	ReceiptDate       time.Time            `json:"receipt_date"`
	Reference         string               `json:"reference,omitempty"`
	Memo              string               `json:"memo,omitempty"`
	GLJournalEntryID  *uuid.UUID           `json:"gl_journal_entry_id,omitempty"`
	Allocations       []AllocationResponse `json:"allocations"`
	CreatedBy         uuid.UUID            `json:"created_by"`
	PostedAt          *time.Time           `json:"posted_at,omitempty"`
	VoidedAt          *time.Time           `json:"voided_at,omitempty"`
	VoidedBy          *uuid.UUID           `json:"voided_by,omitempty"`
	VoidReason        string               `json:"void_reason,omitempty"`
	CreatedAt         time.Time            `json:"created_at"`
	UpdatedAt         time.Time            `json:"updated_at"`
	Version           int                  `json:"version"`
}

func toReceiptResponse(r *receivable.Receipt) *ReceiptResponse {
	resp := &ReceiptResponse{
		ID:                r.ID,
		TenantID:          r.TenantID,
		CustomerID:        r.CustomerID,
		Amount:            r.Amount,
		UnallocatedAmount: r.Unallocated(),
		Status:            string(r.Status),
		BankAccountID:     r.BankAccountID,
		ReceiptDate:       r.ReceiptDate,
		Reference:         r.Reference,
		Memo:              r.Memo,
		GLJournalEntryID:  r.GLJournalEntryID,
		Allocations:       make([]AllocationResponse, len(r.Allocations)),
		CreatedBy:         r.CreatedBy,
		PostedAt:          r.PostedAt,
		VoidedAt:          r.VoidedAt,
		VoidedBy:          r.VoidedBy,
		VoidReason:        r.VoidReason,
		CreatedAt:         r.CreatedAt,
		UpdatedAt:         r.UpdatedAt,
		Version:           r.Version,
	}
	for i, a := range r.Allocations {
		resp.Allocations[i] = AllocationResponse{ID: a.ID, InvoiceID: a.InvoiceID, AmountApplied: a.AmountApplied}
	}
	return resp
}

// ReceiptListFilter defines filtering options for receipt list queries
type ReceiptListFilter struct {
	CustomerID *uuid.UUID `form:"customer_id"`
	Status     string     `form:"status"`
	Page       int        `form:"page"`
	PageSize   int        `form:"page_size"`
}

// CreateInvoiceRequest represents a request to register an AR invoice
type CreateInvoiceRequest struct {
	CustomerID    uuid.UUID       `json:"customer_id" binding:"required"`
	InvoiceNumber string          `json:"invoice_number" binding:"required,max=50"`
	TotalAmount   decimal.Decimal `json:"total_amount"`
}

// InvoiceResponse represents an invoice in API responses
type InvoiceResponse struct {
	ID            uuid.UUID       `json:"id"`
	CustomerID    uuid.UUID       `json:"customer_id"`
	InvoiceNumber string          `json:"invoice_number"`
	TotalAmount   decimal.Decimal `json:"total_amount"`
	AmountPaid    decimal.Decimal `json:"amount_paid"`
	BalanceDue    decimal.Decimal `json:"balance_due"`
	Status        string          `json:"status"`
	CreatedAt     time.Time       `json:"created_at"`
	UpdatedAt     time.Time       `json:"updated_at"`
}

func toInvoiceResponse(i *receivable.Invoice) *InvoiceResponse {
	return &InvoiceResponse{
		ID:            i.ID,
		CustomerID:    i.CustomerID,
		InvoiceNumber: i.InvoiceNumber,
		TotalAmount:   i.TotalAmount,
		AmountPaid:    i.AmountPaid,
		BalanceDue:    i.BalanceDue,
		Status:        string(i.Status),
		CreatedAt:     i.CreatedAt,
		UpdatedAt:     i.UpdatedAt,
	}
}
