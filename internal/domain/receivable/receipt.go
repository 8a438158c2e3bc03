package receivable

import (
	"strings"
	"time"

	"github.com/erp/ledger/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// ReceiptStatus is the lifecycle state of an AR receipt. Transitions are one-way:
// draft → posted → voided.
type ReceiptStatus string

const (
	ReceiptStatusDraft  ReceiptStatus = "draft"
	ReceiptStatusPosted ReceiptStatus = "posted"
	ReceiptStatusVoided ReceiptStatus = "voided"
)

// IsValid checks if the status is known
func (s ReceiptStatus) IsValid() bool {
	switch s {
	case ReceiptStatusDraft, ReceiptStatusPosted, ReceiptStatusVoided:
		return true
	}
	return false
}

// CanPost returns true if the receipt can be posted in this status
func (s ReceiptStatus) CanPost() bool {
	return s == ReceiptStatusDraft
}

// CanVoid returns true if the receipt can be voided in this status
func (s ReceiptStatus) CanVoid() bool {
	return s == ReceiptStatusPosted
}

// Allocation applies part of a receipt to an invoice
type Allocation struct {
	ID            uuid.UUID
	ReceiptID     uuid.UUID
	InvoiceID     uuid.UUID
	AmountApplied decimal.Decimal
}

// Receipt is a customer payment applied to open invoices
type Receipt struct {
	shared.TenantAggregateRoot
	CustomerID       uuid.UUID
	Amount           decimal.Decimal
	Status           ReceiptStatus
	BankAccountID    uuid.UUID
	ReceiptDate      time.Time
	Reference        string
	Memo             string
	GLJournalEntryID *uuid.UUID
	Allocations      []Allocation
	CreatedBy        uuid.UUID
	PostedAt         *time.Time
	PostedBy         *uuid.UUID
	VoidedAt         *time.Time
	VoidedBy         *uuid.UUID
	VoidReason       string
}

// NewReceipt creates a draft receipt without allocations
func NewReceipt(tenantID, customerID, bankAccountID uuid.UUID, amount decimal.Decimal, receiptDate time.Time, reference, memo string, createdBy uuid.UUID) (*Receipt, error) {
	if customerID == uuid.Nil {
		return nil, shared.NewValidationError("INVALID_CUSTOMER", "Customer is required")
	}
	if bankAccountID == uuid.Nil {
		return nil, shared.NewValidationError("INVALID_BANK_ACCOUNT", "Bank account is required")
	}
	if !amount.IsPositive() {
		return nil, shared.NewValidationError("INVALID_AMOUNT", "Receipt amount must be positive")
	}
	if receiptDate.IsZero() {
		receiptDate = time.Now()
	}
	r := &Receipt{
		TenantAggregateRoot: shared.NewTenantAggregateRoot(tenantID),
		CustomerID:          customerID,
		Amount:              amount.Round(2),
		Status:              ReceiptStatusDraft,
		BankAccountID:       bankAccountID,
		ReceiptDate:         receiptDate,
		Reference:           strings.TrimSpace(reference),
		Memo:                strings.TrimSpace(memo),
		CreatedBy:           createdBy,
	}
	r.AddDomainEvent(NewReceiptCreatedEvent(r))
	return r, nil
}

// AllocatedTotal returns the sum of all allocations
func (r *Receipt) AllocatedTotal() decimal.Decimal {
	total := decimal.Zero
	for _, a := range r.Allocations {
		total = total.Add(a.AmountApplied)
	}
	return total
}

// Unallocated returns the part of the receipt not applied to any invoice
func (r *Receipt) Unallocated() decimal.Decimal {
	return r.Amount.Sub(r.AllocatedTotal())
}

// ValidateAllocationTotal checks that amounts would not exceed the receipt amount
func (r *Receipt) ValidateAllocationTotal(amounts []decimal.Decimal) error {
	total := decimal.Zero
	for _, a := range amounts {
		if err := validateAllocationAmount(a); err != nil {
			return err
		}
		total = total.Add(a)
	}
	if total.GreaterThan(r.Amount) {
		return shared.NewValidationError("ALLOCATION_EXCEEDS_RECEIPT", "Allocation total exceeds receipt amount")
	}
	return nil
}

// validateAllocationAmount requires a positive amount in whole cents
func validateAllocationAmount(amount decimal.Decimal) error {
	if !amount.IsPositive() {
		return shared.NewValidationError("INVALID_ALLOCATION", "Allocation amount must be positive")
	}
	if !amount.Equal(amount.Round(2)) {
		return shared.NewValidationError("INVALID_ALLOCATION", "Allocation amount "+amount.String()+" has more than two decimal places")
	}
	return nil
}

// Allocate applies amount of this draft receipt to invoice. Earlier allocations of
// this receipt to the same invoice count against the invoice balance.
func (r *Receipt) Allocate(invoice *Invoice, amount decimal.Decimal) error {
	if r.Status != ReceiptStatusDraft {
		return shared.NewConflictError("RECEIPT_NOT_DRAFT", "Allocations can only change on draft receipts")
	}
	if invoice.TenantID != r.TenantID || invoice.CustomerID != r.CustomerID {
		return shared.NewValidationError("CUSTOMER_MISMATCH", "Invoice "+invoice.InvoiceNumber+" belongs to a different customer")
	}
	if !invoice.Status.CanReceivePayment() {
		return shared.NewConflictError("INVOICE_NOT_PAYABLE", "Invoice "+invoice.InvoiceNumber+" cannot receive payments in "+string(invoice.Status)+" status")
	}
	if err := validateAllocationAmount(amount); err != nil {
		return err
	}

	already := decimal.Zero
	for _, a := range r.Allocations {
		if a.InvoiceID == invoice.ID {
			already = already.Add(a.AmountApplied)
		}
	}
	if already.Add(amount).GreaterThan(invoice.BalanceDue) {
		return shared.NewValidationError("EXCEEDS_INVOICE_BALANCE", "Allocation of "+amount.StringFixed(2)+
			" exceeds invoice balance "+invoice.BalanceDue.StringFixed(2)+" for invoice "+invoice.InvoiceNumber)
	}
	if r.AllocatedTotal().Add(amount).GreaterThan(r.Amount) {
		return shared.NewValidationError("ALLOCATION_EXCEEDS_RECEIPT", "Allocation total exceeds receipt amount")
	}

	r.Allocations = append(r.Allocations, Allocation{
		ID:            uuid.New(),
		ReceiptID:     r.ID,
		InvoiceID:     invoice.ID,
		AmountApplied: amount,
	})
	return nil
}

// MarkPosted records the GL entry produced for the receipt
func (r *Receipt) MarkPosted(journalEntryID, postedBy uuid.UUID) error {
	if !r.Status.CanPost() {
		return shared.NewConflictError("RECEIPT_NOT_DRAFT", "Cannot post receipt in "+string(r.Status)+" status")
	}
	now := time.Now()
	r.Status = ReceiptStatusPosted
	r.GLJournalEntryID = &journalEntryID
	r.PostedAt = &now
	r.PostedBy = &postedBy
	r.IncrementVersion()
	r.AddDomainEvent(NewReceiptPostedEvent(r))
	return nil
}

// MarkVoided records that the receipt's GL entry was reversed
func (r *Receipt) MarkVoided(voidedBy uuid.UUID, reason string) error {
	if !r.Status.CanVoid() {
		return shared.NewConflictError("RECEIPT_NOT_POSTED", "Cannot void receipt in "+string(r.Status)+" status")
	}
	now := time.Now()
	r.Status = ReceiptStatusVoided
	r.VoidedAt = &now
	r.VoidedBy = &voidedBy
	r.VoidReason = strings.TrimSpace(reason)
	r.IncrementVersion()
	r.AddDomainEvent(NewReceiptVoidedEvent(r))
	return nil
}

// InvoiceIDs returns the distinct invoices the receipt is allocated to
func (r *Receipt) InvoiceIDs() []uuid.UUID {
	seen := make(map[uuid.UUID]struct{})
	ids := make([]uuid.UUID, 0, len(r.Allocations))
	for _, a := range r.Allocations {
		if _, ok := seen[a.InvoiceID]; !ok {
			seen[a.InvoiceID] = struct{}{}
			ids = append(ids, a.InvoiceID)
		}
	}
	return ids
}
