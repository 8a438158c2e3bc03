package receivable

import (
	"github.com/erp/ledger/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Event type names
const (
	EventTypeReceiptCreated = "ar.receipt.created"
	EventTypeReceiptPosted  = "ar.receipt.posted"
	EventTypeReceiptVoided  = "ar.receipt.voided"

	AggregateTypeReceipt = "ARReceipt"
)

// AllocationInfo is the allocation snapshot carried by receipt events
type AllocationInfo struct {
	InvoiceID     uuid.UUID       `json:"invoice_id"`
	AmountApplied decimal.Decimal `json:"amount_applied"`
}

func allocationInfos(r *Receipt) []AllocationInfo {
	infos := make([]AllocationInfo, len(r.Allocations))
	for i, a := range r.Allocations {
		infos[i] = AllocationInfo{InvoiceID: a.InvoiceID, AmountApplied: a.AmountApplied}
	}
	return infos
}

// ReceiptCreatedEvent is raised when a draft receipt is recorded
type ReceiptCreatedEvent struct {
	shared.BaseDomainEvent
	ReceiptID     uuid.UUID       `json:"receipt_id"`
	CustomerID    uuid.UUID       `json:"customer_id"`
	Amount        decimal.Decimal `json:"amount"`
	BankAccountID uuid.UUID       `json:"bank_account_id"`
}

// EventType returns the event type name
func (e *ReceiptCreatedEvent) EventType() string {
	return EventTypeReceiptCreated
}

// NewReceiptCreatedEvent creates a ReceiptCreatedEvent
func NewReceiptCreatedEvent(r *Receipt) *ReceiptCreatedEvent {
	ev := &ReceiptCreatedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeReceiptCreated, AggregateTypeReceipt, r.ID, r.TenantID),
		ReceiptID:       r.ID,
		CustomerID:      r.CustomerID,
		Amount:          r.Amount,
		BankAccountID:   r.BankAccountID,
	}
	ev.ActorID = r.CreatedBy
	return ev
}

// ReceiptPostedEvent is raised when the receipt's GL entry is posted
type ReceiptPostedEvent struct {
	shared.BaseDomainEvent
	ReceiptID        uuid.UUID        `json:"receipt_id"`
	CustomerID       uuid.UUID        `json:"customer_id"`
	Amount           decimal.Decimal  `json:"amount"`
	GLJournalEntryID uuid.UUID        `json:"gl_journal_entry_id"`
	Allocations      []AllocationInfo `json:"allocations"`
}

// EventType returns the event type name
func (e *ReceiptPostedEvent) EventType() string {
	return EventTypeReceiptPosted
}

// NewReceiptPostedEvent creates a ReceiptPostedEvent
func NewReceiptPostedEvent(r *Receipt) *ReceiptPostedEvent {
	ev := &ReceiptPostedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeReceiptPosted, AggregateTypeReceipt, r.ID, r.TenantID),
		ReceiptID:       r.ID,
		CustomerID:      r.CustomerID,
		Amount:          r.Amount,
		Allocations:     allocationInfos(r),
	}
	if r.GLJournalEntryID != nil {
		ev.GLJournalEntryID = *r.GLJournalEntryID
	}
	if r.PostedBy != nil {
		ev.ActorID = *r.PostedBy
	}
	return ev
}

// ReceiptVoidedEvent is raised when a posted receipt is voided
type ReceiptVoidedEvent struct {
	shared.BaseDomainEvent
	ReceiptID        uuid.UUID        `json:"receipt_id"`
	CustomerID       uuid.UUID        `json:"customer_id"`
	Amount           decimal.Decimal  `json:"amount"`
	GLJournalEntryID uuid.UUID        `json:"gl_journal_entry_id"`
	VoidReason       string           `json:"void_reason"`
	Allocations      []AllocationInfo `json:"allocations"`
}

// EventType returns the event type name
func (e *ReceiptVoidedEvent) EventType() string {
	return EventTypeReceiptVoided
}

// NewReceiptVoidedEvent creates a ReceiptVoidedEvent
func NewReceiptVoidedEvent(r *Receipt) *ReceiptVoidedEvent {
	ev := &ReceiptVoidedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeReceiptVoided, AggregateTypeReceipt, r.ID, r.TenantID),
		ReceiptID:       r.ID,
		CustomerID:      r.CustomerID,
		Amount:          r.Amount,
		VoidReason:      r.VoidReason,
		Allocations:     allocationInfos(r),
	}
	if r.GLJournalEntryID != nil {
		ev.GLJournalEntryID = *r.GLJournalEntryID
	}
	if r.VoidedBy != nil {
		ev.ActorID = *r.VoidedBy
	}
	return ev
}
