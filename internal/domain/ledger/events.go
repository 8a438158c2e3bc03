package ledger

import (
	"time"

	"github.com/erp/ledger/internal/domain/shared"
	"github.com/erp/ledger/internal/domain/shared/valueobject"
	"github.com/google/uuid"
)

// Event type names
const (
	EventTypeJournalPosted   = "journal.posted"
	EventTypeJournalVoided   = "journal.voided"
	EventTypeCOABootstrapped = "ledger.coa.bootstrapped"

	AggregateTypeJournalEntry = "JournalEntry"
	AggregateTypeSettings     = "AccountingSettings"
)

// JournalPostedEvent is raised when an entry reaches posted status
type JournalPostedEvent struct {
	shared.BaseDomainEvent
	JournalEntryID    uuid.UUID         `json:"journal_entry_id"`
	JournalNumber     int64             `json:"journal_number"`
	EntryDate         time.Time         `json:"entry_date"`
	SourceModule      string            `json:"source_module"`
	SourceReferenceID string            `json:"source_reference_id"`
	ReversalOfID      *uuid.UUID        `json:"reversal_of_id,omitempty"`
	TotalDebit        valueobject.Cents `json:"total_debit"`
	TotalCredit       valueobject.Cents `json:"total_credit"`
	LineCount         int               `json:"line_count"`
}

// EventType returns the event type name
func (e *JournalPostedEvent) EventType() string {
	return EventTypeJournalPosted
}

// NewJournalPostedEvent creates a JournalPostedEvent
func NewJournalPostedEvent(je *JournalEntry) *JournalPostedEvent {
	debit, credit := je.Totals()
	ev := &JournalPostedEvent{
		BaseDomainEvent:   shared.NewBaseDomainEvent(EventTypeJournalPosted, AggregateTypeJournalEntry, je.ID, je.TenantID),
		JournalEntryID:    je.ID,
		JournalNumber:     je.number(),
		EntryDate:         je.EntryDate,
		SourceModule:      je.SourceModule,
		SourceReferenceID: je.SourceReferenceID,
		ReversalOfID:      je.ReversalOfID,
		TotalDebit:        debit,
		TotalCredit:       credit,
		LineCount:         len(je.Lines),
	}
	if je.PostedBy != nil {
		ev.ActorID = *je.PostedBy
	}
	return ev
}

// JournalVoidedEvent is raised when a posted entry is voided
type JournalVoidedEvent struct {
	shared.BaseDomainEvent
	JournalEntryID    uuid.UUID `json:"journal_entry_id"`
	JournalNumber     int64     `json:"journal_number"`
	ReversalEntryID   uuid.UUID `json:"reversal_entry_id"`
	SourceModule      string    `json:"source_module"`
	SourceReferenceID string    `json:"source_reference_id"`
	VoidReason        string    `json:"void_reason"`
	VoidedAt          time.Time `json:"voided_at"`
}

// EventType returns the event type name
func (e *JournalVoidedEvent) EventType() string {
	return EventTypeJournalVoided
}

// NewJournalVoidedEvent creates a JournalVoidedEvent
func NewJournalVoidedEvent(je *JournalEntry) *JournalVoidedEvent {
	ev := &JournalVoidedEvent{
		BaseDomainEvent:   shared.NewBaseDomainEvent(EventTypeJournalVoided, AggregateTypeJournalEntry, je.ID, je.TenantID),
		JournalEntryID:    je.ID,
		JournalNumber:     je.number(),
		SourceModule:      je.SourceModule,
		SourceReferenceID: je.SourceReferenceID,
		VoidReason:        je.VoidReason,
	}
	if je.ReversedByID != nil {
		ev.ReversalEntryID = *je.ReversedByID
	}
	if je.VoidedAt != nil {
		ev.VoidedAt = *je.VoidedAt
	}
	if je.VoidedBy != nil {
		ev.ActorID = *je.VoidedBy
	}
	return ev
}

// COABootstrappedEvent is raised once per tenant when its chart of accounts is seeded
type COABootstrappedEvent struct {
	shared.BaseDomainEvent
	TemplateKey         string `json:"template_key"`
	StateName           string `json:"state_name,omitempty"`
	ClassificationCount int    `json:"classification_count"`
	AccountCount        int    `json:"account_count"`
}

// EventType returns the event type name
func (e *COABootstrappedEvent) EventType() string {
	return EventTypeCOABootstrapped
}

// NewCOABootstrappedEvent creates a COABootstrappedEvent
func NewCOABootstrappedEvent(s *AccountingSettings, stateName string, classifications, accounts int) *COABootstrappedEvent {
	return &COABootstrappedEvent{
		BaseDomainEvent:     shared.NewBaseDomainEvent(EventTypeCOABootstrapped, AggregateTypeSettings, s.ID, s.TenantID),
		TemplateKey:         s.COATemplateKey,
		StateName:           stateName,
		ClassificationCount: classifications,
		AccountCount:        accounts,
	}
}
