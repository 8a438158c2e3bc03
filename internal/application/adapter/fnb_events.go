// Package adapter posts other modules' GL postings into the ledger on their behalf.
package adapter

import (
	"time"

	"github.com/erp/ledger/internal/domain/shared"
	"github.com/google/uuid"
)

// Event type names consumed by the adapters
const (
	EventTypeFnBPostingCreated = "fnb.gl.posting_created.v1"

	AggregateTypeFnBPosting = "FnBGLPosting"
)

// SourceModuleFnB is the source module of entries posted for F&B
const SourceModuleFnB = "fnb"

// FnBPostingLine is one category-tagged amount of an F&B posting batch
type FnBPostingLine struct {
	Category    string `json:"category"`
	Description string `json:"description,omitempty"`
	DebitCents  int64  `json:"debitCents"`
	CreditCents int64  `json:"creditCents"`
	// EntityType and EntityID select a specific mapping row, e.g. a department
	EntityType string `json:"entityType,omitempty"`
	EntityID   string `json:"entityId,omitempty"`
}

// FnBPostingCreatedEvent is emitted by the F&B module when a business day's sales
// summary is ready for the ledger
type FnBPostingCreatedEvent struct {
	shared.BaseDomainEvent
	SourceReferenceID string           `json:"sourceReferenceId"`
	LocationID        *uuid.UUID       `json:"locationId,omitempty"`
	BusinessDate      string           `json:"businessDate"`
	JournalLines      []FnBPostingLine `json:"journalLines"`
}

// EventType returns the event type name
func (e *FnBPostingCreatedEvent) EventType() string {
	return EventTypeFnBPostingCreated
}

// NewFnBPostingCreatedEvent creates a FnBPostingCreatedEvent
func NewFnBPostingCreatedEvent(tenantID uuid.UUID, sourceReferenceID string, locationID *uuid.UUID, businessDate time.Time, lines []FnBPostingLine) *FnBPostingCreatedEvent {
	aggID := uuid.NewSHA1(uuid.NameSpaceOID, []byte(tenantID.String()+"/"+sourceReferenceID))
	return &FnBPostingCreatedEvent{
		BaseDomainEvent:   shared.NewBaseDomainEvent(EventTypeFnBPostingCreated, AggregateTypeFnBPosting, aggID, tenantID),
		SourceReferenceID: sourceReferenceID,
		LocationID:        locationID,
		BusinessDate:      businessDate.Format(time.DateOnly),
		JournalLines:      lines,
	}
}
