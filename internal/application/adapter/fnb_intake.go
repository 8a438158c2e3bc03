package adapter

import (
	"context"
	"strings"
	"time"

	"github.com/erp/ledger/internal/application/uow"
	"github.com/erp/ledger/internal/domain/shared"
	"github.com/google/uuid"
)

// SubmitFnBPostingRequest is an F&B sales summary handed to the ledger over HTTP
type SubmitFnBPostingRequest struct {
	SourceReferenceID string                 `json:"source_reference_id" binding:"required,max=100"`
	LocationID        *uuid.UUID             `json:"location_id"`
	BusinessDate      string                 `json:"business_date" binding:"required"`
	JournalLines      []SubmitFnBPostingLine `json:"journal_lines" binding:"required,min=1,dive"`
}

// SubmitFnBPostingLine is one category-tagged amount in cents
type SubmitFnBPostingLine struct {
	Category    string `json:"category" binding:"required,max=50"`
	Description string `json:"description" binding:"max=500"`
	DebitCents  int64  `json:"debit_cents" binding:"min=0"`
	CreditCents int64  `json:"credit_cents" binding:"min=0"`
	EntityType  string `json:"entity_type" binding:"max=50"`
	EntityID    string `json:"entity_id" binding:"max=100"`
}

// FnBSubmission acknowledges a queued posting
type FnBSubmission struct {
	EventID           uuid.UUID `json:"event_id"`
	SourceReferenceID string    `json:"source_reference_id"`
	BusinessDate      string    `json:"business_date"`
}

// FnBIntake queues F&B postings on the outbox. The posting itself happens when the
// outbox processor delivers the event to FnBPostingHandler, so a submission is
// accepted even when the tenant's mappings are incomplete.
type FnBIntake struct {
	scope uow.TransactionScope
}

// NewFnBIntake creates an FnBIntake
func NewFnBIntake(scope uow.TransactionScope) *FnBIntake {
	return &FnBIntake{scope: scope}
}

// Submit validates the envelope of req and writes a FnBPostingCreatedEvent to the outbox
func (s *FnBIntake) Submit(ctx context.Context, tenantID uuid.UUID, req SubmitFnBPostingRequest) (*FnBSubmission, error) {
	sourceRef := strings.TrimSpace(req.SourceReferenceID)
	if sourceRef == "" {
		return nil, shared.NewValidationError("MISSING_SOURCE_REFERENCE", "F&B posting has no source reference")
	}
	businessDate, err := time.Parse(time.DateOnly, req.BusinessDate)
	if err != nil {
		return nil, shared.NewValidationError("INVALID_BUSINESS_DATE", "Business date must be YYYY-MM-DD")
	}
	if len(req.JournalLines) == 0 {
		return nil, shared.NewValidationError("INSUFFICIENT_LINES", "F&B posting has no lines")
	}

	lines := make([]FnBPostingLine, len(req.JournalLines))
	for i, l := range req.JournalLines {
		if l.DebitCents < 0 || l.CreditCents < 0 {
			return nil, shared.NewValidationError("INVALID_AMOUNT", "Line amounts cannot be negative")
		}
		lines[i] = FnBPostingLine{
			Category:    strings.TrimSpace(l.Category),
			Description: l.Description,
			DebitCents:  l.DebitCents,
			CreditCents: l.CreditCents,
			EntityType:  l.EntityType,
			EntityID:    l.EntityID,
		}
	}

	event := NewFnBPostingCreatedEvent(tenantID, sourceRef, req.LocationID, businessDate, lines)
	err = s.scope.Execute(ctx, func(ctx context.Context, _ uow.Repositories) ([]shared.DomainEvent, error) {
		return []shared.DomainEvent{event}, nil
	})
	if err != nil {
		return nil, err
	}
	return &FnBSubmission{
		EventID:           event.EventID(),
		SourceReferenceID: sourceRef,
		BusinessDate:      event.BusinessDate,
	}, nil
}
