package ledger

import (
	"fmt"
	"strings"
	"time"

	"github.com/erp/ledger/internal/domain/shared"
	"github.com/erp/ledger/internal/domain/shared/valueobject"
	"github.com/google/uuid"
)

// SourceModuleManual marks entries keyed in by a user rather than produced by a module
const SourceModuleManual = "manual"

// JournalStatus is the lifecycle state of a journal entry
type JournalStatus string

const (
	JournalStatusDraft  JournalStatus = "draft"
	JournalStatusPosted JournalStatus = "posted"
	JournalStatusVoided JournalStatus = "voided"
)

// IsValid checks if the status is known
func (s JournalStatus) IsValid() bool {
	switch s {
	case JournalStatusDraft, JournalStatusPosted, JournalStatusVoided:
		return true
	}
	return false
}

// String returns the string representation of JournalStatus
func (s JournalStatus) String() string {
	return string(s)
}

// CanPost returns true if the entry can be posted in this status
func (s JournalStatus) CanPost() bool {
	return s == JournalStatusDraft
}

// CanVoid returns true if the entry can be voided in this status
func (s JournalStatus) CanVoid() bool {
	return s == JournalStatusPosted
}

// JournalLine is one single-sided debit or credit of a journal entry
type JournalLine struct {
	ID             uuid.UUID
	JournalEntryID uuid.UUID
	LineNumber     int
	AccountID      uuid.UUID
	DebitCents     valueobject.Cents
	CreditCents    valueobject.Cents
	Description    string
	Channel        string
	LocationID     *uuid.UUID
}

// Amount returns the non-zero side of the line
func (l JournalLine) Amount() valueobject.Cents {
	if l.DebitCents != 0 {
		return l.DebitCents
	}
	return l.CreditCents
}

// IsDebit reports whether the line is a debit
func (l JournalLine) IsDebit() bool {
	return l.DebitCents != 0
}

// LineParams describes a line before it is attached to an entry
type LineParams struct {
	AccountID   uuid.UUID
	DebitCents  valueobject.Cents
	CreditCents valueobject.Cents
	Description string
	Channel     string
	LocationID  *uuid.UUID
}

// EntryParams describes a new journal entry
type EntryParams struct {
	SourceModule      string
	SourceReferenceID string
	EntryDate         time.Time
	Memo              string
	Lines             []LineParams
	CreatedBy         uuid.UUID
}

// JournalEntry is an atomic set of debit and credit lines. Lines are immutable once
// the entry is posted; a posted entry is undone only by voiding it, which produces a
// mirrored reversal entry.
type JournalEntry struct {
	shared.TenantAggregateRoot
	JournalNumber     *int64
	EntryDate         time.Time
	Memo              string
	Status            JournalStatus
	SourceModule      string
	SourceReferenceID string
	ReversalOfID      *uuid.UUID
	ReversedByID      *uuid.UUID
	Lines             []JournalLine
	CreatedBy         uuid.UUID
	PostedAt          *time.Time
	PostedBy          *uuid.UUID
	VoidedAt          *time.Time
	VoidedBy          *uuid.UUID
	VoidReason        string
}

// NewJournalEntry creates a draft entry after validating line shape: at least two
// lines, each with exactly one non-zero, positive side
func NewJournalEntry(tenantID uuid.UUID, p EntryParams) (*JournalEntry, error) {
	sourceModule := strings.TrimSpace(p.SourceModule)
	if sourceModule == "" {
		sourceModule = SourceModuleManual
	}
	if len(p.Lines) < 2 {
		return nil, shared.NewValidationError("INSUFFICIENT_LINES", "Journal entry requires at least 2 lines")
	}
	if p.EntryDate.IsZero() {
		return nil, shared.NewValidationError("INVALID_ENTRY_DATE", "Entry date is required")
	}

	e := &JournalEntry{
		TenantAggregateRoot: shared.NewTenantAggregateRoot(tenantID),
		EntryDate:           p.EntryDate,
		Memo:                strings.TrimSpace(p.Memo),
		Status:              JournalStatusDraft,
		SourceModule:        sourceModule,
		SourceReferenceID:   strings.TrimSpace(p.SourceReferenceID),
		CreatedBy:           p.CreatedBy,
	}

	e.Lines = make([]JournalLine, 0, len(p.Lines))
	for i, lp := range p.Lines {
		if err := validateLine(i+1, lp); err != nil {
			return nil, err
		}
		e.Lines = append(e.Lines, JournalLine{
			ID:             uuid.New(),
			JournalEntryID: e.ID,
			LineNumber:     i + 1,
			AccountID:      lp.AccountID,
			DebitCents:     lp.DebitCents,
			CreditCents:    lp.CreditCents,
			Description:    strings.TrimSpace(lp.Description),
			Channel:        lp.Channel,
			LocationID:     lp.LocationID,
		})
	}
	return e, nil
}

func validateLine(n int, lp LineParams) error {
	if lp.AccountID == uuid.Nil {
		return shared.NewValidationError("INVALID_LINE", fmt.Sprintf("Line %d: account is required", n))
	}
	if lp.DebitCents < 0 || lp.CreditCents < 0 {
		return shared.NewValidationError("INVALID_LINE", fmt.Sprintf("Line %d: amounts cannot be negative", n))
	}
	if lp.DebitCents != 0 && lp.CreditCents != 0 {
		return shared.NewValidationError("INVALID_LINE", fmt.Sprintf("Line %d: cannot have both debit and credit", n))
	}
	if lp.DebitCents == 0 && lp.CreditCents == 0 {
		return shared.NewValidationError("INVALID_LINE", fmt.Sprintf("Line %d: amount must be non-zero", n))
	}
	return nil
}

// Totals returns the sum of debits and credits
func (e *JournalEntry) Totals() (debit, credit valueobject.Cents) {
	for _, l := range e.Lines {
		debit += l.DebitCents
		credit += l.CreditCents
	}
	return debit, credit
}

// ValidateBalance checks that debits equal credits within toleranceCents
func (e *JournalEntry) ValidateBalance(toleranceCents int64) error {
	debit, credit := e.Totals()
	diff := (debit - credit).Abs()
	if int64(diff) > toleranceCents {
		return shared.NewValidationError("UNBALANCED_ENTRY", fmt.Sprintf(
			"Journal entry is unbalanced: debits %s, credits %s (tolerance %s)",
			debit.DollarString(), credit.DollarString(), valueobject.Cents(toleranceCents).DollarString()))
	}
	return nil
}

// AccountIDs returns the distinct accounts referenced by the lines
func (e *JournalEntry) AccountIDs() []uuid.UUID {
	seen := make(map[uuid.UUID]struct{}, len(e.Lines))
	ids := make([]uuid.UUID, 0, len(e.Lines))
	for _, l := range e.Lines {
		if _, ok := seen[l.AccountID]; ok {
			continue
		}
		seen[l.AccountID] = struct{}{}
		ids = append(ids, l.AccountID)
	}
	return ids
}

// Post transitions draft → posted, assigning the journal number
func (e *JournalEntry) Post(journalNumber int64, toleranceCents int64, postedBy uuid.UUID) error {
	if !e.Status.CanPost() {
		return shared.NewConflictError("JOURNAL_NOT_DRAFT", fmt.Sprintf("Cannot post journal entry in %s status", e.Status))
	}
	if err := e.ValidateBalance(toleranceCents); err != nil {
		return err
	}
	if journalNumber <= 0 {
		return shared.NewValidationError("INVALID_JOURNAL_NUMBER", "Journal number must be positive")
	}

	now := time.Now()
	e.JournalNumber = &journalNumber
	e.Status = JournalStatusPosted
	e.PostedAt = &now
	e.PostedBy = &postedBy
	e.IncrementVersion()

	e.AddDomainEvent(NewJournalPostedEvent(e))
	return nil
}

// Reverse builds the mirror image of a posted entry as a new draft: every line's
// debit and credit are swapped and the new entry references this one
func (e *JournalEntry) Reverse(createdBy uuid.UUID, entryDate time.Time) (*JournalEntry, error) {
	if !e.Status.CanVoid() {
		return nil, shared.NewConflictError("JOURNAL_NOT_POSTED", fmt.Sprintf("Cannot reverse journal entry in %s status", e.Status))
	}

	rev := &JournalEntry{
		TenantAggregateRoot: shared.NewTenantAggregateRoot(e.TenantID),
		EntryDate:           entryDate,
		Memo:                fmt.Sprintf("Reversal of JE-%d", e.number()),
		Status:              JournalStatusDraft,
		SourceModule:        e.SourceModule,
		SourceReferenceID:   e.SourceReferenceID,
		CreatedBy:           createdBy,
	}
	originalID := e.ID
	rev.ReversalOfID = &originalID

	rev.Lines = make([]JournalLine, len(e.Lines))
	for i, l := range e.Lines {
		rev.Lines[i] = JournalLine{
			ID:             uuid.New(),
			JournalEntryID: rev.ID,
			LineNumber:     l.LineNumber,
			AccountID:      l.AccountID,
			DebitCents:     l.CreditCents,
			CreditCents:    l.DebitCents,
			Description:    l.Description,
			Channel:        l.Channel,
			LocationID:     l.LocationID,
		}
	}
	return rev, nil
}

// Void transitions posted → voided. reversalID must reference the already-built reversal entry.
func (e *JournalEntry) Void(voidedBy uuid.UUID, reason string, reversalID uuid.UUID) error {
	if !e.Status.CanVoid() {
		return shared.NewConflictError("JOURNAL_NOT_POSTED", fmt.Sprintf("Cannot void journal entry in %s status", e.Status))
	}
	if reversalID == uuid.Nil {
		return shared.NewValidationError("MISSING_REVERSAL", "Voiding requires a reversal entry")
	}
	reason = strings.TrimSpace(reason)
	if reason == "" {
		return shared.NewValidationError("VOID_REASON_REQUIRED", "Void reason is required")
	}

	now := time.Now()
	e.Status = JournalStatusVoided
	e.VoidedAt = &now
	e.VoidedBy = &voidedBy
	e.VoidReason = reason
	e.ReversedByID = &reversalID
	e.IncrementVersion()

	e.AddDomainEvent(NewJournalVoidedEvent(e))
	return nil
}

// IsReversal reports whether this entry reverses another
func (e *JournalEntry) IsReversal() bool {
	return e.ReversalOfID != nil
}

func (e *JournalEntry) number() int64 {
	if e.JournalNumber == nil {
		return 0
	}
	return *e.JournalNumber
}
