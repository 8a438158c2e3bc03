package ledger

import (
	"context"
	"time"

	"github.com/erp/ledger/internal/domain/shared"
	"github.com/google/uuid"
)

// Repositories return (nil, nil) when a record is not found and wrap
// shared.ErrUniqueViolation when an insert hits a unique constraint.

// AccountFilter narrows account listings
type AccountFilter struct {
	AccountType *AccountType
	ActiveOnly  bool
	Search      string
}

// AccountRepository persists accounts
type AccountRepository interface {
	FindByID(ctx context.Context, tenantID, id uuid.UUID) (*Account, error)
	FindByIDs(ctx context.Context, tenantID uuid.UUID, ids []uuid.UUID) (map[uuid.UUID]*Account, error)
	FindByNumber(ctx context.Context, tenantID uuid.UUID, number string) (*Account, error)
	List(ctx context.Context, tenantID uuid.UUID, filter AccountFilter) ([]*Account, error)
	Save(ctx context.Context, account *Account) error
	SaveBatch(ctx context.Context, accounts []*Account) error
	Delete(ctx context.Context, tenantID, id uuid.UUID) error
	Count(ctx context.Context, tenantID uuid.UUID) (int64, error)
	// HasPostedLines reports whether any posted or voided entry references the account
	HasPostedLines(ctx context.Context, tenantID, accountID uuid.UUID) (bool, error)
}

// ClassificationRepository persists classifications
type ClassificationRepository interface {
	FindByID(ctx context.Context, tenantID, id uuid.UUID) (*Classification, error)
	FindByNormalizedName(ctx context.Context, tenantID uuid.UUID, normalized string) (*Classification, error)
	List(ctx context.Context, tenantID uuid.UUID) ([]*Classification, error)
	Save(ctx context.Context, c *Classification) error
	Count(ctx context.Context, tenantID uuid.UUID) (int64, error)
}

// SettingsRepository persists the per-tenant AccountingSettings row
type SettingsRepository interface {
	FindByTenant(ctx context.Context, tenantID uuid.UUID) (*AccountingSettings, error)
	Create(ctx context.Context, s *AccountingSettings) error
	Update(ctx context.Context, s *AccountingSettings) error
}

// JournalFilter narrows journal listings
type JournalFilter struct {
	Status       *JournalStatus
	SourceModule string
	From         *time.Time
	To           *time.Time
	shared.Pagination
}

// JournalEntryRepository persists journal entries with their lines
type JournalEntryRepository interface {
	FindByID(ctx context.Context, tenantID, id uuid.UUID) (*JournalEntry, error)
	// FindByIDForUpdate loads the entry and locks its row until the transaction ends
	FindByIDForUpdate(ctx context.Context, tenantID, id uuid.UUID) (*JournalEntry, error)
	// FindBySource returns the original (non-reversal) entry for a source document
	FindBySource(ctx context.Context, tenantID uuid.UUID, sourceModule, sourceReferenceID string) (*JournalEntry, error)
	List(ctx context.Context, tenantID uuid.UUID, filter JournalFilter) ([]*JournalEntry, int64, error)
	Create(ctx context.Context, entry *JournalEntry) error
	// UpdateStatus persists header state changes; lines are never rewritten
	UpdateStatus(ctx context.Context, entry *JournalEntry) error
	// NextJournalNumber allocates the tenant's next number inside the current transaction
	NextJournalNumber(ctx context.Context, tenantID uuid.UUID) (int64, error)
}

// MappingRepository persists GL account mappings
type MappingRepository interface {
	Find(ctx context.Context, tenantID uuid.UUID, entityType, entityID string) (*GLAccountMapping, error)
	List(ctx context.Context, tenantID uuid.UUID, entityType string) ([]*GLAccountMapping, error)
	Save(ctx context.Context, m *GLAccountMapping) error
}

// UnmappedEventRepository persists unmapped-category records
type UnmappedEventRepository interface {
	Create(ctx context.Context, e *UnmappedEvent) error
	FindByID(ctx context.Context, tenantID, id uuid.UUID) (*UnmappedEvent, error)
	// FindOpen returns the unresolved record for the same source line, nil when there is none
	FindOpen(ctx context.Context, e *UnmappedEvent) (*UnmappedEvent, error)
	List(ctx context.Context, tenantID uuid.UUID, openOnly bool, page shared.Pagination) ([]*UnmappedEvent, int64, error)
	Update(ctx context.Context, e *UnmappedEvent) error
}

// IdempotencyKeyRepository persists command idempotency keys
type IdempotencyKeyRepository interface {
	Find(ctx context.Context, tenantID uuid.UUID, clientRequestID, operation string) (*IdempotencyKey, error)
	Create(ctx context.Context, key *IdempotencyKey) error
}

// AuditRepository persists audit entries
type AuditRepository interface {
	Create(ctx context.Context, entry *AuditEntry) error
	List(ctx context.Context, tenantID uuid.UUID, entityType, entityID string) ([]*AuditEntry, error)
}
