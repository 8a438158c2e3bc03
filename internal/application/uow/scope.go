// Package uow runs ledger commands as a single transactional unit of work: the
// idempotency key, the state change and the outbox events commit together.
package uow

import (
	"context"

	"github.com/erp/ledger/internal/domain/ledger"
	"github.com/erp/ledger/internal/domain/receivable"
	"github.com/erp/ledger/internal/domain/shared"
	"github.com/google/uuid"
)

// CommandContext identifies who issues a command and how retries are recognized
type CommandContext struct {
	TenantID    uuid.UUID
	ActorUserID uuid.UUID
	// ClientRequestID is optional; when set, a retry with the same id and operation
	// returns the first result instead of executing again
	ClientRequestID string
}

// Repositories provides access to every repository within one transaction.
// All repositories returned share the same underlying database transaction.
type Repositories interface {
	Accounts() ledger.AccountRepository
	Classifications() ledger.ClassificationRepository
	Settings() ledger.SettingsRepository
	Journals() ledger.JournalEntryRepository
	Mappings() ledger.MappingRepository
	Unmapped() ledger.UnmappedEventRepository
	IdempotencyKeys() ledger.IdempotencyKeyRepository
	Invoices() receivable.InvoiceRepository
	Receipts() receivable.ReceiptRepository
}

// Work is the body of a unit of work. The returned events are written to the
// outbox inside the same transaction.
type Work func(ctx context.Context, repos Repositories) ([]shared.DomainEvent, error)

// TransactionScope provides transactional access to the ledger repositories.
type TransactionScope interface {
	// Execute runs fn within a database transaction. If fn returns an error the
	// transaction is rolled back and no event is recorded.
	Execute(ctx context.Context, fn Work) error
	// Repositories returns repositories outside any transaction, for queries
	Repositories() Repositories
}
