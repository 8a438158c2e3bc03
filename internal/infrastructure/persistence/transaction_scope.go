package persistence

import (
	"context"
	"fmt"

	"github.com/erp/ledger/internal/application/uow"
	"github.com/erp/ledger/internal/domain/ledger"
	"github.com/erp/ledger/internal/domain/receivable"
	"github.com/erp/ledger/internal/domain/shared"
	"gorm.io/gorm"
)

// GormTransactionScope implements uow.TransactionScope using GORM transactions.
// Events returned by the work are written to the outbox before commit.
type GormTransactionScope struct {
	db     *gorm.DB
	outbox shared.OutboxEventSaver
}

// NewGormTransactionScope creates a new GormTransactionScope. outbox may be nil,
// in which case returned events are dropped.
func NewGormTransactionScope(db *gorm.DB, outbox shared.OutboxEventSaver) *GormTransactionScope {
	return &GormTransactionScope{db: db, outbox: outbox}
}

// Execute runs fn within a database transaction.
// If fn or the outbox write fails, the transaction is rolled back.
func (s *GormTransactionScope) Execute(ctx context.Context, fn uow.Work) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		events, err := fn(ctx, &gormRepositories{db: tx})
		if err != nil {
			return err
		}
		if len(events) == 0 || s.outbox == nil {
			return nil
		}
		if err := s.outbox.SaveEvents(ctx, tx, events...); err != nil {
			return fmt.Errorf("failed to write outbox events: %w", err)
		}
		return nil
	})
}

// Repositories returns repositories bound to the root connection
func (s *GormTransactionScope) Repositories() uow.Repositories {
	return &gormRepositories{db: s.db}
}

// gormRepositories provides access to all repositories on one connection or transaction.
type gormRepositories struct {
	db *gorm.DB
}

func (r *gormRepositories) Accounts() ledger.AccountRepository {
	return NewGormAccountRepository(r.db)
}

func (r *gormRepositories) Classifications() ledger.ClassificationRepository {
	return NewGormClassificationRepository(r.db)
}

func (r *gormRepositories) Settings() ledger.SettingsRepository {
	return NewGormSettingsRepository(r.db)
}

func (r *gormRepositories) Journals() ledger.JournalEntryRepository {
	return NewGormJournalEntryRepository(r.db)
}

func (r *gormRepositories) Mappings() ledger.MappingRepository {
	return NewGormMappingRepository(r.db)
}

func (r *gormRepositories) Unmapped() ledger.UnmappedEventRepository {
	return NewGormUnmappedEventRepository(r.db)
}

func (r *gormRepositories) IdempotencyKeys() ledger.IdempotencyKeyRepository {
	return NewGormIdempotencyKeyRepository(r.db)
}

func (r *gormRepositories) Invoices() receivable.InvoiceRepository {
	return NewGormInvoiceRepository(r.db)
}

func (r *gormRepositories) Receipts() receivable.ReceiptRepository {
	return NewGormReceiptRepository(r.db)
}

// Ensure GormTransactionScope implements TransactionScope
var _ uow.TransactionScope = (*GormTransactionScope)(nil)

// Ensure gormRepositories implements Repositories
var _ uow.Repositories = (*gormRepositories)(nil)
