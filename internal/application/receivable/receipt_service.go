package receivable

import (
	"context"
	"fmt"
	"strings"

	ledgerapp "github.com/erp/ledger/internal/application/ledger"
	"github.com/erp/ledger/internal/application/uow"
	"github.com/erp/ledger/internal/domain/ledger"
	"github.com/erp/ledger/internal/domain/receivable"
	"github.com/erp/ledger/internal/domain/shared"
	"github.com/erp/ledger/internal/infrastructure/telemetry"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// SourceModuleAR is the source module of journal entries produced by receipts
const SourceModuleAR = "ar"

// Mapping entity types used to resolve receipt accounts
const (
	EntityTypeBankAccount = "bank_account"
	EntityTypeCustomer    = "customer"
)

// DefaultVoidReason is recorded when a void request carries no reason
const DefaultVoidReason = "Receipt voided"

// ReceiptService owns the AR receipt lifecycle: draft, posted, voided. Posting and
// voiding drive the GL through the posting engine inside the receipt's transaction
// and keep the allocated invoices' balances in step.
type ReceiptService struct {
	exec     *uow.Executor
	engine   *ledgerapp.PostingEngine
	resolver *ledgerapp.ControlAccountResolver
	metrics  *telemetry.LedgerMetrics
	logger   *zap.Logger
}

// NewReceiptService creates a ReceiptService
func NewReceiptService(
	exec *uow.Executor,
	engine *ledgerapp.PostingEngine,
	resolver *ledgerapp.ControlAccountResolver,
	metrics *telemetry.LedgerMetrics,
	logger *zap.Logger,
) *ReceiptService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ReceiptService{exec: exec, engine: engine, resolver: resolver, metrics: metrics, logger: logger}
}

// CreateReceipt records a draft receipt with its allocations
func (s *ReceiptService) CreateReceipt(ctx context.Context, cc uow.CommandContext, req CreateReceiptRequest) (*ReceiptResponse, error) {
	return uow.Run(ctx, s.exec, cc, "create_receipt", func(ctx context.Context, repos uow.Repositories) (uow.Outcome[*ReceiptResponse], error) {
		receipt, err := receivable.NewReceipt(cc.TenantID, req.CustomerID, req.BankAccountID, req.Amount,
			req.ReceiptDate, req.Reference, req.Memo, cc.ActorUserID)
		if err != nil {
			return uow.Outcome[*ReceiptResponse]{}, err
		}

		amounts := make([]decimal.Decimal, len(req.Allocations))
		ids := make([]uuid.UUID, len(req.Allocations))
		for i, a := range req.Allocations {
			amounts[i] = a.Amount
			ids[i] = a.InvoiceID
		}
		if err := receipt.ValidateAllocationTotal(amounts); err != nil {
			return uow.Outcome[*ReceiptResponse]{}, err
		}

		if len(ids) > 0 {
			invoices, err := repos.Invoices().FindByIDsForUpdate(ctx, cc.TenantID, ids)
			if err != nil {
				return uow.Outcome[*ReceiptResponse]{}, err
			}
			for _, a := range req.Allocations {
				inv, ok := invoices[a.InvoiceID]
				if !ok {
					return uow.Outcome[*ReceiptResponse]{}, invoiceNotFound(a.InvoiceID)
				}
				if err := receipt.Allocate(inv, a.Amount); err != nil {
					return uow.Outcome[*ReceiptResponse]{}, err
				}
			}
		}

		if err := repos.Receipts().Create(ctx, receipt); err != nil {
			return uow.Outcome[*ReceiptResponse]{}, err
		}
		return uow.Outcome[*ReceiptResponse]{
			Result: toReceiptResponse(receipt),
			Events: shared.DrainEvents(receipt),
			Audit:  receiptAudit("receipt.create", receipt),
			AfterCommit: func(ctx context.Context) {
				s.metrics.RecordReceipt(ctx, cc.TenantID, telemetry.ReceiptActionCreated)
			},
		}, nil
	})
}

// PostReceipt posts the receipt's GL entry and applies its allocations. A receipt
// that already carries a journal entry is returned as is.
func (s *ReceiptService) PostReceipt(ctx context.Context, cc uow.CommandContext, id uuid.UUID) (*ReceiptResponse, error) {
	return uow.Run(ctx, s.exec, cc, "post_receipt", func(ctx context.Context, repos uow.Repositories) (uow.Outcome[*ReceiptResponse], error) {
		receipt, err := repos.Receipts().FindByIDForUpdate(ctx, cc.TenantID, id)
		if err != nil {
			return uow.Outcome[*ReceiptResponse]{}, err
		}
		if receipt == nil {
			return uow.Outcome[*ReceiptResponse]{}, receiptNotFound(id)
		}
		if receipt.GLJournalEntryID != nil {
			return uow.Outcome[*ReceiptResponse]{Result: toReceiptResponse(receipt)}, nil
		}
		if !receipt.Status.CanPost() {
			return uow.Outcome[*ReceiptResponse]{}, shared.NewConflictError("RECEIPT_NOT_DRAFT",
				"Cannot post receipt in "+string(receipt.Status)+" status")
		}

		invoices, err := s.lockInvoices(ctx, repos, receipt)
		if err != nil {
			return uow.Outcome[*ReceiptResponse]{}, err
		}

		req, err := s.buildEntry(ctx, repos, receipt, invoices)
		if err != nil {
			return uow.Outcome[*ReceiptResponse]{}, err
		}
		entry, jeEvents, _, err := s.engine.PostEntryTx(ctx, repos, cc, req)
		if err != nil {
			return uow.Outcome[*ReceiptResponse]{}, err
		}

		for _, a := range receipt.Allocations {
			inv := invoices[a.InvoiceID]
			if err := inv.ApplyPayment(a.AmountApplied); err != nil {
				return uow.Outcome[*ReceiptResponse]{}, err
			}
		}
		for _, inv := range invoices {
			if err := repos.Invoices().Save(ctx, inv); err != nil {
				return uow.Outcome[*ReceiptResponse]{}, err
			}
		}

		if err := receipt.MarkPosted(entry.ID, cc.ActorUserID); err != nil {
			return uow.Outcome[*ReceiptResponse]{}, err
		}
		if err := repos.Receipts().UpdateStatus(ctx, receipt); err != nil {
			return uow.Outcome[*ReceiptResponse]{}, err
		}

		audit := receiptAudit("receipt.post", receipt)
		audit.Metadata["journal_entry_id"] = entry.ID.String()
		return uow.Outcome[*ReceiptResponse]{
			Result: toReceiptResponse(receipt),
			Events: append(jeEvents, shared.DrainEvents(receipt)...),
			Audit:  audit,
			AfterCommit: func(ctx context.Context) {
				s.engine.ObservePosted(ctx, entry)
				s.metrics.RecordReceipt(ctx, cc.TenantID, telemetry.ReceiptActionPosted)
			},
		}, nil
	})
}

// VoidReceipt reverses a posted receipt's GL entry and backs its allocations out of
// the invoices
func (s *ReceiptService) VoidReceipt(ctx context.Context, cc uow.CommandContext, id uuid.UUID, reason string) (*ReceiptResponse, error) {
	reason = strings.TrimSpace(reason)
	if reason == "" {
		reason = DefaultVoidReason
	}
	return uow.Run(ctx, s.exec, cc, "void_receipt", func(ctx context.Context, repos uow.Repositories) (uow.Outcome[*ReceiptResponse], error) {
		receipt, err := repos.Receipts().FindByIDForUpdate(ctx, cc.TenantID, id)
		if err != nil {
			return uow.Outcome[*ReceiptResponse]{}, err
		}
		if receipt == nil {
			return uow.Outcome[*ReceiptResponse]{}, receiptNotFound(id)
		}
		if !receipt.Status.CanVoid() {
			return uow.Outcome[*ReceiptResponse]{}, shared.NewConflictError("RECEIPT_NOT_POSTED",
				"Cannot void receipt in "+string(receipt.Status)+" status")
		}
		if receipt.GLJournalEntryID == nil {
			return uow.Outcome[*ReceiptResponse]{}, shared.NewAppError("RECEIPT_WITHOUT_ENTRY", "Posted receipt has no journal entry")
		}

		original, reversal, jeEvents, err := s.engine.VoidJournalEntryTx(ctx, repos, cc, *receipt.GLJournalEntryID, reason)
		if err != nil {
			return uow.Outcome[*ReceiptResponse]{}, err
		}

		invoices, err := s.lockInvoices(ctx, repos, receipt)
		if err != nil {
			return uow.Outcome[*ReceiptResponse]{}, err
		}
		for _, a := range receipt.Allocations {
			invoices[a.InvoiceID].ReversePayment(a.AmountApplied)
		}
		for _, inv := range invoices {
			if err := repos.Invoices().Save(ctx, inv); err != nil {
				return uow.Outcome[*ReceiptResponse]{}, err
			}
		}

		if err := receipt.MarkVoided(cc.ActorUserID, reason); err != nil {
			return uow.Outcome[*ReceiptResponse]{}, err
		}
		if err := repos.Receipts().UpdateStatus(ctx, receipt); err != nil {
			return uow.Outcome[*ReceiptResponse]{}, err
		}

		audit := receiptAudit("receipt.void", receipt)
		audit.Metadata["reversal_entry_id"] = reversal.ID.String()
		audit.Metadata["void_reason"] = reason
		return uow.Outcome[*ReceiptResponse]{
			Result: toReceiptResponse(receipt),
			Events: append(jeEvents, shared.DrainEvents(receipt)...),
			Audit:  audit,
			AfterCommit: func(ctx context.Context) {
				s.engine.ObserveVoided(ctx, original, reversal)
				s.metrics.RecordReceipt(ctx, cc.TenantID, telemetry.ReceiptActionVoided)
			},
		}, nil
	})
}

// GetReceipt returns a receipt with its allocations
func (s *ReceiptService) GetReceipt(ctx context.Context, tenantID, id uuid.UUID) (*ReceiptResponse, error) {
	receipt, err := s.exec.Scope().Repositories().Receipts().FindByID(ctx, tenantID, id)
	if err != nil {
		return nil, err
	}
	if receipt == nil {
		return nil, receiptNotFound(id)
	}
	return toReceiptResponse(receipt), nil
}

// ListReceipts returns a page of receipts
func (s *ReceiptService) ListReceipts(ctx context.Context, tenantID uuid.UUID, filter ReceiptListFilter) (shared.Paginated[ReceiptResponse], error) {
	f := receivable.ReceiptFilter{
		CustomerID: filter.CustomerID,
		Pagination: shared.Pagination{Page: filter.Page, PageSize: filter.PageSize}.Normalize(100),
	}
	if filter.Status != "" {
		status := receivable.ReceiptStatus(filter.Status)
		if !status.IsValid() {
			return shared.Paginated[ReceiptResponse]{}, shared.NewValidationError("INVALID_STATUS", "Unknown receipt status: "+filter.Status)
		}
		f.Status = &status
	}
	items, total, err := s.exec.Scope().Repositories().Receipts().List(ctx, tenantID, f)
	if err != nil {
		return shared.Paginated[ReceiptResponse]{}, err
	}
	out := make([]ReceiptResponse, len(items))
	for i, r := range items {
		out[i] = *toReceiptResponse(r)
	}
	return shared.NewPaginated(out, total, f.Pagination), nil
}

// lockInvoices loads every allocated invoice, failing if one has disappeared
func (s *ReceiptService) lockInvoices(ctx context.Context, repos uow.Repositories, receipt *receivable.Receipt) (map[uuid.UUID]*receivable.Invoice, error) {
	ids := receipt.InvoiceIDs()
	if len(ids) == 0 {
		return map[uuid.UUID]*receivable.Invoice{}, nil
	}
	invoices, err := repos.Invoices().FindByIDsForUpdate(ctx, receipt.TenantID, ids)
	if err != nil {
		return nil, err
	}
	for _, id := range ids {
		if _, ok := invoices[id]; !ok {
			return nil, invoiceNotFound(id)
		}
	}
	return invoices, nil
}

// buildEntry debits the bank account's GL account for the full amount and credits
// receivables per allocated invoice, with any unapplied remainder as its own line
func (s *ReceiptService) buildEntry(ctx context.Context, repos uow.Repositories, receipt *receivable.Receipt, invoices map[uuid.UUID]*receivable.Invoice) (ledgerapp.PostEntryRequest, error) {
	settings, err := repos.Settings().FindByTenant(ctx, receipt.TenantID)
	if err != nil {
		return ledgerapp.PostEntryRequest{}, fmt.Errorf("failed to load accounting settings: %w", err)
	}

	bank, err := s.resolver.Resolve(ctx, repos, settings, receipt.TenantID, ledger.CategoryBank, EntityTypeBankAccount, receipt.BankAccountID.String())
	if err != nil {
		return ledgerapp.PostEntryRequest{}, err
	}
	if !bank.Mapped() {
		return ledgerapp.PostEntryRequest{}, shared.NewAppError("NO_GL_MAPPING",
			"No GL account is mapped for bank account "+receipt.BankAccountID.String())
	}
	ar, err := s.resolver.Resolve(ctx, repos, settings, receipt.TenantID, ledger.CategoryAccountsReceivable, EntityTypeCustomer, receipt.CustomerID.String())
	if err != nil {
		return ledgerapp.PostEntryRequest{}, err
	}
	if !ar.Mapped() {
		return ledgerapp.PostEntryRequest{}, shared.NewAppError("NO_GL_MAPPING", "No accounts receivable account is configured")
	}

	memo := receipt.Memo
	if memo == "" {
		memo = "Customer receipt"
		if receipt.Reference != "" {
			memo += " " + receipt.Reference
		}
	}
	lines := []ledgerapp.JournalLineRequest{{
		AccountID:   bank.AccountID,
		DebitAmount: receipt.Amount.StringFixed(2),
		Description: memo,
	}}
	for _, a := range receipt.Allocations {
		lines = append(lines, ledgerapp.JournalLineRequest{
			AccountID:    ar.AccountID,
			CreditAmount: a.AmountApplied.StringFixed(2),
			Description:  "Payment on invoice " + invoices[a.InvoiceID].InvoiceNumber,
		})
	}
	if rest := receipt.Unallocated(); rest.IsPositive() {
		lines = append(lines, ledgerapp.JournalLineRequest{
			AccountID:    ar.AccountID,
			CreditAmount: rest.StringFixed(2),
			Description:  "Unapplied customer payment",
		})
	}

	return ledgerapp.PostEntryRequest{
		SourceModule:      SourceModuleAR,
		SourceReferenceID: receipt.ID.String(),
		EntryDate:         receipt.ReceiptDate,
		Memo:              memo,
		Lines:             lines,
		ForcePost:         true,
	}, nil
}

func receiptNotFound(id uuid.UUID) error {
	return shared.NewNotFoundError("RECEIPT", "Receipt not found: "+id.String())
}

func invoiceNotFound(id uuid.UUID) error {
	return shared.NewNotFoundError("INVOICE", "Invoice not found: "+id.String())
}

func receiptAudit(action string, r *receivable.Receipt) *uow.AuditRecord {
	return &uow.AuditRecord{
		Action:     action,
		EntityType: "ar_receipt",
		EntityID:   r.ID.String(),
		Metadata: map[string]string{
			"customer_id": r.CustomerID.String(),
			"amount":      r.Amount.StringFixed(2),
		},
	}
}
