package ledger

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/erp/ledger/internal/application/uow"
	"github.com/erp/ledger/internal/domain/ledger"
	"github.com/erp/ledger/internal/domain/shared"
	"github.com/erp/ledger/internal/domain/shared/valueobject"
	"github.com/erp/ledger/internal/infrastructure/telemetry"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Operation names used for idempotency keys and audit actions
const (
	OperationPostEntry      = "post_entry"
	OperationPostDraftEntry = "post_draft_entry"
	OperationVoidEntry      = "void_journal_entry"
)

// EntityTypeJournalEntry is the audit entity type of journal entries
const EntityTypeJournalEntry = "journal_entry"

// EngineConfig holds the defaults used for tenants whose settings row lacks a value
type EngineConfig struct {
	DefaultToleranceCents int64
	DefaultAutoPostMode   ledger.AutoPostMode
}

// DefaultEngineConfig returns a 5 cent tolerance and auto posting
func DefaultEngineConfig() EngineConfig {
	return EngineConfig{
		DefaultToleranceCents: ledger.DefaultRoundingToleranceCents,
		DefaultAutoPostMode:   ledger.AutoPostModeAuto,
	}
}

// PostingEngine validates, numbers, posts and voids journal entries. Balance and
// sequential numbering are enforced here; callers resolve accounts and amounts.
type PostingEngine struct {
	exec    *uow.Executor
	cfg     EngineConfig
	metrics *telemetry.LedgerMetrics
	logger  *zap.Logger
}

// PostingEngineOption configures a PostingEngine
type PostingEngineOption func(*PostingEngine)

// WithEngineConfig overrides the default tolerance and auto-post mode
func WithEngineConfig(cfg EngineConfig) PostingEngineOption {
	return func(e *PostingEngine) {
		e.cfg = cfg
	}
}

// WithLedgerMetrics records posting metrics
func WithLedgerMetrics(m *telemetry.LedgerMetrics) PostingEngineOption {
	return func(e *PostingEngine) {
		e.metrics = m
	}
}

// NewPostingEngine creates a PostingEngine
func NewPostingEngine(exec *uow.Executor, logger *zap.Logger, opts ...PostingEngineOption) *PostingEngine {
	e := &PostingEngine{exec: exec, cfg: DefaultEngineConfig(), logger: logger}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// PostEntry creates a journal entry and posts it, or leaves it as a draft when the
// tenant posts manually and the request does not force posting. A non-manual source
// document posts at most once: repeats return the entry already recorded for it.
func (e *PostingEngine) PostEntry(ctx context.Context, cc uow.CommandContext, req PostEntryRequest) (*JournalEntryResponse, error) {
	resp, err := uow.Run(ctx, e.exec, cc, OperationPostEntry, func(ctx context.Context, repos uow.Repositories) (uow.Outcome[*JournalEntryResponse], error) {
		entry, events, created, err := e.PostEntryTx(ctx, repos, cc, req)
		if err != nil {
			return uow.Outcome[*JournalEntryResponse]{}, err
		}
		out := uow.Outcome[*JournalEntryResponse]{Result: ToJournalEntryResponse(entry), Events: events}
		if created {
			action := "journal.post"
			if entry.Status == ledger.JournalStatusDraft {
				action = "journal.create_draft"
			}
			out.Audit = journalAudit(action, entry)
			out.AfterCommit = e.postedHook(entry)
		}
		return out, nil
	})
	if err != nil && errors.Is(err, shared.ErrUniqueViolation) && isSourceKeyed(req.SourceModule, req.SourceReferenceID) {
		// another delivery of the same source document committed first
		existing, ferr := e.exec.Scope().Repositories().Journals().FindBySource(ctx, cc.TenantID, strings.TrimSpace(req.SourceModule), strings.TrimSpace(req.SourceReferenceID))
		if ferr == nil && existing != nil {
			e.logger.Info("duplicate source posting resolved to existing entry",
				zap.String("source_module", existing.SourceModule),
				zap.String("source_reference_id", existing.SourceReferenceID),
				zap.String("journal_entry_id", existing.ID.String()),
			)
			return ToJournalEntryResponse(existing), nil
		}
	}
	return resp, err
}

// PostEntryTx runs the posting inside the caller's transaction. created is false
// when the source document already had an entry, which is returned unchanged.
func (e *PostingEngine) PostEntryTx(ctx context.Context, repos uow.Repositories, cc uow.CommandContext, req PostEntryRequest) (entry *ledger.JournalEntry, events []shared.DomainEvent, created bool, err error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "ledger", "post_entry")
	defer span.End()
	defer func() { telemetry.RecordError(span, err) }()
	telemetry.SetAttributes(span,
		telemetry.SpanAttrTenantID, cc.TenantID.String(),
		telemetry.SpanAttrSourceModule, req.SourceModule,
		telemetry.SpanAttrSourceRef, req.SourceReferenceID,
		telemetry.SpanAttrLineCount, len(req.Lines),
	)

	sourceModule := strings.TrimSpace(req.SourceModule)
	sourceRef := strings.TrimSpace(req.SourceReferenceID)
	if isSourceKeyed(sourceModule, sourceRef) {
		existing, err := repos.Journals().FindBySource(ctx, cc.TenantID, sourceModule, sourceRef)
		if err != nil {
			return nil, nil, false, fmt.Errorf("failed to look up source entry: %w", err)
		}
		if existing != nil {
			return existing, nil, false, nil
		}
	}

	params, err := toEntryParams(cc, req)
	if err != nil {
		return nil, nil, false, err
	}
	entry, err = ledger.NewJournalEntry(cc.TenantID, params)
	if err != nil {
		return nil, nil, false, err
	}

	settings, err := repos.Settings().FindByTenant(ctx, cc.TenantID)
	if err != nil {
		return nil, nil, false, fmt.Errorf("failed to load accounting settings: %w", err)
	}
	tolerance := e.tolerance(settings)
	if err := entry.ValidateBalance(tolerance); err != nil {
		return nil, nil, false, err
	}
	if err := e.validateAccounts(ctx, repos, entry); err != nil {
		return nil, nil, false, err
	}

	if req.ForcePost || e.autoPostMode(settings) == ledger.AutoPostModeAuto {
		number, err := repos.Journals().NextJournalNumber(ctx, cc.TenantID)
		if err != nil {
			return nil, nil, false, fmt.Errorf("failed to allocate journal number: %w", err)
		}
		if err := entry.Post(number, tolerance, cc.ActorUserID); err != nil {
			return nil, nil, false, err
		}
		telemetry.SetAttribute(span, telemetry.SpanAttrJournalNumber, number)
	}

	if err := repos.Journals().Create(ctx, entry); err != nil {
		return nil, nil, false, err
	}
	telemetry.SetAttribute(span, telemetry.SpanAttrJournalEntryID, entry.ID.String())
	return entry, shared.DrainEvents(entry), true, nil
}

// PostDraftEntry advances a draft entry to posted
func (e *PostingEngine) PostDraftEntry(ctx context.Context, cc uow.CommandContext, id uuid.UUID) (*JournalEntryResponse, error) {
	return uow.Run(ctx, e.exec, cc, OperationPostDraftEntry, func(ctx context.Context, repos uow.Repositories) (uow.Outcome[*JournalEntryResponse], error) {
		entry, err := repos.Journals().FindByIDForUpdate(ctx, cc.TenantID, id)
		if err != nil {
			return uow.Outcome[*JournalEntryResponse]{}, err
		}
		if entry == nil {
			return uow.Outcome[*JournalEntryResponse]{}, journalNotFound(id)
		}
		if !entry.Status.CanPost() {
			return uow.Outcome[*JournalEntryResponse]{}, shared.NewConflictError("JOURNAL_NOT_DRAFT",
				fmt.Sprintf("Cannot post journal entry in %s status", entry.Status))
		}

		settings, err := repos.Settings().FindByTenant(ctx, cc.TenantID)
		if err != nil {
			return uow.Outcome[*JournalEntryResponse]{}, fmt.Errorf("failed to load accounting settings: %w", err)
		}
		tolerance := e.tolerance(settings)
		if err := entry.ValidateBalance(tolerance); err != nil {
			return uow.Outcome[*JournalEntryResponse]{}, err
		}
		if err := e.validateAccounts(ctx, repos, entry); err != nil {
			return uow.Outcome[*JournalEntryResponse]{}, err
		}

		number, err := repos.Journals().NextJournalNumber(ctx, cc.TenantID)
		if err != nil {
			return uow.Outcome[*JournalEntryResponse]{}, fmt.Errorf("failed to allocate journal number: %w", err)
		}
		if err := entry.Post(number, tolerance, cc.ActorUserID); err != nil {
			return uow.Outcome[*JournalEntryResponse]{}, err
		}
		if err := repos.Journals().UpdateStatus(ctx, entry); err != nil {
			return uow.Outcome[*JournalEntryResponse]{}, err
		}

		return uow.Outcome[*JournalEntryResponse]{
			Result:      ToJournalEntryResponse(entry),
			Events:      shared.DrainEvents(entry),
			Audit:       journalAudit("journal.post", entry),
			AfterCommit: e.postedHook(entry),
		}, nil
	})
}

// VoidJournalEntry voids a posted entry by posting its mirror image. It does not
// guard against a second void of the same document; callers check document state.
func (e *PostingEngine) VoidJournalEntry(ctx context.Context, cc uow.CommandContext, id uuid.UUID, reason string) (*JournalEntryResponse, error) {
	return uow.Run(ctx, e.exec, cc, OperationVoidEntry, func(ctx context.Context, repos uow.Repositories) (uow.Outcome[*JournalEntryResponse], error) {
		original, reversal, events, err := e.VoidJournalEntryTx(ctx, repos, cc, id, reason)
		if err != nil {
			return uow.Outcome[*JournalEntryResponse]{}, err
		}
		audit := journalAudit("journal.void", original)
		audit.Metadata["reversal_entry_id"] = reversal.ID.String()
		audit.Metadata["void_reason"] = original.VoidReason
		return uow.Outcome[*JournalEntryResponse]{
			Result: ToJournalEntryResponse(original),
			Events: events,
			Audit:  audit,
			AfterCommit: func(ctx context.Context) {
				e.ObserveVoided(ctx, original, reversal)
			},
		}, nil
	})
}

// VoidJournalEntryTx voids inside the caller's transaction and returns the voided
// original and its posted reversal
func (e *PostingEngine) VoidJournalEntryTx(ctx context.Context, repos uow.Repositories, cc uow.CommandContext, id uuid.UUID, reason string) (original, reversal *ledger.JournalEntry, events []shared.DomainEvent, err error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "ledger", "void_journal_entry")
	defer span.End()
	defer func() { telemetry.RecordError(span, err) }()
	telemetry.SetAttributes(span,
		telemetry.SpanAttrTenantID, cc.TenantID.String(),
		telemetry.SpanAttrJournalEntryID, id.String(),
	)

	original, err = repos.Journals().FindByIDForUpdate(ctx, cc.TenantID, id)
	if err != nil {
		return nil, nil, nil, err
	}
	if original == nil {
		return nil, nil, nil, journalNotFound(id)
	}
	if !original.Status.CanVoid() {
		return nil, nil, nil, shared.NewConflictError("JOURNAL_NOT_POSTED",
			fmt.Sprintf("Cannot void journal entry in %s status", original.Status))
	}
	if original.IsReversal() {
		return nil, nil, nil, shared.NewConflictError("REVERSAL_NOT_VOIDABLE", "A reversal entry cannot be voided")
	}
	if strings.TrimSpace(reason) == "" {
		return nil, nil, nil, shared.NewValidationError("VOID_REASON_REQUIRED", "Void reason is required")
	}

	settings, err := repos.Settings().FindByTenant(ctx, cc.TenantID)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("failed to load accounting settings: %w", err)
	}

	now := time.Now()
	reversal, err = original.Reverse(cc.ActorUserID, time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC))
	if err != nil {
		return nil, nil, nil, err
	}
	number, err := repos.Journals().NextJournalNumber(ctx, cc.TenantID)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("failed to allocate journal number: %w", err)
	}
	if err := reversal.Post(number, e.tolerance(settings), cc.ActorUserID); err != nil {
		return nil, nil, nil, err
	}
	if err := repos.Journals().Create(ctx, reversal); err != nil {
		return nil, nil, nil, err
	}

	if err := original.Void(cc.ActorUserID, reason, reversal.ID); err != nil {
		return nil, nil, nil, err
	}
	if err := repos.Journals().UpdateStatus(ctx, original); err != nil {
		return nil, nil, nil, err
	}

	return original, reversal, shared.DrainEvents(reversal, original), nil
}

// GetJournalEntry returns an entry with its lines
func (e *PostingEngine) GetJournalEntry(ctx context.Context, tenantID, id uuid.UUID) (*JournalEntryResponse, error) {
	entry, err := e.exec.Scope().Repositories().Journals().FindByID(ctx, tenantID, id)
	if err != nil {
		return nil, err
	}
	if entry == nil {
		return nil, journalNotFound(id)
	}
	return ToJournalEntryResponse(entry), nil
}

// ListJournalEntries returns a page of entries, newest first
func (e *PostingEngine) ListJournalEntries(ctx context.Context, tenantID uuid.UUID, filter JournalListFilter) (*JournalListResponse, error) {
	f := ledger.JournalFilter{
		SourceModule: strings.TrimSpace(filter.SourceModule),
		From:         filter.FromDate,
		To:           filter.ToDate,
		Pagination:   shared.Pagination{Page: filter.Page, PageSize: filter.PageSize}.Normalize(100),
	}
	if filter.Status != "" {
		status := ledger.JournalStatus(filter.Status)
		if !status.IsValid() {
			return nil, shared.NewValidationError("INVALID_STATUS", "Unknown journal status: "+filter.Status)
		}
		f.Status = &status
	}

	entries, total, err := e.exec.Scope().Repositories().Journals().List(ctx, tenantID, f)
	if err != nil {
		return nil, err
	}
	items := make([]JournalEntryResponse, len(entries))
	for i, entry := range entries {
		items[i] = *ToJournalEntryResponse(entry)
	}
	return &JournalListResponse{Items: items, Total: total, Page: f.Page, PageSize: f.PageSize}, nil
}

func (e *PostingEngine) tolerance(s *ledger.AccountingSettings) int64 {
	if s == nil {
		return e.cfg.DefaultToleranceCents
	}
	return s.Tolerance()
}

func (e *PostingEngine) autoPostMode(s *ledger.AccountingSettings) ledger.AutoPostMode {
	if s == nil || !s.AutoPostMode.IsValid() {
		return e.cfg.DefaultAutoPostMode
	}
	return s.AutoPostMode
}

// validateAccounts checks that every referenced account exists for the tenant and
// accepts postings from the entry's source module
func (e *PostingEngine) validateAccounts(ctx context.Context, repos uow.Repositories, entry *ledger.JournalEntry) error {
	ids := entry.AccountIDs()
	accounts, err := repos.Accounts().FindByIDs(ctx, entry.TenantID, ids)
	if err != nil {
		return fmt.Errorf("failed to load accounts: %w", err)
	}
	for _, id := range ids {
		acct, ok := accounts[id]
		if !ok {
			return shared.NewNotFoundError("ACCOUNT", "Account not found: "+id.String())
		}
		if err := acct.CanPost(entry.SourceModule); err != nil {
			return err
		}
	}
	return nil
}

// ObservePosted records metrics for an entry posted through a Tx variant once the
// caller's transaction has committed
func (e *PostingEngine) ObservePosted(ctx context.Context, entry *ledger.JournalEntry) {
	e.postedHook(entry)(ctx)
}

// ObserveVoided records metrics for a void made through VoidJournalEntryTx
func (e *PostingEngine) ObserveVoided(ctx context.Context, original, reversal *ledger.JournalEntry) {
	e.metrics.RecordJournalVoided(ctx, original.TenantID, original.SourceModule)
	e.postedHook(reversal)(ctx)
}

func (e *PostingEngine) postedHook(entry *ledger.JournalEntry) func(context.Context) {
	return func(ctx context.Context) {
		if entry.Status != ledger.JournalStatusPosted {
			return
		}
		debit, _ := entry.Totals()
		e.metrics.RecordJournalPosted(ctx, entry.TenantID, entry.SourceModule, int64(debit))
	}
}

func toEntryParams(cc uow.CommandContext, req PostEntryRequest) (ledger.EntryParams, error) {
	params := ledger.EntryParams{
		SourceModule:      req.SourceModule,
		SourceReferenceID: req.SourceReferenceID,
		EntryDate:         req.EntryDate,
		Memo:              req.Memo,
		CreatedBy:         cc.ActorUserID,
		Lines:             make([]ledger.LineParams, len(req.Lines)),
	}
	for i, l := range req.Lines {
		debit, err := parseAmount(l.DebitAmount)
		if err != nil {
			return params, shared.NewValidationError("INVALID_AMOUNT", fmt.Sprintf("Line %d: invalid debit amount %q", i+1, l.DebitAmount))
		}
		credit, err := parseAmount(l.CreditAmount)
		if err != nil {
			return params, shared.NewValidationError("INVALID_AMOUNT", fmt.Sprintf("Line %d: invalid credit amount %q", i+1, l.CreditAmount))
		}
		params.Lines[i] = ledger.LineParams{
			AccountID:   l.AccountID,
			DebitCents:  debit,
			CreditCents: credit,
			Description: l.Description,
			Channel:     l.Channel,
			LocationID:  l.LocationID,
		}
	}
	return params, nil
}

func parseAmount(s string) (valueobject.Cents, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, nil
	}
	return valueobject.ParseDollars(s)
}

// isSourceKeyed reports whether postings for the source are unique per document
func isSourceKeyed(sourceModule, sourceRef string) bool {
	sourceModule = strings.TrimSpace(sourceModule)
	return sourceModule != "" && sourceModule != ledger.SourceModuleManual && strings.TrimSpace(sourceRef) != ""
}

func journalNotFound(id uuid.UUID) error {
	return shared.NewNotFoundError("JOURNAL_ENTRY", "Journal entry not found: "+id.String())
}

func journalAudit(action string, entry *ledger.JournalEntry) *uow.AuditRecord {
	meta := map[string]string{
		"source_module": entry.SourceModule,
		"status":        string(entry.Status),
	}
	if entry.SourceReferenceID != "" {
		meta["source_reference_id"] = entry.SourceReferenceID
	}
	if entry.JournalNumber != nil {
		meta["journal_number"] = fmt.Sprintf("%d", *entry.JournalNumber)
	}
	return &uow.AuditRecord{
		Action:     action,
		EntityType: EntityTypeJournalEntry,
		EntityID:   entry.ID.String(),
		Metadata:   meta,
	}
}
