package adapter

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"runtime/debug"
	"strings"
	"time"

	ledgerapp "github.com/erp/ledger/internal/application/ledger"
	"github.com/erp/ledger/internal/application/uow"
	"github.com/erp/ledger/internal/domain/ledger"
	"github.com/erp/ledger/internal/domain/shared"
	"github.com/erp/ledger/internal/domain/shared/valueobject"
	"github.com/erp/ledger/internal/infrastructure/telemetry"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// PostingEngine is the part of the posting engine the adapter drives
type PostingEngine interface {
	PostEntry(ctx context.Context, cc uow.CommandContext, req ledgerapp.PostEntryRequest) (*ledgerapp.JournalEntryResponse, error)
}

// AccountResolver resolves categories to accounts and records the ones it cannot
type AccountResolver interface {
	Resolve(ctx context.Context, repos uow.Repositories, settings *ledger.AccountingSettings, tenantID uuid.UUID, category ledger.Category, entityType, entityID string) (ledgerapp.Resolution, error)
	RecordUnmapped(ctx context.Context, repos uow.Repositories, tenantID uuid.UUID, sourceModule, sourceReferenceID string, res ledgerapp.Resolution, payload []byte) error
}

// FnBPostingHandler posts F&B sales summaries to the ledger. Lines whose category
// cannot be resolved are dropped and recorded as unmapped; a batch with fewer than
// two resolved lines is skipped entirely. Handle never returns an error so one
// tenant's posting failure cannot stall event delivery.
type FnBPostingHandler struct {
	scope    uow.TransactionScope
	engine   PostingEngine
	resolver AccountResolver
	metrics  *telemetry.LedgerMetrics
	logger   *zap.Logger
}

// NewFnBPostingHandler creates a FnBPostingHandler
func NewFnBPostingHandler(
	scope uow.TransactionScope,
	engine PostingEngine,
	resolver AccountResolver,
	metrics *telemetry.LedgerMetrics,
	logger *zap.Logger,
) *FnBPostingHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &FnBPostingHandler{
		scope:    scope,
		engine:   engine,
		resolver: resolver,
		metrics:  metrics,
		logger:   logger,
	}
}

// EventTypes returns the event types this handler is interested in
func (h *FnBPostingHandler) EventTypes() []string {
	return []string{EventTypeFnBPostingCreated}
}

// Handle processes a FnBPostingCreatedEvent. It always returns nil.
func (h *FnBPostingHandler) Handle(ctx context.Context, event shared.DomainEvent) (err error) {
	var eventID string
	defer func() {
		if r := recover(); r != nil {
			h.logger.Error("panic while posting f&b batch",
				zap.String("event_id", eventID),
				zap.Any("panic", r),
				zap.ByteString("stack", debug.Stack()),
			)
			h.metrics.RecordAdapterOutcome(ctx, SourceModuleFnB, telemetry.AdapterOutcomeFailed)
			err = nil
		}
	}()

	if event == nil {
		h.logger.Error("nil event delivered to f&b posting handler")
		return nil
	}
	posting, ok := event.(*FnBPostingCreatedEvent)
	if !ok {
		h.logger.Error("unexpected event type",
			zap.String("expected", EventTypeFnBPostingCreated),
			zap.String("actual", event.EventType()),
		)
		return nil
	}
	if posting == nil {
		h.logger.Error("nil f&b posting event")
		return nil
	}
	eventID = posting.EventID().String()

	ctx, span := telemetry.StartServiceSpan(ctx, "adapter", "fnb_posting")
	defer span.End()
	telemetry.SetAttributes(span,
		telemetry.SpanAttrTenantID, posting.TenantID().String(),
		telemetry.SpanAttrSourceModule, SourceModuleFnB,
		telemetry.SpanAttrSourceRef, posting.SourceReferenceID,
		telemetry.SpanAttrLineCount, len(posting.JournalLines),
	)

	outcome, perr := h.process(ctx, posting)
	fields := []zap.Field{
		zap.String("tenant_id", posting.TenantID().String()),
		zap.String("source_reference_id", posting.SourceReferenceID),
		zap.String("business_date", posting.BusinessDate),
		zap.String("outcome", outcome),
	}
	if perr != nil {
		telemetry.RecordError(span, perr)
		h.logger.Error("f&b posting failed", append(fields, zap.Error(perr))...)
	} else {
		h.logger.Info("f&b posting processed", fields...)
	}
	h.metrics.RecordAdapterOutcome(ctx, SourceModuleFnB, outcome)
	return nil
}

type resolvedLine struct {
	line      FnBPostingLine
	accountID uuid.UUID
}

// process is the error-returning pipeline behind Handle
func (h *FnBPostingHandler) process(ctx context.Context, ev *FnBPostingCreatedEvent) (string, error) {
	tenantID := ev.TenantID()
	sourceRef := strings.TrimSpace(ev.SourceReferenceID)
	if sourceRef == "" {
		return telemetry.AdapterOutcomeFailed, shared.NewValidationError("MISSING_SOURCE_REFERENCE", "F&B posting has no source reference")
	}
	entryDate, err := time.Parse(time.DateOnly, ev.BusinessDate)
	if err != nil {
		return telemetry.AdapterOutcomeFailed, shared.NewValidationError("INVALID_BUSINESS_DATE", "Invalid business date: "+ev.BusinessDate)
	}

	var (
		resolved  []resolvedLine
		duplicate bool
	)
	err = h.scope.Execute(ctx, func(ctx context.Context, repos uow.Repositories) ([]shared.DomainEvent, error) {
		existing, err := repos.Journals().FindBySource(ctx, tenantID, SourceModuleFnB, sourceRef)
		if err != nil {
			return nil, err
		}
		if existing != nil {
			duplicate = true
			return nil, nil
		}

		settings, err := repos.Settings().FindByTenant(ctx, tenantID)
		if err != nil {
			return nil, err
		}
		if settings == nil {
			return nil, shared.NewAppError("SETTINGS_NOT_FOUND", "Tenant has no accounting settings")
		}

		for _, line := range ev.JournalLines {
			res, err := h.resolver.Resolve(ctx, repos, settings, tenantID, ledger.Category(line.Category), line.EntityType, line.EntityID)
			if err != nil {
				return nil, err
			}
			if !res.Mapped() {
				payload, _ := json.Marshal(line)
				if err := h.resolver.RecordUnmapped(ctx, repos, tenantID, SourceModuleFnB, sourceRef, res, payload); err != nil {
					return nil, err
				}
				continue
			}
			resolved = append(resolved, resolvedLine{line: line, accountID: res.AccountID})
		}
		return nil, nil
	})
	if err != nil {
		return telemetry.AdapterOutcomeFailed, err
	}
	if duplicate {
		return telemetry.AdapterOutcomeDuplicate, nil
	}
	if len(resolved) < 2 {
		h.logger.Warn("f&b posting skipped: fewer than two lines resolved",
			zap.String("tenant_id", tenantID.String()),
			zap.String("source_reference_id", sourceRef),
			zap.Int("lines", len(ev.JournalLines)),
			zap.Int("resolved", len(resolved)),
		)
		return telemetry.AdapterOutcomeSkipped, nil
	}

	req := ledgerapp.PostEntryRequest{
		SourceModule:      SourceModuleFnB,
		SourceReferenceID: sourceRef,
		EntryDate:         entryDate,
		Memo:              fmt.Sprintf("F&B sales %s", ev.BusinessDate),
		Lines:             make([]ledgerapp.JournalLineRequest, 0, len(resolved)),
	}
	for _, r := range resolved {
		jl := ledgerapp.JournalLineRequest{
			AccountID:   r.accountID,
			Description: r.line.Description,
			Channel:     SourceModuleFnB,
			LocationID:  ev.LocationID,
		}
		if r.line.DebitCents != 0 {
			jl.DebitAmount = valueobject.Cents(r.line.DebitCents).DollarString()
		}
		if r.line.CreditCents != 0 {
			jl.CreditAmount = valueobject.Cents(r.line.CreditCents).DollarString()
		}
		req.Lines = append(req.Lines, jl)
	}

	cc := uow.CommandContext{TenantID: tenantID, ActorUserID: ev.ActorID}
	entry, err := h.engine.PostEntry(ctx, cc, req)
	if err != nil {
		if errors.Is(err, shared.ErrUniqueViolation) {
			return telemetry.AdapterOutcomeDuplicate, nil
		}
		return telemetry.AdapterOutcomeFailed, err
	}
	telemetry.SetAttribute(telemetry.SpanFromContext(ctx), telemetry.SpanAttrJournalEntryID, entry.ID.String())
	return telemetry.AdapterOutcomePosted, nil
}

var _ shared.EventHandler = (*FnBPostingHandler)(nil)
