package telemetry

import (
	"context"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.uber.org/zap"
)

// LedgerMetrics tracks GL posting activity: journals posted and voided, receipt
// lifecycle, cross-module adapter outcomes and unmapped categories.
// A nil *LedgerMetrics is valid and records nothing.
type LedgerMetrics struct {
	meter  metric.Meter
	logger *zap.Logger

	journalPostedTotal  *Counter
	journalVoidedTotal  *Counter
	journalAmountTotal  *Counter
	receiptTotal        *Counter
	adapterOutcomeTotal *Counter
	unmappedTotal       *Counter
}

// LedgerMetricsConfig holds configuration for ledger metrics.
type LedgerMetricsConfig struct {
	Meter  metric.Meter
	Logger *zap.Logger
}

// Adapter outcomes
const (
	AdapterOutcomePosted    = "posted"
	AdapterOutcomeDuplicate = "duplicate"
	AdapterOutcomeSkipped   = "skipped"
	AdapterOutcomeFailed    = "failed"
)

// Receipt actions
const (
	ReceiptActionCreated = "created"
	ReceiptActionPosted  = "posted"
	ReceiptActionVoided  = "voided"
)

// Metric attribute keys for ledger metrics
var (
	AttrSourceModule = attribute.Key("source_module")
	AttrCategory     = attribute.Key("category")
	AttrOutcome      = attribute.Key("outcome")
	AttrAction       = attribute.Key("action")
)

// NewLedgerMetrics creates a new LedgerMetrics instance.
func NewLedgerMetrics(cfg LedgerMetricsConfig) (*LedgerMetrics, error) {
	if cfg.Meter == nil {
		return nil, ErrMeterNil
	}

	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	lm := &LedgerMetrics{meter: cfg.Meter, logger: logger}

	counters := []struct {
		target      **Counter
		name        string
		description string
		unit        string
	}{
		{&lm.journalPostedTotal, "ledger_journal_posted_total", "Total number of journal entries posted", "{entries}"},
		{&lm.journalVoidedTotal, "ledger_journal_voided_total", "Total number of journal entries voided", "{entries}"},
		{&lm.journalAmountTotal, "ledger_journal_amount_total", "Total debit amount posted in cents", "{cents}"},
		{&lm.receiptTotal, "ledger_ar_receipt_total", "AR receipt lifecycle transitions", "{receipts}"},
		{&lm.adapterOutcomeTotal, "ledger_adapter_outcome_total", "Cross-module posting adapter outcomes", "{events}"},
		{&lm.unmappedTotal, "ledger_unmapped_category_total", "Posting categories that resolved to no account", "{lines}"},
	}
	for _, c := range counters {
		counter, err := NewCounter(cfg.Meter, c.name, c.description, c.unit)
		if err != nil {
			return nil, err
		}
		*c.target = counter
	}

	return lm, nil
}

// RecordJournalPosted records a posted entry and its debit total.
func (lm *LedgerMetrics) RecordJournalPosted(ctx context.Context, tenantID uuid.UUID, sourceModule string, debitCents int64) {
	if lm == nil {
		return
	}
	attrs := []attribute.KeyValue{AttrTenantID.String(tenantID.String()), AttrSourceModule.String(sourceModule)}
	lm.journalPostedTotal.Inc(ctx, attrs...)
	lm.journalAmountTotal.Add(ctx, debitCents, attrs...)
}

// RecordJournalVoided records a voided entry.
func (lm *LedgerMetrics) RecordJournalVoided(ctx context.Context, tenantID uuid.UUID, sourceModule string) {
	if lm == nil {
		return
	}
	lm.journalVoidedTotal.Inc(ctx, AttrTenantID.String(tenantID.String()), AttrSourceModule.String(sourceModule))
}

// RecordReceipt records an AR receipt transition ("created", "posted", "voided").
func (lm *LedgerMetrics) RecordReceipt(ctx context.Context, tenantID uuid.UUID, action string) {
	if lm == nil {
		return
	}
	lm.receiptTotal.Inc(ctx, AttrTenantID.String(tenantID.String()), AttrAction.String(action))
}

// RecordAdapterOutcome records how a cross-module posting event was handled.
func (lm *LedgerMetrics) RecordAdapterOutcome(ctx context.Context, sourceModule, outcome string) {
	if lm == nil {
		return
	}
	lm.adapterOutcomeTotal.Inc(ctx, AttrSourceModule.String(sourceModule), AttrOutcome.String(outcome))
}

// RecordUnmapped records a category that could not be resolved to an account.
func (lm *LedgerMetrics) RecordUnmapped(ctx context.Context, tenantID uuid.UUID, category string) {
	if lm == nil {
		return
	}
	lm.unmappedTotal.Inc(ctx, AttrTenantID.String(tenantID.String()), AttrCategory.String(category))
}

// ErrMeterNil is returned when meter is nil.
var ErrMeterNil = &MetricsError{Op: "NewLedgerMetrics", Err: "meter cannot be nil"}

// MetricsError represents a metrics-related error.
type MetricsError struct {
	Op  string
	Err string
}

func (e *MetricsError) Error() string {
	return e.Op + ": " + e.Err
}
