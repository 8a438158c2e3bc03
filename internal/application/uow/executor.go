package uow

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/erp/ledger/internal/domain/ledger"
	"github.com/erp/ledger/internal/domain/shared"
	"github.com/erp/ledger/internal/infrastructure/telemetry"
	"go.uber.org/zap"
)

// AuditRecord describes the audit-log entry written once the command commits
type AuditRecord struct {
	Action     string
	EntityType string
	EntityID   string
	Metadata   map[string]string
}

// Outcome is what a command body hands back to the executor
type Outcome[T any] struct {
	Result T
	Events []shared.DomainEvent
	// Audit is nil when the command changed nothing
	Audit *AuditRecord
	// AfterCommit runs after a successful commit, never on replay
	AfterCommit func(ctx context.Context)
}

// Executor runs commands through the transaction scope with idempotency-key
// handling and post-commit auditing.
type Executor struct {
	scope  TransactionScope
	audit  ledger.AuditRepository
	logger *zap.Logger
}

// NewExecutor creates an Executor
func NewExecutor(scope TransactionScope, audit ledger.AuditRepository, logger *zap.Logger) *Executor {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Executor{scope: scope, audit: audit, logger: logger}
}

// Scope returns the underlying transaction scope
func (e *Executor) Scope() TransactionScope {
	return e.scope
}

// Run executes work as operation for cc.
//
// When cc carries a ClientRequestID the idempotency key is looked up inside the
// transaction; a hit replays the cached result without running work. Otherwise work
// runs and the key is inserted in the same transaction. Two concurrent first
// attempts both miss the key; the loser fails on the key's unique constraint, rolls
// back, and replays the winner's result.
func Run[T any](ctx context.Context, e *Executor, cc CommandContext, operation string, work func(ctx context.Context, repos Repositories) (Outcome[T], error)) (T, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "uow", operation)
	defer span.End()
	telemetry.SetAttributes(span,
		telemetry.SpanAttrTenantID, cc.TenantID.String(),
		telemetry.SpanAttrOperation, operation,
		telemetry.SpanAttrRequestID, cc.ClientRequestID,
	)

	var (
		zero     T
		out      Outcome[T]
		replayed bool
	)

	err := e.scope.Execute(ctx, func(ctx context.Context, repos Repositories) ([]shared.DomainEvent, error) {
		if cc.ClientRequestID != "" {
			key, err := repos.IdempotencyKeys().Find(ctx, cc.TenantID, cc.ClientRequestID, operation)
			if err != nil {
				return nil, fmt.Errorf("failed to read idempotency key: %w", err)
			}
			if key != nil {
				if err := json.Unmarshal(key.CachedResult, &out.Result); err != nil {
					return nil, fmt.Errorf("failed to decode cached result: %w", err)
				}
				replayed = true
				return nil, nil
			}
		}

		o, err := work(ctx, repos)
		if err != nil {
			return nil, err
		}
		out = o

		if cc.ClientRequestID != "" {
			payload, err := json.Marshal(o.Result)
			if err != nil {
				return nil, fmt.Errorf("failed to encode result: %w", err)
			}
			key := ledger.NewIdempotencyKey(cc.TenantID, cc.ClientRequestID, operation, payload)
			if err := repos.IdempotencyKeys().Create(ctx, key); err != nil {
				return nil, err
			}
		}
		return o.Events, nil
	})

	if err != nil && cc.ClientRequestID != "" && errors.Is(err, shared.ErrUniqueViolation) {
		key, ferr := e.scope.Repositories().IdempotencyKeys().Find(ctx, cc.TenantID, cc.ClientRequestID, operation)
		if ferr == nil && key != nil {
			var result T
			if uerr := json.Unmarshal(key.CachedResult, &result); uerr == nil {
				e.logger.Info("concurrent duplicate request resolved to first result",
					zap.String("operation", operation),
					zap.String("client_request_id", cc.ClientRequestID),
				)
				telemetry.AddEvent(span, "idempotent_replay")
				return result, nil
			}
		}
	}
	if err != nil {
		telemetry.RecordError(span, err)
		return zero, err
	}

	if replayed {
		telemetry.AddEvent(span, "idempotent_replay")
		return out.Result, nil
	}
	if out.AfterCommit != nil {
		out.AfterCommit(ctx)
	}
	if out.Audit != nil {
		e.writeAudit(ctx, cc, out.Audit)
	}
	return out.Result, nil
}

// writeAudit records the audit entry; the command has already committed, so
// failures are logged rather than returned
func (e *Executor) writeAudit(ctx context.Context, cc CommandContext, rec *AuditRecord) {
	if e.audit == nil {
		return
	}
	entry := ledger.NewAuditEntry(cc.TenantID, cc.ActorUserID, rec.Action, rec.EntityType, rec.EntityID)
	entry.Metadata = rec.Metadata
	if err := e.audit.Create(ctx, entry); err != nil {
		e.logger.Error("failed to write audit entry",
			zap.String("action", rec.Action),
			zap.String("entity_type", rec.EntityType),
			zap.String("entity_id", rec.EntityID),
			zap.Error(err),
		)
	}
}
