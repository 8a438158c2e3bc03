package ledger

import (
	"context"
	"fmt"
	"strings"

	"github.com/erp/ledger/internal/application/uow"
	"github.com/erp/ledger/internal/domain/ledger"
	"github.com/erp/ledger/internal/infrastructure/telemetry"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// ResolutionTier names the step of the fallback chain that produced an account
type ResolutionTier string

const (
	TierEntity          ResolutionTier = "entity"
	TierTypeDefault     ResolutionTier = "type_default"
	TierSettingsDefault ResolutionTier = "settings_default"
	TierUnmapped        ResolutionTier = "unmapped"
)

// Resolution is the outcome of resolving one category
type Resolution struct {
	AccountID  uuid.UUID
	Tier       ResolutionTier
	Category   ledger.Category
	EntityType string
	EntityID   string
	// Reason explains an unmapped result
	Reason string
}

// Mapped reports whether an account was found
func (r Resolution) Mapped() bool {
	return r.Tier != TierUnmapped && r.AccountID != uuid.Nil
}

// ControlAccountResolver resolves semantic categories to GL accounts: the entity's
// own mapping row, then the entity type's default row, then the tenant's control
// account default. Anything else is unmapped and must not be guessed.
type ControlAccountResolver struct {
	metrics *telemetry.LedgerMetrics
	logger  *zap.Logger
}

// NewControlAccountResolver creates a ControlAccountResolver
func NewControlAccountResolver(metrics *telemetry.LedgerMetrics, logger *zap.Logger) *ControlAccountResolver {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ControlAccountResolver{metrics: metrics, logger: logger}
}

// Resolve looks up the account for category. settings may be nil, in which case the
// settings tier is skipped. An empty entityType uses the category's default type.
func (r *ControlAccountResolver) Resolve(ctx context.Context, repos uow.Repositories, settings *ledger.AccountingSettings, tenantID uuid.UUID, category ledger.Category, entityType, entityID string) (Resolution, error) {
	res := Resolution{
		Tier:       TierUnmapped,
		Category:   ledger.Category(strings.ToLower(strings.TrimSpace(string(category)))),
		EntityType: strings.TrimSpace(entityType),
		EntityID:   strings.TrimSpace(entityID),
	}
	spec, ok := ledger.LookupCategory(res.Category)
	if !ok {
		res.Reason = "unknown category"
		return res, nil
	}
	if res.EntityType == "" {
		res.EntityType = spec.EntityType
	}

	mappings := repos.Mappings()
	if res.EntityID != "" && res.EntityID != ledger.DefaultEntityID {
		m, err := mappings.Find(ctx, tenantID, res.EntityType, res.EntityID)
		if err != nil {
			return res, fmt.Errorf("failed to read gl mapping: %w", err)
		}
		if id := m.AccountFor(spec.Role); id != nil {
			res.AccountID, res.Tier = *id, TierEntity
			return res, nil
		}
	}

	m, err := mappings.Find(ctx, tenantID, res.EntityType, ledger.DefaultEntityID)
	if err != nil {
		return res, fmt.Errorf("failed to read default gl mapping: %w", err)
	}
	if id := m.AccountFor(spec.Role); id != nil {
		res.AccountID, res.Tier = *id, TierTypeDefault
		return res, nil
	}

	if spec.Control != "" {
		if id := settings.DefaultFor(spec.Control); id != nil {
			res.AccountID, res.Tier = *id, TierSettingsDefault
			return res, nil
		}
		res.Reason = fmt.Sprintf("no %s mapping for %s and no %s default", spec.Role, res.EntityType, spec.Control)
		return res, nil
	}
	res.Reason = fmt.Sprintf("no %s mapping for %s", spec.Role, res.EntityType)
	return res, nil
}

// RecordUnmapped stores an unmapped-event record for operator remediation
func (r *ControlAccountResolver) RecordUnmapped(ctx context.Context, repos uow.Repositories, tenantID uuid.UUID, sourceModule, sourceReferenceID string, res Resolution, payload []byte) error {
	ev := ledger.NewUnmappedEvent(tenantID, sourceModule, sourceReferenceID, res.Category, res.EntityType, res.EntityID, res.Reason)
	ev.Payload = payload
	existing, err := repos.Unmapped().FindOpen(ctx, ev)
	if err != nil {
		return fmt.Errorf("failed to look up unmapped event: %w", err)
	}
	if existing != nil {
		return nil
	}
	if err := repos.Unmapped().Create(ctx, ev); err != nil {
		return fmt.Errorf("failed to record unmapped event: %w", err)
	}
	r.logger.Warn("gl category unmapped",
		zap.String("tenant_id", tenantID.String()),
		zap.String("source_module", sourceModule),
		zap.String("source_reference_id", sourceReferenceID),
		zap.String("category", string(res.Category)),
		zap.String("entity_type", res.EntityType),
		zap.String("entity_id", res.EntityID),
		zap.String("reason", res.Reason),
	)
	r.metrics.RecordUnmapped(ctx, tenantID, string(res.Category))
	return nil
}
