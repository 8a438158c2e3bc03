package ledger

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/erp/ledger/internal/application/uow"
	"github.com/erp/ledger/internal/domain/coa"
	"github.com/erp/ledger/internal/domain/ledger"
	"github.com/erp/ledger/internal/domain/shared"
	"github.com/erp/ledger/internal/infrastructure/telemetry"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// OperationBootstrapCOA is the idempotency operation name of BootstrapTenantCOA
const OperationBootstrapCOA = "bootstrap_tenant_coa"

// BootstrapConfig holds the settings written for newly bootstrapped tenants
type BootstrapConfig struct {
	DefaultTemplateKey    string
	DefaultToleranceCents int64
	DefaultAutoPostMode   ledger.AutoPostMode
}

// DefaultBootstrapConfig seeds the standard template with auto posting and a 5 cent tolerance
func DefaultBootstrapConfig() BootstrapConfig {
	return BootstrapConfig{
		DefaultTemplateKey:    coa.TemplateStandard,
		DefaultToleranceCents: ledger.DefaultRoundingToleranceCents,
		DefaultAutoPostMode:   ledger.AutoPostModeAuto,
	}
}

// BootstrapService seeds a tenant's chart of accounts and accounting settings
type BootstrapService struct {
	exec   *uow.Executor
	cfg    BootstrapConfig
	logger *zap.Logger
}

// NewBootstrapService creates a BootstrapService
func NewBootstrapService(exec *uow.Executor, cfg BootstrapConfig, logger *zap.Logger) *BootstrapService {
	if cfg.DefaultToleranceCents < 0 {
		cfg.DefaultToleranceCents = ledger.DefaultRoundingToleranceCents
	}
	if !cfg.DefaultAutoPostMode.IsValid() {
		cfg.DefaultAutoPostMode = ledger.AutoPostModeAuto
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &BootstrapService{exec: exec, cfg: cfg, logger: logger}
}

// BootstrapTenantCOA seeds classifications and accounts from a template and binds the
// control-account defaults. A tenant that already has accounting settings is left
// untouched and its current counts are returned.
func (s *BootstrapService) BootstrapTenantCOA(ctx context.Context, cc uow.CommandContext, templateKey string, stateName *string) (*BootstrapResult, error) {
	key := strings.ToLower(strings.TrimSpace(templateKey))
	if key == "" {
		key = strings.ToLower(strings.TrimSpace(s.cfg.DefaultTemplateKey))
	}
	state := ""
	if stateName != nil {
		state = strings.TrimSpace(*stateName)
	}

	ctx, span := telemetry.StartServiceSpan(ctx, "ledger", "bootstrap_tenant_coa")
	defer span.End()
	telemetry.SetAttributes(span,
		telemetry.SpanAttrTenantID, cc.TenantID.String(),
		telemetry.SpanAttrTemplateKey, key,
	)

	res, err := uow.Run(ctx, s.exec, cc, OperationBootstrapCOA, func(ctx context.Context, repos uow.Repositories) (uow.Outcome[*BootstrapResult], error) {
		existing, err := repos.Settings().FindByTenant(ctx, cc.TenantID)
		if err != nil {
			return uow.Outcome[*BootstrapResult]{}, fmt.Errorf("failed to load accounting settings: %w", err)
		}
		if existing != nil {
			r, err := currentCounts(ctx, repos, existing)
			return uow.Outcome[*BootstrapResult]{Result: r}, err
		}
		return s.seed(ctx, repos, cc, key, state)
	})
	if err != nil && errors.Is(err, shared.ErrUniqueViolation) {
		// a concurrent bootstrap of the same tenant committed first
		repos := s.exec.Scope().Repositories()
		existing, ferr := repos.Settings().FindByTenant(ctx, cc.TenantID)
		if ferr == nil && existing != nil {
			return currentCounts(ctx, repos, existing)
		}
	}
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}
	return res, nil
}

func (s *BootstrapService) seed(ctx context.Context, repos uow.Repositories, cc uow.CommandContext, key, state string) (uow.Outcome[*BootstrapResult], error) {
	templates := coa.AccountTemplates(key)
	if len(templates) == 0 {
		return uow.Outcome[*BootstrapResult]{}, shared.NewValidationError("MISSING_TEMPLATE",
			fmt.Sprintf("Chart of accounts template %q not found (available: %s)", key, strings.Join(coa.TemplateKeys(), ", ")))
	}

	classifications, insertedClassifications, err := seedClassifications(ctx, repos, cc.TenantID)
	if err != nil {
		return uow.Outcome[*BootstrapResult]{}, err
	}

	controls := make(map[ledger.ControlAccountType]uuid.UUID)
	var fresh []*ledger.Account
	for _, tmpl := range templates {
		t := tmpl.Resolve(state)
		acct, err := repos.Accounts().FindByNumber(ctx, cc.TenantID, t.Number)
		if err != nil {
			return uow.Outcome[*BootstrapResult]{}, err
		}
		ct, isControl := coa.ControlTypeFor(t)
		if acct != nil {
			if isControl && !acct.IsControlAccount {
				acct.MarkControl(ct)
				if err := repos.Accounts().Save(ctx, acct); err != nil {
					return uow.Outcome[*BootstrapResult]{}, err
				}
			}
		} else {
			var classID *uuid.UUID
			if c, ok := classifications[ledger.NormalizeClassificationName(t.Classification)]; ok {
				id := c.ID
				classID = &id
			}
			acct, err = ledger.NewAccount(cc.TenantID, t.Number, t.Name, t.AccountType, classID)
			if err != nil {
				return uow.Outcome[*BootstrapResult]{}, err
			}
			acct.Description = t.Description
			if isControl {
				acct.MarkControl(ct)
			}
			fresh = append(fresh, acct)
		}
		if isControl {
			if _, taken := controls[ct]; !taken {
				controls[ct] = acct.ID
			}
		}
	}
	if len(fresh) > 0 {
		if err := repos.Accounts().SaveBatch(ctx, fresh); err != nil {
			return uow.Outcome[*BootstrapResult]{}, err
		}
	}

	settings := ledger.NewAccountingSettings(cc.TenantID)
	settings.COATemplateKey = key
	settings.RoundingToleranceCents = s.cfg.DefaultToleranceCents
	settings.AutoPostMode = s.cfg.DefaultAutoPostMode
	for ct, id := range controls {
		if err := settings.SetDefault(ct, id); err != nil {
			return uow.Outcome[*BootstrapResult]{}, err
		}
	}
	if err := repos.Settings().Create(ctx, settings); err != nil {
		return uow.Outcome[*BootstrapResult]{}, err
	}

	result, err := currentCounts(ctx, repos, settings)
	if err != nil {
		return uow.Outcome[*BootstrapResult]{}, err
	}
	result.AlreadyBootstrapped = false

	s.logger.Info("tenant chart of accounts bootstrapped",
		zap.String("tenant_id", cc.TenantID.String()),
		zap.String("template_key", key),
		zap.Int("classifications_inserted", insertedClassifications),
		zap.Int("accounts_inserted", len(fresh)),
		zap.Int("control_accounts", len(controls)),
	)

	return uow.Outcome[*BootstrapResult]{
		Result: result,
		Events: []shared.DomainEvent{ledger.NewCOABootstrappedEvent(settings, state, insertedClassifications, len(fresh))},
		Audit: &uow.AuditRecord{
			Action:     "coa.bootstrap",
			EntityType: "accounting_settings",
			EntityID:   settings.ID.String(),
			Metadata: map[string]string{
				"template_key":     key,
				"state_name":       state,
				"accounts_created": fmt.Sprintf("%d", len(fresh)),
			},
		},
	}, nil
}

// seedClassifications inserts the shared classifications the tenant lacks and
// returns all of them keyed by normalized name
func seedClassifications(ctx context.Context, repos uow.Repositories, tenantID uuid.UUID) (map[string]*ledger.Classification, int, error) {
	existing, err := repos.Classifications().List(ctx, tenantID)
	if err != nil {
		return nil, 0, err
	}
	byName := make(map[string]*ledger.Classification, len(existing))
	for _, c := range existing {
		byName[c.NormalizedName] = c
	}

	inserted := 0
	for _, tmpl := range coa.SharedClassifications() {
		norm := ledger.NormalizeClassificationName(tmpl.Name)
		if _, ok := byName[norm]; ok {
			continue
		}
		c, err := ledger.NewClassification(tenantID, tmpl.Name, tmpl.AccountType, tmpl.SortOrder)
		if err != nil {
			return nil, 0, err
		}
		if err := repos.Classifications().Save(ctx, c); err != nil {
			return nil, 0, err
		}
		byName[norm] = c
		inserted++
	}
	return byName, inserted, nil
}

func currentCounts(ctx context.Context, repos uow.Repositories, settings *ledger.AccountingSettings) (*BootstrapResult, error) {
	classifications, err := repos.Classifications().Count(ctx, settings.TenantID)
	if err != nil {
		return nil, err
	}
	accounts, err := repos.Accounts().Count(ctx, settings.TenantID)
	if err != nil {
		return nil, err
	}
	controls := make(map[string]uuid.UUID)
	for _, ct := range ledger.ControlAccountTypes {
		if id := settings.DefaultFor(ct); id != nil {
			controls[string(ct)] = *id
		}
	}
	return &BootstrapResult{
		TenantID:            settings.TenantID,
		TemplateKey:         settings.COATemplateKey,
		AlreadyBootstrapped: true,
		ClassificationCount: classifications,
		AccountCount:        accounts,
		ControlAccounts:     controls,
	}, nil
}
