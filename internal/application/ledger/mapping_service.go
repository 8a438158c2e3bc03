package ledger

import (
	"context"
	"strings"

	"github.com/erp/ledger/internal/application/uow"
	"github.com/erp/ledger/internal/domain/ledger"
	"github.com/erp/ledger/internal/domain/shared"
	"github.com/google/uuid"
)

// MappingService maintains GL account mappings and the unmapped-event queue that
// operators work through to add them
type MappingService struct {
	exec *uow.Executor
}

// NewMappingService creates a MappingService
func NewMappingService(exec *uow.Executor) *MappingService {
	return &MappingService{exec: exec}
}

// UpsertGLAccountMapping creates or replaces the accounts bound to an entity
func (s *MappingService) UpsertGLAccountMapping(ctx context.Context, cc uow.CommandContext, req UpsertMappingRequest) (*MappingResponse, error) {
	return uow.Run(ctx, s.exec, cc, "upsert_gl_mapping", func(ctx context.Context, repos uow.Repositories) (uow.Outcome[*MappingResponse], error) {
		entityType := strings.TrimSpace(req.EntityType)
		entityID := strings.TrimSpace(req.EntityID)
		if entityID == "" {
			entityID = ledger.DefaultEntityID
		}

		m, err := repos.Mappings().Find(ctx, cc.TenantID, entityType, entityID)
		if err != nil {
			return uow.Outcome[*MappingResponse]{}, err
		}
		if m == nil {
			m, err = ledger.NewGLAccountMapping(cc.TenantID, entityType, entityID)
			if err != nil {
				return uow.Outcome[*MappingResponse]{}, err
			}
		} else {
			m.Touch()
		}
		m.RevenueAccountID = req.RevenueAccountID
		m.ExpenseAccountID = req.ExpenseAccountID
		m.LiabilityAccountID = req.LiabilityAccountID
		m.AssetAccountID = req.AssetAccountID
		m.ContraRevenueAccountID = req.ContraRevenueAccountID

		if err := ensureAccountsExist(ctx, repos, cc.TenantID, m); err != nil {
			return uow.Outcome[*MappingResponse]{}, err
		}
		if err := repos.Mappings().Save(ctx, m); err != nil {
			return uow.Outcome[*MappingResponse]{}, err
		}
		return uow.Outcome[*MappingResponse]{
			Result: toMappingResponse(m),
			Audit: &uow.AuditRecord{
				Action:     "gl_mapping.upsert",
				EntityType: "gl_account_mapping",
				EntityID:   m.ID.String(),
				Metadata:   map[string]string{"entity_type": m.EntityType, "entity_id": m.EntityID},
			},
		}, nil
	})
}

// ListGLAccountMappings returns mappings, optionally narrowed to one entity type
func (s *MappingService) ListGLAccountMappings(ctx context.Context, tenantID uuid.UUID, entityType string) ([]MappingResponse, error) {
	items, err := s.exec.Scope().Repositories().Mappings().List(ctx, tenantID, strings.TrimSpace(entityType))
	if err != nil {
		return nil, err
	}
	out := make([]MappingResponse, len(items))
	for i, m := range items {
		out[i] = *toMappingResponse(m)
	}
	return out, nil
}

// ListUnmappedEvents returns a page of unmapped-category records
func (s *MappingService) ListUnmappedEvents(ctx context.Context, tenantID uuid.UUID, openOnly bool, page shared.Pagination) (shared.Paginated[UnmappedEventResponse], error) {
	page = page.Normalize(100)
	items, total, err := s.exec.Scope().Repositories().Unmapped().List(ctx, tenantID, openOnly, page)
	if err != nil {
		return shared.Paginated[UnmappedEventResponse]{}, err
	}
	out := make([]UnmappedEventResponse, len(items))
	for i, u := range items {
		out[i] = toUnmappedEventResponse(u)
	}
	return shared.NewPaginated(out, total, page), nil
}

// ResolveUnmappedEvent marks an unmapped record as remediated
func (s *MappingService) ResolveUnmappedEvent(ctx context.Context, cc uow.CommandContext, id uuid.UUID) (*UnmappedEventResponse, error) {
	return uow.Run(ctx, s.exec, cc, "resolve_unmapped_event", func(ctx context.Context, repos uow.Repositories) (uow.Outcome[*UnmappedEventResponse], error) {
		u, err := repos.Unmapped().FindByID(ctx, cc.TenantID, id)
		if err != nil {
			return uow.Outcome[*UnmappedEventResponse]{}, err
		}
		if u == nil {
			return uow.Outcome[*UnmappedEventResponse]{}, shared.NewNotFoundError("UNMAPPED_EVENT", "Unmapped event not found: "+id.String())
		}
		if err := u.Resolve(); err != nil {
			return uow.Outcome[*UnmappedEventResponse]{}, err
		}
		if err := repos.Unmapped().Update(ctx, u); err != nil {
			return uow.Outcome[*UnmappedEventResponse]{}, err
		}
		resp := toUnmappedEventResponse(u)
		return uow.Outcome[*UnmappedEventResponse]{
			Result: &resp,
			Audit: &uow.AuditRecord{
				Action:     "unmapped_event.resolve",
				EntityType: "gl_unmapped_event",
				EntityID:   u.ID.String(),
				Metadata:   map[string]string{"category": string(u.Category)},
			},
		}, nil
	})
}

func ensureAccountsExist(ctx context.Context, repos uow.Repositories, tenantID uuid.UUID, m *ledger.GLAccountMapping) error {
	var ids []uuid.UUID
	for _, id := range []*uuid.UUID{m.RevenueAccountID, m.ExpenseAccountID, m.LiabilityAccountID, m.AssetAccountID, m.ContraRevenueAccountID} {
		if id != nil {
			ids = append(ids, *id)
		}
	}
	if len(ids) == 0 {
		return shared.NewValidationError("EMPTY_MAPPING", "Mapping must bind at least one account")
	}
	found, err := repos.Accounts().FindByIDs(ctx, tenantID, ids)
	if err != nil {
		return err
	}
	for _, id := range ids {
		if _, ok := found[id]; !ok {
			return accountNotFound(id)
		}
	}
	return nil
}
