package ledger

import (
	"context"
	"errors"

	"github.com/erp/ledger/internal/application/uow"
	"github.com/erp/ledger/internal/domain/ledger"
	"github.com/erp/ledger/internal/domain/shared"
	"github.com/google/uuid"
)

const (
	OperationCreateClassification = "create_gl_classification"
	OperationUpdateClassification = "update_gl_classification"
)

// ClassificationService manages GL classifications
type ClassificationService struct {
	exec *uow.Executor
}

// NewClassificationService creates a ClassificationService
func NewClassificationService(exec *uow.Executor) *ClassificationService {
	return &ClassificationService{exec: exec}
}

// CreateGLClassification creates a classification whose name is unique per tenant
// ignoring case
func (s *ClassificationService) CreateGLClassification(ctx context.Context, cc uow.CommandContext, req CreateClassificationRequest) (*ClassificationResponse, error) {
	resp, err := uow.Run(ctx, s.exec, cc, OperationCreateClassification, func(ctx context.Context, repos uow.Repositories) (uow.Outcome[*ClassificationResponse], error) {
		c, err := ledger.NewClassification(cc.TenantID, req.Name, ledger.AccountType(req.AccountType), req.SortOrder)
		if err != nil {
			return uow.Outcome[*ClassificationResponse]{}, err
		}
		if err := ensureUniqueClassification(ctx, repos, cc.TenantID, c); err != nil {
			return uow.Outcome[*ClassificationResponse]{}, err
		}
		if err := repos.Classifications().Save(ctx, c); err != nil {
			return uow.Outcome[*ClassificationResponse]{}, err
		}
		return uow.Outcome[*ClassificationResponse]{
			Result: toClassificationResponse(c),
			Audit:  classificationAudit("classification.create", c),
		}, nil
	})
	return resp, duplicateClassification(err)
}

// UpdateGLClassification renames or re-sorts a classification
func (s *ClassificationService) UpdateGLClassification(ctx context.Context, cc uow.CommandContext, id uuid.UUID, req UpdateClassificationRequest) (*ClassificationResponse, error) {
	resp, err := uow.Run(ctx, s.exec, cc, OperationUpdateClassification, func(ctx context.Context, repos uow.Repositories) (uow.Outcome[*ClassificationResponse], error) {
		c, err := repos.Classifications().FindByID(ctx, cc.TenantID, id)
		if err != nil {
			return uow.Outcome[*ClassificationResponse]{}, err
		}
		if c == nil {
			return uow.Outcome[*ClassificationResponse]{}, shared.NewNotFoundError("CLASSIFICATION", "Classification not found: "+id.String())
		}
		if err := c.Update(req.Name, ledger.AccountType(req.AccountType), req.SortOrder); err != nil {
			return uow.Outcome[*ClassificationResponse]{}, err
		}
		if err := ensureUniqueClassification(ctx, repos, cc.TenantID, c); err != nil {
			return uow.Outcome[*ClassificationResponse]{}, err
		}
		if err := repos.Classifications().Save(ctx, c); err != nil {
			return uow.Outcome[*ClassificationResponse]{}, err
		}
		return uow.Outcome[*ClassificationResponse]{
			Result: toClassificationResponse(c),
			Audit:  classificationAudit("classification.update", c),
		}, nil
	})
	return resp, duplicateClassification(err)
}

// ListGLClassifications returns the tenant's classifications ordered by sort order
func (s *ClassificationService) ListGLClassifications(ctx context.Context, tenantID uuid.UUID) ([]ClassificationResponse, error) {
	items, err := s.exec.Scope().Repositories().Classifications().List(ctx, tenantID)
	if err != nil {
		return nil, err
	}
	out := make([]ClassificationResponse, len(items))
	for i, c := range items {
		out[i] = *toClassificationResponse(c)
	}
	return out, nil
}

func ensureUniqueClassification(ctx context.Context, repos uow.Repositories, tenantID uuid.UUID, c *ledger.Classification) error {
	existing, err := repos.Classifications().FindByNormalizedName(ctx, tenantID, c.NormalizedName)
	if err != nil {
		return err
	}
	if existing != nil && existing.ID != c.ID {
		return classificationConflict(c.Name)
	}
	return nil
}

// duplicateClassification turns a lost insert race on the name index into a conflict
func duplicateClassification(err error) error {
	if err != nil && errors.Is(err, shared.ErrUniqueViolation) {
		return classificationConflict("")
	}
	return err
}

func classificationConflict(name string) error {
	msg := "A classification with this name already exists"
	if name != "" {
		msg = "A classification named '" + name + "' already exists"
	}
	return shared.NewConflictError("DUPLICATE_CLASSIFICATION", msg)
}

func classificationAudit(action string, c *ledger.Classification) *uow.AuditRecord {
	return &uow.AuditRecord{
		Action:     action,
		EntityType: "gl_classification",
		EntityID:   c.ID.String(),
		Metadata:   map[string]string{"name": c.Name, "account_type": string(c.AccountType)},
	}
}
