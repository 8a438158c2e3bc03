package ledger

import (
	"context"
	"errors"
	"strings"

	"github.com/erp/ledger/internal/application/uow"
	"github.com/erp/ledger/internal/domain/ledger"
	"github.com/erp/ledger/internal/domain/shared"
	"github.com/google/uuid"
)

// AccountService maintains the chart of accounts outside of bootstrap
type AccountService struct {
	exec *uow.Executor
}

// NewAccountService creates an AccountService
func NewAccountService(exec *uow.Executor) *AccountService {
	return &AccountService{exec: exec}
}

// CreateAccount adds an account. Account numbers are unique per tenant and the
// account type must match its classification's type.
func (s *AccountService) CreateAccount(ctx context.Context, cc uow.CommandContext, req CreateAccountRequest) (*AccountResponse, error) {
	resp, err := uow.Run(ctx, s.exec, cc, "create_account", func(ctx context.Context, repos uow.Repositories) (uow.Outcome[*AccountResponse], error) {
		accountType := ledger.AccountType(req.AccountType)
		acct, err := ledger.NewAccount(cc.TenantID, req.AccountNumber, req.Name, accountType, req.ClassificationID)
		if err != nil {
			return uow.Outcome[*AccountResponse]{}, err
		}
		acct.Description = strings.TrimSpace(req.Description)
		if req.AllowManualPosting != nil {
			acct.AllowManualPosting = *req.AllowManualPosting
		}

		existing, err := repos.Accounts().FindByNumber(ctx, cc.TenantID, acct.AccountNumber)
		if err != nil {
			return uow.Outcome[*AccountResponse]{}, err
		}
		if existing != nil {
			return uow.Outcome[*AccountResponse]{}, duplicateAccount(acct.AccountNumber)
		}

		if req.ClassificationID != nil {
			c, err := repos.Classifications().FindByID(ctx, cc.TenantID, *req.ClassificationID)
			if err != nil {
				return uow.Outcome[*AccountResponse]{}, err
			}
			if c == nil {
				return uow.Outcome[*AccountResponse]{}, shared.NewNotFoundError("CLASSIFICATION", "Classification not found: "+req.ClassificationID.String())
			}
			if c.AccountType != accountType {
				return uow.Outcome[*AccountResponse]{}, shared.NewValidationError("CLASSIFICATION_TYPE_MISMATCH",
					"Classification '"+c.Name+"' holds "+string(c.AccountType)+" accounts")
			}
		}
		if req.ParentAccountID != nil {
			parent, err := repos.Accounts().FindByID(ctx, cc.TenantID, *req.ParentAccountID)
			if err != nil {
				return uow.Outcome[*AccountResponse]{}, err
			}
			if parent == nil {
				return uow.Outcome[*AccountResponse]{}, accountNotFound(*req.ParentAccountID)
			}
			acct.ParentAccountID = &parent.ID
		}

		if err := repos.Accounts().Save(ctx, acct); err != nil {
			return uow.Outcome[*AccountResponse]{}, err
		}
		return uow.Outcome[*AccountResponse]{Result: toAccountResponse(acct), Audit: accountAudit("account.create", acct)}, nil
	})
	if err != nil && errors.Is(err, shared.ErrUniqueViolation) {
		return nil, duplicateAccount(req.AccountNumber)
	}
	return resp, err
}

// DeactivateAccount soft-disables an account so no new line can reference it
func (s *AccountService) DeactivateAccount(ctx context.Context, cc uow.CommandContext, id uuid.UUID) (*AccountResponse, error) {
	return s.setActive(ctx, cc, id, false)
}

// ActivateAccount re-enables a deactivated account
func (s *AccountService) ActivateAccount(ctx context.Context, cc uow.CommandContext, id uuid.UUID) (*AccountResponse, error) {
	return s.setActive(ctx, cc, id, true)
}

func (s *AccountService) setActive(ctx context.Context, cc uow.CommandContext, id uuid.UUID, active bool) (*AccountResponse, error) {
	op, action := "deactivate_account", "account.deactivate"
	if active {
		op, action = "activate_account", "account.activate"
	}
	return uow.Run(ctx, s.exec, cc, op, func(ctx context.Context, repos uow.Repositories) (uow.Outcome[*AccountResponse], error) {
		acct, err := repos.Accounts().FindByID(ctx, cc.TenantID, id)
		if err != nil {
			return uow.Outcome[*AccountResponse]{}, err
		}
		if acct == nil {
			return uow.Outcome[*AccountResponse]{}, accountNotFound(id)
		}
		if active {
			acct.Activate()
		} else {
			acct.Deactivate()
		}
		if err := repos.Accounts().Save(ctx, acct); err != nil {
			return uow.Outcome[*AccountResponse]{}, err
		}
		return uow.Outcome[*AccountResponse]{Result: toAccountResponse(acct), Audit: accountAudit(action, acct)}, nil
	})
}

// DeleteAccount hard-deletes an account that no posted or voided line references
func (s *AccountService) DeleteAccount(ctx context.Context, cc uow.CommandContext, id uuid.UUID) error {
	_, err := uow.Run(ctx, s.exec, cc, "delete_account", func(ctx context.Context, repos uow.Repositories) (uow.Outcome[bool], error) {
		acct, err := repos.Accounts().FindByID(ctx, cc.TenantID, id)
		if err != nil {
			return uow.Outcome[bool]{}, err
		}
		if acct == nil {
			return uow.Outcome[bool]{}, accountNotFound(id)
		}
		if acct.IsControlAccount {
			return uow.Outcome[bool]{}, shared.NewConflictError("CONTROL_ACCOUNT", "Control account "+acct.AccountNumber+" cannot be deleted")
		}
		used, err := repos.Accounts().HasPostedLines(ctx, cc.TenantID, id)
		if err != nil {
			return uow.Outcome[bool]{}, err
		}
		if used {
			return uow.Outcome[bool]{}, shared.NewConflictError("ACCOUNT_IN_USE",
				"Account "+acct.AccountNumber+" is referenced by posted journal lines; deactivate it instead")
		}
		if err := repos.Accounts().Delete(ctx, cc.TenantID, id); err != nil {
			return uow.Outcome[bool]{}, err
		}
		return uow.Outcome[bool]{Result: true, Audit: accountAudit("account.delete", acct)}, nil
	})
	return err
}

// GetAccount returns one account
func (s *AccountService) GetAccount(ctx context.Context, tenantID, id uuid.UUID) (*AccountResponse, error) {
	acct, err := s.exec.Scope().Repositories().Accounts().FindByID(ctx, tenantID, id)
	if err != nil {
		return nil, err
	}
	if acct == nil {
		return nil, accountNotFound(id)
	}
	return toAccountResponse(acct), nil
}

// ListAccounts returns the tenant's accounts ordered by number
func (s *AccountService) ListAccounts(ctx context.Context, tenantID uuid.UUID, filter AccountListFilter) ([]AccountResponse, error) {
	f := ledger.AccountFilter{ActiveOnly: filter.ActiveOnly, Search: strings.TrimSpace(filter.Search)}
	if filter.AccountType != "" {
		t := ledger.AccountType(filter.AccountType)
		if !t.IsValid() {
			return nil, shared.NewValidationError("INVALID_ACCOUNT_TYPE", "Unknown account type: "+filter.AccountType)
		}
		f.AccountType = &t
	}
	items, err := s.exec.Scope().Repositories().Accounts().List(ctx, tenantID, f)
	if err != nil {
		return nil, err
	}
	out := make([]AccountResponse, len(items))
	for i, a := range items {
		out[i] = *toAccountResponse(a)
	}
	return out, nil
}

func accountNotFound(id uuid.UUID) error {
	return shared.NewNotFoundError("ACCOUNT", "Account not found: "+id.String())
}

func duplicateAccount(number string) error {
	return shared.NewConflictError("DUPLICATE_ACCOUNT_NUMBER", "Account number "+strings.TrimSpace(number)+" already exists")
}

func accountAudit(action string, a *ledger.Account) *uow.AuditRecord {
	return &uow.AuditRecord{
		Action:     action,
		EntityType: "gl_account",
		EntityID:   a.ID.String(),
		Metadata:   map[string]string{"account_number": a.AccountNumber},
	}
}
