package ledger

import (
	"strings"

	"github.com/erp/ledger/internal/domain/shared"
	"github.com/google/uuid"
)

// AccountType is the top-level GL account category
type AccountType string

const (
	AccountTypeAsset     AccountType = "asset"
	AccountTypeLiability AccountType = "liability"
	AccountTypeEquity    AccountType = "equity"
	AccountTypeRevenue   AccountType = "revenue"
	AccountTypeExpense   AccountType = "expense"
)

// IsValid checks if the account type is known
func (t AccountType) IsValid() bool {
	switch t {
	case AccountTypeAsset, AccountTypeLiability, AccountTypeEquity, AccountTypeRevenue, AccountTypeExpense:
		return true
	}
	return false
}

// NormalBalance returns the side on which balances of this type increase
func (t AccountType) NormalBalance() NormalBalance {
	switch t {
	case AccountTypeAsset, AccountTypeExpense:
		return NormalBalanceDebit
	default:
		return NormalBalanceCredit
	}
}

// ParseAccountType parses a loosely formatted account type ("Assets", "EXPENSE")
func ParseAccountType(s string) (AccountType, bool) {
	v := strings.ToLower(strings.TrimSpace(s))
	v = strings.TrimSuffix(v, "s")
	switch v {
	case "asset":
		return AccountTypeAsset, true
	case "liabilitie", "liability":
		return AccountTypeLiability, true
	case "equity", "equitie":
		return AccountTypeEquity, true
	case "revenue", "income":
		return AccountTypeRevenue, true
	case "expense", "cost":
		return AccountTypeExpense, true
	}
	return "", false
}

// NormalBalance is the debit/credit side of an account
type NormalBalance string

const (
	NormalBalanceDebit  NormalBalance = "debit"
	NormalBalanceCredit NormalBalance = "credit"
)

// Account is a GL account in a tenant's chart of accounts
type Account struct {
	shared.BaseEntity
	TenantID           uuid.UUID
	AccountNumber      string
	Name               string
	AccountType        AccountType
	NormalBalance      NormalBalance
	ClassificationID   *uuid.UUID
	ParentAccountID    *uuid.UUID
	IsControlAccount   bool
	ControlAccountType *ControlAccountType
	IsActive           bool
	AllowManualPosting bool
	Description        string
}

// NewAccount creates an active account that accepts manual postings
func NewAccount(tenantID uuid.UUID, number, name string, accountType AccountType, classificationID *uuid.UUID) (*Account, error) {
	number = strings.TrimSpace(number)
	name = strings.TrimSpace(name)
	if number == "" {
		return nil, shared.NewValidationError("INVALID_ACCOUNT_NUMBER", "Account number cannot be empty")
	}
	if name == "" {
		return nil, shared.NewValidationError("INVALID_ACCOUNT_NAME", "Account name cannot be empty")
	}
	if !accountType.IsValid() {
		return nil, shared.NewValidationError("INVALID_ACCOUNT_TYPE", "Unknown account type: "+string(accountType))
	}
	return &Account{
		BaseEntity:         shared.NewBaseEntity(),
		TenantID:           tenantID,
		AccountNumber:      number,
		Name:               name,
		AccountType:        accountType,
		NormalBalance:      accountType.NormalBalance(),
		ClassificationID:   classificationID,
		IsActive:           true,
		AllowManualPosting: true,
	}, nil
}

// MarkControl designates the account as the control account of the given type.
// Control accounts are fed by automated postings only.
func (a *Account) MarkControl(ct ControlAccountType) {
	a.IsControlAccount = true
	a.ControlAccountType = &ct
	a.AllowManualPosting = false
	a.Touch()
}

// Deactivate soft-disables the account
func (a *Account) Deactivate() {
	a.IsActive = false
	a.Touch()
}

// Activate re-enables the account
func (a *Account) Activate() {
	a.IsActive = true
	a.Touch()
}

// CanPost checks whether a line for the given source module may hit this account
func (a *Account) CanPost(sourceModule string) error {
	if !a.IsActive {
		return shared.NewValidationError("ACCOUNT_INACTIVE", "Account "+a.AccountNumber+" is inactive")
	}
	if sourceModule == SourceModuleManual && !a.AllowManualPosting {
		return shared.NewValidationError("MANUAL_POSTING_NOT_ALLOWED", "Account "+a.AccountNumber+" does not allow manual postings")
	}
	return nil
}
