package ledger

import (
	"github.com/erp/ledger/internal/domain/shared"
	"github.com/google/uuid"
)

// ControlAccountType names a control-account slot in AccountingSettings
type ControlAccountType string

const (
	ControlAP                   ControlAccountType = "accounts_payable"
	ControlAR                   ControlAccountType = "accounts_receivable"
	ControlSalesTaxPayable      ControlAccountType = "sales_tax_payable"
	ControlUndepositedFunds     ControlAccountType = "undeposited_funds"
	ControlRetainedEarnings     ControlAccountType = "retained_earnings"
	ControlRounding             ControlAccountType = "rounding"
	ControlTipsPayable          ControlAccountType = "tips_payable"
	ControlServiceChargeRevenue ControlAccountType = "service_charge_revenue"
	ControlUncategorizedRevenue ControlAccountType = "uncategorized_revenue"
	ControlGuestLedger          ControlAccountType = "guest_ledger"
)

// ControlAccountTypes lists every control slot in a stable order
var ControlAccountTypes = []ControlAccountType{
	ControlAP, ControlAR, ControlSalesTaxPayable, ControlUndepositedFunds, ControlRetainedEarnings,
	ControlRounding, ControlTipsPayable, ControlServiceChargeRevenue, ControlUncategorizedRevenue,
	ControlGuestLedger,
}

// IsValid checks if the control account type is known
func (c ControlAccountType) IsValid() bool {
	for _, t := range ControlAccountTypes {
		if t == c {
			return true
		}
	}
	return false
}

// AutoPostMode decides whether new entries are posted immediately or left as drafts
type AutoPostMode string

const (
	AutoPostModeAuto   AutoPostMode = "auto"
	AutoPostModeManual AutoPostMode = "manual"
)

// IsValid checks if the mode is known
func (m AutoPostMode) IsValid() bool {
	return m == AutoPostModeAuto || m == AutoPostModeManual
}

// DefaultRoundingToleranceCents is the balance tolerance applied when a tenant has not set one
const DefaultRoundingToleranceCents int64 = 5

// AccountingSettings is the per-tenant GL configuration. Its existence marks the
// tenant as bootstrapped.
type AccountingSettings struct {
	shared.BaseEntity
	TenantID               uuid.UUID
	BaseCurrency           string
	FiscalYearStartMonth   int
	AutoPostMode           AutoPostMode
	RoundingToleranceCents int64
	COATemplateKey         string

	DefaultAPAccountID                   *uuid.UUID
	DefaultARAccountID                   *uuid.UUID
	DefaultSalesTaxPayableAccountID      *uuid.UUID
	DefaultUndepositedFundsAccountID     *uuid.UUID
	DefaultRetainedEarningsAccountID     *uuid.UUID
	DefaultRoundingAccountID             *uuid.UUID
	DefaultTipsPayableAccountID          *uuid.UUID
	DefaultServiceChargeRevenueAccountID *uuid.UUID
	DefaultUncategorizedRevenueAccountID *uuid.UUID
	DefaultGuestLedgerAccountID          *uuid.UUID
}

// NewAccountingSettings creates settings with USD, January fiscal start, auto posting
// and the default rounding tolerance
func NewAccountingSettings(tenantID uuid.UUID) *AccountingSettings {
	return &AccountingSettings{
		BaseEntity:             shared.NewBaseEntity(),
		TenantID:               tenantID,
		BaseCurrency:           "USD",
		FiscalYearStartMonth:   1,
		AutoPostMode:           AutoPostModeAuto,
		RoundingToleranceCents: DefaultRoundingToleranceCents,
	}
}

// Tolerance returns the balance tolerance, falling back to the default for unset rows
func (s *AccountingSettings) Tolerance() int64 {
	if s == nil || s.RoundingToleranceCents < 0 {
		return DefaultRoundingToleranceCents
	}
	return s.RoundingToleranceCents
}

// DefaultFor returns the default account for a control slot, or nil
func (s *AccountingSettings) DefaultFor(ct ControlAccountType) *uuid.UUID {
	if s == nil {
		return nil
	}
	if slot := s.slot(ct); slot != nil {
		return *slot
	}
	return nil
}

// SetDefault binds a control slot to an account
func (s *AccountingSettings) SetDefault(ct ControlAccountType, accountID uuid.UUID) error {
	slot := s.slot(ct)
	if slot == nil {
		return shared.NewValidationError("INVALID_CONTROL_ACCOUNT_TYPE", "Unknown control account type: "+string(ct))
	}
	id := accountID
	*slot = &id
	s.Touch()
	return nil
}

func (s *AccountingSettings) slot(ct ControlAccountType) **uuid.UUID {
	switch ct {
	case ControlAP:
		return &s.DefaultAPAccountID
	case ControlAR:
		return &s.DefaultARAccountID
	case ControlSalesTaxPayable:
		return &s.DefaultSalesTaxPayableAccountID
	case ControlUndepositedFunds:
		return &s.DefaultUndepositedFundsAccountID
	case ControlRetainedEarnings:
		return &s.DefaultRetainedEarningsAccountID
	case ControlRounding:
		return &s.DefaultRoundingAccountID
	case ControlTipsPayable:
		return &s.DefaultTipsPayableAccountID
	case ControlServiceChargeRevenue:
		return &s.DefaultServiceChargeRevenueAccountID
	case ControlUncategorizedRevenue:
		return &s.DefaultUncategorizedRevenueAccountID
	case ControlGuestLedger:
		return &s.DefaultGuestLedgerAccountID
	}
	return nil
}
