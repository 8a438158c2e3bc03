package ledger

import (
	"strings"
	"time"

	"github.com/erp/ledger/internal/domain/shared"
	"github.com/google/uuid"
)

// DefaultEntityID is the synthetic entity id of the per-entityType fallback mapping row
const DefaultEntityID = "default"

// MappingRole selects which account column of a GLAccountMapping a category uses
type MappingRole string

const (
	RoleRevenue       MappingRole = "revenue"
	RoleExpense       MappingRole = "expense"
	RoleLiability     MappingRole = "liability"
	RoleAsset         MappingRole = "asset"
	RoleContraRevenue MappingRole = "contra_revenue"
)

// GLAccountMapping binds a semantic entity (department, payment type, discount, comp,
// bank account, customer) to the GL accounts used when posting on its behalf
type GLAccountMapping struct {
	shared.BaseEntity
	TenantID               uuid.UUID
	EntityType             string
	EntityID               string
	RevenueAccountID       *uuid.UUID
	ExpenseAccountID       *uuid.UUID
	LiabilityAccountID     *uuid.UUID
	AssetAccountID         *uuid.UUID
	ContraRevenueAccountID *uuid.UUID
}

// NewGLAccountMapping creates an empty mapping row for an entity. An empty entityID
// creates the entityType's default row.
func NewGLAccountMapping(tenantID uuid.UUID, entityType, entityID string) (*GLAccountMapping, error) {
	entityType = strings.TrimSpace(entityType)
	entityID = strings.TrimSpace(entityID)
	if entityType == "" {
		return nil, shared.NewValidationError("INVALID_ENTITY_TYPE", "Entity type cannot be empty")
	}
	if entityID == "" {
		entityID = DefaultEntityID
	}
	return &GLAccountMapping{
		BaseEntity: shared.NewBaseEntity(),
		TenantID:   tenantID,
		EntityType: entityType,
		EntityID:   entityID,
	}, nil
}

// AccountFor returns the account bound to role, or nil
func (m *GLAccountMapping) AccountFor(role MappingRole) *uuid.UUID {
	if m == nil {
		return nil
	}
	switch role {
	case RoleRevenue:
		return m.RevenueAccountID
	case RoleExpense:
		return m.ExpenseAccountID
	case RoleLiability:
		return m.LiabilityAccountID
	case RoleAsset:
		return m.AssetAccountID
	case RoleContraRevenue:
		return m.ContraRevenueAccountID
	}
	return nil
}

// IsDefault reports whether this is the entityType's fallback row
func (m *GLAccountMapping) IsDefault() bool {
	return m.EntityID == DefaultEntityID
}

// Category is a semantic posting category such as "sales_revenue" or "cash_on_hand"
type Category string

// CategorySpec describes how a category resolves: which mapping column to read and
// which AccountingSettings slot to fall back to
type CategorySpec struct {
	Role MappingRole
	// EntityType is used when the caller does not name one
	EntityType string
	// Control is the settings fallback; empty means the category has no tenant default
	Control ControlAccountType
}

const (
	CategoryCash                 Category = "cash_on_hand"
	CategoryCashEquivalent       Category = "cash_equivalent"
	CategoryCardClearing         Category = "card_clearing"
	CategoryBank                 Category = "bank"
	CategorySalesRevenue         Category = "sales_revenue"
	CategorySalesTaxPayable      Category = "sales_tax_payable"
	CategoryTipsPayable          Category = "tips_payable"
	CategoryServiceChargeRevenue Category = "service_charge_revenue"
	CategoryDiscount             Category = "discount"
	CategoryComp                 Category = "comp"
	CategoryCashOverShort        Category = "cash_over_short"
	CategoryAccountsReceivable   Category = "accounts_receivable"
	CategoryAccountsPayable      Category = "accounts_payable"
	CategoryGuestLedger          Category = "guest_ledger"
	CategoryRounding             Category = "rounding"
)

var categorySpecs = map[Category]CategorySpec{
	CategoryCash:                 {Role: RoleAsset, EntityType: "payment_type", Control: ControlUndepositedFunds},
	CategoryCashEquivalent:       {Role: RoleAsset, EntityType: "payment_type", Control: ControlUndepositedFunds},
	CategoryCardClearing:         {Role: RoleAsset, EntityType: "payment_type", Control: ControlUndepositedFunds},
	CategoryBank:                 {Role: RoleAsset, EntityType: "bank_account"},
	CategorySalesRevenue:         {Role: RoleRevenue, EntityType: "department", Control: ControlUncategorizedRevenue},
	CategorySalesTaxPayable:      {Role: RoleLiability, EntityType: "tax", Control: ControlSalesTaxPayable},
	CategoryTipsPayable:          {Role: RoleLiability, EntityType: "tips", Control: ControlTipsPayable},
	CategoryServiceChargeRevenue: {Role: RoleRevenue, EntityType: "service_charge", Control: ControlServiceChargeRevenue},
	CategoryDiscount:             {Role: RoleContraRevenue, EntityType: "discount"},
	CategoryComp:                 {Role: RoleExpense, EntityType: "comp"},
	CategoryCashOverShort:        {Role: RoleExpense, EntityType: "cash_over_short", Control: ControlRounding},
	CategoryAccountsReceivable:   {Role: RoleAsset, EntityType: "customer", Control: ControlAR},
	CategoryAccountsPayable:      {Role: RoleLiability, EntityType: "vendor", Control: ControlAP},
	CategoryGuestLedger:          {Role: RoleAsset, EntityType: "guest", Control: ControlGuestLedger},
	CategoryRounding:             {Role: RoleExpense, EntityType: "rounding", Control: ControlRounding},
}

// LookupCategory returns the resolution spec of a category
func LookupCategory(c Category) (CategorySpec, bool) {
	spec, ok := categorySpecs[Category(strings.ToLower(strings.TrimSpace(string(c))))]
	return spec, ok
}

// UnmappedEvent records a category that could not be resolved to an account so an
// operator can add the missing mapping
type UnmappedEvent struct {
	ID                uuid.UUID
	TenantID          uuid.UUID
	SourceModule      string
	SourceReferenceID string
	Category          Category
	EntityType        string
	EntityID          string
	Reason            string
	Payload           []byte
	CreatedAt         time.Time
	ResolvedAt        *time.Time
}

// NewUnmappedEvent creates an unresolved record
func NewUnmappedEvent(tenantID uuid.UUID, sourceModule, sourceReferenceID string, category Category, entityType, entityID, reason string) *UnmappedEvent {
	return &UnmappedEvent{
		ID:                uuid.New(),
		TenantID:          tenantID,
		SourceModule:      sourceModule,
		SourceReferenceID: sourceReferenceID,
		Category:          category,
		EntityType:        entityType,
		EntityID:          entityID,
		Reason:            reason,
		CreatedAt:         time.Now(),
	}
}

// Resolve marks the record as remediated
func (u *UnmappedEvent) Resolve() error {
	if u.ResolvedAt != nil {
		return shared.NewConflictError("UNMAPPED_EVENT_RESOLVED", "Unmapped event is already resolved")
	}
	now := time.Now()
	u.ResolvedAt = &now
	return nil
}
