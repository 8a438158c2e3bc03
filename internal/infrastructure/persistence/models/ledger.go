package models

import (
	"time"

	"github.com/erp/ledger/internal/domain/ledger"
	"github.com/erp/ledger/internal/domain/shared/valueobject"
	"github.com/google/uuid"
)

// AccountModel is the persistence model for a GL account.
type AccountModel struct {
	BaseModel
	TenantID           uuid.UUID                  `gorm:"type:uuid;not null;uniqueIndex:idx_gl_accounts_tenant_number,priority:1"`
	AccountNumber      string                     `gorm:"type:varchar(32);not null;uniqueIndex:idx_gl_accounts_tenant_number,priority:2"`
	Name               string                     `gorm:"type:varchar(200);not null"`
	AccountType        ledger.AccountType         `gorm:"type:varchar(20);not null;index"`
	NormalBalance      ledger.NormalBalance       `gorm:"type:varchar(10);not null"`
	ClassificationID   *uuid.UUID                 `gorm:"type:uuid;index"`
	ParentAccountID    *uuid.UUID                 `gorm:"type:uuid;index"`
	IsControlAccount   bool                       `gorm:"not null"`
	ControlAccountType *ledger.ControlAccountType `gorm:"type:varchar(40)"`
	IsActive           bool                       `gorm:"not null"`
	AllowManualPosting bool                       `gorm:"not null"`
	Description        string                     `gorm:"type:text"`
}

// TableName returns the table name for GORM
func (AccountModel) TableName() string {
	return "gl_accounts"
}

// ToDomain converts the persistence model to a domain Account.
func (m *AccountModel) ToDomain() *ledger.Account {
	return &ledger.Account{
		BaseEntity:         m.BaseModel.ToDomain(),
		TenantID:           m.TenantID,
		AccountNumber:      m.AccountNumber,
		Name:               m.Name,
		AccountType:        m.AccountType,
		NormalBalance:      m.NormalBalance,
		ClassificationID:   m.ClassificationID,
		ParentAccountID:    m.ParentAccountID,
		IsControlAccount:   m.IsControlAccount,
		ControlAccountType: m.ControlAccountType,
		IsActive:           m.IsActive,
		AllowManualPosting: m.AllowManualPosting,
		Description:        m.Description,
	}
}

// AccountModelFromDomain creates a persistence model from a domain Account.
func AccountModelFromDomain(a *ledger.Account) *AccountModel {
	m := &AccountModel{
		TenantID:           a.TenantID,
		AccountNumber:      a.AccountNumber,
		Name:               a.Name,
		AccountType:        a.AccountType,
		NormalBalance:      a.NormalBalance,
		ClassificationID:   a.ClassificationID,
		ParentAccountID:    a.ParentAccountID,
		IsControlAccount:   a.IsControlAccount,
		ControlAccountType: a.ControlAccountType,
		IsActive:           a.IsActive,
		AllowManualPosting: a.AllowManualPosting,
		Description:        a.Description,
	}
	m.FromDomainBaseEntity(a.BaseEntity)
	return m
}

// ClassificationModel is the persistence model for an account classification.
type ClassificationModel struct {
	BaseModel
	TenantID       uuid.UUID          `gorm:"type:uuid;not null;uniqueIndex:idx_gl_classifications_tenant_name,priority:1"`
	Name           string             `gorm:"type:varchar(100);not null"`
	NormalizedName string             `gorm:"type:varchar(100);not null;uniqueIndex:idx_gl_classifications_tenant_name,priority:2"`
	AccountType    ledger.AccountType `gorm:"type:varchar(20);not null"`
	SortOrder      int                `gorm:"not null;default:0"`
}

// TableName returns the table name for GORM
func (ClassificationModel) TableName() string {
	return "gl_classifications"
}

// ToDomain converts the persistence model to a domain Classification.
func (m *ClassificationModel) ToDomain() *ledger.Classification {
	return &ledger.Classification{
		BaseEntity:     m.BaseModel.ToDomain(),
		TenantID:       m.TenantID,
		Name:           m.Name,
		NormalizedName: m.NormalizedName,
		AccountType:    m.AccountType,
		SortOrder:      m.SortOrder,
	}
}

// ClassificationModelFromDomain creates a persistence model from a domain Classification.
func ClassificationModelFromDomain(c *ledger.Classification) *ClassificationModel {
	m := &ClassificationModel{
		TenantID:       c.TenantID,
		Name:           c.Name,
		NormalizedName: c.NormalizedName,
		AccountType:    c.AccountType,
		SortOrder:      c.SortOrder,
	}
	m.FromDomainBaseEntity(c.BaseEntity)
	return m
}

// AccountingSettingsModel is the persistence model for a tenant's GL settings.
// One row per tenant.
type AccountingSettingsModel struct {
	BaseModel
	TenantID               uuid.UUID           `gorm:"type:uuid;not null;uniqueIndex"`
	BaseCurrency           string              `gorm:"type:varchar(3);not null;default:'USD'"`
	FiscalYearStartMonth   int                 `gorm:"not null;default:1"`
	AutoPostMode           ledger.AutoPostMode `gorm:"type:varchar(10);not null;default:'auto'"`
	RoundingToleranceCents int64               `gorm:"not null"`
	COATemplateKey         string              `gorm:"column:coa_template_key;type:varchar(50)"`

	DefaultAPAccountID                   *uuid.UUID `gorm:"column:default_ap_account_id;type:uuid"`
	DefaultARAccountID                   *uuid.UUID `gorm:"column:default_ar_account_id;type:uuid"`
	DefaultSalesTaxPayableAccountID      *uuid.UUID `gorm:"type:uuid"`
	DefaultUndepositedFundsAccountID     *uuid.UUID `gorm:"type:uuid"`
	DefaultRetainedEarningsAccountID     *uuid.UUID `gorm:"type:uuid"`
	DefaultRoundingAccountID             *uuid.UUID `gorm:"type:uuid"`
	DefaultTipsPayableAccountID          *uuid.UUID `gorm:"type:uuid"`
	DefaultServiceChargeRevenueAccountID *uuid.UUID `gorm:"type:uuid"`
	DefaultUncategorizedRevenueAccountID *uuid.UUID `gorm:"type:uuid"`
	DefaultGuestLedgerAccountID          *uuid.UUID `gorm:"type:uuid"`
}

// TableName returns the table name for GORM
func (AccountingSettingsModel) TableName() string {
	return "gl_accounting_settings"
}

// ToDomain converts the persistence model to domain AccountingSettings.
func (m *AccountingSettingsModel) ToDomain() *ledger.AccountingSettings {
	return &ledger.AccountingSettings{
		BaseEntity:                           m.BaseModel.ToDomain(),
		TenantID:                             m.TenantID,
		BaseCurrency:                         m.BaseCurrency,
		FiscalYearStartMonth:                 m.FiscalYearStartMonth,
		AutoPostMode:                         m.AutoPostMode,
		RoundingToleranceCents:               m.RoundingToleranceCents,
		COATemplateKey:                       m.COATemplateKey,
		DefaultAPAccountID:                   m.DefaultAPAccountID,
		DefaultARAccountID:                   m.DefaultARAccountID,
		DefaultSalesTaxPayableAccountID:      m.DefaultSalesTaxPayableAccountID,
		DefaultUndepositedFundsAccountID:     m.DefaultUndepositedFundsAccountID,
		DefaultRetainedEarningsAccountID:     m.DefaultRetainedEarningsAccountID,
		DefaultRoundingAccountID:             m.DefaultRoundingAccountID,
		DefaultTipsPayableAccountID:          m.DefaultTipsPayableAccountID,
		DefaultServiceChargeRevenueAccountID: m.DefaultServiceChargeRevenueAccountID,
		DefaultUncategorizedRevenueAccountID: m.DefaultUncategorizedRevenueAccountID,
		DefaultGuestLedgerAccountID:          m.DefaultGuestLedgerAccountID,
	}
}

// AccountingSettingsModelFromDomain creates a persistence model from domain AccountingSettings.
func AccountingSettingsModelFromDomain(s *ledger.AccountingSettings) *AccountingSettingsModel {
	m := &AccountingSettingsModel{
		TenantID:                             s.TenantID,
		BaseCurrency:                         s.BaseCurrency,
		FiscalYearStartMonth:                 s.FiscalYearStartMonth,
		AutoPostMode:                         s.AutoPostMode,
		RoundingToleranceCents:               s.RoundingToleranceCents,
		COATemplateKey:                       s.COATemplateKey,
		DefaultAPAccountID:                   s.DefaultAPAccountID,
		DefaultARAccountID:                   s.DefaultARAccountID,
		DefaultSalesTaxPayableAccountID:      s.DefaultSalesTaxPayableAccountID,
		DefaultUndepositedFundsAccountID:     s.DefaultUndepositedFundsAccountID,
		DefaultRetainedEarningsAccountID:     s.DefaultRetainedEarningsAccountID,
		DefaultRoundingAccountID:             s.DefaultRoundingAccountID,
		DefaultTipsPayableAccountID:          s.DefaultTipsPayableAccountID,
		DefaultServiceChargeRevenueAccountID: s.DefaultServiceChargeRevenueAccountID,
		DefaultUncategorizedRevenueAccountID: s.DefaultUncategorizedRevenueAccountID,
		DefaultGuestLedgerAccountID:          s.DefaultGuestLedgerAccountID,
	}
	m.FromDomainBaseEntity(s.BaseEntity)
	return m
}

// JournalEntryModel is the persistence model for the JournalEntry aggregate root.
// At most one original (non-reversal) entry exists per source document.
type JournalEntryModel struct {
	AggregateModel
	TenantID          uuid.UUID            `gorm:"type:uuid;not null;uniqueIndex:idx_gl_journal_tenant_number,priority:1;uniqueIndex:idx_gl_journal_source,priority:1"`
	JournalNumber     *int64               `gorm:"uniqueIndex:idx_gl_journal_tenant_number,priority:2"`
	EntryDate         time.Time            `gorm:"type:date;not null;index"`
	Memo              string               `gorm:"type:text"`
	Status            ledger.JournalStatus `gorm:"type:varchar(10);not null;default:'draft';index"`
	SourceModule      string               `gorm:"type:varchar(50);not null;uniqueIndex:idx_gl_journal_source,priority:2,where:reversal_of_id IS NULL AND source_reference_id <> '' AND source_module <> 'manual'"`
	SourceReferenceID string               `gorm:"type:varchar(200);not null;default:'';uniqueIndex:idx_gl_journal_source,priority:3"`
	ReversalOfID      *uuid.UUID           `gorm:"type:uuid;index"`
	ReversedByID      *uuid.UUID           `gorm:"type:uuid"`
	Lines             []JournalLineModel   `gorm:"foreignKey:JournalEntryID;references:ID"`
	CreatedBy         uuid.UUID            `gorm:"type:uuid;not null"`
	PostedAt          *time.Time
	PostedBy          *uuid.UUID `gorm:"type:uuid"`
	VoidedAt          *time.Time
	VoidedBy          *uuid.UUID `gorm:"type:uuid"`
	VoidReason        string     `gorm:"type:varchar(500)"`
}

// TableName returns the table name for GORM
func (JournalEntryModel) TableName() string {
	return "gl_journal_entries"
}

// ToDomain converts the persistence model to a domain JournalEntry.
func (m *JournalEntryModel) ToDomain() *ledger.JournalEntry {
	e := &ledger.JournalEntry{
		JournalNumber:     m.JournalNumber,
		EntryDate:         m.EntryDate,
		Memo:              m.Memo,
		Status:            m.Status,
		SourceModule:      m.SourceModule,
		SourceReferenceID: m.SourceReferenceID,
		ReversalOfID:      m.ReversalOfID,
		ReversedByID:      m.ReversedByID,
		CreatedBy:         m.CreatedBy,
		PostedAt:          m.PostedAt,
		PostedBy:          m.PostedBy,
		VoidedAt:          m.VoidedAt,
		VoidedBy:          m.VoidedBy,
		VoidReason:        m.VoidReason,
		Lines:             make([]ledger.JournalLine, len(m.Lines)),
	}
	e.ID = m.ID
	e.CreatedAt = m.CreatedAt
	e.UpdatedAt = m.UpdatedAt
	e.Version = m.Version
	e.TenantID = m.TenantID
	for i := range m.Lines {
		e.Lines[i] = m.Lines[i].ToDomain()
	}
	return e
}

// JournalEntryModelFromDomain creates a persistence model, lines included, from a domain JournalEntry.
func JournalEntryModelFromDomain(e *ledger.JournalEntry) *JournalEntryModel {
	m := &JournalEntryModel{
		JournalNumber:     e.JournalNumber,
		EntryDate:         e.EntryDate,
		Memo:              e.Memo,
		Status:            e.Status,
		SourceModule:      e.SourceModule,
		SourceReferenceID: e.SourceReferenceID,
		ReversalOfID:      e.ReversalOfID,
		ReversedByID:      e.ReversedByID,
		CreatedBy:         e.CreatedBy,
		PostedAt:          e.PostedAt,
		PostedBy:          e.PostedBy,
		VoidedAt:          e.VoidedAt,
		VoidedBy:          e.VoidedBy,
		VoidReason:        e.VoidReason,
		Lines:             make([]JournalLineModel, len(e.Lines)),
	}
	m.FromDomainAggregateRoot(e.BaseAggregateRoot)
	m.TenantID = e.TenantID
	for i, l := range e.Lines {
		m.Lines[i] = JournalLineModelFromDomain(e.TenantID, l)
	}
	return m
}

// JournalLineModel is the persistence model for one journal line.
// Exactly one of DebitCents and CreditCents is non-zero.
type JournalLineModel struct {
	ID             uuid.UUID  `gorm:"type:uuid;primaryKey"`
	TenantID       uuid.UUID  `gorm:"type:uuid;not null;index:idx_gl_lines_tenant_account,priority:1"`
	JournalEntryID uuid.UUID  `gorm:"type:uuid;not null;index"`
	LineNumber     int        `gorm:"not null"`
	AccountID      uuid.UUID  `gorm:"type:uuid;not null;index:idx_gl_lines_tenant_account,priority:2"`
	DebitCents     int64      `gorm:"not null;default:0"`
	CreditCents    int64      `gorm:"not null;default:0"`
	Description    string     `gorm:"type:varchar(500)"`
	Channel        string     `gorm:"type:varchar(50)"`
	LocationID     *uuid.UUID `gorm:"type:uuid"`
}

// TableName returns the table name for GORM
func (JournalLineModel) TableName() string {
	return "gl_journal_lines"
}

// ToDomain converts the persistence model to a domain JournalLine.
func (m *JournalLineModel) ToDomain() ledger.JournalLine {
	return ledger.JournalLine{
		ID:             m.ID,
		JournalEntryID: m.JournalEntryID,
		LineNumber:     m.LineNumber,
		AccountID:      m.AccountID,
		DebitCents:     valueobject.Cents(m.DebitCents),
		CreditCents:    valueobject.Cents(m.CreditCents),
		Description:    m.Description,
		Channel:        m.Channel,
		LocationID:     m.LocationID,
	}
}

// JournalLineModelFromDomain creates a persistence model from a domain JournalLine.
func JournalLineModelFromDomain(tenantID uuid.UUID, l ledger.JournalLine) JournalLineModel {
	return JournalLineModel{
		ID:             l.ID,
		TenantID:       tenantID,
		JournalEntryID: l.JournalEntryID,
		LineNumber:     l.LineNumber,
		AccountID:      l.AccountID,
		DebitCents:     int64(l.DebitCents),
		CreditCents:    int64(l.CreditCents),
		Description:    l.Description,
		Channel:        l.Channel,
		LocationID:     l.LocationID,
	}
}

// JournalSequenceModel holds the last journal number issued for a tenant.
type JournalSequenceModel struct {
	TenantID   uuid.UUID `gorm:"type:uuid;primaryKey"`
	LastNumber int64     `gorm:"not null;default:0"`
}

// TableName returns the table name for GORM
func (JournalSequenceModel) TableName() string {
	return "gl_journal_sequences"
}

// GLAccountMappingModel is the persistence model for a GL account mapping.
type GLAccountMappingModel struct {
	BaseModel
	TenantID               uuid.UUID  `gorm:"type:uuid;not null;uniqueIndex:idx_gl_mappings_entity,priority:1"`
	EntityType             string     `gorm:"type:varchar(50);not null;uniqueIndex:idx_gl_mappings_entity,priority:2"`
	EntityID               string     `gorm:"type:varchar(100);not null;uniqueIndex:idx_gl_mappings_entity,priority:3"`
	RevenueAccountID       *uuid.UUID `gorm:"type:uuid"`
	ExpenseAccountID       *uuid.UUID `gorm:"type:uuid"`
	LiabilityAccountID     *uuid.UUID `gorm:"type:uuid"`
	AssetAccountID         *uuid.UUID `gorm:"type:uuid"`
	ContraRevenueAccountID *uuid.UUID `gorm:"type:uuid"`
}

// TableName returns the table name for GORM
func (GLAccountMappingModel) TableName() string {
	return "gl_account_mappings"
}

// ToDomain converts the persistence model to a domain GLAccountMapping.
func (m *GLAccountMappingModel) ToDomain() *ledger.GLAccountMapping {
	return &ledger.GLAccountMapping{
		BaseEntity:             m.BaseModel.ToDomain(),
		TenantID:               m.TenantID,
		EntityType:             m.EntityType,
		EntityID:               m.EntityID,
		RevenueAccountID:       m.RevenueAccountID,
		ExpenseAccountID:       m.ExpenseAccountID,
		LiabilityAccountID:     m.LiabilityAccountID,
		AssetAccountID:         m.AssetAccountID,
		ContraRevenueAccountID: m.ContraRevenueAccountID,
	}
}

// GLAccountMappingModelFromDomain creates a persistence model from a domain GLAccountMapping.
func GLAccountMappingModelFromDomain(gm *ledger.GLAccountMapping) *GLAccountMappingModel {
	m := &GLAccountMappingModel{
		TenantID:               gm.TenantID,
		EntityType:             gm.EntityType,
		EntityID:               gm.EntityID,
		RevenueAccountID:       gm.RevenueAccountID,
		ExpenseAccountID:       gm.ExpenseAccountID,
		LiabilityAccountID:     gm.LiabilityAccountID,
		AssetAccountID:         gm.AssetAccountID,
		ContraRevenueAccountID: gm.ContraRevenueAccountID,
	}
	m.FromDomainBaseEntity(gm.BaseEntity)
	return m
}
