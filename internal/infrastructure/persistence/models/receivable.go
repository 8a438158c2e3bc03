package models

import (
	"time"

	"github.com/erp/ledger/internal/domain/receivable"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// InvoiceModel is the persistence model for an AR invoice.
type InvoiceModel struct {
	BaseModel
	TenantID      uuid.UUID                `gorm:"type:uuid;not null;index:idx_ar_invoices_customer,priority:1"`
	CustomerID    uuid.UUID                `gorm:"type:uuid;not null;index:idx_ar_invoices_customer,priority:2"`
	InvoiceNumber string                   `gorm:"type:varchar(50);not null"`
	TotalAmount   decimal.Decimal          `gorm:"type:decimal(18,2);not null"`
	AmountPaid    decimal.Decimal          `gorm:"type:decimal(18,2);not null"`
	BalanceDue    decimal.Decimal          `gorm:"type:decimal(18,2);not null"`
	Status        receivable.InvoiceStatus `gorm:"type:varchar(10);not null;index"`
}

// TableName returns the table name for GORM
func (InvoiceModel) TableName() string {
	return "ar_invoices"
}

// ToDomain converts the persistence model to a domain Invoice.
func (m *InvoiceModel) ToDomain() *receivable.Invoice {
	return &receivable.Invoice{
		BaseEntity:    m.BaseModel.ToDomain(),
		TenantID:      m.TenantID,
		CustomerID:    m.CustomerID,
		InvoiceNumber: m.InvoiceNumber,
		TotalAmount:   m.TotalAmount,
		AmountPaid:    m.AmountPaid,
		BalanceDue:    m.BalanceDue,
		Status:        m.Status,
	}
}

// InvoiceModelFromDomain creates a persistence model from a domain Invoice.
func InvoiceModelFromDomain(i *receivable.Invoice) *InvoiceModel {
	m := &InvoiceModel{
		TenantID:      i.TenantID,
		CustomerID:    i.CustomerID,
		InvoiceNumber: i.InvoiceNumber,
		TotalAmount:   i.TotalAmount,
		AmountPaid:    i.AmountPaid,
		BalanceDue:    i.BalanceDue,
		Status:        i.Status,
	}
	m.FromDomainBaseEntity(i.BaseEntity)
	return m
}

// ReceiptModel is the persistence model for the Receipt aggregate root.
type ReceiptModel struct {
	TenantAggregateModel
	CustomerID       uuid.UUID                `gorm:"type:uuid;not null;index"`
	Amount           decimal.Decimal          `gorm:"type:decimal(18,2);not null"`
	Status           receivable.ReceiptStatus `gorm:"type:varchar(10);not null;index"`
	BankAccountID    uuid.UUID                `gorm:"type:uuid;not null"`
	ReceiptDate      time.Time                `gorm:"type:date;not null"`
	Reference        string                   `gorm:"type:varchar(100)"`
	Memo             string                   `gorm:"type:text"`
	GLJournalEntryID *uuid.UUID               `gorm:"column:gl_journal_entry_id;type:uuid"`
	Allocations      []AllocationModel        `gorm:"foreignKey:ReceiptID;references:ID"`
	CreatedBy        uuid.UUID                `gorm:"type:uuid;not null"`
	PostedAt         *time.Time
	PostedBy         *uuid.UUID `gorm:"type:uuid"`
	VoidedAt         *time.Time
	VoidedBy         *uuid.UUID `gorm:"type:uuid"`
	VoidReason       string     `gorm:"type:varchar(500)"`
}

// TableName returns the table name for GORM
func (ReceiptModel) TableName() string {
	return "ar_receipts"
}

// ToDomain converts the persistence model to a domain Receipt.
func (m *ReceiptModel) ToDomain() *receivable.Receipt {
	r := &receivable.Receipt{
		CustomerID:       m.CustomerID,
		Amount:           m.Amount,
		Status:           m.Status,
		BankAccountID:    m.BankAccountID,
		ReceiptDate:      m.ReceiptDate,
		Reference:        m.Reference,
		Memo:             m.Memo,
		GLJournalEntryID: m.GLJournalEntryID,
		CreatedBy:        m.CreatedBy,
		PostedAt:         m.PostedAt,
		PostedBy:         m.PostedBy,
		VoidedAt:         m.VoidedAt,
		VoidedBy:         m.VoidedBy,
		VoidReason:       m.VoidReason,
		Allocations:      make([]receivable.Allocation, len(m.Allocations)),
	}
	m.PopulateTenantAggregateRoot(&r.TenantAggregateRoot)
	for i, a := range m.Allocations {
		r.Allocations[i] = a.ToDomain()
	}
	return r
}

// ReceiptModelFromDomain creates a persistence model, allocations included, from a domain Receipt.
func ReceiptModelFromDomain(r *receivable.Receipt) *ReceiptModel {
	m := &ReceiptModel{
		CustomerID:       r.CustomerID,
		Amount:           r.Amount,
		Status:           r.Status,
		BankAccountID:    r.BankAccountID,
		ReceiptDate:      r.ReceiptDate,
		Reference:        r.Reference,
		Memo:             r.Memo,
		GLJournalEntryID: r.GLJournalEntryID,
		CreatedBy:        r.CreatedBy,
		PostedAt:         r.PostedAt,
		PostedBy:         r.PostedBy,
		VoidedAt:         r.VoidedAt,
		VoidedBy:         r.VoidedBy,
		VoidReason:       r.VoidReason,
		Allocations:      make([]AllocationModel, len(r.Allocations)),
	}
	m.FromDomainTenantAggregateRoot(r.TenantAggregateRoot)
	for i, a := range r.Allocations {
		m.Allocations[i] = AllocationModelFromDomain(r.TenantID, a)
	}
	return m
}

// AllocationModel is the persistence model for a receipt allocation.
type AllocationModel struct {
	ID            uuid.UUID       `gorm:"type:uuid;primaryKey"`
	TenantID      uuid.UUID       `gorm:"type:uuid;not null"`
	ReceiptID     uuid.UUID       `gorm:"type:uuid;not null;index"`
	InvoiceID     uuid.UUID       `gorm:"type:uuid;not null;index"`
	AmountApplied decimal.Decimal `gorm:"type:decimal(18,2);not null"`
}

// TableName returns the table name for GORM
func (AllocationModel) TableName() string {
	return "ar_receipt_allocations"
}

// ToDomain converts the persistence model to a domain Allocation.
func (m *AllocationModel) ToDomain() receivable.Allocation {
	return receivable.Allocation{
		ID:            m.ID,
		ReceiptID:     m.ReceiptID,
		InvoiceID:     m.InvoiceID,
		AmountApplied: m.AmountApplied,
	}
}

// AllocationModelFromDomain creates a persistence model from a domain Allocation.
func AllocationModelFromDomain(tenantID uuid.UUID, a receivable.Allocation) AllocationModel {
	return AllocationModel{
		ID:            a.ID,
		TenantID:      tenantID,
		ReceiptID:     a.ReceiptID,
		InvoiceID:     a.InvoiceID,
		AmountApplied: a.AmountApplied,
	}
}
