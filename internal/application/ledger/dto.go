package ledger

import (
	"time"

	"github.com/erp/ledger/internal/domain/ledger"
	"github.com/erp/ledger/internal/domain/shared/valueobject"
	"github.com/google/uuid"
)

// ===================== Journal entries =====================

// JournalLineRequest is one line of a posting request. Amounts are decimal dollar
// strings; exactly one side must be non-zero.
type JournalLineRequest struct {
	AccountID    uuid.UUID  `json:"account_id" binding:"required"`
	DebitAmount  string     `json:"debit_amount"`
	CreditAmount string     `json:"credit_amount"`
	Description  string     `json:"description" binding:"max=500"`
	Channel      string     `json:"channel,omitempty" binding:"max=50"`
	LocationID   *uuid.UUID `json:"location_id,omitempty"`
}

// PostEntryRequest represents a request to post a journal entry
type PostEntryRequest struct {
	SourceModule      string               `json:"source_module" binding:"max=50"`
	SourceReferenceID string               `json:"source_reference_id" binding:"max=100"`
	EntryDate         time.Time            `json:"entry_date" binding:"required"`
	Memo              string               `json:"memo" binding:"max=500"`
	Lines             []JournalLineRequest `json:"lines" binding:"required,min=2,dive"`
	// ForcePost posts immediately even when the tenant's auto-post mode is manual
	ForcePost bool `json:"force_post"`
}

// JournalLineResponse represents a journal line in API responses
type JournalLineResponse struct {
	ID          uuid.UUID         `json:"id"`
	LineNumber  int               `json:"line_number"`
	AccountID   uuid.UUID         `json:"account_id"`
	Debit       valueobject.Cents `json:"debit_amount"`
	Credit      valueobject.Cents `json:"credit_amount"`
	Description string            `json:"description,omitempty"`
	Channel     string            `json:"channel,omitempty"`
	LocationID  *uuid.UUID        `json:"location_id,omitempty"`
}

// JournalEntryResponse represents a journal entry in API responses
type JournalEntryResponse struct {
	ID                uuid.UUID             `json:"id"`
	TenantID          uuid.UUID             `json:"tenant_id"`
	JournalNumber     *int64                `json:"journal_number,omitempty"`
	EntryDate         time.Time             `json:"entry_date"`
	Memo              string                `json:"memo,omitempty"`
	Status            string                `json:"status"`
	SourceModule      string                `json:"source_module"`
	SourceReferenceID string                `json:"source_reference_id,omitempty"`
	ReversalOfID      *uuid.UUID            `json:"reversal_of_id,omitempty"`
	ReversedByID      *uuid.UUID            `json:"reversed_by_id,omitempty"`
	TotalDebit        valueobject.Cents     `json:"total_debit"`
	TotalCredit       valueobject.Cents     `json:"total_credit"`
	Lines             []JournalLineResponse `json:"lines"`
	CreatedBy         uuid.UUID             `json:"created_by"`
	PostedAt          *time.Time            `json:"posted_at,omitempty"`
	PostedBy          *uuid.UUID            `json:"posted_by,omitempty"`
	VoidedAt          *time.Time            `json:"voided_at,omitempty"`
	VoidedBy          *uuid.UUID            `json:"voided_by,omitempty"`
	VoidReason        string                `json:"void_reason,omitempty"`
	CreatedAt         time.Time             `json:"created_at"`
	UpdatedAt         time.Time             `json:"updated_at"`
	Version           int                   `json:"version"`
}

// JournalListFilter defines filtering options for journal list queries
type JournalListFilter struct {
	Status       string     `form:"status"`
	SourceModule string     `form:"source_module"`
	FromDate     *time.Time `form:"from_date" time_format:"2006-01-02" time_utc:"1"`
	ToDate       *time.Time `form:"to_date" time_format:"2006-01-02" time_utc:"1"`
	Page         int        `form:"page"`
	PageSize     int        `form:"page_size"`
}

// JournalListResponse is a page of journal entries
type JournalListResponse struct {
	Items    []JournalEntryResponse `json:"items"`
	Total    int64                  `json:"total"`
	Page     int                    `json:"page"`
	PageSize int                    `json:"page_size"`
}

// ToJournalEntryResponse converts a domain entry to its response form
func ToJournalEntryResponse(e *ledger.JournalEntry) *JournalEntryResponse {
	if e == nil {
		return nil
	}
	debit, credit := e.Totals()
	resp := &JournalEntryResponse{
		ID:                e.ID,
		TenantID:          e.TenantID,
		JournalNumber:     e.JournalNumber,
		EntryDate:         e.EntryDate,
		Memo:              e.Memo,
		Status:            string(e.Status),
		SourceModule:      e.SourceModule,
		SourceReferenceID: e.SourceReferenceID,
		ReversalOfID:      e.ReversalOfID,
		ReversedByID:      e.ReversedByID,
		TotalDebit:        debit,
		TotalCredit:       credit,
		Lines:             make([]JournalLineResponse, len(e.Lines)),
		CreatedBy:         e.CreatedBy,
		PostedAt:          e.PostedAt,
		PostedBy:          e.PostedBy,
		VoidedAt:          e.VoidedAt,
		VoidedBy:          e.VoidedBy,
		VoidReason:        e.VoidReason,
		CreatedAt:         e.CreatedAt,
		UpdatedAt:         e.UpdatedAt,
		Version:           e.Version,
	}
	for i, l := range e.Lines {
		resp.Lines[i] = JournalLineResponse{
			ID:          l.ID,
			LineNumber:  l.LineNumber,
			AccountID:   l.AccountID,
			Debit:       l.DebitCents,
			Credit:      l.CreditCents,
			Description: l.Description,
			Channel:     l.Channel,
			LocationID:  l.LocationID,
		}
	}
	return resp
}

// ===================== Accounts & classifications =====================

// CreateClassificationRequest represents a request to create a GL classification
type CreateClassificationRequest struct {
	Name        string `json:"name" binding:"required,min=1,max=100"`
	AccountType string `json:"account_type" binding:"required,oneof=asset liability equity revenue expense"`
	SortOrder   int    `json:"sort_order" binding:"min=0"`
}

// UpdateClassificationRequest represents a request to update a GL classification
type UpdateClassificationRequest = CreateClassificationRequest

// ClassificationResponse represents a classification in API responses
type ClassificationResponse struct {
	ID          uuid.UUID `json:"id"`
	Name        string    `json:"name"`
	AccountType string    `json:"account_type"`
	SortOrder   int       `json:"sort_order"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

func toClassificationResponse(c *ledger.Classification) *ClassificationResponse {
	return &ClassificationResponse{
		ID:          c.ID,
		Name:        c.Name,
		AccountType: string(c.AccountType),
		SortOrder:   c.SortOrder,
		CreatedAt:   c.CreatedAt,
		UpdatedAt:   c.UpdatedAt,
	}
}

// CreateAccountRequest represents a request to create a GL account
type CreateAccountRequest struct {
	AccountNumber      string     `json:"account_number" binding:"required,max=50"`
	Name               string     `json:"name" binding:"required,max=200"`
	AccountType        string     `json:"account_type" binding:"required,oneof=asset liability equity revenue expense"`
	ClassificationID   *uuid.UUID `json:"classification_id"`
	ParentAccountID    *uuid.UUID `json:"parent_account_id"`
	AllowManualPosting *bool      `json:"allow_manual_posting"`
	Description        string     `json:"description" binding:"max=500"`
}

// AccountResponse represents an account in API responses
type AccountResponse struct {
	ID                 uuid.UUID  `json:"id"`
	AccountNumber      string     `json:"account_number"`
	Name               string     `json:"name"`
	AccountType        string     `json:"account_type"`
	NormalBalance      string     `json:"normal_balance"`
	ClassificationID   *uuid.UUID `json:"classification_id,omitempty"`
	ParentAccountID    *uuid.UUID `json:"parent_account_id,omitempty"`
	IsControlAccount   bool       `json:"is_control_account"`
	ControlAccountType string     `json:"control_account_type,omitempty"`
	IsActive           bool       `json:"is_active"`
	AllowManualPosting bool       `json:"allow_manual_posting"`
	Description        string     `json:"description,omitempty"`
	CreatedAt          time.Time  `json:"created_at"`
	UpdatedAt          time.Time  `json:"updated_at"`
}

func toAccountResponse(a *ledger.Account) *AccountResponse {
	resp := &AccountResponse{
		ID:                 a.ID,
		AccountNumber:      a.AccountNumber,
		Name:               a.Name,
		AccountType:        string(a.AccountType),
		NormalBalance:      string(a.NormalBalance),
		ClassificationID:   a.ClassificationID,
		ParentAccountID:    a.ParentAccountID,
		IsControlAccount:   a.IsControlAccount,
		IsActive:           a.IsActive,
		AllowManualPosting: a.AllowManualPosting,
		Description:        a.Description,
		CreatedAt:          a.CreatedAt,
		UpdatedAt:          a.UpdatedAt,
	}
	if a.ControlAccountType != nil {
		resp.ControlAccountType = string(*a.ControlAccountType)
	}
	return resp
}

// AccountListFilter defines filtering options for account list queries
type AccountListFilter struct {
	AccountType string `form:"account_type"`
	ActiveOnly  bool   `form:"active_only"`
	Search      string `form:"search"`
}

// ===================== Mappings =====================

// UpsertMappingRequest creates or replaces the accounts bound to an entity.
// An empty EntityID addresses the entity type's default row.
type UpsertMappingRequest struct {
	EntityType             string     `json:"entity_type" binding:"required,max=50"`
	EntityID               string     `json:"entity_id" binding:"max=100"`
	RevenueAccountID       *uuid.UUID `json:"revenue_account_id"`
	ExpenseAccountID       *uuid.UUID `json:"expense_account_id"`
	LiabilityAccountID     *uuid.UUID `json:"liability_account_id"`
	AssetAccountID         *uuid.UUID `json:"asset_account_id"`
	ContraRevenueAccountID *uuid.UUID `json:"contra_revenue_account_id"`
}

// MappingResponse represents a GL account mapping in API responses
type MappingResponse struct {
	ID                     uuid.UUID  `json:"id"`
	EntityType             string     `json:"entity_type"`
	EntityID               string     `json:"entity_id"`
	RevenueAccountID       *uuid.UUID `json:"revenue_account_id,omitempty"`
	ExpenseAccountID       *uuid.UUID `json:"expense_account_id,omitempty"`
	LiabilityAccountID     *uuid.UUID `json:"liability_account_id,omitempty"`
	AssetAccountID         *uuid.UUID `json:"asset_account_id,omitempty"`
	ContraRevenueAccountID *uuid.UUID `json:"contra_revenue_account_id,omitempty"`
	UpdatedAt              time.Time  `json:"updated_at"`
}

func toMappingResponse(m *ledger.GLAccountMapping) *MappingResponse {
	return &MappingResponse{
		ID:                     m.ID,
		EntityType:             m.EntityType,
		EntityID:               m.EntityID,
		RevenueAccountID:       m.RevenueAccountID,
		ExpenseAccountID:       m.ExpenseAccountID,
		LiabilityAccountID:     m.LiabilityAccountID,
		AssetAccountID:         m.AssetAccountID,
		ContraRevenueAccountID: m.ContraRevenueAccountID,
		UpdatedAt:              m.UpdatedAt,
	}
}

// UnmappedEventResponse represents an unmapped-category record in API responses
type UnmappedEventResponse struct {
	ID                uuid.UUID  `json:"id"`
	SourceModule      string     `json:"source_module"`
	SourceReferenceID string     `json:"source_reference_id"`
	Category          string     `json:"category"`
	EntityType        string     `json:"entity_type,omitempty"`
	EntityID          string     `json:"entity_id,omitempty"`
	Reason            string     `json:"reason"`
	CreatedAt         time.Time  `json:"created_at"`
	ResolvedAt        *time.Time `json:"resolved_at,omitempty"`
}

func toUnmappedEventResponse(u *ledger.UnmappedEvent) UnmappedEventResponse {
	return UnmappedEventResponse{
		ID:                u.ID,
		SourceModule:      u.SourceModule,
		SourceReferenceID: u.SourceReferenceID,
		Category:          string(u.Category),
		EntityType:        u.EntityType,
		EntityID:          u.EntityID,
		Reason:            u.Reason,
		CreatedAt:         u.CreatedAt,
		ResolvedAt:        u.ResolvedAt,
	}
}

// ===================== Bootstrap =====================

// BootstrapRequest represents a request to seed a tenant's chart of accounts
type BootstrapRequest struct {
	TemplateKey string  `json:"template_key" binding:"required"`
	StateName   *string `json:"state_name"`
}

// BootstrapResult reports what a bootstrap did. AlreadyBootstrapped is true when the
// tenant had settings and nothing was written.
type BootstrapResult struct {
	TenantID            uuid.UUID            `json:"tenant_id"`
	TemplateKey         string               `json:"template_key"`
	AlreadyBootstrapped bool                 `json:"already_bootstrapped"`
	ClassificationCount int64                `json:"classification_count"`
	AccountCount        int64                `json:"account_count"`
	ControlAccounts     map[string]uuid.UUID `json:"control_accounts,omitempty"`
}

// ===================== Audit =====================

// AuditEntryResponse is one audit-log row
type AuditEntryResponse struct {
	ID          uuid.UUID         `json:"id"`
	ActorUserID uuid.UUID         `json:"actor_user_id"`
	Action      string            `json:"action"`
	EntityType  string            `json:"entity_type"`
	EntityID    string            `json:"entity_id"`
	Metadata    map[string]string `json:"metadata,omitempty"`
	CreatedAt   time.Time         `json:"created_at"`
}

// ToAuditEntryResponse converts an audit entry to its response form
func ToAuditEntryResponse(a *ledger.AuditEntry) AuditEntryResponse {
	return AuditEntryResponse{
		ID:          a.ID,
		ActorUserID: a.ActorUserID,
		Action:      a.Action,
		EntityType:  a.EntityType,
		EntityID:    a.EntityID,
		Metadata:    a.Metadata,
		CreatedAt:   a.CreatedAt,
	}
}
