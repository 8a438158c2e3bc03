package models

import (
	"time"

	"github.com/erp/ledger/internal/domain/ledger"
	"github.com/google/uuid"
	"gorm.io/datatypes"
)

// UnmappedEventModel is the persistence model for an unresolved posting category.
type UnmappedEventModel struct {
	ID                uuid.UUID       `gorm:"type:uuid;primaryKey"`
	TenantID          uuid.UUID       `gorm:"type:uuid;not null;index:idx_gl_unmapped_tenant_open,priority:1"`
	SourceModule      string          `gorm:"type:varchar(50);not null"`
	SourceReferenceID string          `gorm:"type:varchar(200);not null"`
	Category          ledger.Category `gorm:"type:varchar(50);not null"`
	EntityType        string          `gorm:"type:varchar(50)"`
	EntityID          string          `gorm:"type:varchar(100)"`
	Reason            string          `gorm:"type:varchar(500)"`
	Payload           datatypes.JSON  `gorm:"type:jsonb;not null"`
	CreatedAt         time.Time       `gorm:"not null;index"`
	ResolvedAt        *time.Time      `gorm:"index:idx_gl_unmapped_tenant_open,priority:2"`
}

// TableName returns the table name for GORM
func (UnmappedEventModel) TableName() string {
	return "gl_unmapped_events"
}

// ToDomain converts the persistence model to a domain UnmappedEvent.
func (m *UnmappedEventModel) ToDomain() *ledger.UnmappedEvent {
	return &ledger.UnmappedEvent{
		ID:                m.ID,
		TenantID:          m.TenantID,
		SourceModule:      m.SourceModule,
		SourceReferenceID: m.SourceReferenceID,
		Category:          m.Category,
		EntityType:        m.EntityType,
		EntityID:          m.EntityID,
		Reason:            m.Reason,
		Payload:           []byte(m.Payload),
		CreatedAt:         m.CreatedAt,
		ResolvedAt:        m.ResolvedAt,
	}
}

// UnmappedEventModelFromDomain creates a persistence model from a domain UnmappedEvent.
func UnmappedEventModelFromDomain(u *ledger.UnmappedEvent) *UnmappedEventModel {
	m := &UnmappedEventModel{
		ID:                u.ID,
		TenantID:          u.TenantID,
		SourceModule:      u.SourceModule,
		SourceReferenceID: u.SourceReferenceID,
		Category:          u.Category,
		EntityType:        u.EntityType,
		EntityID:          u.EntityID,
		Reason:            u.Reason,
		CreatedAt:         u.CreatedAt,
		ResolvedAt:        u.ResolvedAt,
		Payload:           datatypes.JSON("{}"),
	}
	if len(u.Payload) > 0 {
		m.Payload = datatypes.JSON(u.Payload)
	}
	return m
}

// IdempotencyKeyModel stores the cached result of a command keyed by client request id.
type IdempotencyKeyModel struct {
	ID              uuid.UUID      `gorm:"type:uuid;primaryKey"`
	TenantID        uuid.UUID      `gorm:"type:uuid;not null;uniqueIndex:idx_gl_idempotency_request,priority:1"`
	ClientRequestID string         `gorm:"type:varchar(200);not null;uniqueIndex:idx_gl_idempotency_request,priority:2"`
	OperationName   string         `gorm:"type:varchar(100);not null;uniqueIndex:idx_gl_idempotency_request,priority:3"`
	CachedResult    datatypes.JSON `gorm:"type:jsonb;not null"`
	CreatedAt       time.Time      `gorm:"not null;index"`
}

// TableName returns the table name for GORM
func (IdempotencyKeyModel) TableName() string {
	return "gl_idempotency_keys"
}

// ToDomain converts the persistence model to a domain IdempotencyKey.
func (m *IdempotencyKeyModel) ToDomain() *ledger.IdempotencyKey {
	return &ledger.IdempotencyKey{
		ID:              m.ID,
		TenantID:        m.TenantID,
		ClientRequestID: m.ClientRequestID,
		OperationName:   m.OperationName,
		CachedResult:    []byte(m.CachedResult),
		CreatedAt:       m.CreatedAt,
	}
}

// IdempotencyKeyModelFromDomain creates a persistence model from a domain IdempotencyKey.
func IdempotencyKeyModelFromDomain(k *ledger.IdempotencyKey) *IdempotencyKeyModel {
	m := &IdempotencyKeyModel{
		ID:              k.ID,
		TenantID:        k.TenantID,
		ClientRequestID: k.ClientRequestID,
		OperationName:   k.OperationName,
		CreatedAt:       k.CreatedAt,
		CachedResult:    datatypes.JSON("null"),
	}
	if len(k.CachedResult) > 0 {
		m.CachedResult = datatypes.JSON(k.CachedResult)
	}
	return m
}

// AuditEntryModel is one row of the audit log.
type AuditEntryModel struct {
	ID          uuid.UUID                             `gorm:"type:uuid;primaryKey"`
	TenantID    uuid.UUID                             `gorm:"type:uuid;not null;index:idx_gl_audit_entity,priority:1"`
	ActorUserID uuid.UUID                             `gorm:"type:uuid;not null"`
	Action      string                                `gorm:"type:varchar(100);not null"`
	EntityType  string                                `gorm:"type:varchar(50);not null;index:idx_gl_audit_entity,priority:2"`
	EntityID    string                                `gorm:"type:varchar(100);not null;index:idx_gl_audit_entity,priority:3"`
	Metadata    datatypes.JSONType[map[string]string] `gorm:"type:jsonb;not null"`
	CreatedAt   time.Time                             `gorm:"not null;index"`
}

// TableName returns the table name for GORM
func (AuditEntryModel) TableName() string {
	return "gl_audit_log"
}

// ToDomain converts the persistence model to a domain AuditEntry.
func (m *AuditEntryModel) ToDomain() *ledger.AuditEntry {
	return &ledger.AuditEntry{
		ID:          m.ID,
		TenantID:    m.TenantID,
		ActorUserID: m.ActorUserID,
		Action:      m.Action,
		EntityType:  m.EntityType,
		EntityID:    m.EntityID,
		Metadata:    m.Metadata.Data(),
		CreatedAt:   m.CreatedAt,
	}
}

// AuditEntryModelFromDomain creates a persistence model from a domain AuditEntry.
func AuditEntryModelFromDomain(a *ledger.AuditEntry) *AuditEntryModel {
	metadata := a.Metadata
	if metadata == nil {
		metadata = map[string]string{}
	}
	return &AuditEntryModel{
		ID:          a.ID,
		TenantID:    a.TenantID,
		ActorUserID: a.ActorUserID,
		Action:      a.Action,
		EntityType:  a.EntityType,
		EntityID:    a.EntityID,
		Metadata:    datatypes.NewJSONType(metadata),
		CreatedAt:   a.CreatedAt,
	}
}
