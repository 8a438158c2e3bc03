package ledger

import (
	"time"

	"github.com/google/uuid"
)

// IdempotencyKey stores the result of the first successful execution of a command so
// a retry with the same client request id returns it instead of executing again
type IdempotencyKey struct {
	ID              uuid.UUID
	TenantID        uuid.UUID
	ClientRequestID string
	OperationName   string
	CachedResult    []byte
	CreatedAt       time.Time
}

// NewIdempotencyKey creates a key holding the serialized result
func NewIdempotencyKey(tenantID uuid.UUID, clientRequestID, operation string, result []byte) *IdempotencyKey {
	return &IdempotencyKey{
		ID:              uuid.New(),
		TenantID:        tenantID,
		ClientRequestID: clientRequestID,
		OperationName:   operation,
		CachedResult:    result,
		CreatedAt:       time.Now(),
	}
}

// AuditEntry is one row of the audit log, written after a state-changing command commits
type AuditEntry struct {
	ID          uuid.UUID
	TenantID    uuid.UUID
	ActorUserID uuid.UUID
	Action      string
	EntityType  string
	EntityID    string
	Metadata    map[string]string
	CreatedAt   time.Time
}

// NewAuditEntry creates an audit entry
func NewAuditEntry(tenantID, actorUserID uuid.UUID, action, entityType, entityID string) *AuditEntry {
	return &AuditEntry{
		ID:          uuid.New(),
		TenantID:    tenantID,
		ActorUserID: actorUserID,
		Action:      action,
		EntityType:  entityType,
		EntityID:    entityID,
		CreatedAt:   time.Now(),
	}
}
