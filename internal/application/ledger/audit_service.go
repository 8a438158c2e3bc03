package ledger

import (
	"context"
	"strings"

	"github.com/erp/ledger/internal/domain/ledger"
	"github.com/erp/ledger/internal/domain/shared"
	"github.com/google/uuid"
)

// AuditService reads the audit trail written after each committed command
type AuditService struct {
	repo ledger.AuditRepository
}

// NewAuditService creates an AuditService
func NewAuditService(repo ledger.AuditRepository) *AuditService {
	return &AuditService{repo: repo}
}

// ListAuditEntries returns the trail of one entity, oldest first
func (s *AuditService) ListAuditEntries(ctx context.Context, tenantID uuid.UUID, entityType, entityID string) ([]AuditEntryResponse, error) {
	entityType = strings.TrimSpace(entityType)
	entityID = strings.TrimSpace(entityID)
	if entityType == "" || entityID == "" {
		return nil, shared.NewValidationError("INVALID_AUDIT_QUERY", "entity_type and entity_id are required")
	}

	entries, err := s.repo.List(ctx, tenantID, entityType, entityID)
	if err != nil {
		return nil, err
	}
	out := make([]AuditEntryResponse, len(entries))
	for i, e := range entries {
		out[i] = ToAuditEntryResponse(e)
	}
	return out, nil
}
