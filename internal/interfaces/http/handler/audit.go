package handler

import (
	"context"

	"github.com/erp/ledger/internal/application/ledger"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// AuditService reads audit trails
type AuditService interface {
	ListAuditEntries(ctx context.Context, tenantID uuid.UUID, entityType, entityID string) ([]ledger.AuditEntryResponse, error)
}

// AuditHandler exposes the per-entity audit trail
type AuditHandler struct {
	BaseHandler
	audit AuditService
}

// NewAuditHandler creates an AuditHandler
func NewAuditHandler(audit AuditService) *AuditHandler {
	return &AuditHandler{audit: audit}
}

// List godoc
// @Summary      Audit trail of one entity
// @Tags         audit
// @Param        entity_type query string true "e.g. journal_entry, ar_receipt"
// @Param        entity_id   query string true "Entity id"
// @Router       /audit-entries [get]
func (h *AuditHandler) List(c *gin.Context) {
	tenantID, ok := h.tenantID(c)
	if !ok {
		return
	}

	trail, err := h.audit.ListAuditEntries(c.Request.Context(), tenantID, c.Query("entity_type"), c.Query("entity_id"))
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, trail)
}
