package handler

import (
	"context"

	"github.com/erp/ledger/internal/application/ledger"
	"github.com/erp/ledger/internal/application/uow"
	"github.com/erp/ledger/internal/domain/shared"
	"github.com/erp/ledger/internal/interfaces/http/dto"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// MappingService maintains GL account mappings and the unmapped event queue
type MappingService interface {
	UpsertGLAccountMapping(ctx context.Context, cc uow.CommandContext, req ledger.UpsertMappingRequest) (*ledger.MappingResponse, error)
	ListGLAccountMappings(ctx context.Context, tenantID uuid.UUID, entityType string) ([]ledger.MappingResponse, error)
	ListUnmappedEvents(ctx context.Context, tenantID uuid.UUID, openOnly bool, page shared.Pagination) (shared.Paginated[ledger.UnmappedEventResponse], error)
	ResolveUnmappedEvent(ctx context.Context, cc uow.CommandContext, id uuid.UUID) (*ledger.UnmappedEventResponse, error)
}

// MappingHandler lets operators remediate postings that found no account
type MappingHandler struct {
	BaseHandler
	mappings MappingService
}

// NewMappingHandler creates a MappingHandler
func NewMappingHandler(mappings MappingService) *MappingHandler {
	return &MappingHandler{mappings: mappings}
}

// UnmappedQuery filters the unmapped event list
type UnmappedQuery struct {
	dto.PageQuery
	OpenOnly *bool `form:"open_only"`
}

// Upsert godoc
// @Summary      Create or replace the accounts mapped to an entity
// @Description  entity_id "default" or empty maps the whole entity type.
// @Tags         mappings
// @Router       /mappings [put]
func (h *MappingHandler) Upsert(c *gin.Context) {
	cc, ok := h.commandContext(c)
	if !ok {
		return
	}
	var req ledger.UpsertMappingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BindError(c, err)
		return
	}

	mapping, err := h.mappings.UpsertGLAccountMapping(c.Request.Context(), cc, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, mapping)
}

// List godoc
// @Summary      List GL account mappings
// @Tags         mappings
// @Param        entity_type query string false "Restrict to one entity type"
// @Router       /mappings [get]
func (h *MappingHandler) List(c *gin.Context) {
	tenantID, ok := h.tenantID(c)
	if !ok {
		return
	}

	list, err := h.mappings.ListGLAccountMappings(c.Request.Context(), tenantID, c.Query("entity_type"))
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, list)
}

// ListUnmapped godoc
// @Summary      List postings skipped for lack of a mapping
// @Tags         mappings
// @Param        open_only query bool false "Only unresolved events" default(true)
// @Router       /unmapped-events [get]
func (h *MappingHandler) ListUnmapped(c *gin.Context) {
	tenantID, ok := h.tenantID(c)
	if !ok {
		return
	}
	var q UnmappedQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		h.BindError(c, err)
		return
	}
	openOnly := q.OpenOnly == nil || *q.OpenOnly

	result, err := h.mappings.ListUnmappedEvents(c.Request.Context(), tenantID, openOnly, pagination(q.PageQuery))
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.SuccessWithMeta(c, result.Items, result.Total, result.Page, result.PageSize)
}

// ResolveUnmapped godoc
// @Summary      Mark an unmapped event as handled
// @Tags         mappings
// @Router       /unmapped-events/{id}/resolve [post]
func (h *MappingHandler) ResolveUnmapped(c *gin.Context) {
	cc, ok := h.commandContext(c)
	if !ok {
		return
	}
	id, ok := h.pathID(c, "id")
	if !ok {
		return
	}

	event, err := h.mappings.ResolveUnmappedEvent(c.Request.Context(), cc, id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, event)
}
