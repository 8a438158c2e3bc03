package handler

import (
	"context"
	"net/http"

	"github.com/erp/ledger/internal/application/adapter"
	"github.com/erp/ledger/internal/interfaces/http/dto"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// FnBIntake queues F&B postings for the ledger adapter
type FnBIntake interface {
	Submit(ctx context.Context, tenantID uuid.UUID, req adapter.SubmitFnBPostingRequest) (*adapter.FnBSubmission, error)
}

// IntegrationHandler accepts postings from modules that run outside this process
type IntegrationHandler struct {
	BaseHandler
	fnb FnBIntake
}

// NewIntegrationHandler creates an IntegrationHandler
func NewIntegrationHandler(fnb FnBIntake) *IntegrationHandler {
	return &IntegrationHandler{fnb: fnb}
}

// SubmitFnBPosting godoc
// @Summary      Queue an F&B daily sales summary for posting
// @Description  Returns 202: lines are resolved to accounts when the event is delivered.
// @Description  Unresolvable categories show up under /unmapped-events.
// @Tags         integrations
// @Router       /integrations/fnb/postings [post]
func (h *IntegrationHandler) SubmitFnBPosting(c *gin.Context) {
	tenantID, ok := h.tenantID(c)
	if !ok {
		return
	}
	var req adapter.SubmitFnBPostingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BindError(c, err)
		return
	}

	sub, err := h.fnb.Submit(c.Request.Context(), tenantID, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	c.JSON(http.StatusAccepted, dto.NewSuccessResponse(sub))
}
