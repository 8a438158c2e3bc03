package handler

import (
	"context"

	"github.com/erp/ledger/internal/application/ledger"
	"github.com/erp/ledger/internal/application/uow"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// AccountService maintains GL accounts
type AccountService interface {
	CreateAccount(ctx context.Context, cc uow.CommandContext, req ledger.CreateAccountRequest) (*ledger.AccountResponse, error)
	ActivateAccount(ctx context.Context, cc uow.CommandContext, id uuid.UUID) (*ledger.AccountResponse, error)
	DeactivateAccount(ctx context.Context, cc uow.CommandContext, id uuid.UUID) (*ledger.AccountResponse, error)
	DeleteAccount(ctx context.Context, cc uow.CommandContext, id uuid.UUID) error
	GetAccount(ctx context.Context, tenantID, id uuid.UUID) (*ledger.AccountResponse, error)
	ListAccounts(ctx context.Context, tenantID uuid.UUID, filter ledger.AccountListFilter) ([]ledger.AccountResponse, error)
}

// ClassificationService maintains GL classifications
type ClassificationService interface {
	CreateGLClassification(ctx context.Context, cc uow.CommandContext, req ledger.CreateClassificationRequest) (*ledger.ClassificationResponse, error)
	UpdateGLClassification(ctx context.Context, cc uow.CommandContext, id uuid.UUID, req ledger.UpdateClassificationRequest) (*ledger.ClassificationResponse, error)
	ListGLClassifications(ctx context.Context, tenantID uuid.UUID) ([]ledger.ClassificationResponse, error)
}

// BootstrapService seeds a tenant chart from a template
type BootstrapService interface {
	BootstrapTenantCOA(ctx context.Context, cc uow.CommandContext, templateKey string, stateName *string) (*ledger.BootstrapResult, error)
}

// ChartHandler handles chart-of-accounts endpoints
type ChartHandler struct {
	BaseHandler
	accounts        AccountService
	classifications ClassificationService
	bootstrap       BootstrapService
}

// NewChartHandler creates a ChartHandler
func NewChartHandler(accounts AccountService, classifications ClassificationService, bootstrap BootstrapService) *ChartHandler {
	return &ChartHandler{
		accounts:        accounts,
		classifications: classifications,
		bootstrap:       bootstrap,
	}
}

// CreateAccount godoc
// @Summary      Create a GL account
// @Tags         accounts
// @Router       /accounts [post]
func (h *ChartHandler) CreateAccount(c *gin.Context) {
	cc, ok := h.commandContext(c)
	if !ok {
		return
	}
	var req ledger.CreateAccountRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BindError(c, err)
		return
	}

	account, err := h.accounts.CreateAccount(c.Request.Context(), cc, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, account)
}

// GetAccount godoc
// @Summary      Get a GL account
// @Tags         accounts
// @Router       /accounts/{id} [get]
func (h *ChartHandler) GetAccount(c *gin.Context) {
	tenantID, ok := h.tenantID(c)
	if !ok {
		return
	}
	id, ok := h.pathID(c, "id")
	if !ok {
		return
	}

	account, err := h.accounts.GetAccount(c.Request.Context(), tenantID, id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, account)
}

// ListAccounts godoc
// @Summary      List GL accounts ordered by account number
// @Tags         accounts
// @Router       /accounts [get]
func (h *ChartHandler) ListAccounts(c *gin.Context) {
	tenantID, ok := h.tenantID(c)
	if !ok {
		return
	}
	var filter ledger.AccountListFilter
	if err := c.ShouldBindQuery(&filter); err != nil {
		h.BindError(c, err)
		return
	}

	accounts, err := h.accounts.ListAccounts(c.Request.Context(), tenantID, filter)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, accounts)
}

// ActivateAccount godoc
// @Summary      Reactivate a GL account
// @Tags         accounts
// @Router       /accounts/{id}/activate [post]
func (h *ChartHandler) ActivateAccount(c *gin.Context) {
	h.toggleAccount(c, h.accounts.ActivateAccount)
}

// DeactivateAccount godoc
// @Summary      Deactivate a GL account so it no longer accepts postings
// @Tags         accounts
// @Router       /accounts/{id}/deactivate [post]
func (h *ChartHandler) DeactivateAccount(c *gin.Context) {
	h.toggleAccount(c, h.accounts.DeactivateAccount)
}

func (h *ChartHandler) toggleAccount(c *gin.Context, fn func(context.Context, uow.CommandContext, uuid.UUID) (*ledger.AccountResponse, error)) {
	cc, ok := h.commandContext(c)
	if !ok {
		return
	}
	id, ok := h.pathID(c, "id")
	if !ok {
		return
	}

	account, err := fn(c.Request.Context(), cc, id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, account)
}

// DeleteAccount godoc
// @Summary      Delete a GL account that no posted line references
// @Tags         accounts
// @Router       /accounts/{id} [delete]
func (h *ChartHandler) DeleteAccount(c *gin.Context) {
	cc, ok := h.commandContext(c)
	if !ok {
		return
	}
	id, ok := h.pathID(c, "id")
	if !ok {
		return
	}

	if err := h.accounts.DeleteAccount(c.Request.Context(), cc, id); err != nil {
		h.HandleError(c, err)
		return
	}
	h.NoContent(c)
}

// CreateClassification godoc
// @Summary      Create a GL classification
// @Tags         classifications
// @Router       /classifications [post]
func (h *ChartHandler) CreateClassification(c *gin.Context) {
	cc, ok := h.commandContext(c)
	if !ok {
		return
	}
	var req ledger.CreateClassificationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BindError(c, err)
		return
	}

	classification, err := h.classifications.CreateGLClassification(c.Request.Context(), cc, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, classification)
}

// UpdateClassification godoc
// @Summary      Rename or retype a GL classification
// @Tags         classifications
// @Router       /classifications/{id} [put]
func (h *ChartHandler) UpdateClassification(c *gin.Context) {
	cc, ok := h.commandContext(c)
	if !ok {
		return
	}
	id, ok := h.pathID(c, "id")
	if !ok {
		return
	}
	var req ledger.UpdateClassificationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BindError(c, err)
		return
	}

	classification, err := h.classifications.UpdateGLClassification(c.Request.Context(), cc, id, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, classification)
}

// ListClassifications godoc
// @Summary      List GL classifications
// @Tags         classifications
// @Router       /classifications [get]
func (h *ChartHandler) ListClassifications(c *gin.Context) {
	tenantID, ok := h.tenantID(c)
	if !ok {
		return
	}

	list, err := h.classifications.ListGLClassifications(c.Request.Context(), tenantID)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, list)
}

// Bootstrap godoc
// @Summary      Seed the tenant chart of accounts from a template
// @Description  A tenant that already has a chart is reported as already_bootstrapped.
// @Tags         chart
// @Router       /chart/bootstrap [post]
func (h *ChartHandler) Bootstrap(c *gin.Context) {
	cc, ok := h.commandContext(c)
	if !ok {
		return
	}
	var req ledger.BootstrapRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BindError(c, err)
		return
	}

	result, err := h.bootstrap.BootstrapTenantCOA(c.Request.Context(), cc, req.TemplateKey, req.StateName)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, result)
}
