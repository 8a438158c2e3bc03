package handler

import (
	"context"

	"github.com/erp/ledger/internal/application/receivable"
	"github.com/erp/ledger/internal/application/uow"
	"github.com/erp/ledger/internal/domain/shared"
	"github.com/erp/ledger/internal/interfaces/http/dto"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// ReceiptService runs the AR receipt lifecycle
type ReceiptService interface {
	CreateReceipt(ctx context.Context, cc uow.CommandContext, req receivable.CreateReceiptRequest) (*receivable.ReceiptResponse, error)
	PostReceipt(ctx context.Context, cc uow.CommandContext, id uuid.UUID) (*receivable.ReceiptResponse, error)
	VoidReceipt(ctx context.Context, cc uow.CommandContext, id uuid.UUID, reason string) (*receivable.ReceiptResponse, error)
	GetReceipt(ctx context.Context, tenantID, id uuid.UUID) (*receivable.ReceiptResponse, error)
	ListReceipts(ctx context.Context, tenantID uuid.UUID, filter receivable.ReceiptListFilter) (shared.Paginated[receivable.ReceiptResponse], error)
}

// InvoiceService registers AR invoices receipts are applied to
type InvoiceService interface {
	CreateInvoice(ctx context.Context, cc uow.CommandContext, req receivable.CreateInvoiceRequest) (*receivable.InvoiceResponse, error)
	GetInvoice(ctx context.Context, tenantID, id uuid.UUID) (*receivable.InvoiceResponse, error)
	ListOpenInvoices(ctx context.Context, tenantID, customerID uuid.UUID) ([]receivable.InvoiceResponse, error)
}

// ReceivableHandler handles AR receipt and invoice endpoints
type ReceivableHandler struct {
	BaseHandler
	receipts ReceiptService
	invoices InvoiceService
}

// NewReceivableHandler creates a ReceivableHandler
func NewReceivableHandler(receipts ReceiptService, invoices InvoiceService) *ReceivableHandler {
	return &ReceivableHandler{receipts: receipts, invoices: invoices}
}

// ReceiptQuery filters the receipt list
type ReceiptQuery struct {
	dto.PageQuery
	CustomerID string `form:"customer_id" binding:"omitempty,uuid"`
	Status     string `form:"status" binding:"omitempty,oneof=draft posted voided"`
}

// CreateReceipt godoc
// @Summary      Record a customer receipt as a draft
// @Tags         receipts
// @Router       /receipts [post]
func (h *ReceivableHandler) CreateReceipt(c *gin.Context) {
	cc, ok := h.commandContext(c)
	if !ok {
		return
	}
	var req receivable.CreateReceiptRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BindError(c, err)
		return
	}

	receipt, err := h.receipts.CreateReceipt(c.Request.Context(), cc, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, receipt)
}

// PostReceipt godoc
// @Summary      Post a draft receipt to the ledger and apply its allocations
// @Tags         receipts
// @Router       /receipts/{id}/post [post]
func (h *ReceivableHandler) PostReceipt(c *gin.Context) {
	cc, ok := h.commandContext(c)
	if !ok {
		return
	}
	id, ok := h.pathID(c, "id")
	if !ok {
		return
	}

	receipt, err := h.receipts.PostReceipt(c.Request.Context(), cc, id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, receipt)
}

// VoidReceipt godoc
// @Summary      Void a posted receipt and restore invoice balances
// @Tags         receipts
// @Router       /receipts/{id}/void [post]
func (h *ReceivableHandler) VoidReceipt(c *gin.Context) {
	cc, ok := h.commandContext(c)
	if !ok {
		return
	}
	id, ok := h.pathID(c, "id")
	if !ok {
		return
	}
	var req VoidRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BindError(c, err)
		return
	}

	receipt, err := h.receipts.VoidReceipt(c.Request.Context(), cc, id, req.Reason)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, receipt)
}

// GetReceipt godoc
// @Summary      Get a receipt with its allocations
// @Tags         receipts
// @Router       /receipts/{id} [get]
func (h *ReceivableHandler) GetReceipt(c *gin.Context) {
	tenantID, ok := h.tenantID(c)
	if !ok {
		return
	}
	id, ok := h.pathID(c, "id")
	if !ok {
		return
	}

	receipt, err := h.receipts.GetReceipt(c.Request.Context(), tenantID, id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, receipt)
}

// ListReceipts godoc
// @Summary      List receipts
// @Tags         receipts
// @Router       /receipts [get]
func (h *ReceivableHandler) ListReceipts(c *gin.Context) {
	tenantID, ok := h.tenantID(c)
	if !ok {
		return
	}
	var q ReceiptQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		h.BindError(c, err)
		return
	}

	page := pagination(q.PageQuery)
	filter := receivable.ReceiptListFilter{Status: q.Status, Page: page.Page, PageSize: page.PageSize}
	if q.CustomerID != "" {
		id := uuid.MustParse(q.CustomerID)
		filter.CustomerID = &id
	}

	result, err := h.receipts.ListReceipts(c.Request.Context(), tenantID, filter)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.SuccessWithMeta(c, result.Items, result.Total, result.Page, result.PageSize)
}

// CreateInvoice godoc
// @Summary      Register an AR invoice
// @Tags         invoices
// @Router       /invoices [post]
func (h *ReceivableHandler) CreateInvoice(c *gin.Context) {
	cc, ok := h.commandContext(c)
	if !ok {
		return
	}
	var req receivable.CreateInvoiceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BindError(c, err)
		return
	}

	invoice, err := h.invoices.CreateInvoice(c.Request.Context(), cc, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, invoice)
}

// GetInvoice godoc
// @Summary      Get an AR invoice
// @Tags         invoices
// @Router       /invoices/{id} [get]
func (h *ReceivableHandler) GetInvoice(c *gin.Context) {
	tenantID, ok := h.tenantID(c)
	if !ok {
		return
	}
	id, ok := h.pathID(c, "id")
	if !ok {
		return
	}

	invoice, err := h.invoices.GetInvoice(c.Request.Context(), tenantID, id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, invoice)
}

// ListOpenInvoices godoc
// @Summary      List a customer's invoices with a balance due
// @Tags         invoices
// @Router       /customers/{customer_id}/open-invoices [get]
func (h *ReceivableHandler) ListOpenInvoices(c *gin.Context) {
	tenantID, ok := h.tenantID(c)
	if !ok {
		return
	}
	customerID, ok := h.pathID(c, "customer_id")
	if !ok {
		return
	}

	invoices, err := h.invoices.ListOpenInvoices(c.Request.Context(), tenantID, customerID)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, invoices)
}
