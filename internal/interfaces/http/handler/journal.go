package handler

import (
	"context"

	"github.com/erp/ledger/internal/application/ledger"
	"github.com/erp/ledger/internal/application/uow"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// JournalService is the posting engine surface used over HTTP
type JournalService interface {
	PostEntry(ctx context.Context, cc uow.CommandContext, req ledger.PostEntryRequest) (*ledger.JournalEntryResponse, error)
	PostDraftEntry(ctx context.Context, cc uow.CommandContext, id uuid.UUID) (*ledger.JournalEntryResponse, error)
	VoidJournalEntry(ctx context.Context, cc uow.CommandContext, id uuid.UUID, reason string) (*ledger.JournalEntryResponse, error)
	GetJournalEntry(ctx context.Context, tenantID, id uuid.UUID) (*ledger.JournalEntryResponse, error)
	ListJournalEntries(ctx context.Context, tenantID uuid.UUID, filter ledger.JournalListFilter) (*ledger.JournalListResponse, error)
}

// JournalHandler handles journal entry endpoints
type JournalHandler struct {
	BaseHandler
	journals JournalService
}

// NewJournalHandler creates a JournalHandler
func NewJournalHandler(journals JournalService) *JournalHandler {
	return &JournalHandler{journals: journals}
}

// VoidRequest carries the mandatory reason of a void
type VoidRequest struct {
	Reason string `json:"reason" binding:"required,max=500"`
}

// PostEntry godoc
// @Summary      Create and post a journal entry
// @Description  Posts immediately in auto mode or when force_post is set, otherwise stores a draft.
// @Description  Send Idempotency-Key to make retries return the first result.
// @Tags         journal-entries
// @Router       /journal-entries [post]
func (h *JournalHandler) PostEntry(c *gin.Context) {
	cc, ok := h.commandContext(c)
	if !ok {
		return
	}
	var req ledger.PostEntryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BindError(c, err)
		return
	}

	entry, err := h.journals.PostEntry(c.Request.Context(), cc, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, entry)
}

// PostDraft godoc
// @Summary      Post a draft journal entry
// @Tags         journal-entries
// @Router       /journal-entries/{id}/post [post]
func (h *JournalHandler) PostDraft(c *gin.Context) {
	cc, ok := h.commandContext(c)
	if !ok {
		return
	}
	id, ok := h.pathID(c, "id")
	if !ok {
		return
	}

	entry, err := h.journals.PostDraftEntry(c.Request.Context(), cc, id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, entry)
}

// Void godoc
// @Summary      Void a posted journal entry by posting its reversal
// @Tags         journal-entries
// @Router       /journal-entries/{id}/void [post]
func (h *JournalHandler) Void(c *gin.Context) {
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

	entry, err := h.journals.VoidJournalEntry(c.Request.Context(), cc, id, req.Reason)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, entry)
}

// Get godoc
// @Summary      Get a journal entry with its lines
// @Tags         journal-entries
// @Router       /journal-entries/{id} [get]
func (h *JournalHandler) Get(c *gin.Context) {
	tenantID, ok := h.tenantID(c)
	if !ok {
		return
	}
	id, ok := h.pathID(c, "id")
	if !ok {
		return
	}

	entry, err := h.journals.GetJournalEntry(c.Request.Context(), tenantID, id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, entry)
}

// List godoc
// @Summary      List journal entries, newest first
// @Tags         journal-entries
// @Param        status query string false "draft, posted or voided"
// @Param        source_module query string false "Source module"
// @Param        from_date query string false "YYYY-MM-DD"
// @Param        to_date query string false "YYYY-MM-DD"
// @Router       /journal-entries [get]
func (h *JournalHandler) List(c *gin.Context) {
	tenantID, ok := h.tenantID(c)
	if !ok {
		return
	}
	var filter ledger.JournalListFilter
	if err := c.ShouldBindQuery(&filter); err != nil {
		h.BindError(c, err)
		return
	}

	result, err := h.journals.ListJournalEntries(c.Request.Context(), tenantID, filter)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.SuccessWithMeta(c, result.Items, result.Total, result.Page, result.PageSize)
}
