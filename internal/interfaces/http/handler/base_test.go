package handler

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/erp/ledger/internal/domain/shared"
	"github.com/erp/ledger/internal/interfaces/http/dto"
	"github.com/erp/ledger/internal/interfaces/http/middleware"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func init() {
	gin.SetMode(gin.TestMode)
}

// setAuthContext simulates what middleware.Authenticate leaves on the context
func setAuthContext(c *gin.Context, tenantID, userID uuid.UUID) {
	c.Set(middleware.TenantIDKey, tenantID)
	c.Set(middleware.UserIDKey, userID)
}

// withAuth returns a middleware that authenticates every request as tenant/user
func withAuth(tenantID, userID uuid.UUID) gin.HandlerFunc {
	return func(c *gin.Context) {
		setAuthContext(c, tenantID, userID)
		c.Next()
	}
}

func decodeResponse(t *testing.T, w *httptest.ResponseRecorder) dto.Response {
	t.Helper()
	var resp dto.Response
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	return resp
}

func newTestContext(method, target string) (*gin.Context, *httptest.ResponseRecorder) {
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(method, target, nil)
	return c, w
}

func TestBaseHandlerSuccess(t *testing.T) {
	h := &BaseHandler{}
	c, w := newTestContext(http.MethodGet, "/")

	h.Success(c, map[string]string{"key": "value"})

	assert.Equal(t, http.StatusOK, w.Code)
	assert.True(t, decodeResponse(t, w).Success)
}

func TestBaseHandlerSuccessWithMeta(t *testing.T) {
	h := &BaseHandler{}
	c, w := newTestContext(http.MethodGet, "/")

	h.SuccessWithMeta(c, []string{"a", "b"}, 100, 2, 10)

	resp := decodeResponse(t, w)
	require.NotNil(t, resp.Meta)
	assert.Equal(t, int64(100), resp.Meta.Total)
	assert.Equal(t, 2, resp.Meta.Page)
	assert.Equal(t, 10, resp.Meta.TotalPages)
}

func TestBaseHandlerCreatedAndNoContent(t *testing.T) {
	h := &BaseHandler{}
	router := gin.New()
	router.POST("/things", func(c *gin.Context) { h.Created(c, gin.H{"id": "1"}) })
	router.DELETE("/things", func(c *gin.Context) { h.NoContent(c) })

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/things", nil))
	assert.Equal(t, http.StatusCreated, w.Code)

	w = httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodDelete, "/things", nil))
	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Empty(t, w.Body.Bytes())
}

func TestBaseHandlerErrorCarriesRequestID(t *testing.T) {
	h := &BaseHandler{}
	c, w := newTestContext(http.MethodGet, "/")
	c.Set("request_id", "req-123")

	h.BadRequest(c, "Invalid request")

	assert.Equal(t, http.StatusBadRequest, w.Code)
	resp := decodeResponse(t, w)
	assert.Equal(t, dto.ErrCodeBadRequest, resp.Error.Code)
	assert.Equal(t, "req-123", resp.Error.RequestID)
}

func TestBaseHandlerHandleError(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantCode   string
	}{
		{"validation", shared.NewValidationError("UNBALANCED_ENTRY", "debits must equal credits"), http.StatusBadRequest, "UNBALANCED_ENTRY"},
		{"not found", shared.NewNotFoundError("JOURNAL_ENTRY", "journal entry not found"), http.StatusNotFound, "JOURNAL_ENTRY_NOT_FOUND"},
		{"conflict", shared.ErrConcurrencyConflict, http.StatusConflict, "CONCURRENCY_CONFLICT"},
		{"app", shared.NewAppError("PERIOD_CLOSED", "period is closed"), http.StatusUnprocessableEntity, "PERIOD_CLOSED"},
		{"wrapped", fmt.Errorf("posting: %w", shared.NewConflictError("ALREADY_VOIDED", "entry already voided")), http.StatusConflict, "ALREADY_VOIDED"},
		{"plain", assert.AnError, http.StatusInternalServerError, dto.ErrCodeInternal},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := &BaseHandler{}
			c, w := newTestContext(http.MethodGet, "/")

			h.HandleError(c, tt.err)

			assert.Equal(t, tt.wantStatus, w.Code)
			resp := decodeResponse(t, w)
			assert.False(t, resp.Success)
			assert.Equal(t, tt.wantCode, resp.Error.Code)
		})
	}

	t.Run("nil writes nothing", func(t *testing.T) {
		h := &BaseHandler{}
		c, w := newTestContext(http.MethodGet, "/")
		h.HandleError(c, nil)
		assert.Empty(t, w.Body.Bytes())
	})
}

func TestBaseHandlerCommandContext(t *testing.T) {
	tenantID, userID := uuid.New(), uuid.New()

	t.Run("authenticated with idempotency key", func(t *testing.T) {
		h := &BaseHandler{}
		c, _ := newTestContext(http.MethodPost, "/")
		setAuthContext(c, tenantID, userID)
		c.Request.Header.Set(middleware.IdempotencyKeyHeader, "pos-batch-42")

		cc, ok := h.commandContext(c)
		require.True(t, ok)
		assert.Equal(t, tenantID, cc.TenantID)
		assert.Equal(t, userID, cc.ActorUserID)
		assert.Equal(t, "pos-batch-42", cc.ClientRequestID)
	})

	t.Run("without key", func(t *testing.T) {
		h := &BaseHandler{}
		c, _ := newTestContext(http.MethodPost, "/")
		setAuthContext(c, tenantID, userID)

		cc, ok := h.commandContext(c)
		require.True(t, ok)
		assert.Empty(t, cc.ClientRequestID)
	})

	t.Run("unauthenticated", func(t *testing.T) {
		h := &BaseHandler{}
		c, w := newTestContext(http.MethodPost, "/")

		_, ok := h.commandContext(c)
		assert.False(t, ok)
		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})

	t.Run("key too long", func(t *testing.T) {
		h := &BaseHandler{}
		c, w := newTestContext(http.MethodPost, "/")
		setAuthContext(c, tenantID, userID)
		c.Request.Header.Set(middleware.IdempotencyKeyHeader, strings.Repeat("k", maxIdempotencyKeyLength+1))

		_, ok := h.commandContext(c)
		assert.False(t, ok)
		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Equal(t, dto.ErrCodeValidation, decodeResponse(t, w).Error.Code)
	})
}

func TestBaseHandlerPathID(t *testing.T) {
	h := &BaseHandler{}
	id := uuid.New()

	c, _ := newTestContext(http.MethodGet, "/")
	c.Params = gin.Params{{Key: "id", Value: id.String()}}
	got, ok := h.pathID(c, "id")
	require.True(t, ok)
	assert.Equal(t, id, got)

	c, w := newTestContext(http.MethodGet, "/")
	c.Params = gin.Params{{Key: "id", Value: "not-a-uuid"}}
	_, ok = h.pathID(c, "id")
	assert.False(t, ok)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestPagination(t *testing.T) {
	p := pagination(dto.PageQuery{})
	assert.Equal(t, 1, p.Page)
	assert.Greater(t, p.PageSize, 0)

	p = pagination(dto.PageQuery{Page: 3, PageSize: 500})
	assert.Equal(t, 3, p.Page)
	assert.Equal(t, 100, p.PageSize)
}
