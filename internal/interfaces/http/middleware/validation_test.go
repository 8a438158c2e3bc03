package middleware

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/erp/ledger/internal/interfaces/http/dto"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type bindProbe struct {
	SourceModule string   `json:"source_module" binding:"max=5"`
	Memo         string   `json:"memo" binding:"required"`
	Lines        []string `json:"lines" binding:"required,min=2"`
	Status       string   `json:"status" binding:"omitempty,oneof=draft posted"`
}

func newBindRouter() *gin.Engine {
	SetupValidator()
	router := gin.New()
	router.Use(RequestID())
	router.POST("/test", func(c *gin.Context) {
		var req bindProbe
		if err := c.ShouldBindJSON(&req); err != nil {
			HandleBindError(c, err)
			return
		}
		c.Status(http.StatusOK)
	})
	return router
}

func postJSON(router http.Handler, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/test", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func TestHandleBindError_ValidationDetails(t *testing.T) {
	w := postJSON(newBindRouter(), `{"source_module":"too-long-module","lines":["a"],"status":"void"}`)

	require.Equal(t, http.StatusBadRequest, w.Code)
	info := decodeError(t, w)
	assert.Equal(t, dto.ErrCodeValidation, info.Code)
	assert.NotEmpty(t, info.RequestID)

	byField := map[string]string{}
	for _, d := range info.Details {
		byField[d.Field] = d.Message
	}
	assert.Equal(t, "Must be at most 5 characters", byField["source_module"])
	assert.Equal(t, "This field is required", byField["memo"])
	assert.Equal(t, "Must contain at least 2 items", byField["lines"])
	assert.Equal(t, "Must be one of: draft posted", byField["status"])
}

func TestHandleBindError_MalformedJSON(t *testing.T) {
	router := newBindRouter()

	w := postJSON(router, `{"memo":`)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = postJSON(router, `{"memo": 12, "lines": ["a","b"]}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, dto.ErrCodeInvalidJSON, decodeError(t, w).Code)
}

func TestHandleBindError_Valid(t *testing.T) {
	w := postJSON(newBindRouter(), `{"memo":"ok","lines":["a","b"]}`)
	assert.Equal(t, http.StatusOK, w.Code)
}
