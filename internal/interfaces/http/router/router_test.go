package router

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/erp/ledger/internal/infrastructure/auth"
	"github.com/erp/ledger/internal/infrastructure/config"
	"github.com/erp/ledger/internal/interfaces/http/handler"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func serve(engine *gin.Engine, method, path, token string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, nil)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	engine.ServeHTTP(w, req)
	return w
}

func TestRouterSetup(t *testing.T) {
	engine := gin.New()
	r := NewRouter(engine, WithAPIVersion("v2"))
	r.Use(func(c *gin.Context) {
		c.Header("X-Api", "on")
		c.Next()
	})

	group := NewDomainGroup("test", "/test")
	group.GET("/ping", func(c *gin.Context) { c.String(http.StatusOK, "pong") })
	r.Register(group).Setup()

	w := serve(engine, http.MethodGet, "/api/v2/test/ping", "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "pong", w.Body.String())
	assert.Equal(t, "on", w.Header().Get("X-Api"))

	w = serve(engine, http.MethodGet, "/api/v1/test/ping", "")
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestDomainGroup(t *testing.T) {
	t.Run("name and prefix", func(t *testing.T) {
		g := NewDomainGroup("receivable", "/receipts")
		assert.Equal(t, "receivable", g.Name())
		assert.Equal(t, "/receipts", g.Prefix())
	})

	t.Run("methods, middleware and subgroups", func(t *testing.T) {
		engine := gin.New()
		g := NewDomainGroup("chart", "/chart").Use(func(c *gin.Context) {
			c.Header("X-Group", "chart")
			c.Next()
		})
		ok := func(c *gin.Context) { c.Status(http.StatusOK) }
		g.GET("/items", ok).POST("/items", ok).PUT("/items/:id", ok).DELETE("/items/:id", ok)
		g.Group("accounts", "/accounts").GET("", ok)

		g.RegisterRoutes(engine.Group("/api/v1"))

		for _, tc := range []struct{ method, path string }{
			{http.MethodGet, "/api/v1/chart/items"},
			{http.MethodPost, "/api/v1/chart/items"},
			{http.MethodPut, "/api/v1/chart/items/1"},
			{http.MethodDelete, "/api/v1/chart/items/1"},
			{http.MethodGet, "/api/v1/chart/accounts"},
		} {
			w := serve(engine, tc.method, tc.path, "")
			assert.Equal(t, http.StatusOK, w.Code, "%s %s", tc.method, tc.path)
			assert.Equal(t, "chart", w.Header().Get("X-Group"), "%s %s", tc.method, tc.path)
		}
	})
}

func ledgerEngine(t *testing.T) (*gin.Engine, *auth.TokenService) {
	t.Helper()
	tokens := auth.NewTokenService(config.JWTConfig{
		Secret:                "router-test-secret-router-test-secret",
		Issuer:                "erp-identity",
		AccessTokenExpiration: time.Minute,
	})
	engine := gin.New()
	RegisterLedgerRoutes(engine, tokens, Handlers{
		System:      handler.NewSystemHandler("ledger-api", "test", nil),
		Journal:     handler.NewJournalHandler(nil),
		Chart:       handler.NewChartHandler(nil, nil, nil),
		ChartImport: handler.NewChartImportHandler(nil),
		Mapping:     handler.NewMappingHandler(nil),
		Receivable:  handler.NewReceivableHandler(nil, nil),
		Integration: handler.NewIntegrationHandler(nil),
		Outbox:      handler.NewOutboxHandler(nil),
		Audit:       handler.NewAuditHandler(nil),
	}, zap.NewNop())
	return engine, tokens
}

func issue(t *testing.T, tokens *auth.TokenService, perms ...string) string {
	t.Helper()
	token, _, err := tokens.Issue(auth.IssueInput{TenantID: uuid.New(), UserID: uuid.New(), Permissions: perms})
	require.NoError(t, err)
	return token
}

func TestRegisterLedgerRoutes_Probes(t *testing.T) {
	engine, _ := ledgerEngine(t)

	assert.Equal(t, http.StatusOK, serve(engine, http.MethodGet, "/health", "").Code)
	assert.Equal(t, http.StatusOK, serve(engine, http.MethodGet, "/ready", "").Code)
	assert.Equal(t, http.StatusOK, serve(engine, http.MethodGet, "/system/info", "").Code)
}

func TestRegisterLedgerRoutes_RequiresToken(t *testing.T) {
	engine, _ := ledgerEngine(t)

	w := serve(engine, http.MethodGet, "/api/v1/journal-entries", "")
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestRegisterLedgerRoutes_Permissions(t *testing.T) {
	engine, tokens := ledgerEngine(t)

	// Handlers reject the malformed id before touching their services, so a 400
	// proves the request got past authentication and the permission gate.
	tests := []struct {
		name       string
		method     string
		path       string
		permission string
	}{
		{"post draft", http.MethodPost, "/api/v1/journal-entries/x/post", auth.PermissionJournalPost},
		{"void", http.MethodPost, "/api/v1/journal-entries/x/void", auth.PermissionJournalVoid},
		{"account", http.MethodGet, "/api/v1/accounts/x", auth.PermissionChartManage},
		{"resolve unmapped", http.MethodPost, "/api/v1/unmapped-events/x/resolve", auth.PermissionChartManage},
		{"receipt", http.MethodGet, "/api/v1/receipts/x", auth.PermissionReceiptWrite},
		{"open invoices", http.MethodGet, "/api/v1/customers/x/open-invoices", auth.PermissionReceiptWrite},
		{"outbox entry", http.MethodGet, "/api/v1/system/outbox/x", auth.PermissionOutboxAdmin},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := serve(engine, tt.method, tt.path, issue(t, tokens))
			assert.Equal(t, http.StatusForbidden, w.Code)

			w = serve(engine, tt.method, tt.path, issue(t, tokens, tt.permission))
			assert.Equal(t, http.StatusBadRequest, w.Code)
		})
	}
}

func TestRegisterLedgerRoutes_ReadsNeedOnlyAuthentication(t *testing.T) {
	engine, tokens := ledgerEngine(t)

	w := serve(engine, http.MethodGet, "/api/v1/journal-entries/x", issue(t, tokens))
	assert.Equal(t, http.StatusBadRequest, w.Code)
}
