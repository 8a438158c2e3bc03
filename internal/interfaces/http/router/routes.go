package router

import (
	"github.com/erp/ledger/internal/infrastructure/auth"
	"github.com/erp/ledger/internal/interfaces/http/handler"
	"github.com/erp/ledger/internal/interfaces/http/middleware"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// Handlers are the HTTP handlers mounted by RegisterLedgerRoutes
type Handlers struct {
	System      *handler.SystemHandler
	Journal     *handler.JournalHandler
	Chart       *handler.ChartHandler
	ChartImport *handler.ChartImportHandler
	Mapping     *handler.MappingHandler
	Receivable  *handler.ReceivableHandler
	Integration *handler.IntegrationHandler
	Outbox      *handler.OutboxHandler
	Audit       *handler.AuditHandler
}

// RegisterLedgerRoutes mounts the probes at the root and the authenticated API
// under /api/v1. Every API group is gated by the permission it needs.
func RegisterLedgerRoutes(engine *gin.Engine, tokens middleware.TokenValidator, h Handlers, log *zap.Logger) *Router {
	engine.GET("/health", h.System.Health)
	engine.GET("/ready", h.System.Ready)
	engine.GET("/system/info", h.System.GetSystemInfo)

	r := NewRouter(engine, WithAPIVersion("v1")).
		Use(middleware.Authenticate(tokens, log), middleware.SpanAttributes())

	journals := NewDomainGroup("journal", "/journal-entries")
	journals.GET("", h.Journal.List)
	journals.GET("/:id", h.Journal.Get)
	journals.POST("", middleware.RequirePermission(auth.PermissionJournalPost), h.Journal.PostEntry)
	journals.POST("/:id/post", middleware.RequirePermission(auth.PermissionJournalPost), h.Journal.PostDraft)
	journals.POST("/:id/void", middleware.RequirePermission(auth.PermissionJournalVoid), h.Journal.Void)

	chart := NewDomainGroup("chart", "").Use(middleware.RequirePermission(auth.PermissionChartManage))
	chart.Group("accounts", "/accounts").
		POST("", h.Chart.CreateAccount).
		GET("", h.Chart.ListAccounts).
		GET("/:id", h.Chart.GetAccount).
		POST("/:id/activate", h.Chart.ActivateAccount).
		POST("/:id/deactivate", h.Chart.DeactivateAccount).
		DELETE("/:id", h.Chart.DeleteAccount)
	chart.Group("classifications", "/classifications").
		POST("", h.Chart.CreateClassification).
		GET("", h.Chart.ListClassifications).
		PUT("/:id", h.Chart.UpdateClassification)
	chart.Group("coa", "/chart").
		POST("/bootstrap", h.Chart.Bootstrap).
		POST("/import/analyze", h.ChartImport.AnalyzeUpload).
		POST("/import/analyze-object", h.ChartImport.AnalyzeObject)
	chart.Group("mappings", "/mappings").
		PUT("", h.Mapping.Upsert).
		GET("", h.Mapping.List)
	chart.Group("unmapped", "/unmapped-events").
		GET("", h.Mapping.ListUnmapped).
		POST("/:id/resolve", h.Mapping.ResolveUnmapped)

	receivables := NewDomainGroup("receivable", "").Use(middleware.RequirePermission(auth.PermissionReceiptWrite))
	receivables.Group("receipts", "/receipts").
		POST("", h.Receivable.CreateReceipt).
		GET("", h.Receivable.ListReceipts).
		GET("/:id", h.Receivable.GetReceipt).
		POST("/:id/post", h.Receivable.PostReceipt).
		POST("/:id/void", h.Receivable.VoidReceipt)
	receivables.Group("invoices", "/invoices").
		POST("", h.Receivable.CreateInvoice).
		GET("/:id", h.Receivable.GetInvoice)
	receivables.GET("/customers/:customer_id/open-invoices", h.Receivable.ListOpenInvoices)

	integrations := NewDomainGroup("integrations", "/integrations").
		Use(middleware.RequirePermission(auth.PermissionJournalPost)).
		POST("/fnb/postings", h.Integration.SubmitFnBPosting)

	outbox := NewDomainGroup("outbox", "/system/outbox").
		Use(middleware.RequirePermission(auth.PermissionOutboxAdmin)).
		GET("/stats", h.Outbox.GetStats).
		GET("/dead", h.Outbox.GetDeadLetterEntries).
		POST("/dead/retry-all", h.Outbox.RetryAllDeadEntries).
		GET("/:id", h.Outbox.GetEntry).
		POST("/:id/retry", h.Outbox.RetryDeadEntry)

	audit := NewDomainGroup("audit", "/audit-entries").
		GET("", h.Audit.List)

	r.Register(journals).
		Register(chart).
		Register(receivables).
		Register(integrations).
		Register(outbox).
		Register(audit)
	r.Setup()
	return r
}
