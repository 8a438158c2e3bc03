package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/erp/ledger/internal/application/adapter"
	"github.com/erp/ledger/internal/application/coaimport"
	eventapp "github.com/erp/ledger/internal/application/event"
	ledgerapp "github.com/erp/ledger/internal/application/ledger"
	"github.com/erp/ledger/internal/application/receivable"
	"github.com/erp/ledger/internal/application/uow"
	"github.com/erp/ledger/internal/domain/ledger"
	"github.com/erp/ledger/internal/domain/shared"
	"github.com/erp/ledger/internal/infrastructure/auth"
	"github.com/erp/ledger/internal/infrastructure/cache"
	"github.com/erp/ledger/internal/infrastructure/config"
	"github.com/erp/ledger/internal/infrastructure/event"
	"github.com/erp/ledger/internal/infrastructure/logger"
	"github.com/erp/ledger/internal/infrastructure/persistence"
	"github.com/erp/ledger/internal/infrastructure/storage"
	"github.com/erp/ledger/internal/infrastructure/telemetry"
	"github.com/erp/ledger/internal/interfaces/http/handler"
	"github.com/erp/ledger/internal/interfaces/http/middleware"
	"github.com/erp/ledger/internal/interfaces/http/router"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// version is set at build time with -ldflags "-X main.version=..."
var version = "dev"

//	@title			Ledger API
//	@version		1.0
//	@description	General-ledger posting engine: journals, chart of accounts, GL mappings and AR receipts.

//	@BasePath	/api/v1

//	@securityDefinitions.apikey	BearerAuth
//	@in							header
//	@name						Authorization
//	@description				Bearer token authentication. Format: "Bearer {token}"

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		panic("Failed to load configuration: " + err.Error())
	}

	// Initialize logger
	log, err := logger.New(&logger.Config{
		Level:      cfg.Log.Level,
		Format:     cfg.Log.Format,
		Output:     cfg.Log.Output,
		TimeFormat: "2006-01-02T15:04:05.000Z07:00",
	})
	if err != nil {
		panic("Failed to initialize logger: " + err.Error())
	}
	defer func() {
		_ = logger.Sync(log)
	}()

	// Telemetry comes up before anything that creates spans or instruments
	providers, err := telemetry.Setup(context.Background(), telemetry.Config{
		Enabled:           cfg.Telemetry.Enabled,
		CollectorEndpoint: cfg.Telemetry.CollectorEndpoint,
		Insecure:          cfg.Telemetry.Insecure,
		ServiceName:       cfg.Telemetry.ServiceName,
		ServiceVersion:    version,
		SamplingRatio:     cfg.Telemetry.SamplingRatio,
		MetricsEnabled:    cfg.Telemetry.MetricsEnabled,
		MetricsInterval:   cfg.Telemetry.MetricsInterval,
		LogsEnabled:       cfg.Telemetry.LogsEnabled,
	}, log)
	if err != nil {
		log.Fatal("Failed to initialize telemetry", zap.Error(err))
	}
	defer func() {
		if err := providers.Shutdown(context.Background()); err != nil {
			log.Error("Error shutting down telemetry", zap.Error(err))
		}
	}()
	bridgeLevel, err := zapcore.ParseLevel(cfg.Log.Level)
	if err != nil {
		bridgeLevel = zapcore.InfoLevel
	}
	log = providers.BridgeLogger(log, bridgeLevel)

	log.Info("Starting ledger API",
		zap.String("app", cfg.App.Name),
		zap.String("env", cfg.App.Env),
		zap.String("port", cfg.App.Port),
		zap.String("version", version),
	)

	// Database with zap-backed GORM logger
	gormLog := logger.NewGormLogger(log, logger.MapGormLogLevel(cfg.Log.Level),
		logger.WithSlowThreshold(cfg.Telemetry.DBSlowQueryThresh),
	)
	db, err := persistence.NewDatabaseWithCustomLogger(&cfg.Database, gormLog)
	if err != nil {
		log.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer func() {
		if err := db.Close(); err != nil {
			log.Error("Error closing database", zap.Error(err))
		}
	}()
	if err := telemetry.InstrumentDB(db.DB, telemetry.DBConfig{
		TraceEnabled:       cfg.Telemetry.Enabled && cfg.Telemetry.DBTraceEnabled,
		MetricsEnabled:     providers.MetricsEnabled() && cfg.Telemetry.DBMetricsEnabled,
		LogFullSQL:         cfg.Telemetry.DBLogFullSQL,
		SlowQueryThreshold: cfg.Telemetry.DBSlowQueryThresh,
		DBName:             cfg.Database.DBName,
	}, providers.Meter("ledger.db"), log); err != nil {
		log.Fatal("Failed to instrument database", zap.Error(err))
	}
	log.Info("Database connected successfully")

	ledgerMetrics, err := telemetry.NewLedgerMetrics(telemetry.LedgerMetricsConfig{
		Meter:  providers.Meter("ledger"),
		Logger: log,
	})
	if err != nil {
		log.Fatal("Failed to create ledger metrics", zap.Error(err))
	}

	// Events: every registered type can travel through the outbox
	serializer := event.NewEventSerializer()
	event.RegisterAllEvents(serializer)
	serializer.Register(adapter.EventTypeFnBPostingCreated, &adapter.FnBPostingCreatedEvent{})
	outboxPublisher := event.NewOutboxPublisher(serializer, event.WithMaxRetries(cfg.Event.MaxRetries))
	outboxRepo := event.NewGormOutboxRepository(db.DB)

	// Unit of work and application services
	scope := persistence.NewGormTransactionScope(db.DB, outboxPublisher)
	auditRepo := persistence.NewGormAuditRepository(db.DB)
	exec := uow.NewExecutor(scope, auditRepo, log.Named("uow"))
	engine := ledgerapp.NewPostingEngine(exec, log.Named("posting"),
		ledgerapp.WithEngineConfig(ledgerapp.EngineConfig{
			DefaultToleranceCents: cfg.Ledger.DefaultToleranceCents,
			DefaultAutoPostMode:   ledger.AutoPostMode(cfg.Ledger.DefaultAutoPostMode),
		}),
		ledgerapp.WithLedgerMetrics(ledgerMetrics),
	)
	resolver := ledgerapp.NewControlAccountResolver(ledgerMetrics, log.Named("resolver"))
	bootstrap := ledgerapp.NewBootstrapService(exec, ledgerapp.BootstrapConfig{
		DefaultTemplateKey:    cfg.Ledger.DefaultTemplateKey,
		DefaultToleranceCents: cfg.Ledger.DefaultToleranceCents,
		DefaultAutoPostMode:   ledger.AutoPostMode(cfg.Ledger.DefaultAutoPostMode),
	}, log.Named("bootstrap"))
	receipts := receivable.NewReceiptService(exec, engine, resolver, ledgerMetrics, log.Named("receipts"))

	importSource, err := newImportSource(cfg, log)
	if err != nil {
		log.Fatal("Failed to open import storage", zap.Error(err))
	}
	importer := coaimport.NewImportService(log.Named("coa_import"),
		coaimport.WithFileSource(importSource),
		coaimport.WithMaxBytes(cfg.Ledger.ImportMaxBytes),
	)

	// Event bus with the cross-module adapters
	eventBus := event.NewInMemoryEventBus(log)
	adapters := []shared.EventHandler{
		adapter.NewFnBPostingHandler(scope, engine, resolver, ledgerMetrics, log.Named("fnb_adapter")),
	}
	var dedupeMetrics *event.IdempotencyMetrics
	if cfg.Ledger.AdapterDedupeEnabled {
		store, err := cache.OpenIdempotencyStore(cfg.Redis, cfg.App.Env == "production", log)
		if err != nil {
			log.Fatal("Failed to open idempotency store", zap.Error(err))
		}
		defer store.Close()
		dedupeMetrics = &event.IdempotencyMetrics{}
		adapters = event.WrapHandlersWithIdempotency(adapters, store, log,
			event.WithIdempotencyConfig(shared.IdempotencyConfig{TTL: cfg.Ledger.IdempotencyTTL, Enabled: true}),
			event.WithIdempotencyMetrics(dedupeMetrics),
		)
	}
	for _, h := range adapters {
		eventBus.Subscribe(h)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	if err := eventBus.Start(ctx); err != nil {
		log.Fatal("Failed to start event bus", zap.Error(err))
	}

	var processor *event.OutboxProcessor
	if cfg.Event.ProcessorEnabled {
		processor = event.NewOutboxProcessor(outboxRepo, eventBus, serializer, event.OutboxProcessorConfig{
			BatchSize:        cfg.Event.BatchSize,
			PollInterval:     cfg.Event.PollInterval,
			CleanupEnabled:   cfg.Event.CleanupEnabled,
			CleanupRetention: cfg.Event.CleanupRetention,
			CleanupInterval:  time.Hour,
		}, log)
		if err := processor.Start(ctx); err != nil {
			log.Fatal("Failed to start outbox processor", zap.Error(err))
		}
	} else {
		log.Warn("Outbox processor disabled; queued events will not be delivered by this instance")
	}

	// HTTP
	if cfg.App.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	engineHTTP := gin.New()
	if err := engineHTTP.SetTrustedProxies(cfg.HTTP.TrustedProxies); err != nil {
		log.Fatal("Invalid trusted proxies", zap.Error(err))
	}
	middleware.SetupValidator()

	cors := middleware.DefaultCORSConfig()
	cors.AllowOrigins = cfg.HTTP.CORSAllowOrigins
	cors.AllowMethods = cfg.HTTP.CORSAllowMethods
	cors.AllowHeaders = cfg.HTTP.CORSAllowHeaders

	// Order matters: recovery first, request id before the logger, spans before
	// anything that may fail the request
	engineHTTP.Use(
		logger.Recovery(log),
		middleware.RequestID(),
		logger.GinMiddleware(log),
		middleware.Tracing(cfg.Telemetry.ServiceName, cfg.Telemetry.Enabled),
		middleware.SpanErrorMarker(),
		middleware.Secure(),
		middleware.CORSWithConfig(cors),
		middleware.BodyLimit(cfg.HTTP.MaxBodySize),
	)

	checks := map[string]handler.HealthCheck{
		"database": func(context.Context) error { return db.Ping() },
	}
	router.RegisterLedgerRoutes(engineHTTP, auth.NewTokenService(cfg.JWT), router.Handlers{
		System:  handler.NewSystemHandler(cfg.App.Name, version, checks),
		Journal: handler.NewJournalHandler(engine),
		Chart: handler.NewChartHandler(
			ledgerapp.NewAccountService(exec),
			ledgerapp.NewClassificationService(exec),
			bootstrap,
		),
		ChartImport: handler.NewChartImportHandler(importer),
		Mapping:     handler.NewMappingHandler(ledgerapp.NewMappingService(exec)),
		Receivable:  handler.NewReceivableHandler(receipts, receivable.NewInvoiceService(exec)),
		Integration: handler.NewIntegrationHandler(adapter.NewFnBIntake(scope)),
		Outbox:      handler.NewOutboxHandler(eventapp.NewOutboxService(outboxRepo, log.Named("outbox_admin"))),
		Audit:       handler.NewAuditHandler(ledgerapp.NewAuditService(auditRepo)),
	}, log)

	srv := &http.Server{
		Addr:           ":" + cfg.App.Port,
		Handler:        engineHTTP,
		ReadTimeout:    cfg.HTTP.ReadTimeout,
		WriteTimeout:   cfg.HTTP.WriteTimeout,
		IdleTimeout:    cfg.HTTP.IdleTimeout,
		MaxHeaderBytes: cfg.HTTP.MaxHeaderBytes,
	}

	go func() {
		log.Info("HTTP server listening", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	// Wait for interrupt signal to gracefully shutdown the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("Shutting down server...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("Server forced to shutdown", zap.Error(err))
	}
	// Stop delivery before the bus so no event is dispatched into a stopped bus
	if processor != nil {
		if err := processor.Stop(shutdownCtx); err != nil {
			log.Error("Error stopping outbox processor", zap.Error(err))
		}
	}
	if err := eventBus.Stop(shutdownCtx); err != nil {
		log.Error("Error stopping event bus", zap.Error(err))
	}
	cancel()

	if dedupeMetrics != nil {
		stats := dedupeMetrics.Stats()
		log.Info("Adapter dedupe totals",
			zap.Int64("processed", stats.EventsProcessed),
			zap.Int64("duplicate", stats.EventsDuplicate),
			zap.Int64("failed", stats.EventsFailed),
		)
	}
	log.Info("Server exited")
}

// newImportSource returns object storage when it is enabled, else the local import directory
func newImportSource(cfg *config.Config, log *zap.Logger) (coaimport.FileSource, error) {
	if !cfg.Storage.Enabled {
		return storage.NewLocalFileStorage(cfg.Storage.LocalDir)
	}
	s3, err := storage.NewS3ObjectStorage(&cfg.Storage, storage.WithLogger(log.Named("storage")))
	if err != nil {
		return nil, err
	}
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := s3.EnsureBucket(ctx); err != nil {
		return nil, err
	}
	return s3, nil
}
