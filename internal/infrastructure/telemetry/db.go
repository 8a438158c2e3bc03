package telemetry

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/uptrace/opentelemetry-go-extra/otelgorm"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// DBConfig controls query tracing and metrics on the ledger database
type DBConfig struct {
	TraceEnabled       bool
	MetricsEnabled     bool
	LogFullSQL         bool // include bound variables in spans; development only
	SlowQueryThreshold time.Duration
	DBName             string
	TracerProvider     trace.TracerProvider // defaults to the global provider
}

// InstrumentDB registers otelgorm tracing and the query metrics plugin on db
// as configured. Pool gauges are observed from the underlying sql.DB.
func InstrumentDB(db *gorm.DB, cfg DBConfig, meter metric.Meter, logger *zap.Logger) error {
	if cfg.SlowQueryThreshold <= 0 {
		cfg.SlowQueryThreshold = 200 * time.Millisecond
	}
	if cfg.DBName == "" {
		cfg.DBName = "ledger"
	}

	if cfg.TraceEnabled {
		opts := []otelgorm.Option{otelgorm.WithDBName(cfg.DBName), otelgorm.WithoutMetrics()}
		if !cfg.LogFullSQL {
			opts = append(opts, otelgorm.WithoutQueryVariables())
		}
		if cfg.TracerProvider != nil {
			opts = append(opts, otelgorm.WithTracerProvider(cfg.TracerProvider))
		}
		if err := db.Use(otelgorm.NewPlugin(opts...)); err != nil {
			return fmt.Errorf("failed to register otelgorm: %w", err)
		}
	}

	if cfg.MetricsEnabled {
		plugin, err := newQueryMetricsPlugin(meter, cfg.SlowQueryThreshold)
		if err != nil {
			return err
		}
		if err := db.Use(plugin); err != nil {
			return fmt.Errorf("failed to register query metrics: %w", err)
		}
		if err := observePool(db, meter); err != nil {
			return err
		}
	}

	logger.Info("Database instrumentation registered",
		zap.Bool("tracing", cfg.TraceEnabled),
		zap.Bool("metrics", cfg.MetricsEnabled),
		zap.Duration("slow_query_threshold", cfg.SlowQueryThreshold),
	)
	return nil
}

const queryStartKey = "telemetry:query_start"

type queryMetricsPlugin struct {
	queries  *Counter
	slow     *Counter
	duration *Histogram
	slowAt   time.Duration
}

func newQueryMetricsPlugin(meter metric.Meter, slowAt time.Duration) (*queryMetricsPlugin, error) {
	queries, err := NewCounter(meter, "db_query_total", "Database queries by operation, table and status", "{query}")
	if err != nil {
		return nil, err
	}
	slow, err := NewCounter(meter, "db_slow_query_total", "Queries slower than the configured threshold", "{query}")
	if err != nil {
		return nil, err
	}
	duration, err := NewHistogram(meter, "db_query_duration_seconds", "Database query latency", DBDurationBuckets)
	if err != nil {
		return nil, err
	}
	return &queryMetricsPlugin{queries: queries, slow: slow, duration: duration, slowAt: slowAt}, nil
}

func (p *queryMetricsPlugin) Name() string {
	return "telemetry:query_metrics"
}

func (p *queryMetricsPlugin) Initialize(db *gorm.DB) error {
	cb := db.Callback()
	return errors.Join(
		cb.Create().Before("gorm:create").Register("telemetry:before_create", p.before),
		cb.Create().After("gorm:create").Register("telemetry:after_create", p.after("insert")),
		cb.Query().Before("gorm:query").Register("telemetry:before_query", p.before),
		cb.Query().After("gorm:query").Register("telemetry:after_query", p.after("select")),
		cb.Update().Before("gorm:update").Register("telemetry:before_update", p.before),
		cb.Update().After("gorm:update").Register("telemetry:after_update", p.after("update")),
		cb.Delete().Before("gorm:delete").Register("telemetry:before_delete", p.before),
		cb.Delete().After("gorm:delete").Register("telemetry:after_delete", p.after("delete")),
		cb.Row().Before("gorm:row").Register("telemetry:before_row", p.before),
		cb.Row().After("gorm:row").Register("telemetry:after_row", p.after("row")),
		cb.Raw().Before("gorm:raw").Register("telemetry:before_raw", p.before),
		cb.Raw().After("gorm:raw").Register("telemetry:after_raw", p.after("raw")),
	)
}

func (p *queryMetricsPlugin) before(db *gorm.DB) {
	db.InstanceSet(queryStartKey, time.Now())
}

func (p *queryMetricsPlugin) after(op string) func(*gorm.DB) {
	return func(db *gorm.DB) {
		v, ok := db.InstanceGet(queryStartKey)
		if !ok {
			return
		}
		start, ok := v.(time.Time)
		if !ok {
			return
		}
		elapsed := time.Since(start)

		ctx := db.Statement.Context
		if ctx == nil {
			ctx = context.Background()
		}
		status := "ok"
		if db.Error != nil && !errors.Is(db.Error, gorm.ErrRecordNotFound) {
			status = "error"
		}
		attrs := []attribute.KeyValue{
			AttrDBOperation.String(op),
			AttrDBTable.String(db.Statement.Table),
		}

		p.queries.Inc(ctx, append(attrs, attribute.String("status", status))...)
		p.duration.RecordDuration(ctx, elapsed, attrs...)
		if elapsed >= p.slowAt {
			p.slow.Inc(ctx, attrs...)
		}
	}
}

// observePool reports sql.DB pool statistics on every collection
func observePool(db *gorm.DB, meter metric.Meter) error {
	sqlDB, err := db.DB()
	if err != nil {
		return fmt.Errorf("failed to get sql.DB: %w", err)
	}

	conns, err := meter.Int64ObservableGauge("db_pool_connections",
		metric.WithDescription("Pool connections by state"), metric.WithUnit("{connection}"))
	if err != nil {
		return err
	}
	maxOpen, err := meter.Int64ObservableGauge("db_pool_connections_max",
		metric.WithDescription("Maximum open connections"), metric.WithUnit("{connection}"))
	if err != nil {
		return err
	}
	waits, err := meter.Int64ObservableCounter("db_pool_wait_total",
		metric.WithDescription("Connections waited for"), metric.WithUnit("{wait}"))
	if err != nil {
		return err
	}

	_, err = meter.RegisterCallback(func(_ context.Context, o metric.Observer) error {
		stats := sqlDB.Stats()
		o.ObserveInt64(conns, int64(stats.InUse), metric.WithAttributes(AttrDBPoolState.String("in_use")))
		o.ObserveInt64(conns, int64(stats.Idle), metric.WithAttributes(AttrDBPoolState.String("idle")))
		o.ObserveInt64(maxOpen, int64(stats.MaxOpenConnections))
		o.ObserveInt64(waits, stats.WaitCount)
		return nil
	}, conns, maxOpen, waits)
	return err
}
