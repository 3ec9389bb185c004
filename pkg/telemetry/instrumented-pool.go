package telemetry

import (
	"context"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.opentelemetry.io/contrib/instrumentation/runtime"
	api "go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/sdk/metric"
)

// InitTelemetry wires up business metrics, Go runtime instrumentation and
// connection-pool gauges on the given provider.
func InitTelemetry(provider *metric.MeterProvider, pool *pgxpool.Pool) error {
	if err := InitBusinessMetrics(provider); err != nil {
		return err
	}

	if err := runtime.Start(runtime.WithMeterProvider(provider)); err != nil {
		return err
	}

	meter := provider.Meter("db_pool")

	poolConnections, err := meter.Int64ObservableGauge("db.pool.connections",
		api.WithDescription("Current database pool connections by state"))
	if err != nil {
		return err
	}

	_, err = meter.RegisterCallback(func(ctx context.Context, observer api.Observer) error {
		stats := pool.Stat()
		observer.ObserveInt64(poolConnections, int64(stats.TotalConns()))
		return nil
	}, poolConnections)

	return err
}

type InstrumentedPool struct {
	*pgxpool.Pool
	queryDuration api.Float64Histogram
}

func NewInstrumentedPool(provider *metric.MeterProvider, pool *pgxpool.Pool) (*InstrumentedPool, error) {
	meter := provider.Meter("db_queries")

	queryDuration, err := meter.Float64Histogram(
		"db.query_duration",
		api.WithDescription("Duration of database queries in milliseconds."),
	)
	if err != nil {
		slog.Error("Error creating query_duration histogram", slog.String("error", err.Error()))
		return nil, err
	}

	return &InstrumentedPool{
		Pool:          pool,
		queryDuration: queryDuration,
	}, nil
}

func (ip *InstrumentedPool) Exec(ctx context.Context, sql string, args ...interface{}) (pgconn.CommandTag, error) {
	start := time.Now()
	tag, err := ip.Pool.Exec(ctx, sql, args...)
	duration := time.Since(start).Milliseconds()
	ip.queryDuration.Record(ctx, float64(duration))
	return tag, err
}

func (ip *InstrumentedPool) Query(ctx context.Context, sql string, args ...interface{}) (pgx.Rows, error) {
	start := time.Now()
	rows, err := ip.Pool.Query(ctx, sql, args...)
	duration := time.Since(start).Milliseconds()
	ip.queryDuration.Record(ctx, float64(duration))
	return rows, err
}

func (ip *InstrumentedPool) QueryRow(ctx context.Context, sql string, args ...interface{}) pgx.Row {
	start := time.Now()
	row := ip.Pool.QueryRow(ctx, sql, args...)
	duration := time.Since(start).Milliseconds()
	ip.queryDuration.Record(ctx, float64(duration))
	return row
}
