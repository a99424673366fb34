package database

import (
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	semconv "go.opentelemetry.io/otel/semconv/v1.21.0"
	"go.opentelemetry.io/otel/trace"
	"gorm.io/gorm"
)

var (
	dbQueriesTotal  metric.Int64Counter
	dbQueryDuration metric.Float64Histogram
)

// InitMetrics 初始化数据库指标
func InitMetrics(meter metric.Meter) error {
	var err error

	dbQueriesTotal, err = meter.Int64Counter(
		"db.queries.total",
		metric.WithDescription("Total number of database queries"),
		metric.WithUnit("{query}"),
	)
	if err != nil {
		return err
	}

	dbQueryDuration, err = meter.Float64Histogram(
		"db.query.duration",
		metric.WithDescription("Database query duration"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return err
	}

	return nil
}

// otelPlugin 通过 GORM 回调打 span，SQL 参数不进属性
type otelPlugin struct {
	tracer trace.Tracer
}

func newOTELPlugin(serviceName string) *otelPlugin {
	return &otelPlugin{tracer: otel.Tracer(serviceName + ".gorm")}
}

func (p *otelPlugin) Name() string {
	return "otel_plugin"
}

func (p *otelPlugin) Initialize(db *gorm.DB) error {
	callbacks := db.Callback()

	callbacks.Query().Before("gorm:query").Register("otel:before_query", p.before("gorm.query"))
	callbacks.Query().After("gorm:query").Register("otel:after_query", p.after)

	callbacks.Create().Before("gorm:create").Register("otel:before_create", p.before("gorm.create"))
	callbacks.Create().After("gorm:create").Register("otel:after_create", p.after)

	callbacks.Update().Before("gorm:update").Register("otel:before_update", p.before("gorm.update"))
	callbacks.Update().After("gorm:update").Register("otel:after_update", p.after)

	callbacks.Delete().Before("gorm:delete").Register("otel:before_delete", p.before("gorm.delete"))
	callbacks.Delete().After("gorm:delete").Register("otel:after_delete", p.after)

	return nil
}

func (p *otelPlugin) before(operation string) func(*gorm.DB) {
	return func(db *gorm.DB) {
		ctx, span := p.tracer.Start(db.Statement.Context, operation,
			trace.WithSpanKind(trace.SpanKindClient),
			trace.WithAttributes(
				semconv.DBSystemPostgreSQL,
				attribute.String("db.operation", operation),
			),
		)

		db.InstanceSet("otel:start_time", time.Now())
		db.InstanceSet("otel:span", span)
		db.Statement.Context = ctx
	}
}

func (p *otelPlugin) after(db *gorm.DB) {
	spanI, ok := db.InstanceGet("otel:span")
	if !ok {
		return
	}
	span, ok := spanI.(trace.Span)
	if !ok {
		return
	}
	defer span.End()

	var duration float64
	if startI, ok := db.InstanceGet("otel:start_time"); ok {
		if start, ok := startI.(time.Time); ok {
			duration = time.Since(start).Seconds()
		}
	}

	if db.Statement.Table != "" {
		span.SetAttributes(semconv.DBSQLTable(db.Statement.Table))
	}
	span.SetAttributes(attribute.Int64("db.rows_affected", db.Statement.RowsAffected))

	status := "success"
	if db.Error != nil && db.Error != gorm.ErrRecordNotFound {
		status = "error"
		span.SetStatus(codes.Error, db.Error.Error())
		span.RecordError(db.Error)
	} else {
		span.SetStatus(codes.Ok, "Success")
	}

	if dbQueriesTotal != nil {
		labels := []attribute.KeyValue{
			attribute.String("db.table", db.Statement.Table),
			attribute.String("db.status", status),
		}
		dbQueriesTotal.Add(db.Statement.Context, 1, metric.WithAttributes(labels...))
		dbQueryDuration.Record(db.Statement.Context, duration, metric.WithAttributes(labels...))
	}
}
