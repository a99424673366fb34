package mq

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

var (
	mqMessagesTotal   metric.Int64Counter
	mqMessageDuration metric.Float64Histogram
	mqPublishErrors   metric.Int64Counter
	mqConsumeErrors   metric.Int64Counter
)

// InitMetrics 初始化 RabbitMQ 指标
func InitMetrics(meter metric.Meter) error {
	var err error

	mqMessagesTotal, err = meter.Int64Counter(
		"mq.messages.total",
		metric.WithDescription("Total number of RabbitMQ messages"),
		metric.WithUnit("{message}"),
	)
	if err != nil {
		return err
	}

	mqMessageDuration, err = meter.Float64Histogram(
		"mq.message.duration",
		metric.WithDescription("Message handling duration"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return err
	}

	mqPublishErrors, err = meter.Int64Counter(
		"mq.publish.errors",
		metric.WithDescription("Number of failed publishes"),
		metric.WithUnit("{error}"),
	)
	if err != nil {
		return err
	}

	mqConsumeErrors, err = meter.Int64Counter(
		"mq.consume.errors",
		metric.WithDescription("Number of failed message handlings"),
		metric.WithUnit("{error}"),
	)
	if err != nil {
		return err
	}

	return nil
}

// recordPublish 指标未初始化时（scheduler/worker 关闭 tracing）静默跳过
func recordPublish(exchange, routingKey string, err error) {
	if mqMessagesTotal == nil {
		return
	}

	ctx := context.Background()
	labels := []attribute.KeyValue{
		attribute.String("mq.exchange", exchange),
		attribute.String("mq.routing_key", routingKey),
		attribute.String("mq.direction", "publish"),
	}

	mqMessagesTotal.Add(ctx, 1, metric.WithAttributes(labels...))
	if err != nil && mqPublishErrors != nil {
		mqPublishErrors.Add(ctx, 1, metric.WithAttributes(labels...))
	}
}

func recordConsume(queue string, start time.Time, err error) {
	if mqMessagesTotal == nil {
		return
	}

	ctx := context.Background()
	labels := []attribute.KeyValue{
		attribute.String("mq.queue", queue),
		attribute.String("mq.direction", "consume"),
	}

	mqMessagesTotal.Add(ctx, 1, metric.WithAttributes(labels...))
	if mqMessageDuration != nil {
		mqMessageDuration.Record(ctx, time.Since(start).Seconds(), metric.WithAttributes(labels...))
	}
	if err != nil && mqConsumeErrors != nil {
		mqConsumeErrors.Add(ctx, 1, metric.WithAttributes(labels...))
	}
}
