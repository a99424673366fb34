package mq

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	pkgerrors "ChamCong/pkg/errors"
)

type MessageHandler func([]byte) error

type ConsumeOptions struct {
	Queue         string
	ConsumerTag   string
	PrefetchCount int
	Handler       MessageHandler
}

// Consume 阻塞消费，直到 ctx 取消或 channel 断开。
func Consume(ctx context.Context, opts ConsumeOptions) error {
	c := Connection()
	if c == nil {
		return fmt.Errorf("RabbitMQ connection is nil")
	}

	ch, err := c.Channel()
	if err != nil {
		return fmt.Errorf("failed to open channel: %w", err)
	}
	defer ch.Close()

	if opts.PrefetchCount > 0 {
		if err := ch.Qos(opts.PrefetchCount, 0, false); err != nil {
			return fmt.Errorf("failed to set QoS: %w", err)
		}
	}

	msgs, err := ch.Consume(
		opts.Queue,
		opts.ConsumerTag,
		false, // auto-ack = false
		false, // exclusive
		false, // no-local
		false, // no-wait
		nil,
	)
	if err != nil {
		return fmt.Errorf("failed to register consumer: %w", err)
	}

	log.Info("Started consuming messages",
		zap.String("queue", opts.Queue),
		zap.String("consumer_tag", opts.ConsumerTag),
		zap.Int("prefetch_count", opts.PrefetchCount),
	)

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case msg, ok := <-msgs:
			if !ok {
				return fmt.Errorf("consume channel closed")
			}

			start := time.Now()
			err := opts.Handler(msg.Body)
			recordConsume(opts.Queue, start, err)
			if err != nil {
				// 重复投递等跳过信号直接 ack，requeue 会造成死循环
				if pkgerrors.IsSkipMessageError(err) {
					log.Info("Skipping message",
						zap.String("queue", opts.Queue),
						zap.String("reason", err.Error()),
					)
					msg.Ack(false)
					continue
				}

				log.Error("Failed to process message",
					zap.String("queue", opts.Queue),
					zap.String("consumer_tag", opts.ConsumerTag),
					zap.Error(err),
				)

				msg.Nack(false, true) // requeue = true
				continue
			}

			msg.Ack(false)
		}
	}
}
