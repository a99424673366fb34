package queue

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"go.uber.org/zap"

	"ChamCong/internal/cache"
	"ChamCong/internal/model"
	"ChamCong/pkg/errors"
	"ChamCong/storage/mq"
)

// NoticeSender 把播报文案真正送到聊天频道，worker 启动时注入。
type NoticeSender interface {
	Send(ctx context.Context, text string) error
}

// StartNoticeConsumer 消费通知队列并转发到聊天频道，阻塞直到 ctx 取消。
func StartNoticeConsumer(ctx context.Context, sender NoticeSender, l *zap.Logger) error {
	handler := func(body []byte) error {
		var msg model.NoticeMessage
		if err := json.Unmarshal(body, &msg); err != nil {
			return fmt.Errorf("failed to unmarshal notice message: %w", err)
		}

		// 【幂等性检查】使用 SETNX 原子性地检查并标记消息正在处理
		processed, err := cache.TryMarkMessageProcessing(ctx, msg.MessageID, 24*time.Hour)
		if err != nil {
			l.Warn("Failed to check message processed status",
				zap.String("message_id", msg.MessageID),
				zap.Error(err),
			)
			// 检查失败时继续处理，宁可偶尔重复播报也不丢通知
		} else if !processed {
			l.Info("Message already processed or being processed, skipping",
				zap.String("message_id", msg.MessageID),
				zap.String("kind", msg.Kind),
			)
			return &errors.SkipMessageError{Reason: fmt.Sprintf("Message %s already processed", msg.MessageID)}
		}

		l.Info("Processing notice message",
			zap.String("message_id", msg.MessageID),
			zap.String("kind", msg.Kind),
		)

		if err := sender.Send(ctx, msg.Text); err != nil {
			// 发送失败：取消标记，允许重试
			if unmarkErr := cache.UnmarkMessageProcessing(ctx, msg.MessageID); unmarkErr != nil {
				l.Warn("Failed to unmark message processing",
					zap.String("message_id", msg.MessageID),
					zap.Error(unmarkErr),
				)
			}
			return fmt.Errorf("failed to send notice: %w", err)
		}

		if err := cache.MarkMessageProcessed(ctx, msg.MessageID, 48*time.Hour); err != nil {
			l.Warn("Failed to mark message as processed",
				zap.String("message_id", msg.MessageID),
				zap.Error(err),
			)
		}

		return nil
	}

	return mq.Consume(ctx, mq.ConsumeOptions{
		Queue:         mq.NoticeQueue,
		ConsumerTag:   "notice_consumer",
		PrefetchCount: 10,
		Handler:       handler,
	})
}
