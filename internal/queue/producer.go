package queue

import (
	"fmt"
	"time"

	"go.uber.org/zap"

	"ChamCong/internal/model"
	"ChamCong/pkg/snowflake"
	"ChamCong/storage/mq"
)

// NoticeProducer 把调度任务的播报文案投进 MQ，由 worker 转发到聊天频道。
type NoticeProducer struct {
	log *zap.Logger
}

func NewNoticeProducer(l *zap.Logger) *NoticeProducer {
	return &NoticeProducer{log: l}
}

// Notify 实现 schedule.Notifier。
func (p *NoticeProducer) Notify(kind, text string) error {
	return p.Publish(model.NoticeMessage{Kind: kind, Text: text})
}

func (p *NoticeProducer) Publish(msg model.NoticeMessage) error {
	if msg.MessageID == "" {
		id, err := snowflake.NextID()
		if err != nil {
			p.log.Error("Failed to generate message ID",
				zap.String("kind", msg.Kind),
				zap.Error(err),
			)
			return fmt.Errorf("failed to generate message ID: %w", err)
		}
		msg.MessageID = fmt.Sprintf("notice_%d", id)
	}

	if msg.CreatedAt == "" {
		msg.CreatedAt = time.Now().Format(time.RFC3339)
	}

	err := mq.PublishMessage(
		mq.NoticeExchange,
		mq.NoticeRoutingKey,
		msg,
	)

	if err != nil {
		p.log.Error("Failed to publish notice message",
			zap.String("message_id", msg.MessageID),
			zap.String("kind", msg.Kind),
			zap.Error(err),
		)
		return err
	}

	p.log.Info("Published notice message",
		zap.String("message_id", msg.MessageID),
		zap.String("kind", msg.Kind),
		zap.Int("text_len", len(msg.Text)),
	)

	return nil
}
