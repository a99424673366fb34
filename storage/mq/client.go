package mq

import (
	"context"
	"sync"

	amqp "github.com/rabbitmq/amqp091-go"
	"go.uber.org/zap"

	"ChamCong/config"
)

var (
	conn   *amqp.Connection
	connMu sync.Mutex
	log    = zap.NewNop()
)

func Init(l *zap.Logger) error {
	connMu.Lock()
	defer connMu.Unlock()

	if l != nil {
		log = l
	}

	if conn != nil && !conn.IsClosed() {
		return nil
	}

	c, err := amqp.Dial(config.Cfg.GetRabbitMQURL())
	if err != nil {
		return err
	}

	conn = c

	ch, err := conn.Channel()
	if err != nil {
		return err
	}
	defer ch.Close()

	return declareTopology(ch)
}

func Connection() *amqp.Connection {
	connMu.Lock()
	defer connMu.Unlock()
	return conn
}

// declareTopology 声明通知交换机和队列，幂等。
func declareTopology(ch *amqp.Channel) error {
	if err := ch.ExchangeDeclare(
		NoticeExchange,
		"direct",
		true,  // durable
		false, // auto-delete
		false, // internal
		false, // no-wait
		nil,
	); err != nil {
		return err
	}

	queue, err := ch.QueueDeclare(
		NoticeQueue,
		true,  // durable
		false, // auto-delete
		false, // exclusive
		false, // no-wait
		nil,
	)
	if err != nil {
		return err
	}

	return ch.QueueBind(queue.Name, NoticeRoutingKey, NoticeExchange, false, nil)
}

func Close(ctx context.Context) error {
	connMu.Lock()
	defer connMu.Unlock()

	if conn == nil || conn.IsClosed() {
		return nil
	}

	err := conn.Close()
	conn = nil
	return err
}
