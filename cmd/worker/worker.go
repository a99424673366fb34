package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"ChamCong/config"
	"ChamCong/internal/queue"
	"ChamCong/pkg/chat"
	"ChamCong/pkg/logger"
	"ChamCong/pkg/snowflake"
	"ChamCong/storage"
)

// worker 只做一件事：把 MQ 里的通知搬到聊天群。
func main() {
	l := logger.New()
	defer logger.Sync(l)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	go func() {
		sig := <-sigChan
		l.Info("Worker received shutdown signal",
			zap.String("signal", sig.String()),
		)
		cancel()
	}()

	if err := storage.Init(l); err != nil {
		l.Fatal("Failed to initialize storage for worker", zap.Error(err))
	}
	defer storage.Close(l)

	if err := snowflake.Init(config.Cfg.SnowflakeMachineID, config.Cfg.SnowflakeDataCenter); err != nil {
		l.Fatal("Failed to initialize snowflake for worker", zap.Error(err))
	}

	sender, err := chat.NewGatewaySender(l)
	if err != nil {
		l.Fatal("Failed to create chat gateway sender", zap.Error(err))
	}

	l.Info("Worker service starting",
		zap.String("service", config.Cfg.ServiceName+"-worker"),
		zap.String("environment", config.Cfg.Environment),
	)

	if err := queue.StartNoticeConsumer(ctx, sender, l); err != nil && err != context.Canceled {
		l.Error("Notice consumer stopped", zap.Error(err))
	}

	l.Info("Worker service shutting down gracefully")
}
