package storage

import (
	"context"
	"time"

	"go.uber.org/zap"

	"ChamCong/storage/database"
	"ChamCong/storage/mq"
	"ChamCong/storage/redis"
)

// Close 优雅关闭所有存储连接
// 关闭顺序：MQ -> Redis -> Database
// 先停止收发消息，最后关数据库，保证状态落盘
func Close(l *zap.Logger) {
	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	l.Info("Closing storage connections...")

	if err := mq.Close(ctx); err != nil {
		l.Error("Failed to close message queue", zap.Error(err))
	} else {
		l.Info("Message queue closed successfully")
	}

	if err := redis.Close(ctx); err != nil {
		l.Error("Failed to close Redis connection", zap.Error(err))
	} else {
		l.Info("Redis connection closed successfully")
	}

	if err := database.Close(ctx); err != nil {
		l.Error("Failed to close database connection", zap.Error(err))
	} else {
		l.Info("Database connection closed successfully")
	}

	l.Info("All storage connections closed")
}
