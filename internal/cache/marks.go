package cache

import (
	"context"
	"fmt"
	"time"

	"ChamCong/storage/redis"
)

const (
	// 标记定时任务当天已跑完，进程重启后避免重复触发
	passCompletedPrefix    = "pass:completed"
	messageProcessedPrefix = "message:processed"

	passTTL      = 24 * time.Hour
	processedTTL = 48 * time.Hour
)

// IsPassCompleted 检查指定任务在指定日期是否已执行过
// date 格式 "2006-01-02"，pass 为任务名（purge/probe/submit:morning/...）
func IsPassCompleted(ctx context.Context, pass, date string) (bool, error) {
	key := redis.Key(passCompletedPrefix, pass, date)
	result, err := redis.Client().Exists(ctx, key).Result()
	if err != nil {
		return false, fmt.Errorf("failed to check pass completed status: %w", err)
	}
	return result > 0, nil
}

// MarkPassCompleted 标记任务当天已执行
func MarkPassCompleted(ctx context.Context, pass, date string) error {
	key := redis.Key(passCompletedPrefix, pass, date)
	return redis.Client().Set(ctx, key, "1", passTTL).Err()
}

// TryMarkMessageProcessing 尝试原子性地标记消息正在处理（使用 SETNX）
// 返回 true 表示成功标记（首次处理），false 表示已被标记（重复消息或正在处理）
func TryMarkMessageProcessing(ctx context.Context, messageID string, ttl time.Duration) (bool, error) {
	key := redis.Key(messageProcessedPrefix, messageID)
	if ttl <= 0 {
		ttl = processedTTL
	}

	result, err := redis.Client().SetNX(ctx, key, "processing", ttl).Result()
	if err != nil {
		return false, fmt.Errorf("failed to mark message as processing: %w", err)
	}
	return result, nil
}

// UnmarkMessageProcessing 取消消息处理标记（处理失败时调用，允许重试）
func UnmarkMessageProcessing(ctx context.Context, messageID string) error {
	key := redis.Key(messageProcessedPrefix, messageID)
	return redis.Client().Del(ctx, key).Err()
}

// MarkMessageProcessed 标记消息已处理（处理成功时调用，延长 TTL）
func MarkMessageProcessed(ctx context.Context, messageID string, ttl time.Duration) error {
	key := redis.Key(messageProcessedPrefix, messageID)
	if ttl <= 0 {
		ttl = processedTTL
	}
	return redis.Client().Set(ctx, key, "completed", ttl).Err()
}
