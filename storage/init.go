package storage

import (
	"go.uber.org/zap"

	"ChamCong/config"
	"ChamCong/storage/database"
	"ChamCong/storage/mq"
	"ChamCong/storage/redis"
)

// 统一 init storage 层
// postgres 只在 STATE_BACKEND=postgres 时建连

func Init(l *zap.Logger) error {
	if config.Cfg.StateBackend == "postgres" {
		if err := database.Init(
			config.Cfg.GetDSN(),
			config.Cfg.PostgreSQLMaxIdle,
			config.Cfg.PostgreSQLMaxOpen,
		); err != nil {
			return err
		}
	}

	if err := redis.Init(); err != nil {
		return err
	}

	if err := mq.Init(l); err != nil {
		return err
	}

	return nil
}
