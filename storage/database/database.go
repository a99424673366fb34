package database

import (
	"context"
	"database/sql"
	"fmt"
	"sync"
	"time"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"ChamCong/config"
)

// postgres 只承载一张状态文档表（STATE_BACKEND=postgres 时）。

var (
	db     *gorm.DB
	dbOnce sync.Once
	dbErr  error
)

// StateRecord 状态文档的单行存储。
type StateRecord struct {
	ID        int64     `gorm:"primaryKey;autoIncrement"`
	Key       string    `gorm:"uniqueIndex;size:64;not null"`
	Document  string    `gorm:"type:jsonb;not null"`
	UpdatedAt time.Time `gorm:"not null;default:now()"`
}

func (StateRecord) TableName() string {
	return "state_documents"
}

func Init(dsn string, maxIdle, maxOpen int) error {
	dbOnce.Do(func() {
		gormCfg := &gorm.Config{
			DisableForeignKeyConstraintWhenMigrating: true,
			PrepareStmt:                              true,
			SkipDefaultTransaction:                   true,
		}

		var gormDB *gorm.DB
		gormDB, dbErr = gorm.Open(postgres.Open(dsn), gormCfg)
		if dbErr != nil {
			return
		}

		sqlDB, err := gormDB.DB()
		if err != nil {
			dbErr = err
			return
		}

		configureConnectionPool(sqlDB, maxIdle, maxOpen)

		if err := sqlDB.Ping(); err != nil {
			dbErr = err
			return
		}

		if config.Cfg.TracingEnabled {
			if err := gormDB.Use(newOTELPlugin(config.Cfg.ServiceName)); err != nil {
				dbErr = fmt.Errorf("failed to register otel plugin: %w", err)
				return
			}
		}

		if err := gormDB.AutoMigrate(&StateRecord{}); err != nil {
			dbErr = fmt.Errorf("failed to migrate state_documents: %w", err)
			return
		}

		db = gormDB
	})

	return dbErr
}

func DB() *gorm.DB {
	return db
}

func Close(ctx context.Context) error {
	if db == nil {
		return nil
	}

	sqlDB, err := db.DB()
	if err != nil {
		return err
	}

	done := make(chan error, 1)
	go func() {
		done <- sqlDB.Close()
	}()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case err := <-done:
		return err
	}
}

func configureConnectionPool(sqlDB *sql.DB, maxIdle, maxOpen int) {
	sqlDB.SetMaxIdleConns(maxIdle)
	sqlDB.SetMaxOpenConns(maxOpen)
	sqlDB.SetConnMaxIdleTime(10 * time.Minute)
	sqlDB.SetConnMaxLifetime(2 * time.Hour)
}
