package main

import (
	"context"
	"net"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/cloudwego/hertz/pkg/app/server"
	otelapi "go.opentelemetry.io/otel"
	"go.uber.org/zap"

	"ChamCong/config"
	"ChamCong/internal/handler"
	"ChamCong/internal/middleware"
	"ChamCong/internal/repository"
	"ChamCong/internal/router"
	"ChamCong/internal/service"
	"ChamCong/internal/state"
	"ChamCong/internal/timekeep"
	"ChamCong/pkg/logger"
	pkgotel "ChamCong/pkg/otel"
	"ChamCong/pkg/snowflake"
	"ChamCong/storage"
	"ChamCong/storage/database"
	"ChamCong/storage/mq"
	storageredis "ChamCong/storage/redis"
)

func main() {
	l := logger.New()
	defer logger.Sync(l)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	go func() {
		sig := <-sigChan
		l.Info("Received shutdown signal",
			zap.String("signal", sig.String()),
		)
		cancel()
	}()

	if config.Cfg.TracingEnabled {
		shutdownOtel, err := pkgotel.Init(ctx, pkgotel.Config{
			ServiceName:    config.Cfg.ServiceName,
			ServiceVersion: config.Cfg.ServiceVersion,
			Environment:    config.Cfg.Environment,
			OTLPEndpoint:   config.Cfg.OTLPEndpoint,
		})
		if err != nil {
			l.Fatal("Failed to initialize OpenTelemetry", zap.Error(err))
		}
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			if err := shutdownOtel(shutdownCtx); err != nil {
				l.Error("Failed to shutdown OpenTelemetry", zap.Error(err))
			}
		}()
	}

	// tracing 关闭时 Meter 拿到的是 noop，初始化依然安全
	meter := otelapi.Meter(config.Cfg.ServiceName)
	if err := middleware.InitMetrics(meter); err != nil {
		l.Fatal("Failed to initialize HTTP metrics", zap.Error(err))
	}
	if err := storageredis.InitMetrics(meter); err != nil {
		l.Fatal("Failed to initialize Redis metrics", zap.Error(err))
	}
	if err := mq.InitMetrics(meter); err != nil {
		l.Fatal("Failed to initialize MQ metrics", zap.Error(err))
	}
	if config.Cfg.StateBackend == "postgres" {
		if err := database.InitMetrics(meter); err != nil {
			l.Fatal("Failed to initialize database metrics", zap.Error(err))
		}
	}

	if err := storage.Init(l); err != nil {
		l.Fatal("Failed to initialize storage", zap.Error(err))
	}
	defer storage.Close(l)

	if err := snowflake.Init(config.Cfg.SnowflakeMachineID, config.Cfg.SnowflakeDataCenter); err != nil {
		l.Fatal("Failed to initialize snowflake", zap.Error(err))
	}

	middleware.Init(l)

	roster, err := config.LoadRoster(config.Cfg.RosterPath)
	if err != nil {
		l.Fatal("Failed to load roster",
			zap.String("path", config.Cfg.RosterPath),
			zap.Error(err),
		)
	}

	var repo state.Repository
	if config.Cfg.StateBackend == "postgres" {
		repo = repository.NewDatabaseRepository(database.DB())
	} else {
		repo = repository.NewRedisRepository()
	}

	store, err := state.NewStore(ctx, repo, l)
	if err != nil {
		l.Fatal("Failed to load state document", zap.Error(err))
	}

	tkClient, err := timekeep.NewClient(l)
	if err != nil {
		l.Fatal("Failed to create timekeep client", zap.Error(err))
	}
	reader := timekeep.NewReader(tkClient)

	// "t" 命令触发的停机走和 SIGTERM 同一条路
	svc := service.NewMessageService(store, roster, reader, cancel, l)
	chatHandler := handler.NewChatHandler(svc, l)

	l.Info("Server starting",
		zap.String("service", config.Cfg.ServiceName),
		zap.String("port", config.Cfg.ServerPort),
		zap.String("environment", config.Cfg.Environment),
		zap.String("state_backend", config.Cfg.StateBackend),
		zap.Int("roster_size", len(roster)),
	)

	addr := net.JoinHostPort(config.Cfg.ServerHost, config.Cfg.ServerPort)
	h := server.Default(server.WithHostPorts(addr))

	router.Register(h, chatHandler)

	go func() {
		<-ctx.Done()
		l.Info("Initiating graceful shutdown...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		if err := h.Shutdown(shutdownCtx); err != nil {
			l.Error("Failed to shutdown HTTP server", zap.Error(err))
		}
	}()

	l.Info("HTTP server listening", zap.String("addr", addr))

	h.Spin()

	l.Info("Server shutting down gracefully")
}
