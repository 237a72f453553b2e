// Package main runs the background maintenance worker (session retention).
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/sitebooks/backend/config"
	"github.com/sitebooks/backend/internal/sessions"
	"github.com/sitebooks/backend/internal/worker"
	"github.com/sitebooks/backend/pkg/database"
	"github.com/sitebooks/backend/pkg/redis"
)

func main() {
	logger := newLogger()
	defer logger.Sync()

	cfg, err := config.Load()
	if err != nil {
		logger.Fatal("load config", zap.Error(err))
	}

	ctx := context.Background()
	pool, err := database.NewPostgresPool(ctx, cfg.Database.DSN(), logger)
	if err != nil {
		logger.Fatal("database", zap.Error(err))
	}
	defer pool.Close()

	rdb, err := redis.NewClient(ctx, cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB, logger)
	if err != nil {
		logger.Fatal("redis", zap.Error(err))
	}
	defer rdb.Close()

	refreshTTL := time.Duration(cfg.JWT.RefreshTTLHours) * time.Hour
	registry := sessions.NewRegistry(pool, rdb, refreshTTL, logger)

	sweeper := worker.NewRetentionSweeper(
		registry,
		rdb,
		time.Duration(cfg.Retention.Days)*24*time.Hour,
		time.Duration(cfg.Retention.SweepIntervalMins)*time.Minute,
		logger,
	)

	runCtx, cancel := context.WithCancel(ctx)
	go sweeper.Run(runCtx)
	logger.Info("retention worker started",
		zap.Int("retention_days", cfg.Retention.Days),
		zap.Int("sweep_interval_minutes", cfg.Retention.SweepIntervalMins))

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	cancel()
	logger.Info("worker stopped")
}

func newLogger() *zap.Logger {
	config := zap.NewProductionConfig()
	config.EncoderConfig.TimeKey = "timestamp"
	config.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	logger, _ := config.Build()
	return logger
}
