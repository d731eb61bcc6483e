package main

import (
	"context"
	"fmt"
	"os"

	"go.uber.org/zap"

	"github.com/ykvlv/reminder-bot/internal/app"
	"github.com/ykvlv/reminder-bot/internal/config"
	"github.com/ykvlv/reminder-bot/internal/logger"
)

func main() {
	os.Exit(run())
}

// run returns the process exit code so deferred log flushing happens before exit.
func run() int {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "config error: %v\n", err)
		return 2
	}

	log, err := logger.New(cfg.LogLevel)
	if err != nil {
		fmt.Fprintf(os.Stderr, "logger init error: %v\n", err)
		return 2
	}
	defer func() { _ = log.Sync() }()

	log.Info("config loaded", configFields(cfg)...)

	application, err := app.New(cfg, log)
	if err != nil {
		log.Error("app init failed", zap.Error(err))
		return 1
	}
	if err := application.Run(context.Background()); err != nil {
		log.Error("app run failed", zap.Error(err))
		return 1
	}
	return 0
}

// configFields describes the resolved configuration without the bot token.
func configFields(cfg config.Config) []zap.Field {
	fields := []zap.Field{
		zap.String("store", cfg.StoreDriver),
		zap.String("tz", cfg.Location().String()),
		zap.String("log_level", cfg.LogLevel),
		zap.String("http_addr", cfg.HTTPAddr),
		zap.Duration("recovery_max_age", cfg.RecoveryMaxAge),
		zap.Duration("delivery_timeout", cfg.DeliveryTimeout),
	}
	if cfg.StoreDriver == config.StoreSQLite {
		fields = append(fields, zap.String("db_path", cfg.DBPath))
	}
	return fields
}
