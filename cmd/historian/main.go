// cmd/historian/main.go is an asynchronous historian service that pops game
// actions from a Redis queue and persists them to PostgreSQL.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/jason-s-yu/wordherd/internal/cache"
	"github.com/jason-s-yu/wordherd/internal/config"
	"github.com/jason-s-yu/wordherd/internal/database"
	"github.com/jason-s-yu/wordherd/internal/historian"
	_ "github.com/joho/godotenv/autoload"
	"github.com/sirupsen/logrus"
)

func main() {
	cfg := config.Load()

	logger := logrus.New()
	if level, err := logrus.ParseLevel(cfg.LogLevel); err == nil {
		logger.SetLevel(level)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	rdb, err := cache.ConnectRedis(ctx, cfg.RedisAddr, cfg.RedisDB)
	if err != nil {
		logger.Fatalf("redis: %v", err)
	}
	defer rdb.Close()

	pool, err := database.ConnectDB(ctx, cfg.DatabaseURL)
	if err != nil {
		logger.Fatalf("postgres: %v", err)
	}
	defer pool.Close()

	if err := database.EnsureSchema(ctx, pool); err != nil {
		logger.Fatalf("postgres: %v", err)
	}

	svc := historian.New(rdb, database.NewActionSink(pool), historian.Options{
		Queue:      cfg.HistorianQueueName,
		BatchSize:  cfg.HistorianBatchSize,
		FlushDelay: cfg.HistorianFlush,
		Inactivity: cfg.HistorianIdle,
	}, logger)

	if err := svc.Run(ctx); err != nil {
		logger.Errorf("historian exited: %v", err)
	}
	logger.Info("Historian shutdown complete.")
}
