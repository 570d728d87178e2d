// cmd/server/main.go
package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jason-s-yu/wordherd/internal/cache"
	"github.com/jason-s-yu/wordherd/internal/config"
	"github.com/jason-s-yu/wordherd/internal/game"
	"github.com/jason-s-yu/wordherd/internal/handlers"
	"github.com/jason-s-yu/wordherd/internal/matcher"
	"github.com/jason-s-yu/wordherd/internal/store"
	_ "github.com/joho/godotenv/autoload"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
)

func main() {
	cfg := config.Load()

	logger := logrus.New()
	if level, err := logrus.ParseLevel(cfg.LogLevel); err == nil {
		logger.SetLevel(level)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var rdb *redis.Client
	if cfg.StoreBackend == config.StoreRedis || cfg.HistoryEnabled {
		var err error
		rdb, err = cache.ConnectRedis(ctx, cfg.RedisAddr, cfg.RedisDB)
		if err != nil {
			logger.Fatalf("redis: %v", err)
		}
		defer rdb.Close()
	}

	var st store.Store
	switch cfg.StoreBackend {
	case config.StoreRedis:
		st = store.NewRedisStore(rdb, cfg.StoreTTL, store.WithLogger(logger))
	case config.StoreMemory:
		st = store.NewMemoryStore()
	default:
		logger.Fatalf("unknown STORE_BACKEND %q", cfg.StoreBackend)
	}

	matchOpts := []matcher.Option{
		matcher.WithThreshold(cfg.MatchThreshold),
		matcher.WithLogger(logger),
	}
	if oracle := matcher.NewOpenAIOracle(cfg.OpenAIAPIKey, cfg.OpenAIModel); oracle != nil {
		matchOpts = append(matchOpts, matcher.WithOracle(oracle, cfg.OracleTimeout))
		logger.Infof("semantic matching enabled with %s", cfg.OpenAIModel)
	}

	engineOpts := []game.Option{
		game.WithLogger(logger),
		game.WithTypingWindow(cfg.TypingWindow),
	}
	var pub *cache.Publisher
	if cfg.HistoryEnabled {
		pub = cache.NewPublisher(rdb, cfg.HistorianQueueName, logger)
		engineOpts = append(engineOpts, game.WithRecorder(pub))
	}
	engine := game.NewEngine(st, matcher.New(matchOpts...), engineOpts...)

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           handlers.NewRouter(handlers.NewGameServer(engine, logger), logger),
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Infof("Running on %s (store=%s, history=%t)", srv.Addr, cfg.StoreBackend, cfg.HistoryEnabled)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		logger.Errorf("server exited: %v", err)
	}
	if pub != nil {
		pub.Wait()
	}
	logger.Info("server stopped")
}
