// Command docserver serves a document collection over HTTP with
// Last-Modified and ETag validators and answers conditional GETs with 304.
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/Sternrassler/conditional-get/internal/config"
	"github.com/Sternrassler/conditional-get/pkg/freshness"
	"github.com/Sternrassler/conditional-get/pkg/logging"
	"github.com/Sternrassler/conditional-get/pkg/negotiate"
	"github.com/Sternrassler/conditional-get/pkg/store"
)

const shutdownTimeout = 10 * time.Second

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("Invalid configuration")
	}
	logger := logging.Setup(cfg.Logging())

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	st, closeStore, err := openStore(ctx, cfg, logger)
	if err != nil {
		logger.Fatal().Err(err).Str("store", cfg.Store).Msg("Failed to open store")
	}
	defer closeStore()

	coord, err := newCoordinator(cfg)
	if err != nil {
		logger.Fatal().Err(err).Msg("Failed to create coordinator")
	}

	srv := &http.Server{
		Addr:         cfg.Addr(),
		Handler:      newRouter(st, coord, logger),
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
	}

	go func() {
		<-ctx.Done()
		logger.Info().Msg("Shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Error().Err(err).Msg("Graceful shutdown failed")
		}
	}()

	logger.Info().
		Str("addr", srv.Addr).
		Str("store", cfg.Store).
		Str("etag_hash", cfg.ETagHash).
		Bool("weak_etags", cfg.WeakETags).
		Msg("Starting docserver")

	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Fatal().Err(err).Msg("Server failed")
	}
}

// openStore returns the configured backend and a func releasing it.
func openStore(ctx context.Context, cfg *config.Config, logger zerolog.Logger) (store.Store, func(), error) {
	switch cfg.Store {
	case config.StoreRedis:
		client := redis.NewClient(&redis.Options{
			Addr: cfg.RedisAddr,
			DB:   cfg.RedisDB,
		})
		pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
		defer cancel()
		if err := client.Ping(pingCtx).Err(); err != nil {
			client.Close()
			return nil, nil, fmt.Errorf("connect to redis at %s: %w", cfg.RedisAddr, err)
		}
		logger.Info().Str("addr", cfg.RedisAddr).Int("db", cfg.RedisDB).Msg("Connected to Redis")
		return store.NewRedisStore(client, cfg.RedisPrefix, nil), func() { client.Close() }, nil
	default:
		return store.NewMemoryStore(nil), func() {}, nil
	}
}

func newCoordinator(cfg *config.Config) (*negotiate.Coordinator, error) {
	hash, err := freshness.HashByName(cfg.ETagHash)
	if err != nil {
		return nil, err
	}
	opts := []negotiate.Option{negotiate.WithLogger(logging.NewLogger("negotiate"))}
	if cfg.WeakETags {
		opts = append(opts, negotiate.WithETagFormat(negotiate.Weak))
	}
	return negotiate.New(freshness.NewEvaluator(hash), opts...), nil
}
