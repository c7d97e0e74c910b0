package main

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/phrazzld/coach-api/internal/config"
	"github.com/phrazzld/coach-api/internal/ratelimit"
	goredis "github.com/redis/go-redis/v9"
)

// setupRateLimitStore returns the window store for the generation rate
// limiter: Redis when an address is configured, process memory otherwise.
// The returned close function is never nil.
func setupRateLimitStore(
	ctx context.Context,
	cfg config.RedisConfig,
	logger *slog.Logger,
) (ratelimit.WindowStore, func() error, error) {
	if cfg.Addr == "" {
		logger.Info("Rate limit windows kept in memory")
		return ratelimit.NewMemoryStore(), func() error { return nil }, nil
	}

	rdb := goredis.NewClient(&goredis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})
	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := ratelimit.Ping(pingCtx, rdb); err != nil {
		_ = rdb.Close()
		return nil, nil, fmt.Errorf("failed to connect to redis: %w", err)
	}

	logger.Info("Rate limit windows kept in redis", "addr", cfg.Addr)
	return ratelimit.NewRedisStore(rdb, ratelimit.DefaultKeyPrefix), rdb.Close, nil
}
