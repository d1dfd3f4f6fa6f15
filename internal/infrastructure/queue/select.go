package queue

import (
	"context"
	"log/slog"
	"time"

	"github.com/LavaJover/shvark-payment-gateway/internal/config"
	"github.com/LavaJover/shvark-payment-gateway/internal/domain"
	"github.com/redis/go-redis/v9"
)

// New picks the Redis backend when it is configured and reachable, the memory queue otherwise.
func New(ctx context.Context, cfg config.Redis) (domain.Queue, error) {
	if !cfg.Enabled() {
		slog.Warn("redis not configured, using in-memory queue")
		return NewMemoryQueue()
	}

	client := redis.NewClient(&redis.Options{
		Addr:        cfg.Addr(),
		Password:    cfg.Password,
		DB:          cfg.DB,
		DialTimeout: 5 * time.Second,
	})
	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		slog.Warn("redis unreachable, using in-memory queue", "addr", cfg.Addr(), "error", err.Error())
		_ = client.Close()
		return NewMemoryQueue()
	}

	slog.Info("redis queue connected", "addr", cfg.Addr())
	return NewRedisQueue(client)
}
