package redis

import (
	"context"
	"fmt"
	"time"

	"teamflow/internal/config"

	"github.com/redis/go-redis/v9"
)

func NewRedisClient(ctx context.Context, cfg config.RedisConfig) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr, // e.g., "localhost:6379"
		Password: cfg.Password,
		DB:       cfg.DB,
		PoolSize: cfg.PoolSize, // Maximum number of socket connections
	})

	// Ping to test connection on startup
	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}

	return client, nil
}
