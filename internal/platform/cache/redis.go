package cache

import (
	"context"
	"fmt"
	"time"

	"music_charts_api/internal/platform/config"

	"github.com/redis/go-redis/v9"
)

// NewRedis connects the shared cache client used by the rate limiter.
// The client is owned by the caller and closed at shutdown.
func NewRedis(cfg *config.Config) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("connecting to Redis: %w", err)
	}
	return client, nil
}
