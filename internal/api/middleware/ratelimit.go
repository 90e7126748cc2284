package middleware

import (
	"context"
	"net"
	"net/http"
	"time"

	"music_charts_api/internal/common"

	"github.com/charmbracelet/log"
	"github.com/redis/go-redis/v9"
)

// WindowCounter counts hits against a key within a fixed window.
type WindowCounter interface {
	Incr(ctx context.Context, key string, window time.Duration) (int64, error)
}

type redisCounter struct {
	rdb *redis.Client
}

func NewRedisCounter(rdb *redis.Client) WindowCounter {
	return &redisCounter{rdb: rdb}
}

func (c *redisCounter) Incr(ctx context.Context, key string, window time.Duration) (int64, error) {
	count, err := c.rdb.Incr(ctx, key).Result()
	if err != nil {
		return 0, err
	}
	if count == 1 {
		// First hit starts the window.
		if err := c.rdb.Expire(ctx, key, window).Err(); err != nil {
			return count, err
		}
	}
	return count, nil
}

// RateLimit enforces a fixed-window request budget per client IP. A counter
// failure fails open: the request proceeds and the cause is logged.
func RateLimit(counter WindowCounter, limit int, window time.Duration, logger *log.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ip := r.RemoteAddr
			if host, _, err := net.SplitHostPort(r.RemoteAddr); err == nil {
				ip = host
			}

			count, err := counter.Incr(r.Context(), "ratelimit:"+ip, window)
			if err != nil {
				logger.Warn("rate limit counter unavailable", "error", err)
				next.ServeHTTP(w, r)
				return
			}
			if count > int64(limit) {
				common.RespondWithError(w, http.StatusTooManyRequests, "rate limit exceeded")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
