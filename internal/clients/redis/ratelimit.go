package redis

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"github.com/yungbote/advisormatch-backend/internal/platform/logger"
)

// RateLimiter counts requests per client in fixed windows backed by Redis, so
// limits hold across replicas.
type RateLimiter interface {
	Allow(ctx context.Context, key string) (bool, error)
	Close() error
}

type rateLimiter struct {
	log    *logger.Logger
	rdb    *goredis.Client
	limit  int
	window time.Duration
	prefix string
}

func NewRateLimiter(log *logger.Logger, limit int, window time.Duration) (RateLimiter, error) {
	if log == nil {
		return nil, fmt.Errorf("logger required")
	}
	if limit <= 0 {
		limit = 30
	}
	if window <= 0 {
		window = time.Minute
	}

	addr := strings.TrimSpace(os.Getenv("REDIS_ADDR"))
	if addr == "" {
		return nil, fmt.Errorf("missing REDIS_ADDR")
	}

	rdb := goredis.NewClient(&goredis.Options{
		Addr:        addr,
		DialTimeout: 5 * time.Second,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("redis ping: %w", err)
	}

	return &rateLimiter{
		log:    log.With("service", "RedisRateLimiter"),
		rdb:    rdb,
		limit:  limit,
		window: window,
		prefix: "ratelimit",
	}, nil
}

// Allow increments the caller's counter for the current window and reports
// whether it is still under the limit. INCR creates the key at 1; only the
// creator sets the expiry, so the window never slides.
func (rl *rateLimiter) Allow(ctx context.Context, key string) (bool, error) {
	if rl == nil || rl.rdb == nil {
		return false, fmt.Errorf("rate limiter not initialized")
	}
	windowKey := fmt.Sprintf("%s:%s:%d", rl.prefix, key, time.Now().Unix()/int64(rl.window.Seconds()))

	count, err := rl.rdb.Incr(ctx, windowKey).Result()
	if err != nil {
		return false, fmt.Errorf("redis incr: %w", err)
	}
	if count == 1 {
		if err := rl.rdb.Expire(ctx, windowKey, rl.window).Err(); err != nil {
			rl.log.Warn("Failed to set rate limit window expiry", "error", err)
		}
	}
	return count <= int64(rl.limit), nil
}

func (rl *rateLimiter) Close() error {
	if rl == nil || rl.rdb == nil {
		return nil
	}
	return rl.rdb.Close()
}
