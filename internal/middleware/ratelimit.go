package middleware

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/AnshRaj112/vikas-backend/pkg/clientip"
)

const (
	// RateLimitWindow is 120 seconds
	RateLimitWindow = 120 * time.Second
	// RateLimitMaxRequests is the maximum number of requests allowed in the window
	RateLimitMaxRequests = 120
	// RateLimitKeyPrefix is the Redis key prefix for rate limiting
	RateLimitKeyPrefix = "ratelimit:"
	// BlockedIPKeyPrefix is the Redis key prefix for blocked IPs
	BlockedIPKeyPrefix = "blocked_ip:"
	// BlockedIPDuration is how long an IP stays blocked
	BlockedIPDuration = 15 * time.Minute
)

// RedisRateLimiter is a fixed-window per-IP counter shared by every instance
// using the same Redis. An IP that exceeds the window is blocked for
// BlockedIPDuration.
type RedisRateLimiter struct {
	client     *redis.Client
	log        *zap.Logger
	trustProxy bool
	window     time.Duration
	max        int64
	blockFor   time.Duration
}

func NewRedisRateLimiter(client *redis.Client, log *zap.Logger, trustProxy bool) *RedisRateLimiter {
	return &RedisRateLimiter{
		client:     client,
		log:        log,
		trustProxy: trustProxy,
		window:     RateLimitWindow,
		max:        RateLimitMaxRequests,
		blockFor:   BlockedIPDuration,
	}
}

func (l *RedisRateLimiter) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		ip := clientip.RealClientIP(r, l.trustProxy)

		blockedKey := BlockedIPKeyPrefix + ip
		isBlocked, err := l.client.Exists(ctx, blockedKey).Result()
		if err == nil && isBlocked > 0 {
			writeError(w, http.StatusTooManyRequests, "Your IP has been temporarily blocked due to excessive requests. Please try again later.")
			return
		}

		count, err := l.hit(ctx, RateLimitKeyPrefix+ip)
		if err != nil {
			// If Redis fails, allow the request (fail open)
			l.log.Warn("rate limit counter unavailable", zap.Error(err))
			next.ServeHTTP(w, r)
			return
		}

		if count > l.max {
			if err := l.client.Set(ctx, blockedKey, "1", l.blockFor).Err(); err != nil {
				l.log.Warn("failed to block ip", zap.String("ip", ip), zap.Error(err))
			}
			w.Header().Set("Retry-After", strconv.Itoa(int(l.blockFor.Seconds())))
			writeError(w, http.StatusTooManyRequests,
				fmt.Sprintf("Rate limit exceeded. Try again in %d seconds.", int(l.blockFor.Seconds())))
			return
		}

		w.Header().Set("X-RateLimit-Limit", strconv.FormatInt(l.max, 10))
		w.Header().Set("X-RateLimit-Remaining", strconv.FormatInt(l.max-count, 10))
		next.ServeHTTP(w, r)
	})
}

// hit counts one request in the current window. The window key is created
// with its TTL in the same transaction as the increment, so a counter never
// outlives its window.
func (l *RedisRateLimiter) hit(ctx context.Context, key string) (int64, error) {
	var incr *redis.IntCmd
	_, err := l.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.SetNX(ctx, key, 0, l.window)
		incr = pipe.Incr(ctx, key)
		return nil
	})
	if err != nil {
		return 0, err
	}
	return incr.Val(), nil
}
