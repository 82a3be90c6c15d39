package middlewares

import (
	"context"
	"log/slog"
	"net"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
)

// RateLimiter enforces a fixed-window request limit per derived key. When a
// redis client is supplied the counters are shared across instances; with no
// redis it degrades to a per-process in-memory window. Redis failures fail
// open: losing the limiter is better than losing sign-in.
type RateLimiter struct {
	limit  int
	window time.Duration
	rdb    *redis.Client

	mu      sync.Mutex
	clients map[string]*clientBucket
}

type clientBucket struct {
	count     int
	windowEnd time.Time
}

func NewRateLimiter(limit int, window time.Duration, rdb *redis.Client) *RateLimiter {
	return &RateLimiter{
		limit:   limit,
		window:  window,
		rdb:     rdb,
		clients: make(map[string]*clientBucket),
	}
}

func (rl *RateLimiter) Middleware(keyFn func(*gin.Context) string) gin.HandlerFunc {
	return func(c *gin.Context) {
		key := keyFn(c)

		if key == "" {
			key = clientIP(c)
		}

		allowed, retryAfter := rl.allow(c.Request.Context(), key)

		if !allowed {
			c.Header("Retry-After", strconv.Itoa(retryAfter))
			abortError(c, http.StatusTooManyRequests,
				"rate_limited", "Too many requests. Please try again shortly.")
			return
		}

		c.Next()
	}
}

func (rl *RateLimiter) allow(ctx context.Context, key string) (bool, int) {
	if rl.rdb != nil {
		return rl.allowRedis(ctx, key)
	}
	return rl.allowLocal(key)
}

func (rl *RateLimiter) allowRedis(ctx context.Context, key string) (bool, int) {
	rkey := "ratelimit:" + key

	count, err := rl.rdb.Incr(ctx, rkey).Result()

	if err != nil {
		slog.Default().WarnContext(ctx, "rate limiter redis error", "error", err)
		return true, 0
	}

	if count == 1 {
		// first hit opens the window
		if err := rl.rdb.Expire(ctx, rkey, rl.window).Err(); err != nil {
			slog.Default().WarnContext(ctx, "rate limiter expire error", "error", err)
		}
	}

	if count > int64(rl.limit) {
		ttl, err := rl.rdb.TTL(ctx, rkey).Result()

		retryAfter := int(rl.window.Seconds())
		if err == nil && ttl > 0 {
			retryAfter = int(ttl.Seconds())
		}

		return false, retryAfter
	}

	return true, 0
}

func (rl *RateLimiter) allowLocal(key string) (bool, int) {
	now := time.Now()

	rl.mu.Lock()
	defer rl.mu.Unlock()

	b, ok := rl.clients[key]

	if !ok || now.After(b.windowEnd) {
		rl.clients[key] = &clientBucket{count: 1, windowEnd: now.Add(rl.window)}
		return true, 0
	}

	if b.count >= rl.limit {
		retryAfter := int(time.Until(b.windowEnd).Seconds())
		if retryAfter < 0 {
			retryAfter = 0
		}
		return false, retryAfter
	}

	b.count++

	return true, 0
}

// for unauthenticated endpoints: rate limit by IP
func KeyByIP(c *gin.Context) string {
	return clientIP(c)
}

// for authenticated endpoints: rate limit by userID if available
func KeyByUserOrIP(c *gin.Context) string {
	id, ok := UserIDFromContext(c)

	if ok && id != "" {
		return "user:" + id
	}

	return clientIP(c)
}

func clientIP(c *gin.Context) string {
	ip := c.ClientIP()

	host, _, err := net.SplitHostPort(ip)

	if err == nil && host != "" {
		return host
	}

	return ip
}
