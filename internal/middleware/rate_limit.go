package middleware

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"golang.org/x/time/rate"

	"github.com/pageza/foodgram/backend/internal/logging"
	"github.com/pageza/foodgram/backend/internal/metrics"
)

// RateLimitConfig defines configuration for rate limiting
type RateLimitConfig struct {
	// Window is the time window for rate limiting
	Window time.Duration
	// Limit is the maximum number of requests allowed in the window
	Limit int
	// Key prefix for Redis keys
	KeyPrefix string
}

// Decision is the outcome of one rate limit check.
type Decision struct {
	Allowed   bool
	Limit     int
	Remaining int
	ResetAt   time.Time
}

// Limiter counts requests per key.
type Limiter interface {
	Allow(ctx context.Context, key string) (Decision, error)
	Config() RateLimitConfig
}

// RateLimiter handles fixed-window rate limiting using Redis
type RateLimiter struct {
	redis  *redis.Client
	config RateLimitConfig
}

// NewRateLimiter creates a new rate limiter instance
func NewRateLimiter(redisClient *redis.Client, config RateLimitConfig) *RateLimiter {
	return &RateLimiter{
		redis:  redisClient,
		config: config,
	}
}

func (rl *RateLimiter) Config() RateLimitConfig {
	return rl.config
}

// Allow increments the counter of key in the current window.
func (rl *RateLimiter) Allow(ctx context.Context, key string) (Decision, error) {
	now := time.Now()
	windowStart := now.Truncate(rl.config.Window)
	redisKey := fmt.Sprintf("%s:%s:%d", rl.config.KeyPrefix, key, windowStart.Unix())

	// Use Redis pipeline for atomic operations
	pipe := rl.redis.Pipeline()
	incrCmd := pipe.Incr(ctx, redisKey)
	pipe.Expire(ctx, redisKey, rl.config.Window)
	if _, err := pipe.Exec(ctx); err != nil {
		return Decision{}, err
	}

	count := int(incrCmd.Val())
	remaining := rl.config.Limit - count
	if remaining < 0 {
		remaining = 0
	}

	return Decision{
		Allowed:   count <= rl.config.Limit,
		Limit:     rl.config.Limit,
		Remaining: remaining,
		ResetAt:   windowStart.Add(rl.config.Window),
	}, nil
}

// LocalRateLimiter is an in-process token bucket per key, used when redis is not
// configured. Limits are per process.
type LocalRateLimiter struct {
	config RateLimitConfig

	mu        sync.Mutex
	buckets   map[string]*localBucket
	lastSweep time.Time
}

type localBucket struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

func NewLocalRateLimiter(config RateLimitConfig) *LocalRateLimiter {
	if config.Limit < 1 {
		config.Limit = 1
	}
	return &LocalRateLimiter{
		config:    config,
		buckets:   make(map[string]*localBucket),
		lastSweep: time.Now(),
	}
}

func (l *LocalRateLimiter) Config() RateLimitConfig {
	return l.config
}

// Allow takes one token from the bucket of key. Buckets refill Limit tokens per Window.
func (l *LocalRateLimiter) Allow(_ context.Context, key string) (Decision, error) {
	now := time.Now()

	l.mu.Lock()
	defer l.mu.Unlock()

	if now.Sub(l.lastSweep) > l.config.Window {
		for k, b := range l.buckets {
			if now.Sub(b.lastSeen) > l.config.Window {
				delete(l.buckets, k)
			}
		}
		l.lastSweep = now
	}

	b, ok := l.buckets[key]
	if !ok {
		every := l.config.Window / time.Duration(l.config.Limit)
		b = &localBucket{limiter: rate.NewLimiter(rate.Every(every), l.config.Limit)}
		l.buckets[key] = b
	}
	b.lastSeen = now

	allowed := b.limiter.AllowN(now, 1)
	remaining := int(b.limiter.TokensAt(now))
	if remaining < 0 {
		remaining = 0
	}

	resetAt := now
	if !allowed {
		resetAt = now.Add(l.config.Window / time.Duration(l.config.Limit))
	}

	return Decision{
		Allowed:   allowed,
		Limit:     l.config.Limit,
		Remaining: remaining,
		ResetAt:   resetAt,
	}, nil
}

// NewRecipeCreationRateLimiter limits recipe creation to limit per hour and user. A nil
// redis client selects the in-process limiter.
func NewRecipeCreationRateLimiter(redisClient *redis.Client, limit int) Limiter {
	cfg := RateLimitConfig{
		Window:    time.Hour,
		Limit:     limit,
		KeyPrefix: "rate_limit:recipe_creation",
	}
	if redisClient == nil {
		return NewLocalRateLimiter(cfg)
	}
	return NewRateLimiter(redisClient, cfg)
}

// NewLoginRateLimiter limits login attempts per client address.
func NewLoginRateLimiter(redisClient *redis.Client) Limiter {
	cfg := RateLimitConfig{
		Window:    time.Minute,
		Limit:     10,
		KeyPrefix: "rate_limit:login",
	}
	if redisClient == nil {
		return NewLocalRateLimiter(cfg)
	}
	return NewRateLimiter(redisClient, cfg)
}

// RateLimitMiddleware returns a Gin middleware that enforces rate limiting. Requests are
// keyed by the authenticated user, or by client address for anonymous callers.
func RateLimitMiddleware(name string, rl Limiter) gin.HandlerFunc {
	return func(c *gin.Context) {
		key := c.ClientIP()
		if id := UserID(c); id != 0 {
			key = "user:" + strconv.FormatUint(uint64(id), 10)
		}

		decision, err := rl.Allow(c.Request.Context(), key)
		if err != nil {
			// Log error but don't fail the request
			logging.Warn().Err(err).Str("limiter", name).Msg("rate limit check failed")
			c.Header("X-RateLimit-Error", "rate limit check failed")
			c.Next()
			return
		}

		// Set rate limit headers
		c.Header("X-RateLimit-Limit", strconv.Itoa(decision.Limit))
		c.Header("X-RateLimit-Remaining", strconv.Itoa(decision.Remaining))
		c.Header("X-RateLimit-Reset", strconv.FormatInt(decision.ResetAt.Unix(), 10))

		if !decision.Allowed {
			metrics.RateLimited.WithLabelValues(name).Inc()
			retryAfter := int(time.Until(decision.ResetAt).Seconds())
			if retryAfter < 1 {
				retryAfter = 1
			}
			c.Header("Retry-After", strconv.Itoa(retryAfter))
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{
				"error":       "rate limit exceeded",
				"message":     fmt.Sprintf("You have exceeded the rate limit of %d requests per %v", decision.Limit, rl.Config().Window),
				"retry_after": retryAfter,
			})
			return
		}

		c.Next()
	}
}
