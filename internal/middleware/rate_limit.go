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
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/foodgram/backend/internal/metrics"
)

// RateLimitConfig defines configuration for rate limiting
type RateLimitConfig struct {
	// Window is the time window for rate limiting
	Window time.Duration
	// Limit is the maximum number of requests allowed in the window
	Limit int
	// Key prefix for Redis keys, also used as the metrics label
	KeyPrefix string
}

// Limiter decides whether one more request for key fits in the current window.
// It returns whether the request is allowed, the remaining budget and when the budget resets.
type Limiter interface {
	IsAllowed(ctx context.Context, key string) (bool, int, time.Time, error)
	Config() RateLimitConfig
}

// RedisLimiter is a fixed window counter shared by every instance of the API
type RedisLimiter struct {
	redis  *redis.Client
	config RateLimitConfig
}

// NewRedisLimiter creates a new rate limiter instance
func NewRedisLimiter(redisClient *redis.Client, config RateLimitConfig) *RedisLimiter {
	return &RedisLimiter{
		redis:  redisClient,
		config: config,
	}
}

func (rl *RedisLimiter) Config() RateLimitConfig { return rl.config }

func (rl *RedisLimiter) IsAllowed(ctx context.Context, key string) (bool, int, time.Time, error) {
	windowStart := time.Now().Truncate(rl.config.Window)
	redisKey := fmt.Sprintf("%s:%s:%d", rl.config.KeyPrefix, key, windowStart.Unix())

	pipe := rl.redis.Pipeline()
	incrCmd := pipe.Incr(ctx, redisKey)
	pipe.Expire(ctx, redisKey, rl.config.Window)
	if _, err := pipe.Exec(ctx); err != nil {
		return false, 0, time.Time{}, err
	}

	count := int(incrCmd.Val())
	remaining := rl.config.Limit - count
	if remaining < 0 {
		remaining = 0
	}
	return count <= rl.config.Limit, remaining, windowStart.Add(rl.config.Window), nil
}

// LocalLimiter keeps one token bucket per key in process memory.
// It serves single instance deployments that run without Redis.
type LocalLimiter struct {
	config  RateLimitConfig
	mu      sync.Mutex
	buckets map[string]*rate.Limiter
}

func NewLocalLimiter(config RateLimitConfig) *LocalLimiter {
	return &LocalLimiter{
		config:  config,
		buckets: make(map[string]*rate.Limiter),
	}
}

func (l *LocalLimiter) Config() RateLimitConfig { return l.config }

func (l *LocalLimiter) IsAllowed(_ context.Context, key string) (bool, int, time.Time, error) {
	l.mu.Lock()
	bucket, ok := l.buckets[key]
	if !ok {
		every := l.config.Window / time.Duration(l.config.Limit)
		bucket = rate.NewLimiter(rate.Every(every), l.config.Limit)
		l.buckets[key] = bucket
	}
	l.mu.Unlock()

	now := time.Now()
	allowed := bucket.AllowN(now, 1)
	remaining := int(bucket.TokensAt(now))
	if remaining < 0 {
		remaining = 0
	}
	missing := float64(l.config.Limit) - bucket.TokensAt(now)
	reset := now.Add(time.Duration(missing * float64(l.config.Window) / float64(l.config.Limit)))
	return allowed, remaining, reset, nil
}

// NewLimiter returns a Redis backed limiter when a client is available and a local one otherwise
func NewLimiter(redisClient *redis.Client, config RateLimitConfig) Limiter {
	if redisClient != nil {
		return NewRedisLimiter(redisClient, config)
	}
	return NewLocalLimiter(config)
}

// RateLimitMiddleware limits requests per authenticated user
func RateLimitMiddleware(limiter Limiter, logger *zap.Logger) gin.HandlerFunc {
	return rateLimit(limiter, logger, func(c *gin.Context, userID string) (string, bool) {
		return userID, true
	})
}

// PerRecipeRateLimitMiddleware limits requests per user and recipe, keyed on the :id route parameter
func PerRecipeRateLimitMiddleware(limiter Limiter, logger *zap.Logger) gin.HandlerFunc {
	return rateLimit(limiter, logger, func(c *gin.Context, userID string) (string, bool) {
		recipeID := c.Param("id")
		if recipeID == "" {
			return "", false
		}
		return userID + ":" + recipeID, true
	})
}

func rateLimit(limiter Limiter, logger *zap.Logger, keyFn func(c *gin.Context, userID string) (string, bool)) gin.HandlerFunc {
	cfg := limiter.Config()
	return func(c *gin.Context) {
		userID, exists := c.Get(userIDKey)
		if !exists {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"detail": "Authentication credentials were not provided."})
			return
		}
		key, ok := keyFn(c, fmt.Sprintf("%v", userID))
		if !ok {
			c.Next()
			return
		}

		allowed, remaining, resetTime, err := limiter.IsAllowed(c.Request.Context(), key)
		if err != nil {
			// Fail open.
			logger.Warn("rate limit check failed", zap.String("limiter", cfg.KeyPrefix), zap.Error(err))
			c.Header("X-RateLimit-Error", "rate limit check failed")
			c.Next()
			return
		}

		c.Header("X-RateLimit-Limit", strconv.Itoa(cfg.Limit))
		c.Header("X-RateLimit-Remaining", strconv.Itoa(remaining))
		c.Header("X-RateLimit-Reset", strconv.FormatInt(resetTime.Unix(), 10))

		if !allowed {
			metrics.RateLimited.WithLabelValues(cfg.KeyPrefix).Inc()
			retryAfter := int(time.Until(resetTime).Seconds())
			if retryAfter < 1 {
				retryAfter = 1
			}
			c.Header("Retry-After", strconv.Itoa(retryAfter))
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{
				"error":       "rate limit exceeded",
				"message":     fmt.Sprintf("You have exceeded the rate limit of %d requests per %v", cfg.Limit, cfg.Window),
				"retry_after": retryAfter,
			})
			return
		}

		c.Next()
	}
}

// NewRecipeCreationLimiter limits recipe creation per user
func NewRecipeCreationLimiter(redisClient *redis.Client, limit int, window time.Duration) Limiter {
	return NewLimiter(redisClient, RateLimitConfig{
		Window:    window,
		Limit:     limit,
		KeyPrefix: "rate_limit:recipe_creation",
	})
}

// NewRecipeModificationLimiter limits updates and deletes per user and recipe
func NewRecipeModificationLimiter(redisClient *redis.Client, limit int, window time.Duration) Limiter {
	return NewLimiter(redisClient, RateLimitConfig{
		Window:    window,
		Limit:     limit,
		KeyPrefix: "rate_limit:recipe_modification",
	})
}
