package middleware

import (
	"context"
	"fmt"
	"strconv"
	"time"

	redisStore "denomination-wallet/internal/adapter/storage/redis"
	"denomination-wallet/pkg/apperror"
	"denomination-wallet/pkg/response"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
)

// RateLimitRule defines a rate limit for an endpoint group.
type RateLimitRule struct {
	Limit  int64
	Window time.Duration
}

// Limiter counts requests per key and window.
type Limiter interface {
	Allow(ctx context.Context, key string, limit int64, window time.Duration) (*redisStore.RateLimitResult, error)
}

// WalletRateLimitRules returns the per-group limits for a requests-per-minute budget.
// Reads and writes are counted separately so a burst of listings cannot block commands.
// Auth endpoints run before a token exists, so they are keyed by client IP.
func WalletRateLimitRules(requestsPerMinute int) map[string]RateLimitRule {
	limit := int64(max(requestsPerMinute, 1))
	return map[string]RateLimitRule{
		"wallet_read":   {Limit: limit, Window: time.Minute},
		"wallet_write":  {Limit: limit, Window: time.Minute},
		"auth_login":    {Limit: 10, Window: time.Minute},
		"auth_register": {Limit: 5, Window: time.Hour},
	}
}

// RateLimiter creates a rate-limiting middleware for a given endpoint group.
func RateLimiter(store Limiter, group string, rule RateLimitRule, log zerolog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		key := fmt.Sprintf("%s:%s", extractIdentifier(c), group)

		result, err := store.Allow(c.Request.Context(), key, rule.Limit, rule.Window)
		if err != nil {
			log.Warn().Err(err).Str("group", group).Msg("rate limit check failed, allowing request (degraded mode)")
			c.Next()
			return
		}

		c.Header("X-RateLimit-Limit", strconv.FormatInt(result.Limit, 10))
		c.Header("X-RateLimit-Remaining", strconv.FormatInt(result.Remaining, 10))
		c.Header("X-RateLimit-Reset", strconv.FormatInt(result.ResetAt, 10))

		if !result.Allowed {
			retryAfter := max(result.ResetAt-time.Now().Unix(), 1)
			c.Header("Retry-After", strconv.FormatInt(retryAfter, 10))
			response.Error(c, apperror.ErrRateLimitExceeded())
			c.Abort()
			return
		}

		c.Next()
	}
}

// extractIdentifier keys anonymous requests by client IP and authenticated ones by actor.
func extractIdentifier(c *gin.Context) string {
	if actor, ok := ActorID(c); ok {
		return "actor:" + actor
	}
	return "ip:" + c.ClientIP()
}
