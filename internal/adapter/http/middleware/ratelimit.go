package middleware

import (
	"strconv"
	"time"

	"gambling-bot/internal/core/ports"
	"gambling-bot/pkg/apperror"
	"gambling-bot/pkg/response"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
)

// RateLimitRule defines a rate limit for an endpoint group.
type RateLimitRule struct {
	Limit  int64
	Window time.Duration
}

// DefaultRateLimitRule applies to every ops API route.
var DefaultRateLimitRule = RateLimitRule{Limit: 60, Window: time.Minute}

// RateLimiter limits requests per client IP for an endpoint group. It shares
// the cooldown store used for gamble throttling.
func RateLimiter(store ports.CooldownStore, group string, rule RateLimitRule, log zerolog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		key := "http:" + group + ":" + c.ClientIP()

		result, err := store.Allow(c.Request.Context(), key, rule.Limit, rule.Window)
		if err != nil {
			log.Warn().Err(err).Str("group", group).Msg("rate limit check failed, allowing request (degraded mode)")
			c.Next()
			return
		}

		// Always set rate limit headers
		c.Header("X-RateLimit-Limit", strconv.FormatInt(result.Limit, 10))
		c.Header("X-RateLimit-Remaining", strconv.FormatInt(result.Remaining, 10))
		c.Header("X-RateLimit-Reset", strconv.FormatInt(result.ResetAt, 10))

		if !result.Allowed {
			retryAfter := result.ResetAt - time.Now().Unix()
			if retryAfter < 1 {
				retryAfter = 1
			}
			c.Header("Retry-After", strconv.FormatInt(retryAfter, 10))
			response.Error(c, apperror.ErrCooldown())
			c.Abort()
			return
		}

		c.Next()
	}
}
