package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/yungbote/advisormatch-backend/internal/clients/redis"
	"github.com/yungbote/advisormatch-backend/internal/http/response"
	"github.com/yungbote/advisormatch-backend/internal/platform/logger"
)

// RateLimit rejects callers over their per-window budget with 429. A Redis
// outage fails open: serving unthrottled beats serving nothing.
func RateLimit(log *logger.Logger, limiter redis.RateLimiter) gin.HandlerFunc {
	return func(c *gin.Context) {
		if limiter == nil {
			c.Next()
			return
		}
		ok, err := limiter.Allow(c.Request.Context(), c.ClientIP())
		if err != nil {
			if log != nil {
				log.Warn("Rate limit check failed, allowing request", "error", err)
			}
			c.Next()
			return
		}
		if !ok {
			response.RespondError(c, http.StatusTooManyRequests, "rate_limited", nil)
			c.Abort()
			return
		}
		c.Next()
	}
}
