package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/ulule/limiter/v3"
	"github.com/ulule/limiter/v3/drivers/store/memory"
	"go.uber.org/zap"
)

// NewMemoryLimiter builds a limiter from a formatted rate such as "120-M".
func NewMemoryLimiter(formatted string) (*limiter.Limiter, error) {
	rate, err := limiter.NewRateFromFormatted(formatted)
	if err != nil {
		return nil, err
	}
	return limiter.New(memory.NewStore(), rate), nil
}

// RateLimit creates a Gin middleware for rate limiting requests per client IP.
func RateLimit(limiterInstance *limiter.Limiter) gin.HandlerFunc {
	return func(c *gin.Context) {
		ip := c.ClientIP()
		logger := LoggerFromGin(c)

		context, err := limiterInstance.Get(c.Request.Context(), ip)
		if err != nil {
			logger.Error("Failed to get rate limit context", zap.String("ip", ip), zap.Error(err))
			c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"status": "error", "message": "Internal server error during rate limit check"})
			return
		}

		if context.Reached {
			logger.Warn("Rate limit exceeded", zap.String("ip", ip), zap.Int64("limit", context.Limit), zap.Int64("remaining_requests", context.Remaining))
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{"status": "error", "message": "Too many requests. Please try again later."})
			return
		}

		c.Next()
	}
}
