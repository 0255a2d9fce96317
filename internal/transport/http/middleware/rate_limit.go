package middleware

import (
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/sweetworks/sweetshop-api/internal/core/port"
)

// RateLimiter throttles requests per client IP within a fixed window.
type RateLimiter struct {
	store  port.RateLimitStore
	max    int
	window time.Duration
	logger *zap.Logger
}

// NewRateLimiter constructs a limiter backed by the provided store.
func NewRateLimiter(store port.RateLimitStore, max int, window time.Duration, logger *zap.Logger) *RateLimiter {
	if logger == nil {
		logger = zap.NewNop()
	}

	return &RateLimiter{store: store, max: max, window: window, logger: logger}
}

// Limit returns middleware enforcing the limit for the given scope. Store
// failures fail open: an unavailable counter must not lock everyone out.
func (l *RateLimiter) Limit(scope string) gin.HandlerFunc {
	return func(c *gin.Context) {
		key := fmt.Sprintf("%s:%s", scope, c.ClientIP())

		count, err := l.store.Increment(c.Request.Context(), key, l.window)
		if err != nil {
			l.logger.Warn("Rate limit store unavailable",
				zap.String("scope", scope),
				zap.Error(err),
			)
			c.Next()
			return
		}

		if count > int64(l.max) {
			c.AbortWithStatusJSON(http.StatusTooManyRequests,
				newErrorResponse(c, "too many attempts, try again later"))
			return
		}

		c.Next()
	}
}
