package middleware

import (
	"context"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/karenkamal24/softigitalshop/internal/logging"
)

// Limiter is a fixed-window counter keyed by caller identity.
type Limiter interface {
	Allow(ctx context.Context, key string) (bool, error)
}

// RateLimit throttles order placement per authenticated user. Unauthenticated
// or unidentified callers share a per-IP bucket. A broken limiter backend
// fails open: losing Redis should not take order intake down with it.
func RateLimit(l Limiter) gin.HandlerFunc {
	return func(c *gin.Context) {
		key := "ip:" + c.ClientIP()
		if uid := UserID(c); uid != 0 {
			key = "user:" + strconv.FormatInt(uid, 10)
		}

		ok, err := l.Allow(c.Request.Context(), key)
		if err != nil {
			logging.From(c).Warn("rate limiter unavailable, allowing request", "err", err)
			c.Next()
			return
		}
		if !ok {
			c.Header("Retry-After", "60")
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{
				"error": "rate_limited", "error_description": "too many orders, slow down",
			})
			return
		}
		c.Next()
	}
}
