package middleware

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/procodebh/crm-console/logger"
	"github.com/procodebh/crm-console/util/metrics"
	"github.com/procodebh/crm-console/web/cache"
	"github.com/procodebh/crm-console/web/session"
)

// RateLimitConfig configures rate limiting
type RateLimitConfig struct {
	// Requests is the number of requests allowed per Window.
	Requests int
	Window   time.Duration
	KeyFunc  func(c *gin.Context) string
	// Step labels the login attempts metric ("login" or "otp").
	Step string
	// Counter increments a window counter; nil uses Redis.
	Counter func(ctx context.Context, key string, window time.Duration) (int64, time.Duration, error)
}

// LoginRateLimitConfig limits form submissions on the login and OTP pages
// per client IP.
func LoginRateLimitConfig(step string) RateLimitConfig {
	return RateLimitConfig{
		Requests: 10,
		Window:   time.Minute,
		KeyFunc: func(c *gin.Context) string {
			return c.ClientIP()
		},
		Step:    step,
		Counter: cache.IncrWindow,
	}
}

// RateLimitMiddleware creates rate limiting middleware. A failing counter
// lets the request through.
func RateLimitMiddleware(config RateLimitConfig) gin.HandlerFunc {
	counter := config.Counter
	if counter == nil {
		counter = cache.IncrWindow
	}
	return func(c *gin.Context) {
		key := config.KeyFunc(c)
		rateLimitKey := "ratelimit:" + key + ":" + c.FullPath()

		count, ttl, err := counter(c.Request.Context(), rateLimitKey, config.Window)
		if err != nil {
			logger.Warning("Rate limit increment failed:", err)
			c.Next()
			return
		}
		if ttl <= 0 {
			ttl = config.Window
		}

		remaining := config.Requests - int(count)
		if remaining < 0 {
			remaining = 0
		}
		c.Header("X-RateLimit-Limit", strconv.Itoa(config.Requests))
		c.Header("X-RateLimit-Remaining", strconv.Itoa(remaining))
		c.Header("X-RateLimit-Reset", strconv.FormatInt(time.Now().Add(ttl).Unix(), 10))

		if int(count) > config.Requests {
			logger.Warningf("Rate limit exceeded for %s on %s (count: %d)", key, c.Request.URL.Path, count)
			metrics.LoginAttemptsTotal.WithLabelValues(config.Step, "rate_limited").Inc()
			if isAjax(c) {
				c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{
					"success": false,
					"msg":     "Too many attempts. Please try again later.",
				})
				return
			}
			session.AddFlash(c, session.FlashError, "Too many attempts. Please try again later.")
			redirect(c, c.Request.URL.Path)
			return
		}

		c.Next()
	}
}
