// Package httpkit provides HTTP middleware infrastructure.
// This is part of the platform layer and contains no business logic.
package httpkit

import (
	"crypto/subtle"
	"sync"
	"time"

	"github.com/Rollnz/window-man-truth-engine-sub000/platform/apperr"
	"github.com/Rollnz/window-man-truth-engine-sub000/platform/config"
	"github.com/Rollnz/window-man-truth-engine-sub000/platform/logger"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"golang.org/x/time/rate"
)

const (
	// APIKeyHeader carries the shared secret of the marketing-site caller.
	APIKeyHeader = "X-Tracking-Key"

	// requestIDKey is the gin context key set by RequestID and read by
	// RequestLogger for log correlation.
	requestIDKey = "requestID"

	errMissingKey = "missing api key"
	errInvalidKey = "invalid api key"
)

// RequestLogger logs HTTP requests with timing. The request id attached by
// RequestID, when present, is carried into the log line.
func RequestLogger(log *logger.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path

		c.Next()

		latency := time.Since(start)
		status := c.Writer.Status()
		clientIP := c.ClientIP()

		reqLog := log
		if id := c.GetString(requestIDKey); id != "" {
			reqLog = log.WithRequestID(id)
		}
		reqLog.HTTPRequest(c.Request.Method, path, status, float64(latency.Milliseconds()), clientIP)
	}
}

// RequestID attaches a request id to the context for log correlation.
func RequestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader("X-Request-ID")
		if id == "" {
			id = uuid.NewString()
		}
		c.Set(requestIDKey, id)
		c.Header("X-Request-ID", id)
		c.Next()
	}
}

// SecurityHeaders adds security headers to responses.
func SecurityHeaders() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Header("X-Content-Type-Options", "nosniff")
		c.Header("X-Frame-Options", "DENY")
		c.Header("Referrer-Policy", "strict-origin-when-cross-origin")

		// Only add HSTS when serving TLS
		if c.Request.TLS != nil {
			c.Header("Strict-Transport-Security", "max-age=31536000; includeSubDomains")
		}

		c.Next()
	}
}

// APIKeyAuth validates the shared secret sent by the marketing site.
// Callers are trusted internal code; this keeps drive-by traffic out,
// it is not a user authentication scheme.
func APIKeyAuth(cfg config.APIKeyConfig) gin.HandlerFunc {
	return func(c *gin.Context) {
		expected := cfg.GetAPIKey()
		if expected == "" {
			// No key configured: open mode for local development.
			c.Next()
			return
		}

		provided := c.GetHeader(APIKeyHeader)
		if provided == "" {
			HandleError(c, apperr.Unauthorized(errMissingKey))
			c.Abort()
			return
		}

		if subtle.ConstantTimeCompare([]byte(provided), []byte(expected)) != 1 {
			HandleError(c, apperr.Unauthorized(errInvalidKey))
			c.Abort()
			return
		}

		c.Next()
	}
}

// IPRateLimiter manages per-IP rate limiters.
type IPRateLimiter struct {
	limiters sync.Map
	rate     rate.Limit
	burst    int
	log      *logger.Logger
}

// NewIPRateLimiter creates a per-IP rate limiter.
func NewIPRateLimiter(r rate.Limit, burst int, log *logger.Logger) *IPRateLimiter {
	return &IPRateLimiter{rate: r, burst: burst, log: log}
}

func (i *IPRateLimiter) getLimiter(ip string) *rate.Limiter {
	limiter, ok := i.limiters.Load(ip)
	if !ok {
		newLimiter := rate.NewLimiter(i.rate, i.burst)
		limiter, _ = i.limiters.LoadOrStore(ip, newLimiter)
	}
	return limiter.(*rate.Limiter)
}

// Middleware returns a gin middleware enforcing the per-IP limit.
func (i *IPRateLimiter) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		ip := c.ClientIP()
		if !i.getLimiter(ip).Allow() {
			if i.log != nil {
				i.log.RateLimitExceeded(ip, c.Request.URL.Path)
			}
			HandleError(c, apperr.RateLimited("rate limit exceeded"))
			c.Abort()
			return
		}
		c.Next()
	}
}

// TrackRateLimiter is the limiter applied to the public tracking routes.
// Generous: a busy page session fires a handful of events, not hundreds.
type TrackRateLimiter struct {
	*IPRateLimiter
}

// NewTrackRateLimiter creates the tracking-route rate limiter.
func NewTrackRateLimiter(log *logger.Logger) *TrackRateLimiter {
	return &TrackRateLimiter{
		IPRateLimiter: NewIPRateLimiter(rate.Limit(60.0/60.0), 30, log), // 60 per minute, burst of 30
	}
}
