package middleware

import (
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/guttosm/aumreport/internal/logger"
	"github.com/rs/zerolog"
	"golang.org/x/time/rate"
)

// RequestLogger logs one structured line per request after it completes.
//
// Fields: request_id (set by RequestID), method, route (the matched
// pattern, empty for 404s), path, status, bytes, latency_ms, client_ip and
// the number of errors attached to the context. Responses with a 5xx
// status are logged at error level.
//
//	router.Use(middleware.RequestID(), middleware.RequestLogger())
func RequestLogger() gin.HandlerFunc {
	return requestLogger(logger.Named("http"))
}

func requestLogger(log zerolog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		status := c.Writer.Status()
		ev := log.Info()
		if status >= http.StatusInternalServerError {
			ev = log.Error()
		}
		rid, _ := c.Get(RequestIDKey)
		ev.
			Str("request_id", toString(rid)).
			Str("method", c.Request.Method).
			Str("route", c.FullPath()).
			Str("path", c.Request.URL.Path).
			Int("status", status).
			Int("bytes", c.Writer.Size()).
			Int64("latency_ms", time.Since(start).Milliseconds()).
			Str("client_ip", c.ClientIP()).
			Int("errors", len(c.Errors)).
			Msg("http_request")
	}
}

func toString(v any) string {
	if s, ok := v.(string); ok {
		return s
	}
	return ""
}

// visitor is the token bucket of one client IP.
type visitor struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// ipLimiter hands out one token bucket per client IP, refilled at limit
// tokens per window with a burst of limit. Buckets idle for longer than
// idleAfter are evicted when a new client shows up.
type ipLimiter struct {
	mu        sync.Mutex
	visitors  map[string]*visitor
	every     rate.Limit
	burst     int
	idleAfter time.Duration
}

func newIPLimiter(limit int, window time.Duration) *ipLimiter {
	return &ipLimiter{
		visitors:  make(map[string]*visitor),
		every:     rate.Every(window / time.Duration(limit)),
		burst:     limit,
		idleAfter: 3 * window,
	}
}

// allow takes one token from the bucket of ip at now.
func (l *ipLimiter) allow(ip string, now time.Time) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	v, ok := l.visitors[ip]
	if !ok {
		for k, other := range l.visitors {
			if now.Sub(other.lastSeen) > l.idleAfter {
				delete(l.visitors, k)
			}
		}
		v = &visitor{limiter: rate.NewLimiter(l.every, l.burst)}
		l.visitors[ip] = v
	}
	v.lastSeen = now
	return v.limiter.AllowN(now, 1)
}

// Defaults of RateLimiter: 60 requests per minute for each client IP.
var (
	window = time.Minute
	limit  = 60
)

// RateLimiter allows limit requests per window for each client IP, with
// bursts up to limit, and answers 429 with an ErrorResponse beyond that.
func RateLimiter() gin.HandlerFunc {
	l := newIPLimiter(limit, window)
	log := logger.Named("http")
	return func(c *gin.Context) {
		ip := c.ClientIP()
		if !l.allow(ip, time.Now()) {
			log.Warn().
				Str("client_ip", ip).
				Int("limit", limit).
				Dur("window", window).
				Msg("rate limit exceeded")
			AbortWithError(c, http.StatusTooManyRequests, "rate limit exceeded", nil)
			return
		}
		c.Next()
	}
}
