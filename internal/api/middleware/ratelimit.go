package middleware

import (
	"net/http"
	"sync"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/patrickmn/go-cache"
	"golang.org/x/time/rate"
)

const (
	limiterTTL     = 10 * time.Minute
	limiterCleanup = 5 * time.Minute
)

// RateLimiter keeps one token bucket per client IP. Idle buckets expire.
type RateLimiter struct {
	limit    rate.Limit
	burst    int
	mu       sync.Mutex
	limiters *cache.Cache
}

// NewRateLimiter creates a limiter allowing perSecond requests with burst
// per client.
func NewRateLimiter(perSecond float64, burst int) *RateLimiter {
	return &RateLimiter{
		limit:    rate.Limit(perSecond),
		burst:    burst,
		limiters: cache.New(limiterTTL, limiterCleanup),
	}
}

// Allow reports whether key may make a request now.
func (r *RateLimiter) Allow(key string) bool {
	r.mu.Lock()
	var limiter *rate.Limiter
	if v, found := r.limiters.Get(key); found {
		limiter = v.(*rate.Limiter)
	} else {
		limiter = rate.NewLimiter(r.limit, r.burst)
	}
	// refresh the expiry on every use
	r.limiters.SetDefault(key, limiter)
	r.mu.Unlock()

	return limiter.Allow()
}

// Middleware rejects requests over the limit with 429. A non-positive rate
// disables limiting.
func (r *RateLimiter) Middleware() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if r.limit <= 0 {
				return next(c)
			}
			if !r.Allow(c.RealIP()) {
				c.Response().Header().Set("Retry-After", "1")
				return echo.NewHTTPError(http.StatusTooManyRequests, "rate limit exceeded")
			}
			return next(c)
		}
	}
}
