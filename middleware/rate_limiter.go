// middleware/rate_limiter.go
package middleware

import (
	"strings"
	"sync"
	"time"

	"github.com/labstack/echo/v4"
	"golang.org/x/time/rate"
)

// RateLimiter keeps one token bucket per client IP and route, so a busy
// route never borrows or exhausts another route's budget.
type RateLimiter struct {
	ips            map[string]*rate.Limiter
	blockedIPs     map[string]time.Time
	stop           chan struct{}
	stopOnce       sync.Once
	mu             *sync.RWMutex
	defaultLimit   rate.Limit
	defaultBurst   int
	blockDuration  time.Duration
	endpointLimits map[string]struct {
		limit rate.Limit
		burst int
	}
}

// NewRateLimiter limits each client IP to perMinute requests by default.
func NewRateLimiter(perMinute int) *RateLimiter {
	if perMinute <= 0 {
		perMinute = 600
	}
	limiter := &RateLimiter{
		ips:           make(map[string]*rate.Limiter),
		blockedIPs:    make(map[string]time.Time),
		stop:          make(chan struct{}),
		mu:            &sync.RWMutex{},
		defaultLimit:  rate.Every(time.Minute / time.Duration(perMinute)),
		defaultBurst:  20,
		blockDuration: 5 * time.Minute,
		endpointLimits: make(map[string]struct {
			limit rate.Limit
			burst int
		}),
	}

	// Sale ingestion is called by the order service, not by people
	limiter.endpointLimits["/api/network/sales"] = struct {
		limit rate.Limit
		burst int
	}{
		limit: rate.Every(10 * time.Millisecond), // 100 requests per second
		burst: 200,
	}

	// Job triggers run whole batches
	limiter.endpointLimits["/api/admin/network/jobs/:type"] = struct {
		limit rate.Limit
		burst int
	}{
		limit: rate.Every(2 * time.Second),
		burst: 5,
	}

	go limiter.cleanupBlockedIPs(time.Hour)

	return limiter
}

// Stop ends the background cleanup. It is safe to call more than once.
func (r *RateLimiter) Stop() {
	r.stopOnce.Do(func() { close(r.stop) })
}

func (r *RateLimiter) cleanupBlockedIPs(every time.Duration) {
	ticker := time.NewTicker(every)
	defer ticker.Stop()
	for {
		select {
		case <-r.stop:
			return
		case <-ticker.C:
			r.removeExpired(time.Now())
		}
	}
}

func (r *RateLimiter) removeExpired(now time.Time) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for key, blockUntil := range r.blockedIPs {
		if now.After(blockUntil) {
			delete(r.blockedIPs, key)
			// Also remove the limiter to reset its state
			delete(r.ips, key)
		}
	}
}

func (r *RateLimiter) RateLimit() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			// Exclude health and metrics scrapes from rate limiting
			ds := c.Request().URL.Path
			if ds == "/health" || strings.HasPrefix(ds, "/metrics") {
				return next(c)
			}

			path := c.Path()
			key := c.RealIP() + "|" + path

			// Check if the IP is blocked on this route and handle expired blocks
			r.mu.Lock()
			if blockUntil, blocked := r.blockedIPs[key]; blocked {
				if time.Now().Before(blockUntil) {
					r.mu.Unlock()
					return c.JSON(429, map[string]string{
						"message":    "IP address blocked due to too many requests",
						"retryAfter": blockUntil.Format(time.RFC3339),
					})
				}
				// Block has expired - remove it and reset the limiter
				delete(r.blockedIPs, key)
				delete(r.ips, key) // Reset the limiter state
			}
			r.mu.Unlock()

			// Get endpoint-specific limits
			limit := r.defaultLimit
			burst := r.defaultBurst

			if endpointLimit, exists := r.endpointLimits[path]; exists {
				limit = endpointLimit.limit
				burst = endpointLimit.burst
			}

			limiter := r.getLimiter(key, limit, burst)
			if !limiter.Allow() {
				// Block the IP on this route
				r.mu.Lock()
				r.blockedIPs[key] = time.Now().Add(r.blockDuration)
				r.mu.Unlock()

				return c.JSON(429, map[string]string{
					"message":    "Too many requests",
					"retryAfter": time.Now().Add(r.blockDuration).Format(time.RFC3339),
				})
			}

			return next(c)
		}
	}
}

func (r *RateLimiter) getLimiter(key string, limit rate.Limit, burst int) *rate.Limiter {
	r.mu.Lock()
	defer r.mu.Unlock()

	limiter, exists := r.ips[key]
	if !exists {
		limiter = rate.NewLimiter(limit, burst)
		r.ips[key] = limiter
	}
	return limiter
}
