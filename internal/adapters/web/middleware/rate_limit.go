package middleware

import (
	"net/http"
	"sync"
	"time"
)

// rateLimiter is a per-client sliding window. Live traces open SSH sessions
// on production switches, so the trace and refresh endpoints are throttled.
type rateLimiter struct {
	mu          sync.Mutex
	seen        map[string][]time.Time
	limit       int
	window      time.Duration
	lastSweep   time.Time
	sweepPeriod time.Duration
}

// NewRateLimiter creates a new rate limiter with the specified limit and time window
func NewRateLimiter(limit int, window time.Duration) *rateLimiter {
	return &rateLimiter{
		seen:        make(map[string][]time.Time),
		limit:       limit,
		window:      window,
		lastSweep:   time.Now(),
		sweepPeriod: 10 * window,
	}
}

// Allow records a request from the given client and reports whether it fits
// inside the window.
func (rl *rateLimiter) Allow(client string) bool {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := time.Now()
	if now.Sub(rl.lastSweep) > rl.sweepPeriod {
		rl.sweep(now)
	}

	recent := prune(rl.seen[client], now, rl.window)
	if len(recent) >= rl.limit {
		rl.seen[client] = recent
		return false
	}
	rl.seen[client] = append(recent, now)
	return true
}

// sweep drops clients whose whole history fell out of the window. Runs under
// rl.mu.
func (rl *rateLimiter) sweep(now time.Time) {
	for client, times := range rl.seen {
		if recent := prune(times, now, rl.window); len(recent) == 0 {
			delete(rl.seen, client)
		} else {
			rl.seen[client] = recent
		}
	}
	rl.lastSweep = now
}

func prune(times []time.Time, now time.Time, window time.Duration) []time.Time {
	var recent []time.Time
	for _, t := range times {
		if now.Sub(t) < window {
			recent = append(recent, t)
		}
	}
	return recent
}

// RateLimitMiddleware creates a middleware that rate limits requests
func RateLimitMiddleware(limiter *rateLimiter) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !limiter.Allow(r.RemoteAddr) {
				http.Error(w, "Rate limit exceeded. Please try again later.", http.StatusTooManyRequests)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
