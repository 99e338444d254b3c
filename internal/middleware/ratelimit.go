package middleware

import (
	"context"
	"net"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/dukerupert/roomies/internal/apperr"
)

// maxEntries bounds the limiter's memory between cleanups. When a new key
// would exceed it, expired windows are swept first.
const maxEntries = 10000

// ClientIP returns the address a request is attributed to. Forwarding
// headers (CF-Connecting-IP, then the first X-Forwarded-For hop) are only
// honoured when trustProxy is set; otherwise any client could pick its own
// address.
func ClientIP(r *http.Request, trustProxy bool) string {
	if trustProxy {
		if ip := r.Header.Get("CF-Connecting-IP"); ip != "" {
			return ip
		}
		if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
			if i := strings.IndexByte(xff, ','); i > 0 {
				return strings.TrimSpace(xff[:i])
			}
			return strings.TrimSpace(xff)
		}
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

type window struct {
	count   int
	resetAt time.Time
}

// RateLimiter counts attempts per key in fixed windows.
type RateLimiter struct {
	mu      sync.Mutex
	windows map[string]*window
	max     int
	now     func() time.Time
}

func NewRateLimiter() *RateLimiter {
	return &RateLimiter{
		windows: make(map[string]*window),
		max:     maxEntries,
		now:     time.Now,
	}
}

// Allow records an attempt for key. When the key is over limit it returns
// false and how long until its window resets.
func (rl *RateLimiter) Allow(key string, limit int, period time.Duration) (bool, time.Duration) {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := rl.now()
	w, ok := rl.windows[key]
	if !ok || !now.Before(w.resetAt) {
		if !ok && len(rl.windows) >= rl.max {
			rl.sweep(now)
		}
		rl.windows[key] = &window{count: 1, resetAt: now.Add(period)}
		return true, 0
	}
	w.count++
	if w.count > limit {
		return false, w.resetAt.Sub(now)
	}
	return true, 0
}

// Len returns the number of tracked keys.
func (rl *RateLimiter) Len() int {
	rl.mu.Lock()
	defer rl.mu.Unlock()
	return len(rl.windows)
}

// Cleanup removes expired windows.
func (rl *RateLimiter) Cleanup() {
	rl.mu.Lock()
	defer rl.mu.Unlock()
	rl.sweep(rl.now())
}

func (rl *RateLimiter) sweep(now time.Time) {
	for key, w := range rl.windows {
		if !now.Before(w.resetAt) {
			delete(rl.windows, key)
		}
	}
}

// Run calls Cleanup every interval until ctx is done.
func (rl *RateLimiter) Run(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			rl.Cleanup()
		}
	}
}

// AttemptKey keys credential attempts by client address and route, so login
// and register are counted separately. The mux pattern is used when the
// request was routed, else method and path.
func AttemptKey(trustProxy bool) func(*http.Request) string {
	return func(r *http.Request) string {
		route := r.Pattern
		if route == "" {
			route = r.Method + " " + r.URL.Path
		}
		return ClientIP(r, trustProxy) + " " + route
	}
}

// Rejecter writes the response for a request turned away by a middleware.
type Rejecter func(w http.ResponseWriter, r *http.Request, err error)

// RateLimit turns away requests whose key is over limit with a
// RATE_LIMITED error and a Retry-After header. A nil reject writes a plain
// text response.
func RateLimit(limiter *RateLimiter, keyFunc func(*http.Request) string, limit int, period time.Duration, reject Rejecter) func(http.Handler) http.Handler {
	if reject == nil {
		reject = func(w http.ResponseWriter, r *http.Request, err error) {
			http.Error(w, apperr.Message(err), apperr.Status(err))
		}
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ok, wait := limiter.Allow(keyFunc(r), limit, period)
			if !ok {
				secs := int(wait.Round(time.Second) / time.Second)
				if secs < 1 {
					secs = 1
				}
				w.Header().Set("Retry-After", strconv.Itoa(secs))
				reject(w, r, apperr.RateLimited("Too many attempts, try again in %d seconds", secs))
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
