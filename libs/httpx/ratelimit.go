package httpx

import (
	"context"
	"log/slog"
	"math"
	"net"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"
)

// Decision is the outcome of one request against a fixed window.
type Decision struct {
	Allowed   bool
	Limit     int
	Remaining int
	// ResetIn is the time left in the current window.
	ResetIn time.Duration
}

// Limiter counts a request for key and decides whether it may proceed.
type Limiter interface {
	Allow(ctx context.Context, key string) (Decision, error)
}

type RateLimitOptions struct {
	// FailOpen lets requests through when the limiter errors; otherwise they get 503.
	FailOpen bool
	Logger   *slog.Logger
	// Key groups requests; defaults to the client address.
	Key func(*http.Request) string
}

// RateLimit rejects requests over the limit with 429 and reports the window in
// X-RateLimit-* and Retry-After headers.
func RateLimit(l Limiter, opts RateLimitOptions) Middleware {
	key := opts.Key
	if key == nil {
		key = clientKey
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			d, err := l.Allow(r.Context(), key(r))
			if err != nil {
				if opts.Logger != nil {
					opts.Logger.Warn("rate limiter error", "err", err, "fail_open", opts.FailOpen)
				}
				if opts.FailOpen {
					next.ServeHTTP(w, r)
					return
				}
				http.Error(w, "rate limiter unavailable", http.StatusServiceUnavailable)
				return
			}

			h := w.Header()
			h.Set("X-RateLimit-Limit", strconv.Itoa(d.Limit))
			h.Set("X-RateLimit-Remaining", strconv.Itoa(d.Remaining))
			if !d.Allowed {
				h.Set("Retry-After", strconv.Itoa(int(math.Ceil(d.ResetIn.Seconds()))))
				http.Error(w, "rate limit exceeded", http.StatusTooManyRequests)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// MemoryLimiter is a fixed-window limiter local to one process.
type MemoryLimiter struct {
	limit   int
	window  time.Duration
	now     func() time.Time
	mu      sync.Mutex
	windows map[string]*fixedWindow
}

type fixedWindow struct {
	count int
	ends  time.Time
}

func NewMemoryLimiter(limit int, window time.Duration) *MemoryLimiter {
	if limit <= 0 {
		limit = 60
	}
	if window <= 0 {
		window = time.Minute
	}
	return &MemoryLimiter{limit: limit, window: window, now: time.Now, windows: map[string]*fixedWindow{}}
}

func (l *MemoryLimiter) Allow(_ context.Context, key string) (Decision, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	fw := l.windows[key]
	if fw == nil || !now.Before(fw.ends) {
		l.sweep(now)
		fw = &fixedWindow{ends: now.Add(l.window)}
		l.windows[key] = fw
	}
	fw.count++
	return decide(fw.count, l.limit, fw.ends.Sub(now)), nil
}

// sweep drops finished windows so idle clients do not accumulate.
func (l *MemoryLimiter) sweep(now time.Time) {
	for key, fw := range l.windows {
		if !now.Before(fw.ends) {
			delete(l.windows, key)
		}
	}
}

func decide(count, limit int, resetIn time.Duration) Decision {
	remaining := limit - count
	if remaining < 0 {
		remaining = 0
	}
	return Decision{Allowed: count <= limit, Limit: limit, Remaining: remaining, ResetIn: resetIn}
}

// clientKey prefers the first X-Forwarded-For hop, as set by the ingress.
func clientKey(r *http.Request) string {
	if fwd := r.Header.Get("X-Forwarded-For"); fwd != "" {
		first, _, _ := strings.Cut(fwd, ",")
		if first = strings.TrimSpace(first); first != "" {
			return first
		}
	}
	if host, _, err := net.SplitHostPort(r.RemoteAddr); err == nil {
		return host
	}
	return r.RemoteAddr
}
