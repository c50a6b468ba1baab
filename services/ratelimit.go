package services

import (
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"strconv"
	"sync"
	"time"
)

// RateLimiter is a fixed-window in-memory limiter keyed by caller identity.
// State is per process instance only; there is deliberately no cross-instance
// coordination.
type RateLimiter struct {
	limit  int
	window time.Duration
	mu     sync.Mutex
	hits   map[string]*windowCounter
	stop   chan struct{}
}

type windowCounter struct {
	count      int
	windowEnds time.Time
}

func NewRateLimiter(limit int, window time.Duration) *RateLimiter {
	rl := &RateLimiter{
		limit:  limit,
		window: window,
		hits:   make(map[string]*windowCounter),
		stop:   make(chan struct{}),
	}
	go rl.sweep()
	return rl
}

func (rl *RateLimiter) Stop() {
	close(rl.stop)
}

// Allow records a hit for key and reports whether it is still within the
// limit, plus how long until the window resets.
func (rl *RateLimiter) Allow(key string) (bool, time.Duration) {
	now := time.Now()

	rl.mu.Lock()
	defer rl.mu.Unlock()

	wc, ok := rl.hits[key]
	if !ok || now.After(wc.windowEnds) {
		rl.hits[key] = &windowCounter{count: 1, windowEnds: now.Add(rl.window)}
		return true, 0
	}

	wc.count++
	if wc.count > rl.limit {
		return false, time.Until(wc.windowEnds)
	}
	return true, 0
}

// sweep drops expired windows so the map does not grow unbounded.
func (rl *RateLimiter) sweep() {
	ticker := time.NewTicker(time.Minute)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			now := time.Now()
			rl.mu.Lock()
			for key, wc := range rl.hits {
				if now.After(wc.windowEnds) {
					delete(rl.hits, key)
				}
			}
			rl.mu.Unlock()
		case <-rl.stop:
			return
		}
	}
}

// Middleware applies the limiter per authenticated user when available,
// falling back to the client IP. Exceeding the limit returns 429 with a
// Retry-After header.
func (rl *RateLimiter) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		key := clientKey(r)
		allowed, retryAfter := rl.Allow(key)
		if !allowed {
			seconds := int(retryAfter.Seconds()) + 1
			w.Header().Set("Retry-After", strconv.Itoa(seconds))
			slog.Warn("Rate limit exceeded", "key", key, "path", r.URL.Path, "retry_after_s", seconds)
			writeJSON(w, http.StatusTooManyRequests, errorResponse{
				Error: fmt.Sprintf("Rate limit exceeded, retry in %ds", seconds),
			})
			return
		}
		next.ServeHTTP(w, r)
	})
}

func clientKey(r *http.Request) string {
	if user, ok := UserFromContext(r.Context()); ok {
		return "user:" + user.ID
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		host = r.RemoteAddr
	}
	return "ip:" + host
}
