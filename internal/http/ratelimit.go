package http

import (
	"net"
	"net/http"
	"sync"
	"time"
)

// rateLimiter caps requests per caller per minute. Callers are keyed by the
// owner header when present, falling back to the remote address for
// unauthenticated endpoints.
type rateLimiter struct {
	mu        sync.Mutex
	callers   map[string]*callerWindow
	perMinute int
	stop      chan struct{}
	stopOnce  sync.Once
}

type callerWindow struct {
	windowStart time.Time
	requests    int
}

func newRateLimiter(perMinute int) *rateLimiter {
	rl := &rateLimiter{
		callers:   make(map[string]*callerWindow),
		perMinute: perMinute,
		stop:      make(chan struct{}),
	}
	go rl.evictLoop()
	return rl
}

// allow counts one request against the caller's current minute window.
func (rl *rateLimiter) allow(caller string) bool {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := time.Now()
	w, ok := rl.callers[caller]
	if !ok || now.Sub(w.windowStart) > time.Minute {
		rl.callers[caller] = &callerWindow{windowStart: now, requests: 1}
		return true
	}

	w.requests++
	return w.requests <= rl.perMinute
}

func (rl *rateLimiter) evictLoop() {
	ticker := time.NewTicker(5 * time.Minute)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			rl.evictStale()
		case <-rl.stop:
			return
		}
	}
}

func (rl *rateLimiter) evictStale() {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	cutoff := time.Now().Add(-10 * time.Minute)
	for caller, w := range rl.callers {
		if w.windowStart.Before(cutoff) {
			delete(rl.callers, caller)
		}
	}
}

func (rl *rateLimiter) Stop() {
	rl.stopOnce.Do(func() { close(rl.stop) })
}

func callerKey(r *http.Request) string {
	if owner := ownerID(r); owner != "" {
		return owner
	}
	if host, _, err := net.SplitHostPort(r.RemoteAddr); err == nil {
		return host
	}
	return r.RemoteAddr
}

func (rl *rateLimiter) middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !rl.allow(callerKey(r)) {
			w.Header().Set("Retry-After", "60")
			writeJSON(w, http.StatusTooManyRequests, errorBody{Error: "rate limit exceeded"})
			return
		}
		next.ServeHTTP(w, r)
	})
}
