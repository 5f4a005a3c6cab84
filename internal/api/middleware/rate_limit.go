package middleware

import (
	"net"
	"net/http"
	"strconv"
	"sync"
	"time"

	apperrors "pulse/internal/pkg/errors"
	"pulse/internal/platform/config"
)

// RateLimiter bounds requests per origin address to a fixed quota per fixed
// window. State is process-local; this is an abuse guard, not billing.
type RateLimiter struct {
	store  *sync.Map // map[string]*window
	limit  int
	period time.Duration
}

type window struct {
	count      int
	start      time.Time
	lastAccess time.Time
	mu         sync.Mutex
}

func NewRateLimiter(cfg config.RateLimitConfig) *RateLimiter {
	rl := &RateLimiter{
		store:  &sync.Map{},
		limit:  cfg.Requests,
		period: cfg.Window,
	}

	go rl.cleanupLoop()

	return rl
}

func (rl *RateLimiter) cleanupLoop() {
	ticker := time.NewTicker(10 * time.Minute)
	defer ticker.Stop()

	for range ticker.C {
		now := time.Now()
		rl.store.Range(func(key, value interface{}) bool {
			win := value.(*window)
			win.mu.Lock()
			if now.Sub(win.lastAccess) > 10*time.Minute {
				rl.store.Delete(key)
			}
			win.mu.Unlock()
			return true
		})
	}
}

// Allow increments the caller's window counter and reports whether the
// request fits the quota. Updates are serialized per key so concurrent
// requests from one origin never lose increments.
func (rl *RateLimiter) Allow(key string) bool {
	now := time.Now()

	val, _ := rl.store.LoadOrStore(key, &window{start: now})

	win := val.(*window)
	win.mu.Lock()
	defer win.mu.Unlock()

	win.lastAccess = now

	if now.Sub(win.start) >= rl.period {
		win.start = now
		win.count = 0
	}

	if win.count >= rl.limit {
		return false
	}
	win.count++
	return true
}

// Handle rejects over-quota callers before authentication or persistence run.
func (rl *RateLimiter) Handle(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if !rl.Allow(originIP(r)) {
			w.Header().Set("Retry-After", strconv.Itoa(int(rl.period.Seconds())))
			apperrors.WriteDomainError(w, apperrors.RateLimit("Too many requests"))
			return
		}

		next(w, r)
	}
}

func originIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
