package auth

import (
	"sync"

	"golang.org/x/time/rate"
)

const maxLimiterEntries = 10_000

// LoginLimiter throttles login attempts per client key, usually the remote IP
type LoginLimiter struct {
	mu       sync.Mutex
	limit    rate.Limit
	burst    int
	limiters map[string]*rate.Limiter
}

// NewLoginLimiter allows perSecond attempts per key with the given burst. A
// non positive rate disables throttling.
func NewLoginLimiter(perSecond float64, burst int) *LoginLimiter {
	if burst <= 0 {
		burst = 1
	}
	return &LoginLimiter{
		limit:    rate.Limit(perSecond),
		burst:    burst,
		limiters: map[string]*rate.Limiter{},
	}
}

// Allow reports whether another attempt for key may proceed now
func (l *LoginLimiter) Allow(key string) bool {
	if l == nil || l.limit <= 0 {
		return true
	}

	l.mu.Lock()
	limiter, ok := l.limiters[key]
	if !ok {
		// entries are dropped wholesale once the table is full
		if len(l.limiters) >= maxLimiterEntries {
			l.limiters = map[string]*rate.Limiter{}
		}
		limiter = rate.NewLimiter(l.limit, l.burst)
		l.limiters[key] = limiter
	}
	l.mu.Unlock()

	return limiter.Allow()
}
