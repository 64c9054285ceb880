package app

import (
	"sync"
	"time"

	"golang.org/x/time/rate"
)

const sweepThreshold = 1024

// emailLimiter paces continuation requests per email address.
type emailLimiter struct {
	limit rate.Limit
	burst int
	idle  time.Duration

	mu       sync.Mutex
	limiters map[string]*limiterEntry
}

type limiterEntry struct {
	lim      *rate.Limiter
	lastSeen time.Time
}

// newEmailLimiter allows perMinute requests per address per minute. A
// non-positive perMinute disables limiting.
func newEmailLimiter(perMinute float64) *emailLimiter {
	l := &emailLimiter{
		limit:    rate.Inf,
		burst:    1,
		idle:     10 * time.Minute,
		limiters: make(map[string]*limiterEntry),
	}
	if perMinute > 0 {
		l.limit = rate.Limit(perMinute / 60)
		l.burst = int(perMinute)
		if l.burst < 1 {
			l.burst = 1
		}
	}
	return l
}

func (l *emailLimiter) allow(email string, now time.Time) bool {
	if l.limit == rate.Inf {
		return true
	}
	l.mu.Lock()
	defer l.mu.Unlock()

	if len(l.limiters) >= sweepThreshold {
		l.sweepLocked(now)
	}
	e, ok := l.limiters[email]
	if !ok {
		e = &limiterEntry{lim: rate.NewLimiter(l.limit, l.burst)}
		l.limiters[email] = e
	}
	e.lastSeen = now
	return e.lim.AllowN(now, 1)
}

// sweepLocked drops limiters idle long enough to have refilled.
func (l *emailLimiter) sweepLocked(now time.Time) {
	for k, e := range l.limiters {
		if now.Sub(e.lastSeen) > l.idle {
			delete(l.limiters, k)
		}
	}
}
