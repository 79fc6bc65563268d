package http

import (
	"sync"
	"time"
)

const rateLimitWindow = time.Minute

// RateLimiter enforces a per-client sliding one-minute window. Each allowed
// request is timestamped; a request is rejected while the window already
// holds the full quota.
type RateLimiter struct {
	mu        sync.Mutex
	perMinute int
	requests  map[string][]time.Time
	now       func() time.Time
}

// NewRateLimiter constructs a limiter allowing perMinute requests per client.
func NewRateLimiter(perMinute int) *RateLimiter {
	return &RateLimiter{
		perMinute: perMinute,
		requests:  make(map[string][]time.Time),
		now:       time.Now,
	}
}

func (l *RateLimiter) prune(clientID string, now time.Time) []time.Time {
	cutoff := now.Add(-rateLimitWindow)
	kept := l.requests[clientID][:0]
	for _, ts := range l.requests[clientID] {
		if ts.After(cutoff) {
			kept = append(kept, ts)
		}
	}
	if len(kept) == 0 {
		delete(l.requests, clientID)
		return nil
	}
	l.requests[clientID] = kept
	return kept
}

// Allow reports whether the client may proceed, recording the request when it
// does. Rejected requests are not recorded, so waiting out the window always
// clears a client.
func (l *RateLimiter) Allow(clientID string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	recent := l.prune(clientID, now)
	if len(recent) >= l.perMinute {
		return false
	}
	l.requests[clientID] = append(recent, now)
	return true
}

// RetryAfter returns the whole seconds until the client's oldest recorded
// request leaves the window, clamped at zero.
func (l *RateLimiter) RetryAfter(clientID string) int {
	l.mu.Lock()
	defer l.mu.Unlock()

	recent := l.prune(clientID, l.now())
	if len(recent) == 0 {
		return 0
	}

	oldest := recent[0]
	for _, ts := range recent[1:] {
		if ts.Before(oldest) {
			oldest = ts
		}
	}

	remaining := int(rateLimitWindow.Seconds() - l.now().Sub(oldest).Seconds())
	if remaining < 0 {
		return 0
	}
	return remaining
}
