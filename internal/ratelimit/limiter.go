// package ratelimit implements a fixed-window request counter keyed by caller
// identity.
//
// Unlike token-bucket pacing (used when walking paginated service endpoints),
// the fixed window matches the per-user quota semantics the CLI enforces
// before expensive upstream calls: N requests per window, hard reset at the
// window boundary.
package ratelimit

import (
	"time"
)

// record tracks one identifier's usage within the current window.
type record struct {
	count       int
	windowStart time.Time
}

// Limiter counts requests per identifier within a fixed window.
//
// Limiter is not safe for concurrent use; the CLI drives it from a single
// goroutine per command invocation.
type Limiter struct {
	window time.Duration
	max    int
	store  map[string]*record
	now    func() time.Time // injectable clock
}

// NewLimiter creates a limiter allowing max requests per window.
func NewLimiter(max int, window time.Duration) *Limiter {
	return &Limiter{
		window: window,
		max:    max,
		store:  make(map[string]*record),
		now:    time.Now,
	}
}

// Allow reports whether the identifier may make another request, counting the
// request when permitted. A first request in an expired window resets the
// count rather than carrying over the old one.
func (l *Limiter) Allow(identifier string) bool {
	now := l.now()
	rec, ok := l.store[identifier]
	if !ok || now.Sub(rec.windowStart) >= l.window {
		l.store[identifier] = &record{count: 1, windowStart: now}
		return true
	}
	if rec.count >= l.max {
		return false
	}
	rec.count++
	return true
}

// Remaining returns how many requests the identifier has left in the current
// window without consuming one.
func (l *Limiter) Remaining(identifier string) int {
	now := l.now()
	rec, ok := l.store[identifier]
	if !ok || now.Sub(rec.windowStart) >= l.window {
		return l.max
	}
	remaining := l.max - rec.count
	if remaining < 0 {
		return 0
	}
	return remaining
}

// TimeUntilReset returns how long until the identifier's window expires.
// Zero when the identifier has no live window.
func (l *Limiter) TimeUntilReset(identifier string) time.Duration {
	now := l.now()
	rec, ok := l.store[identifier]
	if !ok {
		return 0
	}
	remaining := l.window - now.Sub(rec.windowStart)
	if remaining < 0 {
		return 0
	}
	return remaining
}

// Identifier derives the rate-limit key for a request: the user ID when
// known, falling back to the session ID, then a shared anonymous bucket.
func Identifier(userID, sessionID string) string {
	if userID != "" {
		return userID
	}
	if sessionID != "" {
		return sessionID
	}
	return "anonymous"
}
