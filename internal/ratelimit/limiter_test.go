package ratelimit

import (
	"testing"
	"time"
)

func newTestLimiter(max int, window time.Duration) (*Limiter, *time.Time) {
	current := time.Date(2025, 12, 1, 12, 0, 0, 0, time.UTC)
	l := NewLimiter(max, window)
	l.now = func() time.Time { return current }
	return l, &current
}

func TestLimiter(t *testing.T) {
	t.Run("allows up to max requests in a window", func(t *testing.T) {
		l, _ := newTestLimiter(10, time.Minute)
		for i := 0; i < 10; i++ {
			if !l.Allow("user-1") {
				t.Fatalf("request %d should be allowed", i+1)
			}
		}
		if l.Allow("user-1") {
			t.Error("11th request should be denied")
		}
	})

	t.Run("window expiry resets the count", func(t *testing.T) {
		l, clock := newTestLimiter(2, time.Minute)
		l.Allow("user-1")
		l.Allow("user-1")
		if l.Allow("user-1") {
			t.Fatal("3rd request in window should be denied")
		}

		*clock = clock.Add(time.Minute)
		if !l.Allow("user-1") {
			t.Error("request after window expiry should be allowed")
		}
		if l.Remaining("user-1") != 1 {
			t.Errorf("Remaining() = %d, want 1 after reset", l.Remaining("user-1"))
		}
	})

	t.Run("identifiers are counted independently", func(t *testing.T) {
		l, _ := newTestLimiter(1, time.Minute)
		if !l.Allow("user-1") {
			t.Fatal("first request for user-1 should be allowed")
		}
		if !l.Allow("user-2") {
			t.Error("first request for user-2 should be allowed")
		}
		if l.Allow("user-1") {
			t.Error("second request for user-1 should be denied")
		}
	})

	t.Run("remaining does not consume a request", func(t *testing.T) {
		l, _ := newTestLimiter(5, time.Minute)
		if got := l.Remaining("user-1"); got != 5 {
			t.Errorf("Remaining() = %d, want 5 before any requests", got)
		}
		l.Allow("user-1")
		l.Allow("user-1")
		if got := l.Remaining("user-1"); got != 3 {
			t.Errorf("Remaining() = %d, want 3", got)
		}
		if got := l.Remaining("user-1"); got != 3 {
			t.Errorf("Remaining() = %d, want 3 on repeat call", got)
		}
	})

	t.Run("time until reset counts down", func(t *testing.T) {
		l, clock := newTestLimiter(5, time.Minute)
		if got := l.TimeUntilReset("user-1"); got != 0 {
			t.Errorf("TimeUntilReset() = %v, want 0 with no window", got)
		}
		l.Allow("user-1")
		*clock = clock.Add(20 * time.Second)
		if got := l.TimeUntilReset("user-1"); got != 40*time.Second {
			t.Errorf("TimeUntilReset() = %v, want 40s", got)
		}
	})
}

func TestIdentifier(t *testing.T) {
	t.Run("prefers user ID", func(t *testing.T) {
		if got := Identifier("user-1", "sess-1"); got != "user-1" {
			t.Errorf("Identifier() = %q, want user-1", got)
		}
	})

	t.Run("falls back to session ID", func(t *testing.T) {
		if got := Identifier("", "sess-1"); got != "sess-1" {
			t.Errorf("Identifier() = %q, want sess-1", got)
		}
	})

	t.Run("falls back to anonymous", func(t *testing.T) {
		if got := Identifier("", ""); got != "anonymous" {
			t.Errorf("Identifier() = %q, want anonymous", got)
		}
	})
}
