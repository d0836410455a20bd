package ratelimit

import (
	"context"
	"sync"
	"time"

	"github.com/news-aggregator-api/internal/clock"
)

// Limiter is a sliding-window attempt counter keyed by an arbitrary string
type Limiter struct {
	attempts map[string][]time.Time
	mu       sync.Mutex
	clock    clock.Clock
}

// NewLimiter creates an empty limiter
func NewLimiter(clk clock.Clock) *Limiter {
	if clk == nil {
		clk = clock.Real()
	}
	return &Limiter{
		attempts: make(map[string][]time.Time),
		clock:    clk,
	}
}

// Allow records an attempt for key and reports whether it is within
// maxAttempts over the trailing window. Rejected attempts are not recorded.
func (l *Limiter) Allow(key string, maxAttempts int, window time.Duration) bool {
	if maxAttempts <= 0 {
		return true
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.clock.Now()
	valid := prune(l.attempts[key], now.Add(-window))

	if len(valid) >= maxAttempts {
		l.attempts[key] = valid
		return false
	}

	l.attempts[key] = append(valid, now)
	return true
}

// Reset forgets every attempt for key
func (l *Limiter) Reset(key string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	delete(l.attempts, key)
}

// Cleanup drops attempts older than maxAge and returns the number of keys removed
func (l *Limiter) Cleanup(maxAge time.Duration) int {
	l.mu.Lock()
	defer l.mu.Unlock()

	cutoff := l.clock.Now().Add(-maxAge)
	removed := 0
	for key, attempts := range l.attempts {
		valid := prune(attempts, cutoff)
		if len(valid) == 0 {
			delete(l.attempts, key)
			removed++
			continue
		}
		l.attempts[key] = valid
	}
	return removed
}

// Run calls Cleanup on every interval until ctx is cancelled
func (l *Limiter) Run(ctx context.Context, interval, maxAge time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			l.Cleanup(maxAge)
		}
	}
}

func prune(attempts []time.Time, cutoff time.Time) []time.Time {
	var valid []time.Time
	for _, ts := range attempts {
		if ts.After(cutoff) {
			valid = append(valid, ts)
		}
	}
	return valid
}
