package engine

import (
	"context"
	"fmt"
	"sync"
	"time"
)

// CheckResult is the outcome of a guardrails check.
type CheckResult struct {
	// Allowed reports whether the request may proceed.
	Allowed bool

	// Warning explains a denial, or carries a non-blocking notice.
	Warning string
}

// Guardrails gates agent runs per user. Check runs before the ReAct
// loop starts; RecordSuccess is called after a run completes cleanly so
// implementations can track health.
type Guardrails interface {
	Check(ctx context.Context, userID string) (*CheckResult, error)
	RecordSuccess(ctx context.Context, userID string)
}

// RateLimiter is a sliding-window Guardrails implementation: at most
// limit runs per user within the window.
type RateLimiter struct {
	limit  int
	window time.Duration

	mu   sync.Mutex
	hits map[string][]time.Time
}

// NewRateLimiter creates a limiter allowing limit runs per window.
func NewRateLimiter(limit int, window time.Duration) *RateLimiter {
	return &RateLimiter{
		limit:  limit,
		window: window,
		hits:   make(map[string][]time.Time),
	}
}

// Check records the attempt and reports whether the user is within
// their budget.
func (l *RateLimiter) Check(ctx context.Context, userID string) (*CheckResult, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	cutoff := time.Now().Add(-l.window)
	recent := l.hits[userID][:0]
	for _, t := range l.hits[userID] {
		if t.After(cutoff) {
			recent = append(recent, t)
		}
	}

	if len(recent) >= l.limit {
		l.hits[userID] = recent
		return &CheckResult{
			Allowed: false,
			Warning: fmt.Sprintf("rate limit exceeded: %d requests per %s", l.limit, l.window),
		}, nil
	}

	l.hits[userID] = append(recent, time.Now())
	return &CheckResult{Allowed: true}, nil
}

// RecordSuccess is a no-op for the sliding window; the window drains on
// its own.
func (l *RateLimiter) RecordSuccess(ctx context.Context, userID string) {}
