package engine

import (
	"context"
	"strings"
	"testing"
	"time"
)

func TestRateLimiterDeniesOverLimit(t *testing.T) {
	l := NewRateLimiter(3, time.Minute)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		res, err := l.Check(ctx, "u1")
		if err != nil || !res.Allowed {
			t.Fatalf("check %d: res = %+v, err = %v", i, res, err)
		}
	}

	res, err := l.Check(ctx, "u1")
	if err != nil {
		t.Fatalf("Check: %v", err)
	}
	if res.Allowed {
		t.Error("fourth request allowed over a limit of 3")
	}
	if !strings.Contains(res.Warning, "rate limit exceeded: 3 requests per 1m0s") {
		t.Errorf("Warning = %q", res.Warning)
	}

	// RecordSuccess does not refund budget.
	l.RecordSuccess(ctx, "u1")
	if res, _ := l.Check(ctx, "u1"); res.Allowed {
		t.Error("request allowed after RecordSuccess")
	}
}

func TestRateLimiterWindowSlides(t *testing.T) {
	l := NewRateLimiter(1, 50*time.Millisecond)
	ctx := context.Background()

	if res, _ := l.Check(ctx, "u1"); !res.Allowed {
		t.Fatal("first request denied")
	}
	if res, _ := l.Check(ctx, "u1"); res.Allowed {
		t.Fatal("second request allowed inside the window")
	}

	time.Sleep(80 * time.Millisecond)
	if res, _ := l.Check(ctx, "u1"); !res.Allowed {
		t.Error("request denied after the window drained")
	}
}

func TestRateLimiterIsolatesUsers(t *testing.T) {
	l := NewRateLimiter(1, time.Minute)
	ctx := context.Background()

	if res, _ := l.Check(ctx, "u1"); !res.Allowed {
		t.Fatal("u1 first request denied")
	}
	if res, _ := l.Check(ctx, "u1"); res.Allowed {
		t.Fatal("u1 second request allowed")
	}
	if res, _ := l.Check(ctx, "u2"); !res.Allowed {
		t.Error("u2 denied by u1's usage")
	}
}

func TestRateLimiterZeroLimit(t *testing.T) {
	l := NewRateLimiter(0, time.Minute)
	res, err := l.Check(context.Background(), "u1")
	if err != nil {
		t.Fatalf("Check: %v", err)
	}
	if res.Allowed {
		t.Error("zero-limit limiter allowed a request")
	}
}
