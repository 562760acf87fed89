package ratelimit

import (
	"context"
	"fmt"
	"log/slog"
	"time"
)

// CounterStore is the shared counter backend. The redis client satisfies it;
// tests substitute an in-memory fake.
type CounterStore interface {
	Incr(ctx context.Context, key string) (int64, error)
	Expire(ctx context.Context, key string, ttl time.Duration) error
}

type Result struct {
	Allowed   bool
	Remaining int
}

// Policy is a fixed-window quota for one operation class.
type Policy struct {
	Limit  int
	Window time.Duration
}

// Per-operation quotas. Fixed windows, so a burst straddling a window
// boundary can briefly see up to 2x the limit; accepted tradeoff.
var (
	PolicyLogin     = Policy{Limit: 5, Window: 5 * time.Minute}
	PolicyRegister  = Policy{Limit: 5, Window: 5 * time.Minute}
	PolicyRefresh   = Policy{Limit: 10, Window: 5 * time.Minute}
	PolicyForgot    = Policy{Limit: 3, Window: 5 * time.Minute}
	PolicySummarize = Policy{Limit: 5, Window: 5 * time.Minute}
)

type Limiter struct {
	store CounterStore
}

func NewLimiter(store CounterStore) *Limiter {
	return &Limiter{store: store}
}

// Check increments the counter for key and reports whether the caller is
// still within the window's quota. The first increment in a window arms the
// window's expiry.
func (l *Limiter) Check(ctx context.Context, key string, limit int, window time.Duration) (Result, error) {
	count, err := l.store.Incr(ctx, key)
	if err != nil {
		return Result{}, fmt.Errorf("increment rate counter %s: %w", key, err)
	}

	if count == 1 {
		if err := l.store.Expire(ctx, key, window); err != nil {
			return Result{}, fmt.Errorf("arm rate window %s: %w", key, err)
		}
	}

	if count > int64(limit) {
		return Result{Allowed: false, Remaining: 0}, nil
	}

	return Result{Allowed: true, Remaining: limit - int(count)}, nil
}

// Allow applies a policy for one operation class and caller IP. A counter
// store outage fails open: an unavailable limiter must not take down login.
func (l *Limiter) Allow(ctx context.Context, class string, ip string, p Policy) bool {
	key := fmt.Sprintf("rl:%s:ip:%s", class, ip)

	res, err := l.Check(ctx, key, p.Limit, p.Window)
	if err != nil {
		slog.Warn("rate limiter unavailable, failing open", "class", class, "error", err)
		return true
	}

	return res.Allowed
}
