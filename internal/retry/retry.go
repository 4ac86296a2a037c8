// Package retry runs idempotent reads with exponential backoff.
package retry

import (
	"context"
	"time"
)

// Policy controls how many times an operation runs and how long to wait
// between attempts.
type Policy struct {
	Attempts  int
	BaseDelay time.Duration
	MaxDelay  time.Duration
}

// DefaultPolicy is three attempts waiting 1s then 2s.
func DefaultPolicy() Policy {
	return Policy{
		Attempts:  3,
		BaseDelay: time.Second,
		MaxDelay:  60 * time.Second,
	}
}

// Backoff returns the wait after the given failed attempt (1-based):
// 1st failure -> base, 2nd -> 2*base, 3rd -> 4*base ... capped.
func (p Policy) Backoff(attempt int) time.Duration {
	if attempt < 1 {
		attempt = 1
	}
	if attempt > 30 {
		attempt = 30
	}
	d := p.BaseDelay << (attempt - 1)
	if p.MaxDelay > 0 && (d > p.MaxDelay || d <= 0) {
		return p.MaxDelay
	}
	return d
}

// Do calls fn until it succeeds, returns an error retryable rejects, or the
// attempts run out. The last error is returned. Cancelling ctx stops the wait
// and returns ctx.Err().
func Do(ctx context.Context, p Policy, retryable func(error) bool, fn func(ctx context.Context) error) error {
	attempts := p.Attempts
	if attempts < 1 {
		attempts = 1
	}

	var err error
	for attempt := 1; attempt <= attempts; attempt++ {
		if err = fn(ctx); err == nil {
			return nil
		}
		if attempt == attempts || (retryable != nil && !retryable(err)) {
			return err
		}
		if werr := wait(ctx, p.Backoff(attempt)); werr != nil {
			return werr
		}
	}
	return err
}

// Value is Do for operations that return a result.
func Value[T any](ctx context.Context, p Policy, retryable func(error) bool, fn func(ctx context.Context) (T, error)) (T, error) {
	var out T
	err := Do(ctx, p, retryable, func(ctx context.Context) error {
		v, err := fn(ctx)
		if err != nil {
			return err
		}
		out = v
		return nil
	})
	return out, err
}

func wait(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
