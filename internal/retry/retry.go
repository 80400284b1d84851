package retry

import (
	"context"
	"time"

	"cmp-dialogue/internal/logger"
)

// Policy configures Do. Delay before attempt n+1 is min(BaseDelay*2^(n-1), MaxDelay).
type Policy struct {
	MaxAttempts    int
	BaseDelay      time.Duration
	MaxDelay       time.Duration
	AttemptTimeout time.Duration

	// Name identifies the wrapped call in log events.
	Name   string
	Logger logger.Logger
}

func DefaultPolicy() Policy {
	return Policy{
		MaxAttempts:    3,
		BaseDelay:      2 * time.Second,
		MaxDelay:       10 * time.Second,
		AttemptTimeout: 60 * time.Second,
	}
}

// Named returns a copy of p that reports as name.
func (p Policy) Named(name string) Policy {
	p.Name = name
	return p
}

// Backoff returns the sleep that follows failed attempt n (1-based).
func (p Policy) Backoff(attempt int) time.Duration {
	delay := p.BaseDelay
	for i := 1; i < attempt; i++ {
		delay *= 2
		if p.MaxDelay > 0 && delay >= p.MaxDelay {
			return p.MaxDelay
		}
	}
	if p.MaxDelay > 0 && delay > p.MaxDelay {
		return p.MaxDelay
	}
	return delay
}

// Do runs op until it succeeds, returns an error isTransient rejects, or
// MaxAttempts is reached. The last error is returned as-is.
func Do[T any](ctx context.Context, p Policy, op func(ctx context.Context) (T, error), isTransient func(error) bool) (T, error) {
	maxAttempts := p.MaxAttempts
	if maxAttempts < 1 {
		maxAttempts = 1
	}

	var zero T
	var lastErr error
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		result, err := runAttempt(ctx, p.AttemptTimeout, op)
		if err == nil {
			return result, nil
		}
		lastErr = err

		if attempt == maxAttempts || !isTransient(err) || ctx.Err() != nil {
			return zero, lastErr
		}

		delay := p.Backoff(attempt)
		if p.Logger != nil {
			p.Logger.Warn("retry", "call failed, retrying", map[string]interface{}{
				"call":         p.Name,
				"attempt":      attempt,
				"max_attempts": maxAttempts,
				"delay":        delay.String(),
				"error":        err,
			})
		}

		timer := time.NewTimer(delay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return zero, lastErr
		case <-timer.C:
		}
	}
	return zero, lastErr
}

// Run is Do for operations without a result.
func Run(ctx context.Context, p Policy, op func(ctx context.Context) error, isTransient func(error) bool) error {
	_, err := Do(ctx, p, func(ctx context.Context) (struct{}, error) {
		return struct{}{}, op(ctx)
	}, isTransient)
	return err
}

func runAttempt[T any](ctx context.Context, timeout time.Duration, op func(ctx context.Context) (T, error)) (T, error) {
	if timeout <= 0 {
		return op(ctx)
	}
	attemptCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	return op(attemptCtx)
}
