package retry

import (
	"context"
	"errors"
	"log/slog"
	"math"
	"time"

	"github.com/samber/oops"
)

// Operation represents a function that can be retried.
type Operation func(ctx context.Context) error

// Policy controls how WithRetry repeats an operation.
type Policy struct {
	MaxAttempts int
	BaseDelay   time.Duration
	// Retryable reports whether err is worth another attempt. Nil retries everything.
	Retryable func(err error) bool
	// WaitHint lets the caller override the backoff for a specific error (flood waits).
	WaitHint func(err error) (time.Duration, bool)
}

// Default is used by the user-session adapter for RPC calls.
var Default = Policy{MaxAttempts: 3, BaseDelay: time.Second}

// WithRetry executes the given operation with exponential backoff.
func WithRetry(ctx context.Context, name string, op Operation, p Policy) error {
	if p.MaxAttempts <= 0 {
		p.MaxAttempts = 1
	}

	var lastErr error
	var delay time.Duration
	for attempt := 1; attempt <= p.MaxAttempts; attempt++ {
		if attempt > 1 {
			slog.Warn("Retrying operation", "operation", name, "attempt", attempt, "max_attempts", p.MaxAttempts, "delay", delay)
			timer := time.NewTimer(delay)
			select {
			case <-timer.C:
			case <-ctx.Done():
				timer.Stop()
				return ctx.Err()
			}
		}

		err := op(ctx)
		if err == nil {
			return nil
		}
		lastErr = err

		// Don't retry if context is cancelled or deadline exceeded
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return err
		}
		if p.Retryable != nil && !p.Retryable(err) {
			return err
		}

		delay = time.Duration(math.Pow(2, float64(attempt-1))) * p.BaseDelay
		if p.WaitHint != nil {
			if d, ok := p.WaitHint(err); ok {
				delay = d
			}
		}
	}

	return oops.With("operation", name, "attempts", p.MaxAttempts).Wrapf(lastErr, "%s failed", name)
}
