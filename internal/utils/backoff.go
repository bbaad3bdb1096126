package utils

import (
	"context"
	"fmt"
	"time"
)

// Backoff is an exponential retry policy bounded by a total timeout.
type Backoff struct {
	Initial time.Duration // first wait between attempts (ex: 2s)
	Max     time.Duration // cap on the wait (ex: 10s)
	Total   time.Duration // overall budget for all attempts (ex: 30s)
	Attempt time.Duration // timeout applied to each attempt (ex: 2s)
}

// Validate ensures every duration is positive.
func (b Backoff) Validate() error {
	switch {
	case b.Total <= 0:
		return fmt.Errorf("total timeout must be > 0, got %v", b.Total)
	case b.Initial <= 0:
		return fmt.Errorf("retry interval must be > 0, got %v", b.Initial)
	case b.Max <= 0:
		return fmt.Errorf("max wait must be > 0, got %v", b.Max)
	case b.Attempt <= 0:
		return fmt.Errorf("attempt timeout must be > 0, got %v", b.Attempt)
	}
	return nil
}

// RetryEvent describes one failed attempt that will be retried.
type RetryEvent struct {
	Attempt   int
	Remaining time.Duration
	NextWait  time.Duration
	Err       error
}

// Retry calls fn until it succeeds or the total budget is spent.
// onRetry, when non-nil, is called after each failed attempt that will be retried.
// It returns the number of attempts made and the last error.
func Retry(ctx context.Context, b Backoff, fn func(ctx context.Context) error, onRetry func(RetryEvent)) (int, error) {
	ctx, cancel := context.WithTimeout(ctx, b.Total)
	defer cancel()

	attempt := 0
	wait := b.Initial

	for {
		attempt++

		attemptCtx, attemptCancel := context.WithTimeout(ctx, b.Attempt)
		err := fn(attemptCtx)
		attemptCancel()

		if err == nil {
			return attempt, nil
		}

		timer := time.NewTimer(wait)
		select {
		case <-ctx.Done():
			timer.Stop()
			return attempt, err

		case <-timer.C:
			if onRetry != nil {
				onRetry(RetryEvent{
					Attempt:   attempt,
					Remaining: timeLeft(ctx),
					NextWait:  wait,
					Err:       err,
				})
			}
			wait *= 2
			if wait > b.Max {
				wait = b.Max
			}
		}
	}
}

// timeLeft returns the remaining time before the context deadline.
func timeLeft(ctx context.Context) time.Duration {
	deadline, ok := ctx.Deadline()
	if !ok {
		return 0
	}
	return time.Until(deadline)
}
