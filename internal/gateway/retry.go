package gateway

import (
	"context"
	"time"

	"admitcrm/pkg/apierror"
)

// RetryOptions bounds the retry helper.
type RetryOptions struct {
	// Attempts is the total number of calls, including the first.
	Attempts int
	// BaseDelay is the wait before the second attempt; it doubles for each
	// attempt after that.
	BaseDelay time.Duration
	// OnRetry, when set, observes each re-invocation.
	OnRetry func(attempt int, err error)
}

// DefaultRetryOptions matches the dashboard defaults: 3 attempts, 1s base
// delay, exponential doubling.
func DefaultRetryOptions() RetryOptions {
	return RetryOptions{Attempts: 3, BaseDelay: time.Second}
}

// RetryOpts builds retry options wired to the client's metrics. Zero values
// fall back to the defaults, so callers can pass config fields straight
// through.
func (c *Client) RetryOpts(attempts int, baseDelay time.Duration) RetryOptions {
	opts := DefaultRetryOptions()
	if attempts > 0 {
		opts.Attempts = attempts
	}
	if baseDelay > 0 {
		opts.BaseDelay = baseDelay
	}
	if c.metrics != nil {
		opts.OnRetry = func(int, error) { c.metrics.IncrementRetryAttempts() }
	}
	return opts
}

// Retry invokes fn up to opts.Attempts times with exponential backoff.
// Client errors in the 400-499 range other than 429 are final and returned
// immediately; network failures, 5xx, and 429 are retried until the bound is
// exhausted, after which the last error is returned. Callers opt in per
// operation; the gateway never retries on its own.
func Retry[T any](ctx context.Context, fn func(context.Context) (T, error), opts RetryOptions) (T, error) {
	if opts.Attempts <= 0 {
		opts.Attempts = 3
	}
	if opts.BaseDelay <= 0 {
		opts.BaseDelay = time.Second
	}

	var zero T
	var lastErr error

	delay := opts.BaseDelay
	for attempt := 0; attempt < opts.Attempts; attempt++ {
		if attempt > 0 {
			if opts.OnRetry != nil {
				opts.OnRetry(attempt, lastErr)
			}
			select {
			case <-time.After(delay):
			case <-ctx.Done():
				return zero, ctx.Err()
			}
			delay *= 2
		}

		result, err := fn(ctx)
		if err == nil {
			return result, nil
		}
		if !apierror.Retryable(err) {
			return zero, err
		}
		lastErr = err
	}
	return zero, lastErr
}
