package ledger

import (
	"context"
	"math/rand"
	"time"
)

// RetryPolicy bounds the internal retry loop for CONCURRENT_CONFLICT.
// Schedule: 0, base, base*2, base*4, ... plus jitter.
type RetryPolicy struct {
	MaxAttempts  int
	BaseDelay    time.Duration
	JitterFactor float64
}

func (p RetryPolicy) withDefaults() RetryPolicy {
	if p.MaxAttempts <= 0 {
		p.MaxAttempts = 5
	}
	if p.BaseDelay <= 0 {
		p.BaseDelay = 10 * time.Millisecond
	}
	if p.JitterFactor <= 0 || p.JitterFactor > 1 {
		p.JitterFactor = 0.3
	}
	return p
}

// retryWithBackoff runs fn until it succeeds, fails terminally, or the attempt
// bound is hit. Only retryable errors (CONCURRENT_CONFLICT) re-enter the loop;
// the backoff wait respects ctx cancellation.
func retryWithBackoff(ctx context.Context, p RetryPolicy, fn func(ctx context.Context) error) error {
	p = p.withDefaults()

	var lastErr error
	for attempt := 0; attempt < p.MaxAttempts; attempt++ {
		if attempt > 0 {
			delay := p.BaseDelay * time.Duration(1<<(attempt-1))
			// thundering herd 防止のジッタ
			jitter := time.Duration(rand.Float64() * float64(delay) * p.JitterFactor)
			select {
			case <-time.After(delay + jitter):
			case <-ctx.Done():
				return ctx.Err()
			}
		}

		lastErr = fn(ctx)
		if lastErr == nil {
			return nil
		}
		if !isRetryable(lastErr) {
			return lastErr
		}
	}
	return lastErr
}
