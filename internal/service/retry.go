package service

import (
	"context"
	"errors"
	"time"

	"github.com/fintrack/ledger-core/internal/domain/account"
)

// RetryPolicy retries a transactional function when it loses an optimistic
// concurrency race. Only ErrConcurrentModification is retried; every other
// error is returned to the caller unchanged.
type RetryPolicy struct {
	MaxAttempts int
	BaseDelay   time.Duration
}

// DefaultRetryPolicy bounds version conflicts at three attempts with
// exponential backoff starting at 25ms.
func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{MaxAttempts: 3, BaseDelay: 25 * time.Millisecond}
}

// Run invokes fn up to MaxAttempts times. The delay doubles after each
// conflicting attempt and an exhausted policy returns the last conflict so
// the caller can surface it as a retryable condition.
func (p RetryPolicy) Run(ctx context.Context, fn func(ctx context.Context) error) error {
	attempts := p.MaxAttempts
	if attempts < 1 {
		attempts = 1
	}

	delay := p.BaseDelay
	var err error
	for attempt := 1; attempt <= attempts; attempt++ {
		err = fn(ctx)
		if err == nil || !errors.Is(err, account.ErrConcurrentModification{}) {
			return err
		}
		if attempt == attempts {
			break
		}

		timer := time.NewTimer(delay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}
		delay *= 2
	}

	return err
}
