package providers

import (
	"context"
	"errors"
	"time"

	"github.com/cenkalti/backoff/v4"
)

// WithRetry runs fn, retrying on Transient-classified failures using
// exponential backoff with jitter, capped at 30s between attempts and at 3
// retries total (4 attempts in all). Quota, Permanent, Validation, and
// Cancelled failures are returned immediately — retrying them would either
// never succeed or has already been handled by the caller's degrade path.
func WithRetry(ctx context.Context, op string, fn func(ctx context.Context) error) error {
	bo := backoff.NewExponentialBackOff()
	bo.InitialInterval = time.Second
	bo.Multiplier = 2
	bo.MaxInterval = 30 * time.Second
	bo.MaxElapsedTime = 0 // bounded by WithMaxRetries instead of wall-clock

	wrapped := backoff.WithMaxRetries(bo, 3)
	wrapped2 := backoff.WithContext(wrapped, ctx)

	return backoff.Retry(func() error {
		err := fn(ctx)
		if err == nil {
			return nil
		}
		if KindOf(err) != KindTransient {
			return backoff.Permanent(err)
		}
		return err
	}, wrapped2)
}

// Unwrap1 returns the first cause that isn't a *backoff.PermanentError
// wrapper, so callers see the original classified Error.
func Unwrap1(err error) error {
	var perm *backoff.PermanentError
	if errors.As(err, &perm) {
		return perm.Err
	}
	return err
}
