// Package retry re-runs an atomic unit that lost a lock race.
package retry

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/cenkalti/backoff/v5"

	"water-scheduler-backend/internal/domain"
	"water-scheduler-backend/internal/logger"
)

type Policy struct {
	MaxAttempts    uint
	InitialBackoff time.Duration
	Multiplier     float64
	MaxBackoff     time.Duration
}

// DefaultPolicy is three attempts with exponential backoff starting at 50ms.
func DefaultPolicy() Policy {
	return Policy{
		MaxAttempts:    3,
		InitialBackoff: 50 * time.Millisecond,
		Multiplier:     2,
		MaxBackoff:     time.Second,
	}
}

func (p Policy) backOff() *backoff.ExponentialBackOff {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = p.InitialBackoff
	b.Multiplier = p.Multiplier
	b.MaxInterval = p.MaxBackoff
	b.RandomizationFactor = 0.2
	return b
}

// Do runs fn until it succeeds, fails with a non-contention error, or the attempts are
// spent. onRetry, when set, is called before each new attempt.
func Do[T any](ctx context.Context, p Policy, op string, onRetry func(err error), fn func(ctx context.Context) (T, error)) (T, error) {
	if p.MaxAttempts == 0 {
		p.MaxAttempts = 1
	}
	attempts := uint(0)
	res, err := backoff.Retry(ctx,
		func() (T, error) {
			attempts++
			res, err := fn(ctx)
			if err != nil && !domain.IsRetryable(err) {
				return res, backoff.Permanent(err)
			}
			return res, err
		},
		backoff.WithBackOff(p.backOff()),
		backoff.WithMaxTries(p.MaxAttempts),
		backoff.WithMaxElapsedTime(0),
		backoff.WithNotify(func(err error, wait time.Duration) {
			logger.Warn("Retrying after contention", "operation", op, "attempt", attempts, "wait", wait, "error", err)
			if onRetry != nil {
				onRetry(err)
			}
		}),
	)
	var permanent *backoff.PermanentError
	if errors.As(err, &permanent) {
		err = permanent.Unwrap()
	}
	if err != nil && domain.IsRetryable(err) {
		return res, fmt.Errorf("%s gave up after %d attempts: %w", op, attempts, err)
	}
	return res, err
}
