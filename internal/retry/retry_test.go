package retry

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"water-scheduler-backend/internal/domain"
)

func fastPolicy(attempts uint) Policy {
	return Policy{MaxAttempts: attempts, InitialBackoff: time.Millisecond, Multiplier: 2, MaxBackoff: 5 * time.Millisecond}
}

func TestDo(t *testing.T) {
	ctx := context.Background()

	t.Run("Succeeds after contention", func(t *testing.T) {
		calls, retries := 0, 0
		got, err := Do(ctx, fastPolicy(3), "create", func(error) { retries++ }, func(ctx context.Context) (int, error) {
			calls++
			if calls < 3 {
				return 0, fmt.Errorf("%w: lock timeout", domain.ErrTransientContention)
			}
			return 42, nil
		})
		require.NoError(t, err)
		assert.Equal(t, 42, got)
		assert.Equal(t, 3, calls)
		assert.Equal(t, 2, retries)
	})

	t.Run("Gives up after max attempts", func(t *testing.T) {
		calls := 0
		_, err := Do(ctx, fastPolicy(3), "create", nil, func(ctx context.Context) (int, error) {
			calls++
			return 0, domain.ErrTransientContention
		})
		assert.True(t, errors.Is(err, domain.ErrTransientContention))
		assert.Contains(t, err.Error(), "after 3 attempts")
		assert.Equal(t, 3, calls)
	})

	t.Run("Other errors are not retried", func(t *testing.T) {
		calls := 0
		_, err := Do(ctx, fastPolicy(3), "create", nil, func(ctx context.Context) (int, error) {
			calls++
			return 0, domain.ErrDuplicateBooking
		})
		assert.True(t, errors.Is(err, domain.ErrDuplicateBooking))
		assert.Equal(t, 1, calls)
	})

	t.Run("Cancelled context stops retries", func(t *testing.T) {
		cctx, cancel := context.WithCancel(ctx)
		calls := 0
		_, err := Do(cctx, Policy{MaxAttempts: 10, InitialBackoff: 50 * time.Millisecond, Multiplier: 2, MaxBackoff: time.Second}, "create", nil, func(ctx context.Context) (int, error) {
			calls++
			cancel()
			return 0, domain.ErrTransientContention
		})
		assert.Error(t, err)
		assert.Equal(t, 1, calls)
	})
}
