package cache

import (
	"context"
	"testing"
	"time"

	"github.com/erp/stockcount/internal/domain/shared"
	"github.com/erp/stockcount/internal/infrastructure/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInMemoryDecisionLock(t *testing.T) {
	ctx := context.Background()

	t.Run("second holder is refused", func(t *testing.T) {
		lock := NewInMemoryDecisionLock()
		token, err := lock.Acquire(ctx, "count-decision:t:c", time.Minute)
		require.NoError(t, err)
		assert.NotEmpty(t, token)

		_, err = lock.Acquire(ctx, "count-decision:t:c", time.Minute)
		assert.ErrorIs(t, err, shared.ErrDecisionInFlight)

		_, err = lock.Acquire(ctx, "count-decision:t:other", time.Minute)
		assert.NoError(t, err)
	})

	t.Run("release frees the key", func(t *testing.T) {
		lock := NewInMemoryDecisionLock()
		token, err := lock.Acquire(ctx, "k", time.Minute)
		require.NoError(t, err)
		require.NoError(t, lock.Release(ctx, "k", token))

		_, err = lock.Acquire(ctx, "k", time.Minute)
		assert.NoError(t, err)
	})

	t.Run("foreign token does not release", func(t *testing.T) {
		lock := NewInMemoryDecisionLock()
		_, err := lock.Acquire(ctx, "k", time.Minute)
		require.NoError(t, err)
		require.NoError(t, lock.Release(ctx, "k", "not-mine"))

		_, err = lock.Acquire(ctx, "k", time.Minute)
		assert.ErrorIs(t, err, shared.ErrDecisionInFlight)
	})

	t.Run("expired lock can be taken over", func(t *testing.T) {
		lock := NewInMemoryDecisionLock()
		now := time.Now()
		lock.clock = func() time.Time { return now }

		stale, err := lock.Acquire(ctx, "k", time.Second)
		require.NoError(t, err)

		now = now.Add(2 * time.Second)
		fresh, err := lock.Acquire(ctx, "k", time.Second)
		require.NoError(t, err)

		require.NoError(t, lock.Release(ctx, "k", stale))
		_, err = lock.Acquire(ctx, "k", time.Second)
		assert.ErrorIs(t, err, shared.ErrDecisionInFlight, "stale holder must not release the new lock")

		require.NoError(t, lock.Release(ctx, "k", fresh))
	})
}

func TestNewBackends(t *testing.T) {
	ctx := context.Background()

	t.Run("falls back to memory when redis is disabled", func(t *testing.T) {
		b, err := NewBackends(ctx, config.RedisConfig{})
		require.NoError(t, err)
		defer b.Close()

		assert.False(t, b.Distributed)
		assert.IsType(t, &InMemoryDecisionLock{}, b.Lock)
		assert.NoError(t, b.Ping(ctx))
	})

	t.Run("refuses the fallback when redis is required", func(t *testing.T) {
		_, err := NewBackends(ctx, config.RedisConfig{}, WithRedisRequired(true))
		require.Error(t, err)
		assert.Contains(t, err.Error(), "redis required")
	})
}
