package utils_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"discord-moderator/utils"

	"github.com/cenkalti/backoff/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var errTemporary = errors.New("temporary error")

func fastRetry() utils.RetryOptions {
	return utils.RetryOptions{
		MaxElapsedTime:  time.Second,
		InitialInterval: time.Millisecond,
		MaxInterval:     5 * time.Millisecond,
		MaxRetries:      3,
	}
}

func TestWithRetry(t *testing.T) {
	t.Parallel()

	t.Run("succeeds after retries", func(t *testing.T) {
		t.Parallel()

		calls := 0
		res, err := utils.WithRetry(context.Background(), func() (string, error) {
			calls++
			if calls < 3 {
				return "", errTemporary
			}
			return "ok", nil
		}, fastRetry())

		require.NoError(t, err)
		assert.Equal(t, "ok", res)
		assert.Equal(t, 3, calls)
	})

	t.Run("gives up after max retries", func(t *testing.T) {
		t.Parallel()

		calls := 0
		_, err := utils.WithRetry(context.Background(), func() (int, error) {
			calls++
			return 0, errTemporary
		}, fastRetry())

		require.ErrorIs(t, err, errTemporary)
		assert.Equal(t, 4, calls) // Initial + 3 retries
	})

	t.Run("permanent error stops immediately", func(t *testing.T) {
		t.Parallel()

		calls := 0
		_, err := utils.WithRetry(context.Background(), func() (int, error) {
			calls++
			return 0, backoff.Permanent(errTemporary)
		}, fastRetry())

		require.ErrorIs(t, err, errTemporary)
		assert.Equal(t, 1, calls)
	})
}
