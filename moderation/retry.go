package moderation

import (
	"context"
	"errors"

	"discord-moderator/utils"

	"github.com/cenkalti/backoff/v4"
)

// readWithRetry runs a platform read, retrying only transient failures.
// Writes must not go through here: a failed grant is re-checked, never replayed.
func readWithRetry[T any](ctx context.Context, opts utils.RetryOptions, read func() (T, error)) (T, error) {
	return utils.WithRetry(ctx, func() (T, error) {
		res, err := read()
		if err == nil {
			return res, nil
		}
		err = classifyError(err)
		if !errors.Is(err, ErrTransient) {
			return res, backoff.Permanent(err)
		}
		return res, err
	}, opts)
}
