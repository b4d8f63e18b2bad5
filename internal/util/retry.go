// Package util provides small helpers shared across the catalog packages.
package util

import (
	"context"
	"strings"
	"time"

	"github.com/avast/retry-go/v4"
)

// DatabaseRetryOptions returns retry options tuned for transient SQLite lock
// errors (§2, write-path contention on a catalog's local db file). Makes at
// most three attempts with exponential backoff starting at 100ms and capped
// at 300ms, so the waits between attempts are 100ms and then 200ms.
func DatabaseRetryOptions(ctx context.Context) []retry.Option {
	return []retry.Option{
		retry.Attempts(3),
		retry.Delay(100 * time.Millisecond),
		retry.MaxDelay(300 * time.Millisecond),
		retry.DelayType(retry.BackOffDelay),
		retry.RetryIf(isDatabaseLocked),
		retry.Context(ctx),
	}
}

// RetryWithResult executes fn with retry logic and returns its result.
func RetryWithResult[T any](ctx context.Context, fn func() (T, error), opts ...retry.Option) (T, error) {
	return retry.DoWithData(fn, opts...)
}

// isDatabaseLocked reports whether err indicates a SQLite "database is
// locked" condition, the only case DatabaseRetryOptions retries.
func isDatabaseLocked(err error) bool {
	if err == nil {
		return false
	}
	return strings.Contains(err.Error(), "database is locked")
}
