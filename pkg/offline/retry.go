package offline

import (
	"context"
	"time"

	"github.com/matzehuels/labelsheet/pkg/errors"
)

// Install retry defaults.
const (
	defaultAttempts   = 3
	defaultRetryDelay = 500 * time.Millisecond
)

// retry calls fn up to attempts times, doubling delay after each failure.
// Only network errors are retried; a missing asset or an invalid reference
// fails at once. It returns the last error, or ctx.Err() if ctx ends while
// waiting.
func retry(ctx context.Context, attempts int, delay time.Duration, fn func() error) error {
	attempts = max(attempts, 1)
	var lastErr error
	for i := range attempts {
		err := fn()
		if err == nil {
			return nil
		}
		lastErr = err
		if !errors.Is(err, errors.ErrCodeNetwork) {
			return err
		}
		if i < attempts-1 {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(delay):
				delay *= 2
			}
		}
	}
	return lastErr
}
