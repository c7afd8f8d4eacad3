package retrytools

import (
	"context"
	"fmt"
	"time"

	"github.com/sethvargo/go-retry"
)

const (
	firstDelay = time.Second
	maxDelay   = time.Second * 10
	maxRetries = 10
)

// PingWithRetry повторяет ping с растущей задержкой (не больше maxDelay),
// пока тот не ответит, не кончатся попытки или не отменится ctx.
func PingWithRetry(ctx context.Context, ping func(context.Context) error) error {
	b := retry.WithMaxRetries(maxRetries, retry.WithCappedDuration(maxDelay, retry.NewFibonacci(firstDelay)))

	err := retry.Do(ctx, b, func(ctx context.Context) error {
		if err := ping(ctx); err != nil {
			return retry.RetryableError(err)
		}

		return nil
	})
	if err != nil {
		if ctx.Err() != nil {
			return fmt.Errorf("context error: %w", err)
		}

		return fmt.Errorf("cannot ping error: %w", err)
	}

	return nil
}
