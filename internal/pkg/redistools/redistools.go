package redistools

import (
	"context"
	"fmt"

	"github.com/Leopold1975/awr_control/internal/pkg/retrytools"
	"github.com/redis/go-redis/v9"
)

// Connect пингует redis с растущей задержкой, пока тот не ответит.
func Connect(ctx context.Context, rdb *redis.Client) error {
	err := retrytools.PingWithRetry(ctx, func(ctx context.Context) error {
		return rdb.Ping(ctx).Err() //nolint:wrapcheck
	})
	if err != nil {
		return fmt.Errorf("redis connect error: %w", err)
	}

	return nil
}
