package cache

import (
	"context"
	"fmt"

	"github.com/Amund211/fragstat/internal/logging"
)

// GetOrCreate returns the cached entry for key, creating it on a miss.
// Concurrent readers of a missing key wait for the first one to create it.
// Returns data, created, error
func GetOrCreate[T any](ctx context.Context, cache Cache[T], key string, create func() (T, error)) (T, bool, error) {
	logger := logging.FromContext(ctx)

	for {
		if err := ctx.Err(); err != nil {
			var empty T
			return empty, false, err
		}

		result := cache.getOrClaim(key)
		if result.valid {
			logger.DebugContext(ctx, "Getting cache entry", "cache", "hit", "key", key)
			return result.data, false, nil
		}

		if result.claim == 0 {
			logger.DebugContext(ctx, "Waiting for cache", "key", key)
			cache.wait()
			continue
		}

		logger.DebugContext(ctx, "Getting cache entry", "cache", "miss", "key", key)
		data, err := create()
		if err != nil {
			// Let the next reader try again
			cache.release(key, result.claim)
			var empty T
			return empty, false, fmt.Errorf("failed to create cache entry: %w", err)
		}

		if !cache.fill(key, result.claim, data) {
			logger.InfoContext(ctx, "Cache entry invalidated while being created, not storing it", "key", key)
		}
		return data, true, nil
	}
}
