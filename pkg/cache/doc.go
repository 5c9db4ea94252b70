// Package cache provides a generic key-value cache with in-memory and Redis
// backends, plus fixed-window counters used for rate limiting.
//
//	c := cache.NewMemory[query.Row](cache.WithDefaultTTL(time.Minute))
//	post, err := cache.GetOrSet(ctx, c, "post:1", func(ctx context.Context) (query.Row, time.Duration, error) {
//		row, err := conn.Table("posts").FindOrFail(ctx, 1)
//		return row, 0, err
//	})
//
// Memory is process-local. Redis shares state across instances and should be
// used for sessions and rate limits when more than one instance runs.
package cache
