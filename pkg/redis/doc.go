// Package redis opens a go-redis client from REDIS_URL.
//
// The client backs the redis cache, the rate limiter counters and the
// session cache store:
//
//	client, err := redis.Open(ctx, cfg)
//	if err != nil {
//		return err
//	}
//	store := session.NewCacheStore(cache.NewRedis[[]byte](client, cache.WithPrefix("sessions")))
//
// Both redis:// and rediss:// (TLS) URLs are accepted.
package redis
