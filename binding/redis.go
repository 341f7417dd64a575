package binding

import (
	"context"

	"github.com/redis/go-redis/v9"
)

// RedisOption names the Redis connection URL.
// Default: "redis://localhost:6379/0".
const RedisOption = "REDIS_URL"

// Redis builds a binder that opens a Redis client per request. The
// client connects lazily, so the before hook only fails on a malformed
// URL; command errors surface at the call site as usual.
//
//	cache := binding.Redis()
//	cache.Init(application)
func Redis() *Binder[*redis.Client] {
	return New("redis", RedisOption, "redis://localhost:6379/0",
		func(_ context.Context, target string) (*redis.Client, error) {
			opts, err := redis.ParseURL(target)
			if err != nil {
				return nil, err
			}
			return redis.NewClient(opts), nil
		},
		func(c *redis.Client) error { return c.Close() },
	)
}
