package configs

import (
	"time"

	"github.com/go-redis/redis/v8"
)

// NewRedisClient accepts either a redis:// URL or a bare host:port.
func NewRedisClient(e ENV) *redis.Client {
	opts, err := redis.ParseURL(e.RedisURL)
	if err != nil {
		opts = &redis.Options{
			Addr:         e.RedisURL,
			MinIdleConns: 1,
			MaxRetries:   3,
			DialTimeout:  5 * time.Second,
			ReadTimeout:  3 * time.Second,
			WriteTimeout: 3 * time.Second,
			PoolSize:     4,
		}
	}
	return redis.NewClient(opts)
}
