package utils

import (
	"context"
	"net"
	"strconv"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/cppla/greenwall/config"
)

// Redis backs the two pieces of short-lived auth state: verification
// codes and the logout blacklist. Both callers degrade to in-process
// maps when it is unreachable, so the client is created once and never
// treated as fatal.

const redisOpTimeout = 2 * time.Second

var (
	redisClient *redis.Client
	redisOnce   sync.Once
)

// GetRedis returns the shared client, dialing lazily on first use.
func GetRedis() *redis.Client {
	redisOnce.Do(func() {
		cfg := config.Get()
		redisClient = redis.NewClient(&redis.Options{
			Addr:         net.JoinHostPort(cfg.RedisHost, strconv.Itoa(cfg.RedisPort)),
			Password:     cfg.RedisPassword,
			DB:           cfg.RedisDB,
			DialTimeout:  3 * time.Second,
			ReadTimeout:  redisOpTimeout,
			WriteTimeout: redisOpTimeout,
		})
		// Probe once so a dead Redis shows up in the boot log; callers
		// still fall back per operation.
		ctx, cancel := redisOpContext()
		defer cancel()
		if err := redisClient.Ping(ctx).Err(); err != nil && Sugar != nil {
			Sugar.Warnf("redis unreachable, using in-process fallback stores: %v", err)
		}
	})
	return redisClient
}

// redisOpContext bounds a single Redis operation.
func redisOpContext() (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), redisOpTimeout)
}
