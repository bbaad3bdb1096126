// Package redis connects the invalidation bus to Redis.
package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/4lexxe/DevsProject-sub004/internal/logger"
	"github.com/4lexxe/DevsProject-sub004/internal/utils"
)

// ConnectOptions defines the Redis client and its startup retry behavior.
type ConnectOptions struct {
	Addr         string        // Redis address (ex: "localhost:6379")
	User         string        // Optional username
	Password     string        // Optional password
	RedisDB      int           // Redis DB number
	DialTimeout  time.Duration // Redis dial timeout
	ReadTimeout  time.Duration // Redis read timeout
	WriteTimeout time.Duration // Redis write timeout
	PoolSize     int           // Redis connection pool size

	Retry         utils.Backoff // startup ping policy
	WarnThreshold int           // escalate to error after this many attempts
}

// New creates a Redis client and pings it until it answers or the retry
// budget runs out. Startup fails rather than running without the bus.
func New(ctx context.Context, opts ConnectOptions, log logger.Logger) (*redis.Client, error) {
	if err := opts.Retry.Validate(); err != nil {
		log.Error("invalid redis retry policy", logger.Error(err))
		return nil, fmt.Errorf("redis: %w", err)
	}
	if opts.WarnThreshold < 0 {
		return nil, fmt.Errorf("redis: WarnThreshold must be >= 0, got %d", opts.WarnThreshold)
	}

	client := redis.NewClient(&redis.Options{
		Addr:         opts.Addr,
		Username:     opts.User,
		Password:     opts.Password,
		DB:           opts.RedisDB,
		DialTimeout:  opts.DialTimeout,
		ReadTimeout:  opts.ReadTimeout,
		WriteTimeout: opts.WriteTimeout,
		PoolSize:     opts.PoolSize,
	})

	log = log.With(logger.String("addr", opts.Addr))
	log.Info("connecting to redis", logger.Duration("timeout", opts.Retry.Total))

	start := time.Now()
	attempts, err := utils.Retry(ctx, opts.Retry,
		func(ctx context.Context) error { return client.Ping(ctx).Err() },
		func(ev utils.RetryEvent) { logRetry(log, ev, opts.WarnThreshold) },
	)
	if err != nil {
		_ = client.Close()
		log.Error("redis unavailable - failed to connect after timeout",
			logger.Int("attempts", attempts),
			logger.Error(err))
		return nil, fmt.Errorf("redis unavailable at %s after %d attempts (timeout: %v): %w",
			opts.Addr, attempts, opts.Retry.Total, err)
	}

	if attempts > 1 {
		log.Warn("connected to redis after retry",
			logger.Int("attempts", attempts),
			logger.Duration("elapsed", time.Since(start)))
	} else {
		log.Info("connected to redis")
	}
	return client, nil
}

func logRetry(log logger.Logger, ev utils.RetryEvent, warnThreshold int) {
	fields := []logger.Field{
		logger.Int("attempt", ev.Attempt),
		logger.Duration("next_retry_in", ev.NextWait),
		logger.Error(ev.Err),
	}
	switch {
	case ev.Remaining < 10*time.Second:
		log.Error("redis still down - retrying but timeout approaching",
			append(fields, logger.Duration("remaining", ev.Remaining))...)
	case ev.Attempt <= warnThreshold:
		log.Warn("redis connection failed, retrying", fields...)
	default:
		log.Error("redis still unavailable - connection attempts failing", fields...)
	}
}
