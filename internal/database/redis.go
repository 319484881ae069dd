package database

import (
	"context"
	"fmt"
	"time"

	"github.com/questhaven/gamevault/pkg/config"
	"github.com/questhaven/gamevault/pkg/utils"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
)

// RedisDB wraps a Redis client used for per-IP rate limiting and the
// short-TTL lookup caches (settings, SEO, redirect resolutions).
//
// All keys use structured naming patterns for organization and monitoring.
type RedisDB struct {
	client *redis.Client
}

// NewRedisDB creates a new Redis connection with automatic retry.
// Implements exponential backoff retry logic mirroring the MongoDB
// connection path.
//
// Retry configuration:
//   - Max attempts: 5
//   - Initial delay: 100ms
//   - Max delay: 3 seconds
//   - Total timeout: 30 seconds
//
// Example:
//
//	redisDB, err := database.NewRedisDB(&cfg.Redis)
//	if err != nil {
//	    log.Fatal().Err(err).Msg("Redis connection failed")
//	}
//	defer redisDB.Close()
func NewRedisDB(cfg *config.RedisConfig) (*RedisDB, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Address(),
		Password: cfg.Password,
		DB:       cfg.DB,
		PoolSize: cfg.PoolSize,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	retryConfig := utils.DatabaseRetryConfig()
	retryConfig.MaxAttempts = 5
	retryConfig.InitialDelay = 100 * time.Millisecond
	retryConfig.MaxDelay = 3 * time.Second

	var lastErr error
	err := utils.Retry(ctx, retryConfig, func() error {
		pingCtx, pingCancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer pingCancel()

		if err := client.Ping(pingCtx).Err(); err != nil {
			lastErr = err
			log.Warn().Err(err).Msg("Failed to ping Redis, retrying...")
			return err
		}
		return nil
	})

	if err != nil {
		client.Close()
		if lastErr != nil {
			return nil, fmt.Errorf("failed to connect to Redis after retries: %w", lastErr)
		}
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	log.Info().Msg("Successfully connected to Redis")

	return &RedisDB{client: client}, nil
}

// Close closes the Redis connection and releases all resources.
func (r *RedisDB) Close() error {
	return r.client.Close()
}

// Client returns the underlying Redis client for the cache layer and other
// advanced operations.
func (r *RedisDB) Client() *redis.Client {
	return r.client
}

// Ping checks if Redis is alive and responsive. Used by the readiness
// probe.
func (r *RedisDB) Ping(ctx context.Context) error {
	return r.client.Ping(ctx).Err()
}

// IncrementRateLimit increments the request counter for an IP+endpoint
// pair and returns the running count within the current window.
//
// Key pattern: "ratelimit:{ip}:{endpoint}" with TTL equal to the window.
// The expiry is set only when the key is first created so the window does
// not slide on every request.
func (r *RedisDB) IncrementRateLimit(ctx context.Context, ip, endpoint string, window time.Duration) (int64, error) {
	key := fmt.Sprintf("ratelimit:%s:%s", ip, endpoint)

	count, err := r.client.Incr(ctx, key).Result()
	if err != nil {
		return 0, fmt.Errorf("failed to increment rate limit: %w", err)
	}

	if count == 1 {
		if err := r.client.Expire(ctx, key, window).Err(); err != nil {
			log.Warn().Err(err).Str("key", key).Msg("Failed to set rate limit expiry")
		}
	}

	return count, nil
}
