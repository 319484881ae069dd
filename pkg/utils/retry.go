// Package utils provides exponential-backoff retry, used while
// establishing the MongoDB and Redis connections at startup. Dial
// attempts during a deploy routinely race the stores coming up; a few
// short retries absorb that window.
package utils

import (
	"context"
	"fmt"
	"math"
	"math/rand"
	"time"

	"github.com/rs/zerolog/log"
)

// RetryFunc is the operation under retry. Return nil on success.
type RetryFunc func() error

// RetryConfig controls the backoff schedule.
type RetryConfig struct {
	MaxAttempts  int           // total attempts, including the first
	InitialDelay time.Duration // delay before the second attempt
	MaxDelay     time.Duration // cap on any single delay
	Multiplier   float64       // growth factor between attempts
	Jitter       bool          // ±25% random variance on each delay
}

// DatabaseRetryConfig is the schedule used for store connections:
// 5 attempts starting at 50ms, doubling, capped at 2s, with jitter.
func DatabaseRetryConfig() RetryConfig {
	return RetryConfig{
		MaxAttempts:  5,
		InitialDelay: 50 * time.Millisecond,
		MaxDelay:     2 * time.Second,
		Multiplier:   2.0,
		Jitter:       true,
	}
}

// Retry runs fn until it succeeds, attempts run out, or ctx is done.
// Delays grow as InitialDelay * Multiplier^(attempt-1), capped at
// MaxDelay. The last error is wrapped into the returned error.
func Retry(ctx context.Context, config RetryConfig, fn RetryFunc) error {
	var lastErr error

	for attempt := 1; attempt <= config.MaxAttempts; attempt++ {
		err := fn()
		if err == nil {
			if attempt > 1 {
				log.Info().
					Int("attempt", attempt).
					Int("max_attempts", config.MaxAttempts).
					Msg("Operation succeeded after retry")
			}
			return nil
		}

		lastErr = err

		if attempt >= config.MaxAttempts {
			log.Warn().
				Err(err).
				Int("attempts", attempt).
				Msg("Max retry attempts reached")
			break
		}

		delay := backoffDelay(attempt, config)

		log.Debug().
			Err(err).
			Int("attempt", attempt).
			Int("max_attempts", config.MaxAttempts).
			Dur("delay", delay).
			Msg("Operation failed, retrying after delay")

		select {
		case <-ctx.Done():
			return fmt.Errorf("retry cancelled: %w", ctx.Err())
		case <-time.After(delay):
		}
	}

	return fmt.Errorf("max retries exceeded (%d attempts): %w", config.MaxAttempts, lastErr)
}

// backoffDelay computes the delay before the next attempt.
func backoffDelay(attempt int, config RetryConfig) time.Duration {
	delay := float64(config.InitialDelay) * math.Pow(config.Multiplier, float64(attempt-1))

	if delay > float64(config.MaxDelay) {
		delay = float64(config.MaxDelay)
	}

	if config.Jitter {
		jitterRange := delay * 0.25
		delay += (rand.Float64() * 2 * jitterRange) - jitterRange
	}

	return time.Duration(delay)
}
