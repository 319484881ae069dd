package middleware

import (
	"fmt"
	"net/http"
	"time"

	"github.com/questhaven/gamevault/internal/database"
	"github.com/questhaven/gamevault/pkg/utils"
	"github.com/rs/zerolog/log"
)

// RateLimiter implements distributed per-IP rate limiting backed by
// Redis, applied to the login and scraper endpoints. The analytics track
// endpoint is deliberately not limited: write volume is the point of the
// data.
//
// Redis key pattern: "ratelimit:{ip}:{endpoint}" with TTL equal to the
// window. On Redis errors the request is allowed through so a cache
// outage never locks admins out.
type RateLimiter struct {
	redis          *database.RedisDB
	requestsPerMin int
	window         time.Duration
}

// NewRateLimiter creates a rate limiter.
//
// Example:
//
//	limiter := middleware.NewRateLimiter(redisDB, 60, time.Minute)
//	r.With(limiter.Limit("login")).Post("/api/auth/login", auth.Login)
func NewRateLimiter(redis *database.RedisDB, requestsPerMin int, window time.Duration) *RateLimiter {
	return &RateLimiter{
		redis:          redis,
		requestsPerMin: requestsPerMin,
		window:         window,
	}
}

// Limit creates middleware applying the limiter to one endpoint. Each
// endpoint identifier gets an independent counter per client IP.
//
// Responses carry X-RateLimit-Limit and X-RateLimit-Remaining; a rejected
// request gets 429 with Retry-After. Requests from private and loopback
// addresses skip the limiter, so in-cluster probes and local development
// are never throttled.
func (rl *RateLimiter) Limit(endpoint string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ip := utils.ExtractClientIP(r)

			if utils.IsPrivateIP(ip) {
				next.ServeHTTP(w, r)
				return
			}

			count, err := rl.redis.IncrementRateLimit(r.Context(), ip, endpoint, rl.window)
			if err != nil {
				log.Error().Err(err).Str("ip", ip).Msg("Failed to check rate limit")
				// Continue on error to avoid blocking legitimate requests
				next.ServeHTTP(w, r)
				return
			}

			if count > int64(rl.requestsPerMin) {
				log.Warn().
					Str("ip", ip).
					Str("endpoint", endpoint).
					Int64("count", count).
					Msg("Rate limit exceeded")

				w.Header().Set("X-RateLimit-Limit", fmt.Sprintf("%d", rl.requestsPerMin))
				w.Header().Set("X-RateLimit-Remaining", "0")
				w.Header().Set("Retry-After", fmt.Sprintf("%d", int(rl.window.Seconds())))

				http.Error(w, "Rate limit exceeded. Please try again later.", http.StatusTooManyRequests)
				return
			}

			remaining := rl.requestsPerMin - int(count)
			w.Header().Set("X-RateLimit-Limit", fmt.Sprintf("%d", rl.requestsPerMin))
			w.Header().Set("X-RateLimit-Remaining", fmt.Sprintf("%d", remaining))

			next.ServeHTTP(w, r)
		})
	}
}
