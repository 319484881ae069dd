// Package middleware provides the HTTP middleware chain: request logging
// with X-Request-ID correlation, panic recovery, CORS, security headers,
// Prometheus metrics, Redis-backed rate limiting, and the access gate
// that fronts every route.
package middleware

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/google/uuid"
	"github.com/questhaven/gamevault/pkg/utils"
	"github.com/rs/zerolog/log"
)

// CORS creates CORS middleware with configured allowed origins so the
// storefront and admin frontends can call the API from their own domains.
//
// Configuration:
//   - Allowed methods: GET, POST, PUT, PATCH, DELETE, OPTIONS
//   - Allowed headers: Accept, Content-Type, X-Request-ID, User-Agent
//   - Credentials: enabled (the session cookie must flow)
//   - Max age: 300 seconds
//
// Use "*" to allow all origins (not recommended for production with
// credentials).
func CORS(allowedOrigins []string) func(http.Handler) http.Handler {
	return cors.Handler(cors.Options{
		AllowedOrigins:   allowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Content-Type", "X-Request-ID", "User-Agent"},
		ExposedHeaders:   []string{"Link", "X-RateLimit-Limit", "X-RateLimit-Remaining"},
		AllowCredentials: true,
		MaxAge:           300, // Maximum value not ignored by any of major browsers
	})
}

// Logger creates structured logging middleware with request ID
// correlation. Every request logs a start and completion line.
//
// Request ID flow:
//  1. Reuse an incoming X-Request-ID header (load balancer/proxy)
//  2. Generate a new UUID if not present
//  3. Propagate through the context for handlers and services
//  4. Echo in the response headers for client correlation
//
// Example logs:
//
//	{"level":"info","request_id":"abc-123","method":"GET","path":"/api/games","msg":"Request started"}
//	{"level":"info","request_id":"abc-123","status":200,"bytes":156,"duration_ms":45,"msg":"Request completed"}
func Logger() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()

			requestID := r.Header.Get("X-Request-ID")
			if requestID == "" {
				requestID = uuid.New().String()
			}

			ctx := utils.WithRequestID(r.Context(), requestID)
			r = r.WithContext(ctx)

			// Wrap the response writer to capture status and size
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			ww.Header().Set("X-Request-ID", requestID)

			log.Info().
				Str("request_id", requestID).
				Str("method", r.Method).
				Str("path", r.URL.Path).
				Str("remote_addr", r.RemoteAddr).
				Str("user_agent", r.UserAgent()).
				Msg("Request started")

			next.ServeHTTP(ww, r)

			duration := time.Since(start)
			log.Info().
				Str("request_id", requestID).
				Str("method", r.Method).
				Str("path", r.URL.Path).
				Int("status", ww.Status()).
				Int("bytes", ww.BytesWritten()).
				Dur("duration_ms", duration).
				Msg("Request completed")
		})
	}
}

// Recoverer recovers from panics in downstream handlers, logs the panic
// with request context, and returns a 500 to the client. Panic details
// are never exposed in the response body.
//
// Register early in the chain:
//
//	r.Use(middleware.Recoverer())
//	r.Use(middleware.Logger())
func Recoverer() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				if err := recover(); err != nil {
					log.Error().
						Interface("error", err).
						Str("method", r.Method).
						Str("path", r.URL.Path).
						Msg("Panic recovered")

					http.Error(w, "Internal Server Error", http.StatusInternalServerError)
				}
			}()

			next.ServeHTTP(w, r)
		})
	}
}

// SecurityHeaders adds security-related HTTP headers to all responses.
//
// Headers added:
//   - X-Content-Type-Options: nosniff
//   - X-Frame-Options: DENY
//   - X-XSS-Protection: 1; mode=block (legacy browsers)
//   - Strict-Transport-Security: 1 year including subdomains
//   - Content-Security-Policy: self resources; https images allowed
//     because game cover art is hot-linked from external stores
//   - Referrer-Policy: strict-origin-when-cross-origin
func SecurityHeaders() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("X-Content-Type-Options", "nosniff")
			w.Header().Set("X-Frame-Options", "DENY")
			w.Header().Set("X-XSS-Protection", "1; mode=block")
			w.Header().Set("Strict-Transport-Security", "max-age=31536000; includeSubDomains")
			w.Header().Set("Content-Security-Policy", "default-src 'self'; script-src 'self' 'unsafe-inline'; style-src 'self' 'unsafe-inline'; img-src 'self' https: data:")
			w.Header().Set("Referrer-Policy", "strict-origin-when-cross-origin")

			next.ServeHTTP(w, r)
		})
	}
}
