// Package config provides application configuration management with environment
// variable loading, validation, and sensible defaults. It supports .env files
// for local development and validates all required settings on startup to
// prevent runtime configuration errors.
//
// Configuration is loaded from environment variables with the Load() function,
// which returns a validated Config struct or an error if required variables
// are missing or invalid.
//
// Example usage:
//
//	cfg, err := config.Load()
//	if err != nil {
//	    log.Fatal().Err(err).Msg("Failed to load configuration")
//	}
//
//	server := &http.Server{
//	    Addr: ":" + cfg.Server.Port,
//	}
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all configuration for the application.
// It aggregates all configuration sections into a single struct
// for easy access throughout the application.
type Config struct {
	Server    ServerConfig
	Mongo     MongoConfig
	Redis     RedisConfig
	JWT       JWTConfig
	CORS      CORSConfig
	RateLimit RateLimitConfig
	Cache     CacheConfig
	Scraper   ScraperConfig
}

// ServerConfig holds server-specific configuration including port,
// environment, and the admin login page requests are bounced to when
// back-office authentication fails.
type ServerConfig struct {
	Port        string
	Environment string
	AdminLogin  string // Path of the admin login page (gate redirect target)
}

// MongoConfig holds MongoDB connection configuration. The URI carries
// credentials and options; Database selects the logical database holding
// all collections.
type MongoConfig struct {
	URI      string
	Database string
	Timeout  time.Duration // Per-operation timeout applied by the store layer
}

// RedisConfig holds Redis configuration including connection parameters,
// authentication, database selection, and pool size.
type RedisConfig struct {
	Host     string
	Port     string
	Password string
	DB       int
	PoolSize int // Connection pool size
}

// JWTConfig holds session token configuration: the signing secret and the
// fixed token lifetime (7 days unless overridden).
type JWTConfig struct {
	Secret []byte
	Expiry time.Duration
}

// CORSConfig holds Cross-Origin Resource Sharing (CORS) configuration
// to control which origins can access the API.
type CORSConfig struct {
	AllowedOrigins []string
}

// RateLimitConfig holds rate limiting configuration for login and scraper
// endpoints. The analytics track endpoint is deliberately not limited.
type RateLimitConfig struct {
	RequestsPerMinute int
	WindowDuration    time.Duration
}

// CacheConfig holds TTLs for the Redis lookup caches.
type CacheConfig struct {
	SettingsTTL time.Duration
	RedirectTTL time.Duration
	Enabled     bool // Master switch to enable/disable caching
}

// ScraperConfig bounds the scraper's outbound fetch.
type ScraperConfig struct {
	Timeout      time.Duration // Hard cap on the target-site fetch
	MaxBodyBytes int64         // Response body read limit
	UserAgent    string        // Sent on outbound requests
}

// Load reads and validates configuration from environment variables.
// It attempts to load a .env file if present (for local development) but
// doesn't fail if the file is missing (for production deployments).
//
// Required environment variables:
//   - JWT_SECRET: Secret for token signing (>=32 bytes)
//   - MONGO_URI: MongoDB connection string
//
// Optional environment variables have sensible defaults.
//
// Returns an error if any required variable is missing or if validation fails.
func Load() (*Config, error) {
	// Load .env file if it exists (ignore error in production)
	_ = godotenv.Load()

	jwtSecret, err := getEnvRequired("JWT_SECRET")
	if err != nil {
		return nil, err
	}

	mongoURI, err := getEnvRequired("MONGO_URI")
	if err != nil {
		return nil, err
	}

	config := &Config{
		Server: ServerConfig{
			Port:        getEnv("PORT", "8080"),
			Environment: getEnv("ENV", "development"),
			AdminLogin:  getEnv("ADMIN_LOGIN_PATH", "/admin/login"),
		},
		Mongo: MongoConfig{
			URI:      mongoURI,
			Database: getEnv("MONGO_DB", "gamevault"),
			Timeout:  getEnvAsDuration("MONGO_TIMEOUT", 10*time.Second),
		},
		Redis: RedisConfig{
			Host:     getEnv("REDIS_HOST", "localhost"),
			Port:     getEnv("REDIS_PORT", "6379"),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       getEnvAsInt("REDIS_DB", 0),
			PoolSize: getEnvAsInt("REDIS_POOL_SIZE", 100),
		},
		JWT: JWTConfig{
			Secret: []byte(jwtSecret),
			Expiry: getEnvAsDuration("JWT_EXPIRY", 7*24*time.Hour),
		},
		CORS: CORSConfig{
			AllowedOrigins: getEnvAsSlice("ALLOWED_ORIGINS", []string{"http://localhost:3000"}),
		},
		RateLimit: RateLimitConfig{
			RequestsPerMinute: getEnvAsInt("RATE_LIMIT_REQUESTS", 60),
			WindowDuration:    getEnvAsDuration("RATE_LIMIT_WINDOW", 1*time.Minute),
		},
		Cache: CacheConfig{
			SettingsTTL: getEnvAsDuration("CACHE_SETTINGS_TTL", 5*time.Minute),
			RedirectTTL: getEnvAsDuration("CACHE_REDIRECT_TTL", 30*time.Second),
			Enabled:     getEnv("CACHE_ENABLED", "true") == "true",
		},
		Scraper: ScraperConfig{
			Timeout:      getEnvAsDuration("SCRAPER_TIMEOUT", 10*time.Second),
			MaxBodyBytes: int64(getEnvAsInt("SCRAPER_MAX_BODY", 2<<20)),
			UserAgent:    getEnv("SCRAPER_USER_AGENT", "GameVaultBot/1.0"),
		},
	}

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return config, nil
}

// Validate checks if all required configuration is present and valid.
// It is called automatically by Load() but can also be called independently
// for testing.
//
// Returns an error describing the first validation failure encountered,
// or nil if all configuration is valid.
func (c *Config) Validate() error {
	if c.Server.Port == "" {
		return fmt.Errorf("server port is required")
	}
	if _, err := strconv.Atoi(c.Server.Port); err != nil {
		return fmt.Errorf("server port must be a valid integer: %w", err)
	}

	if _, err := strconv.Atoi(c.Redis.Port); err != nil {
		return fmt.Errorf("redis port must be a valid integer: %w", err)
	}

	if c.Mongo.URI == "" {
		return fmt.Errorf("mongo URI is required")
	}
	if !strings.HasPrefix(c.Mongo.URI, "mongodb://") && !strings.HasPrefix(c.Mongo.URI, "mongodb+srv://") {
		return fmt.Errorf("mongo URI must start with mongodb:// or mongodb+srv://")
	}
	if c.Mongo.Database == "" {
		return fmt.Errorf("mongo database name is required")
	}

	if len(c.JWT.Secret) < 32 {
		return fmt.Errorf("JWT secret must be at least 32 bytes")
	}
	if c.JWT.Expiry <= 0 {
		return fmt.Errorf("JWT expiry must be positive")
	}

	if !strings.HasPrefix(c.Server.AdminLogin, "/") {
		return fmt.Errorf("admin login path must start with /")
	}

	if c.Scraper.Timeout <= 0 {
		return fmt.Errorf("scraper timeout must be positive")
	}

	return nil
}

// IsProduction reports whether the server runs in production mode,
// which switches auth cookies to Secure.
func (c *Config) IsProduction() bool {
	return c.Server.Environment == "production"
}

// Address returns the Redis server address in "host:port" format.
//
// Example:
//
//	client := redis.NewClient(&redis.Options{
//	    Addr: cfg.Redis.Address(),
//	})
func (c *RedisConfig) Address() string {
	return fmt.Sprintf("%s:%s", c.Host, c.Port)
}

// Helper functions for environment variable parsing

// getEnv retrieves an environment variable with a default fallback.
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvRequired retrieves a required environment variable.
// Returns an error if the variable is not set or is empty.
//
// Use this for configuration that has no sensible default and must be
// explicitly provided by the operator.
func getEnvRequired(key string) (string, error) {
	value := os.Getenv(key)
	if value == "" {
		return "", fmt.Errorf("required environment variable %s is not set", key)
	}
	return value, nil
}

// getEnvAsInt retrieves an environment variable as an integer with a default fallback.
// If the variable is not set or cannot be parsed as an integer, returns defaultValue.
func getEnvAsInt(key string, defaultValue int) int {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := strconv.Atoi(valueStr)
	if err != nil {
		return defaultValue
	}
	return value
}

// getEnvAsDuration retrieves an environment variable as a time.Duration with
// a default fallback. Supports Go duration format: "300ms", "1.5h", "2h45m".
func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := time.ParseDuration(valueStr)
	if err != nil {
		return defaultValue
	}
	return value
}

// getEnvAsSlice retrieves an environment variable as a comma-separated
// string slice with a default fallback.
//
// Example:
//
//	// ALLOWED_ORIGINS=http://localhost:3000,https://example.com
//	origins := getEnvAsSlice("ALLOWED_ORIGINS", []string{"http://localhost:3000"})
func getEnvAsSlice(key string, defaultValue []string) []string {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	var result []string
	for _, part := range strings.Split(valueStr, ",") {
		if part = strings.TrimSpace(part); part != "" {
			result = append(result, part)
		}
	}
	return result
}
