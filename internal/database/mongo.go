// Package database provides data access layers for MongoDB and Redis.
// MongoDB holds all persistent documents (users, games, posts, redirect
// rules, analytics events, site configuration); Redis backs rate limiting
// and short-TTL lookup caches.
//
// The Mongo client is established lazily with retry and reused for the
// whole process lifetime. It is never explicitly torn down mid-run; the
// process supervisor owns its lifecycle.
package database

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/questhaven/gamevault/pkg/config"
	"github.com/questhaven/gamevault/pkg/utils"
	"github.com/rs/zerolog/log"
	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
	"go.mongodb.org/mongo-driver/v2/mongo/readpref"
)

// ErrNotFound is returned when a referenced document does not exist.
// Store methods translate driver-level sentinel errors into this so
// handlers can map it to 404 without importing the driver.
var ErrNotFound = errors.New("document not found")

// ErrDuplicate is returned when a unique-key constraint is violated
// (email, slug, source path, SEO route).
var ErrDuplicate = errors.New("duplicate key")

// Collection names. Kept in one place so index setup and the per-entity
// stores agree.
const (
	collUsers     = "users"
	collGames     = "games"
	collPosts     = "posts"
	collRedirects = "redirects"
	collEvents    = "events"
	collSettings  = "settings"
	collSEO       = "seo"
)

// MongoDB wraps the MongoDB client and database handle used by all
// per-entity stores. A single instance is shared process-wide.
//
// Features:
//   - Lazy one-time connection with exponential-backoff retry
//   - Per-operation timeouts from configuration
//   - Unique index setup for lookup keys
//   - Health check support
type MongoDB struct {
	client  *mongo.Client
	db      *mongo.Database
	timeout time.Duration
}

// NewMongoDB connects to MongoDB with automatic retry and prepares the
// unique indexes the stores rely on (users.email, games.slug, posts.slug,
// redirects.source_path, seo.route).
//
// Retry configuration mirrors the Redis connection path:
//   - Max attempts: 5
//   - Initial delay: 100ms
//   - Max delay: 3 seconds
//   - Total timeout: 30 seconds
//
// Example:
//
//	store, err := database.NewMongoDB(&cfg.Mongo)
//	if err != nil {
//	    log.Fatal().Err(err).Msg("MongoDB connection failed")
//	}
//	defer store.Close()
func NewMongoDB(cfg *config.MongoConfig) (*MongoDB, error) {
	client, err := mongo.Connect(options.Client().ApplyURI(cfg.URI))
	if err != nil {
		return nil, fmt.Errorf("failed to create mongo client: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	retryConfig := utils.DatabaseRetryConfig()
	retryConfig.MaxAttempts = 5
	retryConfig.InitialDelay = 100 * time.Millisecond
	retryConfig.MaxDelay = 3 * time.Second

	var lastErr error
	err = utils.Retry(ctx, retryConfig, func() error {
		pingCtx, pingCancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer pingCancel()

		if err := client.Ping(pingCtx, readpref.Primary()); err != nil {
			lastErr = err
			log.Warn().Err(err).Msg("Failed to ping MongoDB, retrying...")
			return err
		}
		return nil
	})

	if err != nil {
		_ = client.Disconnect(context.Background())
		if lastErr != nil {
			return nil, fmt.Errorf("failed to connect to MongoDB after retries: %w", lastErr)
		}
		return nil, fmt.Errorf("failed to connect to MongoDB: %w", err)
	}

	m := &MongoDB{
		client:  client,
		db:      client.Database(cfg.Database),
		timeout: cfg.Timeout,
	}

	if err := m.ensureIndexes(ctx); err != nil {
		log.Warn().Err(err).Msg("Failed to create indexes, lookups may be slow")
	}

	log.Info().Str("database", cfg.Database).Msg("Successfully connected to MongoDB")

	return m, nil
}

// ensureIndexes creates the unique indexes backing lookup keys. Index
// creation is idempotent; failures are logged but non-fatal so the service
// can still start against a restricted user.
func (m *MongoDB) ensureIndexes(ctx context.Context) error {
	unique := func(coll, field string) error {
		_, err := m.db.Collection(coll).Indexes().CreateOne(ctx, mongo.IndexModel{
			Keys:    bson.D{{Key: field, Value: 1}},
			Options: options.Index().SetUnique(true),
		})
		return err
	}

	for _, idx := range []struct{ coll, field string }{
		{collUsers, "email"},
		{collGames, "slug"},
		{collPosts, "slug"},
		{collRedirects, "source_path"},
		{collSEO, "route"},
	} {
		if err := unique(idx.coll, idx.field); err != nil {
			return fmt.Errorf("index %s.%s: %w", idx.coll, idx.field, err)
		}
	}

	// Events are queried by timestamp for the trajectory window.
	_, err := m.db.Collection(collEvents).Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{{Key: "timestamp", Value: -1}},
	})
	return err
}

// Close disconnects the MongoDB client. Should be called on shutdown,
// typically with defer in main().
func (m *MongoDB) Close() error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return m.client.Disconnect(ctx)
}

// Ping checks if MongoDB is alive. Used by the readiness probe.
func (m *MongoDB) Ping(ctx context.Context) error {
	return m.client.Ping(ctx, readpref.Primary())
}

// opCtx derives a bounded context for a single store operation.
func (m *MongoDB) opCtx(ctx context.Context) (context.Context, context.CancelFunc) {
	timeout := m.timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return context.WithTimeout(ctx, timeout)
}

// wrapErr maps driver sentinel errors onto the package-level ones.
func wrapErr(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, mongo.ErrNoDocuments):
		return ErrNotFound
	case mongo.IsDuplicateKeyError(err):
		return ErrDuplicate
	default:
		return err
	}
}
