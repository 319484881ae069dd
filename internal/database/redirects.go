package database

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/questhaven/gamevault/internal/models"
	"github.com/rs/zerolog/log"
	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
)

// CreateRedirect inserts a redirect rule. Returns ErrDuplicate when the
// source path is already taken.
func (m *MongoDB) CreateRedirect(ctx context.Context, rule *models.Redirect) (*models.Redirect, error) {
	ctx, cancel := m.opCtx(ctx)
	defer cancel()

	now := time.Now()
	rule.ID = uuid.New().String()
	rule.Clicks = 0
	rule.CreatedAt = now
	rule.UpdatedAt = now

	if _, err := m.db.Collection(collRedirects).InsertOne(ctx, rule); err != nil {
		return nil, fmt.Errorf("failed to create redirect: %w", wrapErr(err))
	}
	return rule, nil
}

// GetRedirect retrieves a rule by id. Returns ErrNotFound if absent.
func (m *MongoDB) GetRedirect(ctx context.Context, id string) (*models.Redirect, error) {
	ctx, cancel := m.opCtx(ctx)
	defer cancel()

	var rule models.Redirect
	err := m.db.Collection(collRedirects).FindOne(ctx, bson.M{"_id": id}).Decode(&rule)
	if err != nil {
		return nil, wrapErr(err)
	}
	return &rule, nil
}

// GetRedirectBySource looks up a rule by its exact source path regardless
// of active flag. Returns ErrNotFound if absent.
func (m *MongoDB) GetRedirectBySource(ctx context.Context, sourcePath string) (*models.Redirect, error) {
	ctx, cancel := m.opCtx(ctx)
	defer cancel()

	var rule models.Redirect
	err := m.db.Collection(collRedirects).FindOne(ctx, bson.M{"source_path": sourcePath}).Decode(&rule)
	if err != nil {
		return nil, wrapErr(err)
	}
	return &rule, nil
}

// GetActiveRedirect looks up an active rule by exact source path.
// Returns ErrNotFound when no active rule matches.
func (m *MongoDB) GetActiveRedirect(ctx context.Context, sourcePath string) (*models.Redirect, error) {
	ctx, cancel := m.opCtx(ctx)
	defer cancel()

	var rule models.Redirect
	err := m.db.Collection(collRedirects).FindOne(ctx, bson.M{
		"source_path": sourcePath,
		"is_active":   true,
	}).Decode(&rule)
	if err != nil {
		return nil, wrapErr(err)
	}
	return &rule, nil
}

// ListRedirects returns all rules sorted by click count descending, the
// order the dashboard displays them in.
func (m *MongoDB) ListRedirects(ctx context.Context) ([]*models.Redirect, error) {
	ctx, cancel := m.opCtx(ctx)
	defer cancel()

	cursor, err := m.db.Collection(collRedirects).Find(ctx, bson.M{},
		options.Find().SetSort(bson.D{{Key: "clicks", Value: -1}}))
	if err != nil {
		return nil, fmt.Errorf("failed to list redirects: %w", err)
	}

	var rules []*models.Redirect
	if err := cursor.All(ctx, &rules); err != nil {
		return nil, fmt.Errorf("failed to decode redirects: %w", err)
	}
	return rules, nil
}

// UpdateRedirect applies a partial update and returns the updated rule.
func (m *MongoDB) UpdateRedirect(ctx context.Context, id string, update bson.M) (*models.Redirect, error) {
	ctx, cancel := m.opCtx(ctx)
	defer cancel()

	update["updated_at"] = time.Now()

	var rule models.Redirect
	err := m.db.Collection(collRedirects).FindOneAndUpdate(ctx,
		bson.M{"_id": id},
		bson.M{"$set": update},
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	).Decode(&rule)
	if err != nil {
		return nil, wrapErr(err)
	}
	return &rule, nil
}

// DeleteRedirect removes a rule. Returns ErrNotFound if absent.
func (m *MongoDB) DeleteRedirect(ctx context.Context, id string) error {
	ctx, cancel := m.opCtx(ctx)
	defer cancel()

	res, err := m.db.Collection(collRedirects).DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return fmt.Errorf("failed to delete redirect: %w", err)
	}
	if res.DeletedCount == 0 {
		return ErrNotFound
	}
	return nil
}

// IncrementRedirectClicks bumps the click counter and last-accessed time
// for a rule. Best-effort: the caller dispatches this after the redirect
// response is already prepared, so a lost increment is acceptable and the
// error is only logged.
func (m *MongoDB) IncrementRedirectClicks(ctx context.Context, id string) {
	ctx, cancel := m.opCtx(ctx)
	defer cancel()

	_, err := m.db.Collection(collRedirects).UpdateOne(ctx,
		bson.M{"_id": id},
		bson.M{
			"$inc": bson.M{"clicks": 1},
			"$set": bson.M{"last_accessed": time.Now()},
		})
	if err != nil {
		log.Warn().Err(err).Str("redirect_id", id).Msg("Failed to increment redirect clicks")
	}
}
