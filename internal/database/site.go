package database

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/questhaven/gamevault/internal/models"
	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
)

// GetSettings fetches the single site settings document, returning the
// built-in defaults when none has been saved yet (fetch-or-default).
func (m *MongoDB) GetSettings(ctx context.Context) (*models.Settings, error) {
	ctx, cancel := m.opCtx(ctx)
	defer cancel()

	var settings models.Settings
	err := m.db.Collection(collSettings).FindOne(ctx, bson.M{"_id": models.SettingsID}).Decode(&settings)
	if err != nil {
		if errors.Is(wrapErr(err), ErrNotFound) {
			return models.DefaultSettings(), nil
		}
		return nil, fmt.Errorf("failed to load settings: %w", err)
	}
	return &settings, nil
}

// SaveSettings upserts the site settings document in place.
func (m *MongoDB) SaveSettings(ctx context.Context, settings *models.Settings) (*models.Settings, error) {
	ctx, cancel := m.opCtx(ctx)
	defer cancel()

	settings.ID = models.SettingsID
	settings.UpdatedAt = time.Now()

	_, err := m.db.Collection(collSettings).ReplaceOne(ctx,
		bson.M{"_id": models.SettingsID},
		settings,
		options.Replace().SetUpsert(true))
	if err != nil {
		return nil, fmt.Errorf("failed to save settings: %w", err)
	}
	return settings, nil
}

// GetSEOEntry fetches the SEO override for a route. Returns ErrNotFound
// when no override exists; the handler substitutes defaults.
func (m *MongoDB) GetSEOEntry(ctx context.Context, route string) (*models.SEOEntry, error) {
	ctx, cancel := m.opCtx(ctx)
	defer cancel()

	var entry models.SEOEntry
	err := m.db.Collection(collSEO).FindOne(ctx, bson.M{"route": route}).Decode(&entry)
	if err != nil {
		return nil, wrapErr(err)
	}
	return &entry, nil
}

// ListSEOEntries returns all SEO overrides sorted by route.
func (m *MongoDB) ListSEOEntries(ctx context.Context) ([]*models.SEOEntry, error) {
	ctx, cancel := m.opCtx(ctx)
	defer cancel()

	cursor, err := m.db.Collection(collSEO).Find(ctx, bson.M{},
		options.Find().SetSort(bson.D{{Key: "route", Value: 1}}))
	if err != nil {
		return nil, fmt.Errorf("failed to list seo entries: %w", err)
	}

	var entries []*models.SEOEntry
	if err := cursor.All(ctx, &entries); err != nil {
		return nil, fmt.Errorf("failed to decode seo entries: %w", err)
	}
	return entries, nil
}

// SaveSEOEntry upserts the SEO override for a route, keyed by the route
// itself so repeated saves edit in place.
func (m *MongoDB) SaveSEOEntry(ctx context.Context, entry *models.SEOEntry) (*models.SEOEntry, error) {
	ctx, cancel := m.opCtx(ctx)
	defer cancel()

	if entry.ID == "" {
		entry.ID = uuid.New().String()
	}
	entry.UpdatedAt = time.Now()

	_, err := m.db.Collection(collSEO).ReplaceOne(ctx,
		bson.M{"route": entry.Route},
		entry,
		options.Replace().SetUpsert(true))
	if err != nil {
		return nil, fmt.Errorf("failed to save seo entry: %w", wrapErr(err))
	}
	return entry, nil
}

// DeleteSEOEntry removes the override for a route. Returns ErrNotFound if
// absent.
func (m *MongoDB) DeleteSEOEntry(ctx context.Context, route string) error {
	ctx, cancel := m.opCtx(ctx)
	defer cancel()

	res, err := m.db.Collection(collSEO).DeleteOne(ctx, bson.M{"route": route})
	if err != nil {
		return fmt.Errorf("failed to delete seo entry: %w", err)
	}
	if res.DeletedCount == 0 {
		return ErrNotFound
	}
	return nil
}
