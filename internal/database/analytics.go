package database

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/questhaven/gamevault/internal/models"
	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
)

// InsertEvent appends one analytics event. Events are immutable; there is
// no update or delete path for this collection.
func (m *MongoDB) InsertEvent(ctx context.Context, event *models.Event) error {
	ctx, cancel := m.opCtx(ctx)
	defer cancel()

	event.ID = uuid.New().String()
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now()
	}

	if _, err := m.db.Collection(collEvents).InsertOne(ctx, event); err != nil {
		return fmt.Errorf("failed to insert event: %w", err)
	}
	return nil
}

// CountEventsByType counts all events of one type across all time.
func (m *MongoDB) CountEventsByType(ctx context.Context, eventType models.EventType) (int64, error) {
	ctx, cancel := m.opCtx(ctx)
	defer cancel()

	n, err := m.db.Collection(collEvents).CountDocuments(ctx, bson.M{"event_type": eventType})
	if err != nil {
		return 0, fmt.Errorf("failed to count events: %w", err)
	}
	return n, nil
}

// RecentEvents returns the latest events, newest first.
func (m *MongoDB) RecentEvents(ctx context.Context, limit int) ([]*models.Event, error) {
	ctx, cancel := m.opCtx(ctx)
	defer cancel()

	cursor, err := m.db.Collection(collEvents).Find(ctx, bson.M{}, options.Find().
		SetSort(bson.D{{Key: "timestamp", Value: -1}}).
		SetLimit(int64(limit)))
	if err != nil {
		return nil, fmt.Errorf("failed to load recent events: %w", err)
	}

	var events []*models.Event
	if err := cursor.All(ctx, &events); err != nil {
		return nil, fmt.Errorf("failed to decode events: %w", err)
	}
	return events, nil
}

// EventsSince returns visit and click events with a timestamp at or after
// the given instant, for in-process day bucketing. 404 events are excluded
// from the trajectory by design.
func (m *MongoDB) EventsSince(ctx context.Context, since time.Time) ([]*models.Event, error) {
	ctx, cancel := m.opCtx(ctx)
	defer cancel()

	cursor, err := m.db.Collection(collEvents).Find(ctx, bson.M{
		"timestamp":  bson.M{"$gte": since},
		"event_type": bson.M{"$in": []models.EventType{models.EventVisit, models.EventClick}},
	}, options.Find().SetSort(bson.D{{Key: "timestamp", Value: 1}}))
	if err != nil {
		return nil, fmt.Errorf("failed to load events window: %w", err)
	}

	var events []*models.Event
	if err := cursor.All(ctx, &events); err != nil {
		return nil, fmt.Errorf("failed to decode events: %w", err)
	}
	return events, nil
}
