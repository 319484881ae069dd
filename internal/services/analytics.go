package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/mileusna/useragent"
	"github.com/questhaven/gamevault/internal/models"
)

// ErrInvalidEvent marks a tracking payload missing a required field or
// carrying an unknown enum value. Handlers map it to 400.
var ErrInvalidEvent = errors.New("invalid analytics event")

// recentEventsLimit is how many events the dashboard's recent feed shows.
const recentEventsLimit = 30

// trajectoryDays is the length of the per-day visit/click window.
const trajectoryDays = 7

// EventStore is the persistence surface the analytics service needs.
// *database.MongoDB satisfies it.
type EventStore interface {
	InsertEvent(ctx context.Context, event *models.Event) error
	CountEventsByType(ctx context.Context, eventType models.EventType) (int64, error)
	RecentEvents(ctx context.Context, limit int) ([]*models.Event, error)
	EventsSince(ctx context.Context, since time.Time) ([]*models.Event, error)
	ListRedirects(ctx context.Context) ([]*models.Redirect, error)
}

// AnalyticsService records visitor events and aggregates them into the
// dashboard payload. Recording is append-only with no deduplication or
// rate limiting: the tracking endpoint is public and write volume is the
// point of the data.
type AnalyticsService struct {
	store EventStore
	now   func() time.Time
}

// NewAnalyticsService creates the analytics service.
func NewAnalyticsService(store EventStore) *AnalyticsService {
	return &AnalyticsService{
		store: store,
		now:   time.Now,
	}
}

// Record validates and persists one event. Required: a known event type,
// a non-empty path, and a known entity type. Entity id, ip, and user agent
// are optional.
func (s *AnalyticsService) Record(ctx context.Context, event *models.Event) error {
	if !event.EventType.Valid() {
		return fmt.Errorf("%w: unknown event type %q", ErrInvalidEvent, event.EventType)
	}
	if event.Path == "" {
		return fmt.Errorf("%w: path is required", ErrInvalidEvent)
	}
	if !event.EntityType.Valid() {
		return fmt.Errorf("%w: unknown entity type %q", ErrInvalidEvent, event.EntityType)
	}

	if err := s.store.InsertEvent(ctx, event); err != nil {
		return fmt.Errorf("failed to record event: %w", err)
	}
	return nil
}

// ComputeStats assembles the dashboard payload: lifetime totals per event
// type, the latest 30 events with a device summary, a sparse per-day
// visit/click trajectory for the trailing 7 calendar days (server-local
// day boundaries, ascending), and all redirect rules by click count.
//
// The trajectory is bucketed in process rather than in the store; at
// dashboard traffic volumes a 7-day scan is cheap and the logic stays
// testable against fakes.
func (s *AnalyticsService) ComputeStats(ctx context.Context) (*models.Stats, error) {
	stats := &models.Stats{}

	var err error
	if stats.TotalVisits, err = s.store.CountEventsByType(ctx, models.EventVisit); err != nil {
		return nil, fmt.Errorf("failed to count visits: %w", err)
	}
	if stats.TotalClicks, err = s.store.CountEventsByType(ctx, models.EventClick); err != nil {
		return nil, fmt.Errorf("failed to count clicks: %w", err)
	}
	if stats.Total404s, err = s.store.CountEventsByType(ctx, models.EventNotFound); err != nil {
		return nil, fmt.Errorf("failed to count 404s: %w", err)
	}

	recent, err := s.store.RecentEvents(ctx, recentEventsLimit)
	if err != nil {
		return nil, fmt.Errorf("failed to load recent events: %w", err)
	}
	stats.RecentEvents = make([]models.EventView, 0, len(recent))
	for _, event := range recent {
		stats.RecentEvents = append(stats.RecentEvents, models.EventView{
			Event:  *event,
			Device: deviceSummary(event.UserAgent),
		})
	}

	since := startOfDay(s.now()).AddDate(0, 0, -(trajectoryDays - 1))
	window, err := s.store.EventsSince(ctx, since)
	if err != nil {
		return nil, fmt.Errorf("failed to load trajectory window: %w", err)
	}
	stats.Trajectory = bucketByDay(window)

	rules, err := s.store.ListRedirects(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load redirects: %w", err)
	}
	stats.Redirects = make([]models.Redirect, 0, len(rules))
	for _, rule := range rules {
		stats.Redirects = append(stats.Redirects, *rule)
	}

	return stats, nil
}

// bucketByDay folds an ascending event stream into per-day visit/click
// counts. Days with no events produce no bucket, so the result is sparse.
func bucketByDay(events []*models.Event) []models.DayBucket {
	buckets := make([]models.DayBucket, 0, trajectoryDays)
	index := make(map[string]int, trajectoryDays)

	for _, event := range events {
		day := event.Timestamp.Local().Format("2006-01-02")
		i, ok := index[day]
		if !ok {
			i = len(buckets)
			index[day] = i
			buckets = append(buckets, models.DayBucket{Day: day})
		}
		switch event.EventType {
		case models.EventVisit:
			buckets[i].Visits++
		case models.EventClick:
			buckets[i].Clicks++
		}
	}

	return buckets
}

// startOfDay truncates an instant to midnight in server-local time.
func startOfDay(t time.Time) time.Time {
	t = t.Local()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}

// deviceSummary turns a raw user agent into a short human-readable label
// for the recent events feed. Empty input yields an empty summary.
func deviceSummary(raw string) string {
	if raw == "" {
		return ""
	}

	ua := useragent.Parse(raw)

	kind := "desktop"
	switch {
	case ua.Bot:
		kind = "bot"
	case ua.Mobile:
		kind = "mobile"
	case ua.Tablet:
		kind = "tablet"
	}

	if ua.Name == "" {
		return kind
	}
	if ua.OS == "" {
		return fmt.Sprintf("%s (%s)", ua.Name, kind)
	}
	return fmt.Sprintf("%s on %s (%s)", ua.Name, ua.OS, kind)
}
