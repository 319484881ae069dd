package services

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/questhaven/gamevault/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeEventStore is an in-memory EventStore preserving insertion order.
type fakeEventStore struct {
	events    []*models.Event
	redirects []*models.Redirect
}

func (f *fakeEventStore) InsertEvent(_ context.Context, event *models.Event) error {
	event.ID = uuid.New().String()
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now()
	}
	f.events = append(f.events, event)
	return nil
}

func (f *fakeEventStore) CountEventsByType(_ context.Context, eventType models.EventType) (int64, error) {
	var n int64
	for _, e := range f.events {
		if e.EventType == eventType {
			n++
		}
	}
	return n, nil
}

func (f *fakeEventStore) RecentEvents(_ context.Context, limit int) ([]*models.Event, error) {
	out := make([]*models.Event, 0, limit)
	for i := len(f.events) - 1; i >= 0 && len(out) < limit; i-- {
		out = append(out, f.events[i])
	}
	return out, nil
}

func (f *fakeEventStore) EventsSince(_ context.Context, since time.Time) ([]*models.Event, error) {
	var out []*models.Event
	for _, e := range f.events {
		if !e.Timestamp.Before(since) && e.EventType != models.EventNotFound {
			out = append(out, e)
		}
	}
	return out, nil
}

func (f *fakeEventStore) ListRedirects(_ context.Context) ([]*models.Redirect, error) {
	return f.redirects, nil
}

func visitAt(ts time.Time) *models.Event {
	return &models.Event{
		EventType:  models.EventVisit,
		Path:       "/games",
		EntityType: models.EntityPage,
		Timestamp:  ts,
	}
}

func clickAt(ts time.Time) *models.Event {
	return &models.Event{
		EventType:  models.EventClick,
		Path:       "/games/starfall-tactics",
		EntityType: models.EntityGame,
		Timestamp:  ts,
	}
}

func TestAnalyticsRecord(t *testing.T) {
	ctx := context.Background()
	store := &fakeEventStore{}
	svc := NewAnalyticsService(store)

	t.Run("accepts a minimal valid event", func(t *testing.T) {
		err := svc.Record(ctx, &models.Event{
			EventType:  models.EventVisit,
			Path:       "/",
			EntityType: models.EntityPage,
		})
		require.NoError(t, err)
		assert.Len(t, store.events, 1)
		assert.NotEmpty(t, store.events[0].ID)
	})

	t.Run("rejects unknown event type", func(t *testing.T) {
		err := svc.Record(ctx, &models.Event{
			EventType:  "hover",
			Path:       "/",
			EntityType: models.EntityPage,
		})
		assert.ErrorIs(t, err, ErrInvalidEvent)
	})

	t.Run("rejects missing path", func(t *testing.T) {
		err := svc.Record(ctx, &models.Event{
			EventType:  models.EventVisit,
			EntityType: models.EntityPage,
		})
		assert.ErrorIs(t, err, ErrInvalidEvent)
	})

	t.Run("rejects unknown entity type", func(t *testing.T) {
		err := svc.Record(ctx, &models.Event{
			EventType:  models.EventVisit,
			Path:       "/",
			EntityType: "widget",
		})
		assert.ErrorIs(t, err, ErrInvalidEvent)
	})

	t.Run("no deduplication of identical events", func(t *testing.T) {
		before := len(store.events)
		for i := 0; i < 3; i++ {
			err := svc.Record(ctx, &models.Event{
				EventType:  models.EventVisit,
				Path:       "/dup",
				EntityType: models.EntityPage,
			})
			require.NoError(t, err)
		}
		assert.Len(t, store.events, before+3)
	})
}

func TestComputeStats(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2024, 3, 20, 15, 0, 0, 0, time.Local)

	newSvc := func(store *fakeEventStore) *AnalyticsService {
		svc := NewAnalyticsService(store)
		svc.now = func() time.Time { return now }
		return svc
	}

	t.Run("totals count all time", func(t *testing.T) {
		store := &fakeEventStore{}
		store.events = []*models.Event{
			visitAt(now.AddDate(0, 0, -30)), // outside the 7-day window
			visitAt(now),
			clickAt(now),
			{EventType: models.EventNotFound, Path: "/missing", EntityType: models.EntityPage, Timestamp: now},
		}

		stats, err := newSvc(store).ComputeStats(ctx)
		require.NoError(t, err)
		assert.Equal(t, int64(2), stats.TotalVisits)
		assert.Equal(t, int64(1), stats.TotalClicks)
		assert.Equal(t, int64(1), stats.Total404s)
	})

	t.Run("recent events carry a device summary", func(t *testing.T) {
		store := &fakeEventStore{}
		event := visitAt(now)
		event.UserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"
		store.events = []*models.Event{event}

		stats, err := newSvc(store).ComputeStats(ctx)
		require.NoError(t, err)
		require.Len(t, stats.RecentEvents, 1)
		assert.Contains(t, stats.RecentEvents[0].Device, "Chrome")
		assert.Contains(t, stats.RecentEvents[0].Device, "desktop")
	})

	t.Run("recent events are newest first and capped at 30", func(t *testing.T) {
		store := &fakeEventStore{}
		for i := 0; i < 40; i++ {
			store.events = append(store.events, visitAt(now.Add(time.Duration(i)*time.Minute)))
		}

		stats, err := newSvc(store).ComputeStats(ctx)
		require.NoError(t, err)
		require.Len(t, stats.RecentEvents, 30)
		assert.True(t, stats.RecentEvents[0].Timestamp.After(stats.RecentEvents[29].Timestamp))
	})

	t.Run("trajectory is sparse and ascending", func(t *testing.T) {
		store := &fakeEventStore{}
		store.events = []*models.Event{
			visitAt(now.AddDate(0, 0, -6)),
			visitAt(now.AddDate(0, 0, -6)),
			clickAt(now.AddDate(0, 0, -6)),
			// -5 .. -1: silence, no buckets expected
			visitAt(now),
			clickAt(now),
			clickAt(now),
		}

		stats, err := newSvc(store).ComputeStats(ctx)
		require.NoError(t, err)
		require.Len(t, stats.Trajectory, 2)

		first := stats.Trajectory[0]
		assert.Equal(t, now.AddDate(0, 0, -6).Format("2006-01-02"), first.Day)
		assert.Equal(t, int64(2), first.Visits)
		assert.Equal(t, int64(1), first.Clicks)

		last := stats.Trajectory[1]
		assert.Equal(t, now.Format("2006-01-02"), last.Day)
		assert.Equal(t, int64(1), last.Visits)
		assert.Equal(t, int64(2), last.Clicks)
	})

	t.Run("trajectory excludes events older than 7 days", func(t *testing.T) {
		store := &fakeEventStore{}
		store.events = []*models.Event{
			visitAt(now.AddDate(0, 0, -7)),
			visitAt(now),
		}

		stats, err := newSvc(store).ComputeStats(ctx)
		require.NoError(t, err)
		require.Len(t, stats.Trajectory, 1)
		assert.Equal(t, now.Format("2006-01-02"), stats.Trajectory[0].Day)
	})

	t.Run("redirects returned as provided by the store", func(t *testing.T) {
		store := &fakeEventStore{
			redirects: []*models.Redirect{
				{ID: "r1", SourcePath: "/hot", Clicks: 90},
				{ID: "r2", SourcePath: "/cold", Clicks: 3},
			},
		}

		stats, err := newSvc(store).ComputeStats(ctx)
		require.NoError(t, err)
		require.Len(t, stats.Redirects, 2)
		assert.Equal(t, "/hot", stats.Redirects[0].SourcePath)
	})
}

func TestDeviceSummary(t *testing.T) {
	t.Run("empty user agent yields empty summary", func(t *testing.T) {
		assert.Empty(t, deviceSummary(""))
	})

	t.Run("mobile user agent", func(t *testing.T) {
		summary := deviceSummary("Mozilla/5.0 (iPhone; CPU iPhone OS 17_0 like Mac OS X) AppleWebKit/605.1.15 (KHTML, like Gecko) Version/17.0 Mobile/15E148 Safari/604.1")
		assert.Contains(t, summary, "mobile")
	})

	t.Run("bot user agent", func(t *testing.T) {
		summary := deviceSummary("Mozilla/5.0 (compatible; Googlebot/2.1; +http://www.google.com/bot.html)")
		assert.Contains(t, summary, "bot")
	})
}
