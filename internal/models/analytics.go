package models

import "time"

// EventType classifies an analytics event.
type EventType string

const (
	// EventVisit is a page view.
	EventVisit EventType = "visit"

	// EventClick is a referral-link click.
	EventClick EventType = "click"

	// EventNotFound records a request for a missing page.
	EventNotFound EventType = "404"
)

// Valid reports whether the event type is one of the known types.
func (e EventType) Valid() bool {
	switch e {
	case EventVisit, EventClick, EventNotFound:
		return true
	}
	return false
}

// EntityType names the kind of entity an event refers to.
type EntityType string

const (
	EntityGame EntityType = "game"
	EntityBlog EntityType = "blog"
	EntityPage EntityType = "page"
)

// Valid reports whether the entity type is one of the known types.
func (e EntityType) Valid() bool {
	switch e {
	case EntityGame, EntityBlog, EntityPage:
		return true
	}
	return false
}

// Event is an immutable, append-only record of a visit, referral click, or
// not-found occurrence. Events are written by anonymous visitors through
// the public tracking endpoint; they are never updated or deleted.
//
// JSON example:
//
//	{
//	  "id": "7f8d9a10-1b2c-4d3e-8f90-abcdef012345",
//	  "event_type": "click",
//	  "path": "/games/starfall-tactics",
//	  "entity_id": "550e8400-e29b-41d4-a716-446655440000",
//	  "entity_type": "game",
//	  "timestamp": "2024-01-20T14:45:00Z"
//	}
type Event struct {
	ID         string     `json:"id" bson:"_id"`
	EventType  EventType  `json:"event_type" bson:"event_type"`
	Path       string     `json:"path" bson:"path"`
	EntityID   string     `json:"entity_id,omitempty" bson:"entity_id,omitempty"`
	EntityType EntityType `json:"entity_type" bson:"entity_type"`
	IP         string     `json:"ip,omitempty" bson:"ip,omitempty"`
	UserAgent  string     `json:"user_agent,omitempty" bson:"user_agent,omitempty"`
	Timestamp  time.Time  `json:"timestamp" bson:"timestamp"`
}

// EventView is an Event decorated with a human-readable device summary
// parsed from the stored user agent, for the dashboard's recent feed.
type EventView struct {
	Event
	Device string `json:"device,omitempty"`
}

// DayBucket is one calendar day of visit/click counts. Day is formatted
// as "2006-01-02" in server-local time. Days with zero events are never
// emitted, so bucket sequences are sparse.
type DayBucket struct {
	Day    string `json:"day"`
	Visits int64  `json:"visits"`
	Clicks int64  `json:"clicks"`
}

// Stats is the aggregated dashboard payload.
type Stats struct {
	TotalVisits  int64       `json:"total_visits"`
	TotalClicks  int64       `json:"total_clicks"`
	Total404s    int64       `json:"total_404s"`
	RecentEvents []EventView `json:"recent_events"` // Latest 30, newest first
	Trajectory   []DayBucket `json:"trajectory"`    // Trailing 7 days, ascending, sparse
	Redirects    []Redirect  `json:"redirects"`     // All rules, clicks descending
}
