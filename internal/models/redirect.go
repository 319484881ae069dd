package models

import "time"

// Redirect is a persisted exact-path rewrite rule consulted by the request
// gate before normal routing. The source path is the unique lookup key.
//
// Clicks only ever increase and the increment is best-effort: it is
// dispatched after the redirect response is prepared and is not required
// to complete, so the counter is approximate by design.
//
// Field names are load-bearing for dashboard compatibility: the rule is
// exposed verbatim (source_path, destination_path, type, clicks) by the
// redirects API and re-read by the gate.
type Redirect struct {
	ID              string     `json:"id" bson:"_id"`
	SourcePath      string     `json:"source_path" bson:"source_path"`           // Exact request path to match (unique)
	DestinationPath string     `json:"destination_path" bson:"destination_path"` // Where to send the visitor
	Type            int        `json:"type" bson:"type"`                         // 301 (permanent) or 302 (temporary)
	Clicks          int64      `json:"clicks" bson:"clicks"`                     // Approximate hit counter
	LastAccessed    *time.Time `json:"last_accessed,omitempty" bson:"last_accessed,omitempty"`
	IsActive        bool       `json:"is_active" bson:"is_active"`
	CreatedAt       time.Time  `json:"created_at" bson:"created_at"`
	UpdatedAt       time.Time  `json:"updated_at" bson:"updated_at"`
}

// Resolution is the outcome of a redirect lookup: destination plus the
// status-code intent stored on the rule.
type Resolution struct {
	DestinationPath string `json:"destination_path"`
	Type            int    `json:"type"`
}
