package models

import "time"

// SettingsID is the fixed document id of the single site settings record.
const SettingsID = "site"

// Settings is the site-wide configuration document. There is exactly one,
// created lazily with defaults on first read (fetch-or-default).
type Settings struct {
	ID          string            `json:"id" bson:"_id"`
	SiteName    string            `json:"site_name" bson:"site_name"`
	Tagline     string            `json:"tagline,omitempty" bson:"tagline,omitempty"`
	ContactMail string            `json:"contact_email,omitempty" bson:"contact_email,omitempty"`
	SocialLinks map[string]string `json:"social_links,omitempty" bson:"social_links,omitempty"`
	Maintenance bool              `json:"maintenance" bson:"maintenance"`
	UpdatedAt   time.Time         `json:"updated_at" bson:"updated_at"`
}

// DefaultSettings returns the settings document used until an admin saves
// one, and as the graceful-degradation fallback when the store is down.
func DefaultSettings() *Settings {
	return &Settings{
		ID:       SettingsID,
		SiteName: "GameVault",
		Tagline:  "Curated gaming assets",
	}
}

// SEOEntry overrides page metadata for a single route. Route is the unique
// lookup key; absent routes fall back to defaults derived from settings.
type SEOEntry struct {
	ID          string    `json:"id" bson:"_id"`
	Route       string    `json:"route" bson:"route"`
	Title       string    `json:"title,omitempty" bson:"title,omitempty"`
	Description string    `json:"description,omitempty" bson:"description,omitempty"`
	Keywords    []string  `json:"keywords,omitempty" bson:"keywords,omitempty"`
	OGImage     string    `json:"og_image,omitempty" bson:"og_image,omitempty"`
	UpdatedAt   time.Time `json:"updated_at" bson:"updated_at"`
}
