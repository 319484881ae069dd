package models

import "time"

// Post is a blog/journal entry. Unpublished posts are visible in the back
// office only; the public blog lists published posts ordered by
// PublishedAt descending.
type Post struct {
	ID          string     `json:"id" bson:"_id"`
	Title       string     `json:"title" bson:"title"`
	Slug        string     `json:"slug" bson:"slug"`
	Excerpt     string     `json:"excerpt,omitempty" bson:"excerpt,omitempty"`
	Content     string     `json:"content" bson:"content"`
	Tags        []string   `json:"tags,omitempty" bson:"tags,omitempty"`
	Published   bool       `json:"published" bson:"published"`
	PublishedAt *time.Time `json:"published_at,omitempty" bson:"published_at,omitempty"`
	CreatedAt   time.Time  `json:"created_at" bson:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at" bson:"updated_at"`
}
