package models

import "time"

// GameStatus controls storefront visibility of a catalog entry.
type GameStatus string

const (
	// GameDraft is hidden from the public catalog.
	GameDraft GameStatus = "draft"

	// GameActive is listed on the public catalog.
	GameActive GameStatus = "active"
)

// Game is a catalog entry for a gaming asset: display metadata plus the
// outbound referral link visitors are sent to.
//
// The slug is unique and used in public storefront URLs.
type Game struct {
	ID          string     `json:"id" bson:"_id"`
	Title       string     `json:"title" bson:"title"`
	Slug        string     `json:"slug" bson:"slug"`
	Description string     `json:"description" bson:"description"`
	Genre       string     `json:"genre,omitempty" bson:"genre,omitempty"`
	Platform    string     `json:"platform,omitempty" bson:"platform,omitempty"`
	ReferralURL string     `json:"referral_url" bson:"referral_url"`
	CoverImage  string     `json:"cover_image,omitempty" bson:"cover_image,omitempty"`
	Status      GameStatus `json:"status" bson:"status"`
	CreatedAt   time.Time  `json:"created_at" bson:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at" bson:"updated_at"`
}

// BulkAction names the operation applied by a bulk games mutation.
type BulkAction string

const (
	// BulkDelete removes every referenced game.
	BulkDelete BulkAction = "delete"

	// BulkSetStatus sets the status of every referenced game.
	BulkSetStatus BulkAction = "set_status"
)
