package handlers

import (
	"time"

	"github.com/questhaven/gamevault/internal/models"
)

// sampleGames and samplePosts are the built-in storefront fallback served
// when the store is unreachable: visitors see a plausible page instead of
// an error. The records carry fixed ids and timestamps so repeated
// fallback responses are identical.
var sampleTime = time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

var sampleGames = []*models.Game{
	{
		ID:          "sample-game-1",
		Title:       "Starfall Tactics",
		Slug:        "starfall-tactics",
		Description: "Turn-based fleet combat across a procedurally generated galaxy.",
		Genre:       "Strategy",
		Platform:    "PC",
		ReferralURL: "https://store.example.com/starfall-tactics",
		Status:      models.GameActive,
		CreatedAt:   sampleTime,
		UpdatedAt:   sampleTime,
	},
	{
		ID:          "sample-game-2",
		Title:       "Ember Hollow",
		Slug:        "ember-hollow",
		Description: "A hand-drawn metroidvania set inside a dying volcano.",
		Genre:       "Action",
		Platform:    "PC",
		ReferralURL: "https://store.example.com/ember-hollow",
		Status:      models.GameActive,
		CreatedAt:   sampleTime,
		UpdatedAt:   sampleTime,
	},
	{
		ID:          "sample-game-3",
		Title:       "Cartographer's Guild",
		Slug:        "cartographers-guild",
		Description: "Cozy exploration and map-making on uncharted islands.",
		Genre:       "Adventure",
		Platform:    "PC",
		ReferralURL: "https://store.example.com/cartographers-guild",
		Status:      models.GameActive,
		CreatedAt:   sampleTime,
		UpdatedAt:   sampleTime,
	},
}

var samplePosts = []*models.Post{
	{
		ID:          "sample-post-1",
		Title:       "Welcome to GameVault",
		Slug:        "welcome-to-gamevault",
		Excerpt:     "What we curate and why.",
		Content:     "GameVault collects the gaming assets we actually play and links you straight to the stores that sell them.",
		Published:   true,
		PublishedAt: &sampleTime,
		CreatedAt:   sampleTime,
		UpdatedAt:   sampleTime,
	},
	{
		ID:          "sample-post-2",
		Title:       "How we pick games",
		Slug:        "how-we-pick-games",
		Excerpt:     "Our curation process in three steps.",
		Content:     "Every entry in the catalog is played, reviewed, and linked by a real person before it goes live.",
		Published:   true,
		PublishedAt: &sampleTime,
		CreatedAt:   sampleTime,
		UpdatedAt:   sampleTime,
	},
}
