package handlers

import (
	"context"
	"net/http"
	"testing"

	"github.com/questhaven/gamevault/internal/models"
	"github.com/questhaven/gamevault/internal/services"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeScraper struct {
	result *services.ScrapeResult
	err    error
}

func (f *fakeScraper) Scrape(_ context.Context, _ string) (*services.ScrapeResult, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.result, nil
}

func TestScrapeEndpoint(t *testing.T) {
	t.Run("returns the extracted fields", func(t *testing.T) {
		h := NewScraperHandler(&fakeScraper{result: &services.ScrapeResult{
			URL: "https://store.example.com/game", Title: "Starfall Tactics",
		}}, newFakeGameStore())

		rec := postJSON(t, h.Scrape, "/api/scraper", map[string]string{"url": "https://store.example.com/game"})

		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Contains(t, rec.Body.String(), "Starfall Tactics")
	})

	t.Run("bad url gets 400", func(t *testing.T) {
		h := NewScraperHandler(&fakeScraper{err: services.ErrBadURL}, newFakeGameStore())

		rec := postJSON(t, h.Scrape, "/api/scraper", map[string]string{"url": "ftp://nope"})
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("upstream failure gets 502", func(t *testing.T) {
		h := NewScraperHandler(&fakeScraper{err: services.ErrUpstream}, newFakeGameStore())

		rec := postJSON(t, h.Scrape, "/api/scraper", map[string]string{"url": "https://down.example.com"})
		assert.Equal(t, http.StatusBadGateway, rec.Code)
	})
}

func TestImportEndpoint(t *testing.T) {
	t.Run("imports items as draft games with derived slugs", func(t *testing.T) {
		store := newFakeGameStore()
		h := NewScraperHandler(&fakeScraper{}, store)

		rec := postJSON(t, h.Import, "/api/scraper/import", map[string]interface{}{
			"items": []map[string]string{
				{"title": "Ember Hollow", "referral_url": "https://store.example.com/ember"},
				{"title": "Cartographer's Guild"},
			},
		})

		assert.Equal(t, http.StatusCreated, rec.Code)
		require.Len(t, store.games, 2)
		for _, game := range store.games {
			assert.Equal(t, models.GameDraft, game.Status)
			assert.NotEmpty(t, game.Slug)
		}
	})

	t.Run("partial failure reports a generic error, applied items stay", func(t *testing.T) {
		store := newFakeGameStore(&models.Game{ID: "g1", Slug: "ember-hollow"})
		h := NewScraperHandler(&fakeScraper{}, store)

		rec := postJSON(t, h.Import, "/api/scraper/import", map[string]interface{}{
			"items": []map[string]string{
				{"title": "New Game"},
				{"title": "Ember Hollow"}, // slug collision
			},
		})

		assert.Equal(t, http.StatusInternalServerError, rec.Code)
		assert.Len(t, store.games, 2) // original plus the successful import
	})

	t.Run("empty batch gets 400", func(t *testing.T) {
		h := NewScraperHandler(&fakeScraper{}, newFakeGameStore())

		rec := postJSON(t, h.Import, "/api/scraper/import", map[string]interface{}{"items": []map[string]string{}})
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("item without a title gets 400 before any import", func(t *testing.T) {
		store := newFakeGameStore()
		h := NewScraperHandler(&fakeScraper{}, store)

		rec := postJSON(t, h.Import, "/api/scraper/import", map[string]interface{}{
			"items": []map[string]string{{"title": "Good"}, {"description": "no title"}},
		})

		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Empty(t, store.games)
	})
}
