package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/questhaven/gamevault/internal/middleware"
	"github.com/questhaven/gamevault/internal/models"
	"github.com/questhaven/gamevault/internal/services"
	"github.com/questhaven/gamevault/pkg/utils"
	"github.com/rs/zerolog/log"
)

// PageScraper is the scraping surface the handler needs.
type PageScraper interface {
	Scrape(ctx context.Context, rawURL string) (*services.ScrapeResult, error)
}

// GameImporter is the catalog surface the import endpoint needs.
type GameImporter interface {
	CreateGame(ctx context.Context, game *models.Game) (*models.Game, error)
}

// ScraperHandler handles the admin scraping workflow: fetch a product
// page, show the extracted fields for review, then import the reviewed
// items as draft catalog entries.
type ScraperHandler struct {
	scraper PageScraper
	db      GameImporter
}

// NewScraperHandler creates the scraper handler.
func NewScraperHandler(scraper PageScraper, db GameImporter) *ScraperHandler {
	return &ScraperHandler{
		scraper: scraper,
		db:      db,
	}
}

// scrapeRequest names the page to scrape.
type scrapeRequest struct {
	URL string `json:"url"`
}

// Scrape fetches an external product page and returns the extracted
// fields for the admin to review before importing.
//
// Responses: 200 with the result, 400 on a malformed URL, 502 when the
// target site is unreachable, answers non-2xx, or returns an unparsable
// body.
func (h *ScraperHandler) Scrape(w http.ResponseWriter, r *http.Request) {
	var req scrapeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.RespondWithError(w, r, http.StatusBadRequest, "Invalid request body")
		return
	}

	result, err := h.scraper.Scrape(r.Context(), req.URL)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrBadURL):
			middleware.IncrementScrapes("bad_url")
			utils.RespondWithError(w, r, http.StatusBadRequest, err.Error())
		case errors.Is(err, services.ErrUpstream):
			middleware.IncrementScrapes("upstream_error")
			utils.RespondWithError(w, r, http.StatusBadGateway, err.Error())
		default:
			middleware.IncrementScrapes("error")
			log.Error().Err(err).Str("url", req.URL).Msg("Scrape failed")
			utils.RespondWithError(w, r, http.StatusInternalServerError, "Scrape failed")
		}
		return
	}

	middleware.IncrementScrapes("success")
	utils.RespondWithJSON(w, r, http.StatusOK, result)
}

// importItem is one reviewed scrape result to turn into a catalog entry.
type importItem struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	CoverImage  string `json:"cover_image"`
	ReferralURL string `json:"referral_url"`
	Genre       string `json:"genre"`
	Platform    string `json:"platform"`
}

// importRequest is the batch import payload.
type importRequest struct {
	Items []importItem `json:"items"`
}

// Import creates a draft catalog entry per reviewed item, slugs derived
// from titles. Items are imported independently; a partial failure
// reports a generic error while successfully imported items stay
// created.
func (h *ScraperHandler) Import(w http.ResponseWriter, r *http.Request) {
	var req importRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.RespondWithError(w, r, http.StatusBadRequest, "Invalid request body")
		return
	}
	if len(req.Items) == 0 {
		utils.RespondWithError(w, r, http.StatusBadRequest, "At least one item is required")
		return
	}
	for _, item := range req.Items {
		if item.Title == "" {
			utils.RespondWithError(w, r, http.StatusBadRequest, "Every item needs a title")
			return
		}
	}

	var imported []*models.Game
	var failed int
	for _, item := range req.Items {
		game, err := h.db.CreateGame(r.Context(), &models.Game{
			Title:       item.Title,
			Slug:        services.Slugify(item.Title),
			Description: item.Description,
			CoverImage:  item.CoverImage,
			ReferralURL: item.ReferralURL,
			Genre:       item.Genre,
			Platform:    item.Platform,
			Status:      models.GameDraft,
		})
		if err != nil {
			failed++
			log.Warn().Err(err).Str("title", item.Title).Msg("Import failed for item")
			continue
		}
		imported = append(imported, game)
	}

	if failed > 0 {
		utils.RespondWithError(w, r, http.StatusInternalServerError, "Import failed for some items")
		return
	}

	utils.RespondWithJSON(w, r, http.StatusCreated, map[string]interface{}{
		"imported": imported,
		"count":    len(imported),
	})
}
