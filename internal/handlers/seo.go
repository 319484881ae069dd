package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/questhaven/gamevault/internal/database"
	"github.com/questhaven/gamevault/internal/models"
	"github.com/questhaven/gamevault/pkg/cache"
	"github.com/questhaven/gamevault/pkg/utils"
	"github.com/rs/zerolog/log"
)

// SEOStore is the persistence surface for per-route SEO overrides.
type SEOStore interface {
	GetSettings(ctx context.Context) (*models.Settings, error)
	GetSEOEntry(ctx context.Context, route string) (*models.SEOEntry, error)
	ListSEOEntries(ctx context.Context) ([]*models.SEOEntry, error)
	SaveSEOEntry(ctx context.Context, entry *models.SEOEntry) (*models.SEOEntry, error)
	DeleteSEOEntry(ctx context.Context, route string) error
}

// SEOHandler handles per-route SEO overrides. Reads are fetch-or-default:
// a route without an override answers with metadata derived from the site
// settings instead of 404, so the storefront renderer never special-cases
// a miss.
type SEOHandler struct {
	db       SEOStore
	cache    *cache.Cache // nil disables caching
	cacheTTL time.Duration
}

// NewSEOHandler creates the SEO handler. Pass a nil cache to disable
// read caching.
func NewSEOHandler(db SEOStore, c *cache.Cache, cacheTTL time.Duration) *SEOHandler {
	return &SEOHandler{
		db:       db,
		cache:    c,
		cacheTTL: cacheTTL,
	}
}

// List returns all SEO overrides sorted by route.
func (h *SEOHandler) List(w http.ResponseWriter, r *http.Request) {
	entries, err := h.db.ListSEOEntries(r.Context())
	if err != nil {
		log.Error().Err(err).Msg("Failed to list seo entries")
		utils.RespondWithError(w, r, http.StatusInternalServerError, "Failed to list SEO entries")
		return
	}

	utils.RespondWithJSON(w, r, http.StatusOK, map[string]interface{}{
		"entries": entries,
		"count":   len(entries),
	})
}

// Get returns the SEO metadata for one route (query parameter "route").
// A route without an override answers with defaults derived from the site
// settings.
func (h *SEOHandler) Get(w http.ResponseWriter, r *http.Request) {
	route := r.URL.Query().Get("route")
	if !strings.HasPrefix(route, "/") {
		utils.RespondWithError(w, r, http.StatusBadRequest, "route query parameter must be an absolute path")
		return
	}

	if h.cache != nil {
		var cached models.SEOEntry
		err := h.cache.Get(r.Context(), cache.SEOKey(route), &cached)
		if err == nil {
			utils.RespondWithJSON(w, r, http.StatusOK, &cached)
			return
		}
		if !errors.Is(err, cache.ErrCacheMiss) {
			log.Warn().Err(err).Str("route", route).Msg("SEO cache read failed, falling back to store")
		}
	}

	entry, err := h.db.GetSEOEntry(r.Context(), route)
	if err != nil {
		if !errors.Is(err, database.ErrNotFound) {
			log.Error().Err(err).Str("route", route).Msg("Failed to fetch seo entry")
			utils.RespondWithError(w, r, http.StatusInternalServerError, "Failed to fetch SEO entry")
			return
		}
		entry = h.defaultEntry(r.Context(), route)
	}

	if h.cache != nil {
		if err := h.cache.Set(r.Context(), cache.SEOKey(route), entry, h.cacheTTL); err != nil {
			log.Warn().Err(err).Str("route", route).Msg("Failed to cache seo entry")
		}
	}

	utils.RespondWithJSON(w, r, http.StatusOK, entry)
}

// defaultEntry derives fallback metadata for a route from the site
// settings. A settings load failure degrades to the built-in defaults.
func (h *SEOHandler) defaultEntry(ctx context.Context, route string) *models.SEOEntry {
	settings, err := h.db.GetSettings(ctx)
	if err != nil {
		log.Warn().Err(err).Msg("Failed to load settings for seo defaults")
		settings = models.DefaultSettings()
	}
	return &models.SEOEntry{
		Route:       route,
		Title:       settings.SiteName,
		Description: settings.Tagline,
	}
}

// seoRequest is the upsert payload for a route's SEO override.
type seoRequest struct {
	Route       string   `json:"route"`
	Title       string   `json:"title"`
	Description string   `json:"description"`
	Keywords    []string `json:"keywords"`
	OGImage     string   `json:"og_image"`
}

// Save upserts the SEO override for a route, keyed by the route itself.
func (h *SEOHandler) Save(w http.ResponseWriter, r *http.Request) {
	var req seoRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.RespondWithError(w, r, http.StatusBadRequest, "Invalid request body")
		return
	}
	if !strings.HasPrefix(req.Route, "/") {
		utils.RespondWithError(w, r, http.StatusBadRequest, "Route must be an absolute path")
		return
	}

	entry, err := h.db.SaveSEOEntry(r.Context(), &models.SEOEntry{
		Route:       req.Route,
		Title:       req.Title,
		Description: req.Description,
		Keywords:    req.Keywords,
		OGImage:     req.OGImage,
	})
	if err != nil {
		log.Error().Err(err).Str("route", req.Route).Msg("Failed to save seo entry")
		utils.RespondWithError(w, r, http.StatusInternalServerError, "Failed to save SEO entry")
		return
	}

	h.invalidate(r.Context())
	utils.RespondWithJSON(w, r, http.StatusOK, entry)
}

// Delete removes the override for a route (query parameter "route").
func (h *SEOHandler) Delete(w http.ResponseWriter, r *http.Request) {
	route := r.URL.Query().Get("route")
	if !strings.HasPrefix(route, "/") {
		utils.RespondWithError(w, r, http.StatusBadRequest, "route query parameter must be an absolute path")
		return
	}

	if err := h.db.DeleteSEOEntry(r.Context(), route); err != nil {
		if errors.Is(err, database.ErrNotFound) {
			utils.RespondWithError(w, r, http.StatusNotFound, "SEO entry not found")
			return
		}
		log.Error().Err(err).Str("route", route).Msg("Failed to delete seo entry")
		utils.RespondWithError(w, r, http.StatusInternalServerError, "Failed to delete SEO entry")
		return
	}

	h.invalidate(r.Context())
	utils.RespondWithMessage(w, r, http.StatusOK, "SEO entry deleted")
}

// invalidate drops every cached SEO entry. Overrides change rarely;
// wholesale invalidation keeps cached defaults from outliving a save that
// affects them.
func (h *SEOHandler) invalidate(ctx context.Context) {
	if h.cache == nil {
		return
	}
	if err := h.cache.DeletePattern(ctx, cache.SEOAllPattern()); err != nil {
		log.Warn().Err(err).Msg("Failed to invalidate seo cache")
	}
}
