package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/questhaven/gamevault/internal/models"
	"github.com/questhaven/gamevault/pkg/cache"
	"github.com/questhaven/gamevault/pkg/utils"
	"github.com/rs/zerolog/log"
)

// SettingsStore is the persistence surface for the site settings
// document.
type SettingsStore interface {
	GetSettings(ctx context.Context) (*models.Settings, error)
	SaveSettings(ctx context.Context, settings *models.Settings) (*models.Settings, error)
}

// SettingsHandler handles the single site settings document. Reads are
// cached briefly because the storefront consults settings on every
// render; saves write through and drop the cached copy.
type SettingsHandler struct {
	db       SettingsStore
	cache    *cache.Cache // nil disables caching
	cacheTTL time.Duration
}

// NewSettingsHandler creates the settings handler. Pass a nil cache to
// disable read caching.
func NewSettingsHandler(db SettingsStore, c *cache.Cache, cacheTTL time.Duration) *SettingsHandler {
	return &SettingsHandler{
		db:       db,
		cache:    c,
		cacheTTL: cacheTTL,
	}
}

// Get returns the site settings, falling back to the built-in defaults
// when none have been saved yet.
func (h *SettingsHandler) Get(w http.ResponseWriter, r *http.Request) {
	if h.cache != nil {
		var cached models.Settings
		err := h.cache.Get(r.Context(), cache.SettingsKey(), &cached)
		if err == nil {
			utils.RespondWithJSON(w, r, http.StatusOK, &cached)
			return
		}
		if !errors.Is(err, cache.ErrCacheMiss) {
			log.Warn().Err(err).Msg("Settings cache read failed, falling back to store")
		}
	}

	settings, err := h.db.GetSettings(r.Context())
	if err != nil {
		log.Error().Err(err).Msg("Failed to load settings")
		utils.RespondWithError(w, r, http.StatusInternalServerError, "Failed to load settings")
		return
	}

	if h.cache != nil {
		if err := h.cache.Set(r.Context(), cache.SettingsKey(), settings, h.cacheTTL); err != nil {
			log.Warn().Err(err).Msg("Failed to cache settings")
		}
	}

	utils.RespondWithJSON(w, r, http.StatusOK, settings)
}

// settingsRequest is the save payload. The whole document is replaced;
// there is no partial settings update.
type settingsRequest struct {
	SiteName    string            `json:"site_name"`
	Tagline     string            `json:"tagline"`
	ContactMail string            `json:"contact_email"`
	SocialLinks map[string]string `json:"social_links"`
	Maintenance bool              `json:"maintenance"`
}

// Save replaces the site settings document and drops the cached copy.
func (h *SettingsHandler) Save(w http.ResponseWriter, r *http.Request) {
	var req settingsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.RespondWithError(w, r, http.StatusBadRequest, "Invalid request body")
		return
	}
	if req.SiteName == "" {
		utils.RespondWithError(w, r, http.StatusBadRequest, "Site name is required")
		return
	}

	settings, err := h.db.SaveSettings(r.Context(), &models.Settings{
		SiteName:    req.SiteName,
		Tagline:     req.Tagline,
		ContactMail: req.ContactMail,
		SocialLinks: req.SocialLinks,
		Maintenance: req.Maintenance,
	})
	if err != nil {
		log.Error().Err(err).Msg("Failed to save settings")
		utils.RespondWithError(w, r, http.StatusInternalServerError, "Failed to save settings")
		return
	}

	if h.cache != nil {
		if err := h.cache.Delete(r.Context(), cache.SettingsKey()); err != nil {
			log.Warn().Err(err).Msg("Failed to invalidate settings cache")
		}
	}

	utils.RespondWithJSON(w, r, http.StatusOK, settings)
}
