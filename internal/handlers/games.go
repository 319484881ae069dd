package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/questhaven/gamevault/internal/database"
	"github.com/questhaven/gamevault/internal/models"
	"github.com/questhaven/gamevault/internal/services"
	"github.com/questhaven/gamevault/pkg/utils"
	"github.com/rs/zerolog/log"
	"go.mongodb.org/mongo-driver/v2/bson"
)

// GameStore is the persistence surface for catalog management.
type GameStore interface {
	CreateGame(ctx context.Context, game *models.Game) (*models.Game, error)
	GetGameByID(ctx context.Context, id string) (*models.Game, error)
	ListGames(ctx context.Context, activeOnly bool, offset, limit int) ([]*models.Game, int64, error)
	UpdateGame(ctx context.Context, id string, update bson.M) (*models.Game, error)
	DeleteGame(ctx context.Context, id string) error
	BulkGames(ctx context.Context, action models.BulkAction, ids []string, status models.GameStatus) error
}

// GameHandler handles catalog management for the back office and the
// public storefront listing.
type GameHandler struct {
	db GameStore
}

// NewGameHandler creates the catalog handler.
func NewGameHandler(db GameStore) *GameHandler {
	return &GameHandler{db: db}
}

// List returns a page of all games, drafts included (back office view).
func (h *GameHandler) List(w http.ResponseWriter, r *http.Request) {
	params := utils.ParsePageParams(r)

	games, total, err := h.db.ListGames(r.Context(), false, params.Offset, params.Limit)
	if err != nil {
		log.Error().Err(err).Msg("Failed to list games")
		utils.RespondWithError(w, r, http.StatusInternalServerError, "Failed to list games")
		return
	}

	utils.RespondWithJSON(w, r, http.StatusOK, utils.NewPaginatedResponse(games, params, total))
}

// Catalog returns a page of active games for the public storefront. When
// the store is unreachable it serves the built-in sample catalog instead
// of an error, so the storefront always renders something.
func (h *GameHandler) Catalog(w http.ResponseWriter, r *http.Request) {
	params := utils.ParsePageParams(r)

	games, total, err := h.db.ListGames(r.Context(), true, params.Offset, params.Limit)
	if err != nil {
		log.Warn().Err(err).Msg("Catalog store unreachable, serving sample data")
		utils.RespondWithJSON(w, r, http.StatusOK, utils.NewPaginatedResponse(sampleGames, params, int64(len(sampleGames))))
		return
	}

	utils.RespondWithJSON(w, r, http.StatusOK, utils.NewPaginatedResponse(games, params, total))
}

// gameRequest is the create/update payload for a catalog entry.
type gameRequest struct {
	Title       string            `json:"title"`
	Slug        string            `json:"slug"`
	Description string            `json:"description"`
	Genre       string            `json:"genre"`
	Platform    string            `json:"platform"`
	ReferralURL string            `json:"referral_url"`
	CoverImage  string            `json:"cover_image"`
	Status      models.GameStatus `json:"status"`
}

// Create adds a catalog entry. An omitted slug is derived from the title.
//
// Responses: 201 with the game, 400 on a bad payload, 409 on a slug
// collision.
func (h *GameHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req gameRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.RespondWithError(w, r, http.StatusBadRequest, "Invalid request body")
		return
	}
	if req.Title == "" {
		utils.RespondWithError(w, r, http.StatusBadRequest, "Title is required")
		return
	}
	if req.Slug == "" {
		req.Slug = services.Slugify(req.Title)
	}
	if req.Status != "" && req.Status != models.GameDraft && req.Status != models.GameActive {
		utils.RespondWithError(w, r, http.StatusBadRequest, "Unknown status")
		return
	}

	game, err := h.db.CreateGame(r.Context(), &models.Game{
		Title:       req.Title,
		Slug:        req.Slug,
		Description: req.Description,
		Genre:       req.Genre,
		Platform:    req.Platform,
		ReferralURL: req.ReferralURL,
		CoverImage:  req.CoverImage,
		Status:      req.Status,
	})
	if err != nil {
		if errors.Is(err, database.ErrDuplicate) {
			utils.RespondWithError(w, r, http.StatusConflict, "Slug is already taken")
			return
		}
		log.Error().Err(err).Msg("Failed to create game")
		utils.RespondWithError(w, r, http.StatusInternalServerError, "Failed to create game")
		return
	}

	utils.RespondWithJSON(w, r, http.StatusCreated, game)
}

// Get returns one game by id.
func (h *GameHandler) Get(w http.ResponseWriter, r *http.Request) {
	game, err := h.db.GetGameByID(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		if errors.Is(err, database.ErrNotFound) {
			utils.RespondWithError(w, r, http.StatusNotFound, "Game not found")
			return
		}
		log.Error().Err(err).Msg("Failed to fetch game")
		utils.RespondWithError(w, r, http.StatusInternalServerError, "Failed to fetch game")
		return
	}

	utils.RespondWithJSON(w, r, http.StatusOK, game)
}

// updateGameRequest is the partial-update payload. Nil fields keep their
// current value.
type updateGameRequest struct {
	Title       *string            `json:"title,omitempty"`
	Slug        *string            `json:"slug,omitempty"`
	Description *string            `json:"description,omitempty"`
	Genre       *string            `json:"genre,omitempty"`
	Platform    *string            `json:"platform,omitempty"`
	ReferralURL *string            `json:"referral_url,omitempty"`
	CoverImage  *string            `json:"cover_image,omitempty"`
	Status      *models.GameStatus `json:"status,omitempty"`
}

// Update applies a partial update to a catalog entry.
func (h *GameHandler) Update(w http.ResponseWriter, r *http.Request) {
	var req updateGameRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.RespondWithError(w, r, http.StatusBadRequest, "Invalid request body")
		return
	}

	update := bson.M{}
	if req.Title != nil {
		if *req.Title == "" {
			utils.RespondWithError(w, r, http.StatusBadRequest, "Title cannot be empty")
			return
		}
		update["title"] = *req.Title
	}
	if req.Slug != nil {
		if *req.Slug == "" {
			utils.RespondWithError(w, r, http.StatusBadRequest, "Slug cannot be empty")
			return
		}
		update["slug"] = *req.Slug
	}
	if req.Description != nil {
		update["description"] = *req.Description
	}
	if req.Genre != nil {
		update["genre"] = *req.Genre
	}
	if req.Platform != nil {
		update["platform"] = *req.Platform
	}
	if req.ReferralURL != nil {
		update["referral_url"] = *req.ReferralURL
	}
	if req.CoverImage != nil {
		update["cover_image"] = *req.CoverImage
	}
	if req.Status != nil {
		if *req.Status != models.GameDraft && *req.Status != models.GameActive {
			utils.RespondWithError(w, r, http.StatusBadRequest, "Unknown status")
			return
		}
		update["status"] = *req.Status
	}
	if len(update) == 0 {
		utils.RespondWithError(w, r, http.StatusBadRequest, "Nothing to update")
		return
	}

	game, err := h.db.UpdateGame(r.Context(), chi.URLParam(r, "id"), update)
	if err != nil {
		switch {
		case errors.Is(err, database.ErrNotFound):
			utils.RespondWithError(w, r, http.StatusNotFound, "Game not found")
		case errors.Is(err, database.ErrDuplicate):
			utils.RespondWithError(w, r, http.StatusConflict, "Slug is already taken")
		default:
			log.Error().Err(err).Msg("Failed to update game")
			utils.RespondWithError(w, r, http.StatusInternalServerError, "Failed to update game")
		}
		return
	}

	utils.RespondWithJSON(w, r, http.StatusOK, game)
}

// Delete removes a catalog entry.
func (h *GameHandler) Delete(w http.ResponseWriter, r *http.Request) {
	if err := h.db.DeleteGame(r.Context(), chi.URLParam(r, "id")); err != nil {
		if errors.Is(err, database.ErrNotFound) {
			utils.RespondWithError(w, r, http.StatusNotFound, "Game not found")
			return
		}
		log.Error().Err(err).Msg("Failed to delete game")
		utils.RespondWithError(w, r, http.StatusInternalServerError, "Failed to delete game")
		return
	}

	utils.RespondWithMessage(w, r, http.StatusOK, "Game deleted")
}

// bulkRequest names a bulk action over a set of game ids.
type bulkRequest struct {
	Action models.BulkAction `json:"action"`
	IDs    []string          `json:"ids"`
	Status models.GameStatus `json:"status,omitempty"`
}

// Bulk applies delete or set_status to each listed game as independent
// operations. A partial failure reports a generic error; ids that
// succeeded before the failure stay applied.
func (h *GameHandler) Bulk(w http.ResponseWriter, r *http.Request) {
	var req bulkRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.RespondWithError(w, r, http.StatusBadRequest, "Invalid request body")
		return
	}
	if len(req.IDs) == 0 {
		utils.RespondWithError(w, r, http.StatusBadRequest, "At least one id is required")
		return
	}
	switch req.Action {
	case models.BulkDelete:
	case models.BulkSetStatus:
		if req.Status != models.GameDraft && req.Status != models.GameActive {
			utils.RespondWithError(w, r, http.StatusBadRequest, "set_status requires a valid status")
			return
		}
	default:
		utils.RespondWithError(w, r, http.StatusBadRequest, "Action must be delete or set_status")
		return
	}

	if err := h.db.BulkGames(r.Context(), req.Action, req.IDs, req.Status); err != nil {
		log.Error().Err(err).Str("action", string(req.Action)).Int("ids", len(req.IDs)).Msg("Bulk operation failed")
		utils.RespondWithError(w, r, http.StatusInternalServerError, "Bulk operation failed")
		return
	}

	utils.RespondWithMessage(w, r, http.StatusOK, "Bulk operation applied")
}
