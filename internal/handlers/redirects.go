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
)

// RedirectManager is the rule-management surface of the redirect service.
type RedirectManager interface {
	List(ctx context.Context) ([]*models.Redirect, error)
	Create(ctx context.Context, rule *models.Redirect) (*models.Redirect, error)
	Update(ctx context.Context, id string, upd *services.RedirectUpdate) (*models.Redirect, error)
	Delete(ctx context.Context, id string) error
}

// RedirectHandler handles redirect rule CRUD for the back office. Rules
// are applied to live traffic by the request gate, not here.
type RedirectHandler struct {
	redirects RedirectManager
}

// NewRedirectHandler creates the redirect rule handler.
func NewRedirectHandler(redirects RedirectManager) *RedirectHandler {
	return &RedirectHandler{redirects: redirects}
}

// List returns all rules sorted by click count descending.
func (h *RedirectHandler) List(w http.ResponseWriter, r *http.Request) {
	rules, err := h.redirects.List(r.Context())
	if err != nil {
		log.Error().Err(err).Msg("Failed to list redirects")
		utils.RespondWithError(w, r, http.StatusInternalServerError, "Failed to list redirects")
		return
	}

	utils.RespondWithJSON(w, r, http.StatusOK, map[string]interface{}{
		"redirects": rules,
		"count":     len(rules),
	})
}

// redirectRequest is the create payload for a rule.
type redirectRequest struct {
	SourcePath      string `json:"source_path"`
	DestinationPath string `json:"destination_path"`
	Type            int    `json:"type"`
	IsActive        bool   `json:"is_active"`
}

// Create adds a redirect rule.
//
// Responses: 201 with the rule; 400 on validation failure; 409 when the
// source path is taken or the rule would create a cycle among active
// rules.
func (h *RedirectHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req redirectRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.RespondWithError(w, r, http.StatusBadRequest, "Invalid request body")
		return
	}
	if req.Type == 0 {
		req.Type = http.StatusFound
	}

	rule, err := h.redirects.Create(r.Context(), &models.Redirect{
		SourcePath:      req.SourcePath,
		DestinationPath: req.DestinationPath,
		Type:            req.Type,
		IsActive:        req.IsActive,
	})
	if err != nil {
		respondRedirectError(w, r, err, "Failed to create redirect")
		return
	}

	utils.RespondWithJSON(w, r, http.StatusCreated, rule)
}

// Update applies a partial update to a rule, including toggling it
// active. Validation and the cycle check run against the resulting state.
func (h *RedirectHandler) Update(w http.ResponseWriter, r *http.Request) {
	var req services.RedirectUpdate
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.RespondWithError(w, r, http.StatusBadRequest, "Invalid request body")
		return
	}

	rule, err := h.redirects.Update(r.Context(), chi.URLParam(r, "id"), &req)
	if err != nil {
		respondRedirectError(w, r, err, "Failed to update redirect")
		return
	}

	utils.RespondWithJSON(w, r, http.StatusOK, rule)
}

// Delete removes a rule.
func (h *RedirectHandler) Delete(w http.ResponseWriter, r *http.Request) {
	if err := h.redirects.Delete(r.Context(), chi.URLParam(r, "id")); err != nil {
		respondRedirectError(w, r, err, "Failed to delete redirect")
		return
	}

	utils.RespondWithMessage(w, r, http.StatusOK, "Redirect deleted")
}

// respondRedirectError maps redirect service errors to HTTP statuses.
func respondRedirectError(w http.ResponseWriter, r *http.Request, err error, fallback string) {
	switch {
	case errors.Is(err, services.ErrInvalidRedirect):
		utils.RespondWithError(w, r, http.StatusBadRequest, err.Error())
	case errors.Is(err, services.ErrRedirectCycle):
		utils.RespondWithError(w, r, http.StatusConflict, err.Error())
	case errors.Is(err, database.ErrDuplicate):
		utils.RespondWithError(w, r, http.StatusConflict, "Source path is already taken")
	case errors.Is(err, database.ErrNotFound):
		utils.RespondWithError(w, r, http.StatusNotFound, "Redirect not found")
	default:
		log.Error().Err(err).Msg(fallback)
		utils.RespondWithError(w, r, http.StatusInternalServerError, fallback)
	}
}
