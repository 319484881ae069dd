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

// EventRecorder is the analytics surface the handler needs.
type EventRecorder interface {
	Record(ctx context.Context, event *models.Event) error
	ComputeStats(ctx context.Context) (*models.Stats, error)
}

// AnalyticsHandler handles the public tracking endpoint and the admin
// dashboard stats.
type AnalyticsHandler struct {
	analytics EventRecorder
}

// NewAnalyticsHandler creates the analytics handler.
func NewAnalyticsHandler(analytics EventRecorder) *AnalyticsHandler {
	return &AnalyticsHandler{analytics: analytics}
}

// trackRequest is the anonymous tracking payload sent by the storefront.
type trackRequest struct {
	EventType models.EventType  `json:"event_type"`
	Path      string            `json:"path"`
	EntityID  string            `json:"entity_id"`
	Entity    models.EntityType `json:"entity_type"`
}

// Track records one visitor event. Public and unauthenticated; the
// client IP and user agent are taken from the request, not the payload.
//
// Responses: 201 on success, 400 when a required field is missing or an
// enum value is unknown.
func (h *AnalyticsHandler) Track(w http.ResponseWriter, r *http.Request) {
	var req trackRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.RespondWithError(w, r, http.StatusBadRequest, "Invalid request body")
		return
	}

	event := &models.Event{
		EventType:  req.EventType,
		Path:       req.Path,
		EntityID:   req.EntityID,
		EntityType: req.Entity,
		IP:         utils.ExtractClientIP(r),
		UserAgent:  r.UserAgent(),
	}

	if err := h.analytics.Record(r.Context(), event); err != nil {
		if errors.Is(err, services.ErrInvalidEvent) {
			utils.RespondWithError(w, r, http.StatusBadRequest, err.Error())
			return
		}
		log.Error().Err(err).Msg("Failed to record event")
		utils.RespondWithError(w, r, http.StatusInternalServerError, "Failed to record event")
		return
	}

	middleware.IncrementEventsRecorded(string(req.EventType))
	utils.RespondWithMessage(w, r, http.StatusCreated, "Event recorded")
}

// Stats returns the aggregated dashboard payload: lifetime totals, the
// recent events feed, the 7-day trajectory, and all redirect rules.
func (h *AnalyticsHandler) Stats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.analytics.ComputeStats(r.Context())
	if err != nil {
		log.Error().Err(err).Msg("Failed to compute stats")
		utils.RespondWithError(w, r, http.StatusInternalServerError, "Failed to compute stats")
		return
	}

	utils.RespondWithJSON(w, r, http.StatusOK, stats)
}
