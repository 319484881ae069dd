package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/questhaven/gamevault/internal/database"
	"github.com/questhaven/gamevault/internal/models"
	"github.com/questhaven/gamevault/internal/services"
	"github.com/questhaven/gamevault/pkg/utils"
	"github.com/rs/zerolog/log"
)

// SetupStore is the persistence surface for first-run setup.
type SetupStore interface {
	CountSuperAdmins(ctx context.Context) (int64, error)
	CreateUser(ctx context.Context, user *models.User) (*models.User, error)
}

// SetupHandler handles the one-time super admin bootstrap. The endpoint
// is public because it must work on an empty database, before any
// session can exist; it refuses to run once a super_admin exists.
type SetupHandler struct {
	db SetupStore
}

// NewSetupHandler creates the setup handler.
func NewSetupHandler(db SetupStore) *SetupHandler {
	return &SetupHandler{db: db}
}

// setupRequest is the bootstrap payload.
type setupRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

// CreateSuperAdmin creates the sole super_admin account.
//
// Responses: 201 with the user, 400 on a bad payload, 403 once a
// super_admin already exists.
func (h *SetupHandler) CreateSuperAdmin(w http.ResponseWriter, r *http.Request) {
	var req setupRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.RespondWithError(w, r, http.StatusBadRequest, "Invalid request body")
		return
	}
	if req.Name == "" || req.Email == "" || req.Password == "" {
		utils.RespondWithError(w, r, http.StatusBadRequest, "Name, email, and password are required")
		return
	}

	count, err := h.db.CountSuperAdmins(r.Context())
	if err != nil {
		log.Error().Err(err).Msg("Failed to count super admins")
		utils.RespondWithError(w, r, http.StatusInternalServerError, "Setup failed")
		return
	}
	if count > 0 {
		utils.RespondWithError(w, r, http.StatusForbidden, "Setup has already been completed")
		return
	}

	hash, err := services.HashPassword(req.Password)
	if err != nil {
		log.Error().Err(err).Msg("Failed to hash password")
		utils.RespondWithError(w, r, http.StatusInternalServerError, "Setup failed")
		return
	}

	user, err := h.db.CreateUser(r.Context(), &models.User{
		Name:         req.Name,
		Email:        req.Email,
		PasswordHash: hash,
		Role:         models.RoleSuperAdmin,
		Status:       models.StatusActive,
	})
	if err != nil {
		if errors.Is(err, database.ErrDuplicate) {
			utils.RespondWithError(w, r, http.StatusConflict, "Email is already taken")
			return
		}
		log.Error().Err(err).Msg("Failed to create super admin")
		utils.RespondWithError(w, r, http.StatusInternalServerError, "Setup failed")
		return
	}

	log.Info().Str("user_id", user.ID).Msg("Super admin created by setup")
	utils.RespondWithJSON(w, r, http.StatusCreated, user)
}
