package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/questhaven/gamevault/internal/database"
	"github.com/questhaven/gamevault/internal/middleware"
	"github.com/questhaven/gamevault/internal/models"
	"github.com/questhaven/gamevault/internal/services"
	"github.com/questhaven/gamevault/pkg/utils"
	"github.com/rs/zerolog/log"
	"go.mongodb.org/mongo-driver/v2/bson"
)

// UserStore is the persistence surface for user management.
type UserStore interface {
	CreateUser(ctx context.Context, user *models.User) (*models.User, error)
	GetUserByID(ctx context.Context, id string) (*models.User, error)
	ListUsers(ctx context.Context, offset, limit int) ([]*models.User, int64, error)
	UpdateUser(ctx context.Context, id string, update bson.M) (*models.User, error)
	DeleteUser(ctx context.Context, id string) error
}

// ChangeFlow is the two-step email/name change surface of the account
// service.
type ChangeFlow interface {
	RequestChange(ctx context.Context, userID, field, value string) error
	ConfirmChange(ctx context.Context, userID, code string) (*models.User, error)
}

// UserHandler handles back-office user management and the self-service
// change flow. Every mutation is checked against the role hierarchy:
// super_admin manages everyone, admin manages plain users only, and a
// violation leaves the target record untouched.
type UserHandler struct {
	db       UserStore
	accounts ChangeFlow
}

// NewUserHandler creates the user management handler.
func NewUserHandler(db UserStore, accounts ChangeFlow) *UserHandler {
	return &UserHandler{
		db:       db,
		accounts: accounts,
	}
}

// actorClaims pulls the gate-verified session claims; the gate guarantees
// they exist on every protected route, so a miss is a wiring bug.
func actorClaims(w http.ResponseWriter, r *http.Request) (*services.Claims, bool) {
	claims, ok := middleware.ClaimsFromContext(r.Context())
	if !ok {
		utils.RespondWithError(w, r, http.StatusUnauthorized, "Authentication required")
		return nil, false
	}
	return claims, true
}

// List returns a page of users ordered by creation time descending.
func (h *UserHandler) List(w http.ResponseWriter, r *http.Request) {
	params := utils.ParsePageParams(r)

	users, total, err := h.db.ListUsers(r.Context(), params.Offset, params.Limit)
	if err != nil {
		log.Error().Err(err).Msg("Failed to list users")
		utils.RespondWithError(w, r, http.StatusInternalServerError, "Failed to list users")
		return
	}

	utils.RespondWithJSON(w, r, http.StatusOK, utils.NewPaginatedResponse(users, params, total))
}

// Roles returns the roles the actor may assign, so the back-office user
// form only offers options the server would accept.
func (h *UserHandler) Roles(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorClaims(w, r)
	if !ok {
		return
	}

	utils.RespondWithJSON(w, r, http.StatusOK, map[string]interface{}{
		"roles": services.ManagedRoles(actor.Role),
	})
}

// createUserRequest is the payload for creating an account.
type createUserRequest struct {
	Name     string      `json:"name"`
	Email    string      `json:"email"`
	Password string      `json:"password"`
	Role     models.Role `json:"role"`
}

// Create adds a new account with a role the actor is allowed to manage.
//
// Responses: 201 with the user, 400 on a bad payload, 403 when the
// actor's role cannot manage the requested role, 409 on a taken email.
func (h *UserHandler) Create(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorClaims(w, r)
	if !ok {
		return
	}

	var req createUserRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.RespondWithError(w, r, http.StatusBadRequest, "Invalid request body")
		return
	}
	if req.Name == "" || req.Email == "" || req.Password == "" {
		utils.RespondWithError(w, r, http.StatusBadRequest, "Name, email, and password are required")
		return
	}
	if req.Role == "" {
		req.Role = models.RoleUser
	}
	if !req.Role.Valid() {
		utils.RespondWithError(w, r, http.StatusBadRequest, "Unknown role")
		return
	}
	if !services.CanManage(actor.Role, req.Role) {
		utils.RespondWithError(w, r, http.StatusForbidden, "Your role cannot create accounts with this role")
		return
	}

	hash, err := services.HashPassword(req.Password)
	if err != nil {
		log.Error().Err(err).Msg("Failed to hash password")
		utils.RespondWithError(w, r, http.StatusInternalServerError, "Failed to create user")
		return
	}

	user, err := h.db.CreateUser(r.Context(), &models.User{
		Name:         req.Name,
		Email:        req.Email,
		PasswordHash: hash,
		Role:         req.Role,
		Status:       models.StatusActive,
	})
	if err != nil {
		if errors.Is(err, database.ErrDuplicate) {
			utils.RespondWithError(w, r, http.StatusConflict, "Email is already taken")
			return
		}
		log.Error().Err(err).Msg("Failed to create user")
		utils.RespondWithError(w, r, http.StatusInternalServerError, "Failed to create user")
		return
	}

	utils.RespondWithJSON(w, r, http.StatusCreated, user)
}

// Get returns one user the actor is allowed to manage.
func (h *UserHandler) Get(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorClaims(w, r)
	if !ok {
		return
	}

	user, err := h.db.GetUserByID(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		if errors.Is(err, database.ErrNotFound) {
			utils.RespondWithError(w, r, http.StatusNotFound, "User not found")
			return
		}
		log.Error().Err(err).Msg("Failed to fetch user")
		utils.RespondWithError(w, r, http.StatusInternalServerError, "Failed to fetch user")
		return
	}

	if !services.CanManage(actor.Role, user.Role) {
		utils.RespondWithError(w, r, http.StatusForbidden, "Your role cannot manage this account")
		return
	}

	utils.RespondWithJSON(w, r, http.StatusOK, user)
}

// updateUserRequest is the partial-update payload. Nil fields keep their
// current value.
type updateUserRequest struct {
	Name     *string            `json:"name,omitempty"`
	Email    *string            `json:"email,omitempty"`
	Password *string            `json:"password,omitempty"`
	Role     *models.Role       `json:"role,omitempty"`
	Status   *models.UserStatus `json:"status,omitempty"`
}

// Update applies a partial update to an account the actor manages. A role
// change additionally requires the actor to manage the new role, so an
// admin cannot promote a user into a peer.
func (h *UserHandler) Update(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorClaims(w, r)
	if !ok {
		return
	}

	var req updateUserRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.RespondWithError(w, r, http.StatusBadRequest, "Invalid request body")
		return
	}

	target, err := h.db.GetUserByID(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		if errors.Is(err, database.ErrNotFound) {
			utils.RespondWithError(w, r, http.StatusNotFound, "User not found")
			return
		}
		log.Error().Err(err).Msg("Failed to fetch user")
		utils.RespondWithError(w, r, http.StatusInternalServerError, "Failed to fetch user")
		return
	}
	if !services.CanManage(actor.Role, target.Role) {
		utils.RespondWithError(w, r, http.StatusForbidden, "Your role cannot manage this account")
		return
	}

	update := bson.M{}
	if req.Name != nil {
		if *req.Name == "" {
			utils.RespondWithError(w, r, http.StatusBadRequest, "Name cannot be empty")
			return
		}
		update["name"] = *req.Name
	}
	if req.Email != nil {
		if *req.Email == "" {
			utils.RespondWithError(w, r, http.StatusBadRequest, "Email cannot be empty")
			return
		}
		update["email"] = *req.Email
	}
	if req.Password != nil {
		hash, err := services.HashPassword(*req.Password)
		if err != nil {
			log.Error().Err(err).Msg("Failed to hash password")
			utils.RespondWithError(w, r, http.StatusInternalServerError, "Failed to update user")
			return
		}
		update["password_hash"] = hash
	}
	if req.Role != nil {
		if !req.Role.Valid() {
			utils.RespondWithError(w, r, http.StatusBadRequest, "Unknown role")
			return
		}
		if !services.CanManage(actor.Role, *req.Role) {
			utils.RespondWithError(w, r, http.StatusForbidden, "Your role cannot assign this role")
			return
		}
		update["role"] = *req.Role
	}
	if req.Status != nil {
		if *req.Status != models.StatusActive && *req.Status != models.StatusBlocked {
			utils.RespondWithError(w, r, http.StatusBadRequest, "Unknown status")
			return
		}
		update["status"] = *req.Status
	}
	if len(update) == 0 {
		utils.RespondWithError(w, r, http.StatusBadRequest, "Nothing to update")
		return
	}

	user, err := h.db.UpdateUser(r.Context(), target.ID, update)
	if err != nil {
		if errors.Is(err, database.ErrDuplicate) {
			utils.RespondWithError(w, r, http.StatusConflict, "Email is already taken")
			return
		}
		log.Error().Err(err).Str("user_id", target.ID).Msg("Failed to update user")
		utils.RespondWithError(w, r, http.StatusInternalServerError, "Failed to update user")
		return
	}

	utils.RespondWithJSON(w, r, http.StatusOK, user)
}

// Delete removes an account the actor manages.
func (h *UserHandler) Delete(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorClaims(w, r)
	if !ok {
		return
	}

	id := chi.URLParam(r, "id")
	target, err := h.db.GetUserByID(r.Context(), id)
	if err != nil {
		if errors.Is(err, database.ErrNotFound) {
			utils.RespondWithError(w, r, http.StatusNotFound, "User not found")
			return
		}
		log.Error().Err(err).Msg("Failed to fetch user")
		utils.RespondWithError(w, r, http.StatusInternalServerError, "Failed to delete user")
		return
	}
	if !services.CanManage(actor.Role, target.Role) {
		utils.RespondWithError(w, r, http.StatusForbidden, "Your role cannot manage this account")
		return
	}

	if err := h.db.DeleteUser(r.Context(), id); err != nil {
		if errors.Is(err, database.ErrNotFound) {
			utils.RespondWithError(w, r, http.StatusNotFound, "User not found")
			return
		}
		log.Error().Err(err).Str("user_id", id).Msg("Failed to delete user")
		utils.RespondWithError(w, r, http.StatusInternalServerError, "Failed to delete user")
		return
	}

	utils.RespondWithMessage(w, r, http.StatusOK, "User deleted")
}

// changeRequestPayload asks to change the actor's own email or name.
type changeRequestPayload struct {
	Field string `json:"field"`
	Value string `json:"value"`
}

// ChangeRequest starts a two-step email/name change for the authenticated
// actor. The verification code goes to the account's current email.
func (h *UserHandler) ChangeRequest(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorClaims(w, r)
	if !ok {
		return
	}

	var req changeRequestPayload
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.RespondWithError(w, r, http.StatusBadRequest, "Invalid request body")
		return
	}

	if err := h.accounts.RequestChange(r.Context(), actor.UserID, req.Field, req.Value); err != nil {
		switch {
		case errors.Is(err, services.ErrInvalidChange):
			utils.RespondWithError(w, r, http.StatusBadRequest, err.Error())
		case errors.Is(err, database.ErrNotFound):
			utils.RespondWithError(w, r, http.StatusNotFound, "User not found")
		default:
			log.Error().Err(err).Str("user_id", actor.UserID).Msg("Failed to start change request")
			utils.RespondWithError(w, r, http.StatusInternalServerError, "Failed to start change request")
		}
		return
	}

	utils.RespondWithMessage(w, r, http.StatusOK, "Verification code sent")
}

// changeConfirmPayload carries the emailed verification code.
type changeConfirmPayload struct {
	Code string `json:"code"`
}

// ChangeConfirm applies the actor's pending change when the code matches.
//
// Responses: 200 with the updated user; 400 when nothing is pending or
// the request expired; 403 on a wrong code (the pending change survives
// for a retry).
func (h *UserHandler) ChangeConfirm(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorClaims(w, r)
	if !ok {
		return
	}

	var req changeConfirmPayload
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.RespondWithError(w, r, http.StatusBadRequest, "Invalid request body")
		return
	}

	user, err := h.accounts.ConfirmChange(r.Context(), actor.UserID, req.Code)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrNoPendingChange):
			utils.RespondWithError(w, r, http.StatusBadRequest, "No change is pending")
		case errors.Is(err, services.ErrChangeExpired):
			utils.RespondWithError(w, r, http.StatusBadRequest, "The change request has expired")
		case errors.Is(err, services.ErrCodeMismatch):
			utils.RespondWithError(w, r, http.StatusForbidden, "Verification code does not match")
		case errors.Is(err, database.ErrNotFound):
			utils.RespondWithError(w, r, http.StatusNotFound, "User not found")
		default:
			log.Error().Err(err).Str("user_id", actor.UserID).Msg("Failed to confirm change")
			utils.RespondWithError(w, r, http.StatusInternalServerError, "Failed to confirm change")
		}
		return
	}

	utils.RespondWithJSON(w, r, http.StatusOK, user)
}
