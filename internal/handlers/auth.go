// Package handlers provides the HTTP handlers for the API endpoints.
// Handlers coordinate between the HTTP layer and the service layer,
// handling request parsing, validation, and response formatting.
//
// This package includes handlers for:
//   - Authentication (login, logout, current user)
//   - One-time super admin setup
//   - User management with role hierarchy
//   - Catalog, blog, redirects, settings, and SEO management
//   - The public analytics tracking endpoint and admin dashboard stats
//   - The product page scraper
//   - Health and readiness probes
package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/questhaven/gamevault/internal/middleware"
	"github.com/questhaven/gamevault/internal/models"
	"github.com/questhaven/gamevault/internal/services"
	"github.com/questhaven/gamevault/pkg/utils"
	"github.com/rs/zerolog/log"
)

// Authenticator checks login credentials.
type Authenticator interface {
	Authenticate(ctx context.Context, email, password string) (*models.User, error)
}

// TokenIssuer signs session tokens.
type TokenIssuer interface {
	Issue(userID string, role models.Role) (string, time.Time, error)
}

// UserDB is the minimal user lookup the auth handler needs.
type UserDB interface {
	GetUserByID(ctx context.Context, id string) (*models.User, error)
}

// AuthHandler handles login, logout, and the current-user endpoint.
// Logout only clears the cookie; there is no server-side token
// revocation, so an issued token stays valid until it expires.
type AuthHandler struct {
	accounts     Authenticator
	tokens       TokenIssuer
	db           UserDB
	isProduction bool
}

// NewAuthHandler creates the auth handler.
//
// Example:
//
//	authHandler := handlers.NewAuthHandler(accountSvc, tokenSvc, mongoDB, cfg.IsProduction())
//	r.Post("/api/auth/login", authHandler.Login)
func NewAuthHandler(accounts Authenticator, tokens TokenIssuer, db UserDB, isProduction bool) *AuthHandler {
	return &AuthHandler{
		accounts:     accounts,
		tokens:       tokens,
		db:           db,
		isProduction: isProduction,
	}
}

// loginRequest is the login payload.
type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Login checks credentials, sets the session cookie, and returns the
// token with the user record.
//
// Responses:
//   - 200 with {token, user} and the cookie set
//   - 400 on a malformed payload
//   - 401 on wrong email or password (indistinguishable on purpose)
//   - 403 when the account is blocked
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.RespondWithError(w, r, http.StatusBadRequest, "Invalid request body")
		return
	}
	if req.Email == "" || req.Password == "" {
		utils.RespondWithError(w, r, http.StatusBadRequest, "Email and password are required")
		return
	}

	user, err := h.accounts.Authenticate(r.Context(), req.Email, req.Password)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrAccountBlocked):
			middleware.IncrementLoginAttempts("blocked")
			utils.RespondWithError(w, r, http.StatusForbidden, "Account is blocked")
		case errors.Is(err, services.ErrInvalidCredentials):
			middleware.IncrementLoginAttempts("invalid_credentials")
			utils.RespondWithError(w, r, http.StatusUnauthorized, "Invalid credentials")
		default:
			log.Error().Err(err).Msg("Login failed")
			utils.RespondWithError(w, r, http.StatusInternalServerError, "Login failed")
		}
		return
	}

	token, expiresAt, err := h.tokens.Issue(user.ID, user.Role)
	if err != nil {
		log.Error().Err(err).Str("user_id", user.ID).Msg("Failed to issue token")
		utils.RespondWithError(w, r, http.StatusInternalServerError, "Failed to issue token")
		return
	}

	middleware.IncrementLoginAttempts("success")
	utils.SetAuthCookie(w, services.CookieName, token, expiresAt, h.isProduction)

	utils.RespondWithJSON(w, r, http.StatusOK, map[string]interface{}{
		"token": token,
		"user":  user,
	})
}

// Logout clears the session cookie. Public: logging out an absent
// session succeeds trivially. The token itself remains valid until
// expiry since there is no revocation list.
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	utils.ClearAuthCookie(w, services.CookieName)
	utils.RespondWithMessage(w, r, http.StatusOK, "Logged out")
}

// Me returns the authenticated user's record, looked up fresh so role
// or status changes made after token issue are visible.
func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	claims, ok := middleware.ClaimsFromContext(r.Context())
	if !ok {
		utils.RespondWithError(w, r, http.StatusUnauthorized, "Authentication required")
		return
	}

	user, err := h.db.GetUserByID(r.Context(), claims.UserID)
	if err != nil {
		log.Error().Err(err).Str("user_id", claims.UserID).Msg("Failed to fetch user")
		utils.RespondWithError(w, r, http.StatusInternalServerError, "Failed to fetch user")
		return
	}

	utils.RespondWithJSON(w, r, http.StatusOK, map[string]interface{}{
		"user": user,
	})
}
