// Package services contains the application's business logic: session
// tokens, role authorization, redirect resolution, analytics aggregation,
// page scraping, and the two-step account change flow. Services depend on
// narrow store interfaces so they can be tested with in-memory fakes.
package services

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/questhaven/gamevault/internal/models"
	"github.com/questhaven/gamevault/pkg/config"
)

// CookieName is the session cookie holding the signed token.
const CookieName = "token"

// TokenService issues and verifies session tokens. Tokens are HS256 JWTs
// with a fixed 7-day lifetime. There is no revocation list: logout only
// clears the cookie, and an issued token stays valid until expiry. This is
// a known trade-off of the single-cookie session model.
type TokenService struct {
	secret []byte
	expiry time.Duration
}

// Claims are the session token claims: the user's id and role plus the
// standard registered claims (exp, iat, nbf).
type Claims struct {
	UserID string      `json:"user_id"`
	Role   models.Role `json:"role"`
	jwt.RegisteredClaims
}

// NewTokenService creates a token service from the JWT configuration.
//
// Example:
//
//	tokenSvc := services.NewTokenService(&cfg.JWT)
//	token, expiresAt, err := tokenSvc.Issue(user.ID, user.Role)
func NewTokenService(cfg *config.JWTConfig) *TokenService {
	return &TokenService{
		secret: cfg.Secret,
		expiry: cfg.Expiry,
	}
}

// Issue signs a session token for a user. Returns the token string and its
// expiration time, which the handler mirrors onto the cookie.
func (s *TokenService) Issue(userID string, role models.Role) (string, time.Time, error) {
	now := time.Now()
	expiresAt := now.Add(s.expiry)

	claims := Claims{
		UserID: userID,
		Role:   role,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(expiresAt),
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(s.secret)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("failed to sign token: %w", err)
	}

	return signed, expiresAt, nil
}

// Verify parses and validates a session token, returning its claims.
// Fails with an error (never a panic) on a bad signature, malformed input,
// an unexpected signing method, or an expired token.
func (s *TokenService) Verify(tokenString string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return s.secret, nil
	})
	if err != nil {
		return nil, fmt.Errorf("invalid token: %w", err)
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, fmt.Errorf("invalid token claims")
	}

	return claims, nil
}
