package middleware

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/questhaven/gamevault/internal/database"
	"github.com/questhaven/gamevault/internal/models"
	"github.com/questhaven/gamevault/internal/services"
	"github.com/questhaven/gamevault/pkg/utils"
	"github.com/rs/zerolog/log"
)

// ctxKey is a private context key type for gate-injected values.
type ctxKey int

const claimsKey ctxKey = iota

// WithClaims stores verified session claims in the context.
func WithClaims(ctx context.Context, claims *services.Claims) context.Context {
	return context.WithValue(ctx, claimsKey, claims)
}

// ClaimsFromContext retrieves the session claims the gate placed in the
// context. ok is false on public routes where no cookie was verified.
func ClaimsFromContext(ctx context.Context) (*services.Claims, bool) {
	claims, ok := ctx.Value(claimsKey).(*services.Claims)
	return claims, ok
}

// publicAPIPaths are API endpoints that pass the gate without a session:
// login and logout, the anonymous tracking endpoint, the one-time super
// admin setup (which enforces its own one-shot rule), and the storefront
// read endpoints for the catalog and blog.
var publicAPIPaths = map[string]struct{}{
	"/api/auth/login":      {},
	"/api/auth/logout":     {},
	"/api/analytics/track": {},
	"/api/setup/admin":     {},
	"/api/catalog":         {},
	"/api/blog":            {},
}

// assetPrefixes and assetPaths are internal paths exempt from redirect
// rule lookup: static assets and operational endpoints.
var (
	assetPrefixes = []string{"/static/", "/assets/"}
	assetPaths    = map[string]struct{}{
		"/favicon.ico": {},
		"/metrics":     {},
		"/health":      {},
		"/ready":       {},
	}
)

// TokenVerifier validates a session token string.
type TokenVerifier interface {
	Verify(token string) (*services.Claims, error)
}

// Resolver looks up redirect rules for the gate and records hits.
type Resolver interface {
	Resolve(ctx context.Context, path string) (*models.Redirect, error)
	RecordHit(id string)
}

// Gate is the per-request access decision applied before routing. Every
// request terminates in exactly one of redirect, reject, or continue:
//
//  1. Public page paths (not /admin, not /api, not an asset path) are
//     checked against redirect rules; an active exact match is served as
//     the rule's stored 301/302 and the click is counted asynchronously.
//  2. /admin paths (except the login page) require a valid session cookie
//     with a back-office role; any failure bounces to the login page.
//  3. The registration page and endpoint are blocked unconditionally:
//     the page redirects to login, the API answers 403. Accounts are
//     created by admins or the one-time setup route, never self-service.
//  4. /api paths outside the public set require a back-office session,
//     else 401 JSON.
//
// Resolver or store failures during step 1 fall through to normal
// routing: availability of the page beats accuracy of the redirect.
type Gate struct {
	tokens    TokenVerifier
	resolver  Resolver
	loginPath string
}

// NewGate creates the gate. loginPath is where failed back-office page
// requests are bounced (normally /admin/login).
func NewGate(tokens TokenVerifier, resolver Resolver, loginPath string) *Gate {
	return &Gate{
		tokens:    tokens,
		resolver:  resolver,
		loginPath: loginPath,
	}
}

// Handler applies the gate decision to every request.
func (g *Gate) Handler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		path := r.URL.Path

		// Step 1: redirect rules for public page paths. Asset and
		// operational paths skip the lookup but continue unchallenged.
		if !underPath(path, "/admin") && !underPath(path, "/api") {
			if !isAssetPath(path) && g.serveRedirect(w, r, path) {
				return
			}
			next.ServeHTTP(w, r)
			return
		}

		// Step 3 is checked before the generic admin/API branches so the
		// registration paths are blocked even for authenticated admins.
		if path == "/admin/register" {
			http.Redirect(w, r, g.loginPath, http.StatusFound)
			return
		}
		if path == "/api/auth/register" {
			utils.RespondWithError(w, r, http.StatusForbidden, "Registration is disabled")
			return
		}

		// Step 2: back-office pages.
		if underPath(path, "/admin") {
			if path == g.loginPath {
				next.ServeHTTP(w, r)
				return
			}

			claims, err := g.verifyRequest(r)
			if err != nil {
				http.Redirect(w, r, g.loginPath, http.StatusFound)
				return
			}

			next.ServeHTTP(w, r.WithContext(WithClaims(r.Context(), claims)))
			return
		}

		// Step 4: API.
		if _, ok := publicAPIPaths[path]; ok {
			next.ServeHTTP(w, r)
			return
		}

		claims, err := g.verifyRequest(r)
		if err != nil {
			utils.RespondWithError(w, r, http.StatusUnauthorized, "Authentication required")
			return
		}

		next.ServeHTTP(w, r.WithContext(WithClaims(r.Context(), claims)))
	})
}

// serveRedirect consults the resolver for a public page path. Returns
// true when a redirect response was written. Lookup failures other than
// not-found are logged and treated as no-match.
func (g *Gate) serveRedirect(w http.ResponseWriter, r *http.Request, path string) bool {
	rule, err := g.resolver.Resolve(r.Context(), path)
	if err != nil {
		if !errors.Is(err, database.ErrNotFound) {
			log.Warn().Err(err).Str("path", path).Msg("Redirect lookup failed, continuing to routing")
		}
		return false
	}

	IncrementRedirectHits(rule.SourcePath)
	g.resolver.RecordHit(rule.ID)
	http.Redirect(w, r, rule.DestinationPath, rule.Type)
	return true
}

// verifyRequest validates the session cookie and requires a back-office
// role.
func (g *Gate) verifyRequest(r *http.Request) (*services.Claims, error) {
	cookie, err := r.Cookie(services.CookieName)
	if err != nil {
		return nil, err
	}

	claims, err := g.tokens.Verify(cookie.Value)
	if err != nil {
		return nil, err
	}

	if !services.IsBackOffice(claims.Role) {
		return nil, errors.New("role has no back-office access")
	}

	return claims, nil
}

// underPath reports whether path equals prefix or sits below it as a
// path segment. Sibling paths that merely share the literal prefix
// (/apiary, /administrators-handbook) do not match.
func underPath(path, prefix string) bool {
	return path == prefix || strings.HasPrefix(path, prefix+"/")
}

// isAssetPath reports whether a path belongs to static assets or
// operational endpoints exempt from redirect lookup.
func isAssetPath(path string) bool {
	if _, ok := assetPaths[path]; ok {
		return true
	}
	for _, prefix := range assetPrefixes {
		if strings.HasPrefix(path, prefix) {
			return true
		}
	}
	return false
}
