package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/questhaven/gamevault/internal/database"
	"github.com/questhaven/gamevault/internal/models"
	"github.com/questhaven/gamevault/pkg/cache"
	"github.com/rs/zerolog/log"
	"go.mongodb.org/mongo-driver/v2/bson"
)

// Redirect rule validation errors, surfaced to handlers as 400/409 bodies.
var (
	// ErrInvalidRedirect marks a rule that fails static validation
	// (bad paths, unsupported status code, self-redirect).
	ErrInvalidRedirect = errors.New("invalid redirect rule")

	// ErrRedirectCycle marks a rule that would let active rules chase each
	// other in a loop (A→B with B→A). Checked at write time so the request
	// gate never has to detect cycles while serving.
	ErrRedirectCycle = errors.New("redirect rule would create a cycle")
)

// maxChainHops bounds the write-time cycle walk. Chains this deep are
// almost certainly misconfigured even when they terminate.
const maxChainHops = 10

// RedirectStore is the persistence surface the redirect service needs.
// *database.MongoDB satisfies it; tests supply an in-memory fake.
type RedirectStore interface {
	CreateRedirect(ctx context.Context, rule *models.Redirect) (*models.Redirect, error)
	GetRedirect(ctx context.Context, id string) (*models.Redirect, error)
	GetRedirectBySource(ctx context.Context, sourcePath string) (*models.Redirect, error)
	GetActiveRedirect(ctx context.Context, sourcePath string) (*models.Redirect, error)
	ListRedirects(ctx context.Context) ([]*models.Redirect, error)
	UpdateRedirect(ctx context.Context, id string, update bson.M) (*models.Redirect, error)
	DeleteRedirect(ctx context.Context, id string) error
	IncrementRedirectClicks(ctx context.Context, id string)
}

// RedirectUpdate is a partial update to a rule. Nil fields keep their
// current value.
type RedirectUpdate struct {
	SourcePath      *string `json:"source_path,omitempty"`
	DestinationPath *string `json:"destination_path,omitempty"`
	Type            *int    `json:"type,omitempty"`
	IsActive        *bool   `json:"is_active,omitempty"`
}

// RedirectService owns redirect rules: resolution for the request gate,
// CRUD for the back office, write-time cycle rejection, and the
// fire-and-forget click counter.
//
// Resolutions are cached briefly (cache-aside) because the gate consults
// the resolver on every non-admin page request. Cache failures degrade to
// store reads.
type RedirectService struct {
	store    RedirectStore
	cache    *cache.Cache // nil disables caching
	cacheTTL time.Duration
}

// NewRedirectService creates the redirect service. Pass a nil cache to
// disable resolution caching (tests, cache-disabled deployments).
func NewRedirectService(store RedirectStore, c *cache.Cache, cacheTTL time.Duration) *RedirectService {
	return &RedirectService{
		store:    store,
		cache:    c,
		cacheTTL: cacheTTL,
	}
}

// Resolve looks up an active rule matching the exact request path.
// Returns database.ErrNotFound when no active rule matches; any other
// error means the store is unhealthy and the caller should fall through to
// normal routing.
func (s *RedirectService) Resolve(ctx context.Context, path string) (*models.Redirect, error) {
	if s.cache != nil {
		var cached models.Redirect
		err := s.cache.Get(ctx, cache.RedirectKey(path), &cached)
		if err == nil {
			return &cached, nil
		}
		if !errors.Is(err, cache.ErrCacheMiss) {
			log.Warn().Err(err).Str("path", path).Msg("Redirect cache read failed, falling back to store")
		}
	}

	rule, err := s.store.GetActiveRedirect(ctx, path)
	if err != nil {
		return nil, err
	}

	if s.cache != nil {
		if err := s.cache.Set(ctx, cache.RedirectKey(path), rule, s.cacheTTL); err != nil {
			log.Warn().Err(err).Str("path", path).Msg("Failed to cache redirect resolution")
		}
	}

	return rule, nil
}

// RecordHit bumps the click counter for a rule without blocking the
// caller. Dispatched after the redirect response is prepared; a lost
// increment is acceptable, so errors are logged inside the store call and
// never surfaced.
func (s *RedirectService) RecordHit(id string) {
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		s.store.IncrementRedirectClicks(ctx, id)
	}()
}

// Create validates and persists a new rule.
func (s *RedirectService) Create(ctx context.Context, rule *models.Redirect) (*models.Redirect, error) {
	if err := validateRule(rule.SourcePath, rule.DestinationPath, rule.Type); err != nil {
		return nil, err
	}
	if rule.IsActive {
		if err := s.checkCycle(ctx, rule.SourcePath, rule.DestinationPath); err != nil {
			return nil, err
		}
	}

	created, err := s.store.CreateRedirect(ctx, rule)
	if err != nil {
		return nil, err
	}

	s.invalidate(ctx)
	return created, nil
}

// Update applies a partial update to a rule, re-running validation and the
// cycle check against the resulting state.
func (s *RedirectService) Update(ctx context.Context, id string, upd *RedirectUpdate) (*models.Redirect, error) {
	current, err := s.store.GetRedirect(ctx, id)
	if err != nil {
		return nil, err
	}

	source := current.SourcePath
	destination := current.DestinationPath
	ruleType := current.Type
	active := current.IsActive

	set := bson.M{}
	if upd.SourcePath != nil {
		source = *upd.SourcePath
		set["source_path"] = source
	}
	if upd.DestinationPath != nil {
		destination = *upd.DestinationPath
		set["destination_path"] = destination
	}
	if upd.Type != nil {
		ruleType = *upd.Type
		set["type"] = ruleType
	}
	if upd.IsActive != nil {
		active = *upd.IsActive
		set["is_active"] = active
	}

	if err := validateRule(source, destination, ruleType); err != nil {
		return nil, err
	}
	if active {
		if err := s.checkCycleExcluding(ctx, source, destination, id); err != nil {
			return nil, err
		}
	}

	updated, err := s.store.UpdateRedirect(ctx, id, set)
	if err != nil {
		return nil, err
	}

	s.invalidate(ctx)
	return updated, nil
}

// Delete removes a rule and drops cached resolutions.
func (s *RedirectService) Delete(ctx context.Context, id string) error {
	if err := s.store.DeleteRedirect(ctx, id); err != nil {
		return err
	}
	s.invalidate(ctx)
	return nil
}

// List returns all rules sorted by click count descending.
func (s *RedirectService) List(ctx context.Context) ([]*models.Redirect, error) {
	return s.store.ListRedirects(ctx)
}

// validateRule enforces the static invariants of a rule: absolute paths,
// a real redirect status code, no self-redirect.
func validateRule(source, destination string, ruleType int) error {
	if !strings.HasPrefix(source, "/") {
		return fmt.Errorf("%w: source path must start with /", ErrInvalidRedirect)
	}
	if !strings.HasPrefix(destination, "/") {
		return fmt.Errorf("%w: destination path must start with /", ErrInvalidRedirect)
	}
	if source == destination {
		return fmt.Errorf("%w: source and destination are the same path", ErrInvalidRedirect)
	}
	if ruleType != 301 && ruleType != 302 {
		return fmt.Errorf("%w: type must be 301 or 302", ErrInvalidRedirect)
	}
	return nil
}

// checkCycle walks active rules starting from the destination and fails if
// the chain reaches back to source within maxChainHops.
func (s *RedirectService) checkCycle(ctx context.Context, source, destination string) error {
	return s.checkCycleExcluding(ctx, source, destination, "")
}

// checkCycleExcluding is checkCycle with one rule id ignored, so an update
// is not tripped up by the rule's own previous state.
func (s *RedirectService) checkCycleExcluding(ctx context.Context, source, destination, excludeID string) error {
	next := destination
	for hop := 0; hop < maxChainHops; hop++ {
		if next == source {
			return fmt.Errorf("%w: %s eventually redirects back to %s", ErrRedirectCycle, destination, source)
		}

		rule, err := s.store.GetActiveRedirect(ctx, next)
		if err != nil {
			if errors.Is(err, database.ErrNotFound) {
				return nil // chain terminates
			}
			return fmt.Errorf("failed to check redirect chain: %w", err)
		}
		if rule.ID == excludeID {
			return nil
		}
		next = rule.DestinationPath
	}
	return fmt.Errorf("%w: chain from %s exceeds %d hops", ErrRedirectCycle, destination, maxChainHops)
}

// invalidate drops every cached resolution. Rules change rarely; wholesale
// invalidation is simpler than tracking which source paths were touched.
func (s *RedirectService) invalidate(ctx context.Context) {
	if s.cache == nil {
		return
	}
	if err := s.cache.DeletePattern(ctx, cache.RedirectAllPattern()); err != nil {
		log.Warn().Err(err).Msg("Failed to invalidate redirect cache")
	}
}
