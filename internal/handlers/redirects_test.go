package handlers

import (
	"context"
	"net/http"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/questhaven/gamevault/internal/database"
	"github.com/questhaven/gamevault/internal/models"
	"github.com/questhaven/gamevault/internal/services"
	"github.com/stretchr/testify/assert"
)

type fakeRedirectManager struct {
	rules     []*models.Redirect
	createErr error
	updateErr error
	deleteErr error
	created   *models.Redirect
}

func (f *fakeRedirectManager) List(_ context.Context) ([]*models.Redirect, error) {
	return f.rules, nil
}

func (f *fakeRedirectManager) Create(_ context.Context, rule *models.Redirect) (*models.Redirect, error) {
	if f.createErr != nil {
		return nil, f.createErr
	}
	rule.ID = "r1"
	f.created = rule
	return rule, nil
}

func (f *fakeRedirectManager) Update(_ context.Context, id string, _ *services.RedirectUpdate) (*models.Redirect, error) {
	if f.updateErr != nil {
		return nil, f.updateErr
	}
	return &models.Redirect{ID: id}, nil
}

func (f *fakeRedirectManager) Delete(_ context.Context, _ string) error {
	return f.deleteErr
}

func redirectRouter(h *RedirectHandler) http.Handler {
	r := chi.NewRouter()
	r.Get("/api/redirects", h.List)
	r.Post("/api/redirects", h.Create)
	r.Patch("/api/redirects/{id}", h.Update)
	r.Delete("/api/redirects/{id}", h.Delete)
	return r
}

func TestRedirectCreate(t *testing.T) {
	t.Run("defaults type to 302", func(t *testing.T) {
		manager := &fakeRedirectManager{}
		router := redirectRouter(NewRedirectHandler(manager))

		rec := doJSON(t, router, http.MethodPost, "/api/redirects", map[string]interface{}{
			"source_path": "/old", "destination_path": "/new", "is_active": true,
		})

		assert.Equal(t, http.StatusCreated, rec.Code)
		assert.Equal(t, http.StatusFound, manager.created.Type)
	})

	t.Run("validation failure gets 400", func(t *testing.T) {
		manager := &fakeRedirectManager{createErr: services.ErrInvalidRedirect}
		router := redirectRouter(NewRedirectHandler(manager))

		rec := doJSON(t, router, http.MethodPost, "/api/redirects", map[string]interface{}{
			"source_path": "old", "destination_path": "/new",
		})
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("cycle gets 409", func(t *testing.T) {
		manager := &fakeRedirectManager{createErr: services.ErrRedirectCycle}
		router := redirectRouter(NewRedirectHandler(manager))

		rec := doJSON(t, router, http.MethodPost, "/api/redirects", map[string]interface{}{
			"source_path": "/a", "destination_path": "/b",
		})
		assert.Equal(t, http.StatusConflict, rec.Code)
	})

	t.Run("taken source path gets 409", func(t *testing.T) {
		manager := &fakeRedirectManager{createErr: database.ErrDuplicate}
		router := redirectRouter(NewRedirectHandler(manager))

		rec := doJSON(t, router, http.MethodPost, "/api/redirects", map[string]interface{}{
			"source_path": "/a", "destination_path": "/b",
		})
		assert.Equal(t, http.StatusConflict, rec.Code)
	})
}

func TestRedirectUpdateAndDelete(t *testing.T) {
	t.Run("unknown rule gets 404", func(t *testing.T) {
		manager := &fakeRedirectManager{updateErr: database.ErrNotFound}
		router := redirectRouter(NewRedirectHandler(manager))

		rec := doJSON(t, router, http.MethodPatch, "/api/redirects/ghost", map[string]interface{}{
			"is_active": false,
		})
		assert.Equal(t, http.StatusNotFound, rec.Code)
	})

	t.Run("delete succeeds", func(t *testing.T) {
		router := redirectRouter(NewRedirectHandler(&fakeRedirectManager{}))

		rec := doJSON(t, router, http.MethodDelete, "/api/redirects/r1", nil)
		assert.Equal(t, http.StatusOK, rec.Code)
	})
}
