package handlers

import (
	"context"
	"net/http"
	"testing"

	"github.com/questhaven/gamevault/internal/database"
	"github.com/questhaven/gamevault/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

type fakeSetupStore struct {
	superAdmins int64
	created     *models.User
	createErr   error
}

func (s *fakeSetupStore) CountSuperAdmins(_ context.Context) (int64, error) {
	return s.superAdmins, nil
}

func (s *fakeSetupStore) CreateUser(_ context.Context, user *models.User) (*models.User, error) {
	if s.createErr != nil {
		return nil, s.createErr
	}
	user.ID = "sa1"
	s.created = user
	return user, nil
}

func TestSetupCreateSuperAdmin(t *testing.T) {
	payload := map[string]string{
		"name": "Owner", "email": "owner@example.com", "password": "secret",
	}

	t.Run("creates the super admin on an empty database", func(t *testing.T) {
		store := &fakeSetupStore{}
		h := NewSetupHandler(store)

		rec := postJSON(t, h.CreateSuperAdmin, "/api/setup/admin", payload)

		assert.Equal(t, http.StatusCreated, rec.Code)
		require.NotNil(t, store.created)
		assert.Equal(t, models.RoleSuperAdmin, store.created.Role)
		assert.Equal(t, models.StatusActive, store.created.Status)
		assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(store.created.PasswordHash), []byte("secret")))
	})

	t.Run("refuses once a super admin exists", func(t *testing.T) {
		store := &fakeSetupStore{superAdmins: 1}
		h := NewSetupHandler(store)

		rec := postJSON(t, h.CreateSuperAdmin, "/api/setup/admin", payload)

		assert.Equal(t, http.StatusForbidden, rec.Code)
		assert.Nil(t, store.created)
	})

	t.Run("missing fields get 400", func(t *testing.T) {
		h := NewSetupHandler(&fakeSetupStore{})

		rec := postJSON(t, h.CreateSuperAdmin, "/api/setup/admin", map[string]string{"email": "owner@example.com"})
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("taken email gets 409", func(t *testing.T) {
		h := NewSetupHandler(&fakeSetupStore{createErr: database.ErrDuplicate})

		rec := postJSON(t, h.CreateSuperAdmin, "/api/setup/admin", payload)
		assert.Equal(t, http.StatusConflict, rec.Code)
	})
}
