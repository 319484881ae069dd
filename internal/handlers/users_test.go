package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/questhaven/gamevault/internal/database"
	"github.com/questhaven/gamevault/internal/middleware"
	"github.com/questhaven/gamevault/internal/models"
	"github.com/questhaven/gamevault/internal/services"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/v2/bson"
)

// fakeUserStore is an in-memory UserStore keyed by id with a unique-email
// rule, mirroring the Mongo index.
type fakeUserStore struct {
	users  map[string]*models.User
	nextID int
}

func newFakeUserStore(users ...*models.User) *fakeUserStore {
	s := &fakeUserStore{users: map[string]*models.User{}}
	for _, u := range users {
		s.users[u.ID] = u
	}
	return s
}

func (s *fakeUserStore) CreateUser(_ context.Context, user *models.User) (*models.User, error) {
	for _, existing := range s.users {
		if existing.Email == user.Email {
			return nil, database.ErrDuplicate
		}
	}
	s.nextID++
	user.ID = fmt.Sprintf("u%d", s.nextID)
	s.users[user.ID] = user
	return user, nil
}

func (s *fakeUserStore) GetUserByID(_ context.Context, id string) (*models.User, error) {
	user, ok := s.users[id]
	if !ok {
		return nil, database.ErrNotFound
	}
	return user, nil
}

func (s *fakeUserStore) ListUsers(_ context.Context, offset, limit int) ([]*models.User, int64, error) {
	var all []*models.User
	for _, u := range s.users {
		all = append(all, u)
	}
	return all, int64(len(all)), nil
}

func (s *fakeUserStore) UpdateUser(_ context.Context, id string, update bson.M) (*models.User, error) {
	user, ok := s.users[id]
	if !ok {
		return nil, database.ErrNotFound
	}
	if email, ok := update["email"].(string); ok {
		for otherID, other := range s.users {
			if otherID != id && other.Email == email {
				return nil, database.ErrDuplicate
			}
		}
		user.Email = email
	}
	if name, ok := update["name"].(string); ok {
		user.Name = name
	}
	if role, ok := update["role"].(models.Role); ok {
		user.Role = role
	}
	if status, ok := update["status"].(models.UserStatus); ok {
		user.Status = status
	}
	return user, nil
}

func (s *fakeUserStore) DeleteUser(_ context.Context, id string) error {
	if _, ok := s.users[id]; !ok {
		return database.ErrNotFound
	}
	delete(s.users, id)
	return nil
}

type fakeChangeFlow struct {
	requestErr error
	confirmErr error
	confirmed  *models.User
	lastField  string
	lastValue  string
}

func (f *fakeChangeFlow) RequestChange(_ context.Context, _, field, value string) error {
	f.lastField = field
	f.lastValue = value
	return f.requestErr
}

func (f *fakeChangeFlow) ConfirmChange(_ context.Context, _, _ string) (*models.User, error) {
	if f.confirmErr != nil {
		return nil, f.confirmErr
	}
	return f.confirmed, nil
}

// userRouter mounts the user handler behind a middleware injecting the
// actor's claims, standing in for the gate.
func userRouter(h *UserHandler, actor models.Role) http.Handler {
	r := chi.NewRouter()
	r.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
			ctx := middleware.WithClaims(req.Context(), &services.Claims{UserID: "actor", Role: actor})
			next.ServeHTTP(w, req.WithContext(ctx))
		})
	})
	r.Get("/api/users", h.List)
	r.Post("/api/users", h.Create)
	r.Get("/api/users/roles", h.Roles)
	r.Get("/api/users/{id}", h.Get)
	r.Patch("/api/users/{id}", h.Update)
	r.Delete("/api/users/{id}", h.Delete)
	r.Post("/api/users/change-request", h.ChangeRequest)
	r.Post("/api/users/change-confirm", h.ChangeConfirm)
	return r
}

func doJSON(t *testing.T, router http.Handler, method, path string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		buf, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(buf)
	} else {
		reader = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, reader)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func TestUserRoles(t *testing.T) {
	t.Run("admin may only assign user", func(t *testing.T) {
		router := userRouter(NewUserHandler(newFakeUserStore(), &fakeChangeFlow{}), models.RoleAdmin)

		rec := doJSON(t, router, http.MethodGet, "/api/users/roles", nil)

		assert.Equal(t, http.StatusOK, rec.Code)

		var body struct {
			Roles []models.Role `json:"roles"`
		}
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
		assert.Equal(t, []models.Role{models.RoleUser}, body.Roles)
	})

	t.Run("super_admin may assign every role", func(t *testing.T) {
		router := userRouter(NewUserHandler(newFakeUserStore(), &fakeChangeFlow{}), models.RoleSuperAdmin)

		rec := doJSON(t, router, http.MethodGet, "/api/users/roles", nil)

		var body struct {
			Roles []models.Role `json:"roles"`
		}
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
		assert.Len(t, body.Roles, 3)
	})
}

func TestUserCreateHierarchy(t *testing.T) {
	t.Run("super_admin creates an admin", func(t *testing.T) {
		store := newFakeUserStore()
		router := userRouter(NewUserHandler(store, &fakeChangeFlow{}), models.RoleSuperAdmin)

		rec := doJSON(t, router, http.MethodPost, "/api/users", map[string]string{
			"name": "Ops", "email": "ops@example.com", "password": "secret", "role": "admin",
		})

		assert.Equal(t, http.StatusCreated, rec.Code)
		assert.Len(t, store.users, 1)
	})

	t.Run("admin cannot create an admin", func(t *testing.T) {
		store := newFakeUserStore()
		router := userRouter(NewUserHandler(store, &fakeChangeFlow{}), models.RoleAdmin)

		rec := doJSON(t, router, http.MethodPost, "/api/users", map[string]string{
			"name": "Peer", "email": "peer@example.com", "password": "secret", "role": "admin",
		})

		assert.Equal(t, http.StatusForbidden, rec.Code)
		assert.Empty(t, store.users)
	})

	t.Run("admin creates a plain user, role defaults to user", func(t *testing.T) {
		store := newFakeUserStore()
		router := userRouter(NewUserHandler(store, &fakeChangeFlow{}), models.RoleAdmin)

		rec := doJSON(t, router, http.MethodPost, "/api/users", map[string]string{
			"name": "Visitor", "email": "v@example.com", "password": "secret",
		})

		assert.Equal(t, http.StatusCreated, rec.Code)
		for _, u := range store.users {
			assert.Equal(t, models.RoleUser, u.Role)
			assert.NotEqual(t, "secret", u.PasswordHash)
		}
	})

	t.Run("duplicate email gets 409", func(t *testing.T) {
		store := newFakeUserStore(&models.User{ID: "u1", Email: "taken@example.com", Role: models.RoleUser})
		router := userRouter(NewUserHandler(store, &fakeChangeFlow{}), models.RoleSuperAdmin)

		rec := doJSON(t, router, http.MethodPost, "/api/users", map[string]string{
			"name": "Dup", "email": "taken@example.com", "password": "secret",
		})

		assert.Equal(t, http.StatusConflict, rec.Code)
	})
}

func TestUserUpdateHierarchy(t *testing.T) {
	t.Run("admin cannot touch another admin", func(t *testing.T) {
		store := newFakeUserStore(&models.User{ID: "a2", Email: "a2@example.com", Role: models.RoleAdmin, Name: "Before"})
		router := userRouter(NewUserHandler(store, &fakeChangeFlow{}), models.RoleAdmin)

		rec := doJSON(t, router, http.MethodPatch, "/api/users/a2", map[string]string{"name": "After"})

		assert.Equal(t, http.StatusForbidden, rec.Code)
		assert.Equal(t, "Before", store.users["a2"].Name)
	})

	t.Run("admin cannot promote a user to admin", func(t *testing.T) {
		store := newFakeUserStore(&models.User{ID: "u1", Email: "u@example.com", Role: models.RoleUser})
		router := userRouter(NewUserHandler(store, &fakeChangeFlow{}), models.RoleAdmin)

		rec := doJSON(t, router, http.MethodPatch, "/api/users/u1", map[string]string{"role": "admin"})

		assert.Equal(t, http.StatusForbidden, rec.Code)
		assert.Equal(t, models.RoleUser, store.users["u1"].Role)
	})

	t.Run("super_admin blocks an admin", func(t *testing.T) {
		store := newFakeUserStore(&models.User{ID: "a1", Email: "a@example.com", Role: models.RoleAdmin, Status: models.StatusActive})
		router := userRouter(NewUserHandler(store, &fakeChangeFlow{}), models.RoleSuperAdmin)

		rec := doJSON(t, router, http.MethodPatch, "/api/users/a1", map[string]string{"status": "blocked"})

		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, models.StatusBlocked, store.users["a1"].Status)
	})

	t.Run("empty patch gets 400", func(t *testing.T) {
		store := newFakeUserStore(&models.User{ID: "u1", Email: "u@example.com", Role: models.RoleUser})
		router := userRouter(NewUserHandler(store, &fakeChangeFlow{}), models.RoleSuperAdmin)

		rec := doJSON(t, router, http.MethodPatch, "/api/users/u1", map[string]string{})
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("unknown target gets 404", func(t *testing.T) {
		router := userRouter(NewUserHandler(newFakeUserStore(), &fakeChangeFlow{}), models.RoleSuperAdmin)

		rec := doJSON(t, router, http.MethodPatch, "/api/users/ghost", map[string]string{"name": "X"})
		assert.Equal(t, http.StatusNotFound, rec.Code)
	})
}

func TestUserDeleteHierarchy(t *testing.T) {
	t.Run("admin cannot delete an admin", func(t *testing.T) {
		store := newFakeUserStore(&models.User{ID: "a2", Email: "a2@example.com", Role: models.RoleAdmin})
		router := userRouter(NewUserHandler(store, &fakeChangeFlow{}), models.RoleAdmin)

		rec := doJSON(t, router, http.MethodDelete, "/api/users/a2", nil)

		assert.Equal(t, http.StatusForbidden, rec.Code)
		assert.Contains(t, store.users, "a2")
	})

	t.Run("super_admin deletes an admin", func(t *testing.T) {
		store := newFakeUserStore(&models.User{ID: "a2", Email: "a2@example.com", Role: models.RoleAdmin})
		router := userRouter(NewUserHandler(store, &fakeChangeFlow{}), models.RoleSuperAdmin)

		rec := doJSON(t, router, http.MethodDelete, "/api/users/a2", nil)

		assert.Equal(t, http.StatusOK, rec.Code)
		assert.NotContains(t, store.users, "a2")
	})
}

func TestChangeFlowEndpoints(t *testing.T) {
	t.Run("request passes field and value through", func(t *testing.T) {
		flow := &fakeChangeFlow{}
		router := userRouter(NewUserHandler(newFakeUserStore(), flow), models.RoleAdmin)

		rec := doJSON(t, router, http.MethodPost, "/api/users/change-request", map[string]string{
			"field": "email", "value": "new@example.com",
		})

		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, "email", flow.lastField)
		assert.Equal(t, "new@example.com", flow.lastValue)
	})

	t.Run("invalid change gets 400", func(t *testing.T) {
		flow := &fakeChangeFlow{requestErr: services.ErrInvalidChange}
		router := userRouter(NewUserHandler(newFakeUserStore(), flow), models.RoleAdmin)

		rec := doJSON(t, router, http.MethodPost, "/api/users/change-request", map[string]string{
			"field": "password", "value": "x",
		})
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("confirm maps service errors to statuses", func(t *testing.T) {
		cases := []struct {
			err  error
			code int
		}{
			{services.ErrNoPendingChange, http.StatusBadRequest},
			{services.ErrChangeExpired, http.StatusBadRequest},
			{services.ErrCodeMismatch, http.StatusForbidden},
		}
		for _, tc := range cases {
			flow := &fakeChangeFlow{confirmErr: tc.err}
			router := userRouter(NewUserHandler(newFakeUserStore(), flow), models.RoleAdmin)

			rec := doJSON(t, router, http.MethodPost, "/api/users/change-confirm", map[string]string{"code": "123456"})
			assert.Equal(t, tc.code, rec.Code, tc.err.Error())
		}
	})

	t.Run("confirm returns the updated user", func(t *testing.T) {
		flow := &fakeChangeFlow{confirmed: &models.User{ID: "actor", Email: "new@example.com"}}
		router := userRouter(NewUserHandler(newFakeUserStore(), flow), models.RoleAdmin)

		rec := doJSON(t, router, http.MethodPost, "/api/users/change-confirm", map[string]string{"code": "123456"})

		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Contains(t, rec.Body.String(), "new@example.com")
	})
}
