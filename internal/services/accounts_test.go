package services

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/questhaven/gamevault/internal/database"
	"github.com/questhaven/gamevault/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/v2/bson"
)

// fakeAccountStore is an in-memory AccountStore.
type fakeAccountStore struct {
	mu    sync.Mutex
	users map[string]*models.User
}

func newFakeAccountStore() *fakeAccountStore {
	return &fakeAccountStore{users: make(map[string]*models.User)}
}

func (f *fakeAccountStore) addUser(t *testing.T, email, password string, status models.UserStatus) *models.User {
	t.Helper()
	hash, err := HashPassword(password)
	require.NoError(t, err)

	user := &models.User{
		ID:           uuid.New().String(),
		Name:         "Test User",
		Email:        email,
		PasswordHash: hash,
		Role:         models.RoleAdmin,
		Status:       status,
	}
	f.mu.Lock()
	f.users[user.ID] = user
	f.mu.Unlock()
	return user
}

func (f *fakeAccountStore) GetUserByID(_ context.Context, id string) (*models.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	user, ok := f.users[id]
	if !ok {
		return nil, database.ErrNotFound
	}
	copied := *user
	return &copied, nil
}

func (f *fakeAccountStore) GetUserByEmail(_ context.Context, email string) (*models.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, user := range f.users {
		if user.Email == email {
			copied := *user
			return &copied, nil
		}
	}
	return nil, database.ErrNotFound
}

func (f *fakeAccountStore) UpdateUser(_ context.Context, id string, update bson.M) (*models.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	user, ok := f.users[id]
	if !ok {
		return nil, database.ErrNotFound
	}
	if v, ok := update["email"].(string); ok {
		user.Email = v
	}
	if v, ok := update["name"].(string); ok {
		user.Name = v
	}
	copied := *user
	return &copied, nil
}

func (f *fakeAccountStore) SetPendingChange(_ context.Context, id string, pending *models.PendingChange) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	user, ok := f.users[id]
	if !ok {
		return database.ErrNotFound
	}
	user.PendingChange = pending
	return nil
}

func (f *fakeAccountStore) TouchLastLogin(_ context.Context, id string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if user, ok := f.users[id]; ok {
		now := time.Now()
		user.LastLogin = &now
	}
}

// recordingMailer captures the last delivered code.
type recordingMailer struct {
	email, field, code string
}

func (m *recordingMailer) SendVerificationCode(_ context.Context, email, field, code string) error {
	m.email, m.field, m.code = email, field, code
	return nil
}

func TestAuthenticate(t *testing.T) {
	ctx := context.Background()
	store := newFakeAccountStore()
	svc := NewAccountService(store, &recordingMailer{})

	active := store.addUser(t, "jane@example.com", "correct-horse", models.StatusActive)
	store.addUser(t, "blocked@example.com", "correct-horse", models.StatusBlocked)

	t.Run("valid credentials", func(t *testing.T) {
		user, err := svc.Authenticate(ctx, "jane@example.com", "correct-horse")
		require.NoError(t, err)
		assert.Equal(t, active.ID, user.ID)
	})

	t.Run("records last login", func(t *testing.T) {
		_, err := svc.Authenticate(ctx, "jane@example.com", "correct-horse")
		require.NoError(t, err)

		stored, err := store.GetUserByID(ctx, active.ID)
		require.NoError(t, err)
		assert.NotNil(t, stored.LastLogin)
	})

	t.Run("wrong password", func(t *testing.T) {
		_, err := svc.Authenticate(ctx, "jane@example.com", "wrong")
		assert.ErrorIs(t, err, ErrInvalidCredentials)
	})

	t.Run("unknown email gets the same error as wrong password", func(t *testing.T) {
		_, err := svc.Authenticate(ctx, "nobody@example.com", "whatever")
		assert.ErrorIs(t, err, ErrInvalidCredentials)
	})

	t.Run("blocked account rejected even with correct password", func(t *testing.T) {
		_, err := svc.Authenticate(ctx, "blocked@example.com", "correct-horse")
		assert.ErrorIs(t, err, ErrAccountBlocked)
	})
}

func TestRequestChange(t *testing.T) {
	ctx := context.Background()

	t.Run("stores pending change and mails the code", func(t *testing.T) {
		store := newFakeAccountStore()
		mailer := &recordingMailer{}
		svc := NewAccountService(store, mailer)
		user := store.addUser(t, "jane@example.com", "pw-123456", models.StatusActive)

		err := svc.RequestChange(ctx, user.ID, "email", "new@example.com")
		require.NoError(t, err)

		stored, err := store.GetUserByID(ctx, user.ID)
		require.NoError(t, err)
		require.NotNil(t, stored.PendingChange)
		assert.Equal(t, "email", stored.PendingChange.Field)
		assert.Equal(t, "new@example.com", stored.PendingChange.Value)
		assert.Len(t, stored.PendingChange.Code, 6)

		// Code goes to the CURRENT address, not the requested one.
		assert.Equal(t, "jane@example.com", mailer.email)
		assert.Equal(t, stored.PendingChange.Code, mailer.code)
	})

	t.Run("rejects unsupported field", func(t *testing.T) {
		store := newFakeAccountStore()
		svc := NewAccountService(store, &recordingMailer{})
		user := store.addUser(t, "jane@example.com", "pw-123456", models.StatusActive)

		err := svc.RequestChange(ctx, user.ID, "role", "super_admin")
		assert.ErrorIs(t, err, ErrInvalidChange)
	})

	t.Run("rejects empty value and malformed email", func(t *testing.T) {
		store := newFakeAccountStore()
		svc := NewAccountService(store, &recordingMailer{})
		user := store.addUser(t, "jane@example.com", "pw-123456", models.StatusActive)

		assert.ErrorIs(t, svc.RequestChange(ctx, user.ID, "name", "  "), ErrInvalidChange)
		assert.ErrorIs(t, svc.RequestChange(ctx, user.ID, "email", "not-an-address"), ErrInvalidChange)
	})

	t.Run("second request overwrites the first", func(t *testing.T) {
		store := newFakeAccountStore()
		svc := NewAccountService(store, &recordingMailer{})
		user := store.addUser(t, "jane@example.com", "pw-123456", models.StatusActive)

		require.NoError(t, svc.RequestChange(ctx, user.ID, "email", "first@example.com"))
		require.NoError(t, svc.RequestChange(ctx, user.ID, "name", "New Name"))

		stored, err := store.GetUserByID(ctx, user.ID)
		require.NoError(t, err)
		assert.Equal(t, "name", stored.PendingChange.Field)
	})
}

func TestConfirmChange(t *testing.T) {
	ctx := context.Background()

	setup := func(t *testing.T) (*AccountService, *fakeAccountStore, *models.User, string) {
		store := newFakeAccountStore()
		mailer := &recordingMailer{}
		svc := NewAccountService(store, mailer)
		user := store.addUser(t, "jane@example.com", "pw-123456", models.StatusActive)
		require.NoError(t, svc.RequestChange(ctx, user.ID, "email", "new@example.com"))
		return svc, store, user, mailer.code
	}

	t.Run("correct code applies the change and clears the record", func(t *testing.T) {
		svc, store, user, code := setup(t)

		updated, err := svc.ConfirmChange(ctx, user.ID, code)
		require.NoError(t, err)
		assert.Equal(t, "new@example.com", updated.Email)
		assert.Nil(t, updated.PendingChange)

		stored, err := store.GetUserByID(ctx, user.ID)
		require.NoError(t, err)
		assert.Nil(t, stored.PendingChange)
	})

	t.Run("wrong code keeps the pending change", func(t *testing.T) {
		svc, store, user, _ := setup(t)

		_, err := svc.ConfirmChange(ctx, user.ID, "000000")
		assert.ErrorIs(t, err, ErrCodeMismatch)

		stored, err := store.GetUserByID(ctx, user.ID)
		require.NoError(t, err)
		assert.NotNil(t, stored.PendingChange)
	})

	t.Run("no pending change", func(t *testing.T) {
		store := newFakeAccountStore()
		svc := NewAccountService(store, &recordingMailer{})
		user := store.addUser(t, "jane@example.com", "pw-123456", models.StatusActive)

		_, err := svc.ConfirmChange(ctx, user.ID, "123456")
		assert.ErrorIs(t, err, ErrNoPendingChange)
	})

	t.Run("expired change is cleared and rejected", func(t *testing.T) {
		svc, store, user, code := setup(t)
		svc.now = func() time.Time { return time.Now().Add(pendingChangeTTL + time.Minute) }

		_, err := svc.ConfirmChange(ctx, user.ID, code)
		assert.ErrorIs(t, err, ErrChangeExpired)

		stored, err := store.GetUserByID(ctx, user.ID)
		require.NoError(t, err)
		assert.Nil(t, stored.PendingChange)
	})
}

func TestGenerateVerificationCode(t *testing.T) {
	t.Run("six digits", func(t *testing.T) {
		for i := 0; i < 20; i++ {
			code := GenerateVerificationCode()
			assert.Len(t, code, 6)
			for _, r := range code {
				assert.True(t, r >= '0' && r <= '9')
			}
		}
	})
}
