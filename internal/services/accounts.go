package services

import (
	"context"
	"crypto/subtle"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/questhaven/gamevault/internal/database"
	"github.com/questhaven/gamevault/internal/models"
	"github.com/rs/zerolog/log"
	"go.mongodb.org/mongo-driver/v2/bson"
	"golang.org/x/crypto/bcrypt"
)

// Account flow errors, mapped to HTTP statuses by the handlers.
var (
	// ErrInvalidCredentials covers both unknown email and wrong password,
	// so login responses do not reveal which one it was.
	ErrInvalidCredentials = errors.New("invalid credentials")

	// ErrAccountBlocked rejects login for blocked accounts even with the
	// correct password.
	ErrAccountBlocked = errors.New("account is blocked")

	// ErrInvalidChange marks a change request with an unsupported field or
	// empty value.
	ErrInvalidChange = errors.New("invalid change request")

	// ErrNoPendingChange means confirm was called with nothing in flight.
	ErrNoPendingChange = errors.New("no pending change")

	// ErrChangeExpired means the pending change outlived its TTL. The
	// sub-record is cleared when this is returned.
	ErrChangeExpired = errors.New("pending change has expired")

	// ErrCodeMismatch means the submitted verification code is wrong. The
	// pending change stays in place so the user can retry.
	ErrCodeMismatch = errors.New("verification code does not match")
)

// pendingChangeTTL is how long a requested email/name change stays
// confirmable.
const pendingChangeTTL = 15 * time.Minute

// AccountStore is the persistence surface the account service needs.
// *database.MongoDB satisfies it.
type AccountStore interface {
	GetUserByID(ctx context.Context, id string) (*models.User, error)
	GetUserByEmail(ctx context.Context, email string) (*models.User, error)
	UpdateUser(ctx context.Context, id string, update bson.M) (*models.User, error)
	SetPendingChange(ctx context.Context, id string, pending *models.PendingChange) error
	TouchLastLogin(ctx context.Context, id string)
}

// AccountService owns credential checking and the two-step email/name
// change flow: request stores a code-protected pending sub-record on the
// user document, confirm applies it.
type AccountService struct {
	store  AccountStore
	mailer Mailer
	now    func() time.Time
}

// NewAccountService creates the account service.
func NewAccountService(store AccountStore, mailer Mailer) *AccountService {
	return &AccountService{
		store:  store,
		mailer: mailer,
		now:    time.Now,
	}
}

// HashPassword hashes a plaintext password with bcrypt at the default
// cost. Used at user creation and password changes.
func HashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", fmt.Errorf("failed to hash password: %w", err)
	}
	return string(hash), nil
}

// Authenticate checks an email/password pair and returns the user on
// success. Unknown email and wrong password return the same error;
// a blocked account is rejected after the password check so the two
// failures stay distinguishable in logs but not to the caller's timing.
func (s *AccountService) Authenticate(ctx context.Context, email, password string) (*models.User, error) {
	user, err := s.store.GetUserByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, database.ErrNotFound) {
			// Burn a comparison anyway to keep timing flat.
			bcrypt.CompareHashAndPassword([]byte("$2a$10$0000000000000000000000uGZbcKNnYdl1mZQW6LipDNyqmnzk0P2"), []byte(password))
			return nil, ErrInvalidCredentials
		}
		return nil, fmt.Errorf("failed to look up user: %w", err)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return nil, ErrInvalidCredentials
	}

	if user.Status == models.StatusBlocked {
		log.Warn().Str("user_id", user.ID).Msg("Login attempt on blocked account")
		return nil, ErrAccountBlocked
	}

	s.store.TouchLastLogin(ctx, user.ID)
	return user, nil
}

// RequestChange starts a two-step email or name change for a user. The
// verification code is handed to the mailer addressed to the account's
// current email, and the pending sub-record expires after 15 minutes.
// A second request overwrites any change already in flight.
func (s *AccountService) RequestChange(ctx context.Context, userID, field, value string) error {
	field = strings.ToLower(strings.TrimSpace(field))
	value = strings.TrimSpace(value)

	if field != "email" && field != "name" {
		return fmt.Errorf("%w: field must be email or name", ErrInvalidChange)
	}
	if value == "" {
		return fmt.Errorf("%w: value is required", ErrInvalidChange)
	}
	if field == "email" && !strings.Contains(value, "@") {
		return fmt.Errorf("%w: malformed email address", ErrInvalidChange)
	}

	user, err := s.store.GetUserByID(ctx, userID)
	if err != nil {
		return err
	}

	code := GenerateVerificationCode()
	pending := &models.PendingChange{
		Field:     field,
		Value:     value,
		Code:      code,
		ExpiresAt: s.now().Add(pendingChangeTTL),
	}

	if err := s.store.SetPendingChange(ctx, user.ID, pending); err != nil {
		return fmt.Errorf("failed to store pending change: %w", err)
	}

	if err := s.mailer.SendVerificationCode(ctx, user.Email, field, code); err != nil {
		// The pending record stays; the user can request again for a
		// fresh code.
		return fmt.Errorf("failed to deliver verification code: %w", err)
	}

	return nil
}

// ConfirmChange applies a pending change when the submitted code matches.
// An expired change is cleared and reported; a wrong code leaves the
// pending change in place.
func (s *AccountService) ConfirmChange(ctx context.Context, userID, code string) (*models.User, error) {
	user, err := s.store.GetUserByID(ctx, userID)
	if err != nil {
		return nil, err
	}

	pending := user.PendingChange
	if pending == nil {
		return nil, ErrNoPendingChange
	}

	if pending.Expired(s.now()) {
		if err := s.store.SetPendingChange(ctx, user.ID, nil); err != nil {
			log.Warn().Err(err).Str("user_id", user.ID).Msg("Failed to clear expired pending change")
		}
		return nil, ErrChangeExpired
	}

	if subtle.ConstantTimeCompare([]byte(pending.Code), []byte(code)) != 1 {
		return nil, ErrCodeMismatch
	}

	updated, err := s.store.UpdateUser(ctx, user.ID, bson.M{pending.Field: pending.Value})
	if err != nil {
		return nil, fmt.Errorf("failed to apply change: %w", err)
	}

	if err := s.store.SetPendingChange(ctx, user.ID, nil); err != nil {
		log.Warn().Err(err).Str("user_id", user.ID).Msg("Failed to clear confirmed pending change")
	}
	updated.PendingChange = nil

	return updated, nil
}
