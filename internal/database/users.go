package database

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/questhaven/gamevault/internal/models"
	"github.com/rs/zerolog/log"
	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
)

// CreateUser inserts a new user document. The id is generated here; the
// caller provides everything else including the password hash.
//
// Returns ErrDuplicate if the email is already taken.
func (m *MongoDB) CreateUser(ctx context.Context, user *models.User) (*models.User, error) {
	ctx, cancel := m.opCtx(ctx)
	defer cancel()

	now := time.Now()
	user.ID = uuid.New().String()
	user.CreatedAt = now
	user.UpdatedAt = now
	if user.Status == "" {
		user.Status = models.StatusActive
	}

	if _, err := m.db.Collection(collUsers).InsertOne(ctx, user); err != nil {
		return nil, fmt.Errorf("failed to create user: %w", wrapErr(err))
	}

	log.Info().
		Str("user_id", user.ID).
		Str("email", user.Email).
		Str("role", string(user.Role)).
		Msg("User created")

	return user, nil
}

// GetUserByID retrieves a user by id. Returns ErrNotFound if absent.
func (m *MongoDB) GetUserByID(ctx context.Context, id string) (*models.User, error) {
	ctx, cancel := m.opCtx(ctx)
	defer cancel()

	var user models.User
	err := m.db.Collection(collUsers).FindOne(ctx, bson.M{"_id": id}).Decode(&user)
	if err != nil {
		return nil, wrapErr(err)
	}
	return &user, nil
}

// GetUserByEmail retrieves a user by email. Returns ErrNotFound if absent.
func (m *MongoDB) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	ctx, cancel := m.opCtx(ctx)
	defer cancel()

	var user models.User
	err := m.db.Collection(collUsers).FindOne(ctx, bson.M{"email": email}).Decode(&user)
	if err != nil {
		return nil, wrapErr(err)
	}
	return &user, nil
}

// ListUsers returns a page of users ordered by creation time descending,
// plus the total count for pagination metadata.
func (m *MongoDB) ListUsers(ctx context.Context, offset, limit int) ([]*models.User, int64, error) {
	ctx, cancel := m.opCtx(ctx)
	defer cancel()

	coll := m.db.Collection(collUsers)

	total, err := coll.CountDocuments(ctx, bson.M{})
	if err != nil {
		return nil, 0, fmt.Errorf("failed to count users: %w", err)
	}

	cursor, err := coll.Find(ctx, bson.M{}, options.Find().
		SetSort(bson.D{{Key: "created_at", Value: -1}}).
		SetSkip(int64(offset)).
		SetLimit(int64(limit)))
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list users: %w", err)
	}

	var users []*models.User
	if err := cursor.All(ctx, &users); err != nil {
		return nil, 0, fmt.Errorf("failed to decode users: %w", err)
	}
	return users, total, nil
}

// UpdateUser applies a partial update to a user document and returns the
// updated record. Last write wins; there is no version check.
//
// Returns ErrNotFound if the id does not exist and ErrDuplicate on an
// email collision.
func (m *MongoDB) UpdateUser(ctx context.Context, id string, update bson.M) (*models.User, error) {
	ctx, cancel := m.opCtx(ctx)
	defer cancel()

	update["updated_at"] = time.Now()

	var user models.User
	err := m.db.Collection(collUsers).FindOneAndUpdate(ctx,
		bson.M{"_id": id},
		bson.M{"$set": update},
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	).Decode(&user)
	if err != nil {
		return nil, wrapErr(err)
	}
	return &user, nil
}

// SetPendingChange stores (or clears, when pending is nil) the in-flight
// email/name change sub-record on a user document.
func (m *MongoDB) SetPendingChange(ctx context.Context, id string, pending *models.PendingChange) error {
	ctx, cancel := m.opCtx(ctx)
	defer cancel()

	var op bson.M
	if pending == nil {
		op = bson.M{"$unset": bson.M{"pending_change": ""}, "$set": bson.M{"updated_at": time.Now()}}
	} else {
		op = bson.M{"$set": bson.M{"pending_change": pending, "updated_at": time.Now()}}
	}

	res, err := m.db.Collection(collUsers).UpdateOne(ctx, bson.M{"_id": id}, op)
	if err != nil {
		return fmt.Errorf("failed to store pending change: %w", err)
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

// TouchLastLogin records a successful login time. Best-effort: failures
// are logged, not surfaced, because the login itself already succeeded.
func (m *MongoDB) TouchLastLogin(ctx context.Context, id string) {
	ctx, cancel := m.opCtx(ctx)
	defer cancel()

	now := time.Now()
	_, err := m.db.Collection(collUsers).UpdateOne(ctx,
		bson.M{"_id": id},
		bson.M{"$set": bson.M{"last_login": now}})
	if err != nil {
		log.Warn().Err(err).Str("user_id", id).Msg("Failed to record last login")
	}
}

// DeleteUser removes a user document. Returns ErrNotFound if absent.
func (m *MongoDB) DeleteUser(ctx context.Context, id string) error {
	ctx, cancel := m.opCtx(ctx)
	defer cancel()

	res, err := m.db.Collection(collUsers).DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return fmt.Errorf("failed to delete user: %w", err)
	}
	if res.DeletedCount == 0 {
		return ErrNotFound
	}
	return nil
}

// CountSuperAdmins reports how many super_admin accounts exist. Used by
// the one-time setup route, which refuses to create a second one.
func (m *MongoDB) CountSuperAdmins(ctx context.Context) (int64, error) {
	ctx, cancel := m.opCtx(ctx)
	defer cancel()

	n, err := m.db.Collection(collUsers).CountDocuments(ctx, bson.M{"role": models.RoleSuperAdmin})
	if err != nil {
		return 0, fmt.Errorf("failed to count super admins: %w", err)
	}
	return n, nil
}
