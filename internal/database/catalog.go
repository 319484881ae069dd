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

// CreateGame inserts a new catalog entry. Returns ErrDuplicate on a slug
// collision.
func (m *MongoDB) CreateGame(ctx context.Context, game *models.Game) (*models.Game, error) {
	ctx, cancel := m.opCtx(ctx)
	defer cancel()

	now := time.Now()
	game.ID = uuid.New().String()
	game.CreatedAt = now
	game.UpdatedAt = now
	if game.Status == "" {
		game.Status = models.GameDraft
	}

	if _, err := m.db.Collection(collGames).InsertOne(ctx, game); err != nil {
		return nil, fmt.Errorf("failed to create game: %w", wrapErr(err))
	}
	return game, nil
}

// GetGameByID retrieves a game by id. Returns ErrNotFound if absent.
func (m *MongoDB) GetGameByID(ctx context.Context, id string) (*models.Game, error) {
	ctx, cancel := m.opCtx(ctx)
	defer cancel()

	var game models.Game
	if err := m.db.Collection(collGames).FindOne(ctx, bson.M{"_id": id}).Decode(&game); err != nil {
		return nil, wrapErr(err)
	}
	return &game, nil
}

// ListGames returns a page of games plus the total count. When activeOnly
// is set, drafts are excluded (public catalog view).
func (m *MongoDB) ListGames(ctx context.Context, activeOnly bool, offset, limit int) ([]*models.Game, int64, error) {
	ctx, cancel := m.opCtx(ctx)
	defer cancel()

	filter := bson.M{}
	if activeOnly {
		filter["status"] = models.GameActive
	}

	coll := m.db.Collection(collGames)
	total, err := coll.CountDocuments(ctx, filter)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to count games: %w", err)
	}

	cursor, err := coll.Find(ctx, filter, options.Find().
		SetSort(bson.D{{Key: "created_at", Value: -1}}).
		SetSkip(int64(offset)).
		SetLimit(int64(limit)))
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list games: %w", err)
	}

	var games []*models.Game
	if err := cursor.All(ctx, &games); err != nil {
		return nil, 0, fmt.Errorf("failed to decode games: %w", err)
	}
	return games, total, nil
}

// UpdateGame applies a partial update and returns the updated record.
// Last write wins; concurrent edits may silently overwrite each other.
func (m *MongoDB) UpdateGame(ctx context.Context, id string, update bson.M) (*models.Game, error) {
	ctx, cancel := m.opCtx(ctx)
	defer cancel()

	update["updated_at"] = time.Now()

	var game models.Game
	err := m.db.Collection(collGames).FindOneAndUpdate(ctx,
		bson.M{"_id": id},
		bson.M{"$set": update},
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	).Decode(&game)
	if err != nil {
		return nil, wrapErr(err)
	}
	return &game, nil
}

// DeleteGame removes a game. Returns ErrNotFound if absent.
func (m *MongoDB) DeleteGame(ctx context.Context, id string) error {
	ctx, cancel := m.opCtx(ctx)
	defer cancel()

	res, err := m.db.Collection(collGames).DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return fmt.Errorf("failed to delete game: %w", err)
	}
	if res.DeletedCount == 0 {
		return ErrNotFound
	}
	return nil
}

// BulkGames applies an action to each id as an independent single-document
// operation. There is no cross-document atomicity: a failure partway
// leaves earlier operations applied. The error reports only that the bulk
// failed, without per-id detail.
func (m *MongoDB) BulkGames(ctx context.Context, action models.BulkAction, ids []string, status models.GameStatus) error {
	var failed int
	for _, id := range ids {
		var err error
		switch action {
		case models.BulkDelete:
			err = m.DeleteGame(ctx, id)
		case models.BulkSetStatus:
			_, err = m.UpdateGame(ctx, id, bson.M{"status": status})
		default:
			return fmt.Errorf("unknown bulk action %q", action)
		}
		if err != nil {
			failed++
			log.Warn().Err(err).Str("game_id", id).Str("action", string(action)).Msg("Bulk operation failed for id")
		}
	}
	if failed > 0 {
		return fmt.Errorf("bulk %s failed for %d of %d ids", action, failed, len(ids))
	}
	return nil
}

// CreatePost inserts a blog post. Returns ErrDuplicate on a slug collision.
func (m *MongoDB) CreatePost(ctx context.Context, post *models.Post) (*models.Post, error) {
	ctx, cancel := m.opCtx(ctx)
	defer cancel()

	now := time.Now()
	post.ID = uuid.New().String()
	post.CreatedAt = now
	post.UpdatedAt = now
	if post.Published && post.PublishedAt == nil {
		post.PublishedAt = &now
	}

	if _, err := m.db.Collection(collPosts).InsertOne(ctx, post); err != nil {
		return nil, fmt.Errorf("failed to create post: %w", wrapErr(err))
	}
	return post, nil
}

// GetPostByID retrieves a post by id. Returns ErrNotFound if absent.
func (m *MongoDB) GetPostByID(ctx context.Context, id string) (*models.Post, error) {
	ctx, cancel := m.opCtx(ctx)
	defer cancel()

	var post models.Post
	if err := m.db.Collection(collPosts).FindOne(ctx, bson.M{"_id": id}).Decode(&post); err != nil {
		return nil, wrapErr(err)
	}
	return &post, nil
}

// ListPosts returns a page of posts plus the total count. When
// publishedOnly is set, drafts are excluded and ordering switches to
// publication time.
func (m *MongoDB) ListPosts(ctx context.Context, publishedOnly bool, offset, limit int) ([]*models.Post, int64, error) {
	ctx, cancel := m.opCtx(ctx)
	defer cancel()

	filter := bson.M{}
	sortField := "created_at"
	if publishedOnly {
		filter["published"] = true
		sortField = "published_at"
	}

	coll := m.db.Collection(collPosts)
	total, err := coll.CountDocuments(ctx, filter)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to count posts: %w", err)
	}

	cursor, err := coll.Find(ctx, filter, options.Find().
		SetSort(bson.D{{Key: sortField, Value: -1}}).
		SetSkip(int64(offset)).
		SetLimit(int64(limit)))
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list posts: %w", err)
	}

	var posts []*models.Post
	if err := cursor.All(ctx, &posts); err != nil {
		return nil, 0, fmt.Errorf("failed to decode posts: %w", err)
	}
	return posts, total, nil
}

// UpdatePost applies a partial update and returns the updated record.
func (m *MongoDB) UpdatePost(ctx context.Context, id string, update bson.M) (*models.Post, error) {
	ctx, cancel := m.opCtx(ctx)
	defer cancel()

	update["updated_at"] = time.Now()

	var post models.Post
	err := m.db.Collection(collPosts).FindOneAndUpdate(ctx,
		bson.M{"_id": id},
		bson.M{"$set": update},
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	).Decode(&post)
	if err != nil {
		return nil, wrapErr(err)
	}
	return &post, nil
}

// DeletePost removes a post. Returns ErrNotFound if absent.
func (m *MongoDB) DeletePost(ctx context.Context, id string) error {
	ctx, cancel := m.opCtx(ctx)
	defer cancel()

	res, err := m.db.Collection(collPosts).DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return fmt.Errorf("failed to delete post: %w", err)
	}
	if res.DeletedCount == 0 {
		return ErrNotFound
	}
	return nil
}
