package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/questhaven/gamevault/internal/database"
	"github.com/questhaven/gamevault/internal/models"
	"github.com/questhaven/gamevault/internal/services"
	"github.com/questhaven/gamevault/pkg/utils"
	"github.com/rs/zerolog/log"
	"go.mongodb.org/mongo-driver/v2/bson"
)

// PostStore is the persistence surface for blog management.
type PostStore interface {
	CreatePost(ctx context.Context, post *models.Post) (*models.Post, error)
	GetPostByID(ctx context.Context, id string) (*models.Post, error)
	ListPosts(ctx context.Context, publishedOnly bool, offset, limit int) ([]*models.Post, int64, error)
	UpdatePost(ctx context.Context, id string, update bson.M) (*models.Post, error)
	DeletePost(ctx context.Context, id string) error
}

// PostHandler handles blog management for the back office and the public
// blog listing.
type PostHandler struct {
	db PostStore
}

// NewPostHandler creates the blog handler.
func NewPostHandler(db PostStore) *PostHandler {
	return &PostHandler{db: db}
}

// List returns a page of all posts, drafts included (back office view).
func (h *PostHandler) List(w http.ResponseWriter, r *http.Request) {
	params := utils.ParsePageParams(r)

	posts, total, err := h.db.ListPosts(r.Context(), false, params.Offset, params.Limit)
	if err != nil {
		log.Error().Err(err).Msg("Failed to list posts")
		utils.RespondWithError(w, r, http.StatusInternalServerError, "Failed to list posts")
		return
	}

	utils.RespondWithJSON(w, r, http.StatusOK, utils.NewPaginatedResponse(posts, params, total))
}

// Blog returns a page of published posts for the public site, newest
// publication first. When the store is unreachable it serves the built-in
// sample posts instead of an error.
func (h *PostHandler) Blog(w http.ResponseWriter, r *http.Request) {
	params := utils.ParsePageParams(r)

	posts, total, err := h.db.ListPosts(r.Context(), true, params.Offset, params.Limit)
	if err != nil {
		log.Warn().Err(err).Msg("Blog store unreachable, serving sample data")
		utils.RespondWithJSON(w, r, http.StatusOK, utils.NewPaginatedResponse(samplePosts, params, int64(len(samplePosts))))
		return
	}

	utils.RespondWithJSON(w, r, http.StatusOK, utils.NewPaginatedResponse(posts, params, total))
}

// postRequest is the create payload for a blog post.
type postRequest struct {
	Title     string   `json:"title"`
	Slug      string   `json:"slug"`
	Excerpt   string   `json:"excerpt"`
	Content   string   `json:"content"`
	Tags      []string `json:"tags"`
	Published bool     `json:"published"`
}

// Create adds a blog post. An omitted slug is derived from the title; a
// post created as published gets its publication time stamped now.
func (h *PostHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req postRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.RespondWithError(w, r, http.StatusBadRequest, "Invalid request body")
		return
	}
	if req.Title == "" {
		utils.RespondWithError(w, r, http.StatusBadRequest, "Title is required")
		return
	}
	if req.Slug == "" {
		req.Slug = services.Slugify(req.Title)
	}

	post, err := h.db.CreatePost(r.Context(), &models.Post{
		Title:     req.Title,
		Slug:      req.Slug,
		Excerpt:   req.Excerpt,
		Content:   req.Content,
		Tags:      req.Tags,
		Published: req.Published,
	})
	if err != nil {
		if errors.Is(err, database.ErrDuplicate) {
			utils.RespondWithError(w, r, http.StatusConflict, "Slug is already taken")
			return
		}
		log.Error().Err(err).Msg("Failed to create post")
		utils.RespondWithError(w, r, http.StatusInternalServerError, "Failed to create post")
		return
	}

	utils.RespondWithJSON(w, r, http.StatusCreated, post)
}

// Get returns one post by id.
func (h *PostHandler) Get(w http.ResponseWriter, r *http.Request) {
	post, err := h.db.GetPostByID(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		if errors.Is(err, database.ErrNotFound) {
			utils.RespondWithError(w, r, http.StatusNotFound, "Post not found")
			return
		}
		log.Error().Err(err).Msg("Failed to fetch post")
		utils.RespondWithError(w, r, http.StatusInternalServerError, "Failed to fetch post")
		return
	}

	utils.RespondWithJSON(w, r, http.StatusOK, post)
}

// updatePostRequest is the partial-update payload. Nil fields keep their
// current value.
type updatePostRequest struct {
	Title     *string   `json:"title,omitempty"`
	Slug      *string   `json:"slug,omitempty"`
	Excerpt   *string   `json:"excerpt,omitempty"`
	Content   *string   `json:"content,omitempty"`
	Tags      *[]string `json:"tags,omitempty"`
	Published *bool     `json:"published,omitempty"`
}

// Update applies a partial update to a post. Flipping published to true
// on a post without a publication time stamps one now; unpublishing keeps
// the original time so republishing preserves blog ordering.
func (h *PostHandler) Update(w http.ResponseWriter, r *http.Request) {
	var req updatePostRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.RespondWithError(w, r, http.StatusBadRequest, "Invalid request body")
		return
	}

	id := chi.URLParam(r, "id")

	update := bson.M{}
	if req.Title != nil {
		if *req.Title == "" {
			utils.RespondWithError(w, r, http.StatusBadRequest, "Title cannot be empty")
			return
		}
		update["title"] = *req.Title
	}
	if req.Slug != nil {
		if *req.Slug == "" {
			utils.RespondWithError(w, r, http.StatusBadRequest, "Slug cannot be empty")
			return
		}
		update["slug"] = *req.Slug
	}
	if req.Excerpt != nil {
		update["excerpt"] = *req.Excerpt
	}
	if req.Content != nil {
		update["content"] = *req.Content
	}
	if req.Tags != nil {
		update["tags"] = *req.Tags
	}
	if req.Published != nil {
		update["published"] = *req.Published
		if *req.Published {
			current, err := h.db.GetPostByID(r.Context(), id)
			if err != nil {
				if errors.Is(err, database.ErrNotFound) {
					utils.RespondWithError(w, r, http.StatusNotFound, "Post not found")
					return
				}
				log.Error().Err(err).Msg("Failed to fetch post")
				utils.RespondWithError(w, r, http.StatusInternalServerError, "Failed to update post")
				return
			}
			if current.PublishedAt == nil {
				update["published_at"] = time.Now()
			}
		}
	}
	if len(update) == 0 {
		utils.RespondWithError(w, r, http.StatusBadRequest, "Nothing to update")
		return
	}

	post, err := h.db.UpdatePost(r.Context(), id, update)
	if err != nil {
		switch {
		case errors.Is(err, database.ErrNotFound):
			utils.RespondWithError(w, r, http.StatusNotFound, "Post not found")
		case errors.Is(err, database.ErrDuplicate):
			utils.RespondWithError(w, r, http.StatusConflict, "Slug is already taken")
		default:
			log.Error().Err(err).Msg("Failed to update post")
			utils.RespondWithError(w, r, http.StatusInternalServerError, "Failed to update post")
		}
		return
	}

	utils.RespondWithJSON(w, r, http.StatusOK, post)
}

// Delete removes a post.
func (h *PostHandler) Delete(w http.ResponseWriter, r *http.Request) {
	if err := h.db.DeletePost(r.Context(), chi.URLParam(r, "id")); err != nil {
		if errors.Is(err, database.ErrNotFound) {
			utils.RespondWithError(w, r, http.StatusNotFound, "Post not found")
			return
		}
		log.Error().Err(err).Msg("Failed to delete post")
		utils.RespondWithError(w, r, http.StatusInternalServerError, "Failed to delete post")
		return
	}

	utils.RespondWithMessage(w, r, http.StatusOK, "Post deleted")
}
