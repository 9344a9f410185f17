package handlers

import (
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/vidtube/backend/internal/models"
	"github.com/vidtube/backend/internal/response"
)

// CommentHandler serves the comment endpoints of a video.
type CommentHandler struct {
	Comments CommentStore
	Reads    ReadModels
	NowFunc  func() time.Time
}

// List handles GET /api/v1/comments/{videoId}, newest first.
func (h CommentHandler) List(w http.ResponseWriter, r *http.Request) {
	videoID, ok := pathID(w, r, "videoId", "video")
	if !ok {
		return
	}
	page, ok := pageFrom(w, r)
	if !ok {
		return
	}
	ctx := r.Context()

	comments, err := h.Reads.VideoComments(ctx, videoID, page)
	if err != nil {
		storeError(ctx, w, err, "comment")
		return
	}
	if len(comments) == 0 {
		response.Error(ctx, w, http.StatusNotFound, "no comments found")
		return
	}
	response.JSON(ctx, w, http.StatusOK, comments, "comments fetched successfully")
}

// Add handles POST /api/v1/comments/{videoId}.
func (h CommentHandler) Add(w http.ResponseWriter, r *http.Request) {
	actor, ok := requireActor(w, r)
	if !ok {
		return
	}
	videoID, ok := pathID(w, r, "videoId", "video")
	if !ok {
		return
	}
	ctx := r.Context()

	var req contentRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	content := strings.TrimSpace(req.Content)
	if content == "" {
		response.Error(ctx, w, http.StatusBadRequest, "content is required")
		return
	}

	now := nowOr(h.NowFunc)
	comment := models.Comment{
		ID:        uuid.NewString(),
		VideoID:   videoID,
		OwnerID:   actor.UserID,
		Content:   content,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := h.Comments.Create(ctx, comment); err != nil {
		storeError(ctx, w, err, "video")
		return
	}
	response.JSON(ctx, w, http.StatusCreated, comment, "comment added successfully")
}

// Update handles PATCH /api/v1/comments/c/{commentId}.
func (h CommentHandler) Update(w http.ResponseWriter, r *http.Request) {
	actor, ok := requireActor(w, r)
	if !ok {
		return
	}
	commentID, ok := pathID(w, r, "commentId", "comment")
	if !ok {
		return
	}
	ctx := r.Context()

	var req contentRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	content := strings.TrimSpace(req.Content)
	if content == "" {
		response.Error(ctx, w, http.StatusBadRequest, "content is required")
		return
	}

	comment, err := h.Comments.UpdateOwned(ctx, commentID, actor.UserID, content)
	if err != nil {
		storeError(ctx, w, err, "comment")
		return
	}
	response.JSON(ctx, w, http.StatusOK, comment, "comment updated successfully")
}

// Delete handles DELETE /api/v1/comments/c/{commentId}.
func (h CommentHandler) Delete(w http.ResponseWriter, r *http.Request) {
	actor, ok := requireActor(w, r)
	if !ok {
		return
	}
	commentID, ok := pathID(w, r, "commentId", "comment")
	if !ok {
		return
	}

	comment, err := h.Comments.DeleteOwned(r.Context(), commentID, actor.UserID)
	if err != nil {
		storeError(r.Context(), w, err, "comment")
		return
	}
	response.JSON(r.Context(), w, http.StatusOK, comment, "comment deleted successfully")
}

type contentRequest struct {
	Content string `json:"content"`
}

func nowOr(fn func() time.Time) time.Time {
	if fn != nil {
		return fn()
	}
	return time.Now().UTC()
}
