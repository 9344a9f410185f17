package handlers

import (
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/vidtube/backend/internal/models"
	"github.com/vidtube/backend/internal/response"
)

// TweetHandler serves short text posts.
type TweetHandler struct {
	Tweets  TweetStore
	Reads   ReadModels
	NowFunc func() time.Time
}

// Create handles POST /api/v1/tweets.
func (h TweetHandler) Create(w http.ResponseWriter, r *http.Request) {
	actor, ok := requireActor(w, r)
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
	tweet := models.Tweet{
		ID:        uuid.NewString(),
		OwnerID:   actor.UserID,
		Content:   content,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := h.Tweets.Create(ctx, tweet); err != nil {
		storeError(ctx, w, err, "tweet")
		return
	}
	response.JSON(ctx, w, http.StatusCreated, tweet, "tweet created successfully")
}

// ListByUser handles GET /api/v1/tweets/user/{userId}, newest first.
func (h TweetHandler) ListByUser(w http.ResponseWriter, r *http.Request) {
	userID, ok := pathID(w, r, "userId", "user")
	if !ok {
		return
	}
	page, ok := pageFrom(w, r)
	if !ok {
		return
	}
	ctx := r.Context()

	tweets, err := h.Reads.UserTweets(ctx, userID, page)
	if err != nil {
		storeError(ctx, w, err, "tweet")
		return
	}
	if len(tweets) == 0 {
		response.Error(ctx, w, http.StatusNotFound, "no tweets found")
		return
	}
	response.JSON(ctx, w, http.StatusOK, tweets, "tweets fetched successfully")
}

// Update handles PATCH /api/v1/tweets/{tweetId}.
func (h TweetHandler) Update(w http.ResponseWriter, r *http.Request) {
	actor, ok := requireActor(w, r)
	if !ok {
		return
	}
	tweetID, ok := pathID(w, r, "tweetId", "tweet")
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

	tweet, err := h.Tweets.UpdateOwned(ctx, tweetID, actor.UserID, content)
	if err != nil {
		storeError(ctx, w, err, "tweet")
		return
	}
	response.JSON(ctx, w, http.StatusOK, tweet, "tweet updated successfully")
}

// Delete handles DELETE /api/v1/tweets/{tweetId}.
func (h TweetHandler) Delete(w http.ResponseWriter, r *http.Request) {
	actor, ok := requireActor(w, r)
	if !ok {
		return
	}
	tweetID, ok := pathID(w, r, "tweetId", "tweet")
	if !ok {
		return
	}

	tweet, err := h.Tweets.DeleteOwned(r.Context(), tweetID, actor.UserID)
	if err != nil {
		storeError(r.Context(), w, err, "tweet")
		return
	}
	response.JSON(r.Context(), w, http.StatusOK, tweet, "tweet deleted successfully")
}
