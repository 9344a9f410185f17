package handlers

import (
	"context"
	"errors"
	"net/http"
	"net/mail"
	"strings"

	"github.com/vidtube/backend/internal/media"
	"github.com/vidtube/backend/internal/models"
	"github.com/vidtube/backend/internal/repositories"
	"github.com/vidtube/backend/internal/response"
)

// UserHandler serves account and channel endpoints.
type UserHandler struct {
	Users UserStore
	Media MediaUploader
	Reads ReadModels
}

// CurrentUser handles GET /api/v1/users/current-user.
func (h UserHandler) CurrentUser(w http.ResponseWriter, r *http.Request) {
	actor, ok := requireActor(w, r)
	if !ok {
		return
	}

	user, err := h.Users.FindByID(r.Context(), actor.UserID)
	if err != nil {
		storeError(r.Context(), w, err, "user")
		return
	}
	response.JSON(r.Context(), w, http.StatusOK, user, "current user fetched successfully")
}

// UpdateAccount handles PATCH /api/v1/users/update-account.
func (h UserHandler) UpdateAccount(w http.ResponseWriter, r *http.Request) {
	actor, ok := requireActor(w, r)
	if !ok {
		return
	}
	ctx := r.Context()

	var req updateAccountRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	req.FullName = strings.TrimSpace(req.FullName)
	req.Email = strings.ToLower(strings.TrimSpace(req.Email))
	if req.FullName == "" || req.Email == "" {
		response.Error(ctx, w, http.StatusBadRequest, "fullName and email are required")
		return
	}
	if _, err := mail.ParseAddress(req.Email); err != nil {
		response.Error(ctx, w, http.StatusBadRequest, "invalid email address")
		return
	}

	user, err := h.Users.UpdateAccount(ctx, actor.UserID, req.FullName, req.Email)
	if err != nil {
		if errors.Is(err, repositories.ErrConflict) {
			response.Error(ctx, w, http.StatusConflict, "email is already in use")
			return
		}
		storeError(ctx, w, err, "user")
		return
	}
	response.JSON(ctx, w, http.StatusOK, user, "account details updated successfully")
}

// UpdateAvatar handles PATCH /api/v1/users/avatar.
func (h UserHandler) UpdateAvatar(w http.ResponseWriter, r *http.Request) {
	h.replaceImage(w, r, "avatar", media.KindAvatar, h.Users.UpdateAvatar)
}

// UpdateCoverImage handles PATCH /api/v1/users/cover-image.
func (h UserHandler) UpdateCoverImage(w http.ResponseWriter, r *http.Request) {
	h.replaceImage(w, r, "coverImage", media.KindCover, h.Users.UpdateCoverImage)
}

func (h UserHandler) replaceImage(w http.ResponseWriter, r *http.Request, field string, kind media.Kind,
	persist func(ctx context.Context, id, url string) (models.User, error)) {
	actor, ok := requireActor(w, r)
	if !ok {
		return
	}
	ctx := r.Context()

	if !parseForm(w, r) {
		return
	}

	asset, err := uploadFormFile(r, h.Media, field, kind)
	if err != nil {
		if errors.Is(err, errMissingFile) {
			response.Error(ctx, w, http.StatusBadRequest, field+" file is missing")
			return
		}
		uploadError(ctx, w, err, field)
		return
	}

	user, err := persist(ctx, actor.UserID, asset.URL)
	if err != nil {
		h.Media.Discard(ctx, asset)
		storeError(ctx, w, err, "user")
		return
	}
	response.JSON(ctx, w, http.StatusOK, user, field+" updated successfully")
}

// ChannelProfile handles GET /api/v1/users/c/{username}.
func (h UserHandler) ChannelProfile(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	username := strings.ToLower(strings.TrimSpace(r.PathValue("username")))
	if username == "" {
		response.Error(ctx, w, http.StatusBadRequest, "username is missing")
		return
	}

	profile, err := h.Reads.ChannelProfile(ctx, username, viewerID(r))
	if err != nil {
		storeError(ctx, w, err, "channel")
		return
	}
	response.JSON(ctx, w, http.StatusOK, profile, "user channel fetched successfully")
}

// WatchHistory handles GET /api/v1/users/history. An empty history is not an error.
func (h UserHandler) WatchHistory(w http.ResponseWriter, r *http.Request) {
	actor, ok := requireActor(w, r)
	if !ok {
		return
	}
	page, ok := pageFrom(w, r)
	if !ok {
		return
	}

	history, err := h.Reads.WatchHistory(r.Context(), actor.UserID, page)
	if err != nil {
		storeError(r.Context(), w, err, "watch history")
		return
	}
	response.JSON(r.Context(), w, http.StatusOK, history, "watch history fetched successfully")
}

type updateAccountRequest struct {
	FullName string `json:"fullName"`
	Email    string `json:"email"`
}
