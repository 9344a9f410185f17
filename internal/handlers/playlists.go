package handlers

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/vidtube/backend/internal/models"
	"github.com/vidtube/backend/internal/response"
)

// PlaylistHandler serves playlist curation endpoints.
type PlaylistHandler struct {
	Playlists PlaylistStore
	Reads     ReadModels
	NowFunc   func() time.Time
}

// Create handles POST /api/v1/playlists.
func (h PlaylistHandler) Create(w http.ResponseWriter, r *http.Request) {
	actor, ok := requireActor(w, r)
	if !ok {
		return
	}
	ctx := r.Context()

	req, ok := decodePlaylistRequest(w, r)
	if !ok {
		return
	}

	now := nowOr(h.NowFunc)
	playlist := models.Playlist{
		ID:          uuid.NewString(),
		OwnerID:     actor.UserID,
		Name:        req.Name,
		Description: req.Description,
		Videos:      []string{},
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := h.Playlists.Create(ctx, playlist); err != nil {
		storeError(ctx, w, err, "playlist")
		return
	}
	response.JSON(ctx, w, http.StatusCreated, playlist, "playlist created successfully")
}

// ListByUser handles GET /api/v1/playlists/user/{userId}.
func (h PlaylistHandler) ListByUser(w http.ResponseWriter, r *http.Request) {
	userID, ok := pathID(w, r, "userId", "user")
	if !ok {
		return
	}
	page, ok := pageFrom(w, r)
	if !ok {
		return
	}
	ctx := r.Context()

	playlists, err := h.Reads.UserPlaylists(ctx, userID, viewerID(r), page)
	if err != nil {
		storeError(ctx, w, err, "playlist")
		return
	}
	if len(playlists) == 0 {
		response.Error(ctx, w, http.StatusNotFound, "no playlists found")
		return
	}
	response.JSON(ctx, w, http.StatusOK, playlists, "playlists fetched successfully")
}

// Get handles GET /api/v1/playlists/{playlistId}.
func (h PlaylistHandler) Get(w http.ResponseWriter, r *http.Request) {
	playlistID, ok := pathID(w, r, "playlistId", "playlist")
	if !ok {
		return
	}

	detail, err := h.Reads.PlaylistDetail(r.Context(), playlistID, viewerID(r))
	if err != nil {
		storeError(r.Context(), w, err, "playlist")
		return
	}
	response.JSON(r.Context(), w, http.StatusOK, detail, "playlist fetched successfully")
}

// Update handles PATCH /api/v1/playlists/{playlistId}.
func (h PlaylistHandler) Update(w http.ResponseWriter, r *http.Request) {
	actor, ok := requireActor(w, r)
	if !ok {
		return
	}
	playlistID, ok := pathID(w, r, "playlistId", "playlist")
	if !ok {
		return
	}

	req, ok := decodePlaylistRequest(w, r)
	if !ok {
		return
	}

	playlist, err := h.Playlists.UpdateOwned(r.Context(), playlistID, actor.UserID, req.Name, req.Description)
	if err != nil {
		storeError(r.Context(), w, err, "playlist")
		return
	}
	response.JSON(r.Context(), w, http.StatusOK, playlist, "playlist updated successfully")
}

// Delete handles DELETE /api/v1/playlists/{playlistId}.
func (h PlaylistHandler) Delete(w http.ResponseWriter, r *http.Request) {
	actor, ok := requireActor(w, r)
	if !ok {
		return
	}
	playlistID, ok := pathID(w, r, "playlistId", "playlist")
	if !ok {
		return
	}

	playlist, err := h.Playlists.DeleteOwned(r.Context(), playlistID, actor.UserID)
	if err != nil {
		storeError(r.Context(), w, err, "playlist")
		return
	}
	response.JSON(r.Context(), w, http.StatusOK, playlist, "playlist deleted successfully")
}

// AddVideo handles PATCH /api/v1/playlists/add/{videoId}/{playlistId}.
func (h PlaylistHandler) AddVideo(w http.ResponseWriter, r *http.Request) {
	h.changeVideos(w, r, h.Playlists.AddVideo, "video added to playlist")
}

// RemoveVideo handles PATCH /api/v1/playlists/remove/{videoId}/{playlistId}.
func (h PlaylistHandler) RemoveVideo(w http.ResponseWriter, r *http.Request) {
	h.changeVideos(w, r, h.Playlists.RemoveVideo, "video removed from playlist")
}

type playlistVideoOp func(ctx context.Context, playlistID, videoID, actorID string) (models.Playlist, error)

func (h PlaylistHandler) changeVideos(w http.ResponseWriter, r *http.Request, op playlistVideoOp, message string) {
	actor, ok := requireActor(w, r)
	if !ok {
		return
	}
	videoID, ok := pathID(w, r, "videoId", "video")
	if !ok {
		return
	}
	playlistID, ok := pathID(w, r, "playlistId", "playlist")
	if !ok {
		return
	}

	playlist, err := op(r.Context(), playlistID, videoID, actor.UserID)
	if err != nil {
		storeError(r.Context(), w, err, "playlist or video")
		return
	}
	response.JSON(r.Context(), w, http.StatusOK, playlist, message)
}

type playlistRequest struct {
	Name        string `json:"name"`
	Description string `json:"description"`
}

func decodePlaylistRequest(w http.ResponseWriter, r *http.Request) (playlistRequest, bool) {
	var req playlistRequest
	if !decodeJSON(w, r, &req) {
		return playlistRequest{}, false
	}
	req.Name = strings.TrimSpace(req.Name)
	req.Description = strings.TrimSpace(req.Description)
	if req.Name == "" || req.Description == "" {
		response.Error(r.Context(), w, http.StatusBadRequest, "name and description are required")
		return playlistRequest{}, false
	}
	return req, true
}
