package handlers

import (
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/vidtube/backend/internal/logging"
	"github.com/vidtube/backend/internal/media"
	"github.com/vidtube/backend/internal/models"
	"github.com/vidtube/backend/internal/readmodel"
	"github.com/vidtube/backend/internal/response"
)

// VideoHandler coordinates video publishing and browsing.
type VideoHandler struct {
	Videos  VideoStore
	Media   MediaUploader
	Reads   ReadModels
	NowFunc func() time.Time
}

// List handles GET /api/v1/videos. An empty page is not an error.
func (h VideoHandler) List(w http.ResponseWriter, r *http.Request) {
	actor, ok := requireActor(w, r)
	if !ok {
		return
	}
	ctx := r.Context()

	page, ok := pageFrom(w, r)
	if !ok {
		return
	}

	query := r.URL.Query()
	sortBy, err := readmodel.ParseVideoSortField(query.Get("sortBy"))
	if err != nil {
		response.Error(ctx, w, http.StatusBadRequest, "sortBy must be one of createdAt, views, duration, title")
		return
	}
	direction, err := readmodel.ParseDirection(query.Get("sortType"))
	if err != nil {
		response.Error(ctx, w, http.StatusBadRequest, "sortType must be asc or desc")
		return
	}

	var ownerID string
	if raw := strings.TrimSpace(query.Get("userId")); raw != "" {
		id, err := uuid.Parse(raw)
		if err != nil {
			response.Error(ctx, w, http.StatusBadRequest, "invalid user id")
			return
		}
		ownerID = id.String()
	}

	feed, err := h.Reads.VideoFeed(ctx, readmodel.FeedQuery{
		Search:    strings.TrimSpace(query.Get("query")),
		OwnerID:   ownerID,
		ViewerID:  actor.UserID,
		SortBy:    sortBy,
		Direction: direction,
		Page:      page,
	})
	if err != nil {
		storeError(ctx, w, err, "video")
		return
	}
	response.JSON(ctx, w, http.StatusOK, feed, "videos fetched successfully")
}

// Publish handles POST /api/v1/videos multipart requests carrying videoFile and thumbnail.
func (h VideoHandler) Publish(w http.ResponseWriter, r *http.Request) {
	actor, ok := requireActor(w, r)
	if !ok {
		return
	}
	ctx := r.Context()
	logger := logging.FromContext(ctx)

	if h.Videos == nil || h.Media == nil {
		logger.Error("video dependencies unavailable", "hasVideos", h.Videos != nil, "hasMedia", h.Media != nil)
		response.Error(ctx, w, http.StatusInternalServerError, "video services unavailable")
		return
	}

	if !parseForm(w, r) {
		return
	}

	title, _ := formValue(r, "title")
	description, _ := formValue(r, "description")
	if title == "" || description == "" {
		response.Error(ctx, w, http.StatusBadRequest, "title and description are required")
		return
	}
	if !hasFormFile(r, "videoFile") || !hasFormFile(r, "thumbnail") {
		response.Error(ctx, w, http.StatusBadRequest, "videoFile and thumbnail are required")
		return
	}

	videoAsset, err := uploadFormFile(r, h.Media, "videoFile", media.KindVideo)
	if err != nil {
		uploadError(ctx, w, err, "video file")
		return
	}
	thumbnail, err := uploadFormFile(r, h.Media, "thumbnail", media.KindThumbnail)
	if err != nil {
		h.Media.Discard(ctx, videoAsset)
		uploadError(ctx, w, err, "thumbnail")
		return
	}

	now := h.now()
	video := models.Video{
		ID:          uuid.NewString(),
		OwnerID:     actor.UserID,
		VideoFile:   videoAsset.URL,
		Thumbnail:   thumbnail.URL,
		Title:       title,
		Description: description,
		Duration:    videoAsset.Duration,
		IsPublished: true,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	if err := h.Videos.Create(ctx, video); err != nil {
		h.Media.Discard(ctx, videoAsset, thumbnail)
		storeError(ctx, w, err, "video")
		return
	}

	logger.Info("video published", "videoId", video.ID, "duration", video.Duration)
	response.JSON(ctx, w, http.StatusCreated, video, "video published successfully")
}

// Get handles GET /api/v1/videos/{videoId}. Authenticated viewers have the
// view counted and recorded in their watch history.
func (h VideoHandler) Get(w http.ResponseWriter, r *http.Request) {
	videoID, ok := pathID(w, r, "videoId", "video")
	if !ok {
		return
	}
	ctx := r.Context()
	viewer := viewerID(r)

	detail, err := h.Reads.VideoDetail(ctx, videoID, viewer)
	if err != nil {
		storeError(ctx, w, err, "video")
		return
	}

	if viewer != "" {
		if err := h.Videos.RecordView(ctx, videoID, viewer); err != nil {
			logging.FromContext(ctx).Warn("record video view failed", "videoId", videoID, "error", err)
		} else {
			detail.Views++
		}
	}

	response.JSON(ctx, w, http.StatusOK, detail, "video fetched successfully")
}

// Update handles PATCH /api/v1/videos/{videoId}. title, description and a
// thumbnail file are each optional but at least one must be sent.
func (h VideoHandler) Update(w http.ResponseWriter, r *http.Request) {
	actor, ok := requireActor(w, r)
	if !ok {
		return
	}
	videoID, ok := pathID(w, r, "videoId", "video")
	if !ok {
		return
	}
	ctx := r.Context()

	if !parseForm(w, r) {
		return
	}

	var patch models.VideoPatch
	if title, sent := formValue(r, "title"); sent {
		if title == "" {
			response.Error(ctx, w, http.StatusBadRequest, "title must not be empty")
			return
		}
		patch.Title = &title
	}
	if description, sent := formValue(r, "description"); sent {
		if description == "" {
			response.Error(ctx, w, http.StatusBadRequest, "description must not be empty")
			return
		}
		patch.Description = &description
	}

	var thumbnail models.MediaAsset
	if hasFormFile(r, "thumbnail") {
		asset, err := uploadFormFile(r, h.Media, "thumbnail", media.KindThumbnail)
		if err != nil {
			uploadError(ctx, w, err, "thumbnail")
			return
		}
		thumbnail = asset
		patch.Thumbnail = &asset.URL
	}

	if patch.Empty() {
		response.Error(ctx, w, http.StatusBadRequest, "nothing to update")
		return
	}

	video, err := h.Videos.UpdateOwned(ctx, videoID, actor.UserID, patch)
	if err != nil {
		if thumbnail.Key != "" {
			h.Media.Discard(ctx, thumbnail)
		}
		storeError(ctx, w, err, "video")
		return
	}
	response.JSON(ctx, w, http.StatusOK, video, "video updated successfully")
}

// Delete handles DELETE /api/v1/videos/{videoId} and returns the removed record.
func (h VideoHandler) Delete(w http.ResponseWriter, r *http.Request) {
	actor, ok := requireActor(w, r)
	if !ok {
		return
	}
	videoID, ok := pathID(w, r, "videoId", "video")
	if !ok {
		return
	}

	video, err := h.Videos.DeleteOwned(r.Context(), videoID, actor.UserID)
	if err != nil {
		storeError(r.Context(), w, err, "video")
		return
	}
	response.JSON(r.Context(), w, http.StatusOK, video, "video deleted successfully")
}

// TogglePublish handles PATCH /api/v1/videos/toggle/publish/{videoId}.
func (h VideoHandler) TogglePublish(w http.ResponseWriter, r *http.Request) {
	actor, ok := requireActor(w, r)
	if !ok {
		return
	}
	videoID, ok := pathID(w, r, "videoId", "video")
	if !ok {
		return
	}

	video, err := h.Videos.TogglePublish(r.Context(), videoID, actor.UserID)
	if err != nil {
		storeError(r.Context(), w, err, "video")
		return
	}
	response.JSON(r.Context(), w, http.StatusOK, video, "video publish status toggled")
}

func (h VideoHandler) now() time.Time {
	if h.NowFunc != nil {
		return h.NowFunc()
	}
	return time.Now().UTC()
}
