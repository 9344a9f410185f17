package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"mime/multipart"
	"net/http"
	"strings"

	"github.com/google/uuid"

	"github.com/vidtube/backend/internal/auth"
	"github.com/vidtube/backend/internal/logging"
	"github.com/vidtube/backend/internal/media"
	"github.com/vidtube/backend/internal/models"
	"github.com/vidtube/backend/internal/readmodel"
	"github.com/vidtube/backend/internal/repositories"
	"github.com/vidtube/backend/internal/response"
)

const maxMultipartMemory = 32 << 20

var errMissingFile = errors.New("missing file")

// storeError translates a repository or read-model failure into an envelope.
// entity names the record in client-facing messages.
func storeError(ctx context.Context, w http.ResponseWriter, err error, entity string) {
	switch {
	case errors.Is(err, repositories.ErrNotFound):
		response.Error(ctx, w, http.StatusNotFound, entity+" not found")
	case errors.Is(err, repositories.ErrForbidden):
		response.Error(ctx, w, http.StatusForbidden, "you are not the owner of this "+entity)
	case errors.Is(err, repositories.ErrSelfSubscription):
		response.Error(ctx, w, http.StatusBadRequest, "cannot subscribe to your own channel")
	case errors.Is(err, repositories.ErrConflict):
		response.Error(ctx, w, http.StatusConflict, entity+" already exists")
	default:
		logging.FromContext(ctx).Error("store operation failed", "entity", entity, "error", err)
		response.Error(ctx, w, http.StatusInternalServerError, "internal server error")
	}
}

// uploadError translates a media upload failure into an envelope.
func uploadError(ctx context.Context, w http.ResponseWriter, err error, field string) {
	if errors.Is(err, media.ErrTooLarge) {
		response.Error(ctx, w, http.StatusRequestEntityTooLarge, field+" exceeds the upload size limit")
		return
	}
	logging.FromContext(ctx).Warn("media upload failed", "field", field, "error", err)
	response.Error(ctx, w, http.StatusConflict, "failed to upload "+field)
}

// requireActor returns the authenticated actor or writes a 401 envelope.
func requireActor(w http.ResponseWriter, r *http.Request) (auth.Actor, bool) {
	actor, ok := auth.ActorFromContext(r.Context())
	if !ok {
		response.Error(r.Context(), w, http.StatusUnauthorized, "unauthorized request")
		return auth.Actor{}, false
	}
	return actor, true
}

// viewerID returns the authenticated user ID, or "" for anonymous requests.
func viewerID(r *http.Request) string {
	actor, _ := auth.ActorFromContext(r.Context())
	return actor.UserID
}

// pathID extracts and validates a UUID path segment.
func pathID(w http.ResponseWriter, r *http.Request, name, entity string) (string, bool) {
	raw := strings.TrimSpace(r.PathValue(name))
	id, err := uuid.Parse(raw)
	if err != nil {
		logging.FromContext(r.Context()).Warn("invalid path id", "param", name, "value", raw)
		response.Error(r.Context(), w, http.StatusBadRequest, "invalid "+entity+" id")
		return "", false
	}
	return id.String(), true
}

// pageFrom parses the page and limit query parameters.
func pageFrom(w http.ResponseWriter, r *http.Request) (readmodel.Page, bool) {
	query := r.URL.Query()
	page, err := readmodel.ParsePage(query.Get("page"), query.Get("limit"))
	if err != nil {
		response.Error(r.Context(), w, http.StatusBadRequest, "page and limit must be positive integers")
		return readmodel.Page{}, false
	}
	return page, true
}

// decodeJSON reads the request body into dst.
func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		logging.FromContext(r.Context()).Warn("invalid request payload", "error", err)
		response.Error(r.Context(), w, http.StatusBadRequest, "invalid request body")
		return false
	}
	return true
}

// parseForm accepts multipart and url-encoded bodies.
func parseForm(w http.ResponseWriter, r *http.Request) bool {
	err := r.ParseMultipartForm(maxMultipartMemory)
	if errors.Is(err, http.ErrNotMultipart) {
		err = r.ParseForm()
	}
	var tooLarge *http.MaxBytesError
	if errors.As(err, &tooLarge) {
		logging.FromContext(r.Context()).Warn("request body over limit", "limit", tooLarge.Limit)
		response.Error(r.Context(), w, http.StatusRequestEntityTooLarge, "request body too large")
		return false
	}
	if err != nil {
		logging.FromContext(r.Context()).Warn("invalid form payload", "error", err)
		response.Error(r.Context(), w, http.StatusBadRequest, "invalid form body")
		return false
	}
	return true
}

// formValue reports the trimmed value of a body field and whether it was sent.
func formValue(r *http.Request, key string) (string, bool) {
	values, ok := r.PostForm[key]
	if !ok || len(values) == 0 {
		return "", false
	}
	return strings.TrimSpace(values[0]), true
}

// uploadFormFile uploads the named multipart file. It returns errMissingFile
// when the request carries no such file.
func uploadFormFile(r *http.Request, uploader MediaUploader, field string, kind media.Kind) (models.MediaAsset, error) {
	if r.MultipartForm == nil {
		return models.MediaAsset{}, errMissingFile
	}
	file, header, err := r.FormFile(field)
	if err != nil {
		if errors.Is(err, http.ErrMissingFile) {
			return models.MediaAsset{}, errMissingFile
		}
		return models.MediaAsset{}, err
	}
	defer file.Close()

	return uploader.Upload(r.Context(), kind, header.Filename, contentType(header), file)
}

func contentType(header *multipart.FileHeader) string {
	if ct := header.Header.Get("Content-Type"); ct != "" {
		return ct
	}
	return "application/octet-stream"
}

func hasFormFile(r *http.Request, field string) bool {
	if r.MultipartForm == nil {
		return false
	}
	files := r.MultipartForm.File[field]
	return len(files) > 0
}
