package media

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"

	"github.com/vidtube/backend/internal/logging"
	"github.com/vidtube/backend/internal/models"
)

// Store persists media objects with an external host.
type Store interface {
	Save(ctx context.Context, name, contentType string, r io.Reader) (string, error)
	Delete(ctx context.Context, name string) error
}

// Kind groups uploaded objects under a key prefix.
type Kind string

const (
	KindAvatar    Kind = "avatars"
	KindCover     Kind = "covers"
	KindVideo     Kind = "videos"
	KindThumbnail Kind = "thumbnails"
)

// Uploader spools uploads to a temporary file, probes video duration and hands
// the file to the Store. The temporary file is always removed.
type Uploader struct {
	store    Store
	prober   DurationProber
	tempDir  string
	maxBytes int64
}

// NewUploader constructs an Uploader. prober may be nil, in which case every
// video reports a duration of 0.
func NewUploader(store Store, prober DurationProber, tempDir string, maxBytes int64) *Uploader {
	if store == nil {
		panic("media: store must not be nil")
	}
	return &Uploader{store: store, prober: prober, tempDir: tempDir, maxBytes: maxBytes}
}

// Upload stores the content read from r and returns the resulting asset.
func (u *Uploader) Upload(ctx context.Context, kind Kind, filename, contentType string, r io.Reader) (models.MediaAsset, error) {
	ctx, span := logging.StartSpan(ctx, "media.upload")
	defer span.End()
	span.Annotate(slog.String("kind", string(kind)))

	tmp, err := os.CreateTemp(u.tempDir, "vidtube-upload-*")
	if err != nil {
		span.Fail(err)
		return models.MediaAsset{}, fmt.Errorf("create temp file: %w", err)
	}
	defer func() {
		_ = tmp.Close()
		_ = os.Remove(tmp.Name())
	}()

	src := r
	if u.maxBytes > 0 {
		src = io.LimitReader(r, u.maxBytes+1)
	}
	size, err := io.Copy(tmp, src)
	if err != nil {
		span.Fail(err)
		return models.MediaAsset{}, fmt.Errorf("spool upload: %w", err)
	}
	if u.maxBytes > 0 && size > u.maxBytes {
		return models.MediaAsset{}, ErrTooLarge
	}

	asset := models.MediaAsset{
		Key:  fmt.Sprintf("%s/%s%s", kind, uuid.NewString(), strings.ToLower(filepath.Ext(filename))),
		Size: size,
	}

	if kind == KindVideo && u.prober != nil {
		duration, err := u.prober.Duration(ctx, tmp.Name())
		if err != nil {
			logging.FromContext(ctx).Warn("duration probe failed", slog.String("key", asset.Key), slog.String("error", err.Error()))
		} else {
			asset.Duration = duration
		}
	}

	if _, err := tmp.Seek(0, io.SeekStart); err != nil {
		span.Fail(err)
		return models.MediaAsset{}, fmt.Errorf("rewind upload: %w", err)
	}

	url, err := u.store.Save(ctx, asset.Key, contentType, tmp)
	if err != nil {
		span.Fail(err)
		return models.MediaAsset{}, fmt.Errorf("%w: %v", ErrUploadFailed, err)
	}
	asset.URL = url
	span.Annotate(slog.String("key", asset.Key), slog.Int64("bytes", size))

	return asset, nil
}

// Discard deletes previously uploaded assets. Failures are logged, not returned.
func (u *Uploader) Discard(ctx context.Context, assets ...models.MediaAsset) {
	for _, asset := range assets {
		if asset.Key == "" {
			continue
		}
		if err := u.store.Delete(ctx, asset.Key); err != nil {
			logging.FromContext(ctx).Warn("discard uploaded media", slog.String("key", asset.Key), slog.String("error", err.Error()))
		}
	}
}
