package handlers

import (
	"bytes"
	"errors"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/vidtube/backend/internal/media"
	"github.com/vidtube/backend/internal/models"
	"github.com/vidtube/backend/internal/readmodel"
)

func publishRequest(t *testing.T, fields map[string]string, files ...upload) *http.Request {
	t.Helper()
	return multipartRequest(t, http.MethodPost, "/api/v1/videos", fields, files...)
}

var (
	videoUpload     = upload{field: "videoFile", filename: "clip.mp4", content: "mp4"}
	thumbnailUpload = upload{field: "thumbnail", filename: "thumb.jpg", content: "jpg"}
)

func TestVideoPublish(t *testing.T) {
	env := newTestEnv(t, nil)
	token := env.token(t, aliceID)

	rec := env.serve(publishRequest(t, map[string]string{"title": " Intro ", "description": "First upload"}, videoUpload, thumbnailUpload), token)
	resp := expectStatus(t, rec, http.StatusCreated)

	var video models.Video
	decodeData(t, resp, &video)
	if video.OwnerID != aliceID || video.Title != "Intro" {
		t.Fatalf("unexpected video %+v", video)
	}
	if !video.IsPublished {
		t.Fatal("videos are published on creation")
	}
	if video.Duration != 42.5 {
		t.Fatalf("expected probed duration, got %v", video.Duration)
	}
	if video.VideoFile != "https://cdn.test/videos/clip.mp4" || video.Thumbnail != "https://cdn.test/thumbnails/thumb.jpg" {
		t.Fatalf("unexpected media references %+v", video)
	}
	if _, ok := env.videos.videos[video.ID]; !ok {
		t.Fatal("video was not stored")
	}
}

func TestVideoPublishFailures(t *testing.T) {
	fields := map[string]string{"title": "Intro", "description": "First upload"}

	t.Run("unauthenticated", func(t *testing.T) {
		env := newTestEnv(t, nil)
		expectStatus(t, env.serve(publishRequest(t, fields, videoUpload, thumbnailUpload), ""), http.StatusUnauthorized)
	})

	t.Run("missing thumbnail", func(t *testing.T) {
		env := newTestEnv(t, nil)
		rec := env.serve(publishRequest(t, fields, videoUpload), env.token(t, aliceID))
		expectStatus(t, rec, http.StatusBadRequest)
		if len(env.media.uploaded) != 0 {
			t.Fatal("nothing should be uploaded")
		}
	})

	t.Run("missing title", func(t *testing.T) {
		env := newTestEnv(t, nil)
		rec := env.serve(publishRequest(t, map[string]string{"description": "x"}, videoUpload, thumbnailUpload), env.token(t, aliceID))
		expectStatus(t, rec, http.StatusBadRequest)
	})

	t.Run("thumbnail failure discards video", func(t *testing.T) {
		env := newTestEnv(t, nil)
		env.media.failures[media.KindThumbnail] = errors.New("host down")

		rec := env.serve(publishRequest(t, fields, videoUpload, thumbnailUpload), env.token(t, aliceID))
		expectStatus(t, rec, http.StatusConflict)
		if len(env.media.discarded) != 1 || env.media.discarded[0].Key != "videos/clip.mp4" {
			t.Fatalf("expected video object discarded, got %+v", env.media.discarded)
		}
	})

	t.Run("too large", func(t *testing.T) {
		env := newTestEnv(t, nil)
		env.media.failures[media.KindVideo] = media.ErrTooLarge

		rec := env.serve(publishRequest(t, fields, videoUpload, thumbnailUpload), env.token(t, aliceID))
		expectStatus(t, rec, http.StatusRequestEntityTooLarge)
	})

	t.Run("store failure discards both", func(t *testing.T) {
		env := newTestEnv(t, nil)
		env.videos.err = errors.New("db down")

		rec := env.serve(publishRequest(t, fields, videoUpload, thumbnailUpload), env.token(t, aliceID))
		resp := expectStatus(t, rec, http.StatusInternalServerError)
		if resp.Message != "internal server error" {
			t.Fatalf("raw errors must not leak, got %q", resp.Message)
		}
		if len(env.media.discarded) != 2 {
			t.Fatalf("expected both objects discarded, got %+v", env.media.discarded)
		}
	})
}

func TestVideoList(t *testing.T) {
	env := newTestEnv(t, nil)
	token := env.token(t, aliceID)

	rec := env.json(http.MethodGet, "/api/v1/videos?page=2&limit=5&query=cats&sortBy=views&sortType=asc&userId="+bobID, token, nil)
	resp := expectStatus(t, rec, http.StatusOK)
	if string(resp.Data) != "[]" {
		t.Fatalf("an empty feed is an empty list, got %s", resp.Data)
	}

	want := readmodel.FeedQuery{
		Search:    "cats",
		OwnerID:   bobID,
		ViewerID:  aliceID,
		SortBy:    readmodel.SortByViews,
		Direction: readmodel.Ascending,
		Page:      readmodel.Page{Page: 2, Limit: 5},
	}
	if env.reads.feedQuery != want {
		t.Fatalf("expected %+v, got %+v", want, env.reads.feedQuery)
	}

	for _, target := range []string{
		"/api/v1/videos?sortBy=password",
		"/api/v1/videos?sortType=sideways",
		"/api/v1/videos?page=0",
		"/api/v1/videos?userId=not-a-uuid",
	} {
		expectStatus(t, env.json(http.MethodGet, target, token, nil), http.StatusBadRequest)
	}
}

func TestVideoGetRecordsViews(t *testing.T) {
	env := newTestEnv(t, nil)
	env.reads.details = map[string]readmodel.VideoDetail{
		videoID: {FeedVideo: readmodel.FeedVideo{ID: videoID, Title: "Intro", Views: 7}},
	}

	anonymous := expectStatus(t, env.json(http.MethodGet, "/api/v1/videos/"+videoID, "", nil), http.StatusOK)
	var detail readmodel.VideoDetail
	decodeData(t, anonymous, &detail)
	if detail.Views != 7 || len(env.videos.views) != 0 {
		t.Fatal("anonymous views are not recorded")
	}

	viewed := expectStatus(t, env.json(http.MethodGet, "/api/v1/videos/"+videoID, env.token(t, bobID), nil), http.StatusOK)
	decodeData(t, viewed, &detail)
	if detail.Views != 8 {
		t.Fatalf("expected counted view, got %d", detail.Views)
	}
	if len(env.videos.views) != 1 || env.videos.views[0] != videoID+":"+bobID {
		t.Fatalf("expected watch event, got %v", env.videos.views)
	}

	expectStatus(t, env.json(http.MethodGet, "/api/v1/videos/"+bobID, "", nil), http.StatusNotFound)
	expectStatus(t, env.json(http.MethodGet, "/api/v1/videos/not-a-uuid", "", nil), http.StatusBadRequest)
}

func TestVideoOwnerScopedMutations(t *testing.T) {
	env := newTestEnv(t, nil)
	env.videos.videos[videoID] = models.Video{ID: videoID, OwnerID: aliceID, Title: "Intro", IsPublished: true, CreatedAt: time.Now()}
	alice, bob := env.token(t, aliceID), env.token(t, bobID)

	update := func(token string, fields map[string]string, files ...upload) int {
		rec := env.serve(multipartRequest(t, http.MethodPatch, "/api/v1/videos/"+videoID, fields, files...), token)
		return rec.Code
	}

	if code := update(bob, map[string]string{"title": "Hijacked"}); code != http.StatusForbidden {
		t.Fatalf("non-owner update should be forbidden, got %d", code)
	}
	if code := update(alice, map[string]string{}); code != http.StatusBadRequest {
		t.Fatalf("empty patch should be rejected, got %d", code)
	}
	if code := update(alice, map[string]string{"title": "  "}); code != http.StatusBadRequest {
		t.Fatalf("blank title should be rejected, got %d", code)
	}

	rec := env.serve(multipartRequest(t, http.MethodPatch, "/api/v1/videos/"+videoID,
		map[string]string{"description": "Updated"}, upload{field: "thumbnail", filename: "new.jpg", content: "jpg"}), alice)
	var video models.Video
	decodeData(t, expectStatus(t, rec, http.StatusOK), &video)
	if video.Title != "Intro" || video.Description != "Updated" || video.Thumbnail != "https://cdn.test/thumbnails/new.jpg" {
		t.Fatalf("unexpected patch result %+v", video)
	}

	rec = env.serve(multipartRequest(t, http.MethodPatch, "/api/v1/videos/"+videoID,
		nil, upload{field: "thumbnail", filename: "stolen.jpg", content: "jpg"}), bob)
	expectStatus(t, rec, http.StatusForbidden)
	if len(env.media.discarded) != 1 || env.media.discarded[0].Key != "thumbnails/stolen.jpg" {
		t.Fatalf("rejected thumbnail should be discarded, got %+v", env.media.discarded)
	}

	toggled := expectStatus(t, env.json(http.MethodPatch, "/api/v1/videos/toggle/publish/"+videoID, alice, nil), http.StatusOK)
	decodeData(t, toggled, &video)
	if video.IsPublished {
		t.Fatal("expected video unpublished")
	}

	expectStatus(t, env.json(http.MethodDelete, "/api/v1/videos/"+videoID, bob, nil), http.StatusForbidden)
	deleted := expectStatus(t, env.json(http.MethodDelete, "/api/v1/videos/"+videoID, alice, nil), http.StatusOK)
	decodeData(t, deleted, &video)
	if video.ID != videoID {
		t.Fatalf("delete should return the prior record, got %+v", video)
	}
	expectStatus(t, env.json(http.MethodDelete, "/api/v1/videos/"+videoID, alice, nil), http.StatusNotFound)
}

type filler byte

func (f filler) Read(p []byte) (int, error) {
	for i := range p {
		p[i] = byte(f)
	}
	return len(p), nil
}

type countingReader struct {
	r    io.Reader
	read int64
}

func (c *countingReader) Read(p []byte) (int, error) {
	n, err := c.r.Read(p)
	c.read += int64(n)
	return n, err
}

func TestVideoPublishStopsReadingOversizedBody(t *testing.T) {
	env := newTestEnv(t, nil)
	const fileSize = 64 << 20

	var head, tail bytes.Buffer
	writer := multipart.NewWriter(&head)
	_ = writer.WriteField("title", "Huge")
	_ = writer.WriteField("description", "Too big")
	if _, err := writer.CreateFormFile("videoFile", "huge.mp4"); err != nil {
		t.Fatalf("create form file: %v", err)
	}
	boundary := writer.Boundary()
	tail.WriteString("\r\n--" + boundary + "--\r\n")

	body := &countingReader{r: io.MultiReader(&head, io.LimitReader(filler('x'), fileSize), &tail)}
	req := httptest.NewRequest(http.MethodPost, "/api/v1/videos", body)
	req.Header.Set("Content-Type", writer.FormDataContentType())

	rec := env.serve(req, env.token(t, aliceID))
	resp := expectStatus(t, rec, http.StatusRequestEntityTooLarge)
	if resp.Message != "request body too large" {
		t.Fatalf("unexpected message %q", resp.Message)
	}
	if limit := UploadBodyLimit(testUploadCap); body.read > limit+64<<10 {
		t.Fatalf("read %d bytes of a %d byte body, limit is %d", body.read, fileSize, limit)
	}
	if len(env.media.uploaded) != 0 {
		t.Fatal("nothing should be uploaded")
	}
}

func TestUploadBodyLimit(t *testing.T) {
	if UploadBodyLimit(0) != 0 {
		t.Fatal("no per-file cap means no body cap")
	}
	if got := UploadBodyLimit(1 << 20); got != 2<<20+multipartOverhead {
		t.Fatalf("unexpected limit %d", got)
	}
}
