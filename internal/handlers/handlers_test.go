package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/vidtube/backend/internal/auth"
	"github.com/vidtube/backend/internal/media"
	"github.com/vidtube/backend/internal/middleware"
	"github.com/vidtube/backend/internal/models"
	"github.com/vidtube/backend/internal/readmodel"
	"github.com/vidtube/backend/internal/repositories"
)

type memoryUsers struct {
	mu    sync.Mutex
	users map[string]models.User
}

func newMemoryUsers() *memoryUsers {
	return &memoryUsers{users: make(map[string]models.User)}
}

func (s *memoryUsers) Create(_ context.Context, user models.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, existing := range s.users {
		if existing.Username == user.Username || existing.Email == user.Email {
			return repositories.ErrConflict
		}
	}
	s.users[user.ID] = user
	return nil
}

func (s *memoryUsers) FindByID(_ context.Context, id string) (models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	user, ok := s.users[id]
	if !ok {
		return models.User{}, repositories.ErrNotFound
	}
	return user, nil
}

func (s *memoryUsers) FindByIdentifier(_ context.Context, identifier string) (models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, user := range s.users {
		if user.Username == identifier || user.Email == identifier {
			return user, nil
		}
	}
	return models.User{}, repositories.ErrNotFound
}

func (s *memoryUsers) Exists(_ context.Context, username, email string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, user := range s.users {
		if user.Username == username || user.Email == email {
			return true, nil
		}
	}
	return false, nil
}

func (s *memoryUsers) update(id string, fn func(*models.User) error) (models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	user, ok := s.users[id]
	if !ok {
		return models.User{}, repositories.ErrNotFound
	}
	if err := fn(&user); err != nil {
		return models.User{}, err
	}
	s.users[id] = user
	return user, nil
}

func (s *memoryUsers) UpdateAccount(_ context.Context, id, fullName, email string) (models.User, error) {
	return s.update(id, func(u *models.User) error {
		for _, other := range s.users {
			if other.ID != id && other.Email == email {
				return repositories.ErrConflict
			}
		}
		u.FullName, u.Email = fullName, email
		return nil
	})
}

func (s *memoryUsers) UpdateAvatar(_ context.Context, id, url string) (models.User, error) {
	return s.update(id, func(u *models.User) error { u.Avatar = url; return nil })
}

func (s *memoryUsers) UpdateCoverImage(_ context.Context, id, url string) (models.User, error) {
	return s.update(id, func(u *models.User) error { u.CoverImage = url; return nil })
}

func (s *memoryUsers) UpdatePassword(_ context.Context, id, passwordHash string) error {
	_, err := s.update(id, func(u *models.User) error { u.Password = passwordHash; return nil })
	return err
}

type memoryVideos struct {
	mu     sync.Mutex
	videos map[string]models.Video
	views  []string
	err    error
}

func (s *memoryVideos) Create(_ context.Context, video models.Video) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return s.err
	}
	s.videos[video.ID] = video
	return nil
}

func (s *memoryVideos) owned(id, actorID string, fn func(*models.Video)) (models.Video, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	video, ok := s.videos[id]
	if !ok {
		return models.Video{}, repositories.ErrNotFound
	}
	if video.OwnerID != actorID {
		return models.Video{}, repositories.ErrForbidden
	}
	if fn != nil {
		fn(&video)
		s.videos[id] = video
	}
	return video, nil
}

func (s *memoryVideos) UpdateOwned(_ context.Context, id, actorID string, patch models.VideoPatch) (models.Video, error) {
	return s.owned(id, actorID, func(v *models.Video) {
		if patch.Title != nil {
			v.Title = *patch.Title
		}
		if patch.Description != nil {
			v.Description = *patch.Description
		}
		if patch.Thumbnail != nil {
			v.Thumbnail = *patch.Thumbnail
		}
	})
}

func (s *memoryVideos) DeleteOwned(_ context.Context, id, actorID string) (models.Video, error) {
	video, err := s.owned(id, actorID, nil)
	if err == nil {
		s.mu.Lock()
		delete(s.videos, id)
		s.mu.Unlock()
	}
	return video, err
}

func (s *memoryVideos) TogglePublish(_ context.Context, id, actorID string) (models.Video, error) {
	return s.owned(id, actorID, func(v *models.Video) { v.IsPublished = !v.IsPublished })
}

func (s *memoryVideos) RecordView(_ context.Context, videoID, viewerID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.views = append(s.views, videoID+":"+viewerID)
	return nil
}

type memoryComments struct {
	videos   *memoryVideos
	comments map[string]models.Comment
}

func (s *memoryComments) Create(_ context.Context, comment models.Comment) error {
	if _, ok := s.videos.videos[comment.VideoID]; !ok {
		return repositories.ErrNotFound
	}
	s.comments[comment.ID] = comment
	return nil
}

func (s *memoryComments) UpdateOwned(_ context.Context, id, actorID, content string) (models.Comment, error) {
	comment, ok := s.comments[id]
	if !ok {
		return models.Comment{}, repositories.ErrNotFound
	}
	if comment.OwnerID != actorID {
		return models.Comment{}, repositories.ErrForbidden
	}
	comment.Content = content
	s.comments[id] = comment
	return comment, nil
}

func (s *memoryComments) DeleteOwned(_ context.Context, id, actorID string) (models.Comment, error) {
	comment, err := s.UpdateOwned(context.Background(), id, actorID, s.comments[id].Content)
	if err == nil {
		delete(s.comments, id)
	}
	return comment, err
}

type memoryTweets struct {
	tweets map[string]models.Tweet
}

func (s *memoryTweets) Create(_ context.Context, tweet models.Tweet) error {
	s.tweets[tweet.ID] = tweet
	return nil
}

func (s *memoryTweets) UpdateOwned(_ context.Context, id, actorID, content string) (models.Tweet, error) {
	tweet, ok := s.tweets[id]
	if !ok {
		return models.Tweet{}, repositories.ErrNotFound
	}
	if tweet.OwnerID != actorID {
		return models.Tweet{}, repositories.ErrForbidden
	}
	tweet.Content = content
	s.tweets[id] = tweet
	return tweet, nil
}

func (s *memoryTweets) DeleteOwned(_ context.Context, id, actorID string) (models.Tweet, error) {
	tweet, err := s.UpdateOwned(context.Background(), id, actorID, s.tweets[id].Content)
	if err == nil {
		delete(s.tweets, id)
	}
	return tweet, err
}

type memoryPlaylists struct {
	videos    *memoryVideos
	playlists map[string]models.Playlist
}

func (s *memoryPlaylists) Create(_ context.Context, playlist models.Playlist) error {
	s.playlists[playlist.ID] = playlist
	return nil
}

func (s *memoryPlaylists) owned(id, actorID string) (models.Playlist, error) {
	playlist, ok := s.playlists[id]
	if !ok {
		return models.Playlist{}, repositories.ErrNotFound
	}
	if playlist.OwnerID != actorID {
		return models.Playlist{}, repositories.ErrForbidden
	}
	return playlist, nil
}

func (s *memoryPlaylists) UpdateOwned(_ context.Context, id, actorID, name, description string) (models.Playlist, error) {
	playlist, err := s.owned(id, actorID)
	if err != nil {
		return models.Playlist{}, err
	}
	playlist.Name, playlist.Description = name, description
	s.playlists[id] = playlist
	return playlist, nil
}

func (s *memoryPlaylists) DeleteOwned(_ context.Context, id, actorID string) (models.Playlist, error) {
	playlist, err := s.owned(id, actorID)
	if err == nil {
		delete(s.playlists, id)
	}
	return playlist, err
}

func (s *memoryPlaylists) AddVideo(_ context.Context, playlistID, videoID, actorID string) (models.Playlist, error) {
	playlist, err := s.owned(playlistID, actorID)
	if err != nil {
		return models.Playlist{}, err
	}
	if _, ok := s.videos.videos[videoID]; !ok {
		return models.Playlist{}, repositories.ErrNotFound
	}
	for _, id := range playlist.Videos {
		if id == videoID {
			return playlist, nil
		}
	}
	playlist.Videos = append(playlist.Videos, videoID)
	s.playlists[playlistID] = playlist
	return playlist, nil
}

func (s *memoryPlaylists) RemoveVideo(_ context.Context, playlistID, videoID, actorID string) (models.Playlist, error) {
	playlist, err := s.owned(playlistID, actorID)
	if err != nil {
		return models.Playlist{}, err
	}
	kept := []string{}
	for _, id := range playlist.Videos {
		if id != videoID {
			kept = append(kept, id)
		}
	}
	playlist.Videos = kept
	s.playlists[playlistID] = playlist
	return playlist, nil
}

type memorySubscriptions struct {
	users *memoryUsers
	pairs map[string]bool
	err   error
}

func (s *memorySubscriptions) Toggle(_ context.Context, subscriberID, channelID string) (models.ToggleResult, error) {
	if s.err != nil {
		return models.ToggleResult{}, s.err
	}
	if subscriberID == channelID {
		return models.ToggleResult{}, repositories.ErrSelfSubscription
	}
	if _, err := s.users.FindByID(context.Background(), channelID); err != nil {
		return models.ToggleResult{}, err
	}
	key := subscriberID + ":" + channelID
	if s.pairs[key] {
		delete(s.pairs, key)
		return models.ToggleResult{Subscribed: false}, nil
	}
	s.pairs[key] = true
	return models.ToggleResult{
		Subscribed:   true,
		Subscription: models.Subscription{SubscriberID: subscriberID, ChannelID: channelID},
	}, nil
}

type stubReads struct {
	feed           []readmodel.FeedVideo
	feedQuery      readmodel.FeedQuery
	details        map[string]readmodel.VideoDetail
	history        []readmodel.WatchedVideo
	profiles       map[string]readmodel.ChannelProfile
	profileViewer  string
	comments       []readmodel.CommentView
	tweets         []readmodel.TweetView
	subscribers    []readmodel.ChannelSummary
	subscribed     []readmodel.ChannelSummary
	playlists      []readmodel.PlaylistSummary
	playlistDetail map[string]readmodel.PlaylistDetail
	lastPage       readmodel.Page
	err            error
}

func nonNil[T any](items []T) []T {
	if items == nil {
		return []T{}
	}
	return items
}

func (s *stubReads) VideoFeed(_ context.Context, f readmodel.FeedQuery) ([]readmodel.FeedVideo, error) {
	s.feedQuery = f
	return nonNil(s.feed), s.err
}

func (s *stubReads) VideoDetail(_ context.Context, videoID, _ string) (readmodel.VideoDetail, error) {
	detail, ok := s.details[videoID]
	if !ok {
		return readmodel.VideoDetail{}, repositories.ErrNotFound
	}
	return detail, s.err
}

func (s *stubReads) WatchHistory(_ context.Context, _ string, page readmodel.Page) ([]readmodel.WatchedVideo, error) {
	s.lastPage = page
	return nonNil(s.history), s.err
}

func (s *stubReads) ChannelProfile(_ context.Context, username, viewerID string) (readmodel.ChannelProfile, error) {
	s.profileViewer = viewerID
	profile, ok := s.profiles[username]
	if !ok {
		return readmodel.ChannelProfile{}, repositories.ErrNotFound
	}
	return profile, s.err
}

func (s *stubReads) VideoComments(_ context.Context, _ string, page readmodel.Page) ([]readmodel.CommentView, error) {
	s.lastPage = page
	return nonNil(s.comments), s.err
}

func (s *stubReads) UserTweets(_ context.Context, _ string, page readmodel.Page) ([]readmodel.TweetView, error) {
	s.lastPage = page
	return nonNil(s.tweets), s.err
}

func (s *stubReads) ChannelSubscribers(_ context.Context, _ string, page readmodel.Page) ([]readmodel.ChannelSummary, error) {
	s.lastPage = page
	return nonNil(s.subscribers), s.err
}

func (s *stubReads) SubscribedChannels(_ context.Context, _ string, page readmodel.Page) ([]readmodel.ChannelSummary, error) {
	s.lastPage = page
	return nonNil(s.subscribed), s.err
}

func (s *stubReads) UserPlaylists(_ context.Context, _, _ string, page readmodel.Page) ([]readmodel.PlaylistSummary, error) {
	s.lastPage = page
	return nonNil(s.playlists), s.err
}

func (s *stubReads) PlaylistDetail(_ context.Context, playlistID, _ string) (readmodel.PlaylistDetail, error) {
	detail, ok := s.playlistDetail[playlistID]
	if !ok {
		return readmodel.PlaylistDetail{}, repositories.ErrNotFound
	}
	return detail, s.err
}

type fakeUploader struct {
	mu        sync.Mutex
	duration  float64
	failures  map[media.Kind]error
	uploaded  []models.MediaAsset
	discarded []models.MediaAsset
}

func (u *fakeUploader) Upload(_ context.Context, kind media.Kind, filename, _ string, r io.Reader) (models.MediaAsset, error) {
	u.mu.Lock()
	defer u.mu.Unlock()
	if err := u.failures[kind]; err != nil {
		return models.MediaAsset{}, err
	}
	data, err := io.ReadAll(r)
	if err != nil {
		return models.MediaAsset{}, err
	}
	key := string(kind) + "/" + filename
	asset := models.MediaAsset{Key: key, URL: "https://cdn.test/" + key, Size: int64(len(data))}
	if kind == media.KindVideo {
		asset.Duration = u.duration
	}
	u.uploaded = append(u.uploaded, asset)
	return asset, nil
}

func (u *fakeUploader) Discard(_ context.Context, assets ...models.MediaAsset) {
	u.mu.Lock()
	defer u.mu.Unlock()
	for _, asset := range assets {
		if asset.Key != "" {
			u.discarded = append(u.discarded, asset)
		}
	}
}

type testEnv struct {
	users     *memoryUsers
	videos    *memoryVideos
	comments  *memoryComments
	tweets    *memoryTweets
	playlists *memoryPlaylists
	subs      *memorySubscriptions
	reads     *stubReads
	media     *fakeUploader
	sessions  *auth.Manager
	handler   http.Handler
}

// testUploadCap is the per-file cap handler tests run with.
const testUploadCap = 1 << 10

func newTestEnv(t *testing.T, limiter middleware.RateLimiter) *testEnv {
	t.Helper()

	users := newMemoryUsers()
	videos := &memoryVideos{videos: make(map[string]models.Video)}
	env := &testEnv{
		users:     users,
		videos:    videos,
		comments:  &memoryComments{videos: videos, comments: make(map[string]models.Comment)},
		tweets:    &memoryTweets{tweets: make(map[string]models.Tweet)},
		playlists: &memoryPlaylists{videos: videos, playlists: make(map[string]models.Playlist)},
		subs:      &memorySubscriptions{users: users, pairs: make(map[string]bool)},
		reads:     &stubReads{},
		media:     &fakeUploader{duration: 42.5, failures: make(map[media.Kind]error)},
		sessions:  auth.NewManager(auth.NewTokenIssuer("test-secret", time.Minute), time.Hour, auth.NewInMemorySessionStore()),
	}

	mux := http.NewServeMux()
	RegisterRoutes(mux, Dependencies{
		Users:         env.users,
		Sessions:      env.sessions,
		Videos:        env.videos,
		Comments:      env.comments,
		Tweets:        env.tweets,
		Playlists:     env.playlists,
		Subscriptions: env.subs,
		Reads:         env.reads,
		Media:         env.media,
		Limiter:       limiter,

		MaxUploadBytes: testUploadCap,
	})
	env.handler = mux
	return env
}

func (e *testEnv) seedUser(t *testing.T, id, username, password string) models.User {
	t.Helper()
	hashed, err := auth.HashPassword(password)
	if err != nil {
		t.Fatalf("hash password: %v", err)
	}
	user := models.User{ID: id, Username: username, Email: username + "@example.com", FullName: strings.ToUpper(username), Password: hashed}
	if err := e.users.Create(context.Background(), user); err != nil {
		t.Fatalf("seed user: %v", err)
	}
	return user
}

func (e *testEnv) token(t *testing.T, userID string) string {
	t.Helper()
	tokens, err := e.sessions.Issue(context.Background(), userID)
	if err != nil {
		t.Fatalf("issue tokens: %v", err)
	}
	return tokens.AccessToken
}

func (e *testEnv) serve(req *http.Request, token string) *httptest.ResponseRecorder {
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	e.handler.ServeHTTP(rec, req)
	return rec
}

func (e *testEnv) json(method, target, token string, body any) *httptest.ResponseRecorder {
	var reader io.Reader
	if body != nil {
		payload, _ := json.Marshal(body)
		reader = bytes.NewReader(payload)
	}
	req := httptest.NewRequest(method, target, reader)
	req.Header.Set("Content-Type", "application/json")
	return e.serve(req, token)
}

func newCookieRequest(method, target, name, value string) *http.Request {
	req := httptest.NewRequest(method, target, nil)
	req.AddCookie(&http.Cookie{Name: name, Value: value})
	return req
}

type upload struct {
	field    string
	filename string
	content  string
}

func multipartRequest(t *testing.T, method, target string, fields map[string]string, files ...upload) *http.Request {
	t.Helper()
	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)
	for key, value := range fields {
		if err := writer.WriteField(key, value); err != nil {
			t.Fatalf("write field: %v", err)
		}
	}
	for _, f := range files {
		part, err := writer.CreateFormFile(f.field, f.filename)
		if err != nil {
			t.Fatalf("create form file: %v", err)
		}
		if _, err := part.Write([]byte(f.content)); err != nil {
			t.Fatalf("write form file: %v", err)
		}
	}
	if err := writer.Close(); err != nil {
		t.Fatalf("close multipart: %v", err)
	}
	req := httptest.NewRequest(method, target, &buf)
	req.Header.Set("Content-Type", writer.FormDataContentType())
	return req
}

type envelope struct {
	StatusCode int             `json:"statusCode"`
	Data       json.RawMessage `json:"data"`
	Message    string          `json:"message"`
	Success    bool            `json:"success"`
	Errors     []string        `json:"errors"`
}

func expectStatus(t *testing.T, rec *httptest.ResponseRecorder, status int) envelope {
	t.Helper()
	if rec.Code != status {
		t.Fatalf("expected status %d got %d: %s", status, rec.Code, rec.Body.String())
	}
	var env envelope
	if err := json.NewDecoder(rec.Body).Decode(&env); err != nil {
		t.Fatalf("decode envelope: %v", err)
	}
	if env.StatusCode != status {
		t.Fatalf("envelope statusCode %d does not match %d", env.StatusCode, status)
	}
	if env.Success != (status < http.StatusBadRequest) {
		t.Fatalf("unexpected success flag for %d: %+v", status, env)
	}
	return env
}

func decodeData(t *testing.T, env envelope, dst any) {
	t.Helper()
	if err := json.Unmarshal(env.Data, dst); err != nil {
		t.Fatalf("decode data: %v", err)
	}
}

func cookieValue(rec *httptest.ResponseRecorder, name string) string {
	for _, c := range rec.Result().Cookies() {
		if c.Name == name {
			return c.Value
		}
	}
	return ""
}

const (
	aliceID = "11111111-1111-4111-8111-111111111111"
	bobID   = "22222222-2222-4222-8222-222222222222"
	videoID = "33333333-3333-4333-8333-333333333333"
)
