package handlers

import (
	"net/http"

	"github.com/vidtube/backend/internal/db"
	"github.com/vidtube/backend/internal/middleware"
)

// RegisterRoutes wires HTTP handlers into the provided ServeMux.
func RegisterRoutes(mux *http.ServeMux, deps Dependencies) {
	health := HealthHandler{DB: deps.Database}
	authH := AuthHandler{Users: deps.Users, Sessions: deps.Sessions, Media: deps.Media, CookieSecure: deps.CookieSecure}
	users := UserHandler{Users: deps.Users, Media: deps.Media, Reads: deps.Reads}
	videos := VideoHandler{Videos: deps.Videos, Media: deps.Media, Reads: deps.Reads}
	comments := CommentHandler{Comments: deps.Comments, Reads: deps.Reads}
	tweets := TweetHandler{Tweets: deps.Tweets, Reads: deps.Reads}
	playlists := PlaylistHandler{Playlists: deps.Playlists, Reads: deps.Reads}
	subscriptions := SubscriptionHandler{Subscriptions: deps.Subscriptions, Reads: deps.Reads}

	var authenticator middleware.TokenAuthenticator = deps.Sessions
	private := func(h http.HandlerFunc) http.Handler { return middleware.Authenticate(authenticator)(h) }
	public := func(h http.HandlerFunc) http.Handler { return middleware.OptionalAuth(authenticator)(h) }
	limited := func(scope string, h http.HandlerFunc) http.Handler {
		return middleware.RateLimit(deps.Limiter, scope)(h)
	}
	uploadLimit := middleware.LimitBody(UploadBodyLimit(deps.MaxUploadBytes))
	bounded := func(h http.HandlerFunc) http.HandlerFunc { return uploadLimit(h).ServeHTTP }

	mux.HandleFunc("/healthz", health.Handle)
	mux.HandleFunc("GET /api/v1/healthcheck", health.Healthcheck)

	mux.Handle("POST /api/v1/users/register", limited("register", bounded(authH.Register)))
	mux.Handle("POST /api/v1/users/login", limited("login", authH.Login))
	mux.Handle("POST /api/v1/users/refresh-token", limited("refresh", authH.Refresh))
	mux.Handle("POST /api/v1/users/logout", private(authH.Logout))
	mux.Handle("POST /api/v1/users/logout-all", private(authH.LogoutAll))
	mux.Handle("POST /api/v1/users/change-password", private(authH.ChangePassword))
	mux.Handle("GET /api/v1/users/current-user", private(users.CurrentUser))
	mux.Handle("PATCH /api/v1/users/update-account", private(users.UpdateAccount))
	mux.Handle("PATCH /api/v1/users/avatar", private(bounded(users.UpdateAvatar)))
	mux.Handle("PATCH /api/v1/users/cover-image", private(bounded(users.UpdateCoverImage)))
	mux.Handle("GET /api/v1/users/c/{username}", public(users.ChannelProfile))
	mux.Handle("GET /api/v1/users/history", private(users.WatchHistory))

	mux.Handle("GET /api/v1/videos", private(videos.List))
	mux.Handle("POST /api/v1/videos", private(bounded(videos.Publish)))
	mux.Handle("GET /api/v1/videos/{videoId}", public(videos.Get))
	mux.Handle("PATCH /api/v1/videos/{videoId}", private(bounded(videos.Update)))
	mux.Handle("DELETE /api/v1/videos/{videoId}", private(videos.Delete))
	mux.Handle("PATCH /api/v1/videos/toggle/publish/{videoId}", private(videos.TogglePublish))

	mux.Handle("GET /api/v1/comments/{videoId}", public(comments.List))
	mux.Handle("POST /api/v1/comments/{videoId}", private(comments.Add))
	mux.Handle("PATCH /api/v1/comments/c/{commentId}", private(comments.Update))
	mux.Handle("DELETE /api/v1/comments/c/{commentId}", private(comments.Delete))

	mux.Handle("POST /api/v1/tweets", private(tweets.Create))
	mux.Handle("GET /api/v1/tweets/user/{userId}", public(tweets.ListByUser))
	mux.Handle("PATCH /api/v1/tweets/{tweetId}", private(tweets.Update))
	mux.Handle("DELETE /api/v1/tweets/{tweetId}", private(tweets.Delete))

	mux.Handle("POST /api/v1/playlists", private(playlists.Create))
	mux.Handle("GET /api/v1/playlists/user/{userId}", public(playlists.ListByUser))
	mux.Handle("GET /api/v1/playlists/{playlistId}", public(playlists.Get))
	mux.Handle("PATCH /api/v1/playlists/{playlistId}", private(playlists.Update))
	mux.Handle("DELETE /api/v1/playlists/{playlistId}", private(playlists.Delete))
	mux.Handle("PATCH /api/v1/playlists/add/{videoId}/{playlistId}", private(playlists.AddVideo))
	mux.Handle("PATCH /api/v1/playlists/remove/{videoId}/{playlistId}", private(playlists.RemoveVideo))

	mux.Handle("POST /api/v1/subscriptions/c/{channelId}", private(subscriptions.Toggle))
	mux.Handle("GET /api/v1/subscriptions/c/{channelId}", public(subscriptions.Subscribers))
	mux.Handle("GET /api/v1/subscriptions/u/{subscriberId}", public(subscriptions.Subscribed))
}

// multipartOverhead covers form fields and part headers around the files.
const multipartOverhead = 1 << 20

// UploadBodyLimit bounds a multipart request that carries at most two files of
// maxFileBytes each. It is zero, meaning unbounded, when maxFileBytes is.
func UploadBodyLimit(maxFileBytes int64) int64 {
	if maxFileBytes <= 0 {
		return 0
	}
	return 2*maxFileBytes + multipartOverhead
}

// Dependencies aggregates collaborators required by HTTP handlers.
type Dependencies struct {
	Database      db.Pinger
	Users         UserStore
	Sessions      SessionManager
	Videos        VideoStore
	Comments      CommentStore
	Tweets        TweetStore
	Playlists     PlaylistStore
	Subscriptions SubscriptionStore
	Reads         ReadModels
	Media         MediaUploader
	Limiter       middleware.RateLimiter
	CookieSecure  bool
	// MaxUploadBytes is the per-file upload cap; multipart bodies are bounded from it.
	MaxUploadBytes int64
}
