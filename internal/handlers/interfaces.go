package handlers

import (
	"context"
	"io"

	"github.com/vidtube/backend/internal/auth"
	"github.com/vidtube/backend/internal/media"
	"github.com/vidtube/backend/internal/models"
	"github.com/vidtube/backend/internal/readmodel"
)

// UserStore captures the persistence operations required by the user handlers.
type UserStore interface {
	Create(ctx context.Context, user models.User) error
	FindByID(ctx context.Context, id string) (models.User, error)
	FindByIdentifier(ctx context.Context, identifier string) (models.User, error)
	Exists(ctx context.Context, username, email string) (bool, error)
	UpdateAccount(ctx context.Context, id, fullName, email string) (models.User, error)
	UpdateAvatar(ctx context.Context, id, url string) (models.User, error)
	UpdateCoverImage(ctx context.Context, id, url string) (models.User, error)
	UpdatePassword(ctx context.Context, id, passwordHash string) error
}

// SessionManager issues, rotates and revokes authentication tokens for users.
type SessionManager interface {
	Issue(ctx context.Context, userID string) (models.SessionTokens, error)
	Refresh(ctx context.Context, refreshToken string) (models.SessionTokens, error)
	Revoke(ctx context.Context, familyID string) error
	RevokeAll(ctx context.Context, userID string) error
	Authenticate(accessToken string) (auth.Actor, error)
}

// VideoStore captures the video write operations.
type VideoStore interface {
	Create(ctx context.Context, video models.Video) error
	UpdateOwned(ctx context.Context, id, actorID string, patch models.VideoPatch) (models.Video, error)
	DeleteOwned(ctx context.Context, id, actorID string) (models.Video, error)
	TogglePublish(ctx context.Context, id, actorID string) (models.Video, error)
	RecordView(ctx context.Context, videoID, viewerID string) error
}

// CommentStore captures the comment write operations.
type CommentStore interface {
	Create(ctx context.Context, comment models.Comment) error
	UpdateOwned(ctx context.Context, id, actorID, content string) (models.Comment, error)
	DeleteOwned(ctx context.Context, id, actorID string) (models.Comment, error)
}

// TweetStore captures the tweet write operations.
type TweetStore interface {
	Create(ctx context.Context, tweet models.Tweet) error
	UpdateOwned(ctx context.Context, id, actorID, content string) (models.Tweet, error)
	DeleteOwned(ctx context.Context, id, actorID string) (models.Tweet, error)
}

// PlaylistStore captures the playlist write operations.
type PlaylistStore interface {
	Create(ctx context.Context, playlist models.Playlist) error
	UpdateOwned(ctx context.Context, id, actorID, name, description string) (models.Playlist, error)
	DeleteOwned(ctx context.Context, id, actorID string) (models.Playlist, error)
	AddVideo(ctx context.Context, playlistID, videoID, actorID string) (models.Playlist, error)
	RemoveVideo(ctx context.Context, playlistID, videoID, actorID string) (models.Playlist, error)
}

// SubscriptionStore toggles channel subscriptions.
type SubscriptionStore interface {
	Toggle(ctx context.Context, subscriberID, channelID string) (models.ToggleResult, error)
}

// ReadModels serves the joined, paginated views.
type ReadModels interface {
	VideoFeed(ctx context.Context, f readmodel.FeedQuery) ([]readmodel.FeedVideo, error)
	VideoDetail(ctx context.Context, videoID, viewerID string) (readmodel.VideoDetail, error)
	WatchHistory(ctx context.Context, userID string, page readmodel.Page) ([]readmodel.WatchedVideo, error)
	ChannelProfile(ctx context.Context, username, viewerID string) (readmodel.ChannelProfile, error)
	VideoComments(ctx context.Context, videoID string, page readmodel.Page) ([]readmodel.CommentView, error)
	UserTweets(ctx context.Context, userID string, page readmodel.Page) ([]readmodel.TweetView, error)
	ChannelSubscribers(ctx context.Context, channelID string, page readmodel.Page) ([]readmodel.ChannelSummary, error)
	SubscribedChannels(ctx context.Context, subscriberID string, page readmodel.Page) ([]readmodel.ChannelSummary, error)
	UserPlaylists(ctx context.Context, userID, viewerID string, page readmodel.Page) ([]readmodel.PlaylistSummary, error)
	PlaylistDetail(ctx context.Context, playlistID, viewerID string) (readmodel.PlaylistDetail, error)
}

// MediaUploader hands uploaded files to the media host.
type MediaUploader interface {
	Upload(ctx context.Context, kind media.Kind, filename, contentType string, r io.Reader) (models.MediaAsset, error)
	Discard(ctx context.Context, assets ...models.MediaAsset)
}
