package repositories

import (
	"context"

	"github.com/vidtube/backend/internal/models"
)

// PlaylistRepository defines the data access contract for playlists.
type PlaylistRepository interface {
	Create(ctx context.Context, playlist models.Playlist) error
	FindByID(ctx context.Context, id string) (models.Playlist, error)
	UpdateOwned(ctx context.Context, id, actorID, name, description string) (models.Playlist, error)
	DeleteOwned(ctx context.Context, id, actorID string) (models.Playlist, error)
	// AddVideo inserts the video into the playlist; adding a present video is a no-op.
	AddVideo(ctx context.Context, playlistID, videoID, actorID string) (models.Playlist, error)
	RemoveVideo(ctx context.Context, playlistID, videoID, actorID string) (models.Playlist, error)
}

// SubscriptionRepository defines the data access contract for channel subscriptions.
type SubscriptionRepository interface {
	Toggle(ctx context.Context, subscriberID, channelID string) (models.ToggleResult, error)
}
