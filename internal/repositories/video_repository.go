package repositories

import (
	"context"

	"github.com/vidtube/backend/internal/models"
)

// VideoRepository defines the data access contract for videos.
type VideoRepository interface {
	Create(ctx context.Context, video models.Video) error
	FindByID(ctx context.Context, id string) (models.Video, error)
	UpdateOwned(ctx context.Context, id, actorID string, patch models.VideoPatch) (models.Video, error)
	DeleteOwned(ctx context.Context, id, actorID string) (models.Video, error)
	TogglePublish(ctx context.Context, id, actorID string) (models.Video, error)
	// RecordView increments the view counter and appends a watch-history entry for the viewer.
	RecordView(ctx context.Context, videoID, viewerID string) error
}
