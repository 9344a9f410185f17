package repositories

import (
	"context"

	"github.com/vidtube/backend/internal/models"
)

// CommentRepository defines the data access contract for comments.
type CommentRepository interface {
	// Create fails with ErrNotFound when the referenced video does not exist.
	Create(ctx context.Context, comment models.Comment) error
	FindByID(ctx context.Context, id string) (models.Comment, error)
	UpdateOwned(ctx context.Context, id, actorID, content string) (models.Comment, error)
	DeleteOwned(ctx context.Context, id, actorID string) (models.Comment, error)
}

// TweetRepository defines the data access contract for tweets.
type TweetRepository interface {
	Create(ctx context.Context, tweet models.Tweet) error
	FindByID(ctx context.Context, id string) (models.Tweet, error)
	UpdateOwned(ctx context.Context, id, actorID, content string) (models.Tweet, error)
	DeleteOwned(ctx context.Context, id, actorID string) (models.Tweet, error)
}
