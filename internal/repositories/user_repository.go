package repositories

import (
	"context"

	"github.com/vidtube/backend/internal/models"
)

// UserRepository defines the data access contract for users.
type UserRepository interface {
	Create(ctx context.Context, user models.User) error
	FindByID(ctx context.Context, id string) (models.User, error)
	FindByIdentifier(ctx context.Context, identifier string) (models.User, error)
	Exists(ctx context.Context, username, email string) (bool, error)
	UpdateAccount(ctx context.Context, id, fullName, email string) (models.User, error)
	UpdateAvatar(ctx context.Context, id, url string) (models.User, error)
	UpdateCoverImage(ctx context.Context, id, url string) (models.User, error)
	UpdatePassword(ctx context.Context, id, passwordHash string) error
}
