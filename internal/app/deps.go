package app

import (
	"context"
	"fmt"

	"github.com/vidtube/backend/internal/auth"
	"github.com/vidtube/backend/internal/config"
	"github.com/vidtube/backend/internal/db"
	"github.com/vidtube/backend/internal/handlers"
	"github.com/vidtube/backend/internal/media"
	"github.com/vidtube/backend/internal/middleware"
	"github.com/vidtube/backend/internal/readmodel"
	"github.com/vidtube/backend/internal/repositories"
	"github.com/vidtube/backend/internal/storage"
)

// buildDependencies wires together concrete implementations used by the HTTP handlers.
// The returned cleanup releases clients opened here; the pool stays owned by the caller.
func buildDependencies(ctx context.Context, pool db.Pool, cfg config.Config) (handlers.Dependencies, func(context.Context) error, error) {
	objects, err := storage.NewS3Storage(ctx, cfg.ObjectStore)
	if err != nil {
		return handlers.Dependencies{}, nil, fmt.Errorf("configure object store: %w", err)
	}

	var prober media.DurationProber
	if cfg.Uploads.FFProbePath != "" {
		prober = media.NewFFProbe(cfg.Uploads.FFProbePath, cfg.Uploads.FFProbeTimeout)
	}

	tokens := auth.NewTokenIssuer(cfg.Auth.AccessTokenSecret, cfg.Auth.AccessTokenTTL)
	sessions := auth.NewManager(tokens, cfg.Auth.RefreshTokenTTL, repositories.NewPostgresSessionStore(pool))

	cleanup := func(context.Context) error { return nil }

	limits := cfg.RateLimit
	var limiter middleware.RateLimiter
	if limits.RedisAddr != "" {
		client := middleware.NewRedisClient(limits.RedisAddr, limits.RedisPassword)
		limiter = middleware.NewRedisRateLimiter(client, limits.RedisPrefix, limits.Requests, limits.Window)
		cleanup = func(context.Context) error { return client.Close() }
	} else {
		limiter = middleware.NewIPRateLimiter(limits.Requests, limits.Window, limits.Burst, 10*limits.Window)
	}

	deps := handlers.Dependencies{
		Users:         repositories.NewPostgresUserRepository(pool),
		Sessions:      sessions,
		Videos:        repositories.NewPostgresVideoRepository(pool),
		Comments:      repositories.NewPostgresCommentRepository(pool),
		Tweets:        repositories.NewPostgresTweetRepository(pool),
		Playlists:     repositories.NewPostgresPlaylistRepository(pool),
		Subscriptions: repositories.NewPostgresSubscriptionRepository(pool),
		Reads:         readmodel.NewReader(pool),
		Media:         media.NewUploader(objects, prober, cfg.Uploads.TempDir, cfg.Uploads.MaxBytes),
		Limiter:       limiter,
		CookieSecure:  cfg.Auth.CookieSecure,

		MaxUploadBytes: cfg.Uploads.MaxBytes,
	}

	if pinger, ok := pool.(db.Pinger); ok {
		deps.Database = pinger
	}

	return deps, cleanup, nil
}
