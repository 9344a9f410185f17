package repositories

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/vidtube/backend/internal/db"
	"github.com/vidtube/backend/internal/models"
)

const playlistColumns = `id, owner_id, name, description, created_at, updated_at`

// PostgresPlaylistRepository provides PostgreSQL-backed persistence for playlists.
type PostgresPlaylistRepository struct {
	pool db.Pool
}

// NewPostgresPlaylistRepository constructs a playlist repository backed by PostgreSQL.
func NewPostgresPlaylistRepository(pool db.Pool) *PostgresPlaylistRepository {
	return &PostgresPlaylistRepository{pool: pool}
}

// Create stores a new, empty playlist.
func (r *PostgresPlaylistRepository) Create(ctx context.Context, playlist models.Playlist) error {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	_, err = conn.Exec(ctx, `
        INSERT INTO playlists (`+playlistColumns+`)
        VALUES ($1, $2, $3, $4, $5, $6)
    `, playlist.ID, playlist.OwnerID, playlist.Name, playlist.Description, playlist.CreatedAt, playlist.UpdatedAt)
	if err != nil {
		return translate(err, "insert playlist")
	}
	return nil
}

// FindByID fetches a playlist together with its video IDs in insertion order.
func (r *PostgresPlaylistRepository) FindByID(ctx context.Context, id string) (models.Playlist, error) {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return models.Playlist{}, fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	return loadPlaylist(ctx, conn, id)
}

// UpdateOwned renames the playlist when actorID owns it.
func (r *PostgresPlaylistRepository) UpdateOwned(ctx context.Context, id, actorID, name, description string) (models.Playlist, error) {
	var updated models.Playlist
	err := withOwnedRow(ctx, r.pool, "playlists", id, actorID, func(tx pgx.Tx) error {
		if _, err := tx.Exec(ctx, `
            UPDATE playlists SET name = $2, description = $3, updated_at = $4
            WHERE id = $1
        `, id, name, description, time.Now().UTC()); err != nil {
			return translate(err, "update playlist")
		}
		var err error
		updated, err = loadPlaylist(ctx, tx, id)
		return err
	})
	return updated, err
}

// DeleteOwned removes the playlist and its entries and returns the prior snapshot.
func (r *PostgresPlaylistRepository) DeleteOwned(ctx context.Context, id, actorID string) (models.Playlist, error) {
	var deleted models.Playlist
	err := withOwnedRow(ctx, r.pool, "playlists", id, actorID, func(tx pgx.Tx) error {
		var err error
		deleted, err = loadPlaylist(ctx, tx, id)
		if err != nil {
			return err
		}
		if _, err := tx.Exec(ctx, `DELETE FROM playlist_videos WHERE playlist_id = $1`, id); err != nil {
			return translate(err, "delete playlist entries")
		}
		if _, err := tx.Exec(ctx, `DELETE FROM playlists WHERE id = $1`, id); err != nil {
			return translate(err, "delete playlist")
		}
		return nil
	})
	return deleted, err
}

// AddVideo appends an existing video to the playlist unless it is already present.
func (r *PostgresPlaylistRepository) AddVideo(ctx context.Context, playlistID, videoID, actorID string) (models.Playlist, error) {
	var updated models.Playlist
	err := withOwnedRow(ctx, r.pool, "playlists", playlistID, actorID, func(tx pgx.Tx) error {
		var exists bool
		if err := tx.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM videos WHERE id = $1)`, videoID).Scan(&exists); err != nil {
			return translate(err, "check video")
		}
		if !exists {
			return ErrNotFound
		}

		now := time.Now().UTC()
		tag, err := tx.Exec(ctx, `
            INSERT INTO playlist_videos (playlist_id, video_id, position, added_at)
            SELECT $1::uuid, $2::uuid, COALESCE(MAX(position), 0) + 1, $3::timestamptz
            FROM playlist_videos
            WHERE playlist_id = $1::uuid
            ON CONFLICT (playlist_id, video_id) DO NOTHING
        `, playlistID, videoID, now)
		if err != nil {
			return translate(err, "insert playlist entry")
		}
		if tag.RowsAffected() > 0 {
			if err := touchPlaylist(ctx, tx, playlistID, now); err != nil {
				return err
			}
		}

		updated, err = loadPlaylist(ctx, tx, playlistID)
		return err
	})
	return updated, err
}

// RemoveVideo removes the video from the playlist. Removing an absent video is a no-op.
func (r *PostgresPlaylistRepository) RemoveVideo(ctx context.Context, playlistID, videoID, actorID string) (models.Playlist, error) {
	var updated models.Playlist
	err := withOwnedRow(ctx, r.pool, "playlists", playlistID, actorID, func(tx pgx.Tx) error {
		tag, err := tx.Exec(ctx, `
            DELETE FROM playlist_videos WHERE playlist_id = $1 AND video_id = $2
        `, playlistID, videoID)
		if err != nil {
			return translate(err, "delete playlist entry")
		}
		if tag.RowsAffected() > 0 {
			if err := touchPlaylist(ctx, tx, playlistID, time.Now().UTC()); err != nil {
				return err
			}
		}

		updated, err = loadPlaylist(ctx, tx, playlistID)
		return err
	})
	return updated, err
}

func touchPlaylist(ctx context.Context, q querier, id string, at time.Time) error {
	if _, err := q.Exec(ctx, `UPDATE playlists SET updated_at = $2 WHERE id = $1`, id, at); err != nil {
		return translate(err, "touch playlist")
	}
	return nil
}

func loadPlaylist(ctx context.Context, q querier, id string) (models.Playlist, error) {
	var p models.Playlist
	err := q.QueryRow(ctx, `SELECT `+playlistColumns+` FROM playlists WHERE id = $1`, id).
		Scan(&p.ID, &p.OwnerID, &p.Name, &p.Description, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return models.Playlist{}, ErrNotFound
		}
		return models.Playlist{}, translate(err, "select playlist")
	}

	rows, err := q.Query(ctx, `
        SELECT video_id FROM playlist_videos
        WHERE playlist_id = $1
        ORDER BY position
    `, id)
	if err != nil {
		return models.Playlist{}, fmt.Errorf("query playlist entries: %w", err)
	}
	defer rows.Close()

	p.Videos = []string{}
	for rows.Next() {
		var videoID string
		if err := rows.Scan(&videoID); err != nil {
			return models.Playlist{}, fmt.Errorf("scan playlist entry: %w", err)
		}
		p.Videos = append(p.Videos, videoID)
	}
	if err := rows.Err(); err != nil {
		return models.Playlist{}, fmt.Errorf("iterate playlist entries: %w", err)
	}

	return p, nil
}

// PostgresSubscriptionRepository provides PostgreSQL-backed persistence for subscriptions.
type PostgresSubscriptionRepository struct {
	pool db.Pool
}

// NewPostgresSubscriptionRepository constructs a subscription repository backed by PostgreSQL.
func NewPostgresSubscriptionRepository(pool db.Pool) *PostgresSubscriptionRepository {
	return &PostgresSubscriptionRepository{pool: pool}
}

// Toggle removes the (subscriber, channel) subscription when present and creates
// it otherwise, in a single statement guarded by the pair's unique constraint.
func (r *PostgresSubscriptionRepository) Toggle(ctx context.Context, subscriberID, channelID string) (models.ToggleResult, error) {
	if subscriberID == channelID {
		return models.ToggleResult{}, ErrSelfSubscription
	}

	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return models.ToggleResult{}, fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	now := time.Now().UTC()
	row := conn.QueryRow(ctx, `
        WITH removed AS (
            DELETE FROM subscriptions
            WHERE subscriber_id = $2::uuid AND channel_id = $3::uuid
            RETURNING id, subscriber_id, channel_id, created_at, updated_at
        ), added AS (
            INSERT INTO subscriptions (id, subscriber_id, channel_id, created_at, updated_at)
            SELECT $1::uuid, $2::uuid, $3::uuid, $4::timestamptz, $4::timestamptz
            WHERE NOT EXISTS (SELECT 1 FROM removed)
            ON CONFLICT (subscriber_id, channel_id) DO NOTHING
            RETURNING id, subscriber_id, channel_id, created_at, updated_at
        )
        SELECT id, subscriber_id, channel_id, created_at, updated_at, FALSE FROM removed
        UNION ALL
        SELECT id, subscriber_id, channel_id, created_at, updated_at, TRUE FROM added
    `, uuid.NewString(), subscriberID, channelID, now)

	var result models.ToggleResult
	sub := &result.Subscription
	if err := row.Scan(&sub.ID, &sub.SubscriberID, &sub.ChannelID, &sub.CreatedAt, &sub.UpdatedAt, &result.Subscribed); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			// A concurrent toggle inserted the pair first.
			return models.ToggleResult{}, ErrConflict
		}
		return models.ToggleResult{}, translate(err, "toggle subscription")
	}
	return result, nil
}

var _ PlaylistRepository = (*PostgresPlaylistRepository)(nil)
var _ SubscriptionRepository = (*PostgresSubscriptionRepository)(nil)
