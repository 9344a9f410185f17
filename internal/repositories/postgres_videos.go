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

const videoColumns = `id, owner_id, video_file, thumbnail, title, description, duration, views, is_published, created_at, updated_at`

func scanVideo(row pgx.Row) (models.Video, error) {
	var v models.Video
	err := row.Scan(&v.ID, &v.OwnerID, &v.VideoFile, &v.Thumbnail, &v.Title, &v.Description, &v.Duration, &v.Views, &v.IsPublished, &v.CreatedAt, &v.UpdatedAt)
	return v, err
}

// PostgresVideoRepository provides PostgreSQL-backed persistence for videos.
type PostgresVideoRepository struct {
	pool db.Pool
}

// NewPostgresVideoRepository constructs a video repository backed by PostgreSQL.
func NewPostgresVideoRepository(pool db.Pool) *PostgresVideoRepository {
	return &PostgresVideoRepository{pool: pool}
}

// Create stores a new video record.
func (r *PostgresVideoRepository) Create(ctx context.Context, video models.Video) error {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	if video.Duration < 0 {
		video.Duration = 0
	}

	_, err = conn.Exec(ctx, `
        INSERT INTO videos (`+videoColumns+`)
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
    `, video.ID, video.OwnerID, video.VideoFile, video.Thumbnail, video.Title, video.Description,
		video.Duration, video.Views, video.IsPublished, video.CreatedAt, video.UpdatedAt)
	if err != nil {
		return translate(err, "insert video")
	}
	return nil
}

// FindByID fetches a video by identifier.
func (r *PostgresVideoRepository) FindByID(ctx context.Context, id string) (models.Video, error) {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return models.Video{}, fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	video, err := scanVideo(conn.QueryRow(ctx, `SELECT `+videoColumns+` FROM videos WHERE id = $1`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return models.Video{}, ErrNotFound
		}
		return models.Video{}, translate(err, "select video")
	}
	return video, nil
}

// UpdateOwned applies the non-nil fields of patch when actorID owns the video.
func (r *PostgresVideoRepository) UpdateOwned(ctx context.Context, id, actorID string, patch models.VideoPatch) (models.Video, error) {
	var updated models.Video
	err := withOwnedRow(ctx, r.pool, "videos", id, actorID, func(tx pgx.Tx) error {
		var err error
		updated, err = scanVideo(tx.QueryRow(ctx, `
            UPDATE videos
            SET title = COALESCE($2, title),
                description = COALESCE($3, description),
                thumbnail = COALESCE($4, thumbnail),
                updated_at = $5
            WHERE id = $1
            RETURNING `+videoColumns, id, patch.Title, patch.Description, patch.Thumbnail, time.Now().UTC()))
		if err != nil {
			return translate(err, "update video")
		}
		return nil
	})
	return updated, err
}

// DeleteOwned removes the video when actorID owns it and returns its last state.
func (r *PostgresVideoRepository) DeleteOwned(ctx context.Context, id, actorID string) (models.Video, error) {
	var deleted models.Video
	err := withOwnedRow(ctx, r.pool, "videos", id, actorID, func(tx pgx.Tx) error {
		var err error
		deleted, err = scanVideo(tx.QueryRow(ctx, `DELETE FROM videos WHERE id = $1 RETURNING `+videoColumns, id))
		if err != nil {
			return translate(err, "delete video")
		}
		return nil
	})
	return deleted, err
}

// TogglePublish flips the publish flag when actorID owns the video.
func (r *PostgresVideoRepository) TogglePublish(ctx context.Context, id, actorID string) (models.Video, error) {
	var updated models.Video
	err := withOwnedRow(ctx, r.pool, "videos", id, actorID, func(tx pgx.Tx) error {
		var err error
		updated, err = scanVideo(tx.QueryRow(ctx, `
            UPDATE videos SET is_published = NOT is_published, updated_at = $2
            WHERE id = $1
            RETURNING `+videoColumns, id, time.Now().UTC()))
		if err != nil {
			return translate(err, "toggle video publish")
		}
		return nil
	})
	return updated, err
}

// RecordView counts one view and appends the video to the viewer's watch history.
func (r *PostgresVideoRepository) RecordView(ctx context.Context, videoID, viewerID string) error {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	tx, err := conn.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	tag, err := tx.Exec(ctx, `UPDATE videos SET views = views + 1 WHERE id = $1`, videoID)
	if err != nil {
		return translate(err, "increment video views")
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}

	if _, err := tx.Exec(ctx, `
        INSERT INTO watch_history (id, user_id, video_id, watched_at)
        VALUES ($1, $2, $3, $4)
    `, uuid.NewString(), viewerID, videoID, time.Now().UTC()); err != nil {
		return translate(err, "insert watch history")
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit video view: %w", err)
	}
	return nil
}

var _ VideoRepository = (*PostgresVideoRepository)(nil)
