package repositories

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/vidtube/backend/internal/db"
	"github.com/vidtube/backend/internal/models"
)

const commentColumns = `id, video_id, owner_id, content, created_at, updated_at`

func scanComment(row pgx.Row) (models.Comment, error) {
	var c models.Comment
	err := row.Scan(&c.ID, &c.VideoID, &c.OwnerID, &c.Content, &c.CreatedAt, &c.UpdatedAt)
	return c, err
}

// PostgresCommentRepository provides PostgreSQL-backed persistence for comments.
type PostgresCommentRepository struct {
	pool db.Pool
}

// NewPostgresCommentRepository constructs a comment repository backed by PostgreSQL.
func NewPostgresCommentRepository(pool db.Pool) *PostgresCommentRepository {
	return &PostgresCommentRepository{pool: pool}
}

// Create stores a comment on an existing video.
func (r *PostgresCommentRepository) Create(ctx context.Context, comment models.Comment) error {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	tag, err := conn.Exec(ctx, `
        INSERT INTO comments (`+commentColumns+`)
        SELECT $1::uuid, $2::uuid, $3::uuid, $4::text, $5::timestamptz, $6::timestamptz
        WHERE EXISTS (SELECT 1 FROM videos WHERE id = $2::uuid)
    `, comment.ID, comment.VideoID, comment.OwnerID, comment.Content, comment.CreatedAt, comment.UpdatedAt)
	if err != nil {
		return translate(err, "insert comment")
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// FindByID fetches a comment by identifier.
func (r *PostgresCommentRepository) FindByID(ctx context.Context, id string) (models.Comment, error) {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return models.Comment{}, fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	comment, err := scanComment(conn.QueryRow(ctx, `SELECT `+commentColumns+` FROM comments WHERE id = $1`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return models.Comment{}, ErrNotFound
		}
		return models.Comment{}, translate(err, "select comment")
	}
	return comment, nil
}

// UpdateOwned replaces the comment content when actorID owns it.
func (r *PostgresCommentRepository) UpdateOwned(ctx context.Context, id, actorID, content string) (models.Comment, error) {
	var updated models.Comment
	err := withOwnedRow(ctx, r.pool, "comments", id, actorID, func(tx pgx.Tx) error {
		var err error
		updated, err = scanComment(tx.QueryRow(ctx, `
            UPDATE comments SET content = $2, updated_at = $3
            WHERE id = $1
            RETURNING `+commentColumns, id, content, time.Now().UTC()))
		if err != nil {
			return translate(err, "update comment")
		}
		return nil
	})
	return updated, err
}

// DeleteOwned removes the comment when actorID owns it and returns its last state.
func (r *PostgresCommentRepository) DeleteOwned(ctx context.Context, id, actorID string) (models.Comment, error) {
	var deleted models.Comment
	err := withOwnedRow(ctx, r.pool, "comments", id, actorID, func(tx pgx.Tx) error {
		var err error
		deleted, err = scanComment(tx.QueryRow(ctx, `DELETE FROM comments WHERE id = $1 RETURNING `+commentColumns, id))
		if err != nil {
			return translate(err, "delete comment")
		}
		return nil
	})
	return deleted, err
}

const tweetColumns = `id, owner_id, content, created_at, updated_at`

func scanTweet(row pgx.Row) (models.Tweet, error) {
	var t models.Tweet
	err := row.Scan(&t.ID, &t.OwnerID, &t.Content, &t.CreatedAt, &t.UpdatedAt)
	return t, err
}

// PostgresTweetRepository provides PostgreSQL-backed persistence for tweets.
type PostgresTweetRepository struct {
	pool db.Pool
}

// NewPostgresTweetRepository constructs a tweet repository backed by PostgreSQL.
func NewPostgresTweetRepository(pool db.Pool) *PostgresTweetRepository {
	return &PostgresTweetRepository{pool: pool}
}

// Create stores a new tweet.
func (r *PostgresTweetRepository) Create(ctx context.Context, tweet models.Tweet) error {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	_, err = conn.Exec(ctx, `
        INSERT INTO tweets (`+tweetColumns+`)
        VALUES ($1, $2, $3, $4, $5)
    `, tweet.ID, tweet.OwnerID, tweet.Content, tweet.CreatedAt, tweet.UpdatedAt)
	if err != nil {
		return translate(err, "insert tweet")
	}
	return nil
}

// FindByID fetches a tweet by identifier.
func (r *PostgresTweetRepository) FindByID(ctx context.Context, id string) (models.Tweet, error) {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return models.Tweet{}, fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	tweet, err := scanTweet(conn.QueryRow(ctx, `SELECT `+tweetColumns+` FROM tweets WHERE id = $1`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return models.Tweet{}, ErrNotFound
		}
		return models.Tweet{}, translate(err, "select tweet")
	}
	return tweet, nil
}

// UpdateOwned replaces the tweet content when actorID owns it.
func (r *PostgresTweetRepository) UpdateOwned(ctx context.Context, id, actorID, content string) (models.Tweet, error) {
	var updated models.Tweet
	err := withOwnedRow(ctx, r.pool, "tweets", id, actorID, func(tx pgx.Tx) error {
		var err error
		updated, err = scanTweet(tx.QueryRow(ctx, `
            UPDATE tweets SET content = $2, updated_at = $3
            WHERE id = $1
            RETURNING `+tweetColumns, id, content, time.Now().UTC()))
		if err != nil {
			return translate(err, "update tweet")
		}
		return nil
	})
	return updated, err
}

// DeleteOwned removes the tweet when actorID owns it and returns its last state.
func (r *PostgresTweetRepository) DeleteOwned(ctx context.Context, id, actorID string) (models.Tweet, error) {
	var deleted models.Tweet
	err := withOwnedRow(ctx, r.pool, "tweets", id, actorID, func(tx pgx.Tx) error {
		var err error
		deleted, err = scanTweet(tx.QueryRow(ctx, `DELETE FROM tweets WHERE id = $1 RETURNING `+tweetColumns, id))
		if err != nil {
			return translate(err, "delete tweet")
		}
		return nil
	})
	return deleted, err
}

var _ CommentRepository = (*PostgresCommentRepository)(nil)
var _ TweetRepository = (*PostgresTweetRepository)(nil)
