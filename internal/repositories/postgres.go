package repositories

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/vidtube/backend/internal/db"
	"github.com/vidtube/backend/internal/models"
)

// querier is satisfied by both pooled connections and transactions.
type querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// withOwnedRow locks the row identified by id in table and runs fn in the same
// transaction once the row is known to belong to actorID.
func withOwnedRow(ctx context.Context, pool db.Pool, table, id, actorID string, fn func(tx pgx.Tx) error) error {
	conn, err := pool.Acquire(ctx)
	if err != nil {
		return fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	tx, err := conn.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	var owner string
	err = tx.QueryRow(ctx, `SELECT owner_id FROM `+table+` WHERE id = $1 FOR UPDATE`, id).Scan(&owner)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return ErrNotFound
		}
		return translate(err, "lock "+table)
	}
	if owner != actorID {
		return ErrForbidden
	}

	if err := fn(tx); err != nil {
		return err
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit %s change: %w", table, err)
	}
	return nil
}

const userColumns = `id, username, email, full_name, avatar_url, cover_image_url, password_hash, created_at, updated_at`

func scanUser(row pgx.Row) (models.User, error) {
	var user models.User
	err := row.Scan(&user.ID, &user.Username, &user.Email, &user.FullName, &user.Avatar, &user.CoverImage, &user.Password, &user.CreatedAt, &user.UpdatedAt)
	return user, err
}

// PostgresUserRepository provides PostgreSQL-backed persistence for users.
type PostgresUserRepository struct {
	pool db.Pool
}

// NewPostgresUserRepository constructs a user repository backed by PostgreSQL.
func NewPostgresUserRepository(pool db.Pool) *PostgresUserRepository {
	return &PostgresUserRepository{pool: pool}
}

// Create persists a new user record.
func (r *PostgresUserRepository) Create(ctx context.Context, user models.User) error {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	_, err = conn.Exec(ctx, `
        INSERT INTO users (id, username, email, full_name, avatar_url, cover_image_url, password_hash, created_at, updated_at)
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
    `, user.ID, user.Username, user.Email, user.FullName, user.Avatar, user.CoverImage, user.Password, user.CreatedAt, user.UpdatedAt)
	if err != nil {
		return translate(err, "insert user")
	}

	return nil
}

// FindByID fetches a user by identifier.
func (r *PostgresUserRepository) FindByID(ctx context.Context, id string) (models.User, error) {
	return r.findOne(ctx, `SELECT `+userColumns+` FROM users WHERE id = $1`, id)
}

// FindByIdentifier fetches a user by username or email address.
func (r *PostgresUserRepository) FindByIdentifier(ctx context.Context, identifier string) (models.User, error) {
	identifier = strings.ToLower(strings.TrimSpace(identifier))
	return r.findOne(ctx, `SELECT `+userColumns+` FROM users WHERE username = $1 OR email = $1 LIMIT 1`, identifier)
}

func (r *PostgresUserRepository) findOne(ctx context.Context, query string, arg string) (models.User, error) {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return models.User{}, fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	user, err := scanUser(conn.QueryRow(ctx, query, arg))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return models.User{}, ErrNotFound
		}
		return models.User{}, translate(err, "select user")
	}
	return user, nil
}

// Exists reports whether the username or the email is already registered.
func (r *PostgresUserRepository) Exists(ctx context.Context, username, email string) (bool, error) {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return false, fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	var exists bool
	if err := conn.QueryRow(ctx, `
        SELECT EXISTS (SELECT 1 FROM users WHERE username = $1 OR email = $2)
    `, username, email).Scan(&exists); err != nil {
		return false, fmt.Errorf("check user existence: %w", err)
	}
	return exists, nil
}

// UpdateAccount changes the display name and email address.
func (r *PostgresUserRepository) UpdateAccount(ctx context.Context, id, fullName, email string) (models.User, error) {
	return r.updateOne(ctx, `
        UPDATE users SET full_name = $2, email = $3, updated_at = $4
        WHERE id = $1
        RETURNING `+userColumns, id, fullName, email, time.Now().UTC())
}

// UpdateAvatar replaces the avatar reference.
func (r *PostgresUserRepository) UpdateAvatar(ctx context.Context, id, url string) (models.User, error) {
	return r.updateOne(ctx, `
        UPDATE users SET avatar_url = $2, updated_at = $3
        WHERE id = $1
        RETURNING `+userColumns, id, url, time.Now().UTC())
}

// UpdateCoverImage replaces the cover image reference.
func (r *PostgresUserRepository) UpdateCoverImage(ctx context.Context, id, url string) (models.User, error) {
	return r.updateOne(ctx, `
        UPDATE users SET cover_image_url = $2, updated_at = $3
        WHERE id = $1
        RETURNING `+userColumns, id, url, time.Now().UTC())
}

// UpdatePassword stores a new password hash.
func (r *PostgresUserRepository) UpdatePassword(ctx context.Context, id, passwordHash string) error {
	_, err := r.updateOne(ctx, `
        UPDATE users SET password_hash = $2, updated_at = $3
        WHERE id = $1
        RETURNING `+userColumns, id, passwordHash, time.Now().UTC())
	return err
}

func (r *PostgresUserRepository) updateOne(ctx context.Context, query string, args ...any) (models.User, error) {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return models.User{}, fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	user, err := scanUser(conn.QueryRow(ctx, query, args...))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return models.User{}, ErrNotFound
		}
		return models.User{}, translate(err, "update user")
	}
	return user, nil
}

var _ UserRepository = (*PostgresUserRepository)(nil)
