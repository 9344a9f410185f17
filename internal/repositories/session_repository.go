package repositories

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/vidtube/backend/internal/auth"
	"github.com/vidtube/backend/internal/db"
)

const sessionColumns = `family_id, user_id, token_hash, previous_token_hash, expires_at, created_at, rotated_at`

// PostgresSessionStore keeps one row per refresh-token family. A rotation
// rewrites the row in place so the previous hash stays available for reuse detection.
type PostgresSessionStore struct {
	pool db.Pool
	now  func() time.Time
}

// NewPostgresSessionStore returns a session store backed by pool.
func NewPostgresSessionStore(pool db.Pool) *PostgresSessionStore {
	return &PostgresSessionStore{pool: pool, now: time.Now}
}

func (s *PostgresSessionStore) withConn(ctx context.Context, fn func(conn *pgxpool.Conn) error) error {
	conn, err := s.pool.Acquire(ctx)
	if err != nil {
		return fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()
	return fn(conn)
}

// Create inserts a new token family with no previous hash.
func (s *PostgresSessionStore) Create(ctx context.Context, session auth.Session) error {
	return s.withConn(ctx, func(conn *pgxpool.Conn) error {
		_, err := conn.Exec(ctx, `
            INSERT INTO sessions (family_id, user_id, token_hash, previous_token_hash, expires_at, created_at)
            VALUES ($1, $2, $3, '', $4, $5)
        `, session.FamilyID, session.UserID, session.TokenHash, session.ExpiresAt.UTC(), session.CreatedAt.UTC())
		if err != nil {
			return translate(err, "insert session")
		}
		return nil
	})
}

// Find loads a family by id, returning auth.ErrSessionNotFound when absent.
func (s *PostgresSessionStore) Find(ctx context.Context, familyID string) (auth.Session, error) {
	var session auth.Session
	err := s.withConn(ctx, func(conn *pgxpool.Conn) error {
		row := conn.QueryRow(ctx, `SELECT `+sessionColumns+` FROM sessions WHERE family_id = $1`, familyID)
		err := row.Scan(&session.FamilyID, &session.UserID, &session.TokenHash, &session.PreviousTokenHash,
			&session.ExpiresAt, &session.CreatedAt, &session.RotatedAt)
		switch {
		case errors.Is(err, pgx.ErrNoRows):
			return auth.ErrSessionNotFound
		case err != nil:
			return fmt.Errorf("select session: %w", err)
		}
		return nil
	})
	if err != nil {
		return auth.Session{}, err
	}
	session.ExpiresAt = session.ExpiresAt.UTC()
	session.CreatedAt = session.CreatedAt.UTC()
	return session, nil
}

// Rotate is a compare-and-swap on token_hash; a concurrent rotation of the
// same family makes the loser see ErrSessionNotFound.
func (s *PostgresSessionStore) Rotate(ctx context.Context, familyID, currentHash, nextHash string, expiresAt time.Time) error {
	return s.withConn(ctx, func(conn *pgxpool.Conn) error {
		tag, err := conn.Exec(ctx, `
            UPDATE sessions
            SET previous_token_hash = token_hash, token_hash = $3, expires_at = $4, rotated_at = $5
            WHERE family_id = $1 AND token_hash = $2
        `, familyID, currentHash, nextHash, expiresAt.UTC(), s.now().UTC())
		if err != nil {
			return fmt.Errorf("rotate session: %w", err)
		}
		if tag.RowsAffected() == 0 {
			return auth.ErrSessionNotFound
		}
		return nil
	})
}

// Delete is idempotent.
func (s *PostgresSessionStore) Delete(ctx context.Context, familyID string) error {
	return s.deleteWhere(ctx, "family_id = $1", familyID)
}

// DeleteByUser ends every session family of the user.
func (s *PostgresSessionStore) DeleteByUser(ctx context.Context, userID string) error {
	return s.deleteWhere(ctx, "user_id = $1", userID)
}

// PurgeExpired removes families whose refresh token expired before cutoff
// and reports how many were removed.
func (s *PostgresSessionStore) PurgeExpired(ctx context.Context, cutoff time.Time) (int64, error) {
	var removed int64
	err := s.withConn(ctx, func(conn *pgxpool.Conn) error {
		tag, err := conn.Exec(ctx, `DELETE FROM sessions WHERE expires_at < $1`, cutoff.UTC())
		if err != nil {
			return fmt.Errorf("purge sessions: %w", err)
		}
		removed = tag.RowsAffected()
		return nil
	})
	return removed, err
}

func (s *PostgresSessionStore) deleteWhere(ctx context.Context, predicate string, arg string) error {
	return s.withConn(ctx, func(conn *pgxpool.Conn) error {
		if _, err := conn.Exec(ctx, `DELETE FROM sessions WHERE `+predicate, arg); err != nil {
			return fmt.Errorf("delete sessions: %w", err)
		}
		return nil
	})
}

var _ auth.SessionStore = (*PostgresSessionStore)(nil)
