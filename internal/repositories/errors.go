package repositories

import (
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgconn"
)

var (
	// ErrNotFound indicates the requested record does not exist.
	ErrNotFound = errors.New("record not found")
	// ErrConflict indicates the attempted write would violate a uniqueness constraint.
	ErrConflict = errors.New("record conflict")
	// ErrForbidden indicates the actor does not own the record it tried to change.
	ErrForbidden = errors.New("record not owned by actor")
	// ErrSelfSubscription indicates a user tried to subscribe to their own channel.
	ErrSelfSubscription = errors.New("cannot subscribe to own channel")
)

// translate maps well-known PostgreSQL error codes onto repository errors and
// wraps everything else with the failed operation.
func translate(err error, op string) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case "23505":
			return ErrConflict
		case "23503", "22P02":
			return ErrNotFound
		}
	}
	return fmt.Errorf("%s: %w", op, err)
}
