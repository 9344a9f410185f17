package db

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

const (
	connectAttempts = 5
	pingTimeout     = 5 * time.Second
)

// connectBackoff is the wait before the second connection attempt; it doubles after each failure.
var connectBackoff = 500 * time.Millisecond

// Pool abstracts the pgx connection pool so stores can be exercised without a live database.
type Pool interface {
	Acquire(ctx context.Context) (*pgxpool.Conn, error)
	Close()
}

// Pinger reports whether the database answers.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Connect opens a pool for databaseURL and waits until the server answers,
// retrying while the database is still starting.
func Connect(ctx context.Context, databaseURL string) (*pgxpool.Pool, error) {
	cfg, err := pgxpool.ParseConfig(databaseURL)
	if err != nil {
		return nil, fmt.Errorf("parse database url: %w", err)
	}
	cfg.MaxConnIdleTime = 5 * time.Minute
	cfg.HealthCheckPeriod = 30 * time.Second

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("create pgx pool: %w", err)
	}

	if err := waitForPing(ctx, pool, connectAttempts); err != nil {
		pool.Close()
		return nil, err
	}
	return pool, nil
}

func waitForPing(ctx context.Context, p Pinger, attempts int) error {
	wait := connectBackoff
	var lastErr error
	for attempt := 1; attempt <= attempts; attempt++ {
		pingCtx, cancel := context.WithTimeout(ctx, pingTimeout)
		lastErr = p.Ping(pingCtx)
		cancel()
		if lastErr == nil {
			return nil
		}
		if attempt == attempts || errors.Is(lastErr, context.Canceled) {
			break
		}

		timer := time.NewTimer(wait)
		select {
		case <-ctx.Done():
			timer.Stop()
			return fmt.Errorf("ping database: %w", ctx.Err())
		case <-timer.C:
		}
		wait *= 2
	}
	return fmt.Errorf("ping database: %w", lastErr)
}
