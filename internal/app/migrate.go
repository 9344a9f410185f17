package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/vidtube/backend/internal/config"
	"github.com/vidtube/backend/internal/db"
	"github.com/vidtube/backend/internal/logging"
	"github.com/vidtube/backend/internal/repositories"
)

const (
	migrationMaxRetries  = 3
	migrationBaseBackoff = 100 * time.Millisecond
	migrationMaxBackoff  = 3 * time.Second
)

var retryablePgErrorCodes = map[string]struct{}{
	"40001": {}, // serialization_failure
	"40P01": {}, // deadlock_detected
	"55P03": {}, // lock_not_available
}

type migration struct {
	version string
	path    string
}

// Migrate applies pending migrations ("up") or prints which ones are applied ("status").
func Migrate(ctx context.Context, command string, out io.Writer) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	logger := logging.New(cfg.LogLevel)

	if command == "" {
		command = "up"
	}
	if command != "up" && command != "status" {
		return fmt.Errorf("unknown migrate command %q", command)
	}

	dir, err := resolveDir(cfg.MigrationDir)
	if err != nil {
		return err
	}
	migrations, err := loadMigrations(dir)
	if err != nil {
		return err
	}

	pool, err := db.Connect(ctx, cfg.DatabaseURL)
	if err != nil {
		return err
	}
	defer pool.Close()

	conn, err := pool.Acquire(ctx)
	if err != nil {
		return fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	applied, err := appliedVersions(ctx, conn)
	if err != nil {
		return err
	}

	if command == "status" {
		for _, m := range migrations {
			mark := " "
			if _, ok := applied[m.version]; ok {
				mark = "x"
			}
			fmt.Fprintf(out, "[%s] %s\n", mark, m.version)
		}
		return nil
	}

	pending := 0
	for _, m := range migrations {
		if _, ok := applied[m.version]; ok {
			continue
		}
		contents, err := os.ReadFile(m.path)
		if err != nil {
			return fmt.Errorf("read migration %s: %w", m.version, err)
		}
		if err := applyMigrationWithRetry(ctx, logger, conn, m.version, string(contents)); err != nil {
			return err
		}
		logger.Info("applied migration", "version", m.version)
		fmt.Fprintf(out, "applied migration %s\n", m.version)
		pending++
	}
	if pending == 0 {
		fmt.Fprintln(out, "no migrations to apply")
	}
	return nil
}

// Seed executes seeds/<name>_seed.sql (or the named .sql file) in one statement batch.
func Seed(ctx context.Context, name string, out io.Writer) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return errors.New("expected seed name (e.g. dev)")
	}

	cfg, err := config.Load()
	if err != nil {
		return err
	}

	dir, err := resolveDir(cfg.SeedDir)
	if err != nil {
		return err
	}
	file := seedFileName(name)
	contents, err := os.ReadFile(filepath.Join(dir, file))
	if err != nil {
		return fmt.Errorf("read seed %s: %w", file, err)
	}

	pool, err := db.Connect(ctx, cfg.DatabaseURL)
	if err != nil {
		return err
	}
	defer pool.Close()

	if _, err := pool.Exec(ctx, string(contents)); err != nil {
		return fmt.Errorf("apply seed %s: %w", file, err)
	}

	logging.New(cfg.LogLevel).Info("applied seed", "file", file)
	fmt.Fprintf(out, "applied seed %s\n", file)
	return nil
}

func seedFileName(name string) string {
	if strings.HasSuffix(name, ".sql") {
		return name
	}
	return name + "_seed.sql"
}

func resolveDir(dir string) (string, error) {
	if filepath.IsAbs(dir) {
		return dir, nil
	}
	wd, err := os.Getwd()
	if err != nil {
		return "", fmt.Errorf("determine working directory: %w", err)
	}
	return filepath.Join(wd, dir), nil
}

// loadMigrations lists the .sql files of dir in lexical order.
func loadMigrations(dir string) ([]migration, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("read migrations directory: %w", err)
	}

	var migrations []migration
	for _, entry := range entries {
		if entry.IsDir() || filepath.Ext(entry.Name()) != ".sql" {
			continue
		}
		migrations = append(migrations, migration{version: entry.Name(), path: filepath.Join(dir, entry.Name())})
	}
	sort.Slice(migrations, func(i, j int) bool { return migrations[i].version < migrations[j].version })
	return migrations, nil
}

func appliedVersions(ctx context.Context, conn *pgxpool.Conn) (map[string]struct{}, error) {
	if _, err := conn.Exec(ctx, `CREATE TABLE IF NOT EXISTS schema_migrations (
                version TEXT PRIMARY KEY,
                applied_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
        )`); err != nil {
		return nil, fmt.Errorf("ensure schema_migrations table: %w", err)
	}

	rows, err := conn.Query(ctx, `SELECT version FROM schema_migrations`)
	if err != nil {
		return nil, fmt.Errorf("fetch applied migrations: %w", err)
	}
	versions, err := pgx.CollectRows(rows, pgx.RowTo[string])
	if err != nil {
		return nil, fmt.Errorf("scan applied migrations: %w", err)
	}

	applied := make(map[string]struct{}, len(versions))
	for _, v := range versions {
		applied[v] = struct{}{}
	}
	return applied, nil
}

func migrationBackoff(attempt int) time.Duration {
	backoff := migrationBaseBackoff << (attempt - 1)
	if backoff > migrationMaxBackoff {
		return migrationMaxBackoff
	}
	return backoff
}

func applyMigrationWithRetry(ctx context.Context, logger *slog.Logger, conn *pgxpool.Conn, version, contents string) error {
	var err error
	for attempt := 0; attempt < migrationMaxRetries; attempt++ {
		if attempt > 0 {
			timer := time.NewTimer(migrationBackoff(attempt))
			select {
			case <-ctx.Done():
				timer.Stop()
				return ctx.Err()
			case <-timer.C:
			}
		}

		err = applyMigration(ctx, conn, version, contents)
		if err == nil {
			return nil
		}
		if !shouldRetryMigration(err) {
			return err
		}
		logger.Warn("transient migration error", "version", version, "attempt", attempt+1, "max", migrationMaxRetries, "error", err)
	}
	return fmt.Errorf("apply migration %s: exceeded max retries (%d): %w", version, migrationMaxRetries, err)
}

func applyMigration(ctx context.Context, conn *pgxpool.Conn, version, contents string) error {
	tx, err := conn.BeginTx(ctx, pgx.TxOptions{IsoLevel: pgx.Serializable})
	if err != nil {
		return fmt.Errorf("begin migration transaction for %s: %w", version, err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if _, err := tx.Exec(ctx, contents); err != nil {
		return fmt.Errorf("apply migration %s: %w", version, err)
	}
	if _, err := tx.Exec(ctx, `INSERT INTO schema_migrations (version) VALUES ($1)`, version); err != nil {
		return fmt.Errorf("record migration %s: %w", version, err)
	}
	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit migration %s: %w", version, err)
	}
	return nil
}

func shouldRetryMigration(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, pgx.ErrTxClosed) {
		return true
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		_, ok := retryablePgErrorCodes[pgErr.Code]
		return ok
	}
	return false
}

// PurgeSessions deletes refresh-token families that expired more than grace ago.
func PurgeSessions(ctx context.Context, grace time.Duration, out io.Writer) error {
	if grace < 0 {
		return errors.New("grace period must not be negative")
	}

	cfg, err := config.Load()
	if err != nil {
		return err
	}

	pool, err := db.Connect(ctx, cfg.DatabaseURL)
	if err != nil {
		return err
	}
	defer pool.Close()

	removed, err := repositories.NewPostgresSessionStore(pool).PurgeExpired(ctx, time.Now().Add(-grace))
	if err != nil {
		return err
	}

	logging.New(cfg.LogLevel).Info("purged expired sessions", "count", removed)
	fmt.Fprintf(out, "purged %d expired sessions\n", removed)
	return nil
}
