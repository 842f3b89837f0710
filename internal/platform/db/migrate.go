package db

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"sort"
	"strings"

	"github.com/jackc/pgx/v5"
)

const lockID = 72416031

// Migrate applies every *.sql file of fsys that is not yet recorded in
// schema_migrations, in lexical order, each in its own transaction.
func Migrate(ctx context.Context, db TxBeginner, fsys fs.FS, logger *slog.Logger) error {
	if logger == nil {
		logger = slog.Default()
	}
	names, err := fs.Glob(fsys, "*.sql")
	if err != nil {
		return fmt.Errorf("platform/db: list migrations: %w", err)
	}
	sort.Strings(names)

	return WithTx(ctx, db, func(tx pgx.Tx) error {
		if _, err := tx.Exec(ctx, `SELECT pg_advisory_xact_lock($1)`, lockID); err != nil {
			return fmt.Errorf("platform/db: lock migrations: %w", err)
		}
		if _, err := tx.Exec(ctx, `CREATE TABLE IF NOT EXISTS schema_migrations (
			name TEXT PRIMARY KEY,
			applied_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)`); err != nil {
			return fmt.Errorf("platform/db: create schema_migrations: %w", err)
		}
		for _, name := range names {
			var applied string
			err := tx.QueryRow(ctx, `SELECT name FROM schema_migrations WHERE name = $1`, name).Scan(&applied)
			if err == nil {
				continue
			}
			if !errors.Is(err, pgx.ErrNoRows) {
				return fmt.Errorf("platform/db: check %s: %w", name, err)
			}
			body, err := fs.ReadFile(fsys, name)
			if err != nil {
				return fmt.Errorf("platform/db: read %s: %w", name, err)
			}
			if strings.TrimSpace(string(body)) != "" {
				if _, err := tx.Exec(ctx, string(body)); err != nil {
					return fmt.Errorf("platform/db: apply %s: %w", name, err)
				}
			}
			if _, err := tx.Exec(ctx, `INSERT INTO schema_migrations (name) VALUES ($1)`, name); err != nil {
				return fmt.Errorf("platform/db: record %s: %w", name, err)
			}
			logger.Info("migration applied", slog.String("name", name))
		}
		return nil
	})
}
