// Package migrations applies plain SQL migration scripts exactly once, in
// file name order, recording each applied script in the migrations table.
package migrations

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/dmitrijs2005/todolist/internal/dbx"
	"github.com/dmitrijs2005/todolist/internal/logging"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
)

const createMigrationsTable = `CREATE TABLE IF NOT EXISTS migrations (
    id TEXT PRIMARY KEY,
    name TEXT NOT NULL UNIQUE,
    migrated_on TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
)`

var errEmptyScript = errors.New("migration script is empty")

// Runner applies the *.sql scripts found in a directory.
type Runner struct {
	db     *sqlx.DB
	dir    string
	logger logging.Logger
	now    func() time.Time
}

func NewRunner(db *sqlx.DB, dir string, logger logging.Logger) *Runner {
	return &Runner{
		db:     db,
		dir:    dir,
		logger: logger.With("module", "migrations"),
		now:    time.Now,
	}
}

// Run creates the migrations table if needed and applies every pending
// script. Each script and its record commit together. The first failure
// stops the run and is returned as *MigrationError; scripts after it are not
// attempted. It returns the names applied by this call.
func (r *Runner) Run(ctx context.Context) ([]string, error) {
	if _, err := r.db.ExecContext(ctx, createMigrationsTable); err != nil {
		return nil, &MigrationError{Err: fmt.Errorf("create migrations table: %w", err)}
	}

	names, err := r.scripts()
	if err != nil {
		return nil, &MigrationError{Err: err}
	}

	if len(names) == 0 {
		r.logger.Info(ctx, "No migrations found", "dir", r.dir)
		return nil, nil
	}

	r.logger.Info(ctx, "Starting migrations", "dir", r.dir, "scripts", len(names))

	var applied []string
	for _, name := range names {
		done, err := r.isApplied(ctx, name)
		if err != nil {
			return applied, &MigrationError{Name: name, Err: fmt.Errorf("read migrations table: %w", err)}
		}
		if done {
			continue
		}

		r.logger.Info(ctx, "Migrating", "name", name)

		if err := r.apply(ctx, name); err != nil {
			r.logger.Error(ctx, "Migration failed", "name", name, "error", err)
			return applied, &MigrationError{Name: name, Err: err}
		}

		applied = append(applied, name)
	}

	r.logger.Info(ctx, "Migrations completed", "applied", len(applied))
	return applied, nil
}

// scripts lists the *.sql files of the directory in lexicographic order.
func (r *Runner) scripts() ([]string, error) {
	entries, err := os.ReadDir(r.dir)
	if err != nil {
		return nil, fmt.Errorf("read migrations dir: %w", err)
	}

	var names []string
	for _, e := range entries {
		if e.IsDir() || filepath.Ext(e.Name()) != ".sql" {
			continue
		}
		names = append(names, e.Name())
	}
	sort.Strings(names)
	return names, nil
}

func (r *Runner) isApplied(ctx context.Context, name string) (bool, error) {
	var n int
	q := r.db.Rebind(`SELECT COUNT(*) FROM migrations WHERE name = ?`)
	if err := sqlx.GetContext(ctx, r.db, &n, q, name); err != nil {
		return false, err
	}
	return n > 0, nil
}

func (r *Runner) apply(ctx context.Context, name string) error {
	script, err := os.ReadFile(filepath.Join(r.dir, name))
	if err != nil {
		return fmt.Errorf("read script: %w", err)
	}
	if strings.TrimSpace(string(script)) == "" {
		return errEmptyScript
	}

	return dbx.WithTx(ctx, r.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		if _, err := tx.ExecContext(ctx, string(script)); err != nil {
			return fmt.Errorf("exec script: %w", err)
		}

		q := tx.Rebind(`INSERT INTO migrations (id, name, migrated_on) VALUES (?, ?, ?)`)
		if _, err := tx.ExecContext(ctx, q, uuid.NewString(), name, r.now().UTC()); err != nil {
			return fmt.Errorf("record migration: %w", err)
		}
		return nil
	})
}
