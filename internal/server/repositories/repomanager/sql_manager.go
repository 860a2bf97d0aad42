// Package repomanager provides a concrete RepositoryManager for the SQL
// databases supported by dbx, wiring together repository constructors and
// the migration runner.
package repomanager

import (
	"context"

	"github.com/dmitrijs2005/todolist/internal/dbx"
	"github.com/dmitrijs2005/todolist/internal/logging"
	"github.com/dmitrijs2005/todolist/internal/server/migrations"
	"github.com/dmitrijs2005/todolist/internal/server/repositories/lists"
	"github.com/dmitrijs2005/todolist/internal/server/repositories/tasks"
	"github.com/dmitrijs2005/todolist/internal/server/repositories/users"
	"github.com/jmoiron/sqlx"
)

// SQLRepositoryManager vends SQL-backed repository implementations and
// exposes a schema migration hook.
type SQLRepositoryManager struct {
	migrationsDir string
	logger        logging.Logger
}

// Users returns a users.Repository bound to the provided DBTX.
func (m *SQLRepositoryManager) Users(db dbx.DBTX) users.Repository {
	return users.NewSQLRepository(db)
}

// Lists returns a lists.Repository bound to the provided DBTX.
func (m *SQLRepositoryManager) Lists(db dbx.DBTX) lists.Repository {
	return lists.NewSQLRepository(db)
}

// Tasks returns a tasks.Repository bound to the provided DBTX.
func (m *SQLRepositoryManager) Tasks(db dbx.DBTX) tasks.Repository {
	return tasks.NewSQLRepository(db)
}

// runMigrations is a seam for testing the migration runner.
var runMigrations = func(ctx context.Context, db *sqlx.DB, dir string, logger logging.Logger) ([]string, error) {
	return migrations.NewRunner(db, dir, logger).Run(ctx)
}

// RunMigrations applies pending scripts from the configured directory and
// returns the names applied by this call.
func (m *SQLRepositoryManager) RunMigrations(ctx context.Context, db *sqlx.DB) ([]string, error) {
	return runMigrations(ctx, db, m.migrationsDir, m.logger)
}

// NewSQLRepositoryManager constructs a RepositoryManager reading migration
// scripts from migrationsDir.
func NewSQLRepositoryManager(migrationsDir string, logger logging.Logger) RepositoryManager {
	return &SQLRepositoryManager{migrationsDir: migrationsDir, logger: logger}
}
