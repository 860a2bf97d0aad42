package dbx

import (
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgconn"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/jmoiron/sqlx"
	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"
)

const (
	DriverPostgres = "pgx"
	DriverSQLite   = "sqlite"
)

const pgUniqueViolation = "23505"

func init() {
	// modernc registers itself as "sqlite", which sqlx does not know about.
	sqlx.BindDriver(DriverSQLite, sqlx.QUESTION)
}

// Open prepares a pool for one of the supported drivers. No connection is
// made until first use; callers ping when they need to fail fast.
func Open(driver, dsn string) (*sqlx.DB, error) {
	switch driver {
	case DriverPostgres, DriverSQLite:
	default:
		return nil, fmt.Errorf("unsupported database driver %q", driver)
	}

	db, err := sqlx.Open(driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("db open error: %w", err)
	}

	if driver == DriverSQLite {
		// SQLite allows one writer; a single connection keeps transactions
		// from failing with SQLITE_BUSY.
		db.SetMaxOpenConns(1)
	}

	return db, nil
}

// IsUniqueViolation reports whether err came from a UNIQUE or PRIMARY KEY
// constraint on either supported driver.
func IsUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == pgUniqueViolation
	}

	var liteErr *sqlite.Error
	if errors.As(err, &liteErr) {
		code := liteErr.Code()
		return code == sqlite3.SQLITE_CONSTRAINT_UNIQUE || code == sqlite3.SQLITE_CONSTRAINT_PRIMARYKEY
	}

	return false
}
