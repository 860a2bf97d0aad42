// Package dbx provides the small database layer shared by repositories and
// the migration runner: a DBTX interface implemented by both *sqlx.DB and
// *sqlx.Tx, a helper to run functions inside a transaction, and the few
// places where PostgreSQL and SQLite need to be told apart.
package dbx

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/jmoiron/sqlx"
)

// DBTX is the subset of sqlx used by our repos. Queries are written with "?"
// bind vars and passed through Rebind so they run on either driver.
type DBTX interface {
	sqlx.ExtContext
}

// WithTx begins a transaction, runs fn with a transactional handle, and then
// commits on success or rolls back on error/panic. Panics are rethrown.
//
//	err := dbx.WithTx(ctx, db, nil, func(ctx context.Context, tx dbx.DBTX) error {
//	    _, err := tx.ExecContext(ctx, tx.Rebind("UPDATE tasks SET ... WHERE id = ?"), id)
//	    return err
//	})
func WithTx(ctx context.Context, db *sqlx.DB, opts *sql.TxOptions, fn func(ctx context.Context, tx DBTX) error) (err error) {
	tx, err := db.BeginTxx(ctx, opts)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}

	defer func() {
		if p := recover(); p != nil {
			_ = tx.Rollback()
			panic(p)
		}
		if err != nil {
			_ = tx.Rollback()
			return
		}
		if cerr := tx.Commit(); cerr != nil {
			err = fmt.Errorf("commit tx: %w", cerr)
		}
	}()

	err = fn(ctx, tx)
	return err
}
