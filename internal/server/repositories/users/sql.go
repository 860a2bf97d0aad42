// Package users provides the SQL-backed repository for user accounts.
package users

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/dmitrijs2005/todolist/internal/common"
	"github.com/dmitrijs2005/todolist/internal/dbx"
	"github.com/dmitrijs2005/todolist/internal/server/models"
	"github.com/jmoiron/sqlx"
)

// SQLRepository implements Repository over a dbx.DBTX (*sqlx.DB or *sqlx.Tx).
type SQLRepository struct {
	db dbx.DBTX
}

func NewSQLRepository(db dbx.DBTX) *SQLRepository {
	return &SQLRepository{db: db}
}

// Create inserts the user. A duplicate username is reported by the driver
// and can be recognized with dbx.IsUniqueViolation.
func (r *SQLRepository) Create(ctx context.Context, user *models.User) error {
	query := r.db.Rebind(
		`INSERT INTO users (id, username, password, created_on)
		 VALUES (?, ?, ?, ?)`)

	_, err := r.db.ExecContext(ctx, query, user.ID, user.Username, user.PasswordDigest, user.CreatedOn)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}

func (r *SQLRepository) GetByID(ctx context.Context, id string) (*models.User, error) {
	return r.getOne(ctx, `SELECT id, username, password, created_on FROM users WHERE id = ?`, id)
}

func (r *SQLRepository) GetByUsername(ctx context.Context, username string) (*models.User, error) {
	return r.getOne(ctx, `SELECT id, username, password, created_on FROM users WHERE username = ?`, username)
}

func (r *SQLRepository) getOne(ctx context.Context, query string, arg any) (*models.User, error) {
	user := &models.User{}
	if err := sqlx.GetContext(ctx, r.db, user, r.db.Rebind(query), arg); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	return user, nil
}

func (r *SQLRepository) UpdateUsername(ctx context.Context, id, username string) (int64, error) {
	return r.exec(ctx, `UPDATE users SET username = ? WHERE id = ?`, username, id)
}

func (r *SQLRepository) UpdatePassword(ctx context.Context, id, digest string) (int64, error) {
	return r.exec(ctx, `UPDATE users SET password = ? WHERE id = ?`, digest, id)
}

func (r *SQLRepository) exec(ctx context.Context, query string, args ...any) (int64, error) {
	res, err := r.db.ExecContext(ctx, r.db.Rebind(query), args...)
	if err != nil {
		return 0, fmt.Errorf("db error: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("rows affected error: %w", err)
	}
	return n, nil
}
