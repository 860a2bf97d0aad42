// Package lists provides the SQL-backed repository for per-user task lists.
package lists

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

type SQLRepository struct {
	db dbx.DBTX
}

func NewSQLRepository(db dbx.DBTX) *SQLRepository {
	return &SQLRepository{db: db}
}

func (r *SQLRepository) Create(ctx context.Context, list *models.List) error {
	query := r.db.Rebind(`INSERT INTO lists (id, user_id) VALUES (?, ?)`)
	if _, err := r.db.ExecContext(ctx, query, list.ID, list.UserID); err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}

func (r *SQLRepository) GetByUserID(ctx context.Context, userID string) (*models.List, error) {
	list := &models.List{}
	query := r.db.Rebind(`SELECT id, user_id FROM lists WHERE user_id = ?`)
	if err := sqlx.GetContext(ctx, r.db, list, query, userID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	return list, nil
}
