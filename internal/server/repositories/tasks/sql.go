// Package tasks provides the SQL-backed repository for to-do items.
package tasks

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

const taskColumns = `id, list_id, description, completed, completed_on, created_on, updated_on`

type SQLRepository struct {
	db dbx.DBTX
}

func NewSQLRepository(db dbx.DBTX) *SQLRepository {
	return &SQLRepository{db: db}
}

func (r *SQLRepository) Create(ctx context.Context, task *models.Task) error {
	query := r.db.Rebind(
		`INSERT INTO tasks (` + taskColumns + `)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`)

	_, err := r.db.ExecContext(ctx, query,
		task.ID, task.ListID, task.Description, task.Completed, task.CompletedOn, task.CreatedOn, task.UpdatedOn)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}

func (r *SQLRepository) Get(ctx context.Context, listID, id string) (*models.Task, error) {
	task := &models.Task{}
	query := r.db.Rebind(`SELECT ` + taskColumns + ` FROM tasks WHERE id = ? AND list_id = ?`)
	if err := sqlx.GetContext(ctx, r.db, task, query, id, listID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	return task, nil
}

// Update writes the mutable fields of task. The caller derives CompletedOn
// and UpdatedOn.
func (r *SQLRepository) Update(ctx context.Context, task *models.Task) (int64, error) {
	query := r.db.Rebind(
		`UPDATE tasks
		 SET description = ?, completed = ?, completed_on = ?, updated_on = ?
		 WHERE id = ? AND list_id = ?`)

	return r.exec(ctx, query,
		task.Description, task.Completed, task.CompletedOn, task.UpdatedOn, task.ID, task.ListID)
}

func (r *SQLRepository) Delete(ctx context.Context, listID, id string) (int64, error) {
	return r.exec(ctx, r.db.Rebind(`DELETE FROM tasks WHERE id = ? AND list_id = ?`), id, listID)
}

func (r *SQLRepository) ListActive(ctx context.Context, listID string) ([]*models.Task, error) {
	query := r.db.Rebind(
		`SELECT ` + taskColumns + ` FROM tasks
		 WHERE list_id = ? AND completed = ?
		 ORDER BY created_on, id`)

	result := []*models.Task{}
	if err := sqlx.SelectContext(ctx, r.db, &result, query, listID, false); err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	return result, nil
}

// ListCompleted returns one page of completed tasks, most recently completed
// first.
func (r *SQLRepository) ListCompleted(ctx context.Context, listID string, limit, offset int) ([]*models.Task, error) {
	query := r.db.Rebind(
		`SELECT ` + taskColumns + ` FROM tasks
		 WHERE list_id = ? AND completed = ?
		 ORDER BY completed_on DESC, id
		 LIMIT ? OFFSET ?`)

	result := []*models.Task{}
	if err := sqlx.SelectContext(ctx, r.db, &result, query, listID, true, limit, offset); err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	return result, nil
}

func (r *SQLRepository) CountCompleted(ctx context.Context, listID string) (int, error) {
	var n int
	query := r.db.Rebind(`SELECT COUNT(*) FROM tasks WHERE list_id = ? AND completed = ?`)
	if err := sqlx.GetContext(ctx, r.db, &n, query, listID, true); err != nil {
		return 0, fmt.Errorf("db error: %w", err)
	}
	return n, nil
}

func (r *SQLRepository) exec(ctx context.Context, query string, args ...any) (int64, error) {
	res, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return 0, fmt.Errorf("db error: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("rows affected error: %w", err)
	}
	return n, nil
}
