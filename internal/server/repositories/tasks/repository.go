package tasks

import (
	"context"

	"github.com/dmitrijs2005/todolist/internal/server/models"
)

// Repository methods are scoped to one list; a task of another list behaves
// as if it did not exist.
type Repository interface {
	Create(ctx context.Context, task *models.Task) error
	Get(ctx context.Context, listID, id string) (*models.Task, error)
	Update(ctx context.Context, task *models.Task) (int64, error)
	Delete(ctx context.Context, listID, id string) (int64, error)
	ListActive(ctx context.Context, listID string) ([]*models.Task, error)
	ListCompleted(ctx context.Context, listID string, limit, offset int) ([]*models.Task, error)
	CountCompleted(ctx context.Context, listID string) (int, error)
}
