package lists

import (
	"context"

	"github.com/dmitrijs2005/todolist/internal/server/models"
)

type Repository interface {
	Create(ctx context.Context, list *models.List) error
	GetByUserID(ctx context.Context, userID string) (*models.List, error)
}
