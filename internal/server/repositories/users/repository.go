package users

import (
	"context"

	"github.com/dmitrijs2005/todolist/internal/server/models"
)

type Repository interface {
	Create(ctx context.Context, user *models.User) error
	GetByID(ctx context.Context, id string) (*models.User, error)
	GetByUsername(ctx context.Context, username string) (*models.User, error)
	UpdateUsername(ctx context.Context, id, username string) (int64, error)
	UpdatePassword(ctx context.Context, id, digest string) (int64, error)
}
