package repomanager

import (
	"context"

	"github.com/dmitrijs2005/todolist/internal/dbx"
	"github.com/dmitrijs2005/todolist/internal/server/repositories/lists"
	"github.com/dmitrijs2005/todolist/internal/server/repositories/tasks"
	"github.com/dmitrijs2005/todolist/internal/server/repositories/users"
	"github.com/jmoiron/sqlx"
)

type RepositoryManager interface {
	RunMigrations(ctx context.Context, db *sqlx.DB) ([]string, error)
	Users(db dbx.DBTX) users.Repository
	Lists(db dbx.DBTX) lists.Repository
	Tasks(db dbx.DBTX) tasks.Repository
}
