package services

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/dmitrijs2005/todolist/internal/cryptox"
	"github.com/dmitrijs2005/todolist/internal/dbx"
	"github.com/dmitrijs2005/todolist/internal/logging"
	"github.com/dmitrijs2005/todolist/internal/server/models"
	"github.com/dmitrijs2005/todolist/internal/server/repositories/lists"
	"github.com/dmitrijs2005/todolist/internal/server/repositories/repomanager"
	"github.com/dmitrijs2005/todolist/internal/server/repositories/tasks"
	"github.com/dmitrijs2005/todolist/internal/server/repositories/users"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

const schemaDir = "../../../db/migrations"

func init() {
	cryptox.HashCost = bcrypt.MinCost
}

// --- helpers ---

func newSQLMockDB(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New error: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })
	return sqlx.NewDb(db, dbx.DriverPostgres), mock
}

// newSQLiteDB returns an in-memory database with the shipped schema applied.
func newSQLiteDB(t *testing.T) (*sqlx.DB, repomanager.RepositoryManager) {
	t.Helper()
	db, err := dbx.Open(dbx.DriverSQLite, ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	rm := repomanager.NewSQLRepositoryManager(schemaDir, logging.Nop{})
	_, err = rm.RunMigrations(context.Background(), db)
	require.NoError(t, err)
	return db, rm
}

// clock is a settable time source.
type clock struct {
	t time.Time
}

func (c *clock) now() time.Time           { return c.t }
func (c *clock) advance(d time.Duration) { c.t = c.t.Add(d) }

// --- fakes ---

type fakeUsersRepo struct {
	createErr error
	getOut    *models.User
	getErr    error
	updateN   int64
	updateErr error
}

func (f *fakeUsersRepo) Create(context.Context, *models.User) error { return f.createErr }
func (f *fakeUsersRepo) GetByID(context.Context, string) (*models.User, error) {
	return f.getOut, f.getErr
}
func (f *fakeUsersRepo) GetByUsername(context.Context, string) (*models.User, error) {
	return f.getOut, f.getErr
}
func (f *fakeUsersRepo) UpdateUsername(context.Context, string, string) (int64, error) {
	return f.updateN, f.updateErr
}
func (f *fakeUsersRepo) UpdatePassword(context.Context, string, string) (int64, error) {
	return f.updateN, f.updateErr
}

type fakeListsRepo struct {
	createErr error
	getOut    *models.List
	getErr    error
}

func (f *fakeListsRepo) Create(context.Context, *models.List) error { return f.createErr }
func (f *fakeListsRepo) GetByUserID(context.Context, string) (*models.List, error) {
	return f.getOut, f.getErr
}

type fakeTasksRepo struct {
	tasks.Repository
	getOut *models.Task
	getErr error
	err    error
}

func (f *fakeTasksRepo) Get(context.Context, string, string) (*models.Task, error) {
	return f.getOut, f.getErr
}
func (f *fakeTasksRepo) Create(context.Context, *models.Task) error { return f.err }
func (f *fakeTasksRepo) ListActive(context.Context, string) ([]*models.Task, error) {
	return nil, f.err
}
func (f *fakeTasksRepo) Delete(context.Context, string, string) (int64, error) {
	return 0, f.err
}

type fakeRepoManager struct {
	u *fakeUsersRepo
	l *fakeListsRepo
	t *fakeTasksRepo
}

func (m *fakeRepoManager) RunMigrations(context.Context, *sqlx.DB) ([]string, error) { return nil, nil }
func (m *fakeRepoManager) Users(dbx.DBTX) users.Repository                          { return m.u }
func (m *fakeRepoManager) Lists(dbx.DBTX) lists.Repository                          { return m.l }
func (m *fakeRepoManager) Tasks(dbx.DBTX) tasks.Repository                          { return m.t }
