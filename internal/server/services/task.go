package services

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/dmitrijs2005/todolist/internal/common"
	"github.com/dmitrijs2005/todolist/internal/dbx"
	"github.com/dmitrijs2005/todolist/internal/server/auth"
	"github.com/dmitrijs2005/todolist/internal/server/models"
	"github.com/dmitrijs2005/todolist/internal/server/repositories/repomanager"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
)

// HistoryPageSize is the number of completed tasks per history page.
const HistoryPageSize = 10

// TaskPage is one page of completed tasks plus the total across all pages.
type TaskPage struct {
	Tasks    []*models.Task `json:"tasks"`
	Count    int            `json:"count"`
	PageSize int            `json:"pageSize"`
}

// TaskService operates on the list of the identity passed to each call.
// Tasks of other lists are reported as not found.
type TaskService struct {
	db          *sqlx.DB
	repomanager repomanager.RepositoryManager
	now         func() time.Time
}

func NewTaskService(db *sqlx.DB, m repomanager.RepositoryManager) *TaskService {
	return &TaskService{db: db, repomanager: m, now: time.Now}
}

func (s *TaskService) Create(ctx context.Context, id auth.Identity, description string) (string, error) {
	description = strings.TrimSpace(description)
	if description == "" {
		return "", common.NewValidationError(common.FieldDescription)
	}

	now := s.now().UTC()
	task := &models.Task{
		ID:          uuid.NewString(),
		ListID:      id.ListID,
		Description: description,
		CreatedOn:   now,
		UpdatedOn:   now,
	}

	err := dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		return s.repomanager.Tasks(tx).Create(ctx, task)
	})
	if err != nil {
		return "", classify("create task", err)
	}
	return task.ID, nil
}

func (s *TaskService) Get(ctx context.Context, id auth.Identity, taskID string) (*models.Task, error) {
	task, err := s.repomanager.Tasks(s.db).Get(ctx, id.ListID, taskID)
	if err != nil {
		return nil, classify("get task", err)
	}
	return task, nil
}

// Update sets description and completed. completed_on is derived from the
// stored state: it is stamped when the task becomes completed, cleared when
// it is reopened and kept otherwise. It returns 0 when the task does not
// exist in the caller's list.
func (s *TaskService) Update(ctx context.Context, id auth.Identity, taskID, description string, completed bool) (int64, error) {
	description = strings.TrimSpace(description)
	if description == "" {
		return 0, common.NewValidationError(common.FieldDescription)
	}

	var affected int64
	err := dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		repo := s.repomanager.Tasks(tx)

		task, err := repo.Get(ctx, id.ListID, taskID)
		if err != nil {
			return err
		}

		now := s.now().UTC()
		task.CompletedOn = task.CompletionTransition(completed, now)
		task.Completed = completed
		task.Description = description
		task.UpdatedOn = now

		affected, err = repo.Update(ctx, task)
		return err
	})
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return 0, nil
		}
		return 0, classify("update task", err)
	}
	return affected, nil
}

func (s *TaskService) Delete(ctx context.Context, id auth.Identity, taskID string) (int64, error) {
	var affected int64
	err := dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		var err error
		affected, err = s.repomanager.Tasks(tx).Delete(ctx, id.ListID, taskID)
		return err
	})
	if err != nil {
		return 0, classify("delete task", err)
	}
	return affected, nil
}

func (s *TaskService) ListActive(ctx context.Context, id auth.Identity) ([]*models.Task, error) {
	tasks, err := s.repomanager.Tasks(s.db).ListActive(ctx, id.ListID)
	if err != nil {
		return nil, classify("list active tasks", err)
	}
	return tasks, nil
}

// ListCompleted returns the zero-based page of completed tasks, newest
// completion first. Negative pages are treated as the first page.
func (s *TaskService) ListCompleted(ctx context.Context, id auth.Identity, page int) (*TaskPage, error) {
	if page < 0 {
		page = 0
	}

	result := &TaskPage{PageSize: HistoryPageSize}
	err := dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		repo := s.repomanager.Tasks(tx)

		var err error
		if result.Count, err = repo.CountCompleted(ctx, id.ListID); err != nil {
			return err
		}
		result.Tasks, err = repo.ListCompleted(ctx, id.ListID, HistoryPageSize, page*HistoryPageSize)
		return err
	})
	if err != nil {
		return nil, classify("list completed tasks", err)
	}
	return result, nil
}
