package services

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/dmitrijs2005/todolist/internal/common"
	"github.com/dmitrijs2005/todolist/internal/server/auth"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// newTaskFixture registers alice and returns a TaskService on a controllable
// clock together with her identity.
func newTaskFixture(t *testing.T) (*TaskService, auth.Identity, *clock) {
	t.Helper()
	db, rm := newSQLiteDB(t)
	ctx := context.Background()

	users := NewUserService(db, rm)
	_, err := users.Register(ctx, "alice", "password123", "password123")
	require.NoError(t, err)
	id, err := users.Login(ctx, "alice", "password123")
	require.NoError(t, err)

	c := &clock{t: time.Date(2024, 5, 1, 9, 0, 0, 0, time.UTC)}
	s := NewTaskService(db, rm)
	s.now = c.now
	return s, id, c
}

func TestTaskService_CreateGet(t *testing.T) {
	s, id, c := newTaskFixture(t)
	ctx := context.Background()

	taskID, err := s.Create(ctx, id, "  buy milk ")
	require.NoError(t, err)

	task, err := s.Get(ctx, id, taskID)
	require.NoError(t, err)
	assert.Equal(t, "buy milk", task.Description)
	assert.Equal(t, id.ListID, task.ListID)
	assert.False(t, task.Completed)
	assert.Nil(t, task.CompletedOn)
	assert.True(t, task.CreatedOn.Equal(c.t))
	assert.True(t, task.UpdatedOn.Equal(c.t))
}

func TestTaskService_CreateRejectsBlankDescription(t *testing.T) {
	s, id, _ := newTaskFixture(t)

	_, err := s.Create(context.Background(), id, " \t ")
	assert.Equal(t, []string{common.FieldDescription}, validationFields(t, err))
}

func TestTaskService_CompletionTransitions(t *testing.T) {
	s, id, c := newTaskFixture(t)
	ctx := context.Background()

	taskID, err := s.Create(ctx, id, "write report")
	require.NoError(t, err)

	// open -> done stamps the current time
	c.advance(time.Hour)
	doneAt := c.t
	n, err := s.Update(ctx, id, taskID, "write report", true)
	require.NoError(t, err)
	assert.EqualValues(t, 1, n)

	task, err := s.Get(ctx, id, taskID)
	require.NoError(t, err)
	require.NotNil(t, task.CompletedOn)
	assert.True(t, task.CompletedOn.Equal(doneAt))
	assert.False(t, task.CompletedOn.Before(task.CreatedOn))

	// done -> done keeps the stamp but refreshes updated_on
	c.advance(time.Hour)
	_, err = s.Update(ctx, id, taskID, "write final report", true)
	require.NoError(t, err)

	task, err = s.Get(ctx, id, taskID)
	require.NoError(t, err)
	require.NotNil(t, task.CompletedOn)
	assert.True(t, task.CompletedOn.Equal(doneAt))
	assert.True(t, task.UpdatedOn.Equal(c.t))
	assert.Equal(t, "write final report", task.Description)

	// done -> open clears it
	c.advance(time.Hour)
	_, err = s.Update(ctx, id, taskID, "write final report", false)
	require.NoError(t, err)

	task, err = s.Get(ctx, id, taskID)
	require.NoError(t, err)
	assert.False(t, task.Completed)
	assert.Nil(t, task.CompletedOn)
}

func TestTaskService_OtherListsAreInvisible(t *testing.T) {
	s, id, _ := newTaskFixture(t)
	ctx := context.Background()

	taskID, err := s.Create(ctx, id, "private")
	require.NoError(t, err)

	stranger := auth.Identity{UserID: "u-x", ListID: "l-x"}

	_, err = s.Get(ctx, stranger, taskID)
	assert.ErrorIs(t, err, common.ErrorNotFound)

	n, err := s.Update(ctx, stranger, taskID, "hijacked", true)
	require.NoError(t, err)
	assert.Zero(t, n)

	n, err = s.Delete(ctx, stranger, taskID)
	require.NoError(t, err)
	assert.Zero(t, n)

	task, err := s.Get(ctx, id, taskID)
	require.NoError(t, err)
	assert.Equal(t, "private", task.Description)
}

func TestTaskService_Delete(t *testing.T) {
	s, id, _ := newTaskFixture(t)
	ctx := context.Background()

	taskID, err := s.Create(ctx, id, "temp")
	require.NoError(t, err)

	n, err := s.Delete(ctx, id, taskID)
	require.NoError(t, err)
	assert.EqualValues(t, 1, n)

	n, err = s.Delete(ctx, id, taskID)
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestTaskService_ListActiveAndHistory(t *testing.T) {
	s, id, c := newTaskFixture(t)
	ctx := context.Background()

	var ids []string
	for i := 0; i < 13; i++ {
		c.advance(time.Minute)
		taskID, err := s.Create(ctx, id, fmt.Sprintf("task %02d", i))
		require.NoError(t, err)
		ids = append(ids, taskID)
	}
	for _, taskID := range ids[:12] {
		c.advance(time.Minute)
		_, err := s.Update(ctx, id, taskID, "done", true)
		require.NoError(t, err)
	}

	active, err := s.ListActive(ctx, id)
	require.NoError(t, err)
	require.Len(t, active, 1)
	assert.Equal(t, ids[12], active[0].ID)

	page, err := s.ListCompleted(ctx, id, 0)
	require.NoError(t, err)
	assert.Equal(t, 12, page.Count)
	assert.Equal(t, HistoryPageSize, page.PageSize)
	require.Len(t, page.Tasks, 10)
	assert.Equal(t, ids[11], page.Tasks[0].ID, "most recently completed first")

	page, err = s.ListCompleted(ctx, id, 1)
	require.NoError(t, err)
	require.Len(t, page.Tasks, 2)
	assert.Equal(t, ids[0], page.Tasks[1].ID)

	page, err = s.ListCompleted(ctx, id, -3)
	require.NoError(t, err)
	assert.Len(t, page.Tasks, 10)

	page, err = s.ListCompleted(ctx, id, 5)
	require.NoError(t, err)
	assert.Empty(t, page.Tasks)
	assert.Equal(t, 12, page.Count)
}

func TestTaskService_UpdateMissingRollsBack(t *testing.T) {
	db, mock := newSQLMockDB(t)
	mock.ExpectBegin()
	mock.ExpectRollback()

	rm := &fakeRepoManager{t: &fakeTasksRepo{getErr: common.ErrorNotFound}}
	s := NewTaskService(db, rm)

	n, err := s.Update(context.Background(), auth.Identity{ListID: "l-1"}, "t-1", "x", true)
	require.NoError(t, err)
	assert.Zero(t, n)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestTaskService_StorageErrors(t *testing.T) {
	db, mock := newSQLMockDB(t)
	mock.ExpectBegin()
	mock.ExpectRollback()

	rm := &fakeRepoManager{t: &fakeTasksRepo{err: errors.New("db error: connection reset")}}
	s := NewTaskService(db, rm)
	ctx := context.Background()
	id := auth.Identity{ListID: "l-1"}

	_, err := s.Create(ctx, id, "x")
	var se *common.StorageError
	require.True(t, errors.As(err, &se))
	assert.Equal(t, "create task", se.Op)

	_, err = s.ListActive(ctx, id)
	require.True(t, errors.As(err, &se))
	assert.Equal(t, "list active tasks", se.Op)

	assert.NoError(t, mock.ExpectationsWereMet())
}
