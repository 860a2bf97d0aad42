package web

import (
	"net/http"
	"strconv"

	"github.com/dmitrijs2005/todolist/internal/common"
	"github.com/labstack/echo/v4"
)

// taskRequest is the body of task create and update calls. Older clients
// also send completedOn; it is ignored because the server derives it.
type taskRequest struct {
	Description string `json:"description" form:"description"`
	Completed   *bool  `json:"completed"`
}

func (s *Server) index(c echo.Context) error {
	rc := requestContext(c)

	tasks, err := s.tasks.ListActive(c.Request().Context(), rc.Identity())
	if err != nil {
		return err
	}
	flashes, err := s.popFlashes(c)
	if err != nil {
		return err
	}
	return c.Render(http.StatusOK, "index", page{User: rc.User, Flashes: flashes, Tasks: tasks})
}

// createTask answers JSON clients with the bare task id.
func (s *Server) createTask(c echo.Context) error {
	var req taskRequest
	if err := c.Bind(&req); err != nil {
		return err
	}

	id, err := s.tasks.Create(c.Request().Context(), requestContext(c).Identity(), req.Description)
	if err != nil {
		return err
	}

	if !wantsJSON(c.Request()) {
		return c.Redirect(http.StatusSeeOther, "/")
	}
	return c.JSON(http.StatusCreated, id)
}

func (s *Server) getTask(c echo.Context) error {
	task, err := s.tasks.Get(c.Request().Context(), requestContext(c).Identity(), c.Param("id"))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, task)
}

func (s *Server) updateTask(c echo.Context) error {
	var req taskRequest
	if err := c.Bind(&req); err != nil {
		return err
	}
	if req.Completed == nil {
		return common.NewValidationError(common.FieldCompleted)
	}

	n, err := s.tasks.Update(c.Request().Context(), requestContext(c).Identity(),
		c.Param("id"), req.Description, *req.Completed)
	if err != nil {
		return err
	}
	if n == 0 {
		return common.ErrorNotFound
	}
	return c.JSON(http.StatusOK, n)
}

func (s *Server) deleteTask(c echo.Context) error {
	n, err := s.tasks.Delete(c.Request().Context(), requestContext(c).Identity(), c.Param("id"))
	if err != nil {
		return err
	}
	if n == 0 {
		return common.ErrorNotFound
	}
	return c.JSON(http.StatusOK, n)
}

func (s *Server) listTasks(c echo.Context) error {
	rc := requestContext(c)

	tasks, err := s.tasks.ListActive(c.Request().Context(), rc.Identity())
	if err != nil {
		return err
	}

	if !wantsJSON(c.Request()) {
		return c.Render(http.StatusOK, "index", page{User: rc.User, Tasks: tasks})
	}
	return c.JSON(http.StatusOK, tasks)
}

// history serves page ?p=N of completed tasks. Missing or malformed page
// numbers mean the first page.
func (s *Server) history(c echo.Context) error {
	rc := requestContext(c)

	p, err := strconv.Atoi(c.QueryParam("p"))
	if err != nil {
		p = 0
	}

	result, err := s.tasks.ListCompleted(c.Request().Context(), rc.Identity(), p)
	if err != nil {
		return err
	}

	if !wantsJSON(c.Request()) {
		return c.Render(http.StatusOK, "history", page{User: rc.User, History: result, Page: p})
	}
	return c.JSON(http.StatusOK, result)
}
