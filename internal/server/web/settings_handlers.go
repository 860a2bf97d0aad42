package web

import (
	"errors"
	"net/http"

	"github.com/dmitrijs2005/todolist/internal/common"
	"github.com/dmitrijs2005/todolist/internal/server/auth"
	"github.com/labstack/echo/v4"
)

const settingsPath = "/settings/"

func (s *Server) settings(c echo.Context) error {
	flashes, err := s.popFlashes(c)
	if err != nil {
		return err
	}
	return c.Render(http.StatusOK, "settings", page{User: requestContext(c).User, Flashes: flashes})
}

func (s *Server) changeUsername(c echo.Context) error {
	rc := requestContext(c)

	err := s.users.ChangeUsername(c.Request().Context(), rc.User.ID, c.FormValue(formUsername))
	if err := s.flashOutcome(c, err, common.FieldUsername); err != nil {
		return err
	}
	return c.Redirect(http.StatusFound, settingsPath)
}

func (s *Server) changePassword(c echo.Context) error {
	rc := requestContext(c)

	err := s.users.ChangePassword(c.Request().Context(), rc.User.ID,
		c.FormValue(common.FieldCurrentPassword),
		c.FormValue(common.FieldNewPassword),
		c.FormValue(common.FieldNewPasswordConfirmation))
	if err := s.flashOutcome(c, err, common.FieldCurrentPassword); err != nil {
		return err
	}
	return c.Redirect(http.StatusFound, settingsPath)
}

// flashOutcome turns the result of a settings change into flashes: an info
// flash on success, one error flash per failed field on validation errors.
// Other errors are returned.
func (s *Server) flashOutcome(c echo.Context, err error, successField string) error {
	if err == nil {
		return s.flash(c, auth.FlashInfo, successField)
	}

	var ve *common.ValidationError
	if errors.As(err, &ve) {
		return s.flash(c, auth.FlashError, ve.Fields...)
	}
	return err
}
