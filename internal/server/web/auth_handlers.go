package web

import (
	"errors"
	"net/http"
	"net/url"

	"github.com/dmitrijs2005/todolist/internal/common"
	"github.com/dmitrijs2005/todolist/internal/server/auth"
	"github.com/labstack/echo/v4"
)

const (
	formUsername             = "username"
	formPassword             = "password"
	formPasswordConfirmation = "password-confirmation"
	formNext                 = "next"
)

func (s *Server) registerForm(c echo.Context) error {
	flashes, err := s.popFlashes(c)
	if err != nil {
		return err
	}
	return c.Render(http.StatusOK, "register", page{Flashes: flashes, Form: map[string]string{}})
}

func (s *Server) register(c echo.Context) error {
	username := c.FormValue(formUsername)

	user, err := s.users.Register(c.Request().Context(),
		username, c.FormValue(formPassword), c.FormValue(formPasswordConfirmation))
	if err != nil {
		var ve *common.ValidationError
		if errors.As(err, &ve) && !wantsJSON(c.Request()) {
			return c.Render(http.StatusOK, "register", page{
				Flashes: errorFlashes(ve.Fields...),
				Form:    map[string]string{formUsername: username},
			})
		}
		return err
	}

	if wantsJSON(c.Request()) {
		return c.JSON(http.StatusCreated, map[string]string{"id": user.ID})
	}
	return c.Redirect(http.StatusFound, "/auth/login")
}

func (s *Server) loginForm(c echo.Context) error {
	flashes, err := s.popFlashes(c)
	if err != nil {
		return err
	}
	return c.Render(http.StatusOK, "login", page{Flashes: flashes, Form: map[string]string{}})
}

// login replaces whatever session the client had with a fresh one bound to
// the authenticated user.
func (s *Server) login(c echo.Context) error {
	ctx := c.Request().Context()
	username := c.FormValue(formUsername)

	id, err := s.users.Login(ctx, username, c.FormValue(formPassword))
	if err != nil {
		if errors.Is(err, common.ErrInvalidCredentials) {
			s.logger.Info(ctx, "Login failed", "username", username)
			if wantsJSON(c.Request()) {
				return c.JSON(http.StatusUnauthorized, "Unauthorized")
			}
			return c.Render(http.StatusOK, "login", page{
				Flashes: errorFlashes(common.FieldUsername),
				Form:    map[string]string{formUsername: username},
			})
		}
		return err
	}

	if err := s.sessions.Delete(ctx, requestContext(c).Session.ID); err != nil {
		return err
	}

	sess, err := auth.NewSession()
	if err != nil {
		return err
	}
	sess.SignIn(id)
	if err := s.saveSession(c, sess); err != nil {
		return err
	}

	s.logger.Info(ctx, "User logged in", "user_id", id.UserID)

	if wantsJSON(c.Request()) {
		return c.NoContent(http.StatusNoContent)
	}
	return c.Redirect(http.StatusFound, "/")
}

func (s *Server) logout(c echo.Context) error {
	if err := s.destroySession(c, requestContext(c).Session); err != nil {
		s.logger.Warn(c.Request().Context(), "Session delete failed", "error", err)
	}
	return c.Redirect(http.StatusFound, "/auth/login")
}

func (s *Server) confirmPasswordForm(c echo.Context) error {
	rc := requestContext(c)
	flashes, err := s.popFlashes(c)
	if err != nil {
		return err
	}
	return c.Render(http.StatusOK, "confirm-password", page{
		User:    rc.User,
		Flashes: flashes,
		Next:    localPath(c.QueryParam(formNext), "/"),
	})
}

// confirmPassword stamps the session on success and sends the user on to
// next. On failure it flashes a password error and returns to the page the
// form was posted from.
func (s *Server) confirmPassword(c echo.Context) error {
	rc := requestContext(c)
	next := c.FormValue(formNext)

	err := s.users.VerifyPassword(c.Request().Context(), rc.User.ID, c.FormValue(formPassword))
	switch {
	case err == nil:
		rc.Session.Confirm(s.now())
		if err := s.saveSession(c, rc.Session); err != nil {
			return err
		}
		return c.Redirect(http.StatusFound, localPath(next, "/"))

	case errors.Is(err, common.ErrInvalidCredentials):
		if err := s.flash(c, auth.FlashError, common.FieldPassword); err != nil {
			return err
		}
		back := "/auth/confirm-password?next=" + url.QueryEscape(localPath(next, "/"))
		return c.Redirect(http.StatusFound, refererPath(c, back))

	default:
		return err
	}
}

// refererPath returns the path of a same-host Referer, or fallback.
func refererPath(c echo.Context, fallback string) string {
	ref := c.Request().Referer()
	if ref == "" {
		return fallback
	}
	u, err := url.Parse(ref)
	if err != nil || (u.Host != "" && u.Host != c.Request().Host) {
		return fallback
	}
	return localPath(u.RequestURI(), fallback)
}
