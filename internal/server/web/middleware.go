package web

import (
	"errors"
	"net/http"
	"net/url"

	"github.com/dmitrijs2005/todolist/internal/common"
	"github.com/dmitrijs2005/todolist/internal/server/auth"
	"github.com/labstack/echo/v4"
)

// loadCurrentUser resolves the session and looks the user up afresh on every
// request. A session whose user no longer exists is downgraded to anonymous.
func (s *Server) loadCurrentUser(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		if c.Path() == healthzPath {
			return next(c)
		}

		ctx := c.Request().Context()

		sess, err := s.resolveSession(c)
		if err != nil {
			return err
		}

		rc := &RequestContext{Session: sess}
		if sess.Authenticated() {
			user, err := s.users.CurrentUser(ctx, sess.UserID)
			switch {
			case err == nil:
				rc.User = user
			case errors.Is(err, common.ErrorNotFound):
				s.logger.Info(ctx, "Session user no longer exists", "user_id", sess.UserID)
				sess.Clear()
				if err := s.saveSession(c, sess); err != nil {
					return err
				}
			default:
				return err
			}
		}

		c.Set(requestContextKey, rc)
		return next(c)
	}
}

// requireAuthenticated rejects anonymous requests: JSON clients get 401,
// browsers are sent to the login page.
func (s *Server) requireAuthenticated(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		if requestContext(c).User == nil {
			if wantsJSON(c.Request()) {
				return common.ErrorUnauthorized
			}
			return c.Redirect(http.StatusFound, "/auth/login")
		}
		return next(c)
	}
}

// requireConfirmedRecently sends the user to the password confirmation page
// unless they confirmed within auth.ConfirmationWindow. JSON clients get
// common.ErrConfirmationRequired instead. It must run after
// requireAuthenticated.
func (s *Server) requireConfirmedRecently(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		if requestContext(c).Session.ConfirmedWithin(s.now(), auth.ConfirmationWindow) {
			return next(c)
		}
		if wantsJSON(c.Request()) {
			return common.ErrConfirmationRequired
		}
		target := "/auth/confirm-password?next=" + url.QueryEscape(confirmationNext(c))
		return c.Redirect(http.StatusFound, target)
	}
}

// confirmationNext is where a successful confirmation should land. A GET is
// simply repeated. Form posts cannot be replayed by a redirect, so the user
// goes back to the page the form was on.
func confirmationNext(c echo.Context) string {
	r := c.Request()
	if r.Method == http.MethodGet || r.Method == http.MethodHead {
		return r.URL.RequestURI()
	}
	return refererPath(c, settingsPath)
}
