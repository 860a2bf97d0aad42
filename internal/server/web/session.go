package web

import (
	"errors"
	"net/http"

	"github.com/dmitrijs2005/todolist/internal/common"
	"github.com/dmitrijs2005/todolist/internal/server/auth"
	"github.com/labstack/echo/v4"
)

const SessionCookieName = "session"

// resolveSession returns the stored session named by the request cookie, or
// a fresh unsaved one. Only store failures are reported.
func (s *Server) resolveSession(c echo.Context) (*auth.Session, error) {
	ctx := c.Request().Context()

	if cookie, err := c.Cookie(SessionCookieName); err == nil && cookie.Value != "" {
		sid, err := auth.SessionIDFromToken(cookie.Value, s.secretKey)
		if err == nil {
			sess, err := s.sessions.Load(ctx, sid)
			switch {
			case err == nil:
				return sess, nil
			case !errors.Is(err, common.ErrorNotFound):
				return nil, err
			}
		} else {
			s.logger.Debug(ctx, "Ignoring session cookie", "error", err)
		}
	}

	return auth.NewSession()
}

// saveSession stores sess and refreshes the cookie naming it.
func (s *Server) saveSession(c echo.Context, sess *auth.Session) error {
	if err := s.sessions.Save(c.Request().Context(), sess); err != nil {
		return err
	}

	token, err := auth.GenerateSessionToken(sess.ID, s.secretKey, s.sessionTTL)
	if err != nil {
		return err
	}

	c.SetCookie(&http.Cookie{
		Name:     SessionCookieName,
		Value:    token,
		Path:     "/",
		MaxAge:   int(s.sessionTTL.Seconds()),
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
	return nil
}

// destroySession forgets sess server-side and expires the cookie.
func (s *Server) destroySession(c echo.Context, sess *auth.Session) error {
	c.SetCookie(&http.Cookie{
		Name:     SessionCookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
	return s.sessions.Delete(c.Request().Context(), sess.ID)
}

// flash queues a message for the next rendered page.
func (s *Server) flash(c echo.Context, category string, messages ...string) error {
	sess := requestContext(c).Session
	for _, m := range messages {
		sess.AddFlash(category, m)
	}
	return s.saveSession(c, sess)
}

// popFlashes takes the pending flashes off the session.
func (s *Server) popFlashes(c echo.Context) ([]auth.Flash, error) {
	sess := requestContext(c).Session
	flashes := sess.PopFlashes()
	if len(flashes) > 0 {
		if err := s.sessions.Save(c.Request().Context(), sess); err != nil {
			return nil, err
		}
	}
	return flashes, nil
}
