package web

import (
	"net/http"
	"strings"

	"github.com/dmitrijs2005/todolist/internal/server/auth"
	"github.com/dmitrijs2005/todolist/internal/server/models"
	"github.com/labstack/echo/v4"
)

const requestContextKey = "request_context"

// RequestContext is resolved once per request by loadCurrentUser. User is
// nil for anonymous requests.
type RequestContext struct {
	Session *auth.Session
	User    *models.User
}

func (rc *RequestContext) Identity() auth.Identity {
	return rc.Session.Identity()
}

func requestContext(c echo.Context) *RequestContext {
	if rc, ok := c.Get(requestContextKey).(*RequestContext); ok {
		return rc
	}
	return &RequestContext{Session: &auth.Session{}}
}

// wantsJSON reports whether the client speaks JSON rather than HTML forms.
func wantsJSON(r *http.Request) bool {
	return strings.Contains(r.Header.Get(echo.HeaderContentType), echo.MIMEApplicationJSON) ||
		strings.Contains(r.Header.Get(echo.HeaderAccept), echo.MIMEApplicationJSON)
}

// localPath returns p when it is a path on this site and fallback otherwise.
func localPath(p, fallback string) string {
	if !strings.HasPrefix(p, "/") || strings.HasPrefix(p, "//") || strings.HasPrefix(p, `/\`) {
		return fallback
	}
	return p
}
