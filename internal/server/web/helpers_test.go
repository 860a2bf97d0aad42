package web

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/dmitrijs2005/todolist/internal/cryptox"
	"github.com/dmitrijs2005/todolist/internal/dbx"
	"github.com/dmitrijs2005/todolist/internal/logging"
	"github.com/dmitrijs2005/todolist/internal/server/auth"
	"github.com/dmitrijs2005/todolist/internal/server/repositories/repomanager"
	"github.com/dmitrijs2005/todolist/internal/server/services"
	"github.com/jmoiron/sqlx"
	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

const schemaDir = "../../../db/migrations"

func init() {
	cryptox.HashCost = bcrypt.MinCost
}

type testEnv struct {
	server *Server
	db     *sqlx.DB
	redis  *miniredis.Miniredis
	users  *services.UserService
	clock  *clock
}

type clock struct {
	t time.Time
}

func (c *clock) now() time.Time           { return c.t }
func (c *clock) advance(d time.Duration) { c.t = c.t.Add(d) }

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	db, err := dbx.Open(dbx.DriverSQLite, ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	rm := repomanager.NewSQLRepositoryManager(schemaDir, logging.Nop{})
	_, err = rm.RunMigrations(context.Background(), db)
	require.NoError(t, err)

	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(mr.Close)
	rc := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rc.Close() })

	users := services.NewUserService(db, rm)
	srv, err := NewServer(":0", logging.Nop{}, Options{
		Users:      users,
		Tasks:      services.NewTaskService(db, rm),
		Sessions:   auth.NewRedisStore(rc, time.Hour),
		DB:         db,
		SecretKey:  "test-secret",
		SessionTTL: time.Hour,
	})
	require.NoError(t, err)

	c := &clock{t: time.Date(2024, 5, 1, 9, 0, 0, 0, time.UTC)}
	srv.now = c.now

	return &testEnv{server: srv, db: db, redis: mr, users: users, clock: c}
}

// client is a minimal browser: it keeps the session cookie between requests.
type client struct {
	t      *testing.T
	h      http.Handler
	cookie *http.Cookie
}

func (e *testEnv) client(t *testing.T) *client {
	return &client{t: t, h: e.server}
}

func (c *client) do(req *http.Request) *httptest.ResponseRecorder {
	c.t.Helper()
	if c.cookie != nil {
		req.AddCookie(c.cookie)
	}
	rec := httptest.NewRecorder()
	c.h.ServeHTTP(rec, req)

	for _, ck := range rec.Result().Cookies() {
		if ck.Name != SessionCookieName {
			continue
		}
		if ck.MaxAge < 0 {
			c.cookie = nil
		} else {
			c.cookie = ck
		}
	}
	return rec
}

func (c *client) get(path string) *httptest.ResponseRecorder {
	return c.do(httptest.NewRequest(http.MethodGet, path, nil))
}

func (c *client) getJSON(path string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, path, nil)
	req.Header.Set(echo.HeaderAccept, echo.MIMEApplicationJSON)
	return c.do(req)
}

func (c *client) postForm(path string, form url.Values) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(form.Encode()))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationForm)
	return c.do(req)
}

func (c *client) sendJSON(method, path, body string) *httptest.ResponseRecorder {
	var r io.Reader
	if body != "" {
		r = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, r)
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	return c.do(req)
}

func (c *client) register(username, password string) {
	c.t.Helper()
	rec := c.postForm("/auth/register", url.Values{
		"username":              {username},
		"password":              {password},
		"password-confirmation": {password},
	})
	require.Equal(c.t, http.StatusFound, rec.Code, rec.Body.String())
	require.Equal(c.t, "/auth/login", rec.Header().Get(echo.HeaderLocation))
}

func (c *client) login(username, password string) {
	c.t.Helper()
	rec := c.postForm("/auth/login", url.Values{"username": {username}, "password": {password}})
	require.Equal(c.t, http.StatusFound, rec.Code, rec.Body.String())
	require.Equal(c.t, "/", rec.Header().Get(echo.HeaderLocation))
}

// signedIn returns a client for a freshly registered and logged in user.
func (e *testEnv) signedIn(t *testing.T, username string) *client {
	t.Helper()
	c := e.client(t)
	c.register(username, "password123")
	c.login(username, "password123")
	return c
}

func newFormRequest(method, path string, form url.Values) *http.Request {
	req := httptest.NewRequest(method, path, strings.NewReader(form.Encode()))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationForm)
	return req
}
