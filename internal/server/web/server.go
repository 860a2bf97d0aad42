// Package web is the HTTP surface of the to-do service: echo routes,
// session handling, route guards, handlers and error mapping.
package web

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/dmitrijs2005/todolist/internal/logging"
	"github.com/dmitrijs2005/todolist/internal/server/auth"
	"github.com/dmitrijs2005/todolist/internal/server/models"
	"github.com/dmitrijs2005/todolist/internal/server/services"
	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
)

const (
	shutdownTimeout = 10 * time.Second
	healthzPath     = "/healthz"
)

type UserService interface {
	Register(ctx context.Context, username, password, confirmation string) (*models.User, error)
	Login(ctx context.Context, username, password string) (auth.Identity, error)
	VerifyPassword(ctx context.Context, userID, password string) error
	CurrentUser(ctx context.Context, userID string) (*models.User, error)
	ChangeUsername(ctx context.Context, userID, username string) error
	ChangePassword(ctx context.Context, userID, current, password, confirmation string) error
}

type TaskService interface {
	Create(ctx context.Context, id auth.Identity, description string) (string, error)
	Get(ctx context.Context, id auth.Identity, taskID string) (*models.Task, error)
	Update(ctx context.Context, id auth.Identity, taskID, description string, completed bool) (int64, error)
	Delete(ctx context.Context, id auth.Identity, taskID string) (int64, error)
	ListActive(ctx context.Context, id auth.Identity) ([]*models.Task, error)
	ListCompleted(ctx context.Context, id auth.Identity, page int) (*services.TaskPage, error)
}

// Pinger reports database reachability for /healthz.
type Pinger interface {
	PingContext(ctx context.Context) error
}

type Options struct {
	Users      UserService
	Tasks      TaskService
	Sessions   auth.Store
	DB         Pinger
	SecretKey  string
	SessionTTL time.Duration
}

type Server struct {
	address    string
	echo       *echo.Echo
	users      UserService
	tasks      TaskService
	sessions   auth.Store
	db         Pinger
	secretKey  []byte
	sessionTTL time.Duration
	logger     logging.Logger
	now        func() time.Time
}

func NewServer(address string, l logging.Logger, opts Options) (*Server, error) {
	renderer, err := newTemplateRenderer()
	if err != nil {
		return nil, err
	}

	s := &Server{
		address:    address,
		users:      opts.Users,
		tasks:      opts.Tasks,
		sessions:   opts.Sessions,
		db:         opts.DB,
		secretKey:  []byte(opts.SecretKey),
		sessionTTL: opts.SessionTTL,
		logger:     l.With("module", "http_server"),
		now:        time.Now,
	}

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Renderer = renderer
	e.JSONSerializer = sonicSerializer{}
	e.HTTPErrorHandler = s.handleError

	e.Use(middleware.RequestIDWithConfig(middleware.RequestIDConfig{Generator: uuid.NewString}))
	e.Use(middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
		LogMethod:     true,
		LogURI:        true,
		LogStatus:     true,
		LogLatency:    true,
		LogRequestID:  true,
		LogError:      true,
		HandleError:   true,
		LogValuesFunc: s.logRequest,
	}))
	e.Use(middleware.Recover())
	e.Use(middleware.BodyLimit("1M"))
	e.Use(s.loadCurrentUser)

	s.echo = e
	s.routes()

	return s, nil
}

func (s *Server) routes() {
	e := s.echo
	authed := s.requireAuthenticated

	e.GET(healthzPath, s.healthz)

	a := e.Group("/auth")
	a.GET("/register", s.registerForm)
	a.POST("/register", s.register)
	a.GET("/login", s.loginForm)
	a.POST("/login", s.login)
	a.GET("/logout", s.logout)
	a.GET("/confirm-password", s.confirmPasswordForm, authed)
	a.POST("/confirm-password", s.confirmPassword, authed)

	e.GET("/", s.index, authed)
	e.POST("/task/", s.createTask, authed)
	e.GET("/task/:id", s.getTask, authed)
	e.PUT("/task/:id", s.updateTask, authed)
	e.DELETE("/task/:id", s.deleteTask, authed)
	e.GET("/tasks", s.listTasks, authed)
	e.GET("/history", s.history, authed)

	st := e.Group("/settings", authed, s.requireConfirmedRecently)
	st.GET("", s.settings)
	st.GET("/", s.settings)
	st.POST("/change-username", s.changeUsername)
	st.POST("/change-password", s.changePassword)
}

// ServeHTTP lets tests drive the router without a listener.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.echo.ServeHTTP(w, r)
}

// Run serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	errCh := make(chan error, 1)

	go func() {
		s.logger.Info(ctx, "Starting HTTP server", "address", s.address)
		if err := s.echo.Start(s.address); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	s.logger.Info(ctx, "Stopping HTTP server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	return s.echo.Shutdown(shutdownCtx)
}

func (s *Server) logRequest(c echo.Context, v middleware.RequestLoggerValues) error {
	args := []any{
		"request_id", v.RequestID,
		"method", v.Method,
		"uri", v.URI,
		"status", v.Status,
		"latency", v.Latency,
	}
	if v.Error != nil {
		s.logger.Warn(c.Request().Context(), "Request", append(args, "error", v.Error.Error())...)
		return nil
	}
	s.logger.Info(c.Request().Context(), "Request", args...)
	return nil
}

func (s *Server) healthz(c echo.Context) error {
	if err := s.db.PingContext(c.Request().Context()); err != nil {
		s.logger.Warn(c.Request().Context(), "Health check failed", "error", err)
		return c.JSON(http.StatusServiceUnavailable, map[string]string{"status": "unavailable"})
	}
	return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
}
