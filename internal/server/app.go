// Package server wires the to-do list application together: it opens the
// database and the session store, applies pending migrations and runs the
// web server next to the gRPC health endpoint until a shutdown signal.
package server

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/dmitrijs2005/todolist/internal/dbx"
	"github.com/dmitrijs2005/todolist/internal/logging"
	"github.com/dmitrijs2005/todolist/internal/server/auth"
	"github.com/dmitrijs2005/todolist/internal/server/config"
	"github.com/dmitrijs2005/todolist/internal/server/repositories/repomanager"
	"github.com/dmitrijs2005/todolist/internal/server/services"
	"github.com/dmitrijs2005/todolist/internal/server/web"
	"github.com/jmoiron/sqlx"
	"github.com/redis/go-redis/v9"

	gs "github.com/dmitrijs2005/todolist/internal/server/grpc"
)

type App struct {
	config      *config.Config
	logger      logging.Logger
	db          *sqlx.DB
	redis       *redis.Client
	repomanager repomanager.RepositoryManager
	userService *services.UserService
	taskService *services.TaskService
	sessions    auth.Store
}

func NewApp(c *config.Config) (*App, error) {
	return newApp(c, logging.NewJSONLogger(os.Stdout, c.LogLevel))
}

func newApp(c *config.Config, logger logging.Logger) (*App, error) {
	db, err := dbx.Open(c.DatabaseDriver, c.DatabaseDSN)
	if err != nil {
		return nil, fmt.Errorf("db init error: %w", err)
	}

	opts, err := redis.ParseURL(c.RedisURL)
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("redis url error: %w", err)
	}
	rc := redis.NewClient(opts)

	rm := repomanager.NewSQLRepositoryManager(c.MigrationsDir, logger)

	return &App{
		config:      c,
		logger:      logger,
		db:          db,
		redis:       rc,
		repomanager: rm,
		userService: services.NewUserService(db, rm),
		taskService: services.NewTaskService(db, rm),
		sessions:    auth.NewRedisStore(rc, c.SessionTTL),
	}, nil
}

func (app *App) initSignalHandler(cancelFunc context.CancelFunc) {
	// Channel to catch OS signals.
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)

	go func() {
		<-sigs
		cancelFunc()
	}()
}

// checkDependencies fails fast when the database or Redis cannot be reached.
func (app *App) checkDependencies(ctx context.Context) error {
	if err := app.db.PingContext(ctx); err != nil {
		return fmt.Errorf("db ping error: %w", err)
	}
	if err := app.redis.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("redis ping error: %w", err)
	}
	return nil
}

func (app *App) migrate(ctx context.Context) error {
	if !app.config.MigrateOnStart {
		return nil
	}
	applied, err := app.repomanager.RunMigrations(ctx, app.db)
	if err != nil {
		return err
	}
	app.logger.Info(ctx, "Migrations applied", "count", len(applied))
	return nil
}

func (app *App) startHTTPServer(ctx context.Context, cancelFunc context.CancelFunc) {

	s, err := web.NewServer(app.config.HTTPAddr, app.logger, web.Options{
		Users:      app.userService,
		Tasks:      app.taskService,
		Sessions:   app.sessions,
		DB:         app.db,
		SecretKey:  app.config.SecretKey,
		SessionTTL: app.config.SessionTTL,
	})

	if err != nil {
		app.logger.Error(ctx, err.Error())
		cancelFunc()
	} else {

		if err := s.Run(ctx); err != nil {
			app.logger.Error(ctx, err.Error())
			cancelFunc()
		}
	}
}

func (app *App) startGRPCHealthServer(ctx context.Context, cancelFunc context.CancelFunc) {

	s := gs.NewHealthServer(app.config.GRPCHealthAddr, app.logger, app.db)

	if err := s.Run(ctx); err != nil {
		app.logger.Error(ctx, err.Error())
		cancelFunc()
	}
}

// Run serves until ctx is cancelled, a shutdown signal arrives or one of the
// servers fails. Startup failures are returned.
func (app *App) Run(ctx context.Context) error {

	ctx, cancelFunc := context.WithCancel(ctx)
	defer cancelFunc()

	app.logger.Info(ctx, "Starting app...")

	if err := app.checkDependencies(ctx); err != nil {
		return err
	}
	if err := app.migrate(ctx); err != nil {
		return err
	}

	app.initSignalHandler(cancelFunc)

	var wg sync.WaitGroup

	wg.Add(2)
	go func() {
		defer wg.Done()
		app.startHTTPServer(ctx, cancelFunc)
	}()
	go func() {
		defer wg.Done()
		app.startGRPCHealthServer(ctx, cancelFunc)
	}()

	wg.Wait()

	app.logger.Info(ctx, "App stopped")
	return nil
}

// Close releases the database and Redis connections.
func (app *App) Close() error {
	rerr := app.redis.Close()
	if err := app.db.Close(); err != nil {
		return err
	}
	return rerr
}
