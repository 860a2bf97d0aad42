package admin

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/dmitrijs2005/todolist/internal/common"
	"github.com/dmitrijs2005/todolist/internal/cryptox"
	"github.com/dmitrijs2005/todolist/internal/dbx"
	"github.com/dmitrijs2005/todolist/internal/filex"
	"github.com/dmitrijs2005/todolist/internal/logging"
	"github.com/dmitrijs2005/todolist/internal/server/config"
	"github.com/dmitrijs2005/todolist/internal/server/migrations"
	"github.com/dmitrijs2005/todolist/internal/server/repositories/repomanager"
	"github.com/dmitrijs2005/todolist/internal/server/services"
	"github.com/jmoiron/sqlx"
)

const (
	exitOK    = 0
	exitError = 1
	exitUsage = 2
)

const usage = `usage: todoctl [config flags] <command>

commands:
  migrate                   apply pending migrations
  create-migration <desc>   create an empty migration script
  passwd <username>         set a user's password
`

type App struct {
	config *config.Config
	logger logging.Logger
	out    io.Writer
	now    func() time.Time
}

func NewApp(c *config.Config, l logging.Logger, out io.Writer) *App {
	return &App{
		config: c,
		logger: l.With("module", "todoctl"),
		out:    out,
		now:    time.Now,
	}
}

// Run executes the command named by args[0] and returns the process exit
// code.
func (a *App) Run(ctx context.Context, args []string) int {
	if len(args) == 0 {
		fmt.Fprint(a.out, usage)
		return exitUsage
	}

	cmd, rest := args[0], args[1:]

	switch cmd {
	case "migrate":
		return a.migrate(ctx)
	case "create-migration":
		return a.createMigration(rest)
	case "passwd":
		return a.passwd(ctx, rest)
	case "help", "-h", "-help", "--help":
		fmt.Fprint(a.out, usage)
		return exitOK
	default:
		fmt.Fprintf(a.out, "unknown command %q\n\n%s", cmd, usage)
		return exitUsage
	}
}

func (a *App) withDB(ctx context.Context, fn func(db *sqlx.DB) int) int {
	db, err := dbx.Open(a.config.DatabaseDriver, a.config.DatabaseDSN)
	if err != nil {
		a.logger.Error(ctx, "Database unavailable", "error", err)
		return exitError
	}
	defer func() { _ = db.Close() }()
	return fn(db)
}

func (a *App) migrate(ctx context.Context) int {
	return a.withDB(ctx, func(db *sqlx.DB) int {
		rm := repomanager.NewSQLRepositoryManager(a.config.MigrationsDir, a.logger)

		applied, err := rm.RunMigrations(ctx, db)
		for _, name := range applied {
			fmt.Fprintln(a.out, "applied", name)
		}
		if err != nil {
			var me *migrations.MigrationError
			if errors.As(err, &me) && me.Name != "" {
				a.logger.Error(ctx, "Migration failed", "name", me.Name, "error", me.Err)
			} else {
				a.logger.Error(ctx, "Migration failed", "error", err)
			}
			return exitError
		}

		if len(applied) == 0 {
			fmt.Fprintln(a.out, "nothing to migrate")
		}
		return exitOK
	})
}

func (a *App) createMigration(args []string) int {
	desc := strings.Join(args, " ")
	if strings.TrimSpace(desc) == "" {
		fmt.Fprint(a.out, "create-migration needs a description\n\n"+usage)
		return exitUsage
	}

	dir, err := filex.EnsureDir(a.config.MigrationsDir)
	if err != nil {
		a.logger.Error(context.Background(), "Cannot prepare migrations directory", "dir", a.config.MigrationsDir, "error", err)
		return exitError
	}

	name, err := migrations.CreateMigration(dir, desc, a.now())
	if err != nil {
		a.logger.Error(context.Background(), "Cannot create migration", "error", err)
		return exitError
	}

	fmt.Fprintln(a.out, "created", name)
	return exitOK
}

func (a *App) passwd(ctx context.Context, args []string) int {
	if len(args) != 1 {
		fmt.Fprint(a.out, "passwd needs exactly one username\n\n"+usage)
		return exitUsage
	}
	username := strings.TrimSpace(args[0])

	password, err := GetNewPassword(a.out)
	if err != nil {
		fmt.Fprintln(a.out, err)
		return exitError
	}
	defer common.WipeByteArray(password)

	return a.withDB(ctx, func(db *sqlx.DB) int {
		rm := repomanager.NewSQLRepositoryManager(a.config.MigrationsDir, a.logger)
		us := services.NewUserService(db, rm)

		err := us.ResetPassword(ctx, username, string(password))

		var ve *common.ValidationError
		switch {
		case err == nil:
			fmt.Fprintf(a.out, "password changed for %s\n", username)
			return exitOK
		case errors.As(err, &ve):
			fmt.Fprintf(a.out, "password must be at least %d characters and at most %d bytes\n",
				services.MinPasswordLength, cryptox.MaxPasswordBytes)
		case errors.Is(err, common.ErrorNotFound):
			fmt.Fprintf(a.out, "no such user: %s\n", username)
		default:
			a.logger.Error(ctx, "Password change failed", "error", err)
		}
		return exitError
	})
}
