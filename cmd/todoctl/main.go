package main

import (
	"context"
	"os"

	"github.com/dmitrijs2005/todolist/internal/admin"
	"github.com/dmitrijs2005/todolist/internal/flagx"
	"github.com/dmitrijs2005/todolist/internal/logging"
	"github.com/dmitrijs2005/todolist/internal/server/config"
)

func main() {

	cfg := config.LoadConfig()
	logger := logging.NewJSONLogger(os.Stderr, cfg.LogLevel)

	app := admin.NewApp(cfg, logger, os.Stdout)
	args := flagx.Positional(os.Args[1:], config.ValueFlags)

	os.Exit(app.Run(context.Background(), args))

}
