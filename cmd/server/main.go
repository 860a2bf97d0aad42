package main

import (
	"context"
	"log"

	"github.com/dmitrijs2005/todolist/internal/server"
	"github.com/dmitrijs2005/todolist/internal/server/config"
)

func main() {

	ctx := context.Background()
	cfg := config.LoadConfig()
	app, err := server.NewApp(cfg)

	if err != nil {
		log.Fatalf("%v", err)
	}

	err = app.Run(ctx)
	_ = app.Close()

	if err != nil {
		log.Fatalf("%v", err)
	}

}
