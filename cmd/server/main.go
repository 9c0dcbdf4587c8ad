package main

import (
	"context"
	"log"

	"github.com/mkravec/tripmate/internal/server"
	"github.com/mkravec/tripmate/internal/server/config"
)

func main() {
	cfg := config.LoadConfig()

	app, err := server.NewApp(cfg)
	if err != nil {
		log.Fatalf("%v", err)
		return
	}

	app.Run(context.Background())
}
