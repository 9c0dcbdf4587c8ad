package main

import (
	"context"
	"log"
	"log/slog"
	"os"

	"github.com/mkravec/tripmate/internal/client/cli"
	"github.com/mkravec/tripmate/internal/client/config"
	"github.com/mkravec/tripmate/internal/logging"
)

func main() {
	cfg := config.LoadConfig()
	logger := logging.NewSlogLogger(slog.New(slog.NewTextHandler(os.Stderr, nil)))

	app, err := cli.NewApp(cfg, logger)
	if err != nil {
		log.Fatalf("%v", err)
		return
	}

	app.Run(context.Background())
}
