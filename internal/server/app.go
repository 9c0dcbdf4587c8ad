// Package server wires the tripmate server together: configuration,
// postgres-backed repositories, domain services, the change hub and the
// HTTP/websocket transport, with signal-driven graceful shutdown.
package server

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/mkravec/tripmate/internal/logging"
	"github.com/mkravec/tripmate/internal/server/config"
	"github.com/mkravec/tripmate/internal/server/httpapi"
	"github.com/mkravec/tripmate/internal/server/hub"
	"github.com/mkravec/tripmate/internal/server/images"
	"github.com/mkravec/tripmate/internal/server/proposals"
	"github.com/mkravec/tripmate/internal/server/shared/db"
	"github.com/mkravec/tripmate/internal/server/users"
)

type App struct {
	config  *config.Config
	logger  logging.Logger
	manager db.RepositoryManager
	hub     *hub.Hub
	server  *httpapi.Server
}

func NewApp(cfg *config.Config) (*App, error) {
	logger := logging.NewSlogLogger(slog.New(slog.NewJSONHandler(os.Stdout, nil)))
	ctx := context.Background()

	manager, err := db.NewPostgresRepositoryManager(cfg.DatabaseDSN)
	if err != nil {
		return nil, fmt.Errorf("db init error: %w", err)
	}

	var changeHub *hub.Hub
	if cfg.RedisAddr != "" {
		changeHub, err = hub.NewWithRedis(ctx, logger, cfg.RedisAddr)
		if err != nil {
			return nil, fmt.Errorf("redis hub init error: %w", err)
		}
	} else {
		changeHub = hub.New(logger)
	}

	userService := users.NewService(manager.Users(), manager.RefreshTokens(), cfg)
	proposalService := proposals.NewService(manager.Proposals(), changeHub, logger)
	imageService := images.NewService(cfg)

	handler := httpapi.NewHandler(userService, proposalService, imageService,
		changeHub, []byte(cfg.SecretKey), logger)
	server := httpapi.NewServer(cfg.EndpointAddr, handler.Routes(), logger)

	return &App{
		config:  cfg,
		logger:  logger,
		manager: manager,
		hub:     changeHub,
		server:  server,
	}, nil
}

func (app *App) initSignalHandler(cancelFunc context.CancelFunc) {
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)

	go func() {
		<-sigs
		cancelFunc()
	}()
}

func (app *App) Run(ctx context.Context) {
	ctx, cancelFunc := context.WithCancel(ctx)
	defer cancelFunc()

	app.logger.Info(ctx, "starting server")

	app.initSignalHandler(cancelFunc)

	var wg sync.WaitGroup

	wg.Add(1)
	go func() {
		defer wg.Done()
		if err := app.server.Run(ctx); err != nil {
			app.logger.Error(ctx, "http server failed", "error", err)
			cancelFunc()
		}
	}()

	wg.Wait()

	if err := app.hub.Close(); err != nil {
		app.logger.Error(ctx, "hub close failed", "error", err)
	}
	if err := app.manager.Close(); err != nil {
		app.logger.Error(ctx, "db close failed", "error", err)
	}

	app.logger.Info(ctx, "server stopped")
}
