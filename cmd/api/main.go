package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"golang.org/x/sync/errgroup"

	"github.com/angelmondragon/roastery-backend/internal/bootstrap"
	"github.com/angelmondragon/roastery-backend/pkg/config"
	"github.com/angelmondragon/roastery-backend/pkg/logger"
)

func main() {
	logg := logger.New(logger.Options{ServiceName: "api"})

	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}

	logg = logger.New(logger.Options{
		ServiceName: "api",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
		Format:      cfg.App.LogFormat,
		File:        cfg.App.LogFile,
		FileMaxMB:   cfg.App.LogFileMaxMB,
	})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	app, err := bootstrap.New(ctx, cfg, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap app", err)
		os.Exit(1)
	}
	defer func() {
		if err := app.Close(); err != nil {
			logg.Error(context.Background(), "error closing app", err)
		}
	}()

	handler, err := app.Router()
	if err != nil {
		logg.Error(context.Background(), "failed to build router", err)
		os.Exit(1)
	}

	port := cfg.App.Port
	if envPort := os.Getenv("PORT"); envPort != "" {
		port = envPort
	}
	addr := ":" + port

	server := &http.Server{
		Addr:    addr,
		Handler: handler,
	}

	ctx = logg.WithFields(ctx, map[string]any{
		"env":       cfg.App.Env,
		"addr":      addr,
		"localMode": cfg.App.LocalMode,
		"embedded":  cfg.Sync.Embedded,
	})
	logg.Info(ctx, "starting api server")

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error { return bootstrap.Serve(gctx, server, logg) })
	if cfg.Sync.Embedded {
		g.Go(func() error { return app.RunWorkers(gctx) })
	} else {
		g.Go(func() error { return app.WatchStore(gctx) })
	}

	if err := g.Wait(); err != nil {
		logg.Error(ctx, "api server stopped unexpectedly", err)
		os.Exit(1)
	}
	logg.Info(ctx, "api server shutting down gracefully")
}
