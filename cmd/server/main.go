package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"job-tracker/internal/app"
	"job-tracker/internal/config"
	"job-tracker/internal/pkg/logger"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	lg, err := logger.New(cfg.Logging.Level, cfg.Logging.Format)
	if err != nil {
		log.Fatalf("failed to build logger: %v", err)
	}
	defer func() { _ = lg.Sync() }()

	bootstrap, cleanup, err := app.Bootstrap(context.Background(), cfg, lg)
	if err != nil {
		lg.Error("failed to bootstrap app", map[string]interface{}{"error": err})
		os.Exit(1)
	}
	defer func() {
		if err := cleanup(); err != nil {
			lg.Warn("cleanup error", map[string]interface{}{"error": err})
		}
	}()

	addr, err := app.ListenAddr(cfg.App.HTTPPort)
	if err != nil {
		lg.Error("invalid HTTP port", map[string]interface{}{"error": err})
		return
	}

	errCh := make(chan error, 1)
	go func() {
		lg.Info("http server listening", map[string]interface{}{
			"addr":        addr,
			"driver":      cfg.Database.Driver,
			"environment": cfg.App.Environment,
		})
		errCh <- bootstrap.Fiber.Listen(addr)
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errCh:
		if err != nil {
			lg.Error("server error", map[string]interface{}{"error": err})
		}
	case sig := <-sigCh:
		lg.Info("shutting down", map[string]interface{}{"signal": sig.String()})
		ctx, cancel := context.WithTimeout(context.Background(), cfg.App.ShutdownTimeout)
		defer cancel()
		bootstrap.Container.Hub.Close()
		if err := bootstrap.Fiber.ShutdownWithContext(ctx); err != nil {
			lg.Warn("shutdown error", map[string]interface{}{"error": err})
		}
	}
}
