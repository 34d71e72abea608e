package main

import (
	"context"
	"flag"
	"log"
	"strings"
	"time"

	"job-tracker/internal/app"
	"job-tracker/internal/config"
	"job-tracker/internal/pkg/logger"
)

func main() {
	user := flag.String("user", "", "user id whose empty account receives the demo applications")
	flag.Parse()

	userID := strings.TrimSpace(*user)
	if userID == "" {
		log.Fatalf("provide -user")
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}
	if cfg.Database.Driver != config.DriverPostgres {
		log.Fatalf("seeding needs database.driver=%s; the memory store is discarded on exit (use SEED_DEMO_USER with the server instead)", config.DriverPostgres)
	}
	cfg.Seed.DemoUser = ""

	lg, err := logger.New(cfg.Logging.Level, cfg.Logging.Format)
	if err != nil {
		log.Fatalf("failed to build logger: %v", err)
	}
	defer func() { _ = lg.Sync() }()

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	c, err := app.NewContainer(ctx, cfg, lg)
	if err != nil {
		log.Fatalf("failed to init container: %v", err)
	}
	defer func() {
		_ = c.Close()
	}()

	if err := c.Seed(ctx, userID); err != nil {
		lg.Error("seed failed", map[string]interface{}{"user_id": userID, "error": err})
		return
	}
}
