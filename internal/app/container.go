package app

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"time"

	"job-tracker/internal/auth"
	"job-tracker/internal/config"
	"job-tracker/internal/database"
	dbpostgres "job-tracker/internal/database/postgres"
	"job-tracker/internal/database/migration"
	"job-tracker/internal/docstore"
	"job-tracker/internal/docstore/memory"
	"job-tracker/internal/docstore/notify"
	pgstore "job-tracker/internal/docstore/postgres"
	"job-tracker/internal/pkg/jwt"
	"job-tracker/internal/pkg/logger"
	"job-tracker/internal/repository"
	"job-tracker/internal/seeder"
	"job-tracker/internal/usecase"
	"job-tracker/internal/ws"

	"github.com/redis/go-redis/v9"
)

// Container owns every long-lived dependency of the server.
type Container struct {
	Config config.Config
	Log    logger.Logger

	DB      database.DB
	Redis   *redis.Client
	Broker  notify.Broker
	Store   docstore.Store
	Auth    *auth.Manager
	Jobs    *repository.DocstoreJobRepository
	Tracker *usecase.Tracker
	Hub     *ws.Hub
}

func NewContainer(ctx context.Context, cfg config.Config, log logger.Logger) (*Container, error) {
	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	c := &Container{Config: cfg, Log: log}
	if err := c.openStore(ctx); err != nil {
		_ = c.Close()
		return nil, err
	}

	c.Auth = auth.NewManager(jwt.NewHMACService(c.sessionSecret(), cfg.Auth.TokenTTL))
	c.Jobs = repository.NewDocstoreJobRepository(c.Store, log)
	c.Tracker = usecase.NewTracker(c.Jobs, log)
	c.Hub = ws.NewHub(c.Tracker, log)

	if user := cfg.Seed.DemoUser; user != "" {
		if err := c.Seed(ctx, user); err != nil {
			_ = c.Close()
			return nil, err
		}
	}
	return c, nil
}

// Seed adds the demo applications to userID's account if it is empty.
func (c *Container) Seed(ctx context.Context, userID string) error {
	r := seeder.Runner{Seeders: []seeder.Seeder{seeder.DemoJobs{}}}
	if err := r.Run(ctx, c.Jobs, auth.Session{UserID: userID}); err != nil {
		return fmt.Errorf("seed demo data: %w", err)
	}
	c.Log.Info("demo data ready", map[string]interface{}{"user_id": userID})
	return nil
}

// sessionSecret returns the configured signing secret. Config validation
// only lets it be empty in development, where a per-process secret is used
// and sessions end on restart.
func (c *Container) sessionSecret() string {
	if c.Config.Auth.JWTSecret != "" {
		return c.Config.Auth.JWTSecret
	}
	c.Log.Warn("auth.jwt_secret is empty, using a per-process secret", map[string]interface{}{
		"environment": c.Config.App.Environment,
	})
	return rand.Text()
}

func (c *Container) openStore(ctx context.Context) error {
	switch c.Config.Database.Driver {
	case config.DriverPostgres:
		db, err := dbpostgres.Connect(ctx, c.Config.Database.Postgres)
		if err != nil {
			return fmt.Errorf("connect postgres: %w", err)
		}
		c.DB = db

		if err := (migration.Runner{Log: c.Log}).Run(ctx, db.SQLDB()); err != nil {
			return fmt.Errorf("run migrations: %w", err)
		}

		rdb, err := notify.Dial(ctx, c.Config.Redis)
		if err != nil {
			return fmt.Errorf("connect redis: %w", err)
		}
		c.Redis = rdb
		c.Broker = notify.NewRedis(rdb, c.Log)
		c.Store = pgstore.New(db, c.Broker, c.Log)
		c.Log.Info("document store ready", map[string]interface{}{"driver": config.DriverPostgres, "redis": rdb != nil})

	default:
		c.Broker = notify.NewLocal()
		c.Store = memory.New(c.Broker)
		c.Log.Info("document store ready", map[string]interface{}{"driver": config.DriverMemory})
	}
	return nil
}

// Close releases resources in reverse dependency order.
func (c *Container) Close() error {
	if c == nil {
		return nil
	}
	if c.Hub != nil {
		c.Hub.Close()
	}
	if c.Tracker != nil {
		c.Tracker.Close()
	}

	// The store closes its broker, and the redis broker closes its client.
	var errs []error
	switch {
	case c.Store != nil:
		errs = append(errs, c.Store.Close())
	case c.Broker != nil:
		errs = append(errs, c.Broker.Close())
	case c.Redis != nil:
		errs = append(errs, c.Redis.Close())
	}
	if c.DB != nil {
		errs = append(errs, c.DB.Close())
	}
	return errors.Join(errs...)
}
