package app

import (
	"context"
	"fmt"
	"strings"

	"job-tracker/internal/config"
	"job-tracker/internal/delivery/http/handler"
	"job-tracker/internal/delivery/http/middleware"
	"job-tracker/internal/delivery/http/routes"
	v1 "job-tracker/internal/delivery/http/routes/v1"
	"job-tracker/internal/pkg/logger"
	"job-tracker/internal/ws"

	"github.com/gofiber/fiber/v3"
)

type App struct {
	Fiber     *fiber.App
	Container *Container
}

// New builds the HTTP app over an existing container.
func New(c *Container) *App {
	cfg := c.Config
	f := fiber.New(fiber.Config{
		AppName:      cfg.App.AppName,
		ErrorHandler: middleware.ErrorHandler,
	})

	registerGlobalMiddleware(f, c.Log)

	authMw := middleware.NewAuthMiddleware(c.Auth, cfg.Auth.SessionCookie)
	handlers := v1.Handlers{
		Session: handler.NewSessionHandler(c.Auth, handler.SessionOptions{
			CookieName: cfg.Auth.SessionCookie,
			TTL:        cfg.Auth.TokenTTL,
			DevSignIn:  cfg.Auth.DevSignIn,
			Secure:     !cfg.IsDevelopment(),
		}),
		Jobs:  handler.NewJobsHandler(c.Tracker),
		Dates: handler.NewDateHandler(),
	}
	routes.NewRegistry(handlers, ws.NewHandler(c.Hub), authMw).Register(f)

	return &App{Fiber: f, Container: c}
}

// Bootstrap wires the container and the HTTP app. cleanup closes both.
func Bootstrap(ctx context.Context, cfg config.Config, log logger.Logger) (*App, func() error, error) {
	c, err := NewContainer(ctx, cfg, log)
	if err != nil {
		return nil, nil, err
	}
	app := New(c)
	return app, c.Close, nil
}

func registerGlobalMiddleware(app *fiber.App, log logger.Logger) {
	if app == nil {
		return
	}

	app.Use(middleware.NewAccessLogMiddleware(log).Middleware())
	app.Use(middleware.NewErrorMiddleware(log).Middleware())
}

func ListenAddr(port string) (string, error) {
	p := strings.TrimSpace(port)
	if p == "" {
		return "", fmt.Errorf("empty HTTP port")
	}
	if strings.HasPrefix(p, ":") {
		return p, nil
	}
	return ":" + p, nil
}
