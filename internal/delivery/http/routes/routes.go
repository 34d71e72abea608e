package routes

import (
	"job-tracker/internal/delivery/http/handler"
	"job-tracker/internal/delivery/http/middleware"
	v1 "job-tracker/internal/delivery/http/routes/v1"
	"job-tracker/internal/ws"

	"github.com/gofiber/fiber/v3"
)

const (
	PathLogin     = "/login"
	PathDashboard = "/dashboard"
)

type Registry struct {
	health *handler.HealthHandler
	v1     v1.Handlers
	ws     *ws.Handler
	auth   *middleware.AuthMiddleware
}

func NewRegistry(h v1.Handlers, wsHandler *ws.Handler, authMw *middleware.AuthMiddleware) *Registry {
	return &Registry{health: handler.NewHealthHandler(), v1: h, ws: wsHandler, auth: authMw}
}

func (r *Registry) Register(app *fiber.App) {
	if app == nil {
		return
	}

	app.Use(r.auth.Gate(PathLogin, PathDashboard, PathDashboard))

	r.registerHealth(app)
	r.registerAPI(app)
	r.registerWS(app)
}

func (r *Registry) registerHealth(app *fiber.App) {
	r.health.RegisterRoutes(app)
}

func (r *Registry) registerAPI(app *fiber.App) {
	api := app.Group("/api")
	RegisterV1(api.Group("/v1"), r.v1, r.auth)
}

func (r *Registry) registerWS(app *fiber.App) {
	if r.ws == nil {
		return
	}
	r.ws.RegisterRoutes(app, r.auth.Middleware())
}
