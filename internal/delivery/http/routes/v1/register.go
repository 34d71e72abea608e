package v1

import (
	"job-tracker/internal/delivery/http/handler"
	"job-tracker/internal/delivery/http/middleware"

	"github.com/gofiber/fiber/v3"
)

type Handlers struct {
	Session *handler.SessionHandler
	Jobs    *handler.JobsHandler
	Dates   *handler.DateHandler
}

func Register(r fiber.Router, h Handlers, authMw *middleware.AuthMiddleware) {
	if r == nil {
		return
	}

	if h.Session != nil {
		h.Session.RegisterRoutes(r)
	}
	if h.Dates != nil {
		h.Dates.RegisterRoutes(r)
	}

	RegisterJobs(r.Group("/jobs", authMw.Middleware()), h.Jobs)
}
