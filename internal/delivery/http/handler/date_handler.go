package handler

import (
	"job-tracker/internal/delivery/http/dto"
	"job-tracker/internal/delivery/http/middleware"
	"job-tracker/internal/domain/date"
	"job-tracker/internal/pkg/response"

	"github.com/gofiber/fiber/v3"
)

// DateHandler applies one keystroke-level edit to the split date fields and
// reports whether the result is a real date.
type DateHandler struct{}

func NewDateHandler() *DateHandler {
	return &DateHandler{}
}

func (h *DateHandler) RegisterRoutes(r fiber.Router) {
	if r == nil {
		return
	}

	r.Post("/date-fields", h.HandleEdit)
}

func (h *DateHandler) HandleEdit(c fiber.Ctx) error {
	var req dto.DateFieldRequest
	if err := c.Bind().Body(&req); err != nil {
		return middleware.NewAppError(fiber.StatusBadRequest, response.MessageBadRequest, nil, err)
	}
	switch req.Field {
	case date.FieldDay, date.FieldMonth, date.FieldYear:
	default:
		return middleware.NewAppError(fiber.StatusBadRequest, "Unknown date field", fiber.Map{"field": req.Field}, nil)
	}

	next := date.ApplyFieldEdit(req.Field, req.Value, req.Current)
	_, err := next.Date()
	return response.Success(c, fiber.StatusOK, response.MessageOK, dto.DateFieldResponse{Fields: next, Valid: err == nil})
}
