package handler

import (
	"strings"

	"job-tracker/internal/auth"
	"job-tracker/internal/delivery/http/dto"
	"job-tracker/internal/delivery/http/middleware"
	"job-tracker/internal/domain/stats"
	"job-tracker/internal/pkg/response"
	"job-tracker/internal/usecase"

	"github.com/gofiber/fiber/v3"
)

type JobsHandler struct {
	uc usecase.TrackerUsecase
}

func NewJobsHandler(uc usecase.TrackerUsecase) *JobsHandler {
	return &JobsHandler{uc: uc}
}

func (h *JobsHandler) RegisterRoutes(r fiber.Router) {
	if r == nil {
		return
	}

	r.Get("/", h.HandleDashboard)
	r.Post("/", h.HandleCreate)
	r.Get("/:id", h.HandleGet)
	r.Patch("/:id", h.HandleUpdate)
	r.Delete("/:id", h.HandleDelete)
	r.Post("/:id/events", h.HandleAddEvent)
	r.Delete("/:id/events/:eventId", h.HandleRemoveEvent)
	r.Post("/:id/events/:eventId/toggle", h.HandleToggleEvent)
}

func session(c fiber.Ctx) (auth.Session, error) {
	s, ok := middleware.SessionFrom(c)
	if !ok {
		return auth.Session{}, middleware.NewAppError(fiber.StatusUnauthorized, response.MessageUnauthorized, nil, auth.ErrUnauthorized)
	}
	return s, nil
}

func pathID(c fiber.Ctx, key string) (string, error) {
	id := strings.TrimSpace(c.Params(key))
	if id == "" {
		return "", middleware.NewAppError(fiber.StatusBadRequest, response.MessageBadRequest, nil, nil)
	}
	return id, nil
}

func (h *JobsHandler) HandleDashboard(c fiber.Ctx) error {
	sess, err := session(c)
	if err != nil {
		return err
	}
	f, err := stats.ParseFilters(c.Query("type"), c.Query("status"))
	if err != nil {
		return err
	}

	view, err := h.uc.Dashboard(c.Context(), sess, f)
	if err != nil {
		return err
	}
	return response.Success(c, fiber.StatusOK, response.MessageOK, dto.NewDashboardResponse(view))
}

func (h *JobsHandler) HandleCreate(c fiber.Ctx) error {
	sess, err := session(c)
	if err != nil {
		return err
	}
	var req dto.CreateJobRequest
	if err := c.Bind().Body(&req); err != nil {
		return middleware.NewAppError(fiber.StatusBadRequest, response.MessageBadRequest, nil, err)
	}
	in, err := req.ToInput()
	if err != nil {
		return err
	}

	id, err := h.uc.CreateJob(c.Context(), sess, in)
	if err != nil {
		return err
	}
	return response.Success(c, fiber.StatusCreated, usecase.MessageJobCreated, dto.IDResponse{ID: id})
}

func (h *JobsHandler) HandleGet(c fiber.Ctx) error {
	sess, err := session(c)
	if err != nil {
		return err
	}
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}

	app, err := h.uc.GetJob(c.Context(), sess, id)
	if err != nil {
		return err
	}
	return response.Success(c, fiber.StatusOK, response.MessageOK, dto.NewJobResponse(app))
}

func (h *JobsHandler) HandleUpdate(c fiber.Ctx) error {
	sess, err := session(c)
	if err != nil {
		return err
	}
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}
	var req dto.UpdateJobRequest
	if err := c.Bind().Body(&req); err != nil {
		return middleware.NewAppError(fiber.StatusBadRequest, response.MessageBadRequest, nil, err)
	}
	p, err := req.ToPatch()
	if err != nil {
		return err
	}

	if err := h.uc.UpdateJob(c.Context(), sess, id, p); err != nil {
		return err
	}
	return response.Success(c, fiber.StatusOK, usecase.MessageJobUpdated, nil)
}

func (h *JobsHandler) HandleDelete(c fiber.Ctx) error {
	sess, err := session(c)
	if err != nil {
		return err
	}
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}

	if err := h.uc.DeleteJob(c.Context(), sess, id); err != nil {
		return failWith(err, usecase.MessageDeleteJobFailed)
	}
	return response.Success(c, fiber.StatusOK, usecase.MessageJobDeleted, nil)
}

func (h *JobsHandler) HandleAddEvent(c fiber.Ctx) error {
	sess, err := session(c)
	if err != nil {
		return err
	}
	jobID, err := pathID(c, "id")
	if err != nil {
		return err
	}
	var req dto.EventRequest
	if err := c.Bind().Body(&req); err != nil {
		return middleware.NewAppError(fiber.StatusBadRequest, response.MessageBadRequest, nil, err)
	}
	in, err := req.ToInput()
	if err != nil {
		return err
	}

	id, err := h.uc.AddEvent(c.Context(), sess, jobID, in)
	if err != nil {
		return failWith(err, usecase.MessageAddEventFailed)
	}
	return response.Success(c, fiber.StatusCreated, usecase.MessageEventAdded, dto.IDResponse{ID: id})
}

func (h *JobsHandler) HandleRemoveEvent(c fiber.Ctx) error {
	sess, err := session(c)
	if err != nil {
		return err
	}
	jobID, err := pathID(c, "id")
	if err != nil {
		return err
	}
	eventID, err := pathID(c, "eventId")
	if err != nil {
		return err
	}

	if err := h.uc.RemoveEvent(c.Context(), sess, jobID, eventID); err != nil {
		return failWith(err, usecase.MessageDeleteEventFailed)
	}
	return response.Success(c, fiber.StatusOK, usecase.MessageEventDeleted, nil)
}

func (h *JobsHandler) HandleToggleEvent(c fiber.Ctx) error {
	sess, err := session(c)
	if err != nil {
		return err
	}
	jobID, err := pathID(c, "id")
	if err != nil {
		return err
	}
	eventID, err := pathID(c, "eventId")
	if err != nil {
		return err
	}

	completed, err := h.uc.ToggleEvent(c.Context(), sess, jobID, eventID)
	if err != nil {
		return failWith(err, usecase.MessageUpdateEventFailed)
	}
	msg := usecase.MessageEventIncomplete
	if completed {
		msg = usecase.MessageEventCompleted
	}
	return response.Success(c, fiber.StatusOK, msg, dto.ToggleResponse{Completed: completed})
}
