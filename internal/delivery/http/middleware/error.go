package middleware

import (
	"errors"

	"job-tracker/internal/auth"
	"job-tracker/internal/domain/job"
	"job-tracker/internal/pkg/logger"
	"job-tracker/internal/pkg/response"

	"github.com/gofiber/fiber/v3"
)

type AppError struct {
	StatusCode int
	Message    string
	Data       interface{}
	Cause      error
}

func (e *AppError) Error() string {
	if e == nil {
		return ""
	}
	if e.Cause != nil {
		return e.Message + ": " + e.Cause.Error()
	}
	return e.Message
}

func (e *AppError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Cause
}

func NewAppError(statusCode int, message string, data interface{}, cause error) *AppError {
	return &AppError{StatusCode: statusCode, Message: message, Data: data, Cause: cause}
}

type ErrorMiddleware struct {
	log logger.Logger
}

func NewErrorMiddleware(log logger.Logger) *ErrorMiddleware {
	if log == nil {
		log = logger.NewNoOpLogger()
	}
	return &ErrorMiddleware{log: log}
}

func (m *ErrorMiddleware) Middleware() fiber.Handler {
	return func(c fiber.Ctx) (err error) {
		defer func() {
			if r := recover(); r != nil {
				m.log.Error("panic recovered", map[string]interface{}{"panic": r, "path": c.Path()})
				err = response.Error(c, fiber.StatusInternalServerError, response.MessageRequestFailed, nil)
			}
		}()

		err = c.Next()
		if err == nil {
			return nil
		}

		status, msg, data := normalizeError(err)
		if status >= 500 {
			m.log.Error("request failed", map[string]interface{}{
				"method": c.Method(),
				"path":   c.Path(),
				"error":  err,
			})
		}
		return response.Error(c, status, msg, data)
	}
}

// ErrorHandler is the fiber app error handler for errors that escape the
// middleware chain, such as unknown routes.
func ErrorHandler(c fiber.Ctx, err error) error {
	status, msg, data := normalizeError(err)
	return response.Error(c, status, msg, data)
}

func normalizeError(err error) (int, string, interface{}) {
	if err == nil {
		return fiber.StatusInternalServerError, response.MessageRequestFailed, nil
	}

	var appErr *AppError
	if errors.As(err, &appErr) {
		status := appErr.StatusCode
		if status <= 0 || status > 599 {
			status = fiber.StatusInternalServerError
		}
		msg := appErr.Message
		if msg == "" {
			msg = response.DefaultMessage(status)
		}
		if status >= 500 {
			return status, msg, nil
		}
		return status, msg, appErr.Data
	}

	var ve *job.ValidationError
	if errors.As(err, &ve) {
		return fiber.StatusBadRequest, ve.Message, fiber.Map{"field": ve.Field}
	}

	switch {
	case errors.Is(err, job.ErrNotFound):
		return fiber.StatusNotFound, response.MessageNotFound, nil
	case errors.Is(err, job.ErrEventNotFound):
		return fiber.StatusNotFound, response.MessageEventNotFound, nil
	case errors.Is(err, auth.ErrSessionEnded):
		return fiber.StatusUnauthorized, response.MessageSessionExpired, nil
	case errors.Is(err, auth.ErrUnauthorized):
		return fiber.StatusUnauthorized, response.MessageUnauthorized, nil
	}

	var fiberErr *fiber.Error
	if errors.As(err, &fiberErr) {
		status := fiberErr.Code
		if status <= 0 || status >= 500 {
			return fiber.StatusInternalServerError, response.MessageRequestFailed, nil
		}
		msg := fiberErr.Message
		if msg == "" {
			msg = response.DefaultMessage(status)
		}
		return status, msg, nil
	}

	return fiber.StatusInternalServerError, response.MessageRequestFailed, nil
}
