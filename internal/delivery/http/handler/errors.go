package handler

import (
	"errors"

	"job-tracker/internal/delivery/http/middleware"
	"job-tracker/internal/domain/job"

	"github.com/gofiber/fiber/v3"
)

// failWith gives store failures a user-facing message. Validation, auth and
// not-found errors pass through to the error middleware unchanged.
func failWith(err error, message string) error {
	if errors.Is(err, job.ErrStoreWrite) || errors.Is(err, job.ErrStoreRead) {
		return middleware.NewAppError(fiber.StatusInternalServerError, message, nil, err)
	}
	return err
}
