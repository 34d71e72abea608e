package response

import "github.com/gofiber/fiber/v3"

type SemanticResponse struct {
	Status  int         `json:"status"`
	Message string      `json:"message"`
	Data    interface{} `json:"data"`
}

const (
	MessageOK             = "ok"
	MessageBadRequest     = "bad request"
	MessageUnauthorized   = "Please sign in to continue"
	MessageSessionExpired = "Your session has expired, please sign in again"
	MessageNotFound       = "Job application not found"
	MessageEventNotFound  = "Event not found"
	MessageRouteNotFound  = "not found"
	MessageRequestFailed  = "There was an error processing your request"
)

func Success(c fiber.Ctx, status int, message string, data interface{}) error {
	st := normalizeStatus(status)
	return c.Status(st).JSON(SemanticResponse{Status: st, Message: normalizeMessage(message, st), Data: data})
}

func Error(c fiber.Ctx, status int, message string, data interface{}) error {
	st := normalizeStatus(status)
	return c.Status(st).JSON(SemanticResponse{Status: st, Message: normalizeMessage(message, st), Data: data})
}

func normalizeStatus(status int) int {
	if status < 100 || status > 599 {
		return fiber.StatusInternalServerError
	}
	return status
}

func normalizeMessage(message string, status int) string {
	if message != "" {
		return message
	}
	return DefaultMessage(status)
}

// DefaultMessage is the envelope message used when a handler sets none.
func DefaultMessage(status int) string {
	switch {
	case status < 300:
		return MessageOK
	case status == fiber.StatusUnauthorized:
		return MessageUnauthorized
	case status == fiber.StatusNotFound:
		return MessageRouteNotFound
	case status >= 500:
		return MessageRequestFailed
	default:
		return MessageBadRequest
	}
}
