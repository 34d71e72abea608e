package middleware

import (
	"time"

	"job-tracker/internal/pkg/logger"

	"github.com/gofiber/fiber/v3"
	"github.com/google/uuid"
)

const HeaderRequestID = "X-Request-ID"

type AccessLogMiddleware struct {
	log logger.Logger
}

func NewAccessLogMiddleware(log logger.Logger) *AccessLogMiddleware {
	if log == nil {
		log = logger.NewNoOpLogger()
	}
	return &AccessLogMiddleware{log: log}
}

func (m *AccessLogMiddleware) Middleware() fiber.Handler {
	return func(c fiber.Ctx) error {
		start := time.Now()

		rid := c.Get(HeaderRequestID)
		if rid == "" {
			rid = uuid.NewString()
		}
		c.Set(HeaderRequestID, rid)

		err := c.Next()

		fields := map[string]interface{}{
			"request_id": rid,
			"method":     c.Method(),
			"path":       c.OriginalURL(),
			"status":     c.Response().StatusCode(),
			"latency_ms": time.Since(start).Milliseconds(),
			"ip":         c.IP(),
			"resp_bytes": len(c.Response().Body()),
		}
		if ua := c.Get(fiber.HeaderUserAgent); ua != "" {
			fields["user_agent"] = ua
		}
		if uid, ok := c.Locals(CtxUserIDKey).(string); ok {
			fields["user_id"] = uid
		}
		m.log.Info("http access", fields)

		return err
	}
}
