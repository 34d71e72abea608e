package middleware

import (
	"errors"
	"strings"

	"job-tracker/internal/auth"
	"job-tracker/internal/pkg/response"

	"github.com/gofiber/fiber/v3"
)

const (
	CtxUserIDKey  = "user_id"
	CtxSessionKey = "session"
)

type Authenticator interface {
	Authenticate(token string) (auth.Session, error)
}

type AuthMiddleware struct {
	auth   Authenticator
	cookie string
}

func NewAuthMiddleware(a Authenticator, cookieName string) *AuthMiddleware {
	return &AuthMiddleware{auth: a, cookie: cookieName}
}

// Middleware rejects requests without a valid session. The token comes from
// the Authorization header or, failing that, the session cookie.
func (m *AuthMiddleware) Middleware() fiber.Handler {
	return func(c fiber.Ctx) error {
		sess, err := m.sessionFrom(c)
		if err != nil {
			if errors.Is(err, auth.ErrSessionEnded) {
				return NewAppError(fiber.StatusUnauthorized, response.MessageSessionExpired, nil, err)
			}
			return NewAppError(fiber.StatusUnauthorized, response.MessageUnauthorized, nil, err)
		}

		c.Locals(CtxUserIDKey, sess.UserID)
		c.Locals(CtxSessionKey, sess)
		return c.Next()
	}
}

// Gate redirects page requests by session state: protected prefixes go to
// loginPath without a session, loginPath goes to homePath with one.
func (m *AuthMiddleware) Gate(loginPath, homePath string, protected ...string) fiber.Handler {
	return func(c fiber.Ctx) error {
		path := c.Path()
		_, err := m.sessionFrom(c)
		signedIn := err == nil

		if path == loginPath && signedIn {
			return c.Redirect().To(homePath)
		}
		if !signedIn {
			for _, p := range protected {
				if path == p || strings.HasPrefix(path, p+"/") {
					return c.Redirect().To(loginPath)
				}
			}
		}
		return c.Next()
	}
}

func (m *AuthMiddleware) sessionFrom(c fiber.Ctx) (auth.Session, error) {
	token, ok := bearerTokenFromHeader(c.Get(fiber.HeaderAuthorization))
	if !ok {
		token = strings.TrimSpace(c.Cookies(m.cookie))
	}
	if token == "" {
		return auth.Session{}, auth.ErrUnauthorized
	}
	return m.auth.Authenticate(token)
}

// SessionFrom returns the session stored by Middleware.
func SessionFrom(c fiber.Ctx) (auth.Session, bool) {
	s, ok := c.Locals(CtxSessionKey).(auth.Session)
	return s, ok && s.Valid()
}

func bearerTokenFromHeader(authHeader string) (string, bool) {
	authHeader = strings.TrimSpace(authHeader)
	if authHeader == "" {
		return "", false
	}

	parts := strings.SplitN(authHeader, " ", 2)
	if len(parts) != 2 {
		return "", false
	}
	if !strings.EqualFold(parts[0], "Bearer") {
		return "", false
	}

	token := strings.TrimSpace(parts[1])
	if token == "" {
		return "", false
	}

	return token, true
}
