package handler

import (
	"strings"
	"time"

	"job-tracker/internal/delivery/http/dto"
	"job-tracker/internal/delivery/http/middleware"
	"job-tracker/internal/pkg/response"

	"github.com/gofiber/fiber/v3"
)

type SessionIssuer interface {
	Issue(userID string) (string, error)
}

type SessionHandler struct {
	issuer    SessionIssuer
	cookie    string
	ttl       time.Duration
	devSignIn bool
	secure    bool
}

type SessionOptions struct {
	CookieName string
	TTL        time.Duration
	DevSignIn  bool
	Secure     bool
}

func NewSessionHandler(issuer SessionIssuer, opts SessionOptions) *SessionHandler {
	return &SessionHandler{
		issuer:    issuer,
		cookie:    opts.CookieName,
		ttl:       opts.TTL,
		devSignIn: opts.DevSignIn,
		secure:    opts.Secure,
	}
}

func (h *SessionHandler) RegisterRoutes(r fiber.Router) {
	if r == nil {
		return
	}

	if h.devSignIn {
		r.Post("/session", h.SignIn)
	}
	r.Delete("/session", h.SignOut)
}

// SignIn stands in for the external identity provider in development: it
// trusts the given user id and sets the session cookie.
func (h *SessionHandler) SignIn(c fiber.Ctx) error {
	var req dto.SessionRequest
	if err := c.Bind().Body(&req); err != nil {
		return middleware.NewAppError(fiber.StatusBadRequest, response.MessageBadRequest, nil, err)
	}
	userID := strings.TrimSpace(req.UserID)
	if userID == "" {
		return middleware.NewAppError(fiber.StatusBadRequest, "User id is required", nil, nil)
	}

	tok, err := h.issuer.Issue(userID)
	if err != nil {
		return middleware.NewAppError(fiber.StatusInternalServerError, response.MessageRequestFailed, nil, err)
	}

	c.Cookie(&fiber.Cookie{
		Name:     h.cookie,
		Value:    tok,
		Path:     "/",
		Expires:  time.Now().Add(h.ttl),
		HTTPOnly: true,
		Secure:   h.secure,
		SameSite: fiber.CookieSameSiteLaxMode,
	})
	return response.Success(c, fiber.StatusOK, "Successfully signed in", dto.SessionResponse{UserID: userID, Token: tok})
}

func (h *SessionHandler) SignOut(c fiber.Ctx) error {
	c.ClearCookie(h.cookie)
	return response.Success(c, fiber.StatusOK, "Signed out successfully", nil)
}
