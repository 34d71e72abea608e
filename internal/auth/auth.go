// Package auth models the signed-in identity handed out by the external
// identity provider. The tracker consumes it as an opaque user id plus a
// stream of sign-in and sign-out notifications.
package auth

import (
	"errors"
	"strings"
	"sync"

	"job-tracker/internal/pkg/jwt"
)

var (
	ErrUnauthorized = errors.New("unauthorized")
	ErrSessionEnded = errors.New("session expired")
)

// Session is passed explicitly to every user-scoped operation.
type Session struct {
	UserID string `json:"userId"`
}

func (s Session) Valid() bool { return strings.TrimSpace(s.UserID) != "" }

// StateFunc receives the new session, or ok=false on sign-out.
type StateFunc func(s Session, ok bool)

type Provider interface {
	CurrentUser() (Session, bool)
	// OnAuthStateChanged calls fn with the current state right away and then
	// on every change until the returned func is called.
	OnAuthStateChanged(fn StateFunc) (unsubscribe func())
}

// Manager is a Provider whose state follows SignIn and SignOut. Sessions are
// carried between requests as signed tokens.
type Manager struct {
	tokens jwt.Service

	mu        sync.Mutex
	current   Session
	signedIn  bool
	nextID    int
	listeners map[int]StateFunc
}

func NewManager(tokens jwt.Service) *Manager {
	return &Manager{tokens: tokens, listeners: map[int]StateFunc{}}
}

func (m *Manager) CurrentUser() (Session, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.current, m.signedIn
}

func (m *Manager) OnAuthStateChanged(fn StateFunc) func() {
	m.mu.Lock()
	id := m.nextID
	m.nextID++
	m.listeners[id] = fn
	s, ok := m.current, m.signedIn
	m.mu.Unlock()

	fn(s, ok)

	var once sync.Once
	return func() {
		once.Do(func() {
			m.mu.Lock()
			delete(m.listeners, id)
			m.mu.Unlock()
		})
	}
}

// Issue signs a session token for userID without changing the current user.
func (m *Manager) Issue(userID string) (string, error) {
	return m.tokens.GenerateSessionToken(userID)
}

// SignIn makes userID the current user and returns a token for it.
func (m *Manager) SignIn(userID string) (string, error) {
	tok, err := m.Issue(userID)
	if err != nil {
		return "", err
	}
	m.set(Session{UserID: strings.TrimSpace(userID)}, true)
	return tok, nil
}

func (m *Manager) SignOut() {
	m.set(Session{}, false)
}

// Authenticate validates a token without touching the current user.
func (m *Manager) Authenticate(token string) (Session, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return Session{}, ErrUnauthorized
	}
	c, err := m.tokens.ValidateToken(token)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return Session{}, ErrSessionEnded
		}
		return Session{}, ErrUnauthorized
	}
	return Session{UserID: c.UserID}, nil
}

func (m *Manager) set(s Session, ok bool) {
	m.mu.Lock()
	if m.signedIn == ok && m.current == s {
		m.mu.Unlock()
		return
	}
	m.current, m.signedIn = s, ok
	fns := make([]StateFunc, 0, len(m.listeners))
	for _, fn := range m.listeners {
		fns = append(fns, fn)
	}
	m.mu.Unlock()

	for _, fn := range fns {
		fn(s, ok)
	}
}

// Static is a Provider fixed to one session. It never changes state.
type Static Session

func (s Static) CurrentUser() (Session, bool) {
	return Session(s), Session(s).Valid()
}

func (s Static) OnAuthStateChanged(fn StateFunc) func() {
	fn(s.CurrentUser())
	return func() {}
}
