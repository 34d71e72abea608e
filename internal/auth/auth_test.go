package auth

import (
	"testing"
	"time"

	"job-tracker/internal/pkg/jwt"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type change struct {
	s  Session
	ok bool
}

func newManager() *Manager {
	return NewManager(jwt.NewHMACService("secret", time.Hour))
}

func TestManager_StateStream(t *testing.T) {
	m := newManager()

	var got []change
	unsub := m.OnAuthStateChanged(func(s Session, ok bool) { got = append(got, change{s, ok}) })

	_, err := m.SignIn("u1")
	require.NoError(t, err)
	_, err = m.SignIn("u1")
	require.NoError(t, err)
	_, err = m.SignIn("u2")
	require.NoError(t, err)
	m.SignOut()

	unsub()
	unsub()
	_, err = m.SignIn("u3")
	require.NoError(t, err)

	assert.Equal(t, []change{
		{Session{}, false},
		{Session{UserID: "u1"}, true},
		{Session{UserID: "u2"}, true},
		{Session{}, false},
	}, got)

	s, ok := m.CurrentUser()
	assert.True(t, ok)
	assert.Equal(t, "u3", s.UserID)
}

func TestManager_Authenticate(t *testing.T) {
	m := newManager()
	tok, err := m.SignIn("u1")
	require.NoError(t, err)

	s, err := m.Authenticate(tok)
	require.NoError(t, err)
	assert.Equal(t, Session{UserID: "u1"}, s)

	_, err = m.Authenticate("")
	assert.ErrorIs(t, err, ErrUnauthorized)
	_, err = m.Authenticate("garbage")
	assert.ErrorIs(t, err, ErrUnauthorized)
}

func TestManager_SignInRejectsEmptyUser(t *testing.T) {
	m := newManager()
	_, err := m.SignIn("  ")
	assert.Error(t, err)
	_, ok := m.CurrentUser()
	assert.False(t, ok)
}

func TestStatic(t *testing.T) {
	var got []change
	Static{UserID: "u1"}.OnAuthStateChanged(func(s Session, ok bool) { got = append(got, change{s, ok}) })()
	assert.Equal(t, []change{{Session{UserID: "u1"}, true}}, got)

	_, ok := Static{}.CurrentUser()
	assert.False(t, ok)
}

func TestManager_IssueLeavesStateAlone(t *testing.T) {
	m := newManager()
	tok, err := m.Issue("u9")
	require.NoError(t, err)

	_, ok := m.CurrentUser()
	assert.False(t, ok)

	s, err := m.Authenticate(tok)
	require.NoError(t, err)
	assert.Equal(t, "u9", s.UserID)
}
