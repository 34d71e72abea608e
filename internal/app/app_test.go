package app

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"job-tracker/internal/config"
	"job-tracker/internal/delivery/http/dto"
	"job-tracker/internal/domain/date"
	"job-tracker/internal/pkg/logger"
	"job-tracker/internal/pkg/response"
	"job-tracker/internal/usecase"

	"github.com/gofiber/fiber/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type envelope struct {
	Status  int             `json:"status"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

func testConfig() config.Config {
	return config.Config{
		App:      config.AppConfig{AppName: "job-tracker-test", Environment: config.EnvDevelopment, HTTPPort: "0"},
		Database: config.DatabaseConfig{Driver: config.DriverMemory},
		Auth: config.AuthConfig{
			JWTSecret:     "test-secret",
			SessionCookie: "session",
			TokenTTL:      time.Hour,
			DevSignIn:     true,
		},
	}
}

func newTestApp(t *testing.T) *App {
	t.Helper()
	a, cleanup, err := Bootstrap(context.Background(), testConfig(), logger.NewTestLogger(t))
	require.NoError(t, err)
	t.Cleanup(func() { require.NoError(t, cleanup()) })
	return a
}

func call(t *testing.T, a *App, method, path, token string, body interface{}) (int, envelope) {
	t.Helper()
	var rd io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		rd = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, rd)
	if body != nil {
		req.Header.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)
	}
	if token != "" {
		req.Header.Set(fiber.HeaderAuthorization, "Bearer "+token)
	}

	resp, err := a.Fiber.Test(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	var env envelope
	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	if len(raw) > 0 {
		require.NoError(t, json.Unmarshal(raw, &env), string(raw))
	}
	return resp.StatusCode, env
}

func signIn(t *testing.T, a *App, userID string) string {
	t.Helper()
	status, env := call(t, a, http.MethodPost, "/api/v1/session", "", dto.SessionRequest{UserID: userID})
	require.Equal(t, http.StatusOK, status)
	var out dto.SessionResponse
	require.NoError(t, json.Unmarshal(env.Data, &out))
	require.NotEmpty(t, out.Token)
	return out.Token
}

func createJob(t *testing.T, a *App, token, company string) string {
	t.Helper()
	status, env := call(t, a, http.MethodPost, "/api/v1/jobs", token, dto.CreateJobRequest{
		CompanyName: company,
		JobTitle:    "Backend Engineer",
		Type:        "full-time",
		Status:      "applied",
		DateApplied: dto.DateInput{Date: "2024-03-01"},
	})
	require.Equal(t, http.StatusCreated, status, env.Message)
	assert.Equal(t, usecase.MessageJobCreated, env.Message)
	var out dto.IDResponse
	require.NoError(t, json.Unmarshal(env.Data, &out))
	require.NotEmpty(t, out.ID)
	return out.ID
}

func TestApp_JobLifecycle(t *testing.T) {
	a := newTestApp(t)
	alice := signIn(t, a, "alice")
	id := createJob(t, a, alice, "Acme")

	status, env := call(t, a, http.MethodGet, "/api/v1/jobs", alice, nil)
	require.Equal(t, http.StatusOK, status)
	var dash dto.DashboardResponse
	require.NoError(t, json.Unmarshal(env.Data, &dash))
	require.Len(t, dash.Jobs, 1)
	assert.Equal(t, "Acme", dash.Jobs[0].CompanyName)
	assert.Equal(t, "2024-03-01", dash.Jobs[0].DateApplied)
	assert.Equal(t, 1, dash.Stats.TotalApplications)
	assert.False(t, dash.FiltersActive)

	status, env = call(t, a, http.MethodPatch, "/api/v1/jobs/"+id, alice, map[string]interface{}{"status": "in-progress"})
	require.Equal(t, http.StatusOK, status, env.Message)
	assert.Equal(t, usecase.MessageJobUpdated, env.Message)

	status, env = call(t, a, http.MethodGet, "/api/v1/jobs/"+id, alice, nil)
	require.Equal(t, http.StatusOK, status)
	var got dto.JobResponse
	require.NoError(t, json.Unmarshal(env.Data, &got))
	assert.Equal(t, "in-progress", got.Status)

	status, env = call(t, a, http.MethodDelete, "/api/v1/jobs/"+id, alice, nil)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, usecase.MessageJobDeleted, env.Message)

	status, env = call(t, a, http.MethodGet, "/api/v1/jobs/"+id, alice, nil)
	assert.Equal(t, http.StatusNotFound, status)
	assert.Equal(t, response.MessageNotFound, env.Message)
}

func TestApp_EventsAndToggleMessages(t *testing.T) {
	a := newTestApp(t)
	alice := signIn(t, a, "alice")
	id := createJob(t, a, alice, "Acme")

	status, env := call(t, a, http.MethodPost, "/api/v1/jobs/"+id+"/events", alice, dto.EventRequest{
		Type: "interview",
		Date: dto.DateInput{Date: "2024-03-10"},
	})
	require.Equal(t, http.StatusCreated, status, env.Message)
	assert.Equal(t, usecase.MessageEventAdded, env.Message)
	var ev dto.IDResponse
	require.NoError(t, json.Unmarshal(env.Data, &ev))

	toggle := "/api/v1/jobs/" + id + "/events/" + ev.ID + "/toggle"
	status, env = call(t, a, http.MethodPost, toggle, alice, nil)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, usecase.MessageEventCompleted, env.Message)

	status, env = call(t, a, http.MethodPost, toggle, alice, nil)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, usecase.MessageEventIncomplete, env.Message)

	status, env = call(t, a, http.MethodDelete, "/api/v1/jobs/"+id+"/events/"+ev.ID, alice, nil)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, usecase.MessageEventDeleted, env.Message)

	_, env = call(t, a, http.MethodGet, "/api/v1/jobs/"+id, alice, nil)
	var got dto.JobResponse
	require.NoError(t, json.Unmarshal(env.Data, &got))
	assert.Empty(t, got.Events)
}

func TestApp_OtherUsersJobIsNotFound(t *testing.T) {
	a := newTestApp(t)
	alice := signIn(t, a, "alice")
	bob := signIn(t, a, "bob")
	id := createJob(t, a, alice, "Acme")

	status, _ := call(t, a, http.MethodGet, "/api/v1/jobs/"+id, bob, nil)
	assert.Equal(t, http.StatusNotFound, status)

	status, _ = call(t, a, http.MethodDelete, "/api/v1/jobs/"+id, bob, nil)
	assert.Equal(t, http.StatusNotFound, status)

	_, env := call(t, a, http.MethodGet, "/api/v1/jobs", bob, nil)
	var dash dto.DashboardResponse
	require.NoError(t, json.Unmarshal(env.Data, &dash))
	assert.Empty(t, dash.Jobs)
	assert.NotEmpty(t, dash.EmptyMessage)
}

func TestApp_RejectsInvalidInput(t *testing.T) {
	a := newTestApp(t)
	alice := signIn(t, a, "alice")

	status, env := call(t, a, http.MethodPost, "/api/v1/jobs", alice, dto.CreateJobRequest{
		CompanyName: "Acme",
		JobTitle:    "Engineer",
		Type:        "full-time",
		Status:      "applied",
		DateApplied: dto.DateInput{Date: "2024-02-30"},
	})
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, "Please enter a valid date", env.Message)

	status, _ = call(t, a, http.MethodGet, "/api/v1/jobs?type=contract", alice, nil)
	assert.Equal(t, http.StatusBadRequest, status)
}

func TestApp_RequiresSession(t *testing.T) {
	a := newTestApp(t)

	status, env := call(t, a, http.MethodGet, "/api/v1/jobs", "", nil)
	assert.Equal(t, http.StatusUnauthorized, status)
	assert.Equal(t, response.MessageUnauthorized, env.Message)

	status, _ = call(t, a, http.MethodGet, "/api/v1/jobs", "not-a-token", nil)
	assert.Equal(t, http.StatusUnauthorized, status)
}

func TestApp_DateFieldsAndHealth(t *testing.T) {
	a := newTestApp(t)

	status, env := call(t, a, http.MethodPost, "/api/v1/date-fields", "", dto.DateFieldRequest{
		Field:   "day",
		Value:   "31",
		Current: date.Fields{Month: "02", Year: "2024"},
	})
	require.Equal(t, http.StatusOK, status)
	var out dto.DateFieldResponse
	require.NoError(t, json.Unmarshal(env.Data, &out))
	assert.Equal(t, "29", out.Fields.Day)
	assert.True(t, out.Valid)

	status, _ = call(t, a, http.MethodGet, "/health", "", nil)
	assert.Equal(t, http.StatusOK, status)
}

func TestApp_GateRedirects(t *testing.T) {
	a := newTestApp(t)
	token := signIn(t, a, "alice")

	resp, err := a.Fiber.Test(httptest.NewRequest(http.MethodGet, "/dashboard", nil))
	require.NoError(t, err)
	assert.GreaterOrEqual(t, resp.StatusCode, 300)
	assert.Less(t, resp.StatusCode, 400)
	assert.Equal(t, "/login", resp.Header.Get(fiber.HeaderLocation))

	req := httptest.NewRequest(http.MethodGet, "/login", nil)
	req.AddCookie(&http.Cookie{Name: "session", Value: token})
	resp, err = a.Fiber.Test(req)
	require.NoError(t, err)
	assert.Equal(t, "/dashboard", resp.Header.Get(fiber.HeaderLocation))
}

func TestListenAddr(t *testing.T) {
	addr, err := ListenAddr("8080")
	require.NoError(t, err)
	assert.Equal(t, ":8080", addr)

	addr, err = ListenAddr(":9090")
	require.NoError(t, err)
	assert.Equal(t, ":9090", addr)

	_, err = ListenAddr("  ")
	assert.Error(t, err)
}

func TestApp_SeedsDemoUser(t *testing.T) {
	cfg := testConfig()
	cfg.Seed.DemoUser = "demo"
	a, cleanup, err := Bootstrap(context.Background(), cfg, logger.NewTestLogger(t))
	require.NoError(t, err)
	t.Cleanup(func() { require.NoError(t, cleanup()) })

	token := signIn(t, a, "demo")
	_, env := call(t, a, http.MethodGet, "/api/v1/jobs?status=offered", token, nil)
	var dash dto.DashboardResponse
	require.NoError(t, json.Unmarshal(env.Data, &dash))
	assert.Equal(t, 4, dash.Stats.TotalApplications)
	require.Len(t, dash.Jobs, 1)
	assert.True(t, dash.FiltersActive)
	assert.Equal(t, "Initech", dash.Jobs[0].CompanyName)
}

func TestApp_DevSignInWithoutConfiguredSecret(t *testing.T) {
	cfg := testConfig()
	cfg.Auth.JWTSecret = ""
	a, cleanup, err := Bootstrap(context.Background(), cfg, logger.NewTestLogger(t))
	require.NoError(t, err)
	t.Cleanup(func() { require.NoError(t, cleanup()) })

	token := signIn(t, a, "alice")
	status, _ := call(t, a, http.MethodGet, "/api/v1/jobs", token, nil)
	assert.Equal(t, http.StatusOK, status)
}

func TestContainer_SessionSecretsDifferPerProcess(t *testing.T) {
	cfg := testConfig()
	cfg.Auth.JWTSecret = ""
	first, err := NewContainer(context.Background(), cfg, logger.NewTestLogger(t))
	require.NoError(t, err)
	t.Cleanup(func() { _ = first.Close() })
	second, err := NewContainer(context.Background(), cfg, logger.NewTestLogger(t))
	require.NoError(t, err)
	t.Cleanup(func() { _ = second.Close() })

	token, err := first.Auth.Issue("alice")
	require.NoError(t, err)
	_, err = first.Auth.Authenticate(token)
	require.NoError(t, err)
	_, err = second.Auth.Authenticate(token)
	assert.Error(t, err)
}
